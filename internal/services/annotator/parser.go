package annotator

import (
	"encoding/json"
	"regexp"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/ternarybob/auspex/internal/models"
)

// scoringVerdict is the structured shape the scoring provider is asked to
// return. All fields are validated with go-playground/validator tags before
// the verdict is accepted; a response that fails validation drops to the
// heuristic path like any other malformed response.
type scoringVerdict struct {
	IsRelevant       bool     `json:"is_relevant"`
	EventDescription string   `json:"event_description"`
	AnalysisText     string   `json:"analysis_text"`
	ImpactScore      int      `json:"impact_score" validate:"min=0,max=10"`
	SentimentSummary string   `json:"sentiment_summary"`
	KeyFactors       []string `json:"key_factors"`
	ExpertCommentary string   `json:"expert_commentary"`
}

// Validate validates the verdict using go-playground/validator.
func (v *scoringVerdict) Validate() error {
	validate := validator.New()
	return validate.Struct(v)
}

// ParsedVerdict is the provider-independent result of parsing a scoring
// response. Origin records whether the structured or heuristic path produced it.
type ParsedVerdict struct {
	Relevant         bool
	EventDescription string
	AnalysisText     string
	ImpactScore      int
	Sentiment        string
	KeyFactors       []string
	ExpertCommentary string
	Origin           string
}

// standaloneScore matches a standalone integer 1-10 in free text. Digits inside
// longer numbers (years, percentages) don't match because there is no word
// boundary within a digit run.
var standaloneScore = regexp.MustCompile(`\b(10|[1-9])\b`)

// ParseScoringResponse parses a raw model response into a verdict.
//
// Primary path: strip formatting fences, locate the JSON object, unmarshal and
// validate it. Fallback path: scan the free text for a sentiment keyword and a
// standalone impact score, defaulting to neutral/5, and keep the raw text as
// the analysis. The fallback never fails, so a scoring call that returned any
// text at all yields a usable verdict.
func ParseScoringResponse(raw string) *ParsedVerdict {
	cleaned := stripFences(raw)

	if verdict, ok := parseStructured(cleaned); ok {
		return verdict
	}

	return parseHeuristic(raw)
}

// stripFences removes a surrounding markdown code fence, with or without a
// language tag, and trims whitespace.
func stripFences(s string) string {
	t := strings.TrimSpace(s)
	if !strings.HasPrefix(t, "```") {
		return t
	}

	t = strings.TrimPrefix(t, "```")
	// Drop the language tag line ("json", "JSON", ...) if present
	if idx := strings.Index(t, "\n"); idx >= 0 {
		firstLine := strings.TrimSpace(t[:idx])
		if firstLine == "" || isLanguageTag(firstLine) {
			t = t[idx+1:]
		}
	} else {
		t = strings.TrimPrefix(t, "json")
	}

	t = strings.TrimSpace(t)
	t = strings.TrimSuffix(t, "```")
	return strings.TrimSpace(t)
}

func isLanguageTag(line string) bool {
	switch strings.ToLower(line) {
	case "json", "javascript", "js", "text":
		return true
	}
	return false
}

// parseStructured attempts the primary structured path. Returns (nil, false)
// when the text holds no valid verdict object.
func parseStructured(text string) (*ParsedVerdict, bool) {
	payload := extractJSONObject(text)
	if payload == "" {
		return nil, false
	}

	var verdict scoringVerdict
	if err := json.Unmarshal([]byte(payload), &verdict); err != nil {
		return nil, false
	}
	if err := verdict.Validate(); err != nil {
		return nil, false
	}

	score := verdict.ImpactScore
	if score == 0 {
		score = 5 // Field absent from the response
	}

	sentiment := strings.ToLower(strings.TrimSpace(verdict.SentimentSummary))
	if !models.ValidSentiment(sentiment) {
		sentiment = models.SentimentNeutral
	}

	return &ParsedVerdict{
		Relevant:         verdict.IsRelevant,
		EventDescription: verdict.EventDescription,
		AnalysisText:     verdict.AnalysisText,
		ImpactScore:      models.ClampImpactScore(score),
		Sentiment:        sentiment,
		KeyFactors:       verdict.KeyFactors,
		ExpertCommentary: verdict.ExpertCommentary,
		Origin:           models.OriginStructured,
	}, true
}

// extractJSONObject returns the first-to-last-brace slice of text, which
// tolerates providers that wrap the object in prose. Empty when no braces.
func extractJSONObject(text string) string {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end <= start {
		return ""
	}
	return text[start : end+1]
}

// parseHeuristic recovers a verdict from free text. A response that reached
// this path cost a scoring call, so it is treated as relevant and stored
// verbatim rather than discarded.
func parseHeuristic(raw string) *ParsedVerdict {
	lower := strings.ToLower(raw)

	sentiment := models.SentimentNeutral
	bestIdx := -1
	for _, candidate := range []string{models.SentimentBullish, models.SentimentBearish, models.SentimentNeutral} {
		if idx := strings.Index(lower, candidate); idx >= 0 && (bestIdx < 0 || idx < bestIdx) {
			bestIdx = idx
			sentiment = candidate
		}
	}

	score := 5
	if match := standaloneScore.FindString(raw); match != "" {
		if parsed, err := strconv.Atoi(match); err == nil {
			score = parsed
		}
	}

	return &ParsedVerdict{
		Relevant:     true,
		AnalysisText: strings.TrimSpace(raw),
		ImpactScore:  models.ClampImpactScore(score),
		Sentiment:    sentiment,
		KeyFactors:   []string{},
		Origin:       models.OriginHeuristic,
	}
}
