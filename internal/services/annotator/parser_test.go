package annotator

import (
	"strings"
	"testing"

	"github.com/ternarybob/auspex/internal/models"
)

const wellFormedResponse = `{
	"is_relevant": true,
	"event_description": "Monthly change in retail sales excluding autos",
	"analysis_text": "A downside surprise pressures rate-sensitive sectors.",
	"impact_score": 7,
	"sentiment_summary": "Bearish",
	"key_factors": ["consumer spending", "rate path"],
	"expert_commentary": "Watch the prior-month revision."
}`

func TestParseStructuredResponse(t *testing.T) {
	verdict := ParseScoringResponse(wellFormedResponse)

	if verdict.Origin != models.OriginStructured {
		t.Fatalf("expected structured origin, got %q", verdict.Origin)
	}
	if !verdict.Relevant {
		t.Error("expected relevant verdict")
	}
	if verdict.ImpactScore != 7 {
		t.Errorf("expected impact 7, got %d", verdict.ImpactScore)
	}
	if verdict.Sentiment != models.SentimentBearish {
		t.Errorf("expected sentiment normalized to bearish, got %q", verdict.Sentiment)
	}
	if len(verdict.KeyFactors) != 2 {
		t.Errorf("expected 2 key factors, got %d", len(verdict.KeyFactors))
	}
	if !strings.Contains(verdict.ExpertCommentary, "revision") {
		t.Errorf("commentary not carried through: %q", verdict.ExpertCommentary)
	}
}

func TestParseFencedResponse(t *testing.T) {
	for name, raw := range map[string]string{
		"tagged":   "```json\n" + wellFormedResponse + "\n```",
		"untagged": "```\n" + wellFormedResponse + "\n```",
	} {
		t.Run(name, func(t *testing.T) {
			verdict := ParseScoringResponse(raw)
			if verdict.Origin != models.OriginStructured {
				t.Errorf("fenced response fell to heuristic path")
			}
		})
	}
}

func TestParseResponseWrappedInProse(t *testing.T) {
	raw := "Here is my assessment:\n" + wellFormedResponse + "\nLet me know if you need more."

	verdict := ParseScoringResponse(raw)
	if verdict.Origin != models.OriginStructured {
		t.Fatalf("expected the embedded object to parse, got origin %q", verdict.Origin)
	}
	if verdict.ImpactScore != 7 {
		t.Errorf("expected impact 7, got %d", verdict.ImpactScore)
	}
}

func TestParseNotRelevantVerdict(t *testing.T) {
	verdict := ParseScoringResponse(`{"is_relevant": false, "analysis_text": "Holiday closure only."}`)

	if verdict.Origin != models.OriginStructured {
		t.Fatalf("expected structured origin, got %q", verdict.Origin)
	}
	if verdict.Relevant {
		t.Error("expected not-relevant verdict")
	}
	// Absent score defaults to the midpoint.
	if verdict.ImpactScore != 5 {
		t.Errorf("expected default impact 5, got %d", verdict.ImpactScore)
	}
	if verdict.Sentiment != models.SentimentNeutral {
		t.Errorf("expected neutral default, got %q", verdict.Sentiment)
	}
}

func TestParseUnknownSentimentDefaultsToNeutral(t *testing.T) {
	verdict := ParseScoringResponse(`{"is_relevant": true, "impact_score": 3, "sentiment_summary": "mixed"}`)

	if verdict.Origin != models.OriginStructured {
		t.Fatalf("expected structured origin, got %q", verdict.Origin)
	}
	if verdict.Sentiment != models.SentimentNeutral {
		t.Errorf("expected neutral, got %q", verdict.Sentiment)
	}
}

func TestParseOutOfRangeScoreFallsToHeuristic(t *testing.T) {
	// Validation rejects the object, so the raw text is recovered instead.
	verdict := ParseScoringResponse(`{"is_relevant": true, "impact_score": 42, "sentiment_summary": "bullish"}`)

	if verdict.Origin != models.OriginHeuristic {
		t.Fatalf("expected heuristic fallback, got %q", verdict.Origin)
	}
	if verdict.Sentiment != models.SentimentBullish {
		t.Errorf("expected bullish keyword to be found, got %q", verdict.Sentiment)
	}
}

func TestParseHeuristicFreeText(t *testing.T) {
	raw := "This CPI print looks bearish for the index. I would rate the impact 8 out of 10 given positioning."

	verdict := ParseScoringResponse(raw)
	if verdict.Origin != models.OriginHeuristic {
		t.Fatalf("expected heuristic origin, got %q", verdict.Origin)
	}
	if !verdict.Relevant {
		t.Error("heuristic verdicts are always relevant")
	}
	if verdict.Sentiment != models.SentimentBearish {
		t.Errorf("expected bearish, got %q", verdict.Sentiment)
	}
	if verdict.ImpactScore != 8 {
		t.Errorf("expected impact 8 from free text, got %d", verdict.ImpactScore)
	}
	if verdict.AnalysisText != strings.TrimSpace(raw) {
		t.Error("heuristic path must keep the raw text as the analysis")
	}
}

func TestParseHeuristicPicksEarliestSentiment(t *testing.T) {
	verdict := ParseScoringResponse("Leaning bullish here, though some desks call it bearish.")

	if verdict.Sentiment != models.SentimentBullish {
		t.Errorf("expected the first keyword to win, got %q", verdict.Sentiment)
	}
}

func TestParseHeuristicIgnoresLongNumbers(t *testing.T) {
	// 2024 and 15 must not match as scores; no standalone 1-10 defaults to 5.
	verdict := ParseScoringResponse("In 2024 the index moved 15 points on neutral prints.")

	if verdict.ImpactScore != 5 {
		t.Errorf("expected default impact 5, got %d", verdict.ImpactScore)
	}
	if verdict.Sentiment != models.SentimentNeutral {
		t.Errorf("expected neutral, got %q", verdict.Sentiment)
	}
}

func TestParseEmptyResponse(t *testing.T) {
	verdict := ParseScoringResponse("")

	if verdict.Origin != models.OriginHeuristic {
		t.Fatalf("expected heuristic origin, got %q", verdict.Origin)
	}
	if verdict.ImpactScore != 5 || verdict.Sentiment != models.SentimentNeutral {
		t.Errorf("expected neutral/5 defaults, got %s/%d", verdict.Sentiment, verdict.ImpactScore)
	}
}

func TestStripFences(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"no fence", `{"a":1}`, `{"a":1}`},
		{"json tag", "```json\n{\"a\":1}\n```", `{"a":1}`},
		{"bare fence", "```\n{\"a\":1}\n```", `{"a":1}`},
		{"surrounding whitespace", "  ```json\n{\"a\":1}\n```  ", `{"a":1}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := stripFences(tt.in); got != tt.want {
				t.Errorf("stripFences(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}
