package annotator

import (
	"fmt"
	"strings"

	"github.com/ternarybob/auspex/internal/interfaces"
	"github.com/ternarybob/auspex/internal/models"
)

const scoringSystemPrompt = `You are an experienced macro analyst advising a single trader. ` +
	`You judge whether a scheduled economic calendar event matters for a specific traded market. ` +
	`Respond with a single JSON object and no surrounding prose, using exactly these fields: ` +
	`{"is_relevant": bool, "event_description": string, "analysis_text": string, ` +
	`"impact_score": int (1-10), "sentiment_summary": "bullish"|"bearish"|"neutral", ` +
	`"key_factors": [string], "expert_commentary": string}. ` +
	`Set is_relevant to false when the event has no meaningful bearing on the market.`

// BuildScoringMessages builds the deterministic prompt for one (event, market)
// pair. The same event and market always produce the same messages, which keeps
// cached verdicts comparable across runs.
func BuildScoringMessages(event *models.EconomicEvent, market string) []interfaces.Message {
	var b strings.Builder

	fmt.Fprintf(&b, "Market: %s\n\n", market)
	fmt.Fprintf(&b, "Economic calendar event:\n")
	fmt.Fprintf(&b, "- Date: %s\n", event.Date)
	if event.EventTime != nil {
		fmt.Fprintf(&b, "- Time: %s (source timezone UTC)\n", *event.EventTime)
	} else {
		fmt.Fprintf(&b, "- Time: all day\n")
	}
	fmt.Fprintf(&b, "- Name: %s\n", event.EventName)
	fmt.Fprintf(&b, "- Currency: %s\n", event.Currency)
	fmt.Fprintf(&b, "- Importance: %s\n", event.Importance)
	if event.Actual != "" {
		fmt.Fprintf(&b, "- Actual: %s\n", event.Actual)
	}
	if event.Forecast != "" {
		fmt.Fprintf(&b, "- Forecast: %s\n", event.Forecast)
	}
	if event.Previous != "" {
		fmt.Fprintf(&b, "- Previous: %s\n", event.Previous)
	}

	fmt.Fprintf(&b, "\nAssess relevance and likely directional impact of this event for %s.", market)

	return []interfaces.Message{
		{Role: "system", Content: scoringSystemPrompt},
		{Role: "user", Content: b.String()},
	}
}
