package main

import (
	"fmt"
	"strings"

	"github.com/ternarybob/auspex/internal/models"
)

// analysisItem mirrors the /api/analyses response items
type analysisItem struct {
	EventName  string  `json:"event_name"`
	EventTime  *string `json:"event_time,omitempty"`
	Currency   string  `json:"currency"`
	Importance string  `json:"importance"`

	Relevant         bool     `json:"relevant"`
	AnalysisText     string   `json:"analysis_text"`
	ImpactScore      int      `json:"impact_score"`
	Sentiment        string   `json:"sentiment"`
	KeyFactors       []string `json:"key_factors,omitempty"`
	ExpertCommentary string   `json:"expert_commentary,omitempty"`
	Origin           string   `json:"origin"`
}

func eventClock(eventTime *string) string {
	if eventTime == nil {
		return "All day"
	}
	return *eventTime
}

// formatEvents formats a day's calendar as a markdown table
func formatEvents(date string, events []*models.EconomicEvent) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("## Economic Calendar %s (%d events)\n\n", date, len(events)))

	if len(events) == 0 {
		sb.WriteString("No events stored for this date. Fetch the calendar first.\n")
		return sb.String()
	}

	sb.WriteString("| Time | Currency | Importance | Event | Actual | Forecast | Previous |\n")
	sb.WriteString("|------|----------|------------|-------|--------|----------|----------|\n")
	for _, event := range events {
		sb.WriteString(fmt.Sprintf("| %s | %s | %s | %s | %s | %s | %s |\n",
			eventClock(event.EventTime),
			event.Currency,
			event.Importance,
			event.EventName,
			orDash(event.Actual),
			orDash(event.Forecast),
			orDash(event.Previous),
		))
	}

	return sb.String()
}

// formatAnalyses formats relevance verdicts as markdown sections
func formatAnalyses(date, market string, analyses []analysisItem) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("## Relevance Analyses for %s on %s (%d verdicts)\n\n", market, date, len(analyses)))

	if len(analyses) == 0 {
		sb.WriteString("No analyses cached for this pair. Generate a report to score the events.\n")
		return sb.String()
	}

	for i, analysis := range analyses {
		sb.WriteString(fmt.Sprintf("### %d. %s (%s, %s, %s)\n",
			i+1, analysis.EventName, eventClock(analysis.EventTime), analysis.Currency, analysis.Importance))

		if !analysis.Relevant {
			sb.WriteString("Not relevant to this market.\n\n")
			continue
		}

		sb.WriteString(fmt.Sprintf("**Impact:** %d/10 | **Sentiment:** %s\n\n", analysis.ImpactScore, analysis.Sentiment))
		sb.WriteString(analysis.AnalysisText)
		sb.WriteString("\n")
		if len(analysis.KeyFactors) > 0 {
			sb.WriteString("\n**Key factors:**\n")
			for _, factor := range analysis.KeyFactors {
				sb.WriteString("- " + factor + "\n")
			}
		}
		if analysis.ExpertCommentary != "" {
			sb.WriteString("\n**Commentary:** " + analysis.ExpertCommentary + "\n")
		}
		sb.WriteString("\n")
	}

	return sb.String()
}

// formatMarkets formats the tracked market list as markdown
func formatMarkets(markets []*models.Market) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("## Tracked Markets (%d)\n\n", len(markets)))

	if len(markets) == 0 {
		sb.WriteString("No markets configured.\n")
		return sb.String()
	}

	for _, market := range markets {
		if market.Description != "" {
			sb.WriteString(fmt.Sprintf("- **%s**: %s\n", market.Symbol, market.Description))
		} else {
			sb.WriteString(fmt.Sprintf("- **%s**\n", market.Symbol))
		}
	}

	return sb.String()
}

func orDash(value string) string {
	if value == "" {
		return "-"
	}
	return value
}
