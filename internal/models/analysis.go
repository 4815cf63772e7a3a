package models

import (
	"strings"
	"time"
)

const (
	// SentimentBullish indicates expected upward pressure on the market
	SentimentBullish = "bullish"
	// SentimentBearish indicates expected downward pressure on the market
	SentimentBearish = "bearish"
	// SentimentNeutral indicates no clear directional expectation
	SentimentNeutral = "neutral"
)

const (
	// OriginStructured indicates the analysis was parsed from a well-formed model response
	OriginStructured = "structured"
	// OriginHeuristic indicates the analysis was recovered by keyword scanning free text
	OriginHeuristic = "heuristic"
)

// RelevanceAnalysis represents one cached scoring verdict for an
// (event, market) pair. At most one exists per pair; existence means
// "already computed, reuse" and the record is never updated.
type RelevanceAnalysis struct {
	// Identity
	Key      string `json:"key" badgerhold:"key"` // ana_{event hash}_{market}
	EventKey string `json:"event_key" badgerhold:"index"`
	Market   string `json:"market" badgerhold:"index"`

	// Verdict
	Relevant         bool     `json:"relevant"`
	EventDescription string   `json:"event_description"`
	AnalysisText     string   `json:"analysis_text"`
	ImpactScore      int      `json:"impact_score"` // 1-10
	Sentiment        string   `json:"sentiment"`    // bullish, bearish, neutral
	KeyFactors       []string `json:"key_factors,omitempty"`
	ExpertCommentary string   `json:"expert_commentary,omitempty"`

	// Origin records how the verdict was derived: "structured" or "heuristic"
	Origin string `json:"origin"`

	CreatedAt time.Time `json:"created_at"`
}

// AnalysisKey derives the storage key for an (event, market) pair.
func AnalysisKey(eventKey, market string) string {
	return "ana_" + strings.TrimPrefix(eventKey, "evt_") + "_" + market
}

// DeriveKey computes and assigns the analysis storage key from its pair.
func (a *RelevanceAnalysis) DeriveKey() string {
	a.Key = AnalysisKey(a.EventKey, a.Market)
	return a.Key
}

// ValidSentiment reports whether s is one of the three recognized labels.
func ValidSentiment(s string) bool {
	switch s {
	case SentimentBullish, SentimentBearish, SentimentNeutral:
		return true
	}
	return false
}

// ClampImpactScore forces a score into the valid 1-10 range.
func ClampImpactScore(score int) int {
	if score < 1 {
		return 1
	}
	if score > 10 {
		return 10
	}
	return score
}
