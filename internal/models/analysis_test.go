package models

import "testing"

func TestAnalysisKey(t *testing.T) {
	got := AnalysisKey("evt_a1b2c3d4e5f60718", "FDAX")
	want := "ana_a1b2c3d4e5f60718_FDAX"
	if got != want {
		t.Errorf("AnalysisKey = %q, want %q", got, want)
	}

	analysis := &RelevanceAnalysis{EventKey: "evt_a1b2c3d4e5f60718", Market: "FDAX"}
	if analysis.DeriveKey() != want || analysis.Key != want {
		t.Errorf("DeriveKey = %q, want %q", analysis.Key, want)
	}
}

func TestValidSentiment(t *testing.T) {
	for _, valid := range []string{SentimentBullish, SentimentBearish, SentimentNeutral} {
		if !ValidSentiment(valid) {
			t.Errorf("expected %q to be valid", valid)
		}
	}
	for _, invalid := range []string{"Bullish", "mixed", "", "positive"} {
		if ValidSentiment(invalid) {
			t.Errorf("expected %q to be rejected", invalid)
		}
	}
}

func TestClampImpactScore(t *testing.T) {
	tests := []struct {
		in   int
		want int
	}{
		{-3, 1},
		{0, 1},
		{1, 1},
		{5, 5},
		{10, 10},
		{11, 10},
		{100, 10},
	}

	for _, tt := range tests {
		if got := ClampImpactScore(tt.in); got != tt.want {
			t.Errorf("ClampImpactScore(%d) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestReportID(t *testing.T) {
	if got := ReportID("2024-01-15", "FDAX"); got != "rpt_2024-01-15_FDAX" {
		t.Errorf("ReportID = %q", got)
	}
	// Slashed symbols embed verbatim; handlers escape them at the HTTP layer.
	if got := ReportID("2024-01-15", "EUR/USD"); got != "rpt_2024-01-15_EUR/USD" {
		t.Errorf("ReportID = %q", got)
	}
}

func TestNormalizeSymbol(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"fdax", "FDAX"},
		{"  eur/usd  ", "EUR/USD"},
		{"BTC", "BTC"},
		{"   ", ""},
	}

	for _, tt := range tests {
		if got := NormalizeSymbol(tt.in); got != tt.want {
			t.Errorf("NormalizeSymbol(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
