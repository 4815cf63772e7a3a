package models

import (
	"strings"
	"testing"
)

func TestEventKeyDeterministic(t *testing.T) {
	clock := "13:30"

	first := EventKey("2024-01-15", "Core Retail Sales", &clock, "USD")
	second := EventKey("2024-01-15", "Core Retail Sales", &clock, "USD")

	if first != second {
		t.Errorf("same natural key produced different storage keys: %q vs %q", first, second)
	}
	if !strings.HasPrefix(first, "evt_") {
		t.Errorf("expected evt_ prefix, got %q", first)
	}
	if len(first) != len("evt_")+16 {
		t.Errorf("expected a 16-hex-char hash, got %q", first)
	}
}

func TestEventKeyComponents(t *testing.T) {
	clock := "13:30"
	later := "15:00"
	base := EventKey("2024-01-15", "Core Retail Sales", &clock, "USD")

	tests := []struct {
		name string
		key  string
	}{
		{"different date", EventKey("2024-01-16", "Core Retail Sales", &clock, "USD")},
		{"different name", EventKey("2024-01-15", "Retail Sales", &clock, "USD")},
		{"different time", EventKey("2024-01-15", "Core Retail Sales", &later, "USD")},
		{"all day", EventKey("2024-01-15", "Core Retail Sales", nil, "USD")},
		{"different currency", EventKey("2024-01-15", "Core Retail Sales", &clock, "EUR")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.key == base {
				t.Error("changing a natural key component must change the storage key")
			}
		})
	}
}

func TestDeriveKey(t *testing.T) {
	clock := "09:00"
	event := &EconomicEvent{
		Date:      "2024-01-15",
		EventName: "German Ifo Business Climate",
		EventTime: &clock,
		Currency:  "EUR",
	}

	key := event.DeriveKey()
	if event.Key != key {
		t.Error("DeriveKey must assign the key it returns")
	}
	if key != EventKey(event.Date, event.EventName, event.EventTime, event.Currency) {
		t.Error("DeriveKey must match the standalone derivation")
	}
}

func TestImportanceRank(t *testing.T) {
	tests := []struct {
		importance string
		rank       int
	}{
		{ImportanceHigh, 3},
		{ImportanceMedium, 2},
		{ImportanceLow, 1},
		// Labels are matched exactly; anything unrecognized ranks lowest.
		{"high", 1},
		{"MEDIUM", 1},
		{"", 1},
		{"Holiday", 1},
	}

	for _, tt := range tests {
		if got := ImportanceRank(tt.importance); got != tt.rank {
			t.Errorf("ImportanceRank(%q) = %d, want %d", tt.importance, got, tt.rank)
		}
	}
}

func TestTimeSortValue(t *testing.T) {
	clock := "13:30"

	timed := &EconomicEvent{EventTime: &clock}
	allDay := &EconomicEvent{}

	if timed.TimeSortValue() != "13:30" {
		t.Errorf("expected the clock value, got %q", timed.TimeSortValue())
	}
	if allDay.TimeSortValue() != "" {
		t.Errorf("all-day events must sort first, got %q", allDay.TimeSortValue())
	}
	if !(allDay.TimeSortValue() < timed.TimeSortValue()) {
		t.Error("all-day sort value must order before timed values")
	}
}
