package models

import (
	"crypto/sha256"
	"encoding/hex"
	"time"
)

const (
	// ImportanceLow marks events unlikely to move markets
	ImportanceLow = "Low"
	// ImportanceMedium marks events with moderate market impact
	ImportanceMedium = "Medium"
	// ImportanceHigh marks events expected to move markets
	ImportanceHigh = "High"
)

const (
	// DateLayout is the canonical calendar-day format used in keys and queries
	DateLayout = "2006-01-02"
	// ClockLayout is the canonical time-of-day format for event times
	ClockLayout = "15:04"
)

// EconomicEvent represents one scraped calendar row, identified by its
// natural key (date, event name, time, currency). Re-scrapes of the same
// row collapse onto the same record and refresh the value fields.
type EconomicEvent struct {
	// Identity
	Key  string `json:"key" badgerhold:"key"` // evt_{hash of natural key}
	Date string `json:"date" badgerhold:"index"`

	// Natural key components
	EventName string  `json:"event_name"`
	EventTime *string `json:"event_time,omitempty"` // "15:04" in the display zone; nil = all day
	Currency  string  `json:"currency"`

	// Value fields (refreshed in place on re-scrape)
	Importance string `json:"importance"` // Low, Medium, High
	Actual     string `json:"actual,omitempty"`
	Forecast   string `json:"forecast,omitempty"`
	Previous   string `json:"previous,omitempty"`

	SourceURL string `json:"source_url,omitempty"`

	// Timestamps
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// EventKey derives the storage key from the natural key components.
// Deterministic so repeated scrapes upsert instead of duplicating.
func EventKey(date, eventName string, eventTime *string, currency string) string {
	clock := ""
	if eventTime != nil {
		clock = *eventTime
	}
	sum := sha256.Sum256([]byte(date + "|" + eventName + "|" + clock + "|" + currency))
	return "evt_" + hex.EncodeToString(sum[:])[:16]
}

// DeriveKey computes and assigns the event's storage key from its natural key.
func (e *EconomicEvent) DeriveKey() string {
	e.Key = EventKey(e.Date, e.EventName, e.EventTime, e.Currency)
	return e.Key
}

// ImportanceRank maps an importance label to its ordinal (Low=1, Medium=2,
// High=3). Unknown labels rank lowest.
func ImportanceRank(importance string) int {
	switch importance {
	case ImportanceHigh:
		return 3
	case ImportanceMedium:
		return 2
	default:
		return 1
	}
}

// ImportanceRank returns the ordinal of the event's importance label.
func (e *EconomicEvent) ImportanceRank() int {
	return ImportanceRank(e.Importance)
}

// TimeSortValue returns the value used for chronological ordering.
// All-day events (nil time) sort before timed events.
func (e *EconomicEvent) TimeSortValue() string {
	if e.EventTime == nil {
		return ""
	}
	return *e.EventTime
}
