package models

import "time"

// SettingsKey is the fixed storage key for the settings record. Writing
// through this key keeps the record a true singleton instead of relying on
// "newest row wins" semantics.
const SettingsKey = "settings_current"

const (
	// StarFilterMin is the loosest importance threshold (analyze everything)
	StarFilterMin = 1
	// StarFilterMax is the strictest importance threshold (High only)
	StarFilterMax = 3
)

// Settings represents the single runtime configuration record: the scoring
// credential, the display timezone, and the importance threshold below which
// events are not sent for scoring.
type Settings struct {
	Key string `json:"-" badgerhold:"key"` // always SettingsKey

	LLMAPIKey  string `json:"llm_api_key,omitempty"`
	Timezone   string `json:"timezone"`
	StarFilter int    `json:"star_filter" validate:"min=1,max=3"`

	UpdatedAt time.Time `json:"updated_at"`
}

// DefaultSettings returns the settings applied on first boot.
func DefaultSettings() *Settings {
	return &Settings{
		Key:        SettingsKey,
		Timezone:   "Europe/Berlin",
		StarFilter: StarFilterMin,
		UpdatedAt:  time.Now(),
	}
}
