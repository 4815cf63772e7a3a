package common

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfigFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write config file: %v", err)
	}
	return path
}

func TestLoadFromFilesDefaults(t *testing.T) {
	config, err := LoadFromFiles()
	if err != nil {
		t.Fatalf("LoadFromFiles() error = %v", err)
	}

	if config.Server.Port != 8085 {
		t.Errorf("Server.Port = %d, want 8085", config.Server.Port)
	}
	if config.Calendar.RenderWait != "5s" {
		t.Errorf("Calendar.RenderWait = %q, want \"5s\"", config.Calendar.RenderWait)
	}
	if config.LLM.DefaultProvider != LLMProviderClaude {
		t.Errorf("LLM.DefaultProvider = %q, want %q", config.LLM.DefaultProvider, LLMProviderClaude)
	}
	if config.Scheduler.Enabled {
		t.Error("Scheduler.Enabled = true, want false by default")
	}
	if config.Scheduler.FetchSchedule != "0 6 * * *" {
		t.Errorf("Scheduler.FetchSchedule = %q, want \"0 6 * * *\"", config.Scheduler.FetchSchedule)
	}
}

func TestLoadFromFiles(t *testing.T) {
	path := writeConfigFile(t, "auspex.toml", `
environment = "production"

[server]
port = 9090
host = "0.0.0.0"

[calendar]
source_url = "https://calendar.example.com/?date={date}"
render_wait = "7s"
page_timeout = "60s"
request_delay = "3s"
min_importance = "medium"

[llm]
default_provider = "gemini"
rate_limit = "2s"

[claude]
model = "claude-haiku-3-5-20241022"
max_tokens = 800

[scheduler]
enabled = true
fetch_schedule = "30 5 * * *"

[websocket.throttle_intervals]
analysis_progress = "250ms"
`)

	config, err := LoadFromFiles(path)
	if err != nil {
		t.Fatalf("LoadFromFiles(%q) error = %v", path, err)
	}

	if config.Environment != "production" {
		t.Errorf("Environment = %q, want \"production\"", config.Environment)
	}
	if config.Server.Port != 9090 {
		t.Errorf("Server.Port = %d, want 9090", config.Server.Port)
	}
	if config.Server.Host != "0.0.0.0" {
		t.Errorf("Server.Host = %q, want \"0.0.0.0\"", config.Server.Host)
	}
	if config.Calendar.SourceURL != "https://calendar.example.com/?date={date}" {
		t.Errorf("Calendar.SourceURL = %q", config.Calendar.SourceURL)
	}
	if config.Calendar.RenderWait != "7s" {
		t.Errorf("Calendar.RenderWait = %q, want \"7s\"", config.Calendar.RenderWait)
	}
	if config.Calendar.PageTimeout != "60s" {
		t.Errorf("Calendar.PageTimeout = %q, want \"60s\"", config.Calendar.PageTimeout)
	}
	if config.Calendar.RequestDelay != "3s" {
		t.Errorf("Calendar.RequestDelay = %q, want \"3s\"", config.Calendar.RequestDelay)
	}
	if config.Calendar.MinImportance != "medium" {
		t.Errorf("Calendar.MinImportance = %q, want \"medium\"", config.Calendar.MinImportance)
	}
	if config.LLM.DefaultProvider != LLMProviderGemini {
		t.Errorf("LLM.DefaultProvider = %q, want %q", config.LLM.DefaultProvider, LLMProviderGemini)
	}
	if config.LLM.RateLimit != "2s" {
		t.Errorf("LLM.RateLimit = %q, want \"2s\"", config.LLM.RateLimit)
	}
	if config.Claude.MaxTokens != 800 {
		t.Errorf("Claude.MaxTokens = %d, want 800", config.Claude.MaxTokens)
	}
	if !config.Scheduler.Enabled {
		t.Error("Scheduler.Enabled = false, want true")
	}
	if config.Scheduler.FetchSchedule != "30 5 * * *" {
		t.Errorf("Scheduler.FetchSchedule = %q, want \"30 5 * * *\"", config.Scheduler.FetchSchedule)
	}
	if got := config.WebSocket.ThrottleIntervals["analysis_progress"]; got != "250ms" {
		t.Errorf("ThrottleIntervals[analysis_progress] = %q, want \"250ms\"", got)
	}

	// Values the file does not mention keep their defaults
	if config.Claude.Timeout != "30s" {
		t.Errorf("Claude.Timeout = %q, want default \"30s\"", config.Claude.Timeout)
	}
	if config.Storage.Badger.Path != "./data/auspex.db" {
		t.Errorf("Storage.Badger.Path = %q, want default", config.Storage.Badger.Path)
	}
}

func TestLoadFromFilesLaterFileWins(t *testing.T) {
	base := writeConfigFile(t, "base.toml", `
[server]
port = 9090

[calendar]
min_importance = "high"
`)
	override := writeConfigFile(t, "override.toml", `
[server]
port = 9191
`)

	config, err := LoadFromFiles(base, override)
	if err != nil {
		t.Fatalf("LoadFromFiles() error = %v", err)
	}

	if config.Server.Port != 9191 {
		t.Errorf("Server.Port = %d, want 9191 from override file", config.Server.Port)
	}
	// Untouched by the override file, kept from the base file
	if config.Calendar.MinImportance != "high" {
		t.Errorf("Calendar.MinImportance = %q, want \"high\" from base file", config.Calendar.MinImportance)
	}
}

func TestLoadFromFilesMissingFile(t *testing.T) {
	if _, err := LoadFromFiles("/nonexistent/auspex.toml"); err == nil {
		t.Error("expected error for missing config file")
	}
}

func TestLoadFromFilesInvalidTOML(t *testing.T) {
	path := writeConfigFile(t, "broken.toml", "[server\nport=")
	if _, err := LoadFromFiles(path); err == nil {
		t.Error("expected error for malformed config file")
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("AUSPEX_SERVER_PORT", "7070")
	t.Setenv("AUSPEX_LOG_LEVEL", "debug")
	t.Setenv("AUSPEX_CALENDAR_RENDER_WAIT", "9s")
	t.Setenv("AUSPEX_LLM_RATE_LIMIT", "not-a-duration")

	config, err := LoadFromFiles()
	if err != nil {
		t.Fatalf("LoadFromFiles() error = %v", err)
	}

	if config.Server.Port != 7070 {
		t.Errorf("Server.Port = %d, want 7070 from env", config.Server.Port)
	}
	if config.Logging.Level != "debug" {
		t.Errorf("Logging.Level = %q, want \"debug\" from env", config.Logging.Level)
	}
	if config.Calendar.RenderWait != "9s" {
		t.Errorf("Calendar.RenderWait = %q, want \"9s\" from env", config.Calendar.RenderWait)
	}
	// An unparseable duration is ignored, the default stays
	if config.LLM.RateLimit != "1s" {
		t.Errorf("LLM.RateLimit = %q, want default \"1s\"", config.LLM.RateLimit)
	}
}

func TestEnvOverridesClaudeKeyPriority(t *testing.T) {
	t.Setenv("ANTHROPIC_API_KEY", "from-anthropic-env")
	t.Setenv("AUSPEX_CLAUDE_API_KEY", "from-auspex-env")

	config, err := LoadFromFiles()
	if err != nil {
		t.Fatalf("LoadFromFiles() error = %v", err)
	}

	if config.Claude.APIKey != "from-auspex-env" {
		t.Errorf("Claude.APIKey = %q, want AUSPEX_ prefixed variable to win", config.Claude.APIKey)
	}
}

func TestApplyFlagOverrides(t *testing.T) {
	config := NewDefaultConfig()

	ApplyFlagOverrides(config, 6060, "example.internal")
	if config.Server.Port != 6060 {
		t.Errorf("Server.Port = %d, want 6060", config.Server.Port)
	}
	if config.Server.Host != "example.internal" {
		t.Errorf("Server.Host = %q, want \"example.internal\"", config.Server.Host)
	}

	// Zero values leave the config untouched
	ApplyFlagOverrides(config, 0, "")
	if config.Server.Port != 6060 || config.Server.Host != "example.internal" {
		t.Error("zero-valued flags must not reset overrides")
	}
}

func TestValidateFetchSchedule(t *testing.T) {
	tests := []struct {
		name     string
		schedule string
		wantErr  bool
	}{
		{"daily at six", "0 6 * * *", false},
		{"every five minutes", "*/5 * * * *", false},
		{"every fifteen minutes", "*/15 * * * *", false},
		{"half past every second hour", "30 */2 * * *", false},
		{"weekdays only", "0 7 * * 1-5", false},
		{"every minute", "* * * * *", true},
		{"every two minutes", "*/2 * * * *", true},
		{"minute out of range", "61 0 * * *", true},
		{"too few fields", "0 6 *", true},
		{"not a cron expression", "tomorrow at noon", true},
		{"empty", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateFetchSchedule(tt.schedule)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateFetchSchedule(%q) error = %v, wantErr %v", tt.schedule, err, tt.wantErr)
			}
		})
	}
}

func TestIsProduction(t *testing.T) {
	tests := []struct {
		environment string
		want        bool
	}{
		{"production", true},
		{"prod", true},
		{"PRODUCTION", true},
		{" production ", true},
		{"development", false},
		{"dev", false},
		{"", false},
	}

	for _, tt := range tests {
		config := &Config{Environment: tt.environment}
		if got := config.IsProduction(); got != tt.want {
			t.Errorf("IsProduction() with environment %q = %v, want %v", tt.environment, got, tt.want)
		}
		if got := config.AllowTestURLs(); got == tt.want {
			t.Errorf("AllowTestURLs() with environment %q = %v, want %v", tt.environment, got, !tt.want)
		}
	}
}
