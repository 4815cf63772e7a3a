package common

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
	"github.com/robfig/cron/v3"

	"github.com/ternarybob/auspex/internal/interfaces"
)

// Config represents the application configuration
type Config struct {
	Environment string          `toml:"environment"` // "development" or "production" - controls test URL validation
	Server      ServerConfig    `toml:"server"`
	Storage     StorageConfig   `toml:"storage"`
	Calendar    CalendarConfig  `toml:"calendar"`
	Gemini      GeminiConfig    `toml:"gemini"`
	Claude      ClaudeConfig    `toml:"claude"`
	LLM         LLMConfig       `toml:"llm"`
	Scheduler   SchedulerConfig `toml:"scheduler"`
	Logging     LoggingConfig   `toml:"logging"`
	WebSocket   WebSocketConfig `toml:"websocket"`
	Seeds       SeedsConfig     `toml:"seeds"`
}

type ServerConfig struct {
	Port int    `toml:"port"`
	Host string `toml:"host"`
}

type StorageConfig struct {
	Badger BadgerConfig `toml:"badger"`
}

// BadgerConfig represents BadgerDB-specific configuration
type BadgerConfig struct {
	Path           string `toml:"path"`             // Database directory path
	ResetOnStartup bool   `toml:"reset_on_startup"` // Delete database on startup for clean test runs
}

// CalendarConfig contains scraping configuration for the economic calendar source
type CalendarConfig struct {
	SourceURL      string `toml:"source_url"`      // Calendar page URL, {date} is replaced with YYYY-MM-DD
	SourceTimezone string `toml:"source_timezone"` // Timezone the source renders event times in (default: "UTC")
	UserAgent      string `toml:"user_agent"`      // Browser user agent string
	Headless       bool   `toml:"headless"`        // Run the browser headless (default: true)
	RenderWait     string `toml:"render_wait"`     // Wait for JavaScript to render the calendar table, as duration string (default: "5s")
	PageTimeout    string `toml:"page_timeout"`    // Overall timeout for a single page fetch, as duration string (default: "45s")
	RequestDelay   string `toml:"request_delay"`   // Minimum delay between page fetches to the source, as duration string (default: "2s")
	SaveSnapshots  bool   `toml:"save_snapshots"`  // Persist a markdown snapshot of each fetched calendar page
	MinImportance  string `toml:"min_importance"`  // Lowest importance stored: "low", "medium", "high" (default: "low")
}

// GeminiConfig contains Google Gemini API configuration
type GeminiConfig struct {
	APIKey      string  `toml:"api_key"`     // Google Gemini API key
	Model       string  `toml:"model"`       // Model for scoring operations (default: "gemini-3-flash-preview")
	MaxTokens   int     `toml:"max_tokens"`  // Maximum tokens in response (default: 500)
	Timeout     string  `toml:"timeout"`     // Scoring call timeout as duration string (default: "30s")
	Temperature float32 `toml:"temperature"` // Completion temperature (default: 0.3)
}

// ClaudeConfig contains Anthropic Claude API configuration
type ClaudeConfig struct {
	APIKey      string  `toml:"api_key"`     // Anthropic API key for Claude operations
	Model       string  `toml:"model"`       // Model for scoring operations (default: "claude-haiku-3-5-20241022")
	MaxTokens   int     `toml:"max_tokens"`  // Maximum tokens in response (default: 500)
	Timeout     string  `toml:"timeout"`     // Scoring call timeout as duration string (default: "30s")
	Temperature float32 `toml:"temperature"` // Completion temperature (default: 0.3)
}

// LLMProvider represents the AI provider type
type LLMProvider string

const (
	// LLMProviderGemini uses Google Gemini API
	LLMProviderGemini LLMProvider = "gemini"
	// LLMProviderClaude uses Anthropic Claude API
	LLMProviderClaude LLMProvider = "claude"
)

// LLMConfig contains provider selection and call pacing shared by all providers
type LLMConfig struct {
	DefaultProvider LLMProvider `toml:"default_provider"` // Default provider: "claude" or "gemini" (default: "claude")
	RateLimit       string      `toml:"rate_limit"`       // Minimum interval between scoring calls (default: "1s")
}

// SchedulerConfig contains configuration for the daily pipeline job
type SchedulerConfig struct {
	Enabled       bool   `toml:"enabled"`        // Run the scheduler (default: false)
	FetchSchedule string `toml:"fetch_schedule"` // Cron schedule for the daily calendar fetch (default: "0 6 * * *")
	AutoAnalyze   bool   `toml:"auto_analyze"`   // Score and compile reports for all markets after the scheduled fetch
}

type LoggingConfig struct {
	Level         string   `toml:"level"`           // "debug", "info", "warn", "error"
	Format        string   `toml:"format"`          // "json" or "text"
	Output        []string `toml:"output"`          // "stdout", "file"
	TimeFormat    string   `toml:"time_format"`     // Time format for logs (default: "15:04:05.000")
	MinEventLevel string   `toml:"min_event_level"` // Minimum log level to publish as events to UI ("debug", "info", "warn", "error")
	ClientDebug   bool     `toml:"client_debug"`    // Enable console debug logging in the web UI
}

// WebSocketConfig contains configuration for WebSocket log streaming
type WebSocketConfig struct {
	MinLevel        string   `toml:"min_level"`        // Minimum log level to broadcast ("debug", "info", "warn", "error")
	ExcludePatterns []string `toml:"exclude_patterns"` // Log message patterns to exclude from broadcasting
	// Throttle intervals for high-frequency events. Map of event type to duration string.
	// Example: {"analysis_progress": "500ms"}
	ThrottleIntervals map[string]string `toml:"throttle_intervals"`
}

// SeedsConfig contains configuration for first-boot seed data
type SeedsConfig struct {
	File string `toml:"file"` // YAML file with initial markets and settings (default: "./seeds.yaml")
}

// NewDefaultConfig creates a configuration with default values
// Technical parameters are hardcoded here for production stability.
// Only user-facing settings should be exposed in auspex.toml.
func NewDefaultConfig() *Config {
	return &Config{
		Environment: "development", // Default to development mode - allows test URLs
		Server: ServerConfig{
			Port: 8085,
			Host: "localhost",
		},
		Storage: StorageConfig{
			Badger: BadgerConfig{
				Path: "./data/auspex.db",
			},
		},
		Calendar: CalendarConfig{
			SourceURL:      "https://www.investing.com/economic-calendar/?date={date}",
			SourceTimezone: "UTC",
			UserAgent:      "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
			Headless:       true,
			RenderWait:     "5s",  // Calendar table is rendered client-side
			PageTimeout:    "45s", // Navigation + render + extraction
			RequestDelay:   "2s",  // Be polite to the source
			SaveSnapshots:  true,
			MinImportance:  "low", // Store everything, filter at scoring time
		},
		Gemini: GeminiConfig{
			APIKey:      "", // User must provide API key (settings page or config)
			Model:       "gemini-3-flash-preview",
			MaxTokens:   500,
			Timeout:     "30s",
			Temperature: 0.3,
		},
		Claude: ClaudeConfig{
			APIKey:      "", // User must provide API key (ANTHROPIC_API_KEY, settings page, or config)
			Model:       "claude-haiku-3-5-20241022",
			MaxTokens:   500, // Scoring responses are small structured JSON
			Timeout:     "30s",
			Temperature: 0.3, // Low temperature for consistent scoring
		},
		LLM: LLMConfig{
			DefaultProvider: LLMProviderClaude,
			RateLimit:       "1s", // One scoring call per second against the provider
		},
		Scheduler: SchedulerConfig{
			Enabled:       false,       // Opt-in, a local tool should not scrape unattended
			FetchSchedule: "0 6 * * *", // Fetch today's calendar at 06:00 local
			AutoAnalyze:   true,
		},
		Logging: LoggingConfig{
			Level:         "info",                     // Info level for production (debug|info|warn|error)
			Format:        "text",                     // Human-readable text format (text|json)
			Output:        []string{"stdout", "file"}, // Log to both console and file
			MinEventLevel: "info",                     // Publish info and above as events to UI
		},
		WebSocket: WebSocketConfig{
			MinLevel: "info", // Default: info level and above
			ExcludePatterns: []string{
				"WebSocket client connected",
				"WebSocket client disconnected",
				"HTTP request",
				"HTTP response",
				"Publishing Event",
				// A broadcast failure log must never itself be broadcast
				"Failed to send message",
				"Failed to marshal WebSocket",
			},
			// Throttle high-frequency events so a long scoring batch does not flood the UI
			ThrottleIntervals: map[string]string{
				"analysis_progress": "500ms",
			},
		},
		Seeds: SeedsConfig{
			File: "./seeds.yaml",
		},
	}
}

// LoadFromFile loads configuration with priority: default -> file -> env -> CLI
// Priority system: CLI flags > Environment variables > Config file > Defaults
func LoadFromFile(path string) (*Config, error) {
	if path == "" {
		return LoadFromFiles()
	}
	return LoadFromFiles(path)
}

// LoadFromFiles loads configuration from multiple files with priority: default -> file1 -> file2 -> ... -> env -> CLI
// Later files override earlier files. Priority system: CLI flags > Environment variables > Last config file > ... > First config file > Defaults
// Example: LoadFromFiles("base.toml", "override.toml") - override.toml settings take precedence over base.toml
func LoadFromFiles(paths ...string) (*Config, error) {
	// Start with defaults
	config := NewDefaultConfig()

	// Load and merge each config file in order (later files override earlier files)
	for i, path := range paths {
		if path == "" {
			continue
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}

		// Unmarshal into config (merges with existing values, later values override)
		err = toml.Unmarshal(data, config)
		if err != nil {
			return nil, fmt.Errorf("failed to parse config file %s (file %d of %d): %w", path, i+1, len(paths), err)
		}
	}

	// Apply environment variables (overrides all file configs)
	applyEnvOverrides(config)

	return config, nil
}

// applyEnvOverrides applies environment variable overrides to config
func applyEnvOverrides(config *Config) {
	// Environment configuration (highest priority: AUSPEX_ENV, fallback: GO_ENV)
	if env := os.Getenv("AUSPEX_ENV"); env != "" {
		config.Environment = env
	} else if env := os.Getenv("GO_ENV"); env != "" {
		config.Environment = env
	}

	// Server configuration
	if port := os.Getenv("AUSPEX_SERVER_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Server.Port = p
		}
	}
	if host := os.Getenv("AUSPEX_SERVER_HOST"); host != "" {
		config.Server.Host = host
	}

	// Storage configuration
	if badgerPath := os.Getenv("AUSPEX_BADGER_PATH"); badgerPath != "" {
		config.Storage.Badger.Path = badgerPath
	}

	// Logging configuration
	if level := os.Getenv("AUSPEX_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}
	if format := os.Getenv("AUSPEX_LOG_FORMAT"); format != "" {
		config.Logging.Format = format
	}
	if output := os.Getenv("AUSPEX_LOG_OUTPUT"); output != "" {
		// Split comma-separated output types
		outputs := []string{}
		for _, o := range splitString(output, ",") {
			trimmed := trimSpace(o)
			if trimmed != "" {
				outputs = append(outputs, trimmed)
			}
		}
		if len(outputs) > 0 {
			config.Logging.Output = outputs
		}
	}
	if minEventLevel := os.Getenv("AUSPEX_LOG_MIN_EVENT_LEVEL"); minEventLevel != "" {
		config.Logging.MinEventLevel = minEventLevel
	}
	if clientDebug := os.Getenv("AUSPEX_LOG_CLIENT_DEBUG"); clientDebug != "" {
		if cd, err := strconv.ParseBool(clientDebug); err == nil {
			config.Logging.ClientDebug = cd
		}
	}

	// Calendar configuration
	if sourceURL := os.Getenv("AUSPEX_CALENDAR_SOURCE_URL"); sourceURL != "" {
		config.Calendar.SourceURL = sourceURL
	}
	if sourceTimezone := os.Getenv("AUSPEX_CALENDAR_SOURCE_TIMEZONE"); sourceTimezone != "" {
		config.Calendar.SourceTimezone = sourceTimezone
	}
	if userAgent := os.Getenv("AUSPEX_CALENDAR_USER_AGENT"); userAgent != "" {
		config.Calendar.UserAgent = userAgent
	}
	if headless := os.Getenv("AUSPEX_CALENDAR_HEADLESS"); headless != "" {
		if h, err := strconv.ParseBool(headless); err == nil {
			config.Calendar.Headless = h
		}
	}
	if renderWait := os.Getenv("AUSPEX_CALENDAR_RENDER_WAIT"); renderWait != "" {
		if _, err := time.ParseDuration(renderWait); err == nil {
			config.Calendar.RenderWait = renderWait
		}
	}
	if pageTimeout := os.Getenv("AUSPEX_CALENDAR_PAGE_TIMEOUT"); pageTimeout != "" {
		if _, err := time.ParseDuration(pageTimeout); err == nil {
			config.Calendar.PageTimeout = pageTimeout
		}
	}
	if requestDelay := os.Getenv("AUSPEX_CALENDAR_REQUEST_DELAY"); requestDelay != "" {
		if _, err := time.ParseDuration(requestDelay); err == nil {
			config.Calendar.RequestDelay = requestDelay
		}
	}
	if saveSnapshots := os.Getenv("AUSPEX_CALENDAR_SAVE_SNAPSHOTS"); saveSnapshots != "" {
		if ss, err := strconv.ParseBool(saveSnapshots); err == nil {
			config.Calendar.SaveSnapshots = ss
		}
	}
	if minImportance := os.Getenv("AUSPEX_CALENDAR_MIN_IMPORTANCE"); minImportance != "" {
		config.Calendar.MinImportance = minImportance
	}

	// Gemini configuration
	if apiKey := os.Getenv("AUSPEX_GEMINI_API_KEY"); apiKey != "" {
		config.Gemini.APIKey = apiKey
	}
	if model := os.Getenv("AUSPEX_GEMINI_MODEL"); model != "" {
		config.Gemini.Model = model
	}
	if maxTokens := os.Getenv("AUSPEX_GEMINI_MAX_TOKENS"); maxTokens != "" {
		if mt, err := strconv.Atoi(maxTokens); err == nil {
			config.Gemini.MaxTokens = mt
		}
	}
	if timeout := os.Getenv("AUSPEX_GEMINI_TIMEOUT"); timeout != "" {
		config.Gemini.Timeout = timeout
	}
	if temperature := os.Getenv("AUSPEX_GEMINI_TEMPERATURE"); temperature != "" {
		if t, err := strconv.ParseFloat(temperature, 32); err == nil {
			config.Gemini.Temperature = float32(t)
		}
	}

	// Claude configuration
	if apiKey := os.Getenv("ANTHROPIC_API_KEY"); apiKey != "" {
		config.Claude.APIKey = apiKey
	}
	if apiKey := os.Getenv("AUSPEX_CLAUDE_API_KEY"); apiKey != "" {
		config.Claude.APIKey = apiKey // AUSPEX_ prefix takes priority
	}
	if model := os.Getenv("AUSPEX_CLAUDE_MODEL"); model != "" {
		config.Claude.Model = model
	}
	if maxTokens := os.Getenv("AUSPEX_CLAUDE_MAX_TOKENS"); maxTokens != "" {
		if mt, err := strconv.Atoi(maxTokens); err == nil {
			config.Claude.MaxTokens = mt
		}
	}
	if timeout := os.Getenv("AUSPEX_CLAUDE_TIMEOUT"); timeout != "" {
		config.Claude.Timeout = timeout
	}
	if temperature := os.Getenv("AUSPEX_CLAUDE_TEMPERATURE"); temperature != "" {
		if t, err := strconv.ParseFloat(temperature, 32); err == nil {
			config.Claude.Temperature = float32(t)
		}
	}

	// LLM provider configuration
	if provider := os.Getenv("AUSPEX_LLM_DEFAULT_PROVIDER"); provider != "" {
		config.LLM.DefaultProvider = LLMProvider(provider)
	}
	if rateLimit := os.Getenv("AUSPEX_LLM_RATE_LIMIT"); rateLimit != "" {
		if _, err := time.ParseDuration(rateLimit); err == nil {
			config.LLM.RateLimit = rateLimit
		}
	}

	// Scheduler configuration
	if enabled := os.Getenv("AUSPEX_SCHEDULER_ENABLED"); enabled != "" {
		if e, err := strconv.ParseBool(enabled); err == nil {
			config.Scheduler.Enabled = e
		}
	}
	if schedule := os.Getenv("AUSPEX_SCHEDULER_FETCH_SCHEDULE"); schedule != "" {
		config.Scheduler.FetchSchedule = schedule
	}
	if autoAnalyze := os.Getenv("AUSPEX_SCHEDULER_AUTO_ANALYZE"); autoAnalyze != "" {
		if aa, err := strconv.ParseBool(autoAnalyze); err == nil {
			config.Scheduler.AutoAnalyze = aa
		}
	}

	// WebSocket configuration
	if minLevel := os.Getenv("AUSPEX_WEBSOCKET_MIN_LEVEL"); minLevel != "" {
		config.WebSocket.MinLevel = minLevel
	}
	if excludePatterns := os.Getenv("AUSPEX_WEBSOCKET_EXCLUDE_PATTERNS"); excludePatterns != "" {
		// Split comma-separated patterns
		patterns := []string{}
		for _, p := range splitString(excludePatterns, ",") {
			trimmed := trimSpace(p)
			if trimmed != "" {
				patterns = append(patterns, trimmed)
			}
		}
		if len(patterns) > 0 {
			config.WebSocket.ExcludePatterns = patterns
		}
	}

	// Seeds configuration
	if seedsFile := os.Getenv("AUSPEX_SEEDS_FILE"); seedsFile != "" {
		config.Seeds.File = seedsFile
	}
}

// ApplyFlagOverrides applies command-line flag overrides to config
func ApplyFlagOverrides(config *Config, port int, host string) {
	// Command-line flags have highest priority
	if port > 0 {
		config.Server.Port = port
	}
	if host != "" {
		config.Server.Host = host
	}
}

// ResolveAPIKey resolves the scoring API key for a provider with environment variable priority
// Resolution order: environment variables → stored settings → config fallback → error
// This ensures AUSPEX_* environment variables always take precedence over the settings page.
func ResolveAPIKey(ctx context.Context, settings interfaces.SettingsStorage, provider LLMProvider, configFallback string) (string, error) {
	// Environment variables have highest priority
	switch provider {
	case LLMProviderClaude:
		if envValue := os.Getenv("AUSPEX_CLAUDE_API_KEY"); envValue != "" {
			return envValue, nil
		}
		if envValue := os.Getenv("ANTHROPIC_API_KEY"); envValue != "" {
			return envValue, nil
		}
	case LLMProviderGemini:
		if envValue := os.Getenv("AUSPEX_GEMINI_API_KEY"); envValue != "" {
			return envValue, nil
		}
		if envValue := os.Getenv("GEMINI_API_KEY"); envValue != "" {
			return envValue, nil
		}
	}

	// Try the stored settings (medium priority - set through the settings page)
	if settings != nil {
		stored, err := settings.GetSettings(ctx)
		if err == nil && stored != nil && stored.LLMAPIKey != "" {
			return stored.LLMAPIKey, nil
		}
	}

	// Fallback to config value (lowest priority)
	if configFallback != "" {
		return configFallback, nil
	}

	return "", fmt.Errorf("API key for provider '%s' not found in environment, settings, or config", provider)
}

// Helper functions for string manipulation
func splitString(s, sep string) []string {
	result := []string{}
	start := 0
	for i := 0; i < len(s); i++ {
		if i+len(sep) <= len(s) && s[i:i+len(sep)] == sep {
			result = append(result, s[start:i])
			start = i + len(sep)
			i = start - 1
		}
	}
	result = append(result, s[start:])
	return result
}

func trimSpace(s string) string {
	start := 0
	end := len(s)
	for start < end && (s[start] == ' ' || s[start] == '\t' || s[start] == '\n' || s[start] == '\r') {
		start++
	}
	for end > start && (s[end-1] == ' ' || s[end-1] == '\t' || s[end-1] == '\n' || s[end-1] == '\r') {
		end--
	}
	return s[start:end]
}

// ValidateFetchSchedule validates a cron schedule expression for the daily fetch job
// and ensures a minimum 5-minute interval.
func ValidateFetchSchedule(schedule string) error {
	// Parse the cron expression
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
	_, err := parser.Parse(schedule)
	if err != nil {
		return fmt.Errorf("invalid cron expression: %w", err)
	}

	// Check for minimum 5-minute interval
	// Validate minute field (first field in standard cron)
	parts := strings.Fields(schedule)
	if len(parts) < 5 {
		return fmt.Errorf("invalid cron format: expected 5 fields")
	}

	minuteField := parts[0]

	// Check for patterns that violate 5-minute minimum
	if minuteField == "*" {
		return fmt.Errorf("schedule must have minimum 5-minute interval (every minute is not allowed)")
	}

	// Check for */n patterns where n < 5
	if strings.HasPrefix(minuteField, "*/") {
		intervalStr := strings.TrimPrefix(minuteField, "*/")
		interval, err := strconv.Atoi(intervalStr)
		if err == nil && interval < 5 {
			return fmt.Errorf("schedule interval must be at least 5 minutes, got %d", interval)
		}
	}

	return nil
}

// IsProduction returns true if the environment is set to production
func (c *Config) IsProduction() bool {
	env := strings.ToLower(strings.TrimSpace(c.Environment))
	return env == "production" || env == "prod"
}

// AllowTestURLs returns true if test URLs (localhost, 127.0.0.1, etc.) are allowed
// Test URLs are only allowed in development mode
func (c *Config) AllowTestURLs() bool {
	return !c.IsProduction()
}
