package handlers

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/auspex/internal/interfaces"
	"github.com/ternarybob/auspex/internal/models"
	"github.com/ternarybob/auspex/internal/services/timezone"
)

// SettingsHandler handles the singleton settings record and the timezone
// picker data
type SettingsHandler struct {
	storage  interfaces.StorageManager
	timezone *timezone.Service
	validate *validator.Validate
	onSaved  func() // Rebuilds the scoring client after a key change; may be nil
	logger   arbor.ILogger
}

// NewSettingsHandler creates a new settings handler. onSaved runs after every
// successful save so a changed API key takes effect without a restart.
func NewSettingsHandler(storage interfaces.StorageManager, tz *timezone.Service, onSaved func(), logger arbor.ILogger) *SettingsHandler {
	return &SettingsHandler{
		storage:  storage,
		timezone: tz,
		validate: validator.New(),
		onSaved:  onSaved,
		logger:   logger,
	}
}

// settingsView is the API shape: the key never leaves the server unmasked
type settingsView struct {
	LLMAPIKey  string    `json:"llm_api_key"`
	HasAPIKey  bool      `json:"has_api_key"`
	Timezone   string    `json:"timezone"`
	StarFilter int       `json:"star_filter"`
	UpdatedAt  time.Time `json:"updated_at"`
}

func viewOf(settings *models.Settings) settingsView {
	return settingsView{
		LLMAPIKey:  maskValue(settings.LLMAPIKey),
		HasAPIKey:  settings.LLMAPIKey != "",
		Timezone:   settings.Timezone,
		StarFilter: settings.StarFilter,
		UpdatedAt:  settings.UpdatedAt,
	}
}

// GetSettingsHandler handles GET /api/settings
func (h *SettingsHandler) GetSettingsHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "GET") {
		return
	}

	settings, err := h.storage.SettingsStorage().GetSettings(r.Context())
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to load settings")
		WriteError(w, http.StatusInternalServerError, "Failed to load settings")
		return
	}

	WriteJSON(w, http.StatusOK, viewOf(settings))
}

// SaveSettingsHandler handles PUT /api/settings. An empty llm_api_key in the
// request keeps the stored key, so the form can round-trip without ever
// receiving the real value.
func (h *SettingsHandler) SaveSettingsHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "PUT") {
		return
	}

	var req struct {
		LLMAPIKey  string `json:"llm_api_key"`
		Timezone   string `json:"timezone"`
		StarFilter int    `json:"star_filter"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	current, err := h.storage.SettingsStorage().GetSettings(r.Context())
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to load settings")
		WriteError(w, http.StatusInternalServerError, "Failed to load settings")
		return
	}

	if req.Timezone != "" {
		if _, err := time.LoadLocation(req.Timezone); err != nil {
			WriteError(w, http.StatusBadRequest, "Unknown timezone: "+req.Timezone)
			return
		}
		current.Timezone = req.Timezone
	}
	if req.StarFilter != 0 {
		current.StarFilter = req.StarFilter
	}
	if key := strings.TrimSpace(req.LLMAPIKey); key != "" {
		current.LLMAPIKey = key
	}
	current.UpdatedAt = time.Now()

	if err := h.validate.Struct(current); err != nil {
		WriteError(w, http.StatusBadRequest, "Invalid settings: "+err.Error())
		return
	}

	if err := h.storage.SettingsStorage().SaveSettings(r.Context(), current); err != nil {
		h.logger.Error().Err(err).Msg("Failed to save settings")
		WriteError(w, http.StatusInternalServerError, "Failed to save settings")
		return
	}

	h.logger.Info().
		Str("timezone", current.Timezone).
		Int("star_filter", current.StarFilter).
		Bool("has_api_key", current.LLMAPIKey != "").
		Msg("Settings saved")

	if h.onSaved != nil {
		h.onSaved()
	}

	WriteJSON(w, http.StatusOK, viewOf(current))
}

// ListTimezonesHandler handles GET /api/timezones - the curated zone list
// for the settings dropdown
func (h *SettingsHandler) ListTimezonesHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "GET") {
		return
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"timezones": h.timezone.AvailableZones(),
	})
}

// maskValue masks a credential for API responses.
// If length < 8: returns "••••••••"
// Otherwise: returns first 4 chars + "..." + last 4 chars (e.g., "sk-a...xyz9")
func maskValue(value string) string {
	if value == "" {
		return ""
	}
	if len(value) < 8 {
		return "••••••••"
	}
	return value[:4] + "..." + value[len(value)-4:]
}
