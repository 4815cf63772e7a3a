package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/auspex/internal/common"
	"github.com/ternarybob/auspex/internal/interfaces"
	"github.com/ternarybob/auspex/internal/models"
)

// CalendarHandler handles calendar fetch triggers and stored event queries
type CalendarHandler struct {
	calendarService interfaces.CalendarService
	storage         interfaces.StorageManager
	events          interfaces.EventService
	logger          arbor.ILogger
}

// NewCalendarHandler creates a new calendar handler
func NewCalendarHandler(calendarService interfaces.CalendarService, storage interfaces.StorageManager, events interfaces.EventService, logger arbor.ILogger) *CalendarHandler {
	return &CalendarHandler{
		calendarService: calendarService,
		storage:         storage,
		events:          events,
		logger:          logger,
	}
}

// ListEventsHandler handles GET /api/events?date=YYYY-MM-DD
func (h *CalendarHandler) ListEventsHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "GET") {
		return
	}

	date := r.URL.Query().Get("date")
	if date == "" {
		date = time.Now().Format(models.DateLayout)
	}
	if _, err := time.Parse(models.DateLayout, date); err != nil {
		WriteError(w, http.StatusBadRequest, "Invalid date, expected YYYY-MM-DD")
		return
	}

	events, err := h.storage.EventStorage().GetEventsByDate(r.Context(), date)
	if err != nil {
		h.logger.Error().Err(err).Str("date", date).Msg("Failed to list events")
		WriteError(w, http.StatusInternalServerError, "Failed to list events")
		return
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"date":   date,
		"count":  len(events),
		"events": events,
	})
}

// ListDatesHandler handles GET /api/events/dates - dates with stored events,
// newest first
func (h *CalendarHandler) ListDatesHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "GET") {
		return
	}

	limit, _ := GetLimitOffset(r)
	dates, err := h.storage.EventStorage().ListDates(r.Context(), limit)
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to list fetched dates")
		WriteError(w, http.StatusInternalServerError, "Failed to list fetched dates")
		return
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"count": len(dates),
		"dates": dates,
	})
}

// FetchCalendarHandler handles POST /api/calendar/fetch - triggers a scrape
// for one date. The fetch runs in the background; completion and errors
// surface through WebSocket events.
func (h *CalendarHandler) FetchCalendarHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "POST") {
		return
	}

	var req struct {
		Date string `json:"date"`
	}
	if r.Body != nil {
		// An empty body means "today"; a malformed one is still an error
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil && err.Error() != "EOF" {
			WriteError(w, http.StatusBadRequest, "Invalid request body")
			return
		}
	}

	date := req.Date
	if date == "" {
		date = time.Now().Format(models.DateLayout)
	}
	if _, err := time.Parse(models.DateLayout, date); err != nil {
		WriteError(w, http.StatusBadRequest, "Invalid date, expected YYYY-MM-DD")
		return
	}

	common.SafeGo(h.logger, "calendar-fetch", func() {
		stored, err := h.calendarService.FetchAndStore(context.Background(), date)
		if err != nil {
			h.logger.Error().Err(err).Str("date", date).Msg("Calendar fetch failed")
			h.publishError("fetch", date, "", err)
			return
		}
		h.logger.Info().Str("date", date).Int("stored", stored).Msg("Calendar fetch finished")
	})

	WriteStarted(w, "Calendar fetch started for "+date)
}

// GetSnapshotHandler handles GET /api/calendar/snapshot?date=YYYY-MM-DD
func (h *CalendarHandler) GetSnapshotHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "GET") {
		return
	}

	date := r.URL.Query().Get("date")
	if date == "" {
		WriteError(w, http.StatusBadRequest, "Missing date parameter")
		return
	}

	snapshot, err := h.storage.SnapshotStorage().GetSnapshot(r.Context(), date)
	if err != nil {
		h.logger.Error().Err(err).Str("date", date).Msg("Failed to load snapshot")
		WriteError(w, http.StatusInternalServerError, "Failed to load snapshot")
		return
	}
	if snapshot == nil {
		WriteError(w, http.StatusNotFound, "No snapshot stored for "+date)
		return
	}

	WriteJSON(w, http.StatusOK, snapshot)
}

func (h *CalendarHandler) publishError(stage, date, market string, err error) {
	if h.events == nil {
		return
	}
	h.events.Publish(context.Background(), interfaces.Event{
		Type: interfaces.EventPipelineError,
		Payload: ErrorNotice{
			Stage:  stage,
			Date:   date,
			Market: market,
			Error:  err.Error(),
		},
	})
}
