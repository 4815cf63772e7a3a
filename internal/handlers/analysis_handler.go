package handlers

import (
	"net/http"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/auspex/internal/interfaces"
	"github.com/ternarybob/auspex/internal/models"
)

// AnalysisHandler exposes cached relevance verdicts joined with their events
type AnalysisHandler struct {
	storage interfaces.StorageManager
	logger  arbor.ILogger
}

// NewAnalysisHandler creates a new analysis handler
func NewAnalysisHandler(storage interfaces.StorageManager, logger arbor.ILogger) *AnalysisHandler {
	return &AnalysisHandler{
		storage: storage,
		logger:  logger,
	}
}

// analysisItem joins a verdict with the event it scored
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

// ListAnalysesHandler handles GET /api/analyses?date=YYYY-MM-DD&market=SYMBOL
func (h *AnalysisHandler) ListAnalysesHandler(w http.ResponseWriter, r *http.Request) {
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

	market := models.NormalizeSymbol(r.URL.Query().Get("market"))
	if market == "" {
		WriteError(w, http.StatusBadRequest, "Missing market parameter")
		return
	}

	events, err := h.storage.EventStorage().GetEventsByDate(r.Context(), date)
	if err != nil {
		h.logger.Error().Err(err).Str("date", date).Msg("Failed to list events for analyses")
		WriteError(w, http.StatusInternalServerError, "Failed to list events")
		return
	}

	eventsByKey := make(map[string]*models.EconomicEvent, len(events))
	eventKeys := make([]string, len(events))
	for i, event := range events {
		eventsByKey[event.Key] = event
		eventKeys[i] = event.Key
	}

	analyses, err := h.storage.AnalysisStorage().GetAnalysesByMarket(r.Context(), eventKeys, market)
	if err != nil {
		h.logger.Error().Err(err).Str("date", date).Str("market", market).Msg("Failed to list analyses")
		WriteError(w, http.StatusInternalServerError, "Failed to list analyses")
		return
	}

	items := make([]analysisItem, 0, len(analyses))
	for _, analysis := range analyses {
		event := eventsByKey[analysis.EventKey]
		if event == nil {
			continue
		}
		items = append(items, analysisItem{
			EventName:        event.EventName,
			EventTime:        event.EventTime,
			Currency:         event.Currency,
			Importance:       event.Importance,
			Relevant:         analysis.Relevant,
			AnalysisText:     analysis.AnalysisText,
			ImpactScore:      analysis.ImpactScore,
			Sentiment:        analysis.Sentiment,
			KeyFactors:       analysis.KeyFactors,
			ExpertCommentary: analysis.ExpertCommentary,
			Origin:           analysis.Origin,
		})
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"date":     date,
		"market":   market,
		"count":    len(items),
		"analyses": items,
	})
}
