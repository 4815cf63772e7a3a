package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/auspex/internal/common"
	"github.com/ternarybob/auspex/internal/interfaces"
	"github.com/ternarybob/auspex/internal/models"
)

// ErrorNotice is the payload published on pipeline_error events. Stage names
// which step failed (fetch, analyze, compile) so the UI can say more than
// "something broke".
type ErrorNotice struct {
	Stage  string `json:"stage"`
	Date   string `json:"date"`
	Market string `json:"market,omitempty"`
	Error  string `json:"error"`
}

// PipelineHandler runs the fetch -> analyze -> compile chain for a single
// (date, market) pair on demand
type PipelineHandler struct {
	calendarService  interfaces.CalendarService
	annotatorService interfaces.AnnotatorService
	reportService    interfaces.ReportService
	storage          interfaces.StorageManager
	events           interfaces.EventService
	scoringReady     func() bool
	logger           arbor.ILogger
}

// NewPipelineHandler creates a new pipeline handler. scoringReady reports
// whether an LLM scorer is configured; generation is refused without one
// rather than compiling an empty report.
func NewPipelineHandler(
	calendarService interfaces.CalendarService,
	annotatorService interfaces.AnnotatorService,
	reportService interfaces.ReportService,
	storage interfaces.StorageManager,
	events interfaces.EventService,
	scoringReady func() bool,
	logger arbor.ILogger,
) *PipelineHandler {
	return &PipelineHandler{
		calendarService:  calendarService,
		annotatorService: annotatorService,
		reportService:    reportService,
		storage:          storage,
		events:           events,
		scoringReady:     scoringReady,
		logger:           logger,
	}
}

// GenerateReportHandler handles POST /api/reports/generate
// Body: {"date": "2026-01-15", "market": "XAUUSD"} - date defaults to today.
// Responds immediately with status "started"; progress and errors arrive
// over the websocket.
func (h *PipelineHandler) GenerateReportHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "POST") {
		return
	}

	var req struct {
		Date   string `json:"date"`
		Market string `json:"market"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	date := req.Date
	if date == "" {
		date = time.Now().Format(models.DateLayout)
	}
	if _, err := time.Parse(models.DateLayout, date); err != nil {
		WriteError(w, http.StatusBadRequest, "Invalid date format, expected YYYY-MM-DD: "+date)
		return
	}

	market := models.NormalizeSymbol(req.Market)
	if market == "" {
		WriteError(w, http.StatusBadRequest, "Market symbol is required")
		return
	}

	ctx := r.Context()

	known, err := h.storage.MarketStorage().GetMarket(ctx, market)
	if err != nil {
		WriteError(w, http.StatusInternalServerError, "Failed to look up market: "+err.Error())
		return
	}
	if known == nil {
		WriteError(w, http.StatusNotFound, "Unknown market: "+market)
		return
	}

	existing, err := h.storage.ReportStorage().GetReportByPair(ctx, date, market)
	if err != nil {
		WriteError(w, http.StatusInternalServerError, "Failed to check for existing report: "+err.Error())
		return
	}
	if existing != nil {
		WriteError(w, http.StatusConflict, fmt.Sprintf("Report already exists for %s %s (delete it first to regenerate)", market, date))
		return
	}

	if h.scoringReady != nil && !h.scoringReady() {
		WriteError(w, http.StatusServiceUnavailable, "Relevance scoring is not configured, set the LLM API key in settings")
		return
	}

	h.logger.Info().
		Str("date", date).
		Str("market", market).
		Msg("Report generation requested")

	common.SafeGo(h.logger, "report-pipeline", func() {
		h.runPipeline(context.Background(), date, market)
	})

	WriteStarted(w, fmt.Sprintf("Report generation started for %s %s", market, date))
}

// runPipeline executes the three stages sequentially. Each stage failure is
// published as a pipeline_error and aborts the remaining stages.
func (h *PipelineHandler) runPipeline(ctx context.Context, date, market string) {
	start := time.Now()

	if _, err := h.calendarService.FetchAndStore(ctx, date); err != nil {
		h.publishStageError("fetch", date, market, err)
		return
	}

	if _, err := h.annotatorService.AnalyzeDate(ctx, date, market); err != nil {
		h.publishStageError("analyze", date, market, err)
		return
	}

	report, err := h.reportService.Compile(ctx, date, market)
	if err != nil {
		h.publishStageError("compile", date, market, err)
		return
	}

	h.logger.Info().
		Str("report_id", report.ID).
		Str("date", date).
		Str("market", market).
		Int("total_events", report.TotalEvents).
		Int("analyzed_events", report.AnalyzedEvents).
		Dur("duration", time.Since(start)).
		Msg("Report pipeline completed")
}

func (h *PipelineHandler) publishStageError(stage, date, market string, err error) {
	h.logger.Error().
		Err(err).
		Str("stage", stage).
		Str("date", date).
		Str("market", market).
		Msg("Report pipeline failed")

	if h.events == nil {
		return
	}
	publishErr := h.events.Publish(context.Background(), interfaces.Event{
		Type: interfaces.EventPipelineError,
		Payload: ErrorNotice{
			Stage:  stage,
			Date:   date,
			Market: market,
			Error:  err.Error(),
		},
	})
	if publishErr != nil {
		h.logger.Warn().Err(publishErr).Msg("Failed to publish pipeline error event")
	}
}
