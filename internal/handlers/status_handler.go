package handlers

import (
	"net/http"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/auspex/internal/common"
	"github.com/ternarybob/auspex/internal/interfaces"
)

// StatusHandler reports service health, store counts and component state
type StatusHandler struct {
	storage          interfaces.StorageManager
	schedulerService interfaces.SchedulerService
	wsHandler        *WebSocketHandler
	scoringReady     func() bool
	startTime        time.Time
	logger           arbor.ILogger
}

// NewStatusHandler creates a new status handler. scoringReady reports whether
// an LLM scorer is currently configured; it is a closure because settings
// changes can swap the scorer at runtime.
func NewStatusHandler(
	storage interfaces.StorageManager,
	schedulerService interfaces.SchedulerService,
	wsHandler *WebSocketHandler,
	scoringReady func() bool,
	logger arbor.ILogger,
) *StatusHandler {
	return &StatusHandler{
		storage:          storage,
		schedulerService: schedulerService,
		wsHandler:        wsHandler,
		scoringReady:     scoringReady,
		startTime:        time.Now(),
		logger:           logger,
	}
}

// GetStatusHandler handles GET /api/status
func (h *StatusHandler) GetStatusHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "GET") {
		return
	}

	ctx := r.Context()

	database := "connected"
	counts := map[string]int{}

	if n, err := h.storage.EventStorage().CountEvents(ctx); err != nil {
		database = "error: " + err.Error()
	} else {
		counts["events"] = n
	}
	if n, err := h.storage.AnalysisStorage().CountAnalyses(ctx); err == nil {
		counts["analyses"] = n
	}
	if n, err := h.storage.ReportStorage().CountReports(ctx); err == nil {
		counts["reports"] = n
	}
	if n, err := h.storage.MarketStorage().CountMarkets(ctx); err == nil {
		counts["markets"] = n
	}

	scoring := false
	if h.scoringReady != nil {
		scoring = h.scoringReady()
	}

	wsClients := 0
	if h.wsHandler != nil {
		wsClients = h.wsHandler.ClientCount()
	}

	schedulerRunning := false
	if h.schedulerService != nil {
		schedulerRunning = h.schedulerService.IsRunning()
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"service":           "auspex",
		"version":           common.GetVersion(),
		"build":             common.GetBuild(),
		"go_version":        common.GetGoVersion(),
		"uptime":            time.Since(h.startTime).Round(time.Second).String(),
		"database":          database,
		"counts":            counts,
		"scoring_ready":     scoring,
		"scheduler_running": schedulerRunning,
		"websocket_clients": wsClients,
	})
}

// GetVersionHandler handles GET /api/version
func (h *StatusHandler) GetVersionHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "GET") {
		return
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"version":    common.GetVersion(),
		"build":      common.GetBuild(),
		"commit":     common.GetGitCommit(),
		"go_version": common.GetGoVersion(),
	})
}
