package handlers

import (
	"net/http"
	"strings"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/auspex/internal/interfaces"
)

// SchedulerHandler handles scheduled job status and control endpoints
type SchedulerHandler struct {
	schedulerService interfaces.SchedulerService
	logger           arbor.ILogger
}

// NewSchedulerHandler creates a new scheduler handler
func NewSchedulerHandler(schedulerService interfaces.SchedulerService, logger arbor.ILogger) *SchedulerHandler {
	return &SchedulerHandler{
		schedulerService: schedulerService,
		logger:           logger,
	}
}

// ListJobsHandler handles GET /api/scheduler/jobs
func (h *SchedulerHandler) ListJobsHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "GET") {
		return
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"running": h.schedulerService.IsRunning(),
		"jobs":    h.schedulerService.GetAllJobStatuses(),
	})
}

// TriggerJobHandler handles POST /api/scheduler/jobs/{name}/trigger
func (h *SchedulerHandler) TriggerJobHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "POST") {
		return
	}

	name := jobNameFromPath(r.URL.Path, "/trigger")
	if name == "" {
		WriteError(w, http.StatusBadRequest, "Missing job name")
		return
	}

	if err := h.schedulerService.TriggerJob(name); err != nil {
		WriteError(w, http.StatusNotFound, err.Error())
		return
	}

	WriteStarted(w, "Job "+name+" triggered")
}

// EnableJobHandler handles POST /api/scheduler/jobs/{name}/enable
func (h *SchedulerHandler) EnableJobHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "POST") {
		return
	}

	name := jobNameFromPath(r.URL.Path, "/enable")
	if name == "" {
		WriteError(w, http.StatusBadRequest, "Missing job name")
		return
	}

	if err := h.schedulerService.EnableJob(name); err != nil {
		WriteError(w, http.StatusNotFound, err.Error())
		return
	}

	h.logger.Info().Str("job_name", name).Msg("Job enabled via API")
	WriteSuccess(w, "Job "+name+" enabled")
}

// DisableJobHandler handles POST /api/scheduler/jobs/{name}/disable
func (h *SchedulerHandler) DisableJobHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "POST") {
		return
	}

	name := jobNameFromPath(r.URL.Path, "/disable")
	if name == "" {
		WriteError(w, http.StatusBadRequest, "Missing job name")
		return
	}

	if err := h.schedulerService.DisableJob(name); err != nil {
		WriteError(w, http.StatusNotFound, err.Error())
		return
	}

	h.logger.Info().Str("job_name", name).Msg("Job disabled via API")
	WriteSuccess(w, "Job "+name+" disabled")
}

func jobNameFromPath(path, suffix string) string {
	name := strings.TrimPrefix(path, "/api/scheduler/jobs/")
	name = strings.TrimSuffix(name, suffix)
	if strings.Contains(name, "/") {
		return ""
	}
	return name
}
