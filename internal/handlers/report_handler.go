package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/auspex/internal/common"
	"github.com/ternarybob/auspex/internal/interfaces"
	"github.com/ternarybob/auspex/internal/models"
)

// ReportHandler handles compiled report queries, exports, and postmortems
type ReportHandler struct {
	reportService interfaces.ReportService
	pdfService    interfaces.PDFService
	storage       interfaces.StorageManager
	logger        arbor.ILogger
}

// NewReportHandler creates a new report handler
func NewReportHandler(reportService interfaces.ReportService, pdfService interfaces.PDFService, storage interfaces.StorageManager, logger arbor.ILogger) *ReportHandler {
	return &ReportHandler{
		reportService: reportService,
		pdfService:    pdfService,
		storage:       storage,
		logger:        logger,
	}
}

// reportSummary is the list-view shape: everything except the HTML body
type reportSummary struct {
	ID             string         `json:"id"`
	Date           string         `json:"date"`
	Market         string         `json:"market"`
	TotalEvents    int            `json:"total_events"`
	HighImpact     int            `json:"high_impact"`
	AnalyzedEvents int            `json:"analyzed_events"`
	Sentiments     map[string]int `json:"sentiments"`
	CreatedAt      time.Time      `json:"created_at"`
}

func summarize(report *models.Report) reportSummary {
	return reportSummary{
		ID:             report.ID,
		Date:           report.Date,
		Market:         report.Market,
		TotalEvents:    report.TotalEvents,
		HighImpact:     report.HighImpact,
		AnalyzedEvents: report.AnalyzedEvents,
		Sentiments:     report.Sentiments,
		CreatedAt:      report.CreatedAt,
	}
}

// ListReportsHandler handles GET /api/reports?market=&from=&to=&limit=&offset=
func (h *ReportHandler) ListReportsHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "GET") {
		return
	}

	limit, offset := GetLimitOffset(r)
	opts := interfaces.ReportListOptions{
		Market:   models.NormalizeSymbol(r.URL.Query().Get("market")),
		DateFrom: r.URL.Query().Get("from"),
		DateTo:   r.URL.Query().Get("to"),
		Limit:    limit,
		Offset:   offset,
	}

	reports, total, err := h.storage.ReportStorage().ListReports(r.Context(), opts)
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to list reports")
		WriteError(w, http.StatusInternalServerError, "Failed to list reports")
		return
	}

	summaries := make([]reportSummary, len(reports))
	for i, report := range reports {
		summaries[i] = summarize(report)
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"total":   total,
		"limit":   limit,
		"offset":  offset,
		"reports": summaries,
	})
}

// GetReportHandler handles GET /api/reports/{id}
func (h *ReportHandler) GetReportHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "GET") {
		return
	}

	report, ok := h.loadReport(w, r, "")
	if !ok {
		return
	}

	WriteJSON(w, http.StatusOK, report)
}

// GetReportHTMLHandler handles GET /api/reports/{id}/html - serves the
// stored artifact unmodified
func (h *ReportHandler) GetReportHTMLHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "GET") {
		return
	}

	report, ok := h.loadReport(w, r, "/html")
	if !ok {
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write([]byte(report.HTML))
}

// GetReportMarkdownHandler handles GET /api/reports/{id}/markdown - the
// summary rendering used by the PDF export and the assistant tools
func (h *ReportHandler) GetReportMarkdownHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "GET") {
		return
	}

	report, ok := h.loadReport(w, r, "/markdown")
	if !ok {
		return
	}

	markdown, err := h.reportService.BuildMarkdown(r.Context(), report)
	if err != nil {
		h.logger.Error().Err(err).Str("report_id", report.ID).Msg("Failed to build report markdown")
		WriteError(w, http.StatusInternalServerError, "Failed to build report markdown")
		return
	}

	w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
	w.Write([]byte(markdown))
}

// ExportReportPDFHandler handles GET /api/reports/{id}/pdf
func (h *ReportHandler) ExportReportPDFHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "GET") {
		return
	}

	report, ok := h.loadReport(w, r, "/pdf")
	if !ok {
		return
	}

	markdown, err := h.reportService.BuildMarkdown(r.Context(), report)
	if err != nil {
		h.logger.Error().Err(err).Str("report_id", report.ID).Msg("Failed to build report markdown")
		WriteError(w, http.StatusInternalServerError, "Failed to build report markdown")
		return
	}

	title := fmt.Sprintf("%s %s", report.Market, report.Date)
	pdfBytes, err := h.pdfService.ConvertMarkdownToPDF(markdown, title)
	if err != nil {
		h.logger.Error().Err(err).Str("report_id", report.ID).Msg("Failed to render PDF")
		WriteError(w, http.StatusInternalServerError, "Failed to render PDF")
		return
	}

	filename := fmt.Sprintf("report_%s_%s.pdf", report.Date, report.Market)
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	w.Write(pdfBytes)

	h.logger.Info().Str("report_id", report.ID).Int("bytes", len(pdfBytes)).Msg("Report exported as PDF")
}

// DeleteReportHandler handles DELETE /api/reports/{id}. Postmortems go
// first so a failure cannot orphan them under a deleted report.
func (h *ReportHandler) DeleteReportHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "DELETE") {
		return
	}

	report, ok := h.loadReport(w, r, "")
	if !ok {
		return
	}

	if err := h.storage.ReportStorage().DeletePostmortems(r.Context(), report.ID); err != nil {
		h.logger.Error().Err(err).Str("report_id", report.ID).Msg("Failed to delete postmortems")
		WriteError(w, http.StatusInternalServerError, "Failed to delete report postmortems")
		return
	}
	if err := h.storage.ReportStorage().DeleteReport(r.Context(), report.ID); err != nil {
		h.logger.Error().Err(err).Str("report_id", report.ID).Msg("Failed to delete report")
		WriteError(w, http.StatusInternalServerError, "Failed to delete report")
		return
	}

	h.logger.Info().Str("report_id", report.ID).Msg("Report deleted")
	WriteSuccess(w, "Report deleted")
}

// ListPostmortemsHandler handles GET /api/reports/{id}/postmortems
func (h *ReportHandler) ListPostmortemsHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "GET") {
		return
	}

	report, ok := h.loadReport(w, r, "/postmortems")
	if !ok {
		return
	}

	postmortems, err := h.storage.ReportStorage().GetPostmortems(r.Context(), report.ID)
	if err != nil {
		h.logger.Error().Err(err).Str("report_id", report.ID).Msg("Failed to list postmortems")
		WriteError(w, http.StatusInternalServerError, "Failed to list postmortems")
		return
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"report_id":   report.ID,
		"count":       len(postmortems),
		"postmortems": postmortems,
	})
}

// AddPostmortemHandler handles POST /api/reports/{id}/postmortems
func (h *ReportHandler) AddPostmortemHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "POST") {
		return
	}

	report, ok := h.loadReport(w, r, "/postmortems")
	if !ok {
		return
	}

	var req struct {
		Reflection string `json:"reflection"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if strings.TrimSpace(req.Reflection) == "" {
		WriteError(w, http.StatusBadRequest, "Reflection text is required")
		return
	}

	postmortem := &models.Postmortem{
		ID:         common.NewPostmortemID(),
		ReportID:   report.ID,
		Reflection: req.Reflection,
		CreatedAt:  time.Now(),
	}

	if err := h.storage.ReportStorage().AddPostmortem(r.Context(), postmortem); err != nil {
		h.logger.Error().Err(err).Str("report_id", report.ID).Msg("Failed to save postmortem")
		WriteError(w, http.StatusInternalServerError, "Failed to save postmortem")
		return
	}

	h.logger.Info().Str("report_id", report.ID).Str("postmortem_id", postmortem.ID).Msg("Postmortem added")
	WriteJSON(w, http.StatusCreated, postmortem)
}

// loadReport extracts the report ID from the path (trimming the given
// suffix), loads the record, and writes the error response itself when the
// ID is missing or unknown. The escaped path is used so a market symbol
// with a slash (EUR/USD arrives as EUR%2FUSD) stays one path segment.
func (h *ReportHandler) loadReport(w http.ResponseWriter, r *http.Request, suffix string) (*models.Report, bool) {
	id := strings.TrimPrefix(r.URL.EscapedPath(), "/api/reports/")
	if suffix != "" {
		id = strings.TrimSuffix(id, suffix)
	}
	if id == "" || strings.Contains(id, "/") {
		WriteError(w, http.StatusBadRequest, "Missing report ID")
		return nil, false
	}
	id, err := url.PathUnescape(id)
	if err != nil {
		WriteError(w, http.StatusBadRequest, "Invalid report ID")
		return nil, false
	}

	report, err := h.storage.ReportStorage().GetReport(r.Context(), id)
	if err != nil {
		h.logger.Error().Err(err).Str("report_id", id).Msg("Failed to load report")
		WriteError(w, http.StatusInternalServerError, "Failed to load report")
		return nil, false
	}
	if report == nil {
		WriteError(w, http.StatusNotFound, "Report not found")
		return nil, false
	}

	return report, true
}
