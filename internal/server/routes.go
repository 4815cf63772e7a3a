// -----------------------------------------------------------------------
// Last Modified: Wednesday, 12th August 2026 9:21:40 am
// Modified By: Bob McAllan
// -----------------------------------------------------------------------

package server

import (
	"net/http"
	"strings"

	"github.com/ternarybob/auspex/internal/handlers"
)

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() *http.ServeMux {
	mux := http.NewServeMux()

	// UI Page routes (HTML templates)
	mux.HandleFunc("/", s.serveIndex)
	mux.HandleFunc("/reports", s.app.PageHandler.ServePage("reports.html", "reports"))
	mux.HandleFunc("/reports/view", s.app.PageHandler.ServePage("report.html", "report"))
	mux.HandleFunc("/settings", s.app.PageHandler.ServePage("settings.html", "settings"))

	// Static files (CSS, JS)
	mux.HandleFunc("/static/", s.app.PageHandler.StaticFileHandler)

	// WebSocket route
	mux.HandleFunc("/ws", s.app.WSHandler.HandleWebSocket)

	// API routes - Calendar events
	mux.HandleFunc("/api/events", s.app.CalendarHandler.ListEventsHandler)             // GET ?date=
	mux.HandleFunc("/api/events/dates", s.app.CalendarHandler.ListDatesHandler)        // GET - dates with stored events
	mux.HandleFunc("/api/calendar/fetch", s.app.CalendarHandler.FetchCalendarHandler)  // POST - scrape a date now
	mux.HandleFunc("/api/calendar/snapshot", s.app.CalendarHandler.GetSnapshotHandler) // GET ?date= - raw source snapshot

	// API routes - Relevance analyses
	mux.HandleFunc("/api/analyses", s.app.AnalysisHandler.ListAnalysesHandler) // GET ?date=&market=

	// API routes - Markets
	mux.HandleFunc("/api/markets", s.handleMarketsRoute)                     // GET (list), POST (create)
	mux.HandleFunc("/api/markets/", s.app.MarketHandler.DeleteMarketHandler) // DELETE /{symbol}

	// API routes - Reports
	// generate is an exact pattern, so it wins over the /api/reports/
	// subtree for the {id} subroutes.
	mux.HandleFunc("/api/reports/generate", s.app.PipelineHandler.GenerateReportHandler) // POST - run full pipeline
	mux.HandleFunc("/api/reports", s.app.ReportHandler.ListReportsHandler)               // GET - filtered listing
	mux.HandleFunc("/api/reports/", s.handleReportRoutes)                                // /{id} and subpaths

	// API routes - Settings
	mux.HandleFunc("/api/settings", s.handleSettingsRoute)                       // GET, PUT
	mux.HandleFunc("/api/timezones", s.app.SettingsHandler.ListTimezonesHandler) // GET - display zones

	// API routes - Scheduler
	mux.HandleFunc("/api/scheduler/jobs", s.app.SchedulerHandler.ListJobsHandler)
	mux.HandleFunc("/api/scheduler/jobs/", s.handleSchedulerJobRoutes) // POST /{name}/trigger|enable|disable

	// API routes - System
	mux.HandleFunc("/api/status", s.app.StatusHandler.GetStatusHandler)
	mux.HandleFunc("/api/version", s.app.StatusHandler.GetVersionHandler)

	// 404 handler for unmatched API routes
	mux.HandleFunc("/api/", s.notFoundHandler)

	return mux
}

// serveIndex renders the calendar page. The bare ServeMux sends every
// unmatched path to "/", so anything but the root itself is a 404.
func (s *Server) serveIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	s.app.PageHandler.ServePage("index.html", "calendar")(w, r)
}

// handleMarketsRoute routes /api/markets requests (list and create)
func (s *Server) handleMarketsRoute(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case "GET":
		s.app.MarketHandler.ListMarketsHandler(w, r)
	case "POST":
		s.app.MarketHandler.CreateMarketHandler(w, r)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// handleSettingsRoute routes /api/settings requests
func (s *Server) handleSettingsRoute(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case "GET":
		s.app.SettingsHandler.GetSettingsHandler(w, r)
	case "PUT":
		s.app.SettingsHandler.SaveSettingsHandler(w, r)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// handleReportRoutes routes /api/reports/{id} requests and subpaths
func (s *Server) handleReportRoutes(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Path

	// GET /api/reports/{id}/html
	if r.Method == "GET" && strings.HasSuffix(path, "/html") {
		s.app.ReportHandler.GetReportHTMLHandler(w, r)
		return
	}

	// GET /api/reports/{id}/pdf
	if r.Method == "GET" && strings.HasSuffix(path, "/pdf") {
		s.app.ReportHandler.ExportReportPDFHandler(w, r)
		return
	}

	// GET /api/reports/{id}/markdown
	if r.Method == "GET" && strings.HasSuffix(path, "/markdown") {
		s.app.ReportHandler.GetReportMarkdownHandler(w, r)
		return
	}

	// GET/POST /api/reports/{id}/postmortems
	if strings.HasSuffix(path, "/postmortems") {
		switch r.Method {
		case "GET":
			s.app.ReportHandler.ListPostmortemsHandler(w, r)
		case "POST":
			s.app.ReportHandler.AddPostmortemHandler(w, r)
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
		return
	}

	// /api/reports/{id}
	switch r.Method {
	case "GET":
		s.app.ReportHandler.GetReportHandler(w, r)
	case "DELETE":
		s.app.ReportHandler.DeleteReportHandler(w, r)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// handleSchedulerJobRoutes routes /api/scheduler/jobs/{name} actions
func (s *Server) handleSchedulerJobRoutes(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Path

	if r.Method == "POST" && strings.HasSuffix(path, "/trigger") {
		s.app.SchedulerHandler.TriggerJobHandler(w, r)
		return
	}
	if r.Method == "POST" && strings.HasSuffix(path, "/enable") {
		s.app.SchedulerHandler.EnableJobHandler(w, r)
		return
	}
	if r.Method == "POST" && strings.HasSuffix(path, "/disable") {
		s.app.SchedulerHandler.DisableJobHandler(w, r)
		return
	}

	http.Error(w, "Not found", http.StatusNotFound)
}

// notFoundHandler returns a JSON 404 for unknown API paths
func (s *Server) notFoundHandler(w http.ResponseWriter, r *http.Request) {
	handlers.WriteJSON(w, http.StatusNotFound, map[string]interface{}{
		"error":   "Not Found",
		"path":    r.URL.Path,
		"message": "The requested endpoint does not exist",
	})
}
