// -----------------------------------------------------------------------
// Report compiler. Joins a date's events with their cached analyses for
// one market and renders the result into a self-contained HTML artifact.
// -----------------------------------------------------------------------

package report

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/auspex/internal/common"
	"github.com/ternarybob/auspex/internal/interfaces"
	"github.com/ternarybob/auspex/internal/models"
)

// GeneratedNotice is the payload published after a report is compiled.
type GeneratedNotice struct {
	ID     string `json:"id"`
	Date   string `json:"date"`
	Market string `json:"market"`
}

// templateData is the root context for the report template.
type templateData struct {
	Market         string
	Date           string
	TotalEvents    int
	HighImpact     int
	AnalyzedEvents int
	Bullish        int
	Bearish        int
	Neutral        int
	Events         []eventView
	GeneratedAt    string
	Version        string
}

type eventView struct {
	Name            string
	TimeLabel       string
	Currency        string
	Importance      string
	ImportanceClass string
	Actual          string
	Forecast        string
	Previous        string
	HasValues       bool
	Analysis        *analysisView
}

type analysisView struct {
	ImpactScore      int
	Sentiment        string
	EventDescription string
	AnalysisText     string
	KeyFactors       []string
	ExpertCommentary string
}

// Service implements the ReportService interface
type Service struct {
	storage interfaces.StorageManager
	events  interfaces.EventService
	logger  arbor.ILogger
}

// NewService creates a report compiler.
//
// Parameters:
//   - storage: Storage manager for events, analyses, reports, postmortems
//   - events: Event bus for report notifications, may be nil
//   - logger: Logger instance
func NewService(storage interfaces.StorageManager, events interfaces.EventService, logger arbor.ILogger) *Service {
	return &Service{
		storage: storage,
		events:  events,
		logger:  logger,
	}
}

// Compile renders and persists the report for a (date, market) pair. The
// caller is responsible for rejecting a duplicate pair before calling.
func (s *Service) Compile(ctx context.Context, date, market string) (*models.Report, error) {
	market = models.NormalizeSymbol(market)

	events, err := s.storage.EventStorage().GetEventsByDate(ctx, date)
	if err != nil {
		return nil, fmt.Errorf("failed to load events for %s: %w", date, err)
	}
	if len(events) == 0 {
		return nil, fmt.Errorf("no events stored for %s, fetch the calendar first", date)
	}

	analyses, err := s.loadAnalyses(ctx, events, market)
	if err != nil {
		return nil, err
	}

	report := &models.Report{
		ID:          models.ReportID(date, market),
		Date:        date,
		Market:      market,
		TotalEvents: len(events),
		Sentiments: map[string]int{
			models.SentimentBullish: 0,
			models.SentimentBearish: 0,
			models.SentimentNeutral: 0,
		},
		CreatedAt: time.Now(),
	}

	data := templateData{
		Market:      market,
		Date:        date,
		TotalEvents: len(events),
		GeneratedAt: report.CreatedAt.Format("2006-01-02 15:04 MST"),
		Version:     common.GetVersion(),
	}

	for _, event := range events {
		view := newEventView(event)

		if event.Importance == models.ImportanceHigh {
			report.HighImpact++
		}

		if analysis, ok := analyses[event.Key]; ok {
			report.AnalyzedEvents++
			report.Sentiments[analysis.Sentiment]++
			view.Analysis = &analysisView{
				ImpactScore:      analysis.ImpactScore,
				Sentiment:        analysis.Sentiment,
				EventDescription: analysis.EventDescription,
				AnalysisText:     analysis.AnalysisText,
				KeyFactors:       analysis.KeyFactors,
				ExpertCommentary: analysis.ExpertCommentary,
			}
		}

		data.Events = append(data.Events, view)
	}

	data.HighImpact = report.HighImpact
	data.AnalyzedEvents = report.AnalyzedEvents
	data.Bullish = report.Sentiments[models.SentimentBullish]
	data.Bearish = report.Sentiments[models.SentimentBearish]
	data.Neutral = report.Sentiments[models.SentimentNeutral]

	var buf bytes.Buffer
	if err := reportTemplate.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("failed to render report: %w", err)
	}
	report.HTML = buf.String()

	if err := s.storage.ReportStorage().SaveReport(ctx, report); err != nil {
		return nil, fmt.Errorf("failed to save report: %w", err)
	}

	s.logger.Info().
		Str("date", date).
		Str("market", market).
		Int("total_events", report.TotalEvents).
		Int("analyzed", report.AnalyzedEvents).
		Msg("Report compiled")

	s.publishGenerated(ctx, report)

	return report, nil
}

// loadAnalyses returns the cached verdicts for the events, keyed by event
// storage key.
func (s *Service) loadAnalyses(ctx context.Context, events []*models.EconomicEvent, market string) (map[string]*models.RelevanceAnalysis, error) {
	keys := make([]string, 0, len(events))
	for _, event := range events {
		keys = append(keys, event.Key)
	}

	list, err := s.storage.AnalysisStorage().GetAnalysesByMarket(ctx, keys, market)
	if err != nil {
		return nil, fmt.Errorf("failed to load analyses for %s: %w", market, err)
	}

	analyses := make(map[string]*models.RelevanceAnalysis, len(list))
	for _, analysis := range list {
		analyses[analysis.EventKey] = analysis
	}
	return analyses, nil
}

// BuildMarkdown renders a report as markdown for the PDF export and the
// assistant tools. The summary is rebuilt from storage so it always
// reflects the stored events, analyses, and postmortem notes.
func (s *Service) BuildMarkdown(ctx context.Context, report *models.Report) (string, error) {
	events, err := s.storage.EventStorage().GetEventsByDate(ctx, report.Date)
	if err != nil {
		return "", fmt.Errorf("failed to load events for %s: %w", report.Date, err)
	}

	analyses, err := s.loadAnalyses(ctx, events, report.Market)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "# Economic Calendar Report: %s on %s\n\n", report.Market, report.Date)
	fmt.Fprintf(&b, "Generated %s\n\n", report.CreatedAt.Format("2006-01-02 15:04 MST"))

	b.WriteString("## Summary\n\n")
	fmt.Fprintf(&b, "| Metric | Value |\n|---|---|\n")
	fmt.Fprintf(&b, "| Total events | %d |\n", report.TotalEvents)
	fmt.Fprintf(&b, "| High impact | %d |\n", report.HighImpact)
	fmt.Fprintf(&b, "| Analyzed | %d |\n", report.AnalyzedEvents)
	fmt.Fprintf(&b, "| Bullish / Bearish / Neutral | %d / %d / %d |\n\n",
		report.Sentiments[models.SentimentBullish],
		report.Sentiments[models.SentimentBearish],
		report.Sentiments[models.SentimentNeutral])

	b.WriteString("## Events\n\n")
	for _, event := range events {
		timeLabel := "All day"
		if event.EventTime != nil {
			timeLabel = *event.EventTime
		}
		fmt.Fprintf(&b, "### %s %s (%s, %s)\n\n", timeLabel, event.EventName, event.Currency, event.Importance)

		if event.Actual != "" || event.Forecast != "" || event.Previous != "" {
			fmt.Fprintf(&b, "| Actual | Forecast | Previous |\n|---|---|---|\n")
			fmt.Fprintf(&b, "| %s | %s | %s |\n\n", mdCell(event.Actual), mdCell(event.Forecast), mdCell(event.Previous))
		}

		analysis, ok := analyses[event.Key]
		if !ok {
			b.WriteString("Not analyzed for this market.\n\n")
			continue
		}

		fmt.Fprintf(&b, "**Impact %d/10, %s**\n\n", analysis.ImpactScore, analysis.Sentiment)
		if analysis.EventDescription != "" {
			fmt.Fprintf(&b, "%s\n\n", analysis.EventDescription)
		}
		if analysis.AnalysisText != "" {
			fmt.Fprintf(&b, "%s\n\n", analysis.AnalysisText)
		}
		if len(analysis.KeyFactors) > 0 {
			b.WriteString("Key factors:\n\n")
			for _, factor := range analysis.KeyFactors {
				fmt.Fprintf(&b, "- %s\n", factor)
			}
			b.WriteString("\n")
		}
		if analysis.ExpertCommentary != "" {
			fmt.Fprintf(&b, "> %s\n\n", analysis.ExpertCommentary)
		}
	}

	postmortems, err := s.storage.ReportStorage().GetPostmortems(ctx, report.ID)
	if err != nil {
		return "", fmt.Errorf("failed to load postmortems: %w", err)
	}
	if len(postmortems) > 0 {
		b.WriteString("## Postmortem notes\n\n")
		for _, note := range postmortems {
			fmt.Fprintf(&b, "### %s\n\n%s\n\n", note.CreatedAt.Format("2006-01-02 15:04"), note.Reflection)
		}
	}

	return b.String(), nil
}

// newEventView maps an event onto its template view.
func newEventView(event *models.EconomicEvent) eventView {
	timeLabel := "All day"
	if event.EventTime != nil {
		timeLabel = *event.EventTime
	}

	return eventView{
		Name:            event.EventName,
		TimeLabel:       timeLabel,
		Currency:        event.Currency,
		Importance:      event.Importance,
		ImportanceClass: "importance-" + strings.ToLower(event.Importance),
		Actual:          event.Actual,
		Forecast:        event.Forecast,
		Previous:        event.Previous,
		HasValues:       event.Actual != "" || event.Forecast != "" || event.Previous != "",
	}
}

func (s *Service) publishGenerated(ctx context.Context, report *models.Report) {
	if s.events == nil {
		return
	}
	notice := GeneratedNotice{ID: report.ID, Date: report.Date, Market: report.Market}
	if err := s.events.Publish(ctx, interfaces.Event{Type: interfaces.EventReportGenerated, Payload: notice}); err != nil {
		s.logger.Warn().Err(err).Msg("Failed to publish report notification")
	}
}

// mdCell keeps a table cell on one row of the markdown table.
func mdCell(s string) string {
	s = strings.ReplaceAll(s, "|", "/")
	return strings.ReplaceAll(s, "\n", " ")
}
