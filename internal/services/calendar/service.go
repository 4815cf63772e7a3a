// -----------------------------------------------------------------------
// Calendar fetch service. Renders the source page for a date, parses the
// event table, and upserts the events by natural key. A date that already
// has events is never re-fetched.
// -----------------------------------------------------------------------

package calendar

import (
	"context"
	"fmt"
	"strings"
	"time"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/auspex/internal/common"
	"github.com/ternarybob/auspex/internal/interfaces"
	"github.com/ternarybob/auspex/internal/models"
	"github.com/ternarybob/auspex/internal/services/timezone"
)

// FetchSummary is the payload published on the event bus after a fetch.
type FetchSummary struct {
	Date    string `json:"date"`
	Stored  int    `json:"stored"`
	New     int    `json:"new"`
	Updated int    `json:"updated"`
	Skipped int    `json:"skipped"`
}

// Service implements the CalendarService interface
type Service struct {
	config        *common.CalendarConfig
	allowTestURLs bool
	fetcher       PageFetcher
	parser        *Parser
	storage       interfaces.StorageManager
	timezone      *timezone.Service
	events        interfaces.EventService
	logger        arbor.ILogger
}

// NewService creates a calendar fetch service.
//
// Parameters:
//   - config: Full application config (source URL, browser, environment)
//   - fetcher: Page renderer, normally the Browser from this package
//   - storage: Storage manager for events, settings, and snapshots
//   - tz: Timezone converter applied once at ingestion
//   - events: Event bus for fetch notifications, may be nil
//   - logger: Logger instance
func NewService(config *common.Config, fetcher PageFetcher, storage interfaces.StorageManager, tz *timezone.Service, events interfaces.EventService, logger arbor.ILogger) *Service {
	return &Service{
		config:        &config.Calendar,
		allowTestURLs: config.AllowTestURLs(),
		fetcher:       fetcher,
		parser:        NewParser(logger),
		storage:       storage,
		timezone:      tz,
		events:        events,
		logger:        logger,
	}
}

// FetchAndStore retrieves the calendar for a date and persists the parsed
// events. Returns the number of rows stored. When the date already has
// events the network is never touched and 0 is returned.
func (s *Service) FetchAndStore(ctx context.Context, date string) (int, error) {
	if _, err := time.Parse(models.DateLayout, date); err != nil {
		return 0, fmt.Errorf("invalid date %q (expected YYYY-MM-DD)", date)
	}

	count, err := s.storage.EventStorage().CountEventsByDate(ctx, date)
	if err != nil {
		return 0, fmt.Errorf("failed to check existing events for %s: %w", date, err)
	}
	if count > 0 {
		s.logger.Info().
			Str("date", date).
			Int("existing_events", count).
			Msg("Date already fetched, skipping")
		return 0, nil
	}

	if err := common.ValidateSourceURL(s.config.SourceURL, s.allowTestURLs); err != nil {
		return 0, fmt.Errorf("calendar source URL rejected: %w", err)
	}

	url, err := common.BuildCalendarURL(s.config.SourceURL, date)
	if err != nil {
		return 0, fmt.Errorf("failed to build calendar URL: %w", err)
	}

	html, err := s.fetcher.FetchPage(ctx, url)
	if err != nil {
		return 0, fmt.Errorf("failed to fetch calendar for %s: %w", date, err)
	}

	// Snapshot before parsing so a parse failure still leaves evidence
	// of what the page looked like.
	if s.config.SaveSnapshots {
		s.saveSnapshot(ctx, date, url, html)
	}

	parsed, err := s.parser.Parse(html, date, url)
	if err != nil {
		return 0, fmt.Errorf("failed to parse calendar for %s: %w", date, err)
	}

	summary := s.storeEvents(ctx, date, parsed)

	s.logger.Info().
		Str("date", date).
		Int("stored", summary.Stored).
		Int("new", summary.New).
		Int("updated", summary.Updated).
		Int("skipped", summary.Skipped).
		Msg("Calendar fetch completed")

	s.publishFetchCompleted(ctx, summary)

	return summary.Stored, nil
}

// storeEvents applies the importance floor, converts event times into the
// display timezone, and upserts each row. Individual store failures are
// logged and skipped.
func (s *Service) storeEvents(ctx context.Context, date string, parsed []*models.EconomicEvent) FetchSummary {
	summary := FetchSummary{Date: date}
	minRank := minImportanceRank(s.config.MinImportance)
	displayZone := s.displayTimezone(ctx)

	for _, event := range parsed {
		if models.ImportanceRank(event.Importance) < minRank {
			summary.Skipped++
			continue
		}

		event.EventTime = s.timezone.Convert(event.EventTime, date, s.config.SourceTimezone, displayZone)
		event.DeriveKey()

		isNew, err := s.storage.EventStorage().Upsert(ctx, event)
		if err != nil {
			summary.Skipped++
			s.logger.Warn().
				Err(err).
				Str("event", event.EventName).
				Msg("Failed to store calendar event")
			continue
		}

		if isNew {
			summary.New++
		} else {
			summary.Updated++
		}
		summary.Stored++
	}

	return summary
}

// displayTimezone reads the configured display zone from settings. Falls
// back to the source zone, which makes Convert a no-op.
func (s *Service) displayTimezone(ctx context.Context) string {
	settings, err := s.storage.SettingsStorage().GetSettings(ctx)
	if err != nil {
		s.logger.Warn().Err(err).Msg("Failed to load settings, keeping source timezone")
		return s.config.SourceTimezone
	}
	if settings.Timezone == "" {
		return s.config.SourceTimezone
	}
	return settings.Timezone
}

// saveSnapshot stores a markdown rendering of the fetched page. Snapshot
// failures never fail the fetch.
func (s *Service) saveSnapshot(ctx context.Context, date, url, html string) {
	converter := md.NewConverter(url, true, nil)
	markdown, err := converter.ConvertString(html)
	if err != nil {
		s.logger.Warn().Err(err).Str("date", date).Msg("Failed to convert page snapshot to markdown")
		return
	}

	snapshot := &models.CalendarSnapshot{
		Date:      date,
		SourceURL: url,
		Markdown:  markdown,
		FetchedAt: time.Now(),
	}
	if err := s.storage.SnapshotStorage().SaveSnapshot(ctx, snapshot); err != nil {
		s.logger.Warn().Err(err).Str("date", date).Msg("Failed to save page snapshot")
	}
}

func (s *Service) publishFetchCompleted(ctx context.Context, summary FetchSummary) {
	if s.events == nil {
		return
	}
	if err := s.events.Publish(ctx, interfaces.Event{
		Type:    interfaces.EventFetchCompleted,
		Payload: summary,
	}); err != nil {
		s.logger.Warn().Err(err).Msg("Failed to publish fetch notification")
	}
}

// Close releases the browser session.
func (s *Service) Close() error {
	return s.fetcher.Close()
}

// minImportanceRank maps the configured importance floor to its ordinal.
// Unknown labels keep everything.
func minImportanceRank(label string) int {
	switch strings.ToLower(strings.TrimSpace(label)) {
	case "high":
		return 3
	case "medium":
		return 2
	default:
		return 1
	}
}
