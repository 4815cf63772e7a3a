// -----------------------------------------------------------------------
// Last Modified: Tuesday, 21st July 2026 3:18:09 pm
// Modified By: Bob McAllan
// -----------------------------------------------------------------------

package interfaces

import (
	"context"

	"github.com/ternarybob/auspex/internal/models"
)

// EventStorage - interface for scraped calendar event persistence
type EventStorage interface {
	// Upsert writes an event by its natural-key-derived storage key.
	// Returns true when a new record was created, false when an existing
	// record's value fields were refreshed in place.
	Upsert(ctx context.Context, event *models.EconomicEvent) (bool, error)

	GetEvent(ctx context.Context, key string) (*models.EconomicEvent, error)
	GetEventsByDate(ctx context.Context, date string) ([]*models.EconomicEvent, error)
	CountEventsByDate(ctx context.Context, date string) (int, error)
	CountEvents(ctx context.Context) (int, error)
	ListDates(ctx context.Context, limit int) ([]string, error)
}

// AnalysisStorage - interface for cached relevance verdicts
type AnalysisStorage interface {
	// SaveAnalysis writes a verdict for its (event, market) pair. The
	// derived key makes a second save for the same pair an overwrite,
	// which callers avoid by checking GetAnalysis first.
	SaveAnalysis(ctx context.Context, analysis *models.RelevanceAnalysis) error

	GetAnalysis(ctx context.Context, eventKey, market string) (*models.RelevanceAnalysis, error)
	GetAnalysesByMarket(ctx context.Context, eventKeys []string, market string) ([]*models.RelevanceAnalysis, error)
	CountAnalyses(ctx context.Context) (int, error)
}

// ReportListOptions narrows and pages a report listing
type ReportListOptions struct {
	Market   string
	DateFrom string
	DateTo   string
	Limit    int
	Offset   int
}

// ReportStorage - interface for compiled reports and their postmortems
type ReportStorage interface {
	// Report operations. Both getters return (nil, nil) when no report
	// exists, so callers can tell a missing report from a storage fault.
	SaveReport(ctx context.Context, report *models.Report) error
	GetReport(ctx context.Context, id string) (*models.Report, error)
	GetReportByPair(ctx context.Context, date, market string) (*models.Report, error)
	ListReports(ctx context.Context, opts ReportListOptions) ([]*models.Report, int, error)
	DeleteReport(ctx context.Context, id string) error
	CountReports(ctx context.Context) (int, error)

	// Postmortem operations
	AddPostmortem(ctx context.Context, postmortem *models.Postmortem) error
	GetPostmortems(ctx context.Context, reportID string) ([]*models.Postmortem, error)
	DeletePostmortems(ctx context.Context, reportID string) error
}

// MarketStorage - interface for tracked market symbols
type MarketStorage interface {
	UpsertMarket(ctx context.Context, market *models.Market) error
	// GetMarket returns (nil, nil) when the symbol is not tracked
	GetMarket(ctx context.Context, symbol string) (*models.Market, error)
	ListMarkets(ctx context.Context) ([]*models.Market, error)
	DeleteMarket(ctx context.Context, symbol string) error
	CountMarkets(ctx context.Context) (int, error)
}

// SettingsStorage - interface for the singleton settings record
type SettingsStorage interface {
	// GetSettings returns the current record, or defaults when none is stored
	GetSettings(ctx context.Context) (*models.Settings, error)
	SaveSettings(ctx context.Context, settings *models.Settings) error
}

// SnapshotStorage - interface for per-date source page snapshots
type SnapshotStorage interface {
	SaveSnapshot(ctx context.Context, snapshot *models.CalendarSnapshot) error
	// GetSnapshot returns (nil, nil) when no snapshot was kept for the date
	GetSnapshot(ctx context.Context, date string) (*models.CalendarSnapshot, error)
}

// StorageManager - composite interface for all storage operations
type StorageManager interface {
	EventStorage() EventStorage
	AnalysisStorage() AnalysisStorage
	ReportStorage() ReportStorage
	MarketStorage() MarketStorage
	SettingsStorage() SettingsStorage
	SnapshotStorage() SnapshotStorage
	Close() error
}
