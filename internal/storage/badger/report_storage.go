package badger

import (
	"context"
	"fmt"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/auspex/internal/interfaces"
	"github.com/ternarybob/auspex/internal/models"
	"github.com/timshannon/badgerhold/v4"
)

// ReportStorage implements the ReportStorage interface for Badger
type ReportStorage struct {
	db     *BadgerDB
	logger arbor.ILogger
}

// NewReportStorage creates a new ReportStorage instance
func NewReportStorage(db *BadgerDB, logger arbor.ILogger) interfaces.ReportStorage {
	return &ReportStorage{
		db:     db,
		logger: logger,
	}
}

// SaveReport writes a compiled report keyed by its (date, market) pair
func (s *ReportStorage) SaveReport(ctx context.Context, report *models.Report) error {
	if report.ID == "" {
		report.ID = models.ReportID(report.Date, report.Market)
	}
	if report.CreatedAt.IsZero() {
		report.CreatedAt = time.Now()
	}

	if err := s.db.Store().Upsert(report.ID, report); err != nil {
		return fmt.Errorf("failed to save report: %w", err)
	}
	return nil
}

// GetReport retrieves a report by ID. Returns (nil, nil) when the ID is
// unknown so handlers can answer 404 instead of treating it as a fault.
func (s *ReportStorage) GetReport(ctx context.Context, id string) (*models.Report, error) {
	var report models.Report
	err := s.db.Store().Get(id, &report)
	if err == badgerhold.ErrNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get report: %w", err)
	}
	return &report, nil
}

// GetReportByPair retrieves the report for a (date, market) pair.
// Returns (nil, nil) when no report exists for the pair, so callers can use
// this as the duplicate guard before compiling.
func (s *ReportStorage) GetReportByPair(ctx context.Context, date, market string) (*models.Report, error) {
	id := models.ReportID(date, market)
	var report models.Report
	err := s.db.Store().Get(id, &report)
	if err == badgerhold.ErrNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get report for %s/%s: %w", date, market, err)
	}
	return &report, nil
}

// ListReports returns reports matching the options, newest date first, plus the
// total match count before paging so the UI can render page controls.
func (s *ReportStorage) ListReports(ctx context.Context, opts interfaces.ReportListOptions) ([]*models.Report, int, error) {
	query := badgerhold.Where("ID").Ne("") // Select all

	if opts.Market != "" {
		query = query.And("Market").Eq(opts.Market)
	}
	if opts.DateFrom != "" {
		query = query.And("Date").Ge(opts.DateFrom)
	}
	if opts.DateTo != "" {
		query = query.And("Date").Le(opts.DateTo)
	}

	query = query.SortBy("Date").Reverse()

	var all []models.Report
	if err := s.db.Store().Find(&all, query); err != nil {
		return nil, 0, fmt.Errorf("failed to list reports: %w", err)
	}

	total := len(all)

	// Apply paging after the filtered fetch; report volumes are small (one per
	// date/market pair) so in-memory paging is fine.
	start := opts.Offset
	if start > total {
		start = total
	}
	end := total
	if opts.Limit > 0 && start+opts.Limit < end {
		end = start + opts.Limit
	}
	page := all[start:end]

	result := make([]*models.Report, len(page))
	for i := range page {
		result[i] = &page[i]
	}
	return result, total, nil
}

// DeleteReport removes a report by ID
func (s *ReportStorage) DeleteReport(ctx context.Context, id string) error {
	if err := s.db.Store().Delete(id, &models.Report{}); err != nil {
		if err == badgerhold.ErrNotFound {
			return fmt.Errorf("report not found: %s", id)
		}
		return fmt.Errorf("failed to delete report: %w", err)
	}
	return nil
}

// CountReports returns the total number of stored reports
func (s *ReportStorage) CountReports(ctx context.Context) (int, error) {
	count, err := s.db.Store().Count(&models.Report{}, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to count reports: %w", err)
	}
	return int(count), nil
}

// AddPostmortem attaches a postmortem note to a report
func (s *ReportStorage) AddPostmortem(ctx context.Context, postmortem *models.Postmortem) error {
	if postmortem.ID == "" {
		return fmt.Errorf("postmortem ID is required")
	}
	if postmortem.ReportID == "" {
		return fmt.Errorf("postmortem report ID is required")
	}
	if postmortem.CreatedAt.IsZero() {
		postmortem.CreatedAt = time.Now()
	}

	if err := s.db.Store().Upsert(postmortem.ID, postmortem); err != nil {
		return fmt.Errorf("failed to add postmortem: %w", err)
	}
	return nil
}

// GetPostmortems returns the postmortem notes for a report, oldest first
func (s *ReportStorage) GetPostmortems(ctx context.Context, reportID string) ([]*models.Postmortem, error) {
	var notes []models.Postmortem
	err := s.db.Store().Find(&notes, badgerhold.Where("ReportID").Eq(reportID).Index("ReportID").SortBy("CreatedAt"))
	if err != nil {
		return nil, fmt.Errorf("failed to get postmortems: %w", err)
	}

	result := make([]*models.Postmortem, len(notes))
	for i := range notes {
		result[i] = &notes[i]
	}
	return result, nil
}

// DeletePostmortems removes all postmortem notes for a report.
// Called before the report itself is deleted so no orphaned notes remain.
func (s *ReportStorage) DeletePostmortems(ctx context.Context, reportID string) error {
	err := s.db.Store().DeleteMatching(&models.Postmortem{}, badgerhold.Where("ReportID").Eq(reportID).Index("ReportID"))
	if err != nil {
		return fmt.Errorf("failed to delete postmortems: %w", err)
	}
	return nil
}
