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

// SnapshotStorage implements the SnapshotStorage interface for Badger.
// One markdown snapshot of the scraped source page is kept per calendar date.
type SnapshotStorage struct {
	db     *BadgerDB
	logger arbor.ILogger
}

// NewSnapshotStorage creates a new SnapshotStorage instance
func NewSnapshotStorage(db *BadgerDB, logger arbor.ILogger) interfaces.SnapshotStorage {
	return &SnapshotStorage{
		db:     db,
		logger: logger,
	}
}

// SaveSnapshot writes the snapshot for a date, replacing any previous one
func (s *SnapshotStorage) SaveSnapshot(ctx context.Context, snapshot *models.CalendarSnapshot) error {
	if snapshot.Date == "" {
		return fmt.Errorf("snapshot date is required")
	}
	if snapshot.FetchedAt.IsZero() {
		snapshot.FetchedAt = time.Now()
	}

	if err := s.db.Store().Upsert(snapshot.Date, snapshot); err != nil {
		return fmt.Errorf("failed to save snapshot: %w", err)
	}
	return nil
}

// GetSnapshot retrieves the snapshot for a date. Returns (nil, nil) when no
// snapshot was kept for the date.
func (s *SnapshotStorage) GetSnapshot(ctx context.Context, date string) (*models.CalendarSnapshot, error) {
	var snapshot models.CalendarSnapshot
	err := s.db.Store().Get(date, &snapshot)
	if err == badgerhold.ErrNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get snapshot: %w", err)
	}
	return &snapshot, nil
}
