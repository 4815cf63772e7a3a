package badger

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/auspex/internal/interfaces"
	"github.com/ternarybob/auspex/internal/models"
	"github.com/timshannon/badgerhold/v4"
)

// EventStorage implements the EventStorage interface for Badger
type EventStorage struct {
	db     *BadgerDB
	logger arbor.ILogger
}

// NewEventStorage creates a new EventStorage instance
func NewEventStorage(db *BadgerDB, logger arbor.ILogger) interfaces.EventStorage {
	return &EventStorage{
		db:     db,
		logger: logger,
	}
}

// Upsert inserts or refreshes an event with explicit operation detection.
// The storage key is derived from the natural key (date, name, time, currency),
// so a re-scrape of the same event updates the actual/forecast/previous values
// in place instead of creating a duplicate row.
func (s *EventStorage) Upsert(ctx context.Context, event *models.EconomicEvent) (bool, error) {
	if event.Key == "" {
		event.DeriveKey()
	}

	now := time.Now()
	event.UpdatedAt = now

	var existing models.EconomicEvent
	err := s.db.Store().Get(event.Key, &existing)
	isNew := err == badgerhold.ErrNotFound

	if !isNew && err == nil {
		event.CreatedAt = existing.CreatedAt
	} else if err != nil && err != badgerhold.ErrNotFound {
		return false, fmt.Errorf("failed to check event existence: %w", err)
	} else {
		event.CreatedAt = now
	}

	if err := s.db.Store().Upsert(event.Key, event); err != nil {
		return false, fmt.Errorf("failed to upsert event: %w", err)
	}

	return isNew, nil
}

// GetEvent retrieves a single event by its storage key
func (s *EventStorage) GetEvent(ctx context.Context, key string) (*models.EconomicEvent, error) {
	var event models.EconomicEvent
	if err := s.db.Store().Get(key, &event); err != nil {
		if err == badgerhold.ErrNotFound {
			return nil, fmt.Errorf("event not found: %s", key)
		}
		return nil, fmt.Errorf("failed to get event: %w", err)
	}
	return &event, nil
}

// GetEventsByDate returns all events for a calendar date sorted chronologically.
// All-day events (nil time) sort before timed events; ties are broken by
// importance (high first) and then name for a stable listing.
func (s *EventStorage) GetEventsByDate(ctx context.Context, date string) ([]*models.EconomicEvent, error) {
	var events []models.EconomicEvent
	if err := s.db.Store().Find(&events, badgerhold.Where("Date").Eq(date).Index("Date")); err != nil {
		return nil, fmt.Errorf("failed to get events for date %s: %w", date, err)
	}

	sort.SliceStable(events, func(i, j int) bool {
		ti, tj := events[i].TimeSortValue(), events[j].TimeSortValue()
		if ti != tj {
			return ti < tj
		}
		ri, rj := events[i].ImportanceRank(), events[j].ImportanceRank()
		if ri != rj {
			return ri > rj
		}
		return events[i].EventName < events[j].EventName
	})

	result := make([]*models.EconomicEvent, len(events))
	for i := range events {
		result[i] = &events[i]
	}
	return result, nil
}

// CountEventsByDate returns the number of stored events for a date
func (s *EventStorage) CountEventsByDate(ctx context.Context, date string) (int, error) {
	count, err := s.db.Store().Count(&models.EconomicEvent{}, badgerhold.Where("Date").Eq(date).Index("Date"))
	if err != nil {
		return 0, fmt.Errorf("failed to count events for date %s: %w", date, err)
	}
	return int(count), nil
}

// CountEvents returns the total number of stored events
func (s *EventStorage) CountEvents(ctx context.Context) (int, error) {
	count, err := s.db.Store().Count(&models.EconomicEvent{}, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to count events: %w", err)
	}
	return int(count), nil
}

// ListDates returns the distinct dates that have stored events, newest first.
// This iterates all events; acceptable at single-user calendar volumes where a
// date holds at most a few hundred rows.
func (s *EventStorage) ListDates(ctx context.Context, limit int) ([]string, error) {
	var events []models.EconomicEvent
	if err := s.db.Store().Find(&events, nil); err != nil {
		return nil, fmt.Errorf("failed to list event dates: %w", err)
	}

	seen := make(map[string]struct{})
	dates := make([]string, 0)
	for i := range events {
		if _, ok := seen[events[i].Date]; ok {
			continue
		}
		seen[events[i].Date] = struct{}{}
		dates = append(dates, events[i].Date)
	}

	sort.Sort(sort.Reverse(sort.StringSlice(dates)))

	if limit > 0 && len(dates) > limit {
		dates = dates[:limit]
	}
	return dates, nil
}
