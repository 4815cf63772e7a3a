package calendar

import (
	"context"
	"testing"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/auspex/internal/common"
	"github.com/ternarybob/auspex/internal/interfaces"
	"github.com/ternarybob/auspex/internal/models"
	"github.com/ternarybob/auspex/internal/services/timezone"
	"github.com/ternarybob/auspex/internal/storage/badger"
)

// stubFetcher returns canned HTML and records how often it was called.
type stubFetcher struct {
	html  string
	calls int
}

func (f *stubFetcher) FetchPage(ctx context.Context, url string) (string, error) {
	f.calls++
	return f.html, nil
}

func (f *stubFetcher) Close() error {
	return nil
}

func newTestService(t *testing.T, fetcher PageFetcher) (*Service, interfaces.StorageManager) {
	t.Helper()

	logger := arbor.NewLogger()
	storage, err := badger.NewManager(logger, &common.BadgerConfig{Path: t.TempDir()})
	if err != nil {
		t.Fatalf("failed to open test storage: %v", err)
	}
	t.Cleanup(func() { storage.Close() })

	// Display zone matches the source zone so stored times are exactly
	// the fixture times.
	settings := models.DefaultSettings()
	settings.Timezone = "UTC"
	if err := storage.SettingsStorage().SaveSettings(context.Background(), settings); err != nil {
		t.Fatalf("failed to seed settings: %v", err)
	}

	config := common.NewDefaultConfig()
	config.Environment = "development"
	config.Calendar.SourceURL = "http://localhost/economic-calendar/?date={date}"
	config.Calendar.SaveSnapshots = false

	svc := NewService(config, fetcher, storage, timezone.NewService(logger), nil, logger)
	return svc, storage
}

func TestFetchAndStore(t *testing.T) {
	fetcher := &stubFetcher{html: sampleCalendarHTML}
	svc, storage := newTestService(t, fetcher)
	ctx := context.Background()

	stored, err := svc.FetchAndStore(ctx, "2024-01-15")
	if err != nil {
		t.Fatalf("FetchAndStore failed: %v", err)
	}
	if stored != 3 {
		t.Errorf("expected 3 stored events, got %d", stored)
	}
	if fetcher.calls != 1 {
		t.Errorf("expected 1 page fetch, got %d", fetcher.calls)
	}

	events, err := storage.EventStorage().GetEventsByDate(ctx, "2024-01-15")
	if err != nil {
		t.Fatalf("GetEventsByDate failed: %v", err)
	}
	if len(events) != 3 {
		t.Fatalf("expected 3 events in storage, got %d", len(events))
	}

	// All-day events sort before timed ones.
	if events[0].EventTime != nil {
		t.Errorf("expected the all-day event first, got time %v", *events[0].EventTime)
	}
	if events[1].EventTime == nil || *events[1].EventTime != "09:00" {
		t.Errorf("expected 09:00 second, got %v", events[1].EventTime)
	}
}

func TestFetchAndStoreSkipsFetchedDate(t *testing.T) {
	fetcher := &stubFetcher{html: sampleCalendarHTML}
	svc, _ := newTestService(t, fetcher)
	ctx := context.Background()

	if _, err := svc.FetchAndStore(ctx, "2024-01-15"); err != nil {
		t.Fatalf("first fetch failed: %v", err)
	}

	stored, err := svc.FetchAndStore(ctx, "2024-01-15")
	if err != nil {
		t.Fatalf("second fetch failed: %v", err)
	}
	if stored != 0 {
		t.Errorf("expected 0 stored on re-fetch, got %d", stored)
	}
	if fetcher.calls != 1 {
		t.Errorf("expected the second fetch to skip the network, calls=%d", fetcher.calls)
	}
}

func TestFetchAndStoreImportanceFloor(t *testing.T) {
	fetcher := &stubFetcher{html: sampleCalendarHTML}
	svc, storage := newTestService(t, fetcher)
	svc.config.MinImportance = "high"
	ctx := context.Background()

	stored, err := svc.FetchAndStore(ctx, "2024-01-15")
	if err != nil {
		t.Fatalf("FetchAndStore failed: %v", err)
	}
	if stored != 1 {
		t.Errorf("expected only the High event stored, got %d", stored)
	}

	events, err := storage.EventStorage().GetEventsByDate(ctx, "2024-01-15")
	if err != nil {
		t.Fatalf("GetEventsByDate failed: %v", err)
	}
	if len(events) != 1 || events[0].Importance != models.ImportanceHigh {
		t.Errorf("expected a single High event, got %d events", len(events))
	}
}

func TestFetchAndStoreRejectsBadDate(t *testing.T) {
	svc, _ := newTestService(t, &stubFetcher{html: sampleCalendarHTML})

	if _, err := svc.FetchAndStore(context.Background(), "15/01/2024"); err == nil {
		t.Fatal("expected an error for a malformed date")
	}
}

func TestUpsertRefreshesValues(t *testing.T) {
	fetcher := &stubFetcher{html: sampleCalendarHTML}
	svc, storage := newTestService(t, fetcher)
	ctx := context.Background()

	if _, err := svc.FetchAndStore(ctx, "2024-01-15"); err != nil {
		t.Fatalf("fetch failed: %v", err)
	}

	events, err := storage.EventStorage().GetEventsByDate(ctx, "2024-01-15")
	if err != nil {
		t.Fatalf("GetEventsByDate failed: %v", err)
	}

	// Re-store one event with a fresh actual value, as a re-scrape would.
	var retail *models.EconomicEvent
	for _, ev := range events {
		if ev.Actual != "" {
			retail = ev
			break
		}
	}
	if retail == nil {
		t.Fatal("expected an event with an actual value")
	}

	retail.Actual = "0.3%"
	isNew, err := storage.EventStorage().Upsert(ctx, retail)
	if err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}
	if isNew {
		t.Error("expected an in-place update, not a new record")
	}

	stored, err := storage.EventStorage().GetEvent(ctx, retail.Key)
	if err != nil {
		t.Fatalf("GetEvent failed: %v", err)
	}
	if stored.Actual != "0.3%" {
		t.Errorf("expected refreshed actual 0.3%%, got %q", stored.Actual)
	}

	count, err := storage.EventStorage().CountEventsByDate(ctx, "2024-01-15")
	if err != nil {
		t.Fatalf("CountEventsByDate failed: %v", err)
	}
	if count != 3 {
		t.Errorf("expected 3 events after re-store, got %d", count)
	}
}
