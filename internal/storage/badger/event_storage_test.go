package badger

import (
	"context"
	"testing"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/auspex/internal/common"
	"github.com/ternarybob/auspex/internal/interfaces"
	"github.com/ternarybob/auspex/internal/models"
)

func newTestManager(t *testing.T) interfaces.StorageManager {
	t.Helper()

	manager, err := NewManager(arbor.NewLogger(), &common.BadgerConfig{Path: t.TempDir()})
	if err != nil {
		t.Fatalf("failed to open test storage: %v", err)
	}
	t.Cleanup(func() { manager.Close() })
	return manager
}

func storeEvent(t *testing.T, manager interfaces.StorageManager, date, name string, clock *string) *models.EconomicEvent {
	t.Helper()

	event := &models.EconomicEvent{
		Date:       date,
		EventName:  name,
		EventTime:  clock,
		Currency:   "USD",
		Importance: models.ImportanceMedium,
	}
	event.DeriveKey()

	if _, err := manager.EventStorage().Upsert(context.Background(), event); err != nil {
		t.Fatalf("failed to store event: %v", err)
	}
	return event
}

func clockPtr(s string) *string {
	return &s
}

func TestListDates(t *testing.T) {
	manager := newTestManager(t)
	ctx := context.Background()

	// Two events on one date must yield the date once.
	storeEvent(t, manager, "2024-01-15", "CPI m/m", clockPtr("13:30"))
	storeEvent(t, manager, "2024-01-15", "Retail Sales m/m", clockPtr("13:30"))
	storeEvent(t, manager, "2024-01-17", "FOMC Statement", clockPtr("19:00"))
	storeEvent(t, manager, "2024-01-16", "Bank Holiday", nil)

	dates, err := manager.EventStorage().ListDates(ctx, 0)
	if err != nil {
		t.Fatalf("ListDates failed: %v", err)
	}
	want := []string{"2024-01-17", "2024-01-16", "2024-01-15"}
	if len(dates) != len(want) {
		t.Fatalf("expected %d dates, got %v", len(want), dates)
	}
	for i := range want {
		if dates[i] != want[i] {
			t.Errorf("dates[%d] = %q, want %q (newest first)", i, dates[i], want[i])
		}
	}

	limited, err := manager.EventStorage().ListDates(ctx, 2)
	if err != nil {
		t.Fatalf("ListDates with limit failed: %v", err)
	}
	if len(limited) != 2 || limited[0] != "2024-01-17" {
		t.Errorf("expected the 2 newest dates, got %v", limited)
	}
}

func TestEventCounts(t *testing.T) {
	manager := newTestManager(t)
	ctx := context.Background()

	storeEvent(t, manager, "2024-01-15", "CPI m/m", clockPtr("13:30"))
	storeEvent(t, manager, "2024-01-15", "Retail Sales m/m", clockPtr("13:30"))
	storeEvent(t, manager, "2024-01-16", "Bank Holiday", nil)

	byDate, err := manager.EventStorage().CountEventsByDate(ctx, "2024-01-15")
	if err != nil {
		t.Fatalf("CountEventsByDate failed: %v", err)
	}
	if byDate != 2 {
		t.Errorf("expected 2 events on the date, got %d", byDate)
	}

	total, err := manager.EventStorage().CountEvents(ctx)
	if err != nil {
		t.Fatalf("CountEvents failed: %v", err)
	}
	if total != 3 {
		t.Errorf("expected 3 events in total, got %d", total)
	}
}

func TestGetEventMissing(t *testing.T) {
	manager := newTestManager(t)

	if _, err := manager.EventStorage().GetEvent(context.Background(), "evt_0000000000000000"); err == nil {
		t.Fatal("expected an error for an unknown event key")
	}
}
