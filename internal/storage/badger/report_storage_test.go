package badger

import (
	"context"
	"testing"
	"time"

	"github.com/ternarybob/auspex/internal/common"
	"github.com/ternarybob/auspex/internal/interfaces"
	"github.com/ternarybob/auspex/internal/models"
)

func storeReport(t *testing.T, manager interfaces.StorageManager, date, market string) *models.Report {
	t.Helper()

	report := &models.Report{
		Date:        date,
		Market:      market,
		HTML:        "<!DOCTYPE html><html><body>report</body></html>",
		TotalEvents: 4,
		HighImpact:  1,
		Sentiments:  map[string]int{models.SentimentNeutral: 1},
	}
	if err := manager.ReportStorage().SaveReport(context.Background(), report); err != nil {
		t.Fatalf("SaveReport failed: %v", err)
	}
	return report
}

func TestSaveReportDerivesID(t *testing.T) {
	manager := newTestManager(t)

	report := storeReport(t, manager, "2024-01-15", "FDAX")
	if report.ID != "rpt_2024-01-15_FDAX" {
		t.Errorf("expected derived ID, got %q", report.ID)
	}

	// Recompiling the same pair replaces the record instead of adding one.
	storeReport(t, manager, "2024-01-15", "FDAX")
	count, err := manager.ReportStorage().CountReports(context.Background())
	if err != nil {
		t.Fatalf("CountReports failed: %v", err)
	}
	if count != 1 {
		t.Errorf("expected 1 report after recompile, got %d", count)
	}
}

func TestGetReportByPairMissing(t *testing.T) {
	manager := newTestManager(t)

	report, err := manager.ReportStorage().GetReportByPair(context.Background(), "2024-01-15", "FDAX")
	if err != nil {
		t.Fatalf("GetReportByPair failed: %v", err)
	}
	if report != nil {
		t.Error("expected nil report for a missing pair")
	}
}

func TestListReports(t *testing.T) {
	manager := newTestManager(t)
	ctx := context.Background()

	storeReport(t, manager, "2024-01-15", "FDAX")
	storeReport(t, manager, "2024-01-16", "FDAX")
	storeReport(t, manager, "2024-01-17", "FDAX")
	storeReport(t, manager, "2024-01-16", "SPY")

	// Unfiltered, newest date first.
	all, total, err := manager.ReportStorage().ListReports(ctx, interfaces.ReportListOptions{})
	if err != nil {
		t.Fatalf("ListReports failed: %v", err)
	}
	if total != 4 || len(all) != 4 {
		t.Fatalf("expected 4 reports, got len=%d total=%d", len(all), total)
	}
	if all[0].Date != "2024-01-17" {
		t.Errorf("expected newest date first, got %q", all[0].Date)
	}

	// Market filter.
	fdax, total, err := manager.ReportStorage().ListReports(ctx, interfaces.ReportListOptions{Market: "FDAX"})
	if err != nil {
		t.Fatalf("ListReports by market failed: %v", err)
	}
	if total != 3 || len(fdax) != 3 {
		t.Errorf("expected 3 FDAX reports, got len=%d total=%d", len(fdax), total)
	}

	// Date window.
	window, total, err := manager.ReportStorage().ListReports(ctx, interfaces.ReportListOptions{
		DateFrom: "2024-01-16",
		DateTo:   "2024-01-16",
	})
	if err != nil {
		t.Fatalf("ListReports by window failed: %v", err)
	}
	if total != 2 || len(window) != 2 {
		t.Errorf("expected 2 reports on 2024-01-16, got len=%d total=%d", len(window), total)
	}

	// Paging keeps the pre-page total so the UI can count pages.
	page, total, err := manager.ReportStorage().ListReports(ctx, interfaces.ReportListOptions{Limit: 2, Offset: 2})
	if err != nil {
		t.Fatalf("ListReports with paging failed: %v", err)
	}
	if total != 4 {
		t.Errorf("expected total 4 regardless of paging, got %d", total)
	}
	if len(page) != 2 {
		t.Errorf("expected a 2-row page, got %d", len(page))
	}

	// Offset past the end yields an empty page, not an error.
	empty, _, err := manager.ReportStorage().ListReports(ctx, interfaces.ReportListOptions{Limit: 2, Offset: 10})
	if err != nil {
		t.Fatalf("ListReports past the end failed: %v", err)
	}
	if len(empty) != 0 {
		t.Errorf("expected an empty page, got %d rows", len(empty))
	}
}

func TestPostmortemLifecycle(t *testing.T) {
	manager := newTestManager(t)
	ctx := context.Background()

	report := storeReport(t, manager, "2024-01-15", "FDAX")

	first := &models.Postmortem{
		ID:         common.NewPostmortemID(),
		ReportID:   report.ID,
		Reflection: "Faded the spike too early.",
		CreatedAt:  time.Now().Add(-time.Hour),
	}
	second := &models.Postmortem{
		ID:         common.NewPostmortemID(),
		ReportID:   report.ID,
		Reflection: "Second entry worked once the dust settled.",
		CreatedAt:  time.Now(),
	}
	for _, note := range []*models.Postmortem{second, first} {
		if err := manager.ReportStorage().AddPostmortem(ctx, note); err != nil {
			t.Fatalf("AddPostmortem failed: %v", err)
		}
	}

	notes, err := manager.ReportStorage().GetPostmortems(ctx, report.ID)
	if err != nil {
		t.Fatalf("GetPostmortems failed: %v", err)
	}
	if len(notes) != 2 {
		t.Fatalf("expected 2 notes, got %d", len(notes))
	}
	// Oldest first regardless of insertion order.
	if notes[0].ID != first.ID {
		t.Error("expected chronological order, oldest first")
	}

	if err := manager.ReportStorage().DeletePostmortems(ctx, report.ID); err != nil {
		t.Fatalf("DeletePostmortems failed: %v", err)
	}
	notes, err = manager.ReportStorage().GetPostmortems(ctx, report.ID)
	if err != nil {
		t.Fatalf("GetPostmortems after delete failed: %v", err)
	}
	if len(notes) != 0 {
		t.Errorf("expected no notes after delete, got %d", len(notes))
	}
}

func TestAddPostmortemValidation(t *testing.T) {
	manager := newTestManager(t)
	ctx := context.Background()

	if err := manager.ReportStorage().AddPostmortem(ctx, &models.Postmortem{ReportID: "rpt_x"}); err == nil {
		t.Error("expected an error for a missing ID")
	}
	if err := manager.ReportStorage().AddPostmortem(ctx, &models.Postmortem{ID: common.NewPostmortemID()}); err == nil {
		t.Error("expected an error for a missing report ID")
	}
}

func TestDeleteReport(t *testing.T) {
	manager := newTestManager(t)
	ctx := context.Background()

	report := storeReport(t, manager, "2024-01-15", "FDAX")

	if err := manager.ReportStorage().DeleteReport(ctx, report.ID); err != nil {
		t.Fatalf("DeleteReport failed: %v", err)
	}
	gone, err := manager.ReportStorage().GetReport(ctx, report.ID)
	if err != nil {
		t.Fatalf("GetReport after delete failed: %v", err)
	}
	if gone != nil {
		t.Error("expected the report to be gone")
	}
	if err := manager.ReportStorage().DeleteReport(ctx, report.ID); err == nil {
		t.Error("expected an error deleting a missing report")
	}
}
