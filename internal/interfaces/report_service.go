package interfaces

import (
	"context"

	"github.com/ternarybob/auspex/internal/models"
)

// ReportService - interface for compiling and exporting daily reports
type ReportService interface {
	// Compile joins the date's analyzed events for a market into a
	// self-contained HTML report and persists it. The caller is
	// responsible for rejecting a duplicate (date, market) compile.
	Compile(ctx context.Context, date, market string) (*models.Report, error)

	// BuildMarkdown renders a report summary as markdown, used for the
	// PDF export and the assistant tools.
	BuildMarkdown(ctx context.Context, report *models.Report) (string, error)
}
