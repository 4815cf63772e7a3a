package interfaces

import (
	"context"

	"github.com/ternarybob/auspex/internal/models"
)

// AnnotatorService - interface for relevance scoring of (event, market) pairs
type AnnotatorService interface {
	// Analyze returns the cached or freshly computed verdict for the pair.
	// A (nil, nil) return means the event was filtered or judged not
	// relevant; no record was written in either case.
	Analyze(ctx context.Context, event *models.EconomicEvent, market string) (*models.RelevanceAnalysis, error)

	// AnalyzeDate applies Analyze to every event on the date, collecting
	// non-nil results and continuing past individual failures.
	AnalyzeDate(ctx context.Context, date, market string) ([]*models.RelevanceAnalysis, error)
}
