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

// AnalysisStorage implements the AnalysisStorage interface for Badger
type AnalysisStorage struct {
	db     *BadgerDB
	logger arbor.ILogger
}

// NewAnalysisStorage creates a new AnalysisStorage instance
func NewAnalysisStorage(db *BadgerDB, logger arbor.ILogger) interfaces.AnalysisStorage {
	return &AnalysisStorage{
		db:     db,
		logger: logger,
	}
}

// SaveAnalysis writes a relevance verdict keyed by its (event, market) pair
func (s *AnalysisStorage) SaveAnalysis(ctx context.Context, analysis *models.RelevanceAnalysis) error {
	if analysis.Key == "" {
		analysis.Key = models.AnalysisKey(analysis.EventKey, analysis.Market)
	}
	if analysis.CreatedAt.IsZero() {
		analysis.CreatedAt = time.Now()
	}

	if err := s.db.Store().Upsert(analysis.Key, analysis); err != nil {
		return fmt.Errorf("failed to save analysis: %w", err)
	}
	return nil
}

// GetAnalysis retrieves the cached verdict for an (event, market) pair.
// Returns (nil, nil) when no verdict has been stored, so callers can
// distinguish a cache miss from a storage failure.
func (s *AnalysisStorage) GetAnalysis(ctx context.Context, eventKey, market string) (*models.RelevanceAnalysis, error) {
	key := models.AnalysisKey(eventKey, market)
	var analysis models.RelevanceAnalysis
	err := s.db.Store().Get(key, &analysis)
	if err == badgerhold.ErrNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get analysis: %w", err)
	}
	return &analysis, nil
}

// GetAnalysesByMarket returns the stored verdicts for a set of events against one market.
// Events without a stored verdict are simply absent from the result.
func (s *AnalysisStorage) GetAnalysesByMarket(ctx context.Context, eventKeys []string, market string) ([]*models.RelevanceAnalysis, error) {
	result := make([]*models.RelevanceAnalysis, 0, len(eventKeys))
	for _, eventKey := range eventKeys {
		analysis, err := s.GetAnalysis(ctx, eventKey, market)
		if err != nil {
			return nil, err
		}
		if analysis != nil {
			result = append(result, analysis)
		}
	}
	return result, nil
}

// CountAnalyses returns the total number of stored verdicts
func (s *AnalysisStorage) CountAnalyses(ctx context.Context) (int, error) {
	count, err := s.db.Store().Count(&models.RelevanceAnalysis{}, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to count analyses: %w", err)
	}
	return int(count), nil
}
