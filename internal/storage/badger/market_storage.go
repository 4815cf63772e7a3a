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

// MarketStorage implements the MarketStorage interface for Badger
type MarketStorage struct {
	db     *BadgerDB
	logger arbor.ILogger
}

// NewMarketStorage creates a new MarketStorage instance
func NewMarketStorage(db *BadgerDB, logger arbor.ILogger) interfaces.MarketStorage {
	return &MarketStorage{
		db:     db,
		logger: logger,
	}
}

// UpsertMarket inserts or updates a tracked market.
// The symbol is normalized so "fdax" and "FDAX" address the same record.
func (s *MarketStorage) UpsertMarket(ctx context.Context, market *models.Market) error {
	market.Symbol = models.NormalizeSymbol(market.Symbol)
	if market.Symbol == "" {
		return fmt.Errorf("market symbol is required")
	}

	var existing models.Market
	err := s.db.Store().Get(market.Symbol, &existing)
	if err == nil {
		market.CreatedAt = existing.CreatedAt
	} else if err == badgerhold.ErrNotFound {
		market.CreatedAt = time.Now()
	} else {
		return fmt.Errorf("failed to check market existence: %w", err)
	}

	if err := s.db.Store().Upsert(market.Symbol, market); err != nil {
		return fmt.Errorf("failed to upsert market: %w", err)
	}
	return nil
}

// GetMarket retrieves a market by symbol. Returns (nil, nil) when the symbol
// is not tracked so handlers can answer 404 instead of treating it as a fault.
func (s *MarketStorage) GetMarket(ctx context.Context, symbol string) (*models.Market, error) {
	normalized := models.NormalizeSymbol(symbol)
	var market models.Market
	err := s.db.Store().Get(normalized, &market)
	if err == badgerhold.ErrNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get market: %w", err)
	}
	return &market, nil
}

// ListMarkets returns all tracked markets sorted by symbol
func (s *MarketStorage) ListMarkets(ctx context.Context) ([]*models.Market, error) {
	var markets []models.Market
	if err := s.db.Store().Find(&markets, badgerhold.Where("Symbol").Ne("").SortBy("Symbol")); err != nil {
		return nil, fmt.Errorf("failed to list markets: %w", err)
	}

	result := make([]*models.Market, len(markets))
	for i := range markets {
		result[i] = &markets[i]
	}
	return result, nil
}

// DeleteMarket removes a tracked market by symbol
func (s *MarketStorage) DeleteMarket(ctx context.Context, symbol string) error {
	normalized := models.NormalizeSymbol(symbol)
	if err := s.db.Store().Delete(normalized, &models.Market{}); err != nil {
		if err == badgerhold.ErrNotFound {
			return fmt.Errorf("market not found: %s", normalized)
		}
		return fmt.Errorf("failed to delete market: %w", err)
	}
	return nil
}

// CountMarkets returns the number of tracked markets
func (s *MarketStorage) CountMarkets(ctx context.Context) (int, error) {
	count, err := s.db.Store().Count(&models.Market{}, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to count markets: %w", err)
	}
	return int(count), nil
}
