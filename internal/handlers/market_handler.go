package handlers

import (
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/auspex/internal/interfaces"
	"github.com/ternarybob/auspex/internal/models"
)

// MarketHandler handles tracked market CRUD requests
type MarketHandler struct {
	storage interfaces.StorageManager
	logger  arbor.ILogger
}

// NewMarketHandler creates a new market handler
func NewMarketHandler(storage interfaces.StorageManager, logger arbor.ILogger) *MarketHandler {
	return &MarketHandler{
		storage: storage,
		logger:  logger,
	}
}

// ListMarketsHandler handles GET /api/markets
func (h *MarketHandler) ListMarketsHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "GET") {
		return
	}

	markets, err := h.storage.MarketStorage().ListMarkets(r.Context())
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to list markets")
		WriteError(w, http.StatusInternalServerError, "Failed to list markets")
		return
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"count":   len(markets),
		"markets": markets,
	})
}

// CreateMarketHandler handles POST /api/markets
func (h *MarketHandler) CreateMarketHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "POST") {
		return
	}

	var req struct {
		Symbol      string `json:"symbol"`
		Description string `json:"description"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	symbol := models.NormalizeSymbol(req.Symbol)
	if symbol == "" {
		WriteError(w, http.StatusBadRequest, "Symbol is required")
		return
	}

	market := &models.Market{
		Symbol:      symbol,
		Description: strings.TrimSpace(req.Description),
		CreatedAt:   time.Now(),
	}

	if err := h.storage.MarketStorage().UpsertMarket(r.Context(), market); err != nil {
		h.logger.Error().Err(err).Str("symbol", symbol).Msg("Failed to save market")
		WriteError(w, http.StatusInternalServerError, "Failed to save market")
		return
	}

	h.logger.Info().Str("symbol", symbol).Msg("Market saved")
	WriteJSON(w, http.StatusCreated, market)
}

// DeleteMarketHandler handles DELETE /api/markets/{symbol}
func (h *MarketHandler) DeleteMarketHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "DELETE") {
		return
	}

	encoded := r.URL.Path[len("/api/markets/"):]
	symbol, err := url.QueryUnescape(encoded)
	if err != nil || symbol == "" {
		WriteError(w, http.StatusBadRequest, "Missing market symbol")
		return
	}
	symbol = models.NormalizeSymbol(symbol)

	existing, err := h.storage.MarketStorage().GetMarket(r.Context(), symbol)
	if err != nil {
		h.logger.Error().Err(err).Str("symbol", symbol).Msg("Failed to look up market")
		WriteError(w, http.StatusInternalServerError, "Failed to look up market")
		return
	}
	if existing == nil {
		WriteError(w, http.StatusNotFound, "Market not found")
		return
	}

	// Cached analyses and compiled reports for the symbol stay; removing a
	// market only stops future scoring against it.
	if err := h.storage.MarketStorage().DeleteMarket(r.Context(), symbol); err != nil {
		h.logger.Error().Err(err).Str("symbol", symbol).Msg("Failed to delete market")
		WriteError(w, http.StatusInternalServerError, "Failed to delete market")
		return
	}

	h.logger.Info().Str("symbol", symbol).Msg("Market deleted")
	WriteSuccess(w, "Market deleted")
}
