package models

import (
	"strings"
	"time"
)

// Market represents one tracked instrument the trader wants events scored
// against. The symbol is the identity; re-adding an existing symbol updates
// the description in place.
type Market struct {
	Symbol      string `json:"symbol" badgerhold:"key"` // uppercased, e.g. FDAX, EUR/USD
	Description string `json:"description"`

	CreatedAt time.Time `json:"created_at"`
}

// NormalizeSymbol uppercases and trims a user-supplied market symbol.
func NormalizeSymbol(symbol string) string {
	return strings.ToUpper(strings.TrimSpace(symbol))
}
