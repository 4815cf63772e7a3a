// Package common provides shared utilities and default configuration.
package common

// DefaultMarket represents a market that is seeded on first boot.
type DefaultMarket struct {
	Symbol      string `json:"symbol" yaml:"symbol"`
	Description string `json:"description" yaml:"description"`
}

// GetDefaultMarkets returns the markets seeded when the store is empty and no
// seeds file is present. This is the single source of truth for default values.
func GetDefaultMarkets() []DefaultMarket {
	return []DefaultMarket{
		{
			Symbol:      "FDAX",
			Description: "DAX futures (Eurex)",
		},
		{
			Symbol:      "BTC",
			Description: "Bitcoin",
		},
		{
			Symbol:      "SPY",
			Description: "S&P 500 ETF",
		},
		{
			Symbol:      "EUR/USD",
			Description: "Euro / US dollar",
		},
	}
}
