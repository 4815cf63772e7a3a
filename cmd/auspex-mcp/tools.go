package main

import (
	"github.com/mark3labs/mcp-go/mcp"
)

// createListEventsTool returns the list_events tool definition
func createListEventsTool() mcp.Tool {
	return mcp.NewTool("list_events",
		mcp.WithDescription("List the economic calendar events stored for a date, with importance, times, and actual/forecast/previous values"),
		mcp.WithString("date",
			mcp.Description("Calendar date in YYYY-MM-DD format (default: today)"),
		),
		mcp.WithString("min_importance",
			mcp.Description("Only include events at or above this importance: low, medium, high (default: low)"),
		),
	)
}

// createGetEventAnalysesTool returns the get_event_analyses tool definition
func createGetEventAnalysesTool() mcp.Tool {
	return mcp.NewTool("get_event_analyses",
		mcp.WithDescription("Get the cached per-event relevance verdicts for a market on a date: relevance, impact score, sentiment, and commentary"),
		mcp.WithString("market",
			mcp.Required(),
			mcp.Description("Market symbol (e.g. FDAX, BTC, EUR/USD)"),
		),
		mcp.WithString("date",
			mcp.Description("Calendar date in YYYY-MM-DD format (default: today)"),
		),
	)
}

// createGetReportTool returns the get_report tool definition
func createGetReportTool() mcp.Tool {
	return mcp.NewTool("get_report",
		mcp.WithDescription("Get the compiled daily report for a (date, market) pair as a markdown summary"),
		mcp.WithString("market",
			mcp.Required(),
			mcp.Description("Market symbol (e.g. FDAX, BTC, EUR/USD)"),
		),
		mcp.WithString("date",
			mcp.Description("Calendar date in YYYY-MM-DD format (default: today)"),
		),
	)
}

// createListMarketsTool returns the list_markets tool definition
func createListMarketsTool() mcp.Tool {
	return mcp.NewTool("list_markets",
		mcp.WithDescription("List the markets tracked for relevance scoring"),
	)
}
