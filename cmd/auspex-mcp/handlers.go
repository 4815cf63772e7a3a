package main

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/auspex/internal/models"
)

// toolError wraps a message in a text result; tool failures are reported to
// the model as content, not as protocol errors
func toolError(message string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.NewTextContent(message),
		},
	}
}

func toolText(markdown string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.NewTextContent(markdown),
		},
	}
}

// resolveDate validates the optional date argument, defaulting to today
func resolveDate(request mcp.CallToolRequest) (string, error) {
	date := request.GetString("date", "")
	if date == "" {
		return time.Now().Format(models.DateLayout), nil
	}
	if _, err := time.Parse(models.DateLayout, date); err != nil {
		return "", fmt.Errorf("invalid date %q, expected YYYY-MM-DD", date)
	}
	return date, nil
}

// handleListEvents implements the list_events tool
func handleListEvents(client *apiClient, logger arbor.ILogger) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		date, err := resolveDate(request)
		if err != nil {
			return toolError("Error: " + err.Error()), nil
		}

		minRank := 1
		if level := request.GetString("min_importance", ""); level != "" {
			switch strings.ToLower(level) {
			case "low":
				minRank = 1
			case "medium":
				minRank = 2
			case "high":
				minRank = 3
			default:
				return toolError(fmt.Sprintf("Error: unknown importance %q, expected low, medium, or high", level)), nil
			}
		}

		var resp struct {
			Events []*models.EconomicEvent `json:"events"`
		}
		if err := client.getJSON(ctx, "/api/events?date="+url.QueryEscape(date), &resp); err != nil {
			logger.Error().Err(err).Str("date", date).Msg("list_events failed")
			return toolError("Error: " + err.Error()), nil
		}

		filtered := resp.Events[:0]
		for _, event := range resp.Events {
			if event.ImportanceRank() >= minRank {
				filtered = append(filtered, event)
			}
		}

		return toolText(formatEvents(date, filtered)), nil
	}
}

// handleGetEventAnalyses implements the get_event_analyses tool
func handleGetEventAnalyses(client *apiClient, logger arbor.ILogger) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		market, err := request.RequireString("market")
		if err != nil || market == "" {
			return toolError("Error: market parameter is required"), nil
		}

		date, err := resolveDate(request)
		if err != nil {
			return toolError("Error: " + err.Error()), nil
		}

		var resp struct {
			Market   string         `json:"market"`
			Analyses []analysisItem `json:"analyses"`
		}
		path := "/api/analyses?date=" + url.QueryEscape(date) + "&market=" + url.QueryEscape(market)
		if err := client.getJSON(ctx, path, &resp); err != nil {
			logger.Error().Err(err).Str("date", date).Str("market", market).Msg("get_event_analyses failed")
			return toolError("Error: " + err.Error()), nil
		}

		return toolText(formatAnalyses(date, resp.Market, resp.Analyses)), nil
	}
}

// handleGetReport implements the get_report tool
func handleGetReport(client *apiClient, logger arbor.ILogger) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		market, err := request.RequireString("market")
		if err != nil || market == "" {
			return toolError("Error: market parameter is required"), nil
		}

		date, err := resolveDate(request)
		if err != nil {
			return toolError("Error: " + err.Error()), nil
		}

		// The report key is derived from the pair, so the ID can be built
		// without a listing roundtrip
		id := models.ReportID(date, models.NormalizeSymbol(market))
		markdown, err := client.getText(ctx, "/api/reports/"+url.PathEscape(id)+"/markdown")
		if err != nil {
			logger.Error().Err(err).Str("report_id", id).Msg("get_report failed")
			return toolError("Error: " + err.Error()), nil
		}

		return toolText(markdown), nil
	}
}

// handleListMarkets implements the list_markets tool
func handleListMarkets(client *apiClient, logger arbor.ILogger) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		var resp struct {
			Markets []*models.Market `json:"markets"`
		}
		if err := client.getJSON(ctx, "/api/markets", &resp); err != nil {
			logger.Error().Err(err).Msg("list_markets failed")
			return toolError("Error: " + err.Error()), nil
		}

		return toolText(formatMarkets(resp.Markets)), nil
	}
}
