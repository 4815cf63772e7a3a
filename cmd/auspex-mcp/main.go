package main

import (
	"os"

	"github.com/mark3labs/mcp-go/server"
	"github.com/ternarybob/arbor"
	arbor_models "github.com/ternarybob/arbor/models"
	"github.com/ternarybob/auspex/internal/common"
)

func main() {
	// The MCP server queries the running auspex instance over HTTP
	baseURL := os.Getenv("AUSPEX_URL")
	if baseURL == "" {
		baseURL = "http://localhost:8085"
	}

	// Initialize minimal logger for MCP server (console only, no file output)
	logger := arbor.NewLogger().WithConsoleWriter(arbor_models.WriterConfiguration{
		Type:             arbor_models.LogWriterTypeConsole,
		TimeFormat:       "15:04:05",
		DisableTimestamp: false,
	}).WithLevelFromString("warn") // Minimal logging to avoid cluttering MCP stdio

	client := newAPIClient(baseURL)

	// Create MCP server
	mcpServer := server.NewMCPServer(
		"auspex",
		common.GetVersion(),
		server.WithToolCapabilities(true),
	)

	// Register calendar and analysis tools
	mcpServer.AddTool(createListEventsTool(), handleListEvents(client, logger))
	mcpServer.AddTool(createGetEventAnalysesTool(), handleGetEventAnalyses(client, logger))
	mcpServer.AddTool(createGetReportTool(), handleGetReport(client, logger))
	mcpServer.AddTool(createListMarketsTool(), handleListMarkets(client, logger))

	// Start server (blocks on stdio)
	if err := server.ServeStdio(mcpServer); err != nil {
		logger.Fatal().Err(err).Msg("MCP server failed")
	}
}
