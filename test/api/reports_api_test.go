package api

import (
	"context"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ternarybob/auspex/internal/models"
	"github.com/ternarybob/auspex/test/common"
)

// seedReport stores a compiled report directly, bypassing the pipeline
func seedReport(t *testing.T, env *common.TestEnvironment, date, market string) *models.Report {
	t.Helper()

	report := &models.Report{
		ID:          models.ReportID(date, market),
		Date:        date,
		Market:      market,
		HTML:        "<!DOCTYPE html><html><body><h1>" + market + " " + date + "</h1></body></html>",
		TotalEvents: 3,
		HighImpact:  1,
		Sentiments:  map[string]int{"bullish": 1, "neutral": 2},
		CreatedAt:   time.Now(),
	}
	require.NoError(t, env.App.StorageManager.ReportStorage().SaveReport(context.Background(), report),
		"Failed to seed report")
	return report
}

type reportListResponse struct {
	Total   int `json:"total"`
	Limit   int `json:"limit"`
	Offset  int `json:"offset"`
	Reports []struct {
		ID     string `json:"id"`
		Date   string `json:"date"`
		Market string `json:"market"`
	} `json:"reports"`
}

// TestReportsListEmpty verifies the listing shape before anything is compiled
func TestReportsListEmpty(t *testing.T) {
	env, err := common.SetupTestEnvironment(t)
	require.NoError(t, err, "Failed to setup test environment")
	defer env.Cleanup()

	helper := env.NewHTTPTestHelper(t)

	resp, err := helper.GET("/api/reports")
	require.NoError(t, err, "Failed to list reports")
	helper.AssertStatusCode(resp, http.StatusOK)

	var result reportListResponse
	require.NoError(t, helper.ParseJSONResponse(resp, &result))
	assert.Equal(t, 0, result.Total)
	assert.Equal(t, 20, result.Limit)
	assert.Equal(t, 0, result.Offset)
	assert.Empty(t, result.Reports)
}

// TestReportsListFiltering verifies market and date range filters plus paging
func TestReportsListFiltering(t *testing.T) {
	env, err := common.SetupTestEnvironment(t)
	require.NoError(t, err, "Failed to setup test environment")
	defer env.Cleanup()

	seedReport(t, env, "2026-03-02", "FDAX")
	seedReport(t, env, "2026-03-03", "FDAX")
	seedReport(t, env, "2026-03-03", "BTC")

	helper := env.NewHTTPTestHelper(t)

	resp, err := helper.GET("/api/reports?market=fdax")
	require.NoError(t, err)
	helper.AssertStatusCode(resp, http.StatusOK)

	var result reportListResponse
	require.NoError(t, helper.ParseJSONResponse(resp, &result))
	assert.Equal(t, 2, result.Total)
	for _, report := range result.Reports {
		assert.Equal(t, "FDAX", report.Market)
	}

	resp, err = helper.GET("/api/reports?from=2026-03-03&to=2026-03-03")
	require.NoError(t, err)
	helper.AssertStatusCode(resp, http.StatusOK)

	result = reportListResponse{}
	require.NoError(t, helper.ParseJSONResponse(resp, &result))
	assert.Equal(t, 2, result.Total)
	for _, report := range result.Reports {
		assert.Equal(t, "2026-03-03", report.Date)
	}

	resp, err = helper.GET("/api/reports?limit=2")
	require.NoError(t, err)
	helper.AssertStatusCode(resp, http.StatusOK)

	result = reportListResponse{}
	require.NoError(t, helper.ParseJSONResponse(resp, &result))
	assert.Equal(t, 3, result.Total, "Total counts all matches, not the page")
	assert.Len(t, result.Reports, 2)
}

// TestGenerateValidation verifies the pipeline endpoint rejects bad input
// before doing any work.
func TestGenerateValidation(t *testing.T) {
	env, err := common.SetupTestEnvironment(t)
	require.NoError(t, err, "Failed to setup test environment")
	defer env.Cleanup()

	helper := env.NewHTTPTestHelper(t)

	resp, err := helper.POST("/api/reports/generate", map[string]string{
		"date": "03/02/2026", "market": "FDAX",
	})
	require.NoError(t, err)
	helper.AssertStatusCode(resp, http.StatusBadRequest)
	resp.Body.Close()

	resp, err = helper.POST("/api/reports/generate", map[string]string{
		"date": "2026-03-02",
	})
	require.NoError(t, err)
	helper.AssertStatusCode(resp, http.StatusBadRequest)
	resp.Body.Close()

	resp, err = helper.POST("/api/reports/generate", map[string]string{
		"date": "2026-03-02", "market": "UNTRACKED",
	})
	require.NoError(t, err)
	helper.AssertStatusCode(resp, http.StatusNotFound)
	resp.Body.Close()
}

// TestGenerateConflict verifies an existing report blocks regeneration. The
// conflict check runs before the scorer check, so this holds even with
// scoring unconfigured.
func TestGenerateConflict(t *testing.T) {
	env, err := common.SetupTestEnvironment(t)
	require.NoError(t, err, "Failed to setup test environment")
	defer env.Cleanup()

	seedReport(t, env, "2026-03-02", "FDAX")

	helper := env.NewHTTPTestHelper(t)

	resp, err := helper.POST("/api/reports/generate", map[string]string{
		"date": "2026-03-02", "market": "FDAX",
	})
	require.NoError(t, err)
	helper.AssertStatusCode(resp, http.StatusConflict)
	helper.AssertJSONField(resp, "status", "error")
}

// TestGenerateWithoutScorer verifies the pipeline refuses to start when no
// LLM key is configured.
func TestGenerateWithoutScorer(t *testing.T) {
	env, err := common.SetupTestEnvironment(t)
	require.NoError(t, err, "Failed to setup test environment")
	defer env.Cleanup()

	helper := env.NewHTTPTestHelper(t)

	resp, err := helper.POST("/api/reports/generate", map[string]string{
		"date": "2026-03-02", "market": "FDAX",
	})
	require.NoError(t, err)
	helper.AssertStatusCode(resp, http.StatusServiceUnavailable)
	resp.Body.Close()
}

// TestReportLifecycle walks a stored report through every read surface and
// the postmortem flow, then deletes it.
func TestReportLifecycle(t *testing.T) {
	env, err := common.SetupTestEnvironment(t)
	require.NoError(t, err, "Failed to setup test environment")
	defer env.Cleanup()

	seeded := seedReport(t, env, "2026-03-02", "FDAX")

	helper := env.NewHTTPTestHelper(t)

	// JSON view
	resp, err := helper.GET("/api/reports/" + seeded.ID)
	require.NoError(t, err)
	helper.AssertStatusCode(resp, http.StatusOK)

	var fetched models.Report
	require.NoError(t, helper.ParseJSONResponse(resp, &fetched))
	assert.Equal(t, seeded.ID, fetched.ID)
	assert.Equal(t, 3, fetched.TotalEvents)

	// Stored HTML is served unmodified
	resp, err = helper.GET("/api/reports/" + seeded.ID + "/html")
	require.NoError(t, err)
	helper.AssertStatusCode(resp, http.StatusOK)
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/html")
	body, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	require.NoError(t, err)
	assert.Equal(t, seeded.HTML, string(body))

	// Markdown rendering
	resp, err = helper.GET("/api/reports/" + seeded.ID + "/markdown")
	require.NoError(t, err)
	helper.AssertStatusCode(resp, http.StatusOK)
	body, err = io.ReadAll(resp.Body)
	resp.Body.Close()
	require.NoError(t, err)
	assert.Contains(t, string(body), "FDAX")
	assert.Contains(t, string(body), "2026-03-02")

	// PDF export
	resp, err = helper.GET("/api/reports/" + seeded.ID + "/pdf")
	require.NoError(t, err)
	helper.AssertStatusCode(resp, http.StatusOK)
	assert.Equal(t, "application/pdf", resp.Header.Get("Content-Type"))
	body, err = io.ReadAll(resp.Body)
	resp.Body.Close()
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(body), "%PDF"), "PDF body should start with the PDF magic")

	// Postmortems: empty text rejected, then add and list
	resp, err = helper.POST("/api/reports/"+seeded.ID+"/postmortems", map[string]string{"reflection": "  "})
	require.NoError(t, err)
	helper.AssertStatusCode(resp, http.StatusBadRequest)
	resp.Body.Close()

	resp, err = helper.POST("/api/reports/"+seeded.ID+"/postmortems", map[string]string{
		"reflection": "Price faded the CPI spike within the hour.",
	})
	require.NoError(t, err)
	helper.AssertStatusCode(resp, http.StatusCreated)

	var postmortem models.Postmortem
	require.NoError(t, helper.ParseJSONResponse(resp, &postmortem))
	assert.True(t, strings.HasPrefix(postmortem.ID, "pm_"))
	assert.Equal(t, seeded.ID, postmortem.ReportID)

	resp, err = helper.GET("/api/reports/" + seeded.ID + "/postmortems")
	require.NoError(t, err)
	helper.AssertStatusCode(resp, http.StatusOK)

	var listed struct {
		ReportID    string               `json:"report_id"`
		Count       int                  `json:"count"`
		Postmortems []*models.Postmortem `json:"postmortems"`
	}
	require.NoError(t, helper.ParseJSONResponse(resp, &listed))
	assert.Equal(t, 1, listed.Count)
	require.Len(t, listed.Postmortems, 1)
	assert.Equal(t, postmortem.ID, listed.Postmortems[0].ID)

	// Delete cascades to postmortems
	resp, err = helper.DELETE("/api/reports/" + seeded.ID)
	require.NoError(t, err)
	helper.AssertStatusCode(resp, http.StatusOK)
	resp.Body.Close()

	resp, err = helper.GET("/api/reports/" + seeded.ID)
	require.NoError(t, err)
	helper.AssertStatusCode(resp, http.StatusNotFound)
	resp.Body.Close()

	remaining, err := env.App.StorageManager.ReportStorage().GetPostmortems(context.Background(), seeded.ID)
	require.NoError(t, err)
	assert.Empty(t, remaining, "Deleting a report removes its postmortems")
}

// TestReportPairMarketID verifies report IDs containing a slash (pair
// markets like EUR/USD) work when percent-encoded in the URL.
func TestReportPairMarketID(t *testing.T) {
	env, err := common.SetupTestEnvironment(t)
	require.NoError(t, err, "Failed to setup test environment")
	defer env.Cleanup()

	seeded := seedReport(t, env, "2026-03-02", "EUR/USD")

	helper := env.NewHTTPTestHelper(t)

	resp, err := helper.GET("/api/reports/rpt_2026-03-02_EUR%2FUSD")
	require.NoError(t, err)
	helper.AssertStatusCode(resp, http.StatusOK)

	var fetched models.Report
	require.NoError(t, helper.ParseJSONResponse(resp, &fetched))
	assert.Equal(t, seeded.ID, fetched.ID)
	assert.Equal(t, "EUR/USD", fetched.Market)
}
