package api

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/auspex/test/common"
)

// TestStatusEndpoint verifies the service boots with a connected store, the
// default markets seeded and scoring disabled when no key is configured.
func TestStatusEndpoint(t *testing.T) {
	env, err := common.SetupTestEnvironment(t)
	require.NoError(t, err, "Failed to setup test environment")
	defer env.Cleanup()

	helper := env.NewHTTPTestHelper(t)

	resp, err := helper.GET("/api/status")
	require.NoError(t, err, "Failed to call status endpoint")
	helper.AssertStatusCode(resp, http.StatusOK)

	var result map[string]interface{}
	require.NoError(t, helper.ParseJSONResponse(resp, &result))

	assert.Equal(t, "auspex", result["service"])
	assert.Equal(t, "connected", result["database"])
	assert.Equal(t, false, result["scoring_ready"], "No key configured, scoring must be off")
	assert.Equal(t, false, result["scheduler_running"], "Scheduler is disabled in tests")
	assert.NotEmpty(t, result["version"])
	assert.NotEmpty(t, result["go_version"])

	counts, ok := result["counts"].(map[string]interface{})
	require.True(t, ok, "counts should be an object")
	assert.Equal(t, float64(0), counts["events"])
	assert.Equal(t, float64(0), counts["reports"])
	assert.Equal(t, float64(4), counts["markets"], "First boot seeds the default markets")
}

// TestVersionEndpoint verifies the version endpoint shape
func TestVersionEndpoint(t *testing.T) {
	env, err := common.SetupTestEnvironment(t)
	require.NoError(t, err, "Failed to setup test environment")
	defer env.Cleanup()

	helper := env.NewHTTPTestHelper(t)

	resp, err := helper.GET("/api/version")
	require.NoError(t, err, "Failed to call version endpoint")
	helper.AssertStatusCode(resp, http.StatusOK)

	var result map[string]string
	require.NoError(t, helper.ParseJSONResponse(resp, &result))

	assert.NotEmpty(t, result["version"])
	assert.NotEmpty(t, result["go_version"])
	assert.Contains(t, result, "build")
	assert.Contains(t, result, "commit")
}

// TestUnknownAPIRoute verifies unmatched API paths return a JSON 404 instead
// of falling through to the HTML pages.
func TestUnknownAPIRoute(t *testing.T) {
	env, err := common.SetupTestEnvironment(t)
	require.NoError(t, err, "Failed to setup test environment")
	defer env.Cleanup()

	helper := env.NewHTTPTestHelper(t)

	resp, err := helper.GET("/api/does-not-exist")
	require.NoError(t, err)
	helper.AssertStatusCode(resp, http.StatusNotFound)

	var result map[string]interface{}
	require.NoError(t, helper.ParseJSONResponse(resp, &result))
	assert.Equal(t, "Not Found", result["error"])
	assert.Equal(t, "/api/does-not-exist", result["path"])
}

// TestIndexPageServes verifies the calendar page renders from the embedded
// templates and unmatched non-API paths are 404s.
func TestIndexPageServes(t *testing.T) {
	env, err := common.SetupTestEnvironment(t)
	require.NoError(t, err, "Failed to setup test environment")
	defer env.Cleanup()

	helper := env.NewHTTPTestHelper(t)

	resp, err := helper.GET("/")
	require.NoError(t, err)
	helper.AssertStatusCode(resp, http.StatusOK)
	resp.Body.Close()

	resp, err = helper.GET("/no-such-page")
	require.NoError(t, err)
	helper.AssertStatusCode(resp, http.StatusNotFound)
	resp.Body.Close()
}
