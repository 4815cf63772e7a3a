package api

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/auspex/test/common"
)

type settingsResponse struct {
	LLMAPIKey  string `json:"llm_api_key"`
	HasAPIKey  bool   `json:"has_api_key"`
	Timezone   string `json:"timezone"`
	StarFilter int    `json:"star_filter"`
}

func getSettings(t *testing.T, helper *common.HTTPTestHelper) settingsResponse {
	t.Helper()

	resp, err := helper.GET("/api/settings")
	require.NoError(t, err, "Failed to get settings")
	helper.AssertStatusCode(resp, http.StatusOK)

	var result settingsResponse
	require.NoError(t, helper.ParseJSONResponse(resp, &result))
	return result
}

// TestSettingsDefaults verifies the first-boot settings record
func TestSettingsDefaults(t *testing.T) {
	env, err := common.SetupTestEnvironment(t)
	require.NoError(t, err, "Failed to setup test environment")
	defer env.Cleanup()

	helper := env.NewHTTPTestHelper(t)
	settings := getSettings(t, helper)

	assert.Empty(t, settings.LLMAPIKey)
	assert.False(t, settings.HasAPIKey)
	assert.Equal(t, "Europe/Berlin", settings.Timezone)
	assert.Equal(t, 1, settings.StarFilter)
}

// TestSettingsSaveRoundTrip verifies timezone and star filter changes persist
// and fields omitted from the request keep their stored values.
func TestSettingsSaveRoundTrip(t *testing.T) {
	env, err := common.SetupTestEnvironment(t)
	require.NoError(t, err, "Failed to setup test environment")
	defer env.Cleanup()

	helper := env.NewHTTPTestHelper(t)

	resp, err := helper.PUT("/api/settings", map[string]interface{}{
		"timezone":    "America/New_York",
		"star_filter": 2,
	})
	require.NoError(t, err, "Failed to save settings")
	helper.AssertStatusCode(resp, http.StatusOK)

	var saved settingsResponse
	require.NoError(t, helper.ParseJSONResponse(resp, &saved))
	assert.Equal(t, "America/New_York", saved.Timezone)
	assert.Equal(t, 2, saved.StarFilter)

	// A save touching only the star filter keeps the timezone
	resp, err = helper.PUT("/api/settings", map[string]interface{}{
		"star_filter": 3,
	})
	require.NoError(t, err)
	helper.AssertStatusCode(resp, http.StatusOK)
	resp.Body.Close()

	settings := getSettings(t, helper)
	assert.Equal(t, "America/New_York", settings.Timezone)
	assert.Equal(t, 3, settings.StarFilter)
}

// TestSettingsKeyMasking verifies the stored key never leaves the server
// unmasked, and an empty key in a later save keeps the stored one.
func TestSettingsKeyMasking(t *testing.T) {
	env, err := common.SetupTestEnvironment(t)
	require.NoError(t, err, "Failed to setup test environment")
	defer env.Cleanup()

	// Saving a key rebuilds the scoring client inline, which probes the
	// provider; give that room before the client gives up.
	helper := env.NewHTTPTestHelperWithTimeout(t, 90*time.Second)

	resp, err := helper.PUT("/api/settings", map[string]interface{}{
		"llm_api_key": "sk-ant-api03-testkey-0042",
	})
	require.NoError(t, err, "Failed to save API key")
	helper.AssertStatusCode(resp, http.StatusOK)

	var saved settingsResponse
	require.NoError(t, helper.ParseJSONResponse(resp, &saved))
	assert.True(t, saved.HasAPIKey)
	assert.Equal(t, "sk-a...0042", saved.LLMAPIKey, "Key must be masked to first and last four characters")

	// The settings form round-trips with an empty key field; the stored key
	// must survive that.
	resp, err = helper.PUT("/api/settings", map[string]interface{}{
		"llm_api_key": "",
		"star_filter": 2,
	})
	require.NoError(t, err)
	helper.AssertStatusCode(resp, http.StatusOK)
	resp.Body.Close()

	settings := getSettings(t, helper)
	assert.True(t, settings.HasAPIKey, "Empty key in request must keep the stored key")
	assert.Equal(t, "sk-a...0042", settings.LLMAPIKey)
	assert.Equal(t, 2, settings.StarFilter)
}

// TestSettingsValidation verifies rejected saves leave the record unchanged
func TestSettingsValidation(t *testing.T) {
	env, err := common.SetupTestEnvironment(t)
	require.NoError(t, err, "Failed to setup test environment")
	defer env.Cleanup()

	helper := env.NewHTTPTestHelper(t)

	resp, err := helper.PUT("/api/settings", map[string]interface{}{
		"timezone": "Mars/Olympus_Mons",
	})
	require.NoError(t, err)
	helper.AssertStatusCode(resp, http.StatusBadRequest)
	resp.Body.Close()

	resp, err = helper.PUT("/api/settings", map[string]interface{}{
		"star_filter": 99,
	})
	require.NoError(t, err)
	helper.AssertStatusCode(resp, http.StatusBadRequest)
	resp.Body.Close()

	settings := getSettings(t, helper)
	assert.Equal(t, "Europe/Berlin", settings.Timezone)
	assert.Equal(t, 1, settings.StarFilter)
}

// TestTimezonesList verifies the curated timezone list for the settings page
func TestTimezonesList(t *testing.T) {
	env, err := common.SetupTestEnvironment(t)
	require.NoError(t, err, "Failed to setup test environment")
	defer env.Cleanup()

	helper := env.NewHTTPTestHelper(t)

	resp, err := helper.GET("/api/timezones")
	require.NoError(t, err, "Failed to list timezones")
	helper.AssertStatusCode(resp, http.StatusOK)

	var result struct {
		Timezones []struct {
			ID    string `json:"id"`
			Label string `json:"label"`
		} `json:"timezones"`
	}
	require.NoError(t, helper.ParseJSONResponse(resp, &result))
	require.NotEmpty(t, result.Timezones)

	ids := make([]string, len(result.Timezones))
	for i, zone := range result.Timezones {
		ids[i] = zone.ID
		assert.NotEmpty(t, zone.Label)
	}
	assert.Contains(t, ids, "Europe/Berlin")
	assert.Contains(t, ids, "America/New_York")
}
