// -----------------------------------------------------------------------
// Shared in-process test framework for the API tests
// Last Modified: Wednesday, 12th August 2026 9:21:40 am
// Modified By: Bob McAllan
// -----------------------------------------------------------------------

package common

import (
	"fmt"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/ternarybob/auspex/internal/app"
	"github.com/ternarybob/auspex/internal/common"
	"github.com/ternarybob/auspex/internal/server"
)

// TestEnvironment wraps a fully wired application served through httptest.
// Every environment gets its own Badger directory, so tests share nothing
// and can run in any order.
type TestEnvironment struct {
	App     *app.App
	Server  *httptest.Server
	DataDir string
}

// SetupTestEnvironment boots the application in-process with an isolated
// store, the scheduler off and no LLM key configured. Provider key variables
// are cleared first so a key exported in the developer's shell cannot leak
// into a test run.
func SetupTestEnvironment(t *testing.T) (*TestEnvironment, error) {
	t.Helper()

	for _, key := range []string{
		"AUSPEX_CLAUDE_API_KEY",
		"ANTHROPIC_API_KEY",
		"AUSPEX_GEMINI_API_KEY",
		"GEMINI_API_KEY",
	} {
		t.Setenv(key, "")
	}

	dataDir := t.TempDir()

	cfg := common.NewDefaultConfig()
	cfg.Storage.Badger.Path = filepath.Join(dataDir, "auspex.db")
	cfg.Logging.Level = "warn"
	cfg.Logging.Output = []string{"stdout"}
	cfg.Scheduler.Enabled = false
	cfg.Calendar.SaveSnapshots = false

	logger := common.InitLogger(cfg)

	application, err := app.New(cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize application: %w", err)
	}

	httpServer := httptest.NewServer(server.New(application).Handler())

	return &TestEnvironment{
		App:     application,
		Server:  httpServer,
		DataDir: dataDir,
	}, nil
}

// Cleanup shuts down the HTTP server and the application. Safe to defer
// immediately after setup.
func (env *TestEnvironment) Cleanup() {
	if env.Server != nil {
		env.Server.Close()
	}
	if env.App != nil {
		_ = env.App.Close()
	}
}

// GetBaseURL returns the base URL of the running test server
func (env *TestEnvironment) GetBaseURL() string {
	return env.Server.URL
}
