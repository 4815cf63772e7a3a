package badger

import (
	"context"
	"testing"

	"github.com/ternarybob/auspex/internal/models"
)

func TestGetSettingsDefaults(t *testing.T) {
	manager := newTestManager(t)

	settings, err := manager.SettingsStorage().GetSettings(context.Background())
	if err != nil {
		t.Fatalf("GetSettings failed: %v", err)
	}
	if settings.StarFilter != models.StarFilterMin {
		t.Errorf("expected the loosest default filter, got %d", settings.StarFilter)
	}
	if settings.Timezone == "" {
		t.Error("expected a default timezone")
	}
	if settings.LLMAPIKey != "" {
		t.Error("defaults must not carry an API key")
	}
}

func TestSettingsRoundtrip(t *testing.T) {
	manager := newTestManager(t)
	ctx := context.Background()

	settings := models.DefaultSettings()
	settings.LLMAPIKey = "sk-test-key"
	settings.Timezone = "America/New_York"
	settings.StarFilter = 2

	if err := manager.SettingsStorage().SaveSettings(ctx, settings); err != nil {
		t.Fatalf("SaveSettings failed: %v", err)
	}

	stored, err := manager.SettingsStorage().GetSettings(ctx)
	if err != nil {
		t.Fatalf("GetSettings failed: %v", err)
	}
	if stored.LLMAPIKey != "sk-test-key" || stored.Timezone != "America/New_York" || stored.StarFilter != 2 {
		t.Errorf("settings not preserved: %+v", stored)
	}
	if stored.UpdatedAt.IsZero() {
		t.Error("expected SaveSettings to stamp UpdatedAt")
	}

	// The record is a singleton; a second save replaces it.
	settings.StarFilter = 3
	if err := manager.SettingsStorage().SaveSettings(ctx, settings); err != nil {
		t.Fatalf("second SaveSettings failed: %v", err)
	}
	stored, err = manager.SettingsStorage().GetSettings(ctx)
	if err != nil {
		t.Fatalf("GetSettings after resave failed: %v", err)
	}
	if stored.StarFilter != 3 {
		t.Errorf("expected the resaved filter, got %d", stored.StarFilter)
	}
}
