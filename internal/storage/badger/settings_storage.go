package badger

import (
	"context"
	"fmt"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/auspex/internal/interfaces"
	"github.com/ternarybob/auspex/internal/models"
	"github.com/timshannon/badgerhold/v4"
)

// SettingsStorage implements the SettingsStorage interface for Badger.
// A single record under a fixed key holds the user's settings.
type SettingsStorage struct {
	db     *BadgerDB
	logger arbor.ILogger
}

// NewSettingsStorage creates a new SettingsStorage instance
func NewSettingsStorage(db *BadgerDB, logger arbor.ILogger) interfaces.SettingsStorage {
	return &SettingsStorage{
		db:     db,
		logger: logger,
	}
}

// GetSettings returns the stored settings, or defaults when nothing has been
// saved yet. Missing settings are not an error; the first boot runs on defaults
// until the user saves the settings page.
func (s *SettingsStorage) GetSettings(ctx context.Context) (*models.Settings, error) {
	var settings models.Settings
	err := s.db.Store().Get(models.SettingsKey, &settings)
	if err == badgerhold.ErrNotFound {
		return models.DefaultSettings(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get settings: %w", err)
	}
	return &settings, nil
}

// SaveSettings writes the settings record under the fixed key
func (s *SettingsStorage) SaveSettings(ctx context.Context, settings *models.Settings) error {
	settings.Key = models.SettingsKey
	settings.UpdatedAt = time.Now()

	if err := s.db.Store().Upsert(models.SettingsKey, settings); err != nil {
		return fmt.Errorf("failed to save settings: %w", err)
	}
	return nil
}
