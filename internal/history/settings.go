package history

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/krug-analyzer/backend/internal/storage/models"
	"github.com/krug-analyzer/backend/pkg/logger"
)

const settingsKey = "krug_settings"

// SettingsStore holds the single saved Settings document.
type SettingsStore struct {
	blobs BlobStore
}

func NewSettingsStore(blobs BlobStore) *SettingsStore {
	return &SettingsStore{blobs: blobs}
}

// Load returns nil when nothing has been saved yet.
func (s *SettingsStore) Load(ctx context.Context) (*models.Settings, error) {
	data, err := s.blobs.Load(ctx, settingsKey)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load settings: %w", err)
	}

	var settings models.Settings
	if err := json.Unmarshal(data, &settings); err != nil {
		return nil, fmt.Errorf("failed to decode settings: %w", err)
	}
	return &settings, nil
}

func (s *SettingsStore) Save(ctx context.Context, settings models.Settings) error {
	if err := settings.Validate(); err != nil {
		return err
	}

	data, err := json.Marshal(settings)
	if err != nil {
		return fmt.Errorf("failed to marshal settings: %w", err)
	}
	if err := s.blobs.Save(ctx, settingsKey, data); err != nil {
		return fmt.Errorf("failed to save settings: %w", err)
	}
	return nil
}

// Effective overlays saved settings on defaults. Empty API keys in the saved
// document fall back to the defaults' keys.
func (s *SettingsStore) Effective(ctx context.Context, defaults models.Settings) (models.Settings, error) {
	saved, err := s.Load(ctx)
	if err != nil || saved == nil {
		return defaults, err
	}
	merged := *saved
	if merged.AIAPIKey == "" {
		merged.AIAPIKey = defaults.AIAPIKey
	}
	if merged.ScrapeAPIKey == "" {
		merged.ScrapeAPIKey = defaults.ScrapeAPIKey
	}
	return merged, nil
}

// Resolve returns the settings for one analysis: the effective settings with
// the request's override fields laid on top.
func (s *SettingsStore) Resolve(ctx context.Context, defaults models.Settings, override *models.SettingsOverride) models.Settings {
	effective, err := s.Effective(ctx, defaults)
	if err != nil {
		logger.Warn("Failed to load saved settings, using defaults", zap.Error(err))
	}
	if override == nil {
		return effective
	}
	return override.Apply(effective)
}
