package app

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/krug-analyzer/backend/internal/storage/models"
	"github.com/krug-analyzer/backend/pkg/config"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	t.Chdir(t.TempDir())
	cfg, err := config.Load()
	require.NoError(t, err)
	return cfg
}

func TestDefaultSettings(t *testing.T) {
	cfg := testConfig(t)
	cfg.Defaults.AIProvider = "openai"
	cfg.Defaults.AnalysisDepth = "bogus"
	cfg.Defaults.AIAPIKey = "sk-1"

	s := DefaultSettings(cfg)
	assert.Equal(t, models.ProviderOpenAI, s.AIProvider)
	assert.Equal(t, models.DepthStandard, s.AnalysisDepth)
	assert.Equal(t, "sk-1", s.AIAPIKey)
	assert.NoError(t, s.Validate())
}

func TestNewEphemeral(t *testing.T) {
	cfg := testConfig(t)

	a, err := New(context.Background(), cfg, Options{Ephemeral: true})
	require.NoError(t, err)
	defer a.Close()

	assert.Nil(t, a.SQLite)
	assert.Nil(t, a.Redis)
	assert.NoError(t, a.Ready(context.Background()))

	entries, err := a.History.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestNewSQLite(t *testing.T) {
	cfg := testConfig(t)
	cfg.SQLite.Path = filepath.Join(t.TempDir(), "nested", "krug.db")

	a, err := New(context.Background(), cfg, Options{})
	require.NoError(t, err)
	defer a.Close()

	require.NotNil(t, a.SQLite)
	assert.NoError(t, a.Ready(context.Background()))

	saved := models.DefaultSettings()
	saved.AnalysisDepth = models.DepthDeep
	require.NoError(t, a.Settings.Save(context.Background(), saved))

	got, err := a.Settings.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, models.DepthDeep, got.AnalysisDepth)
}
