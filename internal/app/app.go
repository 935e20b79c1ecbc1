// Package app wires configuration into the running components shared by the
// API server and the command line client.
package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/krug-analyzer/backend/internal/analysis"
	"github.com/krug-analyzer/backend/internal/analyzer"
	"github.com/krug-analyzer/backend/internal/cache/redis"
	"github.com/krug-analyzer/backend/internal/history"
	"github.com/krug-analyzer/backend/internal/llm"
	"github.com/krug-analyzer/backend/internal/scraper"
	"github.com/krug-analyzer/backend/internal/storage/models"
	"github.com/krug-analyzer/backend/internal/storage/sqlite"
	"github.com/krug-analyzer/backend/pkg/config"
	"github.com/krug-analyzer/backend/pkg/logger"
)

type Options struct {
	// Ephemeral keeps history and settings in memory only.
	Ephemeral bool
}

type App struct {
	Config   *config.Config
	Defaults models.Settings
	Analyzer *analyzer.Analyzer
	History  *history.Store
	Settings *history.SettingsStore
	Redis    *redis.Client
	SQLite   *sqlite.Client
	Scraper  *scraper.Service

	closers []func() error
}

func New(ctx context.Context, cfg *config.Config, opts Options) (*App, error) {
	a := &App{
		Config:   cfg,
		Defaults: DefaultSettings(cfg),
	}

	var blobs history.BlobStore
	if opts.Ephemeral {
		blobs = history.NewMemoryBlobStore()
	} else {
		if dir := filepath.Dir(cfg.SQLite.Path); dir != "" {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("failed to create data directory: %w", err)
			}
		}
		db, err := sqlite.NewClient(cfg.SQLite.Path)
		if err != nil {
			return nil, fmt.Errorf("failed to create SQLite client: %w", err)
		}
		if err := db.InitSchema(); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to initialize schema: %w", err)
		}
		a.SQLite = db
		a.closers = append(a.closers, db.Close)
		blobs = db
	}

	var cache scraper.PageCache
	if cfg.Redis.Enabled {
		rc, err := redis.NewClient(ctx, cfg.Redis.Host, cfg.Redis.Port, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			logger.Warn("Redis unavailable, scrape cache disabled", zap.Error(err))
		} else {
			a.Redis = rc
			a.closers = append(a.closers, rc.Close)
			cache = rc
		}
	}

	a.Scraper = scraper.NewService(scraper.Config{
		Backend:         cfg.Scraper.Backend,
		FirecrawlURL:    cfg.Scraper.FirecrawlURL,
		BrowserURL:      cfg.Scraper.BrowserURL,
		OnlyMainContent: cfg.Scraper.OnlyMainContent,
		CacheMaxAge:     time.Duration(cfg.Scraper.CacheMaxAgeSec) * time.Second,
		Timeout:         time.Duration(cfg.Scraper.TimeoutSec) * time.Second,
		UserAgent:       cfg.Scraper.UserAgent,
	}, cache)
	a.closers = append(a.closers, a.Scraper.Close)

	adapter := llm.NewAdapter(llm.Config{
		ClaudeBaseURL:    cfg.LLM.ClaudeBaseURL,
		ClaudeModels:     cfg.LLM.ClaudeModels,
		ClaudeAPIVersion: cfg.LLM.ClaudeAPIVersion,
		OpenAIBaseURL:    cfg.LLM.OpenAIBaseURL,
		OpenAIModel:      cfg.LLM.OpenAIModel,
		MaxTokens:        cfg.LLM.MaxTokens,
		Temperature:      cfg.LLM.Temperature,
		Timeout:          time.Duration(cfg.LLM.TimeoutSec) * time.Second,
	})

	a.History = history.NewStore(blobs, history.Config{
		MaxEntries:  cfg.History.MaxEntries,
		DedupWindow: time.Duration(cfg.History.DedupWindowSec) * time.Second,
		Freshness:   time.Duration(cfg.History.FreshnessSec) * time.Second,
	})
	a.Settings = history.NewSettingsStore(blobs)
	a.Analyzer = analyzer.NewAnalyzer(a.Scraper, adapter, a.History, analysis.NewNormalizer(analysis.DefaultConfig()))

	return a, nil
}

// Ready pings the persistent backends.
func (a *App) Ready(ctx context.Context) error {
	if a.SQLite != nil {
		if err := a.SQLite.Ping(ctx); err != nil {
			return fmt.Errorf("sqlite: %w", err)
		}
	}
	if a.Redis != nil {
		if err := a.Redis.Ping(ctx); err != nil {
			return fmt.Errorf("redis: %w", err)
		}
	}
	return nil
}

func (a *App) Close() error {
	var first error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// DefaultSettings maps the configured defaults onto Settings. Unknown values
// fall back to the built-in defaults.
func DefaultSettings(cfg *config.Config) models.Settings {
	s := models.DefaultSettings()
	d := cfg.Defaults

	if p := models.AIProvider(d.AIProvider); p == models.ProviderClaude || p == models.ProviderOpenAI {
		s.AIProvider = p
	}
	switch depth := models.AnalysisDepth(d.AnalysisDepth); depth {
	case models.DepthQuick, models.DepthStandard, models.DepthDeep:
		s.AnalysisDepth = depth
	}
	s.IncludeMobile = d.IncludeMobile
	s.StealthMode = d.StealthMode
	s.ScrapeAPIKey = d.ScrapeAPIKey
	s.AIAPIKey = d.AIAPIKey
	return s
}
