package scraper

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/krug-analyzer/backend/internal/metrics"
	"github.com/krug-analyzer/backend/internal/storage/models"
	"github.com/krug-analyzer/backend/pkg/logger"
	"github.com/krug-analyzer/backend/pkg/utils"
)

const (
	BackendAuto    = "auto"
	BackendDirect  = "direct"
	BackendBrowser = "browser"
)

// Request is one scrape of a single URL.
type Request struct {
	URL     string
	APIKey  string
	Stealth bool
}

type Fetcher interface {
	Name() string
	Scrape(ctx context.Context, req Request) ([]models.PageContent, error)
}

// PageCache stores scrape results. The redis client satisfies it.
type PageCache interface {
	GetPages(ctx context.Context, key string) ([]models.PageContent, bool, error)
	SetPages(ctx context.Context, key string, pages []models.PageContent, ttl time.Duration) error
}

type Config struct {
	Backend         string
	FirecrawlURL    string
	BrowserURL      string
	OnlyMainContent bool
	CacheMaxAge     time.Duration
	Timeout         time.Duration
	UserAgent       string
}

type Service struct {
	cfg       Config
	firecrawl Fetcher
	direct    Fetcher
	browser   Fetcher
	cache     PageCache
}

// NewService wires the three backends. cache may be nil.
func NewService(cfg Config, cache PageCache) *Service {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}
	if cfg.Backend == "" {
		cfg.Backend = BackendAuto
	}
	apiClient := &http.Client{Timeout: cfg.Timeout}

	return &Service{
		cfg:       cfg,
		firecrawl: NewFirecrawlClient(cfg.FirecrawlURL, apiClient, cfg.OnlyMainContent, cfg.CacheMaxAge),
		direct:    NewDirectFetcher(newGuardedClient(cfg.Timeout), cfg.UserAgent, cfg.OnlyMainContent),
		browser:   NewBrowserFetcher(cfg.BrowserURL, cfg.OnlyMainContent),
		cache:     cache,
	}
}

// Fetch scrapes targetURL. It never fails: any backend error yields the
// single synthesized fallback page and usedFallback=true.
func (s *Service) Fetch(ctx context.Context, targetURL string, settings models.Settings) ([]models.PageContent, bool) {
	fetcher := s.selectFetcher(settings)
	key := utils.CacheKey(targetURL, fetcher.Name(), strconv.FormatBool(settings.StealthMode), strconv.FormatBool(s.cfg.OnlyMainContent))

	if s.cache != nil {
		pages, ok, err := s.cache.GetPages(ctx, key)
		if err != nil {
			logger.Warn("Page cache read failed", zap.Error(err))
		} else if ok && len(pages) > 0 {
			logger.Debug("Using cached pages", zap.String("url", targetURL))
			return pages, false
		}
	}

	pages, err := fetcher.Scrape(ctx, Request{
		URL:     targetURL,
		APIKey:  settings.ScrapeAPIKey,
		Stealth: settings.StealthMode,
	})
	if err == nil && len(pages) == 0 {
		err = ErrScrapeFailed
	}
	if err != nil {
		metrics.ScrapeTotal.WithLabelValues(fetcher.Name(), "error").Inc()
		metrics.FallbacksUsed.WithLabelValues("page").Inc()
		logger.Warn("Scrape failed, using fallback page",
			zap.String("url", targetURL),
			zap.String("backend", fetcher.Name()),
			zap.Error(err),
		)
		return []models.PageContent{FallbackPage(targetURL)}, true
	}

	metrics.ScrapeTotal.WithLabelValues(fetcher.Name(), "success").Inc()

	if s.cache != nil && s.cfg.CacheMaxAge > 0 {
		if err := s.cache.SetPages(ctx, key, pages, s.cfg.CacheMaxAge); err != nil {
			logger.Warn("Page cache write failed", zap.Error(err))
		}
	}

	return pages, false
}

func (s *Service) selectFetcher(settings models.Settings) Fetcher {
	switch {
	case settings.ScrapeAPIKey != "":
		return s.firecrawl
	case s.cfg.Backend == BackendBrowser:
		return s.browser
	default:
		return s.direct
	}
}

func (s *Service) Close() error {
	if c, ok := s.browser.(interface{ Close() error }); ok {
		return c.Close()
	}
	return nil
}
