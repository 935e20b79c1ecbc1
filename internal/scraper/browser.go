package scraper

import (
	"context"
	"fmt"
	"sync"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"
	"go.uber.org/zap"

	"github.com/krug-analyzer/backend/internal/storage/models"
	"github.com/krug-analyzer/backend/pkg/logger"
)

// BrowserFetcher renders pages in headless Chrome so client-side content is
// present in the HTML. The browser is launched lazily and reused.
type BrowserFetcher struct {
	extractor *htmlExtractor
	remoteURL string

	mu      sync.Mutex
	browser *rod.Browser
	lnch    *launcher.Launcher
}

func NewBrowserFetcher(remoteURL string, onlyMainContent bool) *BrowserFetcher {
	return &BrowserFetcher{
		extractor: newHTMLExtractor(onlyMainContent),
		remoteURL: remoteURL,
	}
}

func (f *BrowserFetcher) Name() string {
	return "browser"
}

func (f *BrowserFetcher) Scrape(ctx context.Context, req Request) ([]models.PageContent, error) {
	if err := checkHost(ctx, req.URL); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrScrapeFailed, err)
	}

	b, err := f.ensureBrowser()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrScrapeFailed, err)
	}

	var page *rod.Page
	if req.Stealth {
		page, err = stealth.Page(b)
	} else {
		page, err = b.Page(proto.TargetCreateTarget{})
	}
	if err != nil {
		return nil, fmt.Errorf("%w: create tab: %v", ErrScrapeFailed, err)
	}
	defer page.Close()

	router := guardRequests(ctx, page)
	defer func() { _ = router.Stop() }()

	if err := page.Context(ctx).Navigate(req.URL); err != nil {
		return nil, fmt.Errorf("%w: navigate: %v", ErrScrapeFailed, err)
	}
	if err := page.Context(ctx).WaitLoad(); err != nil {
		logger.Warn("Browser wait load failed", zap.String("url", req.URL), zap.Error(err))
	}

	html, err := page.Context(ctx).HTML()
	if err != nil {
		return nil, fmt.Errorf("%w: read DOM: %v", ErrScrapeFailed, err)
	}

	pageURL := req.URL
	if info, err := page.Info(); err == nil && info.URL != "" {
		pageURL = info.URL
	}

	result, err := f.extractor.Page(pageURL, html, 0)
	if err != nil {
		return nil, err
	}
	return []models.PageContent{result}, nil
}

// guardRequests fails every request the page makes to a blocked host, so
// redirects and subresources cannot reach internal addresses either.
func guardRequests(ctx context.Context, page *rod.Page) *rod.HijackRouter {
	router := page.HijackRequests()

	router.MustAdd("*", func(h *rod.Hijack) {
		target := h.Request.URL().String()
		if err := checkHost(ctx, target); err != nil {
			logger.Warn("Browser request blocked", zap.String("url", target), zap.Error(err))
			h.Response.Fail(proto.NetworkErrorReasonAddressUnreachable)
			return
		}
		h.ContinueRequest(&proto.FetchContinueRequest{})
	})

	go router.Run()
	return router
}

func (f *BrowserFetcher) ensureBrowser() (*rod.Browser, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.browser != nil {
		return f.browser, nil
	}

	wsURL := f.remoteURL
	if wsURL == "" {
		l := launcher.New().
			Headless(true).
			Set("disable-blink-features", "AutomationControlled")
		u, err := l.Launch()
		if err != nil {
			return nil, fmt.Errorf("launch: %w", err)
		}
		wsURL = u
		f.lnch = l
	}

	b := rod.New().ControlURL(wsURL)
	if err := b.Connect(); err != nil {
		return nil, fmt.Errorf("connect: %w", err)
	}

	logger.Info("Headless browser connected", zap.Bool("remote", f.remoteURL != ""))

	f.browser = b
	return b, nil
}

func (f *BrowserFetcher) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.browser != nil {
		f.browser.Close()
		f.browser = nil
	}
	if f.lnch != nil {
		f.lnch.Cleanup()
		f.lnch = nil
	}
	return nil
}
