package scraper

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/krug-analyzer/backend/internal/storage/models"
)

const defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0 Safari/537.36"

// DirectFetcher downloads the page itself and converts it locally. Used when
// no scraping API key is configured.
type DirectFetcher struct {
	httpClient *http.Client
	userAgent  string
	extractor  *htmlExtractor
}

func NewDirectFetcher(httpClient *http.Client, userAgent string, onlyMainContent bool) *DirectFetcher {
	if userAgent == "" {
		userAgent = defaultUserAgent
	}
	return &DirectFetcher{
		httpClient: httpClient,
		userAgent:  userAgent,
		extractor:  newHTMLExtractor(onlyMainContent),
	}
}

func (f *DirectFetcher) Name() string {
	return "direct"
}

func (f *DirectFetcher) Scrape(ctx context.Context, req Request) ([]models.PageContent, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, req.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("User-Agent", f.userAgent)
	httpReq.Header.Set("Accept", "text/html,application/xhtml+xml")

	resp, err := f.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrScrapeFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: status %d", ErrScrapeFailed, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxHTMLBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	page, err := f.extractor.Page(resp.Request.URL.String(), string(body), resp.StatusCode)
	if err != nil {
		return nil, err
	}
	return []models.PageContent{page}, nil
}
