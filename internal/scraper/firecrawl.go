package scraper

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/krug-analyzer/backend/internal/storage/models"
	"github.com/krug-analyzer/backend/pkg/logger"
)

const defaultFirecrawlURL = "https://api.firecrawl.dev"

var ErrScrapeFailed = errors.New("scrape failed")

type FirecrawlClient struct {
	baseURL         string
	httpClient      *http.Client
	onlyMainContent bool
	maxAge          time.Duration
}

type firecrawlRequest struct {
	URL             string   `json:"url"`
	Formats         []string `json:"formats"`
	OnlyMainContent bool     `json:"onlyMainContent"`
	MaxAge          int64    `json:"maxAge"`
	Proxy           string   `json:"proxy,omitempty"`
}

type firecrawlResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Data    struct {
		Markdown string `json:"markdown"`
		HTML     string `json:"html"`
		Metadata struct {
			Title       string `json:"title"`
			Description string `json:"description"`
			SourceURL   string `json:"sourceURL"`
			StatusCode  int    `json:"statusCode"`
		} `json:"metadata"`
	} `json:"data"`
}

func NewFirecrawlClient(baseURL string, httpClient *http.Client, onlyMainContent bool, maxAge time.Duration) *FirecrawlClient {
	if baseURL == "" {
		baseURL = defaultFirecrawlURL
	}
	return &FirecrawlClient{
		baseURL:         strings.TrimRight(baseURL, "/"),
		httpClient:      httpClient,
		onlyMainContent: onlyMainContent,
		maxAge:          maxAge,
	}
}

func (c *FirecrawlClient) Name() string {
	return "firecrawl"
}

func (c *FirecrawlClient) Scrape(ctx context.Context, req Request) ([]models.PageContent, error) {
	if req.APIKey == "" {
		return nil, fmt.Errorf("%w: missing scrape API key", ErrScrapeFailed)
	}

	body := firecrawlRequest{
		URL:             req.URL,
		Formats:         []string{"markdown", "html"},
		OnlyMainContent: c.onlyMainContent,
		MaxAge:          c.maxAge.Milliseconds(),
	}
	if req.Stealth {
		body.Proxy = "stealth"
	}

	data, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/scrape", bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+req.APIKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrScrapeFailed, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	var parsed firecrawlResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, fmt.Errorf("%w: status %d, unreadable body", ErrScrapeFailed, resp.StatusCode)
	}

	if resp.StatusCode != http.StatusOK || !parsed.Success {
		msg := parsed.Error
		if msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}
		return nil, fmt.Errorf("%w: status %d: %s", ErrScrapeFailed, resp.StatusCode, msg)
	}

	pageURL := parsed.Data.Metadata.SourceURL
	if pageURL == "" {
		pageURL = req.URL
	}

	logger.Debug("Firecrawl scrape completed",
		zap.String("url", pageURL),
		zap.Int("markdown_bytes", len(parsed.Data.Markdown)),
		zap.Int("html_bytes", len(parsed.Data.HTML)),
	)

	return []models.PageContent{{
		URL:         pageURL,
		Title:       parsed.Data.Metadata.Title,
		Description: parsed.Data.Metadata.Description,
		Markdown:    parsed.Data.Markdown,
		HTML:        parsed.Data.HTML,
		StatusCode:  parsed.Data.Metadata.StatusCode,
	}}, nil
}
