package analyzer

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/krug-analyzer/backend/internal/analysis"
	"github.com/krug-analyzer/backend/internal/catalog"
	"github.com/krug-analyzer/backend/internal/history"
	"github.com/krug-analyzer/backend/internal/llm"
	"github.com/krug-analyzer/backend/internal/scraper"
	"github.com/krug-analyzer/backend/internal/storage/models"
)

type fakeFetcher struct {
	pages    []models.PageContent
	fallback bool
	gotURL   string
}

func (f *fakeFetcher) Fetch(_ context.Context, targetURL string, _ models.Settings) ([]models.PageContent, bool) {
	f.gotURL = targetURL
	if f.fallback {
		return []models.PageContent{scraper.FallbackPage(targetURL)}, true
	}
	return f.pages, false
}

type fakeLLM struct {
	raw    map[string]any
	err    error
	prompt string
	calls  int
}

func (f *fakeLLM) Analyze(_ context.Context, p string, _ models.Settings) (map[string]any, error) {
	f.calls++
	f.prompt = p
	return f.raw, f.err
}

type failingRecorder struct{}

func (failingRecorder) SaveIfFresh(context.Context, *models.AnalysisReport, time.Time) (*models.HistoryEntry, bool, error) {
	return nil, false, errors.New("disk full")
}

func validSettings() models.Settings {
	s := models.DefaultSettings()
	s.AIAPIKey = "sk-test"
	return s
}

func rawResponse() map[string]any {
	return map[string]any{
		"categories": []any{
			map[string]any{
				"id":    "navigation",
				"score": 40.0,
				"issues": []any{
					map[string]any{"severity": "high", "description": "No breadcrumb trail"},
				},
				"recommendations": []any{
					map[string]any{"action": "Add breadcrumbs", "userTask": "Find a product"},
				},
			},
		},
	}
}

func TestRunEmitsStepsInOrder(t *testing.T) {
	fetcher := &fakeFetcher{pages: []models.PageContent{{
		URL:      "https://acme.example",
		Title:    "Acme",
		HTML:     `<html><body><h1>Acme</h1><img src="a.png"></body></html>`,
		Markdown: "# Acme",
	}}}
	provider := &fakeLLM{raw: rawResponse()}
	a := NewAnalyzer(fetcher, provider, nil, nil)

	var events []ProgressEvent
	res, err := a.Run(context.Background(), Request{URL: "acme.example", Settings: validSettings()}, func(e ProgressEvent) {
		events = append(events, e)
	})
	require.NoError(t, err)

	require.Len(t, events, 4)
	for i, want := range []Step{StepValidate, StepScrape, StepAnalyze, StepFormat} {
		assert.Equal(t, want, events[i].Step)
		assert.Equal(t, i+1, events[i].Index)
		assert.Equal(t, 4, events[i].Total)
		assert.NotEmpty(t, events[i].Message)
	}

	assert.Equal(t, "https://acme.example", fetcher.gotURL)
	assert.Contains(t, provider.prompt, "https://acme.example")
	assert.Contains(t, provider.prompt, "h1=1")

	report := res.Report
	assert.False(t, report.UsedFallback)
	assert.False(t, res.UsedFallbackPage)
	assert.Equal(t, "https://acme.example", report.URL)
	assert.Empty(t, report.Settings.AIAPIKey)
	require.NotNil(t, report.CrawlData[0].Elements)
	assert.Equal(t, 1, report.CrawlData[0].Elements.ImagesNoAlt)

	nav, ok := report.Category(catalog.Navigation)
	require.True(t, ok)
	assert.Equal(t, 40, nav.Score)
	require.Len(t, nav.Issues, 1)
	assert.Equal(t, models.SeverityHigh, nav.Issues[0].Severity)
	assert.Contains(t, report.Summary.TopRecommendations, "Add breadcrumbs")
}

func TestRunValidationErrors(t *testing.T) {
	provider := &fakeLLM{raw: rawResponse()}
	a := NewAnalyzer(&fakeFetcher{}, provider, nil, nil)

	tests := []struct {
		name     string
		req      Request
		sentinel error
	}{
		{name: "bad url", req: Request{URL: "ftp://acme.example", Settings: validSettings()}, sentinel: scraper.ErrInvalidURL},
		{name: "empty url", req: Request{URL: " ", Settings: validSettings()}, sentinel: scraper.ErrInvalidURL},
		{name: "bad depth", req: Request{URL: "acme.example", Settings: models.Settings{AIProvider: models.ProviderClaude, AnalysisDepth: "huge", AIAPIKey: "k"}}, sentinel: models.ErrInvalidSettings},
		{name: "missing key", req: Request{URL: "acme.example", Settings: models.DefaultSettings()}, sentinel: llm.ErrMissingAPIKey},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var events []ProgressEvent
			res, err := a.Run(context.Background(), tt.req, func(e ProgressEvent) { events = append(events, e) })
			require.Error(t, err)
			assert.Nil(t, res)
			assert.True(t, IsValidationError(err))
			assert.ErrorIs(t, err, tt.sentinel)
			assert.Len(t, events, 1)
		})
	}
	assert.Zero(t, provider.calls)
}

func TestRunUsesFallbackReportOnProviderError(t *testing.T) {
	provider := &fakeLLM{err: &llm.ProviderError{Provider: "claude", StatusCode: 500, Message: "overloaded"}}
	a := NewAnalyzer(&fakeFetcher{fallback: true}, provider, nil, nil)

	res, err := a.Run(context.Background(), Request{URL: "https://acme.example", Settings: validSettings()}, nil)
	require.NoError(t, err)

	assert.True(t, res.UsedFallbackPage)
	assert.True(t, res.UsedFallbackModel)
	assert.True(t, res.Report.UsedFallback)
	assert.Len(t, res.Report.Categories, len(catalog.IDs()))

	for _, c := range res.Report.Categories {
		fb, _ := analysis.Fallback(c.ID)
		assert.Equal(t, fb.Score, c.Score, c.ID)
	}
}

func TestRunReturnsContextError(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	provider := &fakeLLM{err: context.Canceled}
	a := NewAnalyzer(&fakeFetcher{fallback: true}, provider, nil, nil)

	_, err := a.Run(ctx, Request{URL: "https://acme.example", Settings: validSettings()}, nil)
	require.ErrorIs(t, err, context.Canceled)
	assert.False(t, IsValidationError(err))
}

func TestRunRecordsHistory(t *testing.T) {
	store := history.NewStore(history.NewMemoryBlobStore(), history.DefaultConfig())
	a := NewAnalyzer(&fakeFetcher{fallback: true}, &fakeLLM{raw: rawResponse()}, store, nil)

	res, err := a.Run(context.Background(), Request{URL: "https://acme.example", Settings: validSettings()}, nil)
	require.NoError(t, err)
	require.NotEmpty(t, res.HistoryID)

	entry, err := store.Find(context.Background(), res.HistoryID)
	require.NoError(t, err)
	assert.Equal(t, "https://acme.example", entry.URL)
	assert.Equal(t, res.Report.OverallScore, entry.OverallScore)
}

func TestRunIgnoresHistoryFailures(t *testing.T) {
	a := NewAnalyzer(&fakeFetcher{fallback: true}, &fakeLLM{raw: rawResponse()}, failingRecorder{}, nil)

	res, err := a.Run(context.Background(), Request{URL: "https://acme.example", Settings: validSettings()}, nil)
	require.NoError(t, err)
	assert.Empty(t, res.HistoryID)
	assert.NotNil(t, res.Report)
}
