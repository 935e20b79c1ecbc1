package handlers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/krug-analyzer/backend/internal/analyzer"
	"github.com/krug-analyzer/backend/internal/history"
	"github.com/krug-analyzer/backend/internal/storage/models"
)

type stubFetcher struct{}

func (stubFetcher) Fetch(_ context.Context, targetURL string, _ models.Settings) ([]models.PageContent, bool) {
	return []models.PageContent{{URL: targetURL, Title: "Acme", Markdown: "# Acme", HTML: "<h1>Acme</h1>"}}, false
}

type stubLLM struct{}

func (stubLLM) Analyze(context.Context, string, models.Settings) (map[string]any, error) {
	return map[string]any{
		"categories": []any{
			map[string]any{"id": "navigation", "score": 30, "issues": []any{
				map[string]any{"severity": "high", "description": "No breadcrumb trail"},
			}},
		},
	}, nil
}

type testEnv struct {
	app      *fiber.App
	history  *history.Store
	settings *history.SettingsStore
}

func newTestEnv(t *testing.T, defaults models.Settings) *testEnv {
	t.Helper()

	store := history.NewStore(history.NewMemoryBlobStore(), history.DefaultConfig())
	settings := history.NewSettingsStore(history.NewMemoryBlobStore())
	a := analyzer.NewAnalyzer(stubFetcher{}, stubLLM{}, store, nil)

	analysis := NewAnalysisHandler(a, settings, defaults)
	app := fiber.New()
	Register(app.Group("/api/v1"), Routes{
		Analysis:  analysis,
		WebSocket: NewWebSocketHandler(analysis),
		History:   NewHistoryHandler(store),
		Settings:  NewSettingsHandler(settings, defaults),
	})

	return &testEnv{app: app, history: store, settings: settings}
}

func defaultsWithKey() models.Settings {
	s := models.DefaultSettings()
	s.AIAPIKey = "sk-env-0123456789"
	return s
}

func (e *testEnv) do(t *testing.T, method, path, body string) (*http.Response, []byte) {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := e.app.Test(req, -1)
	require.NoError(t, err)
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, data
}

func (e *testEnv) analyze(t *testing.T) map[string]any {
	t.Helper()
	resp, body := e.do(t, "POST", "/api/v1/analyze", `{"url":"acme.example"}`)
	require.Equal(t, fiber.StatusOK, resp.StatusCode, string(body))

	var out map[string]any
	require.NoError(t, json.Unmarshal(body, &out))
	return out
}

func TestAnalyze(t *testing.T) {
	env := newTestEnv(t, defaultsWithKey())
	out := env.analyze(t)

	assert.Equal(t, "https://acme.example", out["url"])
	assert.NotEmpty(t, out["historyId"])
	assert.IsType(t, float64(0), out["overallScore"])
	assert.Len(t, out["categories"], 9)

	settings := out["settings"].(map[string]any)
	assert.Empty(t, settings["aiApiKey"])
}

func TestAnalyzeValidation(t *testing.T) {
	env := newTestEnv(t, defaultsWithKey())

	resp, body := env.do(t, "POST", "/api/v1/analyze", `{"url":"ftp://acme.example"}`)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, string(body), "invalid URL")

	resp, _ = env.do(t, "POST", "/api/v1/analyze", `{"url":`)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	resp, _ = env.do(t, "POST", "/api/v1/analyze", `{"url":"acme.example","settings":{"aiProvider":"gemini","analysisDepth":"quick"}}`)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestAnalyzePartialSettingsOverride(t *testing.T) {
	env := newTestEnv(t, defaultsWithKey())

	resp, body := env.do(t, "POST", "/api/v1/analyze", `{"url":"acme.example","settings":{"includeMobile":false}}`)
	require.Equal(t, fiber.StatusOK, resp.StatusCode, string(body))

	var out map[string]any
	require.NoError(t, json.Unmarshal(body, &out))
	settings := out["settings"].(map[string]any)
	assert.Equal(t, "claude", settings["aiProvider"])
	assert.Equal(t, "standard", settings["analysisDepth"])
	assert.Equal(t, false, settings["includeMobile"])
}

func TestAnalyzeMissingKey(t *testing.T) {
	env := newTestEnv(t, models.DefaultSettings())

	resp, body := env.do(t, "POST", "/api/v1/analyze", `{"url":"acme.example"}`)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, string(body), "API key")
}

func TestHistoryRoutes(t *testing.T) {
	env := newTestEnv(t, defaultsWithKey())
	id := env.analyze(t)["historyId"].(string)

	resp, body := env.do(t, "GET", "/api/v1/history", "")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var list struct {
		History []map[string]any `json:"history"`
		Count   int              `json:"count"`
	}
	require.NoError(t, json.Unmarshal(body, &list))
	assert.Equal(t, 1, list.Count)
	assert.Equal(t, id, list.History[0]["id"])
	assert.NotContains(t, list.History[0], "fullReport")

	resp, body = env.do(t, "GET", "/api/v1/history/"+id, "")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), `"fullReport"`)

	resp, _ = env.do(t, "DELETE", "/api/v1/history/"+id, "")
	assert.Equal(t, fiber.StatusNoContent, resp.StatusCode)

	resp, _ = env.do(t, "GET", "/api/v1/history/"+id, "")
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)

	resp, _ = env.do(t, "DELETE", "/api/v1/history/"+id, "")
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func TestClearHistory(t *testing.T) {
	env := newTestEnv(t, defaultsWithKey())
	env.analyze(t)

	resp, _ := env.do(t, "DELETE", "/api/v1/history", "")
	assert.Equal(t, fiber.StatusNoContent, resp.StatusCode)

	entries, err := env.history.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestExport(t *testing.T) {
	env := newTestEnv(t, defaultsWithKey())
	id := env.analyze(t)["historyId"].(string)

	resp, body := env.do(t, "GET", "/api/v1/history/"+id+"/export?kind=todo&format=csv&groupBy=priority", "")
	require.Equal(t, fiber.StatusOK, resp.StatusCode, string(body))
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/csv")
	assert.Contains(t, resp.Header.Get("Content-Disposition"), "krug-todo-acme.example-")
	assert.True(t, strings.HasPrefix(string(body), `"ID","Category","Task"`))

	resp, body = env.do(t, "GET", "/api/v1/history/"+id+"/export", "")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/markdown")
	assert.Contains(t, string(body), "acme.example")

	resp, _ = env.do(t, "GET", "/api/v1/history/"+id+"/export?format=docx", "")
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	resp, _ = env.do(t, "GET", "/api/v1/history/"+id+"/export?kind=report&format=csv", "")
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	resp, _ = env.do(t, "GET", "/api/v1/history/"+id+"/export?kind=todo&priority=maybe", "")
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	resp, _ = env.do(t, "GET", "/api/v1/history/missing/export", "")
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func TestSettingsRoutes(t *testing.T) {
	env := newTestEnv(t, defaultsWithKey())

	resp, body := env.do(t, "GET", "/api/v1/settings", "")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var got models.Settings
	require.NoError(t, json.Unmarshal(body, &got))
	assert.Equal(t, "sk-e*********6789", got.AIAPIKey)

	resp, _ = env.do(t, "PUT", "/api/v1/settings", `{"aiProvider":"nope","analysisDepth":"quick"}`)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	// Echoing the masked default key must not persist the mask.
	resp, _ = env.do(t, "PUT", "/api/v1/settings",
		`{"aiProvider":"openai","analysisDepth":"deep","includeMobile":false,"aiApiKey":"sk-e*********6789","scrapeApiKey":"fc-secret-key-1"}`)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	saved, err := env.settings.Load(context.Background())
	require.NoError(t, err)
	require.NotNil(t, saved)
	assert.Equal(t, models.ProviderOpenAI, saved.AIProvider)
	assert.Empty(t, saved.AIAPIKey)
	assert.Equal(t, "fc-secret-key-1", saved.ScrapeAPIKey)

	resp, _ = env.do(t, "PUT", "/api/v1/settings",
		`{"aiProvider":"openai","analysisDepth":"deep","scrapeApiKey":"fc-s*******ey-1"}`)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	saved, err = env.settings.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "fc-secret-key-1", saved.ScrapeAPIKey)
}

func TestCategoriesAndHealth(t *testing.T) {
	env := newTestEnv(t, defaultsWithKey())

	resp, body := env.do(t, "GET", "/api/v1/categories", "")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var cats struct {
		Categories  []map[string]any `json:"categories"`
		TotalWeight int              `json:"totalWeight"`
	}
	require.NoError(t, json.Unmarshal(body, &cats))
	assert.Len(t, cats.Categories, 9)
	assert.Equal(t, 100, cats.TotalWeight)

	resp, _ = env.do(t, "GET", "/api/v1/health", "")
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	resp, _ = env.do(t, "GET", "/api/v1/ready", "")
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp, _ = env.do(t, "GET", "/api/v1/ws/analyze", "")
	assert.Equal(t, fiber.StatusUpgradeRequired, resp.StatusCode)
}
