package scraper

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/krug-analyzer/backend/internal/storage/models"
)

const samplePage = `<!DOCTYPE html>
<html><head>
<title>Acme Shop</title>
<meta name="description" content="Everything for coyotes">
</head><body>
<header><nav><a href="/">Home</a><a href="/about">About</a></nav></header>
<main><h1>Welcome</h1><p>Buy <a href="/rockets">rockets</a> today.</p></main>
<footer>Copyright Acme</footer>
<script>var tracking = true;</script>
</body></html>`

func TestNormalizeURL(t *testing.T) {
	tests := []struct {
		in   string
		want string
		err  bool
	}{
		{in: "example.com", want: "https://example.com"},
		{in: "  HTTP://Example.COM/Path#frag ", want: "http://example.com/Path"},
		{in: "https://shop.example.com/a?b=c", want: "https://shop.example.com/a?b=c"},
		{in: "", err: true},
		{in: "ftp://example.com", err: true},
		{in: "javascript:alert(1)", err: true},
		{in: "https://", err: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := NormalizeURL(tt.in)
			if tt.err {
				require.ErrorIs(t, err, ErrInvalidURL)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFallbackPage(t *testing.T) {
	page := FallbackPage("https://www.acme.example/shop")

	assert.True(t, page.Fallback)
	assert.Equal(t, "https://www.acme.example/shop", page.URL)
	assert.Equal(t, "Acme", page.Title)
	assert.Contains(t, page.Markdown, "# Acme")
	assert.Contains(t, page.Markdown, "acme.example")
	assert.Empty(t, page.HTML)
}

func TestHTMLExtractorMainContent(t *testing.T) {
	page, err := newHTMLExtractor(true).Page("https://acme.example", samplePage, 200)
	require.NoError(t, err)

	assert.Equal(t, "Acme Shop", page.Title)
	assert.Equal(t, "Everything for coyotes", page.Description)
	assert.Equal(t, samplePage, page.HTML)
	assert.Equal(t, 200, page.StatusCode)
	assert.Contains(t, page.Markdown, "Welcome")
	assert.Contains(t, page.Markdown, "https://acme.example/rockets")
	assert.NotContains(t, page.Markdown, "Copyright")
	assert.NotContains(t, page.Markdown, "tracking")
}

func TestHTMLExtractorFullPage(t *testing.T) {
	page, err := newHTMLExtractor(false).Page("https://acme.example", samplePage, 200)
	require.NoError(t, err)

	assert.Contains(t, page.Markdown, "Copyright")
}

func TestFirecrawlScrape(t *testing.T) {
	var got firecrawlRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/scrape", r.URL.Path)
		assert.Equal(t, "Bearer fc-key", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"success":true,"data":{"markdown":"# Hi","html":"<h1>Hi</h1>",
			"metadata":{"title":"Hi","description":"d","sourceURL":"https://acme.example/","statusCode":200}}}`))
	}))
	defer srv.Close()

	c := NewFirecrawlClient(srv.URL, srv.Client(), true, 2*time.Hour)
	pages, err := c.Scrape(context.Background(), Request{URL: "https://acme.example", APIKey: "fc-key", Stealth: true})
	require.NoError(t, err)
	require.Len(t, pages, 1)

	assert.Equal(t, "https://acme.example", got.URL)
	assert.Equal(t, []string{"markdown", "html"}, got.Formats)
	assert.True(t, got.OnlyMainContent)
	assert.Equal(t, int64(7200000), got.MaxAge)
	assert.Equal(t, "stealth", got.Proxy)

	assert.Equal(t, "https://acme.example/", pages[0].URL)
	assert.Equal(t, "Hi", pages[0].Title)
	assert.Equal(t, "# Hi", pages[0].Markdown)
	assert.Equal(t, "<h1>Hi</h1>", pages[0].HTML)
	assert.Equal(t, 200, pages[0].StatusCode)
}

func TestFirecrawlScrapeFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusPaymentRequired)
		_, _ = w.Write([]byte(`{"success":false,"error":"Insufficient credits"}`))
	}))
	defer srv.Close()

	c := NewFirecrawlClient(srv.URL, srv.Client(), true, 0)
	_, err := c.Scrape(context.Background(), Request{URL: "https://acme.example", APIKey: "k"})
	require.ErrorIs(t, err, ErrScrapeFailed)
	assert.Contains(t, err.Error(), "Insufficient credits")

	_, err = c.Scrape(context.Background(), Request{URL: "https://acme.example"})
	require.ErrorIs(t, err, ErrScrapeFailed)
}

func TestDirectFetcher(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing" {
			http.NotFound(w, r)
			return
		}
		assert.Equal(t, "krug-test", r.Header.Get("User-Agent"))
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(samplePage))
	}))
	defer srv.Close()

	f := NewDirectFetcher(srv.Client(), "krug-test", true)
	pages, err := f.Scrape(context.Background(), Request{URL: srv.URL + "/"})
	require.NoError(t, err)
	require.Len(t, pages, 1)
	assert.Equal(t, "Acme Shop", pages[0].Title)
	assert.Equal(t, http.StatusOK, pages[0].StatusCode)

	_, err = f.Scrape(context.Background(), Request{URL: srv.URL + "/missing"})
	require.ErrorIs(t, err, ErrScrapeFailed)
}

func TestBlockedIP(t *testing.T) {
	cases := []struct {
		ip      string
		blocked bool
	}{
		{"127.0.0.1", true},
		{"::1", true},
		{"10.1.2.3", true},
		{"172.16.0.9", true},
		{"192.168.1.1", true},
		{"169.254.169.254", true},
		{"fe80::1", true},
		{"fd00::1", true},
		{"0.0.0.0", true},
		{"::", true},
		{"100.64.0.1", true},
		{"224.0.0.1", true},
		{"::ffff:127.0.0.1", true},
		{"93.184.216.34", false},
		{"8.8.8.8", false},
		{"2606:4700:4700::1111", false},
	}

	for _, tc := range cases {
		t.Run(tc.ip, func(t *testing.T) {
			assert.Equal(t, tc.blocked, blockedIP(net.ParseIP(tc.ip)))
		})
	}
}

func TestCheckHost(t *testing.T) {
	ctx := context.Background()

	for _, u := range []string{
		"http://127.0.0.1:8080/",
		"http://[::1]/admin",
		"http://169.254.169.254/latest/meta-data/",
		"https://10.0.0.5/",
		"http:///no-host",
	} {
		assert.ErrorIs(t, checkHost(ctx, u), ErrBlockedAddress, u)
	}

	assert.NoError(t, checkHost(ctx, "https://93.184.216.34/"))
}

func TestGuardedClientRefusesLoopback(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
	}))
	defer srv.Close()

	_, err := newGuardedClient(5 * time.Second).Get(srv.URL)
	require.ErrorIs(t, err, ErrBlockedAddress)
	assert.Zero(t, hits.Load())
}

func TestServiceDoesNotFetchInternalAddresses(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(`<html><body><main>INTERNAL-SECRET-TOKEN</main></body></html>`))
	}))
	defer srv.Close()

	s := NewService(Config{Backend: BackendDirect}, nil)
	pages, fallback := s.Fetch(context.Background(), srv.URL, models.DefaultSettings())

	assert.True(t, fallback)
	require.Len(t, pages, 1)
	assert.True(t, pages[0].Fallback)
	assert.False(t, strings.Contains(pages[0].HTML+pages[0].Markdown, "INTERNAL-SECRET-TOKEN"))
	assert.Zero(t, hits.Load())
}

func TestBrowserFetcherRejectsInternalHostBeforeLaunch(t *testing.T) {
	f := NewBrowserFetcher("", true)

	_, err := f.Scrape(context.Background(), Request{URL: "http://169.254.169.254/latest/meta-data/"})
	require.ErrorIs(t, err, ErrScrapeFailed)
	assert.Nil(t, f.browser)
}

type stubFetcher struct {
	name  string
	pages []models.PageContent
	err   error
	calls int
}

func (f *stubFetcher) Name() string { return f.name }

func (f *stubFetcher) Scrape(_ context.Context, _ Request) ([]models.PageContent, error) {
	f.calls++
	return f.pages, f.err
}

type memoryPageCache struct {
	pages map[string][]models.PageContent
}

func (c *memoryPageCache) GetPages(_ context.Context, key string) ([]models.PageContent, bool, error) {
	p, ok := c.pages[key]
	return p, ok, nil
}

func (c *memoryPageCache) SetPages(_ context.Context, key string, pages []models.PageContent, _ time.Duration) error {
	c.pages[key] = pages
	return nil
}

func newStubService(cfg Config, cache PageCache) (*Service, *stubFetcher, *stubFetcher, *stubFetcher) {
	fc := &stubFetcher{name: "firecrawl", pages: []models.PageContent{{URL: "fc", Title: "FC"}}}
	direct := &stubFetcher{name: "direct", pages: []models.PageContent{{URL: "direct", Title: "Direct"}}}
	browser := &stubFetcher{name: "browser", pages: []models.PageContent{{URL: "browser", Title: "Browser"}}}
	s := NewService(cfg, cache)
	s.firecrawl, s.direct, s.browser = fc, direct, browser
	return s, fc, direct, browser
}

func TestServiceBackendSelection(t *testing.T) {
	s, fc, direct, _ := newStubService(Config{}, nil)

	pages, fallback := s.Fetch(context.Background(), "https://acme.example", models.Settings{ScrapeAPIKey: "k"})
	assert.False(t, fallback)
	assert.Equal(t, "FC", pages[0].Title)
	assert.Equal(t, 1, fc.calls)

	pages, _ = s.Fetch(context.Background(), "https://acme.example", models.Settings{})
	assert.Equal(t, "Direct", pages[0].Title)
	assert.Equal(t, 1, direct.calls)

	s, _, _, browser := newStubService(Config{Backend: BackendBrowser}, nil)
	pages, _ = s.Fetch(context.Background(), "https://acme.example", models.Settings{})
	assert.Equal(t, "Browser", pages[0].Title)
	assert.Equal(t, 1, browser.calls)
}

func TestServiceFallsBackOnError(t *testing.T) {
	s, _, direct, _ := newStubService(Config{}, nil)
	direct.err = errors.New("connection refused")

	pages, fallback := s.Fetch(context.Background(), "https://acme.example", models.Settings{})
	assert.True(t, fallback)
	require.Len(t, pages, 1)
	assert.True(t, pages[0].Fallback)
	assert.Equal(t, "Acme", pages[0].Title)

	direct.err = nil
	direct.pages = nil
	_, fallback = s.Fetch(context.Background(), "https://acme.example", models.Settings{})
	assert.True(t, fallback)
}

func TestServiceUsesCache(t *testing.T) {
	cache := &memoryPageCache{pages: map[string][]models.PageContent{}}
	s, _, direct, _ := newStubService(Config{CacheMaxAge: time.Hour}, cache)

	first, _ := s.Fetch(context.Background(), "https://acme.example", models.Settings{})
	second, _ := s.Fetch(context.Background(), "https://acme.example", models.Settings{})

	assert.Equal(t, first, second)
	assert.Equal(t, 1, direct.calls)
	assert.Len(t, cache.pages, 1)

	// stealth changes the key
	_, _ = s.Fetch(context.Background(), "https://acme.example", models.Settings{StealthMode: true})
	assert.Equal(t, 2, direct.calls)
}

func TestServiceDoesNotCacheFallback(t *testing.T) {
	cache := &memoryPageCache{pages: map[string][]models.PageContent{}}
	s, _, direct, _ := newStubService(Config{CacheMaxAge: time.Hour}, cache)
	direct.err = errors.New("boom")

	_, fallback := s.Fetch(context.Background(), "https://acme.example", models.Settings{})
	assert.True(t, fallback)
	assert.Empty(t, cache.pages)
}
