package scraper

import (
	"fmt"
	"strings"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/table"
	"github.com/PuerkitoBio/goquery"

	"github.com/krug-analyzer/backend/internal/storage/models"
)

const maxHTMLBytes = 2 << 20

type htmlExtractor struct {
	md              *converter.Converter
	onlyMainContent bool
}

func newHTMLExtractor(onlyMainContent bool) *htmlExtractor {
	return &htmlExtractor{
		md: converter.NewConverter(
			converter.WithPlugins(
				base.NewBasePlugin(),
				commonmark.NewCommonmarkPlugin(),
				table.NewTablePlugin(),
			),
		),
		onlyMainContent: onlyMainContent,
	}
}

// Page turns fetched HTML into a PageContent. The raw HTML is kept intact for
// element counting; only the markdown is narrowed to the main content.
func (e *htmlExtractor) Page(pageURL, html string, status int) (models.PageContent, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return models.PageContent{}, fmt.Errorf("failed to parse HTML: %w", err)
	}

	page := models.PageContent{
		URL:         pageURL,
		Title:       extractTitle(doc),
		Description: extractDescription(doc),
		HTML:        html,
		StatusCode:  status,
	}

	contentHTML := html
	if e.onlyMainContent {
		contentHTML = mainContent(html)
	}

	md, err := e.md.ConvertString(contentHTML, converter.WithDomain(pageURL))
	if err != nil {
		return models.PageContent{}, fmt.Errorf("failed to convert to markdown: %w", err)
	}
	page.Markdown = strings.TrimSpace(md)

	return page, nil
}

func extractTitle(doc *goquery.Document) string {
	title := strings.TrimSpace(doc.Find("title").First().Text())
	if title == "" {
		title, _ = doc.Find(`meta[property="og:title"]`).Attr("content")
		title = strings.TrimSpace(title)
	}
	if title == "" {
		title = strings.TrimSpace(doc.Find("h1").First().Text())
	}
	return title
}

func extractDescription(doc *goquery.Document) string {
	desc, _ := doc.Find(`meta[name="description"]`).Attr("content")
	if desc == "" {
		desc, _ = doc.Find(`meta[property="og:description"]`).Attr("content")
	}
	return strings.TrimSpace(desc)
}

// mainContent drops page chrome and returns the main region's HTML,
// falling back to the cleaned body.
func mainContent(html string) string {
	clone, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return html
	}
	clone.Find("script, style, noscript, template, nav, footer, header, aside").Remove()

	for _, sel := range []string{"main", "article", `[role="main"]`, "#content", "body"} {
		s := clone.Find(sel).First()
		if s.Length() == 0 {
			continue
		}
		if h, err := s.Html(); err == nil && strings.TrimSpace(s.Text()) != "" {
			return h
		}
	}

	h, _ := clone.Html()
	return h
}
