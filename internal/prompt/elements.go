package prompt

import (
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/krug-analyzer/backend/internal/storage/models"
)

const (
	searchInputSelector = `input[type="search"], input[name="q"], input[name="s"], input[name="search"], [role="search"] input`
	breadcrumbSelector  = `[aria-label*="breadcrumb"], [aria-label*="Breadcrumb"], .breadcrumb, .breadcrumbs, [itemtype*="BreadcrumbList"]`
	landmarkSelector    = `header, main, footer, aside, [role="banner"], [role="main"], [role="contentinfo"], [role="complementary"]`
)

// CountElements parses raw HTML and counts the structural elements the model
// tends to hallucinate about. It returns nil for empty or unparseable input.
func CountElements(html string) *models.ElementCounts {
	if strings.TrimSpace(html) == "" {
		return nil
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil
	}

	counts := &models.ElementCounts{
		H1:              doc.Find("h1").Length(),
		H2:              doc.Find("h2").Length(),
		H3:              doc.Find("h3").Length(),
		Headings:        doc.Find("h1, h2, h3, h4, h5, h6").Length(),
		Forms:           doc.Find("form").Length(),
		Inputs:          doc.Find("input, select, textarea").Length(),
		Buttons:         doc.Find(`button, input[type="submit"], input[type="button"], [role="button"]`).Length(),
		Links:           doc.Find("a[href]").Length(),
		Navs:            doc.Find(`nav, [role="navigation"]`).Length(),
		Images:          doc.Find("img").Length(),
		Tables:          doc.Find("table").Length(),
		SearchInputs:    doc.Find(searchInputSelector).Length(),
		Breadcrumbs:     doc.Find(breadcrumbSelector).Length(),
		ViewportMeta:    doc.Find(`meta[name="viewport"]`).Length(),
		LabelledInputs:  doc.Find("label").Length(),
		LandmarkRegions: doc.Find(landmarkSelector).Length(),
	}

	doc.Find("img").Each(func(i int, s *goquery.Selection) {
		if _, ok := s.Attr("alt"); !ok {
			counts.ImagesNoAlt++
		}
	})

	doc.Find("a[href]").Each(func(i int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		text := strings.ToLower(s.Text())
		if strings.HasPrefix(href, "#") && strings.Contains(text, "skip") {
			counts.SkipLinks++
		}
	})

	return counts
}
