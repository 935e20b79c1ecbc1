package prompt

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/krug-analyzer/backend/internal/catalog"
	"github.com/krug-analyzer/backend/internal/storage/models"
)

const samplePage = `<html><head><title>Shop</title><meta name="viewport" content="width=device-width"></head>
<body>
<a href="#main">Skip to content</a>
<header><nav aria-label="Breadcrumb"><a href="/">Home</a></nav></header>
<main id="main">
<h1>Welcome</h1><h2>Deals</h2><h2>New</h2><h3>Small</h3>
<form role="search"><label for="q">Search</label><input type="search" id="q" name="q"><button>Go</button></form>
<img src="a.png" alt="A"><img src="b.png">
<table><tr><td>1</td></tr></table>
</main>
<footer><a href="/contact">Contact</a></footer>
</body></html>`

func TestCountElements(t *testing.T) {
	c := CountElements(samplePage)
	require.NotNil(t, c)

	assert.Equal(t, 1, c.H1)
	assert.Equal(t, 2, c.H2)
	assert.Equal(t, 1, c.H3)
	assert.Equal(t, 4, c.Headings)
	assert.Equal(t, 1, c.Forms)
	assert.Equal(t, 1, c.Inputs)
	assert.Equal(t, 1, c.Buttons)
	assert.Equal(t, 3, c.Links)
	assert.Equal(t, 1, c.Navs)
	assert.Equal(t, 2, c.Images)
	assert.Equal(t, 1, c.ImagesNoAlt)
	assert.Equal(t, 1, c.Tables)
	assert.Equal(t, 1, c.SearchInputs)
	assert.Equal(t, 1, c.Breadcrumbs)
	assert.Equal(t, 1, c.ViewportMeta)
	assert.Equal(t, 1, c.LabelledInputs)
	assert.Equal(t, 1, c.SkipLinks)
	assert.Equal(t, 3, c.LandmarkRegions)
}

func TestCountElementsEmpty(t *testing.T) {
	assert.Nil(t, CountElements(""))
	assert.Nil(t, CountElements("   \n"))
}

func TestBuildIncludesPagesAndCatalog(t *testing.T) {
	pages := []models.PageContent{
		{URL: "https://shop.example", Title: "Shop", Markdown: "# Welcome", HTML: samplePage},
		{URL: "https://shop.example/about", Markdown: "About us"},
	}

	out := Build("https://shop.example", pages, models.DefaultSettings())

	assert.Contains(t, out, "https://shop.example/about")
	assert.Contains(t, out, "Title: Untitled")
	assert.Contains(t, out, "ANALYSIS DEPTH: STANDARD")
	assert.Contains(t, out, "h1=1, h2=2")
	assert.Equal(t, 1, strings.Count(out, "Detected elements:"), "counts only for pages with HTML")
	for _, c := range catalog.List() {
		assert.Contains(t, out, string(c.ID))
	}
	assert.Contains(t, out, `"categories"`)
	assert.Contains(t, out, `"overallAssessment"`)
}

func TestBuildListsMobileEvenWhenExcluded(t *testing.T) {
	settings := models.DefaultSettings()
	settings.IncludeMobile = false

	out := Build("https://a.example", []models.PageContent{{URL: "https://a.example"}}, settings)
	assert.Contains(t, out, string(catalog.Mobile))
}

func TestBuildRespectsDepthBudgets(t *testing.T) {
	long := strings.Repeat("☃", 10000)
	pages := []models.PageContent{{URL: "https://a.example", Markdown: long}}

	for depth, b := range depthBudgets {
		settings := models.DefaultSettings()
		settings.AnalysisDepth = depth

		out := Build("https://a.example", pages, settings)
		assert.Equal(t, b.content/len("☃"), strings.Count(out, "☃"), depth)
		assert.Contains(t, out, "...[truncated]")
	}

	assert.Less(t, depthBudgets[models.DepthQuick].content, depthBudgets[models.DepthStandard].content)
	assert.Less(t, depthBudgets[models.DepthStandard].content, depthBudgets[models.DepthDeep].content)
}

func TestBuildUnknownDepthUsesStandard(t *testing.T) {
	settings := models.DefaultSettings()
	settings.AnalysisDepth = "exhaustive"

	out := Build("https://a.example", []models.PageContent{{URL: "https://a.example"}}, settings)
	assert.Contains(t, out, "ANALYSIS DEPTH: STANDARD")
}

func TestTruncateKeepsValidUTF8(t *testing.T) {
	s := strings.Repeat("é", 10)
	out := truncate(s, 5)
	assert.True(t, utf8.ValidString(out))
	assert.True(t, strings.HasPrefix(out, "éé"))
}

func TestBuildIsDeterministic(t *testing.T) {
	pages := []models.PageContent{{URL: "https://a.example", HTML: samplePage, Markdown: "hi"}}
	first := Build("https://a.example", pages, models.DefaultSettings())
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, Build("https://a.example", pages, models.DefaultSettings()))
	}
}
