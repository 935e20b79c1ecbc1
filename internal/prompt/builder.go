package prompt

import (
	"fmt"
	"strings"

	"github.com/krug-analyzer/backend/internal/catalog"
	"github.com/krug-analyzer/backend/internal/storage/models"
)

type budget struct {
	content int
	html    int
}

var depthBudgets = map[models.AnalysisDepth]budget{
	models.DepthQuick:    {content: 1800, html: 1500},
	models.DepthStandard: {content: 2500, html: 2000},
	models.DepthDeep:     {content: 4500, html: 4000},
}

var depthInstructions = map[models.AnalysisDepth]string{
	models.DepthQuick: `ANALYSIS DEPTH: QUICK
- Report only the 1-2 most significant issues per category.
- Keep details to one or two sentences.
- Prefer obvious, high-impact problems over subtle ones.`,
	models.DepthStandard: `ANALYSIS DEPTH: STANDARD
- Report 2-4 issues per category, ordered by impact.
- Give each issue a concrete element or page reference where possible.
- Details should explain how the issue affects a first-time visitor.`,
	models.DepthDeep: `ANALYSIS DEPTH: DEEP
- Report every meaningful issue per category (typically 4-6), including subtle ones.
- Cite a specific element selector and page for each issue.
- Details should walk through the user's reasoning step by step, as in a usability test.
- Include strengths and an assessmentLevel for every category.`,
}

const responseShape = `Respond with ONLY a JSON object, no prose before or after, in this shape:
{
  "overallAssessment": {
    "level": "excellent|good|moderate|poor",
    "message": "one paragraph summary",
    "strengths": ["..."]
  },
  "categories": [
    {
      "id": "<category id from the list above>",
      "score": 0-100,
      "issues": [
        {"severity": "high|medium|low", "description": "...", "element": "css selector", "pageRef": "url", "principleNote": "Krug chapter or principle"}
      ],
      "recommendations": [
        {"action": "imperative fix", "userTask": "what the user is trying to do", "principleReference": "Krug chapter or principle"}
      ],
      "implementationTasks": ["..."],
      "details": "...",
      "strengths": ["..."],
      "assessmentLevel": "excellent|good|moderate|poor"
    }
  ]
}`

func budgetFor(depth models.AnalysisDepth) budget {
	if b, ok := depthBudgets[depth]; ok {
		return b
	}
	return depthBudgets[models.DepthStandard]
}

func instructionsFor(depth models.AnalysisDepth) string {
	if s, ok := depthInstructions[depth]; ok {
		return s
	}
	return depthInstructions[models.DepthStandard]
}

// truncate cuts s to at most n bytes without splitting a UTF-8 sequence.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	cut := n
	for cut > 0 && !isRuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "\n...[truncated]"
}

func isRuneStart(b byte) bool {
	return b&0xC0 != 0x80
}

// Build renders the analysis prompt for targetURL. pages must be non-empty.
func Build(targetURL string, pages []models.PageContent, settings models.Settings) string {
	b := budgetFor(settings.AnalysisDepth)

	var builder strings.Builder

	builder.WriteString("You are a usability expert applying Steve Krug's \"Don't Make Me Think\" principles.\n")
	builder.WriteString(fmt.Sprintf("Evaluate the website %s using the scraped pages below.\n\n", targetURL))
	builder.WriteString(instructionsFor(settings.AnalysisDepth))
	builder.WriteString("\n\n")

	builder.WriteString(fmt.Sprintf("SCRAPED PAGES (%d):\n", len(pages)))
	for i, page := range pages {
		writePage(&builder, i+1, page, b)
	}

	builder.WriteString("\nEVALUATION CATEGORIES (id, weight):\n")
	for _, c := range catalog.List() {
		builder.WriteString(fmt.Sprintf("- %s (%s, weight %d): %s\n", c.ID, c.Name, c.Weight, c.Description))
	}
	if !settings.IncludeMobile {
		builder.WriteString("Mobile findings will not be shown to the user, but still score the mobile category.\n")
	}

	builder.WriteString("\nRULES:\n")
	builder.WriteString("- Base every claim on the page content and element counts above; do not claim an element is missing when its count is non-zero.\n")
	builder.WriteString("- Scores are integers from 0 to 100.\n")
	builder.WriteString("- Return one entry per category id listed above.\n\n")

	builder.WriteString(responseShape)
	builder.WriteString("\n")

	return builder.String()
}

func writePage(builder *strings.Builder, n int, page models.PageContent, b budget) {
	title := page.Title
	if title == "" {
		title = "Untitled"
	}

	builder.WriteString(fmt.Sprintf("\n--- Page %d ---\n", n))
	builder.WriteString(fmt.Sprintf("URL: %s\n", page.URL))
	builder.WriteString(fmt.Sprintf("Title: %s\n", title))
	if page.Description != "" {
		builder.WriteString(fmt.Sprintf("Description: %s\n", page.Description))
	}

	if page.HTML != "" {
		counts := page.Elements
		if counts == nil {
			counts = CountElements(page.HTML)
		}
		if counts != nil {
			writeCounts(builder, counts)
		}
		builder.WriteString("HTML:\n")
		builder.WriteString(truncate(page.HTML, b.html))
		builder.WriteString("\n")
	}

	builder.WriteString("Content:\n")
	builder.WriteString(truncate(page.Markdown, b.content))
	builder.WriteString("\n")
}

func writeCounts(builder *strings.Builder, c *models.ElementCounts) {
	builder.WriteString("Detected elements: ")
	builder.WriteString(fmt.Sprintf(
		"h1=%d, h2=%d, h3=%d, headings=%d, forms=%d, inputs=%d, buttons=%d, links=%d, nav=%d, images=%d, imagesWithoutAlt=%d, tables=%d, searchInputs=%d, breadcrumbs=%d, labels=%d, skipLinks=%d, landmarks=%d, viewportMeta=%d\n",
		c.H1, c.H2, c.H3, c.Headings, c.Forms, c.Inputs, c.Buttons, c.Links, c.Navs,
		c.Images, c.ImagesNoAlt, c.Tables, c.SearchInputs, c.Breadcrumbs,
		c.LabelledInputs, c.SkipLinks, c.LandmarkRegions, c.ViewportMeta,
	))
}
