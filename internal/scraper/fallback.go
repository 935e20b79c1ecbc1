package scraper

import (
	"fmt"
	"strings"

	"github.com/krug-analyzer/backend/internal/storage/models"
)

// FallbackPage synthesizes a minimal page record from the URL alone. It does
// no I/O.
func FallbackPage(targetURL string) models.PageContent {
	host := hostname(targetURL)
	name := siteName(host)

	markdown := fmt.Sprintf(`# %s

The page content for %s could not be retrieved.

## Analysis notes
- Evaluate the site using general usability expectations for a site at %s.
- Structural element counts are unavailable.
`, name, targetURL, host)

	return models.PageContent{
		URL:         targetURL,
		Title:       name,
		Description: fmt.Sprintf("Content for %s was unavailable", host),
		Markdown:    markdown,
		Fallback:    true,
	}
}

func siteName(host string) string {
	label := host
	if i := strings.IndexByte(label, '.'); i > 0 {
		label = label[:i]
	}
	if label == "" {
		return "Website"
	}
	return strings.ToUpper(label[:1]) + label[1:]
}
