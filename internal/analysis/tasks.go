package analysis

import (
	"regexp"
	"strings"

	"github.com/krug-analyzer/backend/internal/catalog"
	"github.com/krug-analyzer/backend/internal/storage/models"
)

type taskRule struct {
	keywords []string
	task     string
}

// Rules are matched in order against the issue description; the first rule
// with any matching keyword wins for that issue. Keywords match whole words
// (plural forms included). A trailing "*" marks a stem that matches any word
// starting with it.
var taskRules = map[catalog.CategoryID][]taskRule{
	catalog.SelfEvidence: {
		{[]string{"jargon", "clever", "marketing", "unclear label", "ambiguous"}, "Replace jargon and clever labels with plain, conventional names"},
		{[]string{"call to action", "cta"}, "Rewrite calls to action with specific, plain verbs"},
		{[]string{"purpose", "confus*", "think*"}, "Add short helper text explaining unclear page elements"},
		{[]string{"icon"}, "Add visible text labels next to icon-only controls"},
	},
	catalog.Navigation: {
		{[]string{"breadcrumb"}, "Add breadcrumb navigation showing path from home"},
		{[]string{"you are here", "current page", "current section", "active", "location"}, "Highlight the current page in the navigation menu"},
		{[]string{"search"}, "Add a visible search box to the persistent navigation"},
		{[]string{"menu", "nav", "inconsistent*"}, "Make the main navigation consistent across every page"},
		{[]string{"home", "logo"}, "Link the site logo to the home page on every page"},
		{[]string{"page name", "title", "heading"}, "Give every page a prominent name that matches the link clicked"},
	},
	catalog.VisualHierarchy: {
		{[]string{"prominen*", "compet*", "important", "emphasis"}, "Increase size and weight of the most important element on each page"},
		{[]string{"group*", "related", "spacing", "white space"}, "Group related elements with consistent spacing and containers"},
		{[]string{"heading", "typograph*", "font"}, "Define a consistent heading hierarchy (h1-h3) with distinct sizes"},
		{[]string{"clutter", "noise", "busy"}, "Remove or de-emphasize visual noise around primary content"},
	},
	catalog.Scannability: {
		{[]string{"paragraph", "wall of text", "dense", "long text"}, "Split long paragraphs into short chunks with subheadings"},
		{[]string{"happy talk", "welcome", "filler", "wordy", "needless"}, "Cut introductory happy talk and needless words"},
		{[]string{"list", "bullet"}, "Convert inline enumerations into bulleted lists"},
		{[]string{"heading", "subheading"}, "Add descriptive subheadings to support scanning"},
		{[]string{"instruction"}, "Remove or shorten instructions users will not read"},
	},
	catalog.Clickability: {
		{[]string{"click here", "learn more", "vague", "link text"}, "Replace vague link text with descriptive destinations"},
		{[]string{"not obvious", "look clickable", "plain text", "underline", "affordance"}, "Style all clickable elements with a consistent, recognizable affordance"},
		{[]string{"button"}, "Make primary buttons visually distinct from secondary actions"},
		{[]string{"hover*"}, "Ensure clickability is visible without hover states"},
	},
	catalog.HomePage: {
		{[]string{"tagline", "value proposition", "what the site", "purpose"}, "Add a clear tagline explaining what the site offers"},
		{[]string{"start", "where to begin", "entry point"}, "Add an obvious starting point above the fold on the home page"},
		{[]string{"carousel", "slider", "rotat*"}, "Replace rotating carousels with a single clear message"},
		{[]string{"search"}, "Place a search box prominently on the home page"},
		{[]string{"clutter", "promotion", "too many"}, "Reduce competing promotions on the home page"},
	},
	catalog.Goodwill: {
		{[]string{"contact", "phone", "support", "help"}, "Make contact and support information reachable from every page"},
		{[]string{"pricing", "price", "cost", "shipping"}, "Publish pricing and shipping costs where users expect them"},
		{[]string{"form", "format", "validation", "required field"}, "Relax form validation and explain input requirements up front"},
		{[]string{"pop-up", "popup", "modal", "interstitial"}, "Remove intrusive pop-ups that interrupt the primary task"},
		{[]string{"error", "punish*"}, "Write helpful error messages that explain how to recover"},
	},
	catalog.Accessibility: {
		{[]string{"alt text", "alt attribute", "alternative text", "missing alt"}, "Add alt attributes to all img elements"},
		{[]string{"label"}, "Associate every form input with a visible label element"},
		{[]string{"contrast", "color"}, "Raise text contrast to at least WCAG AA (4.5:1)"},
		{[]string{"keyboard", "focus*", "tab order"}, "Ensure all interactive elements are keyboard accessible with visible focus"},
		{[]string{"skip", "landmark", "aria"}, "Add a skip-to-content link and ARIA landmarks"},
		{[]string{"heading"}, "Fix heading levels so they form a logical outline"},
	},
	catalog.Mobile: {
		{[]string{"tap target", "touch target", "too small", "tap"}, "Increase mobile tap target size to 44px minimum"},
		{[]string{"viewport", "zoom*", "responsive"}, "Add a responsive viewport meta tag and fluid layout"},
		{[]string{"menu", "hamburger", "nav", "navigation"}, "Make the mobile menu discoverable with a labeled menu button"},
		{[]string{"scroll*", "above the fold", "header"}, "Reorder mobile layout so primary content appears first"},
		{[]string{"font", "text size", "readable"}, "Use a minimum 16px body font on mobile"},
	},
}

var ruleMatchers = compileRules(taskRules)

func compileRules(rules map[catalog.CategoryID][]taskRule) map[catalog.CategoryID][]*regexp.Regexp {
	out := make(map[catalog.CategoryID][]*regexp.Regexp, len(rules))
	for id, list := range rules {
		for _, rule := range list {
			out[id] = append(out[id], keywordPattern(rule.keywords))
		}
	}
	return out
}

func keywordPattern(keywords []string) *regexp.Regexp {
	alts := make([]string, 0, len(keywords))
	for _, k := range keywords {
		if stem, ok := strings.CutSuffix(k, "*"); ok {
			alts = append(alts, regexp.QuoteMeta(stem))
			continue
		}
		alts = append(alts, regexp.QuoteMeta(k)+`(?:s|es)?\b`)
	}
	return regexp.MustCompile(`(?i)\b(?:` + strings.Join(alts, "|") + `)`)
}

// auditTasks is the single generic task emitted for a low-scoring category
// whose issues matched no rule.
var auditTasks = map[catalog.CategoryID]string{
	catalog.SelfEvidence:    "Run a \"don't make me think\" review of every label and call to action",
	catalog.Navigation:      "Audit navigation structure with a trunk test on key pages",
	catalog.VisualHierarchy: "Review each template's visual hierarchy against content priority",
	catalog.Scannability:    "Audit long pages for scannability and cut needless words",
	catalog.Clickability:    "Audit all interactive elements for obvious clickability",
	catalog.HomePage:        "Run a five-second test on the home page with first-time visitors",
	catalog.Goodwill:        "List the top user tasks and remove obstacles from each",
	catalog.Accessibility:   "Run an automated accessibility audit and fix critical findings",
	catalog.Mobile:          "Test key user journeys on a real mobile device",
}

// DeriveTasks maps issues to implementation tasks. It is deterministic:
// same category and descriptions give the same list.
func DeriveTasks(id catalog.CategoryID, issues []models.Issue, score int, maxTasks, lowScoreThreshold int) []string {
	rules := taskRules[id]
	matchers := ruleMatchers[id]
	seen := make(map[string]bool)
	tasks := make([]string, 0, maxTasks)

	for _, issue := range issues {
		if len(tasks) >= maxTasks {
			break
		}
		for i, rule := range rules {
			if !matchers[i].MatchString(issue.Description) {
				continue
			}
			if !seen[rule.task] {
				seen[rule.task] = true
				tasks = append(tasks, rule.task)
			}
			break
		}
	}

	if len(tasks) == 0 && score < lowScoreThreshold {
		if audit, ok := auditTasks[id]; ok {
			tasks = append(tasks, audit)
		}
	}

	return tasks
}
