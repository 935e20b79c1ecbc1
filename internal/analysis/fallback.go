package analysis

import (
	"github.com/krug-analyzer/backend/internal/catalog"
	"github.com/krug-analyzer/backend/internal/storage/models"
)

// fallbackEntry is the hand-authored result used whenever the provider omits
// a category or the whole analysis fails.
type fallbackEntry struct {
	Score               int
	Issues              []models.Issue
	Recommendations     []models.Recommendation
	ImplementationTasks []string
	Details             string
	Strengths           []string
}

var fallbackTable = map[catalog.CategoryID]fallbackEntry{
	catalog.SelfEvidence: {
		Score: 65,
		Issues: []models.Issue{
			{
				Severity:      models.SeverityMedium,
				Description:   "Some labels and calls to action use clever or marketing-driven names that make users stop and think about what they mean.",
				PrincipleNote: "Don't Make Me Think, Ch. 1: every question mark adds to the cognitive workload.",
			},
			{
				Severity:      models.SeverityLow,
				Description:   "The purpose of several page elements is not obvious without reading surrounding text.",
				PrincipleNote: "Don't Make Me Think, Ch. 1: if you can't make it self-evident, at least make it self-explanatory.",
			},
		},
		Recommendations: []models.Recommendation{
			{
				Action:             "Replace clever or branded labels with plain, conventional names",
				UserTask:           "Understand what a link or button does before clicking",
				PrincipleReference: "Don't Make Me Think, Ch. 1 - Don't make me think",
			},
			{
				Action:             "Add short helper text where an element's purpose is not immediately clear",
				UserTask:           "Complete the primary task without hesitation",
				PrincipleReference: "Don't Make Me Think, Ch. 1 - Self-explanatory beats puzzling",
			},
		},
		ImplementationTasks: []string{
			"Audit navigation and button labels for jargon or clever names",
			"Rewrite primary calls to action with plain verbs",
		},
		Details:   "The site is mostly understandable, but a handful of labels and elements force users to pause and interpret them. Removing these question marks lowers cognitive load.",
		Strengths: []string{"Primary content is visible without scrolling", "Most links use recognizable wording"},
	},
	catalog.Navigation: {
		Score: 62,
		Issues: []models.Issue{
			{
				Severity:      models.SeverityHigh,
				Description:   "There is no clear \"you are here\" indicator, so users cannot tell which section they are in.",
				PrincipleNote: "Don't Make Me Think, Ch. 6: persistent navigation should show where you are.",
			},
			{
				Severity:      models.SeverityMedium,
				Description:   "Deeper pages lack breadcrumbs showing the path back to the home page.",
				PrincipleNote: "Don't Make Me Think, Ch. 6: breadcrumbs show you where you are.",
			},
		},
		Recommendations: []models.Recommendation{
			{
				Action:             "Highlight the current section in the persistent navigation",
				UserTask:           "Know where I am on the site at any moment",
				PrincipleReference: "Don't Make Me Think, Ch. 6 - Street signs and breadcrumbs",
			},
			{
				Action:             "Add breadcrumb navigation to all pages below the top level",
				UserTask:           "Get back to a higher-level page quickly",
				PrincipleReference: "Don't Make Me Think, Ch. 6 - Breadcrumbs",
			},
		},
		ImplementationTasks: []string{
			"Add breadcrumb navigation showing path from home",
			"Style the active navigation item so it stands out",
		},
		Details:   "Navigation exists and is consistent, but users get few cues about their current location. Adding location indicators and breadcrumbs would answer \"where am I?\" on every page.",
		Strengths: []string{"Main navigation is present on every page", "Site logo links back to the home page"},
	},
	catalog.VisualHierarchy: {
		Score: 68,
		Issues: []models.Issue{
			{
				Severity:      models.SeverityMedium,
				Description:   "Several elements compete for attention with similar size and weight, so the most important content does not stand out.",
				PrincipleNote: "Don't Make Me Think, Ch. 3: the more important something is, the more prominent it should be.",
			},
			{
				Severity:      models.SeverityLow,
				Description:   "Related items are not always grouped visually, which blurs what belongs together.",
				PrincipleNote: "Don't Make Me Think, Ch. 3: things that are related logically are related visually.",
			},
		},
		Recommendations: []models.Recommendation{
			{
				Action:             "Increase contrast between primary and secondary content through size and weight",
				UserTask:           "Spot the most important thing on the page first",
				PrincipleReference: "Don't Make Me Think, Ch. 3 - Create effective visual hierarchies",
			},
			{
				Action:             "Group related controls and content inside clearly defined areas",
				UserTask:           "Understand what belongs together at a glance",
				PrincipleReference: "Don't Make Me Think, Ch. 3 - Break pages up into clearly defined areas",
			},
		},
		ImplementationTasks: []string{
			"Define a typographic scale for headings and body text",
			"Group related elements with spacing or containers",
		},
		Details:   "The layout has a reasonable structure, but prominence does not always follow importance. A clearer hierarchy would let users parse the page faster.",
		Strengths: []string{"Consistent use of headings", "Adequate white space around main content"},
	},
	catalog.Scannability: {
		Score: 64,
		Issues: []models.Issue{
			{
				Severity:      models.SeverityMedium,
				Description:   "Long paragraphs without subheadings make the content hard to scan.",
				PrincipleNote: "Don't Make Me Think, Ch. 3: format text to support scanning.",
			},
			{
				Severity:      models.SeverityLow,
				Description:   "Introductory happy talk delays the useful information.",
				PrincipleNote: "Don't Make Me Think, Ch. 5: get rid of half the words on each page.",
			},
		},
		Recommendations: []models.Recommendation{
			{
				Action:             "Break long text into short paragraphs with descriptive subheadings",
				UserTask:           "Find the piece of information I came for by scanning",
				PrincipleReference: "Don't Make Me Think, Ch. 3 - Format text to support scanning",
			},
			{
				Action:             "Cut welcome copy and instructions nobody reads",
				UserTask:           "Reach useful content without wading through filler",
				PrincipleReference: "Don't Make Me Think, Ch. 5 - Omit needless words",
			},
		},
		ImplementationTasks: []string{
			"Add subheadings every few paragraphs on long pages",
			"Convert dense lists in paragraphs into bulleted lists",
		},
		Details:   "Content is informative but written for reading rather than scanning. Users skim, so more headings, lists and fewer words would help them find what they need.",
		Strengths: []string{"Headings describe their sections", "Key facts appear near the top of the page"},
	},
	catalog.Clickability: {
		Score: 70,
		Issues: []models.Issue{
			{
				Severity:      models.SeverityMedium,
				Description:   "Some clickable elements are styled like plain text, so users cannot tell they are links.",
				PrincipleNote: "Don't Make Me Think, Ch. 3: make it obvious what's clickable.",
			},
			{
				Severity:      models.SeverityLow,
				Description:   "A few links use vague text such as \"click here\" that does not predict the destination.",
				PrincipleNote: "Don't Make Me Think, Ch. 4: mindless, unambiguous choices.",
			},
		},
		Recommendations: []models.Recommendation{
			{
				Action:             "Give all links and buttons a consistent, recognizably clickable style",
				UserTask:           "Know what I can click without hovering around",
				PrincipleReference: "Don't Make Me Think, Ch. 3 - Make it obvious what's clickable",
			},
			{
				Action:             "Rewrite vague link text to describe where the link goes",
				UserTask:           "Predict what happens when I click",
				PrincipleReference: "Don't Make Me Think, Ch. 4 - Mindless choices",
			},
		},
		ImplementationTasks: []string{
			"Apply a single link style with underline or color to all inline links",
			"Replace \"click here\" and \"learn more\" links with descriptive text",
		},
		Details:   "Primary buttons are recognizable, but inline links and secondary actions are not always obviously clickable. Consistent affordances remove guesswork.",
		Strengths: []string{"Primary buttons have a clear button shape", "Navigation links are clearly interactive"},
	},
	catalog.HomePage: {
		Score: 66,
		Issues: []models.Issue{
			{
				Severity:      models.SeverityMedium,
				Description:   "The home page does not state in one sentence what the site is and what it offers.",
				PrincipleNote: "Don't Make Me Think, Ch. 7: convey the big picture with a tagline and welcome blurb.",
			},
			{
				Severity:      models.SeverityLow,
				Description:   "It is not obvious where first-time visitors should start.",
				PrincipleNote: "Don't Make Me Think, Ch. 7: show me where to start.",
			},
		},
		Recommendations: []models.Recommendation{
			{
				Action:             "Add a clear tagline next to the site ID that explains the value proposition",
				UserTask:           "Understand what this site is within seconds",
				PrincipleReference: "Don't Make Me Think, Ch. 7 - The tagline",
			},
			{
				Action:             "Provide an obvious starting point such as a primary call to action or search box",
				UserTask:           "Know where to begin on my first visit",
				PrincipleReference: "Don't Make Me Think, Ch. 7 - Where do I start?",
			},
		},
		ImplementationTasks: []string{
			"Write a one-sentence tagline describing the site's purpose",
			"Place a primary call to action above the fold on the home page",
		},
		Details:   "The home page looks polished but leaves first-time visitors to work out the site's purpose themselves. A tagline and a clear starting point would fix the big-picture gap.",
		Strengths: []string{"Site identity is visible at the top of the page", "Home page loads with key content above the fold"},
	},
	catalog.Goodwill: {
		Score: 67,
		Issues: []models.Issue{
			{
				Severity:      models.SeverityMedium,
				Description:   "Information users commonly look for, such as pricing or contact details, is hard to find.",
				PrincipleNote: "Don't Make Me Think, Ch. 10: hiding information users want drains goodwill.",
			},
			{
				Severity:      models.SeverityLow,
				Description:   "Forms ask for information in a specific format without explaining it.",
				PrincipleNote: "Don't Make Me Think, Ch. 10: don't punish me for not doing things your way.",
			},
		},
		Recommendations: []models.Recommendation{
			{
				Action:             "Make contact details, pricing and support links easy to find from every page",
				UserTask:           "Get answers to the questions I came with",
				PrincipleReference: "Don't Make Me Think, Ch. 10 - Know the main things people want to do",
			},
			{
				Action:             "Accept flexible input formats in forms and explain requirements up front",
				UserTask:           "Submit a form without fighting validation rules",
				PrincipleReference: "Don't Make Me Think, Ch. 10 - Don't punish me",
			},
		},
		ImplementationTasks: []string{
			"Add contact and pricing links to the footer of every page",
			"Relax form field validation to accept common input formats",
		},
		Details:   "The site does not actively frustrate users, but a few small annoyances chip away at their goodwill. Surfacing key information and forgiving forms would help.",
		Strengths: []string{"No intrusive pop-ups on first load", "Pages load without forced registration"},
	},
	catalog.Accessibility: {
		Score: 60,
		Issues: []models.Issue{
			{
				Severity:      models.SeverityHigh,
				Description:   "Several images are missing alternative text for screen reader users.",
				PrincipleNote: "Don't Make Me Think, Ch. 12: add appropriate alt text to every image.",
			},
			{
				Severity:      models.SeverityMedium,
				Description:   "Form inputs are not consistently associated with visible labels.",
				PrincipleNote: "Don't Make Me Think, Ch. 12: make forms work with screen readers.",
			},
		},
		Recommendations: []models.Recommendation{
			{
				Action:             "Add descriptive alt text to informative images and empty alt to decorative ones",
				UserTask:           "Understand image content with a screen reader",
				PrincipleReference: "Don't Make Me Think, Ch. 12 - Accessibility",
			},
			{
				Action:             "Associate every form input with a label element",
				UserTask:           "Fill in forms using assistive technology",
				PrincipleReference: "Don't Make Me Think, Ch. 12 - Use labels",
			},
		},
		ImplementationTasks: []string{
			"Add alt attributes to all img elements",
			"Link every input to a label using the for attribute",
		},
		Details:   "Basic structure is in place, but missing alt text and unlabeled inputs create barriers for assistive technology users. These fixes are cheap and high impact.",
		Strengths: []string{"Page uses semantic headings", "Text is resizable without breaking layout"},
	},
	catalog.Mobile: {
		Score: 63,
		Issues: []models.Issue{
			{
				Severity:      models.SeverityMedium,
				Description:   "Tap targets in navigation and footers are too small and close together on touch screens.",
				PrincipleNote: "Don't Make Me Think, Ch. 10 (mobile): affordances must survive the move to touch.",
			},
			{
				Severity:      models.SeverityLow,
				Description:   "Important content is pushed below long headers on small screens.",
				PrincipleNote: "Don't Make Me Think, Ch. 10 (mobile): don't hide what users need behind scrolling.",
			},
		},
		Recommendations: []models.Recommendation{
			{
				Action:             "Enlarge tap targets to at least 44x44 pixels with spacing between them",
				UserTask:           "Tap the right link on my phone the first time",
				PrincipleReference: "Don't Make Me Think, Ch. 10 - Mobile affordances",
			},
			{
				Action:             "Prioritize primary content above secondary elements in the mobile layout",
				UserTask:           "See the main content without scrolling past headers",
				PrincipleReference: "Don't Make Me Think, Ch. 10 - Managing real estate",
			},
		},
		ImplementationTasks: []string{
			"Increase mobile tap target size to 44px minimum",
			"Reorder mobile layout so primary content appears first",
		},
		Details:   "The site adapts to small screens, but touch ergonomics and content priority need attention. Mobile users have less patience and less screen.",
		Strengths: []string{"Responsive layout adapts to narrow viewports", "Text remains readable without zooming"},
	},
}

// Fallback returns a deep copy of the category's fallback result.
func Fallback(id catalog.CategoryID) (models.CategoryResult, bool) {
	cat, ok := catalog.Get(id)
	if !ok {
		return models.CategoryResult{}, false
	}
	entry, ok := fallbackTable[id]
	if !ok {
		return models.CategoryResult{}, false
	}

	return models.CategoryResult{
		Category:            cat,
		Score:               entry.Score,
		Issues:              append([]models.Issue(nil), entry.Issues...),
		Recommendations:     append([]models.Recommendation(nil), entry.Recommendations...),
		ImplementationTasks: append([]string(nil), entry.ImplementationTasks...),
		Details:             entry.Details,
		Strengths:           append([]string(nil), entry.Strengths...),
		AssessmentLevel:     models.AssessmentModerate,
	}, true
}

func fallbackStrengths(id catalog.CategoryID) []string {
	return append([]string(nil), fallbackTable[id].Strengths...)
}
