package catalog

// CategoryID is the stable key of a usability category. Tables keyed by
// category must cover every ID in All; catalog_test enforces that for the
// tables in this repo.
type CategoryID string

const (
	SelfEvidence    CategoryID = "self_evidence"
	Navigation      CategoryID = "navigation"
	VisualHierarchy CategoryID = "visual_hierarchy"
	Scannability    CategoryID = "scannability"
	Clickability    CategoryID = "clickability"
	HomePage        CategoryID = "home_page"
	Goodwill        CategoryID = "goodwill"
	Accessibility   CategoryID = "accessibility"
	Mobile          CategoryID = "mobile"
)

type Category struct {
	ID          CategoryID `json:"id"`
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Weight      int        `json:"weight"`
}

var categories = []Category{
	{
		ID:          SelfEvidence,
		Name:        "Self-Evidence",
		Description: "Pages are obvious at a glance: users can tell what things are and how to use them without thinking (Don't Make Me Think).",
		Weight:      15,
	},
	{
		ID:          Navigation,
		Name:        "Navigation Clarity",
		Description: "Persistent navigation, clear site ID, page names and \"you are here\" indicators answer where am I and where can I go.",
		Weight:      15,
	},
	{
		ID:          VisualHierarchy,
		Name:        "Visual Hierarchy",
		Description: "Prominence reflects importance, related things are grouped and nesting shows what is part of what.",
		Weight:      12,
	},
	{
		ID:          Scannability,
		Name:        "Scannability & Content",
		Description: "Text is designed for scanning: headings, short paragraphs, bulleted lists and no happy talk or needless words.",
		Weight:      12,
	},
	{
		ID:          Clickability,
		Name:        "Obvious Clickability",
		Description: "Links and buttons look clickable and every click is a mindless, unambiguous choice.",
		Weight:      10,
	},
	{
		ID:          HomePage,
		Name:        "Home Page Clarity",
		Description: "The home page conveys the site's identity, mission and where to start within seconds.",
		Weight:      10,
	},
	{
		ID:          Goodwill,
		Name:        "User Goodwill",
		Description: "The site avoids draining the reservoir of goodwill: no hidden information, needless form rules or punishment for errors.",
		Weight:      8,
	},
	{
		ID:          Accessibility,
		Name:        "Accessibility",
		Description: "Content is usable with assistive technology: alt text, labels, contrast, headings and keyboard access.",
		Weight:      8,
	},
	{
		ID:          Mobile,
		Name:        "Mobile Usability",
		Description: "Layouts, tap targets and affordances work on small touch screens without losing usability.",
		Weight:      10,
	},
}

var index = func() map[CategoryID]int {
	m := make(map[CategoryID]int, len(categories))
	for i, c := range categories {
		m[c.ID] = i
	}
	return m
}()

// List returns the catalog in its fixed order. The slice is a copy.
func List() []Category {
	out := make([]Category, len(categories))
	copy(out, categories)
	return out
}

// IDs returns category IDs in catalog order.
func IDs() []CategoryID {
	out := make([]CategoryID, len(categories))
	for i, c := range categories {
		out[i] = c.ID
	}
	return out
}

func Get(id CategoryID) (Category, bool) {
	i, ok := index[id]
	if !ok {
		return Category{}, false
	}
	return categories[i], true
}

func Valid(id CategoryID) bool {
	_, ok := index[id]
	return ok
}

// Position is the catalog index of id, or -1.
func Position(id CategoryID) int {
	i, ok := index[id]
	if !ok {
		return -1
	}
	return i
}

func TotalWeight() int {
	total := 0
	for _, c := range categories {
		total += c.Weight
	}
	return total
}
