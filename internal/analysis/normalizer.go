package analysis

import (
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/krug-analyzer/backend/internal/catalog"
	"github.com/krug-analyzer/backend/internal/storage/models"
	"github.com/krug-analyzer/backend/pkg/logger"
)

const (
	defaultScore       = 50
	missingDescription = "Issue description not provided"
)

type Config struct {
	MaxTasks           int
	LowScoreThreshold  int
	TopRecommendations int
	Now                func() time.Time
}

func DefaultConfig() Config {
	return Config{
		MaxTasks:           3,
		LowScoreThreshold:  60,
		TopRecommendations: 5,
		Now:                time.Now,
	}
}

// Normalizer turns an untrusted provider response into a complete report.
// It never fails: every missing or malformed field degrades to a default.
type Normalizer struct {
	cfg Config
}

func NewNormalizer(cfg Config) *Normalizer {
	def := DefaultConfig()
	if cfg.MaxTasks <= 0 {
		cfg.MaxTasks = def.MaxTasks
	}
	if cfg.LowScoreThreshold <= 0 {
		cfg.LowScoreThreshold = def.LowScoreThreshold
	}
	if cfg.TopRecommendations <= 0 {
		cfg.TopRecommendations = def.TopRecommendations
	}
	if cfg.Now == nil {
		cfg.Now = def.Now
	}
	return &Normalizer{cfg: cfg}
}

type Request struct {
	URL       string
	Settings  models.Settings
	CrawlData []models.PageContent
}

func (n *Normalizer) Normalize(raw map[string]any, req Request) *models.AnalysisReport {
	if raw == nil {
		raw = map[string]any{}
	}

	categories := n.NormalizeCategories(raw, req.Settings)

	report := &models.AnalysisReport{
		URL:          req.URL,
		Timestamp:    n.cfg.Now(),
		Settings:     req.Settings.Redacted(),
		OverallScore: CalculateOverallScore(categories),
		Categories:   categories,
		CrawlData:    req.CrawlData,
		Summary:      Summarize(categories, n.cfg.TopRecommendations),
	}

	if rawOverall, ok := asMap(raw["overallAssessment"]); ok {
		report.OverallAssessment = normalizeOverallAssessment(rawOverall)
	}

	return report
}

// FallbackReport is the whole-report substitute used when the provider call
// fails.
func (n *Normalizer) FallbackReport(req Request) *models.AnalysisReport {
	report := n.Normalize(map[string]any{}, req)
	report.UsedFallback = true
	return report
}

// NormalizeCategories walks the catalog in order. Mobile is removed after
// the fact when the settings exclude it, whatever the provider returned.
func (n *Normalizer) NormalizeCategories(raw map[string]any, settings models.Settings) []models.CategoryResult {
	results := make([]models.CategoryResult, 0, len(catalog.IDs()))

	for _, id := range catalog.IDs() {
		entry, found := findRawCategory(raw, id)
		if !found {
			fb, _ := Fallback(id)
			results = append(results, fb)
			logger.Debug("Category missing from provider response, using fallback",
				zap.String("category", string(id)),
			)
			continue
		}
		results = append(results, n.normalizeCategory(id, entry))
	}

	if !settings.IncludeMobile {
		filtered := results[:0]
		for _, r := range results {
			if r.ID != catalog.Mobile {
				filtered = append(filtered, r)
			}
		}
		results = filtered
	}

	return results
}

func (n *Normalizer) normalizeCategory(id catalog.CategoryID, entry map[string]any) models.CategoryResult {
	cat, _ := catalog.Get(id)
	fb, _ := Fallback(id)

	result := models.CategoryResult{
		Category:        cat,
		Score:           normalizeScore(entry["score"]),
		Issues:          normalizeIssues(entry["issues"]),
		Recommendations: normalizeRecommendations(entry["recommendations"]),
		Details:         fb.Details,
		AssessmentLevel: fb.AssessmentLevel,
	}

	if details, ok := asString(entry["details"]); ok {
		result.Details = details
	}

	level := models.AssessmentLevel(strings.ToLower(stringField(entry, "assessmentLevel", "assessment")))
	if level.Valid() {
		result.AssessmentLevel = level
	}

	result.Strengths = nonEmptyStrings(entry["strengths"])
	if len(result.Strengths) == 0 {
		result.Strengths = fallbackStrengths(id)
	}

	result.ImplementationTasks = n.implementationTasks(id, result, entry)

	return result
}

// implementationTasks derives tasks from issues. A provider-supplied list is
// only consulted when the entry carries no issues at all.
func (n *Normalizer) implementationTasks(id catalog.CategoryID, result models.CategoryResult, entry map[string]any) []string {
	if len(result.Issues) > 0 {
		return DeriveTasks(id, result.Issues, result.Score, n.cfg.MaxTasks, n.cfg.LowScoreThreshold)
	}

	provided := nonEmptyStrings(entry["implementationTasks"])
	if len(provided) > 0 {
		provided = dedupe(provided)
		if len(provided) > n.cfg.MaxTasks {
			provided = provided[:n.cfg.MaxTasks]
		}
		return provided
	}

	return DeriveTasks(id, nil, result.Score, n.cfg.MaxTasks, n.cfg.LowScoreThreshold)
}

func normalizeIssues(v any) []models.Issue {
	issues := []models.Issue{}
	for _, item := range asSlice(v) {
		if text, ok := asString(item); ok {
			issues = append(issues, models.Issue{Severity: models.SeverityMedium, Description: text})
			continue
		}
		m, ok := asMap(item)
		if !ok {
			continue
		}
		issue := models.Issue{
			Severity:      normalizeSeverity(stringField(m, "severity", "type")),
			Description:   stringField(m, "description"),
			Element:       stringField(m, "element"),
			PageRef:       stringField(m, "pageRef", "page"),
			PrincipleNote: stringField(m, "principleNote", "principle"),
		}
		if issue.Description == "" {
			issue.Description = missingDescription
		}
		issues = append(issues, issue)
	}
	return issues
}

func normalizeSeverity(s string) models.Severity {
	sev := models.Severity(strings.ToLower(strings.TrimSpace(s)))
	if sev.Valid() {
		return sev
	}
	return models.SeverityMedium
}

func normalizeRecommendations(v any) []models.Recommendation {
	recs := []models.Recommendation{}
	for _, item := range asSlice(v) {
		if text, ok := asString(item); ok {
			recs = append(recs, models.PlainRecommendation(text))
			continue
		}
		m, ok := asMap(item)
		if !ok {
			continue
		}
		action := stringField(m, "action")
		if action == "" {
			continue
		}
		recs = append(recs, models.Recommendation{
			Action:             action,
			UserTask:           stringField(m, "userTask"),
			PrincipleReference: stringField(m, "principleReference"),
		})
	}
	return recs
}

func normalizeOverallAssessment(m map[string]any) *models.OverallAssessment {
	level := models.AssessmentLevel(strings.ToLower(stringField(m, "level")))
	if !level.Valid() {
		level = models.AssessmentModerate
	}
	strengths := nonEmptyStrings(m["strengths"])
	if strengths == nil {
		strengths = []string{}
	}
	return &models.OverallAssessment{
		Level:     level,
		Message:   stringField(m, "message"),
		Strengths: strengths,
	}
}

func dedupe(items []string) []string {
	seen := make(map[string]bool, len(items))
	out := items[:0:0]
	for _, s := range items {
		if seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}

// Normalize runs the pipeline with default configuration and a fixed clock.
func Normalize(raw map[string]any, settings models.Settings, now time.Time) *models.AnalysisReport {
	n := NewNormalizer(Config{Now: func() time.Time { return now }})
	return n.Normalize(raw, Request{Settings: settings})
}

func FallbackReport(url string, settings models.Settings, now time.Time) *models.AnalysisReport {
	n := NewNormalizer(Config{Now: func() time.Time { return now }})
	return n.FallbackReport(Request{URL: url, Settings: settings})
}
