package models

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/krug-analyzer/backend/internal/catalog"
)

type Severity string

const (
	SeverityHigh   Severity = "high"
	SeverityMedium Severity = "medium"
	SeverityLow    Severity = "low"
)

func (s Severity) Valid() bool {
	switch s {
	case SeverityHigh, SeverityMedium, SeverityLow:
		return true
	}
	return false
}

type AssessmentLevel string

const (
	AssessmentExcellent AssessmentLevel = "excellent"
	AssessmentGood      AssessmentLevel = "good"
	AssessmentModerate  AssessmentLevel = "moderate"
	AssessmentPoor      AssessmentLevel = "poor"
)

func (a AssessmentLevel) Valid() bool {
	switch a {
	case AssessmentExcellent, AssessmentGood, AssessmentModerate, AssessmentPoor:
		return true
	}
	return false
}

// LevelForScore buckets a 0-100 score.
func LevelForScore(score int) AssessmentLevel {
	switch {
	case score >= 85:
		return AssessmentExcellent
	case score >= 70:
		return AssessmentGood
	case score >= 50:
		return AssessmentModerate
	default:
		return AssessmentPoor
	}
}

type Issue struct {
	Severity      Severity `json:"severity"`
	Description   string   `json:"description"`
	Element       string   `json:"element,omitempty"`
	PageRef       string   `json:"pageRef,omitempty"`
	PrincipleNote string   `json:"principleNote,omitempty"`
}

// Recommendation keeps legacy plain-string entries distinguishable: Plain
// entries carry their text in Action and marshal back to a bare JSON string.
type Recommendation struct {
	Action             string `json:"action"`
	UserTask           string `json:"userTask"`
	PrincipleReference string `json:"principleReference"`
	Plain              bool   `json:"-"`
}

func PlainRecommendation(text string) Recommendation {
	return Recommendation{Action: text, Plain: true}
}

type recommendationObject struct {
	Action             string `json:"action"`
	UserTask           string `json:"userTask"`
	PrincipleReference string `json:"principleReference"`
}

func (r Recommendation) MarshalJSON() ([]byte, error) {
	if r.Plain {
		return json.Marshal(r.Action)
	}
	return json.Marshal(recommendationObject{
		Action:             r.Action,
		UserTask:           r.UserTask,
		PrincipleReference: r.PrincipleReference,
	})
}

func (r *Recommendation) UnmarshalJSON(data []byte) error {
	var text string
	if err := json.Unmarshal(data, &text); err == nil {
		*r = PlainRecommendation(text)
		return nil
	}

	var obj recommendationObject
	if err := json.Unmarshal(data, &obj); err != nil {
		return fmt.Errorf("failed to decode recommendation: %w", err)
	}
	*r = Recommendation{
		Action:             obj.Action,
		UserTask:           obj.UserTask,
		PrincipleReference: obj.PrincipleReference,
	}
	return nil
}

type CategoryResult struct {
	catalog.Category
	Score               int              `json:"score"`
	Issues              []Issue          `json:"issues"`
	Recommendations     []Recommendation `json:"recommendations"`
	ImplementationTasks []string         `json:"implementationTasks"`
	Details             string           `json:"details"`
	Strengths           []string         `json:"strengths,omitempty"`
	AssessmentLevel     AssessmentLevel  `json:"assessmentLevel,omitempty"`
}

type OverallAssessment struct {
	Level     AssessmentLevel `json:"level"`
	Message   string          `json:"message"`
	Strengths []string        `json:"strengths"`
}

type Summary struct {
	HighCount          int      `json:"highCount"`
	MediumCount        int      `json:"mediumCount"`
	LowCount           int      `json:"lowCount"`
	TopRecommendations []string `json:"topRecommendations"`
}

func (s Summary) TotalIssues() int {
	return s.HighCount + s.MediumCount + s.LowCount
}

// ElementCounts is the structural ground truth handed to the model.
type ElementCounts struct {
	H1              int `json:"h1"`
	H2              int `json:"h2"`
	H3              int `json:"h3"`
	Headings        int `json:"headings"`
	Forms           int `json:"forms"`
	Inputs          int `json:"inputs"`
	Buttons         int `json:"buttons"`
	Links           int `json:"links"`
	Navs            int `json:"navs"`
	Images          int `json:"images"`
	ImagesNoAlt     int `json:"imagesWithoutAlt"`
	Tables          int `json:"tables"`
	SearchInputs    int `json:"searchInputs"`
	Breadcrumbs     int `json:"breadcrumbs"`
	ViewportMeta    int `json:"viewportMeta"`
	LabelledInputs  int `json:"labels"`
	SkipLinks       int `json:"skipLinks"`
	LandmarkRegions int `json:"landmarks"`
}

type PageContent struct {
	URL         string         `json:"url"`
	Title       string         `json:"title"`
	Description string         `json:"description,omitempty"`
	Markdown    string         `json:"markdown"`
	HTML        string         `json:"html,omitempty"`
	StatusCode  int            `json:"statusCode,omitempty"`
	Elements    *ElementCounts `json:"elements,omitempty"`
	Fallback    bool           `json:"fallback,omitempty"`
}

type AnalysisReport struct {
	URL               string             `json:"url"`
	Timestamp         time.Time          `json:"timestamp"`
	Settings          Settings           `json:"settings"`
	OverallScore      int                `json:"overallScore"`
	OverallAssessment *OverallAssessment `json:"overallAssessment,omitempty"`
	Categories        []CategoryResult   `json:"categories"`
	CrawlData         []PageContent      `json:"crawlData"`
	Summary           Summary            `json:"summary"`
	UsedFallback      bool               `json:"usedFallback,omitempty"`
}

// Category returns the result for id, if the report includes it.
func (r *AnalysisReport) Category(id catalog.CategoryID) (CategoryResult, bool) {
	for _, c := range r.Categories {
		if c.ID == id {
			return c, true
		}
	}
	return CategoryResult{}, false
}

type SummaryCounts struct {
	High   int `json:"high"`
	Medium int `json:"medium"`
	Low    int `json:"low"`
}

type SettingsSnapshot struct {
	AIProvider    AIProvider    `json:"aiProvider"`
	AnalysisDepth AnalysisDepth `json:"analysisDepth"`
}

type HistoryEntry struct {
	ID               string           `json:"id"`
	URL              string           `json:"url"`
	Timestamp        time.Time        `json:"timestamp"`
	OverallScore     int              `json:"overallScore"`
	SummaryCounts    SummaryCounts    `json:"summaryCounts"`
	SettingsSnapshot SettingsSnapshot `json:"settingsSnapshot"`
	FullReport       *AnalysisReport  `json:"fullReport"`
}

type AIProvider string

const (
	ProviderClaude AIProvider = "claude"
	ProviderOpenAI AIProvider = "openai"
)

type AnalysisDepth string

const (
	DepthQuick    AnalysisDepth = "quick"
	DepthStandard AnalysisDepth = "standard"
	DepthDeep     AnalysisDepth = "deep"
)

type Settings struct {
	AIProvider    AIProvider    `json:"aiProvider"`
	AnalysisDepth AnalysisDepth `json:"analysisDepth"`
	IncludeMobile bool          `json:"includeMobile"`
	StealthMode   bool          `json:"stealthMode"`
	ScrapeAPIKey  string        `json:"scrapeApiKey"`
	AIAPIKey      string        `json:"aiApiKey"`
}

func DefaultSettings() Settings {
	return Settings{
		AIProvider:    ProviderClaude,
		AnalysisDepth: DepthStandard,
		IncludeMobile: true,
	}
}

// SettingsOverride is a per-request partial settings object. Absent fields
// keep the value of the settings it is applied to.
type SettingsOverride struct {
	AIProvider    AIProvider    `json:"aiProvider,omitempty"`
	AnalysisDepth AnalysisDepth `json:"analysisDepth,omitempty"`
	IncludeMobile *bool         `json:"includeMobile,omitempty"`
	StealthMode   *bool         `json:"stealthMode,omitempty"`
	ScrapeAPIKey  string        `json:"scrapeApiKey,omitempty"`
	AIAPIKey      string        `json:"aiApiKey,omitempty"`
}

func (o SettingsOverride) Apply(base Settings) Settings {
	if o.AIProvider != "" {
		base.AIProvider = o.AIProvider
	}
	if o.AnalysisDepth != "" {
		base.AnalysisDepth = o.AnalysisDepth
	}
	if o.IncludeMobile != nil {
		base.IncludeMobile = *o.IncludeMobile
	}
	if o.StealthMode != nil {
		base.StealthMode = *o.StealthMode
	}
	if o.ScrapeAPIKey != "" {
		base.ScrapeAPIKey = o.ScrapeAPIKey
	}
	if o.AIAPIKey != "" {
		base.AIAPIKey = o.AIAPIKey
	}
	return base
}

var ErrInvalidSettings = errors.New("invalid settings")

func (s Settings) Validate() error {
	var problems []string
	switch s.AIProvider {
	case ProviderClaude, ProviderOpenAI:
	default:
		problems = append(problems, fmt.Sprintf("unknown aiProvider %q", s.AIProvider))
	}
	switch s.AnalysisDepth {
	case DepthQuick, DepthStandard, DepthDeep:
	default:
		problems = append(problems, fmt.Sprintf("unknown analysisDepth %q", s.AnalysisDepth))
	}
	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidSettings, strings.Join(problems, "; "))
	}
	return nil
}

// Redacted drops API keys; reports and history never carry secrets.
func (s Settings) Redacted() Settings {
	s.ScrapeAPIKey = ""
	s.AIAPIKey = ""
	return s
}

func (s Settings) Snapshot() SettingsSnapshot {
	return SettingsSnapshot{AIProvider: s.AIProvider, AnalysisDepth: s.AnalysisDepth}
}
