package analyzer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/krug-analyzer/backend/internal/analysis"
	"github.com/krug-analyzer/backend/internal/llm"
	"github.com/krug-analyzer/backend/internal/metrics"
	"github.com/krug-analyzer/backend/internal/prompt"
	"github.com/krug-analyzer/backend/internal/scraper"
	"github.com/krug-analyzer/backend/internal/storage/models"
	"github.com/krug-analyzer/backend/pkg/logger"
)

type Step string

const (
	StepValidate Step = "validate"
	StepScrape   Step = "scrape"
	StepAnalyze  Step = "analyze"
	StepFormat   Step = "format"
)

var steps = []Step{StepValidate, StepScrape, StepAnalyze, StepFormat}

var stepMessages = map[Step]string{
	StepValidate: "Validating URL and settings",
	StepScrape:   "Fetching website content",
	StepAnalyze:  "Analyzing usability with AI",
	StepFormat:   "Formatting report",
}

type ProgressEvent struct {
	Step    Step   `json:"step"`
	Index   int    `json:"index"`
	Total   int    `json:"total"`
	Message string `json:"message"`
}

type ProgressFunc func(ProgressEvent)

// ValidationError is an input problem the caller should fix; it is never
// retried and never replaced by fallback content.
type ValidationError struct {
	Err error
}

func (e *ValidationError) Error() string {
	return e.Err.Error()
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

type PageFetcher interface {
	Fetch(ctx context.Context, targetURL string, settings models.Settings) ([]models.PageContent, bool)
}

type ResponseAnalyzer interface {
	Analyze(ctx context.Context, prompt string, settings models.Settings) (map[string]any, error)
}

type HistoryRecorder interface {
	SaveIfFresh(ctx context.Context, report *models.AnalysisReport, now time.Time) (*models.HistoryEntry, bool, error)
}

type Request struct {
	URL      string
	Settings models.Settings
}

type Result struct {
	Report            *models.AnalysisReport
	HistoryID         string
	UsedFallbackPage  bool
	UsedFallbackModel bool
}

type Analyzer struct {
	fetcher    PageFetcher
	llm        ResponseAnalyzer
	history    HistoryRecorder
	normalizer *analysis.Normalizer
	now        func() time.Time
}

// NewAnalyzer wires the pipeline. history may be nil.
func NewAnalyzer(fetcher PageFetcher, llm ResponseAnalyzer, history HistoryRecorder, normalizer *analysis.Normalizer) *Analyzer {
	if normalizer == nil {
		normalizer = analysis.NewNormalizer(analysis.DefaultConfig())
	}
	return &Analyzer{
		fetcher:    fetcher,
		llm:        llm,
		history:    history,
		normalizer: normalizer,
		now:        time.Now,
	}
}

// Run executes validate, scrape, analyze and format strictly in order. Only
// validation errors and context cancellation are returned; upstream failures
// are replaced by fallback content.
func (a *Analyzer) Run(ctx context.Context, req Request, progress ProgressFunc) (*Result, error) {
	start := time.Now()
	if progress == nil {
		progress = func(ProgressEvent) {}
	}

	emit := func(i int) time.Time {
		progress(ProgressEvent{
			Step:    steps[i],
			Index:   i + 1,
			Total:   len(steps),
			Message: stepMessages[steps[i]],
		})
		return time.Now()
	}
	observe := func(step Step, since time.Time) {
		metrics.StepDuration.WithLabelValues(string(step)).Observe(time.Since(since).Seconds())
	}

	stepStart := emit(0)
	targetURL, err := validate(req)
	observe(StepValidate, stepStart)
	if err != nil {
		metrics.AnalysisTotal.WithLabelValues("invalid").Inc()
		return nil, err
	}

	logger.Info("Starting analysis",
		zap.String("url", targetURL),
		zap.String("provider", string(req.Settings.AIProvider)),
		zap.String("depth", string(req.Settings.AnalysisDepth)),
	)

	stepStart = emit(1)
	pages, usedFallbackPage := a.fetcher.Fetch(ctx, targetURL, req.Settings)
	if len(pages) == 0 {
		pages = []models.PageContent{scraper.FallbackPage(targetURL)}
		usedFallbackPage = true
	}
	for i := range pages {
		if pages[i].Elements == nil {
			pages[i].Elements = prompt.CountElements(pages[i].HTML)
		}
	}
	observe(StepScrape, stepStart)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	stepStart = emit(2)
	raw, err := a.llm.Analyze(ctx, prompt.Build(targetURL, pages, req.Settings), req.Settings)
	observe(StepAnalyze, stepStart)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		logger.Warn("AI analysis failed, using fallback report",
			zap.String("url", targetURL),
			zap.Error(err),
		)
	}

	stepStart = emit(3)
	normReq := analysis.Request{URL: targetURL, Settings: req.Settings, CrawlData: pages}
	var report *models.AnalysisReport
	if err != nil {
		metrics.FallbacksUsed.WithLabelValues("report").Inc()
		report = a.normalizer.FallbackReport(normReq)
	} else {
		report = a.normalizer.Normalize(raw, normReq)
	}
	observe(StepFormat, stepStart)

	result := &Result{
		Report:            report,
		UsedFallbackPage:  usedFallbackPage,
		UsedFallbackModel: report.UsedFallback,
	}

	if a.history != nil {
		entry, saved, herr := a.history.SaveIfFresh(ctx, report, a.now())
		switch {
		case herr != nil:
			logger.Warn("Failed to record analysis in history", zap.Error(herr))
		case saved:
			result.HistoryID = entry.ID
		}
	}

	status := "success"
	if report.UsedFallback {
		status = "fallback"
	}
	metrics.AnalysisTotal.WithLabelValues(status).Inc()
	metrics.AnalysisDuration.WithLabelValues(string(req.Settings.AnalysisDepth)).Observe(time.Since(start).Seconds())
	metrics.OverallScore.Observe(float64(report.OverallScore))

	logger.Info("Analysis completed",
		zap.String("url", targetURL),
		zap.Int("overall_score", report.OverallScore),
		zap.Bool("fallback_page", usedFallbackPage),
		zap.Bool("fallback_report", report.UsedFallback),
		zap.Duration("duration", time.Since(start)),
	)

	return result, nil
}

func validate(req Request) (string, error) {
	targetURL, err := scraper.NormalizeURL(req.URL)
	if err != nil {
		return "", &ValidationError{Err: err}
	}
	if err := req.Settings.Validate(); err != nil {
		return "", &ValidationError{Err: err}
	}
	if req.Settings.AIAPIKey == "" {
		return "", &ValidationError{Err: fmt.Errorf("%w for %s", llm.ErrMissingAPIKey, req.Settings.AIProvider)}
	}
	return targetURL, nil
}

func IsValidationError(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}
