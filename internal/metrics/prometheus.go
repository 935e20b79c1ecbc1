package metrics

import (
	"sync"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	AnalysisDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "krug_analysis_duration_seconds",
			Help:    "End-to-end analysis duration in seconds",
			Buckets: []float64{1, 5, 10, 20, 40, 60, 120},
		},
		[]string{"depth"},
	)

	AnalysisTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "krug_analysis_total",
			Help: "Total number of analyses run",
		},
		[]string{"status"},
	)

	StepDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "krug_analysis_step_duration_seconds",
			Help:    "Duration of each analysis step",
			Buckets: []float64{0.01, 0.1, 0.5, 1, 5, 10, 30, 60},
		},
		[]string{"step"},
	)

	ProviderAttempts = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "krug_llm_attempts_total",
			Help: "LLM provider calls per model and outcome",
		},
		[]string{"provider", "model", "outcome"},
	)

	ProviderLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "krug_llm_latency_seconds",
			Help:    "LLM provider call latency",
			Buckets: []float64{1, 5, 10, 20, 40, 60, 120},
		},
		[]string{"provider"},
	)

	LLMTokensUsed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "krug_llm_tokens_used",
			Help: "Total LLM tokens used",
		},
		[]string{"model", "type"},
	)

	FallbacksUsed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "krug_fallbacks_total",
			Help: "Fallback substitutions by kind",
		},
		[]string{"kind"},
	)

	OverallScore = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "krug_overall_score",
			Help:    "Distribution of overall usability scores",
			Buckets: []float64{10, 20, 30, 40, 50, 60, 70, 80, 90, 100},
		},
	)

	ScrapeTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "krug_scrape_total",
			Help: "Scrape attempts by backend and outcome",
		},
		[]string{"backend", "status"},
	)

	CacheHits = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "krug_cache_hits_total",
			Help: "Total cache hits",
		},
		[]string{"cache_type"},
	)

	CacheMisses = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "krug_cache_misses_total",
			Help: "Total cache misses",
		},
		[]string{"cache_type"},
	)

	HistoryEntries = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "krug_history_entries",
			Help: "Number of entries in the analysis history",
		},
	)

	ExportsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "krug_exports_total",
			Help: "Exports generated by kind and format",
		},
		[]string{"kind", "format"},
	)
)

var registerOnce sync.Once

func Init() {
	registerOnce.Do(func() {
		prometheus.MustRegister(AnalysisDuration)
		prometheus.MustRegister(AnalysisTotal)
		prometheus.MustRegister(StepDuration)
		prometheus.MustRegister(ProviderAttempts)
		prometheus.MustRegister(ProviderLatency)
		prometheus.MustRegister(LLMTokensUsed)
		prometheus.MustRegister(FallbacksUsed)
		prometheus.MustRegister(OverallScore)
		prometheus.MustRegister(ScrapeTotal)
		prometheus.MustRegister(CacheHits)
		prometheus.MustRegister(CacheMisses)
		prometheus.MustRegister(HistoryEntries)
		prometheus.MustRegister(ExportsTotal)
	})
}

func MetricsHandler() fiber.Handler {
	return adaptor.HTTPHandler(promhttp.Handler())
}
