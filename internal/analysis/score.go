package analysis

import (
	"math"

	"github.com/krug-analyzer/backend/internal/storage/models"
)

// roundHalfUp rounds .5 toward +Inf. Scores are non-negative so this is the
// conventional "round half up".
func roundHalfUp(f float64) int {
	return int(math.Floor(f + 0.5))
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func normalizeScore(v any) int {
	f, ok := asNumber(v)
	if !ok {
		return defaultScore
	}
	// Clamp before rounding so huge values cannot overflow int.
	f = math.Max(0, math.Min(100, f))
	return clamp(roundHalfUp(f), 0, 100)
}

// CalculateOverallScore is the weight-normalized mean of the included
// categories, rounded half up. An empty list scores 0.
func CalculateOverallScore(categories []models.CategoryResult) int {
	var weighted, weights float64
	for _, c := range categories {
		weighted += float64(c.Score) * float64(c.Weight)
		weights += float64(c.Weight)
	}
	if weights == 0 {
		return 0
	}
	return clamp(roundHalfUp(weighted/weights), 0, 100)
}

// Summarize counts issues by severity and takes the first topN
// recommendation actions in category order.
func Summarize(categories []models.CategoryResult, topN int) models.Summary {
	summary := models.Summary{TopRecommendations: []string{}}
	for _, c := range categories {
		for _, issue := range c.Issues {
			switch issue.Severity {
			case models.SeverityHigh:
				summary.HighCount++
			case models.SeverityMedium:
				summary.MediumCount++
			case models.SeverityLow:
				summary.LowCount++
			}
		}
		for _, rec := range c.Recommendations {
			if len(summary.TopRecommendations) >= topN {
				break
			}
			if rec.Action != "" {
				summary.TopRecommendations = append(summary.TopRecommendations, rec.Action)
			}
		}
	}
	return summary
}
