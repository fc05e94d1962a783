package report

import (
	"math"

	"github.com/vishwambharaRH/Resume-Analyzer/internal/models"
)

const SourceDefault = "default"

// Newer backends send a recomputed aggregate, older ones only the job-fit
// percentage. Both spellings of each are accepted.
var (
	aggregateFields = []string{"overall_score", "overallScore"}
	legacyFields    = []string{"fit_percentage", "fitPercentage"}
)

// SelectScore picks the overall score from a raw payload: the aggregate field
// wins over the fit percentage, and a payload with neither scores 0. The
// result is rounded and clamped to [0,100].
func SelectScore(raw any) models.ScoreBundle {
	obj, ok := raw.(map[string]any)
	if !ok {
		return models.ScoreBundle{Source: SourceDefault}
	}

	for _, fields := range [][]string{aggregateFields, legacyFields} {
		for _, field := range fields {
			if n, ok := number(obj[field]); ok {
				return models.ScoreBundle{OverallScore: clampScore(n), Source: field}
			}
		}
	}
	return models.ScoreBundle{Source: SourceDefault}
}

// clampScore bounds n before converting, since an out-of-range float has no
// defined int value.
func clampScore(n float64) int {
	switch {
	case math.IsNaN(n) || n <= 0:
		return 0
	case n >= 100:
		return 100
	}
	return int(math.Round(n))
}

// Rate buckets a score into the label shown next to it.
func Rate(score int) string {
	switch {
	case score > 70:
		return "Strong"
	case score > 49:
		return "Good Start"
	default:
		return "Needs Work"
	}
}
