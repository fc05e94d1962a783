package report

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSelectScore(t *testing.T) {
	tests := []struct {
		name       string
		doc        string
		wantScore  int
		wantSource string
	}{
		{"aggregate wins over fit percentage", `{"overall_score": 57, "fit_percentage": 80}`, 57, "overall_score"},
		{"fit percentage used when aggregate absent", `{"fit_percentage": 80}`, 80, "fit_percentage"},
		{"empty object defaults to zero", `{}`, 0, SourceDefault},
		{"camel case aggregate", `{"overallScore": 87}`, 87, "overallScore"},
		{"camel case fit", `{"fitPercentage": 61.4}`, 61, "fitPercentage"},
		{"zero aggregate still wins", `{"overall_score": 0, "fit_percentage": 80}`, 0, "overall_score"},
		{"non-numeric aggregate is ignored", `{"overall_score": "57", "fit_percentage": 80}`, 80, "fit_percentage"},
		{"null aggregate is ignored", `{"overall_score": null, "fit_percentage": 33}`, 33, "fit_percentage"},
		{"rounds half up", `{"overall_score": 56.5}`, 57, "overall_score"},
		{"rounds down", `{"fit_percentage": 79.4}`, 79, "fit_percentage"},
		{"clamps above 100", `{"overall_score": 140}`, 100, "overall_score"},
		{"clamps below 0", `{"overall_score": -3}`, 0, "overall_score"},
		{"huge aggregate clamps to 100", `{"overall_score": 1e20}`, 100, "overall_score"},
		{"huge negative aggregate clamps to 0", `{"overall_score": -1e20}`, 0, "overall_score"},
		{"huge fit percentage clamps to 100", `{"fit_percentage": 1e300}`, 100, "fit_percentage"},
		{"array payload", `[1, 2]`, 0, SourceDefault},
		{"string payload", `"95"`, 0, SourceDefault},
		{"null payload", `null`, 0, SourceDefault},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SelectScore(decode(t, tt.doc))
			assert.Equal(t, tt.wantScore, got.OverallScore)
			assert.Equal(t, tt.wantSource, got.Source)
		})
	}
}

func TestRate(t *testing.T) {
	assert.Equal(t, "Strong", Rate(71))
	assert.Equal(t, "Good Start", Rate(70))
	assert.Equal(t, "Good Start", Rate(50))
	assert.Equal(t, "Needs Work", Rate(49))
	assert.Equal(t, "Needs Work", Rate(0))
}
