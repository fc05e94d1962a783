package models

// AnalysisPayload is the result document the stub backend serves from
// GET /api/v1/results/:id. Sections deliberately mixes shapes.
type AnalysisPayload struct {
	Status       string         `json:"status"`
	JobID        string         `json:"jobId"`
	OverallScore *int           `json:"overall_score,omitempty"`
	Sections     map[string]any `json:"sections,omitempty"`
	Strengths    []string       `json:"strengths,omitempty"`
	Improvements []string       `json:"improvements,omitempty"`

	WordCount         *int   `json:"word_count,omitempty"`
	WordCountStatus   string `json:"word_count_status,omitempty"`
	WordCountFeedback string `json:"word_count_feedback,omitempty"`

	GapCount       *int            `json:"gap_count,omitempty"`
	EmploymentGaps []EmploymentGap `json:"employment_gaps,omitempty"`
	GapFeedback    []string        `json:"gap_feedback,omitempty"`

	Note  string `json:"note,omitempty"`
	Error string `json:"error,omitempty"`
}

// ComparePayload is the body of POST /api/v1/compare.
type ComparePayload struct {
	FitPercentage   float64  `json:"fit_percentage"`
	OverallScore    int      `json:"overall_score"`
	FitCategory     string   `json:"fit_category"`
	MatchedSkills   []string `json:"matched_skills"`
	MissingSkills   []string `json:"missing_skills"`
	Recommendations []string `json:"recommendations"`
}
