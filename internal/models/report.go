package models

// Shape is the closed set of payload shapes a result fragment can take.
type Shape int

const (
	ShapeAbsent Shape = iota
	ShapeScoredList
	ShapePlainList
	ShapePlainText
)

func (s Shape) String() string {
	switch s {
	case ShapeScoredList:
		return "scored_list"
	case ShapePlainList:
		return "plain_list"
	case ShapePlainText:
		return "plain_text"
	default:
		return "absent"
	}
}

// NormalizedSection is the uniform, renderable form of one result section.
type NormalizedSection struct {
	Key   string   `json:"key"`
	Score *float64 `json:"score,omitempty"`
	Items []string `json:"items"`
	// Raw is the fragment the section was built from, extra fields included.
	Raw   any   `json:"raw,omitempty"`
	Shape Shape `json:"shape"`
	// Fallback is set when the section was substituted for missing live data.
	Fallback bool `json:"fallback,omitempty"`
}

// Available reports whether the section carries any data.
func (s NormalizedSection) Available() bool {
	return s.Shape != ShapeAbsent
}

// ScoreBundle carries the single authoritative overall score.
type ScoreBundle struct {
	OverallScore int    `json:"overall_score"`
	Source       string `json:"source"`
}

type LengthAnalysis struct {
	WordCount int    `json:"word_count"`
	Status    string `json:"word_count_status"`
	Feedback  string `json:"word_count_feedback"`
}

type EmploymentGap struct {
	Months      float64 `json:"gap_months"`
	Start       string  `json:"gap_start"`
	End         string  `json:"gap_end"`
	PreviousJob string  `json:"previous_job"`
	NextJob     string  `json:"next_job"`
}

type GapAnalysis struct {
	Count    int             `json:"gap_count"`
	Gaps     []EmploymentGap `json:"employment_gaps"`
	Feedback []string        `json:"gap_feedback"`
}

// Auxiliary groups the optional analyses shown next to the score breakdown.
type Auxiliary struct {
	Length *LengthAnalysis
	Gaps   *GapAnalysis
}

// ViewModel is the fully resolved snapshot handed to a renderer. A new value
// is produced on every refresh; callers must not modify one in place.
type ViewModel struct {
	JobID        string              `json:"job_id,omitempty"`
	Status       string              `json:"status,omitempty"`
	Note         string              `json:"note,omitempty"`
	Score        ScoreBundle         `json:"score"`
	Rating       string              `json:"rating"`
	Sections     []NormalizedSection `json:"sections"`
	Strengths    []string            `json:"strengths,omitempty"`
	Improvements []string            `json:"improvements,omitempty"`
	Length       *LengthAnalysis     `json:"length,omitempty"`
	Gaps         *GapAnalysis        `json:"gaps,omitempty"`
}

// Section returns the section stored under key.
func (v ViewModel) Section(key string) (NormalizedSection, bool) {
	for _, s := range v.Sections {
		if s.Key == key {
			return s, true
		}
	}
	return NormalizedSection{}, false
}
