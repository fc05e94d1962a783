package report

import (
	"math"
	"sort"

	"github.com/vishwambharaRH/Resume-Analyzer/internal/models"
)

// Known resume sections come first, in the order a resume is usually read.
var canonicalOrder = []string{"education", "experience", "skills", "projects"}

// Assemble builds one ViewModel from raw sections, per-key fallbacks, the
// selected score and the auxiliary analyses. Every key present in either map
// gets exactly one section; raw sections decide the shape when both exist.
func Assemble(
	sections map[string]any,
	fallback map[string]models.NormalizedSection,
	score models.ScoreBundle,
	aux models.Auxiliary,
) models.ViewModel {
	keys := sectionKeys(sections, fallback)

	out := make([]models.NormalizedSection, 0, len(keys))
	for _, key := range keys {
		var fb *models.NormalizedSection
		if s, ok := fallback[key]; ok {
			fb = &s
		}
		out = append(out, Normalize(key, sections[key], fb))
	}

	return models.ViewModel{
		Score:    score,
		Rating:   Rate(score.OverallScore),
		Sections: out,
		Length:   cloneLength(aux.Length),
		Gaps:     cloneGaps(aux.Gaps),
	}
}

// FromPayload assembles a ViewModel from a whole result payload. Anything that
// is not an object yields a view built from fallback sections alone.
func FromPayload(raw any, fallback map[string]models.NormalizedSection) models.ViewModel {
	obj, _ := raw.(map[string]any)
	sections, _ := obj["sections"].(map[string]any)

	view := Assemble(sections, fallback, SelectScore(raw), ParseAuxiliary(raw))
	view.JobID = stringField(obj, "jobId", "job_id")
	view.Status = stringField(obj, "status")
	view.Note = stringField(obj, "note")

	feedback, _ := obj["feedback"].(map[string]any)
	view.Strengths = firstList(obj["strengths"], feedback["strengths"])
	view.Improvements = firstList(obj["improvements"], feedback["improvements"], feedback["suggestions"])
	return view
}

// KnownGood returns the sections of view that carried data, keyed for use as
// fallbacks on the next cycle.
func KnownGood(view models.ViewModel) map[string]models.NormalizedSection {
	good := make(map[string]models.NormalizedSection, len(view.Sections))
	for _, s := range view.Sections {
		if s.Available() {
			good[s.Key] = s
		}
	}
	return good
}

// toCount converts a JSON number to a non-negative int without overflowing.
func toCount(n float64) int {
	switch {
	case math.IsNaN(n) || n <= 0:
		return 0
	case n >= math.MaxInt32:
		return math.MaxInt32
	}
	return int(n)
}

// ParseAuxiliary extracts the length and employment-gap analyses, when present.
func ParseAuxiliary(raw any) models.Auxiliary {
	obj, ok := raw.(map[string]any)
	if !ok {
		return models.Auxiliary{}
	}

	var aux models.Auxiliary
	if n, ok := number(obj["word_count"]); ok {
		status := stringField(obj, "word_count_status")
		if status == "" {
			status = "unknown"
		}
		aux.Length = &models.LengthAnalysis{
			WordCount: toCount(n),
			Status:    status,
			Feedback:  stringField(obj, "word_count_feedback"),
		}
	}

	_, hasCount := obj["gap_count"]
	_, hasGaps := obj["employment_gaps"]
	_, hasFeedback := obj["gap_feedback"]
	if hasCount || hasGaps || hasFeedback {
		gaps := parseGaps(obj["employment_gaps"])
		count := len(gaps)
		if n, ok := number(obj["gap_count"]); ok {
			count = toCount(n)
		}
		aux.Gaps = &models.GapAnalysis{
			Count:    count,
			Gaps:     gaps,
			Feedback: firstList(obj["gap_feedback"]),
		}
	}
	return aux
}

func parseGaps(raw any) []models.EmploymentGap {
	list, _ := raw.([]any)
	gaps := make([]models.EmploymentGap, 0, len(list))
	for _, elem := range list {
		obj, ok := elem.(map[string]any)
		if !ok {
			continue
		}
		months, _ := number(obj["gap_months"])
		gaps = append(gaps, models.EmploymentGap{
			Months:      months,
			Start:       stringField(obj, "gap_start"),
			End:         stringField(obj, "gap_end"),
			PreviousJob: stringField(obj, "previous_job"),
			NextJob:     stringField(obj, "next_job"),
		})
	}
	return gaps
}

func sectionKeys(sections map[string]any, fallback map[string]models.NormalizedSection) []string {
	seen := make(map[string]bool, len(sections)+len(fallback))
	var rest []string
	add := func(key string) {
		if seen[key] {
			return
		}
		seen[key] = true
		rest = append(rest, key)
	}
	for key := range sections {
		add(key)
	}
	for key := range fallback {
		add(key)
	}

	keys := make([]string, 0, len(rest))
	for _, key := range canonicalOrder {
		if seen[key] {
			keys = append(keys, key)
			delete(seen, key)
		}
	}
	var others []string
	for _, key := range rest {
		if seen[key] {
			others = append(others, key)
		}
	}
	sort.Strings(others)
	return append(keys, others...)
}

func stringField(obj map[string]any, names ...string) string {
	for _, name := range names {
		if s, ok := obj[name].(string); ok {
			return s
		}
	}
	return ""
}

// firstList returns the first candidate that is a list, stringified.
func firstList(candidates ...any) []string {
	for _, c := range candidates {
		switch c.(type) {
		case []any, []string:
			return listItems(c)
		}
	}
	return nil
}

func cloneLength(l *models.LengthAnalysis) *models.LengthAnalysis {
	if l == nil {
		return nil
	}
	out := *l
	return &out
}

func cloneGaps(g *models.GapAnalysis) *models.GapAnalysis {
	if g == nil {
		return nil
	}
	out := *g
	out.Gaps = append([]models.EmploymentGap{}, g.Gaps...)
	out.Feedback = append([]string{}, g.Feedback...)
	return &out
}
