package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/dustin/go-humanize"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/vishwambharaRH/Resume-Analyzer/internal/models"
	"github.com/vishwambharaRH/Resume-Analyzer/internal/report"
	"github.com/vishwambharaRH/Resume-Analyzer/internal/services"
)

var title = cases.Title(language.English)

func renderFile(w io.Writer, meta models.FileMeta) {
	fmt.Fprintf(w, "📄 %s (%s", meta.Name, humanize.IBytes(uint64(meta.SizeBytes)))
	if meta.Pages > 0 {
		fmt.Fprintf(w, ", %s", pluralPages(meta.Pages))
	}
	fmt.Fprintln(w, ")")
}

func pluralPages(n int) string {
	if n == 1 {
		return "1 page"
	}
	return fmt.Sprintf("%d pages", n)
}

// progressPrinter returns an OnState callback that prints a line whenever the
// progress bar moves.
func progressPrinter(w io.Writer) func(services.State) {
	var last services.Progress
	return func(st services.State) {
		if st.Progress == last || st.Progress.Percent == 0 {
			return
		}
		last = st.Progress
		fmt.Fprintf(w, "[%3d%%] %s\n", st.Progress.Percent, st.Progress.Label)
	}
}

func renderView(w io.Writer, view models.ViewModel, downloadURL string, stale bool) {
	fmt.Fprintln(w)
	if view.Note != "" {
		fmt.Fprintf(w, "ℹ️  %s\n", view.Note)
	}
	if stale {
		fmt.Fprintln(w, "⚠️  Showing the last result received; the backend stopped responding.")
	}
	fmt.Fprintf(w, "Overall score: %d/100 (%s)\n", view.Score.OverallScore, view.Rating)

	fmt.Fprintln(w, "\nSections")
	for _, s := range view.Sections {
		renderSection(w, s)
	}

	renderList(w, "Strengths", view.Strengths)
	renderList(w, "Improvements", view.Improvements)

	if l := view.Length; l != nil {
		fmt.Fprintf(w, "\nResume length: %s words (%s)\n", humanize.Comma(int64(l.WordCount)), strings.ReplaceAll(l.Status, "_", " "))
		if l.Feedback != "" {
			fmt.Fprintf(w, "  %s\n", l.Feedback)
		}
	}
	if g := view.Gaps; g != nil {
		fmt.Fprintf(w, "\nEmployment gaps: %d\n", g.Count)
		for _, gap := range g.Gaps {
			fmt.Fprintf(w, "  - %.0f months, %s to %s\n", gap.Months, gap.Start, gap.End)
		}
		for _, f := range g.Feedback {
			fmt.Fprintf(w, "  %s\n", f)
		}
	}

	if downloadURL != "" {
		fmt.Fprintf(w, "\nDownload: %s\n", downloadURL)
	}
}

func renderSection(w io.Writer, s models.NormalizedSection) {
	heading := title.String(strings.ReplaceAll(s.Key, "_", " "))
	if s.Score != nil {
		heading = fmt.Sprintf("%s (score %.0f)", heading, *s.Score)
	}
	if s.Fallback {
		heading += " [last known]"
	}
	fmt.Fprintf(w, "  %s\n", heading)

	if !s.Available() || len(s.Items) == 0 {
		fmt.Fprintf(w, "    %s\n", report.NoData)
		return
	}
	for _, item := range s.Items {
		fmt.Fprintf(w, "    - %s\n", item)
	}
}

func renderList(w io.Writer, heading string, items []string) {
	if len(items) == 0 {
		return
	}
	fmt.Fprintf(w, "\n%s\n", heading)
	for _, item := range items {
		fmt.Fprintf(w, "  - %s\n", item)
	}
}

// renderComparison prints a job-description match. The score comes from
// SelectScore, so older backends that only send fit_percentage still work.
func renderComparison(w io.Writer, raw any) {
	score := report.SelectScore(raw)
	obj, _ := raw.(map[string]any)

	fmt.Fprintln(w)
	fmt.Fprintf(w, "Overall score: %d/100 (%s)\n", score.OverallScore, report.Rate(score.OverallScore))
	if fit, ok := obj["fit_percentage"].(float64); ok {
		category, _ := obj["fit_category"].(string)
		fmt.Fprintf(w, "Job fit: %.1f%% %s\n", fit, category)
	}
	renderList(w, "Matched skills", stringList(obj["matched_skills"]))
	renderList(w, "Missing skills", stringList(obj["missing_skills"]))
	renderList(w, "Recommendations", stringList(obj["recommendations"]))
}

func stringList(v any) []string {
	items, _ := v.([]any)
	out := make([]string, 0, len(items))
	for _, item := range items {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}
