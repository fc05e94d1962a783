package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/vishwambharaRH/Resume-Analyzer/internal/models"
	"github.com/vishwambharaRH/Resume-Analyzer/internal/repositories"
)

const (
	MinWordCount = 300
	MaxWordCount = 1500
)

// RequiredSections are the sections a complete resume has, in reading order.
var RequiredSections = []string{"education", "experience", "skills", "projects"}

var sectionHeadings = map[string]string{
	"EDUCATION":            "education",
	"ACADEMIC BACKGROUND":  "education",
	"EXPERIENCE":           "experience",
	"WORK EXPERIENCE":      "experience",
	"EMPLOYMENT HISTORY":   "experience",
	"PROFESSIONAL SUMMARY": "summary",
	"SUMMARY":              "summary",
	"SKILLS":               "skills",
	"TECHNICAL SKILLS":     "skills",
	"PROJECTS":             "projects",
	"CERTIFICATIONS":       "certifications",
}

type AnalyzerService interface {
	AnalyzeResume(ctx context.Context, jobID uuid.UUID) error
}

type analyzerService struct {
	jobRepo         repositories.JobRepository
	extractor       TextExtractor
	processingDelay time.Duration
}

func NewAnalyzerService(
	jobRepo repositories.JobRepository,
	extractor TextExtractor,
	processingDelay time.Duration,
) AnalyzerService {
	return &analyzerService{
		jobRepo:         jobRepo,
		extractor:       extractor,
		processingDelay: processingDelay,
	}
}

// AnalyzeResume moves a job through processing to completed. A partial payload
// is visible while the job is processing.
func (a *analyzerService) AnalyzeResume(ctx context.Context, jobID uuid.UUID) error {
	job, err := a.jobRepo.FindByID(jobID)
	if err != nil {
		return fmt.Errorf("failed to get job: %w", err)
	}
	if job.Status != models.StatusQueued {
		// Picked up twice: once from the queue and once by the sweep.
		return nil
	}

	if err := a.jobRepo.UpdateStatus(jobID, models.StatusProcessing); err != nil {
		return fmt.Errorf("failed to update status: %w", err)
	}

	log.Printf("🔄 Starting analysis for job ID: %s\n", jobID)

	log.Println("📄 Extracting resume text...")
	content, err := a.extractor.ExtractTextWithMetaData(job.FilePath)
	if err != nil {
		a.jobRepo.UpdateError(jobID, fmt.Sprintf("Failed to extract text: %v", err))
		return fmt.Errorf("failed to extract text: %w", err)
	}

	if err := a.store(jobID, models.StatusProcessing, PartialAnalysis(jobID.String(), content.Text)); err != nil {
		return err
	}

	select {
	case <-ctx.Done():
		a.jobRepo.UpdateError(jobID, "analysis interrupted")
		return ctx.Err()
	case <-time.After(a.processingDelay):
	}

	log.Println("🧮 Building analysis report...")
	if err := a.store(jobID, models.StatusCompleted, AnalyzeText(jobID.String(), content.Text)); err != nil {
		return err
	}

	log.Printf("✅ Analysis completed successfully for job ID: %s\n", jobID)
	return nil
}

func (a *analyzerService) store(jobID uuid.UUID, status models.JobStatus, payload models.AnalysisPayload) error {
	body, err := json.Marshal(payload)
	if err != nil {
		a.jobRepo.UpdateError(jobID, err.Error())
		return fmt.Errorf("failed to encode payload: %w", err)
	}
	if err := a.jobRepo.UpdateResult(jobID, status, string(body)); err != nil {
		return fmt.Errorf("failed to save results: %w", err)
	}
	return nil
}

// DetectSections splits resume text into sections keyed by canonical name.
// Lines before the first recognised heading are ignored.
func DetectSections(text string) map[string][]string {
	sections := make(map[string][]string)
	current := ""
	for _, line := range strings.Split(CleanText(text), "\n") {
		heading := strings.ToUpper(strings.TrimRight(line, ": "))
		if key, ok := sectionHeadings[heading]; ok {
			current = key
			if _, seen := sections[key]; !seen {
				sections[key] = []string{}
			}
			continue
		}
		if current != "" && line != "" {
			sections[current] = append(sections[current], line)
		}
	}
	return sections
}

// AnalyzeText builds the completed payload for a resume.
func AnalyzeText(jobID, text string) models.AnalysisPayload {
	detected := DetectSections(text)

	var present, missing []string
	for _, key := range RequiredSections {
		if _, ok := detected[key]; ok {
			present = append(present, key)
		} else {
			missing = append(missing, key)
		}
	}
	score := int(math.Round(float64(len(present)) / float64(len(RequiredSections)) * 100))

	sections := make(map[string]any, len(detected))
	for key, lines := range detected {
		switch key {
		case "skills":
			sections[key] = map[string]any{
				"score": sectionScore(lines),
				"items": splitSkills(lines),
			}
		case "education", "summary":
			sections[key] = strings.Join(lines, "; ")
		default:
			sections[key] = lines
		}
	}

	strengths := []string{"Resume partially complete"}
	if len(missing) == 0 {
		strengths = []string{fmt.Sprintf("%d sections present", len(present)), "Clear structure"}
	}
	improvements := make([]string, 0, len(missing))
	for _, key := range missing {
		improvements = append(improvements, fmt.Sprintf("Add %s section", key))
	}

	words, status, feedback := WordCount(text)
	gapCount := 0

	return models.AnalysisPayload{
		Status:            string(models.StatusCompleted),
		JobID:             jobID,
		OverallScore:      &score,
		Sections:          sections,
		Strengths:         strengths,
		Improvements:      improvements,
		WordCount:         &words,
		WordCountStatus:   status,
		WordCountFeedback: feedback,
		GapCount:          &gapCount,
		EmploymentGaps:    []models.EmploymentGap{},
		GapFeedback:       []string{"No significant employment gaps detected."},
	}
}

// PartialAnalysis is what a processing job exposes: section headings found so
// far as plain text, with no score yet.
func PartialAnalysis(jobID, text string) models.AnalysisPayload {
	sections := make(map[string]any)
	for key, lines := range DetectSections(text) {
		if len(lines) > 0 {
			sections[key] = lines[0]
		}
	}
	words, _, _ := WordCount(text)
	return models.AnalysisPayload{
		Status:    string(models.StatusProcessing),
		JobID:     jobID,
		Sections:  sections,
		WordCount: &words,
	}
}

// DemoPayload is served for ids the backend has never seen.
func DemoPayload(jobID string) models.AnalysisPayload {
	score := 75
	return models.AnalysisPayload{
		Status:       string(models.StatusCompleted),
		JobID:        jobID,
		OverallScore: &score,
		Sections: map[string]any{
			"education":  []any{"BS Computer Science, MIT, 2020"},
			"skills":     []any{},
			"experience": []any{"Software Engineer, Google, 2020-Present"},
			"projects":   []any{"AI Chatbot using NLP"},
		},
		Strengths:    []string{"Resume partially complete"},
		Improvements: []string{"Add skills section"},
		Note:         "demo data: no upload exists for this job id",
	}
}

// WordCount classifies resume length against the 300..1500 word band.
func WordCount(text string) (int, string, string) {
	count := len(strings.Fields(text))
	switch {
	case count < MinWordCount:
		return count, "too_short", fmt.Sprintf(
			"Your resume is only %d words. Aim for at least %d words to provide sufficient detail about your experience and skills.",
			count, MinWordCount)
	case count > MaxWordCount:
		return count, "too_long", fmt.Sprintf(
			"Your resume is %d words, which is quite lengthy. Consider condensing to under %d words to maintain recruiter attention.",
			count, MaxWordCount)
	default:
		return count, "optimal", fmt.Sprintf(
			"Your resume length (%d words) is appropriate. Good balance of detail and brevity.", count)
	}
}

// CompareText scores resume text against a job description by keyword overlap.
func CompareText(text, jobDescription string) models.ComparePayload {
	wanted := keywords(jobDescription)
	have := make(map[string]bool)
	for _, k := range keywords(text) {
		have[k] = true
	}

	matched := []string{}
	missing := []string{}
	for _, k := range wanted {
		if have[k] {
			matched = append(matched, k)
		} else {
			missing = append(missing, k)
		}
	}

	fit := 0.0
	if len(wanted) > 0 {
		fit = math.Round(float64(len(matched))/float64(len(wanted))*1000) / 10
	}

	completeness := 0
	if analysis := AnalyzeText("", text); analysis.OverallScore != nil {
		completeness = *analysis.OverallScore
	}
	overall := int(math.Round(fit*0.6 + float64(completeness)*0.4))

	recommendations := []string{}
	for i, k := range missing {
		if i == 5 {
			break
		}
		recommendations = append(recommendations, fmt.Sprintf("Consider adding experience with %s", k))
	}

	return models.ComparePayload{
		FitPercentage:   fit,
		OverallScore:    overall,
		FitCategory:     fitCategory(fit),
		MatchedSkills:   matched,
		MissingSkills:   missing,
		Recommendations: recommendations,
	}
}

func fitCategory(fit float64) string {
	switch {
	case fit >= 80:
		return "Excellent Fit"
	case fit >= 60:
		return "Good Fit"
	case fit >= 40:
		return "Moderate Fit"
	default:
		return "Poor Fit"
	}
}

func sectionScore(lines []string) int {
	score := 40 + 15*len(lines)
	if score > 100 {
		return 100
	}
	return score
}

func splitSkills(lines []string) []string {
	skills := []string{}
	for _, line := range lines {
		for _, s := range strings.FieldsFunc(line, func(r rune) bool { return r == ',' || r == '|' || r == ';' }) {
			if s = strings.TrimSpace(s); s != "" {
				skills = append(skills, s)
			}
		}
	}
	return skills
}

var stopWords = map[string]bool{
	"a": true, "an": true, "and": true, "are": true, "as": true, "at": true, "be": true,
	"by": true, "for": true, "from": true, "in": true, "is": true, "it": true, "of": true,
	"on": true, "or": true, "our": true, "the": true, "to": true, "we": true, "will": true,
	"with": true, "you": true, "your": true, "have": true, "has": true, "looking": true,
	"years": true, "year": true, "experience": true, "work": true, "team": true, "strong": true,
	"ability": true, "skills": true, "knowledge": true, "plus": true, "must": true,
}

// keywords returns the distinct lowercase terms of text in sorted order.
func keywords(text string) []string {
	seen := make(map[string]bool)
	for _, word := range strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !(r >= 'a' && r <= 'z' || r >= '0' && r <= '9' || r == '+' || r == '#')
	}) {
		if len(word) < 2 || stopWords[word] {
			continue
		}
		seen[word] = true
	}
	out := make([]string, 0, len(seen))
	for w := range seen {
		out = append(out, w)
	}
	sort.Strings(out)
	return out
}
