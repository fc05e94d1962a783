package services

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vishwambharaRH/Resume-Analyzer/internal/models"
	"github.com/vishwambharaRH/Resume-Analyzer/internal/report"
	"github.com/vishwambharaRH/Resume-Analyzer/internal/repositories"
)

const sampleResume = `JOHN DOE
john@example.com

EDUCATION
BS Computer Science, MIT, 2020

EXPERIENCE
Software Engineer, Google, 2020-Present
Developed scalable APIs

PROJECTS
AI Chatbot using NLP
Built with Python and spaCy
`

func TestDetectSections(t *testing.T) {
	got := DetectSections(sampleResume + "\nTechnical Skills:\nGo, Python | Docker\n")

	assert.Equal(t, []string{"BS Computer Science, MIT, 2020"}, got["education"])
	assert.Equal(t, []string{"Software Engineer, Google, 2020-Present", "Developed scalable APIs"}, got["experience"])
	assert.Len(t, got["projects"], 2)
	assert.Equal(t, []string{"Go, Python | Docker"}, got["skills"])
	assert.NotContains(t, got, "summary")
}

func TestDetectSections_EmptyHeadingIsPresent(t *testing.T) {
	got := DetectSections("SKILLS\n\nEDUCATION\nBSc")

	require.Contains(t, got, "skills")
	assert.Empty(t, got["skills"])
}

func TestAnalyzeText(t *testing.T) {
	payload := AnalyzeText("job-1", sampleResume)

	assert.Equal(t, "completed", payload.Status)
	assert.Equal(t, "job-1", payload.JobID)
	require.NotNil(t, payload.OverallScore)
	assert.Equal(t, 75, *payload.OverallScore)
	assert.Equal(t, []string{"Resume partially complete"}, payload.Strengths)
	assert.Equal(t, []string{"Add skills section"}, payload.Improvements)
	assert.Equal(t, "BS Computer Science, MIT, 2020", payload.Sections["education"])
	assert.Equal(t, "too_short", payload.WordCountStatus)
	require.NotNil(t, payload.GapCount)
	assert.Zero(t, *payload.GapCount)
}

func TestAnalyzeText_AllSectionsPresent(t *testing.T) {
	payload := AnalyzeText("job", sampleResume+"\nSKILLS\nGo, SQL\nKubernetes\n")

	assert.Equal(t, 100, *payload.OverallScore)
	assert.Equal(t, []string{"4 sections present", "Clear structure"}, payload.Strengths)
	assert.Empty(t, payload.Improvements)

	skills, ok := payload.Sections["skills"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, 70, skills["score"])
	assert.Equal(t, []string{"Go", "SQL", "Kubernetes"}, skills["items"])
}

func TestAnalyzeText_ReadsBackThroughTheReportPipeline(t *testing.T) {
	body, err := json.Marshal(AnalyzeText("job", sampleResume+"\nSKILLS\nGo, SQL\n"))
	require.NoError(t, err)
	var raw any
	require.NoError(t, json.Unmarshal(body, &raw))

	view := report.FromPayload(raw, nil)

	assert.Equal(t, 100, view.Score.OverallScore)
	assert.Equal(t, "completed", view.Status)

	skills, ok := view.Section("skills")
	require.True(t, ok)
	assert.Equal(t, models.ShapeScoredList, skills.Shape)
	education, _ := view.Section("education")
	assert.Equal(t, models.ShapePlainText, education.Shape)
	experience, _ := view.Section("experience")
	assert.Equal(t, models.ShapePlainList, experience.Shape)

	require.NotNil(t, view.Length)
	assert.Equal(t, "too_short", view.Length.Status)
	require.NotNil(t, view.Gaps)
	assert.Zero(t, view.Gaps.Count)
}

func TestPartialAnalysis(t *testing.T) {
	payload := PartialAnalysis("job", sampleResume)

	assert.Equal(t, "processing", payload.Status)
	assert.Nil(t, payload.OverallScore)
	assert.Equal(t, "Software Engineer, Google, 2020-Present", payload.Sections["experience"])
	require.NotNil(t, payload.WordCount)
}

func TestWordCount(t *testing.T) {
	tests := []struct {
		words  int
		status string
	}{
		{0, "too_short"},
		{299, "too_short"},
		{300, "optimal"},
		{1500, "optimal"},
		{1501, "too_long"},
	}

	for _, tt := range tests {
		count, status, feedback := WordCount(strings.Repeat("word ", tt.words))
		assert.Equal(t, tt.words, count)
		assert.Equal(t, tt.status, status, "%d words", tt.words)
		assert.NotEmpty(t, feedback)
	}
}

func TestCompareText(t *testing.T) {
	resume := "SKILLS\nGo, Python, Docker\nEDUCATION\nBSc"

	got := CompareText(resume, "We are looking for Go and Kubernetes with Docker experience")

	assert.Equal(t, []string{"docker", "go"}, got.MatchedSkills)
	assert.Equal(t, []string{"kubernetes"}, got.MissingSkills)
	assert.Equal(t, 66.7, got.FitPercentage)
	assert.Equal(t, "Good Fit", got.FitCategory)
	// 0.6*66.7 + 0.4*50
	assert.Equal(t, 60, got.OverallScore)
	assert.Len(t, got.Recommendations, 1)
}

func TestCompareText_EmptyDescription(t *testing.T) {
	got := CompareText("SKILLS\nGo", "the and of")

	assert.Zero(t, got.FitPercentage)
	assert.Equal(t, "Poor Fit", got.FitCategory)
	assert.NotNil(t, got.MatchedSkills)
	assert.NotNil(t, got.MissingSkills)
}

func TestDemoPayload(t *testing.T) {
	payload := DemoPayload("unknown")

	assert.Equal(t, "unknown", payload.JobID)
	assert.NotEmpty(t, payload.Note)
	assert.Equal(t, 75, *payload.OverallScore)
}

func newQueuedJob(t *testing.T, repo repositories.JobRepository, content string) *models.AnalysisJob {
	t.Helper()
	path := filepath.Join(t.TempDir(), "resume.txt")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	job := &models.AnalysisJob{
		Filename:         "resume.txt",
		OriginalFileName: "resume.txt",
		FilePath:         path,
		FileSize:         int64(len(content)),
		Status:           models.StatusQueued,
	}
	require.NoError(t, repo.Create(job))
	return job
}

func TestAnalyzerService_AnalyzeResume(t *testing.T) {
	repo := repositories.NewMemoryJobRepository()
	job := newQueuedJob(t, repo, sampleResume)
	analyzer := NewAnalyzerService(repo, NewTextExtractor(), time.Millisecond)

	require.NoError(t, analyzer.AnalyzeResume(context.Background(), job.ID))

	stored, err := repo.FindByID(job.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusCompleted, stored.Status)
	require.NotNil(t, stored.Result)

	var payload models.AnalysisPayload
	require.NoError(t, json.Unmarshal([]byte(*stored.Result), &payload))
	assert.Equal(t, job.ID.String(), payload.JobID)
	assert.Equal(t, 75, *payload.OverallScore)
}

func TestAnalyzerService_ExtractionFailureMarksJobFailed(t *testing.T) {
	repo := repositories.NewMemoryJobRepository()
	job := newQueuedJob(t, repo, "   \n  ")
	analyzer := NewAnalyzerService(repo, NewTextExtractor(), time.Millisecond)

	err := analyzer.AnalyzeResume(context.Background(), job.ID)

	assert.ErrorIs(t, err, ErrNoText)
	stored, _ := repo.FindByID(job.ID)
	assert.Equal(t, models.StatusFailed, stored.Status)
	require.NotNil(t, stored.ErrorMessage)
}

func TestAnalyzerService_SkipsJobsAlreadyTaken(t *testing.T) {
	repo := repositories.NewMemoryJobRepository()
	job := newQueuedJob(t, repo, sampleResume)
	require.NoError(t, repo.UpdateStatus(job.ID, models.StatusProcessing))
	analyzer := NewAnalyzerService(repo, NewTextExtractor(), time.Millisecond)

	require.NoError(t, analyzer.AnalyzeResume(context.Background(), job.ID))

	stored, _ := repo.FindByID(job.ID)
	assert.Equal(t, models.StatusProcessing, stored.Status)
	assert.Nil(t, stored.Result)
}

func TestAnalyzerService_Interrupted(t *testing.T) {
	repo := repositories.NewMemoryJobRepository()
	job := newQueuedJob(t, repo, sampleResume)
	analyzer := NewAnalyzerService(repo, NewTextExtractor(), time.Hour)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := analyzer.AnalyzeResume(ctx, job.ID)

	assert.ErrorIs(t, err, context.DeadlineExceeded)
	stored, _ := repo.FindByID(job.ID)
	assert.Equal(t, models.StatusFailed, stored.Status)
}
