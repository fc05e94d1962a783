package repositories

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/vishwambharaRH/Resume-Analyzer/internal/models"
)

// memoryJobRepository backs the stub when no database is configured.
type memoryJobRepository struct {
	mu   sync.RWMutex
	jobs map[uuid.UUID]models.AnalysisJob
}

func NewMemoryJobRepository() JobRepository {
	return &memoryJobRepository{jobs: make(map[uuid.UUID]models.AnalysisJob)}
}

func (r *memoryJobRepository) Create(job *models.AnalysisJob) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if job.ID == uuid.Nil {
		job.ID = uuid.New()
	}
	now := time.Now()
	if job.CreatedAt.IsZero() {
		job.CreatedAt = now
	}
	job.UpdatedAt = now
	if job.Status == "" {
		job.Status = models.StatusQueued
	}
	r.jobs[job.ID] = *job
	return nil
}

func (r *memoryJobRepository) FindByID(id uuid.UUID) (*models.AnalysisJob, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	job, ok := r.jobs[id]
	if !ok {
		return nil, ErrJobNotFound
	}
	return &job, nil
}

func (r *memoryJobRepository) UpdateStatus(id uuid.UUID, status models.JobStatus) error {
	return r.modify(id, func(job *models.AnalysisJob) {
		job.Status = status
	})
}

func (r *memoryJobRepository) UpdateResult(id uuid.UUID, status models.JobStatus, payload string) error {
	return r.modify(id, func(job *models.AnalysisJob) {
		job.Status = status
		job.Result = &payload
	})
}

func (r *memoryJobRepository) UpdateError(id uuid.UUID, errorMsg string) error {
	return r.modify(id, func(job *models.AnalysisJob) {
		job.Status = models.StatusFailed
		job.ErrorMessage = &errorMsg
	})
}

func (r *memoryJobRepository) FindPendingJobs(limit int) ([]models.AnalysisJob, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var pending []models.AnalysisJob
	for _, job := range r.jobs {
		if job.Status == models.StatusQueued {
			pending = append(pending, job)
		}
	}
	sort.Slice(pending, func(i, j int) bool {
		return pending[i].CreatedAt.Before(pending[j].CreatedAt)
	})
	if limit > 0 && len(pending) > limit {
		pending = pending[:limit]
	}
	return pending, nil
}

func (r *memoryJobRepository) modify(id uuid.UUID, fn func(*models.AnalysisJob)) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	job, ok := r.jobs[id]
	if !ok {
		return ErrJobNotFound
	}
	fn(&job)
	job.UpdatedAt = time.Now()
	r.jobs[id] = job
	return nil
}
