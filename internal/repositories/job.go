package repositories

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/vishwambharaRH/Resume-Analyzer/internal/models"
)

var ErrJobNotFound = errors.New("job not found")

type JobRepository interface {
	Create(job *models.AnalysisJob) error
	FindByID(id uuid.UUID) (*models.AnalysisJob, error)
	UpdateStatus(id uuid.UUID, status models.JobStatus) error
	// UpdateResult stores a payload and moves the job to status.
	UpdateResult(id uuid.UUID, status models.JobStatus, payload string) error
	UpdateError(id uuid.UUID, errorMsg string) error
	FindPendingJobs(limit int) ([]models.AnalysisJob, error)
}

type jobRepository struct {
	db *gorm.DB
}

func NewJobRepository(db *gorm.DB) JobRepository {
	return &jobRepository{db: db}
}

func (r *jobRepository) Create(job *models.AnalysisJob) error {
	if err := r.db.Create(job).Error; err != nil {
		return fmt.Errorf("failed to create job: %w", err)
	}
	return nil
}

func (r *jobRepository) FindByID(id uuid.UUID) (*models.AnalysisJob, error) {
	var job models.AnalysisJob
	if err := r.db.Where("id = ?", id).First(&job).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrJobNotFound
		}
		return nil, fmt.Errorf("failed to find job: %w", err)
	}
	return &job, nil
}

func (r *jobRepository) UpdateStatus(id uuid.UUID, status models.JobStatus) error {
	return r.update(id, map[string]interface{}{
		"status":     status,
		"updated_at": time.Now(),
	})
}

func (r *jobRepository) UpdateResult(id uuid.UUID, status models.JobStatus, payload string) error {
	return r.update(id, map[string]interface{}{
		"status":     status,
		"result":     payload,
		"updated_at": time.Now(),
	})
}

func (r *jobRepository) UpdateError(id uuid.UUID, errorMsg string) error {
	return r.update(id, map[string]interface{}{
		"status":        models.StatusFailed,
		"error_message": errorMsg,
		"updated_at":    time.Now(),
	})
}

func (r *jobRepository) update(id uuid.UUID, updates map[string]interface{}) error {
	result := r.db.Model(&models.AnalysisJob{}).
		Where("id = ?", id).
		Updates(updates)

	if result.Error != nil {
		return fmt.Errorf("failed to update job: %w", result.Error)
	}

	if result.RowsAffected == 0 {
		return ErrJobNotFound
	}

	return nil
}

func (r *jobRepository) FindPendingJobs(limit int) ([]models.AnalysisJob, error) {
	var jobs []models.AnalysisJob
	err := r.db.
		Where("status = ?", models.StatusQueued).
		Order("created_at ASC").
		Limit(limit).
		Find(&jobs).Error

	if err != nil {
		return nil, fmt.Errorf("failed to find pending jobs: %w", err)
	}

	return jobs, nil
}
