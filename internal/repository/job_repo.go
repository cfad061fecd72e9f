package repository

import (
	"context"
	"errors"

	"github.com/kevinluu/screenline/internal/domain"
	"gorm.io/gorm"
)

// JobRepository handles job posting reads.
type JobRepository struct {
	db *gorm.DB
}

// NewJobRepository creates a new JobRepository.
func NewJobRepository(db *gorm.DB) *JobRepository {
	return &JobRepository{db: db}
}

// GetByID retrieves a job posting by ID.
func (r *JobRepository) GetByID(ctx context.Context, id string) (*domain.JobPosting, error) {
	var job domain.JobPosting
	if err := r.db.WithContext(ctx).First(&job, "id = ?", id).Error; err != nil {
		return nil, wrapErr("get job", err)
	}
	return &job, nil
}

// GetContext returns the scoring snapshot for a posting. An empty jobID or a
// missing posting yields the zero context rather than an error; the pipeline
// scores against whatever context is available.
func (r *JobRepository) GetContext(ctx context.Context, jobID string) (domain.JobContext, error) {
	if jobID == "" {
		return domain.JobContext{}, nil
	}
	job, err := r.GetByID(ctx, jobID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return domain.JobContext{}, nil
		}
		return domain.JobContext{}, err
	}
	return job.Context(), nil
}
