package repository

import (
	"context"

	"github.com/kevinluu/screenline/internal/domain"
	"gorm.io/gorm"
)

// ActivityLogRepository records audit entries for candidate actions.
type ActivityLogRepository struct {
	db *gorm.DB
}

// NewActivityLogRepository creates a new ActivityLogRepository.
func NewActivityLogRepository(db *gorm.DB) *ActivityLogRepository {
	return &ActivityLogRepository{db: db}
}

// Record inserts one activity log entry.
func (r *ActivityLogRepository) Record(ctx context.Context, candidateID, action, description string, metadata domain.JSONMap) error {
	entry := &domain.ActivityLog{
		CandidateID: candidateID,
		Action:      action,
		Description: description,
		Metadata:    metadata,
	}
	return wrapErr("record activity", r.db.WithContext(ctx).Create(entry).Error)
}

// ListByCandidate retrieves activity entries for a candidate, newest first.
func (r *ActivityLogRepository) ListByCandidate(ctx context.Context, candidateID string, limit int) ([]domain.ActivityLog, error) {
	var entries []domain.ActivityLog
	if err := r.db.WithContext(ctx).
		Where("candidate_id = ?", candidateID).
		Order("created_at DESC").
		Limit(limit).
		Find(&entries).Error; err != nil {
		return nil, wrapErr("list activity", err)
	}
	return entries, nil
}
