package repository

import (
	"context"
	"time"

	"github.com/kevinluu/screenline/internal/domain"
	"gorm.io/gorm"
)

// CandidateRepository handles candidate data operations.
type CandidateRepository struct {
	db *gorm.DB
}

// NewCandidateRepository creates a new CandidateRepository.
func NewCandidateRepository(db *gorm.DB) *CandidateRepository {
	return &CandidateRepository{db: db}
}

// GetByID retrieves a candidate by ID.
func (r *CandidateRepository) GetByID(ctx context.Context, id string) (*domain.Candidate, error) {
	var candidate domain.Candidate
	if err := r.db.WithContext(ctx).First(&candidate, "id = ?", id).Error; err != nil {
		return nil, wrapErr("get candidate", err)
	}
	return &candidate, nil
}

// Create inserts a new candidate record.
func (r *CandidateRepository) Create(ctx context.Context, candidate *domain.Candidate) error {
	if err := r.db.WithContext(ctx).Create(candidate).Error; err != nil {
		return wrapErr("create candidate", err)
	}
	return nil
}

// AnalysisUpdate carries the fields the pipeline writes after a completed analysis.
type AnalysisUpdate struct {
	Status     domain.CandidateStatus
	AIScore    float64
	Scores     domain.ScoreBreakdown
	AIAnalysis domain.JSONMap
	CVText     string
	CVEntities domain.JSONMap
	Notes      string
}

// UpdateAnalysis persists the results of a completed analysis. Row-level
// update keyed by candidate ID; concurrent writers race last-wins on these
// fields, which is the documented behavior.
func (r *CandidateRepository) UpdateAnalysis(ctx context.Context, id string, upd *AnalysisUpdate) error {
	err := r.db.WithContext(ctx).Model(&domain.Candidate{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":      upd.Status,
			"ai_score":    upd.AIScore,
			"scores":      upd.Scores,
			"ai_analysis": upd.AIAnalysis,
			"cv_text":     upd.CVText,
			"cv_entities": upd.CVEntities,
			"notes":       upd.Notes,
			"updated_at":  time.Now(),
		}).Error
	return wrapErr("update analysis", err)
}

// AppendStatusHistory appends exactly one entry to the candidate's
// append-only status history.
func (r *CandidateRepository) AppendStatusHistory(ctx context.Context, id string, status domain.CandidateStatus, reason string) error {
	var candidate domain.Candidate
	if err := r.db.WithContext(ctx).Select("id", "status_history").First(&candidate, "id = ?", id).Error; err != nil {
		return wrapErr("load status history", err)
	}

	history := append(candidate.StatusHistory, domain.StatusHistoryEntry{
		Status:    status,
		Timestamp: time.Now().UTC(),
		Reason:    reason,
	})

	err := r.db.WithContext(ctx).Model(&domain.Candidate{}).
		Where("id = ?", id).
		Update("status_history", history).Error
	return wrapErr("append status history", err)
}

// MarkProcessingFailed writes the failure status and a human-readable reason
// into notes. Used on the pipeline's error branch; no history entry is
// appended here.
func (r *CandidateRepository) MarkProcessingFailed(ctx context.Context, id string, reason string) error {
	err := r.db.WithContext(ctx).Model(&domain.Candidate{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":     domain.StatusProcessingFailed,
			"notes":      "Analysis failed: " + reason,
			"updated_at": time.Now(),
		}).Error
	return wrapErr("mark processing failed", err)
}

// GetContact retrieves the name and email needed for notifications.
func (r *CandidateRepository) GetContact(ctx context.Context, id string) (name, email string, err error) {
	var candidate domain.Candidate
	if err := r.db.WithContext(ctx).Select("id", "full_name", "email").First(&candidate, "id = ?", id).Error; err != nil {
		return "", "", wrapErr("get contact", err)
	}
	return candidate.FullName, candidate.Email, nil
}
