package domain

import (
	"fmt"
	"time"
)

// TaskState tracks a queued analysis task through its queue lifecycle.
type TaskState string

const (
	TaskStatePending    TaskState = "pending"
	TaskStateProcessing TaskState = "processing"
	TaskStateCompleted  TaskState = "completed"
	TaskStateFailed     TaskState = "failed" // attempts exhausted
)

// AnalysisTask is one queued unit of work: a single candidate's CV analysis.
type AnalysisTask struct {
	TaskID      string    `json:"task_id"`
	CandidateID string    `json:"candidate_id"`
	CVPath      string    `json:"cv_path"`
	JobID       string    `json:"job_id,omitempty"`
	Attempt     int       `json:"attempt"`
	EnqueuedAt  time.Time `json:"enqueued_at"`
}

// NewTaskID derives a task ID from the candidate and creation time.
func NewTaskID(candidateID string, at time.Time) string {
	return fmt.Sprintf("candidate-%s-%d", candidateID, at.UnixMilli())
}

// ActivityLog is an append-only audit record of actions taken on a candidate.
type ActivityLog struct {
	ID          uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	CandidateID string    `gorm:"type:text;not null;index" json:"candidate_id"`
	Action      string    `gorm:"type:text;not null" json:"action"`
	Description string    `gorm:"type:text" json:"description"`
	Metadata    JSONMap   `gorm:"type:text" json:"metadata,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// TableName returns the database table name for ActivityLog.
func (ActivityLog) TableName() string {
	return "activity_logs"
}
