package domain

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"
)

// CandidateStatus represents where a candidate sits in the screening flow.
type CandidateStatus string

const (
	StatusPending          CandidateStatus = "pending"
	StatusProcessing       CandidateStatus = "processing"
	StatusScreeningPassed  CandidateStatus = "screening-passed"
	StatusBorderline       CandidateStatus = "borderline"
	StatusRejected         CandidateStatus = "rejected"
	StatusProcessingFailed CandidateStatus = "processing-failed"
)

// StatusHistoryEntry is one transition in a candidate's append-only audit trail.
type StatusHistoryEntry struct {
	Status    CandidateStatus `json:"status"`
	Timestamp time.Time       `json:"timestamp"`
	Reason    string          `json:"reason"`
}

// StatusHistory stores the ordered transition list as JSON in a single column.
type StatusHistory []StatusHistoryEntry

// Value implements driver.Valuer for database serialization.
func (h StatusHistory) Value() (driver.Value, error) {
	if h == nil {
		return "[]", nil
	}
	b, err := json.Marshal(h)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements sql.Scanner for database deserialization.
func (h *StatusHistory) Scan(value interface{}) error {
	if value == nil {
		*h = StatusHistory{}
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		str, ok := value.(string)
		if !ok {
			return errors.New("failed to scan StatusHistory")
		}
		bytes = []byte(str)
	}
	return json.Unmarshal(bytes, h)
}

// JSONMap stores an arbitrary JSON object in a single text column.
type JSONMap map[string]interface{}

// Value implements driver.Valuer for database serialization.
func (m JSONMap) Value() (driver.Value, error) {
	if m == nil {
		return "{}", nil
	}
	b, err := json.Marshal(m)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements sql.Scanner for database deserialization.
func (m *JSONMap) Scan(value interface{}) error {
	if value == nil {
		*m = JSONMap{}
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		str, ok := value.(string)
		if !ok {
			return errors.New("failed to scan JSONMap")
		}
		bytes = []byte(str)
	}
	return json.Unmarshal(bytes, m)
}

// ScoreBreakdown is the per-axis score set persisted alongside the overall score.
type ScoreBreakdown struct {
	Overall    float64 `json:"overall"`
	Tech       float64 `json:"tech"`
	Experience float64 `json:"experience"`
	Language   float64 `json:"language"`
	CultureFit float64 `json:"culture_fit"`
}

// Value implements driver.Valuer for database serialization.
func (s ScoreBreakdown) Value() (driver.Value, error) {
	b, err := json.Marshal(s)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements sql.Scanner for database deserialization.
func (s *ScoreBreakdown) Scan(value interface{}) error {
	if value == nil {
		*s = ScoreBreakdown{}
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		str, ok := value.(string)
		if !ok {
			return errors.New("failed to scan ScoreBreakdown")
		}
		bytes = []byte(str)
	}
	return json.Unmarshal(bytes, s)
}

// Candidate is the candidate record owned by the relational store. The
// analysis pipeline mutates the AI fields and status; the rest of the
// lifecycle belongs to the admin surface.
type Candidate struct {
	ID            string          `gorm:"type:text;primaryKey" json:"id"`
	FullName      string          `gorm:"type:text" json:"full_name"`
	Email         string          `gorm:"type:text;index" json:"email"`
	JobID         string          `gorm:"type:text;index" json:"job_id,omitempty"`
	CVPath        string          `gorm:"column:cv_path;type:text" json:"cv_path"`
	CVText        string          `gorm:"column:cv_text;type:text" json:"cv_text,omitempty"`
	CVEntities    JSONMap         `gorm:"column:cv_entities;type:text" json:"cv_entities,omitempty"`
	Status        CandidateStatus `gorm:"type:text;index;default:pending" json:"status"`
	AIScore       float64         `gorm:"column:ai_score" json:"ai_score"`
	Scores        ScoreBreakdown  `gorm:"type:text" json:"scores"`
	AIAnalysis    JSONMap         `gorm:"column:ai_analysis;type:text" json:"ai_analysis,omitempty"`
	Notes         string          `gorm:"type:text" json:"notes,omitempty"`
	StatusHistory StatusHistory   `gorm:"type:text" json:"status_history"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// TableName returns the database table name for Candidate.
func (Candidate) TableName() string {
	return "candidates"
}
