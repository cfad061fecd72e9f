package domain

import "time"

// JobPosting is a job opening candidates are screened against.
type JobPosting struct {
	ID              string      `gorm:"type:text;primaryKey" json:"id"`
	Title           string      `gorm:"type:text;not null" json:"title"`
	Description     string      `gorm:"type:text" json:"description"`
	Requirements    string      `gorm:"type:text" json:"requirements"`
	SkillsRequired  StringArray `gorm:"type:text" json:"skills_required"`
	ExperienceLevel string      `gorm:"type:text" json:"experience_level"`
	Location        string      `gorm:"type:text" json:"location"`
	CreatedAt       time.Time   `json:"created_at"`
	UpdatedAt       time.Time   `json:"updated_at"`
}

// TableName returns the database table name for JobPosting.
func (JobPosting) TableName() string {
	return "jobs"
}

// JobContext is the immutable snapshot of a posting's scoring-relevant fields.
// Read once at the start of a task and never mutated. The zero value is a
// valid "no job attached" context.
type JobContext struct {
	Title           string   `json:"title,omitempty"`
	Description     string   `json:"description,omitempty"`
	Requirements    string   `json:"requirements,omitempty"`
	SkillsRequired  []string `json:"skills_required,omitempty"`
	ExperienceLevel string   `json:"experience_level,omitempty"`
	Location        string   `json:"location,omitempty"`
}

// Context returns the scoring snapshot for this posting.
func (j *JobPosting) Context() JobContext {
	return JobContext{
		Title:           j.Title,
		Description:     j.Description,
		Requirements:    j.Requirements,
		SkillsRequired:  j.SkillsRequired,
		ExperienceLevel: j.ExperienceLevel,
		Location:        j.Location,
	}
}
