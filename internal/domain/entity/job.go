package entity

import (
	"gorm.io/gorm"
	"time"
)

type JobStatus string

const (
	StatusPending    JobStatus = "PENDING"
	StatusProcessing JobStatus = "PROCESSING"
	StatusCompleted  JobStatus = "COMPLETED"
	StatusFailed     JobStatus = "FAILED"
)

// Job records a single ETL run: the uploaded object it started from, its
// lifecycle status and, once completed, the key of the processed output.
type Job struct {
	JobID      string         `gorm:"primaryKey;type:uuid" json:"job_id"`
	UserID     string         `gorm:"not null;type:uuid;index" json:"user_id"`
	Filename   string         `gorm:"not null" json:"filename"`
	FileKey    string         `gorm:"not null" json:"file_key"`
	Status     JobStatus      `gorm:"not null;type:text" json:"status"`
	ResultKey  string         `json:"result_key,omitempty"`
	UploadTime time.Time      `gorm:"not null;index" json:"upload_time"`
	CreatedAt  time.Time      `json:"-"`
	UpdatedAt  time.Time      `json:"-"`
	DeletedAt  gorm.DeletedAt `gorm:"index" json:"-"`
}

// JobEvent is published to the message broker after a status transition has
// been persisted. Consumers (dashboards, audit) live outside this service.
type JobEvent struct {
	JobID     string    `json:"job_id"`
	UserID    string    `json:"user_id"`
	Status    JobStatus `json:"status"`
	ResultKey string    `json:"result_key,omitempty"`
	Error     string    `json:"error,omitempty"`
	At        time.Time `json:"at"`
}
