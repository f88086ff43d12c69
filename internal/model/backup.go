package model

import "time"

// Backup statuses.
const (
	BackupPending   = "pending"
	BackupCompleted = "completed"
	BackupFailed    = "failed"
)

// Backup records one encrypted snapshot upload attempt.
type Backup struct {
	ID          int64      `json:"id"`
	Filename    string     `json:"filename"`
	S3Key       string     `json:"s3_key"`
	Status      string     `json:"status"`
	SizeBytes   int64      `json:"size_bytes"`
	Error       string     `json:"error"`
	CreatedAt   time.Time  `json:"created_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}
