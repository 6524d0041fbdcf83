package models

import (
	"time"

	"github.com/dmitrijs2005/filevault/internal/common"
)

type JobStatus string

const (
	JobPending JobStatus = "pending"
	JobRunning JobStatus = "running"
	JobFailed  JobStatus = "failed"
)

// Job asks the worker to produce thumbnails for one image.
type Job struct {
	ID          int64
	FileID      FileID
	UserID      UserID
	Attempts    int
	MaxAttempts int
	Status      JobStatus
	LastError   string
	RunAt       time.Time
	LockedAt    *time.Time
	CreatedAt   time.Time
}

var (
	ErrMissingFileID = common.NewValidationError("Missing fileId")
	ErrMissingUserID = common.NewValidationError("Missing userId")
)

// Validate rejects jobs the worker could never process.
func (j *Job) Validate() error {
	if j.FileID == "" {
		return ErrMissingFileID
	}
	if j.UserID == "" {
		return ErrMissingUserID
	}
	return nil
}

// Exhausted reports whether the attempt just made was the last one allowed.
func (j *Job) Exhausted() bool {
	return j.Attempts >= j.MaxAttempts
}
