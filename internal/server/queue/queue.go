// Package queue is the producer side of the thumbnail pipeline plus the
// retry policy shared with the worker.
package queue

import (
	"context"
	"database/sql"
	"time"

	"github.com/dmitrijs2005/filevault/internal/server/models"
	"github.com/dmitrijs2005/filevault/internal/server/repositories/repomanager"
)

// Queue enqueues thumbnail jobs.
type Queue struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	maxAttempts int
	now         func() time.Time
}

func New(db *sql.DB, rm repomanager.RepositoryManager, maxAttempts int) *Queue {
	return &Queue{db: db, repomanager: rm, maxAttempts: maxAttempts, now: time.Now}
}

// Enqueue validates and durably stores a job for file, due immediately.
func (q *Queue) Enqueue(ctx context.Context, fileID models.FileID, userID models.UserID) (*models.Job, error) {
	job := &models.Job{
		FileID:      fileID,
		UserID:      userID,
		MaxAttempts: q.maxAttempts,
		RunAt:       q.now(),
	}
	if err := job.Validate(); err != nil {
		return nil, err
	}
	return q.repomanager.Jobs(q.db).Enqueue(ctx, job)
}
