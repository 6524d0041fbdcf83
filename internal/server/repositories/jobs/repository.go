// Package jobs is the durable thumbnail job queue. Rows are claimed with
// FOR UPDATE SKIP LOCKED so that any number of workers can poll the same
// table while every job has at most one attempt in flight.
package jobs

import (
	"context"
	"time"

	"github.com/dmitrijs2005/filevault/internal/server/models"
)

// AbandonedError is recorded on a job whose last attempt never reported back.
const AbandonedError = "worker stopped during the last attempt"

// Complete, Retry and Bury only touch a job still held by the given attempt.
// A claim lost to Reclaim is common.ErrorNotFound.
type Repository interface {
	Enqueue(ctx context.Context, job *models.Job) (*models.Job, error)
	Claim(ctx context.Context, now time.Time) (*models.Job, error)
	Complete(ctx context.Context, id int64, attempt int) error
	Retry(ctx context.Context, id int64, attempt int, runAt time.Time, lastErr string) error
	Bury(ctx context.Context, id int64, attempt int, lastErr string) error
	Reclaim(ctx context.Context, staleBefore time.Time) (int64, error)
}
