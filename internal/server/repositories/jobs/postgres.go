package jobs

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/filevault/internal/common"
	"github.com/dmitrijs2005/filevault/internal/dbx"
	"github.com/dmitrijs2005/filevault/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Enqueue(ctx context.Context, job *models.Job) (*models.Job, error) {
	query :=
		`INSERT INTO thumbnail_jobs (file_id, user_id, max_attempts, run_at)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id, status, created_at`

	err := r.db.QueryRowContext(ctx, query,
		string(job.FileID), string(job.UserID), job.MaxAttempts, job.RunAt,
	).Scan(&job.ID, &job.Status, &job.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return job, nil
}

// Claim takes the oldest due pending job, marks it running and counts the
// attempt. With nothing due it returns common.ErrorNotFound.
func (r *PostgresRepository) Claim(ctx context.Context, now time.Time) (*models.Job, error) {
	query :=
		`UPDATE thumbnail_jobs
		 SET status = 'running', attempts = attempts + 1, locked_at = $1
		 WHERE id = (
		     SELECT id FROM thumbnail_jobs
		     WHERE status = 'pending' AND run_at <= $1 AND attempts < max_attempts
		     ORDER BY run_at, id
		     LIMIT 1
		     FOR UPDATE SKIP LOCKED
		 )
		 RETURNING id, file_id, user_id, attempts, max_attempts, status, last_error, run_at, locked_at, created_at`

	job := &models.Job{}
	var lockedAt sql.NullTime
	err := r.db.QueryRowContext(ctx, query, now).Scan(
		&job.ID, &job.FileID, &job.UserID, &job.Attempts, &job.MaxAttempts,
		&job.Status, &job.LastError, &job.RunAt, &lockedAt, &job.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	if lockedAt.Valid {
		job.LockedAt = &lockedAt.Time
	}

	return job, nil
}

// Complete removes a finished job. The attempt must still hold the claim;
// otherwise the row is left alone and common.ErrorNotFound is returned.
func (r *PostgresRepository) Complete(ctx context.Context, id int64, attempt int) error {
	query :=
		`DELETE FROM thumbnail_jobs
		 WHERE id = $1 AND status = 'running' AND attempts = $2`
	return r.execClaimed(ctx, query, id, attempt)
}

// Retry puts a job back in the queue, due at runAt.
func (r *PostgresRepository) Retry(ctx context.Context, id int64, attempt int, runAt time.Time, lastErr string) error {
	query :=
		`UPDATE thumbnail_jobs
		 SET status = 'pending', run_at = $3, last_error = $4, locked_at = NULL
		 WHERE id = $1 AND status = 'running' AND attempts = $2`
	return r.execClaimed(ctx, query, id, attempt, runAt, lastErr)
}

// Bury parks a job in the failed state, where it stays for inspection.
func (r *PostgresRepository) Bury(ctx context.Context, id int64, attempt int, lastErr string) error {
	query :=
		`UPDATE thumbnail_jobs
		 SET status = 'failed', last_error = $3, locked_at = NULL
		 WHERE id = $1 AND status = 'running' AND attempts = $2`
	return r.execClaimed(ctx, query, id, attempt, lastErr)
}

// Reclaim releases running jobs locked before staleBefore; their worker is
// presumed dead. Jobs that already used their last attempt are buried
// instead of going back to the queue.
func (r *PostgresRepository) Reclaim(ctx context.Context, staleBefore time.Time) (int64, error) {
	query :=
		`UPDATE thumbnail_jobs
		 SET status = CASE WHEN attempts >= max_attempts THEN 'failed' ELSE 'pending' END,
		     last_error = CASE WHEN attempts >= max_attempts THEN $2 ELSE last_error END,
		     locked_at = NULL
		 WHERE status = 'running' AND locked_at < $1`

	res, err := r.db.ExecContext(ctx, query, staleBefore, AbandonedError)
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return n, nil
}

func (r *PostgresRepository) execClaimed(ctx context.Context, query string, args ...any) error {
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}
