// Package worker consumes the thumbnail job queue.
package worker

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/filevault/internal/common"
	"github.com/dmitrijs2005/filevault/internal/logging"
	"github.com/dmitrijs2005/filevault/internal/server/metrics"
	"github.com/dmitrijs2005/filevault/internal/server/models"
	"github.com/dmitrijs2005/filevault/internal/server/queue"
	"github.com/dmitrijs2005/filevault/internal/server/repositories/repomanager"
	"golang.org/x/sync/errgroup"
)

// Thumbnailer renders the derived sizes of the blob at key.
type Thumbnailer interface {
	Generate(ctx context.Context, key string) error
}

type Options struct {
	PollInterval      time.Duration
	Concurrency       int
	VisibilityTimeout time.Duration
	Retry             queue.RetryPolicy
}

// Worker polls the queue from Concurrency goroutines. A failing job is
// retried with backoff or buried; it never stops the worker.
type Worker struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	thumbnails  Thumbnailer
	opts        Options
	logger      logging.Logger
	metrics     *metrics.Metrics
	now         func() time.Time
}

func New(db *sql.DB, rm repomanager.RepositoryManager, thumbnails Thumbnailer, opts Options, logger logging.Logger, m *metrics.Metrics) *Worker {
	if opts.Concurrency < 1 {
		opts.Concurrency = 1
	}
	return &Worker{
		db:          db,
		repomanager: rm,
		thumbnails:  thumbnails,
		opts:        opts,
		logger:      logger.With("module", "worker"),
		metrics:     m,
		now:         time.Now,
	}
}

// Run blocks until ctx is cancelled.
func (w *Worker) Run(ctx context.Context) error {
	w.logger.Info(ctx, "worker started", "concurrency", w.opts.Concurrency, "poll_interval", w.opts.PollInterval.String())

	g, ctx := errgroup.WithContext(ctx)
	for i := 0; i < w.opts.Concurrency; i++ {
		g.Go(func() error {
			w.poll(ctx)
			return nil
		})
	}
	g.Go(func() error {
		w.reclaim(ctx)
		return nil
	})

	err := g.Wait()
	w.logger.Info(context.Background(), "worker stopped")
	return err
}

func (w *Worker) poll(ctx context.Context) {
	for {
		processed, err := w.ProcessOne(ctx)
		if err != nil && ctx.Err() == nil {
			w.logger.Error(ctx, "claim failed", "error", err)
		}
		if processed && err == nil {
			continue
		}
		if !sleep(ctx, w.opts.PollInterval) {
			return
		}
	}
}

func (w *Worker) reclaim(ctx context.Context) {
	ticker := time.NewTicker(w.opts.VisibilityTimeout)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := w.repomanager.Jobs(w.db).Reclaim(ctx, w.now().Add(-w.opts.VisibilityTimeout))
			if err != nil {
				if ctx.Err() == nil {
					w.logger.Error(ctx, "reclaim failed", "error", err)
				}
				continue
			}
			if n > 0 {
				w.metrics.JobsReclaimed.Add(float64(n))
				w.logger.Warn(ctx, "reclaimed stale jobs", "count", n)
			}
		}
	}
}

// ProcessOne claims and handles a single job. It reports false when the
// queue had nothing due.
func (w *Worker) ProcessOne(ctx context.Context) (bool, error) {
	jobs := w.repomanager.Jobs(w.db)

	job, err := jobs.Claim(ctx, w.now())
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return false, nil
		}
		return false, err
	}

	log := w.logger.With("job_id", job.ID, "file_id", string(job.FileID), "attempt", job.Attempts)
	start := time.Now()
	procErr := w.process(ctx, job)
	w.metrics.JobDuration.Observe(time.Since(start).Seconds())

	if procErr != nil && ctx.Err() != nil {
		// Shutting down: the job stays running and is reclaimed later.
		log.Warn(ctx, "job interrupted", "error", procErr)
		return true, nil
	}

	var outcome string
	switch {
	case procErr == nil:
		outcome = metrics.OutcomeDone
		err = jobs.Complete(ctx, job.ID, job.Attempts)
	case queue.Permanent(procErr) || job.Exhausted():
		outcome = metrics.OutcomeBuried
		err = jobs.Bury(ctx, job.ID, job.Attempts, procErr.Error())
	default:
		outcome = metrics.OutcomeRetried
		err = jobs.Retry(ctx, job.ID, job.Attempts, w.now().Add(w.opts.Retry.Backoff(job.Attempts)), procErr.Error())
	}

	if errors.Is(err, common.ErrorNotFound) {
		// Reclaimed while running; the newer attempt owns the row now.
		log.Warn(ctx, "job claim lost", "outcome", outcome)
		return true, nil
	}
	if err != nil {
		return true, fmt.Errorf("job %d bookkeeping: %w", job.ID, err)
	}

	w.metrics.Jobs.WithLabelValues(outcome).Inc()
	switch outcome {
	case metrics.OutcomeDone:
		log.Info(ctx, "thumbnails generated")
	case metrics.OutcomeBuried:
		log.Error(ctx, "job failed", "error", procErr, "max_attempts", job.MaxAttempts)
	default:
		log.Warn(ctx, "job will be retried", "error", procErr, "delay", w.opts.Retry.Backoff(job.Attempts).String())
	}
	return true, nil
}

func (w *Worker) process(ctx context.Context, job *models.Job) error {
	if err := job.Validate(); err != nil {
		return err
	}

	file, err := w.repomanager.Files(w.db).FindOwned(ctx, job.FileID, job.UserID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return fmt.Errorf("%w: file not found", common.ErrorPermanent)
		}
		return err
	}
	if !file.Type.HasThumbnails() || file.LocalPath == "" {
		return fmt.Errorf("%w: %s has no image content", common.ErrorPermanent, file.ID)
	}

	if err := w.thumbnails.Generate(ctx, file.LocalPath); err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return fmt.Errorf("file not found on disk: %w", err)
		}
		return err
	}
	return nil
}

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
