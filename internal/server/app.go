// Package server wires the configured components into the two long-running
// processes: the HTTP API (App) and the thumbnail worker (WorkerApp).
package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dmitrijs2005/filevault/internal/logging"
	"github.com/dmitrijs2005/filevault/internal/server/auth"
	"github.com/dmitrijs2005/filevault/internal/server/blob"
	"github.com/dmitrijs2005/filevault/internal/server/config"
	"github.com/dmitrijs2005/filevault/internal/server/health"
	"github.com/dmitrijs2005/filevault/internal/server/httpapi"
	"github.com/dmitrijs2005/filevault/internal/server/metrics"
	"github.com/dmitrijs2005/filevault/internal/server/models"
	"github.com/dmitrijs2005/filevault/internal/server/queue"
	"github.com/dmitrijs2005/filevault/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/filevault/internal/server/services"
	"github.com/dmitrijs2005/filevault/internal/server/thumbnails"
	"github.com/dmitrijs2005/filevault/internal/server/worker"
	"golang.org/x/sync/errgroup"
)

// Seams for tests.
var (
	openDB               = repomanager.Open
	newRepositoryManager = repomanager.NewPostgresRepositoryManager
	newBlobStore         = blob.NewStore

	logOutput io.Writer = os.Stdout
)

// deps are the resources both processes start from.
type deps struct {
	logger  logging.Logger
	db      *sql.DB
	rm      repomanager.RepositoryManager
	store   blob.Store
	metrics *metrics.Metrics
}

func bootstrap(ctx context.Context, cfg *config.Config) (*deps, error) {
	logger := logging.NewJSON(logOutput, cfg.LogLevel)

	db, err := openDB(ctx, cfg.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	rm := newRepositoryManager()
	if err := rm.RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrations error: %w", err)
	}

	store, err := newBlobStore(ctx, cfg)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("blob store init error: %w", err)
	}

	return &deps{logger: logger, db: db, rm: rm, store: store, metrics: metrics.New()}, nil
}

func initSignalHandler(ctx context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
}

// App is the HTTP API process.
type App struct {
	config   *config.Config
	deps     *deps
	logger   logging.Logger
	sessions *services.SessionService
	monitor  *health.Monitor
	http     *httpapi.Server
}

func NewApp(ctx context.Context, cfg *config.Config) (*App, error) {
	d, err := bootstrap(ctx, cfg)
	if err != nil {
		return nil, err
	}

	hasher, err := auth.NewPasswordHasher(cfg.PasswordHash)
	if err != nil {
		_ = d.db.Close()
		return nil, err
	}

	sessions := services.NewSessionService(d.db, d.rm, cfg.SessionTTL)
	evaluator := auth.NewEvaluator(sessions)
	users := services.NewUserService(d.db, d.rm, sessions, evaluator, hasher)
	q := queue.New(d.db, d.rm, cfg.MaxAttempts)
	files := services.NewFileService(d.db, d.rm, evaluator, d.store, q, d.logger)

	monitor := health.NewMonitor(d.db, d.store, cfg.HealthInterval, d.logger, d.metrics)
	srv := httpapi.NewServer(httpapi.Options{
		Address:        cfg.HTTPAddr,
		MaxBodySize:    cfg.MaxBodySize,
		AllowedOrigins: cfg.AllowedOrigins,
	}, users, files, monitor, d.metrics, d.logger)

	return &App{
		config:   cfg,
		deps:     d,
		logger:   d.logger,
		sessions: sessions,
		monitor:  monitor,
		http:     srv,
	}, nil
}

// Run serves the API, prunes sessions and watches dependencies until ctx
// is cancelled or a signal arrives.
func (app *App) Run(ctx context.Context) error {
	ctx, stop := initSignalHandler(ctx)
	defer stop()
	defer app.deps.db.Close()

	app.logger.Info(ctx, "Starting app...")

	// First probe before accepting traffic, so the fail-fast check does not
	// reject the first requests.
	app.monitor.Check(ctx)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return app.http.Run(ctx) })
	g.Go(func() error { return app.monitor.Run(ctx) })
	g.Go(func() error {
		app.pruneSessions(ctx)
		return nil
	})

	err := g.Wait()
	app.logger.Info(context.Background(), "App stopped")
	return err
}

func (app *App) pruneSessions(ctx context.Context) {
	ticker := time.NewTicker(app.config.SessionPruneInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := app.sessions.Prune(ctx)
			if err != nil {
				if ctx.Err() == nil {
					app.logger.Error(ctx, "session prune failed", "error", err)
				}
				continue
			}
			if n > 0 {
				app.deps.metrics.SessionsPruned.Add(float64(n))
				app.logger.Debug(ctx, "sessions pruned", "count", n)
			}
		}
	}
}

// WorkerApp is the thumbnail worker process.
type WorkerApp struct {
	deps        *deps
	logger      logging.Logger
	worker      *worker.Worker
	metricsAddr string
}

func NewWorkerApp(ctx context.Context, cfg *config.Config) (*WorkerApp, error) {
	d, err := bootstrap(ctx, cfg)
	if err != nil {
		return nil, err
	}

	gen := thumbnails.NewGenerator(d.store, models.ThumbnailWidths...)
	w := worker.New(d.db, d.rm, gen, worker.Options{
		PollInterval:      cfg.PollInterval,
		Concurrency:       cfg.Concurrency,
		VisibilityTimeout: cfg.VisibilityTimeout,
		Retry:             queue.RetryPolicy{Base: cfg.RetryBase, Max: cfg.RetryMax},
	}, d.logger, d.metrics)

	return &WorkerApp{deps: d, logger: d.logger, worker: w, metricsAddr: cfg.WorkerMetricsAddr}, nil
}

// Run consumes jobs until ctx is cancelled or a signal arrives. When a
// metrics address is configured the job metrics are served there.
func (app *WorkerApp) Run(ctx context.Context) error {
	ctx, stop := initSignalHandler(ctx)
	defer stop()
	defer app.deps.db.Close()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return app.worker.Run(ctx) })
	if app.metricsAddr != "" {
		g.Go(func() error { return app.serveMetrics(ctx) })
	}
	return g.Wait()
}

func (app *WorkerApp) serveMetrics(ctx context.Context) error {
	mux := http.NewServeMux()
	mux.Handle("GET /metrics", app.deps.metrics.Handler())
	srv := &http.Server{Addr: app.metricsAddr, Handler: mux, ReadHeaderTimeout: 10 * time.Second}

	go func() {
		<-ctx.Done()
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(sctx)
	}()

	app.logger.Info(ctx, "Serving worker metrics", "address", app.metricsAddr)
	if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
