// Package httpapi exposes the services over HTTP/JSON.
package httpapi

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/dmitrijs2005/filevault/internal/logging"
	"github.com/dmitrijs2005/filevault/internal/server/health"
	"github.com/dmitrijs2005/filevault/internal/server/metrics"
	"github.com/dmitrijs2005/filevault/internal/server/models"
	"github.com/dmitrijs2005/filevault/internal/server/services"
	"github.com/rs/cors"
)

const shutdownTimeout = 10 * time.Second

// Users is the account side of the API, implemented by services.UserService.
type Users interface {
	Register(ctx context.Context, email, password string) (*models.User, error)
	Login(ctx context.Context, authorization string) (models.Token, error)
	Logout(ctx context.Context, token models.Token) error
	Me(ctx context.Context, token models.Token) (*models.User, error)
}

// Files is implemented by services.FileService.
type Files interface {
	Get(ctx context.Context, token models.Token, id models.FileID) (*models.File, error)
	List(ctx context.Context, token models.Token, parentID models.ParentID, page int) ([]*models.File, error)
	SetVisibility(ctx context.Context, token models.Token, id models.FileID, public bool) (*models.File, error)
	Content(ctx context.Context, token models.Token, id models.FileID, size string) (*services.Content, error)
	Create(ctx context.Context, token models.Token, req services.CreateRequest) (*services.CreateResult, error)
	Stats(ctx context.Context) (users, files int64, err error)
}

// Health reports the cached dependency state, see health.Monitor.
type Health interface {
	Status() health.Status
}

type Options struct {
	Address        string
	MaxBodySize    int64
	AllowedOrigins []string
}

type Server struct {
	opts    Options
	users   Users
	files   Files
	health  Health
	metrics *metrics.Metrics
	logger  logging.Logger
}

func NewServer(opts Options, users Users, files Files, h Health, m *metrics.Metrics, l logging.Logger) *Server {
	return &Server{
		opts:    opts,
		users:   users,
		files:   files,
		health:  h,
		metrics: m,
		logger:  l.With("module", "http_server"),
	}
}

// Handler returns the routed API wrapped in its middleware chain.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /status", s.status)
	mux.HandleFunc("GET /stats", s.stats)
	mux.Handle("GET /metrics", s.metrics.Handler())

	mux.HandleFunc("POST /users", s.register)
	mux.HandleFunc("GET /users/me", s.me)
	mux.HandleFunc("GET /connect", s.connect)
	mux.HandleFunc("GET /disconnect", s.disconnect)

	mux.HandleFunc("POST /files", s.createFile)
	mux.HandleFunc("GET /files", s.listFiles)
	mux.HandleFunc("GET /files/{id}", s.getFile)
	mux.HandleFunc("PUT /files/{id}/publish", s.publish)
	mux.HandleFunc("PUT /files/{id}/unpublish", s.unpublish)
	mux.HandleFunc("GET /files/{id}/data", s.fileData)

	var h http.Handler = mux
	h = s.limitBody(h)
	h = s.failFast(h)
	h = s.instrument(h)
	h = s.logRequests(h)
	h = cors.New(cors.Options{
		AllowedOrigins: s.opts.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodOptions},
		AllowedHeaders: []string{"Authorization", "Content-Type", tokenHeader},
	}).Handler(h)
	return h
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	listen, err := net.Listen("tcp", s.opts.Address)
	if err != nil {
		return err
	}
	return s.Serve(ctx, listen)
}

// Serve is Run on an existing listener.
func (s *Server) Serve(ctx context.Context, listen net.Listener) error {
	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return context.WithoutCancel(ctx) },
	}

	errCh := make(chan error, 1)
	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping HTTP server...")
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		errCh <- srv.Shutdown(sctx)
	}()

	s.logger.Info(ctx, "Starting HTTP server", "address", listen.Addr().String())

	if err := srv.Serve(listen); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return <-errCh
}

func copyBody(w io.Writer, r io.Reader) error {
	_, err := io.Copy(w, r)
	return err
}
