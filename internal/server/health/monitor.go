// Package health tracks whether the metadata database and the blob store
// answer. Requests read the cached state instead of probing on their own.
package health

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/dmitrijs2005/filevault/internal/dbx"
	"github.com/dmitrijs2005/filevault/internal/logging"
	"github.com/dmitrijs2005/filevault/internal/server/metrics"
)

const (
	DependencyDB   = "db"
	DependencyBlob = "blob"
)

// Aliver is satisfied by blob.Store.
type Aliver interface {
	Alive(ctx context.Context) bool
}

// Status is the last observed state of each dependency.
type Status struct {
	DB   bool `json:"db"`
	Blob bool `json:"blob"`
}

// Alive reports whether every dependency is up.
func (s Status) Alive() bool {
	return s.DB && s.Blob
}

type Monitor struct {
	db       dbx.Pinger
	blob     Aliver
	interval time.Duration
	timeout  time.Duration
	logger   logging.Logger
	metrics  *metrics.Metrics

	dbUp   atomic.Bool
	blobUp atomic.Bool
}

func NewMonitor(db dbx.Pinger, blob Aliver, interval time.Duration, logger logging.Logger, m *metrics.Metrics) *Monitor {
	timeout := interval / 2
	if timeout <= 0 || timeout > 5*time.Second {
		timeout = 5 * time.Second
	}
	return &Monitor{
		db:       db,
		blob:     blob,
		interval: interval,
		timeout:  timeout,
		logger:   logger.With("module", "health"),
		metrics:  m,
	}
}

// Status returns the cached state. Before the first Check everything is down.
func (m *Monitor) Status() Status {
	return Status{DB: m.dbUp.Load(), Blob: m.blobUp.Load()}
}

// Check probes both dependencies once and updates the cached state.
func (m *Monitor) Check(ctx context.Context) Status {
	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	dbUp := m.db.PingContext(ctx) == nil
	blobUp := m.blob.Alive(ctx)

	m.set(ctx, DependencyDB, &m.dbUp, dbUp)
	m.set(ctx, DependencyBlob, &m.blobUp, blobUp)
	return Status{DB: dbUp, Blob: blobUp}
}

func (m *Monitor) set(ctx context.Context, name string, flag *atomic.Bool, up bool) {
	if was := flag.Swap(up); was != up {
		if up {
			m.logger.Info(ctx, "dependency up", "dependency", name)
		} else {
			m.logger.Warn(ctx, "dependency down", "dependency", name)
		}
	}
	if m.metrics != nil {
		m.metrics.SetUp(name, up)
	}
}

// Run checks immediately and then every interval until ctx is cancelled.
func (m *Monitor) Run(ctx context.Context) error {
	m.Check(ctx)

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			m.Check(ctx)
		}
	}
}
