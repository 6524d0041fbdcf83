// Package blob is the content area: original uploads and their derived
// thumbnails, addressed by key. Keys are opaque relative names such as
// "3f0c..." or "3f0c..._250".
package blob

import (
	"context"
	"fmt"
	"io"

	"github.com/dmitrijs2005/filevault/internal/server/config"
)

// Store reads and writes blobs. A missing key is common.ErrorNotFound for
// Open; Delete of a missing key succeeds.
type Store interface {
	Put(ctx context.Context, key string, r io.Reader) error
	Open(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
	Alive(ctx context.Context) bool
}

// NewStore builds the backend selected by cfg.BlobBackend.
func NewStore(ctx context.Context, cfg *config.Config) (Store, error) {
	switch cfg.BlobBackend {
	case config.BlobBackendDisk:
		return NewDisk(cfg.BlobDir)
	case config.BlobBackendS3:
		return NewS3(ctx, cfg)
	default:
		return nil, fmt.Errorf("unknown blob backend %q", cfg.BlobBackend)
	}
}
