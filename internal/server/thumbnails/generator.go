// Package thumbnails renders the derived widths of an uploaded image.
package thumbnails

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"io"

	"github.com/disintegration/imaging"
	"github.com/dmitrijs2005/filevault/internal/common"
	"github.com/dmitrijs2005/filevault/internal/server/blob"
	"github.com/dmitrijs2005/filevault/internal/server/models"
)

// MaxPixels bounds the decoded size of an original. Decoding needs about
// four bytes per pixel, so larger sources are refused before decoding.
const MaxPixels = 50_000_000

// Generator reads an original from the blob store and writes one resized
// copy per width next to it, at models.DerivedPath(key, width).
type Generator struct {
	store  blob.Store
	widths []int
}

// NewGenerator uses models.ThumbnailWidths when widths is empty.
func NewGenerator(store blob.Store, widths ...int) *Generator {
	if len(widths) == 0 {
		widths = models.ThumbnailWidths
	}
	return &Generator{store: store, widths: widths}
}

// Generate renders every width of the blob at key, widest first. The first
// failing width aborts the run; widths already written stay in place and are
// overwritten by the next attempt. A missing original is
// common.ErrorNotFound; an undecodable or oversized one wraps
// common.ErrorPermanent.
func (g *Generator) Generate(ctx context.Context, key string) error {
	rc, err := g.store.Open(ctx, key)
	if err != nil {
		return err
	}
	data, err := io.ReadAll(rc)
	_ = rc.Close()
	if err != nil {
		return fmt.Errorf("read original: %w", err)
	}

	cfg, name, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("%w: decode image: %v", common.ErrorPermanent, err)
	}
	if int64(cfg.Width)*int64(cfg.Height) > MaxPixels {
		return fmt.Errorf("%w: %dx%d image is too large", common.ErrorPermanent, cfg.Width, cfg.Height)
	}
	format, err := imaging.FormatFromExtension(name)
	if err != nil {
		return fmt.Errorf("%w: %s images are not supported", common.ErrorPermanent, name)
	}

	src, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return fmt.Errorf("%w: decode image: %v", common.ErrorPermanent, err)
	}

	for _, width := range g.widths {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := g.render(ctx, src, format, key, width); err != nil {
			return fmt.Errorf("width %d: %w", width, err)
		}
	}

	return nil
}

func (g *Generator) render(ctx context.Context, src image.Image, format imaging.Format, key string, width int) error {
	dst := imaging.Resize(src, width, 0, imaging.Lanczos)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, dst, format); err != nil {
		return err
	}

	return g.store.Put(ctx, models.DerivedPath(key, width), bytes.NewReader(buf.Bytes()))
}
