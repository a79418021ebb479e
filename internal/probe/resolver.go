package probe

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/willie68/go_tilerip/internal/address"
)

// Dimensions the grid size in tiles
type Dimensions struct {
	Columns int `json:"columns"`
	Rows    int `json:"rows"`
}

// Count the number of tiles of the grid
func (d Dimensions) Count() int {
	return d.Columns * d.Rows
}

// MaxZoom the highest zoom level available for the image at base
func MaxZoom(ctx context.Context, src Existence, base string, workers int) (int, error) {
	return Limit(ctx, src, address.ZoomTemplate(base), workers)
}

// Columns the number of tiles going across the image
func Columns(ctx context.Context, src Existence, base string, zoom, workers int) (int, error) {
	c, err := Limit(ctx, src, address.ColumnTemplate(base, zoom), workers)
	if err != nil {
		return 0, err
	}
	return c + 1, nil
}

// Rows the number of tiles going down the image
func Rows(ctx context.Context, src Existence, base string, zoom, workers int) (int, error) {
	r, err := Limit(ctx, src, address.RowTemplate(base, zoom), workers)
	if err != nil {
		return 0, err
	}
	return r + 1, nil
}

// Resolve determines columns and rows in parallel, each probe gets workersHalf workers
func Resolve(ctx context.Context, src Existence, base string, zoom, workersHalf int) (Dimensions, error) {
	var dim Dimensions
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		c, err := Columns(gctx, src, base, zoom, workersHalf)
		dim.Columns = c
		return err
	})
	g.Go(func() error {
		r, err := Rows(gctx, src, base, zoom, workersHalf)
		dim.Rows = r
		return err
	})
	if err := g.Wait(); err != nil {
		return Dimensions{}, err
	}
	return dim, nil
}
