// Package fetcher downloads and decodes single grid cells.
package fetcher

import (
	"context"
	"image"

	"github.com/pkg/errors"

	"github.com/willie68/go_tilerip/internal/address"
	"github.com/willie68/go_tilerip/internal/codec"
	"github.com/willie68/go_tilerip/internal/tilecache"
	"github.com/willie68/go_tilerip/internal/transport"
	"github.com/willie68/go_tilerip/internal/utils/measurement"
)

// measure points
const (
	MeasureFetch  = "fetchTile"
	MeasureDecode = "decodeTile"
)

// Tile a decoded grid cell
type Tile struct {
	Image  image.Image
	X      int
	Y      int
	Zoom   int
	Format string
}

// Width of the decoded bitmap
func (t Tile) Width() int {
	return t.Image.Bounds().Dx()
}

// Height of the decoded bitmap
func (t Tile) Height() int {
	return t.Image.Bounds().Dy()
}

// Fetcher fetches the cells of one image
type Fetcher struct {
	svc   transport.Service
	base  string
	cache tilecache.TileCache
	ms    *measurement.Service
}

// Option configures a fetcher
type Option func(f *Fetcher)

// WithCache lets the fetcher read and store raw tile bytes
func WithCache(c tilecache.TileCache) Option {
	return func(f *Fetcher) {
		f.cache = c
	}
}

// WithMeasurement records fetch and decode timings
func WithMeasurement(ms *measurement.Service) Option {
	return func(f *Fetcher) {
		f.ms = ms
	}
}

// New creates a fetcher for the image at base
func New(svc transport.Service, base string, opts ...Option) *Fetcher {
	f := &Fetcher{
		svc:  svc,
		base: base,
	}
	for _, o := range opts {
		o(f)
	}
	return f
}

// FetchCell fetches the tile (x, y) of the zoom level and decodes it. Transport failures and
// decode failures are returned with the cell address attached.
func (f *Fetcher) FetchCell(ctx context.Context, x, y, zoom int) (Tile, error) {
	addr := address.Tile(f.base, x, y, zoom)
	data, cached, err := f.load(ctx, addr)
	if err != nil {
		return Tile{}, errors.WithMessagef(err, "fetching tile (%d,%d) zoom %d", x, y, zoom)
	}

	dm := f.ms.Start(MeasureDecode)
	img, format, err := codec.Decode(data)
	dm.Stop()
	if err != nil {
		dm.SetError()
		return Tile{}, errors.WithMessagef(err, "decoding tile (%d,%d) zoom %d", x, y, zoom)
	}
	if !cached && f.cache != nil && f.cache.IsActive() {
		if err := f.cache.Save(addr, data); err != nil {
			log.Errorf("error caching tile %s: %v", addr, err)
		}
	}
	return Tile{
		Image:  img,
		X:      x,
		Y:      y,
		Zoom:   zoom,
		Format: format,
	}, nil
}

func (f *Fetcher) load(ctx context.Context, addr string) ([]byte, bool, error) {
	if f.cache != nil && f.cache.IsActive() {
		if data, ok := f.cache.Tile(addr); ok {
			return data, true, nil
		}
	}
	m := f.ms.Start(MeasureFetch)
	data, err := f.svc.Fetch(ctx, addr)
	m.Stop()
	if err != nil {
		m.SetError()
		return nil, false, err
	}
	return data, false, nil
}
