// Package ripper rips a complete image: it resolves the grid, fetches every tile and
// composites the tiles into one bitmap.
package ripper

import (
	"context"
	"image"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/samber/do/v2"
	"golang.org/x/sync/errgroup"

	"github.com/willie68/go_tilerip/internal/canvas"
	"github.com/willie68/go_tilerip/internal/fetcher"
	"github.com/willie68/go_tilerip/internal/logging"
	"github.com/willie68/go_tilerip/internal/probe"
	"github.com/willie68/go_tilerip/internal/tilecache"
	"github.com/willie68/go_tilerip/internal/transport"
	"github.com/willie68/go_tilerip/internal/utils/measurement"
)

// AutoZoom lets the ripper use the highest available zoom level
const AutoZoom = -1

// DefaultWorkers the probe workers per axis if nothing is configured
const DefaultWorkers = 8

// measure points
const (
	MeasureZoom       = "probeZoom"
	MeasureDimensions = "probeDimensions"
	MeasureRip        = "rip"
)

// Config of the ripper
type Config struct {
	// Workers the number of probe workers per axis, the zoom probe uses twice as many
	Workers int `yaml:"workers"`
}

// Sources hands out the transport for a tile base
type Sources interface {
	For(base string) (transport.Service, error)
}

// Observer is informed about the progress of a rip. Calls may come from several goroutines.
type Observer interface {
	OnGrid(runID string, zoom int, dim probe.Dimensions)
	OnTile(runID string, x, y int)
}

// Grid the resolved extent of an image
type Grid struct {
	Zoom       int              `json:"zoom"`
	Dimensions probe.Dimensions `json:"dimensions"`
}

// Result of a rip
type Result struct {
	RunID      string
	Grid       Grid
	TileWidth  int
	TileHeight int
	Image      *image.RGBA
}

// Ripper rips images from its sources
type Ripper struct {
	log     *logging.Logger
	sources Sources
	workers int
	cache   tilecache.TileCache
	ms      *measurement.Service
}

// Option configures a ripper
type Option func(r *Ripper)

// WithCache fetches tiles through the cache
func WithCache(c tilecache.TileCache) Option {
	return func(r *Ripper) {
		r.cache = c
	}
}

// WithMeasurement records timings of all phases
func WithMeasurement(ms *measurement.Service) Option {
	return func(r *Ripper) {
		r.ms = ms
	}
}

// Init registers the ripper
func Init(inj do.Injector) {
	cfg := do.MustInvoke[*Config](inj)
	src := do.MustInvoke[*transport.Factory](inj)
	r := New(src, cfg.Workers,
		WithCache(do.MustInvoke[tilecache.TileCache](inj)),
		WithMeasurement(do.MustInvoke[*measurement.Service](inj)),
	)
	do.ProvideValue(inj, r)
}

// New creates a ripper, workers < 1 are replaced by DefaultWorkers
func New(src Sources, workers int, opts ...Option) *Ripper {
	if workers < 1 {
		workers = DefaultWorkers
	}
	r := &Ripper{
		log:     logging.New().WithName("ripper"),
		sources: src,
		workers: workers,
	}
	for _, o := range opts {
		o(r)
	}
	return r
}

// Workers the configured probe workers per axis
func (r *Ripper) Workers() int {
	return r.workers
}

// Rip the image at base in the given zoom level (or AutoZoom) and return the composited bitmap
func (r *Ripper) Rip(ctx context.Context, base string, zoom int) (*image.RGBA, error) {
	res, err := r.Run(ctx, base, zoom, nil)
	if err != nil {
		return nil, err
	}
	return res.Image, nil
}

// Grid resolves zoom level and dimensions without fetching any tile
func (r *Ripper) Grid(ctx context.Context, base string, zoom int) (Grid, error) {
	svc, err := r.sources.For(base)
	if err != nil {
		return Grid{}, err
	}
	zoom, err = r.zoom(ctx, svc, base, zoom)
	if err != nil {
		return Grid{}, err
	}
	m := r.ms.Start(MeasureDimensions)
	dim, err := probe.Resolve(ctx, svc, base, zoom, r.workers)
	m.Stop()
	if err != nil {
		m.SetError()
		return Grid{}, errors.WithMessage(err, "resolving dimensions")
	}
	return Grid{Zoom: zoom, Dimensions: dim}, nil
}

// Run rips the image at base and informs the observer (may be nil). The first failure of any
// tile aborts the rip, there is no partial result.
func (r *Ripper) Run(ctx context.Context, base string, zoom int, obs Observer) (*Result, error) {
	runID := uuid.NewString()
	log := r.log.With("run", runID)
	rm := r.ms.Start(MeasureRip)
	defer rm.Stop()

	res, err := r.run(ctx, runID, base, zoom, obs)
	if err != nil {
		rm.SetError()
		log.Errorf("rip of %s failed: %v", base, err)
		return nil, err
	}
	log.Infof("ripped %s zoom %d: %dx%d tiles, %dx%d pixel", base, res.Grid.Zoom, res.Grid.Dimensions.Columns,
		res.Grid.Dimensions.Rows, res.Image.Bounds().Dx(), res.Image.Bounds().Dy())
	return res, nil
}

func (r *Ripper) run(ctx context.Context, runID, base string, zoom int, obs Observer) (*Result, error) {
	if obs == nil {
		obs = nopObserver{}
	}
	svc, err := r.sources.For(base)
	if err != nil {
		return nil, err
	}
	zoom, err = r.zoom(ctx, svc, base, zoom)
	if err != nil {
		return nil, err
	}

	f := fetcher.New(svc, base, fetcher.WithCache(r.cache), fetcher.WithMeasurement(r.ms))
	var (
		dim  probe.Dimensions
		head fetcher.Tile
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		m := r.ms.Start(MeasureDimensions)
		defer m.Stop()
		d, err := probe.Resolve(gctx, svc, base, zoom, r.workers)
		if err != nil {
			m.SetError()
			return errors.WithMessage(err, "resolving dimensions")
		}
		dim = d
		return nil
	})
	g.Go(func() error {
		t, err := f.FetchCell(gctx, 0, 0, zoom)
		head = t
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	obs.OnGrid(runID, zoom, dim)

	cv, err := canvas.New(dim.Columns, dim.Rows, head.Width(), head.Height())
	if err != nil {
		return nil, err
	}
	if err := cv.Place(0, 0, head.Image); err != nil {
		return nil, err
	}
	obs.OnTile(runID, 0, 0)

	g, gctx = errgroup.WithContext(ctx)
	for y := range dim.Rows {
		for x := range dim.Columns {
			if x == 0 && y == 0 {
				continue
			}
			g.Go(func() error {
				t, err := f.FetchCell(gctx, x, y, zoom)
				if err != nil {
					return err
				}
				if err := cv.Place(x, y, t.Image); err != nil {
					return err
				}
				obs.OnTile(runID, x, y)
				return nil
			})
		}
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &Result{
		RunID:      runID,
		Grid:       Grid{Zoom: zoom, Dimensions: dim},
		TileWidth:  head.Width(),
		TileHeight: head.Height(),
		Image:      cv.Image(),
	}, nil
}

func (r *Ripper) zoom(ctx context.Context, svc transport.Service, base string, zoom int) (int, error) {
	if zoom >= 0 {
		return zoom, nil
	}
	m := r.ms.Start(MeasureZoom)
	defer m.Stop()
	z, err := probe.MaxZoom(ctx, svc, base, 2*r.workers)
	if err != nil {
		m.SetError()
		return 0, errors.WithMessage(err, "resolving zoom level")
	}
	r.log.Debugf("max zoom of %s is %d", base, z)
	return z, nil
}

type nopObserver struct{}

func (nopObserver) OnGrid(string, int, probe.Dimensions) {}
func (nopObserver) OnTile(string, int, int)              {}
