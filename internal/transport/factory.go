package transport

import (
	"strings"
	"sync"

	"github.com/samber/do/v2"

	"github.com/willie68/go_tilerip/internal/logging"
)

// Factory hands out the transport for a tile base. The http transport is shared, mbtiles
// databases are opened once per path.
type Factory struct {
	log     *logging.Logger
	http    *HTTPService
	mbtiles map[string]*MBTilesService
	mlock   sync.Mutex
}

// Init registers the factory
func Init(inj do.Injector) {
	cfg := do.MustInvoke[*Config](inj)
	do.ProvideValue(inj, NewFactory(*cfg))
}

// NewFactory creates a factory with a http transport for the given config
func NewFactory(cfg Config) *Factory {
	return &Factory{
		log:     logging.New().WithName("transport"),
		http:    NewHTTP(cfg),
		mbtiles: make(map[string]*MBTilesService),
	}
}

// HTTP the shared http transport
func (f *Factory) HTTP() Service {
	return f.http
}

// For returns the transport serving the base
func (f *Factory) For(base string) (Service, error) {
	if !strings.HasPrefix(base, MBTilesScheme) {
		return f.http, nil
	}
	f.mlock.Lock()
	defer f.mlock.Unlock()
	if s, ok := f.mbtiles[base]; ok {
		return s, nil
	}
	s, err := OpenMBTiles(base)
	if err != nil {
		return nil, err
	}
	f.mbtiles[base] = s
	return s, nil
}

// Close closes all opened databases
func (f *Factory) Close() error {
	f.mlock.Lock()
	defer f.mlock.Unlock()
	for name, s := range f.mbtiles {
		if err := s.Close(); err != nil {
			f.log.Errorf("error closing %s: %v", name, err)
		}
	}
	f.mbtiles = make(map[string]*MBTilesService)
	return nil
}
