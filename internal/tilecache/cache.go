// Package tilecache keeps raw tile bytes between rips, keyed by tile address.
package tilecache

import (
	"fmt"

	"github.com/samber/do/v2"

	"github.com/willie68/go_tilerip/internal/logging"
)

// cache backends
const (
	TypeFile   = "file"
	TypeBadger = "badger"
)

// TileCache stores the raw bytes of tiles
type TileCache interface {
	Tile(addr string) ([]byte, bool)
	Save(addr string, data []byte) error
	IsActive() bool
	Close() error
}

// Config of the tile cache
type Config struct {
	Active bool   `yaml:"active"`
	Type   string `yaml:"type"` // file, badger
	Path   string `yaml:"path"`
	MaxAge int    `yaml:"maxage"` // in hours, 0 = forever
}

var log = logging.New().WithName("tilecache")

// Init registers the configured cache
func Init(inj do.Injector) {
	cfg := do.MustInvoke[*Config](inj)
	c, err := New(*cfg)
	if err != nil {
		log.Errorf("error creating tile cache, caching disabled: %v", err)
		c = &nullCache{}
	}
	do.ProvideValue[TileCache](inj, c)
}

// New creates the cache backend of the config, an inactive config gives a no-op cache
func New(cfg Config) (TileCache, error) {
	if !cfg.Active {
		return &nullCache{}, nil
	}
	if cfg.Path == "" {
		return nil, fmt.Errorf("tile cache path is empty")
	}
	switch cfg.Type {
	case "", TypeFile:
		return newFileCache(cfg)
	case TypeBadger:
		return newBadgerCache(cfg)
	default:
		return nil, fmt.Errorf("unknown tile cache type: %s", cfg.Type)
	}
}

type nullCache struct{}

func (n *nullCache) Tile(string) ([]byte, bool) { return nil, false }
func (n *nullCache) Save(string, []byte) error  { return nil }
func (n *nullCache) IsActive() bool             { return false }
func (n *nullCache) Close() error               { return nil }
