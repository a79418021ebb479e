package tilecache

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/willie68/go_tilerip/internal/address"
)

// fileCache one file per tile under <path>/<hash of base>/<z>/<x>/<y>.tile
type fileCache struct {
	path   string
	maxage time.Duration

	flock sync.RWMutex
	stop  chan struct{}
	once  sync.Once
}

func newFileCache(cfg Config) (*fileCache, error) {
	if err := os.MkdirAll(cfg.Path, 0o755); err != nil {
		return nil, err
	}
	c := &fileCache{
		path:   cfg.Path,
		maxage: time.Duration(cfg.MaxAge) * time.Hour,
		stop:   make(chan struct{}),
	}
	if c.maxage > 0 {
		c.startCacheCleanupJob()
	}
	return c, nil
}

func (c *fileCache) startCacheCleanupJob() {
	go func() {
		ticker := time.NewTicker(1 * time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-c.stop:
				return
			case <-ticker.C:
				err := c.CleanupOldFiles(c.maxage)
				if err != nil {
					log.Errorf("cache cleanup error: %v", err)
				} else {
					log.Debugf("cache cleanup completed")
				}
			}
		}
	}()
}

func (c *fileCache) IsActive() bool {
	return true
}

func (c *fileCache) Tile(addr string) ([]byte, bool) {
	fname, err := c.getFilename(addr)
	if err != nil {
		return nil, false
	}
	c.flock.RLock()
	defer c.flock.RUnlock()
	if c.expired(fname) {
		return nil, false
	}
	data, err := os.ReadFile(fname)
	if err != nil {
		return nil, false
	}
	return data, true
}

func (c *fileCache) Save(addr string, data []byte) error {
	fn, err := c.getFilename(addr)
	if err != nil {
		return err
	}
	c.flock.Lock()
	defer c.flock.Unlock()
	// only cache if the file does not exists
	if _, err := os.Stat(fn); !errors.Is(err, os.ErrNotExist) && !c.expired(fn) {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(fn), 0o755); err != nil {
		return err
	}
	tmp := fn + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, fn)
}

func (c *fileCache) expired(fname string) bool {
	if c.maxage <= 0 {
		return false
	}
	fi, err := os.Stat(fname)
	if err != nil {
		return true
	}
	return time.Since(fi.ModTime()) > c.maxage
}

// CleanupOldFiles deletes cache files older than the given duration.
func (c *fileCache) CleanupOldFiles(olderThan time.Duration) error {
	now := time.Now()
	return filepath.Walk(c.path, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.Mode().IsRegular() {
			return nil
		}
		if now.Sub(info.ModTime()) > olderThan {
			log.Debugf("removing old cache file: %s", path)
			c.deleteFile(path)
		}
		return nil
	})
}

func (c *fileCache) deleteFile(path string) {
	c.flock.Lock()
	defer c.flock.Unlock()
	err := os.Remove(path)
	if err != nil {
		log.Errorf("error removing file %s: %v", path, err)
	}
}

func (c *fileCache) getFilename(addr string) (string, error) {
	base, x, y, z, err := address.Parse(addr)
	if err != nil {
		return "", err
	}
	h := sha256.Sum256([]byte(base))
	return filepath.Join(c.path, hex.EncodeToString(h[:8]), strconv.Itoa(z), strconv.Itoa(x), strconv.Itoa(y)+".tile"), nil
}

func (c *fileCache) Close() error {
	c.once.Do(func() { close(c.stop) })
	return nil
}
