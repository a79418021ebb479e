package tilecache

import (
	"errors"
	"time"

	"github.com/dgraph-io/badger/v4"
)

// badgerCache stores tiles in an embedded badger database, the max age is the entry ttl
type badgerCache struct {
	db  *badger.DB
	ttl time.Duration
}

func newBadgerCache(cfg Config) (*badgerCache, error) {
	opts := badger.DefaultOptions(cfg.Path).WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, err
	}
	return &badgerCache{
		db:  db,
		ttl: time.Duration(cfg.MaxAge) * time.Hour,
	}, nil
}

func (b *badgerCache) IsActive() bool {
	return true
}

func (b *badgerCache) Tile(addr string) ([]byte, bool) {
	var data []byte
	err := b.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(addr))
		if err != nil {
			return err
		}
		data, err = item.ValueCopy(nil)
		return err
	})
	if err != nil {
		if !errors.Is(err, badger.ErrKeyNotFound) {
			log.Errorf("error reading tile %s: %v", addr, err)
		}
		return nil, false
	}
	return data, true
}

func (b *badgerCache) Save(addr string, data []byte) error {
	return b.db.Update(func(txn *badger.Txn) error {
		e := badger.NewEntry([]byte(addr), data)
		if b.ttl > 0 {
			e = e.WithTTL(b.ttl)
		}
		return txn.SetEntry(e)
	})
}

func (b *badgerCache) Close() error {
	return b.db.Close()
}
