// Package probe discovers the extent of an unpublished tile grid.
//
// The grid size is not advertised by the server, so every axis is probed: a fixed number of
// workers claim increasing axis values from a shared counter and issue existence checks until
// the server answers with a client error. The smallest failing value is the limit of the axis.
package probe

import (
	"context"
	"math"
	"sync"
	"sync/atomic"

	"github.com/willie68/go_tilerip/internal/address"
	"github.com/willie68/go_tilerip/internal/transport"
)

// Existence the part of a transport the prober needs
type Existence interface {
	Exists(ctx context.Context, addr string) error
}

// limitResult accumulates the outcome of one probing run. A terminal failure is recorded once
// and wins over every boundary. A boundary only ever tightens.
type limitResult struct {
	mu       sync.RWMutex
	boundary int
	err      error
}

func newLimitResult() *limitResult {
	return &limitResult{boundary: math.MaxInt}
}

func (r *limitResult) observeBoundary(v int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return
	}
	if v <= r.boundary {
		r.boundary = v
	}
}

func (r *limitResult) fail(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err == nil {
		r.err = err
	}
}

// limit the maximal valid index, or the terminal failure
func (r *limitResult) limit() (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.err != nil {
		return 0, r.err
	}
	return r.boundary - 1, nil
}

// Limit returns the maximal index v of the templates free axis for which the existence check
// succeeds. Values are probed starting at 1, so 0 means only index 0 exists. Success must be
// contiguous over [1, v] and every value beyond must fail with a boundary. Any other failure
// aborts the probe and is returned.
func Limit(ctx context.Context, src Existence, tpl address.Template, workers int) (int, error) {
	if workers < 1 {
		workers = 1
	}
	res := newLimitResult()
	var next atomic.Int64
	next.Store(1)

	var wg sync.WaitGroup
	for range workers {
		wg.Go(func() {
			for {
				v := int(next.Add(1) - 1)
				err := src.Exists(ctx, tpl.Address(v))
				switch {
				case err == nil:
					continue
				case transport.IsBoundary(err):
					res.observeBoundary(v)
				default:
					res.fail(err)
				}
				return
			}
		})
	}
	wg.Wait()
	return res.limit()
}
