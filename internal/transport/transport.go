// Package transport provides the tile sources: a shared HTTP client and MBTiles files.
package transport

import (
	"context"
	"fmt"
	"time"

	"github.com/pkg/errors"
)

// Error kinds, test with errors.Is
var (
	// ErrBoundary the address does not exist, used by the prober as axis limit
	ErrBoundary = errors.New("transport: address out of range")
	// ErrNotFound the content of an address could not be delivered (4xx on a download or a
	// missing tile). Unlike ErrBoundary it is a failure for the caller.
	ErrNotFound = errors.New("transport: content not found")
	// ErrServer the source answered with a server side fault or a malformed response
	ErrServer = errors.New("transport: server failure")
	// ErrTransport the source could not be reached or the body could not be read
	ErrTransport = errors.New("transport: connection failure")
)

// Service the two primitives needed by prober and fetcher
type Service interface {
	// Exists issues a lightweight existence check. nil on success, ErrBoundary if the address
	// is proven absent, any other error otherwise.
	Exists(ctx context.Context, addr string) error
	// Fetch returns the complete content of the address, an absent address is ErrNotFound
	Fetch(ctx context.Context, addr string) ([]byte, error)
}

// Config for the http transport
type Config struct {
	Timeout         time.Duration     `yaml:"timeout"` // 0 = no timeout
	MaxConnsPerHost int               `yaml:"maxconnsperhost"`
	UserAgent       string            `yaml:"useragent"`
	Headers         map[string]string `yaml:"headers"`
}

// Error a classified transport failure
type Error struct {
	Kind   error
	Op     string
	Addr   string
	Status int
	Err    error
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("%s %s: %v", e.Op, e.Addr, e.Kind)
	if e.Status != 0 {
		msg = fmt.Sprintf("%s (status %d)", msg, e.Status)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

// Is matches the error kind
func (e *Error) Is(target error) bool {
	return target == e.Kind
}

func (e *Error) Unwrap() error {
	return e.Err
}

// IsBoundary reports whether the error proves the address absent
func IsBoundary(err error) bool {
	return errors.Is(err, ErrBoundary)
}
