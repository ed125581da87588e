package storage

import (
	"context"
	"errors"
	"sync/atomic"

	"github.com/go-logr/logr"
)

// Config holds options shared by all backends.
type Config struct {
	// KeyPrefix is a custom prefix for all keys in this storage instance
	KeyPrefix string

	// Logger receives one V(1) line per successful write
	Logger logr.Logger
}

// BackendMetrics holds operation counters for a storage backend.
type BackendMetrics struct {
	// Name is the backend name
	Name string `json:"name"`

	// Operations counts successful operations
	Operations uint64 `json:"operations"`

	// Errors counts failed operations, including NotFound and Conflict
	Errors uint64 `json:"errors"`

	// Conflicts counts rejected stale updates
	Conflicts uint64 `json:"conflicts"`
}

// Counters is embedded by backends to track BackendMetrics.
type Counters struct {
	operations atomic.Uint64
	errors     atomic.Uint64
	conflicts  atomic.Uint64
}

// Observe records the outcome of one operation and returns err unchanged.
func (c *Counters) Observe(err error) error {
	switch {
	case err == nil:
		c.operations.Add(1)
	case isConflict(err):
		c.conflicts.Add(1)
		c.errors.Add(1)
	default:
		c.errors.Add(1)
	}
	return err
}

// Snapshot returns the current counters labelled with name.
func (c *Counters) Snapshot(name string) BackendMetrics {
	return BackendMetrics{
		Name:       name,
		Operations: c.operations.Load(),
		Errors:     c.errors.Load(),
		Conflicts:  c.conflicts.Load(),
	}
}

// ContextCancelledError represents an error when context is cancelled
type ContextCancelledError struct {
	Err error
}

// Error implements error interface
func (e ContextCancelledError) Error() string {
	return "context cancelled: " + e.Err.Error()
}

func (e ContextCancelledError) Unwrap() error {
	return e.Err
}

// IsContextCancelled checks if an error is a context cancellation error
func IsContextCancelled(err error) bool {
	var ce ContextCancelledError
	return errors.As(err, &ce)
}

// CheckContext returns a ContextCancelledError once ctx is done.
func CheckContext(ctx context.Context) error {
	if ctx.Err() != nil {
		return ContextCancelledError{Err: ctx.Err()}
	}
	return nil
}

// ErrClosed is returned by operations on a closed backend.
var ErrClosed = errors.New("storage is closed")
