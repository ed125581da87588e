// Package logging builds the logr.Logger used by every yangtze process. The
// sink is zap; callers only ever see logr.
package logging

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-logr/logr"
	"github.com/go-logr/zapr"
	uberzap "go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Verbosity levels passed to logger.V.
const (
	DEFAULT = 0
	VERBOSE = 1
	DEBUG   = 2
	TRACE   = 3
)

// Options configures New.
type Options struct {
	// Verbosity enables logger.V(n) lines for every n <= Verbosity
	Verbosity int `toml:"verbosity"`

	// Development switches to the human readable console encoder
	Development bool `toml:"development"`
}

// ParseLevel maps a level name or a verbosity number to a verbosity.
func ParseLevel(s string) (int, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "info", "default":
		return DEFAULT, nil
	case "verbose":
		return VERBOSE, nil
	case "debug":
		return DEBUG, nil
	case "trace":
		return TRACE, nil
	}

	var v int
	if _, err := fmt.Sscanf(s, "%d", &v); err != nil || v < 0 {
		return 0, fmt.Errorf("invalid log level %q", s)
	}
	return v, nil
}

// New builds a zap backed logr.Logger.
func New(opts Options) (logr.Logger, error) {
	var cfg uberzap.Config
	if opts.Development {
		cfg = uberzap.NewDevelopmentConfig()
	} else {
		cfg = uberzap.NewProductionConfig()
		cfg.Sampling = nil
	}
	cfg.Level = uberzap.NewAtomicLevelAt(zapcore.Level(-1 * opts.Verbosity))

	zl, err := cfg.Build(uberzap.AddCaller())
	if err != nil {
		return logr.Discard(), fmt.Errorf("failed to build logger: %w", err)
	}
	return zapr.NewLogger(zl), nil
}

// NewTestLogger creates a new Zap logger using the dev mode.
func NewTestLogger() logr.Logger {
	cfg := uberzap.NewDevelopmentConfig()
	cfg.Level = uberzap.NewAtomicLevelAt(zapcore.Level(-1 * TRACE))

	zl, err := cfg.Build(uberzap.AddCaller())
	if err != nil {
		return logr.Discard()
	}
	return zapr.NewLogger(zl)
}

// IntoContext stores logger in ctx.
func IntoContext(ctx context.Context, logger logr.Logger) context.Context {
	return logr.NewContext(ctx, logger)
}

// FromContext returns the logger stored in ctx or a discarding logger.
func FromContext(ctx context.Context) logr.Logger {
	return logr.FromContextOrDiscard(ctx)
}
