package controller

import (
	"time"

	"github.com/go-logr/logr"
	"github.com/prometheus/client_golang/prometheus"
	"k8s.io/apimachinery/pkg/util/wait"
	"k8s.io/utils/clock"

	"github.com/dtomasi/yangtze/core/pkg/storage"
	"github.com/dtomasi/yangtze/core/pkg/validation"
)

// RestartPolicy decides what happens to a controller whose loop ended with
// an error.
type RestartPolicy string

const (
	// RestartNever leaves the controller failed.
	RestartNever RestartPolicy = "Never"
	// RestartImmediate starts the loop again right away.
	RestartImmediate RestartPolicy = "Immediate"
	// RestartBackoff starts the loop again after an exponential delay.
	RestartBackoff RestartPolicy = "Backoff"
)

const (
	DefaultInterval    = 10 * time.Second
	DefaultCallTimeout = 30 * time.Second
	DefaultListRetries = 5
)

// Config holds the runtime settings shared by every controller.
type Config struct {
	// Interval is the pause before every reconciliation pass
	Interval time.Duration

	// CallTimeout bounds every list and every Execute call
	CallTimeout time.Duration

	// ListBackoff spaces out retries of a failed list
	ListBackoff wait.Backoff

	// ListRetries is the number of consecutive list failures that end the loop
	ListRetries int

	RestartPolicy RestartPolicy

	// RestartBackoff spaces out restarts under RestartBackoff
	RestartBackoff wait.Backoff

	// MaxRestarts caps restarts per controller; 0 means unlimited
	MaxRestarts int

	Clock clock.Clock

	Logger logr.Logger

	// Registry receives the runtime metrics and backs the /metrics endpoint
	Registry *prometheus.Registry

	// Storage, when set, makes controllers talk to the store directly
	// instead of going through the API server
	Storage storage.Interface

	// Validator is applied by colocated clients
	Validator *validation.Validator
}

// Option configures the runtime.
type Option func(*Config)

// DefaultConfig returns the default runtime settings.
func DefaultConfig() Config {
	return Config{
		Interval:    DefaultInterval,
		CallTimeout: DefaultCallTimeout,
		ListBackoff: wait.Backoff{
			Duration: time.Second,
			Factor:   2,
			Jitter:   0.1,
			Steps:    10,
			Cap:      time.Minute,
		},
		ListRetries:   DefaultListRetries,
		RestartPolicy: RestartBackoff,
		RestartBackoff: wait.Backoff{
			Duration: 5 * time.Second,
			Factor:   2,
			Jitter:   0.1,
			Steps:    8,
			Cap:      5 * time.Minute,
		},
		Clock:  clock.RealClock{},
		Logger: logr.Discard(),
	}
}

// WithInterval sets the pause between passes.
func WithInterval(d time.Duration) Option {
	return func(c *Config) {
		c.Interval = d
	}
}

// WithCallTimeout bounds every list and Execute call.
func WithCallTimeout(d time.Duration) Option {
	return func(c *Config) {
		c.CallTimeout = d
	}
}

// WithListRetry sets the list retry backoff and the number of consecutive
// failures tolerated before the loop ends.
func WithListRetry(backoff wait.Backoff, retries int) Option {
	return func(c *Config) {
		c.ListBackoff = backoff
		c.ListRetries = retries
	}
}

// WithRestartPolicy sets how failed loops are restarted.
func WithRestartPolicy(policy RestartPolicy, backoff wait.Backoff, maxRestarts int) Option {
	return func(c *Config) {
		c.RestartPolicy = policy
		c.RestartBackoff = backoff
		c.MaxRestarts = maxRestarts
	}
}

// WithClock replaces the clock used for every wait.
func WithClock(clk clock.Clock) Option {
	return func(c *Config) {
		c.Clock = clk
	}
}

// WithLogger sets the runtime logger.
func WithLogger(logger logr.Logger) Option {
	return func(c *Config) {
		c.Logger = logger
	}
}

// WithRegistry registers the runtime metrics on reg.
func WithRegistry(reg *prometheus.Registry) Option {
	return func(c *Config) {
		c.Registry = reg
	}
}

// WithStorage runs controllers colocated with store.
func WithStorage(store storage.Interface) Option {
	return func(c *Config) {
		c.Storage = store
	}
}

// WithValidator validates writes of colocated controllers.
func WithValidator(v *validation.Validator) Option {
	return func(c *Config) {
		c.Validator = v
	}
}
