// Package config loads process configuration for the yangtze binaries from a
// TOML file and the environment. Command line flags are applied on top by
// the binaries themselves.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	utilerrors "k8s.io/apimachinery/pkg/util/errors"

	"github.com/dtomasi/yangtze/core/pkg/client"
	"github.com/dtomasi/yangtze/core/pkg/controller"
	"github.com/dtomasi/yangtze/core/pkg/logging"
	"github.com/dtomasi/yangtze/core/pkg/server"
	"github.com/dtomasi/yangtze/core/pkg/storage"
	v1 "github.com/dtomasi/yangtze/core/types/v1"
)

// Environment variables read by ApplyEnv.
const (
	EnvDatabaseURL = "DATABASE_URL"
	EnvAddress     = "YANGTZE_ADDRESS"
	EnvLogLevel    = "YANGTZE_LOG_LEVEL"
)

// Config is the complete process configuration.
type Config struct {
	Server     ServerConfig          `toml:"server"`
	Storage    storage.FactoryConfig `toml:"storage"`
	Controller ControllerConfig      `toml:"controller"`
	Log        LogConfig             `toml:"log"`
}

// ServerConfig configures the API server.
type ServerConfig struct {
	// Address is the listen address
	Address string `toml:"address"`

	ShutdownTimeout time.Duration `toml:"shutdown_timeout"`
}

// ControllerConfig configures the controller process.
type ControllerConfig struct {
	// Server is the API server base URL
	Server string `toml:"server"`

	Interval    time.Duration `toml:"interval"`
	CallTimeout time.Duration `toml:"call_timeout"`
	ListRetries int           `toml:"list_retries"`

	RestartPolicy controller.RestartPolicy `toml:"restart_policy"`
	MaxRestarts   int                      `toml:"max_restarts"`

	// HealthAddress is where /healthz, /readyz and /metrics are served;
	// empty disables the endpoint
	HealthAddress string `toml:"health_address"`
}

// LogConfig configures logging.
type LogConfig struct {
	// Level is a level name (info, verbose, debug, trace) or a verbosity
	Level string `toml:"level"`

	Development bool `toml:"development"`
}

// Default returns the configuration used when nothing else is given.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Address:         server.DefaultAddress,
			ShutdownTimeout: server.DefaultShutdownTimeout,
		},
		Storage: *storage.MemoryFactoryConfig(),
		Controller: ControllerConfig{
			Server:        client.DefaultAddress,
			Interval:      controller.DefaultInterval,
			CallTimeout:   controller.DefaultCallTimeout,
			ListRetries:   controller.DefaultListRetries,
			RestartPolicy: controller.RestartBackoff,
			HealthAddress: ":8081",
		},
		Log: LogConfig{Level: "info"},
	}
}

// Load reads path over the defaults, applies the environment and validates
// the result. An empty path skips the file.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		if err := cfg.LoadFile(path); err != nil {
			return Config{}, err
		}
	}
	cfg.ApplyEnv(os.LookupEnv)
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// LoadFile decodes the TOML file at path into c. Keys that match no field
// are rejected.
func (c *Config) LoadFile(path string) error {
	meta, err := toml.DecodeFile(path, c)
	if err != nil {
		return v1.WrapConfigError("file", fmt.Errorf("failed to read %s: %w", path, err))
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, 0, len(undecoded))
		for _, k := range undecoded {
			keys = append(keys, k.String())
		}
		return v1.NewConfigError("file", fmt.Sprintf("unknown keys in %s: %s", path, strings.Join(keys, ", ")))
	}
	return nil
}

// ApplyEnv overrides c with the environment variables that are set.
// DATABASE_URL also selects the postgres backend.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) {
	if url, ok := lookup(EnvDatabaseURL); ok && url != "" {
		c.Storage.Type = storage.StorageTypePostgres
		c.Storage.DatabaseURL = url
	}
	if address, ok := lookup(EnvAddress); ok && address != "" {
		c.Controller.Server = address
	}
	if level, ok := lookup(EnvLogLevel); ok && level != "" {
		c.Log.Level = level
	}
}

// Validate checks every section and reports all problems at once.
func (c *Config) Validate() error {
	var errs []error

	if c.Server.Address == "" {
		errs = append(errs, v1.NewConfigError("server.address", "must not be empty"))
	}
	if err := c.Storage.Validate(); err != nil {
		errs = append(errs, v1.WrapConfigError("storage", err))
	}
	if _, err := client.New(client.Config{Address: c.Controller.Server}); err != nil {
		errs = append(errs, err)
	}
	if c.Controller.Interval <= 0 {
		errs = append(errs, v1.NewConfigError("controller.interval", "must be positive"))
	}
	if c.Controller.CallTimeout <= 0 {
		errs = append(errs, v1.NewConfigError("controller.call_timeout", "must be positive"))
	}
	if c.Controller.ListRetries < 1 {
		errs = append(errs, v1.NewConfigError("controller.list_retries", "must be at least 1"))
	}
	switch c.Controller.RestartPolicy {
	case controller.RestartNever, controller.RestartImmediate, controller.RestartBackoff:
	default:
		errs = append(errs, v1.NewConfigError("controller.restart_policy",
			fmt.Sprintf("unknown policy %q", c.Controller.RestartPolicy)))
	}
	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, v1.WrapConfigError("log.level", err))
	}

	return utilerrors.NewAggregate(errs)
}

// Logging returns the logger options described by the log section.
func (c *Config) Logging() (logging.Options, error) {
	verbosity, err := logging.ParseLevel(c.Log.Level)
	if err != nil {
		return logging.Options{}, v1.WrapConfigError("log.level", err)
	}
	return logging.Options{Verbosity: verbosity, Development: c.Log.Development}, nil
}
