package storage

import (
	"fmt"
	"net/url"
	"path/filepath"
	"time"
)

// StorageType defines the supported storage backend types.
type StorageType string

const (
	// StorageTypeMemory represents the in-memory storage backend
	StorageTypeMemory StorageType = "memory"

	// StorageTypePebble represents the PebbleDB storage backend
	StorageTypePebble StorageType = "pebble"

	// StorageTypePostgres represents the PostgreSQL storage backend
	StorageTypePostgres StorageType = "postgres"
)

// FactoryConfig holds configuration for the storage factory.
type FactoryConfig struct {
	// Type specifies which storage backend to use
	Type StorageType `json:"type" toml:"type"`

	// Path is the directory path for the pebble backend
	Path string `json:"path,omitempty" toml:"path"`

	// DatabaseName is the name of the database directory below Path
	DatabaseName string `json:"databaseName,omitempty" toml:"database_name"`

	// DatabaseURL is the connection string of the postgres backend
	DatabaseURL string `json:"databaseURL,omitempty" toml:"database_url"`

	// KeyPrefix scopes all keys written by key-value backends
	KeyPrefix string `json:"keyPrefix,omitempty" toml:"key_prefix"`

	// HealthCheck configuration
	HealthCheck HealthCheckConfig `json:"healthCheck,omitempty" toml:"health_check"`

	// Performance configuration
	Performance PerformanceConfig `json:"performance,omitempty" toml:"performance"`
}

// HealthCheckConfig configures health monitoring for storage backends.
type HealthCheckConfig struct {
	// Timeout is the maximum time to wait for a health check
	Timeout time.Duration `json:"timeout" toml:"timeout"`
}

// PerformanceConfig configures performance settings for storage backends.
type PerformanceConfig struct {
	// MaxConnections limits the size of the postgres connection pool
	MaxConnections int32 `json:"maxConnections" toml:"max_connections"`

	// MaxIdleTime is the maximum idle time before closing connections
	MaxIdleTime time.Duration `json:"maxIdleTime" toml:"max_idle_time"`

	// CompactionInterval is how often to perform compaction (if supported)
	CompactionInterval time.Duration `json:"compactionInterval" toml:"compaction_interval"`
}

// Validate validates the factory configuration and fills in defaults.
func (c *FactoryConfig) Validate() error {
	if c.Type == "" {
		return fmt.Errorf("storage type must be specified")
	}

	if !IsValidStorageType(c.Type) {
		return fmt.Errorf("unsupported storage type: %s", c.Type)
	}
	if StorageTypeRequiresPath(c.Type) {
		if c.Path == "" {
			return fmt.Errorf("path is required for %s storage", c.Type)
		}
		if c.DatabaseName == "" {
			c.DatabaseName = GetDefaultDatabaseName(c.Type)
		}
	}
	if c.Type == StorageTypePostgres {
		if c.DatabaseURL == "" {
			return fmt.Errorf("database URL is required for %s storage", c.Type)
		}
		u, err := url.Parse(c.DatabaseURL)
		if err != nil {
			return fmt.Errorf("invalid database URL: %w", err)
		}
		if u.Scheme != "postgres" && u.Scheme != "postgresql" {
			return fmt.Errorf("unsupported database URL scheme: %q", u.Scheme)
		}
	}

	if c.HealthCheck.Timeout <= 0 {
		c.HealthCheck.Timeout = 5 * time.Second
	}
	if c.Performance.MaxConnections <= 0 {
		c.Performance.MaxConnections = 10
	}
	if c.Performance.MaxIdleTime <= 0 {
		c.Performance.MaxIdleTime = 5 * time.Minute
	}

	return nil
}

// GetDatabasePath returns the full path to the pebble database directory.
func (c *FactoryConfig) GetDatabasePath() string {
	if c.Path == "" {
		return c.DatabaseName
	}
	return filepath.Join(c.Path, c.DatabaseName)
}

// GetDefaultDatabaseName returns the default database name for a storage type
func GetDefaultDatabaseName(storageType StorageType) string {
	if storageType == StorageTypePebble {
		return "yangtze.pebble"
	}
	return "yangtze.db"
}

// DefaultFactoryConfig returns a default factory configuration.
func DefaultFactoryConfig() *FactoryConfig {
	return &FactoryConfig{
		Type:         StorageTypeMemory,
		DatabaseName: GetDefaultDatabaseName(StorageTypePebble),
		HealthCheck: HealthCheckConfig{
			Timeout: 5 * time.Second,
		},
		Performance: PerformanceConfig{
			MaxConnections:     10,
			MaxIdleTime:        5 * time.Minute,
			CompactionInterval: time.Hour,
		},
	}
}

// MemoryFactoryConfig returns a factory configuration for memory storage.
func MemoryFactoryConfig() *FactoryConfig {
	config := DefaultFactoryConfig()
	config.Type = StorageTypeMemory
	return config
}

// PebbleFactoryConfig returns a factory configuration for Pebble storage.
func PebbleFactoryConfig(path string) *FactoryConfig {
	config := DefaultFactoryConfig()
	config.Type = StorageTypePebble
	config.Path = path
	return config
}

// PostgresFactoryConfig returns a factory configuration for PostgreSQL storage.
func PostgresFactoryConfig(databaseURL string) *FactoryConfig {
	config := DefaultFactoryConfig()
	config.Type = StorageTypePostgres
	config.DatabaseURL = databaseURL
	return config
}
