package storage

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// Constructor builds a backend from a validated factory configuration.
type Constructor func(ctx context.Context, cfg *FactoryConfig, config Config) (Backend, error)

// Factory creates backends by storage type. Backend packages register their
// constructor so the core package does not depend on any of them.
type Factory struct {
	mu           sync.RWMutex
	constructors map[StorageType]Constructor
}

// NewFactory creates an empty factory.
func NewFactory() *Factory {
	return &Factory{constructors: make(map[StorageType]Constructor)}
}

// Register adds the constructor for storageType, replacing any previous one.
func (f *Factory) Register(storageType StorageType, ctor Constructor) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.constructors[storageType] = ctor
}

// Create validates cfg and builds the matching backend.
func (f *Factory) Create(ctx context.Context, cfg *FactoryConfig, config Config) (Backend, error) {
	if cfg == nil {
		return nil, fmt.Errorf("storage configuration is required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid storage configuration: %w", err)
	}

	f.mu.RLock()
	ctor, ok := f.constructors[cfg.Type]
	f.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("no backend registered for storage type %s", cfg.Type)
	}

	if config.KeyPrefix == "" {
		config.KeyPrefix = cfg.KeyPrefix
	}

	backend, err := ctor(ctx, cfg, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create %s storage: %w", cfg.Type, err)
	}
	return backend, nil
}

// SupportedBackends returns the registered storage types
func (f *Factory) SupportedBackends() []string {
	f.mu.RLock()
	defer f.mu.RUnlock()

	out := make([]string, 0, len(f.constructors))
	for t := range f.constructors {
		out = append(out, string(t))
	}
	sort.Strings(out)
	return out
}
