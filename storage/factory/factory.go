// Package factory wires every storage backend into a storage.Factory.
package factory

import (
	"context"

	yzstorage "github.com/dtomasi/yangtze/core/pkg/storage"
	memory "github.com/dtomasi/yangtze/storage/memory/pkg/storage"
	pebble "github.com/dtomasi/yangtze/storage/pebble/pkg/storage"
	postgres "github.com/dtomasi/yangtze/storage/postgres/pkg/storage"
)

// Default returns a factory knowing the memory, pebble and postgres backends.
func Default() *yzstorage.Factory {
	f := yzstorage.NewFactory()
	f.Register(yzstorage.StorageTypeMemory, memory.New)
	f.Register(yzstorage.StorageTypePebble, pebble.New)
	f.Register(yzstorage.StorageTypePostgres, postgres.New)
	return f
}

// New builds the backend described by cfg with the default factory.
func New(ctx context.Context, cfg *yzstorage.FactoryConfig, config yzstorage.Config) (yzstorage.Backend, error) {
	return Default().Create(ctx, cfg, config)
}
