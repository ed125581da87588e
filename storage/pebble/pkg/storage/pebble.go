package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/cockroachdb/pebble/v2"
	"github.com/cockroachdb/pebble/v2/vfs"

	yzstorage "github.com/dtomasi/yangtze/core/pkg/storage"
	v1 "github.com/dtomasi/yangtze/core/types/v1"
)

// pebbleStorage stores every object as one JSON record under
// <prefix>/objects/<id>. Pebble has no conditional writes, so the write
// lock of mu serializes the read-compare-write of create, update and delete.
type pebbleStorage struct {
	yzstorage.Counters

	db *pebble.DB

	// mu serializes version checks with the writes that follow them and
	// keeps readers off a closed database
	mu sync.RWMutex

	// config contains storage configuration
	config yzstorage.Config

	// closed indicates if the storage is closed
	closed atomic.Bool
}

// Option tunes how the pebble database is opened.
type Option func(*pebble.Options)

// WithFS opens the database on fs instead of the local disk.
func WithFS(fs vfs.FS) Option {
	return func(o *pebble.Options) {
		o.FS = fs
	}
}

// NewPebbleStorage opens (or creates) the pebble database at path
func NewPebbleStorage(path string, config yzstorage.Config, opts ...Option) (yzstorage.Backend, error) {
	options := &pebble.Options{
		// Optimize for high write throughput
		MemTableSize:                64 << 20, // 64MB
		MemTableStopWritesThreshold: 4,
		L0CompactionThreshold:       2,
		L0StopWritesThreshold:       12,
		MaxOpenFiles:                16384,

		CompactionConcurrencyRange: func() (int, int) { return 1, 3 },
		FlushSplitBytes:            2 << 20, // 2MB
	}
	for _, opt := range opts {
		opt(options)
	}

	db, err := pebble.Open(path, options)
	if err != nil {
		return nil, fmt.Errorf("failed to open pebble database at %s: %w", path, err)
	}

	config.Logger.V(1).Info("opened pebble database", "path", path)
	return &pebbleStorage{db: db, config: config}, nil
}

// New is the factory constructor for the pebble backend.
func New(_ context.Context, cfg *yzstorage.FactoryConfig, config yzstorage.Config) (yzstorage.Backend, error) {
	return NewPebbleStorage(cfg.GetDatabasePath(), config)
}

// Name returns the name of this storage backend
func (s *pebbleStorage) Name() string {
	return "pebble"
}

func (s *pebbleStorage) key(id string) []byte {
	return []byte(yzstorage.ObjectKey(s.config.KeyPrefix, id))
}

// ready must be called with mu held.
func (s *pebbleStorage) ready(ctx context.Context) error {
	if err := yzstorage.CheckContext(ctx); err != nil {
		return err
	}
	if s.closed.Load() {
		return yzstorage.ErrClosed
	}
	return nil
}

// read loads the record under id. A missing record is reported as NotFound.
func (s *pebbleStorage) read(id string) (yzstorage.Object, error) {
	data, closer, err := s.db.Get(s.key(id))
	if errors.Is(err, pebble.ErrNotFound) {
		return yzstorage.Object{}, v1.NewNotFound("object", id)
	}
	if err != nil {
		return yzstorage.Object{}, fmt.Errorf("failed to get object %s: %w", id, err)
	}
	defer func() { _ = closer.Close() }()

	var obj yzstorage.Object
	if err := json.Unmarshal(data, &obj); err != nil {
		return yzstorage.Object{}, v1.NewDecodeError("object", err)
	}
	return obj, nil
}

func (s *pebbleStorage) write(obj yzstorage.Object) error {
	data, err := json.Marshal(obj)
	if err != nil {
		return fmt.Errorf("failed to encode object %s: %w", obj.Metadata.ID, err)
	}

	batch := s.db.NewBatch()
	defer func() { _ = batch.Close() }()

	if err := batch.Set(s.key(obj.Metadata.ID), data, nil); err != nil {
		return fmt.Errorf("failed to set object in batch: %w", err)
	}
	if err := batch.Commit(pebble.Sync); err != nil {
		return fmt.Errorf("failed to commit batch: %w", err)
	}
	return nil
}

// Get returns the object stored under id
func (s *pebbleStorage) Get(ctx context.Context, id string) (yzstorage.Object, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if err := s.ready(ctx); err != nil {
		return yzstorage.Object{}, s.Observe(err)
	}

	obj, err := s.read(id)
	return obj, s.Observe(err)
}

// List scans the object key space and returns every match
func (s *pebbleStorage) List(ctx context.Context, filter yzstorage.Filter) ([]yzstorage.Object, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if err := s.ready(ctx); err != nil {
		return nil, s.Observe(err)
	}

	out := make([]yzstorage.Object, 0)
	err := s.scan(ctx, func(obj yzstorage.Object) {
		if filter.Matches(obj.Metadata) {
			out = append(out, obj)
		}
	})
	if err != nil {
		return nil, s.Observe(err)
	}

	yzstorage.SortObjects(out)
	return out, s.Observe(nil)
}

func (s *pebbleStorage) scan(ctx context.Context, fn func(yzstorage.Object)) error {
	prefix := yzstorage.ObjectKey(s.config.KeyPrefix, "")
	iter, err := s.db.NewIter(&pebble.IterOptions{
		LowerBound: []byte(prefix),
		UpperBound: []byte(prefix + "\xFF"),
	})
	if err != nil {
		return fmt.Errorf("failed to create iterator: %w", err)
	}
	defer func() { _ = iter.Close() }()

	for iter.First(); iter.Valid(); iter.Next() {
		if err := yzstorage.CheckContext(ctx); err != nil {
			return err
		}

		var obj yzstorage.Object
		if err := json.Unmarshal(iter.Value(), &obj); err != nil {
			return v1.NewDecodeError("object", fmt.Errorf("key %s: %w", iter.Key(), err))
		}
		fn(obj)
	}
	return iter.Error()
}

// Create adds a new object unless its id is already taken
func (s *pebbleStorage) Create(ctx context.Context, obj yzstorage.Object) (yzstorage.Object, error) {
	prepared, err := yzstorage.PrepareCreate(obj)
	if err != nil {
		return yzstorage.Object{}, s.Observe(err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ready(ctx); err != nil {
		return yzstorage.Object{}, s.Observe(err)
	}

	id := prepared.Metadata.ID
	if _, err := s.read(id); err == nil {
		return yzstorage.Object{}, s.Observe(v1.NewAlreadyExists(prepared.Metadata.Kind, id))
	} else if !v1.IsNotFound(err) {
		return yzstorage.Object{}, s.Observe(err)
	}

	if err := s.write(prepared); err != nil {
		return yzstorage.Object{}, s.Observe(err)
	}

	s.config.Logger.V(1).Info("created object", "object", prepared.String(), "id", id)
	return prepared, s.Observe(nil)
}

// Update applies obj over the stored value if obj's version is current
func (s *pebbleStorage) Update(ctx context.Context, obj yzstorage.Object) (yzstorage.Object, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ready(ctx); err != nil {
		return yzstorage.Object{}, s.Observe(err)
	}

	stored, err := s.read(obj.Metadata.ID)
	if err != nil {
		return yzstorage.Object{}, s.Observe(err)
	}

	updated, err := yzstorage.ApplyUpdate(stored, obj)
	if err != nil {
		return yzstorage.Object{}, s.Observe(err)
	}

	if err := s.write(updated); err != nil {
		return yzstorage.Object{}, s.Observe(err)
	}

	s.config.Logger.V(1).Info("updated object", "object", updated.String(), "id", updated.Metadata.ID,
		"version", updated.Metadata.Version)
	return updated, s.Observe(nil)
}

// Delete removes the object and returns the value it had
func (s *pebbleStorage) Delete(ctx context.Context, id string) (yzstorage.Object, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ready(ctx); err != nil {
		return yzstorage.Object{}, s.Observe(err)
	}

	stored, err := s.read(id)
	if err != nil {
		return yzstorage.Object{}, s.Observe(err)
	}

	if err := s.db.Delete(s.key(id), pebble.Sync); err != nil {
		return yzstorage.Object{}, s.Observe(fmt.Errorf("failed to delete object %s: %w", id, err))
	}

	s.config.Logger.V(1).Info("deleted object", "object", stored.String(), "id", id)
	return stored, s.Observe(nil)
}

// Count returns the number of objects matching filter
func (s *pebbleStorage) Count(ctx context.Context, filter yzstorage.Filter) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if err := s.ready(ctx); err != nil {
		return 0, err
	}

	var n int64
	err := s.scan(ctx, func(obj yzstorage.Object) {
		if filter.Matches(obj.Metadata) {
			n++
		}
	})
	return n, err
}

// Ping reports whether the database is open
func (s *pebbleStorage) Ping(ctx context.Context) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.ready(ctx)
}

// Metrics returns the operation counters
func (s *pebbleStorage) Metrics() yzstorage.BackendMetrics {
	return s.Snapshot(s.Name())
}

// Compact performs manual compaction on the object key space
func (s *pebbleStorage) Compact(ctx context.Context) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if err := s.ready(ctx); err != nil {
		return err
	}

	if err := s.db.Compact(ctx, []byte(""), []byte("\xFF"), true); err != nil {
		return fmt.Errorf("failed to compact database: %w", err)
	}
	return nil
}

// Close flushes and closes the database
func (s *pebbleStorage) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed.Swap(true) {
		return nil
	}
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("failed to close pebble database: %w", err)
	}
	return nil
}

var (
	_ yzstorage.Backend   = (*pebbleStorage)(nil)
	_ yzstorage.Compactor = (*pebbleStorage)(nil)
)
