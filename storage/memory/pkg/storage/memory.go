package storage

import (
	"context"
	"sync"

	yzstorage "github.com/dtomasi/yangtze/core/pkg/storage"
	v1 "github.com/dtomasi/yangtze/core/types/v1"
)

// memoryStorage keeps objects in a map guarded by one RWMutex. The write
// lock covers every read-compare-write so version checks are atomic.
type memoryStorage struct {
	yzstorage.Counters

	// mu protects all operations on the storage
	mu sync.RWMutex

	// objects maps object ids to their stored value
	objects map[string]yzstorage.Object

	// config contains storage configuration
	config yzstorage.Config

	closed bool
}

// NewMemoryStorage creates a new in-memory storage backend
func NewMemoryStorage(config yzstorage.Config) yzstorage.Backend {
	return &memoryStorage{
		objects: make(map[string]yzstorage.Object),
		config:  config,
	}
}

// New is the factory constructor for the memory backend.
func New(_ context.Context, _ *yzstorage.FactoryConfig, config yzstorage.Config) (yzstorage.Backend, error) {
	return NewMemoryStorage(config), nil
}

// Name returns the name of this storage backend
func (s *memoryStorage) Name() string {
	return "memory"
}

// Get returns the object stored under id
func (s *memoryStorage) Get(ctx context.Context, id string) (yzstorage.Object, error) {
	if err := yzstorage.CheckContext(ctx); err != nil {
		return yzstorage.Object{}, s.Observe(err)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return yzstorage.Object{}, s.Observe(yzstorage.ErrClosed)
	}

	obj, ok := s.objects[id]
	if !ok {
		return yzstorage.Object{}, s.Observe(v1.NewNotFound("object", id))
	}
	return obj.DeepCopy(), s.Observe(nil)
}

// List returns all objects matching filter
func (s *memoryStorage) List(ctx context.Context, filter yzstorage.Filter) ([]yzstorage.Object, error) {
	if err := yzstorage.CheckContext(ctx); err != nil {
		return nil, s.Observe(err)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, s.Observe(yzstorage.ErrClosed)
	}

	out := make([]yzstorage.Object, 0)
	for _, obj := range s.objects {
		if filter.Matches(obj.Metadata) {
			out = append(out, obj.DeepCopy())
		}
	}
	yzstorage.SortObjects(out)
	return out, s.Observe(nil)
}

// Create adds a new object unless its id is already taken
func (s *memoryStorage) Create(ctx context.Context, obj yzstorage.Object) (yzstorage.Object, error) {
	if err := yzstorage.CheckContext(ctx); err != nil {
		return yzstorage.Object{}, s.Observe(err)
	}

	prepared, err := yzstorage.PrepareCreate(obj)
	if err != nil {
		return yzstorage.Object{}, s.Observe(err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return yzstorage.Object{}, s.Observe(yzstorage.ErrClosed)
	}

	id := prepared.Metadata.ID
	if _, exists := s.objects[id]; exists {
		return yzstorage.Object{}, s.Observe(v1.NewAlreadyExists(prepared.Metadata.Kind, id))
	}

	s.objects[id] = prepared
	s.config.Logger.V(1).Info("created object", "object", prepared.String(), "id", id)
	return prepared.DeepCopy(), s.Observe(nil)
}

// Update applies obj over the stored value if obj's version is current
func (s *memoryStorage) Update(ctx context.Context, obj yzstorage.Object) (yzstorage.Object, error) {
	if err := yzstorage.CheckContext(ctx); err != nil {
		return yzstorage.Object{}, s.Observe(err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return yzstorage.Object{}, s.Observe(yzstorage.ErrClosed)
	}

	id := obj.Metadata.ID
	stored, ok := s.objects[id]
	if !ok {
		return yzstorage.Object{}, s.Observe(v1.NewNotFound(obj.Metadata.Kind, id))
	}

	updated, err := yzstorage.ApplyUpdate(stored, obj)
	if err != nil {
		return yzstorage.Object{}, s.Observe(err)
	}

	s.objects[id] = updated
	s.config.Logger.V(1).Info("updated object", "object", updated.String(), "id", id,
		"version", updated.Metadata.Version)
	return updated.DeepCopy(), s.Observe(nil)
}

// Delete removes the object and returns the value it had
func (s *memoryStorage) Delete(ctx context.Context, id string) (yzstorage.Object, error) {
	if err := yzstorage.CheckContext(ctx); err != nil {
		return yzstorage.Object{}, s.Observe(err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return yzstorage.Object{}, s.Observe(yzstorage.ErrClosed)
	}

	obj, ok := s.objects[id]
	if !ok {
		return yzstorage.Object{}, s.Observe(v1.NewNotFound("object", id))
	}

	delete(s.objects, id)
	s.config.Logger.V(1).Info("deleted object", "object", obj.String(), "id", id)
	return obj, s.Observe(nil)
}

// Count returns the number of objects matching filter
func (s *memoryStorage) Count(ctx context.Context, filter yzstorage.Filter) (int64, error) {
	if err := yzstorage.CheckContext(ctx); err != nil {
		return 0, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var n int64
	for _, obj := range s.objects {
		if filter.Matches(obj.Metadata) {
			n++
		}
	}
	return n, nil
}

// Ping reports whether the storage is open
func (s *memoryStorage) Ping(ctx context.Context) error {
	if err := yzstorage.CheckContext(ctx); err != nil {
		return err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return yzstorage.ErrClosed
	}
	return nil
}

// Metrics returns the operation counters
func (s *memoryStorage) Metrics() yzstorage.BackendMetrics {
	return s.Snapshot(s.Name())
}

// Close drops all objects
func (s *memoryStorage) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.closed = true
	s.objects = make(map[string]yzstorage.Object)
	return nil
}

var _ yzstorage.Backend = (*memoryStorage)(nil)
