package handlers

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/dtomasi/yangtze/core/pkg/client"
	"github.com/dtomasi/yangtze/core/pkg/codec"
	"github.com/dtomasi/yangtze/core/pkg/storage"
	v1 "github.com/dtomasi/yangtze/core/types/v1"
)

// Resource is the kind independent view of one resource endpoint. Objects
// are returned as typed pointers boxed in any.
type Resource interface {
	Info() v1.ResourceInfo
	Get(ctx context.Context, id string) (any, error)
	List(ctx context.Context, nn v1.NamespaceName) ([]any, error)
	// Create decodes the manifest into the typed resource and creates it
	Create(ctx context.Context, manifest storage.Object) (any, error)
	Delete(ctx context.Context, id string) (any, error)
}

type typedResource[T any] struct {
	info   v1.ResourceInfo
	client client.ResourceInterface[T]
}

// For wraps a typed client for use by the handlers.
func For[T any](info v1.ResourceInfo, c client.ResourceInterface[T]) Resource {
	return &typedResource[T]{info: info, client: c}
}

func (r *typedResource[T]) Info() v1.ResourceInfo {
	return r.info
}

func (r *typedResource[T]) Get(ctx context.Context, id string) (any, error) {
	return r.client.Get(ctx, id)
}

func (r *typedResource[T]) List(ctx context.Context, nn v1.NamespaceName) ([]any, error) {
	items, err := r.client.List(ctx, nn)
	if err != nil {
		return nil, err
	}
	out := make([]any, 0, len(items))
	for i := range items {
		out = append(out, &items[i])
	}
	return out, nil
}

func (r *typedResource[T]) Create(ctx context.Context, manifest storage.Object) (any, error) {
	manifest.Metadata.Kind = r.info.VersionKind.Kind
	data, err := json.Marshal(manifest)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal manifest: %w", err)
	}
	obj, err := codec.Unmarshal[T](manifest.Metadata.Kind, data)
	if err != nil {
		return nil, err
	}
	return r.client.Create(ctx, obj)
}

func (r *typedResource[T]) Delete(ctx context.Context, id string) (any, error) {
	return r.client.Delete(ctx, id)
}

// Set resolves user supplied resource names to registered resources.
type Set struct {
	registry  *v1.Registry
	resources map[string]Resource
}

// NewSet creates an empty set backed by registry for name lookups.
func NewSet(registry *v1.Registry) *Set {
	return &Set{registry: registry, resources: make(map[string]Resource)}
}

// Add registers r under its kind. The kind must be known to the registry.
func (s *Set) Add(r Resource) error {
	kind := r.Info().VersionKind.Kind
	if _, ok := s.registry.Lookup(kind); !ok {
		return fmt.Errorf("resource kind %q is not registered", kind)
	}
	if _, exists := s.resources[kind]; exists {
		return fmt.Errorf("resource kind %q already added", kind)
	}
	s.resources[kind] = r
	return nil
}

// Lookup finds a resource by kind, singular, plural or short name.
func (s *Set) Lookup(name string) (Resource, error) {
	info, ok := s.registry.Lookup(name)
	if !ok {
		return nil, fmt.Errorf("unknown resource type %q", name)
	}
	r, ok := s.resources[info.VersionKind.Kind]
	if !ok {
		return nil, fmt.Errorf("resource type %q is not served", name)
	}
	return r, nil
}

// Registry returns the registry names are resolved with.
func (s *Set) Registry() *v1.Registry {
	return s.registry
}
