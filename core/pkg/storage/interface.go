package storage

import (
	"context"
	"encoding/json"

	v1 "github.com/dtomasi/yangtze/core/types/v1"
)

// Object is the untyped envelope persisted by every backend. Spec and Status
// are opaque serialized payloads the storage engine never interprets.
type Object struct {
	Metadata v1.Metadata     `json:"metadata"`
	Spec     json.RawMessage `json:"spec,omitempty"`
	Status   json.RawMessage `json:"status,omitempty"`
}

// String renders the display form {kind}/{namespace}/{name}.
func (o Object) String() string {
	return o.Metadata.String()
}

// DeepCopy returns a copy sharing no memory with o.
func (o Object) DeepCopy() Object {
	out := Object{Metadata: *o.Metadata.DeepCopy()}
	if o.Spec != nil {
		out.Spec = append(json.RawMessage(nil), o.Spec...)
	}
	if o.Status != nil {
		out.Status = append(json.RawMessage(nil), o.Status...)
	}
	return out
}

// Interface is the storage contract shared by all backends.
type Interface interface {
	// Get returns the object with the given id or a NotFound error.
	Get(ctx context.Context, id string) (Object, error)

	// List returns every object matching filter. No match is an empty
	// result, not an error.
	List(ctx context.Context, filter Filter) ([]Object, error)

	// Create persists a new object. An empty id is replaced by a generated
	// one and the version is always reset to 0.
	Create(ctx context.Context, obj Object) (Object, error)

	// Update replaces spec, status and labels of the stored object if the
	// stored version is not newer than obj's version, and bumps the stored
	// version by one. A newer stored version yields a Conflict error and
	// leaves the object untouched.
	Update(ctx context.Context, obj Object) (Object, error)

	// Delete removes the object and returns the value it had.
	Delete(ctx context.Context, id string) (Object, error)
}

// Backend defines the lifecycle and introspection methods every storage
// backend provides on top of Interface.
type Backend interface {
	Interface

	// Name returns the name of this storage backend
	Name() string

	// Close closes the storage backend and cleans up resources
	Close() error

	// Ping reports whether the backend can serve requests
	Ping(ctx context.Context) error

	// Count returns the number of objects matching filter
	Count(ctx context.Context, filter Filter) (int64, error)

	// Metrics returns operation counters for the backend
	Metrics() BackendMetrics
}

// Compactor is implemented by backends that support manual compaction.
type Compactor interface {
	Compact(ctx context.Context) error
}

// Filter is a metadata shaped query. Every non-empty field must match
// exactly; empty fields impose no constraint.
type Filter struct {
	ID        string `json:"id,omitempty"`
	Kind      string `json:"kind,omitempty"`
	Namespace string `json:"namespace,omitempty"`
	Name      string `json:"name,omitempty"`
}

// Matches applies the filter to m.
func (f Filter) Matches(m v1.Metadata) bool {
	if f.ID != "" && f.ID != m.ID {
		return false
	}
	if f.Kind != "" && f.Kind != m.Kind {
		return false
	}
	if f.Namespace != "" && f.Namespace != m.Namespace {
		return false
	}
	if f.Name != "" && f.Name != m.Name {
		return false
	}
	return true
}

// FilterFor narrows a NamespaceName query to a single kind.
func FilterFor(kind string, nn v1.NamespaceName) Filter {
	f := Filter{Kind: kind}
	if nn.Namespace != nil {
		f.Namespace = *nn.Namespace
	}
	if nn.Name != nil {
		f.Name = *nn.Name
	}
	return f
}
