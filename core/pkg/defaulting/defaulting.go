// Package defaulting fills in the declared default values of a resource kind
// before the object is validated and created.
package defaulting

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/dtomasi/yangtze/core/pkg/codec"
	"github.com/dtomasi/yangtze/core/pkg/storage"
	v1 "github.com/dtomasi/yangtze/core/types/v1"
)

// Manager holds the defaults of every registered kind. It is safe for
// concurrent use.
type Manager struct {
	mu       sync.RWMutex
	defaults map[string][]v1.DefaultValue
}

// NewManager creates a manager without defaults.
func NewManager() *Manager {
	return &Manager{defaults: make(map[string][]v1.DefaultValue)}
}

// ForRegistry registers the defaults of every resource in r.
func ForRegistry(r *v1.Registry) (*Manager, error) {
	m := NewManager()
	for _, info := range r.List() {
		if err := m.Register(info); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// Register replaces the defaults of info's kind.
func (m *Manager) Register(info v1.ResourceInfo) error {
	for _, d := range info.Defaults {
		if d.Field == "" || strings.HasPrefix(d.Field, ".") || strings.HasSuffix(d.Field, ".") {
			return fmt.Errorf("invalid default field %q for %s", d.Field, info.VersionKind)
		}
		if d.Field == "metadata.id" || d.Field == "metadata.kind" || d.Field == "metadata.version" {
			return fmt.Errorf("field %s of %s cannot have a default", d.Field, info.VersionKind)
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.defaults[info.VersionKind.Kind] = append([]v1.DefaultValue(nil), info.Defaults...)
	return nil
}

// HasDefaultsFor reports whether kind declares any default.
func (m *Manager) HasDefaultsFor(kind string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.defaults[kind]) > 0
}

// Default returns obj with every missing or zero defaulted field set. obj
// itself is not modified.
func (m *Manager) Default(obj storage.Object) (storage.Object, error) {
	m.mu.RLock()
	defaults := m.defaults[obj.Metadata.Kind]
	m.mu.RUnlock()
	if len(defaults) == 0 {
		return obj, nil
	}

	fields, err := codec.ToMap(obj)
	if err != nil {
		return storage.Object{}, err
	}
	changed := false
	for _, d := range defaults {
		if current, ok := codec.Lookup(fields, d.Field); ok && !isZeroValue(current) {
			continue
		}
		if err := setPath(fields, d.Field, d.Value); err != nil {
			return storage.Object{}, fmt.Errorf("failed to default %s: %w", d.Field, err)
		}
		changed = true
	}
	if !changed {
		return obj, nil
	}

	data, err := json.Marshal(fields)
	if err != nil {
		return storage.Object{}, fmt.Errorf("failed to marshal defaulted object: %w", err)
	}
	var out storage.Object
	if err := json.Unmarshal(data, &out); err != nil {
		return storage.Object{}, v1.NewDecodeError(obj.Metadata.Kind, err)
	}
	if obj.Status == nil {
		out.Status = nil
	}
	return out, nil
}

// isZeroValue treats JSON null, "", 0, false and empty collections as unset.
func isZeroValue(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case string:
		return t == ""
	case float64:
		return t == 0
	case bool:
		return !t
	case []any:
		return len(t) == 0
	case map[string]any:
		return len(t) == 0
	default:
		return false
	}
}

// setPath stores value at the dotted path, creating intermediate objects.
func setPath(fields map[string]any, path string, value any) error {
	parts := strings.Split(path, ".")
	current := fields
	for _, part := range parts[:len(parts)-1] {
		next, ok := current[part]
		if !ok || next == nil {
			child := make(map[string]any)
			current[part] = child
			current = child
			continue
		}
		child, ok := next.(map[string]any)
		if !ok {
			return fmt.Errorf("%s is not an object", part)
		}
		current = child
	}
	current[parts[len(parts)-1]] = value
	return nil
}
