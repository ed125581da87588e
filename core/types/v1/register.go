package v1

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// PrintColumn describes one table column for CLI display. Path is a dotted
// path into the JSON form of the object, e.g. "status.state".
type PrintColumn struct {
	Name string
	Path string
}

// ValidationRule is a CEL expression over the JSON form of an object,
// bound as self. Objects for which Rule is false are rejected with Message.
type ValidationRule struct {
	Rule    string
	Message string
	// Field is the JSON path reported with the failure
	Field string
}

// DefaultValue is applied on create to the field at Field, a dotted path
// into the JSON form of the object, when that field is missing or zero.
type DefaultValue struct {
	Field string
	Value any
}

// ResourceInfo contains metadata about a registered resource type.
type ResourceInfo struct {
	// VersionKind addresses the resource endpoint
	VersionKind VersionKind
	// Singular is the singular name of the resource
	Singular string
	// Plural is the plural name of the resource
	Plural string
	// ShortNames are the short names for CLI usage
	ShortNames []string
	// PrintColumns defines the extra table columns for CLI display
	PrintColumns []PrintColumn
	// Validations are checked on every create and update
	Validations []ValidationRule
	// Defaults are applied on create, before validation
	Defaults []DefaultValue
}

// Names returns every name the resource answers to.
func (i ResourceInfo) Names() []string {
	names := []string{strings.ToLower(i.VersionKind.Kind), i.Singular, i.Plural}
	return append(names, i.ShortNames...)
}

// Registry resolves user supplied resource names to ResourceInfo.
type Registry struct {
	mu    sync.RWMutex
	infos map[string]ResourceInfo
	names map[string]string
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		infos: make(map[string]ResourceInfo),
		names: make(map[string]string),
	}
}

// Register adds info. Registering the same kind twice or reusing a name
// already taken by another kind fails.
func (r *Registry) Register(info ResourceInfo) error {
	if err := info.VersionKind.Validate(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	kind := info.VersionKind.Kind
	if _, exists := r.infos[kind]; exists {
		return fmt.Errorf("resource %s already registered", info.VersionKind)
	}
	for _, name := range info.Names() {
		if name == "" {
			continue
		}
		if owner, taken := r.names[name]; taken && owner != kind {
			return fmt.Errorf("resource name %q already used by %s", name, owner)
		}
	}

	r.infos[kind] = info
	for _, name := range info.Names() {
		if name != "" {
			r.names[name] = kind
		}
	}
	return nil
}

// Lookup finds a resource by kind, singular, plural or short name.
func (r *Registry) Lookup(name string) (ResourceInfo, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	kind, ok := r.names[strings.ToLower(name)]
	if !ok {
		return ResourceInfo{}, false
	}
	return r.infos[kind], true
}

// List returns all registered resources ordered by kind.
func (r *Registry) List() []ResourceInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]ResourceInfo, 0, len(r.infos))
	for _, info := range r.infos {
		out = append(out, info)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].VersionKind.Kind < out[j].VersionKind.Kind
	})
	return out
}
