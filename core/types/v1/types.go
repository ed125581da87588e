// Package v1 contains the version independent envelope shared by every
// resource kind: metadata, version/kind identity, namespace filters and the
// error taxonomy used across storage, client and controllers.
package v1

import (
	"fmt"
)

// Metadata is the identity and concurrency-control header carried by every
// object.
type Metadata struct {
	// ID is assigned by the storage engine on create when left empty
	ID string `json:"id,omitempty"`

	// Kind names the resource type and never changes after creation
	Kind string `json:"kind"`

	Namespace string `json:"namespace"`

	Name string `json:"name"`

	// Labels are informational only and are never used for filtering
	Labels []string `json:"labels,omitempty"`

	// Version starts at 0 and grows by exactly one on every successful update
	Version int64 `json:"version"`
}

// String renders the display form {kind}/{namespace}/{name}.
func (m Metadata) String() string {
	return fmt.Sprintf("%s/%s/%s", m.Kind, m.Namespace, m.Name)
}

// DeepCopy returns an independent copy of the metadata.
func (m *Metadata) DeepCopy() *Metadata {
	if m == nil {
		return nil
	}
	out := *m
	if m.Labels != nil {
		out.Labels = append([]string(nil), m.Labels...)
	}
	return &out
}

// Resource is implemented by every typed resource.
type Resource interface {
	GetMetadata() *Metadata
}

// StatusInitializer is implemented by resources whose status is forced to a
// known initial value when they are created.
type StatusInitializer interface {
	InitStatus()
}

// VersionKind is the compile-time identity of a resource type.
type VersionKind struct {
	Version string `json:"version"`
	Kind    string `json:"kind"`
}

// String renders {version}/{kind}.
func (vk VersionKind) String() string {
	return vk.Version + "/" + vk.Kind
}

// Empty reports whether neither half is set.
func (vk VersionKind) Empty() bool {
	return vk.Version == "" && vk.Kind == ""
}

// Validate rejects a VersionKind that cannot address a resource endpoint.
func (vk VersionKind) Validate() error {
	if vk.Version == "" {
		return NewConfigError("version", "must not be empty")
	}
	if vk.Kind == "" {
		return NewConfigError("kind", "must not be empty")
	}
	return nil
}

// NamespaceName is an optional namespace/name filter. A nil field matches
// anything.
type NamespaceName struct {
	Namespace *string `json:"namespace,omitempty"`
	Name      *string `json:"name,omitempty"`
}

// All matches every object.
var All = NamespaceName{}

// InNamespace matches every object in the given namespace.
func InNamespace(namespace string) NamespaceName {
	return NamespaceName{Namespace: &namespace}
}

// Named matches the object with the given namespace and name.
func Named(namespace, name string) NamespaceName {
	return NamespaceName{Namespace: &namespace, Name: &name}
}

// IsAll reports whether the filter matches everything.
func (nn NamespaceName) IsAll() bool {
	return nn.Namespace == nil && nn.Name == nil
}

// Matches applies the filter to a metadata header.
func (nn NamespaceName) Matches(m Metadata) bool {
	if nn.Namespace != nil && *nn.Namespace != m.Namespace {
		return false
	}
	if nn.Name != nil && *nn.Name != m.Name {
		return false
	}
	return true
}

func (nn NamespaceName) String() string {
	ns, name := "*", "*"
	if nn.Namespace != nil {
		ns = *nn.Namespace
	}
	if nn.Name != nil {
		name = *nn.Name
	}
	return ns + "/" + name
}
