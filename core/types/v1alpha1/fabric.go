package v1alpha1

import (
	"strings"

	v1 "github.com/dtomasi/yangtze/core/types/v1"
)

// FabricVersionKind addresses the fabric endpoint.
var FabricVersionKind = v1.VersionKind{Version: "v1alpha1", Kind: "fabric"}

// FabricState is the lifecycle state reported in a fabric's status.
type FabricState string

const (
	FabricInitializing FabricState = "initializing"
	FabricReady        FabricState = "ready"
	FabricError        FabricState = "error"
	FabricDeleting     FabricState = "deleting"
	FabricDeleted      FabricState = "deleted"
)

// String returns the capitalized display form.
func (s FabricState) String() string {
	return titleCase(string(s))
}

// FabricSpec defines the desired state of a Fabric.
type FabricSpec struct {
	// Selector picks the switches that form the fabric
	Selector string `json:"selector"`
}

// FabricStatus defines the observed state of a Fabric.
type FabricStatus struct {
	State FabricState `json:"state"`

	// Total is the number of switches attached to the fabric
	Total uint64 `json:"total"`

	// Available is the number of attached switches that are ready
	Available uint64 `json:"available"`
}

// Fabric is a named group of switches managed as one unit.
type Fabric struct {
	Metadata v1.Metadata   `json:"metadata"`
	Spec     FabricSpec    `json:"spec"`
	Status   *FabricStatus `json:"status,omitempty"`
}

// NewFabric returns a fabric ready to be created.
func NewFabric(namespace, name, selector string) *Fabric {
	return &Fabric{
		Metadata: v1.Metadata{
			Kind:      FabricVersionKind.Kind,
			Namespace: namespace,
			Name:      name,
		},
		Spec: FabricSpec{Selector: selector},
	}
}

// GetMetadata implements v1.Resource.
func (f *Fabric) GetMetadata() *v1.Metadata {
	return &f.Metadata
}

// InitStatus forces the status a fresh fabric starts with.
func (f *Fabric) InitStatus() {
	f.Status = &FabricStatus{State: FabricInitializing}
}

func (f *Fabric) String() string {
	return f.Metadata.Name
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

var (
	_ v1.Resource          = (*Fabric)(nil)
	_ v1.StatusInitializer = (*Fabric)(nil)
)
