package v1alpha1

import (
	v1 "github.com/dtomasi/yangtze/core/types/v1"
)

// SwitchVersionKind addresses the switch endpoint.
var SwitchVersionKind = v1.VersionKind{Version: "v1alpha1", Kind: "switch"}

// SwitchState is the lifecycle state reported in a switch's status.
type SwitchState string

const (
	SwitchInitializing SwitchState = "initializing"
	SwitchReady        SwitchState = "ready"
	SwitchError        SwitchState = "error"
)

func (s SwitchState) String() string {
	return titleCase(string(s))
}

// SwitchSpec defines the desired state of a Switch.
type SwitchSpec struct {
	// Fabric is the name of the fabric in the same namespace the switch joins
	Fabric string `json:"fabric"`

	// Address is the management address of the device
	Address string `json:"address,omitempty"`
}

// SwitchStatus defines the observed state of a Switch.
type SwitchStatus struct {
	State   SwitchState `json:"state"`
	Message string      `json:"message,omitempty"`
}

// Switch is a single network device attached to a fabric.
type Switch struct {
	Metadata v1.Metadata   `json:"metadata"`
	Spec     SwitchSpec    `json:"spec"`
	Status   *SwitchStatus `json:"status,omitempty"`
}

// NewSwitch returns a switch ready to be created.
func NewSwitch(namespace, name, fabric string) *Switch {
	return &Switch{
		Metadata: v1.Metadata{
			Kind:      SwitchVersionKind.Kind,
			Namespace: namespace,
			Name:      name,
		},
		Spec: SwitchSpec{Fabric: fabric},
	}
}

// GetMetadata implements v1.Resource.
func (s *Switch) GetMetadata() *v1.Metadata {
	return &s.Metadata
}

// InitStatus forces the status a fresh switch starts with.
func (s *Switch) InitStatus() {
	s.Status = &SwitchStatus{State: SwitchInitializing}
}

func (s *Switch) String() string {
	return s.Metadata.Name
}

var (
	_ v1.Resource          = (*Switch)(nil)
	_ v1.StatusInitializer = (*Switch)(nil)
)
