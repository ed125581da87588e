package v1alpha1

import (
	v1 "github.com/dtomasi/yangtze/core/types/v1"
)

const dnsLabel = `^[a-z0-9]([-a-z0-9]*[a-z0-9])?$`

// DefaultNamespace is given to objects created without a namespace.
const DefaultNamespace = "default"

var namespaceDefault = v1.DefaultValue{Field: "metadata.namespace", Value: DefaultNamespace}

var nameRule = v1.ValidationRule{
	Rule:    "self.metadata.name.matches('" + dnsLabel + "')",
	Message: "must be a lowercase RFC 1123 label",
	Field:   "metadata.name",
}

// FabricInfo describes the fabric resource for CLI lookups and printing.
var FabricInfo = v1.ResourceInfo{
	VersionKind: FabricVersionKind,
	Singular:    "fabric",
	Plural:      "fabrics",
	ShortNames:  []string{"fab"},
	PrintColumns: []v1.PrintColumn{
		{Name: "State", Path: "status.state"},
		{Name: "Total", Path: "status.total"},
		{Name: "Available", Path: "status.available"},
	},
	Validations: []v1.ValidationRule{nameRule},
	Defaults:    []v1.DefaultValue{namespaceDefault, {Field: "spec.selector", Value: "*"}},
}

// SwitchInfo describes the switch resource for CLI lookups and printing.
var SwitchInfo = v1.ResourceInfo{
	VersionKind: SwitchVersionKind,
	Singular:    "switch",
	Plural:      "switches",
	ShortNames:  []string{"sw"},
	PrintColumns: []v1.PrintColumn{
		{Name: "Fabric", Path: "spec.fabric"},
		{Name: "State", Path: "status.state"},
	},
	Validations: []v1.ValidationRule{
		nameRule,
		{Rule: "self.spec.fabric != ''", Message: "is required", Field: "spec.fabric"},
	},
	Defaults: []v1.DefaultValue{namespaceDefault},
}

// AddToRegistry registers every v1alpha1 resource.
func AddToRegistry(r *v1.Registry) error {
	for _, info := range []v1.ResourceInfo{FabricInfo, SwitchInfo} {
		if err := r.Register(info); err != nil {
			return err
		}
	}
	return nil
}

// NewRegistry returns a registry holding every v1alpha1 resource.
func NewRegistry() *v1.Registry {
	r := v1.NewRegistry()
	if err := AddToRegistry(r); err != nil {
		panic(err)
	}
	return r
}
