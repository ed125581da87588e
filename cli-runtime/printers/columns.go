package printers

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"k8s.io/apimachinery/pkg/util/sets"

	"github.com/dtomasi/yangtze/core/pkg/codec"
	v1 "github.com/dtomasi/yangtze/core/types/v1"
)

const noneValue = "<none>"

// ColumnProvider provides the kind specific table columns.
type ColumnProvider interface {
	Columns(kind string) []v1.PrintColumn
}

// RegistryColumns serves the print columns declared in a resource registry.
type RegistryColumns struct {
	Registry *v1.Registry
}

// Columns returns the print columns registered for kind.
func (r RegistryColumns) Columns(kind string) []v1.PrintColumn {
	if r.Registry == nil {
		return nil
	}
	info, ok := r.Registry.Lookup(kind)
	if !ok {
		return nil
	}
	return info.PrintColumns
}

// baseColumns lead every table. The id is only shown in wide output.
func baseColumns(wide bool) []v1.PrintColumn {
	columns := []v1.PrintColumn{
		{Name: "Namespace", Path: "metadata.namespace"},
		{Name: "Name", Path: "metadata.name"},
	}
	if wide {
		columns = append(columns, v1.PrintColumn{Name: "ID", Path: "metadata.id"})
	}
	return append(columns, v1.PrintColumn{Name: "Version", Path: "metadata.version"})
}

// metadataOf returns the metadata header of a typed resource or of any value
// with the JSON resource form.
func metadataOf(obj any) (v1.Metadata, error) {
	if r, ok := obj.(v1.Resource); ok {
		return *r.GetMetadata(), nil
	}

	data, err := json.Marshal(obj)
	if err != nil {
		return v1.Metadata{}, fmt.Errorf("failed to marshal object: %w", err)
	}
	var envelope struct {
		Metadata *v1.Metadata `json:"metadata"`
	}
	if err := json.Unmarshal(data, &envelope); err != nil || envelope.Metadata == nil {
		return v1.Metadata{}, fmt.Errorf("object of type %T has no metadata", obj)
	}
	return *envelope.Metadata, nil
}

// extractColumnValue renders the value at col.Path.
func extractColumnValue(fields map[string]any, col v1.PrintColumn) string {
	value, ok := codec.Lookup(fields, col.Path)
	if !ok || value == nil {
		return noneValue
	}

	switch v := value.(type) {
	case string:
		if v == "" {
			return noneValue
		}
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	default:
		data, err := json.Marshal(v)
		if err != nil {
			return noneValue
		}
		return string(data)
	}
}

// formatLabels renders labels sorted and without duplicates.
func formatLabels(labels []string) string {
	if len(labels) == 0 {
		return noneValue
	}
	return strings.Join(sets.List(sets.New(labels...)), ",")
}
