package storage

import (
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"

	v1 "github.com/dtomasi/yangtze/core/types/v1"
)

// ObjectKeyPrefix is the key space holding object records.
const ObjectKeyPrefix = "objects"

// BuildKey joins the non-empty components with "/".
func BuildKey(components ...string) string {
	valid := make([]string, 0, len(components))
	for _, component := range components {
		if component != "" {
			valid = append(valid, component)
		}
	}
	return strings.Join(valid, "/")
}

// ObjectKey returns the key of the object with the given id.
func ObjectKey(prefix, id string) string {
	return BuildKey(prefix, ObjectKeyPrefix, id)
}

// PrepareCreate validates obj for creation and returns the value to store:
// a generated id when none was supplied, the canonical lowercase form of a
// supplied one, and version 0.
func PrepareCreate(obj Object) (Object, error) {
	out := obj.DeepCopy()
	if out.Metadata.Kind == "" {
		return Object{}, v1.NewBadRequest("metadata.kind must not be empty")
	}
	if out.Metadata.ID == "" {
		out.Metadata.ID = uuid.NewString()
	} else {
		id, err := uuid.Parse(out.Metadata.ID)
		if err != nil {
			return Object{}, v1.NewBadRequest(fmt.Sprintf("metadata.id %q is not a UUID", out.Metadata.ID))
		}
		out.Metadata.ID = id.String()
	}
	out.Metadata.Version = 0
	return out, nil
}

// ApplyUpdate computes the value that replaces stored when obj is written
// over it. Identity fields are kept from stored; spec, status and labels come
// from obj and the version is stored+1. A stored version newer than obj's is
// a Conflict.
func ApplyUpdate(stored, obj Object) (Object, error) {
	if stored.Metadata.Version > obj.Metadata.Version {
		return Object{}, v1.NewConflict(stored.Metadata.Kind, stored.Metadata.ID,
			stored.Metadata.Version, obj.Metadata.Version)
	}

	in := obj.DeepCopy()
	out := stored.DeepCopy()
	out.Metadata.Labels = in.Metadata.Labels
	out.Spec = in.Spec
	out.Status = in.Status
	out.Metadata.Version = stored.Metadata.Version + 1
	return out, nil
}

// SortObjects orders objects by namespace, name and id so list results are
// stable across backends.
func SortObjects(objects []Object) {
	sort.Slice(objects, func(i, j int) bool {
		a, b := objects[i].Metadata, objects[j].Metadata
		if a.Namespace != b.Namespace {
			return a.Namespace < b.Namespace
		}
		if a.Name != b.Name {
			return a.Name < b.Name
		}
		return a.ID < b.ID
	})
}

// IsValidStorageType checks if a storage type is supported
func IsValidStorageType(storageType StorageType) bool {
	switch storageType {
	case StorageTypeMemory, StorageTypePebble, StorageTypePostgres:
		return true
	default:
		return false
	}
}

// StorageTypeFromString converts a string to StorageType with validation
func StorageTypeFromString(s string) (StorageType, error) {
	storageType := StorageType(s)
	if !IsValidStorageType(storageType) {
		return "", fmt.Errorf("invalid storage type: %s", s)
	}
	return storageType, nil
}

// StorageTypeNames returns the supported storage types joined by sep.
func StorageTypeNames(sep string) string {
	types := GetAllStorageTypes()
	names := make([]string, 0, len(types))
	for _, t := range types {
		names = append(names, string(t))
	}
	return strings.Join(names, sep)
}

// GetAllStorageTypes returns all supported storage types
func GetAllStorageTypes() []StorageType {
	return []StorageType{
		StorageTypeMemory,
		StorageTypePebble,
		StorageTypePostgres,
	}
}

// StorageTypeRequiresPath checks if a storage type keeps its data on the
// local filesystem
func StorageTypeRequiresPath(storageType StorageType) bool {
	return storageType == StorageTypePebble
}

func isConflict(err error) bool {
	return v1.IsConflict(err)
}
