package handlers

import (
	"github.com/dtomasi/yangtze/core/pkg/storage"
	v1 "github.com/dtomasi/yangtze/core/types/v1"
)

// GetRequest represents a request to get one or more resources.
type GetRequest struct {
	// Resource is a kind, singular, plural or short name
	Resource string
	// ID identifies a single resource; empty lists
	ID string
	// Selector narrows a list
	Selector v1.NamespaceName
	// Where is a CEL expression listed objects must satisfy
	Where string
}

// GetResponse contains the result of a get operation.
type GetResponse struct {
	Info v1.ResourceInfo
	// Object contains the single resource (when ID was provided)
	Object any
	// Objects contains multiple resources (when listing)
	Objects []any
	// IsCollection indicates if this represents multiple objects
	IsCollection bool
}

// Items returns the response as a list regardless of its shape.
func (r *GetResponse) Items() []any {
	if r.IsCollection {
		return r.Objects
	}
	return []any{r.Object}
}

// CreateRequest represents a request to create resources from manifests.
type CreateRequest struct {
	Manifests []storage.Object
}

// CreateResponse contains the result of a create operation.
type CreateResponse struct {
	// Created holds the stored objects in manifest order
	Created []any
}

// DeleteRequest represents a request to delete resources by id.
type DeleteRequest struct {
	Resource string
	IDs      []string
	// IgnoreNotFound skips ids that do not exist
	IgnoreNotFound bool
}

// DeleteResponse contains the result of a delete operation.
type DeleteResponse struct {
	// Deleted holds the removed objects
	Deleted []any
}
