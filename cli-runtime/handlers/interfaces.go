// Package handlers provides the operations behind yzctl commands. Handlers
// resolve resource names through a Set and never create cobra commands
// themselves.
package handlers

import (
	"context"
	"errors"
	"fmt"

	utilerrors "k8s.io/apimachinery/pkg/util/errors"

	"github.com/dtomasi/yangtze/cli-runtime/filter"
	v1 "github.com/dtomasi/yangtze/core/types/v1"
)

// GetHandler handles GET operations for resources.
type GetHandler interface {
	// Handle executes a get operation based on the provided request
	Handle(ctx context.Context, req *GetRequest) (*GetResponse, error)
}

// CreateHandler handles CREATE operations for resources.
type CreateHandler interface {
	// Handle executes a create operation based on the provided request
	Handle(ctx context.Context, req *CreateRequest) (*CreateResponse, error)
}

// DeleteHandler handles DELETE operations for resources.
type DeleteHandler interface {
	// Handle executes a delete operation based on the provided request
	Handle(ctx context.Context, req *DeleteRequest) (*DeleteResponse, error)
}

// HandlerFactory creates handlers over a resource set.
type HandlerFactory struct {
	resources *Set
}

// NewHandlerFactory creates a new handler factory.
func NewHandlerFactory(resources *Set) *HandlerFactory {
	return &HandlerFactory{resources: resources}
}

// Get creates a new GetHandler.
func (f *HandlerFactory) Get() GetHandler {
	return &getHandler{resources: f.resources}
}

// Create creates a new CreateHandler.
func (f *HandlerFactory) Create() CreateHandler {
	return &createHandler{resources: f.resources}
}

// Delete creates a new DeleteHandler.
func (f *HandlerFactory) Delete() DeleteHandler {
	return &deleteHandler{resources: f.resources}
}

type getHandler struct {
	resources *Set
}

// Handle gets one object by id or lists and filters objects.
func (h *getHandler) Handle(ctx context.Context, req *GetRequest) (*GetResponse, error) {
	if req == nil {
		return nil, errors.New("get request cannot be nil")
	}
	r, err := h.resources.Lookup(req.Resource)
	if err != nil {
		return nil, err
	}
	info := r.Info()

	if req.ID != "" {
		obj, err := r.Get(ctx, req.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to get %s %s: %w", info.Singular, req.ID, err)
		}
		return &GetResponse{Info: info, Object: obj}, nil
	}

	where, err := filter.Compile(req.Where)
	if err != nil {
		return nil, fmt.Errorf("invalid filter: %w", err)
	}
	objs, err := r.List(ctx, req.Selector)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", info.Plural, err)
	}
	return &GetResponse{Info: info, Objects: where.Apply(objs), IsCollection: true}, nil
}

type createHandler struct {
	resources *Set
}

// Handle creates every manifest in order and stops at the first failure.
// Objects created before the failure are returned with the error.
func (h *createHandler) Handle(ctx context.Context, req *CreateRequest) (*CreateResponse, error) {
	if req == nil {
		return nil, errors.New("create request cannot be nil")
	}

	resp := &CreateResponse{}
	for _, manifest := range req.Manifests {
		r, err := h.resources.Lookup(manifest.Metadata.Kind)
		if err != nil {
			return resp, fmt.Errorf("%s: %w", manifest.String(), err)
		}
		created, err := r.Create(ctx, manifest)
		if err != nil {
			return resp, fmt.Errorf("failed to create %s: %w", manifest.String(), err)
		}
		resp.Created = append(resp.Created, created)
	}
	return resp, nil
}

type deleteHandler struct {
	resources *Set
}

// Handle deletes every id. Failures do not stop the remaining deletes and
// are reported together.
func (h *deleteHandler) Handle(ctx context.Context, req *DeleteRequest) (*DeleteResponse, error) {
	if req == nil {
		return nil, errors.New("delete request cannot be nil")
	}
	if len(req.IDs) == 0 {
		return nil, errors.New("delete request must name at least one id")
	}
	r, err := h.resources.Lookup(req.Resource)
	if err != nil {
		return nil, err
	}

	resp := &DeleteResponse{}
	var errs []error
	for _, id := range req.IDs {
		deleted, err := r.Delete(ctx, id)
		switch {
		case err == nil:
			resp.Deleted = append(resp.Deleted, deleted)
		case req.IgnoreNotFound && v1.IsNotFound(err):
		default:
			errs = append(errs, fmt.Errorf("failed to delete %s %s: %w", r.Info().Singular, id, err))
		}
	}
	return resp, utilerrors.NewAggregate(errs)
}
