package client

import (
	"context"

	"github.com/dtomasi/yangtze/core/pkg/codec"
	"github.com/dtomasi/yangtze/core/pkg/defaulting"
	"github.com/dtomasi/yangtze/core/pkg/storage"
	"github.com/dtomasi/yangtze/core/pkg/validation"
	v1 "github.com/dtomasi/yangtze/core/types/v1"
)

// LocalClient implements ResourceInterface directly on a store. The API
// server serves every resource kind through one.
type LocalClient[T any, PT interface {
	*T
	v1.Resource
}] struct {
	store     storage.Interface
	vk        v1.VersionKind
	validator *validation.Validator
	defaulter *defaulting.Manager
}

// LocalOption configures a LocalClient.
type LocalOption func(*localOptions)

type localOptions struct {
	validator *validation.Validator
	defaulter *defaulting.Manager
}

// WithValidator checks every created or updated object against the rules of
// its kind.
func WithValidator(v *validation.Validator) LocalOption {
	return func(o *localOptions) {
		o.validator = v
	}
}

// WithDefaulter fills in the declared defaults of created objects before
// they are validated.
func WithDefaulter(d *defaulting.Manager) LocalOption {
	return func(o *localOptions) {
		o.defaulter = d
	}
}

// NewLocal binds store to the resource kind vk.
func NewLocal[T any, PT interface {
	*T
	v1.Resource
}](store storage.Interface, vk v1.VersionKind, opts ...LocalOption) (*LocalClient[T, PT], error) {
	if store == nil {
		return nil, v1.NewConfigError("storage", "must not be nil")
	}
	if err := vk.Validate(); err != nil {
		return nil, err
	}

	var o localOptions
	for _, opt := range opts {
		opt(&o)
	}
	return &LocalClient[T, PT]{store: store, vk: vk, validator: o.validator, defaulter: o.defaulter}, nil
}

// VersionKind returns the bound kind.
func (l *LocalClient[T, PT]) VersionKind() v1.VersionKind {
	return l.vk
}

// fetch loads id and hides objects of other kinds.
func (l *LocalClient[T, PT]) fetch(ctx context.Context, id string) (storage.Object, error) {
	if id == "" {
		return storage.Object{}, v1.NewBadRequest("id must not be empty")
	}
	obj, err := l.store.Get(ctx, id)
	if err != nil {
		return storage.Object{}, err
	}
	if obj.Metadata.Kind != l.vk.Kind {
		return storage.Object{}, v1.NewNotFound(l.vk.Kind, id)
	}
	return obj, nil
}

// encode copies obj into a validated envelope of the bound kind. An empty
// kind is filled in; any other kind is rejected. Defaults apply on create only.
func (l *LocalClient[T, PT]) encode(obj *T, create bool) (storage.Object, error) {
	if obj == nil {
		return storage.Object{}, v1.NewBadRequest("object must not be nil")
	}
	out, err := codec.Encode[T](obj)
	if err != nil {
		return storage.Object{}, err
	}

	switch out.Metadata.Kind {
	case "":
		out.Metadata.Kind = l.vk.Kind
	case l.vk.Kind:
	default:
		return storage.Object{}, v1.NewBadRequest("object kind " + out.Metadata.Kind + " does not match " + l.vk.String())
	}

	if create && l.defaulter != nil {
		if out, err = l.defaulter.Default(out); err != nil {
			return storage.Object{}, v1.NewBadRequest(err.Error())
		}
	}
	if l.validator != nil {
		if err := l.validator.Validate(l.vk.Kind, out); err != nil {
			return storage.Object{}, err
		}
	}
	return out, nil
}

// Get returns the object with the given id.
func (l *LocalClient[T, PT]) Get(ctx context.Context, id string) (*T, error) {
	obj, err := l.fetch(ctx, id)
	if err != nil {
		return nil, err
	}
	return codec.Decode[T](obj)
}

// List returns every object of the bound kind matching nn.
func (l *LocalClient[T, PT]) List(ctx context.Context, nn v1.NamespaceName) ([]T, error) {
	objs, err := l.store.List(ctx, storage.FilterFor(l.vk.Kind, nn))
	if err != nil {
		return nil, err
	}
	return codec.DecodeList[T](objs)
}

// Create stores a copy of obj with its status reset to the initial value.
func (l *LocalClient[T, PT]) Create(ctx context.Context, obj *T) (*T, error) {
	envelope, err := l.encode(obj, true)
	if err != nil {
		return nil, err
	}

	typed, err := codec.Decode[T](envelope)
	if err != nil {
		return nil, v1.NewBadRequest(err.Error())
	}
	if init, ok := any(PT(typed)).(v1.StatusInitializer); ok {
		init.InitStatus()
		if envelope, err = codec.Encode[T](typed); err != nil {
			return nil, err
		}
	}

	created, err := l.store.Create(ctx, envelope)
	if err != nil {
		return nil, err
	}
	return codec.Decode[T](created)
}

// Update writes obj if its version is current.
func (l *LocalClient[T, PT]) Update(ctx context.Context, obj *T) (*T, error) {
	envelope, err := l.encode(obj, false)
	if err != nil {
		return nil, err
	}
	if envelope.Metadata.ID == "" {
		return nil, v1.NewBadRequest("metadata.id is required for update")
	}
	if _, err := l.fetch(ctx, envelope.Metadata.ID); err != nil {
		return nil, err
	}

	updated, err := l.store.Update(ctx, envelope)
	if err != nil {
		return nil, err
	}
	return codec.Decode[T](updated)
}

// Delete removes the object with the given id. A stored value that no longer
// decodes as T is reported as a DecodeError and left in place.
func (l *LocalClient[T, PT]) Delete(ctx context.Context, id string) (*T, error) {
	current, err := l.fetch(ctx, id)
	if err != nil {
		return nil, err
	}
	prior, err := codec.Decode[T](current)
	if err != nil {
		return nil, err
	}

	deleted, err := l.store.Delete(ctx, id)
	if err != nil {
		return nil, err
	}
	if out, err := codec.Decode[T](deleted); err == nil {
		return out, nil
	}
	return prior, nil
}
