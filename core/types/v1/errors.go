package v1

import (
	"errors"
	"fmt"
	"net/http"

	apierrors "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/runtime/schema"
	"k8s.io/apimachinery/pkg/util/validation/field"
)

// StatusReasonDecodeError is reported when stored or received payloads do
// not match the shape of the requested resource type.
const StatusReasonDecodeError metav1.StatusReason = "DecodeError"

func groupResource(kind string) schema.GroupResource {
	return schema.GroupResource{Resource: kind}
}

// NewNotFound reports that no object with the given id exists.
func NewNotFound(kind, id string) error {
	return apierrors.NewNotFound(groupResource(kind), id)
}

// NewConflict reports a stale write: the supplied version is behind the
// stored one.
func NewConflict(kind, id string, stored, supplied int64) error {
	return apierrors.NewConflict(groupResource(kind), id,
		fmt.Errorf("stored version %d is newer than supplied version %d", stored, supplied))
}

// NewAlreadyExists reports a create with an id that is already taken.
func NewAlreadyExists(kind, id string) error {
	return apierrors.NewAlreadyExists(groupResource(kind), id)
}

// NewBadRequest reports a malformed request body.
func NewBadRequest(reason string) error {
	return apierrors.NewBadRequest(reason)
}

// NewInvalid reports objects rejected by validation rules.
func NewInvalid(kind, name string, errs field.ErrorList) error {
	return apierrors.NewInvalid(schema.GroupKind{Kind: kind}, name, errs)
}

// IsNotFound reports whether err, or anything it wraps, is a NotFound error.
func IsNotFound(err error) bool {
	return apierrors.IsNotFound(err)
}

// IsConflict reports whether err, or anything it wraps, is a version conflict.
func IsConflict(err error) bool {
	return apierrors.IsConflict(err)
}

// IsAlreadyExists reports whether err is a duplicate create.
func IsAlreadyExists(err error) bool {
	return apierrors.IsAlreadyExists(err)
}

// IsInvalid reports whether err is a validation failure.
func IsInvalid(err error) bool {
	return apierrors.IsInvalid(err)
}

// IsBadRequest reports whether err is a malformed request.
func IsBadRequest(err error) bool {
	return apierrors.IsBadRequest(err)
}

// DecodeError is returned when an opaque payload cannot be turned into the
// requested typed resource.
type DecodeError struct {
	Kind string
	Err  error
}

// NewDecodeError wraps err as a DecodeError for kind.
func NewDecodeError(kind string, err error) error {
	return &DecodeError{Kind: kind, Err: err}
}

func (e *DecodeError) Error() string {
	if e.Kind == "" {
		return fmt.Sprintf("failed to decode object: %v", e.Err)
	}
	return fmt.Sprintf("failed to decode %s: %v", e.Kind, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// IsDecodeError reports whether err is a DecodeError, either raised locally
// or reported by a remote server.
func IsDecodeError(err error) bool {
	var de *DecodeError
	if errors.As(err, &de) {
		return true
	}
	return apierrors.ReasonForError(err) == StatusReasonDecodeError
}

// RemoteError carries a failed remote call. StatusCode is 0 when the request
// never reached the server. Err is the server's status error when one was
// returned, so IsNotFound and IsConflict keep working across the wire.
type RemoteError struct {
	StatusCode int
	Status     string
	Err        error
}

func (e *RemoteError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("remote call failed: %v", e.Err)
	}
	if e.Err == nil {
		return fmt.Sprintf("remote call failed with %s", e.Status)
	}
	return fmt.Sprintf("remote call failed with %s: %v", e.Status, e.Err)
}

func (e *RemoteError) Unwrap() error {
	return e.Err
}

// IsRemoteError reports whether err is a RemoteError.
func IsRemoteError(err error) bool {
	var re *RemoteError
	return errors.As(err, &re)
}

// ConfigError reports invalid client or process configuration.
type ConfigError struct {
	Field  string
	Reason string
	Err    error
}

// NewConfigError builds a ConfigError for field.
func NewConfigError(field, reason string) error {
	return &ConfigError{Field: field, Reason: reason}
}

// WrapConfigError builds a ConfigError for field caused by err.
func WrapConfigError(field string, err error) error {
	return &ConfigError{Field: field, Reason: err.Error(), Err: err}
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid configuration: %s: %s", e.Field, e.Reason)
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

// IsConfigError reports whether err is a ConfigError.
func IsConfigError(err error) bool {
	var ce *ConfigError
	return errors.As(err, &ce)
}

// StatusFor maps err to the HTTP code and status body reported at the API
// boundary.
func StatusFor(err error) (int, metav1.Status) {
	var apiStatus apierrors.APIStatus
	if errors.As(err, &apiStatus) {
		status := apiStatus.Status()
		if status.Code == 0 {
			status.Code = http.StatusInternalServerError
		}
		return int(status.Code), status
	}

	var de *DecodeError
	if errors.As(err, &de) {
		return http.StatusInternalServerError, metav1.Status{
			Status:  metav1.StatusFailure,
			Code:    http.StatusInternalServerError,
			Reason:  StatusReasonDecodeError,
			Message: de.Error(),
		}
	}

	status := apierrors.NewInternalError(err).Status()
	return int(status.Code), status
}
