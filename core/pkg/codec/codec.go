// Package codec converts between typed resources and the untyped storage
// envelope. Spec and status travel as opaque JSON payloads; only the typed
// side gives them a shape.
package codec

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/dtomasi/yangtze/core/pkg/storage"
	v1 "github.com/dtomasi/yangtze/core/types/v1"
)

// Encode converts a typed resource into the storage envelope. It only fails
// if the resource cannot be marshaled.
func Encode[T any](obj *T) (storage.Object, error) {
	if obj == nil {
		return storage.Object{}, fmt.Errorf("cannot encode nil object")
	}

	data, err := json.Marshal(obj)
	if err != nil {
		return storage.Object{}, fmt.Errorf("failed to marshal object to JSON: %w", err)
	}

	var out storage.Object
	if err := json.Unmarshal(data, &out); err != nil {
		return storage.Object{}, fmt.Errorf("failed to split object into envelope: %w", err)
	}
	if isNull(out.Status) {
		out.Status = nil
	}
	return out, nil
}

// Decode converts an envelope into T. Payloads that do not fit T, including
// unknown fields, yield a DecodeError.
func Decode[T any](obj storage.Object) (*T, error) {
	data, err := json.Marshal(obj)
	if err != nil {
		return nil, v1.NewDecodeError(obj.Metadata.Kind, err)
	}
	return Unmarshal[T](obj.Metadata.Kind, data)
}

// DecodeList converts every envelope. The first undecodable entry fails the
// whole list.
func DecodeList[T any](objs []storage.Object) ([]T, error) {
	out := make([]T, 0, len(objs))
	for _, obj := range objs {
		typed, err := Decode[T](obj)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", obj.String(), err)
		}
		out = append(out, *typed)
	}
	return out, nil
}

// Unmarshal strictly decodes JSON data into T.
func Unmarshal[T any](kind string, data []byte) (*T, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()

	out := new(T)
	if err := dec.Decode(out); err != nil {
		return nil, v1.NewDecodeError(kind, err)
	}
	return out, nil
}

func isNull(raw json.RawMessage) bool {
	return len(raw) == 0 || bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}
