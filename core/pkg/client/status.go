package client

import (
	"context"
	"fmt"

	"k8s.io/apimachinery/pkg/api/equality"

	"github.com/dtomasi/yangtze/core/pkg/codec"
)

// UpdateIfChanged applies mutate to a copy of obj and writes the copy only if
// mutate changed it. It returns the stored object and whether a write
// happened; obj itself is never modified.
func UpdateIfChanged[T any](ctx context.Context, c ResourceInterface[T], obj *T, mutate func(*T)) (*T, bool, error) {
	desired, err := deepCopy(obj)
	if err != nil {
		return nil, false, err
	}
	mutate(desired)

	if equality.Semantic.DeepEqual(obj, desired) {
		return obj, false, nil
	}

	updated, err := c.Update(ctx, desired)
	if err != nil {
		return nil, false, err
	}
	return updated, true, nil
}

func deepCopy[T any](obj *T) (*T, error) {
	envelope, err := codec.Encode[T](obj)
	if err != nil {
		return nil, fmt.Errorf("failed to copy object: %w", err)
	}
	return codec.Decode[T](envelope)
}
