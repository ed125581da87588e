// Package fabric reconciles Fabric status from the switches attached to it.
package fabric

import (
	"context"
	"fmt"

	"github.com/go-logr/logr"

	"github.com/dtomasi/yangtze/core/pkg/client"
	"github.com/dtomasi/yangtze/core/pkg/logging"
	v1 "github.com/dtomasi/yangtze/core/types/v1"
	"github.com/dtomasi/yangtze/core/types/v1alpha1"
)

// SwitchLister lists switches.
type SwitchLister interface {
	List(ctx context.Context, nn v1.NamespaceName) ([]v1alpha1.Switch, error)
}

// Controller moves fabrics from Initializing to Ready and keeps their switch
// counts current.
type Controller struct {
	switches SwitchLister
}

// New returns a fabric controller that counts switches through switches.
func New(switches SwitchLister) *Controller {
	return &Controller{switches: switches}
}

// VersionKind implements controller.Controller.
func (c *Controller) VersionKind() v1.VersionKind {
	return v1alpha1.FabricVersionKind
}

// Name implements controller.Named.
func (c *Controller) Name() string {
	return "fabric"
}

// Execute implements controller.Controller.
func (c *Controller) Execute(ctx context.Context, fabrics client.ResourceInterface[v1alpha1.Fabric], obj *v1alpha1.Fabric) error {
	logger := logr.FromContextOrDiscard(ctx).WithValues("fabric", obj.Metadata.String())

	current, err := fabrics.Get(ctx, obj.Metadata.ID)
	if err != nil {
		return fmt.Errorf("failed to fetch fabric: %w", err)
	}

	desired, err := c.status(ctx, current)
	if err != nil {
		return err
	}

	updated, written, err := client.UpdateIfChanged(ctx, fabrics, current, func(f *v1alpha1.Fabric) {
		f.Status = desired
	})
	if err != nil {
		return fmt.Errorf("failed to update fabric status: %w", err)
	}
	if written {
		logger.V(logging.VERBOSE).Info("fabric status changed", "state", desired.State.String(),
			"total", desired.Total, "available", desired.Available, "version", updated.Metadata.Version)
	}
	return nil
}

// status computes the status f should have.
func (c *Controller) status(ctx context.Context, f *v1alpha1.Fabric) (*v1alpha1.FabricStatus, error) {
	if f.Status == nil {
		return &v1alpha1.FabricStatus{State: v1alpha1.FabricInitializing}, nil
	}

	switches, err := c.switches.List(ctx, v1.InNamespace(f.Metadata.Namespace))
	if err != nil {
		return nil, fmt.Errorf("failed to list switches: %w", err)
	}

	status := &v1alpha1.FabricStatus{State: v1alpha1.FabricReady}
	for _, sw := range switches {
		if sw.Spec.Fabric != f.Metadata.Name {
			continue
		}
		status.Total++
		if sw.Status != nil && sw.Status.State == v1alpha1.SwitchReady {
			status.Available++
		}
	}
	return status, nil
}
