// Package switches reconciles Switch status against the fabric each switch
// references.
package switches

import (
	"context"
	"fmt"

	"github.com/go-logr/logr"

	"github.com/dtomasi/yangtze/core/pkg/client"
	"github.com/dtomasi/yangtze/core/pkg/logging"
	v1 "github.com/dtomasi/yangtze/core/types/v1"
	"github.com/dtomasi/yangtze/core/types/v1alpha1"
)

// FabricLister lists fabrics.
type FabricLister interface {
	List(ctx context.Context, nn v1.NamespaceName) ([]v1alpha1.Fabric, error)
}

// Controller marks switches Ready when their fabric exists and Error when it
// does not.
type Controller struct {
	fabrics FabricLister
}

// New returns a switch controller resolving fabrics through fabrics.
func New(fabrics FabricLister) *Controller {
	return &Controller{fabrics: fabrics}
}

// VersionKind implements controller.Controller.
func (c *Controller) VersionKind() v1.VersionKind {
	return v1alpha1.SwitchVersionKind
}

// Name implements controller.Named.
func (c *Controller) Name() string {
	return "switch"
}

// Execute implements controller.Controller.
func (c *Controller) Execute(ctx context.Context, switches client.ResourceInterface[v1alpha1.Switch], obj *v1alpha1.Switch) error {
	desired, err := c.status(ctx, obj)
	if err != nil {
		return err
	}

	updated, written, err := client.UpdateIfChanged(ctx, switches, obj, func(s *v1alpha1.Switch) {
		s.Status = desired
	})
	if err != nil {
		return fmt.Errorf("failed to update switch status: %w", err)
	}
	if written {
		logr.FromContextOrDiscard(ctx).V(logging.VERBOSE).Info("switch status changed",
			"switch", obj.Metadata.String(), "state", desired.State.String(), "version", updated.Metadata.Version)
	}
	return nil
}

func (c *Controller) status(ctx context.Context, s *v1alpha1.Switch) (*v1alpha1.SwitchStatus, error) {
	if s.Status == nil {
		return &v1alpha1.SwitchStatus{State: v1alpha1.SwitchInitializing}, nil
	}

	fabrics, err := c.fabrics.List(ctx, v1.Named(s.Metadata.Namespace, s.Spec.Fabric))
	if err != nil {
		return nil, fmt.Errorf("failed to look up fabric %s: %w", s.Spec.Fabric, err)
	}
	if len(fabrics) == 0 {
		return &v1alpha1.SwitchStatus{
			State:   v1alpha1.SwitchError,
			Message: fmt.Sprintf("fabric %s/%s not found", s.Metadata.Namespace, s.Spec.Fabric),
		}, nil
	}
	return &v1alpha1.SwitchStatus{State: v1alpha1.SwitchReady}, nil
}
