// Package controller runs reconcilers. Every registered controller gets one
// goroutine that periodically lists all objects of its kind and hands each
// one to the controller. Loops are supervised and restarted according to the
// configured RestartPolicy.
package controller

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"
	utilerrors "k8s.io/apimachinery/pkg/util/errors"

	"github.com/dtomasi/yangtze/core/pkg/client"
	"github.com/dtomasi/yangtze/core/pkg/logging"
	v1 "github.com/dtomasi/yangtze/core/types/v1"
)

// Controller reconciles objects of one kind. Implementations keep no state
// between calls; everything they need comes from the object and the client.
type Controller[T any] interface {
	// VersionKind names the kind the controller reconciles
	VersionKind() v1.VersionKind

	// Execute reconciles a single object. Errors are logged and counted but
	// never stop the pass.
	Execute(ctx context.Context, c client.ResourceInterface[T], obj *T) error
}

// Named is implemented by controllers that want a name other than their
// version/kind.
type Named interface {
	Name() string
}

// task is one registered controller, type erased.
type task struct {
	name string
	vk   v1.VersionKind
	run  func(ctx context.Context) error
}

// Runtime owns the registered controllers and their supervision records.
type Runtime struct {
	config       Config
	clientConfig client.Config
	metrics      *metrics

	mu      sync.Mutex
	remote  *client.Client
	tasks   []task
	health  map[string]*Health
	running bool
}

// NewRuntime creates a runtime. cfg addresses the API server and is only
// used when no colocated store is configured.
func NewRuntime(cfg client.Config, opts ...Option) *Runtime {
	config := DefaultConfig()
	for _, opt := range opts {
		opt(&config)
	}
	if config.Registry == nil {
		config.Registry = prometheus.NewRegistry()
	}
	if cfg.Logger.GetSink() == nil {
		cfg.Logger = config.Logger
	}

	return &Runtime{
		config:       config,
		clientConfig: cfg,
		metrics:      newMetrics(config.Registry),
		health:       make(map[string]*Health),
	}
}

// Registry returns the registry holding the runtime metrics.
func (rt *Runtime) Registry() *prometheus.Registry {
	return rt.config.Registry
}

func (rt *Runtime) remoteClient() (*client.Client, error) {
	if rt.remote == nil {
		c, err := client.New(rt.clientConfig)
		if err != nil {
			return nil, err
		}
		rt.remote = c
	}
	return rt.remote, nil
}

// Register binds ctrl to a client for its kind and adds it to the runtime.
// Configuration errors surface here, before anything runs.
func Register[T any, PT interface {
	*T
	v1.Resource
}](rt *Runtime, ctrl Controller[T]) error {
	vk := ctrl.VersionKind()
	if err := vk.Validate(); err != nil {
		return err
	}
	name := vk.String()
	if n, ok := ctrl.(Named); ok && n.Name() != "" {
		name = n.Name()
	}

	rt.mu.Lock()
	defer rt.mu.Unlock()

	if rt.running {
		return fmt.Errorf("cannot register controller %s on a running runtime", name)
	}
	if _, exists := rt.health[name]; exists {
		return fmt.Errorf("controller %s is already registered", name)
	}

	var (
		c   client.ResourceInterface[T]
		err error
	)
	if rt.config.Storage != nil {
		c, err = client.NewLocal[T, PT](rt.config.Storage, vk, client.WithValidator(rt.config.Validator))
	} else {
		var remote *client.Client
		if remote, err = rt.remoteClient(); err == nil {
			c, err = client.For[T](remote, vk)
		}
	}
	if err != nil {
		return fmt.Errorf("failed to bind controller %s: %w", name, err)
	}

	l := &loop[T, PT]{
		name:    name,
		ctrl:    ctrl,
		client:  c,
		config:  rt.config,
		runtime: rt,
		logger:  rt.config.Logger.WithName("controller").WithValues("controller", name),
	}
	rt.tasks = append(rt.tasks, task{name: name, vk: vk, run: l.run})
	rt.health[name] = &Health{Name: name, VersionKind: vk, State: StatePending}

	rt.config.Logger.V(logging.VERBOSE).Info("registered controller", "controller", name, "resource", vk.String())
	return nil
}

// Run starts every controller and blocks until all of them have stopped.
// Cancelling ctx stops every loop. The returned error aggregates the final
// error of each controller that failed.
func (rt *Runtime) Run(ctx context.Context) error {
	rt.mu.Lock()
	if rt.running {
		rt.mu.Unlock()
		return fmt.Errorf("runtime is already running")
	}
	rt.running = true
	tasks := append([]task(nil), rt.tasks...)
	rt.mu.Unlock()

	defer func() {
		rt.mu.Lock()
		rt.running = false
		rt.mu.Unlock()
	}()

	rt.config.Logger.Info("starting controllers", "count", len(tasks))

	errs := make([]error, len(tasks))
	var g errgroup.Group
	for i, t := range tasks {
		g.Go(func() error {
			errs[i] = rt.supervise(ctx, t)
			return nil
		})
	}
	_ = g.Wait()

	rt.config.Logger.Info("controllers stopped")
	return utilerrors.NewAggregate(errs)
}

// supervise runs t until ctx is done, restarting it after failures as the
// restart policy allows.
func (rt *Runtime) supervise(ctx context.Context, t task) error {
	logger := rt.config.Logger.WithValues("controller", t.name)
	backoff := rt.config.RestartBackoff
	restarts := 0

	for {
		rt.updateHealth(t.name, func(h *Health) { h.State = StateRunning })
		passes := rt.passes(t.name)
		err := t.run(ctx)

		if ctx.Err() != nil {
			rt.updateHealth(t.name, func(h *Health) { h.State = StateStopped })
			return nil
		}
		if err == nil {
			err = fmt.Errorf("controller loop exited unexpectedly")
		}
		rt.recordError(t.name, err)

		// A run that completed a pass resets the restart budget.
		if rt.passes(t.name) > passes {
			restarts = 0
			backoff = rt.config.RestartBackoff
		}

		if rt.config.RestartPolicy == RestartNever ||
			(rt.config.MaxRestarts > 0 && restarts >= rt.config.MaxRestarts) {
			logger.Error(err, "controller failed", "restarts", restarts)
			rt.updateHealth(t.name, func(h *Health) { h.State = StateFailed })
			return fmt.Errorf("controller %s: %w", t.name, err)
		}

		var delay time.Duration
		if rt.config.RestartPolicy == RestartBackoff {
			delay = backoff.Step()
		}
		restarts++
		rt.metrics.restarts.WithLabelValues(t.name).Inc()
		rt.updateHealth(t.name, func(h *Health) {
			h.State = StateRestarting
			h.Restarts++
		})
		logger.Error(err, "restarting controller", "restarts", restarts, "delay", delay)

		if !sleep(ctx, rt.config.Clock, delay) {
			rt.updateHealth(t.name, func(h *Health) { h.State = StateStopped })
			return nil
		}
	}
}
