package controller

import (
	"context"
	"fmt"
	"time"

	"github.com/go-logr/logr"
	"k8s.io/utils/clock"

	"github.com/dtomasi/yangtze/core/pkg/client"
	"github.com/dtomasi/yangtze/core/pkg/logging"
	v1 "github.com/dtomasi/yangtze/core/types/v1"
)

type loop[T any, PT interface {
	*T
	v1.Resource
}] struct {
	name    string
	ctrl    Controller[T]
	client  client.ResourceInterface[T]
	config  Config
	runtime *Runtime
	logger  logr.Logger
}

// run reconciles until ctx is done. It returns an error only when listing
// failed ListRetries times in a row.
func (l *loop[T, PT]) run(ctx context.Context) error {
	backoff := l.config.ListBackoff
	delay := l.config.Interval
	failures := 0

	for {
		if !sleep(ctx, l.config.Clock, delay) {
			return nil
		}

		items, err := l.list(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			failures++
			l.runtime.metrics.listFailures.WithLabelValues(l.name).Inc()
			l.runtime.recordError(l.name, err)
			if failures >= l.config.ListRetries {
				return fmt.Errorf("list failed %d times in a row: %w", failures, err)
			}
			delay = backoff.Step()
			l.logger.Error(err, "list failed", "failures", failures, "retryIn", delay)
			continue
		}

		failures = 0
		backoff = l.config.ListBackoff
		delay = l.config.Interval
		l.pass(ctx, items)
	}
}

func (l *loop[T, PT]) list(ctx context.Context) ([]T, error) {
	ctx, cancel := context.WithTimeout(ctx, l.config.CallTimeout)
	defer cancel()
	return l.client.List(ctx, v1.All)
}

// pass hands every object to the controller. A failing object never stops
// the others.
func (l *loop[T, PT]) pass(ctx context.Context, items []T) {
	start := l.config.Clock.Now()
	failed := 0

	for i := range items {
		if ctx.Err() != nil {
			return
		}

		obj := &items[i]
		meta := PT(obj).GetMetadata()

		err := l.execute(ctx, obj)

		if err != nil {
			failed++
			l.runtime.metrics.reconcileErrors.WithLabelValues(l.name).Inc()
			l.runtime.recordError(l.name, err)
			l.logger.Error(err, "reconcile failed", "object", meta.String(), "id", meta.ID)
			continue
		}
		l.logger.V(logging.DEBUG).Info("reconciled", "object", meta.String(), "version", meta.Version)
	}

	end := l.config.Clock.Now()
	l.runtime.metrics.passes.WithLabelValues(l.name).Inc()
	l.runtime.metrics.passDuration.WithLabelValues(l.name).Observe(end.Sub(start).Seconds())
	l.runtime.metrics.objects.WithLabelValues(l.name).Set(float64(len(items)))
	l.runtime.updateHealth(l.name, func(h *Health) {
		h.LastPass = &end
		h.Passes++
		h.LastPassObjects = len(items)
		h.LastPassFailures = failed
	})
	l.logger.V(logging.VERBOSE).Info("pass complete", "objects", len(items), "failures", failed)
}

// execute runs the controller on one object with the call timeout. A panic
// is returned as an error.
func (l *loop[T, PT]) execute(ctx context.Context, obj *T) (err error) {
	ctx, cancel := context.WithTimeout(ctx, l.config.CallTimeout)
	defer cancel()
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic while reconciling: %v", r)
		}
	}()
	return l.ctrl.Execute(logr.NewContext(ctx, l.logger), l.client, obj)
}

// sleep waits d on clk. It reports false if ctx ended first.
func sleep(ctx context.Context, clk clock.Clock, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	t := clk.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-t.C():
		return true
	}
}
