// Package server exposes storage over HTTP. Every registered resource kind is
// served under /{version}/{kind}; errors are returned as metav1.Status bodies.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-logr/logr"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/dtomasi/yangtze/core/pkg/defaulting"
	"github.com/dtomasi/yangtze/core/pkg/storage"
	"github.com/dtomasi/yangtze/core/pkg/validation"
	v1 "github.com/dtomasi/yangtze/core/types/v1"
)

const (
	DefaultAddress         = ":8080"
	DefaultHealthTimeout   = 2 * time.Second
	DefaultShutdownTimeout = 10 * time.Second
)

// Config configures a Server.
type Config struct {
	// Address is the listen address used by Run
	Address string

	// Storage backs every registered resource
	Storage storage.Backend

	// Validator checks created and updated objects; nil disables validation
	Validator *validation.Validator

	// Defaulter fills in declared defaults on create; nil disables defaulting
	Defaulter *defaulting.Manager

	Logger logr.Logger

	// HealthTimeout bounds the storage ping behind /healthz
	HealthTimeout time.Duration

	// ShutdownTimeout bounds graceful shutdown once Run's context is done
	ShutdownTimeout time.Duration
}

// Server is the boundary API server.
type Server struct {
	config   Config
	engine   *gin.Engine
	registry *prometheus.Registry
	metrics  *Metrics
	logger   logr.Logger

	mu    sync.Mutex
	kinds map[v1.VersionKind]struct{}
}

// New builds a server with health and metrics endpoints. Resource routes are
// added with Register.
func New(config Config) (*Server, error) {
	if config.Storage == nil {
		return nil, v1.NewConfigError("storage", "must not be nil")
	}
	if config.Address == "" {
		config.Address = DefaultAddress
	}
	if config.HealthTimeout <= 0 {
		config.HealthTimeout = DefaultHealthTimeout
	}
	if config.ShutdownTimeout <= 0 {
		config.ShutdownTimeout = DefaultShutdownTimeout
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	s := &Server{
		config:   config,
		engine:   gin.New(),
		registry: registry,
		metrics:  NewMetrics(registry, config.Storage),
		logger:   config.Logger.WithName("server"),
		kinds:    make(map[v1.VersionKind]struct{}),
	}

	s.engine.Use(gin.Recovery(), RequestLogger(s.logger), RequestMetrics(s.metrics))
	s.engine.GET("/healthz", s.healthz)
	s.engine.GET("/metrics", gin.WrapH(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})))
	s.engine.NoRoute(func(c *gin.Context) {
		writeError(c, v1.NewNotFound("route", c.Request.URL.Path))
	})
	return s, nil
}

// Handler returns the HTTP handler serving every route.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Registry returns the prometheus registry behind /metrics.
func (s *Server) Registry() *prometheus.Registry {
	return s.registry
}

// Kinds returns the registered version/kinds.
func (s *Server) Kinds() []v1.VersionKind {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]v1.VersionKind, 0, len(s.kinds))
	for vk := range s.kinds {
		out = append(out, vk)
	}
	return out
}

func (s *Server) claim(vk v1.VersionKind) error {
	if err := vk.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.kinds[vk]; ok {
		return fmt.Errorf("resource %s is already registered", vk)
	}
	s.kinds[vk] = struct{}{}
	return nil
}

func (s *Server) healthz(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), s.config.HealthTimeout)
	defer cancel()

	backend := s.config.Storage.Name()
	if err := s.config.Storage.Ping(ctx); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status":  "unavailable",
			"storage": backend,
			"error":   err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "storage": backend})
}

// Run serves on the configured address until ctx is done, then shuts down
// gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.config.Address,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s.logger.Info("serving", "address", s.config.Address, "kinds", len(s.Kinds()))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("failed to serve on %s: %w", s.config.Address, err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.config.ShutdownTimeout)
		defer cancel()

		s.logger.Info("shutting down")
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("failed to shut down: %w", err)
		}
		return nil
	})
	return g.Wait()
}

// writeError reports err as a metav1.Status body.
func writeError(c *gin.Context, err error) {
	code, status := v1.StatusFor(err)
	_ = c.Error(err)
	c.AbortWithStatusJSON(code, status)
}
