package controller

import (
	"net/http"
	"sort"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	v1 "github.com/dtomasi/yangtze/core/types/v1"
)

// State is the lifecycle state of a supervised controller.
type State string

const (
	StatePending    State = "Pending"
	StateRunning    State = "Running"
	StateRestarting State = "Restarting"
	StateFailed     State = "Failed"
	StateStopped    State = "Stopped"
)

// Health is a snapshot of one controller's supervision record.
type Health struct {
	Name             string         `json:"name"`
	VersionKind      v1.VersionKind `json:"versionKind"`
	State            State          `json:"state"`
	Restarts         int            `json:"restarts"`
	LastError        string         `json:"lastError,omitempty"`
	LastErrorTime    *time.Time     `json:"lastErrorTime,omitempty"`
	LastPass         *time.Time     `json:"lastPass,omitempty"`
	Passes           int64          `json:"passes"`
	LastPassObjects  int            `json:"lastPassObjects"`
	LastPassFailures int            `json:"lastPassFailures"`
}

// Health returns a snapshot of every controller ordered by name.
func (rt *Runtime) Health() []Health {
	rt.mu.Lock()
	defer rt.mu.Unlock()

	out := make([]Health, 0, len(rt.health))
	for _, h := range rt.health {
		out = append(out, *h)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Healthy reports whether no controller has failed for good.
func (rt *Runtime) Healthy() bool {
	for _, h := range rt.Health() {
		if h.State == StateFailed {
			return false
		}
	}
	return true
}

// Ready reports whether every controller is running and has completed at
// least one pass.
func (rt *Runtime) Ready() bool {
	for _, h := range rt.Health() {
		if h.State != StateRunning || h.LastPass == nil {
			return false
		}
	}
	return true
}

func (rt *Runtime) updateHealth(name string, fn func(*Health)) {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	if h, ok := rt.health[name]; ok {
		fn(h)
	}
}

func (rt *Runtime) passes(name string) int64 {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	if h, ok := rt.health[name]; ok {
		return h.Passes
	}
	return 0
}

func (rt *Runtime) recordError(name string, err error) {
	now := rt.config.Clock.Now()
	rt.updateHealth(name, func(h *Health) {
		h.LastError = err.Error()
		h.LastErrorTime = &now
	})
}

// HealthHandler serves /healthz, /readyz, /controllers and /metrics for rt.
func HealthHandler(rt *Runtime) http.Handler {
	engine := gin.New()
	engine.Use(gin.Recovery())

	engine.GET("/healthz", func(c *gin.Context) {
		code := http.StatusOK
		if !rt.Healthy() {
			code = http.StatusServiceUnavailable
		}
		c.JSON(code, gin.H{"healthy": code == http.StatusOK, "controllers": rt.Health()})
	})
	engine.GET("/readyz", func(c *gin.Context) {
		code := http.StatusOK
		if !rt.Ready() {
			code = http.StatusServiceUnavailable
		}
		c.JSON(code, gin.H{"ready": code == http.StatusOK})
	})
	engine.GET("/controllers", func(c *gin.Context) {
		c.JSON(http.StatusOK, rt.Health())
	})
	engine.GET("/metrics", gin.WrapH(promhttp.HandlerFor(rt.Registry(), promhttp.HandlerOpts{})))
	return engine
}
