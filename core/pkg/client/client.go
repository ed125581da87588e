// Package client gives controllers and tools typed access to resources,
// either remotely through the API server or directly on a colocated store.
// Both variants implement ResourceInterface with identical semantics.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/go-logr/logr"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"

	"github.com/dtomasi/yangtze/core/pkg/logging"
	v1 "github.com/dtomasi/yangtze/core/types/v1"
)

const (
	DefaultAddress = "http://localhost:8080"
	DefaultTimeout = 30 * time.Second
)

// ResourceInterface is the typed CRUD surface for one resource kind.
type ResourceInterface[T any] interface {
	// VersionKind returns the kind this client is bound to
	VersionKind() v1.VersionKind

	Get(ctx context.Context, id string) (*T, error)

	// List returns every object of the bound kind matching nn
	List(ctx context.Context, nn v1.NamespaceName) ([]T, error)

	// Create stores obj. The returned object carries the assigned id,
	// version 0 and the initial status.
	Create(ctx context.Context, obj *T) (*T, error)

	// Update writes obj if its version is current and returns the stored
	// result with the bumped version.
	Update(ctx context.Context, obj *T) (*T, error)

	// Delete removes the object and returns the value it had.
	Delete(ctx context.Context, id string) (*T, error)
}

// Config configures a remote Client.
type Config struct {
	// Address is the API server base URL
	Address string `toml:"address"`

	// Timeout bounds a single request
	Timeout time.Duration `toml:"timeout"`

	Logger logr.Logger `toml:"-"`
}

// Client talks to the API server. It has no CRUD methods of its own; bind it
// to a resource kind with For.
type Client struct {
	base   *url.URL
	http   *http.Client
	logger logr.Logger
}

// New validates cfg and builds a client. Every call is a single request on a
// fresh connection.
func New(cfg Config) (*Client, error) {
	if cfg.Address == "" {
		return nil, v1.NewConfigError("address", "must not be empty")
	}
	base, err := url.Parse(cfg.Address)
	if err != nil {
		return nil, v1.WrapConfigError("address", err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, v1.NewConfigError("address", fmt.Sprintf("unsupported scheme %q", base.Scheme))
	}
	if base.Host == "" {
		return nil, v1.NewConfigError("address", "missing host")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}

	return &Client{
		base: base,
		http: &http.Client{
			Timeout: cfg.Timeout,
			Transport: &http.Transport{
				Proxy:             http.ProxyFromEnvironment,
				DisableKeepAlives: true,
			},
		},
		logger: cfg.Logger.WithName("client"),
	}, nil
}

// Address returns the API server base URL.
func (c *Client) Address() string {
	return c.base.String()
}

func (c *Client) do(ctx context.Context, kind, method string, in, out any, segments ...string) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		body = bytes.NewReader(data)
	}

	target := c.base.JoinPath(segments...).String()
	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return &v1.RemoteError{Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	c.logger.V(logging.TRACE).Info("request", "method", method, "url", target,
		"status", resp.StatusCode, "duration", time.Since(start))

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return &v1.RemoteError{StatusCode: resp.StatusCode, Status: resp.Status, Err: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return remoteError(resp, data)
	}
	if out == nil {
		return nil
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(out); err != nil {
		return v1.NewDecodeError(kind, err)
	}
	return nil
}

// remoteError keeps the server's status so the error predicates of package
// v1 still classify it.
func remoteError(resp *http.Response, data []byte) error {
	re := &v1.RemoteError{StatusCode: resp.StatusCode, Status: resp.Status}

	var status metav1.Status
	if err := json.Unmarshal(data, &status); err == nil && (status.Reason != "" || status.Code != 0) {
		if status.Code == 0 {
			status.Code = int32(resp.StatusCode)
		}
		re.Err = &apierrors.StatusError{ErrStatus: status}
		return re
	}

	if msg := bytes.TrimSpace(data); len(msg) > 0 {
		re.Err = fmt.Errorf("%s", msg)
	}
	return re
}

// ResourceClient is a Client bound to one resource kind.
type ResourceClient[T any] struct {
	client *Client
	vk     v1.VersionKind
}

// For binds c to the resource kind vk.
func For[T any](c *Client, vk v1.VersionKind) (*ResourceClient[T], error) {
	if c == nil {
		return nil, v1.NewConfigError("client", "must not be nil")
	}
	if err := vk.Validate(); err != nil {
		return nil, err
	}
	return &ResourceClient[T]{client: c, vk: vk}, nil
}

// VersionKind returns the bound kind.
func (r *ResourceClient[T]) VersionKind() v1.VersionKind {
	return r.vk
}

// Get fetches the object with the given id.
func (r *ResourceClient[T]) Get(ctx context.Context, id string) (*T, error) {
	if id == "" {
		return nil, v1.NewBadRequest("id must not be empty")
	}
	out := new(T)
	if err := r.client.do(ctx, r.vk.Kind, http.MethodGet, nil, out, r.vk.Version, r.vk.Kind, id); err != nil {
		return nil, err
	}
	return out, nil
}

// List fetches every object of the bound kind matching nn.
func (r *ResourceClient[T]) List(ctx context.Context, nn v1.NamespaceName) ([]T, error) {
	var out []T
	if err := r.client.do(ctx, r.vk.Kind, http.MethodPost, nn, &out, r.vk.Version, r.vk.Kind); err != nil {
		return nil, err
	}
	if out == nil {
		out = make([]T, 0)
	}
	return out, nil
}

// Create stores obj on the server.
func (r *ResourceClient[T]) Create(ctx context.Context, obj *T) (*T, error) {
	if obj == nil {
		return nil, v1.NewBadRequest("object must not be nil")
	}
	out := new(T)
	if err := r.client.do(ctx, r.vk.Kind, http.MethodPut, obj, out, r.vk.Version, r.vk.Kind); err != nil {
		return nil, err
	}
	return out, nil
}

// Update writes obj on the server.
func (r *ResourceClient[T]) Update(ctx context.Context, obj *T) (*T, error) {
	if obj == nil {
		return nil, v1.NewBadRequest("object must not be nil")
	}
	out := new(T)
	if err := r.client.do(ctx, r.vk.Kind, http.MethodPatch, obj, out, r.vk.Version, r.vk.Kind); err != nil {
		return nil, err
	}
	return out, nil
}

// Delete removes the object with the given id.
func (r *ResourceClient[T]) Delete(ctx context.Context, id string) (*T, error) {
	if id == "" {
		return nil, v1.NewBadRequest("id must not be empty")
	}
	out := new(T)
	if err := r.client.do(ctx, r.vk.Kind, http.MethodDelete, nil, out, r.vk.Version, r.vk.Kind, id); err != nil {
		return nil, err
	}
	return out, nil
}

var _ ResourceInterface[struct{}] = (*ResourceClient[struct{}])(nil)
