package server

import (
	"bytes"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/dtomasi/yangtze/core/pkg/client"
	"github.com/dtomasi/yangtze/core/pkg/codec"
	"github.com/dtomasi/yangtze/core/pkg/logging"
	v1 "github.com/dtomasi/yangtze/core/types/v1"
)

// Register serves resource type T under /{vk.Version}/{vk.Kind}.
func Register[T any, PT interface {
	*T
	v1.Resource
}](s *Server, vk v1.VersionKind) error {
	local, err := client.NewLocal[T, PT](s.config.Storage, vk,
		client.WithValidator(s.config.Validator), client.WithDefaulter(s.config.Defaulter))
	if err != nil {
		return err
	}
	if err := s.claim(vk); err != nil {
		return err
	}

	h := &resourceHandler[T]{vk: vk, client: local}
	group := s.engine.Group("/" + vk.Version + "/" + vk.Kind)
	group.GET("/:id", h.get)
	group.POST("", h.list)
	group.PUT("", h.create)
	group.PATCH("", h.update)
	group.DELETE("/:id", h.delete)

	s.logger.V(logging.VERBOSE).Info("registered resource", "resource", vk.String())
	return nil
}

type resourceHandler[T any] struct {
	vk     v1.VersionKind
	client client.ResourceInterface[T]
}

func (h *resourceHandler[T]) respond(c *gin.Context, obj any, err error) {
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, obj)
}

func readBody(c *gin.Context) ([]byte, error) {
	data, err := io.ReadAll(c.Request.Body)
	if err != nil {
		return nil, v1.NewBadRequest("failed to read request body: " + err.Error())
	}
	return data, nil
}

// body strictly decodes the request body into T. Any decode failure is the
// caller's fault.
func (h *resourceHandler[T]) body(c *gin.Context) (*T, error) {
	data, err := readBody(c)
	if err != nil {
		return nil, err
	}
	obj, err := codec.Unmarshal[T](h.vk.Kind, data)
	if err != nil {
		return nil, v1.NewBadRequest(err.Error())
	}
	return obj, nil
}

func (h *resourceHandler[T]) get(c *gin.Context) {
	obj, err := h.client.Get(c.Request.Context(), c.Param("id"))
	h.respond(c, obj, err)
}

func (h *resourceHandler[T]) list(c *gin.Context) {
	data, err := readBody(c)
	if err != nil {
		writeError(c, err)
		return
	}

	nn := v1.All
	if len(bytes.TrimSpace(data)) > 0 {
		parsed, err := codec.Unmarshal[v1.NamespaceName]("filter", data)
		if err != nil {
			writeError(c, v1.NewBadRequest(err.Error()))
			return
		}
		nn = *parsed
	}

	items, err := h.client.List(c.Request.Context(), nn)
	h.respond(c, items, err)
}

func (h *resourceHandler[T]) create(c *gin.Context) {
	obj, err := h.body(c)
	if err != nil {
		writeError(c, err)
		return
	}
	created, err := h.client.Create(c.Request.Context(), obj)
	h.respond(c, created, err)
}

func (h *resourceHandler[T]) update(c *gin.Context) {
	obj, err := h.body(c)
	if err != nil {
		writeError(c, err)
		return
	}
	updated, err := h.client.Update(c.Request.Context(), obj)
	h.respond(c, updated, err)
}

func (h *resourceHandler[T]) delete(c *gin.Context) {
	deleted, err := h.client.Delete(c.Request.Context(), c.Param("id"))
	h.respond(c, deleted, err)
}
