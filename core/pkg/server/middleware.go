package server

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-logr/logr"

	"github.com/dtomasi/yangtze/core/pkg/logging"
)

func routeOf(c *gin.Context) string {
	if path := c.FullPath(); path != "" {
		return path
	}
	return "unmatched"
}

// RequestLogger logs one line per request. Server errors are logged as
// errors, everything else at VERBOSE.
func RequestLogger(logger logr.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		keysAndValues := []any{
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", status,
			"duration", time.Since(start),
			"clientIP", c.ClientIP(),
			"bytes", c.Writer.Size(),
		}
		if status >= 500 {
			var err error
			if last := c.Errors.Last(); last != nil {
				err = last.Err
			}
			logger.Error(err, "http request failed", keysAndValues...)
			return
		}
		logger.V(logging.VERBOSE).Info("http request", keysAndValues...)
	}
}

// RequestMetrics records every request in m.
func RequestMetrics(m *Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		m.RecordHTTPRequest(c.Request.Method, routeOf(c), c.Writer.Status(), time.Since(start))
	}
}
