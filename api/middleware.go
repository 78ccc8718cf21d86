package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/memtensor/reqdocx/pkg/types"
)

// loggingMiddleware provides request logging
func (s *Server) loggingMiddleware() gin.HandlerFunc {
	return gin.LoggerWithFormatter(func(param gin.LogFormatterParams) string {
		s.logger.Info("HTTP Request", map[string]interface{}{
			"method":      param.Method,
			"path":        param.Path,
			"status_code": param.StatusCode,
			"latency":     param.Latency,
			"client_ip":   param.ClientIP,
			"user_agent":  param.Request.UserAgent(),
			"request_id":  param.Keys["request_id"],
		})
		return ""
	})
}

// requestIDMiddleware adds a unique request ID to each request
func (s *Server) requestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		rc := types.NewRequestContext(c.GetHeader("X-Request-ID"))
		c.Request = c.Request.WithContext(types.WithRequestContext(c.Request.Context(), rc))
		c.Set("request_id", rc.RequestID)
		c.Header("X-Request-ID", rc.RequestID)
		c.Next()
	}
}

// metricsMiddleware collects request metrics
func (s *Server) metricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		labels := map[string]string{
			"method": c.Request.Method,
			"route":  route,
			"status": strconv.Itoa(c.Writer.Status()),
		}
		s.metrics.Counter("http_requests_total", 1, labels)
		s.metrics.Timer("http_request_duration_ms", float64(time.Since(start).Milliseconds()),
			map[string]string{"route": route})
	}
}

// bodyLimitMiddleware caps the request body at the configured upload size.
// The multipart envelope gets a small allowance on top of the document.
func (s *Server) bodyLimitMiddleware() gin.HandlerFunc {
	limit := s.opts.API.MaxUploadSize + 1<<20
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit)
		c.Next()
	}
}
