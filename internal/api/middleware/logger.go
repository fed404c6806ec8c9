package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/timmy/thumblify/internal/logger"
)

// Logger returns a Gin middleware that injects a request-scoped logger with
// a request ID and logs request start/completion.
func Logger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery

		requestID := uuid.New().String()

		ctx := logger.WithFields(c.Request.Context(), logger.Fields{
			logger.FieldRequestID: requestID,
			logger.FieldComponent: "api",
		})
		c.Request = c.Request.WithContext(ctx)

		c.Header("X-Request-ID", requestID)

		logger.CtxInfo(ctx, "Request started: method=%s, path=%s, client_ip=%s",
			c.Request.Method, path, c.ClientIP())

		c.Next()

		latency := time.Since(start)

		fullPath := path
		if query != "" {
			fullPath = path + "?" + query
		}

		logger.With(logger.Fields{
			logger.FieldStatus:     c.Writer.Status(),
			logger.FieldDurationMs: latency.Milliseconds(),
			logger.FieldSize:       c.Writer.Size(),
		}).Info(ctx, "Request completed: method=%s, path=%s", c.Request.Method, fullPath)
	}
}
