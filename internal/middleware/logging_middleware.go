// internal/middleware/logging_middleware.go
package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"link-service/internal/utils"
)

// LoggingMiddleware writes one access log line per request, tagged with the request ID
func LoggingMiddleware(logger *utils.ServiceLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		startTime := time.Now()
		c.Next()
		duration := time.Since(startTime)

		requestLogger := logger.WithRequestID(c.GetString("request_id"))
		requestLogger.LogAPIRequest(
			c.Request.Method,
			c.Request.URL.Path,
			c.Request.UserAgent(),
			c.ClientIP(),
			c.Writer.Status(),
			duration,
		)
		if len(c.Errors) > 0 {
			requestLogger.Warn("Request errors", zap.Strings("errors", c.Errors.Errors()))
		}
	}
}
