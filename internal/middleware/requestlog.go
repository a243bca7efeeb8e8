package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/rfpflow/rfpflow-backend/internal/platform/logger"
)

// RequestLogger tags each request with an id and logs one line on
// completion.
func RequestLogger(log *logger.Logger) gin.HandlerFunc {
	reqLog := log.With("service", "HTTP")
	return func(c *gin.Context) {
		requestID := uuid.NewString()
		c.Header("X-Request-ID", requestID)

		start := time.Now()
		c.Next()

		fields := []any{
			"request_id", requestID,
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"took", time.Since(start),
		}
		if len(c.Errors) > 0 {
			reqLog.Error("request failed", append(fields, "errors", c.Errors.String())...)
			return
		}
		reqLog.Info("request", fields...)
	}
}
