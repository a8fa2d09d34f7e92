// internal/middleware/recovery_middleware.go
package middleware

import (
	"errors"
	"fmt"
	"net/http"

	"agentlist-service/internal/metrics"
	"agentlist-service/internal/pkg/response"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RecoveryMiddleware turns a handler panic into the 500 envelope. The log
// line names the route template and any agent or upload id in the path, so a
// crash while distributing an upload can be traced back to that batch.
func RecoveryMiddleware(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			if err, ok := rec.(error); ok && errors.Is(err, http.ErrAbortHandler) {
				panic(rec)
			}

			route := c.FullPath()
			if route == "" {
				route = "unmatched"
			}
			metrics.PanicsRecovered.WithLabelValues(route).Inc()

			fields := []zap.Field{
				zap.Any("panic", rec),
				zap.String("method", c.Request.Method),
				zap.String("route", route),
			}
			if id := c.Param("uploadId"); id != "" {
				fields = append(fields, zap.String("upload_id", id))
			}
			if id := c.Param("id"); id != "" {
				fields = append(fields, zap.String("agent_id", id))
			}
			if adminID, ok := GetAdminID(c); ok {
				fields = append(fields, zap.Int64("admin_id", adminID))
			}
			logger.Error("panic recovered", append(fields, zap.Stack("stack"))...)

			if c.Writer.Written() {
				c.Abort()
				return
			}
			response.FromError(c, fmt.Errorf("panic: %v", rec), "Server error")
		}()
		c.Next()
	}
}
