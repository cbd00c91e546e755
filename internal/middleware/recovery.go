package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"

	"github.com/gin-gonic/gin"
	"github.com/stwalsh4118/deedchain/internal/logger"
)

// Recovery turns a panic into a logged 500 in the standard error envelope.
// A panic while a registry operation is in flight leaves whatever that
// operation already committed; the stack is logged for reconciliation.
func Recovery(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			r := recover()
			if r == nil {
				return
			}

			requestLogger := GetLogger(c)
			if requestLogger == nil {
				requestLogger = log
			}
			requestID := GetRequestID(c)

			fields := map[string]interface{}{
				"request_id": requestID,
				"method":     c.Request.Method,
				"path":       c.Request.URL.Path,
				"stack":      string(debug.Stack()),
			}
			if id := GetIdentity(c); id.Connected {
				fields["wallet"] = id.Address
			}
			requestLogger.Error("Panic recovered", fmt.Errorf("panic: %v", r), fields)

			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
				"error": gin.H{
					"code":       "INTERNAL_SERVER_ERROR",
					"message":    "An unexpected error occurred",
					"request_id": requestID,
				},
			})
		}()

		c.Next()
	}
}
