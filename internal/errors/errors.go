package errors

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/stwalsh4118/deedchain/internal/middleware"
	"github.com/stwalsh4118/deedchain/internal/validation"
)

// Error code constants for standardized error responses
const (
	ErrNotFound              = "NOT_FOUND"
	ErrBadRequest            = "BAD_REQUEST"
	ErrInternalServer        = "INTERNAL_SERVER_ERROR"
	ErrValidation            = "VALIDATION_ERROR"
	ErrNotConnected          = "NOT_CONNECTED"
	ErrForbidden             = "FORBIDDEN"
	ErrSettlementUnavailable = "SETTLEMENT_UNAVAILABLE"
)

// ErrorResponse is the top-level error response structure.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail contains the error information.
type ErrorDetail struct {
	Code      string                 `json:"code"`
	Message   string                 `json:"message"`
	Details   map[string]interface{} `json:"details,omitempty"`
	RequestID string                 `json:"request_id,omitempty"`
}

func respond(c *gin.Context, status int, code, message string, details map[string]interface{}) {
	c.JSON(status, ErrorResponse{
		Error: ErrorDetail{
			Code:      code,
			Message:   message,
			Details:   details,
			RequestID: middleware.GetRequestID(c),
		},
	})
}

func warn(c *gin.Context, msg string, fields map[string]interface{}) {
	log := middleware.GetLogger(c)
	if log == nil {
		return
	}
	fields["request_id"] = middleware.GetRequestID(c)
	fields["path"] = c.Request.URL.Path
	log.Warn(msg, fields)
}

// NotFound returns a 404 Not Found error response.
func NotFound(c *gin.Context, message string) {
	warn(c, "Resource not found", map[string]interface{}{"message": message})
	respond(c, http.StatusNotFound, ErrNotFound, message, nil)
}

// BadRequest returns a 400 Bad Request error response with optional details.
func BadRequest(c *gin.Context, message string, details map[string]interface{}) {
	fields := map[string]interface{}{"message": message}
	if details != nil {
		fields["details"] = details
	}
	warn(c, "Bad request", fields)
	respond(c, http.StatusBadRequest, ErrBadRequest, message, details)
}

// NotConnected returns a 401 for requests that carry no usable wallet address.
func NotConnected(c *gin.Context) {
	warn(c, "Wallet not connected", map[string]interface{}{})
	respond(c, http.StatusUnauthorized, ErrNotConnected, "A connected wallet address is required", nil)
}

// Forbidden returns a 403 when the acting wallet may not perform the operation.
func Forbidden(c *gin.Context, message string) {
	warn(c, "Forbidden", map[string]interface{}{"message": message})
	respond(c, http.StatusForbidden, ErrForbidden, message, nil)
}

// ServiceUnavailable returns a 503 when the settlement layer could not confirm the transaction.
func ServiceUnavailable(c *gin.Context, message string, err error) {
	fields := map[string]interface{}{"message": message}
	if err != nil {
		fields["error"] = err.Error()
	}
	warn(c, "Settlement unavailable", fields)
	respond(c, http.StatusServiceUnavailable, ErrSettlementUnavailable, message, nil)
}

// InternalServerError returns a 500 Internal Server Error response.
// The underlying error is logged but never sent to the client.
func InternalServerError(c *gin.Context, message string, err error) {
	log := middleware.GetLogger(c)
	requestID := middleware.GetRequestID(c)

	if log != nil {
		log.Error("Internal server error", err, map[string]interface{}{
			"message":    message,
			"request_id": requestID,
			"path":       c.Request.URL.Path,
			"method":     c.Request.Method,
		})
	}

	respond(c, http.StatusInternalServerError, ErrInternalServer, message, nil)
}

// ValidationError returns a 400 with one entry per rejected field.
func ValidationError(c *gin.Context, fields validation.ErrorMap) {
	details := make(map[string]interface{}, len(fields))
	for field, msg := range fields {
		details[field] = msg
	}

	warn(c, "Validation error", map[string]interface{}{"fields": details})
	respond(c, http.StatusBadRequest, ErrValidation, "Validation failed for one or more fields", details)
}
