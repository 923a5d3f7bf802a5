package handlers

import (
	"log/slog"

	"balwatch/internal/errors"

	"github.com/labstack/echo/v4"
)

const (
	// TraceIDContextKey is the context key for storing the trace ID
	TraceIDContextKey = "trace_id"
)

// SuccessResponse represents a standard success response
type SuccessResponse struct {
	Data    interface{} `json:"data,omitempty"`
	Message string      `json:"message,omitempty"`
}

// getTraceID extracts the trace ID from the Echo context
func getTraceID(c echo.Context) string {
	traceID, ok := c.Get(TraceIDContextKey).(string)
	if !ok {
		return ""
	}
	return traceID
}

// SendError sends a standardized error response with trace ID from context
func SendError(c echo.Context, code errors.ErrorCode, opts ...errors.ErrorOption) error {
	traceID := getTraceID(c)
	errorResponse := errors.NewErrorResponse(code, traceID, opts...)
	return c.JSON(errorResponse.GetHTTPStatus(), errorResponse)
}

// SendSystemError wraps an internal error with a generic message so
// implementation details never leak to clients; the original error is
// logged server-side with the trace ID.
func SendSystemError(c echo.Context, err error) error {
	traceID := getTraceID(c)
	errorResponse, internalErr := errors.WrapSystemError(err, traceID)

	slog.Error("internal error",
		"trace_id", traceID,
		"path", c.Request().URL.Path,
		"error", internalErr.Error(),
	)
	return c.JSON(errorResponse.GetHTTPStatus(), errorResponse)
}
