package middleware

import (
	"context"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

const (
	// TraceIDHeader carries the trace id on requests and responses.
	TraceIDHeader = "X-Trace-ID"
	// TraceIDContextKey is the echo context key for the trace id.
	TraceIDContextKey = "trace_id"
)

// traceIDKey keys the trace id in a context.Context.
type traceIDKey struct{}

// RequestID assigns every request a trace id, honoring one supplied by
// the caller. The id is echoed in the response header, stored on the
// echo context for handlers, and threaded through the request's
// context.Context so work started from a handler (a triggered balance
// run and its upstream calls) logs under the same id.
func RequestID() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			traceID := c.Request().Header.Get(TraceIDHeader)
			if traceID == "" {
				traceID = uuid.NewString()
			}

			c.Set(TraceIDContextKey, traceID)
			c.Response().Header().Set(TraceIDHeader, traceID)

			ctx := ContextWithTraceID(c.Request().Context(), traceID)
			c.SetRequest(c.Request().WithContext(ctx))
			return next(c)
		}
	}
}

// ContextWithTraceID returns a child context carrying the trace id.
func ContextWithTraceID(ctx context.Context, traceID string) context.Context {
	return context.WithValue(ctx, traceIDKey{}, traceID)
}

// TraceIDFromContext returns the trace id carried by the context, or
// "" when there is none.
func TraceIDFromContext(ctx context.Context) string {
	traceID, _ := ctx.Value(traceIDKey{}).(string)
	return traceID
}

// GetTraceID extracts the trace id from the echo context, falling back
// to the request context. Returns "" if neither carries one.
func GetTraceID(c echo.Context) string {
	if traceID, ok := c.Get(TraceIDContextKey).(string); ok && traceID != "" {
		return traceID
	}
	return TraceIDFromContext(c.Request().Context())
}
