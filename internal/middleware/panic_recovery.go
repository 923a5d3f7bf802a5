package middleware

import (
	"fmt"
	"log/slog"
	"runtime"

	"balwatch/internal/errors"

	"github.com/labstack/echo/v4"
)

// PanicRecovery converts handler panics into standardized 500
// responses instead of tearing the process down.
func PanicRecovery() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) (err error) {
			defer func() {
				if r := recover(); r != nil {
					stack := make([]byte, 4096)
					stack = stack[:runtime.Stack(stack, false)]

					traceID := GetTraceID(c)
					slog.Error("panic recovered in handler",
						"trace_id", traceID,
						"panic", fmt.Sprintf("%v", r),
						"path", c.Request().URL.Path,
						"stack", string(stack),
					)

					resp := errors.NewErrorResponse(errors.SystemInternalError, traceID)
					err = c.JSON(resp.GetHTTPStatus(), resp)
				}
			}()
			return next(c)
		}
	}
}
