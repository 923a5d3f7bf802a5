package handlers

import (
	"net/http"
	"time"

	"balwatch/internal/errors"
	"balwatch/internal/repositories"
	"balwatch/internal/services"

	"github.com/labstack/echo/v4"
)

// HealthCheckHandler handles the health check endpoint
type HealthCheckHandler struct {
	configRepo repositories.ConfigRepositoryInterface
	monitor    services.BalanceMonitorInterface
}

// NewHealthCheckHandler creates a new health check handler
func NewHealthCheckHandler(configRepo repositories.ConfigRepositoryInterface, monitor services.BalanceMonitorInterface) *HealthCheckHandler {
	return &HealthCheckHandler{configRepo: configRepo, monitor: monitor}
}

// HealthCheck reports liveness and whether the config document is
// readable. A broken store means the daemon cannot do useful work.
func (h *HealthCheckHandler) HealthCheck(c echo.Context) error {
	if _, err := h.configRepo.Get(); err != nil {
		traceID := getTraceID(c)
		errorResponse := errors.NewErrorResponse(
			errors.SystemServiceUnavailable,
			traceID,
			errors.WithDetails("config store unreadable"),
		)
		return c.JSON(http.StatusServiceUnavailable, errorResponse)
	}

	return c.JSON(http.StatusOK, map[string]string{
		"status":  "healthy",
		"monitor": h.monitor.State().String(),
		"time":    time.Now().UTC().Format(time.RFC3339),
	})
}
