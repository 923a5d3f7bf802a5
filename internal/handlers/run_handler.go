package handlers

import (
	"net/http"

	apierrors "balwatch/internal/errors"
	"balwatch/internal/models"
	"balwatch/internal/services"

	"github.com/labstack/echo/v4"
)

// RunHandler lets the control-plane trigger a balance check outside
// the schedule.
type RunHandler struct {
	monitor services.BalanceMonitorInterface
}

// NewRunHandler creates a run handler.
func NewRunHandler(monitor services.BalanceMonitorInterface) *RunHandler {
	return &RunHandler{monitor: monitor}
}

// TriggerRun executes one run synchronously. A run already in flight
// yields a conflict with the skipped result; a run-level failure maps
// to the monitor error code.
func (h *RunHandler) TriggerRun(c echo.Context) error {
	result, err := h.monitor.RunOnce(c.Request().Context())
	if err != nil {
		return SendError(c, apierrors.MonitorRunFailed, apierrors.WithDetails(err.Error()))
	}
	if result.Status == models.RunSkipped {
		return c.JSON(http.StatusConflict, SuccessResponse{
			Data:    result,
			Message: "a balance check is already in progress",
		})
	}
	return c.JSON(http.StatusOK, SuccessResponse{Data: result})
}
