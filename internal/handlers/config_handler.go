package handlers

import (
	"errors"
	"net/http"

	"balwatch/internal/dto"
	apierrors "balwatch/internal/errors"
	"balwatch/internal/models"
	"balwatch/internal/repositories"
	"balwatch/internal/services"

	"github.com/labstack/echo/v4"
)

// ConfigHandler exposes the settings document to the onboarding wizard
// and other control-plane clients. All mutation goes through the
// config repository's serialized Update.
type ConfigHandler struct {
	configRepo repositories.ConfigRepositoryInterface
}

// NewConfigHandler creates a config handler.
func NewConfigHandler(configRepo repositories.ConfigRepositoryInterface) *ConfigHandler {
	return &ConfigHandler{configRepo: configRepo}
}

// GetConfig returns the current settings with the access URL redacted.
func (h *ConfigHandler) GetConfig(c echo.Context) error {
	cfg, err := h.configRepo.Get()
	if err != nil {
		return SendSystemError(c, err)
	}
	return c.JSON(http.StatusOK, toConfigResponse(cfg))
}

// UpdateConfig replaces the settings document.
func (h *ConfigHandler) UpdateConfig(c echo.Context) error {
	var req dto.UpdateConfigRequest
	if err := c.Bind(&req); err != nil {
		return SendError(c, apierrors.ValidationGeneral, apierrors.WithDetails("malformed request body"))
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	targets := make([]models.NotificationTarget, 0, len(req.Targets))
	for _, t := range req.Targets {
		targets = append(targets, t.ToModel())
	}

	cfg, err := h.configRepo.Update(func(doc *models.ConfigDocument) error {
		doc.AccessURL = req.AccessURL
		doc.AppriseAPIURL = req.AppriseAPIURL
		doc.Schedule = req.Schedule
		doc.Targets = targets
		doc.StatePath = req.StatePath
		doc.CachePath = req.CachePath
		return nil
	})
	if err != nil {
		return SendSystemError(c, err)
	}
	return c.JSON(http.StatusOK, toConfigResponse(cfg))
}

// SetAccess updates only the upstream access descriptor.
func (h *ConfigHandler) SetAccess(c echo.Context) error {
	var req dto.SetAccessRequest
	if err := c.Bind(&req); err != nil {
		return SendError(c, apierrors.ValidationGeneral, apierrors.WithDetails("malformed request body"))
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	cfg, err := h.configRepo.SetAccessURL(req.URL)
	if err != nil {
		if errors.Is(err, repositories.ErrEmptyAccessURL) {
			return SendError(c, apierrors.ConfigEmptyAccessURL)
		}
		if errors.Is(err, repositories.ErrInvalidAccessURL) {
			return SendError(c, apierrors.ConfigInvalidAccessURL)
		}
		return SendSystemError(c, err)
	}
	return c.JSON(http.StatusOK, toConfigResponse(cfg))
}

// SetTargets replaces the notification target list.
func (h *ConfigHandler) SetTargets(c echo.Context) error {
	var req dto.SetTargetsRequest
	if err := c.Bind(&req); err != nil {
		return SendError(c, apierrors.ValidationGeneral, apierrors.WithDetails("malformed request body"))
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	targets := make([]models.NotificationTarget, 0, len(req.Targets))
	for _, t := range req.Targets {
		targets = append(targets, t.ToModel())
	}

	cfg, err := h.configRepo.SetTargets(targets)
	if err != nil {
		return SendSystemError(c, err)
	}
	return c.JSON(http.StatusOK, toConfigResponse(cfg))
}

// PreviewAccess returns the redacted access descriptor for display in
// the wizard. The raw credential-bearing URL never leaves the server.
func (h *ConfigHandler) PreviewAccess(c echo.Context) error {
	cfg, err := h.configRepo.Get()
	if err != nil {
		return SendSystemError(c, err)
	}
	return c.JSON(http.StatusOK, dto.AccessPreviewResponse{
		URL: services.RedactAccessURL(cfg.AccessURL),
	})
}

func toConfigResponse(cfg *models.ConfigDocument) dto.ConfigResponse {
	return dto.ConfigResponse{
		AccessURL:     services.RedactAccessURL(cfg.AccessURL),
		AppriseAPIURL: cfg.AppriseAPIURL,
		Schedule:      cfg.Schedule,
		Targets:       cfg.Targets,
		StatePath:     cfg.StatePath,
		CachePath:     cfg.CachePath,
	}
}
