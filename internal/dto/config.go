package dto

import "balwatch/internal/models"

// TargetRequest is one notification target as submitted by the
// control-plane. At least one of apprise_config_key / apprise_urls
// must survive sanitization or the target is dropped.
type TargetRequest struct {
	Name             string   `json:"name" validate:"required"`
	AccountIDs       []string `json:"accountIds" validate:"required,min=1,dive,account_id"`
	AppriseConfigKey string   `json:"appriseConfigKey,omitempty"`
	AppriseURLs      []string `json:"appriseUrls,omitempty" validate:"omitempty,dive,url"`
}

// ToModel converts the request target to the persisted shape.
func (t *TargetRequest) ToModel() models.NotificationTarget {
	return models.NotificationTarget{
		Name:             t.Name,
		AccountIDs:       t.AccountIDs,
		AppriseConfigKey: t.AppriseConfigKey,
		AppriseURLs:      t.AppriseURLs,
	}
}

// SetAccessRequest updates the upstream access descriptor.
type SetAccessRequest struct {
	URL string `json:"url" validate:"required,access_url"`
}

// SetTargetsRequest replaces the notification target list.
type SetTargetsRequest struct {
	Targets []TargetRequest `json:"targets" validate:"required,dive"`
}

// UpdateConfigRequest is the full-document update body. Zero-valued
// fields are applied as-is; this endpoint replaces the document.
type UpdateConfigRequest struct {
	AccessURL     string          `json:"accessUrl,omitempty" validate:"omitempty,access_url"`
	AppriseAPIURL string          `json:"appriseApiUrl,omitempty" validate:"omitempty,url"`
	Schedule      string          `json:"schedule,omitempty" validate:"omitempty,cron_expr"`
	Targets       []TargetRequest `json:"targets,omitempty" validate:"omitempty,dive"`
	StatePath     string          `json:"statePath,omitempty"`
	CachePath     string          `json:"cachePath,omitempty"`
}

// ConfigResponse is the control-plane view of the settings document.
// The access URL is always redacted.
type ConfigResponse struct {
	AccessURL     string                      `json:"accessUrl,omitempty"`
	AppriseAPIURL string                      `json:"appriseApiUrl,omitempty"`
	Schedule      string                      `json:"schedule,omitempty"`
	Targets       []models.NotificationTarget `json:"targets,omitempty"`
	StatePath     string                      `json:"statePath,omitempty"`
	CachePath     string                      `json:"cachePath,omitempty"`
}

// AccessPreviewResponse is the redacted access descriptor preview.
type AccessPreviewResponse struct {
	URL string `json:"url"`
}
