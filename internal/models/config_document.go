package models

// ConfigDocument is the single user-facing settings record. It is owned
// by the config repository and mutated only through its serialized
// Update operation; the control-plane and scheduler read copies.
type ConfigDocument struct {
	// AccessURL is the credential-bearing upstream access descriptor
	// (basic-auth userinfo embedded). Never logged raw.
	AccessURL string `json:"accessUrl,omitempty"`

	// AppriseAPIURL is the base URL of the notification gateway.
	AppriseAPIURL string `json:"appriseApiUrl,omitempty"`

	// Schedule is the cron expression driving scheduled runs.
	Schedule string `json:"schedule,omitempty"`

	// Targets is the configured notification fan-out.
	Targets []NotificationTarget `json:"targets,omitempty"`

	// StatePath and CachePath override where the balance-state and
	// response-cache documents live. Empty means the daemon default.
	StatePath string `json:"statePath,omitempty"`
	CachePath string `json:"cachePath,omitempty"`
}

// DefaultSchedule polls every 30 minutes.
const DefaultSchedule = "*/30 * * * *"

// DefaultConfigDocument is what Get returns before any settings have
// been persisted.
func DefaultConfigDocument() *ConfigDocument {
	return &ConfigDocument{
		Schedule: DefaultSchedule,
	}
}

// Clone returns a deep copy so callers can never mutate the stored
// document behind the repository's back.
func (c *ConfigDocument) Clone() *ConfigDocument {
	out := *c
	if c.Targets != nil {
		out.Targets = make([]NotificationTarget, len(c.Targets))
		for i, t := range c.Targets {
			ct := t
			ct.AccountIDs = append([]string(nil), t.AccountIDs...)
			if t.AppriseURLs != nil {
				ct.AppriseURLs = append([]string(nil), t.AppriseURLs...)
			}
			out.Targets[i] = ct
		}
	}
	return &out
}

// WatchedAccountIDs returns the union of explicitly referenced account
// ids across all targets, and whether any target uses the wildcard.
func (c *ConfigDocument) WatchedAccountIDs() (ids []string, wildcard bool) {
	seen := make(map[string]struct{})
	for _, t := range c.Targets {
		for _, id := range t.AccountIDs {
			if id == WildcardAccountID {
				wildcard = true
				continue
			}
			if _, ok := seen[id]; ok {
				continue
			}
			seen[id] = struct{}{}
			ids = append(ids, id)
		}
	}
	return ids, wildcard
}
