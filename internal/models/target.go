package models

// WildcardAccountID in a target's account list matches every account
// the upstream returns.
const WildcardAccountID = "*"

// DestinationKind discriminates the two delivery modes a target can
// resolve to.
type DestinationKind int

const (
	// DestinationNone means the target has no usable delivery mode.
	DestinationNone DestinationKind = iota
	// DestinationConfigKey routes through a server-side apprise config key.
	DestinationConfigKey
	// DestinationURLs posts an explicit url list to the gateway.
	DestinationURLs
)

// Destination is the resolved delivery mode for a notification. Exactly
// one of ConfigKey or URLs is populated, according to Kind.
type Destination struct {
	Kind      DestinationKind
	ConfigKey string
	URLs      []string
}

// NotificationTarget is a configured (recipient, watched accounts,
// destination) triple. AccountIDs may contain WildcardAccountID.
// AppriseConfigKey and AppriseURLs are both optional in the persisted
// document; when both are set the config key wins.
type NotificationTarget struct {
	Name             string   `json:"name"`
	AccountIDs       []string `json:"accountIds"`
	AppriseConfigKey string   `json:"appriseConfigKey,omitempty"`
	AppriseURLs      []string `json:"appriseUrls,omitempty"`
}

// Destination resolves the target's delivery mode. The config key takes
// precedence over explicit urls when both are configured.
func (t *NotificationTarget) Destination() Destination {
	if t.AppriseConfigKey != "" {
		return Destination{Kind: DestinationConfigKey, ConfigKey: t.AppriseConfigKey}
	}
	if len(t.AppriseURLs) > 0 {
		return Destination{Kind: DestinationURLs, URLs: t.AppriseURLs}
	}
	return Destination{Kind: DestinationNone}
}

// Watches reports whether the target covers the given account id,
// either explicitly or through the wildcard.
func (t *NotificationTarget) Watches(accountID string) bool {
	for _, id := range t.AccountIDs {
		if id == WildcardAccountID || id == accountID {
			return true
		}
	}
	return false
}

// HasWildcard reports whether the target watches every account.
func (t *NotificationTarget) HasWildcard() bool {
	for _, id := range t.AccountIDs {
		if id == WildcardAccountID {
			return true
		}
	}
	return false
}
