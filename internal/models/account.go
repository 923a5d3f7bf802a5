package models

// Account is a single account as reported by the upstream bridge.
// The bridge owns this shape; we only ever read it. Balances arrive as
// numeric strings and are parsed at the point of use.
type Account struct {
	ID               string `json:"id"`
	Name             string `json:"name,omitempty"`
	Nickname         string `json:"nickname,omitempty"`
	Balance          string `json:"balance"`
	AvailableBalance string `json:"available-balance,omitempty"`
	Currency         string `json:"currency,omitempty"`
}

// DefaultCurrency is assumed when the upstream omits the currency code.
const DefaultCurrency = "USD"

// DisplayName returns the label used in notifications: name, then
// nickname, then the raw id.
func (a *Account) DisplayName() string {
	if a.Name != "" {
		return a.Name
	}
	if a.Nickname != "" {
		return a.Nickname
	}
	return a.ID
}

// CurrencyOrDefault returns the account currency, defaulting to USD.
func (a *Account) CurrencyOrDefault() string {
	if a.Currency == "" {
		return DefaultCurrency
	}
	return a.Currency
}
