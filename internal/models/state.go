package models

// AccountState is the last observed balance for one account.
type AccountState struct {
	LastBalance float64 `json:"lastBalance"`
}

// BalanceState is the persisted balance-state document. Entries are
// created lazily on first observation and never deleted automatically.
type BalanceState struct {
	Accounts map[string]AccountState `json:"accounts"`
}

// NewBalanceState returns an empty state document.
func NewBalanceState() *BalanceState {
	return &BalanceState{Accounts: make(map[string]AccountState)}
}
