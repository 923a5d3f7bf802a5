package repositories

import (
	"errors"
	"fmt"
	"sync"

	"balwatch/internal/models"
)

// stateRepository implements StateRepositoryInterface over a single
// JSON document holding the last observed balance per account id.
type stateRepository struct {
	path string

	mu     sync.Mutex
	state  *models.BalanceState
	loaded bool
	dirty  bool
}

// NewStateRepository creates a balance-state repository backed by the
// JSON document at path.
func NewStateRepository(path string) StateRepositoryInterface {
	return &stateRepository{path: path}
}

func (r *stateRepository) ensureLoaded() {
	if r.loaded {
		return
	}
	state := models.NewBalanceState()
	if err := readDocument(r.path, state); err != nil && !errors.Is(err, ErrDocumentNotFound) {
		// An unreadable state file behaves like first start: every
		// account re-baselines instead of alerting spuriously.
		state = models.NewBalanceState()
	}
	if state.Accounts == nil {
		state.Accounts = make(map[string]models.AccountState)
	}
	r.state = state
	r.loaded = true
}

// GetLastBalance returns the last recorded balance for the account and
// whether one exists.
func (r *stateRepository) GetLastBalance(accountID string) (float64, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ensureLoaded()

	entry, ok := r.state.Accounts[accountID]
	return entry.LastBalance, ok
}

// SetLastBalance upserts the balance and writes the document through
// to disk.
func (r *stateRepository) SetLastBalance(accountID string, balance float64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ensureLoaded()

	r.state.Accounts[accountID] = models.AccountState{LastBalance: balance}
	r.dirty = true
	return r.flush()
}

// Save forces a flush. Called at shutdown so the most recent
// SetLastBalance is durable even if its own write failed.
func (r *stateRepository) Save() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ensureLoaded()
	if !r.dirty {
		return nil
	}
	return r.flush()
}

func (r *stateRepository) flush() error {
	if err := writeDocument(r.path, r.state); err != nil {
		return fmt.Errorf("failed to persist balance state: %w", err)
	}
	r.dirty = false
	return nil
}
