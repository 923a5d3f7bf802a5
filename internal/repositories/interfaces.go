package repositories

import "balwatch/internal/models"

// ConfigRepositoryInterface is the document-store contract for the
// user-facing settings record. Update calls are serialized in-process:
// mutators apply in call order and writes never interleave. This is
// the only write-ordering guarantee; running two processes against the
// same file is unsupported.
type ConfigRepositoryInterface interface {
	// Get returns a deep copy of the current document, or defaults if
	// no file exists yet (a missing file is not an error).
	Get() (*models.ConfigDocument, error)

	// Update applies the mutator to a copy of the current document,
	// sanitizes the result, persists it atomically and returns a copy.
	Update(mutate func(*models.ConfigDocument) error) (*models.ConfigDocument, error)

	// SetAccessURL validates and stores the upstream access descriptor.
	// An empty URL fails before any I/O.
	SetAccessURL(raw string) (*models.ConfigDocument, error)

	// SetTargets replaces the notification target list.
	SetTargets(targets []models.NotificationTarget) (*models.ConfigDocument, error)
}

// StateRepositoryInterface persists the last observed balance per
// account id. Writes are write-through; Save forces a flush so the
// most recent write is durable before process exit.
type StateRepositoryInterface interface {
	GetLastBalance(accountID string) (float64, bool)
	SetLastBalance(accountID string, balance float64) error
	Save() error
}

// CacheRepositoryInterface persists recently fetched upstream
// responses keyed by the canonical signature of the requested
// account-id set. A zero TTL disables the cache entirely. Read
// failures are indistinguishable from misses; the client falls
// through to a live fetch.
type CacheRepositoryInterface interface {
	Get(key string) ([]models.Account, bool)
	Put(key string, accounts []models.Account) error
}
