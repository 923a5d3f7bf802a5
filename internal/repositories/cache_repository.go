package repositories

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"balwatch/internal/models"
)

// CacheKeyAllAccounts is the canonical key for a full-list fetch.
const CacheKeyAllAccounts = "accounts:all"

// CacheKey computes the canonical signature of an account-id set:
// deduplicated, sorted, comma-joined. Sorting makes the key (and the
// wire request built from the same set) deterministic.
func CacheKey(accountIDs []string) string {
	ids := dedupeStrings(accountIDs)
	if len(ids) == 0 {
		return CacheKeyAllAccounts
	}
	sort.Strings(ids)
	return "accounts:" + strings.Join(ids, ",")
}

// cacheRepository implements CacheRepositoryInterface over a single
// JSON document. The cache is advisory: read failures degrade to
// misses and a zero TTL disables it entirely.
type cacheRepository struct {
	path string
	ttl  time.Duration
	now  func() time.Time

	mu  sync.Mutex
	doc *models.CacheDocument
}

// NewCacheRepository creates a response-cache repository backed by the
// JSON document at path. Entries expire after ttl; ttl == 0 bypasses
// the cache completely (never read, never written).
func NewCacheRepository(path string, ttl time.Duration) CacheRepositoryInterface {
	return &cacheRepository{path: path, ttl: ttl, now: time.Now}
}

// Get returns the cached accounts for the key if a fresh entry exists.
func (r *cacheRepository) Get(key string) ([]models.Account, bool) {
	if r.ttl <= 0 {
		return nil, false
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.ensureLoaded()

	entry, ok := r.doc.Entries[key]
	if !ok || entry.Expired(r.ttl, r.now()) {
		return nil, false
	}
	return append([]models.Account(nil), entry.Value...), true
}

// Put overwrites the entry for the key with the given accounts,
// stamped now.
func (r *cacheRepository) Put(key string, accounts []models.Account) error {
	if r.ttl <= 0 {
		return nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.ensureLoaded()

	r.doc.Entries[key] = models.CacheEntry{
		Value:     append([]models.Account(nil), accounts...),
		Timestamp: r.now().UnixMilli(),
	}
	if err := writeDocument(r.path, r.doc); err != nil {
		return fmt.Errorf("failed to persist response cache: %w", err)
	}
	return nil
}

func (r *cacheRepository) ensureLoaded() {
	if r.doc != nil {
		return
	}
	doc := models.NewCacheDocument()
	// A missing or unreadable cache file is just an empty cache.
	if err := readDocument(r.path, doc); err != nil || doc.Entries == nil {
		doc = models.NewCacheDocument()
	}
	r.doc = doc
}
