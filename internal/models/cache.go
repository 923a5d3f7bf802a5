package models

import "time"

// CacheEntry is one cached upstream response, keyed externally by the
// canonical signature of the requested account-id set.
type CacheEntry struct {
	Value     []Account `json:"value"`
	Timestamp int64     `json:"timestamp"` // unix milliseconds
}

// Expired reports whether the entry is older than ttl at the given
// moment. A zero ttl never marks an entry fresh; callers bypass the
// cache entirely in that case.
func (e *CacheEntry) Expired(ttl time.Duration, now time.Time) bool {
	age := now.UnixMilli() - e.Timestamp
	return age > ttl.Milliseconds()
}

// CacheDocument is the persisted response-cache document.
type CacheDocument struct {
	Entries map[string]CacheEntry `json:"entries"`
}

// NewCacheDocument returns an empty cache document.
func NewCacheDocument() *CacheDocument {
	return &CacheDocument{Entries: make(map[string]CacheEntry)}
}
