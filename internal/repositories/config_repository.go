package repositories

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"

	"balwatch/internal/models"
)

var (
	ErrEmptyAccessURL   = errors.New("access URL cannot be empty")
	ErrInvalidAccessURL = errors.New("access URL is not a valid URL")
)

// configRepository implements ConfigRepositoryInterface over a single
// JSON document. The mutex serializes Update calls so mutators apply
// in call order and writes never interleave.
type configRepository struct {
	path string
	mu   sync.Mutex
}

// NewConfigRepository creates a config repository backed by the JSON
// document at path. The file is created on first write.
func NewConfigRepository(path string) ConfigRepositoryInterface {
	return &configRepository{path: path}
}

// Get returns a deep copy of the current document. A missing file
// yields the defaults, not an error.
func (r *configRepository) Get() (*models.ConfigDocument, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.load()
}

func (r *configRepository) load() (*models.ConfigDocument, error) {
	doc := models.DefaultConfigDocument()
	if err := readDocument(r.path, doc); err != nil {
		if errors.Is(err, ErrDocumentNotFound) {
			return models.DefaultConfigDocument(), nil
		}
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if doc.Schedule == "" {
		doc.Schedule = models.DefaultSchedule
	}
	return doc, nil
}

// Update applies the mutator to a copy of the current document under
// the write lock, sanitizes the result and persists it atomically.
func (r *configRepository) Update(mutate func(*models.ConfigDocument) error) (*models.ConfigDocument, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	doc, err := r.load()
	if err != nil {
		return nil, err
	}

	if err := mutate(doc); err != nil {
		return nil, err
	}

	sanitizeConfig(doc)

	if err := writeDocument(r.path, doc); err != nil {
		return nil, fmt.Errorf("failed to persist config: %w", err)
	}
	return doc.Clone(), nil
}

// SetAccessURL validates the access descriptor before any I/O happens.
func (r *configRepository) SetAccessURL(raw string) (*models.ConfigDocument, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil, ErrEmptyAccessURL
	}
	u, err := url.Parse(trimmed)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, ErrInvalidAccessURL
	}

	return r.Update(func(doc *models.ConfigDocument) error {
		doc.AccessURL = trimmed
		return nil
	})
}

// SetTargets replaces the notification target list. Sanitization drops
// targets that end up with no usable destination.
func (r *configRepository) SetTargets(targets []models.NotificationTarget) (*models.ConfigDocument, error) {
	return r.Update(func(doc *models.ConfigDocument) error {
		doc.Targets = targets
		return nil
	})
}

// sanitizeConfig normalizes a document before every write: strings are
// trimmed, id and url lists deduplicated, empty optional fields
// dropped, and targets without a usable destination removed.
func sanitizeConfig(doc *models.ConfigDocument) {
	doc.AccessURL = strings.TrimSpace(doc.AccessURL)
	doc.AppriseAPIURL = strings.TrimRight(strings.TrimSpace(doc.AppriseAPIURL), "/")
	doc.Schedule = strings.TrimSpace(doc.Schedule)
	doc.StatePath = strings.TrimSpace(doc.StatePath)
	doc.CachePath = strings.TrimSpace(doc.CachePath)
	if doc.Schedule == "" {
		doc.Schedule = models.DefaultSchedule
	}

	sanitized := doc.Targets[:0]
	for _, t := range doc.Targets {
		t.Name = strings.TrimSpace(t.Name)
		t.AccountIDs = dedupeStrings(t.AccountIDs)
		t.AppriseConfigKey = strings.TrimSpace(t.AppriseConfigKey)
		t.AppriseURLs = dedupeStrings(t.AppriseURLs)
		if len(t.AppriseURLs) == 0 {
			// Drop the empty list instead of persisting [].
			t.AppriseURLs = nil
		}
		if t.Destination().Kind == models.DestinationNone {
			continue
		}
		sanitized = append(sanitized, t)
	}
	doc.Targets = sanitized
	if len(doc.Targets) == 0 {
		doc.Targets = nil
	}
}

// dedupeStrings trims each entry, drops blanks and removes duplicates
// while preserving first-seen order.
func dedupeStrings(in []string) []string {
	if len(in) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
