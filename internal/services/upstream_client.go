package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"balwatch/internal/models"
	"balwatch/internal/repositories"
)

const accountsPathSegment = "/accounts"

var (
	// ErrNoAccessURL means no upstream access descriptor is configured.
	ErrNoAccessURL = errors.New("no upstream access URL configured")
	// ErrMalformedResponse means the upstream reply lacked the
	// accounts array. Not retryable within the same call.
	ErrMalformedResponse = errors.New("upstream response is missing the accounts array")
)

// UpstreamError carries the status code and body of a non-2xx upstream
// response. The request is never retried automatically.
type UpstreamError struct {
	StatusCode int
	Body       string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("upstream request failed with status %d: %s", e.StatusCode, e.Body)
}

// upstreamClient implements UpstreamClientInterface against the
// upstream bridge, consulting the response cache before the network.
type upstreamClient struct {
	configRepo repositories.ConfigRepositoryInterface
	cache      repositories.CacheRepositoryInterface
	breaker    CircuitBreakerInterface
	metrics    MetricsRecorderInterface
	httpClient *http.Client
	logger     *slog.Logger
}

// NewUpstreamClient creates an upstream balance-fetch client.
func NewUpstreamClient(
	configRepo repositories.ConfigRepositoryInterface,
	cache repositories.CacheRepositoryInterface,
	breaker CircuitBreakerInterface,
	metrics MetricsRecorderInterface,
	httpClient *http.Client,
	logger *slog.Logger,
) UpstreamClientInterface {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &upstreamClient{
		configRepo: configRepo,
		cache:      cache,
		breaker:    breaker,
		metrics:    metrics,
		httpClient: httpClient,
		logger:     logger,
	}
}

// FetchAccounts returns balances for the given ids, or the full list
// when ids is empty. Ids are deduplicated and sorted so the cache key
// and the wire request are deterministic.
func (c *upstreamClient) FetchAccounts(ctx context.Context, accountIDs []string) ([]models.Account, error) {
	cfg, err := c.configRepo.Get()
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	if strings.TrimSpace(cfg.AccessURL) == "" {
		return nil, ErrNoAccessURL
	}

	endpoint, username, password, err := normalizeAccessURL(cfg.AccessURL)
	if err != nil {
		return nil, err
	}

	ids := canonicalIDs(accountIDs)
	key := repositories.CacheKey(ids)

	if accounts, ok := c.cache.Get(key); ok {
		c.metrics.RecordCacheLookup(true)
		c.logger.Debug("serving accounts from response cache", "key", key, "accounts", len(accounts))
		return accounts, nil
	}
	c.metrics.RecordCacheLookup(false)

	if !c.breaker.Allow() {
		return nil, ErrBreakerOpen
	}

	accounts, err := c.fetch(ctx, endpoint, username, password, ids)
	if err != nil {
		c.breaker.RecordFailure()
		c.metrics.SetBreakerState(c.breaker.State())
		return nil, err
	}
	c.breaker.RecordSuccess()
	c.metrics.SetBreakerState(c.breaker.State())

	if cacheErr := c.cache.Put(key, accounts); cacheErr != nil {
		// Cache is advisory; the fetch still succeeded.
		c.logger.Warn("failed to update response cache", "key", key, "error", cacheErr)
	}
	return accounts, nil
}

func (c *upstreamClient) fetch(ctx context.Context, endpoint, username, password string, ids []string) ([]models.Account, error) {
	reqURL, err := url.Parse(endpoint)
	if err != nil {
		return nil, fmt.Errorf("invalid upstream endpoint: %w", err)
	}

	query := reqURL.Query()
	query.Set("balances-only", "1")
	for _, id := range ids {
		query.Add("account", id)
	}
	reqURL.RawQuery = query.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build upstream request: %w", err)
	}
	req.SetBasicAuth(username, password)
	req.Header.Set("Accept", "application/json")

	started := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.metrics.RecordFetch("error", time.Since(started))
		return nil, fmt.Errorf("upstream request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		c.metrics.RecordFetch("error", time.Since(started))
		return nil, fmt.Errorf("failed to read upstream response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.metrics.RecordFetch("http_error", time.Since(started))
		return nil, &UpstreamError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}

	var envelope struct {
		Accounts *[]models.Account `json:"accounts"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		c.metrics.RecordFetch("malformed", time.Since(started))
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	if envelope.Accounts == nil {
		c.metrics.RecordFetch("malformed", time.Since(started))
		return nil, ErrMalformedResponse
	}

	c.metrics.RecordFetch("ok", time.Since(started))
	c.logger.Debug("fetched accounts from upstream", "accounts", len(*envelope.Accounts), "requested_ids", len(ids))
	return *envelope.Accounts, nil
}

// normalizeAccessURL splits a credential-bearing access descriptor
// into an outgoing endpoint and basic-auth credentials. The userinfo
// is stripped from the URL and the path is guaranteed to end with the
// accounts collection segment, appended once and never duplicated.
func normalizeAccessURL(raw string) (endpoint, username, password string, err error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return "", "", "", fmt.Errorf("invalid access URL: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return "", "", "", errors.New("invalid access URL: missing scheme or host")
	}

	if u.User != nil {
		username = u.User.Username()
		password, _ = u.User.Password()
		u.User = nil
	}

	u.Path = strings.TrimRight(u.Path, "/")
	if !strings.HasSuffix(u.Path, accountsPathSegment) {
		u.Path += accountsPathSegment
	}
	return u.String(), username, password, nil
}

// RedactAccessURL masks embedded credentials for user-facing previews
// and logs. The raw descriptor must never appear in either.
func RedactAccessURL(raw string) string {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || u.User == nil {
		return strings.TrimSpace(raw)
	}
	stripped := *u
	stripped.User = nil
	return strings.Replace(stripped.String(), "://", "://****:****@", 1)
}

// canonicalIDs trims, deduplicates and sorts an account-id list.
func canonicalIDs(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}
