package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"balwatch/internal/models"
	"balwatch/internal/repositories"
)

var (
	// ErrNoDestination means the destination resolved to neither a
	// config key nor a url list. Raised before any network attempt.
	ErrNoDestination = errors.New("notification has no usable destination")
	// ErrNoGatewayURL means no apprise gateway base URL is configured.
	ErrNoGatewayURL = errors.New("no notification gateway URL configured")
)

// GatewayError carries the status and body of a non-2xx gateway
// response. Not retried by this component.
type GatewayError struct {
	StatusCode int
	Body       string
}

func (e *GatewayError) Error() string {
	return fmt.Sprintf("notification gateway returned status %d: %s", e.StatusCode, e.Body)
}

// notifyPayload is the gateway wire format. URLs is present only in
// explicit-url mode; in config-key mode the gateway resolves the key
// server-side.
type notifyPayload struct {
	Title  string   `json:"title"`
	Body   string   `json:"body"`
	Format string   `json:"format"`
	URLs   []string `json:"urls,omitempty"`
}

// appriseNotifier implements NotifierInterface against an apprise
// notification gateway.
type appriseNotifier struct {
	configRepo repositories.ConfigRepositoryInterface
	httpClient *http.Client
	metrics    MetricsRecorderInterface
	logger     *slog.Logger
}

// NewNotifier creates a notifier posting through the configured
// apprise gateway.
func NewNotifier(
	configRepo repositories.ConfigRepositoryInterface,
	metrics MetricsRecorderInterface,
	httpClient *http.Client,
	logger *slog.Logger,
) NotifierInterface {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	return &appriseNotifier{
		configRepo: configRepo,
		httpClient: httpClient,
		metrics:    metrics,
		logger:     logger,
	}
}

// Send posts one message to the gateway. Exactly one routing mode is
// used: a config key posts to <base>/<key> with no urls field, an
// explicit list posts to <base> with the urls in the payload.
func (n *appriseNotifier) Send(ctx context.Context, title, body string, dest models.Destination) error {
	payload := notifyPayload{Title: title, Body: body, Format: "html"}

	var endpointSuffix string
	switch dest.Kind {
	case models.DestinationConfigKey:
		if strings.TrimSpace(dest.ConfigKey) == "" {
			return ErrNoDestination
		}
		endpointSuffix = "/" + url.PathEscape(dest.ConfigKey)
	case models.DestinationURLs:
		if len(dest.URLs) == 0 {
			return ErrNoDestination
		}
		payload.URLs = dest.URLs
	default:
		return ErrNoDestination
	}

	cfg, err := n.configRepo.Get()
	if err != nil {
		return fmt.Errorf("failed to read config: %w", err)
	}
	base := strings.TrimRight(strings.TrimSpace(cfg.AppriseAPIURL), "/")
	if base == "" {
		return ErrNoGatewayURL
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to encode notification payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, base+endpointSuffix, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("failed to build gateway request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.httpClient.Do(req)
	if err != nil {
		n.metrics.RecordNotification("error")
		return fmt.Errorf("gateway request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		respBody, _ := io.ReadAll(resp.Body)
		n.metrics.RecordNotification("rejected")
		return &GatewayError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(respBody))}
	}

	n.metrics.RecordNotification("sent")
	n.logger.Debug("notification dispatched", "title", title, "mode", dest.Kind)
	return nil
}
