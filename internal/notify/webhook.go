// Package notify posts confirmed complaints to a downstream webhook.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/antoniostano/helpdesk/internal/complaint"
	"github.com/antoniostano/helpdesk/internal/observability"
	"github.com/antoniostano/helpdesk/internal/reliability"
)

// DefaultTimeout bounds a single webhook delivery.
const DefaultTimeout = 10 * time.Second

// Notifier delivers a record to an external endpoint.
type Notifier interface {
	Notify(ctx context.Context, record complaint.Record) error
}

// StatusError is returned when the webhook answers outside 2xx.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("webhook http status %d: %s", e.Code, e.Body)
}

// Retryable reports whether a later delivery could plausibly succeed.
func (e *StatusError) Retryable() bool {
	return reliability.IsRetryableHTTPStatus(e.Code)
}

// WebhookNotifier POSTs the record as JSON.
type WebhookNotifier struct {
	url     string
	client  *http.Client
	metrics *observability.Metrics
}

func NewWebhookNotifier(url string, timeout time.Duration, metrics *observability.Metrics) *WebhookNotifier {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &WebhookNotifier{
		url:     strings.TrimSpace(url),
		client:  &http.Client{Timeout: timeout},
		metrics: metrics,
	}
}

func (n *WebhookNotifier) Notify(ctx context.Context, record complaint.Record) error {
	payload, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("marshal record: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	res, err := n.client.Do(req)
	if err != nil {
		n.metrics.ObserveWebhookStatus(reliability.StatusClassTransport)
		return fmt.Errorf("send webhook: %w", err)
	}
	defer res.Body.Close()

	n.metrics.ObserveWebhookStatus(reliability.StatusClass(res.StatusCode))
	if res.StatusCode < 200 || res.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(res.Body, 4<<10))
		return &StatusError{Code: res.StatusCode, Body: strings.TrimSpace(string(body))}
	}
	_, _ = io.Copy(io.Discard, res.Body)
	return nil
}
