// Package notify implements the Notifier port for the supported push channels:
// Telegram, WxPusher, PushPlus and Feishu custom bots.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

const (
	defaultTimeout = 15 * time.Second
	maxErrorBody   = 512
)

// Option configures a backend.
type Option func(*options)

type options struct {
	httpClient *http.Client
	endpoint   string
}

// WithHTTPClient sets the HTTP client used for every request.
func WithHTTPClient(hc *http.Client) Option {
	return func(o *options) {
		o.httpClient = hc
	}
}

// WithTimeout sets the timeout of the default HTTP client.
func WithTimeout(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.httpClient = &http.Client{Timeout: d}
		}
	}
}

// WithEndpoint overrides the backend's API endpoint (for testing).
func WithEndpoint(url string) Option {
	return func(o *options) {
		o.endpoint = url
	}
}

func newOptions(endpoint string, opts []Option) options {
	o := options{
		httpClient: &http.Client{Timeout: defaultTimeout},
		endpoint:   endpoint,
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// postJSON sends payload as a JSON POST and decodes the response body into out.
// Any non-2xx status is an error.
func postJSON(ctx context.Context, hc *http.Client, url string, payload, out any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshaling payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := hc.Do(req)
	if err != nil {
		return fmt.Errorf("posting: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		if len(body) > maxErrorBody {
			body = body[:maxErrorBody]
		}
		return fmt.Errorf("unexpected status %d: %s", resp.StatusCode, body)
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}

// report logs the outcome of one send and converts it to the port's boolean result.
func report(backend string, err error) bool {
	if err != nil {
		slog.Warn("notification send failed", "backend", backend, "error", err)
		return false
	}
	slog.Debug("notification sent", "backend", backend)
	return true
}
