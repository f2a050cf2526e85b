// Package api is the outbound HTTP client for the back office sync endpoint.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"laundromat/models"
)

const (
	SyncPath       = "/api/sync"
	DefaultTimeout = 75 * time.Second
)

// StatusError is a non-2xx answer from the back office.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("sync rejected with status %d: %s", e.StatusCode, e.Body)
}

type Client struct {
	BaseURL string
	HTTP    *http.Client
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		HTTP:    &http.Client{Timeout: timeout},
	}
}

// Sync posts a batch and decodes the per-item result. A 2xx with errors inside the
// result is not an error here; callers inspect SyncResult.Errors.
func (c *Client) Sync(ctx context.Context, batch models.SyncRequest) (models.SyncResult, error) {
	body, err := json.Marshal(batch)
	if err != nil {
		return models.SyncResult{}, fmt.Errorf("encode sync request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+SyncPath, bytes.NewReader(body))
	if err != nil {
		return models.SyncResult{}, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return models.SyncResult{}, fmt.Errorf("failed to send sync request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return models.SyncResult{}, fmt.Errorf("read sync response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return models.SyncResult{}, &StatusError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(raw))}
	}

	var result models.SyncResult
	if err := json.Unmarshal(raw, &result); err != nil {
		return models.SyncResult{}, fmt.Errorf("decode sync response: %w", err)
	}
	return result, nil
}
