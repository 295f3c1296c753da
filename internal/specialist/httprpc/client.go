// Package httprpc is a generic JSON-over-HTTP specialist client, generalized
// from the teacher's eodhd client's rate-limited get() helper into a single
// POST-one-envelope call usable for any of the four specialist RPCs.
package httprpc

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/bobmcallan/careerforge/internal/common"
)

// Client is a minimal HTTP client for one specialist's single RPC endpoint.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *common.Logger
}

// New builds a Client pointed at baseURL with the given per-call timeout.
func New(baseURL string, timeout time.Duration, logger *common.Logger) *Client {
	if logger == nil {
		logger = common.NewSilentLogger()
	}
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

// StatusError carries the HTTP status for a non-2xx response, formatted so
// specialist.Classify can recognize its class from the message.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	switch {
	case e.StatusCode == http.StatusTooManyRequests:
		return fmt.Sprintf("rate-limit: status %d: %s", e.StatusCode, e.Body)
	case e.StatusCode >= 500:
		return fmt.Sprintf("transport: status %d: %s", e.StatusCode, e.Body)
	case e.StatusCode >= 400:
		return fmt.Sprintf("validation: status %d: %s", e.StatusCode, e.Body)
	default:
		return fmt.Sprintf("internal: unexpected status %d: %s", e.StatusCode, e.Body)
	}
}

// Invoke POSTs req as JSON to path and decodes the JSON response into resp.
func Invoke(ctx context.Context, c *Client, path string, req, resp any) error {
	body, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("internal: marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("internal: build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	res, err := c.httpClient.Do(httpReq)
	if err != nil {
		if ctx.Err() != nil {
			return fmt.Errorf("deadline: %w", err)
		}
		return fmt.Errorf("transport: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(res.Body, 4096))
		return &StatusError{StatusCode: res.StatusCode, Body: string(raw)}
	}

	if err := json.NewDecoder(res.Body).Decode(resp); err != nil {
		return fmt.Errorf("internal: decode response: %w", err)
	}
	return nil
}
