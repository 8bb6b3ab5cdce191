// Package client provides the typed HTTP client for the blood-pressure
// journal server. It is the only place that knows the wire conventions:
// snake_case JSON keys, ISO-8601 timestamps and the error-body shape.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/vpetrenko/bp-journal/internal/buildinfo"
	"github.com/vpetrenko/bp-journal/internal/config"
	"github.com/vpetrenko/bp-journal/internal/errs"
	"github.com/vpetrenko/bp-journal/model"
)

// Error bodies larger than this are not worth parsing for a message.
const maxErrorBody = 4 << 10

// Client issues requests against the journal server. It is safe for
// concurrent use; the underlying http.Client owns the connection pool.
type Client struct {
	config     *config.ClientConfig
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a new client instance with the given configuration.
func NewClient(cfg *config.ClientConfig) (*Client, error) {
	return NewClientWithHTTP(cfg, NewHTTPClient(cfg))
}

// NewClientWithHTTP builds a client around a ready http.Client (DI for
// tests and custom transports).
func NewClientWithHTTP(cfg *config.ClientConfig, hc *http.Client) (*Client, error) {
	u, err := url.Parse(cfg.ServerAddr)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("%w: %q", errs.ErrInvalidURL, cfg.ServerAddr)
	}
	return &Client{config: cfg, baseURL: u.String(), httpClient: hc}, nil
}

// NewHTTPClient builds the http.Client used by default.
func NewHTTPClient(cfg *config.ClientConfig) *http.Client {
	return &http.Client{Timeout: time.Duration(cfg.ClientTimeout) * time.Second}
}

// FetchReadings lists all readings. The result ordering is whatever the
// server returned.
func (clnt *Client) FetchReadings(ctx context.Context) ([]model.Reading, error) {
	resp, err := clnt.do(ctx, http.MethodGet, "/api/readings", nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if err := checkStatus(resp); err != nil {
		return nil, err
	}
	var readings []model.Reading
	if err := json.NewDecoder(resp.Body).Decode(&readings); err != nil {
		return nil, &errs.DecodingError{What: "readings list", Cause: err}
	}
	return readings, nil
}

// FetchStats fetches the server-computed aggregate snapshot.
func (clnt *Client) FetchStats(ctx context.Context) (*model.Stats, error) {
	resp, err := clnt.do(ctx, http.MethodGet, "/api/stats", nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if err := checkStatus(resp); err != nil {
		return nil, err
	}
	var stats model.Stats
	if err := json.NewDecoder(resp.Body).Decode(&stats); err != nil {
		return nil, &errs.DecodingError{What: "stats", Cause: err}
	}
	return &stats, nil
}

// SubmitReading posts the nine-field payload. The server averages the
// triplets and assigns the classification; any response body is ignored.
func (clnt *Client) SubmitReading(ctx context.Context, in model.ReadingInput) error {
	raw, err := json.Marshal(in)
	if err != nil {
		return &errs.EncodingError{Cause: err}
	}
	resp, err := clnt.do(ctx, http.MethodPost, "/submit", bytes.NewReader(raw))
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if err := checkStatus(resp); err != nil {
		return err
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

// DeleteReading deletes the reading addressed by its identity. Any response
// body is ignored.
func (clnt *Client) DeleteReading(ctx context.Context, id int64) error {
	resp, err := clnt.do(ctx, http.MethodDelete, fmt.Sprintf("/api/readings/%d", id), nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if err := checkStatus(resp); err != nil {
		return err
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

func (clnt *Client) do(ctx context.Context, method, path string, body io.Reader) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, clnt.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errs.ErrInvalidURL, err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "bpcli/"+buildinfo.Version())
	req.Header.Set("X-Request-ID", uuid.NewString())
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := clnt.httpClient.Do(req)
	if err != nil {
		return nil, classifyTransportError(err)
	}
	return resp, nil
}

// classifyTransportError tells connectivity faults (DNS, TLS, timeouts,
// resets) apart from a transport that produced something other than a
// well-formed HTTP response. http.Client wraps everything in *url.Error,
// so the inner error is what gets classified.
func classifyTransportError(err error) error {
	inner := err
	var urlErr *url.Error
	if errors.As(err, &urlErr) && urlErr.Err != nil {
		inner = urlErr.Err
	}
	if strings.Contains(inner.Error(), "malformed HTTP") {
		return fmt.Errorf("%w: %v", errs.ErrInvalidResponse, err)
	}
	var opErr *net.OpError
	if errors.As(inner, &opErr) || os.IsTimeout(inner) {
		return fmt.Errorf("%w: %v", errs.ErrRequestFailed, err)
	}
	var netErr net.Error
	if errors.As(inner, &netErr) {
		return fmt.Errorf("%w: %v", errs.ErrRequestFailed, err)
	}
	// Remaining cases (TLS handshake, certificate validation) are still
	// connectivity faults from the caller's point of view.
	return fmt.Errorf("%w: %v", errs.ErrRequestFailed, err)
}

func checkStatus(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	return &errs.ServerError{Status: resp.StatusCode, Message: extractMessage(resp.StatusCode, body)}
}

// extractMessage pulls a human-readable message out of a flat string map
// body, looking for "error" then "message", before falling back to a
// generic status description.
func extractMessage(status int, body []byte) string {
	var m map[string]string
	if err := json.Unmarshal(body, &m); err == nil {
		if v := m["error"]; v != "" {
			return v
		}
		if v := m["message"]; v != "" {
			return v
		}
	}
	return fmt.Sprintf("HTTP %d %s", status, http.StatusText(status))
}
