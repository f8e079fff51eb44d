// Package transport implements the HTTP client for the Blackbox API.
// Every failure class surfaces as a typed error value: HTTP status errors,
// unparsable success bodies, and connection-level failures. Nothing panics
// past this boundary.
package transport

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/ghostlogic/blackbox-agent/internal/models"
)

// requestTimeout bounds each API call so an unreachable endpoint cannot
// stall the agent loop.
const requestTimeout = 30 * time.Second

// bodyTruncateLen caps response bodies carried inside error values.
const bodyTruncateLen = 500

// StatusError is a non-2xx HTTP response.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("http %d: %s", e.Code, e.Body)
}

// ParseError is a 2xx response whose body was not valid JSON.
type ParseError struct {
	Body string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("non-JSON response: %s", e.Body)
}

// NetError is a connection-level failure: DNS, refused, timeout.
type NetError struct {
	Err error
}

func (e *NetError) Error() string { return fmt.Sprintf("connection failed: %v", e.Err) }
func (e *NetError) Unwrap() error { return e.Err }

// IngestResponse is the body returned by POST /api/v1/ingest.
type IngestResponse struct {
	Status     string `json:"status"`
	Accepted   int    `json:"accepted"`
	BufferSize int    `json:"buffer_size"`
	Detail     string `json:"detail,omitempty"`
}

// SealResponse is the body returned by POST /api/v1/seal. The backend has
// used both capsule_id and id for the capsule reference.
type SealResponse struct {
	Status    string `json:"status"`
	CapsuleID string `json:"capsule_id,omitempty"`
	ID        string `json:"id,omitempty"`
	Detail    string `json:"detail,omitempty"`
}

// CapsuleRef returns whichever capsule identifier the backend sent.
func (r *SealResponse) CapsuleRef() string {
	if r.CapsuleID != "" {
		return r.CapsuleID
	}
	return r.ID
}

// RegisterResponse is the body returned by POST /api/v1/register.
type RegisterResponse struct {
	APIKey   string `json:"api_key"`
	TenantID string `json:"tenant_id"`
}

// Client talks to the Blackbox API for one tenant.
type Client struct {
	baseURL   string
	tenantKey string
	http      *http.Client
	logger    *zap.Logger
}

// New creates a Client. When insecureTLS is set, certificate-chain and
// hostname verification are both disabled; this is logged loudly so the
// unverified path is always distinguishable from the verified one.
func New(baseURL, tenantKey string, insecureTLS bool, logger *zap.Logger) *Client {
	httpClient := &http.Client{Timeout: requestTimeout}
	if insecureTLS {
		logger.Warn("TLS verification DISABLED (insecure_tls): demo/self-signed mode only")
		// Clone the default transport so proxy and dial settings match the
		// verified path; only certificate verification differs.
		tr := http.DefaultTransport.(*http.Transport).Clone()
		tr.TLSClientConfig = &tls.Config{InsecureSkipVerify: true}
		httpClient.Transport = tr
	}
	return &Client{
		baseURL:   strings.TrimRight(baseURL, "/"),
		tenantKey: tenantKey,
		http:      httpClient,
		logger:    logger,
	}
}

// Ingest POSTs a telemetry batch to /api/v1/ingest.
func (c *Client) Ingest(ctx context.Context, batch models.Batch) (*IngestResponse, error) {
	var resp IngestResponse
	if err := c.post(ctx, "/api/v1/ingest", batch, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Seal POSTs an empty JSON body to /api/v1/seal, closing out the current
// accumulation window on the backend.
func (c *Client) Seal(ctx context.Context) (*SealResponse, error) {
	var resp SealResponse
	if err := c.post(ctx, "/api/v1/seal", struct{}{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Register requests a tenant key for a new agent installation.
func (c *Client) Register(ctx context.Context, agentID, hostname string) (*RegisterResponse, error) {
	body := map[string]string{
		"agent_id": agentID,
		"hostname": hostname,
	}
	var resp RegisterResponse
	if err := c.post(ctx, "/api/v1/register", body, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// post sends a JSON body and decodes a JSON response into out, classifying
// every failure into one of the typed error values.
func (c *Client) post(ctx context.Context, path string, payload, out interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.tenantKey != "" {
		// Bearer plus X-API-Key together; backends have honored either.
		req.Header.Set("Authorization", "Bearer "+c.tenantKey)
		req.Header.Set("X-API-Key", c.tenantKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return &NetError{Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return &NetError{Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &StatusError{Code: resp.StatusCode, Body: truncate(string(body), bodyTruncateLen)}
	}

	if err := json.Unmarshal(body, out); err != nil {
		return &ParseError{Body: truncate(string(body), bodyTruncateLen)}
	}
	return nil
}

// truncate shortens s to at most n bytes for diagnostics.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
