// Package api is the HTTP client for the msgdesk backend row API. The
// backend is a thin row source: it has no notion of dedup keys or client
// correlation ids, so all merge semantics live on the console side.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/tOgg1/msgdesk/internal/logging"
	"github.com/tOgg1/msgdesk/internal/msg"
)

// ErrNoBaseURL means the client was asked to talk to an unconfigured backend.
var ErrNoBaseURL = errors.New("api base url not configured")

const defaultTimeout = 10 * time.Second

// Client talks to the backend row API.
type Client struct {
	base   string
	http   *http.Client
	logger zerolog.Logger
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// NewClient creates a client for the given base URL.
func NewClient(base string, opts ...ClientOption) *Client {
	c := &Client{
		base:   strings.TrimRight(strings.TrimSpace(base), "/"),
		http:   &http.Client{Timeout: defaultTimeout},
		logger: logging.Component("api-client"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Base returns the configured base URL.
func (c *Client) Base() string {
	return c.base
}

// QueryRequest asks for rows, optionally bounded below by since (exclusive).
// since == nil requests a full scan bounded by limit.
type QueryRequest struct {
	DBURL   string   `json:"db_url,omitempty"`
	Table   string   `json:"table"`
	Columns []string `json:"columns"`
	Since   *string  `json:"since"`
	Limit   int      `json:"limit"`
}

// QueryResponse carries the fetched rows.
type QueryResponse struct {
	OK    bool          `json:"ok"`
	Rows  []msg.Message `json:"rows"`
	Error string        `json:"error,omitempty"`
}

// SendRequest writes one admin message. The response does not echo the
// server-assigned id; identity is confirmed by the next query and the
// pending-send reconciler.
type SendRequest struct {
	DBURL      string   `json:"db_url,omitempty"`
	Table      string   `json:"table"`
	Columns    []string `json:"columns"`
	UserID     string   `json:"user_identifier"`
	Sender     string   `json:"sender"`
	AdminName  string   `json:"admin_name"`
	Body       string   `json:"message"`
	FileBase64 *string  `json:"file_base64"`
	CreatedAt  string   `json:"created_at"`
}

// SendResponse reports whether the insert succeeded.
type SendResponse struct {
	OK       bool   `json:"ok"`
	Inserted bool   `json:"inserted,omitempty"`
	Error    string `json:"error,omitempty"`
}

// HealthResponse is the backend liveness probe result.
type HealthResponse struct {
	OK bool   `json:"ok"`
	TS string `json:"ts,omitempty"`
}

// DBTestRequest probes database connectivity through the backend.
type DBTestRequest struct {
	DBURL string `json:"db_url,omitempty"`
}

// DBTestResponse reports database reachability.
type DBTestResponse struct {
	OK        bool   `json:"ok"`
	Connected bool   `json:"connected"`
	Error     string `json:"error,omitempty"`
}

// Query fetches rows from the backing table.
func (c *Client) Query(ctx context.Context, req QueryRequest) (QueryResponse, error) {
	var resp QueryResponse
	if err := c.postJSON(ctx, "/api/messages/query", req, &resp); err != nil {
		return QueryResponse{}, err
	}
	return resp, nil
}

// Send inserts one admin message into the backing table.
func (c *Client) Send(ctx context.Context, req SendRequest) (SendResponse, error) {
	var resp SendResponse
	if err := c.postJSON(ctx, "/api/messages/send", req, &resp); err != nil {
		return SendResponse{}, err
	}
	return resp, nil
}

// Health probes backend liveness.
func (c *Client) Health(ctx context.Context) (HealthResponse, error) {
	if c.base == "" {
		return HealthResponse{}, ErrNoBaseURL
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base+"/api/health", nil)
	if err != nil {
		return HealthResponse{}, err
	}

	var resp HealthResponse
	if err := c.do(httpReq, &resp); err != nil {
		return HealthResponse{}, err
	}
	return resp, nil
}

// TestDB asks the backend to verify its database connection.
func (c *Client) TestDB(ctx context.Context, dbURL string) (DBTestResponse, error) {
	var resp DBTestResponse
	if err := c.postJSON(ctx, "/api/db-test", DBTestRequest{DBURL: dbURL}, &resp); err != nil {
		return DBTestResponse{}, err
	}
	return resp, nil
}

func (c *Client) postJSON(ctx context.Context, path string, payload, out any) error {
	if c.base == "" {
		return ErrNoBaseURL
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+path, bytes.NewReader(body))
	if err != nil {
		return err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	return c.do(httpReq, out)
}

func (c *Client) do(req *http.Request, out any) error {
	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Debug().Err(err).Str("path", req.URL.Path).Msg("request failed")
		return fmt.Errorf("backend unreachable: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	c.logger.Debug().
		Str("path", req.URL.Path).
		Int("status", resp.StatusCode).
		Dur("elapsed", time.Since(start)).
		Msg("backend request")

	// Error responses still carry a JSON body with ok=false; decode before
	// deciding what to surface.
	if err := json.Unmarshal(data, out); err != nil {
		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("backend returned %s", resp.Status)
		}
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
