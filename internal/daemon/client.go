package daemon

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/theirongolddev/rollview/internal/model"
)

const (
	requestTimeout = 10 * time.Second
	maxBodySize    = 64 << 20 // transcripts of long sessions run to megabytes
)

var (
	// ErrNotFound indicates the server does not know the session.
	ErrNotFound = errors.New("rollview: session not found")
	// ErrUnreadable indicates the server could not read the session file.
	ErrUnreadable = errors.New("rollview: session file unreadable")
)

// APIError carries the server's error message along with the sentinel for
// its status code.
type APIError struct {
	Status  int
	Message string
	kind    error
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("rollview: unexpected status %d", e.Status)
	}
	return e.Message
}

func (e *APIError) Unwrap() error { return e.kind }

// Client talks to a running `rollview serve`.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient creates a client for addr, given as host:port or a full URL.
// Returns nil if addr is empty.
func NewClient(addr string) *Client {
	addr = strings.TrimSpace(addr)
	if addr == "" {
		return nil
	}
	if !strings.Contains(addr, "://") {
		addr = "http://" + addr
	}
	return &Client{
		baseURL: strings.TrimRight(addr, "/"),
		http:    &http.Client{},
	}
}

// Status returns the server status.
func (c *Client) Status(ctx context.Context) (*Status, error) {
	var st Status
	if err := c.getJSON(ctx, "/v1/status", &st); err != nil {
		return nil, err
	}
	return &st, nil
}

// Sessions lists indexed sessions, optionally filtered by project substring.
func (c *Client) Sessions(ctx context.Context, project string) ([]SessionInfo, error) {
	path := "/v1/sessions"
	if project != "" {
		path += "?project=" + url.QueryEscape(project)
	}
	var out []SessionInfo
	if err := c.getJSON(ctx, path, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Transcript fetches the reconstructed transcript of one session. reload
// asks the server to bypass its cache.
func (c *Client) Transcript(ctx context.Context, sessionID string, reload bool) (model.Transcript, error) {
	path := "/v1/sessions/" + url.PathEscape(sessionID) + "/transcript"
	if reload {
		path += "?reload=1"
	}
	var t model.Transcript
	if err := c.getJSON(ctx, path, &t); err != nil {
		return model.Transcript{}, err
	}
	return t, nil
}

func (c *Client) getJSON(ctx context.Context, path string, v any) error {
	body, err := c.get(ctx, path)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("rollview: parsing %s: %w", path, err)
	}
	return nil
}

// get performs a GET request and returns the response body.
func (c *Client) get(ctx context.Context, path string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("rollview: creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("rollview: request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("rollview: reading response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &APIError{Status: resp.StatusCode}
		var eb errorBody
		if json.Unmarshal(body, &eb) == nil {
			apiErr.Message = eb.Error
		}
		switch resp.StatusCode {
		case http.StatusNotFound:
			apiErr.kind = ErrNotFound
		case http.StatusBadGateway:
			apiErr.kind = ErrUnreadable
		}
		return nil, apiErr
	}
	return body, nil
}
