// Package api is the JSON-over-HTTP client for the authoritative backend.
// It decodes the server's error envelope back into domain errors so callers
// can tell a business-logic failure from an unreachable backend: only the
// latter is a TransportError and triggers the sticky local fallback.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"time"

	"github.com/dstreuter/zeitlog/internal/domain"
)

// TransportError marks a network-level failure: connection refused, DNS,
// timeout, or an unparsable response. Business-logic failures are never
// wrapped in it.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: backend unreachable: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// IsTransport reports whether err is a transport-level failure.
func IsTransport(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}

// DefaultTimeout bounds every call; a hanging backend surfaces as a
// TransportError instead of blocking indefinitely.
const DefaultTimeout = 10 * time.Second

// Client talks to one zeitlog server, holding its login cookie.
type Client struct {
	base string
	http *http.Client
}

// NewClient creates a client for the given base URL (no trailing slash).
func NewClient(base string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	jar, _ := cookiejar.New(nil)
	return &Client{
		base: base,
		http: &http.Client{Timeout: timeout, Jar: jar},
	}
}

type activeEnvelope struct {
	Active *domain.ActiveSession `json:"active"`
}

func (c *Client) call(ctx context.Context, method, path string, body, out any) error {
	op := method + " " + path

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("%s: encoding request: %w", op, err)
		}
		reader = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.base+path, reader)
	if err != nil {
		return fmt.Errorf("%s: building request: %w", op, err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	res, err := c.http.Do(req)
	if err != nil {
		return &TransportError{Op: op, Err: err}
	}
	defer res.Body.Close()

	if res.StatusCode >= 400 {
		return decodeError(op, res)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(res.Body).Decode(out); err != nil {
		return &TransportError{Op: op, Err: fmt.Errorf("decoding response: %w", err)}
	}
	return nil
}

// decodeError maps the server's {"error": ...} envelope back onto the
// domain taxonomy by status code.
func decodeError(op string, res *http.Response) error {
	var envelope struct {
		Error string `json:"error"`
	}
	msg := res.Status
	if err := json.NewDecoder(res.Body).Decode(&envelope); err == nil && envelope.Error != "" {
		msg = envelope.Error
	}

	switch res.StatusCode {
	case http.StatusUnauthorized:
		return fmt.Errorf("%s: %s: %w", op, msg, domain.ErrUnauthorized)
	case http.StatusConflict:
		return fmt.Errorf("%s: %w", op, domain.ErrAlreadyActive)
	case http.StatusNotFound:
		if msg == "No active" {
			return fmt.Errorf("%s: %w", op, domain.ErrNoActiveSession)
		}
		return fmt.Errorf("%s: %w", op, domain.ErrNotFound)
	case http.StatusBadRequest:
		return &domain.ValidationError{Field: "request", Msg: msg}
	default:
		return fmt.Errorf("%s: server error: %s", op, msg)
	}
}

// Login authenticates and stores the session cookie for later calls.
func (c *Client) Login(ctx context.Context, user, password string) error {
	body := map[string]string{"user": user, "password": password}
	return c.call(ctx, http.MethodPost, "/api/login", body, nil)
}

// SessionUser returns the logged-in user, or "" when not authenticated.
func (c *Client) SessionUser(ctx context.Context) (string, error) {
	var out struct {
		User *string `json:"user"`
	}
	if err := c.call(ctx, http.MethodGet, "/api/session", nil, &out); err != nil {
		return "", err
	}
	if out.User == nil {
		return "", nil
	}
	return *out.User, nil
}

// Logout drops the server-side session.
func (c *Client) Logout(ctx context.Context) error {
	return c.call(ctx, http.MethodPost, "/api/logout", nil, nil)
}

func (c *Client) Entries(ctx context.Context) ([]*domain.TimeEntry, error) {
	var entries []*domain.TimeEntry
	if err := c.call(ctx, http.MethodGet, "/api/entries", nil, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

func (c *Client) CreateEntry(ctx context.Context, e *domain.TimeEntry) (*domain.TimeEntry, error) {
	var out domain.TimeEntry
	if err := c.call(ctx, http.MethodPost, "/api/entries", e, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) UpdateEntry(ctx context.Context, id string, patch *domain.EntryPatch) (*domain.TimeEntry, error) {
	var out domain.TimeEntry
	if err := c.call(ctx, http.MethodPut, "/api/entries/"+id, patch, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) DeleteEntry(ctx context.Context, id string) error {
	return c.call(ctx, http.MethodDelete, "/api/entries/"+id, nil, nil)
}

func (c *Client) Active(ctx context.Context) (*domain.ActiveSession, error) {
	var out activeEnvelope
	if err := c.call(ctx, http.MethodGet, "/api/active", nil, &out); err != nil {
		return nil, err
	}
	return out.Active, nil
}

func (c *Client) Start(ctx context.Context) (*domain.ActiveSession, error) {
	var out activeEnvelope
	if err := c.call(ctx, http.MethodPost, "/api/active/start", nil, &out); err != nil {
		return nil, err
	}
	return out.Active, nil
}

func (c *Client) Pause(ctx context.Context) (*domain.ActiveSession, error) {
	var out activeEnvelope
	if err := c.call(ctx, http.MethodPost, "/api/active/pause", nil, &out); err != nil {
		return nil, err
	}
	return out.Active, nil
}

func (c *Client) Resume(ctx context.Context) (*domain.ActiveSession, error) {
	var out activeEnvelope
	if err := c.call(ctx, http.MethodPost, "/api/active/resume", nil, &out); err != nil {
		return nil, err
	}
	return out.Active, nil
}

func (c *Client) UpdateActive(ctx context.Context, patch *domain.SessionPatch) (*domain.ActiveSession, error) {
	var out activeEnvelope
	if err := c.call(ctx, http.MethodPost, "/api/active/update", patch, &out); err != nil {
		return nil, err
	}
	return out.Active, nil
}

func (c *Client) AckBreak(ctx context.Context) (*domain.ActiveSession, error) {
	var out activeEnvelope
	if err := c.call(ctx, http.MethodPost, "/api/active/ackBreak", nil, &out); err != nil {
		return nil, err
	}
	return out.Active, nil
}

func (c *Client) Cancel(ctx context.Context) error {
	return c.call(ctx, http.MethodPost, "/api/active/cancel", nil, nil)
}

func (c *Client) Finish(ctx context.Context) (*domain.TimeEntry, error) {
	var out domain.TimeEntry
	if err := c.call(ctx, http.MethodPost, "/api/active/finish", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
