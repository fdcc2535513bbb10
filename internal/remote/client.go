// Package remote is a thin typed wrapper over the OneFlow REST backend. It
// is the engine's only asynchronous boundary; every non-success outcome
// surfaces as *Error and is handled uniformly at the session layer.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"oneflow-cli/internal/model"
)

// Error is the uniform failure for non-2xx responses. Sessions surface
// Message and keep the draft intact; no kind-specific recovery happens.
type Error struct {
	Status  int
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("server error (%d): %s", e.Status, e.Message)
}

type Client struct {
	BaseURL string // e.g. http://localhost:8080/api
	Token   string

	// HTTPClient may be overridden in tests; nil means a client with a
	// sane timeout.
	HTTPClient *http.Client
}

func NewClient(baseURL, token string) *Client {
	return &Client{BaseURL: strings.TrimRight(baseURL, "/"), Token: token}
}

func (c *Client) httpClient() *http.Client {
	if c.HTTPClient != nil {
		return c.HTTPClient
	}
	return &http.Client{Timeout: 15 * time.Second}
}

func (c *Client) do(ctx context.Context, method, path string, body any, out any) error {
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return err
		}
		rd = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, rd)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}

	resp, err := c.httpClient().Do(req)
	if err != nil {
		return &Error{Status: 0, Message: err.Error()}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &Error{Status: resp.StatusCode, Message: errorMessage(resp)}
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &Error{Status: resp.StatusCode, Message: "malformed response: " + err.Error()}
	}
	return nil
}

func errorMessage(resp *http.Response) string {
	b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	var payload struct {
		Message string `json:"message"`
		Err     string `json:"error"`
	}
	if err := json.Unmarshal(b, &payload); err == nil {
		if payload.Message != "" {
			return payload.Message
		}
		if payload.Err != "" {
			return payload.Err
		}
	}
	if s := strings.TrimSpace(string(b)); s != "" {
		return s
	}
	return http.StatusText(resp.StatusCode)
}

// Service is the per-entity CRUD surface consumed by the engine. Identity is
// always assigned by the server: Create returns the canonical entity.
type Service[E any] interface {
	List(ctx context.Context) ([]E, error)
	Create(ctx context.Context, payload any) (E, error)
	Update(ctx context.Context, id string, payload any) (E, error)
	Delete(ctx context.Context, id string) error
}

type resource[E any] struct {
	c    *Client
	path string
}

func (r resource[E]) List(ctx context.Context) ([]E, error) {
	var out []E
	if err := r.c.do(ctx, http.MethodGet, r.path, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (r resource[E]) Create(ctx context.Context, payload any) (E, error) {
	var out E
	if err := r.c.do(ctx, http.MethodPost, r.path, payload, &out); err != nil {
		var zero E
		return zero, err
	}
	return out, nil
}

func (r resource[E]) Update(ctx context.Context, id string, payload any) (E, error) {
	var out E
	if err := r.c.do(ctx, http.MethodPut, r.path+"/"+id, payload, &out); err != nil {
		var zero E
		return zero, err
	}
	return out, nil
}

func (r resource[E]) Delete(ctx context.Context, id string) error {
	return r.c.do(ctx, http.MethodDelete, r.path+"/"+id, nil, nil)
}

func (c *Client) Projects() Service[model.Project] {
	return resource[model.Project]{c: c, path: "/projects"}
}

func (c *Client) Tasks() Service[model.Task] {
	return resource[model.Task]{c: c, path: "/tasks"}
}

// Health pings the backend; used by connectivity checks.
func (c *Client) Health(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/health", nil, nil)
}
