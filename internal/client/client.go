// Package client is a typed Go client for the todo list API and its update
// channel.
package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"todolist/backend/internal/api"
	"todolist/backend/internal/network"
)

const (
	basePath       = "/todolist"
	defaultTimeout = 15 * time.Second
)

// ErrGone matches an *APIError with status 410.
var ErrGone = errors.New("gone")

// APIError is returned for any non-2xx response.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("todolist api: %d %s", e.StatusCode, http.StatusText(e.StatusCode))
	}
	return fmt.Sprintf("todolist api: %d %s", e.StatusCode, e.Message)
}

func (e *APIError) Is(target error) bool {
	return target == ErrGone && e.StatusCode == http.StatusGone
}

// EntryFields carries the fields sent on create and update. Nil fields are
// omitted.
type EntryFields struct {
	Title    *string
	Notes    *string
	Complete *bool
}

func (f EntryFields) values() url.Values {
	v := url.Values{}
	if f.Title != nil {
		v.Set(api.ParamTitle, *f.Title)
	}
	if f.Notes != nil {
		v.Set(api.ParamNotes, *f.Notes)
	}
	if f.Complete != nil {
		v.Set(api.ParamComplete, strconv.FormatBool(*f.Complete))
	}
	return v
}

type Client struct {
	baseURL *url.URL
	http    *http.Client
	dialer  *websocket.Dialer
	proxy   string
}

type Option func(*Client)

// WithHTTPClient replaces the HTTP client used for REST calls.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithProxy routes REST and WebSocket traffic through an HTTP or SOCKS5
// proxy.
func WithProxy(proxyURL string) Option {
	return func(c *Client) {
		c.proxy = proxyURL
	}
}

// New returns a client for the server at baseURL, e.g. "http://localhost:8080".
func New(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("base url %q must be http or https", baseURL)
	}

	c := &Client{baseURL: u}
	for _, opt := range opts {
		opt(c)
	}

	if c.http == nil {
		if c.http, err = network.NewHTTPClient(c.proxy, defaultTimeout); err != nil {
			return nil, err
		}
	}
	if c.dialer, err = network.NewWebSocketDialer(c.proxy, defaultTimeout); err != nil {
		return nil, err
	}
	return c, nil
}

// List returns live entries, or only ids when given.
func (c *Client) List(ctx context.Context, ids ...int64) (api.EntryList, error) {
	q := url.Values{}
	if len(ids) > 0 {
		q.Set(api.ParamID, joinIDs(ids))
	}
	var list api.EntryList
	err := c.do(ctx, http.MethodGet, "/entries", q, http.StatusOK, &list)
	return list, err
}

// ListModifiedSince returns every entry changed strictly after since,
// deleted ones included. Pass the previous list's Timestamp.
func (c *Client) ListModifiedSince(ctx context.Context, since float64) (api.EntryList, error) {
	q := url.Values{}
	q.Set(api.ParamModified, strconv.FormatFloat(since, 'f', 6, 64))
	var list api.EntryList
	err := c.do(ctx, http.MethodGet, "/entries", q, http.StatusOK, &list)
	return list, err
}

func (c *Client) Get(ctx context.Context, id int64) (api.Entry, error) {
	var entry api.Entry
	err := c.do(ctx, http.MethodGet, entryPath(id), nil, http.StatusOK, &entry)
	return entry, err
}

func (c *Client) Create(ctx context.Context, fields EntryFields) (api.Entry, error) {
	var entry api.Entry
	err := c.do(ctx, http.MethodPost, "/entries", fields.values(), http.StatusCreated, &entry)
	return entry, err
}

func (c *Client) Update(ctx context.Context, id int64, fields EntryFields) (api.Entry, error) {
	var entry api.Entry
	err := c.do(ctx, http.MethodPut, entryPath(id), fields.values(), http.StatusOK, &entry)
	return entry, err
}

func (c *Client) Delete(ctx context.Context, id int64) error {
	return c.do(ctx, http.MethodDelete, entryPath(id), nil, http.StatusOK, nil)
}

// DeleteMany returns the ids the server actually marked deleted.
func (c *Client) DeleteMany(ctx context.Context, ids ...int64) ([]int64, error) {
	q := url.Values{}
	q.Set(api.ParamID, joinIDs(ids))
	var raw []string
	if err := c.do(ctx, http.MethodDelete, "/entries", q, http.StatusOK, &raw); err != nil {
		return nil, err
	}
	deleted, err := api.ParseIDs(raw)
	if err != nil {
		return nil, fmt.Errorf("decode deleted ids: %w", err)
	}
	return deleted, nil
}

// ClearCompleted deletes every completed entry.
func (c *Client) ClearCompleted(ctx context.Context) ([]int64, error) {
	list, err := c.List(ctx)
	if err != nil {
		return nil, err
	}

	var ids []int64
	for _, e := range list.Entries {
		if e.Complete {
			ids = append(ids, e.ID)
		}
	}
	if len(ids) == 0 {
		return []int64{}, nil
	}
	return c.DeleteMany(ctx, ids...)
}

func (c *Client) OpenChannel(ctx context.Context) (api.Channel, error) {
	var ch api.Channel
	err := c.do(ctx, http.MethodPost, "/channel", nil, http.StatusCreated, &ch)
	return ch, err
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, want int, out any) error {
	u := c.endpoint(path)
	u.RawQuery = query.Encode()

	req, err := http.NewRequestWithContext(ctx, method, u.String(), nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != want {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		var e api.Error
		if json.Unmarshal(body, &e) == nil {
			apiErr.Message = e.Error
		}
		return apiErr
	}

	if out == nil || len(body) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func (c *Client) endpoint(path string) *url.URL {
	u := *c.baseURL
	u.Path = u.Path + basePath + path
	return &u
}

func entryPath(id int64) string {
	return "/entries/" + strconv.FormatInt(id, 10)
}

func joinIDs(ids []int64) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.FormatInt(id, 10)
	}
	return strings.Join(parts, " ")
}
