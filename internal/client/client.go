// Package client talks to the Bookkinder REST API on behalf of one signed-in
// session.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/mrlokans/bookkinder/internal/client/session"
)

const defaultTimeout = 30 * time.Second

// Client is the single request path to the API. Every call reads the bearer
// token from the session it was built with.
type Client struct {
	baseURL    string
	httpClient *http.Client
	session    *session.Store
}

type Option func(*Client)

// WithHTTPClient replaces the default client, mostly for tests.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

func New(baseURL string, store *session.Store, opts ...Option) *Client {
	if store == nil {
		store = session.NewStore(nil)
	}
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: defaultTimeout},
		session:    store,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) Session() *session.Store {
	return c.session
}

type RequestOptions struct {
	Method  string
	Body    any
	Params  url.Values
	Headers map[string]string
}

// Request sends one request and decodes a JSON response into out when out is
// non-nil. Empty bodies (204) leave out untouched.
func (c *Client) Request(ctx context.Context, endpoint string, opts RequestOptions, out any) error {
	method := opts.Method
	if method == "" {
		method = http.MethodGet
	}

	u, err := url.Parse(c.baseURL + "/" + strings.TrimLeft(endpoint, "/"))
	if err != nil {
		return fmt.Errorf("failed to parse URL: %w", err)
	}
	if len(opts.Params) > 0 {
		q := u.Query()
		for k, vs := range opts.Params {
			for _, v := range vs {
				q.Add(k, v)
			}
		}
		u.RawQuery = q.Encode()
	}

	var body io.Reader
	if opts.Body != nil {
		data, err := json.Marshal(opts.Body)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	if opts.Body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token, ok := c.session.Token(); ok {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for k, v := range opts.Headers {
		req.Header.Set(k, v)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return newHTTPError(resp.StatusCode, data)
	}

	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

func (c *Client) Get(ctx context.Context, endpoint string, params url.Values, out any) error {
	return c.Request(ctx, endpoint, RequestOptions{Method: http.MethodGet, Params: params}, out)
}

func (c *Client) Post(ctx context.Context, endpoint string, body, out any) error {
	return c.Request(ctx, endpoint, RequestOptions{Method: http.MethodPost, Body: body}, out)
}

func (c *Client) Put(ctx context.Context, endpoint string, body, out any) error {
	return c.Request(ctx, endpoint, RequestOptions{Method: http.MethodPut, Body: body}, out)
}

func (c *Client) Delete(ctx context.Context, endpoint string) error {
	return c.Request(ctx, endpoint, RequestOptions{Method: http.MethodDelete}, nil)
}
