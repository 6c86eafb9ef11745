// Package api implements the request/response channel: a JSON client
// bound to the game server's API root, always sending session credentials.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	apperrors "github.com/toniosim/pbbg-client/pkg/errors"
	"github.com/toniosim/pbbg-client/pkg/log"
)

const defaultTimeout = 20 * time.Second

// Client is a request/response client for the game server API.
type Client struct {
	baseURL          *url.URL
	http             *http.Client
	requestHook      func(*http.Request)
	unauthorizedHook func()
}

// NewClientOptions are the options for creating a new Client.
type NewClientOptions struct {
	// BaseURL is the API root, e.g. "http://localhost:5000".
	BaseURL string
	// Timeout bounds each round-trip. Defaults to 20s.
	Timeout time.Duration
	// Jar carries the session cookie. A fresh jar is created when nil.
	Jar http.CookieJar
	// RequestHook runs before each request is sent. Extension point for
	// future token injection; pass-through when nil.
	RequestHook func(*http.Request)
	// UnauthorizedHook runs once per response that comes back 401.
	UnauthorizedHook func()
}

// NewClient creates a new Client.
func NewClient(opts NewClientOptions) (*Client, error) {
	base, err := url.Parse(opts.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse base URL: %v", err)
	}

	jar := opts.Jar
	if jar == nil {
		jar, err = cookiejar.New(nil)
		if err != nil {
			return nil, fmt.Errorf("failed to create cookie jar: %v", err)
		}
	}

	timeout := opts.Timeout
	if timeout == 0 {
		timeout = defaultTimeout
	}

	return &Client{
		baseURL: base,
		http: &http.Client{
			Jar:     jar,
			Timeout: timeout,
		},
		requestHook:      opts.RequestHook,
		unauthorizedHook: opts.UnauthorizedHook,
	}, nil
}

// Jar returns the cookie jar holding the session credentials, so other
// transports can present the same session.
func (c *Client) Jar() http.CookieJar {
	return c.http.Jar
}

// BaseURL returns the configured API root.
func (c *Client) BaseURL() *url.URL {
	return c.baseURL
}

// Get issues a GET request and decodes the JSON response into out.
func (c *Client) Get(ctx context.Context, path string, out interface{}) error {
	return c.do(ctx, http.MethodGet, path, nil, out)
}

// Post issues a POST request with a JSON body and decodes the JSON
// response into out.
func (c *Client) Post(ctx context.Context, path string, body, out interface{}) error {
	return c.do(ctx, http.MethodPost, path, body, out)
}

func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	u := c.baseURL.JoinPath(path)

	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %v", err)
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.requestHook != nil {
		c.requestHook(req)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return apperrors.Transport("server unreachable", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		if c.unauthorizedHook != nil {
			c.unauthorizedHook()
		}
		return apperrors.Authorization(serverMessage(resp.Body, "authentication required"))
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg := serverMessage(resp.Body, fmt.Sprintf("request failed with status %d", resp.StatusCode))
		log.Debug("Request %s %s failed with status %d: %s", method, path, resp.StatusCode, msg)
		return apperrors.Application(msg)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response body: %v", err)
	}
	return nil
}

// serverMessage extracts the server-provided message from an error
// response body, falling back when the body is not the JSON envelope.
func serverMessage(r io.Reader, fallback string) string {
	b, err := io.ReadAll(io.LimitReader(r, 1<<16))
	if err != nil {
		return fallback
	}
	var envelope struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(b, &envelope); err != nil {
		return fallback
	}
	if strings.TrimSpace(envelope.Message) == "" {
		return fallback
	}
	return envelope.Message
}
