// Package backend is the HTTP client for the Travel & Earn REST API.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const defaultTimeout = 15 * time.Second

// Observer receives one callback per backend call.
type Observer interface {
	ObserveBackend(endpoint, outcome string, elapsed time.Duration)
}

// Client talks to one backend base URL. It carries no credentials; use Authed
// to bind a bearer token for a single session.
type Client struct {
	baseURL    *url.URL
	httpClient *http.Client
	logger     *slog.Logger
	observer   Observer
	loginPath  string
}

// Option customises a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithTimeout sets the per-request timeout of the default http.Client.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.httpClient.Timeout = d
		}
	}
}

// WithLogger sets the logger used for transport failures.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithObserver records call outcomes, typically into Prometheus.
func WithObserver(o Observer) Option {
	return func(c *Client) {
		c.observer = o
	}
}

// WithLoginPath overrides the login endpoint path.
func WithLoginPath(path string) Option {
	return func(c *Client) {
		if strings.TrimSpace(path) != "" {
			c.loginPath = path
		}
	}
}

// NewClient constructs a client bound to baseURL.
func NewClient(baseURL string, opts ...Option) (*Client, error) {
	parsed, err := url.Parse(strings.TrimRight(strings.TrimSpace(baseURL), "/"))
	if err != nil {
		return nil, fmt.Errorf("backend: parse base url: %w", err)
	}
	if parsed.Scheme == "" || parsed.Host == "" {
		return nil, fmt.Errorf("backend: base url %q must be absolute", baseURL)
	}
	c := &Client{
		baseURL:    parsed,
		httpClient: &http.Client{Timeout: defaultTimeout},
		logger:     slog.Default(),
		loginPath:  "/admin/login",
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Authed returns a view of the client that sends the bearer token on every
// request. An empty token is passed through; the backend answers 401.
func (c *Client) Authed(token string) *AuthedClient {
	return &AuthedClient{client: c, token: token}
}

// AuthedClient issues authenticated calls for one session.
type AuthedClient struct {
	client *Client
	token  string
}

// Token returns the bound bearer token.
func (a *AuthedClient) Token() string {
	if a == nil {
		return ""
	}
	return a.token
}

type call struct {
	endpoint string
	method   string
	path     string
	query    url.Values
	body     any
	token    string
	auth     bool
}

func (c *Client) do(ctx context.Context, in call, out any) (err error) {
	start := time.Now()
	defer func() {
		if c.observer != nil {
			c.observer.ObserveBackend(in.endpoint, outcomeOf(err), time.Since(start))
		}
	}()

	target := c.baseURL.JoinPath(in.path)
	if len(in.query) > 0 {
		target.RawQuery = in.query.Encode()
	}

	var reader io.Reader
	if in.body != nil {
		payload, err := json.Marshal(in.body)
		if err != nil {
			return fmt.Errorf("backend: encode %s body: %w", in.endpoint, err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, in.method, target.String(), reader)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if in.auth {
		req.Header.Set("Authorization", "Bearer "+in.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("backend request failed", slog.String("endpoint", in.endpoint), slog.Any("error", err))
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		excerpt, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		statusErr := &StatusError{
			StatusCode: resp.StatusCode,
			Method:     in.method,
			Path:       in.path,
			Body:       strings.TrimSpace(string(excerpt)),
		}
		c.logger.Warn("backend returned error status", slog.String("endpoint", in.endpoint), slog.Int("status", resp.StatusCode))
		return statusErr
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	decoder := json.NewDecoder(resp.Body)
	decoder.UseNumber()
	if err := decoder.Decode(out); err != nil {
		return fmt.Errorf("%w: %s %s: %v", ErrMalformedResponse, in.method, in.path, err)
	}
	return nil
}

func outcomeOf(err error) string {
	if err == nil {
		return "ok"
	}
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return strconv.Itoa(statusErr.StatusCode)
	}
	if errors.Is(err, ErrMalformedResponse) {
		return "malformed"
	}
	if errors.Is(err, context.Canceled) {
		return "canceled"
	}
	return "transport"
}

func (a *AuthedClient) get(ctx context.Context, endpoint, path string, query url.Values, out any) error {
	return a.client.do(ctx, call{endpoint: endpoint, method: http.MethodGet, path: path, query: query, token: a.token, auth: true}, out)
}

func (a *AuthedClient) send(ctx context.Context, endpoint, method, path string, body, out any) error {
	return a.client.do(ctx, call{endpoint: endpoint, method: method, path: path, body: body, token: a.token, auth: true}, out)
}

// pageQuery appends page and limit when positive and any non-empty extras.
func pageQuery(page, limit int, extra map[string]string) url.Values {
	q := url.Values{}
	if page > 0 {
		q.Set("page", strconv.Itoa(page))
	}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	for k, v := range extra {
		if strings.TrimSpace(v) == "" {
			continue
		}
		q.Set(k, v)
	}
	return q
}
