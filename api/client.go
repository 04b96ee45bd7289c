// Package api is the HTTP client for the activity sign-up service.
package api

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

// TokenHeader carries the admin token on privileged requests.
const TokenHeader = "X-Admin-Token"

const tracerName = "github.com/jmcleod/clubdesk/api"

// maxBodyBytes caps how much of a response body is read.
const maxBodyBytes = 1 << 20

// OpenAPISpec describes the remote contract this client consumes.
//
//go:embed openapi.yaml
var OpenAPISpec []byte

// Client calls the remote activity service.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
	tracer     trace.Tracer
}

// Option configures the Client instance.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithTimeout sets the per-request timeout. A client supplied with
// WithHTTPClient is copied, not modified.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		hc := *c.httpClient
		hc.Timeout = d
		c.httpClient = &hc
	}
}

// WithLogger sets the structured logger for request tracing.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithTracerProvider sets the OpenTelemetry provider used for request spans.
// If not set, the global provider is used.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(c *Client) {
		c.tracer = tp.Tracer(tracerName)
	}
}

// New creates a Client for the service rooted at baseURL.
func New(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parsing server url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("server url %q: scheme must be http or https", baseURL)
	}
	c := &Client{
		baseURL:    strings.TrimRight(u.String(), "/"),
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	if c.tracer == nil {
		c.tracer = otel.Tracer(tracerName)
	}
	return c, nil
}

// BaseURL returns the service root the client talks to.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Activities fetches the full roster.
func (c *Client) Activities(ctx context.Context) (Roster, error) {
	var roster Roster
	if err := c.do(ctx, request{method: http.MethodGet, path: "/activities", out: &roster}); err != nil {
		return nil, err
	}
	return roster, nil
}

// Login exchanges credentials for a new admin token.
func (c *Client) Login(ctx context.Context, username, password string) (LoginResponse, error) {
	var resp LoginResponse
	err := c.do(ctx, request{
		method: http.MethodPost,
		path:   "/admin/login",
		in:     LoginRequest{Username: username, Password: password},
		out:    &resp,
	})
	return resp, err
}

// Verify asks the service whether token is still valid and returns the
// canonical username bound to it.
func (c *Client) Verify(ctx context.Context, token string) (VerifyResponse, error) {
	var resp VerifyResponse
	err := c.do(ctx, request{method: http.MethodGet, path: "/admin/verify", privileged: true, token: token, out: &resp})
	return resp, err
}

// Logout tells the service to drop token. The response body is ignored;
// only failures to reach the service are returned.
func (c *Client) Logout(ctx context.Context, token string) error {
	return c.do(ctx, request{method: http.MethodPost, path: "/admin/logout", privileged: true, token: token})
}

// Signup registers email for the named activity.
func (c *Client) Signup(ctx context.Context, token, activity, email string) (MessageResponse, error) {
	var resp MessageResponse
	err := c.do(ctx, request{
		method:     http.MethodPost,
		path:       activityPath(activity, "signup"),
		route:      "/activities/{activity_name}/signup",
		query:      url.Values{"email": {email}},
		privileged: true,
		token:      token,
		out:        &resp,
	})
	return resp, err
}

// Unregister removes email from the named activity.
func (c *Client) Unregister(ctx context.Context, token, activity, email string) (MessageResponse, error) {
	var resp MessageResponse
	err := c.do(ctx, request{
		method:     http.MethodDelete,
		path:       activityPath(activity, "unregister"),
		route:      "/activities/{activity_name}/unregister",
		query:      url.Values{"email": {email}},
		privileged: true,
		token:      token,
		out:        &resp,
	})
	return resp, err
}

func activityPath(activity, action string) string {
	return "/activities/" + url.PathEscape(activity) + "/" + action
}

type request struct {
	method string
	path   string
	// route names the span when path carries user input.
	route string
	query url.Values
	// privileged requests always carry TokenHeader, even when token is empty.
	privileged bool
	token      string
	in         any
	// out == nil means the body is not inspected and only transport
	// failures are reported.
	out any
}

func (c *Client) do(ctx context.Context, r request) error {
	route := r.route
	if route == "" {
		route = r.path
	}
	ctx, span := c.tracer.Start(ctx, r.method+" "+route, trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()

	err := c.roundTrip(ctx, span, r)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return err
}

func (c *Client) roundTrip(ctx context.Context, span trace.Span, r request) error {
	var body io.Reader
	if r.in != nil {
		data, err := json.Marshal(r.in)
		if err != nil {
			return fmt.Errorf("encoding request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	target := c.baseURL + r.path
	if len(r.query) > 0 {
		target += "?" + r.query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, r.method, target, body)
	if err != nil {
		return fmt.Errorf("%w: building request: %w", ErrTransport, err)
	}
	if r.in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	if r.privileged {
		req.Header.Set(TokenHeader, r.token)
	}
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(req.Header))

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %s %s: %w", ErrTransport, r.method, r.path, err)
	}
	defer resp.Body.Close()

	span.SetAttributes(attribute.Int("http.response.status_code", resp.StatusCode))
	c.logger.Debug("remote call", "method", r.method, "path", r.path, "status", resp.StatusCode, "elapsed", time.Since(start))

	if r.out == nil {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodyBytes))
		return nil
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return fmt.Errorf("%w: reading %s %s response: %w", ErrTransport, r.method, r.path, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var errResp ErrorResponse
		if err := json.Unmarshal(data, &errResp); err != nil {
			return fmt.Errorf("%w: decoding %s %s error body (status %d): %w", ErrTransport, r.method, r.path, resp.StatusCode, err)
		}
		return &Error{Status: resp.StatusCode, Detail: errResp.DetailString()}
	}

	if err := json.Unmarshal(data, r.out); err != nil {
		return fmt.Errorf("%w: decoding %s %s response: %w", ErrTransport, r.method, r.path, err)
	}
	return nil
}
