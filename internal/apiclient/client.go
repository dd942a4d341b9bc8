// Package apiclient is the request wrapper every gateway call to the upstream
// REST backend goes through.
package apiclient

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync/atomic"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
	"minishop-gateway/internal/domain"
)

var (
	// ErrNoData is returned by Decode when the response body was not JSON.
	ErrNoData = errors.New("response carried no JSON data")
	// ErrUnavailable wraps transport failures: the backend never answered.
	ErrUnavailable = errors.New("upstream unavailable")
)

// Auth is the session surface the client needs: read the token, and log out on 401.
type Auth interface {
	Token() string
	Logout()
}

// Response is the normalized result of a request. Non-2xx statuses are not errors.
type Response struct {
	OK     bool            `json:"ok"`
	Status int             `json:"status"`
	Data   json.RawMessage `json:"data"`
}

// Decode unmarshals Data into v.
func (r Response) Decode(v any) error {
	if len(r.Data) == 0 {
		return ErrNoData
	}
	return json.Unmarshal(r.Data, v)
}

// Message returns the human-readable error carried by the body, or fallback.
func Message(r Response, fallback string) string {
	var body struct {
		Error   any    `json:"error"`
		Message string `json:"message"`
	}
	if err := r.Decode(&body); err == nil {
		if s, ok := body.Error.(string); ok && strings.TrimSpace(s) != "" {
			return s
		}
		if strings.TrimSpace(body.Message) != "" {
			return body.Message
		}
	}
	return fallback
}

// AsError converts a failed response into a *domain.RequestError.
func AsError(r Response, fallback string) error {
	return &domain.RequestError{Status: r.Status, Message: Message(r, fallback)}
}

// Multipart is a pre-encoded form body sent as-is.
type Multipart struct {
	Body        io.Reader
	ContentType string
}

// Client calls the upstream backend with the session's bearer token.
type Client struct {
	baseURL    string
	httpClient *http.Client
	auth       Auth
	logger     *zap.Logger
	inflight   *atomic.Int64
	flights    *flightGroup
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the traced default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// New builds a client. auth may be nil for anonymous storefront calls.
func New(baseURL string, auth Auth, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport)},
		auth:       auth,
		logger:     zap.NewNop(),
		inflight:   &atomic.Int64{},
		flights:    newFlightGroup(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// WithAuth returns a client bound to another session. The copy shares the
// transport, the in-flight counter and the de-duplication table.
func (c *Client) WithAuth(auth Auth) *Client {
	cp := *c
	cp.auth = auth
	return &cp
}

// InFlight is the number of outstanding requests.
func (c *Client) InFlight() int64 {
	return c.inflight.Load()
}

// Loading reports whether any request is outstanding.
func (c *Client) Loading() bool {
	return c.InFlight() > 0
}

// RequestWithMeta performs one request. Transport failures are returned as
// errors; HTTP failures are returned in the Response. A 401 logs the session out.
func (c *Client) RequestWithMeta(ctx context.Context, path, method string, body any, headers http.Header) (Response, error) {
	c.inflight.Add(1)
	defer c.inflight.Add(-1)

	if method == "" {
		method = http.MethodGet
	}
	hdr := http.Header{}
	for k, v := range headers {
		hdr[k] = append([]string(nil), v...)
	}

	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case *Multipart:
		if b != nil {
			reader = b.Body
			hdr.Set("Content-Type", b.ContentType)
		}
	default:
		payload, err := json.Marshal(b)
		if err != nil {
			return Response{}, fmt.Errorf("encode body: %w", err)
		}
		reader = bytes.NewReader(payload)
		hdr.Set("Content-Type", "application/json")
	}
	if c.auth != nil {
		if token := c.auth.Token(); token != "" {
			hdr.Set("Authorization", "Bearer "+token)
		}
	}
	if hdr.Get("Accept") == "" {
		hdr.Set("Accept", "application/json")
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return Response{}, err
	}
	req.Header = hdr

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn("upstream request failed", zap.String("method", method), zap.String("path", path), zap.Error(err))
		return Response{}, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	out := Response{
		OK:     resp.StatusCode >= 200 && resp.StatusCode < 300,
		Status: resp.StatusCode,
	}
	raw, err := io.ReadAll(resp.Body)
	if err == nil && json.Valid(raw) {
		out.Data = json.RawMessage(raw)
	}

	if !out.OK {
		c.logger.Info("upstream request not ok",
			zap.String("method", method),
			zap.String("path", path),
			zap.Int("status", out.Status),
		)
		if out.Status == http.StatusUnauthorized && c.auth != nil {
			c.auth.Logout()
		}
	}
	return out, nil
}

// Fetch issues a GET for resource with params. Concurrent fetches of the same
// (resource, params) under the same session share one round-trip.
func (c *Client) Fetch(ctx context.Context, resource string, params url.Values) (Response, error) {
	path := resource
	if encoded := params.Encode(); encoded != "" {
		path += "?" + encoded
	}
	resp, err := c.flights.do(ctx, c.cacheKey(resource, params), func(ctx context.Context) (Response, error) {
		return c.RequestWithMeta(ctx, path, http.MethodGet, nil, nil)
	})
	if err == nil && resp.Status == http.StatusUnauthorized && c.auth != nil && c.auth.Token() != "" {
		// the shared call may have run under another session holding the same token
		c.auth.Logout()
	}
	return resp, err
}

// Forget drops an in-flight entry so the next Fetch starts a new request.
func (c *Client) Forget(resource string, params url.Values) {
	c.flights.forget(c.cacheKey(resource, params))
}

func (c *Client) cacheKey(resource string, params url.Values) string {
	owner := "anon"
	if c.auth != nil {
		if token := c.auth.Token(); token != "" {
			sum := sha256.Sum256([]byte(token))
			owner = hex.EncodeToString(sum[:8])
		}
	}
	return owner + " " + resource + "?" + params.Encode()
}
