// Package backend issues JSON and multipart requests against the storefront
// REST backend. It attaches the bearer token, correlation id and trace
// context, and maps non-2xx responses onto *errors.AppError.
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
	"strings"

	"github.com/google/uuid"

	apperrors "github.com/utafrali/storefront/pkg/errors"
	"github.com/utafrali/storefront/pkg/httpclient"
	"github.com/utafrali/storefront/pkg/logger"
	"github.com/utafrali/storefront/pkg/tracing"
)

// CorrelationIDHeader carries the per-call correlation id.
const CorrelationIDHeader = "X-Correlation-ID"

// ErrNotSignedIn is returned for privileged calls attempted without a token.
var ErrNotSignedIn = errors.New("not signed in")

// TokenSource supplies the bearer token for privileged calls.
type TokenSource interface {
	Token() string
}

// UnauthorizedFunc is invoked when a privileged call is rejected with 401.
// token is the bearer the rejected request carried.
type UnauthorizedFunc func(ctx context.Context, token string)

// Request describes one backend call.
type Request struct {
	Method string
	Path   string
	Query  url.Values

	// Body is JSON-encoded when non-nil. Ignored when Multipart is set.
	Body      any
	Multipart *Multipart

	// Auth attaches the bearer token and treats 401 as session expiry.
	Auth bool

	// Bearer sends an explicit token instead of the session's. A 401 does
	// not run the unauthorized hook.
	Bearer string
}

// Client is a thin JSON client over an httpclient.Doer.
type Client struct {
	base           *url.URL
	doer           httpclient.Doer
	tokens         TokenSource
	onUnauthorized UnauthorizedFunc
	logger         *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithTokenSource sets the source of bearer tokens.
func WithTokenSource(ts TokenSource) Option {
	return func(c *Client) { c.tokens = ts }
}

// WithUnauthorizedHandler sets the hook run on 401 from a privileged call.
func WithUnauthorizedHandler(fn UnauthorizedFunc) Option {
	return func(c *Client) { c.onUnauthorized = fn }
}

// New creates a client rooted at baseURL.
func New(baseURL string, doer httpclient.Doer, log *slog.Logger, opts ...Option) (*Client, error) {
	base, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse backend url: %w", err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("backend url %q must be absolute", baseURL)
	}

	c := &Client{base: base, doer: doer, logger: log}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// WithDoer returns a copy of c that sends through doer. Token source and
// unauthorized hook are shared.
func (c *Client) WithDoer(doer httpclient.Doer) *Client {
	clone := *c
	clone.doer = doer
	return &clone
}

// SetTokenSource replaces the source of bearer tokens. Copies made earlier
// by WithDoer keep the previous source.
func (c *Client) SetTokenSource(ts TokenSource) {
	c.tokens = ts
}

// SetUnauthorizedHandler replaces the 401 hook.
func (c *Client) SetUnauthorizedHandler(fn UnauthorizedFunc) {
	c.onUnauthorized = fn
}

// BaseURL returns the backend root.
func (c *Client) BaseURL() string {
	return c.base.String()
}

// Do sends r and decodes a 2xx body into out when out is non-nil. It returns
// the response status alongside any error.
func (c *Client) Do(ctx context.Context, r Request, out any) (int, error) {
	req, err := c.newRequest(ctx, r)
	if err != nil {
		return 0, err
	}

	corrID := logger.CorrelationIDFromContext(ctx)
	if corrID == "" {
		corrID = uuid.New().String()
		ctx = logger.WithCorrelationID(ctx, corrID)
	}
	req.Header.Set(CorrelationIDHeader, corrID)

	ctx, span := tracing.StartClientSpan(ctx, req, r.Method+" "+r.Path)
	log := logger.WithContext(ctx, c.logger)

	resp, err := c.doer.Do(ctx, req)
	if err != nil {
		tracing.EndSpan(span, 0, err)
		log.WarnContext(ctx, "backend request failed",
			slog.String("method", r.Method),
			slog.String("path", r.Path),
			slog.String("error", err.Error()),
		)
		return 0, fmt.Errorf("%s %s: %w", r.Method, r.Path, err)
	}
	tracing.EndSpan(span, resp.StatusCode, nil)

	log.DebugContext(ctx, "backend request",
		slog.String("method", r.Method),
		slog.String("path", r.Path),
		slog.Int("status", resp.StatusCode),
	)

	if !httpclient.IsSuccess(resp.StatusCode) {
		appErr := httpclient.ParseResponseError(resp)
		if r.Auth && resp.StatusCode == http.StatusUnauthorized && c.onUnauthorized != nil {
			log.InfoContext(ctx, "privileged call rejected, expiring session", slog.String("path", r.Path))
			c.onUnauthorized(ctx, strings.TrimPrefix(req.Header.Get("Authorization"), "Bearer "))
		}
		return resp.StatusCode, appErr
	}

	defer func() { _ = resp.Body.Close() }()
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return resp.StatusCode, nil
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, fmt.Errorf("read %s response: %w", r.Path, err)
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return resp.StatusCode, nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return resp.StatusCode, fmt.Errorf("decode %s response: %w", r.Path, err)
	}
	return resp.StatusCode, nil
}

// Get issues a public GET.
func (c *Client) Get(ctx context.Context, path string, query url.Values, out any) error {
	_, err := c.Do(ctx, Request{Method: http.MethodGet, Path: path, Query: query}, out)
	return err
}

func (c *Client) newRequest(ctx context.Context, r Request) (*http.Request, error) {
	u := c.base.JoinPath(r.Path)
	if len(r.Query) > 0 {
		u.RawQuery = r.Query.Encode()
	}

	var body io.Reader
	contentType := ""
	switch {
	case r.Multipart != nil:
		buf, ct, err := r.Multipart.encode()
		if err != nil {
			return nil, fmt.Errorf("encode multipart body: %w", err)
		}
		body, contentType = buf, ct
	case r.Body != nil:
		b, err := json.Marshal(r.Body)
		if err != nil {
			return nil, fmt.Errorf("encode request body: %w", err)
		}
		body, contentType = bytes.NewReader(b), "application/json"
	}

	req, err := http.NewRequestWithContext(ctx, r.Method, u.String(), body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	if r.Bearer != "" {
		req.Header.Set("Authorization", "Bearer "+r.Bearer)
	} else if r.Auth {
		if c.tokens == nil || c.tokens.Token() == "" {
			return nil, &apperrors.AppError{
				Code:    "UNAUTHORIZED",
				Message: "not signed in",
				Status:  http.StatusUnauthorized,
				Err:     fmt.Errorf("%w: %w", ErrNotSignedIn, apperrors.ErrUnauthorized),
			}
		}
		req.Header.Set("Authorization", "Bearer "+c.tokens.Token())
	}
	return req, nil
}

