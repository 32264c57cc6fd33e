// Package api talks to the storefront's remote REST services: auth,
// products, orders and users. Every call goes through one rate limiter and
// one circuit breaker, and failed calls are never retried.
package api

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
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"github.com/sony/gobreaker/v2"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/time/rate"
)

const maxBodySize = 10 << 20 // 10MB

// TokenSource supplies the bearer token for the current session, or "".
type TokenSource interface {
	Token() string
}

type Recorder interface {
	RecordAPIRequest(service string, status int, d time.Duration)
}

type Config struct {
	BaseURL         string
	RateLimit       float64 // requests per second, 0 disables limiting
	BreakerFailures uint32
	BreakerTimeout  time.Duration
}

type Option func(*Client)

func WithRecorder(r Recorder) Option {
	return func(c *Client) {
		c.recorder = r
	}
}

type Client struct {
	baseURL    *url.URL
	httpClient *http.Client
	tokens     TokenSource
	limiter    *rate.Limiter
	breaker    *gobreaker.CircuitBreaker[*response]
	validate   *validator.Validate
	logger     *slog.Logger
	recorder   Recorder
}

type response struct {
	status int
	body   []byte
}

// NewHTTPClient returns an http.Client whose transport is traced.
func NewHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{
		Timeout:   timeout,
		Transport: otelhttp.NewTransport(http.DefaultTransport),
	}
}

func NewClient(cfg Config, httpClient *http.Client, tokens TokenSource, logger *slog.Logger, opts ...Option) (*Client, error) {
	base, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("base url %q must be absolute", cfg.BaseURL)
	}

	c := &Client{
		baseURL:    base,
		httpClient: httpClient,
		tokens:     tokens,
		validate:   newValidator(),
		logger:     logger,
	}
	if cfg.RateLimit > 0 {
		c.limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), int(cfg.RateLimit)+1)
	}

	failures := cfg.BreakerFailures
	if failures == 0 {
		failures = 5
	}
	c.breaker = gobreaker.NewCircuitBreaker[*response](gobreaker.Settings{
		Name:    "storefront-api",
		Timeout: cfg.BreakerTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= failures
		},
		IsSuccessful: func(err error) bool {
			var apiErr *Error
			if errors.As(err, &apiErr) {
				return !apiErr.Temporary()
			}
			return err == nil || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state changed",
				slog.String("breaker", name),
				slog.String("from", from.String()),
				slog.String("to", to.String()),
			)
		},
	})

	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterCustomTypeFunc(func(field reflect.Value) any {
		if d, ok := field.Interface().(decimal.Decimal); ok {
			f, _ := d.Float64()
			return f
		}
		return nil
	}, decimal.Decimal{})
	return v
}

type call struct {
	service string
	method  string
	path    string
	query   url.Values
	body    any
	header  http.Header
}

// do performs one request and decodes a 2xx body into out. Non-2xx answers
// become *Error; a body that does not decode or validate wraps
// ErrInvalidResponse.
func (c *Client) do(ctx context.Context, cl call, out any) error {
	if cl.body != nil {
		if err := c.check(cl.body); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidRequest, err)
		}
	}

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("rate limit wait: %w", err)
		}
	}

	req, err := c.newRequest(ctx, cl)
	if err != nil {
		return err
	}

	start := time.Now()
	resp, err := c.breaker.Execute(func() (*response, error) {
		return c.send(req, cl.service)
	})
	status := 0
	if resp != nil {
		status = resp.status
	}
	if c.recorder != nil {
		c.recorder.RecordAPIRequest(cl.service, status, time.Since(start))
	}

	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		c.logger.Error("request rejected by circuit breaker",
			slog.String("service", cl.service),
			slog.String("method", cl.method),
			slog.String("path", cl.path),
		)
		return fmt.Errorf("%s: %w", cl.service, ErrCircuitOpen)
	}
	if err != nil {
		c.logger.Error("request failed",
			slog.String("service", cl.service),
			slog.String("method", cl.method),
			slog.String("path", cl.path),
			slog.Int("status", status),
			slog.String("error", err.Error()),
		)
		return err
	}

	if out == nil || len(bytes.TrimSpace(resp.body)) == 0 {
		return nil
	}
	if errUnmarshal := json.Unmarshal(resp.body, out); errUnmarshal != nil {
		return fmt.Errorf("%s: %w: %v", cl.service, ErrInvalidResponse, errUnmarshal)
	}
	if errCheck := c.check(out); errCheck != nil {
		return fmt.Errorf("%s: %w: %v", cl.service, ErrInvalidResponse, errCheck)
	}
	return nil
}

func (c *Client) newRequest(ctx context.Context, cl call) (*http.Request, error) {
	u := c.baseURL.JoinPath(cl.path)
	if len(cl.query) > 0 {
		u.RawQuery = cl.query.Encode()
	}

	var body io.Reader
	if cl.body != nil {
		b, err := json.Marshal(cl.body)
		if err != nil {
			return nil, fmt.Errorf("marshal request failed: %w", err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, cl.method, u.String(), body)
	if err != nil {
		return nil, fmt.Errorf("create request failed: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.tokens != nil {
		if token := c.tokens.Token(); token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}
	for k, vs := range cl.header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	return req, nil
}

func (c *Client) send(req *http.Request, service string) (*response, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s request failed: %w", service, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return &response{status: resp.StatusCode}, fmt.Errorf("read %s response failed: %w", service, err)
	}

	r := &response{status: resp.StatusCode, body: body}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return r, &Error{
			Service: service,
			Status:  resp.StatusCode,
			Message: errorMessage(resp.StatusCode, body),
		}
	}
	return r, nil
}

// errorMessage pulls the human-readable reason out of an error body. The
// services answer with {"message": ...}, {"error": ...} or plain text.
func errorMessage(status int, body []byte) string {
	var payload struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err == nil {
		if payload.Message != "" {
			return payload.Message
		}
		if payload.Error != "" {
			return payload.Error
		}
	}
	if text := strings.TrimSpace(string(body)); text != "" && !strings.HasPrefix(text, "{") && len(text) < 512 {
		return text
	}
	return http.StatusText(status)
}

// check validates structs and slices of structs against their tags.
func (c *Client) check(v any) error {
	rv := reflect.Indirect(reflect.ValueOf(v))
	switch rv.Kind() {
	case reflect.Struct:
		return c.validate.Struct(rv.Interface())
	case reflect.Slice:
		return c.validate.Var(rv.Interface(), "dive")
	default:
		return nil
	}
}
