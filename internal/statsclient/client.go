// Package statsclient talks to the stats service: a synchronous client for
// view queries and an asynchronous recorder for hits.
package statsclient

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

	"github.com/prometheus/client_golang/prometheus"

	"github.com/Shivanand-hulikatti/event-participation/internal/metrics"
	"github.com/Shivanand-hulikatti/event-participation/internal/model"
)

// ErrCircuitOpen is returned without a network call while the breaker is open.
var ErrCircuitOpen = errors.New("stats service circuit open")

// Client calls the stats service over HTTP.
type Client struct {
	baseURL string
	http    *http.Client
	timeout time.Duration
	breaker *CircuitBreaker
	metrics *metrics.Metrics
	logger  *slog.Logger
}

type Option func(c *Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.http = hc
	}
}

// WithTimeout bounds each call.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.timeout = d
	}
}

func WithBreaker(b *CircuitBreaker) Option {
	return func(c *Client) {
		c.breaker = b
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Client) {
		c.metrics = m
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// New builds a client for the stats service at baseURL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    http.DefaultClient,
		timeout: 2 * time.Second,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.metrics == nil {
		c.metrics = metrics.New(prometheus.NewRegistry())
	}
	if c.breaker == nil {
		c.breaker = NewCircuitBreaker(5, 30*time.Second)
	}
	c.breaker.onChange = c.metrics.SetBreakerState
	return c
}

// Hit posts one hit to /hit.
func (c *Client) Hit(ctx context.Context, h model.HitCreate) error {
	body, err := json.Marshal(h)
	if err != nil {
		return fmt.Errorf("encode hit: %w", err)
	}
	return c.do(ctx, http.MethodPost, c.baseURL+"/hit", bytes.NewReader(body), http.StatusCreated, nil)
}

// Views queries /stats.
func (c *Client) Views(ctx context.Context, q model.ViewQuery) ([]model.ViewStats, error) {
	params := url.Values{}
	params.Set("start", model.FormatDateTime(q.Start))
	params.Set("end", model.FormatDateTime(q.End))
	for _, uri := range q.URIs {
		params.Add("uris", uri)
	}
	params.Set("unique", strconv.FormatBool(q.Unique))

	var out []model.ViewStats
	if err := c.do(ctx, http.MethodGet, c.baseURL+"/stats?"+params.Encode(), nil, http.StatusOK, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) do(ctx context.Context, method, target string, body io.Reader, want int, out any) error {
	if !c.breaker.Allow() {
		return ErrCircuitOpen
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	err := c.roundTrip(ctx, method, target, body, want, out)
	if err != nil && serviceFault(err) {
		c.breaker.RecordFailure()
		return err
	}
	// a 4xx reply means the service is up and refused this call
	c.breaker.RecordSuccess()
	return err
}

// StatusError is a reply with an unexpected status code.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("stats service returned %d %s: %s", e.Code, http.StatusText(e.Code), e.Body)
}

// serviceFault reports whether err counts against the stats service:
// transport failures, timeouts and 5xx replies. Client errors do not.
func serviceFault(err error) bool {
	var se *StatusError
	if errors.As(err, &se) {
		return se.Code >= http.StatusInternalServerError
	}
	return true
}

func (c *Client) roundTrip(ctx context.Context, method, target string, body io.Reader, want int, out any) error {
	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return fmt.Errorf("build stats request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("stats request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != want {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &StatusError{Code: resp.StatusCode, Body: string(bytes.TrimSpace(msg))}
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode stats response: %w", err)
	}
	return nil
}
