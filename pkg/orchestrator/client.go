package orchestrator

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/aretw0/deckwright/internal/logging"
	"github.com/aretw0/deckwright/pkg/retry"
	"github.com/go-resty/resty/v2"
)

// Outcome labels reported to an Observer.
const (
	OutcomeOK           = "ok"
	OutcomeServiceError = "service_error"
	OutcomeNetworkError = "network_error"
	OutcomeDecodeError  = "decode_error"
)

// Observer is notified once per logical call.
type Observer func(op, outcome string)

// Response is a raw HTTP exchange relayed verbatim from the winning candidate.
type Response struct {
	BaseURL    string
	StatusCode int
	Header     http.Header
	Body       []byte
}

// OK reports a 2xx status.
func (r *Response) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// Client implements the typed orchestration API.
type Client struct {
	http       *resty.Client
	candidates []string
	policy     retry.Policy
	logger     *slog.Logger
	observer   Observer
}

// Option configures the Client.
type Option func(*Client)

// WithCandidates sets the ordered base URL list (see Candidates).
func WithCandidates(urls ...string) Option {
	return func(c *Client) {
		c.candidates = Candidates("", "", urls)
	}
}

// WithRetryPolicy overrides attempts and backoff. Retryability is always transport-only.
func WithRetryPolicy(p retry.Policy) Option {
	return func(c *Client) {
		c.policy = p
	}
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.http.SetTimeout(d)
	}
}

// WithLogger configures the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithObserver registers a per-call outcome callback (metrics).
func WithObserver(o Observer) Option {
	return func(c *Client) {
		c.observer = o
	}
}

// NewClient creates a Resty-backed client. Without WithCandidates only the
// default fallbacks are tried.
func NewClient(opts ...Option) *Client {
	c := &Client{
		http: resty.New().
			SetHeader("Accept", "application/json").
			SetTimeout(120 * time.Second),
		candidates: Candidates("", "", DefaultFallbacks),
		policy:     retry.DefaultPolicy(),
		logger:     logging.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.policy.Retryable = IsTransport
	return c
}

// BaseURLs returns the resolved candidate list.
func (c *Client) BaseURLs() []string {
	return append([]string(nil), c.candidates...)
}

// Relay performs a raw call and returns the winning candidate's response
// whatever its status. Only transport failures are retried.
func (c *Client) Relay(ctx context.Context, method, path string, body []byte, header http.Header) (*Response, error) {
	resp, err := c.do(ctx, "relay", method, path, body, header)
	c.observe("relay", err, resp)
	return resp, err
}

func (c *Client) do(ctx context.Context, op, method, path string, body []byte, header http.Header) (*Response, error) {
	var stages []Stage

	return retry.Do(ctx, c.policy, func(ctx context.Context, attempt int) (*Response, error) {
		for _, base := range c.candidates {
			req := c.http.R().SetContext(ctx)
			for k, vs := range header {
				for _, v := range vs {
					req.Header.Add(k, v)
				}
			}
			if body != nil {
				req.SetHeader("Content-Type", "application/json").SetBody(body)
			}

			res, err := req.Execute(method, base+path)
			if err != nil {
				if ctx.Err() != nil {
					return nil, ctx.Err()
				}
				c.logger.Debug("Candidate transport failure",
					"op", op,
					"base_url", base,
					"attempt", attempt,
					"err", err,
				)
				stages = append(stages, Stage{Attempt: attempt, BaseURL: base, Err: err})
				continue
			}

			// Transport completed: this candidate is authoritative.
			return &Response{
				BaseURL:    base,
				StatusCode: res.StatusCode(),
				Header:     res.Header(),
				Body:       res.Body(),
			}, nil
		}

		netErr := &NetworkError{Op: op, Stages: append([]Stage(nil), stages...)}
		c.logger.Warn("No orchestrator candidate reachable", "op", op, "attempt", attempt, "candidates", len(c.candidates))
		return nil, netErr
	})
}

// call runs a typed JSON request/response exchange.
func call[Resp any](ctx context.Context, c *Client, op, method, path string, in any) (*Resp, error) {
	var body []byte
	if in != nil {
		var err error
		if body, err = json.Marshal(in); err != nil {
			return nil, fmt.Errorf("%s: failed to encode request: %w", op, err)
		}
	}

	raw, err := c.do(ctx, op, method, path, body, nil)
	if err != nil {
		c.observe(op, err, nil)
		return nil, err
	}
	if !raw.OK() {
		c.observe(op, nil, raw)
		return nil, &ServiceError{Op: op, BaseURL: raw.BaseURL, StatusCode: raw.StatusCode, Body: raw.Body}
	}

	var out Resp
	if len(bytes.TrimSpace(raw.Body)) > 0 {
		if err := json.Unmarshal(raw.Body, &out); err != nil {
			c.notify(op, OutcomeDecodeError)
			return nil, fmt.Errorf("%s: failed to decode response: %w", op, err)
		}
	}
	c.notify(op, OutcomeOK)
	return &out, nil
}

func (c *Client) observe(op string, err error, resp *Response) {
	switch {
	case err != nil && IsTransport(err):
		c.notify(op, OutcomeNetworkError)
	case err != nil:
		// cancelled; not a service outcome
	case resp != nil && !resp.OK():
		c.notify(op, OutcomeServiceError)
	default:
		c.notify(op, OutcomeOK)
	}
}

func (c *Client) notify(op, outcome string) {
	if c.observer != nil {
		c.observer(op, outcome)
	}
}
