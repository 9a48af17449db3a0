// Package llm is the generation client: an ordered list of
// text-completion backends with liveness filtering, per-backend
// reduced-budget retry, and failover.
package llm

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"
)

type Message struct {
	Role    string
	Content string
}

// Request is one completion call. Zero Temperature is meaningful (greedy
// decoding for classifier and guard calls), so callers set every field
// explicitly.
type Request struct {
	System      string
	History     []Message
	User        string
	Temperature float64
	TopP        float64
	MaxTokens   int
	Timeout     time.Duration
}

// Backend is a single text-completion provider.
type Backend interface {
	Name() string
	// Alive is a cheap reachability probe; backends that cannot be probed
	// cheaply may report their configuration state instead.
	Alive(ctx context.Context) bool
	Complete(ctx context.Context, req Request) (string, error)
}

// Attempt records one failed backend call for error reporting.
type Attempt struct {
	Backend string
	Err     error
}

// BackendsError is returned when every candidate backend failed or was
// skipped; it names each one so the operator can see why.
type BackendsError struct {
	Attempts []Attempt
}

func (e *BackendsError) Error() string {
	if len(e.Attempts) == 0 {
		return "no generation backends available"
	}
	parts := make([]string, 0, len(e.Attempts))
	for _, a := range e.Attempts {
		parts = append(parts, fmt.Sprintf("%s: %v", a.Backend, a.Err))
	}
	return "all generation backends failed: " + strings.Join(parts, "; ")
}

type ClientConfig struct {
	// Backends in preference order. Nil entries are allowed and skipped,
	// so callers can pass optional backends unconditionally.
	Backends []Backend

	// MaxTokensCap bounds any per-request token budget.
	MaxTokensCap int

	// DefaultTimeout applies when a request carries none.
	DefaultTimeout time.Duration

	// ReplyCharLimit truncates raw completions before post-processing.
	ReplyCharLimit int

	Logger *slog.Logger
}

type Client struct {
	backends       []Backend
	maxTokensCap   int
	defaultTimeout time.Duration
	replyCharLimit int
	log            *slog.Logger
}

func NewClient(cfg ClientConfig) *Client {
	backends := make([]Backend, 0, len(cfg.Backends))
	for _, b := range cfg.Backends {
		if b != nil {
			backends = append(backends, b)
		}
	}
	if cfg.MaxTokensCap <= 0 {
		cfg.MaxTokensCap = 360
	}
	if cfg.DefaultTimeout <= 0 {
		cfg.DefaultTimeout = 45 * time.Second
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Client{
		backends:       backends,
		maxTokensCap:   cfg.MaxTokensCap,
		defaultTimeout: cfg.DefaultTimeout,
		replyCharLimit: cfg.ReplyCharLimit,
		log:            cfg.Logger,
	}
}

// Reachability probes every configured backend. Used by the health
// endpoint.
func (c *Client) Reachability(ctx context.Context) map[string]bool {
	out := make(map[string]bool, len(c.backends))
	for _, b := range c.backends {
		out[b.Name()] = b.Alive(ctx)
	}
	return out
}

// Complete runs the request against the first live backend, with one
// reduced-budget retry per backend before moving on.
func (c *Client) Complete(ctx context.Context, req Request) (string, error) {
	req = c.bound(req)

	var attempts []Attempt
	for _, backend := range c.backends {
		if !backend.Alive(ctx) {
			attempts = append(attempts, Attempt{Backend: backend.Name(), Err: fmt.Errorf("backend not reachable")})
			continue
		}

		text, err := c.callOnce(ctx, backend, req)
		if err == nil {
			return c.truncate(text), nil
		}
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		c.log.Warn("backend call failed, retrying with reduced budget",
			"backend", backend.Name(), "error", err)

		text, retryErr := c.callOnce(ctx, backend, reduceBudget(req))
		if retryErr == nil {
			return c.truncate(text), nil
		}
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		attempts = append(attempts, Attempt{Backend: backend.Name(), Err: fmt.Errorf("%v (retry: %v)", err, retryErr)})
	}

	return "", &BackendsError{Attempts: attempts}
}

func (c *Client) callOnce(ctx context.Context, backend Backend, req Request) (string, error) {
	callCtx, cancel := context.WithTimeout(ctx, req.Timeout)
	defer cancel()

	text, err := backend.Complete(callCtx, req)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("empty completion from %s", backend.Name())
	}
	return text, nil
}

func (c *Client) bound(req Request) Request {
	if req.MaxTokens <= 0 || req.MaxTokens > c.maxTokensCap {
		req.MaxTokens = c.maxTokensCap
	}
	if req.Timeout <= 0 {
		req.Timeout = c.defaultTimeout
	}
	if req.TopP <= 0 || req.TopP > 1 {
		req.TopP = 1
	}
	return req
}

func (c *Client) truncate(text string) string {
	if c.replyCharLimit <= 0 {
		return text
	}
	runes := []rune(text)
	if len(runes) <= c.replyCharLimit {
		return text
	}
	return string(runes[:c.replyCharLimit])
}

func reduceBudget(req Request) Request {
	req.MaxTokens = req.MaxTokens * 3 / 5
	if req.MaxTokens < 64 {
		req.MaxTokens = 64
	}
	req.Timeout = req.Timeout / 2
	if req.Timeout < time.Second {
		req.Timeout = time.Second
	}
	return req
}
