package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// ClientConfig configures the retry loop around a Provider.
type ClientConfig struct {
	// ProviderName is reported in errors and metadata ("gemini", "openai", ...).
	ProviderName string

	// System is the system prompt sent with Invoke.
	System string

	// Params are the default generation parameters for Invoke.
	Params GenerationParams

	MaxAttempts int
	BaseDelay   time.Duration
	MaxWait     time.Duration

	// AttemptTimeout bounds a single upstream call, not the whole loop.
	AttemptTimeout time.Duration

	// RequestsPerMinute caps calls in any sliding one-minute window. Zero or
	// less disables the cap.
	RequestsPerMinute int
}

// Result is a successful model call.
type Result struct {
	Text     string
	Model    string
	Usage    Usage
	Attempts int
}

// Client adapts a Provider for the generation pipeline: it waits for room
// under the per-minute ceiling, bounds each attempt with a timeout and retries retryable
// failures with exponential backoff.
type Client struct {
	provider Provider
	cfg      ClientConfig
	limiter  *windowLimiter
	sleep    func(ctx context.Context, d time.Duration) error
	log      logrus.FieldLogger
}

// ClientOption customizes a Client.
type ClientOption func(*Client)

// WithSleep replaces the backoff sleep. Tests use it to record delays.
func WithSleep(fn func(ctx context.Context, d time.Duration) error) ClientOption {
	return func(c *Client) { c.sleep = fn }
}

// WithClientLogger sets the logger used for retry diagnostics.
func WithClientLogger(log logrus.FieldLogger) ClientOption {
	return func(c *Client) {
		if log != nil {
			c.log = log
		}
	}
}

// NewClient wraps p with the retry loop described by cfg.
func NewClient(p Provider, cfg ClientConfig, opts ...ClientOption) *Client {
	if cfg.MaxAttempts < 1 {
		cfg.MaxAttempts = 1
	}

	c := &Client{
		provider: p,
		cfg:      cfg,
		limiter:  newWindowLimiter(cfg.RequestsPerMinute, time.Minute),
		sleep:    sleepContext,
		log:      logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ModelID returns the configured model identifier.
func (c *Client) ModelID() string {
	return c.provider.ModelID()
}

// ProviderName returns the configured provider name.
func (c *Client) ProviderName() string {
	return c.cfg.ProviderName
}

// Invoke sends prompt as a single user message with the default system
// prompt and generation parameters.
func (c *Client) Invoke(ctx context.Context, prompt string) (*Result, error) {
	return c.Do(ctx, UserRequest(c.cfg.System, prompt, c.cfg.Params))
}

// Do runs req through the rate limiter and the retry loop. Failures are
// returned as *InvokeError carrying the number of attempts made.
func (c *Client) Do(ctx context.Context, req Request) (*Result, error) {
	var lastErr error

	for attempt := 1; attempt <= c.cfg.MaxAttempts; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, &InvokeError{Attempts: attempt - 1, Err: fmt.Errorf("rate limiter: %w", err)}
		}

		resp, err := c.attempt(ctx, req)
		if err == nil {
			return &Result{
				Text:     resp.Text,
				Model:    resp.Model,
				Usage:    resp.Usage,
				Attempts: attempt,
			}, nil
		}
		lastErr = err

		log := c.log.WithError(err).WithFields(logrus.Fields{
			"provider": c.cfg.ProviderName,
			"attempt":  attempt,
			"purpose":  PurposeFrom(ctx),
		})

		if ctx.Err() != nil || Classify(err) == Terminal {
			log.Warn("model call failed, not retrying")
			return nil, &InvokeError{Attempts: attempt, Err: err}
		}
		if attempt == c.cfg.MaxAttempts {
			break
		}

		wait := retryWait(err, c.cfg.BaseDelay, c.cfg.MaxWait, attempt)
		log.WithField("wait", wait).Info("model call failed, retrying")
		if err := c.sleep(ctx, wait); err != nil {
			return nil, &InvokeError{Attempts: attempt, Err: err}
		}
	}

	return nil, &InvokeError{Attempts: c.cfg.MaxAttempts, Exhausted: true, Err: lastErr}
}

type attemptResult struct {
	resp *Response
	err  error
}

// attempt makes one upstream call bounded by AttemptTimeout. A provider that
// ignores its context is abandoned when the deadline passes.
func (c *Client) attempt(ctx context.Context, req Request) (*Response, error) {
	actx := ctx
	cancel := context.CancelFunc(func() {})
	if c.cfg.AttemptTimeout > 0 {
		actx, cancel = context.WithTimeout(ctx, c.cfg.AttemptTimeout)
	}
	defer cancel()

	done := make(chan attemptResult, 1)
	go func() {
		resp, err := c.provider.Generate(actx, req)
		done <- attemptResult{resp: resp, err: err}
	}()

	var r attemptResult
	select {
	case r = <-done:
	case <-actx.Done():
		r = attemptResult{err: actx.Err()}
	}

	if r.err != nil {
		if ctx.Err() == nil && errors.Is(actx.Err(), context.DeadlineExceeded) {
			return nil, &Error{
				Kind:     KindTimeout,
				Provider: c.cfg.ProviderName,
				Err:      fmt.Errorf("attempt exceeded %s: %w", c.cfg.AttemptTimeout, r.err),
			}
		}
		return nil, r.err
	}
	if r.resp == nil || strings.TrimSpace(r.resp.Text) == "" {
		return nil, &Error{
			Kind:     KindTransient,
			Provider: c.cfg.ProviderName,
			Err:      errors.New("empty model output"),
		}
	}
	return r.resp, nil
}
