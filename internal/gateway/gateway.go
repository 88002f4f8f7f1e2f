// Package gateway mediates every call to the text generation service behind
// a circuit breaker. Calls are serialized; while the circuit is closed a
// failed call is retried once after a fixed backoff, after too many
// consecutive failures the circuit opens and calls fail fast until a
// cooldown elapses and a single half-open probe decides whether to close it.
package gateway

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/url"
	"sync"
	"time"

	"liner/internal/config"
	"liner/internal/logging"
	"liner/internal/services/textgen"
)

// State is the breaker position.
type State string

const (
	StateClosed   State = "closed"
	StateOpen     State = "open"
	StateHalfOpen State = "half-open"
)

// FailureKind classifies why a gateway call failed.
type FailureKind string

const (
	FailureTimeout     FailureKind = "ai-timeout"
	FailureTransport   FailureKind = "ai-transport-error"
	FailureBadResponse FailureKind = "ai-bad-response"
	FailureCircuitOpen FailureKind = "circuit-open"
)

// Error wraps a gateway failure with its classification.
type Error struct {
	Kind FailureKind
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("gateway: %s", e.Kind)
	}
	return fmt.Sprintf("gateway: %s: %v", e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf extracts the failure kind from err, or an empty kind when err is
// not a gateway error.
func KindOf(err error) (FailureKind, bool) {
	var gerr *Error
	if errors.As(err, &gerr) {
		return gerr.Kind, true
	}
	return "", false
}

// Generator is the single-attempt text completion dependency.
type Generator interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// Options tune the breaker policy. Zero values fall back to the defaults
// used by config.Default.
type Options struct {
	FailureThreshold int
	Cooldown         time.Duration
	RetryBackoff     time.Duration
	CallTimeout      time.Duration
	Logger           *slog.Logger
	Clock            func() time.Time
	Sleeper          func(time.Duration)
}

// OptionsFromApp derives breaker options from the application configuration.
func OptionsFromApp(cfg *config.Config, logger *slog.Logger) Options {
	return Options{
		FailureThreshold: cfg.Gateway.FailureThreshold,
		Cooldown:         cfg.Cooldown(),
		RetryBackoff:     cfg.RetryBackoff(),
		CallTimeout:      time.Duration(cfg.TextGen.TimeoutSeconds) * time.Second,
		Logger:           logger,
	}
}

// Gateway owns the breaker state and the generator it protects.
type Gateway struct {
	mu     sync.Mutex
	client Generator
	logger *slog.Logger

	threshold    int
	cooldown     time.Duration
	retryBackoff time.Duration
	callTimeout  time.Duration

	state    State
	failures int
	openedAt time.Time

	now   func() time.Time
	sleep func(time.Duration)
}

// New constructs a gateway around the given generator.
func New(client Generator, opts Options) *Gateway {
	g := &Gateway{
		client:       client,
		logger:       opts.Logger,
		threshold:    opts.FailureThreshold,
		cooldown:     opts.Cooldown,
		retryBackoff: opts.RetryBackoff,
		callTimeout:  opts.CallTimeout,
		state:        StateClosed,
		now:          opts.Clock,
		sleep:        opts.Sleeper,
	}
	if g.threshold <= 0 {
		g.threshold = 5
	}
	if g.cooldown <= 0 {
		g.cooldown = 5 * time.Minute
	}
	if g.logger == nil {
		g.logger = logging.NewNop()
	}
	if g.now == nil {
		g.now = time.Now
	}
	if g.sleep == nil {
		g.sleep = time.Sleep
	}
	return g
}

// State returns the current breaker position, accounting for an elapsed
// cooldown that would admit a probe.
func (g *Gateway) State() State {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.state == StateOpen && g.now().Sub(g.openedAt) >= g.cooldown {
		return StateHalfOpen
	}
	return g.state
}

// ConsecutiveFailures returns the current failure streak.
func (g *Gateway) ConsecutiveFailures() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.failures
}

// Generate runs one protected completion call. Calls are fully serialized;
// while the circuit is open and the cooldown has not elapsed the call fails
// fast with a circuit-open error and the generator is never invoked.
func (g *Gateway) Generate(ctx context.Context, prompt string) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	probing := false
	switch g.state {
	case StateOpen:
		if g.now().Sub(g.openedAt) < g.cooldown {
			return "", &Error{Kind: FailureCircuitOpen, Err: fmt.Errorf("cooldown active, %d consecutive failures", g.failures)}
		}
		g.state = StateHalfOpen
		g.logger.Info("breaker admitting probe",
			logging.String(logging.FieldEventType, "breaker_half_open"),
		)
		probing = true
	case StateHalfOpen:
		probing = true
	}

	content, err := g.attempt(ctx, prompt)
	if err != nil && !probing && g.retryBackoff > 0 && ctx.Err() == nil {
		g.sleep(g.retryBackoff)
		if ctx.Err() == nil {
			content, err = g.attempt(ctx, prompt)
		}
	}

	if err != nil {
		g.recordFailure(probing)
		return "", err
	}
	g.recordSuccess(probing)
	return content, nil
}

func (g *Gateway) attempt(ctx context.Context, prompt string) (string, error) {
	callCtx := ctx
	if g.callTimeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, g.callTimeout)
		defer cancel()
	}
	content, err := g.client.Complete(callCtx, prompt)
	if err != nil {
		return "", &Error{Kind: classify(err), Err: err}
	}
	return content, nil
}

func (g *Gateway) recordFailure(probing bool) {
	g.failures++
	if probing {
		g.state = StateOpen
		g.openedAt = g.now()
		g.logger.Warn("breaker probe failed, circuit reopened",
			logging.Int("consecutive_failures", g.failures),
			logging.String(logging.FieldEventType, "breaker_opened"),
		)
		return
	}
	if g.failures >= g.threshold {
		g.state = StateOpen
		g.openedAt = g.now()
		g.logger.Warn("breaker opened",
			logging.Int("consecutive_failures", g.failures),
			logging.Int("threshold", g.threshold),
			logging.String(logging.FieldEventType, "breaker_opened"),
		)
	}
}

func (g *Gateway) recordSuccess(probing bool) {
	if probing {
		g.logger.Info("breaker probe succeeded, circuit closed",
			logging.String(logging.FieldEventType, "breaker_closed"),
		)
	}
	g.failures = 0
	g.state = StateClosed
}

func classify(err error) FailureKind {
	if errors.Is(err, context.DeadlineExceeded) {
		return FailureTimeout
	}
	var badErr *textgen.BadResponseError
	if errors.As(err, &badErr) {
		return FailureBadResponse
	}
	var statusErr *textgen.StatusError
	if errors.As(err, &statusErr) {
		return FailureTransport
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return FailureTimeout
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) && urlErr.Timeout() {
		return FailureTimeout
	}
	return FailureTransport
}
