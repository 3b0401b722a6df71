// Package resilience provides fault-tolerance patterns:
// retry with exponential backoff, circuit breaker, and bulkhead.
package resilience

import (
	"context"
	"errors"
	"math"
	"math/rand"
	"time"

	"github.com/boddenberg/finance-tracker-go/internal/domain"

	"github.com/sony/gobreaker"
)

// Config holds resilience parameters.
type Config struct {
	MaxRetries     int
	InitialBackoff time.Duration
	MaxConcurrency int
}

// permanentError marks a failure that retrying cannot fix.
type permanentError struct {
	err error
}

func (p *permanentError) Error() string { return p.err.Error() }
func (p *permanentError) Unwrap() error { return p.err }

// Permanent wraps err so RetryWithBackoff returns it immediately and the
// circuit breaker does not count it as a failure.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

// IsPermanent reports whether err was wrapped with Permanent.
func IsPermanent(err error) bool {
	var p *permanentError
	return errors.As(err, &p)
}

// unwrapPermanent strips the Permanent marker so callers see the original error.
func unwrapPermanent(err error) error {
	var p *permanentError
	if errors.As(err, &p) {
		return p.err
	}
	return err
}

// RetryWithBackoff executes fn with exponential backoff + jitter.
// It respects context cancellation.
func RetryWithBackoff(ctx context.Context, cfg Config, fn func() error) error {
	var lastErr error
	for attempt := 0; attempt <= cfg.MaxRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		lastErr = fn()
		if lastErr == nil {
			return nil
		}
		if IsPermanent(lastErr) {
			return lastErr
		}

		if attempt < cfg.MaxRetries {
			backoff := time.Duration(math.Pow(2, float64(attempt))) * cfg.InitialBackoff
			wait := backoff
			if half := int64(backoff / 2); half > 0 {
				wait += time.Duration(rand.Int63n(half))
			}

			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(wait):
			}
		}
	}
	return lastErr
}

// NewCircuitBreaker creates a circuit breaker with sensible defaults.
func NewCircuitBreaker(name string) *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: 3,                // half-open: allow 3 requests
		Interval:    30 * time.Second, // closed: reset counters every 30s
		Timeout:     10 * time.Second, // open -> half-open after 10s
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 5 && failureRatio >= 0.6
		},
		IsSuccessful: func(err error) bool {
			return err == nil || IsPermanent(err) || errors.Is(err, context.Canceled)
		},
	})
}

// Bulkhead limits concurrent access to a resource.
type Bulkhead struct {
	sem chan struct{}
}

// NewBulkhead creates a bulkhead with the given max concurrency.
func NewBulkhead(maxConcurrency int) *Bulkhead {
	if maxConcurrency <= 0 {
		maxConcurrency = 1
	}
	return &Bulkhead{sem: make(chan struct{}, maxConcurrency)}
}

// Acquire blocks until a slot is available or context is cancelled.
func (b *Bulkhead) Acquire(ctx context.Context) error {
	select {
	case b.sem <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Release frees a slot.
func (b *Bulkhead) Release() {
	<-b.sem
}

// Guard bundles a bulkhead, a circuit breaker and a retry policy around one
// dependency.
type Guard struct {
	service  string
	cfg      Config
	cb       *gobreaker.CircuitBreaker
	bulkhead *Bulkhead
}

// NewGuard creates a Guard for the named dependency.
func NewGuard(service string, cfg Config) *Guard {
	return &Guard{
		service:  service,
		cfg:      cfg,
		cb:       NewCircuitBreaker(service),
		bulkhead: NewBulkhead(cfg.MaxConcurrency),
	}
}

// Do runs fn inside the bulkhead, through the breaker, with retries.
// An open breaker is reported as *domain.ErrCircuitOpen; errors marked
// Permanent are returned unwrapped and never retried.
func (g *Guard) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	return g.run(ctx, g.cfg, fn)
}

// DoOnce is Do without retries, for calls that are not idempotent.
func (g *Guard) DoOnce(ctx context.Context, fn func(ctx context.Context) error) error {
	cfg := g.cfg
	cfg.MaxRetries = 0
	return g.run(ctx, cfg, fn)
}

func (g *Guard) run(ctx context.Context, cfg Config, fn func(ctx context.Context) error) error {
	if err := g.bulkhead.Acquire(ctx); err != nil {
		return &domain.ErrTimeout{Operation: g.service}
	}
	defer g.bulkhead.Release()

	err := RetryWithBackoff(ctx, cfg, func() error {
		_, cbErr := g.cb.Execute(func() (any, error) {
			return nil, fn(ctx)
		})
		if errors.Is(cbErr, gobreaker.ErrOpenState) || errors.Is(cbErr, gobreaker.ErrTooManyRequests) {
			return Permanent(&domain.ErrCircuitOpen{Service: g.service})
		}
		return cbErr
	})
	return unwrapPermanent(err)
}

// State exposes the breaker state for health reporting.
func (g *Guard) State() gobreaker.State {
	return g.cb.State()
}
