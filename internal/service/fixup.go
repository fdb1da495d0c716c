package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/aryan0dhankhar/hobbyapi/internal/domain"
	"github.com/aryan0dhankhar/hobbyapi/internal/observability/metrics"
	"github.com/aryan0dhankhar/hobbyapi/internal/reliability/circuitbreaker"
	"github.com/aryan0dhankhar/hobbyapi/internal/reliability/retry"
)

// Secondary steps, used as the "step" metric label.
const (
	StepHobbyAddRef  = "hobby_add_ref"
	StepHobbyPullRef = "hobby_pull_ref"
	StepUserCascade  = "user_cascade"
)

// FixupRunner runs the back-reference half of a two-phase write. Once the
// primary write has committed the fix-up must not be abandoned because the
// client went away, so it runs detached from the caller's cancellation and
// bounded by its own timeout.
type FixupRunner struct {
	timeout time.Duration
	retry   *retry.Config
	breaker *circuitbreaker.CircuitBreaker
	logger  *slog.Logger
}

// NewFixupRunner creates a runner retrying each step up to maxAttempts times
func NewFixupRunner(timeout time.Duration, maxAttempts int, logger *slog.Logger) *FixupRunner {
	if logger == nil {
		logger = slog.Default()
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}

	cfg := retry.DefaultConfig()
	cfg.MaxAttempts = maxAttempts

	breaker := circuitbreaker.NewCircuitBreaker("fixups", 5, 2, 30*time.Second)
	// A target that is already gone says nothing about the store's health.
	breaker.SetFailureClassifier(func(err error) bool {
		return !errors.Is(err, domain.ErrNotFound)
	})
	breaker.SetStateChangeCallback(func(name string, from, to circuitbreaker.State) {
		metrics.SetCircuitState(name, int(to))
		logger.Warn("circuit breaker state changed",
			slog.String("breaker", name),
			slog.String("from", from.String()),
			slog.String("to", to.String()),
		)
	})

	return &FixupRunner{
		timeout: timeout,
		retry:   cfg,
		breaker: breaker,
		logger:  logger,
	}
}

// Run executes fn for step. A missing target or an open breaker is not retried.
// The error is returned so the caller decides whether to surface it.
func (f *FixupRunner) Run(ctx context.Context, step string, fn func(context.Context) error) error {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), f.timeout)
	defer cancel()

	_, err := retry.Do(ctx, f.retry, f.logger, step, func(ctx context.Context) (struct{}, error) {
		err := f.breaker.Execute(ctx, fn)
		if errors.Is(err, domain.ErrNotFound) || errors.Is(err, circuitbreaker.ErrOpen) {
			return struct{}{}, retry.Permanent(err)
		}
		return struct{}{}, err
	})

	switch {
	case err == nil:
		metrics.ObserveFixup(step, "success")
	case errors.Is(err, domain.ErrNotFound):
		metrics.ObserveFixup(step, "missing")
	case errors.Is(err, circuitbreaker.ErrOpen):
		metrics.ObserveFixup(step, "rejected")
	default:
		metrics.ObserveFixup(step, "failure")
	}
	return err
}
