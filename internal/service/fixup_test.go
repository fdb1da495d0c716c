package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aryan0dhankhar/hobbyapi/internal/domain"
	"github.com/aryan0dhankhar/hobbyapi/internal/reliability/circuitbreaker"
)

func TestFixupRunner_RetriesTransientErrors(t *testing.T) {
	runner := NewFixupRunner(time.Second, 3, quietLogger())

	calls := 0
	err := runner.Run(context.Background(), StepHobbyAddRef, func(ctx context.Context) error {
		calls++
		if calls < 3 {
			return errStore
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestFixupRunner_DoesNotRetryMissingTarget(t *testing.T) {
	runner := NewFixupRunner(time.Second, 3, quietLogger())

	calls := 0
	err := runner.Run(context.Background(), StepHobbyPullRef, func(ctx context.Context) error {
		calls++
		return fmt.Errorf("user x: %w", domain.ErrNotFound)
	})
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.Equal(t, 1, calls)
}

func TestFixupRunner_IgnoresCallerCancellation(t *testing.T) {
	runner := NewFixupRunner(time.Second, 1, quietLogger())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var seen error
	err := runner.Run(ctx, StepUserCascade, func(ctx context.Context) error {
		seen = ctx.Err()
		return nil
	})
	require.NoError(t, err)
	assert.NoError(t, seen)
}

func TestFixupRunner_Timeout(t *testing.T) {
	runner := NewFixupRunner(20*time.Millisecond, 1, quietLogger())

	err := runner.Run(context.Background(), StepUserCascade, func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestFixupRunner_OpensBreaker(t *testing.T) {
	runner := NewFixupRunner(time.Second, 1, quietLogger())
	fail := func(ctx context.Context) error { return errStore }

	for i := 0; i < 5; i++ {
		err := runner.Run(context.Background(), StepHobbyAddRef, fail)
		require.True(t, errors.Is(err, errStore), "attempt %d: %v", i, err)
	}

	called := false
	err := runner.Run(context.Background(), StepHobbyAddRef, func(ctx context.Context) error {
		called = true
		return nil
	})
	assert.ErrorIs(t, err, circuitbreaker.ErrOpen)
	assert.False(t, called)
}

func TestFixupRunner_MissingTargetsKeepBreakerClosed(t *testing.T) {
	runner := NewFixupRunner(time.Second, 1, quietLogger())
	missing := func(ctx context.Context) error { return fmt.Errorf("user x: %w", domain.ErrNotFound) }

	for i := 0; i < 10; i++ {
		assert.ErrorIs(t, runner.Run(context.Background(), StepHobbyPullRef, missing), domain.ErrNotFound)
	}

	called := false
	err := runner.Run(context.Background(), StepHobbyAddRef, func(ctx context.Context) error {
		called = true
		return nil
	})
	require.NoError(t, err)
	assert.True(t, called)
}
