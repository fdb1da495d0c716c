package circuitbreaker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

var errStore = errors.New("store down")

func fail(context.Context) error { return errStore }
func ok(context.Context) error   { return nil }

func TestCircuitBreaker_OpensAfterThreshold(t *testing.T) {
	cb := NewCircuitBreaker("store", 2, 1, time.Hour)
	ctx := context.Background()

	assert.ErrorIs(t, cb.Execute(ctx, fail), errStore)
	assert.Equal(t, StateClosed, cb.GetState())
	assert.ErrorIs(t, cb.Execute(ctx, fail), errStore)
	assert.Equal(t, StateOpen, cb.GetState())

	called := false
	err := cb.Execute(ctx, func(context.Context) error { called = true; return nil })
	assert.ErrorIs(t, err, ErrOpen)
	assert.False(t, called)
}

func TestCircuitBreaker_HalfOpenRecovers(t *testing.T) {
	cb := NewCircuitBreaker("store", 1, 1, time.Millisecond)
	ctx := context.Background()

	var transitions []string
	cb.SetStateChangeCallback(func(name string, from, to State) {
		transitions = append(transitions, from.String()+"->"+to.String())
	})

	_ = cb.Execute(ctx, fail)
	assert.Equal(t, StateOpen, cb.GetState())

	time.Sleep(5 * time.Millisecond)
	assert.NoError(t, cb.Execute(ctx, ok))
	assert.Equal(t, StateClosed, cb.GetState())
	assert.Equal(t, []string{"closed->open", "open->half_open", "half_open->closed"}, transitions)
}

func TestCircuitBreaker_SuccessResetsFailures(t *testing.T) {
	cb := NewCircuitBreaker("store", 2, 1, time.Hour)
	ctx := context.Background()

	_ = cb.Execute(ctx, fail)
	_ = cb.Execute(ctx, ok)
	_ = cb.Execute(ctx, fail)
	assert.Equal(t, StateClosed, cb.GetState())
}

func TestCircuitBreaker_IgnoresCancellation(t *testing.T) {
	cb := NewCircuitBreaker("store", 1, 1, time.Hour)
	err := cb.Execute(context.Background(), func(context.Context) error { return context.Canceled })
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, StateClosed, cb.GetState())
}

func TestCircuitBreaker_FailureClassifier(t *testing.T) {
	errMissing := errors.New("record missing")
	cb := NewCircuitBreaker("store", 1, 1, time.Hour)
	cb.SetFailureClassifier(func(err error) bool { return !errors.Is(err, errMissing) })
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		err := cb.Execute(ctx, func(context.Context) error { return errMissing })
		assert.ErrorIs(t, err, errMissing)
	}
	assert.Equal(t, StateClosed, cb.GetState())

	// Cancellation stays excluded even with a classifier that accepts it.
	cb.SetFailureClassifier(func(error) bool { return true })
	_ = cb.Execute(ctx, func(context.Context) error { return context.Canceled })
	assert.Equal(t, StateClosed, cb.GetState())

	_ = cb.Execute(ctx, fail)
	assert.Equal(t, StateOpen, cb.GetState())
}
