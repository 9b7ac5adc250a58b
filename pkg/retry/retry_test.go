package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func fastConfig(attempts int) Config {
	return Config{
		MaxAttempts:  attempts,
		InitialDelay: time.Millisecond,
		MaxDelay:     5 * time.Millisecond,
		Multiplier:   2.0,
	}
}

func TestDo_SucceedsFirstTry(t *testing.T) {
	calls := 0

	err := Do(context.Background(), fastConfig(3), func(context.Context) error {
		calls++
		return nil
	})

	assert.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestDo_RetriesUntilSuccess(t *testing.T) {
	calls := 0

	err := Do(context.Background(), fastConfig(5), func(context.Context) error {
		calls++
		if calls < 3 {
			return errors.New("transient")
		}
		return nil
	})

	assert.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestDo_ExhaustsAttempts(t *testing.T) {
	errTransient := errors.New("still down")
	calls := 0

	err := Do(context.Background(), fastConfig(3), func(context.Context) error {
		calls++
		return errTransient
	})

	assert.ErrorIs(t, err, errTransient)
	assert.Equal(t, 3, calls)
}

func TestDo_PermanentErrorStopsImmediately(t *testing.T) {
	errFatal := errors.New("bad credentials")
	calls := 0

	err := Do(context.Background(), fastConfig(5), func(context.Context) error {
		calls++
		return Permanent(errFatal)
	})

	// Постоянная ошибка разворачивается до исходной.
	assert.Equal(t, errFatal, err)
	assert.Equal(t, 1, calls)
}

func TestDo_ContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0

	err := Do(ctx, fastConfig(10), func(context.Context) error {
		calls++
		cancel()
		return errors.New("transient")
	})

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls)
}

func TestDo_OnRetryCallback(t *testing.T) {
	var attempts []int
	cfg := fastConfig(3)
	cfg.OnRetry = func(attempt int, err error) {
		attempts = append(attempts, attempt)
	}

	_ = Do(context.Background(), cfg, func(context.Context) error {
		return errors.New("transient")
	})

	assert.Equal(t, []int{1, 2}, attempts)
}

func TestPermanent(t *testing.T) {
	assert.Nil(t, Permanent(nil))

	inner := errors.New("inner")
	wrapped := Permanent(inner)
	assert.True(t, IsPermanent(wrapped))
	assert.ErrorIs(t, wrapped, inner)
	assert.False(t, IsPermanent(inner))
}
