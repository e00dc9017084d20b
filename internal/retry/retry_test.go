package retry

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func TestDoSucceedsFirstAttempt(t *testing.T) {
	calls := 0
	got, err := Do(context.Background(), Policy{MaxAttempts: 3, Delay: time.Millisecond}, testLogger(), "op", func(context.Context) (int, error) {
		calls++
		return 42, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 42, got)
	assert.Equal(t, 1, calls)
}

func TestDoRecoversAfterFailures(t *testing.T) {
	calls := 0
	got, err := Do(context.Background(), Policy{MaxAttempts: 3, Delay: time.Millisecond}, testLogger(), "op", func(context.Context) (string, error) {
		calls++
		if calls < 3 {
			return "", errors.New("transient")
		}
		return "ok", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "ok", got)
	assert.Equal(t, 3, calls)
}

func TestDoExhaustsAttempts(t *testing.T) {
	boom := errors.New("boom")
	calls := 0
	start := time.Now()
	delay := 20 * time.Millisecond

	_, err := Do(context.Background(), Policy{MaxAttempts: 3, Delay: delay}, testLogger(), "op", func(context.Context) (int, error) {
		calls++
		return 0, boom
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 3, calls)
	// Two inter-attempt waits must have elapsed.
	assert.GreaterOrEqual(t, time.Since(start), 2*delay)
}

func TestDoStopsOnContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0

	_, err := Do(ctx, Policy{MaxAttempts: 5, Delay: time.Minute}, testLogger(), "op", func(context.Context) (int, error) {
		calls++
		cancel()
		return 0, errors.New("transient")
	})
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls)
}

func TestDoRejectsEmptyPolicy(t *testing.T) {
	_, err := Do(context.Background(), Policy{}, testLogger(), "op", func(context.Context) (int, error) {
		t.Fatal("fn must not be called")
		return 0, nil
	})
	assert.Error(t, err)
}
