package ratelimit

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func TestTryAcquireWithinLimit(t *testing.T) {
	l := NewLimiter("m", 3, time.Minute, testLogger())
	now := time.Now()

	assert.Zero(t, l.tryAcquire(now))
	assert.Zero(t, l.tryAcquire(now.Add(time.Second)))
	assert.Zero(t, l.tryAcquire(now.Add(2*time.Second)))
}

func TestTryAcquireReportsDelayWhenFull(t *testing.T) {
	l := NewLimiter("m", 2, time.Minute, testLogger())
	now := time.Now()

	require.Zero(t, l.tryAcquire(now))
	require.Zero(t, l.tryAcquire(now.Add(10*time.Second)))

	// Window is full; the oldest start exits it at now+60s.
	delay := l.tryAcquire(now.Add(30 * time.Second))
	assert.Equal(t, 30*time.Second, delay)
}

func TestTryAcquirePrunesExpiredStarts(t *testing.T) {
	l := NewLimiter("m", 1, time.Minute, testLogger())
	now := time.Now()

	require.Zero(t, l.tryAcquire(now))
	assert.Positive(t, l.tryAcquire(now.Add(30*time.Second)))
	assert.Zero(t, l.tryAcquire(now.Add(61*time.Second)))
}

func TestWaitUnlimited(t *testing.T) {
	l := NewLimiter("m", 0, time.Minute, testLogger())
	for i := 0; i < 100; i++ {
		require.NoError(t, l.Wait(context.Background()))
	}
}

func TestWaitHonorsContextCancellation(t *testing.T) {
	l := NewLimiter("m", 1, time.Hour, testLogger())
	require.NoError(t, l.Wait(context.Background()))

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	start := time.Now()
	err := l.Wait(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestRegistryPassThroughForUnknownModel(t *testing.T) {
	r := NewRegistry(testLogger())
	assert.NoError(t, r.Wait(context.Background(), "unregistered"))
}

func TestRegistryIsolatesModels(t *testing.T) {
	r := NewRegistry(testLogger())
	r.Register("a", 1, time.Hour)
	r.Register("b", 1, time.Hour)

	require.NoError(t, r.Wait(context.Background(), "a"))
	// Model b has its own window and must not be blocked by a's usage.
	require.NoError(t, r.Wait(context.Background(), "b"))
}
