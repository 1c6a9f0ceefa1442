package admission

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGlobalLimiter_AcquireRelease(t *testing.T) {
	limiter := NewGlobalLimiter(3)

	assert.True(t, limiter.Acquire())
	assert.True(t, limiter.Acquire())
	assert.True(t, limiter.Acquire())
	assert.False(t, limiter.Acquire())
	assert.Equal(t, int64(3), limiter.Current())

	limiter.Release()
	assert.True(t, limiter.Acquire())
}

func TestGlobalLimiter_Concurrent(t *testing.T) {
	limiter := NewGlobalLimiter(100)
	var successCount, failCount atomic.Int64

	start := make(chan struct{})
	var wg sync.WaitGroup
	for range 200 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			if limiter.Acquire() {
				successCount.Add(1)
			} else {
				failCount.Add(1)
			}
		}()
	}
	close(start)
	wg.Wait()

	assert.Equal(t, int64(100), successCount.Load())
	assert.Equal(t, int64(100), failCount.Load())
	assert.Equal(t, int64(100), limiter.Current())
}

func TestIPLimiter_PerIPIsolation(t *testing.T) {
	limiter := NewIPLimiter(2)

	assert.True(t, limiter.Acquire("10.0.0.1"))
	assert.True(t, limiter.Acquire("10.0.0.1"))
	assert.False(t, limiter.Acquire("10.0.0.1"))
	assert.True(t, limiter.Acquire("10.0.0.2"))

	limiter.Release("10.0.0.1")
	assert.Equal(t, 1, limiter.Count("10.0.0.1"))
	limiter.Release("10.0.0.1")
	assert.Zero(t, limiter.Count("10.0.0.1"))

	limiter.Release("10.0.0.1")
	assert.Zero(t, limiter.Count("10.0.0.1"), "extra release does not go negative")
}

func TestMemoryRateLimiter_WindowRefill(t *testing.T) {
	clock := clockwork.NewFakeClock()
	limiter := NewMemoryRateLimiter(clock, 5, 2*time.Second)
	ctx := context.Background()

	for i := range 5 {
		ok, err := limiter.Allow(ctx, "1.2.3.4")
		require.NoError(t, err)
		assert.True(t, ok, "attempt %d", i+1)
	}
	ok, _ := limiter.Allow(ctx, "1.2.3.4")
	assert.False(t, ok, "burst exhausted")

	other, _ := limiter.Allow(ctx, "5.6.7.8")
	assert.True(t, other, "keys are independent")

	clock.Advance(400 * time.Millisecond)
	ok, _ = limiter.Allow(ctx, "1.2.3.4")
	assert.True(t, ok, "one token refilled after window/max")
}

func TestMemoryRateLimiter_CleanupIdleKeys(t *testing.T) {
	clock := clockwork.NewFakeClock()
	limiter := NewMemoryRateLimiter(clock, 5, 2*time.Second)
	ctx := context.Background()

	_, _ = limiter.Allow(ctx, "old")
	clock.Advance(11 * time.Minute)
	_, _ = limiter.Allow(ctx, "new")

	assert.Equal(t, 1, limiter.Len())
}
