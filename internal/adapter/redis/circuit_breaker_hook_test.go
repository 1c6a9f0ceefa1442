package redis

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/pscheid92/livescore/internal/adapter/metrics"
	goredis "github.com/redis/go-redis/v9"
	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errRefused = errors.New("connection refused")

func testBreaker(timeout time.Duration) (*CircuitBreakerHook, *metrics.RedisMetrics) {
	m := metrics.NewRedisMetrics(prometheus.NewRegistry())
	hook := newCircuitBreakerHook(gobreaker.Settings{
		Name:        "redis-test",
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.Requests >= 3 && float64(counts.TotalFailures)/float64(counts.Requests) >= 0.6
		},
	}, m)
	return hook, m
}

func run(hook *CircuitBreakerHook, result error) error {
	ctx := context.Background()
	process := hook.ProcessHook(func(context.Context, goredis.Cmder) error { return result })
	return process(ctx, goredis.NewStringCmd(ctx, "get", "key"))
}

func TestCircuitBreakerHook_StaysClosedOnSuccess(t *testing.T) {
	hook, _ := testBreaker(time.Minute)

	for range 10 {
		require.NoError(t, run(hook, nil))
	}

	assert.Equal(t, gobreaker.StateClosed, hook.State())
	assert.Equal(t, uint32(10), hook.Counts().TotalSuccesses)
}

func TestCircuitBreakerHook_ServerRepliesAreHealthy(t *testing.T) {
	hook, _ := testBreaker(time.Minute)

	for range 5 {
		assert.ErrorIs(t, run(hook, goredis.Nil), goredis.Nil)
	}

	assert.Equal(t, gobreaker.StateClosed, hook.State())
	assert.Equal(t, uint32(0), hook.Counts().TotalFailures)
}

func TestCircuitBreakerHook_OpensAfterSustainedFailures(t *testing.T) {
	hook, m := testBreaker(time.Minute)

	for range 3 {
		err := run(hook, errRefused)
		assert.ErrorIs(t, err, errRefused)
	}
	require.Equal(t, gobreaker.StateOpen, hook.State())
	assert.Equal(t, float64(2), testutil.ToFloat64(m.BreakerState))

	called := false
	ctx := context.Background()
	process := hook.ProcessHook(func(context.Context, goredis.Cmder) error {
		called = true
		return nil
	})
	err := process(ctx, goredis.NewStringCmd(ctx, "get", "key"))

	require.Error(t, err)
	assert.ErrorIs(t, err, gobreaker.ErrOpenState)
	assert.Contains(t, err.Error(), "circuit breaker open")
	assert.False(t, called, "open breaker must not reach redis")
}

func TestCircuitBreakerHook_RecoversThroughHalfOpen(t *testing.T) {
	hook, m := testBreaker(20 * time.Millisecond)

	for range 3 {
		_ = run(hook, errRefused)
	}
	require.Equal(t, gobreaker.StateOpen, hook.State())

	require.Eventually(t, func() bool {
		return hook.State() == gobreaker.StateHalfOpen
	}, time.Second, 5*time.Millisecond)

	require.NoError(t, run(hook, nil))
	assert.Equal(t, gobreaker.StateClosed, hook.State())
	assert.Equal(t, float64(1), testutil.ToFloat64(m.BreakerStateChanges.WithLabelValues("closed")))
}

func TestCircuitBreakerHook_PipelineFailuresCount(t *testing.T) {
	hook, _ := testBreaker(time.Minute)
	ctx := context.Background()

	pipeline := hook.ProcessPipelineHook(func(context.Context, []goredis.Cmder) error { return errRefused })
	for range 3 {
		_ = pipeline(ctx, nil)
	}

	assert.Equal(t, gobreaker.StateOpen, hook.State())
}
