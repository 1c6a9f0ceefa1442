package admission

import (
	"context"
	"log/slog"

	"github.com/pscheid92/livescore/internal/adapter/metrics"
)

// FallbackRateLimiter consults primary and switches to secondary for any
// attempt where primary fails.
type FallbackRateLimiter struct {
	primary   RateLimiter
	secondary RateLimiter
	metrics   *metrics.AdmissionMetrics
}

func NewFallbackRateLimiter(primary, secondary RateLimiter, m *metrics.AdmissionMetrics) *FallbackRateLimiter {
	return &FallbackRateLimiter{primary: primary, secondary: secondary, metrics: m}
}

func (f *FallbackRateLimiter) Allow(ctx context.Context, key string) (bool, error) {
	allowed, err := f.primary.Allow(ctx, key)
	if err == nil {
		return allowed, nil
	}

	slog.WarnContext(ctx, "Connect rate limiter failed, using in-memory fallback", "error", err)
	f.metrics.RateLimiterFallbacks.Inc()
	return f.secondary.Allow(ctx, key)
}
