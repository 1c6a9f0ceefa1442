// Package admission is the access-control gate in front of the realtime hub.
// It checks origin, connect rate and connection capacity before a WebSocket
// upgrade and hands the hub an allow or deny Decision.
package admission

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/pscheid92/livescore/internal/adapter/metrics"
)

// Attempt describes one incoming connection request.
type Attempt struct {
	Origin string
	Host   string
	IP     string
}

// Limits bounds concurrent connections.
type Limits struct {
	MaxConnections int64
	MaxPerIP       int
}

type Gate struct {
	origins OriginPolicy
	rate    RateLimiter
	global  *GlobalLimiter
	perIP   *IPLimiter
	metrics *metrics.AdmissionMetrics
}

func NewGate(origins OriginPolicy, rate RateLimiter, limits Limits, m *metrics.AdmissionMetrics) *Gate {
	return &Gate{
		origins: origins,
		rate:    rate,
		global:  NewGlobalLimiter(limits.MaxConnections),
		perIP:   NewIPLimiter(limits.MaxPerIP),
		metrics: m,
	}
}

// Admit checks the attempt in order: origin, connect rate, global capacity,
// per-IP capacity. An allowed decision holds one global and one per-IP slot
// until released. The error is non-nil only when the rate limiter failed.
func (g *Gate) Admit(ctx context.Context, a Attempt) (Decision, error) {
	if !g.origins.Allows(a.Origin, a.Host) {
		slog.WarnContext(ctx, "WebSocket origin rejected", "origin", a.Origin, "ip", a.IP)
		return g.deny(ReasonOrigin), nil
	}

	allowed, err := g.rate.Allow(ctx, a.IP)
	if err != nil {
		g.metrics.Decisions.WithLabelValues("error", "").Inc()
		return Decision{}, fmt.Errorf("connect rate check: %w", err)
	}
	if !allowed {
		return g.deny(ReasonRateLimited), nil
	}

	if !g.global.Acquire() {
		return g.deny(ReasonGlobalCapacity), nil
	}
	if !g.perIP.Acquire(a.IP) {
		g.global.Release()
		return g.deny(ReasonIPCapacity), nil
	}

	g.metrics.Decisions.WithLabelValues("allowed", "").Inc()
	g.metrics.SlotsInUse.Set(float64(g.global.Current()))

	ip := a.IP
	return Allow(func() {
		g.perIP.Release(ip)
		g.global.Release()
		g.metrics.SlotsInUse.Set(float64(g.global.Current()))
	}), nil
}

func (g *Gate) deny(reason Reason) Decision {
	g.metrics.Decisions.WithLabelValues("denied", string(reason)).Inc()
	return Deny(reason)
}

// InUse returns the number of held global slots.
func (g *Gate) InUse() int64 {
	return g.global.Current()
}
