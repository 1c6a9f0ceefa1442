package httpserver

import (
	"context"
	"errors"
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/pscheid92/livescore/internal/adapter/metrics"
	"github.com/pscheid92/livescore/internal/admission"
	"github.com/pscheid92/livescore/internal/domain"
	"github.com/pscheid92/livescore/internal/platform/config"
	"github.com/stretchr/testify/require"
)

// --- Mock implementations ---

type mockMatchService struct {
	listMatchesFn      func(ctx context.Context, limit int) ([]domain.Match, error)
	createMatchFn      func(ctx context.Context, nm domain.NewMatch) (*domain.Match, error)
	updateScoreFn      func(ctx context.Context, id int64, score domain.Score) (*domain.Match, error)
	listCommentaryFn   func(ctx context.Context, matchID int64, limit int) ([]domain.Commentary, error)
	createCommentaryFn func(ctx context.Context, matchID int64, nc domain.NewCommentary) (*domain.Commentary, error)
}

var errNotImplemented = errors.New("not implemented")

func (m *mockMatchService) ListMatches(ctx context.Context, limit int) ([]domain.Match, error) {
	if m.listMatchesFn != nil {
		return m.listMatchesFn(ctx, limit)
	}
	return []domain.Match{}, nil
}

func (m *mockMatchService) CreateMatch(ctx context.Context, nm domain.NewMatch) (*domain.Match, error) {
	if m.createMatchFn != nil {
		return m.createMatchFn(ctx, nm)
	}
	return nil, errNotImplemented
}

func (m *mockMatchService) UpdateScore(ctx context.Context, id int64, score domain.Score) (*domain.Match, error) {
	if m.updateScoreFn != nil {
		return m.updateScoreFn(ctx, id, score)
	}
	return nil, errNotImplemented
}

func (m *mockMatchService) ListCommentary(ctx context.Context, matchID int64, limit int) ([]domain.Commentary, error) {
	if m.listCommentaryFn != nil {
		return m.listCommentaryFn(ctx, matchID, limit)
	}
	return []domain.Commentary{}, nil
}

func (m *mockMatchService) CreateCommentary(ctx context.Context, matchID int64, nc domain.NewCommentary) (*domain.Commentary, error) {
	if m.createCommentaryFn != nil {
		return m.createCommentaryFn(ctx, matchID, nc)
	}
	return nil, errNotImplemented
}

type stubGate struct {
	decision admission.Decision
	err      error
}

func (g *stubGate) Admit(context.Context, admission.Attempt) (admission.Decision, error) {
	return g.decision, g.err
}

type stubAcceptor struct {
	accepted chan admission.Decision
}

func (a *stubAcceptor) Accept(conn *websocket.Conn, d admission.Decision) error {
	defer d.Release()
	_ = conn.Close()
	if a.accepted != nil {
		a.accepted <- d
	}
	return nil
}

// --- Server construction ---

type serverOption func(*Deps, *config.Config)

func withHealthChecks(checks ...HealthCheck) serverOption {
	return func(d *Deps, _ *config.Config) { d.HealthChecks = checks }
}

func withGate(g connectionGate) serverOption {
	return func(d *Deps, _ *config.Config) { d.Gate = g }
}

func withHub(h connectionAcceptor) serverOption {
	return func(d *Deps, _ *config.Config) { d.Hub = h }
}

func withMetrics(reg *prometheus.Registry, m *metrics.HTTPMetrics) serverOption {
	return func(d *Deps, _ *config.Config) {
		d.Registry = reg
		d.HTTPMetrics = m
	}
}

func withRateLimit(rps float64, burst int) serverOption {
	return func(_ *Deps, cfg *config.Config) {
		cfg.HTTPRateLimitRPS = rps
		cfg.HTTPRateLimitBurst = burst
	}
}

func newTestServer(t *testing.T, svc matchService, opts ...serverOption) *Server {
	t.Helper()

	cfg := &config.Config{
		AppEnv:             "development",
		Port:               "0",
		HTTPRateLimitRPS:   1000,
		HTTPRateLimitBurst: 1000,
	}
	deps := Deps{
		App:  svc,
		Gate: &stubGate{decision: admission.Allow(nil)},
		Hub:  &stubAcceptor{},
	}
	for _, opt := range opts {
		opt(&deps, cfg)
	}

	return NewServer(cfg, deps)
}

// do runs one request through the full middleware chain.
func do(t *testing.T, srv *Server, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()

	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, r)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	return rec
}

func requireStatus(t *testing.T, rec *httptest.ResponseRecorder, status int) {
	t.Helper()
	require.Equal(t, status, rec.Code, "body: %s", rec.Body.String())
}
