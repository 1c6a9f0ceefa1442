package httpserver

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/pscheid92/livescore/internal/adapter/metrics"
	"github.com/pscheid92/livescore/internal/admission"
	"github.com/pscheid92/livescore/internal/domain"
	"github.com/pscheid92/livescore/internal/platform/config"
)

type matchService interface {
	ListMatches(ctx context.Context, limit int) ([]domain.Match, error)
	CreateMatch(ctx context.Context, nm domain.NewMatch) (*domain.Match, error)
	UpdateScore(ctx context.Context, id int64, score domain.Score) (*domain.Match, error)
	ListCommentary(ctx context.Context, matchID int64, limit int) ([]domain.Commentary, error)
	CreateCommentary(ctx context.Context, matchID int64, nc domain.NewCommentary) (*domain.Commentary, error)
}

type connectionGate interface {
	Admit(ctx context.Context, a admission.Attempt) (admission.Decision, error)
}

type connectionAcceptor interface {
	Accept(conn *websocket.Conn, decision admission.Decision) error
}

// Deps are the collaborators the HTTP surface is built on.
type Deps struct {
	App          matchService
	Gate         connectionGate
	Hub          connectionAcceptor
	Registry     *prometheus.Registry
	HTTPMetrics  *metrics.HTTPMetrics
	HealthChecks []HealthCheck
}

type Server struct {
	echo   *echo.Echo
	config *config.Config

	app          matchService
	gate         connectionGate
	hub          connectionAcceptor
	registry     *prometheus.Registry
	httpMetrics  *metrics.HTTPMetrics
	healthChecks []HealthCheck

	validate  *validator.Validate
	upgrader  websocket.Upgrader
	startTime time.Time
}

func NewServer(cfg *config.Config, deps Deps) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	srv := &Server{
		echo:         e,
		config:       cfg,
		app:          deps.App,
		gate:         deps.Gate,
		hub:          deps.Hub,
		registry:     deps.Registry,
		httpMetrics:  deps.HTTPMetrics,
		healthChecks: deps.HealthChecks,
		validate:     newValidator(),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Origin is checked by the admission gate before the upgrade.
			CheckOrigin: func(*http.Request) bool { return true },
		},
		startTime: time.Now(),
	}

	srv.registerRoutes()
	return srv
}

func (s *Server) Start() error {
	slog.Info("Starting server", "port", s.config.Port)
	if err := s.echo.Start(":" + s.config.Port); err != nil {
		return fmt.Errorf("failed to start server: %w", err)
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	if err := s.echo.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown server: %w", err)
	}
	return nil
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.echo
}
