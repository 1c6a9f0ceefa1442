package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/pscheid92/livescore/internal/adapter/httpserver"
	"github.com/pscheid92/livescore/internal/adapter/metrics"
	"github.com/pscheid92/livescore/internal/adapter/postgres"
	"github.com/pscheid92/livescore/internal/adapter/redis"
	"github.com/pscheid92/livescore/internal/admission"
	"github.com/pscheid92/livescore/internal/app"
	"github.com/pscheid92/livescore/internal/broadcast"
	"github.com/pscheid92/livescore/internal/platform/config"
	"github.com/pscheid92/livescore/internal/platform/logging"
	"github.com/pscheid92/livescore/internal/platform/retry"
	"github.com/pscheid92/livescore/internal/platform/version"
	goredis "github.com/redis/go-redis/v9"
)

const shutdownTimeout = 10 * time.Second

var connectPolicy = retry.Policy{
	MaxAttempts:    5,
	InitialBackoff: 500 * time.Millisecond,
	MaxBackoff:     5 * time.Second,
	OnRetry: func(attempt int, err error, backoff time.Duration) {
		slog.Warn("Dependency not ready, retrying", "attempt", attempt, "backoff", backoff, "error", err)
	},
}

func runGracefulShutdown(srv *httpserver.Server, hub *broadcast.Hub) <-chan struct{} {
	done := make(chan struct{})
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigChan
		slog.Info("Shutdown signal received, cleaning up...")

		// Close websockets first: hijacked connections are invisible to the
		// HTTP server's shutdown.
		hub.Stop()

		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			slog.Error("Server shutdown error", "error", err)
		}

		close(done)
	}()

	return done
}

func setupConfig() *config.Config {
	cfg, err := config.Load()
	if err != nil {
		// slog is not initialised yet
		log.Fatalf("Failed to load config: %v", err)
	}
	return cfg
}

func setupDB(cfg *config.Config, m *metrics.DatabaseMetrics) *pgxpool.Pool {
	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	pool, err := retry.Do(ctx, connectPolicy, retry.Always, func(ctx context.Context) (*pgxpool.Pool, error) {
		return postgres.Connect(ctx, cfg.DatabaseURL, m)
	})
	if err != nil {
		slog.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}

	if err := postgres.RunMigrationsWithLock(ctx, pool); err != nil {
		slog.Error("Failed to run migrations", "error", err)
		os.Exit(1)
	}
	return pool
}

// setupRedis returns nil when REDIS_URL is unset.
func setupRedis(cfg *config.Config, m *metrics.RedisMetrics) *goredis.Client {
	if cfg.RedisURL == "" {
		slog.Info("REDIS_URL not set, connect rate limiting is per instance")
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	client, err := retry.Do(ctx, connectPolicy, retry.Always, func(ctx context.Context) (*goredis.Client, error) {
		return redis.NewClient(ctx, cfg.RedisURL, m)
	})
	if err != nil {
		slog.Error("Failed to connect to Redis", "error", err)
		os.Exit(1)
	}
	return client
}

func setupGate(cfg *config.Config, rdb *goredis.Client, clock clockwork.Clock, m *metrics.AdmissionMetrics) *admission.Gate {
	memory := admission.NewMemoryRateLimiter(clock, cfg.WSConnectRateMax, cfg.WSConnectRateWindow)

	var limiter admission.RateLimiter = memory
	if rdb != nil {
		shared := redis.NewConnectRateLimiter(rdb, clock, cfg.WSConnectRateMax, cfg.WSConnectRateWindow)
		limiter = admission.NewFallbackRateLimiter(shared, memory, m)
	}

	return admission.NewGate(
		admission.NewOriginPolicy(cfg.CORSOrigin, !cfg.IsProduction()),
		limiter,
		admission.Limits{
			MaxConnections: int64(cfg.MaxWebSocketConnections),
			MaxPerIP:       cfg.MaxConnectionsPerIP,
		},
		m,
	)
}

func healthChecks(pool *pgxpool.Pool, rdb *goredis.Client) []httpserver.HealthCheck {
	checks := []httpserver.HealthCheck{{Name: "postgres", Check: pool.Ping}}
	if rdb != nil {
		checks = append(checks, httpserver.HealthCheck{
			Name:  "redis",
			Check: func(ctx context.Context) error { return rdb.Ping(ctx).Err() },
		})
	}
	return checks
}

func main() {
	clock := clockwork.NewRealClock()

	cfg := setupConfig()

	logging.InitLogger(cfg.LogLevel, cfg.LogFormat)
	info := version.Get()
	slog.Info("Application starting", "env", cfg.AppEnv, "port", cfg.Port, "version", info.Version, "commit", info.Commit)

	reg := metrics.NewRegistry()
	reg.MustRegister(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace:   "livescore",
		Name:        "build_info",
		Help:        "Build information.",
		ConstLabels: prometheus.Labels{"version": info.Version, "commit": info.Commit},
	}, func() float64 { return 1 }))

	pool := setupDB(cfg, metrics.NewDatabaseMetrics(reg))
	defer pool.Close()

	rdb := setupRedis(cfg, metrics.NewRedisMetrics(reg))
	if rdb != nil {
		defer func() { _ = rdb.Close() }()
	}

	hub := broadcast.NewHub(broadcast.Config{
		PingInterval:    cfg.WSPingInterval,
		WriteTimeout:    cfg.WSWriteTimeout,
		SendBuffer:      cfg.WSSendBuffer,
		MaxMessageBytes: cfg.WSMaxMessageBytes,
	}, clock, metrics.NewWebSocketMetrics(reg), slog.Default())

	appSvc := app.NewService(postgres.NewMatchRepo(pool), postgres.NewCommentaryRepo(pool), hub, clock)

	srv := httpserver.NewServer(cfg, httpserver.Deps{
		App:          appSvc,
		Gate:         setupGate(cfg, rdb, clock, metrics.NewAdmissionMetrics(reg)),
		Hub:          hub,
		Registry:     reg,
		HTTPMetrics:  metrics.NewHTTPMetrics(reg),
		HealthChecks: healthChecks(pool, rdb),
	})

	done := runGracefulShutdown(srv, hub)

	if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("Server error", "error", err)
		os.Exit(1)
	}

	<-done
}
