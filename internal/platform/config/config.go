package config

import (
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"go-simpler.org/env"
)

type Config struct {
	AppEnv      string `env:"APP_ENV" default:"development"`
	Port        string `env:"PORT" default:"8000"`
	DatabaseURL string `env:"DATABASE_URL"`
	RedisURL    string `env:"REDIS_URL"`
	LogLevel    string `env:"LOG_LEVEL" default:"info"`
	LogFormat   string `env:"LOG_FORMAT" default:"text"`
	CORSOrigin  string `env:"CORS_ORIGIN"`

	WSPingInterval    time.Duration `env:"WS_PING_INTERVAL" default:"30s"`
	WSWriteTimeout    time.Duration `env:"WS_WRITE_TIMEOUT" default:"5s"`
	WSSendBuffer      int           `env:"WS_SEND_BUFFER" default:"16"`
	WSMaxMessageBytes int64         `env:"WS_MAX_MESSAGE_BYTES" default:"1048576"`

	MaxWebSocketConnections int           `env:"MAX_WEBSOCKET_CONNECTIONS" default:"10000"`
	MaxConnectionsPerIP     int           `env:"MAX_CONNECTIONS_PER_IP" default:"50"`
	WSConnectRateMax        int           `env:"WS_CONNECT_RATE_MAX" default:"5"`
	WSConnectRateWindow     time.Duration `env:"WS_CONNECT_RATE_WINDOW" default:"2s"`

	HTTPRateLimitRPS   float64 `env:"HTTP_RATE_LIMIT_RPS" default:"5"`
	HTTPRateLimitBurst int     `env:"HTTP_RATE_LIMIT_BURST" default:"50"`
}

func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Info("No .env file found, using environment variables")
	}

	var cfg Config
	if err := env.Load(&cfg, nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// IsProduction reports whether APP_ENV is "production".
func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

func validate(cfg *Config) error {
	if cfg.DatabaseURL == "" {
		return errors.New("DATABASE_URL is required")
	}

	if cfg.WSPingInterval <= 0 {
		return errors.New("WS_PING_INTERVAL must be positive")
	}
	if cfg.WSWriteTimeout <= 0 {
		return errors.New("WS_WRITE_TIMEOUT must be positive")
	}
	if cfg.WSSendBuffer < 1 {
		return errors.New("WS_SEND_BUFFER must be at least 1")
	}
	if cfg.WSMaxMessageBytes < 1 {
		return errors.New("WS_MAX_MESSAGE_BYTES must be at least 1")
	}
	if cfg.MaxWebSocketConnections < 1 || cfg.MaxConnectionsPerIP < 1 {
		return errors.New("MAX_WEBSOCKET_CONNECTIONS and MAX_CONNECTIONS_PER_IP must be at least 1")
	}
	if cfg.WSConnectRateMax < 1 || cfg.WSConnectRateWindow <= 0 {
		return errors.New("WS_CONNECT_RATE_MAX and WS_CONNECT_RATE_WINDOW must be positive")
	}

	if cfg.IsProduction() {
		mode := sslMode(cfg.DatabaseURL)
		if mode == "disable" || mode == "allow" {
			return fmt.Errorf("DATABASE_URL uses sslmode=%s which is not allowed in production", mode)
		}
	}

	return nil
}

func sslMode(databaseURL string) string {
	u, err := url.Parse(databaseURL)
	if err != nil {
		return ""
	}
	return strings.ToLower(u.Query().Get("sslmode"))
}
