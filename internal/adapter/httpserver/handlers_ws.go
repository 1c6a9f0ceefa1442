package httpserver

import (
	"errors"
	"log/slog"

	"github.com/labstack/echo/v4"
	"github.com/pscheid92/livescore/internal/admission"
	"github.com/pscheid92/livescore/internal/broadcast"
	apperrors "github.com/pscheid92/livescore/internal/platform/errors"
)

// handleWebSocket runs the admission gate, upgrades, and then serves the
// connection on this goroutine until it closes.
func (s *Server) handleWebSocket(c echo.Context) error {
	req := c.Request()
	ctx := req.Context()

	decision, err := s.gate.Admit(ctx, admission.Attempt{
		Origin: req.Header.Get("Origin"),
		Host:   req.Host,
		IP:     c.RealIP(),
	})
	if err != nil {
		return apperrors.InternalError("connection admission failed", err)
	}
	if !decision.Allowed {
		return deniedError(decision.Reason)
	}

	conn, err := s.upgrader.Upgrade(c.Response(), req, nil)
	if err != nil {
		// The upgrader has already answered with an HTTP error.
		decision.Release()
		slog.DebugContext(ctx, "WebSocket upgrade failed", "error", err)
		return nil
	}

	err = s.hub.Accept(conn, decision)
	if errors.Is(err, broadcast.ErrHubStopped) {
		slog.DebugContext(ctx, "WebSocket refused during shutdown")
	} else if err != nil {
		slog.WarnContext(ctx, "WebSocket session ended with error", "error", err)
	}
	return nil
}

func deniedError(reason admission.Reason) error {
	if reason == admission.ReasonOrigin {
		return apperrors.ForbiddenError("Origin not allowed").WithField("reason", string(reason))
	}
	return apperrors.RateLimitedError("Too many connections").WithField("reason", string(reason))
}
