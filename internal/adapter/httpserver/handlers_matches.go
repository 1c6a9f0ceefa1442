package httpserver

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pscheid92/livescore/internal/domain"
	apperrors "github.com/pscheid92/livescore/internal/platform/errors"
)

type dataResponse struct {
	Data any `json:"data"`
}

func (s *Server) registerMatchRoutes(rateLimiter echo.MiddlewareFunc) {
	g := s.echo.Group("/matches", rateLimiter)
	g.GET("", s.handleListMatches)
	g.POST("", s.handleCreateMatch)
	g.PATCH("/:id/score", s.handleUpdateScore)
	g.GET("/:id/commentary", s.handleListCommentary)
	g.POST("/:id/commentary", s.handleCreateCommentary)
}

func (s *Server) handleListMatches(c echo.Context) error {
	limit, err := parseLimit(c)
	if err != nil {
		return err
	}

	matches, err := s.app.ListMatches(c.Request().Context(), limit)
	if err != nil {
		return apperrors.InternalError("Failed to list matches.", err)
	}
	return sendData(c, http.StatusOK, matches)
}

func (s *Server) handleCreateMatch(c echo.Context) error {
	var req createMatchRequest
	if err := s.bindJSON(c, &req); err != nil {
		return err
	}

	match, err := s.app.CreateMatch(c.Request().Context(), req.toDomain())
	if err != nil {
		return apperrors.InternalError("Failed to create match.", err)
	}
	return sendData(c, http.StatusCreated, match)
}

func (s *Server) handleUpdateScore(c echo.Context) error {
	id, err := parseMatchID(c)
	if err != nil {
		return err
	}

	var req updateScoreRequest
	if err := s.bindJSON(c, &req); err != nil {
		return err
	}

	score := domain.Score{HomeScore: req.HomeScore.orZero(), AwayScore: req.AwayScore.orZero()}
	match, err := s.app.UpdateScore(c.Request().Context(), id, score)
	if err != nil {
		return matchError(err, id, "Failed to update score")
	}
	return sendData(c, http.StatusOK, match)
}

func (s *Server) handleListCommentary(c echo.Context) error {
	id, err := parseMatchID(c)
	if err != nil {
		return err
	}
	limit, err := parseLimit(c)
	if err != nil {
		return err
	}

	entries, err := s.app.ListCommentary(c.Request().Context(), id, limit)
	if err != nil {
		return matchError(err, id, "Failed to list commentary.")
	}
	return sendData(c, http.StatusOK, entries)
}

func (s *Server) handleCreateCommentary(c echo.Context) error {
	id, err := parseMatchID(c)
	if err != nil {
		return err
	}

	var req createCommentaryRequest
	if err := s.bindJSON(c, &req); err != nil {
		return err
	}
	if !validMetadata(req.Metadata) {
		return apperrors.ValidationError("Invalid payload.").WithField("metadata", "object")
	}

	entry, err := s.app.CreateCommentary(c.Request().Context(), id, req.toDomain())
	if err != nil {
		return matchError(err, id, "Failed to create commentary.")
	}
	return sendData(c, http.StatusCreated, entry)
}

func matchError(err error, id int64, message string) error {
	switch {
	case errors.Is(err, domain.ErrMatchNotFound):
		return apperrors.NotFoundError("Match not found").WithField("match_id", id)
	case errors.Is(err, domain.ErrMatchNotLive):
		return apperrors.ConflictError("Match is not live").WithField("match_id", id)
	default:
		return apperrors.InternalError(message, err).WithField("match_id", id)
	}
}

func sendData(c echo.Context, status int, data any) error {
	if err := c.JSON(status, dataResponse{Data: data}); err != nil {
		return fmt.Errorf("failed to send JSON response: %w", err)
	}
	return nil
}
