package app

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/jonboulle/clockwork"
	"github.com/pscheid92/livescore/internal/domain"
	"golang.org/x/sync/singleflight"
)

// Service is the application layer. It is the only component that touches
// both the repositories and the publisher.
type Service struct {
	matches    domain.MatchRepository
	commentary domain.CommentaryRepository
	publisher  domain.MatchPublisher
	clock      clockwork.Clock
	listGroup  singleflight.Group
}

func NewService(matches domain.MatchRepository, commentary domain.CommentaryRepository, publisher domain.MatchPublisher, clock clockwork.Clock) *Service {
	return &Service{
		matches:    matches,
		commentary: commentary,
		publisher:  publisher,
		clock:      clock,
	}
}

// ListMatches returns the newest matches. Concurrent calls with the same
// limit share one query; callers must treat the result as read-only.
func (s *Service) ListMatches(ctx context.Context, limit int) ([]domain.Match, error) {
	v, err, _ := s.listGroup.Do(strconv.Itoa(limit), func() (any, error) {
		return s.matches.List(ctx, limit)
	})
	if err != nil {
		return nil, err
	}
	return v.([]domain.Match), nil
}

// CreateMatch stores a match with a status derived from its time window and
// announces it to every connected client.
func (s *Service) CreateMatch(ctx context.Context, nm domain.NewMatch) (*domain.Match, error) {
	status := domain.StatusAt(nm.StartTime, nm.EndTime, s.clock.Now())

	m, err := s.matches.Create(ctx, nm, status)
	if err != nil {
		return nil, err
	}

	slog.InfoContext(ctx, "Match created", "match_id", m.ID, "status", m.Status)
	s.publisher.PublishMatchCreated(*m)
	return m, nil
}

// UpdateScore brings the stored status up to date first, then accepts the
// score only while the match is live.
func (s *Service) UpdateScore(ctx context.Context, id int64, score domain.Score) (*domain.Match, error) {
	existing, err := s.matches.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	status := domain.StatusAt(existing.StartTime, existing.EndTime, s.clock.Now())
	if status != existing.Status {
		if err := s.matches.UpdateStatus(ctx, id, status); err != nil {
			return nil, fmt.Errorf("failed to sync match status: %w", err)
		}
		slog.InfoContext(ctx, "Match status changed", "match_id", id, "from", existing.Status, "to", status)
	}
	if status != domain.StatusLive {
		return nil, domain.ErrMatchNotLive
	}

	updated, err := s.matches.UpdateScore(ctx, id, score)
	if err != nil {
		return nil, err
	}

	s.publisher.PublishScoreUpdate(id, domain.Score{HomeScore: updated.HomeScore, AwayScore: updated.AwayScore})
	return updated, nil
}

func (s *Service) ListCommentary(ctx context.Context, matchID int64, limit int) ([]domain.Commentary, error) {
	return s.commentary.List(ctx, matchID, limit)
}

func (s *Service) CreateCommentary(ctx context.Context, matchID int64, nc domain.NewCommentary) (*domain.Commentary, error) {
	c, err := s.commentary.Create(ctx, matchID, nc)
	if err != nil {
		return nil, err
	}

	s.publisher.PublishCommentary(matchID, *c)
	return c, nil
}
