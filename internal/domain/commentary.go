package domain

import (
	"context"
	"encoding/json"
	"time"
)

type Commentary struct {
	ID        int64           `json:"id"`
	MatchID   int64           `json:"matchId"`
	Minute    *int            `json:"minute"`
	Sequence  *int            `json:"sequence"`
	Period    string          `json:"period,omitempty"`
	EventType string          `json:"eventType,omitempty"`
	Actor     string          `json:"actor,omitempty"`
	Team      string          `json:"team,omitempty"`
	Message   string          `json:"message"`
	Metadata  json.RawMessage `json:"metadata,omitempty"`
	Tags      []string        `json:"tags"`
	CreatedAt time.Time       `json:"createdAt"`
}

type NewCommentary struct {
	Minute    *int
	Sequence  *int
	Period    string
	EventType string
	Actor     string
	Team      string
	Message   string
	Metadata  json.RawMessage
	Tags      []string
}

type CommentaryRepository interface {
	// List returns a match's commentary newest first.
	List(ctx context.Context, matchID int64, limit int) ([]Commentary, error)
	// Create returns ErrMatchNotFound when the match does not exist.
	Create(ctx context.Context, matchID int64, c NewCommentary) (*Commentary, error)
}
