package domain

import (
	"context"
	"time"
)

type MatchStatus string

const (
	StatusScheduled MatchStatus = "scheduled"
	StatusLive      MatchStatus = "live"
	StatusFinished  MatchStatus = "finished"
)

// StatusAt derives a match's status from its time window.
func StatusAt(start, end, now time.Time) MatchStatus {
	switch {
	case now.Before(start):
		return StatusScheduled
	case !now.Before(end):
		return StatusFinished
	default:
		return StatusLive
	}
}

type Match struct {
	ID        int64       `json:"id"`
	Sport     string      `json:"sport"`
	HomeTeam  string      `json:"homeTeam"`
	AwayTeam  string      `json:"awayTeam"`
	Status    MatchStatus `json:"status"`
	StartTime time.Time   `json:"startTime"`
	EndTime   time.Time   `json:"endTime"`
	HomeScore int         `json:"homeScore"`
	AwayScore int         `json:"awayScore"`
	CreatedAt time.Time   `json:"createdAt"`
}

// Score is the payload of a score_update frame.
type Score struct {
	HomeScore int `json:"homeScore"`
	AwayScore int `json:"awayScore"`
}

type NewMatch struct {
	Sport     string
	HomeTeam  string
	AwayTeam  string
	StartTime time.Time
	EndTime   time.Time
	HomeScore int
	AwayScore int
}

type MatchRepository interface {
	List(ctx context.Context, limit int) ([]Match, error)
	Get(ctx context.Context, id int64) (*Match, error)
	Create(ctx context.Context, m NewMatch, status MatchStatus) (*Match, error)
	UpdateStatus(ctx context.Context, id int64, status MatchStatus) error
	UpdateScore(ctx context.Context, id int64, score Score) (*Match, error)
}
