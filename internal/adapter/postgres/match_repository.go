package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pscheid92/livescore/internal/domain"
)

const matchColumns = `id, sport, home_team, away_team, status, start_time, end_time, home_score, away_score, created_at`

type MatchRepo struct {
	pool *pgxpool.Pool
}

var _ domain.MatchRepository = (*MatchRepo)(nil)

func NewMatchRepo(pool *pgxpool.Pool) *MatchRepo {
	return &MatchRepo{pool: pool}
}

func scanMatch(row pgx.Row) (*domain.Match, error) {
	var m domain.Match
	err := row.Scan(&m.ID, &m.Sport, &m.HomeTeam, &m.AwayTeam, &m.Status,
		&m.StartTime, &m.EndTime, &m.HomeScore, &m.AwayScore, &m.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// List returns up to limit matches, newest first.
func (r *MatchRepo) List(ctx context.Context, limit int) ([]domain.Match, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+matchColumns+` FROM matches ORDER BY created_at DESC, id DESC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list matches: %w", err)
	}
	defer rows.Close()

	matches := make([]domain.Match, 0, limit)
	for rows.Next() {
		m, err := scanMatch(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan match: %w", err)
		}
		matches = append(matches, *m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list matches: %w", err)
	}
	return matches, nil
}

func (r *MatchRepo) Get(ctx context.Context, id int64) (*domain.Match, error) {
	m, err := scanMatch(r.pool.QueryRow(ctx, `SELECT `+matchColumns+` FROM matches WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrMatchNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get match: %w", err)
	}
	return m, nil
}

func (r *MatchRepo) Create(ctx context.Context, nm domain.NewMatch, status domain.MatchStatus) (*domain.Match, error) {
	m, err := scanMatch(r.pool.QueryRow(ctx, `
		INSERT INTO matches (sport, home_team, away_team, status, start_time, end_time, home_score, away_score)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING `+matchColumns,
		nm.Sport, nm.HomeTeam, nm.AwayTeam, status, nm.StartTime, nm.EndTime, nm.HomeScore, nm.AwayScore))
	if err != nil {
		return nil, fmt.Errorf("failed to create match: %w", err)
	}
	return m, nil
}

func (r *MatchRepo) UpdateStatus(ctx context.Context, id int64, status domain.MatchStatus) error {
	tag, err := r.pool.Exec(ctx, `UPDATE matches SET status = $2 WHERE id = $1`, id, status)
	if err != nil {
		return fmt.Errorf("failed to update match status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrMatchNotFound
	}
	return nil
}

func (r *MatchRepo) UpdateScore(ctx context.Context, id int64, score domain.Score) (*domain.Match, error) {
	m, err := scanMatch(r.pool.QueryRow(ctx, `
		UPDATE matches SET home_score = $2, away_score = $3
		WHERE id = $1
		RETURNING `+matchColumns,
		id, score.HomeScore, score.AwayScore))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrMatchNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update score: %w", err)
	}
	return m, nil
}
