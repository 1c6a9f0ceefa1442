package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pscheid92/livescore/internal/domain"
)

const (
	commentaryColumns = `id, match_id, minute, sequence, period, event_type, actor, team, message, metadata, tags, created_at`

	foreignKeyViolation = "23503"
)

type CommentaryRepo struct {
	pool *pgxpool.Pool
}

var _ domain.CommentaryRepository = (*CommentaryRepo)(nil)

func NewCommentaryRepo(pool *pgxpool.Pool) *CommentaryRepo {
	return &CommentaryRepo{pool: pool}
}

func scanCommentary(row pgx.Row) (*domain.Commentary, error) {
	var c domain.Commentary
	err := row.Scan(&c.ID, &c.MatchID, &c.Minute, &c.Sequence, &c.Period, &c.EventType,
		&c.Actor, &c.Team, &c.Message, &c.Metadata, &c.Tags, &c.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *CommentaryRepo) List(ctx context.Context, matchID int64, limit int) ([]domain.Commentary, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+commentaryColumns+` FROM commentary
		WHERE match_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2`, matchID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list commentary: %w", err)
	}
	defer rows.Close()

	entries := make([]domain.Commentary, 0, limit)
	for rows.Next() {
		c, err := scanCommentary(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan commentary: %w", err)
		}
		entries = append(entries, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list commentary: %w", err)
	}
	return entries, nil
}

func (r *CommentaryRepo) Create(ctx context.Context, matchID int64, nc domain.NewCommentary) (*domain.Commentary, error) {
	tags := nc.Tags
	if tags == nil {
		tags = []string{}
	}

	c, err := scanCommentary(r.pool.QueryRow(ctx, `
		INSERT INTO commentary (match_id, minute, sequence, period, event_type, actor, team, message, metadata, tags)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING `+commentaryColumns,
		matchID, nc.Minute, nc.Sequence, nc.Period, nc.EventType, nc.Actor, nc.Team, nc.Message, nc.Metadata, tags))

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == foreignKeyViolation {
		return nil, domain.ErrMatchNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create commentary: %w", err)
	}
	return c, nil
}
