package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// CooldownRepository stores when each competitor last finished a tournament.
type CooldownRepository interface {
	MarkTournamentEnd(ctx context.Context, exec SQLExecutor, competitorIDs []int64, at time.Time) error
	// GetLastTournamentEnd returns nil when the competitor never finished a tournament.
	GetLastTournamentEnd(ctx context.Context, exec SQLExecutor, competitorID int64) (*time.Time, error)
}

type postgresCooldownRepository struct {
	db *sql.DB
}

func NewPostgresCooldownRepository(db *sql.DB) CooldownRepository {
	return &postgresCooldownRepository{db: db}
}

func (r *postgresCooldownRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

func (r *postgresCooldownRepository) MarkTournamentEnd(ctx context.Context, exec SQLExecutor, competitorIDs []int64, at time.Time) error {
	executor := r.getExecutor(exec)
	query := `
		INSERT INTO competitor_cooldowns (competitor_id, last_tournament_end) VALUES ($1, $2)
		ON CONFLICT (competitor_id) DO UPDATE SET last_tournament_end = EXCLUDED.last_tournament_end`

	for _, id := range competitorIDs {
		if _, err := executor.ExecContext(ctx, query, id, at); err != nil {
			return fmt.Errorf("failed to mark tournament end for competitor %d: %w", id, ClassifyError(err))
		}
	}
	return nil
}

func (r *postgresCooldownRepository) GetLastTournamentEnd(ctx context.Context, exec SQLExecutor, competitorID int64) (*time.Time, error) {
	executor := r.getExecutor(exec)
	var last time.Time
	err := executor.QueryRowContext(ctx,
		`SELECT last_tournament_end FROM competitor_cooldowns WHERE competitor_id = $1`, competitorID,
	).Scan(&last)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get cooldown of competitor %d: %w", competitorID, ClassifyError(err))
	}
	return &last, nil
}
