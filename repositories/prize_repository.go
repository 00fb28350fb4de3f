package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Dosada05/robot-tournaments/models"
)

var (
	ErrPrizeNotFound      = errors.New("prize not found")
	ErrPrizeAlreadyExists = errors.New("tournament already has a championship prize")
)

type PrizeRepository interface {
	Create(ctx context.Context, exec SQLExecutor, prize *models.Prize) error
	GetByTournament(ctx context.Context, exec SQLExecutor, tournamentID int64) (*models.Prize, error)
}

type postgresPrizeRepository struct {
	db *sql.DB
}

func NewPostgresPrizeRepository(db *sql.DB) PrizeRepository {
	return &postgresPrizeRepository{db: db}
}

func (r *postgresPrizeRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

func (r *postgresPrizeRepository) Create(ctx context.Context, exec SQLExecutor, prize *models.Prize) error {
	executor := r.getExecutor(exec)
	if prize.CreatedAt.IsZero() {
		prize.CreatedAt = time.Now().UTC()
	}
	query := `
		INSERT INTO tournament_prizes (tournament_id, competitor_id, club_id, prize, victory_type, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id`

	err := executor.QueryRowContext(ctx, query,
		prize.TournamentID, prize.CompetitorID, prize.ClubID, prize.Prize, prize.VictoryType, prize.CreatedAt,
	).Scan(&prize.ID)
	if err != nil {
		if _, ok := uniqueConstraint(err); ok {
			return ErrPrizeAlreadyExists
		}
		return fmt.Errorf("failed to create prize for tournament %d: %w", prize.TournamentID, ClassifyError(err))
	}
	return nil
}

func (r *postgresPrizeRepository) GetByTournament(ctx context.Context, exec SQLExecutor, tournamentID int64) (*models.Prize, error) {
	executor := r.getExecutor(exec)
	query := `
		SELECT id, tournament_id, competitor_id, club_id, prize, victory_type, created_at
		FROM tournament_prizes WHERE tournament_id = $1`

	p := &models.Prize{}
	err := executor.QueryRowContext(ctx, query, tournamentID).Scan(
		&p.ID, &p.TournamentID, &p.CompetitorID, &p.ClubID, &p.Prize, &p.VictoryType, &p.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrPrizeNotFound
		}
		return nil, fmt.Errorf("failed to get prize of tournament %d: %w", tournamentID, ClassifyError(err))
	}
	return p, nil
}
