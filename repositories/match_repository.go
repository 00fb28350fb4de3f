package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/Dosada05/robot-tournaments/models"
)

var (
	ErrMatchNotFound       = errors.New("match not found")
	ErrMatchNotPending     = errors.New("match is not pending")
	ErrMatchDuplicatePair  = errors.New("match for this competitor already exists in the round")
	ErrMatchTournamentGone = errors.New("match tournament does not exist")
)

type MatchRepository interface {
	Create(ctx context.Context, exec SQLExecutor, match *models.Match) error
	GetByID(ctx context.Context, exec SQLExecutor, id int64) (*models.Match, error)
	ListByTournament(ctx context.Context, exec SQLExecutor, tournamentID int64, round *int) ([]models.Match, error)
	// Finish moves a pending match to finished. ErrMatchNotPending when it was already finished.
	// A nil victoryType is stored as NULL.
	Finish(ctx context.Context, exec SQLExecutor, id int64, winnerID int64, victoryType *string, at time.Time) error
	CountPendingInRound(ctx context.Context, exec SQLExecutor, tournamentID int64, round int) (int, error)
	// ListRoundWinners returns winners of the round in match creation order.
	ListRoundWinners(ctx context.Context, exec SQLExecutor, tournamentID int64, round int) ([]int64, error)
}

type postgresMatchRepository struct {
	db *sql.DB
}

func NewPostgresMatchRepository(db *sql.DB) MatchRepository {
	return &postgresMatchRepository{db: db}
}

func (r *postgresMatchRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

const matchColumns = `
	id, tournament_id, round_number, competitor_a, competitor_b, judge_id, duration_sec,
	status, winner_id, victory_type, created_at, finished_at`

func scanMatch(row rowScanner, m *models.Match) error {
	return row.Scan(
		&m.ID,
		&m.TournamentID,
		&m.RoundNumber,
		&m.CompetitorA,
		&m.CompetitorB,
		&m.JudgeID,
		&m.DurationSec,
		&m.Status,
		&m.WinnerID,
		&m.VictoryType,
		&m.CreatedAt,
		&m.FinishedAt,
	)
}

func (r *postgresMatchRepository) Create(ctx context.Context, exec SQLExecutor, match *models.Match) error {
	executor := r.getExecutor(exec)
	if match.CreatedAt.IsZero() {
		match.CreatedAt = time.Now().UTC()
	}
	if match.Status == "" {
		match.Status = models.MatchStatusPending
	}
	query := `
		INSERT INTO matches
			(tournament_id, round_number, competitor_a, competitor_b, judge_id, duration_sec, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id`

	err := executor.QueryRowContext(ctx, query,
		match.TournamentID,
		match.RoundNumber,
		match.CompetitorA,
		match.CompetitorB,
		match.JudgeID,
		match.DurationSec,
		match.Status,
		match.CreatedAt,
	).Scan(&match.ID)
	return r.handleMatchError(err)
}

func (r *postgresMatchRepository) GetByID(ctx context.Context, exec SQLExecutor, id int64) (*models.Match, error) {
	executor := r.getExecutor(exec)
	query := `SELECT ` + matchColumns + ` FROM matches WHERE id = $1`

	match := &models.Match{}
	if err := scanMatch(executor.QueryRowContext(ctx, query, id), match); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrMatchNotFound
		}
		return nil, fmt.Errorf("failed to scan match by id %d: %w", id, ClassifyError(err))
	}
	return match, nil
}

func (r *postgresMatchRepository) ListByTournament(ctx context.Context, exec SQLExecutor, tournamentID int64, round *int) ([]models.Match, error) {
	executor := r.getExecutor(exec)

	var queryBuilder strings.Builder
	queryBuilder.WriteString(`SELECT ` + matchColumns + ` FROM matches WHERE tournament_id = $1`)
	args := []interface{}{tournamentID}

	if round != nil {
		queryBuilder.WriteString(" AND round_number = $")
		queryBuilder.WriteString(strconv.Itoa(len(args) + 1))
		args = append(args, *round)
	}
	queryBuilder.WriteString(" ORDER BY round_number ASC, id ASC")

	rows, err := executor.QueryContext(ctx, queryBuilder.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query matches for tournament %d: %w", tournamentID, ClassifyError(err))
	}
	defer rows.Close()

	matches := make([]models.Match, 0)
	for rows.Next() {
		var m models.Match
		if scanErr := scanMatch(rows, &m); scanErr != nil {
			return nil, fmt.Errorf("failed to scan match row: %w", scanErr)
		}
		matches = append(matches, m)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error during match rows iteration: %w", ClassifyError(err))
	}
	return matches, nil
}

func (r *postgresMatchRepository) Finish(ctx context.Context, exec SQLExecutor, id int64, winnerID int64, victoryType *string, at time.Time) error {
	executor := r.getExecutor(exec)
	query := `
		UPDATE matches
		SET status = $1, winner_id = $2, victory_type = $3, finished_at = $4
		WHERE id = $5 AND status = $6`

	result, err := executor.ExecContext(ctx, query,
		models.MatchStatusFinished, winnerID, victoryType, at, id, models.MatchStatusPending)
	if err != nil {
		return r.handleMatchError(err)
	}
	return checkAffectedRows(result, ErrMatchNotPending)
}

func (r *postgresMatchRepository) CountPendingInRound(ctx context.Context, exec SQLExecutor, tournamentID int64, round int) (int, error) {
	executor := r.getExecutor(exec)
	query := `SELECT COUNT(*) FROM matches WHERE tournament_id = $1 AND round_number = $2 AND status = $3`

	var count int
	if err := executor.QueryRowContext(ctx, query, tournamentID, round, models.MatchStatusPending).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count pending matches of round %d: %w", round, ClassifyError(err))
	}
	return count, nil
}

func (r *postgresMatchRepository) ListRoundWinners(ctx context.Context, exec SQLExecutor, tournamentID int64, round int) ([]int64, error) {
	executor := r.getExecutor(exec)
	query := `
		SELECT winner_id FROM matches
		WHERE tournament_id = $1 AND round_number = $2 AND status = $3 AND winner_id IS NOT NULL
		ORDER BY id ASC`

	rows, err := executor.QueryContext(ctx, query, tournamentID, round, models.MatchStatusFinished)
	if err != nil {
		return nil, fmt.Errorf("failed to query winners of round %d: %w", round, ClassifyError(err))
	}
	defer rows.Close()

	winners := make([]int64, 0)
	for rows.Next() {
		var id int64
		if scanErr := rows.Scan(&id); scanErr != nil {
			return nil, fmt.Errorf("failed to scan winner row: %w", scanErr)
		}
		winners = append(winners, id)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error during winner rows iteration: %w", ClassifyError(err))
	}
	return winners, nil
}

func (r *postgresMatchRepository) handleMatchError(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := uniqueConstraint(err); ok {
		return ErrMatchDuplicatePair
	}
	if isForeignKeyViolation(err) {
		return ErrMatchTournamentGone
	}
	return fmt.Errorf("match query failed: %w", ClassifyError(err))
}
