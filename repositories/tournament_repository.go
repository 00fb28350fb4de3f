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
	ErrTournamentNotFound         = errors.New("tournament not found")
	ErrTournamentStatusConflict   = errors.New("tournament status changed concurrently")
	ErrTournamentMatchNotResolved = errors.New("match not found for tournament lock")
)

type ListTournamentsFilter struct {
	CategoryID *int64
	Status     *models.TournamentStatus
	Limit      int
	Offset     int
}

type TournamentRepository interface {
	Create(ctx context.Context, exec SQLExecutor, tournament *models.Tournament) error
	GetByID(ctx context.Context, exec SQLExecutor, id int64) (*models.Tournament, error)
	List(ctx context.Context, filter ListTournamentsFilter) ([]models.Tournament, error)
	// Lock serializes writers of one tournament until the surrounding transaction ends.
	Lock(ctx context.Context, exec SQLExecutor, id int64) error
	// LockByMatch locks the tournament owning matchID and returns its id.
	LockByMatch(ctx context.Context, exec SQLExecutor, matchID int64) (int64, error)
	TransitionStatus(ctx context.Context, exec SQLExecutor, id int64, from, to models.TournamentStatus, at time.Time) error
	Finalize(ctx context.Context, exec SQLExecutor, id int64, winnerCompetitorID int64, winnerClubID *int64, at time.Time) error
}

type postgresTournamentRepository struct {
	db *sql.DB
}

func NewPostgresTournamentRepository(db *sql.DB) TournamentRepository {
	return &postgresTournamentRepository{db: db}
}

func (r *postgresTournamentRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

const tournamentColumns = `
	id, name, description, category_id, max_participants, status,
	winner_competitor_id, winner_club_id, created_at, started_at, finished_at`

func scanTournament(row rowScanner, t *models.Tournament) error {
	return row.Scan(
		&t.ID, &t.Name, &t.Description, &t.CategoryID, &t.MaxParticipants, &t.Status,
		&t.WinnerCompetitorID, &t.WinnerClubID, &t.CreatedAt, &t.StartedAt, &t.FinishedAt,
	)
}

func (r *postgresTournamentRepository) Create(ctx context.Context, exec SQLExecutor, t *models.Tournament) error {
	executor := r.getExecutor(exec)
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now().UTC()
	}
	if t.Status == "" {
		t.Status = models.StatusDraft
	}
	query := `
		INSERT INTO tournaments (name, description, category_id, max_participants, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id`

	err := executor.QueryRowContext(ctx, query,
		t.Name, t.Description, t.CategoryID, t.MaxParticipants, t.Status, t.CreatedAt,
	).Scan(&t.ID)
	if err != nil {
		return fmt.Errorf("failed to create tournament: %w", ClassifyError(err))
	}
	return nil
}

func (r *postgresTournamentRepository) GetByID(ctx context.Context, exec SQLExecutor, id int64) (*models.Tournament, error) {
	executor := r.getExecutor(exec)
	query := `SELECT ` + tournamentColumns + ` FROM tournaments WHERE id = $1`

	t := &models.Tournament{}
	if err := scanTournament(executor.QueryRowContext(ctx, query, id), t); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTournamentNotFound
		}
		return nil, fmt.Errorf("failed to get tournament %d: %w", id, ClassifyError(err))
	}
	return t, nil
}

func (r *postgresTournamentRepository) List(ctx context.Context, filter ListTournamentsFilter) ([]models.Tournament, error) {
	query := `SELECT ` + tournamentColumns + ` FROM tournaments WHERE 1=1`

	args := []interface{}{}
	argID := 1

	if filter.CategoryID != nil {
		query += fmt.Sprintf(" AND category_id = $%d", argID)
		args = append(args, *filter.CategoryID)
		argID++
	}
	if filter.Status != nil {
		query += fmt.Sprintf(" AND status = $%d", argID)
		args = append(args, *filter.Status)
		argID++
	}

	query += " ORDER BY created_at DESC, id DESC"

	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", argID)
		args = append(args, filter.Limit)
		argID++
		if filter.Offset > 0 {
			query += fmt.Sprintf(" OFFSET $%d", argID)
			args = append(args, filter.Offset)
		}
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list tournaments: %w", ClassifyError(err))
	}
	defer rows.Close()

	tournaments := make([]models.Tournament, 0)
	for rows.Next() {
		var t models.Tournament
		if scanErr := scanTournament(rows, &t); scanErr != nil {
			return nil, fmt.Errorf("failed to scan tournament row: %w", scanErr)
		}
		tournaments = append(tournaments, t)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error during tournament rows iteration: %w", ClassifyError(err))
	}
	return tournaments, nil
}

// Lock bumps lock_version. In PostgreSQL the UPDATE takes the row lock, in SQLite it takes
// the database write lock; either way concurrent writers of this tournament queue here and
// every read after Lock sees their committed changes.
func (r *postgresTournamentRepository) Lock(ctx context.Context, exec SQLExecutor, id int64) error {
	executor := r.getExecutor(exec)
	result, err := executor.ExecContext(ctx, `UPDATE tournaments SET lock_version = lock_version + 1 WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to lock tournament %d: %w", id, ClassifyError(err))
	}
	return checkAffectedRows(result, ErrTournamentNotFound)
}

func (r *postgresTournamentRepository) LockByMatch(ctx context.Context, exec SQLExecutor, matchID int64) (int64, error) {
	executor := r.getExecutor(exec)
	query := `
		UPDATE tournaments SET lock_version = lock_version + 1
		WHERE id = (SELECT tournament_id FROM matches WHERE id = $1)
		RETURNING id`

	var tournamentID int64
	if err := executor.QueryRowContext(ctx, query, matchID).Scan(&tournamentID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, ErrTournamentMatchNotResolved
		}
		return 0, fmt.Errorf("failed to lock tournament of match %d: %w", matchID, ClassifyError(err))
	}
	return tournamentID, nil
}

// TransitionStatus is a compare-and-set: it only succeeds when the current status equals from.
func (r *postgresTournamentRepository) TransitionStatus(ctx context.Context, exec SQLExecutor, id int64, from, to models.TournamentStatus, at time.Time) error {
	executor := r.getExecutor(exec)
	var query string
	switch to {
	case models.StatusActive:
		query = `UPDATE tournaments SET status = $1, started_at = $2 WHERE id = $3 AND status = $4`
	case models.StatusFinished, models.StatusCancelled:
		query = `UPDATE tournaments SET status = $1, finished_at = $2 WHERE id = $3 AND status = $4`
	default:
		return fmt.Errorf("unsupported target status %q", to)
	}
	result, err := executor.ExecContext(ctx, query, to, at, id, from)
	if err != nil {
		return fmt.Errorf("failed to update tournament %d status: %w", id, ClassifyError(err))
	}
	return checkAffectedRows(result, ErrTournamentStatusConflict)
}

// Finalize marks an active tournament finished and records the champion.
func (r *postgresTournamentRepository) Finalize(ctx context.Context, exec SQLExecutor, id int64, winnerCompetitorID int64, winnerClubID *int64, at time.Time) error {
	executor := r.getExecutor(exec)
	query := `
		UPDATE tournaments
		SET status = $1, winner_competitor_id = $2, winner_club_id = $3, finished_at = $4
		WHERE id = $5 AND status = $6`
	result, err := executor.ExecContext(ctx, query,
		models.StatusFinished, winnerCompetitorID, winnerClubID, at, id, models.StatusActive)
	if err != nil {
		return fmt.Errorf("failed to finalize tournament %d: %w", id, ClassifyError(err))
	}
	return checkAffectedRows(result, ErrTournamentStatusConflict)
}
