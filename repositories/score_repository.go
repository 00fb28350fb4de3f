package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Dosada05/robot-tournaments/models"
)

var ErrUnknownScoreKind = errors.New("unknown score kind")

// ScoreRepository keeps competitor and club point totals. Both tables share the same shape,
// only the table and key column differ.
type ScoreRepository interface {
	Increment(ctx context.Context, exec SQLExecutor, kind models.ScoreKind, subjectID int64, points int64) error
	GetTotal(ctx context.Context, exec SQLExecutor, kind models.ScoreKind, subjectID int64) (int64, error)
	Ranking(ctx context.Context, kind models.ScoreKind, skip, take int) ([]models.ScoreRecord, error)
	Count(ctx context.Context, kind models.ScoreKind) (int, error)
}

type postgresScoreRepository struct {
	db *sql.DB
}

func NewPostgresScoreRepository(db *sql.DB) ScoreRepository {
	return &postgresScoreRepository{db: db}
}

func (r *postgresScoreRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

func scoreTable(kind models.ScoreKind) (table, key string, err error) {
	switch kind {
	case models.ScoreKindCompetitor:
		return "competitor_scores", "competitor_id", nil
	case models.ScoreKindClub:
		return "club_scores", "club_id", nil
	}
	return "", "", fmt.Errorf("%w: %q", ErrUnknownScoreKind, kind)
}

// Increment creates the record on first award and adds points atomically afterwards.
func (r *postgresScoreRepository) Increment(ctx context.Context, exec SQLExecutor, kind models.ScoreKind, subjectID int64, points int64) error {
	table, key, err := scoreTable(kind)
	if err != nil {
		return err
	}
	executor := r.getExecutor(exec)
	query := fmt.Sprintf(`
		INSERT INTO %[1]s (%[2]s, total_points) VALUES ($1, $2)
		ON CONFLICT (%[2]s) DO UPDATE SET total_points = %[1]s.total_points + EXCLUDED.total_points`,
		table, key)

	if _, err = executor.ExecContext(ctx, query, subjectID, points); err != nil {
		return fmt.Errorf("failed to add %d points to %s %d: %w", points, kind, subjectID, ClassifyError(err))
	}
	return nil
}

// GetTotal returns 0 for subjects that never scored.
func (r *postgresScoreRepository) GetTotal(ctx context.Context, exec SQLExecutor, kind models.ScoreKind, subjectID int64) (int64, error) {
	table, key, err := scoreTable(kind)
	if err != nil {
		return 0, err
	}
	executor := r.getExecutor(exec)
	query := fmt.Sprintf(`SELECT total_points FROM %s WHERE %s = $1`, table, key)

	var total int64
	if err = executor.QueryRowContext(ctx, query, subjectID).Scan(&total); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to get %s %d total: %w", kind, subjectID, ClassifyError(err))
	}
	return total, nil
}

func (r *postgresScoreRepository) Ranking(ctx context.Context, kind models.ScoreKind, skip, take int) ([]models.ScoreRecord, error) {
	table, key, err := scoreTable(kind)
	if err != nil {
		return nil, err
	}
	query := fmt.Sprintf(`
		SELECT %[2]s, total_points FROM %[1]s
		ORDER BY total_points DESC, %[2]s ASC
		LIMIT $1 OFFSET $2`, table, key)

	rows, err := r.db.QueryContext(ctx, query, take, skip)
	if err != nil {
		return nil, fmt.Errorf("failed to query %s ranking: %w", kind, ClassifyError(err))
	}
	defer rows.Close()

	records := make([]models.ScoreRecord, 0)
	for rows.Next() {
		rec := models.ScoreRecord{Kind: kind}
		if scanErr := rows.Scan(&rec.SubjectID, &rec.TotalPoints); scanErr != nil {
			return nil, fmt.Errorf("failed to scan %s score row: %w", kind, scanErr)
		}
		records = append(records, rec)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error during %s score rows iteration: %w", kind, ClassifyError(err))
	}
	return records, nil
}

func (r *postgresScoreRepository) Count(ctx context.Context, kind models.ScoreKind) (int, error) {
	table, _, err := scoreTable(kind)
	if err != nil {
		return 0, err
	}
	var count int
	if err = r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM `+table).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count %s scores: %w", kind, ClassifyError(err))
	}
	return count, nil
}
