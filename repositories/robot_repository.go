package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Dosada05/robot-tournaments/models"
)

type RobotStatsRepository interface {
	// RecordOutcome adds one played match to the robot and a win or a loss.
	RecordOutcome(ctx context.Context, exec SQLExecutor, robotID int64, won bool) error
	GetByRobot(ctx context.Context, exec SQLExecutor, robotID int64) (*models.RobotStats, error)
}

type postgresRobotStatsRepository struct {
	db *sql.DB
}

func NewPostgresRobotStatsRepository(db *sql.DB) RobotStatsRepository {
	return &postgresRobotStatsRepository{db: db}
}

func (r *postgresRobotStatsRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

func (r *postgresRobotStatsRepository) RecordOutcome(ctx context.Context, exec SQLExecutor, robotID int64, won bool) error {
	executor := r.getExecutor(exec)
	wins, losses := 0, 1
	if won {
		wins, losses = 1, 0
	}
	query := `
		INSERT INTO robot_stats (robot_id, wins, losses, matches_played) VALUES ($1, $2, $3, 1)
		ON CONFLICT (robot_id) DO UPDATE SET
			wins = robot_stats.wins + EXCLUDED.wins,
			losses = robot_stats.losses + EXCLUDED.losses,
			matches_played = robot_stats.matches_played + 1`

	if _, err := executor.ExecContext(ctx, query, robotID, wins, losses); err != nil {
		return fmt.Errorf("failed to record outcome for robot %d: %w", robotID, ClassifyError(err))
	}
	return nil
}

// GetByRobot returns zero counters for robots that never fought.
func (r *postgresRobotStatsRepository) GetByRobot(ctx context.Context, exec SQLExecutor, robotID int64) (*models.RobotStats, error) {
	executor := r.getExecutor(exec)
	stats := &models.RobotStats{RobotID: robotID}
	err := executor.QueryRowContext(ctx,
		`SELECT wins, losses, matches_played FROM robot_stats WHERE robot_id = $1`, robotID,
	).Scan(&stats.Wins, &stats.Losses, &stats.MatchesPlayed)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("failed to get stats of robot %d: %w", robotID, ClassifyError(err))
	}
	return stats, nil
}
