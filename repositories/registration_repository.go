package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Dosada05/robot-tournaments/models"
)

var (
	ErrRegistrationNotFound           = errors.New("registration not found")
	ErrRegistrationCompetitorConflict = errors.New("competitor is already registered in this tournament")
	ErrRegistrationClubConflict       = errors.New("club is already registered in this tournament")
	ErrRegistrationTournamentInvalid  = errors.New("registration tournament does not exist")
)

type RegistrationRepository interface {
	Create(ctx context.Context, exec SQLExecutor, registration *models.Registration) error
	ListByTournament(ctx context.Context, exec SQLExecutor, tournamentID int64) ([]models.Registration, error)
	FindByCompetitor(ctx context.Context, exec SQLExecutor, tournamentID, competitorID int64) (*models.Registration, error)
	CountByTournament(ctx context.Context, exec SQLExecutor, tournamentID int64) (int, error)
}

type postgresRegistrationRepository struct {
	db *sql.DB
}

func NewPostgresRegistrationRepository(db *sql.DB) RegistrationRepository {
	return &postgresRegistrationRepository{db: db}
}

func (r *postgresRegistrationRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

const registrationColumns = `id, tournament_id, competitor_id, club_id, robot_id, category_id, created_at`

func scanRegistration(row rowScanner, reg *models.Registration) error {
	return row.Scan(
		&reg.ID, &reg.TournamentID, &reg.CompetitorID, &reg.ClubID,
		&reg.RobotID, &reg.CategoryID, &reg.CreatedAt,
	)
}

func (r *postgresRegistrationRepository) Create(ctx context.Context, exec SQLExecutor, reg *models.Registration) error {
	executor := r.getExecutor(exec)
	if reg.CreatedAt.IsZero() {
		reg.CreatedAt = time.Now().UTC()
	}
	query := `
		INSERT INTO registrations (tournament_id, competitor_id, club_id, robot_id, category_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id`

	err := executor.QueryRowContext(ctx, query,
		reg.TournamentID, reg.CompetitorID, reg.ClubID, reg.RobotID, reg.CategoryID, reg.CreatedAt,
	).Scan(&reg.ID)
	return r.handleRegistrationError(err)
}

// ListByTournament returns registrations in sign-up order.
func (r *postgresRegistrationRepository) ListByTournament(ctx context.Context, exec SQLExecutor, tournamentID int64) ([]models.Registration, error) {
	executor := r.getExecutor(exec)
	query := `SELECT ` + registrationColumns + ` FROM registrations WHERE tournament_id = $1 ORDER BY id ASC`

	rows, err := executor.QueryContext(ctx, query, tournamentID)
	if err != nil {
		return nil, fmt.Errorf("failed to query registrations for tournament %d: %w", tournamentID, ClassifyError(err))
	}
	defer rows.Close()

	registrations := make([]models.Registration, 0)
	for rows.Next() {
		var reg models.Registration
		if scanErr := scanRegistration(rows, &reg); scanErr != nil {
			return nil, fmt.Errorf("failed to scan registration row: %w", scanErr)
		}
		registrations = append(registrations, reg)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error during registration rows iteration: %w", ClassifyError(err))
	}
	return registrations, nil
}

func (r *postgresRegistrationRepository) FindByCompetitor(ctx context.Context, exec SQLExecutor, tournamentID, competitorID int64) (*models.Registration, error) {
	executor := r.getExecutor(exec)
	query := `SELECT ` + registrationColumns + ` FROM registrations WHERE tournament_id = $1 AND competitor_id = $2`

	reg := &models.Registration{}
	if err := scanRegistration(executor.QueryRowContext(ctx, query, tournamentID, competitorID), reg); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrRegistrationNotFound
		}
		return nil, fmt.Errorf("failed to get registration of competitor %d: %w", competitorID, ClassifyError(err))
	}
	return reg, nil
}

func (r *postgresRegistrationRepository) CountByTournament(ctx context.Context, exec SQLExecutor, tournamentID int64) (int, error) {
	executor := r.getExecutor(exec)
	var count int
	err := executor.QueryRowContext(ctx, `SELECT COUNT(*) FROM registrations WHERE tournament_id = $1`, tournamentID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count registrations for tournament %d: %w", tournamentID, ClassifyError(err))
	}
	return count, nil
}

func (r *postgresRegistrationRepository) handleRegistrationError(err error) error {
	if err == nil {
		return nil
	}
	if constraint, ok := uniqueConstraint(err); ok {
		switch {
		case strings.Contains(constraint, "registrations_tournament_competitor_key"),
			strings.Contains(constraint, "competitor_id"):
			return ErrRegistrationCompetitorConflict
		case strings.Contains(constraint, "registrations_tournament_club_key"),
			strings.Contains(constraint, "club_id"):
			return ErrRegistrationClubConflict
		}
		return ErrUniqueViolation
	}
	if isForeignKeyViolation(err) {
		return ErrRegistrationTournamentInvalid
	}
	return fmt.Errorf("registration query failed: %w", ClassifyError(err))
}
