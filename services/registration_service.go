package services

import (
	"context"
	"database/sql"
	"log/slog"

	"github.com/Dosada05/robot-tournaments/models"
	"github.com/Dosada05/robot-tournaments/repositories"
)

type JoinTournamentInput struct {
	CompetitorID int64 `json:"competitor_id"`
	ClubID       int64 `json:"club_id"`
	RobotID      int64 `json:"robot_id"`
}

// RegistrationService ведёт список заявок турнира. Движок турнира только читает его.
type RegistrationService interface {
	Join(ctx context.Context, tournamentID int64, input JoinTournamentInput) (*models.Registration, error)
	List(ctx context.Context, tournamentID int64) ([]models.Registration, error)
}

type registrationService struct {
	db               *sql.DB
	tournamentRepo   repositories.TournamentRepository
	registrationRepo repositories.RegistrationRepository
	cooldownRepo     repositories.CooldownRepository
	clock            Clock
	logger           *slog.Logger
}

func NewRegistrationService(
	db *sql.DB,
	tournamentRepo repositories.TournamentRepository,
	registrationRepo repositories.RegistrationRepository,
	cooldownRepo repositories.CooldownRepository,
	clock Clock,
	logger *slog.Logger,
) RegistrationService {
	if clock == nil {
		clock = systemClock
	}
	return &registrationService{
		db:               db,
		tournamentRepo:   tournamentRepo,
		registrationRepo: registrationRepo,
		cooldownRepo:     cooldownRepo,
		clock:            clock,
		logger:           defaultLogger(logger),
	}
}

// Join регистрирует участника с роботом от клуба. Одна заявка на участника и на клуб;
// участник, завершивший турнир менее PostTournamentBlock назад, ждёт окончания блокировки.
func (s *registrationService) Join(ctx context.Context, tournamentID int64, input JoinTournamentInput) (*models.Registration, error) {
	if input.CompetitorID <= 0 || input.ClubID <= 0 || input.RobotID <= 0 {
		return nil, ErrRegistrationFieldsInvalid
	}
	now := s.clock()
	var registration *models.Registration

	err := withTx(ctx, s.db, s.logger, func(tx *sql.Tx) error {
		if err := s.tournamentRepo.Lock(ctx, tx, tournamentID); err != nil {
			return mapRepositoryError(err)
		}
		tournament, err := s.tournamentRepo.GetByID(ctx, tx, tournamentID)
		if err != nil {
			return mapRepositoryError(err)
		}
		count, err := s.registrationRepo.CountByTournament(ctx, tx, tournamentID)
		if err != nil {
			return err
		}
		if err := CanJoin(tournament, count); err != nil {
			return err
		}

		lastEnd, err := s.cooldownRepo.GetLastTournamentEnd(ctx, tx, input.CompetitorID)
		if err != nil {
			return err
		}
		if lastEnd != nil && now.Sub(*lastEnd) < PostTournamentBlock {
			return ErrCompetitorBlocked
		}

		reg := &models.Registration{
			TournamentID: tournamentID,
			CompetitorID: input.CompetitorID,
			ClubID:       input.ClubID,
			RobotID:      input.RobotID,
			CategoryID:   tournament.CategoryID,
			CreatedAt:    now,
		}
		if err := s.registrationRepo.Create(ctx, tx, reg); err != nil {
			return mapRepositoryError(err)
		}
		registration = reg
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "competitor registered",
		slog.Int64("tournament_id", tournamentID),
		slog.Int64("competitor_id", input.CompetitorID),
		slog.Int64("club_id", input.ClubID))
	return registration, nil
}

func (s *registrationService) List(ctx context.Context, tournamentID int64) ([]models.Registration, error) {
	if _, err := s.tournamentRepo.GetByID(ctx, nil, tournamentID); err != nil {
		return nil, mapRepositoryError(err)
	}
	return s.registrationRepo.ListByTournament(ctx, nil, tournamentID)
}
