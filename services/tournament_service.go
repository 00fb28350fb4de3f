package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/Dosada05/robot-tournaments/events"
	"github.com/Dosada05/robot-tournaments/models"
	"github.com/Dosada05/robot-tournaments/repositories"
)

const (
	minTournamentNameLength = 3
	maxTournamentNameLength = 255
	minParticipants         = 8
	maxParticipants         = 16

	DefaultListLimit = 20
	MaxListLimit     = 100
)

type CreateTournamentInput struct {
	Name            string  `json:"name"`
	Description     *string `json:"description"`
	CategoryID      int64   `json:"category_id"`
	MaxParticipants int     `json:"max_participants"`
}

type ListTournamentsInput struct {
	CategoryID *int64
	Status     *models.TournamentStatus
	Limit      int
	Offset     int
}

type TournamentService interface {
	Create(ctx context.Context, input CreateTournamentInput) (*models.Tournament, error)
	// GetByID возвращает турнир; с details также заявки и матчи.
	GetByID(ctx context.Context, id int64, details bool) (*models.Tournament, error)
	List(ctx context.Context, input ListTournamentsInput) ([]models.Tournament, error)
	Cancel(ctx context.Context, id int64) (*models.Tournament, error)
	GetPrize(ctx context.Context, id int64) (*models.Prize, error)
}

type tournamentService struct {
	db               *sql.DB
	tournamentRepo   repositories.TournamentRepository
	registrationRepo repositories.RegistrationRepository
	matchRepo        repositories.MatchRepository
	prizeRepo        repositories.PrizeRepository
	publisher        events.Publisher
	clock            Clock
	logger           *slog.Logger
}

func NewTournamentService(
	db *sql.DB,
	tournamentRepo repositories.TournamentRepository,
	registrationRepo repositories.RegistrationRepository,
	matchRepo repositories.MatchRepository,
	prizeRepo repositories.PrizeRepository,
	publisher events.Publisher,
	clock Clock,
	logger *slog.Logger,
) TournamentService {
	if publisher == nil {
		publisher = events.Nop
	}
	if clock == nil {
		clock = systemClock
	}
	return &tournamentService{
		db:               db,
		tournamentRepo:   tournamentRepo,
		registrationRepo: registrationRepo,
		matchRepo:        matchRepo,
		prizeRepo:        prizeRepo,
		publisher:        publisher,
		clock:            clock,
		logger:           defaultLogger(logger),
	}
}

func validateCreateTournament(input *CreateTournamentInput) error {
	input.Name = strings.TrimSpace(input.Name)
	if n := utf8.RuneCountInString(input.Name); n < minTournamentNameLength || n > maxTournamentNameLength {
		return ErrTournamentNameInvalid
	}
	if input.MaxParticipants < minParticipants || input.MaxParticipants > maxParticipants || input.MaxParticipants%4 != 0 {
		return ErrTournamentCapacityInvalid
	}
	if input.CategoryID <= 0 {
		return ErrCategoryRequired
	}
	if input.Description != nil {
		trimmed := strings.TrimSpace(*input.Description)
		if trimmed == "" {
			input.Description = nil
		} else {
			input.Description = &trimmed
		}
	}
	return nil
}

func (s *tournamentService) Create(ctx context.Context, input CreateTournamentInput) (*models.Tournament, error) {
	if err := validateCreateTournament(&input); err != nil {
		return nil, err
	}
	tournament := &models.Tournament{
		Name:            input.Name,
		Description:     input.Description,
		CategoryID:      input.CategoryID,
		MaxParticipants: input.MaxParticipants,
		Status:          models.StatusDraft,
		CreatedAt:       s.clock(),
	}
	if err := s.tournamentRepo.Create(ctx, nil, tournament); err != nil {
		return nil, err
	}
	s.logger.InfoContext(ctx, "tournament created",
		slog.Int64("tournament_id", tournament.ID), slog.String("name", tournament.Name))
	return tournament, nil
}

func (s *tournamentService) GetByID(ctx context.Context, id int64, details bool) (*models.Tournament, error) {
	tournament, err := s.tournamentRepo.GetByID(ctx, nil, id)
	if err != nil {
		return nil, mapRepositoryError(err)
	}
	if !details {
		return tournament, nil
	}

	registrations, err := s.registrationRepo.ListByTournament(ctx, nil, id)
	if err != nil {
		return nil, err
	}
	matches, err := s.matchRepo.ListByTournament(ctx, nil, id, nil)
	if err != nil {
		return nil, err
	}
	tournament.Registrations = registrations
	tournament.Matches = matches
	return tournament, nil
}

func (s *tournamentService) List(ctx context.Context, input ListTournamentsInput) ([]models.Tournament, error) {
	if input.Status != nil && !input.Status.Valid() {
		return nil, fmt.Errorf("%w: unknown status %q", ErrValidationFailed, *input.Status)
	}
	if input.Limit <= 0 {
		input.Limit = DefaultListLimit
	}
	if input.Limit > MaxListLimit {
		input.Limit = MaxListLimit
	}
	if input.Offset < 0 {
		input.Offset = 0
	}
	return s.tournamentRepo.List(ctx, repositories.ListTournamentsFilter{
		CategoryID: input.CategoryID,
		Status:     input.Status,
		Limit:      input.Limit,
		Offset:     input.Offset,
	})
}

// Cancel останавливает турнир в статусе draft или active. Ожидающие матчи остаются
// pending: результаты по ним больше не принимаются.
func (s *tournamentService) Cancel(ctx context.Context, id int64) (*models.Tournament, error) {
	now := s.clock()
	var cancelled *models.Tournament

	err := withTx(ctx, s.db, s.logger, func(tx *sql.Tx) error {
		if err := s.tournamentRepo.Lock(ctx, tx, id); err != nil {
			return mapRepositoryError(err)
		}
		tournament, err := s.tournamentRepo.GetByID(ctx, tx, id)
		if err != nil {
			return mapRepositoryError(err)
		}
		if err := CanCancel(tournament); err != nil {
			return err
		}
		if err := s.tournamentRepo.TransitionStatus(ctx, tx, id, tournament.Status, models.StatusCancelled, now); err != nil {
			return mapRepositoryError(err)
		}
		tournament.Status = models.StatusCancelled
		tournament.FinishedAt = &now
		cancelled = tournament
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "tournament cancelled", slog.Int64("tournament_id", id))
	publishAfterCommit(ctx, s.publisher, s.logger, events.Event{
		Type:         events.TournamentCancelled,
		TournamentID: id,
		Payload:      cancelled,
		OccurredAt:   now,
	})
	return cancelled, nil
}

func (s *tournamentService) GetPrize(ctx context.Context, id int64) (*models.Prize, error) {
	if _, err := s.tournamentRepo.GetByID(ctx, nil, id); err != nil {
		return nil, mapRepositoryError(err)
	}
	prize, err := s.prizeRepo.GetByTournament(ctx, nil, id)
	if err != nil {
		if errors.Is(err, repositories.ErrPrizeNotFound) {
			return nil, fmt.Errorf("prize %w", ErrNotFound)
		}
		return nil, err
	}
	return prize, nil
}
