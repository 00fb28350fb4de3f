package services

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/Dosada05/robot-tournaments/brackets"
	"github.com/Dosada05/robot-tournaments/events"
	"github.com/Dosada05/robot-tournaments/models"
	"github.com/Dosada05/robot-tournaments/repositories"
)

type StartResult struct {
	Matches     []models.Match `json:"matches"`
	TotalPaired int            `json:"total_paired"`
	// Unpaired: участники, оставшиеся без пары при нечётном количестве. Дальше в турнире
	// они не участвуют.
	Unpaired []int64 `json:"unpaired"`
}

type BracketView struct {
	Tournament *models.Tournament `json:"tournament"`
	Rounds     []brackets.Round   `json:"rounds"`
}

type BracketService interface {
	StartTournament(ctx context.Context, tournamentID, judgeID int64, durationSec int) (*StartResult, error)
	GetBracket(ctx context.Context, tournamentID int64) (*BracketView, error)
}

type bracketService struct {
	db               *sql.DB
	tournamentRepo   repositories.TournamentRepository
	registrationRepo repositories.RegistrationRepository
	matchRepo        repositories.MatchRepository
	shuffler         brackets.Shuffler
	publisher        events.Publisher
	clock            Clock
	logger           *slog.Logger
}

func NewBracketService(
	db *sql.DB,
	tournamentRepo repositories.TournamentRepository,
	registrationRepo repositories.RegistrationRepository,
	matchRepo repositories.MatchRepository,
	shuffler brackets.Shuffler,
	publisher events.Publisher,
	clock Clock,
	logger *slog.Logger,
) BracketService {
	if shuffler == nil {
		shuffler = brackets.NewTimeSeededShuffler()
	}
	if publisher == nil {
		publisher = events.Nop
	}
	if clock == nil {
		clock = systemClock
	}
	return &bracketService{
		db:               db,
		tournamentRepo:   tournamentRepo,
		registrationRepo: registrationRepo,
		matchRepo:        matchRepo,
		shuffler:         shuffler,
		publisher:        publisher,
		clock:            clock,
		logger:           defaultLogger(logger),
	}
}

// StartTournament перемешивает заявленных участников, создаёт первый раунд и переводит
// турнир в active в одной транзакции. Из двух одновременных запусков проходит один,
// второй видит активный турнир и получает ErrInvalidState.
func (s *bracketService) StartTournament(ctx context.Context, tournamentID, judgeID int64, durationSec int) (*StartResult, error) {
	if judgeID <= 0 {
		return nil, ErrJudgeRequired
	}
	if durationSec < 0 {
		return nil, ErrDurationInvalid
	}
	if durationSec == 0 {
		durationSec = DefaultCombatDurationSec
	}

	now := s.clock()
	result := &StartResult{Matches: make([]models.Match, 0), Unpaired: make([]int64, 0)}

	err := withTx(ctx, s.db, s.logger, func(tx *sql.Tx) error {
		if err := s.tournamentRepo.Lock(ctx, tx, tournamentID); err != nil {
			return mapRepositoryError(err)
		}
		tournament, err := s.tournamentRepo.GetByID(ctx, tx, tournamentID)
		if err != nil {
			return mapRepositoryError(err)
		}
		registrations, err := s.registrationRepo.ListByTournament(ctx, tx, tournamentID)
		if err != nil {
			return err
		}
		if err := CanStart(tournament, len(registrations)); err != nil {
			return err
		}

		entrants := make([]int64, len(registrations))
		for i, reg := range registrations {
			entrants[i] = reg.CompetitorID
		}
		pairs, unpaired := brackets.PairEntrants(brackets.ShuffleEntrants(s.shuffler, entrants))

		for _, pair := range pairs {
			match := models.Match{
				TournamentID: tournamentID,
				RoundNumber:  1,
				CompetitorA:  pair.A,
				CompetitorB:  pair.B,
				JudgeID:      judgeID,
				DurationSec:  durationSec,
				Status:       models.MatchStatusPending,
				CreatedAt:    now,
			}
			if err := s.matchRepo.Create(ctx, tx, &match); err != nil {
				return mapRepositoryError(err)
			}
			result.Matches = append(result.Matches, match)
		}
		result.TotalPaired = 2 * len(pairs)
		if unpaired != nil {
			result.Unpaired = unpaired
		}

		if err := s.tournamentRepo.TransitionStatus(ctx, tx, tournamentID, models.StatusDraft, models.StatusActive, now); err != nil {
			return mapRepositoryError(err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "tournament started",
		slog.Int64("tournament_id", tournamentID),
		slog.Int("matches", len(result.Matches)),
		slog.Int64("judge_id", judgeID))
	if len(result.Unpaired) > 0 {
		s.logger.WarnContext(ctx, "odd number of entrants, competitor left without opponent",
			slog.Int64("tournament_id", tournamentID), slog.Any("unpaired", result.Unpaired))
	}

	publishAfterCommit(ctx, s.publisher, s.logger, events.Event{
		Type:         events.TournamentStarted,
		TournamentID: tournamentID,
		Payload:      result,
		OccurredAt:   now,
	})
	return result, nil
}

func (s *bracketService) GetBracket(ctx context.Context, tournamentID int64) (*BracketView, error) {
	tournament, err := s.tournamentRepo.GetByID(ctx, nil, tournamentID)
	if err != nil {
		return nil, mapRepositoryError(err)
	}
	matches, err := s.matchRepo.ListByTournament(ctx, nil, tournamentID, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to load bracket of tournament %d: %w", tournamentID, err)
	}
	return &BracketView{Tournament: tournament, Rounds: brackets.GroupByRound(matches)}, nil
}
