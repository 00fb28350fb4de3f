package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/Dosada05/robot-tournaments/brackets"
	"github.com/Dosada05/robot-tournaments/events"
	"github.com/Dosada05/robot-tournaments/models"
	"github.com/Dosada05/robot-tournaments/repositories"
)

type Champion struct {
	CompetitorID int64  `json:"competitor_id"`
	ClubID       *int64 `json:"club_id,omitempty"`
	BonusPoints  int64  `json:"bonus_points"`
}

type ResultOutcome struct {
	Match            *models.Match  `json:"match"`
	RoundComplete    bool           `json:"round_complete"`
	NextRoundMatches []models.Match `json:"next_round_matches,omitempty"`
	// Unpaired: победители, оставшиеся без соперника в следующем раунде.
	Unpaired []int64   `json:"unpaired,omitempty"`
	Champion *Champion `json:"champion,omitempty"`
}

type TournamentFinishedPayload struct {
	Tournament *models.Tournament `json:"tournament"`
	Champion   *Champion          `json:"champion"`
	Rounds     []brackets.Round   `json:"rounds"`
}

type MatchService interface {
	RecordResult(ctx context.Context, matchID, winnerID int64, victoryType string) (*ResultOutcome, error)
	GetMatch(ctx context.Context, matchID int64) (*models.Match, error)
	ListMatches(ctx context.Context, tournamentID int64, round *int) ([]models.Match, error)
}

type matchService struct {
	db               *sql.DB
	tournamentRepo   repositories.TournamentRepository
	matchRepo        repositories.MatchRepository
	registrationRepo repositories.RegistrationRepository
	robotRepo        repositories.RobotStatsRepository
	prizeRepo        repositories.PrizeRepository
	cooldownRepo     repositories.CooldownRepository
	ledger           ScoringLedger
	publisher        events.Publisher
	clock            Clock
	logger           *slog.Logger
}

func NewMatchService(
	db *sql.DB,
	tournamentRepo repositories.TournamentRepository,
	matchRepo repositories.MatchRepository,
	registrationRepo repositories.RegistrationRepository,
	robotRepo repositories.RobotStatsRepository,
	prizeRepo repositories.PrizeRepository,
	cooldownRepo repositories.CooldownRepository,
	ledger ScoringLedger,
	publisher events.Publisher,
	clock Clock,
	logger *slog.Logger,
) MatchService {
	if publisher == nil {
		publisher = events.Nop
	}
	if clock == nil {
		clock = systemClock
	}
	return &matchService{
		db:               db,
		tournamentRepo:   tournamentRepo,
		matchRepo:        matchRepo,
		registrationRepo: registrationRepo,
		robotRepo:        robotRepo,
		prizeRepo:        prizeRepo,
		cooldownRepo:     cooldownRepo,
		ledger:           ledger,
		publisher:        publisher,
		clock:            clock,
		logger:           defaultLogger(logger),
	}
}

// RecordResult сохраняет результат ожидающего матча и продвигает турнир. Пустой victoryType
// оставляет тип победы незаполненным. Когда раунд завершён, создаётся следующий раунд
// или определяется чемпион.
// Результаты одного турнира упорядочены блокировкой турнира: из двух одновременных
// отправок по одному матчу проходит ровно одна, вторая получает ErrAlreadyFinished.
func (s *matchService) RecordResult(ctx context.Context, matchID, winnerID int64, victoryType string) (*ResultOutcome, error) {
	victoryType = strings.TrimSpace(victoryType)
	if utf8.RuneCountInString(victoryType) > MaxVictoryTypeLength {
		return nil, ErrVictoryTypeInvalid
	}
	var victory *string
	if victoryType != "" {
		victory = &victoryType
	}

	now := s.clock()
	outcome := &ResultOutcome{}
	var tournamentID int64

	err := withTx(ctx, s.db, s.logger, func(tx *sql.Tx) error {
		var err error
		tournamentID, err = s.tournamentRepo.LockByMatch(ctx, tx, matchID)
		if err != nil {
			return mapRepositoryError(err)
		}
		match, err := s.matchRepo.GetByID(ctx, tx, matchID)
		if err != nil {
			return mapRepositoryError(err)
		}
		tournament, err := s.tournamentRepo.GetByID(ctx, tx, tournamentID)
		if err != nil {
			return mapRepositoryError(err)
		}
		if err := CanRecordResult(tournament, match); err != nil {
			return err
		}
		if err := ValidateWinner(match, winnerID); err != nil {
			return err
		}
		loserID := match.Opponent(winnerID)

		if err := s.matchRepo.Finish(ctx, tx, matchID, winnerID, victory, now); err != nil {
			return mapRepositoryError(err)
		}
		match.Status = models.MatchStatusFinished
		match.WinnerID = &winnerID
		match.VictoryType = victory
		match.FinishedAt = &now
		outcome.Match = match

		winnerReg, err := s.registrationOf(ctx, tx, tournamentID, winnerID)
		if err != nil {
			return err
		}
		loserReg, err := s.registrationOf(ctx, tx, tournamentID, loserID)
		if err != nil {
			return err
		}

		if winnerReg != nil {
			if err := s.robotRepo.RecordOutcome(ctx, tx, winnerReg.RobotID, true); err != nil {
				return err
			}
		}
		if loserReg != nil {
			if err := s.robotRepo.RecordOutcome(ctx, tx, loserReg.RobotID, false); err != nil {
				return err
			}
		}

		if err := s.ledger.Award(ctx, tx, winnerID, models.ScoreKindCompetitor, PointsPerWin); err != nil {
			return err
		}
		if winnerReg != nil {
			if err := s.ledger.Award(ctx, tx, winnerReg.ClubID, models.ScoreKindClub, PointsPerWin); err != nil {
				return err
			}
		}

		pending, err := s.matchRepo.CountPendingInRound(ctx, tx, tournamentID, match.RoundNumber)
		if err != nil {
			return err
		}
		if !CanAdvance(pending) {
			return nil
		}
		outcome.RoundComplete = true

		winners, err := s.matchRepo.ListRoundWinners(ctx, tx, tournamentID, match.RoundNumber)
		if err != nil {
			return err
		}
		if len(winners) == 1 {
			champion, err := s.finalize(ctx, tx, tournamentID, winners[0], now)
			if err != nil {
				return err
			}
			outcome.Champion = champion
			return nil
		}

		nextRound, unpaired, err := s.createNextRound(ctx, tx, match, winners, now)
		if err != nil {
			return err
		}
		outcome.NextRoundMatches = nextRound
		outcome.Unpaired = unpaired
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "match result recorded",
		slog.Int64("tournament_id", tournamentID),
		slog.Int64("match_id", matchID),
		slog.Int64("winner_id", winnerID),
		slog.String("victory_type", victoryType),
		slog.Bool("round_complete", outcome.RoundComplete))
	if len(outcome.Unpaired) > 0 {
		s.logger.WarnContext(ctx, "odd number of round winners, competitor left without opponent",
			slog.Int64("tournament_id", tournamentID), slog.Any("unpaired", outcome.Unpaired))
	}

	s.publishOutcome(ctx, tournamentID, outcome, now)
	return outcome, nil
}

// registrationOf возвращает nil, если у участника нет заявки в этом турнире.
func (s *matchService) registrationOf(ctx context.Context, tx *sql.Tx, tournamentID, competitorID int64) (*models.Registration, error) {
	reg, err := s.registrationRepo.FindByCompetitor(ctx, tx, tournamentID, competitorID)
	if err != nil {
		if errors.Is(err, repositories.ErrRegistrationNotFound) {
			s.logger.WarnContext(ctx, "competitor has no registration in tournament, robot and club updates skipped",
				slog.Int64("tournament_id", tournamentID), slog.Int64("competitor_id", competitorID))
			return nil, nil
		}
		return nil, err
	}
	return reg, nil
}

func (s *matchService) createNextRound(ctx context.Context, tx *sql.Tx, finished *models.Match, winners []int64, now time.Time) ([]models.Match, []int64, error) {
	pairs, unpaired := brackets.PairEntrants(winners)
	created := make([]models.Match, 0, len(pairs))
	for _, pair := range pairs {
		next := models.Match{
			TournamentID: finished.TournamentID,
			RoundNumber:  finished.RoundNumber + 1,
			CompetitorA:  pair.A,
			CompetitorB:  pair.B,
			JudgeID:      finished.JudgeID,
			DurationSec:  finished.DurationSec,
			Status:       models.MatchStatusPending,
			CreatedAt:    now,
		}
		if err := s.matchRepo.Create(ctx, tx, &next); err != nil {
			return nil, nil, mapRepositoryError(err)
		}
		created = append(created, next)
	}
	return created, unpaired, nil
}

func (s *matchService) finalize(ctx context.Context, tx *sql.Tx, tournamentID, championID int64, now time.Time) (*Champion, error) {
	championReg, err := s.registrationOf(ctx, tx, tournamentID, championID)
	if err != nil {
		return nil, err
	}
	champion := &Champion{CompetitorID: championID, BonusPoints: ChampionshipBonus}
	if championReg != nil {
		clubID := championReg.ClubID
		champion.ClubID = &clubID
	}

	if err := s.tournamentRepo.Finalize(ctx, tx, tournamentID, championID, champion.ClubID, now); err != nil {
		return nil, mapRepositoryError(err)
	}
	prize := &models.Prize{
		TournamentID: tournamentID,
		CompetitorID: championID,
		ClubID:       champion.ClubID,
		Prize:        models.PrizeChampion,
		VictoryType:  models.VictoryTypeChampionship,
		CreatedAt:    now,
	}
	if err := s.prizeRepo.Create(ctx, tx, prize); err != nil {
		return nil, mapRepositoryError(err)
	}

	if err := s.ledger.Award(ctx, tx, championID, models.ScoreKindCompetitor, ChampionshipBonus); err != nil {
		return nil, err
	}
	if champion.ClubID != nil {
		if err := s.ledger.Award(ctx, tx, *champion.ClubID, models.ScoreKindClub, ChampionshipBonus); err != nil {
			return nil, err
		}
	}

	registrations, err := s.registrationRepo.ListByTournament(ctx, tx, tournamentID)
	if err != nil {
		return nil, err
	}
	competitorIDs := make([]int64, len(registrations))
	for i, reg := range registrations {
		competitorIDs[i] = reg.CompetitorID
	}
	if err := s.cooldownRepo.MarkTournamentEnd(ctx, tx, competitorIDs, now); err != nil {
		return nil, err
	}
	return champion, nil
}

func (s *matchService) publishOutcome(ctx context.Context, tournamentID int64, outcome *ResultOutcome, now time.Time) {
	evs := []events.Event{{
		Type:         events.MatchFinished,
		TournamentID: tournamentID,
		Payload:      outcome.Match,
		OccurredAt:   now,
	}}
	if len(outcome.NextRoundMatches) > 0 {
		evs = append(evs, events.Event{
			Type:         events.RoundCreated,
			TournamentID: tournamentID,
			Payload:      outcome.NextRoundMatches,
			OccurredAt:   now,
		})
	}
	if outcome.Champion != nil {
		payload := &TournamentFinishedPayload{Champion: outcome.Champion}
		if tournament, err := s.tournamentRepo.GetByID(ctx, nil, tournamentID); err == nil {
			payload.Tournament = tournament
		}
		if matches, err := s.matchRepo.ListByTournament(ctx, nil, tournamentID, nil); err == nil {
			payload.Rounds = brackets.GroupByRound(matches)
		}
		evs = append(evs, events.Event{
			Type:         events.TournamentFinished,
			TournamentID: tournamentID,
			Payload:      payload,
			OccurredAt:   now,
		})
		s.logger.InfoContext(ctx, "tournament finished",
			slog.Int64("tournament_id", tournamentID), slog.Int64("champion_id", outcome.Champion.CompetitorID))
	}
	publishAfterCommit(ctx, s.publisher, s.logger, evs...)
}

func (s *matchService) GetMatch(ctx context.Context, matchID int64) (*models.Match, error) {
	match, err := s.matchRepo.GetByID(ctx, nil, matchID)
	if err != nil {
		return nil, mapRepositoryError(err)
	}
	return match, nil
}

func (s *matchService) ListMatches(ctx context.Context, tournamentID int64, round *int) ([]models.Match, error) {
	if round != nil && *round < 1 {
		return nil, fmt.Errorf("%w: round must be at least 1", ErrValidationFailed)
	}
	if _, err := s.tournamentRepo.GetByID(ctx, nil, tournamentID); err != nil {
		return nil, mapRepositoryError(err)
	}
	return s.matchRepo.ListByTournament(ctx, nil, tournamentID, round)
}
