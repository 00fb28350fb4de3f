package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Dosada05/robot-tournaments/events"
	"github.com/Dosada05/robot-tournaments/repositories"
)

const (
	// PointsPerWin начисляется участнику и клубу за каждую победу в матче.
	PointsPerWin int64 = 10
	// ChampionshipBonus начисляется чемпиону и его клубу при завершении турнира.
	ChampionshipBonus = 3 * PointsPerWin

	DefaultCombatDurationSec = 1800
	MaxVictoryTypeLength     = 100
	PostTournamentBlock      = 7 * 24 * time.Hour

	publishTimeout = 5 * time.Second
)

// Clock возвращает текущее время. В тестах подставляются фиксированные часы.
type Clock func() time.Time

func systemClock() time.Time {
	return time.Now().UTC()
}

// withTx выполняет fn в одной транзакции: commit, если fn вернула nil, иначе rollback.
// Отмена ctx прерывает транзакцию.
func withTx(ctx context.Context, db *sql.DB, logger *slog.Logger, fn func(tx *sql.Tx) error) (txErr error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", repositories.ClassifyError(err))
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		} else if txErr != nil {
			if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
				logger.ErrorContext(ctx, "transaction rollback failed", slog.Any("error", rbErr), slog.Any("cause", txErr))
			}
		} else if cErr := tx.Commit(); cErr != nil {
			txErr = fmt.Errorf("failed to commit transaction: %w", repositories.ClassifyError(cErr))
		}
	}()

	txErr = fn(tx)
	return txErr
}

// mapRepositoryError переводит ошибки репозиториев в виды ошибок сервиса.
func mapRepositoryError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repositories.ErrTournamentNotFound),
		errors.Is(err, repositories.ErrRegistrationTournamentInvalid):
		return ErrTournamentNotFound
	case errors.Is(err, repositories.ErrMatchNotFound),
		errors.Is(err, repositories.ErrTournamentMatchNotResolved):
		return ErrMatchNotFound
	case errors.Is(err, repositories.ErrRegistrationNotFound):
		return ErrRegistrationNotFound
	case errors.Is(err, repositories.ErrMatchNotPending):
		return ErrAlreadyFinished
	case errors.Is(err, repositories.ErrTournamentStatusConflict):
		return fmt.Errorf("%w: %w", ErrInvalidState, err)
	case errors.Is(err, repositories.ErrMatchDuplicatePair),
		errors.Is(err, repositories.ErrPrizeAlreadyExists):
		return fmt.Errorf("%w: %w", ErrInvalidState, err)
	case errors.Is(err, repositories.ErrRegistrationCompetitorConflict):
		return ErrRegistrationConflict
	case errors.Is(err, repositories.ErrRegistrationClubConflict):
		return ErrClubAlreadyEntered
	}
	return err
}

// publishAfterCommit рассылает события после фиксации описанного ими состояния. Ошибки
// доставки только логируются и не возвращаются вызывающему.
func publishAfterCommit(ctx context.Context, publisher events.Publisher, logger *slog.Logger, evs ...events.Event) {
	if publisher == nil || len(evs) == 0 {
		return
	}
	pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()
	for _, ev := range evs {
		if err := publisher.Publish(pubCtx, ev); err != nil {
			logger.WarnContext(ctx, "failed to publish tournament event",
				slog.String("event", string(ev.Type)), slog.Int64("tournament_id", ev.TournamentID), slog.Any("error", err))
		}
	}
}

func defaultLogger(logger *slog.Logger) *slog.Logger {
	if logger == nil {
		return slog.Default()
	}
	return logger
}
