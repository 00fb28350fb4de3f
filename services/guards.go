package services

import (
	"fmt"

	"github.com/Dosada05/robot-tournaments/models"
)

// Проверки состояния турнира: чистые функции над загруженными моделями, без I/O.

var allowedTransitions = map[models.TournamentStatus][]models.TournamentStatus{
	models.StatusDraft:     {models.StatusActive, models.StatusCancelled},
	models.StatusActive:    {models.StatusFinished, models.StatusCancelled},
	models.StatusFinished:  {},
	models.StatusCancelled: {},
}

func CanTransition(current, next models.TournamentStatus) bool {
	for _, allowed := range allowedTransitions[current] {
		if next == allowed {
			return true
		}
	}
	return false
}

func CanStart(t *models.Tournament, entrants int) error {
	if t == nil {
		return ErrTournamentNotFound
	}
	if t.Status != models.StatusDraft {
		return fmt.Errorf("%w (tournament %d is %s)", ErrTournamentNotDraft, t.ID, t.Status)
	}
	if entrants < 2 {
		return fmt.Errorf("%w: %d registered", ErrInsufficientEntrants, entrants)
	}
	return nil
}

// CanRecordResult проверяет матч перед сохранением результата. Состояние матча проверяется
// раньше состояния турнира, поэтому повторная отправка всегда получает ErrAlreadyFinished.
func CanRecordResult(t *models.Tournament, m *models.Match) error {
	if m == nil {
		return ErrMatchNotFound
	}
	if m.Status == models.MatchStatusFinished {
		return fmt.Errorf("%w (match %d)", ErrAlreadyFinished, m.ID)
	}
	if t == nil {
		return ErrTournamentNotFound
	}
	if t.Status != models.StatusActive {
		return fmt.Errorf("%w (tournament %d is %s)", ErrTournamentNotActive, t.ID, t.Status)
	}
	return nil
}

func ValidateWinner(m *models.Match, winnerID int64) error {
	if !m.HasCompetitor(winnerID) {
		return fmt.Errorf("%w: competitor %d is not in match %d", ErrInvalidWinner, winnerID, m.ID)
	}
	return nil
}

// CanAdvance сообщает, завершён ли раунд.
func CanAdvance(pendingInRound int) bool {
	return pendingInRound == 0
}

func CanCancel(t *models.Tournament) error {
	if t == nil {
		return ErrTournamentNotFound
	}
	if !CanTransition(t.Status, models.StatusCancelled) {
		return fmt.Errorf("%w (tournament %d is %s)", ErrTournamentTerminal, t.ID, t.Status)
	}
	return nil
}

func CanJoin(t *models.Tournament, registered int) error {
	if t == nil {
		return ErrTournamentNotFound
	}
	if t.Status != models.StatusDraft {
		return fmt.Errorf("%w (tournament %d is %s)", ErrTournamentNotDraft, t.ID, t.Status)
	}
	if registered >= t.MaxParticipants {
		return ErrTournamentFull
	}
	return nil
}
