package services

import (
	"errors"
	"fmt"

	"github.com/Dosada05/robot-tournaments/repositories"
)

// Виды ошибок движка. Обработчики HTTP сопоставляют их со статусами через errors.Is.
var (
	ErrNotFound             = errors.New("requested resource not found")
	ErrInvalidState         = errors.New("operation not allowed in the current tournament state")
	ErrAlreadyFinished      = errors.New("match is already finished")
	ErrInvalidWinner        = errors.New("winner is not a participant of the match")
	ErrInsufficientEntrants = errors.New("not enough entrants to start the tournament")
	ErrStorageUnavailable   = repositories.ErrStorageUnavailable

	ErrValidationFailed   = errors.New("validation failed")
	ErrForbiddenOperation = errors.New("operation not allowed for the current user")
)

// Ошибки, уточняющие вид (errors.Is(err, ErrNotFound) и т.п. остаётся истинным).
var (
	ErrTournamentNotFound   = fmt.Errorf("tournament %w", ErrNotFound)
	ErrMatchNotFound        = fmt.Errorf("match %w", ErrNotFound)
	ErrRegistrationNotFound = fmt.Errorf("registration %w", ErrNotFound)

	ErrTournamentNotDraft  = fmt.Errorf("%w: tournament is not in draft", ErrInvalidState)
	ErrTournamentNotActive = fmt.Errorf("%w: tournament is not active", ErrInvalidState)
	ErrTournamentTerminal  = fmt.Errorf("%w: tournament is already finished or cancelled", ErrInvalidState)
	ErrTournamentFull      = fmt.Errorf("%w: tournament registration is full", ErrInvalidState)

	ErrRegistrationConflict = fmt.Errorf("%w: competitor is already registered for this tournament", ErrInvalidState)
	ErrClubAlreadyEntered   = fmt.Errorf("%w: club is already registered for this tournament", ErrInvalidState)
	ErrCompetitorBlocked    = fmt.Errorf("%w: competitor finished a tournament less than a week ago", ErrInvalidState)

	ErrTournamentNameInvalid     = fmt.Errorf("%w: tournament name must be 3 to 255 characters", ErrValidationFailed)
	ErrTournamentCapacityInvalid = fmt.Errorf("%w: max participants must be a multiple of 4 between 8 and 16", ErrValidationFailed)
	ErrCategoryRequired          = fmt.Errorf("%w: category id is required", ErrValidationFailed)
	ErrJudgeRequired             = fmt.Errorf("%w: judge id is required", ErrValidationFailed)
	ErrDurationInvalid           = fmt.Errorf("%w: combat duration must be positive", ErrValidationFailed)
	ErrVictoryTypeInvalid        = fmt.Errorf("%w: victory type must be at most 100 characters", ErrValidationFailed)
	ErrRegistrationFieldsInvalid = fmt.Errorf("%w: competitor, club and robot ids are required", ErrValidationFailed)
)
