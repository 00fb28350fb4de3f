package services

import (
	"context"
	"fmt"

	"github.com/Dosada05/robot-tournaments/models"
	"github.com/Dosada05/robot-tournaments/repositories"
)

// Authorizer решает, может ли пользователь управлять турниром.
type Authorizer interface {
	CanStartTournament(actor models.Actor) error
	// CanRecordResult разрешает администраторам и судье, назначенному на матч.
	CanRecordResult(ctx context.Context, actor models.Actor, matchID int64) error
}

type authorizer struct {
	matchRepo repositories.MatchRepository
}

func NewAuthorizer(matchRepo repositories.MatchRepository) Authorizer {
	return &authorizer{matchRepo: matchRepo}
}

func (a *authorizer) CanStartTournament(actor models.Actor) error {
	if !actor.IsAdmin() {
		return fmt.Errorf("%w: only admins can start tournaments", ErrForbiddenOperation)
	}
	return nil
}

func (a *authorizer) CanRecordResult(ctx context.Context, actor models.Actor, matchID int64) error {
	if actor.IsAdmin() {
		return nil
	}
	if actor.Role != models.RoleJudge {
		return fmt.Errorf("%w: only judges and admins can record results", ErrForbiddenOperation)
	}
	match, err := a.matchRepo.GetByID(ctx, nil, matchID)
	if err != nil {
		return mapRepositoryError(err)
	}
	if match.JudgeID != actor.UserID {
		return fmt.Errorf("%w: match %d is assigned to another judge", ErrForbiddenOperation, matchID)
	}
	return nil
}
