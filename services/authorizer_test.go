package services

import (
	"context"
	"testing"

	"github.com/Dosada05/robot-tournaments/models"
	"github.com/stretchr/testify/assert"
)

func TestAuthorizer(t *testing.T) {
	e := newEngine(t)
	ctx := context.Background()
	_, res := e.startedTournament(t, 2)
	matchID := res.Matches[0].ID

	admin := models.Actor{UserID: 1, Role: models.RoleAdmin}
	judge := models.Actor{UserID: testJudgeID, Role: models.RoleJudge}
	otherJudge := models.Actor{UserID: testJudgeID + 1, Role: models.RoleJudge}
	competitor := models.Actor{UserID: competitorID(1), Role: models.RoleCompetitor}

	assert.NoError(t, e.authorizer.CanStartTournament(admin))
	assert.ErrorIs(t, e.authorizer.CanStartTournament(judge), ErrForbiddenOperation)
	assert.ErrorIs(t, e.authorizer.CanStartTournament(competitor), ErrForbiddenOperation)

	assert.NoError(t, e.authorizer.CanRecordResult(ctx, admin, matchID))
	assert.NoError(t, e.authorizer.CanRecordResult(ctx, judge, matchID))
	assert.ErrorIs(t, e.authorizer.CanRecordResult(ctx, otherJudge, matchID), ErrForbiddenOperation)
	assert.ErrorIs(t, e.authorizer.CanRecordResult(ctx, competitor, matchID), ErrForbiddenOperation)
	assert.ErrorIs(t, e.authorizer.CanRecordResult(ctx, judge, 9999), ErrNotFound)
}
