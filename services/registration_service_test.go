package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistrationService_Join(t *testing.T) {
	e := newEngine(t)
	ctx := context.Background()
	tournament := e.draftTournament(t, 2)

	regs, err := e.registrations.List(ctx, tournament.ID)
	require.NoError(t, err)
	require.Len(t, regs, 2)
	assert.Equal(t, competitorID(1), regs[0].CompetitorID)
	assert.Equal(t, tournament.CategoryID, regs[0].CategoryID)

	t.Run("competitor already registered", func(t *testing.T) {
		_, err := e.registrations.Join(ctx, tournament.ID, JoinTournamentInput{CompetitorID: competitorID(1), ClubID: 777, RobotID: 778})
		assert.ErrorIs(t, err, ErrRegistrationConflict)
	})

	t.Run("club already entered", func(t *testing.T) {
		_, err := e.registrations.Join(ctx, tournament.ID, JoinTournamentInput{CompetitorID: 555, ClubID: clubOf(competitorID(2)), RobotID: 556})
		assert.ErrorIs(t, err, ErrClubAlreadyEntered)
	})

	t.Run("missing fields", func(t *testing.T) {
		_, err := e.registrations.Join(ctx, tournament.ID, JoinTournamentInput{CompetitorID: 555})
		assert.ErrorIs(t, err, ErrValidationFailed)
	})

	t.Run("unknown tournament", func(t *testing.T) {
		_, err := e.registrations.Join(ctx, 999, JoinTournamentInput{CompetitorID: 555, ClubID: 556, RobotID: 557})
		assert.ErrorIs(t, err, ErrNotFound)
		_, err = e.registrations.List(ctx, 999)
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestRegistrationService_JoinFullTournament(t *testing.T) {
	e := newEngine(t)
	ctx := context.Background()

	tournament, err := e.tournaments.Create(ctx, CreateTournamentInput{Name: "Small Cup", CategoryID: 1, MaxParticipants: 8})
	require.NoError(t, err)
	for i := 1; i <= 8; i++ {
		c := competitorID(i)
		_, err := e.registrations.Join(ctx, tournament.ID, JoinTournamentInput{CompetitorID: c, ClubID: clubOf(c), RobotID: robotOf(c)})
		require.NoError(t, err)
	}

	_, err = e.registrations.Join(ctx, tournament.ID, JoinTournamentInput{CompetitorID: 999, ClubID: 998, RobotID: 997})
	assert.ErrorIs(t, err, ErrTournamentFull)
}

func TestRegistrationService_JoinAfterStart(t *testing.T) {
	e := newEngine(t)
	tournament, _ := e.startedTournament(t, 2)

	_, err := e.registrations.Join(context.Background(), tournament.ID, JoinTournamentInput{CompetitorID: 500, ClubID: 501, RobotID: 502})
	assert.ErrorIs(t, err, ErrInvalidState)
}

func TestRegistrationService_PostTournamentBlock(t *testing.T) {
	e := newEngine(t)
	ctx := context.Background()

	finished, _ := e.startedTournament(t, 2)
	finishRound(t, e, finished.ID, 1)

	next, err := e.tournaments.Create(ctx, CreateTournamentInput{Name: "Rematch", CategoryID: 1, MaxParticipants: 8})
	require.NoError(t, err)

	c := competitorID(2)
	input := JoinTournamentInput{CompetitorID: c, ClubID: clubOf(c), RobotID: robotOf(c)}
	_, err = e.registrations.Join(ctx, next.ID, input)
	assert.ErrorIs(t, err, ErrCompetitorBlocked)

	e.clock.Advance(PostTournamentBlock - 1)
	_, err = e.registrations.Join(ctx, next.ID, input)
	assert.ErrorIs(t, err, ErrCompetitorBlocked)

	e.clock.Advance(1)
	reg, err := e.registrations.Join(ctx, next.ID, input)
	require.NoError(t, err)
	assert.Equal(t, c, reg.CompetitorID)

	// competitors that never played are not blocked
	_, err = e.registrations.Join(ctx, next.ID, JoinTournamentInput{CompetitorID: 640, ClubID: 641, RobotID: 642})
	assert.NoError(t, err)
}
