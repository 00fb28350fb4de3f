package services

import (
	"context"
	"testing"

	"github.com/Dosada05/robot-tournaments/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScoringLedger_Award(t *testing.T) {
	e := newEngine(t)
	ctx := context.Background()

	assert.Equal(t, int64(0), e.total(t, models.ScoreKindCompetitor, 42))

	require.NoError(t, e.ledger.Award(ctx, nil, 42, models.ScoreKindCompetitor, 10))
	require.NoError(t, e.ledger.Award(ctx, nil, 42, models.ScoreKindCompetitor, 30))
	assert.Equal(t, int64(40), e.total(t, models.ScoreKindCompetitor, 42))
	// same id in the other ledger is a different subject
	assert.Equal(t, int64(0), e.total(t, models.ScoreKindClub, 42))

	assert.ErrorIs(t, e.ledger.Award(ctx, nil, 42, models.ScoreKindCompetitor, 0), ErrValidationFailed)
	assert.ErrorIs(t, e.ledger.Award(ctx, nil, 42, models.ScoreKindCompetitor, -5), ErrValidationFailed)
	assert.ErrorIs(t, e.ledger.Award(ctx, nil, 0, models.ScoreKindClub, 10), ErrValidationFailed)
	assert.Equal(t, int64(40), e.total(t, models.ScoreKindCompetitor, 42))
}

func TestScoringLedger_ConcurrentAwardsAreNotLost(t *testing.T) {
	e := newConcurrentEngine(t)

	const workers = 20
	released(workers, func(int) {
		assert.NoError(t, e.ledger.Award(context.Background(), nil, 7, models.ScoreKindClub, PointsPerWin))
	})

	assert.Equal(t, workers*PointsPerWin, e.total(t, models.ScoreKindClub, 7))
}

func TestScoringLedger_Ranking(t *testing.T) {
	e := newEngine(t)
	ctx := context.Background()

	for id, points := range map[int64]int64{1: 30, 2: 50, 3: 30, 4: 10} {
		require.NoError(t, e.ledger.Award(ctx, nil, id, models.ScoreKindCompetitor, points))
	}

	page, err := e.ledger.Ranking(ctx, models.ScoreKindCompetitor, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, 4, page.Total)
	assert.Equal(t, DefaultRankingTake, page.Take)
	require.Len(t, page.Entries, 4)
	assert.Equal(t, models.RankingEntry{Position: 1, SubjectID: 2, TotalPoints: 50}, page.Entries[0])
	// ties are ordered by id
	assert.Equal(t, models.RankingEntry{Position: 2, SubjectID: 1, TotalPoints: 30}, page.Entries[1])
	assert.Equal(t, models.RankingEntry{Position: 3, SubjectID: 3, TotalPoints: 30}, page.Entries[2])
	assert.Equal(t, models.RankingEntry{Position: 4, SubjectID: 4, TotalPoints: 10}, page.Entries[3])

	second, err := e.ledger.Ranking(ctx, models.ScoreKindCompetitor, 2, 1)
	require.NoError(t, err)
	require.Len(t, second.Entries, 1)
	assert.Equal(t, 3, second.Entries[0].Position)
	assert.Equal(t, int64(3), second.Entries[0].SubjectID)

	capped, err := e.ledger.Ranking(ctx, models.ScoreKindCompetitor, -3, 1000)
	require.NoError(t, err)
	assert.Equal(t, 0, capped.Skip)
	assert.Equal(t, MaxRankingTake, capped.Take)

	clubs, err := e.ledger.Ranking(ctx, models.ScoreKindClub, 0, 10)
	require.NoError(t, err)
	assert.Empty(t, clubs.Entries)
	assert.Equal(t, 0, clubs.Total)

	_, err = e.ledger.Ranking(ctx, models.ScoreKind("robot"), 0, 10)
	assert.ErrorIs(t, err, ErrValidationFailed)
}
