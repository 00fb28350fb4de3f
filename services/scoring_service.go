package services

import (
	"context"
	"fmt"

	"github.com/Dosada05/robot-tournaments/models"
	"github.com/Dosada05/robot-tournaments/repositories"
)

const (
	DefaultRankingTake = 50
	MaxRankingTake     = 200
)

type RankingPage struct {
	Kind    models.ScoreKind      `json:"kind"`
	Entries []models.RankingEntry `json:"entries"`
	Total   int                   `json:"total"`
	Skip    int                   `json:"skip"`
	Take    int                   `json:"take"`
}

// ScoringLedger накапливает очки участников и клубов.
type ScoringLedger interface {
	// Award начисляет очки внутри exec (транзакции вызывающего), а при exec == nil одним
	// запросом. Запись создаётся при первом начислении.
	Award(ctx context.Context, exec repositories.SQLExecutor, subjectID int64, kind models.ScoreKind, points int64) error
	Total(ctx context.Context, kind models.ScoreKind, subjectID int64) (int64, error)
	Ranking(ctx context.Context, kind models.ScoreKind, skip, take int) (*RankingPage, error)
}

type scoringLedger struct {
	scoreRepo repositories.ScoreRepository
}

func NewScoringLedger(scoreRepo repositories.ScoreRepository) ScoringLedger {
	return &scoringLedger{scoreRepo: scoreRepo}
}

func (l *scoringLedger) Award(ctx context.Context, exec repositories.SQLExecutor, subjectID int64, kind models.ScoreKind, points int64) error {
	if subjectID <= 0 {
		return fmt.Errorf("%w: %s id must be positive", ErrValidationFailed, kind)
	}
	if points <= 0 {
		return fmt.Errorf("%w: points must be positive, got %d", ErrValidationFailed, points)
	}
	if err := l.scoreRepo.Increment(ctx, exec, kind, subjectID, points); err != nil {
		return fmt.Errorf("failed to award %s %d: %w", kind, subjectID, err)
	}
	return nil
}

func (l *scoringLedger) Total(ctx context.Context, kind models.ScoreKind, subjectID int64) (int64, error) {
	return l.scoreRepo.GetTotal(ctx, nil, kind, subjectID)
}

func (l *scoringLedger) Ranking(ctx context.Context, kind models.ScoreKind, skip, take int) (*RankingPage, error) {
	if kind != models.ScoreKindCompetitor && kind != models.ScoreKindClub {
		return nil, fmt.Errorf("%w: unknown ranking kind %q", ErrValidationFailed, kind)
	}
	if skip < 0 {
		skip = 0
	}
	if take <= 0 {
		take = DefaultRankingTake
	}
	if take > MaxRankingTake {
		take = MaxRankingTake
	}

	records, err := l.scoreRepo.Ranking(ctx, kind, skip, take)
	if err != nil {
		return nil, err
	}
	total, err := l.scoreRepo.Count(ctx, kind)
	if err != nil {
		return nil, err
	}

	entries := make([]models.RankingEntry, len(records))
	for i, rec := range records {
		entries[i] = models.RankingEntry{
			Position:    skip + i + 1,
			SubjectID:   rec.SubjectID,
			TotalPoints: rec.TotalPoints,
		}
	}
	return &RankingPage{Kind: kind, Entries: entries, Total: total, Skip: skip, Take: take}, nil
}
