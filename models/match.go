package models

import "time"

type MatchStatus string

const (
	MatchStatusPending  MatchStatus = "pending"
	MatchStatusFinished MatchStatus = "finished"
)

// Match is one combat between two competitors. Matches are append-only.
type Match struct {
	ID           int64       `json:"id" db:"id"`
	TournamentID int64       `json:"tournament_id" db:"tournament_id"`
	RoundNumber  int         `json:"round_number" db:"round_number"`
	CompetitorA  int64       `json:"competitor_a" db:"competitor_a"`
	CompetitorB  int64       `json:"competitor_b" db:"competitor_b"`
	JudgeID      int64       `json:"judge_id" db:"judge_id"`
	DurationSec  int         `json:"duration_sec" db:"duration_sec"`
	Status       MatchStatus `json:"status" db:"status"`
	WinnerID     *int64      `json:"winner_id,omitempty" db:"winner_id"`
	VictoryType  *string     `json:"victory_type,omitempty" db:"victory_type"`
	CreatedAt    time.Time   `json:"created_at" db:"created_at"`
	FinishedAt   *time.Time  `json:"finished_at,omitempty" db:"finished_at"`
}

// HasCompetitor reports whether id is one of the two sides of the match.
func (m *Match) HasCompetitor(id int64) bool {
	return m.CompetitorA == id || m.CompetitorB == id
}

// Opponent returns the other side of the match. The caller must check HasCompetitor first.
func (m *Match) Opponent(id int64) int64 {
	if m.CompetitorA == id {
		return m.CompetitorB
	}
	return m.CompetitorA
}
