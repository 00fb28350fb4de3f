package models

import "time"

// ScoreKind selects which score ledger a subject belongs to.
type ScoreKind string

const (
	ScoreKindCompetitor ScoreKind = "competitor"
	ScoreKindClub       ScoreKind = "club"
)

// ScoreRecord is an accumulated point total of a competitor or a club.
type ScoreRecord struct {
	SubjectID   int64     `json:"subject_id" db:"subject_id"`
	Kind        ScoreKind `json:"kind" db:"-"`
	TotalPoints int64     `json:"total_points" db:"total_points"`
}

// RankingEntry is a ScoreRecord with its 1-based position in the ranking.
type RankingEntry struct {
	Position    int   `json:"position"`
	SubjectID   int64 `json:"subject_id"`
	TotalPoints int64 `json:"total_points"`
}

// RobotStats holds lifetime combat counters of a robot.
type RobotStats struct {
	RobotID       int64 `json:"robot_id" db:"robot_id"`
	Wins          int   `json:"wins" db:"wins"`
	Losses        int   `json:"losses" db:"losses"`
	MatchesPlayed int   `json:"matches_played" db:"matches_played"`
}

const (
	PrizeChampion           = "Tournament Champion"
	VictoryTypeChampionship = "championship"
)

// Prize is the championship record created when a tournament is finalized.
type Prize struct {
	ID           int64     `json:"id" db:"id"`
	TournamentID int64     `json:"tournament_id" db:"tournament_id"`
	CompetitorID int64     `json:"competitor_id" db:"competitor_id"`
	ClubID       *int64    `json:"club_id,omitempty" db:"club_id"`
	Prize        string    `json:"prize" db:"prize"`
	VictoryType  string    `json:"victory_type" db:"victory_type"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}
