package models

import "time"

// Registration is an approved entrant bound to one tournament.
type Registration struct {
	ID           int64     `json:"id" db:"id"`
	TournamentID int64     `json:"tournament_id" db:"tournament_id"`
	CompetitorID int64     `json:"competitor_id" db:"competitor_id"`
	ClubID       int64     `json:"club_id" db:"club_id"`
	RobotID      int64     `json:"robot_id" db:"robot_id"`
	CategoryID   int64     `json:"category_id" db:"category_id"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}
