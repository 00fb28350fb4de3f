package models

import "time"

// TournamentStatus представляет статусы турнира, соответствующие CHECK в БД.
type TournamentStatus string

const (
	StatusDraft     TournamentStatus = "draft"
	StatusActive    TournamentStatus = "active"
	StatusFinished  TournamentStatus = "finished"
	StatusCancelled TournamentStatus = "cancelled"
)

// IsTerminal сообщает, что дальнейшие переходы невозможны.
func (s TournamentStatus) IsTerminal() bool {
	return s == StatusFinished || s == StatusCancelled
}

func (s TournamentStatus) Valid() bool {
	switch s {
	case StatusDraft, StatusActive, StatusFinished, StatusCancelled:
		return true
	}
	return false
}

// Tournament представляет турнир на выбывание.
type Tournament struct {
	ID                 int64            `json:"id" db:"id"`
	Name               string           `json:"name" db:"name"`
	Description        *string          `json:"description,omitempty" db:"description"`
	CategoryID         int64            `json:"category_id" db:"category_id"`
	MaxParticipants    int              `json:"max_participants" db:"max_participants"`
	Status             TournamentStatus `json:"status" db:"status"`
	WinnerCompetitorID *int64           `json:"winner_competitor_id,omitempty" db:"winner_competitor_id"`
	WinnerClubID       *int64           `json:"winner_club_id,omitempty" db:"winner_club_id"`
	CreatedAt          time.Time        `json:"created_at" db:"created_at"`
	StartedAt          *time.Time       `json:"started_at,omitempty" db:"started_at"`
	FinishedAt         *time.Time       `json:"finished_at,omitempty" db:"finished_at"`

	// Опциональные связанные сущности (не мапятся напрямую)
	Registrations []Registration `json:"registrations,omitempty" db:"-"`
	Matches       []Match        `json:"matches,omitempty" db:"-"`
}
