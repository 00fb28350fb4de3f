package models

type UserRole string

const (
	RoleAdmin      UserRole = "admin"
	RoleJudge      UserRole = "judge"
	RoleCompetitor UserRole = "competitor"
)

// Actor is the authenticated caller taken from the JWT claims.
type Actor struct {
	UserID int64    `json:"user_id"`
	Role   UserRole `json:"role"`
	// ClubID is set for competitors only.
	ClubID *int64 `json:"club_id,omitempty"`
}

func (a Actor) IsAdmin() bool {
	return a.Role == RoleAdmin
}
