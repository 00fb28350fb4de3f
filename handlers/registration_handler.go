package handlers

import (
	"errors"
	"net/http"

	"github.com/Dosada05/robot-tournaments/middleware"
	"github.com/Dosada05/robot-tournaments/models"
	"github.com/Dosada05/robot-tournaments/services"
)

type RegistrationHandler struct {
	registrationService services.RegistrationService
}

func NewRegistrationHandler(rs services.RegistrationService) *RegistrationHandler {
	return &RegistrationHandler{registrationService: rs}
}

// joinRequest: competitor_id и club_id передаёт только админ, участник берёт их из токена.
type joinRequest struct {
	RobotID      int64  `json:"robot_id"`
	CompetitorID *int64 `json:"competitor_id,omitempty"`
	ClubID       *int64 `json:"club_id,omitempty"`
}

// JoinHandler обрабатывает POST /api/tournaments/{tournamentID}/registrations
func (h *RegistrationHandler) JoinHandler(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.ActorFromContext(r.Context())
	if !ok {
		unauthorizedResponse(w, r, "authentication required to join tournament")
		return
	}
	tournamentID, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	var req joinRequest
	if err := readJSON(w, r, &req); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	input := services.JoinTournamentInput{RobotID: req.RobotID}
	switch actor.Role {
	case models.RoleAdmin:
		if req.CompetitorID == nil || req.ClubID == nil {
			badRequestResponse(w, r, errors.New("competitor_id and club_id are required"))
			return
		}
		input.CompetitorID = *req.CompetitorID
		input.ClubID = *req.ClubID
	case models.RoleCompetitor:
		if req.CompetitorID != nil && *req.CompetitorID != actor.UserID {
			mapServiceErrorToHTTP(w, r, services.ErrForbiddenOperation)
			return
		}
		if actor.ClubID == nil {
			badRequestResponse(w, r, errors.New("competitor token carries no club"))
			return
		}
		input.CompetitorID = actor.UserID
		input.ClubID = *actor.ClubID
	default:
		mapServiceErrorToHTTP(w, r, services.ErrForbiddenOperation)
		return
	}

	registration, err := h.registrationService.Join(r.Context(), tournamentID, input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusCreated, jsonResponse{"registration": registration}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// ListHandler обрабатывает GET /api/tournaments/{tournamentID}/registrations
func (h *RegistrationHandler) ListHandler(w http.ResponseWriter, r *http.Request) {
	tournamentID, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	registrations, err := h.registrationService.List(r.Context(), tournamentID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"registrations": registrations}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
