package handlers

import (
	"net/http"

	"github.com/Dosada05/robot-tournaments/middleware"
	"github.com/Dosada05/robot-tournaments/services"
)

type MatchHandler struct {
	matchService services.MatchService
	authorizer   services.Authorizer
}

func NewMatchHandler(ms services.MatchService, authorizer services.Authorizer) *MatchHandler {
	return &MatchHandler{matchService: ms, authorizer: authorizer}
}

// ListTournamentMatchesHandler обрабатывает GET /api/tournaments/{tournamentID}/matches?round=
func (h *MatchHandler) ListTournamentMatchesHandler(w http.ResponseWriter, r *http.Request) {
	tournamentID, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var round *int
	if r.URL.Query().Get("round") != "" {
		n, err := queryInt(r, "round", 0)
		if err != nil {
			badRequestResponse(w, r, err)
			return
		}
		round = &n
	}

	matches, err := h.matchService.ListMatches(r.Context(), tournamentID, round)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"matches": matches}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// GetHandler обрабатывает GET /api/matches/{matchID}
func (h *MatchHandler) GetHandler(w http.ResponseWriter, r *http.Request) {
	matchID, err := getIDFromURL(r, "matchID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	match, err := h.matchService.GetMatch(r.Context(), matchID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"match": match}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

type recordResultRequest struct {
	WinnerID    int64  `json:"winner_id"`
	VictoryType string `json:"victory_type"`
}

// RecordResultHandler обрабатывает PATCH /api/matches/{matchID}/result
func (h *MatchHandler) RecordResultHandler(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.ActorFromContext(r.Context())
	if !ok {
		unauthorizedResponse(w, r, "authentication required to record a result")
		return
	}
	matchID, err := getIDFromURL(r, "matchID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	if err := h.authorizer.CanRecordResult(r.Context(), actor, matchID); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	var input recordResultRequest
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	outcome, err := h.matchService.RecordResult(r.Context(), matchID, input.WinnerID, input.VictoryType)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, outcome, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
