package handlers

import (
	"net/http"

	"github.com/Dosada05/robot-tournaments/models"
	"github.com/Dosada05/robot-tournaments/services"
)

type RankingHandler struct {
	ledger services.ScoringLedger
}

func NewRankingHandler(ledger services.ScoringLedger) *RankingHandler {
	return &RankingHandler{ledger: ledger}
}

// CompetitorsHandler обрабатывает GET /api/rankings/competitors?skip=&take=
func (h *RankingHandler) CompetitorsHandler(w http.ResponseWriter, r *http.Request) {
	h.serveRanking(w, r, models.ScoreKindCompetitor)
}

// ClubsHandler обрабатывает GET /api/rankings/clubs?skip=&take=
func (h *RankingHandler) ClubsHandler(w http.ResponseWriter, r *http.Request) {
	h.serveRanking(w, r, models.ScoreKindClub)
}

func (h *RankingHandler) serveRanking(w http.ResponseWriter, r *http.Request, kind models.ScoreKind) {
	skip, err := queryInt(r, "skip", 0)
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	take, err := queryInt(r, "take", services.DefaultRankingTake)
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	page, err := h.ledger.Ranking(r.Context(), kind, skip, take)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, page, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
