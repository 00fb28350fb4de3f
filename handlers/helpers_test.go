package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/Dosada05/robot-tournaments/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMapServiceErrorToHTTP(t *testing.T) {
	tests := []struct {
		err    error
		status int
		code   string
	}{
		{services.ErrTournamentNotFound, http.StatusNotFound, codeNotFound},
		{fmt.Errorf("wrapped: %w", services.ErrMatchNotFound), http.StatusNotFound, codeNotFound},
		{services.ErrAlreadyFinished, http.StatusConflict, codeAlreadyFinished},
		{services.ErrTournamentNotActive, http.StatusConflict, codeInvalidState},
		{services.ErrClubAlreadyEntered, http.StatusConflict, codeInvalidState},
		{services.ErrInvalidWinner, http.StatusBadRequest, codeInvalidWinner},
		{services.ErrInsufficientEntrants, http.StatusUnprocessableEntity, codeInsufficientEntrants},
		{services.ErrVictoryTypeInvalid, http.StatusBadRequest, codeValidationFailed},
		{services.ErrForbiddenOperation, http.StatusForbidden, codeForbidden},
		{fmt.Errorf("commit: %w", services.ErrStorageUnavailable), http.StatusServiceUnavailable, codeStorageUnavailable},
		{errors.New("boom"), http.StatusInternalServerError, codeInternal},
	}
	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			rec := httptest.NewRecorder()
			mapServiceErrorToHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil), tt.err)

			assert.Equal(t, tt.status, rec.Code)
			var body map[string]string
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, tt.code, body["code"])
			assert.NotEmpty(t, body["error"])
		})
	}
}

func TestMapServiceErrorToHTTP_HidesInternalDetails(t *testing.T) {
	rec := httptest.NewRecorder()
	mapServiceErrorToHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil), errors.New("pq: password authentication failed"))
	assert.NotContains(t, rec.Body.String(), "password")
}

func TestReadJSON(t *testing.T) {
	var dst struct {
		WinnerID int64 `json:"winner_id"`
	}
	read := func(body string) error {
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
		return readJSON(httptest.NewRecorder(), req, &dst)
	}

	require.NoError(t, read(`{"winner_id": 5}`))
	assert.Equal(t, int64(5), dst.WinnerID)

	assert.ErrorContains(t, read(``), "must not be empty")
	assert.ErrorContains(t, read(`{"winner_id": "five"}`), "incorrect JSON type")
	assert.ErrorContains(t, read(`{"loser_id": 1}`), "unknown key")
	assert.ErrorContains(t, read(`{"winner_id": 1}{}`), "single JSON value")
	assert.ErrorContains(t, read(`{"winner_id": `), "badly-formed")
}
