package middleware

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Dosada05/robot-tournaments/models"
	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func actorEcho(t *testing.T) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		actor, ok := ActorFromContext(r.Context())
		require.True(t, ok)
		_ = json.NewEncoder(w).Encode(actor)
	})
}

func authenticated(t *testing.T, header string) *httptest.ResponseRecorder {
	t.Helper()
	auth := NewAuthenticator(testSecret, nil)
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	rec := httptest.NewRecorder()
	auth.Authenticate(actorEcho(t)).ServeHTTP(rec, req)
	return rec
}

func TestAuthenticate_ValidToken(t *testing.T) {
	club := int64(33)
	token, err := NewToken(testSecret, models.Actor{UserID: 7, Role: models.RoleCompetitor, ClubID: &club},
		jwt.MapClaims{"exp": time.Now().Add(time.Hour).Unix()})
	require.NoError(t, err)

	rec := authenticated(t, "Bearer "+token)
	require.Equal(t, http.StatusOK, rec.Code)

	var actor models.Actor
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &actor))
	assert.Equal(t, int64(7), actor.UserID)
	assert.Equal(t, models.RoleCompetitor, actor.Role)
	require.NotNil(t, actor.ClubID)
	assert.Equal(t, club, *actor.ClubID)
}

func TestAuthenticate_Rejects(t *testing.T) {
	expired, err := NewToken(testSecret, models.Actor{UserID: 1, Role: models.RoleAdmin},
		jwt.MapClaims{"exp": time.Now().Add(-time.Minute).Unix()})
	require.NoError(t, err)
	foreign, err := NewToken("other-secret", models.Actor{UserID: 1, Role: models.RoleAdmin}, nil)
	require.NoError(t, err)
	badRole, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"user_id": 1, "role": "root"}).SignedString([]byte(testSecret))
	require.NoError(t, err)
	noUser, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"role": "admin"}).SignedString([]byte(testSecret))
	require.NoError(t, err)

	tests := map[string]string{
		"missing header":  "",
		"not bearer":      "Basic abc",
		"garbage":         "Bearer not-a-token",
		"expired":         "Bearer " + expired,
		"wrong secret":    "Bearer " + foreign,
		"unknown role":    "Bearer " + badRole,
		"missing user id": "Bearer " + noUser,
	}
	for name, header := range tests {
		t.Run(name, func(t *testing.T) {
			rec := authenticated(t, header)
			assert.Equal(t, http.StatusUnauthorized, rec.Code)
			var body map[string]string
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, "UNAUTHORIZED", body["code"])
		})
	}
}

func TestActorFromClaims_StringUserID(t *testing.T) {
	actor, err := actorFromClaims(jwt.MapClaims{"user_id": "42", "role": "judge"})
	require.NoError(t, err)
	assert.Equal(t, int64(42), actor.UserID)
	assert.Nil(t, actor.ClubID)

	_, err = actorFromClaims(jwt.MapClaims{"user_id": 1.5, "role": "judge"})
	assert.Error(t, err)
	_, err = actorFromClaims(jwt.MapClaims{"user_id": float64(-3), "role": "judge"})
	assert.Error(t, err)
}

func TestRequireRole(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusNoContent) })
	handler := RequireRole(models.RoleAdmin, models.RoleJudge)(ok)

	serve := func(actor *models.Actor) int {
		req := httptest.NewRequest(http.MethodPost, "/", nil)
		if actor != nil {
			req = req.WithContext(WithActor(req.Context(), *actor))
		}
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec.Code
	}

	assert.Equal(t, http.StatusNoContent, serve(&models.Actor{UserID: 1, Role: models.RoleAdmin}))
	assert.Equal(t, http.StatusNoContent, serve(&models.Actor{UserID: 2, Role: models.RoleJudge}))
	assert.Equal(t, http.StatusForbidden, serve(&models.Actor{UserID: 3, Role: models.RoleCompetitor}))
	assert.Equal(t, http.StatusUnauthorized, serve(nil))
}

func TestRateLimit(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
	handler := RateLimit(0.001, 2)(ok)

	do := func(remote string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = remote
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec
	}

	assert.Equal(t, http.StatusOK, do("10.0.0.1:1000").Code)
	assert.Equal(t, http.StatusOK, do("10.0.0.1:1001").Code)
	limited := do("10.0.0.1:1002")
	assert.Equal(t, http.StatusTooManyRequests, limited.Code)
	assert.NotEmpty(t, limited.Header().Get("Retry-After"))
	// other clients have their own bucket
	assert.Equal(t, http.StatusOK, do("10.0.0.2:1000").Code)

	unlimited := RateLimit(0, 0)(ok)
	for i := 0; i < 10; i++ {
		rec := httptest.NewRecorder()
		unlimited.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Equal(t, http.StatusOK, rec.Code)
	}
}

func TestRequestLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))
	handler := RequestLogger(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/tournaments", nil))

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "http request", entry["msg"])
	assert.Equal(t, "/api/tournaments", entry["path"])
	assert.Equal(t, float64(http.StatusTeapot), entry["status"])
}
