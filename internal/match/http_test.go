package match

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gokatarajesh/duel-platform/internal/auth/jwt"
	sqlcgen "github.com/gokatarajesh/duel-platform/internal/db/sqlc"
	httperrors "github.com/gokatarajesh/duel-platform/pkg/http/errors"
)

type fakeMatchReader struct {
	rows map[uuid.UUID]sqlcgen.Match
	err  error
}

func (f *fakeMatchReader) Get(_ context.Context, matchID uuid.UUID) (sqlcgen.Match, error) {
	if f.err != nil {
		return sqlcgen.Match{}, f.err
	}
	row, ok := f.rows[matchID]
	if !ok {
		return sqlcgen.Match{}, pgx.ErrNoRows
	}
	return row, nil
}

func finishedRow(id, p1, p2 uuid.UUID) sqlcgen.Match {
	started := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	return sqlcgen.Match{
		MatchID:             pgtype.UUID{Bytes: id, Valid: true},
		Status:              StatusFinished,
		Player1ID:           pgtype.UUID{Bytes: p1, Valid: true},
		Player2ID:           pgtype.UUID{Bytes: p2, Valid: true},
		Player1Score:        3,
		Player2Score:        1,
		Player1RatingBefore: 1000,
		Player2RatingBefore: 1010,
		Player1RatingAfter:  pgtype.Int4{Int32: 1016, Valid: true},
		Player2RatingAfter:  pgtype.Int4{Int32: 994, Valid: true},
		StartedAt:           pgtype.Timestamptz{Time: started, Valid: true},
		EndedAt:             pgtype.Timestamptz{Time: started.Add(time.Minute), Valid: true},
	}
}

func newHTTPFixture(t *testing.T, reader *fakeMatchReader) (*http.ServeMux, *jwt.Manager, *duelEnv) {
	t.Helper()
	env := newDuelEnv(t, DefaultSettings())
	tokens := jwt.NewManager(jwt.TokenConfig{AccessSecret: []byte("test-secret"), Issuer: "duel-test"})
	h := NewHTTPHandlers(env.svc, reader, env.hub, tokens, zerolog.Nop())

	mux := http.NewServeMux()
	mux.HandleFunc("GET /v1/matches/{id}", h.GetMatch)
	mux.HandleFunc("GET /v1/duels/stats", h.Stats)
	return mux, tokens, env
}

func getWithToken(t *testing.T, mux *http.ServeMux, path, token string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec
}

func TestGetMatchForParticipant(t *testing.T) {
	id, p1, p2 := uuid.New(), uuid.New(), uuid.New()
	mux, tokens, _ := newHTTPFixture(t, &fakeMatchReader{rows: map[uuid.UUID]sqlcgen.Match{id: finishedRow(id, p1, p2)}})
	token, err := tokens.GenerateAccessToken(p2, "")
	require.NoError(t, err)

	rec := getWithToken(t, mux, "/v1/matches/"+id.String(), token)

	require.Equal(t, http.StatusOK, rec.Code)
	var view MatchView
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&view))
	assert.Equal(t, id.String(), view.MatchID)
	assert.Equal(t, StatusFinished, view.Status)
	assert.Nil(t, view.CanceledReason)
	require.NotNil(t, view.Player1RatingAfter)
	assert.Equal(t, 1016, *view.Player1RatingAfter)
	require.NotNil(t, view.EndedAt)
}

func TestGetMatchErrors(t *testing.T) {
	id, p1, p2 := uuid.New(), uuid.New(), uuid.New()
	reader := &fakeMatchReader{rows: map[uuid.UUID]sqlcgen.Match{id: finishedRow(id, p1, p2)}}
	mux, tokens, _ := newHTTPFixture(t, reader)
	outsider, err := tokens.GenerateAccessToken(uuid.New(), "")
	require.NoError(t, err)

	tests := []struct {
		name   string
		path   string
		token  string
		status int
		code   string
	}{
		{"no token", "/v1/matches/" + id.String(), "", http.StatusUnauthorized, httperrors.ErrCodeUnauthorized},
		{"bad token", "/v1/matches/" + id.String(), "abc", http.StatusUnauthorized, httperrors.ErrCodeInvalidToken},
		{"bad id", "/v1/matches/nope", outsider, http.StatusBadRequest, httperrors.ErrCodeInvalidMatchID},
		{"unknown id", "/v1/matches/" + uuid.NewString(), outsider, http.StatusNotFound, httperrors.ErrCodeMatchNotFound},
		{"not a participant", "/v1/matches/" + id.String(), outsider, http.StatusNotFound, httperrors.ErrCodeMatchNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := getWithToken(t, mux, tt.path, tt.token)

			assert.Equal(t, tt.status, rec.Code)
			var body httperrors.ErrorResponse
			require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
			assert.Equal(t, tt.code, body.Error)
		})
	}
}

func TestGetMatchStorageFailure(t *testing.T) {
	mux, tokens, _ := newHTTPFixture(t, &fakeMatchReader{err: errors.New("db down")})
	token, err := tokens.GenerateAccessToken(uuid.New(), "")
	require.NoError(t, err)

	rec := getWithToken(t, mux, "/v1/matches/"+uuid.NewString(), token)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestStatsReportsLiveCounts(t *testing.T) {
	mux, _, env := newHTTPFixture(t, &fakeMatchReader{})
	ctx := context.Background()
	a, b, c := uuid.New(), uuid.New(), uuid.New()
	env.connect(a)
	env.connect(b)
	env.connect(c)
	env.svc.JoinQueue(ctx, a)
	env.svc.JoinQueue(ctx, b)
	env.svc.JoinQueue(ctx, c)

	rec := getWithToken(t, mux, "/v1/duels/stats", "")

	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]int
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, 1, body["queue_size"])
	assert.Equal(t, 1, body["active_sessions"])
	assert.Equal(t, 3, body["connected"])
}
