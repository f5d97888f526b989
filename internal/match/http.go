package match

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/rs/zerolog"

	"github.com/gokatarajesh/duel-platform/internal/auth/jwt"
	sqlcgen "github.com/gokatarajesh/duel-platform/internal/db/sqlc"
	httperrors "github.com/gokatarajesh/duel-platform/pkg/http/errors"
)

// MatchReader loads persisted duel records.
type MatchReader interface {
	Get(ctx context.Context, matchID uuid.UUID) (sqlcgen.Match, error)
}

// ConnectionCounter reports how many users hold a live connection.
type ConnectionCounter interface {
	Count() int
}

// HTTPHandlers provides read-only REST endpoints for duels.
type HTTPHandlers struct {
	service     *Service
	matches     MatchReader
	connections ConnectionCounter
	tokens      TokenValidator
	logger      zerolog.Logger
}

// NewHTTPHandlers creates HTTP handlers for duel endpoints.
func NewHTTPHandlers(service *Service, matches MatchReader, connections ConnectionCounter, tokens TokenValidator, logger zerolog.Logger) *HTTPHandlers {
	return &HTTPHandlers{
		service:     service,
		matches:     matches,
		connections: connections,
		tokens:      tokens,
		logger:      logger.With().Str("component", "duel_http").Logger(),
	}
}

// MatchView is the public shape of a duel record.
type MatchView struct {
	MatchID             string     `json:"match_id"`
	Status              string     `json:"status"`
	CanceledReason      *string    `json:"canceled_reason"`
	Player1ID           string     `json:"player1_id"`
	Player2ID           string     `json:"player2_id"`
	Player1Score        int        `json:"player1_score"`
	Player2Score        int        `json:"player2_score"`
	Player1RatingBefore int        `json:"player1_rating_before"`
	Player2RatingBefore int        `json:"player2_rating_before"`
	Player1RatingAfter  *int       `json:"player1_rating_after"`
	Player2RatingAfter  *int       `json:"player2_rating_after"`
	StartedAt           time.Time  `json:"started_at"`
	EndedAt             *time.Time `json:"ended_at"`
}

// GetMatch handles GET /v1/matches/{id}. Only participants may read a duel;
// anyone else gets the same 404 as for an unknown id.
func (h *HTTPHandlers) GetMatch(w http.ResponseWriter, r *http.Request) {
	token := jwt.TokenFromRequest(r)
	if token == "" {
		httperrors.RespondUnauthorized(w, httperrors.ErrCodeUnauthorized, "Missing token")
		return
	}
	claims, err := h.tokens.ValidateAccessToken(token)
	if err != nil {
		code := httperrors.ErrCodeInvalidToken
		if errors.Is(err, jwt.ErrExpiredToken) {
			code = httperrors.ErrCodeTokenExpired
		}
		httperrors.RespondUnauthorized(w, code, "Invalid token")
		return
	}

	matchID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		httperrors.RespondBadRequest(w, httperrors.ErrCodeInvalidMatchID, "match id must be a UUID")
		return
	}

	row, err := h.matches.Get(r.Context(), matchID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			httperrors.RespondError(w, http.StatusNotFound, httperrors.ErrCodeMatchNotFound, "match not found")
			return
		}
		h.logger.Error().Err(err).Str("match_id", matchID.String()).Msg("failed to load match")
		httperrors.RespondError(w, http.StatusInternalServerError, httperrors.ErrCodeInternalError, "failed to load match")
		return
	}

	view := toMatchView(row)
	if view.Player1ID != claims.UserID.String() && view.Player2ID != claims.UserID.String() {
		httperrors.RespondError(w, http.StatusNotFound, httperrors.ErrCodeMatchNotFound, "match not found")
		return
	}

	h.respondJSON(w, http.StatusOK, view)
}

// Stats handles GET /v1/duels/stats.
func (h *HTTPHandlers) Stats(w http.ResponseWriter, r *http.Request) {
	h.respondJSON(w, http.StatusOK, map[string]int{
		"queue_size":      h.service.QueueLen(),
		"active_sessions": h.service.ActiveSessions(),
		"connected":       h.connections.Count(),
	})
}

func toMatchView(row sqlcgen.Match) MatchView {
	view := MatchView{
		MatchID:             uuidString(row.MatchID),
		Status:              row.Status,
		Player1ID:           uuidString(row.Player1ID),
		Player2ID:           uuidString(row.Player2ID),
		Player1Score:        int(row.Player1Score),
		Player2Score:        int(row.Player2Score),
		Player1RatingBefore: int(row.Player1RatingBefore),
		Player2RatingBefore: int(row.Player2RatingBefore),
		Player1RatingAfter:  optionalInt(row.Player1RatingAfter),
		Player2RatingAfter:  optionalInt(row.Player2RatingAfter),
		StartedAt:           row.StartedAt.Time,
	}
	if row.CanceledReason.Valid {
		reason := row.CanceledReason.String
		view.CanceledReason = &reason
	}
	if row.EndedAt.Valid {
		ended := row.EndedAt.Time
		view.EndedAt = &ended
	}
	return view
}

func uuidString(id pgtype.UUID) string {
	if !id.Valid {
		return ""
	}
	return uuid.UUID(id.Bytes).String()
}

func optionalInt(v pgtype.Int4) *int {
	if !v.Valid {
		return nil
	}
	n := int(v.Int32)
	return &n
}

func (h *HTTPHandlers) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Warn().Err(err).Msg("failed to encode response")
	}
}
