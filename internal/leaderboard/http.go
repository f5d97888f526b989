package leaderboard

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"

	sqlcgen "github.com/gokatarajesh/duel-platform/internal/db/sqlc"
	httperrors "github.com/gokatarajesh/duel-platform/pkg/http/errors"
	ws "github.com/gokatarajesh/duel-platform/pkg/http/ws"
)

const (
	defaultLimit = 10
	maxLimit     = 100
)

type liveSource interface {
	Top(ctx context.Context, limit int) ([]Entry, error)
}

type snapshotReader interface {
	GetLatestLeaderboardSnapshot(ctx context.Context) (sqlcgen.LeaderboardSnapshot, error)
}

// HTTPHandler exposes REST endpoints for leaderboard queries.
type HTTPHandler struct {
	svc       liveSource
	snapshots snapshotReader
	logger    zerolog.Logger
}

// NewHTTPHandler constructs a leaderboard HTTP handler.
func NewHTTPHandler(svc liveSource, snapshots snapshotReader, logger zerolog.Logger) *HTTPHandler {
	return &HTTPHandler{
		svc:       svc,
		snapshots: snapshots,
		logger:    logger.With().Str("component", "leaderboard_http").Logger(),
	}
}

// HandleGet responds with the current rating leaderboard.
// Route: GET /v1/leaderboard?limit=10
func (h *HTTPHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	limit := defaultLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 || parsed > maxLimit {
			httperrors.RespondBadRequest(w, httperrors.ErrCodeInvalidLimit, "limit must be between 1 and 100")
			return
		}
		limit = parsed
	}

	ctx := r.Context()
	var (
		top     []ws.LeaderboardEntry
		source  = "redis"
		liveErr error
	)

	if h.svc != nil {
		entries, err := h.svc.Top(ctx, limit)
		if err == nil {
			top = toWSEntries(entries)
		} else {
			liveErr = err
			h.logger.Warn().Err(err).Msg("redis leaderboard fetch failed")
		}
	}

	if len(top) == 0 {
		source = "snapshot"
		entries, err := h.snapshotFallback(ctx, limit)
		if err != nil && liveErr != nil {
			httperrors.RespondServiceUnavailable(w, httperrors.ErrCodeLeaderboardFetchFailed, "leaderboard unavailable")
			return
		}
		top = entries
	}
	if top == nil {
		top = []ws.LeaderboardEntry{}
	}

	resp := map[string]interface{}{
		"top":         top,
		"source":      source,
		"retrievedAt": time.Now().UTC().Format(time.RFC3339),
	}

	writeJSON(w, resp)
}

func (h *HTTPHandler) snapshotFallback(ctx context.Context, limit int) ([]ws.LeaderboardEntry, error) {
	if h.snapshots == nil {
		return nil, nil
	}
	row, err := h.snapshots.GetLatestLeaderboardSnapshot(ctx)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		h.logger.Warn().Err(err).Msg("snapshot fetch failed")
		return nil, err
	}

	var entries []ws.LeaderboardEntry
	if err := json.Unmarshal(row.Entries, &entries); err != nil {
		h.logger.Warn().Err(err).Msg("snapshot payload decode failed")
		return nil, err
	}
	if len(entries) > limit {
		entries = entries[:limit]
	}
	return entries, nil
}

func writeJSON(w http.ResponseWriter, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		http.Error(w, "failed to encode response", http.StatusInternalServerError)
	}
}
