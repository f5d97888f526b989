package leaderboard

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/rs/zerolog"

	sqlcgen "github.com/gokatarajesh/duel-platform/internal/db/sqlc"
)

type topSource interface {
	SnapshotTop(ctx context.Context) ([]Entry, error)
}

type snapshotWriter interface {
	InsertLeaderboardSnapshot(ctx context.Context, arg sqlcgen.InsertLeaderboardSnapshotParams) (sqlcgen.LeaderboardSnapshot, error)
}

// SnapshotWorker periodically persists the Redis leaderboard into Postgres.
// A tick whose content matches the previous snapshot writes nothing.
type SnapshotWorker struct {
	source   topSource
	store    snapshotWriter
	logger   zerolog.Logger
	interval time.Duration
	lastHash string
	now      func() time.Time
}

func NewSnapshotWorker(source topSource, store snapshotWriter, interval time.Duration, logger zerolog.Logger) *SnapshotWorker {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	return &SnapshotWorker{
		source:   source,
		store:    store,
		logger:   logger.With().Str("component", "leaderboard_snapshot_worker").Logger(),
		interval: interval,
		now:      time.Now,
	}
}

// Run blocks until context cancellation.
func (w *SnapshotWorker) Run(ctx context.Context) error {
	if w.source == nil || w.store == nil {
		return nil
	}

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	// run immediately
	w.tick(ctx)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			w.tick(ctx)
		}
	}
}

func (w *SnapshotWorker) tick(ctx context.Context) {
	if err := w.snapshot(ctx); err != nil {
		w.logger.Warn().Err(err).Msg("snapshot failed")
	}
}

func (w *SnapshotWorker) snapshot(ctx context.Context) error {
	entries, err := w.source.SnapshotTop(ctx)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		return nil
	}

	wsEntries := toWSEntries(entries)
	data, err := json.Marshal(wsEntries)
	if err != nil {
		return err
	}

	sum := sha256.Sum256(data)
	sourceHash := hex.EncodeToString(sum[:])
	if sourceHash == w.lastHash {
		return nil
	}

	now := w.now().UTC()
	params := sqlcgen.InsertLeaderboardSnapshotParams{
		GeneratedAt: pgtype.Timestamptz{
			Time:  now,
			Valid: true,
		},
		Entries:    data,
		SourceHash: sourceHash,
	}

	if _, err := w.store.InsertLeaderboardSnapshot(ctx, params); err != nil {
		return err
	}
	w.lastHash = sourceHash

	w.logger.Info().
		Int("entries", len(wsEntries)).
		Time("generated_at", now).
		Msg("leaderboard snapshot persisted")

	return nil
}
