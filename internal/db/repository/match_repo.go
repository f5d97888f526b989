package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"

	sqlcgen "github.com/gokatarajesh/duel-platform/internal/db/sqlc"
)

type matchStore interface {
	CreateMatch(ctx context.Context, arg sqlcgen.CreateMatchParams) (sqlcgen.Match, error)
	UpdateMatchScores(ctx context.Context, arg sqlcgen.UpdateMatchScoresParams) error
	EndMatch(ctx context.Context, arg sqlcgen.EndMatchParams) (int64, error)
	InsertMatchAnswer(ctx context.Context, arg sqlcgen.InsertMatchAnswerParams) error
	GetMatch(ctx context.Context, matchID pgtype.UUID) (sqlcgen.Match, error)
}

// MatchStart is the record written when two players are paired.
type MatchStart struct {
	MatchID             uuid.UUID
	QuestionID          int64
	Player1ID           uuid.UUID
	Player2ID           uuid.UUID
	Player1RatingBefore int
	Player2RatingBefore int
}

// MatchEnd is the terminal record of a duel. Ratings are nil for canceled
// duels.
type MatchEnd struct {
	MatchID            uuid.UUID
	Status             string
	Reason             string
	Player1Score       int
	Player2Score       int
	Player1RatingAfter *int
	Player2RatingAfter *int
}

// MatchRepository contains DB helpers for duel history.
type MatchRepository struct {
	store matchStore
}

// NewMatchRepository constructs a new match repository.
func NewMatchRepository(store matchStore) *MatchRepository {
	return &MatchRepository{store: store}
}

// RecordStart persists a new active match row.
func (r *MatchRepository) RecordStart(ctx context.Context, start MatchStart) error {
	_, err := r.store.CreateMatch(ctx, sqlcgen.CreateMatchParams{
		MatchID:             pgUUID(start.MatchID),
		QuestionID:          start.QuestionID,
		Player1ID:           pgUUID(start.Player1ID),
		Player2ID:           pgUUID(start.Player2ID),
		Player1RatingBefore: int32(start.Player1RatingBefore),
		Player2RatingBefore: int32(start.Player2RatingBefore),
	})
	if err != nil {
		return fmt.Errorf("create match: %w", err)
	}
	return nil
}

// RecordRoundAnswer appends an audit row for a submitted answer.
func (r *MatchRepository) RecordRoundAnswer(ctx context.Context, matchID, userID uuid.UUID, answer string, isCorrect bool) error {
	if err := r.store.InsertMatchAnswer(ctx, sqlcgen.InsertMatchAnswerParams{
		MatchID:   pgUUID(matchID),
		UserID:    pgUUID(userID),
		Answer:    answer,
		IsCorrect: isCorrect,
	}); err != nil {
		return fmt.Errorf("insert match answer: %w", err)
	}
	return nil
}

// UpdateScores stores the running score of an active match.
func (r *MatchRepository) UpdateScores(ctx context.Context, matchID uuid.UUID, player1Score, player2Score int) error {
	if err := r.store.UpdateMatchScores(ctx, sqlcgen.UpdateMatchScoresParams{
		MatchID:      pgUUID(matchID),
		Player1Score: int32(player1Score),
		Player2Score: int32(player2Score),
	}); err != nil {
		return fmt.Errorf("update match scores: %w", err)
	}
	return nil
}

// RecordEnd moves an active match to its terminal state. It reports false when
// the match was not active, so a second terminal write never lands.
func (r *MatchRepository) RecordEnd(ctx context.Context, end MatchEnd) (bool, error) {
	n, err := r.store.EndMatch(ctx, sqlcgen.EndMatchParams{
		MatchID:            pgUUID(end.MatchID),
		Status:             end.Status,
		CanceledReason:     pgText(end.Reason),
		Player1Score:       int32(end.Player1Score),
		Player2Score:       int32(end.Player2Score),
		Player1RatingAfter: pgInt4(end.Player1RatingAfter),
		Player2RatingAfter: pgInt4(end.Player2RatingAfter),
	})
	if err != nil {
		return false, fmt.Errorf("end match: %w", err)
	}
	return n == 1, nil
}

// Get fetches a match row.
func (r *MatchRepository) Get(ctx context.Context, matchID uuid.UUID) (sqlcgen.Match, error) {
	return r.store.GetMatch(ctx, pgUUID(matchID))
}
