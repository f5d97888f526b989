package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	sqlcgen "github.com/gokatarajesh/duel-platform/internal/db/sqlc"
)

type ratingStore interface {
	GetPlayerRating(ctx context.Context, userID pgtype.UUID) (sqlcgen.PlayerRating, error)
	UpsertPlayerRating(ctx context.Context, arg sqlcgen.UpsertPlayerRatingParams) error
}

// RatingRepository reads and writes duel ratings. Users without a row have
// the initial rating.
type RatingRepository struct {
	store         ratingStore
	initialRating int
}

// NewRatingRepository wraps sqlc Queries for rating operations.
func NewRatingRepository(store ratingStore, initialRating int) *RatingRepository {
	return &RatingRepository{store: store, initialRating: initialRating}
}

// GetRating returns the stored rating or the initial rating when none exists.
func (r *RatingRepository) GetRating(ctx context.Context, userID uuid.UUID) (int, error) {
	row, err := r.store.GetPlayerRating(ctx, pgUUID(userID))
	if errors.Is(err, pgx.ErrNoRows) {
		return r.initialRating, nil
	}
	if err != nil {
		return 0, fmt.Errorf("get rating: %w", err)
	}
	return int(row.Rating), nil
}

// SetRating stores the user's rating, creating the row if needed.
func (r *RatingRepository) SetRating(ctx context.Context, userID uuid.UUID, rating int) error {
	if err := r.store.UpsertPlayerRating(ctx, sqlcgen.UpsertPlayerRatingParams{
		UserID: pgUUID(userID),
		Rating: int32(rating),
	}); err != nil {
		return fmt.Errorf("set rating: %w", err)
	}
	return nil
}
