package repository

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	sqlcgen "github.com/gokatarajesh/duel-platform/internal/db/sqlc"
)

type mockRatingStore struct {
	mock.Mock
}

func (m *mockRatingStore) GetPlayerRating(ctx context.Context, userID pgtype.UUID) (sqlcgen.PlayerRating, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(sqlcgen.PlayerRating), args.Error(1)
}

func (m *mockRatingStore) UpsertPlayerRating(ctx context.Context, arg sqlcgen.UpsertPlayerRatingParams) error {
	return m.Called(ctx, arg).Error(0)
}

func TestRatingRepository_GetRating(t *testing.T) {
	store := new(mockRatingStore)
	repo := NewRatingRepository(store, 1000)

	store.On("GetPlayerRating", mock.Anything, pgFromByte(1)).Return(sqlcgen.PlayerRating{UserID: pgFromByte(1), Rating: 1234}, nil)

	got, err := repo.GetRating(context.Background(), uuidFromByte(1))
	assert.NoError(t, err)
	assert.Equal(t, 1234, got)
	store.AssertExpectations(t)
}

func TestRatingRepository_GetRatingDefaultsWhenMissing(t *testing.T) {
	store := new(mockRatingStore)
	repo := NewRatingRepository(store, 1000)

	store.On("GetPlayerRating", mock.Anything, pgFromByte(2)).Return(sqlcgen.PlayerRating{}, pgx.ErrNoRows)

	got, err := repo.GetRating(context.Background(), uuidFromByte(2))
	assert.NoError(t, err)
	assert.Equal(t, 1000, got)
}

func TestRatingRepository_GetRatingError(t *testing.T) {
	store := new(mockRatingStore)
	repo := NewRatingRepository(store, 1000)
	boom := errors.New("connection refused")

	store.On("GetPlayerRating", mock.Anything, pgFromByte(3)).Return(sqlcgen.PlayerRating{}, boom)

	_, err := repo.GetRating(context.Background(), uuidFromByte(3))
	assert.ErrorIs(t, err, boom)
}

func TestRatingRepository_SetRating(t *testing.T) {
	store := new(mockRatingStore)
	repo := NewRatingRepository(store, 1000)

	params := sqlcgen.UpsertPlayerRatingParams{UserID: pgFromByte(4), Rating: 1016}
	store.On("UpsertPlayerRating", mock.Anything, params).Return(nil)

	assert.NoError(t, repo.SetRating(context.Background(), uuidFromByte(4), 1016))
	store.AssertExpectations(t)
}
