package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	sqlcgen "github.com/gokatarajesh/duel-platform/internal/db/sqlc"
)

// ErrInvalidPoolLimit is returned when a pool read asks for no rows.
var ErrInvalidPoolLimit = errors.New("question pool limit must be positive")

type questionStore interface {
	GetQuestionPool(ctx context.Context, limit int32) ([]sqlcgen.Question, error)
	InsertQuestion(ctx context.Context, arg sqlcgen.InsertQuestionParams) (sqlcgen.Question, error)
}

// QuestionRepository reads the duel question pool and adds to it.
type QuestionRepository struct {
	store questionStore
}

func NewQuestionRepository(store questionStore) *QuestionRepository {
	return &QuestionRepository{store: store}
}

// FetchPool loads up to limit questions in id order.
func (r *QuestionRepository) FetchPool(ctx context.Context, limit int32) ([]sqlcgen.Question, error) {
	if limit <= 0 {
		return nil, ErrInvalidPoolLimit
	}
	rows, err := r.store.GetQuestionPool(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("load question pool: %w", err)
	}
	return rows, nil
}

// Insert adds a question. Hints that are not a JSON array are stored as [].
func (r *QuestionRepository) Insert(ctx context.Context, params sqlcgen.InsertQuestionParams) (sqlcgen.Question, error) {
	var hints []string
	if len(params.Hints) == 0 || json.Unmarshal(params.Hints, &hints) != nil {
		params.Hints = []byte(`[]`)
	}

	row, err := r.store.InsertQuestion(ctx, params)
	if err != nil {
		return sqlcgen.Question{}, fmt.Errorf("insert question %q: %w", params.Title, err)
	}
	return row, nil
}
