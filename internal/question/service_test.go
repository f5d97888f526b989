package question

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	sqlcgen "github.com/gokatarajesh/duel-platform/internal/db/sqlc"
)

type stubQuestionRepo struct {
	rows      []sqlcgen.Question
	fetchErr  error
	fetches   int
	inserted  []sqlcgen.InsertQuestionParams
	insertErr error
}

func (s *stubQuestionRepo) FetchPool(_ context.Context, limit int32) ([]sqlcgen.Question, error) {
	s.fetches++
	if s.fetchErr != nil {
		return nil, s.fetchErr
	}
	if int(limit) < len(s.rows) {
		return s.rows[:limit], nil
	}
	return s.rows, nil
}

func (s *stubQuestionRepo) Insert(_ context.Context, params sqlcgen.InsertQuestionParams) (sqlcgen.Question, error) {
	if s.insertErr != nil {
		return sqlcgen.Question{}, s.insertErr
	}
	s.inserted = append(s.inserted, params)
	return sqlcgen.Question{
		QuestionID:    int64(100 + len(s.inserted)),
		Title:         params.Title,
		Statement:     params.Statement,
		AnswerType:    params.AnswerType,
		CorrectAnswer: params.CorrectAnswer,
		Hints:         params.Hints,
	}, nil
}

type memoryCache struct {
	pool        []Question
	sets        int
	invalidated int
}

func (c *memoryCache) Get(context.Context) ([]Question, error) {
	return c.pool, nil
}

func (c *memoryCache) Set(_ context.Context, pool []Question) error {
	c.pool = pool
	c.sets++
	return nil
}

func (c *memoryCache) Invalidate(context.Context) error {
	c.pool = nil
	c.invalidated++
	return nil
}

func sqlQuestion(id int64) sqlcgen.Question {
	return sqlcgen.Question{
		QuestionID:    id,
		Title:         "q",
		Statement:     "statement",
		Difficulty:    2,
		AnswerType:    "INT",
		CorrectAnswer: "4",
		Hints:         []byte(`["add"]`),
	}
}

func firstIndex(int) int { return 0 }

func TestPickRandomUsesCacheAfterFirstLoad(t *testing.T) {
	repo := &stubQuestionRepo{rows: []sqlcgen.Question{sqlQuestion(1), sqlQuestion(2)}}
	cache := &memoryCache{}
	svc := NewService(repo, cache, zerolog.Nop(), ServiceOptions{Pick: firstIndex})

	q, err := svc.PickRandom(context.Background(), nil)
	require.NoError(t, err)
	require.NotNil(t, q)
	assert.Equal(t, int64(1), q.ID)
	assert.Equal(t, AnswerInt, q.AnswerType)
	assert.Equal(t, []string{"add"}, q.Hints)

	_, err = svc.PickRandom(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, 1, repo.fetches)
	assert.Equal(t, 1, cache.sets)
}

func TestPickRandomSkipsExcluded(t *testing.T) {
	repo := &stubQuestionRepo{rows: []sqlcgen.Question{sqlQuestion(1), sqlQuestion(2), sqlQuestion(3)}}
	svc := NewService(repo, &memoryCache{}, zerolog.Nop(), ServiceOptions{Pick: firstIndex})

	q, err := svc.PickRandom(context.Background(), map[int64]struct{}{1: {}, 2: {}})
	require.NoError(t, err)
	assert.Equal(t, int64(3), q.ID)
}

func TestPickRandomFallsBackToWholePool(t *testing.T) {
	repo := &stubQuestionRepo{rows: []sqlcgen.Question{sqlQuestion(1), sqlQuestion(2)}}
	svc := NewService(repo, &memoryCache{}, zerolog.Nop(), ServiceOptions{Pick: firstIndex})

	q, err := svc.PickRandom(context.Background(), map[int64]struct{}{1: {}, 2: {}})
	require.NoError(t, err)
	require.NotNil(t, q)
	assert.Equal(t, int64(1), q.ID)
}

func TestPickRandomEmptyPool(t *testing.T) {
	svc := NewService(&stubQuestionRepo{}, &memoryCache{}, zerolog.Nop(), ServiceOptions{})

	q, err := svc.PickRandom(context.Background(), nil)
	assert.NoError(t, err)
	assert.Nil(t, q)
}

func TestPickRandomPropagatesStoreError(t *testing.T) {
	boom := errors.New("db down")
	svc := NewService(&stubQuestionRepo{fetchErr: boom}, nil, zerolog.Nop(), ServiceOptions{})

	_, err := svc.PickRandom(context.Background(), nil)
	assert.ErrorIs(t, err, boom)
}

func TestPickRandomStaysInRange(t *testing.T) {
	repo := &stubQuestionRepo{rows: []sqlcgen.Question{sqlQuestion(1), sqlQuestion(2), sqlQuestion(3)}}
	svc := NewService(repo, nil, zerolog.Nop(), ServiceOptions{})

	for i := 0; i < 50; i++ {
		q, err := svc.PickRandom(context.Background(), map[int64]struct{}{2: {}})
		require.NoError(t, err)
		assert.NotEqual(t, int64(2), q.ID)
	}
}

func TestAddInvalidatesCache(t *testing.T) {
	repo := &stubQuestionRepo{}
	cache := &memoryCache{pool: []Question{{ID: 1}}}
	svc := NewService(repo, cache, zerolog.Nop(), ServiceOptions{})

	q, err := svc.Add(context.Background(), NewQuestion{
		Title:         "Pi",
		Statement:     "Six places",
		AnswerType:    " Float ",
		CorrectAnswer: "3.141592",
	})
	require.NoError(t, err)
	assert.Equal(t, AnswerFloat, q.AnswerType)
	assert.Equal(t, []string{}, q.Hints)
	assert.Equal(t, 1, cache.invalidated)
	require.Len(t, repo.inserted, 1)
	assert.Equal(t, []byte(`[]`), repo.inserted[0].Hints)
}

func TestAddRejectsIncompleteQuestion(t *testing.T) {
	svc := NewService(&stubQuestionRepo{}, nil, zerolog.Nop(), ServiceOptions{})

	_, err := svc.Add(context.Background(), NewQuestion{Title: "no answer", Statement: "s"})
	assert.Error(t, err)
}
