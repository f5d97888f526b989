package question

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand/v2"

	"github.com/rs/zerolog"

	sqlcgen "github.com/gokatarajesh/duel-platform/internal/db/sqlc"
)

const defaultPoolLimit = 5000

// PoolCache defines cache behavior (implemented by Redis-backed Cache).
type PoolCache interface {
	Get(ctx context.Context) ([]Question, error)
	Set(ctx context.Context, pool []Question) error
	Invalidate(ctx context.Context) error
}

type questionRepo interface {
	FetchPool(ctx context.Context, limit int32) ([]sqlcgen.Question, error)
	Insert(ctx context.Context, params sqlcgen.InsertQuestionParams) (sqlcgen.Question, error)
}

// ServiceOptions configures the question service.
type ServiceOptions struct {
	PoolLimit int
	// Pick returns an index in [0, n). Defaults to math/rand/v2.
	Pick func(n int) int
}

// Service serves random questions from the pool.
type Service struct {
	repo      questionRepo
	cache     PoolCache
	poolLimit int
	pick      func(n int) int
	logger    zerolog.Logger
}

func NewService(repo questionRepo, cache PoolCache, logger zerolog.Logger, opts ServiceOptions) *Service {
	limit := opts.PoolLimit
	if limit <= 0 {
		limit = defaultPoolLimit
	}
	pick := opts.Pick
	if pick == nil {
		pick = rand.IntN
	}
	return &Service{
		repo:      repo,
		cache:     cache,
		poolLimit: limit,
		pick:      pick,
		logger:    logger.With().Str("component", "question_service").Logger(),
	}
}

// PickRandom returns a random question whose id is not in excluding. When
// every question is excluded it picks from the whole pool. It returns nil
// only when the pool is empty.
func (s *Service) PickRandom(ctx context.Context, excluding map[int64]struct{}) (*Question, error) {
	pool, err := s.Pool(ctx)
	if err != nil {
		return nil, err
	}
	if len(pool) == 0 {
		return nil, nil
	}

	candidates := make([]Question, 0, len(pool))
	for _, q := range pool {
		if _, used := excluding[q.ID]; !used {
			candidates = append(candidates, q)
		}
	}
	if len(candidates) == 0 {
		candidates = pool
	}

	q := candidates[s.pick(len(candidates))]
	return &q, nil
}

// Pool returns the question pool, preferring the cached snapshot.
func (s *Service) Pool(ctx context.Context) ([]Question, error) {
	if s.cache != nil {
		cached, err := s.cache.Get(ctx)
		if err != nil {
			s.logger.Warn().Err(err).Msg("question cache read failed")
		} else if len(cached) > 0 {
			return cached, nil
		}
	}
	return s.Refresh(ctx)
}

// Refresh loads the pool from Postgres and stores it in the cache.
func (s *Service) Refresh(ctx context.Context) ([]Question, error) {
	rows, err := s.repo.FetchPool(ctx, int32(s.poolLimit))
	if err != nil {
		return nil, fmt.Errorf("fetch question pool: %w", err)
	}

	pool := make([]Question, 0, len(rows))
	for _, row := range rows {
		pool = append(pool, s.toDomain(row))
	}

	if s.cache != nil && len(pool) > 0 {
		if err := s.cache.Set(ctx, pool); err != nil {
			s.logger.Warn().Err(err).Msg("question cache write failed")
		}
	}
	return pool, nil
}

// Add stores a new question and drops the cached pool.
func (s *Service) Add(ctx context.Context, in NewQuestion) (Question, error) {
	if in.Title == "" || in.Statement == "" || in.CorrectAnswer == "" {
		return Question{}, fmt.Errorf("title, statement and correct_answer are required")
	}
	hints := in.Hints
	if hints == nil {
		hints = []string{}
	}
	rawHints, err := json.Marshal(hints)
	if err != nil {
		return Question{}, fmt.Errorf("marshal hints: %w", err)
	}

	row, err := s.repo.Insert(ctx, sqlcgen.InsertQuestionParams{
		Title:         in.Title,
		Statement:     in.Statement,
		Subject:       in.Subject,
		Topic:         in.Topic,
		Difficulty:    int32(in.Difficulty),
		AnswerType:    normalizeAnswerType(in.AnswerType),
		CorrectAnswer: in.CorrectAnswer,
		Hints:         rawHints,
	})
	if err != nil {
		return Question{}, fmt.Errorf("insert question: %w", err)
	}

	if s.cache != nil {
		if err := s.cache.Invalidate(ctx); err != nil {
			s.logger.Warn().Err(err).Msg("question cache invalidate failed")
		}
	}
	return s.toDomain(row), nil
}

func (s *Service) toDomain(row sqlcgen.Question) Question {
	hints := []string{}
	if len(row.Hints) > 0 {
		if err := json.Unmarshal(row.Hints, &hints); err != nil {
			s.logger.Warn().Err(err).Int64("question_id", row.QuestionID).Msg("skip malformed hints")
			hints = []string{}
		}
	}
	return Question{
		ID:            row.QuestionID,
		Title:         row.Title,
		Statement:     row.Statement,
		Subject:       row.Subject,
		Topic:         row.Topic,
		Difficulty:    int(row.Difficulty),
		AnswerType:    normalizeAnswerType(row.AnswerType),
		CorrectAnswer: row.CorrectAnswer,
		Hints:         hints,
	}
}
