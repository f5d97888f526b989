package match

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/gokatarajesh/duel-platform/internal/db/repository"
	"github.com/gokatarajesh/duel-platform/internal/event"
	"github.com/gokatarajesh/duel-platform/internal/match/queue"
	"github.com/gokatarajesh/duel-platform/internal/question"
	"github.com/gokatarajesh/duel-platform/pkg/http/ws"
)

// Session lifecycle states.
const (
	StatusActive   = "active"
	StatusFinished = "finished"
	StatusCanceled = "canceled"
)

// Cancellation reasons.
const (
	ReasonDisconnect = "disconnect"
	ReasonShutdown   = "shutdown"
)

// RatingStore reads and writes persistent player ratings. GetRating returns
// the initial rating for unknown players.
type RatingStore interface {
	GetRating(ctx context.Context, userID uuid.UUID) (int, error)
	SetRating(ctx context.Context, userID uuid.UUID, rating int) error
}

// QuestionProvider draws a question not in excluding, falling back to the
// whole pool. It returns nil only when no questions exist.
type QuestionProvider interface {
	PickRandom(ctx context.Context, excluding map[int64]struct{}) (*question.Question, error)
}

// HistoryStore persists the duel record.
type HistoryStore interface {
	RecordStart(ctx context.Context, start repository.MatchStart) error
	RecordRoundAnswer(ctx context.Context, matchID, userID uuid.UUID, answer string, isCorrect bool) error
	UpdateScores(ctx context.Context, matchID uuid.UUID, player1Score, player2Score int) error
	RecordEnd(ctx context.Context, end repository.MatchEnd) (bool, error)
}

// Registry delivers events to connected users. Send must not block.
type Registry interface {
	Register(userID uuid.UUID, ch ws.Channel)
	Unregister(userID uuid.UUID, ch ws.Channel) bool
	Connected(userID uuid.UUID) bool
	Send(userID uuid.UUID, v any) error
}

// LeaderboardRecorder receives post-duel ratings and results.
type LeaderboardRecorder interface {
	RecordResult(ctx context.Context, userID uuid.UUID, rating int, result string) error
}

// EventPublisher emits duel lifecycle events to other services.
type EventPublisher interface {
	Publish(ctx context.Context, evt event.MatchEvent) error
}

// Settings tunes duel gameplay.
type Settings struct {
	TargetScore           int
	MaxRounds             int
	RatingK               int
	MatchTimeout          time.Duration
	ResetTimeoutEachRound bool
}

// DefaultSettings mirrors the configuration defaults.
func DefaultSettings() Settings {
	return Settings{
		TargetScore:  3,
		MaxRounds:    10,
		RatingK:      32,
		MatchTimeout: 60 * time.Second,
	}
}

// Dependencies are the collaborators of the duel coordinator. Leaderboard,
// Publisher and Metrics are optional.
type Dependencies struct {
	Registry    Registry
	Queue       *queue.Manager
	Ratings     RatingStore
	Questions   QuestionProvider
	History     HistoryStore
	Leaderboard LeaderboardRecorder
	Publisher   EventPublisher
	Metrics     *Metrics
}
