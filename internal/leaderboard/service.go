package leaderboard

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/gokatarajesh/duel-platform/internal/match/rating"
	ws "github.com/gokatarajesh/duel-platform/pkg/http/ws"
)

// Entry is one player on the rating leaderboard.
type Entry struct {
	UserID uuid.UUID `json:"user_id"`
	Rating int       `json:"rating"`
	Wins   int       `json:"wins"`
	Losses int       `json:"losses"`
	Draws  int       `json:"draws"`
	Games  int       `json:"games"`
}

// ServiceOptions configures leaderboard service behavior.
type ServiceOptions struct {
	TopN             int
	BroadcastTopN    int
	PubSubChannel    string
	RedisKeyPrefix   string
	SnapshotTopLimit int
}

// Service keeps the rating leaderboard in a Redis sorted set with per-player
// result counters, and announces changes over Pub/Sub.
type Service struct {
	redis          *redis.Client
	logger         zerolog.Logger
	topN           int
	broadcastTopN  int
	pubsubChannel  string
	prefix         string
	snapshotTopLim int
}

// NewService constructs a leaderboard service instance.
func NewService(redis *redis.Client, logger zerolog.Logger, opts ServiceOptions) *Service {
	topN := opts.TopN
	if topN <= 0 {
		topN = 100
	}
	broadcastTopN := opts.BroadcastTopN
	if broadcastTopN <= 0 {
		broadcastTopN = 10
	}
	channel := opts.PubSubChannel
	if channel == "" {
		channel = "lb:updates"
	}
	prefix := opts.RedisKeyPrefix
	if prefix == "" {
		prefix = "lb"
	}
	snapTop := opts.SnapshotTopLimit
	if snapTop <= 0 {
		snapTop = 50
	}

	return &Service{
		redis:          redis,
		logger:         logger.With().Str("component", "leaderboard").Logger(),
		topN:           topN,
		broadcastTopN:  broadcastTopN,
		pubsubChannel:  channel,
		prefix:         prefix,
		snapshotTopLim: snapTop,
	}
}

// RecordResult stores a player's post-duel rating and counts the result.
func (s *Service) RecordResult(ctx context.Context, userID uuid.UUID, newRating int, result string) error {
	metaKey := s.metaKey(userID)

	pipe := s.redis.TxPipeline()
	pipe.ZAdd(ctx, s.ratingsKey(), redis.Z{Score: float64(newRating), Member: userID.String()})
	pipe.HIncrBy(ctx, metaKey, resultField(result), 1)
	pipe.HIncrBy(ctx, metaKey, "games", 1)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("update leaderboard for %s: %w", userID, err)
	}

	// Publish aggregate update for WebSocket consumers.
	go s.publishUpdate(context.Background())
	return nil
}

// Top returns the highest rated players, best first.
func (s *Service) Top(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 || limit > s.topN {
		limit = s.topN
	}

	results, err := s.redis.ZRevRangeWithScores(ctx, s.ratingsKey(), 0, int64(limit-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("fetch leaderboard: %w", err)
	}

	entries := make([]Entry, 0, len(results))
	for _, z := range results {
		member, ok := z.Member.(string)
		if !ok {
			continue
		}
		userID, err := uuid.Parse(member)
		if err != nil {
			s.logger.Warn().Str("member", member).Msg("skipping malformed leaderboard member")
			continue
		}
		entry, err := s.readMeta(ctx, userID)
		if err != nil {
			s.logger.Warn().Err(err).Msg("failed to read leaderboard metadata")
			continue
		}
		entry.Rating = int(z.Score)
		entries = append(entries, entry)
	}
	return entries, nil
}

// SnapshotTop returns the configured snapshot size for persistence jobs.
func (s *Service) SnapshotTop(ctx context.Context) ([]Entry, error) {
	return s.Top(ctx, s.snapshotTopLim)
}

func (s *Service) publishUpdate(ctx context.Context) {
	entries, err := s.Top(ctx, s.broadcastTopN)
	if err != nil {
		s.logger.Warn().Err(err).Msg("failed to collect leaderboard update")
		return
	}
	if len(entries) == 0 {
		return
	}

	data, err := json.Marshal(ws.LeaderboardUpdateEvent{
		Type: ws.TypeLeaderboardUpdate,
		Top:  toWSEntries(entries),
	})
	if err != nil {
		s.logger.Warn().Err(err).Msg("failed to marshal leaderboard update")
		return
	}
	if err := s.redis.Publish(ctx, s.pubsubChannel, data).Err(); err != nil {
		s.logger.Warn().Err(err).Msg("failed to publish leaderboard update")
	}
}

func (s *Service) readMeta(ctx context.Context, userID uuid.UUID) (Entry, error) {
	data, err := s.redis.HGetAll(ctx, s.metaKey(userID)).Result()
	if err != nil {
		return Entry{}, err
	}
	return Entry{
		UserID: userID,
		Wins:   parseInt(data["wins"]),
		Losses: parseInt(data["losses"]),
		Draws:  parseInt(data["draws"]),
		Games:  parseInt(data["games"]),
	}, nil
}

func (s *Service) ratingsKey() string {
	return fmt.Sprintf("%s:ratings", s.prefix)
}

func (s *Service) metaKey(userID uuid.UUID) string {
	return fmt.Sprintf("%s:meta:%s", s.prefix, userID.String())
}

func resultField(result string) string {
	switch result {
	case rating.ResultWin:
		return "wins"
	case rating.ResultLose:
		return "losses"
	default:
		return "draws"
	}
}

func parseInt(val string) int {
	if val == "" {
		return 0
	}
	i, err := strconv.Atoi(val)
	if err != nil {
		return 0
	}
	return i
}
