package match

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/gokatarajesh/duel-platform/internal/db/repository"
	"github.com/gokatarajesh/duel-platform/internal/event"
	"github.com/gokatarajesh/duel-platform/internal/match/queue"
	httperrors "github.com/gokatarajesh/duel-platform/pkg/http/errors"
	"github.com/gokatarajesh/duel-platform/pkg/http/ws"
)

const sideEffectTimeout = 5 * time.Second

// Service is the duel coordinator. It owns the matchmaking queue and the live
// session table and serializes every change to them under mu.
//
// Nothing under mu blocks: storage, Redis and broker calls run after the lock
// is released. Events are enqueued on the registry while mu is held so each
// participant observes a duel's events in transition order.
type Service struct {
	mu       sync.Mutex
	queue    *queue.Manager
	sessions map[uuid.UUID]*Session
	byUser   map[uuid.UUID]uuid.UUID
	// reserved holds users whose pairing is being persisted. Dropping an
	// entry aborts that pairing.
	reserved map[uuid.UUID]struct{}
	// closing holds users whose duel ended but whose terminal event is not
	// delivered yet.
	closing      map[uuid.UUID]struct{}
	pendingDrops []uuid.UUID
	closed       bool

	registry    Registry
	ratings     RatingStore
	questions   QuestionProvider
	history     HistoryStore
	leaderboard LeaderboardRecorder
	publisher   EventPublisher
	metrics     *Metrics
	settings    Settings
	now         func() time.Time
	logger      zerolog.Logger
}

// NewService creates the duel coordinator.
func NewService(deps Dependencies, settings Settings, logger zerolog.Logger) *Service {
	defaults := DefaultSettings()
	if settings.TargetScore <= 0 {
		settings.TargetScore = defaults.TargetScore
	}
	if settings.MaxRounds <= 0 {
		settings.MaxRounds = defaults.MaxRounds
	}
	if settings.RatingK <= 0 {
		settings.RatingK = defaults.RatingK
	}

	q := deps.Queue
	if q == nil {
		q = queue.NewManager(300, logger)
	}

	return &Service{
		queue:       q,
		sessions:    make(map[uuid.UUID]*Session),
		byUser:      make(map[uuid.UUID]uuid.UUID),
		reserved:    make(map[uuid.UUID]struct{}),
		closing:     make(map[uuid.UUID]struct{}),
		registry:    deps.Registry,
		ratings:     deps.Ratings,
		questions:   deps.Questions,
		history:     deps.History,
		leaderboard: deps.Leaderboard,
		publisher:   deps.Publisher,
		metrics:     deps.Metrics,
		settings:    settings,
		now:         time.Now,
		logger:      logger.With().Str("component", "duel_coordinator").Logger(),
	}
}

// Connect registers the user's channel and acknowledges the connection.
func (s *Service) Connect(userID uuid.UUID, ch ws.Channel) {
	s.registry.Register(userID, ch)

	s.mu.Lock()
	s.sendLocked(userID, ws.ConnectedEvent{Type: ws.TypeConnected, UserID: userID.String()})
	s.mu.Unlock()

	s.flushDrops(context.Background())
}

// Disconnect tears down a user's connection. A channel that was already
// superseded by a newer login is ignored.
func (s *Service) Disconnect(ctx context.Context, userID uuid.UUID, ch ws.Channel) {
	if !s.registry.Unregister(userID, ch) {
		return
	}
	s.dropUser(ctx, userID)
	s.flushDrops(ctx)
}

// HandleDrop treats a user whose channel failed as disconnected.
func (s *Service) HandleDrop(userID uuid.UUID) {
	ctx, cancel := context.WithTimeout(context.Background(), sideEffectTimeout)
	defer cancel()

	s.dropUser(ctx, userID)
	s.flushDrops(ctx)
}

// SendError delivers an error event to one user.
func (s *Service) SendError(ctx context.Context, userID uuid.UUID, code string) {
	s.mu.Lock()
	s.sendLocked(userID, ws.NewError(code))
	s.mu.Unlock()

	s.flushDrops(ctx)
}

// JoinQueue enqueues the user with its current rating and pairs the queue.
func (s *Service) JoinQueue(ctx context.Context, userID uuid.UUID) {
	s.mu.Lock()
	if code, busy := s.admissionLocked(userID); busy {
		s.sendLocked(userID, ws.NewError(code))
		s.mu.Unlock()
		s.flushDrops(ctx)
		return
	}
	s.mu.Unlock()

	rating, err := s.ratings.GetRating(ctx, userID)
	if err != nil {
		s.logger.Error().Err(err).Str("user_id", userID.String()).Msg("rating lookup failed")
		s.SendError(ctx, userID, httperrors.ErrCodeRatingUnavailable)
		return
	}

	s.mu.Lock()
	// state may have moved while the rating was read
	if code, busy := s.admissionLocked(userID); busy {
		s.sendLocked(userID, ws.NewError(code))
		s.mu.Unlock()
		s.flushDrops(ctx)
		return
	}
	if !s.registry.Connected(userID) {
		s.mu.Unlock()
		return
	}

	joined := s.queue.Join(queue.Entry{UserID: userID, Rating: rating, JoinedAt: s.now()})
	s.sendLocked(userID, ws.QueueJoinedEvent{
		Type:     ws.TypeQueueJoined,
		Joined:   joined,
		Position: s.queue.Position(userID),
	})
	pairs := s.pairLocked()
	s.mu.Unlock()

	s.startDuels(ctx, pairs)
	s.flushDrops(ctx)
}

// LeaveQueue removes the user from the queue.
func (s *Service) LeaveQueue(ctx context.Context, userID uuid.UUID) {
	s.mu.Lock()
	removed := s.queue.Leave(userID)
	s.sendLocked(userID, ws.QueueLeftEvent{Type: ws.TypeQueueLeft, Removed: removed})
	pairs := s.pairLocked()
	s.mu.Unlock()

	s.startDuels(ctx, pairs)
	s.flushDrops(ctx)
}

// SubmitAnswer forwards an answer to the user's duel and advances or finishes
// it. Rejections are reported to the submitter only.
func (s *Service) SubmitAnswer(ctx context.Context, userID, matchID uuid.UUID, submitted string, questionID *int64) {
	s.mu.Lock()
	sess, ok := s.sessions[matchID]
	if !ok {
		s.sendLocked(userID, ws.NewError(httperrors.ErrCodeMatchNotFound))
		s.mu.Unlock()
		s.flushDrops(ctx)
		return
	}

	res, err := sess.Submit(userID, submitted, questionID)
	if err != nil {
		s.sendLocked(userID, rejection(matchID, err))
		s.mu.Unlock()
		s.flushDrops(ctx)
		return
	}

	p1, p2 := sess.Scores()
	s.sendLocked(userID, ws.AnswerResultEvent{
		Type:         ws.TypeAnswerResult,
		MatchID:      matchID.String(),
		IsCorrect:    res.Correct,
		Scored:       res.Scored,
		Player1Score: p1,
		Player2Score: p2,
	})

	var winner *string
	if res.Scored {
		id := userID.String()
		winner = &id
	}
	roundEnd := ws.RoundEndEvent{
		Type:         ws.TypeRoundEnd,
		MatchID:      matchID.String(),
		WinnerUserID: winner,
		Player1Score: p1,
		Player2Score: p2,
	}
	for _, p := range sess.Players {
		s.sendLocked(p.UserID, roundEnd)
	}

	var (
		closure *Closure
		round   = sess.Round
		used    map[int64]struct{}
	)
	if sess.Decided(s.settings.TargetScore, s.settings.MaxRounds) {
		closure = s.finishLocked(sess)
	} else {
		used = sess.UsedQuestions()
	}
	s.mu.Unlock()

	s.metrics.answer(res.Correct)
	if err := s.history.RecordRoundAnswer(ctx, matchID, userID, submitted, res.Correct); err != nil {
		s.logger.Warn().Err(err).Str("match_id", matchID.String()).Msg("failed to record answer")
	}
	if err := s.history.UpdateScores(ctx, matchID, p1, p2); err != nil {
		s.logger.Warn().Err(err).Str("match_id", matchID.String()).Msg("failed to update scores")
	}

	if closure != nil {
		s.complete(ctx, *closure)
	} else {
		s.nextRound(ctx, matchID, round, used)
	}
	s.flushDrops(ctx)
}

// Shutdown cancels every live duel, empties the queue and refuses new work.
func (s *Service) Shutdown(ctx context.Context) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true

	for _, e := range s.queue.Drain() {
		s.sendLocked(e.UserID, ws.NewError(httperrors.ErrCodeShuttingDown))
	}
	s.metrics.observeQueue(0)

	// in-flight pairings notice the missing reservation and abort
	s.reserved = make(map[uuid.UUID]struct{})

	closures := make([]Closure, 0, len(s.sessions))
	for _, sess := range s.sessions {
		if c := s.cancelLocked(sess, ReasonShutdown); c != nil {
			closures = append(closures, *c)
		}
	}
	s.mu.Unlock()

	s.logger.Info().Int("sessions", len(closures)).Msg("canceling live duels for shutdown")
	for _, c := range closures {
		s.complete(ctx, c)
	}
	s.flushDrops(ctx)
}

// ActiveSessions returns the number of live duels.
func (s *Service) ActiveSessions() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// QueueLen returns the number of waiting players.
func (s *Service) QueueLen() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.queue.Len()
}

// SessionOf returns the id of the user's live duel.
func (s *Service) SessionOf(userID uuid.UUID) (uuid.UUID, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.byUser[userID]
	return id, ok
}

func (s *Service) admissionLocked(userID uuid.UUID) (string, bool) {
	if s.closed {
		return httperrors.ErrCodeShuttingDown, true
	}
	if _, ok := s.byUser[userID]; ok {
		return httperrors.ErrCodeAlreadyInMatch, true
	}
	if _, ok := s.reserved[userID]; ok {
		return httperrors.ErrCodeAlreadyInMatch, true
	}
	if _, ok := s.closing[userID]; ok {
		return httperrors.ErrCodeAlreadyInMatch, true
	}
	return "", false
}

func (s *Service) dropUser(ctx context.Context, userID uuid.UUID) {
	s.mu.Lock()
	s.queue.Leave(userID)
	delete(s.reserved, userID)

	var closure *Closure
	if id, ok := s.byUser[userID]; ok {
		if sess, ok := s.sessions[id]; ok {
			closure = s.cancelLocked(sess, ReasonDisconnect)
		}
	}
	// the departed user may have been the only anchor blocking others
	pairs := s.pairLocked()
	s.mu.Unlock()

	if closure != nil {
		s.logger.Info().
			Str("match_id", closure.MatchID.String()).
			Str("user_id", userID.String()).
			Msg("duel canceled by disconnect")
		s.complete(ctx, *closure)
	}
	s.startDuels(ctx, pairs)
}

func (s *Service) pairLocked() []queue.Pair {
	if s.closed {
		return nil
	}
	pairs := s.queue.Pair()
	for _, p := range pairs {
		s.reserved[p.First.UserID] = struct{}{}
		s.reserved[p.Second.UserID] = struct{}{}
	}
	s.metrics.observeQueue(s.queue.Len())
	return pairs
}

func (s *Service) startDuels(ctx context.Context, pairs []queue.Pair) {
	for len(pairs) > 0 {
		p := pairs[0]
		pairs = append(pairs[1:], s.startDuel(ctx, p)...)
	}
}

// startDuel turns a reserved pair into a live session. It returns pairs formed
// while restoring a survivor of an aborted pairing.
func (s *Service) startDuel(ctx context.Context, p queue.Pair) []queue.Pair {
	q, err := s.questions.PickRandom(ctx, nil)
	if err != nil || q == nil {
		if err != nil {
			s.logger.Error().Err(err).Msg("question pick failed")
		}
		s.failPairing(p, httperrors.ErrCodeNoTasks)
		return nil
	}

	matchID := uuid.New()
	start := repository.MatchStart{
		MatchID:             matchID,
		QuestionID:          q.ID,
		Player1ID:           p.First.UserID,
		Player2ID:           p.Second.UserID,
		Player1RatingBefore: p.First.Rating,
		Player2RatingBefore: p.Second.Rating,
	}
	if err := s.history.RecordStart(ctx, start); err != nil {
		s.logger.Error().Err(err).Str("match_id", matchID.String()).Msg("failed to persist duel start")
		s.failPairing(p, httperrors.ErrCodeMatchCreationFailed)
		return nil
	}

	s.mu.Lock()
	_, firstOK := s.reserved[p.First.UserID]
	_, secondOK := s.reserved[p.Second.UserID]
	delete(s.reserved, p.First.UserID)
	delete(s.reserved, p.Second.UserID)

	if s.closed || !firstOK || !secondOK {
		reason := ReasonDisconnect
		if s.closed {
			reason = ReasonShutdown
		}
		var pairs []queue.Pair
		if s.closed {
			// Shutdown already drained the queue; these two were outside it
			s.sendLocked(p.First.UserID, ws.NewError(httperrors.ErrCodeShuttingDown))
			s.sendLocked(p.Second.UserID, ws.NewError(httperrors.ErrCodeShuttingDown))
		} else {
			if firstOK {
				s.queue.Restore(p.First)
			}
			if secondOK {
				s.queue.Restore(p.Second)
			}
			pairs = s.pairLocked()
		}
		s.mu.Unlock()

		s.metrics.aborted()
		s.logger.Info().Str("match_id", matchID.String()).Str("reason", reason).Msg("pairing aborted before start")
		if _, err := s.history.RecordEnd(ctx, repository.MatchEnd{
			MatchID: matchID,
			Status:  StatusCanceled,
			Reason:  reason,
		}); err != nil {
			s.logger.Warn().Err(err).Str("match_id", matchID.String()).Msg("failed to close aborted duel")
		}
		return pairs
	}

	sess := newSession(matchID, p.First, p.Second, q, s.now())
	s.sessions[matchID] = sess
	s.byUser[p.First.UserID] = matchID
	s.byUser[p.Second.UserID] = matchID
	s.armLocked(sess)

	task := sess.Task()
	for seat, player := range sess.Players {
		s.sendLocked(player.UserID, ws.MatchFoundEvent{
			Type:           ws.TypeMatchFound,
			MatchID:        matchID.String(),
			Round:          sess.Round,
			TargetScore:    s.settings.TargetScore,
			Task:           task,
			OpponentUserID: sess.Opponent(seat).String(),
		})
	}
	s.metrics.observeActive(len(s.sessions))
	s.mu.Unlock()

	s.logger.Info().
		Str("match_id", matchID.String()).
		Str("player1", p.First.UserID.String()).
		Str("player2", p.Second.UserID.String()).
		Int64("question_id", q.ID).
		Msg("duel started")

	s.publish(ctx, event.MatchEvent{
		Type:      event.TypeDuelStarted,
		MatchID:   matchID.String(),
		Player1ID: p.First.UserID.String(),
		Player2ID: p.Second.UserID.String(),
	})
	return nil
}

func (s *Service) failPairing(p queue.Pair, code string) {
	s.mu.Lock()
	delete(s.reserved, p.First.UserID)
	delete(s.reserved, p.Second.UserID)
	s.sendLocked(p.First.UserID, ws.NewError(code))
	s.sendLocked(p.Second.UserID, ws.NewError(code))
	s.mu.Unlock()
}

func (s *Service) armLocked(sess *Session) {
	id := sess.ID
	sess.arm(s.settings.MatchTimeout, func() { s.expire(id) })
}

// expire runs on the session timer. A session that already ended is a no-op.
func (s *Service) expire(matchID uuid.UUID) {
	ctx, cancel := context.WithTimeout(context.Background(), sideEffectTimeout)
	defer cancel()

	s.mu.Lock()
	sess, ok := s.sessions[matchID]
	if !ok {
		s.mu.Unlock()
		return
	}
	closure := s.finishLocked(sess)
	s.mu.Unlock()

	if closure != nil {
		s.logger.Info().Str("match_id", matchID.String()).Msg("duel timed out")
		s.complete(ctx, *closure)
	}
	s.flushDrops(ctx)
}

// nextRound opens round+1 unless the session ended or moved on meanwhile.
// Without any question left the duel finishes.
func (s *Service) nextRound(ctx context.Context, matchID uuid.UUID, round int, used map[int64]struct{}) {
	q, err := s.questions.PickRandom(ctx, used)
	if err != nil {
		s.logger.Error().Err(err).Str("match_id", matchID.String()).Msg("question pick failed, finishing duel")
	}

	s.mu.Lock()
	sess, ok := s.sessions[matchID]
	if !ok || sess.Round != round {
		s.mu.Unlock()
		return
	}

	if q == nil {
		closure := s.finishLocked(sess)
		s.mu.Unlock()
		if closure != nil {
			s.complete(ctx, *closure)
		}
		return
	}

	sess.Advance(q)
	if s.settings.ResetTimeoutEachRound {
		s.armLocked(sess)
	}
	next := ws.NextTaskEvent{
		Type:    ws.TypeNextTask,
		MatchID: matchID.String(),
		Round:   sess.Round,
		Task:    sess.Task(),
	}
	for _, p := range sess.Players {
		s.sendLocked(p.UserID, next)
	}
	s.mu.Unlock()
}

func (s *Service) finishLocked(sess *Session) *Closure {
	c, ok := sess.Finish(s.settings.RatingK)
	if !ok {
		return nil
	}
	s.removeLocked(sess)
	return &c
}

func (s *Service) cancelLocked(sess *Session, reason string) *Closure {
	c, ok := sess.Cancel(reason)
	if !ok {
		return nil
	}
	s.removeLocked(sess)
	return &c
}

// removeLocked takes the session out of the live table. This is the commit
// point of its terminal transition.
func (s *Service) removeLocked(sess *Session) {
	delete(s.sessions, sess.ID)
	for _, p := range sess.Players {
		if s.byUser[p.UserID] == sess.ID {
			delete(s.byUser, p.UserID)
		}
		s.closing[p.UserID] = struct{}{}
	}
	s.metrics.observeActive(len(s.sessions))
}

// complete persists a terminal transition and then notifies both players.
func (s *Service) complete(ctx context.Context, c Closure) {
	end := repository.MatchEnd{
		MatchID:      c.MatchID,
		Status:       c.Status,
		Reason:       c.Reason,
		Player1Score: c.Players[0].Score,
		Player2Score: c.Players[1].Score,
	}
	finished := c.Status == StatusFinished
	if finished {
		r1, r2 := c.Players[0].RatingAfter, c.Players[1].RatingAfter
		end.Player1RatingAfter = &r1
		end.Player2RatingAfter = &r2
	}

	persisted, err := s.history.RecordEnd(ctx, end)
	switch {
	case err != nil:
		s.logger.Error().Err(err).Str("match_id", c.MatchID.String()).Msg("failed to persist duel end")
	case !persisted:
		s.logger.Warn().Str("match_id", c.MatchID.String()).Msg("duel end already recorded")
	}

	if finished {
		for i, p := range c.Players {
			if err := s.ratings.SetRating(ctx, p.UserID, p.RatingAfter); err != nil {
				s.logger.Error().Err(err).Str("user_id", p.UserID.String()).Msg("failed to store rating")
			}
			if s.leaderboard != nil {
				if err := s.leaderboard.RecordResult(ctx, p.UserID, p.RatingAfter, c.Results[i]); err != nil {
					s.logger.Warn().Err(err).Str("user_id", p.UserID.String()).Msg("failed to update leaderboard")
				}
			}
		}
	}

	evt := event.MatchEvent{
		Type:         event.TypeDuelCanceled,
		MatchID:      c.MatchID.String(),
		Player1ID:    c.Players[0].UserID.String(),
		Player2ID:    c.Players[1].UserID.String(),
		Player1Score: c.Players[0].Score,
		Player2Score: c.Players[1].Score,
		Reason:       c.Reason,
	}
	if finished {
		evt.Type = event.TypeDuelFinished
		evt.Player1RatingAfter = end.Player1RatingAfter
		evt.Player2RatingAfter = end.Player2RatingAfter
	}
	s.publish(ctx, evt)
	s.metrics.duelEnded(c.Status, c.Reason, s.now().Sub(c.StartedAt).Seconds())

	s.mu.Lock()
	for i, p := range c.Players {
		if finished {
			s.sendLocked(p.UserID, ws.MatchEndEvent{
				Type:         ws.TypeMatchEnd,
				MatchID:      c.MatchID.String(),
				Result:       c.Results[i],
				RatingBefore: p.RatingBefore,
				RatingAfter:  p.RatingAfter,
			})
		} else {
			s.sendLocked(p.UserID, ws.MatchCanceledEvent{
				Type:    ws.TypeMatchCanceled,
				MatchID: c.MatchID.String(),
				Reason:  c.Reason,
			})
		}
		delete(s.closing, p.UserID)
	}
	s.mu.Unlock()

	s.logger.Info().
		Str("match_id", c.MatchID.String()).
		Str("status", c.Status).
		Int("player1_score", c.Players[0].Score).
		Int("player2_score", c.Players[1].Score).
		Msg("duel ended")
}

func (s *Service) publish(ctx context.Context, evt event.MatchEvent) {
	if s.publisher == nil {
		return
	}
	evt.OccurredAt = s.now().UTC()
	if err := s.publisher.Publish(ctx, evt); err != nil {
		s.logger.Warn().Err(err).Str("type", evt.Type).Msg("failed to publish duel event")
	}
}

// sendLocked enqueues v for the user. A failed delivery already removed the
// channel; the user is handled as disconnected once mu is released.
func (s *Service) sendLocked(userID uuid.UUID, v any) {
	if err := s.registry.Send(userID, v); err != nil {
		s.pendingDrops = append(s.pendingDrops, userID)
	}
}

func (s *Service) flushDrops(ctx context.Context) {
	for {
		s.mu.Lock()
		drops := s.pendingDrops
		s.pendingDrops = nil
		s.mu.Unlock()

		if len(drops) == 0 {
			return
		}
		for _, userID := range drops {
			s.dropUser(ctx, userID)
		}
	}
}

func rejection(matchID uuid.UUID, err error) any {
	switch {
	case errors.Is(err, ErrRoundClosed):
		return ws.MatchRefEvent{Type: ws.TypeRoundClosed, MatchID: matchID.String()}
	case errors.Is(err, ErrWrongQuestion):
		return ws.MatchRefEvent{Type: ws.TypeWrongTask, MatchID: matchID.String()}
	default:
		return ws.NewError(httperrors.ErrCodeMatchNotFound)
	}
}
