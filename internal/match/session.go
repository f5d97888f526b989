package match

import (
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/gokatarajesh/duel-platform/internal/match/answer"
	"github.com/gokatarajesh/duel-platform/internal/match/queue"
	"github.com/gokatarajesh/duel-platform/internal/match/rating"
	"github.com/gokatarajesh/duel-platform/internal/question"
	"github.com/gokatarajesh/duel-platform/pkg/http/ws"
)

var (
	ErrNotParticipant = errors.New("user is not a participant")
	ErrRoundClosed    = errors.New("round already closed")
	ErrWrongQuestion  = errors.New("answer is for another question")
)

// Participant is one side of a duel. RatingAfter equals RatingBefore until the
// duel finishes.
type Participant struct {
	UserID       uuid.UUID
	RatingBefore int
	RatingAfter  int
	Score        int
}

// SubmitResult describes an accepted answer.
type SubmitResult struct {
	Seat    int
	Correct bool
	Scored  bool
}

// Closure is the terminal snapshot of a session, taken exactly once.
type Closure struct {
	MatchID   uuid.UUID
	Status    string
	Reason    string
	Players   [2]Participant
	Results   [2]string
	StartedAt time.Time
}

// Session is the state of one live duel. It is not safe for concurrent use;
// the coordinator guards it with its lock.
type Session struct {
	ID        uuid.UUID
	Players   [2]Participant
	Round     int
	StartedAt time.Time

	question  question.Question
	used      map[int64]struct{}
	roundOpen bool
	timer     *time.Timer
	status    string
	reason    string
}

func newSession(id uuid.UUID, first, second queue.Entry, q *question.Question, now time.Time) *Session {
	return &Session{
		ID: id,
		Players: [2]Participant{
			{UserID: first.UserID, RatingBefore: first.Rating, RatingAfter: first.Rating},
			{UserID: second.UserID, RatingBefore: second.Rating, RatingAfter: second.Rating},
		},
		Round:     1,
		StartedAt: now,
		question:  *q,
		used:      map[int64]struct{}{q.ID: {}},
		roundOpen: true,
		status:    StatusActive,
	}
}

// Seat returns 0 or 1 for a participant and -1 otherwise.
func (s *Session) Seat(userID uuid.UUID) int {
	for i, p := range s.Players {
		if p.UserID == userID {
			return i
		}
	}
	return -1
}

// Opponent returns the other participant's id.
func (s *Session) Opponent(seat int) uuid.UUID {
	return s.Players[1-seat].UserID
}

// Scores returns both scores in seat order.
func (s *Session) Scores() (int, int) {
	return s.Players[0].Score, s.Players[1].Score
}

// QuestionID is the id of the current round's question.
func (s *Session) QuestionID() int64 {
	return s.question.ID
}

// RoundOpen reports whether the current round still accepts an answer.
func (s *Session) RoundOpen() bool {
	return s.roundOpen
}

// Status is active until the session reaches a terminal state.
func (s *Session) Status() string {
	return s.status
}

// Task is the client view of the current question.
func (s *Session) Task() ws.TaskPayload {
	hints := s.question.Hints
	if hints == nil {
		hints = []string{}
	}
	return ws.TaskPayload{
		ID:         s.question.ID,
		Title:      s.question.Title,
		Statement:  s.question.Statement,
		Subject:    s.question.Subject,
		Topic:      s.question.Topic,
		Difficulty: s.question.Difficulty,
		AnswerType: s.question.AnswerType,
		Hints:      hints,
	}
}

// Submit evaluates the first answer of a round. Whatever its correctness, it
// closes the round; only a correct answer scores.
func (s *Session) Submit(userID uuid.UUID, submitted string, questionID *int64) (SubmitResult, error) {
	seat := s.Seat(userID)
	if seat < 0 {
		return SubmitResult{}, ErrNotParticipant
	}
	if s.status != StatusActive || !s.roundOpen {
		return SubmitResult{}, ErrRoundClosed
	}
	if questionID != nil && *questionID != s.question.ID {
		return SubmitResult{}, ErrWrongQuestion
	}

	correct := answer.Check(submitted, s.question.CorrectAnswer, answer.ParseKind(s.question.AnswerType))
	s.roundOpen = false
	if correct {
		s.Players[seat].Score++
	}
	return SubmitResult{Seat: seat, Correct: correct, Scored: correct}, nil
}

// Decided reports whether the duel must end instead of starting another round.
func (s *Session) Decided(targetScore, maxRounds int) bool {
	for _, p := range s.Players {
		if p.Score >= targetScore {
			return true
		}
	}
	return s.Round >= maxRounds
}

// Advance opens the next round with q.
func (s *Session) Advance(q *question.Question) {
	s.Round++
	s.question = *q
	s.used[q.ID] = struct{}{}
	s.roundOpen = true
}

// UsedQuestions returns a copy of the ids asked so far.
func (s *Session) UsedQuestions() map[int64]struct{} {
	out := make(map[int64]struct{}, len(s.used))
	for id := range s.used {
		out[id] = struct{}{}
	}
	return out
}

// Finish ends the duel and computes new ratings from the pre-duel snapshots.
// It returns false if the session was already terminal.
func (s *Session) Finish(k int) (Closure, bool) {
	if s.status != StatusActive {
		return Closure{}, false
	}
	s.stopTimer()
	s.status = StatusFinished
	s.roundOpen = false

	p1, p2 := &s.Players[0], &s.Players[1]
	outcome := rating.Outcome(p1.Score, p2.Score)
	p1.RatingAfter, p2.RatingAfter = rating.Update(p1.RatingBefore, p2.RatingBefore, outcome, k)

	c := s.closure()
	c.Results = [2]string{rating.Label(outcome), rating.Label(1 - outcome)}
	return c, true
}

// Cancel ends the duel without a rating change. It returns false if the
// session was already terminal.
func (s *Session) Cancel(reason string) (Closure, bool) {
	if s.status != StatusActive {
		return Closure{}, false
	}
	s.stopTimer()
	s.status = StatusCanceled
	s.reason = reason
	s.roundOpen = false
	return s.closure(), true
}

func (s *Session) closure() Closure {
	return Closure{
		MatchID:   s.ID,
		Status:    s.status,
		Reason:    s.reason,
		Players:   s.Players,
		StartedAt: s.StartedAt,
	}
}

// arm replaces the session timer with one that calls fire after d.
func (s *Session) arm(d time.Duration, fire func()) {
	s.stopTimer()
	if d <= 0 {
		return
	}
	s.timer = time.AfterFunc(d, fire)
}

func (s *Session) stopTimer() {
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
}
