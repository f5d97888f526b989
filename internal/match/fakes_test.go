package match

import (
	"context"
	"encoding/json"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/gokatarajesh/duel-platform/internal/db/repository"
	"github.com/gokatarajesh/duel-platform/internal/event"
	"github.com/gokatarajesh/duel-platform/internal/match/queue"
	"github.com/gokatarajesh/duel-platform/internal/question"
	"github.com/gokatarajesh/duel-platform/pkg/http/ws"
)

type frame map[string]any

// recordingChannel captures frames as the client would decode them.
type recordingChannel struct {
	mu     sync.Mutex
	frames []frame
	closed bool
	fail   bool
}

func (c *recordingChannel) Send(v any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ws.ErrConnectionClosed
	}
	if c.fail {
		return ws.ErrSendQueueFull
	}
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	var f frame
	if err := json.Unmarshal(data, &f); err != nil {
		return err
	}
	c.frames = append(c.frames, f)
	return nil
}

func (c *recordingChannel) Close() {
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()
}

func (c *recordingChannel) setFail(fail bool) {
	c.mu.Lock()
	c.fail = fail
	c.mu.Unlock()
}

func (c *recordingChannel) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

func (c *recordingChannel) types() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, 0, len(c.frames))
	for _, f := range c.frames {
		out = append(out, f["type"].(string))
	}
	return out
}

func (c *recordingChannel) ofType(typ string) []frame {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []frame
	for _, f := range c.frames {
		if f["type"] == typ {
			out = append(out, f)
		}
	}
	return out
}

type fakeRatings struct {
	mu      sync.Mutex
	ratings map[uuid.UUID]int
	sets    map[uuid.UUID]int
	err     error
}

func newFakeRatings() *fakeRatings {
	return &fakeRatings{ratings: map[uuid.UUID]int{}, sets: map[uuid.UUID]int{}}
}

func (f *fakeRatings) GetRating(_ context.Context, userID uuid.UUID) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return 0, f.err
	}
	if r, ok := f.ratings[userID]; ok {
		return r, nil
	}
	return 1000, nil
}

func (f *fakeRatings) SetRating(_ context.Context, userID uuid.UUID, rating int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ratings[userID] = rating
	f.sets[userID] = rating
	return nil
}

func (f *fakeRatings) set(userID uuid.UUID, rating int) {
	f.mu.Lock()
	f.ratings[userID] = rating
	f.mu.Unlock()
}

func (f *fakeRatings) stored() map[uuid.UUID]int {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make(map[uuid.UUID]int, len(f.sets))
	for k, v := range f.sets {
		out[k] = v
	}
	return out
}

// fakeQuestions serves the first question not excluded, or the first of the
// pool when everything is excluded.
type fakeQuestions struct {
	mu     sync.Mutex
	pool   []question.Question
	err    error
	onPick func(excluding map[int64]struct{})
}

func (f *fakeQuestions) PickRandom(_ context.Context, excluding map[int64]struct{}) (*question.Question, error) {
	f.mu.Lock()
	hook := f.onPick
	f.mu.Unlock()
	if hook != nil {
		hook(excluding)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	if len(f.pool) == 0 {
		return nil, nil
	}
	for i := range f.pool {
		if _, skip := excluding[f.pool[i].ID]; !skip {
			q := f.pool[i]
			return &q, nil
		}
	}
	q := f.pool[0]
	return &q, nil
}

func (f *fakeQuestions) setPool(pool []question.Question) {
	f.mu.Lock()
	f.pool = pool
	f.mu.Unlock()
}

func (f *fakeQuestions) setHook(hook func(map[int64]struct{})) {
	f.mu.Lock()
	f.onPick = hook
	f.mu.Unlock()
}

type recordedAnswer struct {
	MatchID   uuid.UUID
	UserID    uuid.UUID
	Answer    string
	IsCorrect bool
}

// fakeHistory accepts one terminal record per match, like the status guard
// on the matches table.
type fakeHistory struct {
	mu       sync.Mutex
	starts   []repository.MatchStart
	ends     []repository.MatchEnd
	answers  []recordedAnswer
	scores   map[uuid.UUID][2]int
	startErr error
	onStart  func(repository.MatchStart)
}

func newFakeHistory() *fakeHistory {
	return &fakeHistory{scores: map[uuid.UUID][2]int{}}
}

func (f *fakeHistory) RecordStart(_ context.Context, start repository.MatchStart) error {
	f.mu.Lock()
	hook := f.onStart
	f.onStart = nil
	err := f.startErr
	if err == nil {
		f.starts = append(f.starts, start)
	}
	f.mu.Unlock()

	if hook != nil {
		hook(start)
	}
	return err
}

func (f *fakeHistory) RecordRoundAnswer(_ context.Context, matchID, userID uuid.UUID, answer string, isCorrect bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.answers = append(f.answers, recordedAnswer{matchID, userID, answer, isCorrect})
	return nil
}

func (f *fakeHistory) UpdateScores(_ context.Context, matchID uuid.UUID, p1, p2 int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.scores[matchID] = [2]int{p1, p2}
	return nil
}

func (f *fakeHistory) RecordEnd(_ context.Context, end repository.MatchEnd) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, e := range f.ends {
		if e.MatchID == end.MatchID {
			return false, nil
		}
	}
	f.ends = append(f.ends, end)
	return true, nil
}

func (f *fakeHistory) endsSnapshot() []repository.MatchEnd {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]repository.MatchEnd(nil), f.ends...)
}

type leaderboardCall struct {
	UserID uuid.UUID
	Rating int
	Result string
}

type fakeLeaderboard struct {
	mu    sync.Mutex
	calls []leaderboardCall
}

func (f *fakeLeaderboard) RecordResult(_ context.Context, userID uuid.UUID, rating int, result string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, leaderboardCall{userID, rating, result})
	return nil
}

type fakePublisher struct {
	mu     sync.Mutex
	events []event.MatchEvent
}

func (f *fakePublisher) Publish(_ context.Context, evt event.MatchEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, evt)
	return nil
}

func (f *fakePublisher) types() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, 0, len(f.events))
	for _, e := range f.events {
		out = append(out, e.Type)
	}
	return out
}

type duelEnv struct {
	svc         *Service
	hub         *ws.Hub
	registry    *prometheus.Registry
	ratings     *fakeRatings
	questions   *fakeQuestions
	history     *fakeHistory
	leaderboard *fakeLeaderboard
	publisher   *fakePublisher
}

func defaultPool() []question.Question {
	return []question.Question{
		*intQuestion(1, "4"),
		*intQuestion(2, "4"),
		*intQuestion(3, "4"),
		*intQuestion(4, "4"),
	}
}

func newDuelEnv(t *testing.T, settings Settings) *duelEnv {
	t.Helper()

	env := &duelEnv{
		hub:         ws.NewHub(zerolog.Nop()),
		registry:    prometheus.NewRegistry(),
		ratings:     newFakeRatings(),
		questions:   &fakeQuestions{pool: defaultPool()},
		history:     newFakeHistory(),
		leaderboard: &fakeLeaderboard{},
		publisher:   &fakePublisher{},
	}
	env.svc = NewService(Dependencies{
		Registry:    env.hub,
		Queue:       queue.NewManager(300, zerolog.Nop()),
		Ratings:     env.ratings,
		Questions:   env.questions,
		History:     env.history,
		Leaderboard: env.leaderboard,
		Publisher:   env.publisher,
		Metrics:     NewMetrics(env.registry),
	}, settings, zerolog.Nop())
	env.hub.SetDropHandler(env.svc.HandleDrop)

	t.Cleanup(func() { env.svc.Shutdown(context.Background()) })
	return env
}

func (e *duelEnv) connect(userID uuid.UUID) *recordingChannel {
	ch := &recordingChannel{}
	e.svc.Connect(userID, ch)
	return ch
}

// metricValue returns the value of the first sample of name whose labels
// include want.
func (e *duelEnv) metricValue(t *testing.T, name string, want map[string]string) float64 {
	t.Helper()
	families, err := e.registry.Gather()
	require.NoError(t, err)
	for _, mf := range families {
		if mf.GetName() != name {
			continue
		}
	next:
		for _, m := range mf.GetMetric() {
			labels := map[string]string{}
			for _, lp := range m.GetLabel() {
				labels[lp.GetName()] = lp.GetValue()
			}
			for k, v := range want {
				if labels[k] != v {
					continue next
				}
			}
			switch {
			case m.GetCounter() != nil:
				return m.GetCounter().GetValue()
			case m.GetGauge() != nil:
				return m.GetGauge().GetValue()
			}
		}
	}
	return 0
}

// reloginChannel is replaced by a newer login of the same user while a send
// to it is in flight, and that send fails.
type reloginChannel struct {
	recordingChannel
	hub   *ws.Hub
	user  uuid.UUID
	fresh ws.Channel
}

func (c *reloginChannel) Send(v any) error {
	c.hub.Register(c.user, c.fresh)
	return ws.ErrConnectionClosed
}
