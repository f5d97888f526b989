package queue

import (
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Entry is a waiting player with the rating it had when it joined.
type Entry struct {
	UserID   uuid.UUID
	Rating   int
	JoinedAt time.Time
}

// Pair is two compatible entries removed from the queue. First is the anchor,
// i.e. the one that has been waiting longer.
type Pair struct {
	First  Entry
	Second Entry
}

// Manager holds waiting players in join order and pairs them by rating
// proximity.
//
// Manager is not safe for concurrent use. It is owned by the duel coordinator,
// which serializes every call under its own lock together with the session
// table.
type Manager struct {
	entries []Entry
	maxDiff int
	logger  zerolog.Logger
}

// NewManager creates a matchmaking queue that pairs players whose ratings
// differ by at most maxRatingDiff.
func NewManager(maxRatingDiff int, logger zerolog.Logger) *Manager {
	if maxRatingDiff < 0 {
		maxRatingDiff = 0
	}
	return &Manager{
		maxDiff: maxRatingDiff,
		logger:  logger.With().Str("component", "matchmaking_queue").Logger(),
	}
}

// Join appends the entry unless the user is already waiting.
func (m *Manager) Join(e Entry) bool {
	if m.Position(e.UserID) >= 0 {
		return false
	}
	m.entries = append(m.entries, e)
	m.logger.Debug().
		Str("user_id", e.UserID.String()).
		Int("rating", e.Rating).
		Int("queue_len", len(m.entries)).
		Msg("player enqueued")
	return true
}

// Restore puts back an entry that was paired but never started a duel. It is
// placed by its original JoinedAt so it keeps its wait priority.
func (m *Manager) Restore(e Entry) bool {
	if m.Position(e.UserID) >= 0 {
		return false
	}
	idx := len(m.entries)
	for i, cur := range m.entries {
		if e.JoinedAt.Before(cur.JoinedAt) {
			idx = i
			break
		}
	}
	m.entries = append(m.entries, Entry{})
	copy(m.entries[idx+1:], m.entries[idx:])
	m.entries[idx] = e
	return true
}

// Leave removes the user's entry and reports whether one existed.
func (m *Manager) Leave(userID uuid.UUID) bool {
	idx := m.Position(userID)
	if idx < 0 {
		return false
	}
	m.removeAt(idx)
	m.logger.Debug().Str("user_id", userID.String()).Msg("player dequeued")
	return true
}

// Position returns the zero-based queue position, or -1 when absent.
func (m *Manager) Position(userID uuid.UUID) int {
	for i, e := range m.entries {
		if e.UserID == userID {
			return i
		}
	}
	return -1
}

// Contains reports whether the user is waiting.
func (m *Manager) Contains(userID uuid.UUID) bool {
	return m.Position(userID) >= 0
}

// Len returns the number of waiting players.
func (m *Manager) Len() int {
	return len(m.entries)
}

// Drain empties the queue and returns what was in it.
func (m *Manager) Drain() []Entry {
	out := m.entries
	m.entries = nil
	return out
}

// Pair removes and returns every pair it can form.
//
// The oldest entry is tried first as anchor against later entries in queue
// order; the first one within the rating threshold wins. An anchor with no
// compatible opponent keeps its place at the head while younger entries get
// their turn as anchor, so a waiting player is never skipped and no
// compatible pair is left in the queue.
func (m *Manager) Pair() []Pair {
	var pairs []Pair
	for {
		i, j, ok := m.nextPair()
		if !ok {
			return pairs
		}
		pair := Pair{First: m.entries[i], Second: m.entries[j]}
		m.removeAt(j)
		m.removeAt(i)
		pairs = append(pairs, pair)
		m.logger.Debug().
			Str("anchor", pair.First.UserID.String()).
			Str("opponent", pair.Second.UserID.String()).
			Msg("players paired")
	}
}

func (m *Manager) nextPair() (int, int, bool) {
	for i := 0; i+1 < len(m.entries); i++ {
		anchor := m.entries[i]
		for j := i + 1; j < len(m.entries); j++ {
			if m.compatible(anchor, m.entries[j]) {
				return i, j, true
			}
		}
	}
	return 0, 0, false
}

func (m *Manager) compatible(a, b Entry) bool {
	if a.UserID == b.UserID {
		return false
	}
	diff := a.Rating - b.Rating
	if diff < 0 {
		diff = -diff
	}
	return diff <= m.maxDiff
}

func (m *Manager) removeAt(idx int) {
	m.entries = append(m.entries[:idx], m.entries[idx+1:]...)
}
