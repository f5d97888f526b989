package event

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDisabledPublisherDropsEvents(t *testing.T) {
	p, err := NewPublisher("", "", zerolog.Nop())
	require.NoError(t, err)

	assert.False(t, p.Enabled())
	assert.Equal(t, "duel.events", p.exchange)
	assert.NoError(t, p.Publish(context.Background(), MatchEvent{Type: TypeDuelStarted, MatchID: "m"}))
	assert.NoError(t, p.Close())
}

func TestNilPublisherIsDisabled(t *testing.T) {
	var p *Publisher
	assert.False(t, p.Enabled())
	assert.NoError(t, p.Publish(context.Background(), MatchEvent{Type: TypeDuelCanceled}))
}

func TestMatchEventJSON(t *testing.T) {
	after := 1016
	data, err := json.Marshal(MatchEvent{
		Type:               TypeDuelFinished,
		MatchID:            "m",
		Player1RatingAfter: &after,
		OccurredAt:         time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, "duel.finished", decoded["type"])
	assert.Equal(t, float64(1016), decoded["player1_rating_after"])
	assert.NotContains(t, decoded, "player2_rating_after")
	assert.NotContains(t, decoded, "reason")
}
