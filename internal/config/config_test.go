package config

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("PG_HOST", "localhost")
	t.Setenv("PG_USER", "duel")
	t.Setenv("PG_PASSWORD", "secret")
	t.Setenv("PG_DATABASE", "duel")
	t.Setenv("REDIS_ADDR", "localhost:6379")
	t.Setenv("JWT_SECRET", "jwt-secret")
}

func TestLoadDefaults(t *testing.T) {
	setRequired(t)

	cfg, err := Load(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1000, cfg.Duel.InitialRating)
	assert.Equal(t, 32, cfg.Duel.RatingK)
	assert.Equal(t, 300, cfg.Duel.MaxRatingDiff)
	assert.Equal(t, 60*time.Second, cfg.Duel.MatchTimeout)
	assert.Equal(t, 3, cfg.Duel.TargetScore)
	assert.Equal(t, 10, cfg.Duel.MaxRounds)
	assert.False(t, cfg.Duel.ResetTimeoutEachRound)
	assert.Empty(t, cfg.Broker.RabbitURL)
	assert.Equal(t, "lb:updates", cfg.Leaderboard.PubSubChannel)
}

func TestLoadMissingRequired(t *testing.T) {
	setRequired(t)
	t.Setenv("JWT_SECRET", "")

	_, err := Load(context.Background())
	assert.Error(t, err)
}

func TestLoadRejectsInvalidDuelSettings(t *testing.T) {
	setRequired(t)
	t.Setenv("DUEL_TARGET_SCORE", "0")

	_, err := Load(context.Background())
	assert.ErrorContains(t, err, "DUEL_TARGET_SCORE")
}

func TestPostgresDSN(t *testing.T) {
	p := Postgres{Host: "db", Port: 5432, User: "u", Password: "p", Database: "d", SSLMode: "disable", MaxConns: 4}
	assert.Equal(t, "host=db port=5432 user=u password=p dbname=d sslmode=disable pool_max_conns=4", p.DSN())
}
