package config

import (
	"context"
	"fmt"
	"time"

	"github.com/caarlos0/env/v10"
)

// App holds core runtime configuration shared across services.
type App struct {
	Name                    string        `env:"APP_NAME" envDefault:"duel-platform"`
	Env                     string        `env:"APP_ENV" envDefault:"development"`
	HTTPAddr                string        `env:"HTTP_ADDR" envDefault:"0.0.0.0:8080"`
	GracefulShutdownTimeout time.Duration `env:"GRACEFUL_SHUTDOWN_SECONDS" envDefault:"20s"`

	Postgres    Postgres
	Redis       Redis
	Security    Security
	Duel        Duel
	Leaderboard Leaderboard
	Broker      Broker
	Question    Question
}

// Postgres captures connection info for the SQL database.
type Postgres struct {
	Host     string `env:"PG_HOST,notEmpty"`
	Port     int    `env:"PG_PORT" envDefault:"5432"`
	User     string `env:"PG_USER,notEmpty"`
	Password string `env:"PG_PASSWORD,notEmpty"`
	Database string `env:"PG_DATABASE,notEmpty"`
	SSLMode  string `env:"PG_SSL_MODE" envDefault:"disable"`
	MaxConns int    `env:"PG_MAX_CONNS" envDefault:"10"`
}

// DSN renders a pgx keyword/value connection string.
func (p Postgres) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s pool_max_conns=%d",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode, p.MaxConns)
}

// Redis holds cache + leaderboard configuration.
type Redis struct {
	Addr     string `env:"REDIS_ADDR,notEmpty"`
	DB       int    `env:"REDIS_DB" envDefault:"0"`
	PoolSize int    `env:"REDIS_POOL_SIZE" envDefault:"20"`
}

// Security stores secrets for signing and auth.
type Security struct {
	JWTSecret string `env:"JWT_SECRET,notEmpty"`
	JWTIssuer string `env:"JWT_ISSUER" envDefault:"duel-platform"`
}

// Duel groups matchmaking and duel gameplay tuning.
type Duel struct {
	InitialRating         int           `env:"DUEL_INITIAL_RATING" envDefault:"1000"`
	RatingK               int           `env:"DUEL_RATING_K" envDefault:"32"`
	MaxRatingDiff         int           `env:"DUEL_MATCHMAKING_MAX_DIFF" envDefault:"300"`
	MatchTimeout          time.Duration `env:"DUEL_MATCH_TIMEOUT" envDefault:"60s"`
	TargetScore           int           `env:"DUEL_TARGET_SCORE" envDefault:"3"`
	MaxRounds             int           `env:"DUEL_MAX_ROUNDS" envDefault:"10"`
	ResetTimeoutEachRound bool          `env:"DUEL_RESET_TIMEOUT_EACH_ROUND" envDefault:"false"`
}

// Leaderboard governs snapshotting and broadcast behavior.
type Leaderboard struct {
	SnapshotInterval time.Duration `env:"LEADERBOARD_SNAPSHOT_INTERVAL" envDefault:"5m"`
	SnapshotTopN     int           `env:"LEADERBOARD_SNAPSHOT_TOP" envDefault:"50"`
	PubSubChannel    string        `env:"LEADERBOARD_PUBSUB_CHANNEL" envDefault:"lb:updates"`
}

// Broker configures the match event publisher. An empty URL disables publishing.
type Broker struct {
	RabbitURL string `env:"RABBITMQ_URL" envDefault:""`
	Exchange  string `env:"RABBITMQ_EXCHANGE" envDefault:"duel.events"`
}

// Question configures the question pool cache.
type Question struct {
	PoolCacheTTL time.Duration `env:"QUESTION_POOL_CACHE_TTL" envDefault:"1m"`
	PoolLimit    int           `env:"QUESTION_POOL_LIMIT" envDefault:"5000"`
}

// Load parses environment variables into App config.
func Load(ctx context.Context) (*App, error) {
	cfg := &App{}
	if err := env.ParseWithOptions(cfg, env.Options{RequiredIfNoDef: true}); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Duel.validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return cfg, nil
}

func (d Duel) validate() error {
	switch {
	case d.RatingK <= 0:
		return fmt.Errorf("DUEL_RATING_K must be positive")
	case d.MaxRatingDiff < 0:
		return fmt.Errorf("DUEL_MATCHMAKING_MAX_DIFF must not be negative")
	case d.MatchTimeout <= 0:
		return fmt.Errorf("DUEL_MATCH_TIMEOUT must be positive")
	case d.TargetScore <= 0:
		return fmt.Errorf("DUEL_TARGET_SCORE must be positive")
	case d.MaxRounds <= 0:
		return fmt.Errorf("DUEL_MAX_ROUNDS must be positive")
	}
	return nil
}
