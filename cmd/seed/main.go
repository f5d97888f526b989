package main

import (
	"context"
	"encoding/json"
	"flag"
	"os"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/gokatarajesh/duel-platform/internal/config"
	"github.com/gokatarajesh/duel-platform/internal/db/repository"
	sqlcgen "github.com/gokatarajesh/duel-platform/internal/db/sqlc"
	"github.com/gokatarajesh/duel-platform/internal/question"
)

// seed loads a JSON array of questions into the pool.
func main() {
	file := flag.String("file", "db/seed/questions.json", "JSON file with an array of questions")
	flag.Parse()

	log.Logger = zerolog.New(os.Stderr).With().Timestamp().Logger()

	if os.Getenv("APP_ENV") != "production" {
		_ = godotenv.Load("configs/.env")
	}

	var pg config.Postgres
	if err := env.ParseWithOptions(&pg, env.Options{RequiredIfNoDef: true}); err != nil {
		log.Fatal().Err(err).Msg("failed to read database configuration")
	}

	raw, err := os.ReadFile(*file)
	if err != nil {
		log.Fatal().Err(err).Str("file", *file).Msg("failed to read seed file")
	}
	var items []question.NewQuestion
	if err := json.Unmarshal(raw, &items); err != nil {
		log.Fatal().Err(err).Str("file", *file).Msg("failed to decode seed file")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	pool, err := pgxpool.New(ctx, pg.DSN())
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect postgres")
	}
	defer pool.Close()

	// The API's pool warmer picks up new rows, so no cache is wired here.
	svc := question.NewService(repository.NewQuestionRepository(sqlcgen.New(pool)), nil, log.Logger, question.ServiceOptions{})

	inserted := 0
	for i, item := range items {
		q, err := svc.Add(ctx, item)
		if err != nil {
			log.Error().Err(err).Int("index", i).Str("title", item.Title).Msg("skipping question")
			continue
		}
		inserted++
		log.Debug().Int64("id", q.ID).Str("title", q.Title).Msg("question inserted")
	}

	log.Info().Int("inserted", inserted).Int("total", len(items)).Msg("seed complete")
}
