package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/gokatarajesh/duel-platform/internal/auth/jwt"
	"github.com/gokatarajesh/duel-platform/internal/config"
	"github.com/gokatarajesh/duel-platform/internal/db/repository"
	sqlcgen "github.com/gokatarajesh/duel-platform/internal/db/sqlc"
	"github.com/gokatarajesh/duel-platform/internal/event"
	"github.com/gokatarajesh/duel-platform/internal/leaderboard"
	"github.com/gokatarajesh/duel-platform/internal/logging"
	"github.com/gokatarajesh/duel-platform/internal/match"
	matchqueue "github.com/gokatarajesh/duel-platform/internal/match/queue"
	"github.com/gokatarajesh/duel-platform/internal/question"
	"github.com/gokatarajesh/duel-platform/internal/server"
	ws "github.com/gokatarajesh/duel-platform/pkg/http/ws"
)

type backgroundWorker interface {
	Run(ctx context.Context) error
}

// Application aggregates shared infrastructure (DB, cache, broker, HTTP server).
type Application struct {
	cfg    *config.App
	logger zerolog.Logger

	pool      *pgxpool.Pool
	redis     *redis.Client
	publisher *event.Publisher
	http      *http.Server
	duels     *match.Service

	workers   map[string]backgroundWorker
	bgCancels []context.CancelFunc
}

// New bootstraps configs, logger, Postgres, Redis, the event broker and the HTTP server.
func New(ctx context.Context, cfg *config.App) (*Application, error) {
	logger := logging.New(cfg.Name, cfg.Env)
	logger.Info().Msg("starting application bootstrap")

	pool, err := pgxpool.New(ctx, cfg.Postgres.DSN())
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		DB:       cfg.Redis.DB,
		PoolSize: cfg.Redis.PoolSize,
	})

	publisher, err := event.NewPublisher(cfg.Broker.RabbitURL, cfg.Broker.Exchange, logger)
	if err != nil {
		pool.Close()
		_ = redisClient.Close()
		return nil, fmt.Errorf("connect broker: %w", err)
	}
	if !publisher.Enabled() {
		logger.Warn().Msg("RABBITMQ_URL not configured; match events will not be published")
	}

	queries := sqlcgen.New(pool)

	ratingRepo := repository.NewRatingRepository(queries, cfg.Duel.InitialRating)
	questionRepo := repository.NewQuestionRepository(queries)
	matchRepo := repository.NewMatchRepository(queries)

	tokens := jwt.NewManager(jwt.TokenConfig{
		AccessSecret: []byte(cfg.Security.JWTSecret),
		Issuer:       cfg.Security.JWTIssuer,
	})

	questionCache := question.NewCache(redisClient, cfg.Question.PoolCacheTTL)
	questionSvc := question.NewService(questionRepo, questionCache, logger, question.ServiceOptions{
		PoolLimit: cfg.Question.PoolLimit,
	})

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	wsHub := ws.NewHub(logger)
	leaderboardSvc := leaderboard.NewService(redisClient, logger, leaderboard.ServiceOptions{
		PubSubChannel:    cfg.Leaderboard.PubSubChannel,
		SnapshotTopLimit: cfg.Leaderboard.SnapshotTopN,
	})

	duelSvc := match.NewService(match.Dependencies{
		Registry:    wsHub,
		Queue:       matchqueue.NewManager(cfg.Duel.MaxRatingDiff, logger),
		Ratings:     ratingRepo,
		Questions:   questionSvc,
		History:     matchRepo,
		Leaderboard: leaderboardSvc,
		Publisher:   publisher,
		Metrics:     match.NewMetrics(registry),
	}, match.Settings{
		TargetScore:           cfg.Duel.TargetScore,
		MaxRounds:             cfg.Duel.MaxRounds,
		RatingK:               cfg.Duel.RatingK,
		MatchTimeout:          cfg.Duel.MatchTimeout,
		ResetTimeoutEachRound: cfg.Duel.ResetTimeoutEachRound,
	}, logger)
	wsHub.SetDropHandler(duelSvc.HandleDrop)

	duelHandler := match.NewHandler(duelSvc, tokens, logger)
	duelHTTP := match.NewHTTPHandlers(duelSvc, matchRepo, wsHub, tokens, logger)
	lbHTTPHandler := leaderboard.NewHTTPHandler(leaderboardSvc, queries, logger)

	workers := map[string]backgroundWorker{
		"leaderboard broadcaster": leaderboard.NewBroadcaster(redisClient, wsHub, cfg.Leaderboard.PubSubChannel, logger),
		"question pool warmer":    question.NewPoolWarmer(questionSvc, cfg.Question.PoolCacheTTL/2, logger),
	}
	if interval := cfg.Leaderboard.SnapshotInterval; interval > 0 {
		workers["leaderboard snapshot worker"] = leaderboard.NewSnapshotWorker(leaderboardSvc, queries, interval, logger)
	}

	apiServer := server.NewHTTPServer(cfg, logger, pool, redisClient, registry, server.Routes{
		DuelWS:      duelHandler.HandleWebSocket,
		Leaderboard: lbHTTPHandler.HandleGet,
		Match:       duelHTTP.GetMatch,
		DuelStats:   duelHTTP.Stats,
	})

	return &Application{
		cfg:       cfg,
		logger:    logger,
		pool:      pool,
		redis:     redisClient,
		publisher: publisher,
		http:      apiServer,
		duels:     duelSvc,
		workers:   workers,
		bgCancels: make([]context.CancelFunc, 0, len(workers)),
	}, nil
}

// Run starts the HTTP server and waits for termination signals.
func (a *Application) Run(ctx context.Context) error {
	errCh := make(chan error, 1)

	a.startBackgroundWorkers(ctx)

	go func() {
		a.logger.Info().Str("addr", a.cfg.HTTPAddr).Msg("http server listening")
		if err := a.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	var runErr error
	select {
	case sig := <-sigCh:
		a.logger.Info().Str("signal", sig.String()).Msg("shutdown signal received")
	case err := <-errCh:
		runErr = fmt.Errorf("http server error: %w", err)
	case <-ctx.Done():
		a.logger.Warn().Msg("context canceled")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.GracefulShutdownTimeout)
	defer cancel()

	if err := a.http.Shutdown(shutdownCtx); err != nil {
		a.logger.Error().Err(err).Msg("http shutdown error")
	}

	// live duels are closed out while storage and the broker are still up
	a.duels.Shutdown(shutdownCtx)

	for _, cancel := range a.bgCancels {
		cancel()
	}

	if err := a.publisher.Close(); err != nil {
		a.logger.Error().Err(err).Msg("broker shutdown error")
	}
	a.pool.Close()
	if err := a.redis.Close(); err != nil {
		a.logger.Error().Err(err).Msg("redis shutdown error")
	}

	a.logger.Info().Msg("shutdown complete")
	return runErr
}

func (a *Application) startBackgroundWorkers(ctx context.Context) {
	for name, worker := range a.workers {
		bgCtx, cancel := context.WithCancel(ctx)
		a.bgCancels = append(a.bgCancels, cancel)
		go func() {
			if err := worker.Run(bgCtx); err != nil && !errors.Is(err, context.Canceled) {
				a.logger.Warn().Err(err).Str("worker", name).Msg("background worker stopped")
			}
		}()
	}
}
