package question

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// PoolWarmer reloads the cached pool before it expires so duel starts rarely
// hit Postgres.
type PoolWarmer struct {
	service  *Service
	interval time.Duration
	timeout  time.Duration
	logger   zerolog.Logger
}

func NewPoolWarmer(service *Service, interval time.Duration, logger zerolog.Logger) *PoolWarmer {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	return &PoolWarmer{
		service:  service,
		interval: interval,
		timeout:  4 * time.Second,
		logger:   logger.With().Str("component", "question_pool_warmer").Logger(),
	}
}

// Run blocks until the context is cancelled.
func (w *PoolWarmer) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.warm(ctx)
	for {
		select {
		case <-ctx.Done():
			w.logger.Info().Msg("question pool warmer stopping")
			return ctx.Err()
		case <-ticker.C:
			w.warm(ctx)
		}
	}
}

func (w *PoolWarmer) warm(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, w.timeout)
	defer cancel()

	pool, err := w.service.Refresh(ctx)
	if err != nil {
		w.logger.Warn().Err(err).Msg("question pool refresh failed")
		return
	}
	w.logger.Debug().Int("size", len(pool)).Msg("question pool refreshed")
}
