package cli

import (
	"context"
	"time"

	"daily-quiz-service/internal/app"
	"daily-quiz-service/internal/config"
	"daily-quiz-service/internal/infra/memory"
	"daily-quiz-service/internal/infra/postgres"
	infraredis "daily-quiz-service/internal/infra/redis"
	"daily-quiz-service/internal/observability"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// stores is the persistence picked by the config: Postgres when a URL is set, else memory,
// with Redis in front of the catalog and holding presentations when an address is set.
type stores struct {
	attempts      app.AttemptStore
	questions     app.QuestionStore
	users         app.UserDirectory
	presentations app.PresentationStore
	closers       []func()
}

func (s *stores) Close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		s.closers[i]()
	}
}

func openStores(ctx context.Context, cfg config.Config, logger *zap.Logger) (*stores, error) {
	s := &stores{}

	if cfg.Postgres.URL != "" {
		pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return nil, err
		}
		s.closers = append(s.closers, pool.Close)
		s.attempts = postgres.NewAttemptStore(pool)
		s.questions = postgres.NewQuestionStore(pool)
		s.users = postgres.NewUserDirectory(pool)
		logger.Info("using postgres storage")
	} else {
		s.attempts = memory.NewAttemptStore()
		s.questions = memory.NewQuestionStore()
		s.users = memory.NewUserDirectory()
		logger.Warn("postgres url not configured, using in-memory storage")
	}

	catalogTTL := config.TTLDuration(cfg.Quiz.CatalogTTL, config.TTLDuration(cfg.Redis.TTL, 10*time.Minute))
	presentationTTL := config.TTLDuration(cfg.Quiz.PresentationTTL, 24*time.Hour)
	if cfg.Redis.Addr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		s.closers = append(s.closers, func() { _ = client.Close() })
		s.questions = infraredis.NewQuestionCache(client, s.questions, catalogTTL)
		s.presentations = infraredis.NewPresentationStore(client, presentationTTL)
		logger.Info("using redis cache", zap.String("addr", cfg.Redis.Addr))
	} else {
		s.questions = memory.NewQuestionCache(s.questions, catalogTTL)
		s.presentations = memory.NewPresentationStore()
	}
	return s, nil
}

// engineOptions builds the app options shared by the session and ranking engines.
func engineOptions(cfg config.Config, logger *zap.Logger, metrics *observability.Metrics) ([]app.Option, error) {
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}
	return []app.Option{
		app.WithLocation(loc),
		app.WithLogger(logger),
		app.WithMetrics(metrics),
	}, nil
}
