package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"quizterios-service/internal/app"
	"quizterios-service/internal/config"
	"quizterios-service/internal/domain"
	"quizterios-service/internal/infra/memory"
	pgstore "quizterios-service/internal/infra/postgres"
	redisstore "quizterios-service/internal/infra/redis"
	"quizterios-service/internal/infra/sqlite"
)

// leaderboardStore is what every backend offers: the service needs Load and
// Save, the admin command also needs Clear.
type leaderboardStore interface {
	app.LeaderboardStore
	Clear(ctx context.Context) error
}

type backend struct {
	sessions    app.SessionRepository
	leaderboard leaderboardStore
	closers     []func()
}

func (b *backend) Close() {
	for i := len(b.closers) - 1; i >= 0; i-- {
		b.closers[i]()
	}
}

// openBackend builds the session repository and leaderboard store selected
// by the config. Sessions live in redis when it is configured, in memory
// otherwise.
func openBackend(ctx context.Context, cfg config.Config, log *zap.Logger) (*backend, error) {
	b := &backend{sessions: memory.NewSessionStore()}

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		b.closers = append(b.closers, func() { _ = redisClient.Close() })
		b.sessions = redisstore.NewSessionStore(redisClient, config.TTLDuration(cfg.Redis.TTL, 30*time.Minute))
	}

	kind := cfg.LeaderboardBackend()
	switch kind {
	case config.BackendMemory:
		b.leaderboard = memory.NewLeaderboardStore()
	case config.BackendSQLite:
		store, err := sqlite.Open(cfg.SQLite.Path)
		if err != nil {
			b.Close()
			return nil, err
		}
		b.closers = append(b.closers, func() { _ = store.Close() })
		b.leaderboard = store
	case config.BackendRedis:
		if redisClient == nil {
			b.Close()
			return nil, fmt.Errorf("%w: redis backend selected without redis.addr", domain.ErrStorage)
		}
		b.leaderboard = redisstore.NewLeaderboardStore(redisClient)
	case config.BackendPostgres:
		if cfg.Postgres.URL == "" {
			b.Close()
			return nil, fmt.Errorf("%w: postgres backend selected without postgres.url", domain.ErrStorage)
		}
		if err := runMigrationsWithConfig(ctx, cfg, log); err != nil {
			b.Close()
			return nil, err
		}
		pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			b.Close()
			return nil, fmt.Errorf("%w: connect postgres: %w", domain.ErrStorage, err)
		}
		b.closers = append(b.closers, pool.Close)
		b.leaderboard = pgstore.NewLeaderboardStore(pool)
	default:
		b.Close()
		return nil, fmt.Errorf("unknown leaderboard backend %q", kind)
	}

	log.Info("leaderboard backend ready", zap.String("backend", kind), zap.Bool("redis_sessions", redisClient != nil))
	return b, nil
}
