package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"playtesting-bot/internal/app"
	"playtesting-bot/internal/config"
	"playtesting-bot/internal/infra/memory"
	"playtesting-bot/internal/infra/postgres"
	redisinfra "playtesting-bot/internal/infra/redis"
	"playtesting-bot/internal/seal"
)

// stores groups the repositories picked from configuration: Postgres and
// Redis when configured, in-memory otherwise.
type stores struct {
	sessions  app.SessionRepository
	results   app.ResultRepository
	questions app.QuestionRepository
	packets   app.PacketRepository
	sealer    app.Sealer
	redis     *redis.Client
	log       logrus.FieldLogger
	close     func()
}

func openStores(ctx context.Context, cfg config.Config, log logrus.FieldLogger) (*stores, error) {
	s := &stores{log: log, close: func() {}}

	sealer, err := newSealer(cfg)
	if err != nil {
		return nil, err
	}
	s.sealer = sealer

	if cfg.Postgres.URL != "" {
		pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		prev := s.close
		s.close = func() { pool.Close(); prev() }
		s.results = postgres.NewResultRepository(pool)
		s.questions = postgres.NewQuestionRepository(pool)
		s.packets = postgres.NewPacketRepository(pool)
	} else {
		log.Warn("postgres not configured, results are kept in memory only")
		store := memory.NewPlaytestStore()
		s.results, s.questions, s.packets = store, store, store
	}

	if client := newRedisClient(cfg); client != nil {
		prev := s.close
		s.close = func() { _ = client.Close(); prev() }
		s.redis = client
		s.sessions = redisinfra.NewSessionStore(client, config.TTLDuration(cfg.Redis.TTL, 0))
	} else {
		s.sessions = memory.NewSessionStore()
	}
	return s, nil
}

func newRedisClient(cfg config.Config) *redis.Client {
	if cfg.Redis.Addr == "" {
		return nil
	}
	return redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
}

func newSealer(cfg config.Config) (app.Sealer, error) {
	if cfg.Encryption.Key == "" {
		return seal.Plain{}, nil
	}
	box, err := seal.New([]byte(cfg.Encryption.Key))
	if err != nil {
		return nil, fmt.Errorf("encryption key: %w", err)
	}
	return box, nil
}

// emojiResolver caches emoji in Redis when configured, in memory otherwise.
// The returned func drops a server's cached emoji.
func (s *stores) emojiResolver(cfg config.Config, loader memory.EmojiLoader) (app.EmojiResolver, func(serverID string)) {
	ttl := config.TTLDuration(cfg.Emoji.TTL, time.Hour)
	if client := s.redis; client != nil {
		repo := redisinfra.NewEmojiRepository(client, loader, ttl)
		return repo, func(serverID string) {
			if err := repo.Invalidate(context.Background(), serverID); err != nil {
				s.log.WithError(err).WithField("server", serverID).Warn("invalidate cached emoji")
			}
		}
	}
	repo := memory.NewEmojiRepository(loader, ttl)
	return repo, repo.Invalidate
}
