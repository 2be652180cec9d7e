package redis

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

// EmojiLoader fetches a server's custom emoji, keyed by name, in rendered form.
type EmojiLoader interface {
	LoadEmojis(ctx context.Context, serverID string) (map[string]string, error)
}

// loadedField marks a server whose emoji were fetched, even when it has none.
const loadedField = "__loaded"

// EmojiRepository caches server emoji in Redis (hash per server) and falls back
// to a loader on cache miss. It implements app.EmojiResolver.
// Emoji are stored as: HSET emoji:{serverID} {name} {rendered}
type EmojiRepository struct {
	client *redis.Client
	loader EmojiLoader
	ttl    time.Duration
	sf     singleflight.Group

	mu  sync.Mutex
	rnd *rand.Rand
}

func NewEmojiRepository(client *redis.Client, loader EmojiLoader, ttl time.Duration) *EmojiRepository {
	return &EmojiRepository{
		client: client,
		loader: loader,
		ttl:    ttl,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Emojis resolves names in order; unknown names resolve to "".
func (r *EmojiRepository) Emojis(ctx context.Context, serverID string, names ...string) ([]string, error) {
	all, err := r.serverEmojis(ctx, serverID)
	if err != nil {
		return nil, err
	}
	out := make([]string, len(names))
	for i, name := range names {
		out[i] = all[name]
	}
	return out, nil
}

func (r *EmojiRepository) serverEmojis(ctx context.Context, serverID string) (map[string]string, error) {
	key := r.key(serverID)

	cached, err := r.client.HGetAll(ctx, key).Result()
	if err == nil && cached[loadedField] != "" {
		return cached, nil
	}

	result, err, _ := r.sf.Do(serverID, func() (interface{}, error) {
		// Re-check cache in case another goroutine filled it.
		cached, err := r.client.HGetAll(ctx, key).Result()
		if err == nil && cached[loadedField] != "" {
			return cached, nil
		}

		emojis, err := r.loader.LoadEmojis(ctx, serverID)
		if err != nil {
			return nil, err
		}

		ttl := r.ttlWithJitter()
		pipe := r.client.Pipeline()
		pipe.Del(ctx, key)
		for name, rendered := range emojis {
			pipe.HSet(ctx, key, name, rendered)
		}
		pipe.HSet(ctx, key, loadedField, "1")
		if ttl > 0 {
			pipe.Expire(ctx, key, ttl)
		}
		_, _ = pipe.Exec(ctx)

		return emojis, nil
	})
	if err != nil {
		return nil, err
	}
	return result.(map[string]string), nil
}

// Invalidate drops the cached emoji of a server.
func (r *EmojiRepository) Invalidate(ctx context.Context, serverID string) error {
	return r.client.Del(ctx, r.key(serverID)).Err()
}

func (r *EmojiRepository) key(serverID string) string {
	return "emoji:" + serverID
}

func (r *EmojiRepository) ttlWithJitter() time.Duration {
	if r.ttl <= 0 {
		return 0
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	jitterMax := int64(r.ttl) / 10
	return r.ttl + time.Duration(r.rnd.Int63n(jitterMax+1))
}
