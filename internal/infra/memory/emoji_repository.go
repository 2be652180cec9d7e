package memory

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// EmojiLoader fetches a server's custom emoji, keyed by name, in rendered form.
type EmojiLoader interface {
	LoadEmojis(ctx context.Context, serverID string) (map[string]string, error)
}

// EmojiRepository caches server emoji with TTL to avoid repeated platform calls.
// It implements app.EmojiResolver.
type EmojiRepository struct {
	loader EmojiLoader
	ttl    time.Duration
	clock  func() time.Time
	sf     singleflight.Group
	rnd    *rand.Rand

	mu    sync.RWMutex
	cache map[string]cachedEmojis
}

type cachedEmojis struct {
	emojis    map[string]string
	expiresAt time.Time
}

func NewEmojiRepository(loader EmojiLoader, ttl time.Duration) *EmojiRepository {
	return &EmojiRepository{
		loader: loader,
		ttl:    ttl,
		clock:  time.Now,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
		cache:  make(map[string]cachedEmojis),
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
	now := r.clock()

	r.mu.RLock()
	if entry, ok := r.cache[serverID]; ok && entry.expiresAt.After(now) {
		r.mu.RUnlock()
		return entry.emojis, nil
	}
	r.mu.RUnlock()

	result, err, _ := r.sf.Do(serverID, func() (interface{}, error) {
		now := r.clock()
		r.mu.RLock()
		if entry, ok := r.cache[serverID]; ok && entry.expiresAt.After(now) {
			r.mu.RUnlock()
			return entry.emojis, nil
		}
		r.mu.RUnlock()

		emojis, err := r.loader.LoadEmojis(ctx, serverID)
		if err != nil {
			return nil, err
		}

		r.mu.Lock()
		r.cache[serverID] = cachedEmojis{
			emojis:    emojis,
			expiresAt: now.Add(r.ttlWithJitter()),
		}
		r.mu.Unlock()
		return emojis, nil
	})
	if err != nil {
		return nil, err
	}
	return result.(map[string]string), nil
}

// Invalidate drops the cached emoji of a server, e.g. after an emoji update event.
func (r *EmojiRepository) Invalidate(serverID string) {
	r.mu.Lock()
	delete(r.cache, serverID)
	r.mu.Unlock()
}

// StaticEmojiLoader serves fixed emoji per server (useful for tests/demos).
type StaticEmojiLoader struct {
	emojis map[string]map[string]string
}

func NewStaticEmojiLoader(emojis map[string]map[string]string) *StaticEmojiLoader {
	return &StaticEmojiLoader{emojis: emojis}
}

func (l *StaticEmojiLoader) LoadEmojis(_ context.Context, serverID string) (map[string]string, error) {
	if e, ok := l.emojis[serverID]; ok {
		return e, nil
	}
	return map[string]string{}, nil
}

// ttlWithJitter must be called with mu held.
func (r *EmojiRepository) ttlWithJitter() time.Duration {
	if r.ttl <= 0 {
		return 0
	}
	// add up to 10% jitter to spread expirations
	jitterMax := int64(r.ttl) / 10
	return r.ttl + time.Duration(r.rnd.Int63n(jitterMax+1))
}
