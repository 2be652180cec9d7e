package redis

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"playtesting-bot/internal/infra/memory"
)

func TestEmojiRepositoryCachesInRedis(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	client := newClient(mr)

	loader := &countingLoader{
		EmojiLoader: memory.NewStaticEmojiLoader(map[string]map[string]string{
			"s1": {"tossup_10": "<:tossup_10:1>"},
		}),
	}
	repo := NewEmojiRepository(client, loader, time.Minute)

	got, err := repo.Emojis(context.Background(), "s1", "tossup_10", "tossup_neg5")
	if err != nil {
		t.Fatalf("emojis: %v", err)
	}
	if got[0] != "<:tossup_10:1>" || got[1] != "" {
		t.Fatalf("unexpected emojis %q", got)
	}
	if loader.calls != 1 {
		t.Fatalf("expected loader called once, got %d", loader.calls)
	}
	if v := mr.HGet("emoji:s1", "tossup_10"); v != "<:tossup_10:1>" {
		t.Fatalf("expected emoji cached in redis, got %q", v)
	}

	// Second call should hit cache, loader not incremented.
	_, _ = repo.Emojis(context.Background(), "s1", "tossup_10")
	if loader.calls != 1 {
		t.Fatalf("expected cache hit, loader calls=%d", loader.calls)
	}

	mr.FastForward(2 * time.Minute)
	_, _ = repo.Emojis(context.Background(), "s1", "tossup_10")
	if loader.calls != 2 {
		t.Fatalf("expected reload after expiry, loader calls=%d", loader.calls)
	}
}

func TestEmojiRepositoryCachesEmptyServers(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	loader := &countingLoader{EmojiLoader: memory.NewStaticEmojiLoader(nil)}
	repo := NewEmojiRepository(newClient(mr), loader, time.Minute)

	_, _ = repo.Emojis(context.Background(), "s2", "bonus_E")
	_, _ = repo.Emojis(context.Background(), "s2", "bonus_E")
	if loader.calls != 1 {
		t.Fatalf("expected loader called once, got %d", loader.calls)
	}
}

type countingLoader struct {
	memory.EmojiLoader
	calls int
}

func (l *countingLoader) LoadEmojis(ctx context.Context, serverID string) (map[string]string, error) {
	l.calls++
	return l.EmojiLoader.LoadEmojis(ctx, serverID)
}

func newClient(mr *miniredis.Miniredis) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})
}
