package memory

import (
	"context"
	"sync"
	"testing"
	"time"
)

func TestEmojiRepositoryCaches(t *testing.T) {
	loader := &countingLoader{
		EmojiLoader: NewStaticEmojiLoader(map[string]map[string]string{
			"s1": sampleEmojis(),
		}),
	}
	repo := NewEmojiRepository(loader, time.Minute)

	got, err := repo.Emojis(context.Background(), "s1", "tossup_10", "unknown", "bonus_E")
	if err != nil {
		t.Fatalf("emojis: %v", err)
	}
	if len(got) != 3 || got[0] != "<:tossup_10:1>" || got[1] != "" || got[2] != "<:bonus_E:2>" {
		t.Fatalf("unexpected emojis %q", got)
	}
	if loader.count() != 1 {
		t.Fatalf("expected loader once, got %d", loader.count())
	}

	if _, err := repo.Emojis(context.Background(), "s1", "tossup_10"); err != nil {
		t.Fatalf("emojis 2: %v", err)
	}
	if loader.count() != 1 {
		t.Fatalf("expected cache hit, loader calls %d", loader.count())
	}

	repo.Invalidate("s1")
	if _, err := repo.Emojis(context.Background(), "s1", "tossup_10"); err != nil {
		t.Fatalf("emojis 3: %v", err)
	}
	if loader.count() != 2 {
		t.Fatalf("expected reload after invalidate, loader calls %d", loader.count())
	}
}

func TestEmojiRepositoryExpires(t *testing.T) {
	loader := &countingLoader{EmojiLoader: NewStaticEmojiLoader(nil)}
	repo := NewEmojiRepository(loader, time.Minute)
	now := time.Now()
	repo.clock = func() time.Time { return now }

	_, _ = repo.Emojis(context.Background(), "s1", "tossup_10")
	now = now.Add(2 * time.Minute)
	_, _ = repo.Emojis(context.Background(), "s1", "tossup_10")

	if loader.count() != 2 {
		t.Fatalf("expected reload after ttl, loader calls %d", loader.count())
	}
}

type countingLoader struct {
	EmojiLoader
	mu    sync.Mutex
	calls int
}

func (l *countingLoader) LoadEmojis(ctx context.Context, serverID string) (map[string]string, error) {
	l.mu.Lock()
	l.calls++
	l.mu.Unlock()
	return l.EmojiLoader.LoadEmojis(ctx, serverID)
}

func (l *countingLoader) count() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.calls
}

func sampleEmojis() map[string]string {
	return map[string]string{
		"tossup_10": "<:tossup_10:1>",
		"bonus_E":   "<:bonus_E:2>",
	}
}
