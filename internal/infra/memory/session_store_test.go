package memory

import (
	"context"
	"testing"

	"playtesting-bot/internal/domain"
)

func TestSessionStoreLifecycle(t *testing.T) {
	ctx := context.Background()
	store := NewSessionStore()

	if _, ok, err := store.Get(ctx, "u1"); err != nil || ok {
		t.Fatalf("expected no session, got ok=%v err=%v", ok, err)
	}

	session := domain.Session{
		Kind:          domain.KindTossup,
		ParticipantID: "u1",
		Tossup:        &domain.TossupProgress{Parts: []string{"a", "b"}, Answer: "c"},
	}
	if err := store.Set(ctx, "u1", session); err != nil {
		t.Fatalf("set failed: %v", err)
	}
	got, ok, err := store.Get(ctx, "u1")
	if err != nil || !ok {
		t.Fatalf("expected session present, got ok=%v err=%v", ok, err)
	}
	if got.Tossup == nil || got.Tossup.Answer != "c" {
		t.Fatalf("unexpected session %+v", got)
	}

	next := got
	progress := *got.Tossup
	progress.Index = 1
	next.Tossup = &progress
	if err := store.Set(ctx, "u1", next); err != nil {
		t.Fatalf("overwrite failed: %v", err)
	}
	got, _, _ = store.Get(ctx, "u1")
	if got.Tossup.Index != 1 {
		t.Fatalf("expected overwritten cursor 1, got %d", got.Tossup.Index)
	}

	if err := store.Delete(ctx, "u1"); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if _, ok, _ := store.Get(ctx, "u1"); ok {
		t.Fatalf("expected session removed")
	}
	if store.Len() != 0 {
		t.Fatalf("expected empty store, got %d", store.Len())
	}
}
