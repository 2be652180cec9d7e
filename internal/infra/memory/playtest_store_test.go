package memory

import (
	"context"
	"testing"

	"playtesting-bot/internal/domain"
)

func TestPlaytestStoreOrdersBuzzesByClue(t *testing.T) {
	ctx := context.Background()
	store := NewPlaytestStore()

	for _, idx := range []int{2, 0, 1, 0} {
		if err := store.InsertBuzz(ctx, domain.BuzzResult{QuestionID: "q1", ServerID: "s1", ClueIndex: idx}); err != nil {
			t.Fatalf("insert: %v", err)
		}
	}
	_ = store.InsertBuzz(ctx, domain.BuzzResult{QuestionID: "q2", ServerID: "s1", ClueIndex: 0})

	buzzes, err := store.TossupBuzzes(ctx, "q1")
	if err != nil {
		t.Fatalf("buzzes: %v", err)
	}
	if len(buzzes) != 4 {
		t.Fatalf("expected 4 buzzes, got %d", len(buzzes))
	}
	for i := 1; i < len(buzzes); i++ {
		if buzzes[i].ClueIndex < buzzes[i-1].ClueIndex {
			t.Fatalf("buzzes not ordered: %+v", buzzes)
		}
	}

	export, _ := store.ServerResults(ctx, "s1")
	if len(export.Buzzes) != 5 {
		t.Fatalf("expected 5 exported buzzes, got %d", len(export.Buzzes))
	}
}

func TestPlaytestStoreJoinsBonusDifficulty(t *testing.T) {
	ctx := context.Background()
	store := NewPlaytestStore()

	err := store.RegisterBonus(ctx, domain.BonusRecord{
		QuestionID: "b1",
		Parts: []domain.BonusPartRecord{
			{Part: 1, Difficulty: "e"}, {Part: 2, Difficulty: "m"}, {Part: 3, Difficulty: "h"},
		},
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	// registration is idempotent
	_ = store.RegisterBonus(ctx, domain.BonusRecord{QuestionID: "b1"})

	_ = store.InsertBonusParts(ctx, []domain.BonusPartResult{
		{QuestionID: "b1", UserID: "u1", Part: 1, Value: 10},
		{QuestionID: "b1", UserID: "u1", Part: 2, Value: 0},
		{QuestionID: "b1", UserID: "u1", Part: 3, Value: 10},
	})

	outcomes, err := store.BonusOutcomes(ctx, "b1")
	if err != nil {
		t.Fatalf("outcomes: %v", err)
	}
	if len(outcomes) != 3 || outcomes[0].Difficulty != "e" || outcomes[2].Difficulty != "h" {
		t.Fatalf("unexpected outcomes %+v", outcomes)
	}
}

func TestPlaytestStorePackets(t *testing.T) {
	ctx := context.Background()
	store := NewPlaytestStore()

	if p, _ := store.CurrentPacket(ctx, "s1"); p != "" {
		t.Fatalf("expected no packet, got %q", p)
	}
	_ = store.SetCurrentPacket(ctx, "s1", "3")
	if p, _ := store.CurrentPacket(ctx, "s1"); p != "3" {
		t.Fatalf("expected packet 3, got %q", p)
	}

	_ = store.AddPacketQuestion(ctx, domain.PacketQuestion{ServerID: "s1", PacketName: "3", QuestionID: "q1"})
	_ = store.AddPacketQuestion(ctx, domain.PacketQuestion{ServerID: "s1", PacketName: "3", QuestionID: "q1", EchoMessageID: "e1"})
	_ = store.AddPacketQuestion(ctx, domain.PacketQuestion{ServerID: "s1", PacketName: "4", QuestionID: "q2"})

	qs, _ := store.PacketQuestions(ctx, "s1", "3")
	if len(qs) != 1 || qs[0].EchoMessageID != "e1" {
		t.Fatalf("expected one upserted question, got %+v", qs)
	}
	packets, _ := store.Packets(ctx, "s1")
	if len(packets) != 2 || packets[0] != "3" || packets[1] != "4" {
		t.Fatalf("unexpected packets %v", packets)
	}

	_ = store.SetCurrentPacket(ctx, "s1", "")
	if p, _ := store.CurrentPacket(ctx, "s1"); p != "" {
		t.Fatalf("expected cleared packet, got %q", p)
	}
}
