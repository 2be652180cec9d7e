package app

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"playtesting-bot/internal/domain"
	"playtesting-bot/internal/infra/memory"
	"playtesting-bot/internal/logger"
)

// fakeEmojis resolves names from a fixed map.
type fakeEmojis map[string]string

func (f fakeEmojis) Emojis(_ context.Context, _ string, names ...string) ([]string, error) {
	out := make([]string, len(names))
	for i, n := range names {
		out[i] = f[n]
	}
	return out, nil
}

func TestTossupDigest(t *testing.T) {
	parts := []string{"In this novel ", "a whale sinks a ship. "}
	buzzes := []domain.Buzz{
		{ClueIndex: 1, Value: 10, CharactersRevealed: 36},
		{ClueIndex: 0, Value: -5, CharactersRevealed: 14},
		{ClueIndex: 1, Value: 0, CharactersRevealed: 36},
	}

	got := tossupDigest(parts, "||Moby-Dick [or The Whale]||", "https://q", buzzes, nil)

	want := "## Results\n" +
		"### ANSWER: ||Moby-Dick||\n" +
		"39% | (||In this novel ||) | 1 × -5\n" +
		"100% | (||a whale sinks a ship. ||) | 1 × 10 | 1 × 0\n" +
		"\n**Plays:** 3\t**Conversion Rate**: 33%\t**Neg Rate**: 33%\t**Avg. Buzz**: 100% (36)\n" +
		"### [Return to Question](https://q)"
	assert.Equal(t, want, got)
}

func TestTossupDigestWithoutPlays(t *testing.T) {
	got := tossupDigest([]string{"abc"}, "x", "https://q", nil, nil)
	assert.Contains(t, got, "**Plays:** 0\t**Conversion Rate**: \t**Neg Rate**: \t**Avg. Buzz**: \n")
	assert.NotContains(t, got, "NaN")
}

func TestTossupDigestUsesEmoji(t *testing.T) {
	got := tossupDigest([]string{"abc"}, "x", "https://q", []domain.Buzz{{ClueIndex: 0, Value: 10, CharactersRevealed: 3}},
		[]string{"<:tossup_15:1>", "<:tossup_10:2>", "", ""})
	assert.Contains(t, got, "100% | (||abc||) | 1 × <:tossup_10:2>\n")
}

func TestBonusDigest(t *testing.T) {
	outcomes := []domain.BonusOutcome{
		{UserID: "u1", Part: 1, Value: 0, Difficulty: "e"},
		{UserID: "u1", Part: 2, Value: 10, Difficulty: "m"},
		{UserID: "u1", Part: 3, Value: 0, Difficulty: "h"},
	}

	got := bonusDigest("https://q", outcomes, nil)

	want := "## Results\n" +
		"**Plays**: 1\t**PPB**: 10.00\t**Easy** 0%\t**Medium** 100%\t**Hard** 0%\n" +
		"### [Return to Question](https://q)"
	assert.Equal(t, want, got)

	empty := bonusDigest("https://q", nil, []string{"<:bonus_E:1>", "", ""})
	assert.Contains(t, empty, "**Plays**: 0\t**PPB**: \t**<:bonus_E:1>** \t**Medium** \t**Hard** ")
}

func newSummaryFixture(t *testing.T) (*Summarizer, *memory.Chat, *memory.PlaytestStore, SummaryTarget) {
	t.Helper()
	chat := memory.NewChat("bot", "s1")
	store := memory.NewPlaytestStore()
	q := chat.Post(domain.Message{ChannelID: "c1", AuthorID: "author", Content: "question"})
	button, err := chat.Send(context.Background(), "c1", domain.OutboundMessage{
		ReplyTo: q.ID,
		Buttons: []domain.Button{{Label: "Play Tossup", CustomID: PlayButtonID}},
	})
	require.NoError(t, err)

	target := SummaryTarget{
		Kind: domain.KindTossup,
		Link: domain.SessionLink{
			ServerID:        "s1",
			ChannelID:       "c1",
			ButtonMessageID: button.ID,
			QuestionID:      q.ID,
			QuestionURL:     q.URL,
			AuthorID:        "author",
		},
		ResultChannelID: "r1",
		ThreadName:      "Buzzes",
		Parts:           []string{"In this novel ", "a whale sinks a ship. "},
		Answer:          "Moby-Dick",
	}
	s := NewSummarizer(chat, store, store, fakeEmojis{}, nil, logger.Discard())
	return s, chat, store, target
}

func TestSummarizerCreatesThreadOnceAndEditsInPlace(t *testing.T) {
	ctx := context.Background()
	s, chat, store, target := newSummaryFixture(t)

	require.NoError(t, store.InsertBuzz(ctx, domain.BuzzResult{QuestionID: target.Link.QuestionID, ClueIndex: 0, Value: -5, CharactersRevealed: 14}))
	first, err := s.Update(ctx, target)
	require.NoError(t, err)

	threads := chat.Threads()
	require.Len(t, threads, 1)
	assert.Equal(t, first.ID, threads[0].ID)
	assert.Equal(t, "r1", threads[0].ChannelID)
	assert.Equal(t, []string{"author"}, threads[0].Members)

	buttons := chat.Buttons("c1", target.Link.ButtonMessageID)
	require.Len(t, buttons, 2)
	assert.Equal(t, first.URL, buttons[1].URL)

	require.NoError(t, store.InsertBuzz(ctx, domain.BuzzResult{QuestionID: target.Link.QuestionID, ClueIndex: 1, Value: 10, CharactersRevealed: 36}))
	second, err := s.Update(ctx, target)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Len(t, chat.Threads(), 1)

	msgs := chat.Messages(first.ID)
	require.Len(t, msgs, 1, "exactly one summary message")
	assert.Contains(t, msgs[0].Content, "**Plays:** 2")

	// recomputation from storage is idempotent
	_, err = s.Update(ctx, target)
	require.NoError(t, err)
	again := chat.Messages(first.ID)
	require.Len(t, again, 1)
	assert.Equal(t, msgs[0].Content, again[0].Content)
}

func TestSummarizerRepostsMissingSummary(t *testing.T) {
	ctx := context.Background()
	s, chat, store, target := newSummaryFixture(t)

	thread, err := s.Update(ctx, target)
	require.NoError(t, err)
	msgs := chat.Messages(thread.ID)
	require.Len(t, msgs, 1)
	chat.Remove(thread.ID, msgs[0].ID)

	_, err = s.Update(ctx, target)
	require.NoError(t, err)

	reposted := chat.Messages(thread.ID)
	require.Len(t, reposted, 1)
	saved, err := store.ResultsThread(ctx, domain.KindTossup, target.Link.QuestionID)
	require.NoError(t, err)
	assert.Equal(t, reposted[0].ID, saved.SummaryMessageID)
}

func TestSummarizerFindsSummaryByHeading(t *testing.T) {
	ctx := context.Background()
	s, chat, store, target := newSummaryFixture(t)

	thread, err := chat.CreateThread(ctx, "r1", "Buzzes")
	require.NoError(t, err)
	_, err = chat.Send(ctx, thread.ID, domain.OutboundMessage{Content: summaryHeading + "\nold"})
	require.NoError(t, err)
	require.NoError(t, store.SaveResultsThread(ctx, domain.KindTossup, target.Link.QuestionID, domain.ResultsThread{ThreadID: thread.ID}))

	_, err = s.Update(ctx, target)
	require.NoError(t, err)

	msgs := chat.Messages(thread.ID)
	require.Len(t, msgs, 1)
	assert.NotContains(t, msgs[0].Content, "old")
}

func TestSummarizerPublishesDigest(t *testing.T) {
	ctx := context.Background()
	s, _, _, target := newSummaryFixture(t)
	hub := NewDigestHub()
	s.publisher = hub

	_, err := s.Update(ctx, target)
	require.NoError(t, err)

	d, ok := hub.Latest(target.Link.QuestionID)
	require.True(t, ok)
	assert.Equal(t, domain.KindTossup, d.Kind)
	assert.Contains(t, d.Text, summaryHeading)
}
