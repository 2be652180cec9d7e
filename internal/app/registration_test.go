package app

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"playtesting-bot/internal/domain"
	"playtesting-bot/internal/infra/memory"
	"playtesting-bot/internal/logger"
	"playtesting-bot/internal/seal"
)

const registrationTossup = "3. ||In this novel, || ||a whale sinks a ship (*) || ||name this book.||\nANSWER: ||Moby-Dick [accept The Whale]||\n<LIT, American Literature>"

var testChannels = []domain.ServerChannel{
	{ServerID: "s1", ChannelID: "c1", ResultChannelID: "r1", Type: domain.ChannelPlaytesting},
	{ServerID: "s1", ChannelID: "c2", Type: domain.ChannelReacts},
	{ServerID: "s1", ChannelID: "e1", Type: domain.ChannelEcho},
}

func newRegistrationFixture() (*RegistrationService, *memory.Chat, *memory.PlaytestStore) {
	chat := memory.NewChat("bot", "s1")
	store := memory.NewPlaytestStore()
	s := NewRegistrationService(store, store, chat, NewChannelDirectory(testChannels), tallyEmojis, seal.Plain{}, logger.Discard())
	return s, chat, store
}

func TestHandlePostOffersPlayButton(t *testing.T) {
	ctx := context.Background()
	s, chat, store := newRegistrationFixture()

	q := chat.Post(domain.Message{ChannelID: "c1", AuthorID: "author", Content: registrationTossup})
	require.NoError(t, s.HandlePost(ctx, q))

	msgs := chat.Messages("c1")
	require.Len(t, msgs, 2)
	assert.Equal(t, q.ID, msgs[1].ReferenceID)
	assert.Equal(t, []domain.Button{{Label: "Play Tossup", CustomID: PlayButtonID}}, chat.Buttons("c1", msgs[1].ID))

	record, ok := store.Tossup(q.ID)
	require.True(t, ok)
	assert.Equal(t, "author", record.AuthorID)
	assert.Equal(t, "American Literature", record.Category)
	assert.Equal(t, 15+25+15, record.TotalCharacters)
}

func TestHandlePostIgnoresOtherMessages(t *testing.T) {
	ctx := context.Background()
	s, chat, _ := newRegistrationFixture()

	for _, m := range []domain.Message{
		{ChannelID: "c1", Content: "just chatting"},
		{ChannelID: "c9", Content: registrationTossup},
		{ChannelID: "c1", Content: "no spoilers here\nANSWER: x"},
	} {
		require.NoError(t, s.HandlePost(ctx, chat.Post(m)))
	}
	for _, m := range chat.Messages("c1") {
		assert.Empty(t, chat.Buttons("c1", m.ID))
	}
}

func TestHandlePostEchoesPacketQuestion(t *testing.T) {
	ctx := context.Background()
	s, chat, store := newRegistrationFixture()

	q := chat.Post(domain.Message{ChannelID: "c2", Content: registrationTossup})
	require.NoError(t, s.HandlePost(ctx, q))
	assert.Empty(t, chat.Messages("e1"), "no packet, nothing tracked")

	require.NoError(t, store.SetCurrentPacket(ctx, "s1", "4"))
	require.NoError(t, s.HandlePost(ctx, q))

	echo := chat.Messages("e1")
	require.Len(t, echo, 1)
	assert.Equal(t, "### [Tossup 3 - American Literature]("+q.URL+")\n* <:answer:6> ||Moby-Dick||", echo[0].Content)

	pqs, err := store.PacketQuestions(ctx, "s1", "4")
	require.NoError(t, err)
	require.Len(t, pqs, 1)
	assert.Equal(t, echo[0].ID, pqs[0].EchoMessageID)

	reactions, err := chat.Reactions(ctx, "c2", q.ID)
	require.NoError(t, err)
	var emojis []string
	for _, r := range reactions {
		emojis = append(emojis, r.Emoji)
		assert.Equal(t, []string{"bot"}, r.UserIDs)
	}
	assert.Equal(t, []string{"<:tossup_15:1>", "<:tossup_10:2>", "<:tossup_0:3>", "<:tossup_DNC:4>", "<:tossup_neg5:5>"}, emojis)
}

func TestRegisterSealsAnswers(t *testing.T) {
	ctx := context.Background()
	chat := memory.NewChat("bot", "s1")
	store := memory.NewPlaytestStore()
	box, err := seal.New(make([]byte, 32))
	require.NoError(t, err)
	s := NewRegistrationService(store, store, chat, NewChannelDirectory(testChannels), tallyEmojis, box, logger.Discard())

	q := chat.Post(domain.Message{ChannelID: "c1", Content: registrationTossup})
	require.NoError(t, s.HandlePost(ctx, q))

	record, ok := store.Tossup(q.ID)
	require.True(t, ok)
	assert.NotContains(t, record.Answer, "Moby")
	opened, err := box.Open("s1", record.Answer)
	require.NoError(t, err)
	assert.Equal(t, "||Moby-Dick [accept The Whale]||", opened)
}

func TestReactEmojiNames(t *testing.T) {
	assert.Equal(t, []string{"tossup_10", "tossup_0", "tossup_DNC", "tossup_neg5"}, reactEmojiNames(domain.KindTossup, "no power"))
	assert.Equal(t, []string{"bonus_E", "bonus_M", "bonus_H", "bonus_0"}, reactEmojiNames(domain.KindBonus, "(*)"))
}
