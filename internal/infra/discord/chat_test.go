package discord

import (
	"errors"
	"net/http"
	"testing"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"playtesting-bot/internal/domain"
)

func TestAPIEmoji(t *testing.T) {
	assert.Equal(t, "tossup_10:123", apiEmoji("<:tossup_10:123>"))
	assert.Equal(t, "party:9", apiEmoji("<a:party:9>"))
	assert.Equal(t, "answer:5", apiEmoji("<:answer:5>"))
	assert.Equal(t, "👍", apiEmoji("👍"))
}

func TestMessageSend(t *testing.T) {
	send := messageSend("c1", domain.OutboundMessage{
		Content: "hello",
		Embed:   true,
		Silent:  true,
		ReplyTo: "m1",
		Buttons: []domain.Button{{Label: "Play Tossup", CustomID: "play_question"}, {Label: "Results", URL: "https://x"}},
	})

	assert.Empty(t, send.Content)
	require.Len(t, send.Embeds, 1)
	assert.Equal(t, "hello", send.Embeds[0].Description)
	assert.Equal(t, discordgo.MessageFlagsSuppressNotifications, send.Flags)
	require.NotNil(t, send.Reference)
	assert.Equal(t, "m1", send.Reference.MessageID)

	require.Len(t, send.Components, 1)
	row, ok := send.Components[0].(discordgo.ActionsRow)
	require.True(t, ok)
	require.Len(t, row.Components, 2)
	assert.Equal(t, discordgo.PrimaryButton, row.Components[0].(discordgo.Button).Style)
	assert.Equal(t, discordgo.LinkButton, row.Components[1].(discordgo.Button).Style)
}

func TestToMessage(t *testing.T) {
	m := toMessage(&discordgo.Message{
		ID:               "m1",
		ChannelID:        "c1",
		GuildID:          "g1",
		Content:          "text",
		Author:           &discordgo.User{ID: "u1", Username: "ada", GlobalName: "Ada Lovelace"},
		MessageReference: &discordgo.MessageReference{MessageID: "m0"},
	})
	assert.Equal(t, "Ada Lovelace", m.AuthorName)
	assert.Equal(t, "m0", m.ReferenceID)
	assert.Equal(t, "https://discord.com/channels/g1/c1/m1", m.URL)
}

func TestTranslateNotFound(t *testing.T) {
	err := translate(&discordgo.RESTError{Response: &http.Response{StatusCode: http.StatusNotFound}})
	assert.True(t, errors.Is(err, domain.ErrNotFound))

	other := errors.New("boom")
	assert.Equal(t, other, translate(other))
}
