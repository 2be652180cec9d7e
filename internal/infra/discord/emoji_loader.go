package discord

import (
	"context"
	"fmt"

	"github.com/bwmarrin/discordgo"
)

// EmojiLoader reads a server's custom emoji from Discord.
type EmojiLoader struct {
	session *discordgo.Session
}

func NewEmojiLoader(session *discordgo.Session) *EmojiLoader {
	return &EmojiLoader{session: session}
}

// LoadEmojis maps emoji name to its message form, e.g. "<:tossup_10:123>".
func (l *EmojiLoader) LoadEmojis(ctx context.Context, serverID string) (map[string]string, error) {
	emojis, err := l.session.GuildEmojis(serverID, discordgo.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("list emojis: %w", translate(err))
	}
	out := make(map[string]string, len(emojis))
	for _, e := range emojis {
		out[e.Name] = e.MessageFormat()
	}
	return out, nil
}
