// Package discord adapts a discordgo session to the bot's chat and emoji ports
// and routes gateway events into the application services.
package discord

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/bwmarrin/discordgo"

	"playtesting-bot/internal/domain"
)

const (
	pageSize              = 100
	threadArchiveDuration = 60 * 24 * 7
)

// Chat implements app.Chat over the Discord REST API.
type Chat struct {
	session *discordgo.Session
}

func NewChat(session *discordgo.Session) *Chat {
	return &Chat{session: session}
}

func (c *Chat) SendDirect(ctx context.Context, userID string, msg domain.OutboundMessage) error {
	ch, err := c.session.UserChannelCreate(userID, discordgo.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("open dm: %w", translate(err))
	}
	_, err = c.session.ChannelMessageSendComplex(ch.ID, messageSend(ch.ID, msg), discordgo.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("send dm: %w", translate(err))
	}
	return nil
}

func (c *Chat) Send(ctx context.Context, channelID string, msg domain.OutboundMessage) (domain.Message, error) {
	m, err := c.session.ChannelMessageSendComplex(channelID, messageSend(channelID, msg), discordgo.WithContext(ctx))
	if err != nil {
		return domain.Message{}, fmt.Errorf("send message: %w", translate(err))
	}
	return toMessage(m), nil
}

func (c *Chat) Edit(ctx context.Context, channelID, messageID string, msg domain.OutboundMessage) error {
	edit := discordgo.NewMessageEdit(channelID, messageID)
	if msg.Content != "" {
		if msg.Embed {
			edit.SetEmbeds([]*discordgo.MessageEmbed{{Description: msg.Content}})
		} else {
			edit.SetContent(msg.Content)
		}
	}
	if len(msg.Buttons) > 0 {
		components := buttonRow(msg.Buttons)
		edit.Components = &components
	}
	if _, err := c.session.ChannelMessageEditComplex(edit, discordgo.WithContext(ctx)); err != nil {
		return fmt.Errorf("edit message: %w", translate(err))
	}
	return nil
}

func (c *Chat) FetchMessage(ctx context.Context, channelID, messageID string) (domain.Message, error) {
	m, err := c.session.ChannelMessage(channelID, messageID, discordgo.WithContext(ctx))
	if err != nil {
		return domain.Message{}, fmt.Errorf("fetch message: %w", translate(err))
	}
	return toMessage(m), nil
}

func (c *Chat) ChannelMessages(ctx context.Context, channelID string) ([]domain.Message, error) {
	msgs, err := c.session.ChannelMessages(channelID, pageSize, "", "", "", discordgo.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", translate(err))
	}
	out := make([]domain.Message, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, toMessage(m))
	}
	return out, nil
}

func (c *Chat) CreateThread(ctx context.Context, channelID, name string) (domain.Thread, error) {
	ch, err := c.session.ThreadStart(channelID, name, discordgo.ChannelTypeGuildPublicThread, threadArchiveDuration, discordgo.WithContext(ctx))
	if err != nil {
		return domain.Thread{}, fmt.Errorf("start thread: %w", translate(err))
	}
	return domain.Thread{ID: ch.ID, URL: fmt.Sprintf("https://discord.com/channels/%s/%s", ch.GuildID, ch.ID)}, nil
}

func (c *Chat) AddThreadMember(ctx context.Context, threadID, userID string) error {
	if err := c.session.ThreadMemberAdd(threadID, userID, discordgo.WithContext(ctx)); err != nil {
		return fmt.Errorf("add thread member: %w", translate(err))
	}
	return nil
}

func (c *Chat) AddReaction(ctx context.Context, channelID, messageID, emoji string) error {
	if err := c.session.MessageReactionAdd(channelID, messageID, apiEmoji(emoji), discordgo.WithContext(ctx)); err != nil {
		return fmt.Errorf("add reaction: %w", translate(err))
	}
	return nil
}

// Reactions lists every user behind every reaction on a message, paging
// through users in batches of 100.
func (c *Chat) Reactions(ctx context.Context, channelID, messageID string) ([]domain.Reaction, error) {
	m, err := c.session.ChannelMessage(channelID, messageID, discordgo.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("fetch message: %w", translate(err))
	}

	out := make([]domain.Reaction, 0, len(m.Reactions))
	for _, r := range m.Reactions {
		if r.Emoji == nil {
			continue
		}
		reaction := domain.Reaction{Emoji: r.Emoji.MessageFormat()}
		after := ""
		for {
			users, err := c.session.MessageReactions(channelID, messageID, r.Emoji.APIName(), pageSize, "", after, discordgo.WithContext(ctx))
			if err != nil {
				return nil, fmt.Errorf("list reactions: %w", translate(err))
			}
			for _, u := range users {
				reaction.UserIDs = append(reaction.UserIDs, u.ID)
			}
			if len(users) < pageSize {
				break
			}
			after = users[len(users)-1].ID
		}
		out = append(out, reaction)
	}
	return out, nil
}

func (c *Chat) BotUserID() string {
	if c.session.State == nil || c.session.State.User == nil {
		return ""
	}
	return c.session.State.User.ID
}

func messageSend(channelID string, msg domain.OutboundMessage) *discordgo.MessageSend {
	send := &discordgo.MessageSend{
		AllowedMentions: &discordgo.MessageAllowedMentions{},
	}
	if msg.Embed {
		send.Embeds = []*discordgo.MessageEmbed{{Description: msg.Content}}
	} else {
		send.Content = msg.Content
	}
	if msg.Silent {
		send.Flags = discordgo.MessageFlagsSuppressNotifications
	}
	if msg.ReplyTo != "" {
		send.Reference = &discordgo.MessageReference{MessageID: msg.ReplyTo, ChannelID: channelID}
	}
	if len(msg.Buttons) > 0 {
		send.Components = buttonRow(msg.Buttons)
	}
	return send
}

func buttonRow(buttons []domain.Button) []discordgo.MessageComponent {
	row := discordgo.ActionsRow{}
	for _, b := range buttons {
		if b.URL != "" {
			row.Components = append(row.Components, discordgo.Button{Label: b.Label, Style: discordgo.LinkButton, URL: b.URL})
			continue
		}
		row.Components = append(row.Components, discordgo.Button{Label: b.Label, Style: discordgo.PrimaryButton, CustomID: b.CustomID})
	}
	return []discordgo.MessageComponent{row}
}

func toMessage(m *discordgo.Message) domain.Message {
	out := domain.Message{
		ID:        m.ID,
		ChannelID: m.ChannelID,
		ServerID:  m.GuildID,
		Content:   m.Content,
	}
	if m.Author != nil {
		out.AuthorID = m.Author.ID
		out.AuthorName = displayName(m.Author, m.Member)
	}
	if m.MessageReference != nil {
		out.ReferenceID = m.MessageReference.MessageID
	}
	out.URL = messageURL(m.GuildID, m.ChannelID, m.ID)
	return out
}

func displayName(u *discordgo.User, member *discordgo.Member) string {
	if member != nil && member.Nick != "" {
		return member.Nick
	}
	if u.GlobalName != "" {
		return u.GlobalName
	}
	return u.Username
}

func messageURL(guildID, channelID, messageID string) string {
	if guildID == "" {
		guildID = "@me"
	}
	return fmt.Sprintf("https://discord.com/channels/%s/%s/%s", guildID, channelID, messageID)
}

// apiEmoji converts a rendered custom emoji ("<:name:id>", "<a:name:id>") to
// the "name:id" form the reaction endpoints expect. Unicode emoji pass through.
func apiEmoji(rendered string) string {
	if !strings.HasPrefix(rendered, "<") || !strings.HasSuffix(rendered, ">") {
		return rendered
	}
	inner := strings.TrimSuffix(strings.TrimPrefix(rendered, "<"), ">")
	inner = strings.TrimPrefix(inner, "a")
	return strings.TrimPrefix(inner, ":")
}

func translate(err error) error {
	var rest *discordgo.RESTError
	if errors.As(err, &rest) {
		if rest.Response != nil && rest.Response.StatusCode == http.StatusNotFound {
			return fmt.Errorf("%w: %v", domain.ErrNotFound, err)
		}
		if rest.Message != nil && rest.Message.Code == discordgo.ErrCodeUnknownMessage {
			return fmt.Errorf("%w: %v", domain.ErrNotFound, err)
		}
	}
	return err
}
