package memory

import (
	"context"
	"fmt"
	"sync"

	"playtesting-bot/internal/domain"
)

// ChatThread is a thread created through Chat.
type ChatThread struct {
	ID        string
	ChannelID string
	Name      string
	Members   []string
}

// Chat is an in-process implementation of app.Chat. It keeps every message it
// is asked to send so flows can be driven and inspected without a platform.
type Chat struct {
	mu        sync.Mutex
	botID     string
	serverID  string
	nextID    int
	dms       map[string][]domain.OutboundMessage
	messages  map[string][]domain.Message
	buttons   map[string][]domain.Button
	threads   []ChatThread
	reactions map[string][]domain.Reaction
}

func NewChat(botID, serverID string) *Chat {
	return &Chat{
		botID:     botID,
		serverID:  serverID,
		dms:       make(map[string][]domain.OutboundMessage),
		messages:  make(map[string][]domain.Message),
		buttons:   make(map[string][]domain.Button),
		reactions: make(map[string][]domain.Reaction),
	}
}

func (c *Chat) SendDirect(_ context.Context, userID string, msg domain.OutboundMessage) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.dms[userID] = append(c.dms[userID], msg)
	return nil
}

func (c *Chat) Send(_ context.Context, channelID string, msg domain.OutboundMessage) (domain.Message, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	m := c.postLocked(domain.Message{
		ChannelID:   channelID,
		ServerID:    c.serverID,
		AuthorID:    c.botID,
		Content:     msg.Content,
		ReferenceID: msg.ReplyTo,
	})
	if len(msg.Buttons) > 0 {
		c.buttons[messageKey(channelID, m.ID)] = msg.Buttons
	}
	return m, nil
}

// Post seeds a message as if a user had written it. An empty ID is generated.
func (c *Chat) Post(msg domain.Message) domain.Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	if msg.ServerID == "" {
		msg.ServerID = c.serverID
	}
	return c.postLocked(msg)
}

func (c *Chat) postLocked(msg domain.Message) domain.Message {
	if msg.ID == "" {
		c.nextID++
		msg.ID = fmt.Sprintf("m%d", c.nextID)
	}
	if msg.URL == "" {
		msg.URL = fmt.Sprintf("https://discord.com/channels/%s/%s/%s", msg.ServerID, msg.ChannelID, msg.ID)
	}
	c.messages[msg.ChannelID] = append(c.messages[msg.ChannelID], msg)
	return msg
}

func (c *Chat) Edit(_ context.Context, channelID, messageID string, msg domain.OutboundMessage) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i, m := range c.messages[channelID] {
		if m.ID != messageID {
			continue
		}
		if msg.Content != "" {
			c.messages[channelID][i].Content = msg.Content
		}
		if len(msg.Buttons) > 0 {
			c.buttons[messageKey(channelID, messageID)] = msg.Buttons
		}
		return nil
	}
	return domain.ErrNotFound
}

func (c *Chat) FetchMessage(_ context.Context, channelID, messageID string) (domain.Message, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, m := range c.messages[channelID] {
		if m.ID == messageID {
			return m, nil
		}
	}
	return domain.Message{}, domain.ErrNotFound
}

func (c *Chat) ChannelMessages(_ context.Context, channelID string) ([]domain.Message, error) {
	return c.Messages(channelID), nil
}

func (c *Chat) CreateThread(_ context.Context, channelID, name string) (domain.Thread, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.nextID++
	id := fmt.Sprintf("t%d", c.nextID)
	c.threads = append(c.threads, ChatThread{ID: id, ChannelID: channelID, Name: name})
	return domain.Thread{ID: id, URL: fmt.Sprintf("https://discord.com/channels/%s/%s", c.serverID, id)}, nil
}

func (c *Chat) AddThreadMember(_ context.Context, threadID, userID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i, t := range c.threads {
		if t.ID == threadID {
			c.threads[i].Members = append(c.threads[i].Members, userID)
			return nil
		}
	}
	return domain.ErrNotFound
}

func (c *Chat) AddReaction(_ context.Context, channelID, messageID, emoji string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	key := messageKey(channelID, messageID)
	for i, r := range c.reactions[key] {
		if r.Emoji == emoji {
			c.reactions[key][i].UserIDs = append(r.UserIDs, c.botID)
			return nil
		}
	}
	c.reactions[key] = append(c.reactions[key], domain.Reaction{Emoji: emoji, UserIDs: []string{c.botID}})
	return nil
}

func (c *Chat) Reactions(_ context.Context, channelID, messageID string) ([]domain.Reaction, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]domain.Reaction(nil), c.reactions[messageKey(channelID, messageID)]...), nil
}

func (c *Chat) BotUserID() string { return c.botID }

// React records userID reacting to a message with emoji.
func (c *Chat) React(channelID, messageID, emoji, userID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	key := messageKey(channelID, messageID)
	for i, r := range c.reactions[key] {
		if r.Emoji == emoji {
			c.reactions[key][i].UserIDs = append(r.UserIDs, userID)
			return
		}
	}
	c.reactions[key] = append(c.reactions[key], domain.Reaction{Emoji: emoji, UserIDs: []string{userID}})
}

// Remove deletes a message.
func (c *Chat) Remove(channelID, messageID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	msgs := c.messages[channelID]
	for i, m := range msgs {
		if m.ID == messageID {
			c.messages[channelID] = append(msgs[:i:i], msgs[i+1:]...)
			return
		}
	}
}

// DirectMessages returns everything sent privately to userID.
func (c *Chat) DirectMessages(userID string) []domain.OutboundMessage {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]domain.OutboundMessage(nil), c.dms[userID]...)
}

// Messages returns the current messages of a channel or thread.
func (c *Chat) Messages(channelID string) []domain.Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]domain.Message(nil), c.messages[channelID]...)
}

// Buttons returns the buttons currently attached to a message.
func (c *Chat) Buttons(channelID, messageID string) []domain.Button {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.buttons[messageKey(channelID, messageID)]
}

// Threads returns every thread created so far.
func (c *Chat) Threads() []ChatThread {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]ChatThread(nil), c.threads...)
}

func messageKey(channelID, messageID string) string {
	return channelID + "/" + messageID
}
