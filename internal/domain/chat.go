package domain

// Message is a chat message as seen by the bot.
type Message struct {
	ID          string
	ChannelID   string
	ServerID    string
	AuthorID    string
	AuthorName  string
	Content     string
	URL         string
	ReferenceID string
}

// Button is a message component. A button with a URL is a link button.
type Button struct {
	Label    string
	CustomID string
	URL      string
}

// OutboundMessage describes a message to send or an edit to apply.
type OutboundMessage struct {
	Content string
	// Embed renders Content as an embed description instead of plain text.
	Embed   bool
	Silent  bool
	ReplyTo string
	Buttons []Button
}

// Thread is a created discussion thread.
type Thread struct {
	ID  string
	URL string
}

// Reaction lists the users that reacted with one emoji.
type Reaction struct {
	Emoji   string
	UserIDs []string
}

// Notice is an embedded, notification-suppressed message.
func Notice(text string) OutboundMessage {
	return OutboundMessage{Content: text, Embed: true, Silent: true}
}

// Plain is a notification-suppressed text message.
func Plain(text string) OutboundMessage {
	return OutboundMessage{Content: text, Silent: true}
}
