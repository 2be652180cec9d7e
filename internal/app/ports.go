package app

import (
	"context"

	"playtesting-bot/internal/domain"
)

// SessionRepository abstracts where live readings are kept (in-memory, Redis).
// Set overwrites unconditionally; callers check Get first.
type SessionRepository interface {
	Get(ctx context.Context, participantID string) (domain.Session, bool, error)
	Set(ctx context.Context, participantID string, session domain.Session) error
	Delete(ctx context.Context, participantID string) error
}

// ResultRepository is the append-only system of record for playtest results.
type ResultRepository interface {
	InsertBuzz(ctx context.Context, result domain.BuzzResult) error
	// InsertBonusParts writes all parts of one play-through, in order.
	InsertBonusParts(ctx context.Context, results []domain.BonusPartResult) error
	// TossupBuzzes lists buzzes for a question ordered by clue index.
	TossupBuzzes(ctx context.Context, questionID string) ([]domain.Buzz, error)
	BonusOutcomes(ctx context.Context, questionID string) ([]domain.BonusOutcome, error)
	ServerResults(ctx context.Context, serverID string) (domain.ResultExport, error)
}

// QuestionRepository registers questions and tracks their results threads.
type QuestionRepository interface {
	// RegisterTossup and RegisterBonus are idempotent.
	RegisterTossup(ctx context.Context, record domain.TossupRecord) error
	RegisterBonus(ctx context.Context, record domain.BonusRecord) error
	// ResultsThread returns the zero value when no thread exists yet.
	ResultsThread(ctx context.Context, kind domain.QuestionKind, questionID string) (domain.ResultsThread, error)
	SaveResultsThread(ctx context.Context, kind domain.QuestionKind, questionID string, thread domain.ResultsThread) error
}

// PacketRepository keeps the packet being read per server and its questions.
type PacketRepository interface {
	CurrentPacket(ctx context.Context, serverID string) (string, error)
	SetCurrentPacket(ctx context.Context, serverID, packet string) error
	AddPacketQuestion(ctx context.Context, q domain.PacketQuestion) error
	PacketQuestions(ctx context.Context, serverID, packet string) ([]domain.PacketQuestion, error)
	Packets(ctx context.Context, serverID string) ([]string, error)
}

// Chat is the chat platform as the bot needs it.
type Chat interface {
	SendDirect(ctx context.Context, userID string, msg domain.OutboundMessage) error
	Send(ctx context.Context, channelID string, msg domain.OutboundMessage) (domain.Message, error)
	Edit(ctx context.Context, channelID, messageID string, msg domain.OutboundMessage) error
	// FetchMessage returns domain.ErrNotFound when the message no longer exists.
	FetchMessage(ctx context.Context, channelID, messageID string) (domain.Message, error)
	ChannelMessages(ctx context.Context, channelID string) ([]domain.Message, error)
	CreateThread(ctx context.Context, channelID, name string) (domain.Thread, error)
	AddThreadMember(ctx context.Context, threadID, userID string) error
	AddReaction(ctx context.Context, channelID, messageID, emoji string) error
	Reactions(ctx context.Context, channelID, messageID string) ([]domain.Reaction, error)
	BotUserID() string
}

// EmojiResolver renders named server emoji. Unknown names resolve to "".
type EmojiResolver interface {
	Emojis(ctx context.Context, serverID string, names ...string) ([]string, error)
}

// Sealer encrypts free text at rest, keyed per server.
type Sealer interface {
	Seal(serverID, plaintext string) (string, error)
	Open(serverID, sealed string) (string, error)
}

// DigestPublisher fans out republished digests to live subscribers.
type DigestPublisher interface {
	Publish(digest domain.Digest)
}
