package discord

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/sirupsen/logrus"

	"playtesting-bot/internal/app"
	"playtesting-bot/internal/domain"
)

const eventTimeout = 30 * time.Second

// Intents are the gateway intents the router needs.
const Intents = discordgo.IntentsGuilds |
	discordgo.IntentsGuildMessages |
	discordgo.IntentsGuildMessageReactions |
	discordgo.IntentsGuildEmojis |
	discordgo.IntentsDirectMessages |
	discordgo.IntentsMessageContent

// Router turns gateway events into application calls. discordgo runs each
// handler on its own goroutine.
type Router struct {
	playtest      *app.PlaytestService
	registration  *app.RegistrationService
	packets       *app.PacketService
	chat          app.Chat
	emojisChanged func(serverID string)
	log           logrus.FieldLogger
}

func NewRouter(
	playtest *app.PlaytestService,
	registration *app.RegistrationService,
	packets *app.PacketService,
	chat app.Chat,
	emojisChanged func(serverID string),
	log logrus.FieldLogger,
) *Router {
	return &Router{
		playtest:      playtest,
		registration:  registration,
		packets:       packets,
		chat:          chat,
		emojisChanged: emojisChanged,
		log:           log,
	}
}

// Attach registers the router's handlers on the session.
func (r *Router) Attach(s *discordgo.Session) {
	s.Identify.Intents = Intents
	s.AddHandler(r.onMessage)
	s.AddHandler(r.onInteraction)
	s.AddHandler(r.onEmojisUpdate)
	s.AddHandler(func(_ *discordgo.Session, e *discordgo.Ready) {
		r.log.WithField("user", e.User.Username).Info("connected to discord")
	})
}

func (r *Router) onMessage(_ *discordgo.Session, m *discordgo.MessageCreate) {
	if m.Author == nil || m.Author.Bot {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), eventTimeout)
	defer cancel()

	msg := toMessage(m.Message)
	log := r.log.WithFields(logrus.Fields{"user": msg.AuthorID, "channel": msg.ChannelID})

	if m.GuildID == "" {
		err := r.playtest.HandleMessage(ctx, msg.AuthorID, msg.Content)
		r.report(log, "handle direct message", err)
		return
	}

	handled, err := r.packets.HandleCommand(ctx, msg)
	if handled {
		r.report(log, "handle packet command", err)
		return
	}
	r.report(log, "handle post", r.registration.HandlePost(ctx, msg))
}

func (r *Router) onInteraction(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if i.Type != discordgo.InteractionMessageComponent || i.MessageComponentData().CustomID != app.PlayButtonID {
		return
	}
	err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredMessageUpdate,
	})
	if err != nil {
		r.log.WithError(err).Warn("acknowledge play button")
	}

	user := i.User
	if i.Member != nil && i.Member.User != nil {
		user = i.Member.User
	}
	if user == nil || i.Message == nil || i.Message.MessageReference == nil {
		return
	}
	log := r.log.WithFields(logrus.Fields{"participant": user.ID, "question": i.Message.MessageReference.MessageID})

	ctx, cancel := context.WithTimeout(context.Background(), eventTimeout)
	defer cancel()

	ref := i.Message.MessageReference
	question, err := r.chat.FetchMessage(ctx, ref.ChannelID, ref.MessageID)
	if err != nil {
		log.WithError(err).Warn("load question for play button")
		return
	}
	if question.ServerID == "" {
		question.ServerID = i.GuildID
		question.URL = messageURL(i.GuildID, question.ChannelID, question.ID)
	}

	err = r.playtest.Start(ctx, app.StartRequest{
		ParticipantID:   user.ID,
		ButtonMessageID: i.Message.ID,
		Question:        question,
	})
	r.report(log, "start reading", err)
}

func (r *Router) onEmojisUpdate(_ *discordgo.Session, e *discordgo.GuildEmojisUpdate) {
	if r.emojisChanged != nil {
		r.emojisChanged(e.GuildID)
	}
}

func (r *Router) report(log logrus.FieldLogger, action string, err error) {
	switch {
	case err == nil:
	case errors.Is(err, domain.ErrNoSession), errors.Is(err, domain.ErrNotAQuestion):
	case app.IsNotice(err), errors.Is(err, domain.ErrPacketNotSet):
		log.WithError(err).Debug(action)
	default:
		log.WithError(err).Error(action)
	}
}
