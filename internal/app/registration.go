package app

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"playtesting-bot/internal/domain"
	"playtesting-bot/internal/question"
)

const (
	answerEmoji    = "answer"
	playCountEmoji = "play_count"
)

// RegistrationService handles questions posted in configured channels: it
// registers them, attaches the play button in playtesting channels and echoes
// packet questions posted in reacts channels.
type RegistrationService struct {
	questions QuestionRepository
	packets   PacketRepository
	chat      Chat
	channels  *ChannelDirectory
	emojis    EmojiResolver
	sealer    Sealer
	log       logrus.FieldLogger
}

func NewRegistrationService(
	questions QuestionRepository,
	packets PacketRepository,
	chat Chat,
	channels *ChannelDirectory,
	emojis EmojiResolver,
	sealer Sealer,
	log logrus.FieldLogger,
) *RegistrationService {
	return &RegistrationService{
		questions: questions,
		packets:   packets,
		chat:      chat,
		channels:  channels,
		emojis:    emojis,
		sealer:    sealer,
		log:       log,
	}
}

// HandlePost reacts to a message posted on a server. Messages that are not
// questions, or are posted outside configured channels, are ignored.
func (s *RegistrationService) HandlePost(ctx context.Context, msg domain.Message) error {
	playtesting := s.channels.IsPlaytesting(msg.ServerID, msg.ChannelID)
	reacts := s.channels.IsReacts(msg.ServerID, msg.ChannelID)
	if !playtesting && !reacts {
		return nil
	}

	parsed, err := question.Parse(msg.Content)
	if errors.Is(err, domain.ErrNotAQuestion) {
		return nil
	}
	if err != nil {
		return err
	}

	if playtesting {
		return s.offerPlay(ctx, msg, parsed)
	}
	return s.echoPacketQuestion(ctx, msg, parsed)
}

// Register stores the question so results can be joined against it. It is idempotent.
func (s *RegistrationService) Register(ctx context.Context, msg domain.Message, q question.Question) error {
	switch q.Kind {
	case domain.KindTossup:
		answer, err := s.sealer.Seal(msg.ServerID, q.Tossup.Answer)
		if err != nil {
			return fmt.Errorf("seal answer: %w", err)
		}
		err = s.questions.RegisterTossup(ctx, domain.TossupRecord{
			QuestionID:      msg.ID,
			ServerID:        msg.ServerID,
			AuthorID:        msg.AuthorID,
			TotalCharacters: q.Tossup.TotalCharacters(),
			Category:        q.Tossup.Category,
			Answer:          answer,
		})
		if err != nil {
			return fmt.Errorf("register tossup: %w", err)
		}
	case domain.KindBonus:
		parts := make([]domain.BonusPartRecord, len(q.Bonus.Parts))
		for i := range q.Bonus.Parts {
			answer, err := s.sealer.Seal(msg.ServerID, q.Bonus.Answers[i])
			if err != nil {
				return fmt.Errorf("seal answer: %w", err)
			}
			parts[i] = domain.BonusPartRecord{Part: i + 1, Difficulty: q.Bonus.Difficulties[i], Answer: answer}
		}
		err := s.questions.RegisterBonus(ctx, domain.BonusRecord{
			QuestionID: msg.ID,
			ServerID:   msg.ServerID,
			AuthorID:   msg.AuthorID,
			Category:   q.Bonus.Category,
			Parts:      parts,
		})
		if err != nil {
			return fmt.Errorf("register bonus: %w", err)
		}
	}
	return nil
}

func (s *RegistrationService) offerPlay(ctx context.Context, msg domain.Message, q question.Question) error {
	if q.Kind == domain.KindTossup && len(q.Tossup.Parts) == 0 {
		s.log.WithField("question", msg.ID).Info("tossup without reveal segments, no play button")
		return nil
	}
	if err := s.Register(ctx, msg, q); err != nil {
		return err
	}

	_, err := s.chat.Send(ctx, msg.ChannelID, domain.OutboundMessage{
		ReplyTo: msg.ID,
		Silent:  true,
		Buttons: []domain.Button{{Label: "Play " + q.Kind.Label(), CustomID: PlayButtonID}},
	})
	if err != nil {
		return fmt.Errorf("send play button: %w", err)
	}
	return nil
}

func (s *RegistrationService) echoPacketQuestion(ctx context.Context, msg domain.Message, q question.Question) error {
	log := s.log.WithField("question", msg.ID)

	packet, err := s.packets.CurrentPacket(ctx, msg.ServerID)
	if err != nil {
		return fmt.Errorf("load current packet: %w", err)
	}
	if packet == "" {
		return nil
	}
	echoChannel, ok := s.channels.EchoChannel(msg.ServerID)
	if !ok {
		log.Warn("no echo channel configured, packet question not tracked")
		return nil
	}
	if err := s.Register(ctx, msg, q); err != nil {
		return err
	}

	pq := domain.PacketQuestion{
		ServerID:      msg.ServerID,
		PacketName:    packet,
		QuestionID:    msg.ID,
		ChannelID:     msg.ChannelID,
		EchoChannelID: echoChannel,
		Kind:          q.Kind,
		QuestionURL:   msg.URL,
	}
	if q.Kind == domain.KindTossup {
		pq.Number = q.Tossup.Number
		pq.Category = q.Tossup.Category
		pq.Answers = question.ShortenAnswer(q.Tossup.Answer)
	} else {
		pq.Number = q.Bonus.Number
		pq.Category = q.Bonus.Category
		answers := make([]string, len(q.Bonus.Answers))
		for i, a := range q.Bonus.Answers {
			answers[i] = question.ShortenAnswer(a)
		}
		pq.Answers = strings.Join(answers, " / ")
	}

	names := reactEmojiNames(q.Kind, msg.Content)
	emojis, err := s.emojis.Emojis(ctx, msg.ServerID, append([]string{answerEmoji}, names...)...)
	if err != nil {
		return fmt.Errorf("resolve emojis: %w", err)
	}

	echo, err := s.chat.Send(ctx, echoChannel, domain.OutboundMessage{
		Content: packetHeader(pq) + "\n* " + emojiOr(emojis, 0, "") + " ||" + pq.Answers + "||",
		Silent:  true,
	})
	if err != nil {
		return fmt.Errorf("echo packet question: %w", err)
	}
	pq.EchoMessageID = echo.ID

	if err := s.packets.AddPacketQuestion(ctx, pq); err != nil {
		return fmt.Errorf("save packet question: %w", err)
	}

	for _, e := range emojis[1:] {
		if e == "" {
			continue
		}
		if err := s.chat.AddReaction(ctx, msg.ChannelID, msg.ID, e); err != nil {
			log.WithError(err).Warn("add scoring reaction")
		}
	}
	log.WithField("packet", packet).Info("packet question tracked")
	return nil
}

// packetHeader is the first line of a packet question's echo message.
func packetHeader(pq domain.PacketQuestion) string {
	title := pq.Kind.Label()
	if pq.Number != "" {
		title += " " + pq.Number
	}
	if pq.Category != "" {
		title += " - " + pq.Category
	}
	return fmt.Sprintf("### [%s](%s)", title, pq.QuestionURL)
}

// reactEmojiNames lists the scoring emoji recognised on a question, in display order.
func reactEmojiNames(kind domain.QuestionKind, text string) []string {
	if kind == domain.KindBonus {
		return []string{"bonus_E", "bonus_M", "bonus_H", "bonus_0"}
	}
	names := make([]string, 0, 5)
	if strings.Contains(text, question.PowerMarker) {
		names = append(names, "tossup_15")
	}
	return append(names, "tossup_10", "tossup_0", "tossup_DNC", "tossup_neg5")
}
