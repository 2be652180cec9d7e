package app

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"playtesting-bot/internal/domain"
)

const defaultTallyConcurrency = 4

// TallyReport summarises one tally run.
type TallyReport struct {
	RunID   string
	Packet  string
	Tallied int
	Total   int
	Failed  []string
}

// TallyService scores the public reactions left on a packet's questions and
// publishes the result into each question's echo message.
type TallyService struct {
	packets     PacketRepository
	chat        Chat
	emojis      EmojiResolver
	concurrency int
	log         logrus.FieldLogger
}

func NewTallyService(packets PacketRepository, chat Chat, emojis EmojiResolver, concurrency int, log logrus.FieldLogger) *TallyService {
	if concurrency <= 0 {
		concurrency = defaultTallyConcurrency
	}
	return &TallyService{packets: packets, chat: chat, emojis: emojis, concurrency: concurrency, log: log}
}

// Tally processes every question of the packet. Progress is reported into
// progressChannelID when it is set. Missing messages are logged and skipped.
func (s *TallyService) Tally(ctx context.Context, serverID, packet, progressChannelID string) (TallyReport, error) {
	report := TallyReport{RunID: uuid.NewString(), Packet: packet}
	log := s.log.WithFields(logrus.Fields{"packet": packet, "run": report.RunID})

	questions, err := s.packets.PacketQuestions(ctx, serverID, packet)
	if err != nil {
		return report, fmt.Errorf("list packet questions: %w", err)
	}
	report.Total = len(questions)
	if report.Total == 0 {
		return report, nil
	}

	progress := s.startProgress(ctx, progressChannelID, report.Total, packet)

	var (
		mu sync.Mutex
		g  errgroup.Group
	)
	g.SetLimit(s.concurrency)

	for _, pq := range questions {
		pq := pq
		g.Go(func() error {
			err := s.tallyQuestion(ctx, pq)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				log.WithError(err).WithField("question", pq.QuestionID).Warn("tally question")
				report.Failed = append(report.Failed, pq.QuestionID)
				return nil
			}
			report.Tallied++
			if progress.ID != "" {
				text := fmt.Sprintf("Tallied reacts for %d of %d question%s in packet %s...", report.Tallied, report.Total, plural(report.Total), packet)
				if err := s.chat.Edit(ctx, progress.ChannelID, progress.ID, domain.Notice(text)); err != nil {
					log.WithError(err).Warn("update tally progress")
				}
			}
			return nil
		})
	}
	_ = g.Wait()

	if len(report.Failed) == 0 && progress.ID != "" {
		text := fmt.Sprintf("Tallied reacts for %d question%s in packet %s.", report.Tallied, plural(report.Tallied), packet)
		if err := s.chat.Edit(ctx, progress.ChannelID, progress.ID, domain.Notice(text)); err != nil {
			log.WithError(err).Warn("update tally progress")
		}
	}
	if len(report.Failed) > 0 && progressChannelID != "" {
		text := fmt.Sprintf("Errors in tallying %d question%s in packet %s. Check that the questions still exist.",
			len(report.Failed), plural(len(report.Failed)), packet)
		if _, err := s.chat.Send(ctx, progressChannelID, domain.Notice(text)); err != nil {
			log.WithError(err).Warn("report tally errors")
		}
	}
	log.WithFields(logrus.Fields{"tallied": report.Tallied, "total": report.Total}).Info("tally finished")
	return report, ctx.Err()
}

// TallyAll tallies every packet recorded on the server.
func (s *TallyService) TallyAll(ctx context.Context, serverID, progressChannelID string) ([]TallyReport, error) {
	packets, err := s.packets.Packets(ctx, serverID)
	if err != nil {
		return nil, fmt.Errorf("list packets: %w", err)
	}
	reports := make([]TallyReport, 0, len(packets))
	for _, p := range packets {
		r, err := s.Tally(ctx, serverID, p, progressChannelID)
		reports = append(reports, r)
		if err != nil {
			return reports, err
		}
	}
	return reports, nil
}

func (s *TallyService) startProgress(ctx context.Context, channelID string, total int, packet string) domain.Message {
	if channelID == "" {
		return domain.Message{}
	}
	text := fmt.Sprintf("Tallying reacts for %d question%s in packet %s...", total, plural(total), packet)
	msg, err := s.chat.Send(ctx, channelID, domain.Notice(text))
	if err != nil {
		s.log.WithError(err).Warn("send tally progress")
		return domain.Message{}
	}
	if msg.ChannelID == "" {
		msg.ChannelID = channelID
	}
	return msg
}

func (s *TallyService) tallyQuestion(ctx context.Context, pq domain.PacketQuestion) error {
	msg, err := s.chat.FetchMessage(ctx, pq.ChannelID, pq.QuestionID)
	if err != nil {
		return fmt.Errorf("fetch question: %w", err)
	}

	names := reactEmojiNames(pq.Kind, msg.Content)
	lookup := append(append(make([]string, 0, len(names)+2), names...), answerEmoji, playCountEmoji)
	emojis, err := s.emojis.Emojis(ctx, pq.ServerID, lookup...)
	if err != nil {
		return fmt.Errorf("resolve emojis: %w", err)
	}
	reactions, err := s.chat.Reactions(ctx, pq.ChannelID, pq.QuestionID)
	if err != nil {
		return fmt.Errorf("list reactions: %w", err)
	}

	counts, plays := countReactions(reactions, emojis[:len(names)], s.chat.BotUserID())
	scored := false
	for _, c := range counts {
		if c > 0 {
			scored = true
			break
		}
	}
	if !scored || pq.EchoMessageID == "" {
		return nil
	}

	line := tallyLine(pq, names, emojis, counts, plays)
	if err := s.chat.Edit(ctx, pq.EchoChannelID, pq.EchoMessageID, domain.OutboundMessage{Content: line}); err != nil {
		return fmt.Errorf("update echo message: %w", err)
	}
	return nil
}

// countReactions counts distinct non-bot users per recognised emoji. The play
// count is the number of distinct users across all of them, at least 1.
func countReactions(reactions []domain.Reaction, recognised []string, botID string) ([]int, int) {
	index := make(map[string]int, len(recognised))
	for i, e := range recognised {
		if e != "" {
			index[e] = i
		}
	}

	counts := make([]int, len(recognised))
	players := make(map[string]struct{})
	for _, r := range reactions {
		i, ok := index[r.Emoji]
		if !ok {
			continue
		}
		seen := make(map[string]struct{}, len(r.UserIDs))
		for _, u := range r.UserIDs {
			if u == botID {
				continue
			}
			if _, dup := seen[u]; dup {
				continue
			}
			seen[u] = struct{}{}
			players[u] = struct{}{}
			counts[i]++
		}
	}

	plays := len(players)
	if plays == 0 {
		plays = 1
	}
	return counts, plays
}

func tallyLine(pq domain.PacketQuestion, names, emojis []string, counts []int, plays int) string {
	n := len(names)
	var b strings.Builder
	b.WriteString(packetHeader(pq) + "\n")
	fmt.Fprintf(&b, "* %s ||%s||\n", emojiOr(emojis, n, ""), pq.Answers)
	fmt.Fprintf(&b, "* **%d** × %s \t", plays, emojiOr(emojis, n+1, "plays"))

	parts := make([]string, 0, n)
	for i, name := range names {
		parts = append(parts, fmt.Sprintf("**%d** × %s (%s)",
			counts[i], emojiOr(emojis, i, name), formatPercent(float64(counts[i]), float64(plays))))
	}
	b.WriteString(strings.Join(parts, "\t"))
	return b.String()
}
