package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"playtesting-bot/internal/domain"
)

const commandPrefix = "!"

// PacketService handles the packet bookkeeping commands posted in server channels:
//
//	!packet <name>   start tracking questions posted in reacts channels
//	!packet clear    stop tracking (also !end)
//	!packet          show the packet being read
//	!tally <name>    tally reactions on a packet (!tally all for every packet)
type PacketService struct {
	packets  PacketRepository
	tally    *TallyService
	chat     Chat
	channels *ChannelDirectory
	log      logrus.FieldLogger

	// tallyTimeout bounds a !tally run; zero means no deadline.
	tallyTimeout time.Duration
}

func NewPacketService(
	packets PacketRepository,
	tally *TallyService,
	chat Chat,
	channels *ChannelDirectory,
	tallyTimeout time.Duration,
	log logrus.FieldLogger,
) *PacketService {
	return &PacketService{packets: packets, tally: tally, chat: chat, channels: channels, tallyTimeout: tallyTimeout, log: log}
}

// HandleCommand runs msg if it is a packet command and reports whether it was one.
func (s *PacketService) HandleCommand(ctx context.Context, msg domain.Message) (bool, error) {
	text := strings.TrimSpace(msg.Content)
	if !strings.HasPrefix(text, commandPrefix) {
		return false, nil
	}
	if !s.channels.IsPlaytesting(msg.ServerID, msg.ChannelID) && !s.channels.IsReacts(msg.ServerID, msg.ChannelID) {
		return false, nil
	}

	fields := strings.Fields(strings.TrimPrefix(text, commandPrefix))
	if len(fields) == 0 {
		return false, nil
	}
	arg := strings.TrimSpace(strings.Join(fields[1:], " "))

	switch strings.ToLower(fields[0]) {
	case "packet":
		switch {
		case arg == "":
			return true, s.showPacket(ctx, msg)
		case strings.EqualFold(arg, "clear"):
			return true, s.setPacket(ctx, msg, "")
		default:
			return true, s.setPacket(ctx, msg, arg)
		}
	case "end":
		return true, s.setPacket(ctx, msg, "")
	case "tally":
		return true, s.runTally(ctx, msg, arg)
	}
	return false, nil
}

func (s *PacketService) showPacket(ctx context.Context, msg domain.Message) error {
	current, err := s.packets.CurrentPacket(ctx, msg.ServerID)
	if err != nil {
		return fmt.Errorf("load current packet: %w", err)
	}
	text := "No packet is being read."
	if current != "" {
		text = fmt.Sprintf("Currently reading packet %s.", current)
	}
	return s.reply(ctx, msg, text)
}

func (s *PacketService) setPacket(ctx context.Context, msg domain.Message, packet string) error {
	if err := s.packets.SetCurrentPacket(ctx, msg.ServerID, packet); err != nil {
		return fmt.Errorf("set current packet: %w", err)
	}
	s.log.WithFields(logrus.Fields{"server": msg.ServerID, "packet": packet}).Info("current packet changed")

	if packet == "" {
		return s.reply(ctx, msg, "Stopped tracking packet questions.")
	}
	return s.reply(ctx, msg, fmt.Sprintf("Now tracking questions for packet %s.", packet))
}

// runTally outlives the event that triggered it: whole-packet tallies fetch
// many messages, so only tallyTimeout bounds them.
func (s *PacketService) runTally(ctx context.Context, msg domain.Message, packet string) error {
	ctx = context.WithoutCancel(ctx)
	if s.tallyTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.tallyTimeout)
		defer cancel()
	}

	if strings.EqualFold(packet, "all") {
		_, err := s.tally.TallyAll(ctx, msg.ServerID, msg.ChannelID)
		return err
	}

	if packet == "" {
		current, err := s.packets.CurrentPacket(ctx, msg.ServerID)
		if err != nil {
			return fmt.Errorf("load current packet: %w", err)
		}
		if current == "" {
			_ = s.reply(ctx, msg, "Please name the packet to tally, e.g. `!tally 3`.")
			return domain.ErrPacketNotSet
		}
		packet = current
	}

	report, err := s.tally.Tally(ctx, msg.ServerID, packet, msg.ChannelID)
	if err != nil {
		return err
	}
	if report.Total == 0 {
		return s.reply(ctx, msg, fmt.Sprintf("No questions found for packet %s.", packet))
	}
	return nil
}

func (s *PacketService) reply(ctx context.Context, msg domain.Message, text string) error {
	out := domain.Notice(text)
	out.ReplyTo = msg.ID
	if _, err := s.chat.Send(ctx, msg.ChannelID, out); err != nil {
		return fmt.Errorf("reply: %w", err)
	}
	return nil
}
