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
	msgInProgress = "You tried to start playtesting a question but have a different question reading in progress. " +
		"Please complete that reading or type `x` to end it, then try again."
	msgStartFailed     = "Sorry, the reading could not be started. Please try the button again in a moment."
	msgSaveFailed      = "Sorry, your result could not be saved. Please send your judgement again."
	msgResultSent      = "Thanks, your result has been sent to <#%s>."
	msgResultNoThread  = "Thanks, your result has been recorded, but the results thread could not be updated."
	threadNameLimit    = 100
	threadCluePrefix   = 30
	authorNameFallback = "Someone"
)

// StartRequest describes a click on a question's play button.
type StartRequest struct {
	ParticipantID   string
	ButtonMessageID string
	Question        domain.Message
}

// PlaytestService drives private tossup and bonus readings.
type PlaytestService struct {
	sessions  SessionRepository
	recorder  *Recorder
	summaries *Summarizer
	questions *RegistrationService
	chat      Chat
	channels  *ChannelDirectory
	emojis    EmojiResolver
	locks     *keyedMutex
	log       logrus.FieldLogger
}

func NewPlaytestService(
	sessions SessionRepository,
	recorder *Recorder,
	summaries *Summarizer,
	questions *RegistrationService,
	chat Chat,
	channels *ChannelDirectory,
	emojis EmojiResolver,
	log logrus.FieldLogger,
) *PlaytestService {
	return &PlaytestService{
		sessions:  sessions,
		recorder:  recorder,
		summaries: summaries,
		questions: questions,
		chat:      chat,
		channels:  channels,
		emojis:    emojis,
		locks:     newKeyedMutex(),
		log:       log,
	}
}

// Start opens a reading of the referenced question for the participant.
// A participant with a reading in progress is told so and ErrSessionInProgress is returned.
func (s *PlaytestService) Start(ctx context.Context, req StartRequest) error {
	unlock := s.locks.Lock(req.ParticipantID)
	defer unlock()

	if _, ok, err := s.sessions.Get(ctx, req.ParticipantID); err != nil {
		return fmt.Errorf("load session: %w", err)
	} else if ok {
		s.dm(ctx, req.ParticipantID, domain.OutboundMessage{Content: msgInProgress, Embed: true})
		return domain.ErrSessionInProgress
	}

	parsed, err := question.Parse(req.Question.Content)
	if err != nil {
		return err
	}

	link := domain.SessionLink{
		ServerID:        req.Question.ServerID,
		ChannelID:       req.Question.ChannelID,
		ButtonMessageID: req.ButtonMessageID,
		QuestionID:      req.Question.ID,
		QuestionURL:     req.Question.URL,
		AuthorID:        req.Question.AuthorID,
		AuthorName:      firstName(req.Question.AuthorName),
	}
	session := domain.Session{Kind: parsed.Kind, ParticipantID: req.ParticipantID, Link: link}
	var intro []domain.OutboundMessage

	switch parsed.Kind {
	case domain.KindTossup:
		t := parsed.Tossup
		if len(t.Parts) == 0 {
			s.dm(ctx, req.ParticipantID, domain.OutboundMessage{Content: msgTossupMalformed, Embed: true})
			return domain.ErrMalformedQuestion
		}
		session.Tossup = &domain.TossupProgress{Parts: t.Parts, Answer: t.Answer}
		intro = []domain.OutboundMessage{
			{Content: msgTossupIntro, Embed: true},
			{Content: t.Parts[0]},
		}
		if len(t.Parts) == 1 {
			intro = append(intro, domain.Notice(msgEndOfQuestion))
		}
	case domain.KindBonus:
		b := parsed.Bonus
		session.Bonus = &domain.BonusProgress{
			Leadin:       b.Leadin,
			Parts:        b.Parts,
			Answers:      b.Answers,
			Difficulties: b.Difficulties,
		}
		intro = []domain.OutboundMessage{
			{Content: msgBonusIntro, Embed: true},
			{Content: question.RemoveSpoilers(b.Leadin) + "\n" + question.RemoveSpoilers(question.RemoveBonusValue(b.Parts[0]))},
		}
	}

	if err := s.questions.Register(ctx, req.Question, parsed); err != nil {
		s.dm(ctx, req.ParticipantID, domain.Notice(msgStartFailed))
		return err
	}
	if err := s.sessions.Set(ctx, req.ParticipantID, session); err != nil {
		s.dm(ctx, req.ParticipantID, domain.Notice(msgStartFailed))
		return fmt.Errorf("save session: %w", err)
	}
	s.log.WithFields(logrus.Fields{"participant": req.ParticipantID, "question": link.QuestionID, "kind": parsed.Kind}).Info("reading started")

	for _, m := range intro {
		s.dm(ctx, req.ParticipantID, m)
	}
	return nil
}

// HandleMessage routes a participant's direct message to their reading.
// ErrNoSession is returned when the participant has none.
func (s *PlaytestService) HandleMessage(ctx context.Context, participantID, content string) error {
	unlock := s.locks.Lock(participantID)
	defer unlock()

	session, ok, err := s.sessions.Get(ctx, participantID)
	if err != nil {
		return fmt.Errorf("load session: %w", err)
	}
	if !ok {
		return domain.ErrNoSession
	}

	cmd := ParseCommand(content)
	switch session.Kind {
	case domain.KindTossup:
		return s.handleTossup(ctx, session, cmd)
	case domain.KindBonus:
		return s.handleBonus(ctx, session, cmd)
	default:
		return fmt.Errorf("session of unknown kind %s", session.Kind)
	}
}

func (s *PlaytestService) handleTossup(ctx context.Context, session domain.Session, cmd Command) error {
	step := stepTossup(*session.Tossup, cmd)

	switch step.kind {
	case stepUpdate:
		next := session
		progress := step.next
		next.Tossup = &progress
		if err := s.sessions.Set(ctx, session.ParticipantID, next); err != nil {
			return fmt.Errorf("save session: %w", err)
		}
	case stepAbort:
		if err := s.sessions.Delete(ctx, session.ParticipantID); err != nil {
			return fmt.Errorf("delete session: %w", err)
		}
	case stepFinish:
		return s.finishTossup(ctx, session, step.outcome)
	}

	for _, m := range step.replies {
		s.dm(ctx, session.ParticipantID, m)
	}
	return nil
}

func (s *PlaytestService) finishTossup(ctx context.Context, session domain.Session, out tossupOutcome) error {
	link := session.Link
	t := session.Tossup

	err := s.recorder.RecordBuzz(ctx, domain.BuzzResult{
		ServerID:           link.ServerID,
		QuestionID:         link.QuestionID,
		AuthorID:           link.AuthorID,
		UserID:             session.ParticipantID,
		ClueIndex:          out.ClueIndex,
		CharactersRevealed: out.CharactersRevealed,
		Value:              out.Value,
		Note:               out.Note,
	})
	if err != nil {
		s.dm(ctx, session.ParticipantID, domain.Notice(msgSaveFailed))
		return err
	}

	answer := question.ShortenAnswer(t.Answer)
	var line string
	if out.Ended {
		line = fmt.Sprintf("<@%s> did not buzz on ||%s||", session.ParticipantID, answer)
	} else {
		verdict := "buzzed incorrectly"
		if out.Value > 0 {
			verdict = "buzzed correctly"
		}
		line = fmt.Sprintf("<@%s> %s on ||%s|| at \"||%s||\"", session.ParticipantID, verdict, answer, t.Parts[out.ClueIndex])
		if out.Note != "" {
			line += fmt.Sprintf("; answer given was \"||%s||.\"", out.Note)
		}
	}

	name := fmt.Sprintf("Buzzes for %s's tossup beginning \"%s...\"", link.AuthorName, question.Prefix(t.Parts[0], threadCluePrefix))
	target := SummaryTarget{
		Kind:       domain.KindTossup,
		Link:       link,
		ThreadName: question.Prefix(name, threadNameLimit),
		Parts:      t.Parts,
		Answer:     t.Answer,
	}
	return s.publishAndClose(ctx, session, target, line)
}

func (s *PlaytestService) handleBonus(ctx context.Context, session domain.Session, cmd Command) error {
	step := stepBonus(*session.Bonus, cmd)

	switch step.kind {
	case stepStay:
		return nil
	case stepUpdate:
		next := session
		progress := step.next
		next.Bonus = &progress
		if err := s.sessions.Set(ctx, session.ParticipantID, next); err != nil {
			return fmt.Errorf("save session: %w", err)
		}
	case stepAbort:
		if err := s.sessions.Delete(ctx, session.ParticipantID); err != nil {
			return fmt.Errorf("delete session: %w", err)
		}
	}

	for _, m := range step.replies {
		s.dm(ctx, session.ParticipantID, m)
	}

	if step.kind == stepFinish {
		return s.finishBonus(ctx, session, step.next)
	}
	return nil
}

func (s *PlaytestService) finishBonus(ctx context.Context, session domain.Session, b domain.BonusProgress) error {
	link := session.Link

	rows := make([]domain.BonusPartResult, len(b.Results))
	for i, r := range b.Results {
		rows[i] = domain.BonusPartResult{
			ServerID:   link.ServerID,
			QuestionID: link.QuestionID,
			AuthorID:   link.AuthorID,
			UserID:     session.ParticipantID,
			Part:       i + 1,
			Value:      r.Points,
			Note:       r.Note,
		}
	}
	if err := s.recorder.RecordBonus(ctx, rows); err != nil {
		s.dm(ctx, session.ParticipantID, domain.Notice(msgSaveFailed))
		return err
	}

	line := s.bonusResultLine(ctx, session.ParticipantID, link.ServerID, b)

	fallback := question.ToFirstIndicator(question.RemoveNumber(question.RemoveSpoilers(b.Leadin)))
	name := fmt.Sprintf("B | %s | \"%s\"", link.AuthorName, fallback)
	target := SummaryTarget{
		Kind:       domain.KindBonus,
		Link:       link,
		ThreadName: question.Prefix(name, threadNameLimit),
	}
	return s.publishAndClose(ctx, session, target, line)
}

// bonusResultLine renders the participant's bonus line. The rows are already
// recorded, so an emoji lookup failure falls back to text tags.
func (s *PlaytestService) bonusResultLine(ctx context.Context, participantID, serverID string, b domain.BonusProgress) string {
	names := make([]string, len(b.Results))
	fallbacks := make([]string, len(b.Results))
	parts := make([]string, len(b.Results))
	total := 0

	for i, r := range b.Results {
		tier := ""
		if i < len(b.Difficulties) {
			tier = strings.ToUpper(b.Difficulties[i])
		}
		answer := question.ShortenAnswer(b.Answers[i])

		var part string
		switch {
		case r.Points > 0:
			names[i] = "bonus_" + tier
			total += r.Points
			part = "got ||" + answer + "||"
		case !r.Passed:
			names[i] = "missed_" + tier
			part = "missed ||" + answer + "||"
		default:
			names[i] = "missed_" + tier
			part = "passed ||" + answer + "||"
		}
		fallbacks[i] = fmt.Sprintf("%s%d", tier, r.Points)
		if r.Note != "" {
			part += fmt.Sprintf(" (answer: \"||%s||\")", r.Note)
		}
		parts[i] = part
	}

	emojis, err := s.emojis.Emojis(ctx, serverID, names...)
	if err != nil {
		s.log.WithError(err).WithField("participant", participantID).Warn("resolve bonus emojis")
		emojis = nil
	}
	rendered := make([]string, len(names))
	for i := range names {
		rendered[i] = emojiOr(emojis, i, fallbacks[i])
	}

	return fmt.Sprintf("%s %d <@%s> %s", strings.Join(rendered, " "), total, participantID, strings.Join(parts, ", "))
}

// publishAndClose updates the results thread, posts the participant's result
// line, destroys the session and tells the participant where to look. The
// result is already recorded, so thread failures are logged, not returned.
func (s *PlaytestService) publishAndClose(ctx context.Context, session domain.Session, target SummaryTarget, line string) error {
	log := s.log.WithFields(logrus.Fields{"participant": session.ParticipantID, "question": target.Link.QuestionID})

	thread, err := s.publish(ctx, target, line)
	if err != nil {
		log.WithError(err).Error("update results thread")
	}

	if err := s.sessions.Delete(ctx, session.ParticipantID); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	log.Info("reading recorded")

	if thread.ID == "" {
		s.dm(ctx, session.ParticipantID, domain.Notice(msgResultNoThread))
		return nil
	}
	s.dm(ctx, session.ParticipantID, domain.Notice(fmt.Sprintf(msgResultSent, thread.ID)))
	return nil
}

func (s *PlaytestService) publish(ctx context.Context, target SummaryTarget, line string) (domain.Thread, error) {
	resultChannel, ok := s.channels.ResultChannel(target.Link.ServerID, target.Link.ChannelID)
	if !ok {
		return domain.Thread{}, domain.ErrChannelNotConfigured
	}
	target.ResultChannelID = resultChannel

	thread, err := s.summaries.Update(ctx, target)
	if err != nil {
		return domain.Thread{}, err
	}
	if _, err := s.chat.Send(ctx, thread.ID, domain.OutboundMessage{Content: line}); err != nil {
		return domain.Thread{}, fmt.Errorf("post result: %w", err)
	}
	return thread, nil
}

func (s *PlaytestService) dm(ctx context.Context, userID string, msg domain.OutboundMessage) {
	if err := s.chat.SendDirect(ctx, userID, msg); err != nil {
		s.log.WithError(err).WithField("participant", userID).Warn("send direct message")
	}
}

func firstName(displayName string) string {
	fields := strings.Fields(displayName)
	if len(fields) == 0 {
		return authorNameFallback
	}
	return fields[0]
}

// IsNotice reports whether err was already explained to the user and needs no further handling.
func IsNotice(err error) bool {
	return errors.Is(err, domain.ErrSessionInProgress) ||
		errors.Is(err, domain.ErrMalformedQuestion) ||
		errors.Is(err, domain.ErrNotAQuestion) ||
		errors.Is(err, domain.ErrNoSession)
}
