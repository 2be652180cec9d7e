package app

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"

	"playtesting-bot/internal/domain"
	"playtesting-bot/internal/question"
)

// PlayButtonID is the custom id of the button that starts a reading.
const PlayButtonID = "play_question"

const summaryHeading = "## Results"

var (
	tossupValues      = []int{15, 10, 0, -5}
	tossupValueEmojis = []string{"tossup_15", "tossup_10", "tossup_DNC", "tossup_neg5"}
	bonusTierEmojis   = []string{"bonus_E", "bonus_M", "bonus_H"}
	bonusTiers        = []string{"e", "m", "h"}
	bonusTierLabels   = []string{"Easy", "Medium", "Hard"}
)

// SummaryTarget identifies the question whose digest is being republished.
type SummaryTarget struct {
	Kind            domain.QuestionKind
	Link            domain.SessionLink
	ResultChannelID string
	ThreadName      string
	// Parts and Answer are needed for tossup digests only.
	Parts  []string
	Answer string
}

// Summarizer keeps the single summary message of each results thread in sync
// with every recorded result. The digest is always recomputed from storage.
type Summarizer struct {
	chat      Chat
	questions QuestionRepository
	results   ResultRepository
	emojis    EmojiResolver
	publisher DigestPublisher
	locks     *keyedMutex
	log       logrus.FieldLogger
}

func NewSummarizer(chat Chat, questions QuestionRepository, results ResultRepository, emojis EmojiResolver, publisher DigestPublisher, log logrus.FieldLogger) *Summarizer {
	return &Summarizer{
		chat:      chat,
		questions: questions,
		results:   results,
		emojis:    emojis,
		publisher: publisher,
		locks:     newKeyedMutex(),
		log:       log,
	}
}

// Update recomputes the digest, then creates the results thread (first result)
// or edits its summary message in place. It returns the results thread.
func (s *Summarizer) Update(ctx context.Context, target SummaryTarget) (domain.Thread, error) {
	unlock := s.locks.Lock(target.Link.QuestionID)
	defer unlock()

	digest, err := s.Digest(ctx, target)
	if err != nil {
		return domain.Thread{}, err
	}

	existing, err := s.questions.ResultsThread(ctx, target.Kind, target.Link.QuestionID)
	if err != nil {
		return domain.Thread{}, fmt.Errorf("load results thread: %w", err)
	}

	var thread domain.Thread
	if existing.ThreadID == "" {
		thread, err = s.createThread(ctx, target, digest)
	} else {
		thread = domain.Thread{ID: existing.ThreadID}
		err = s.editSummary(ctx, target, existing, digest)
	}
	if err != nil {
		return domain.Thread{}, err
	}

	if s.publisher != nil {
		s.publisher.Publish(domain.Digest{QuestionID: target.Link.QuestionID, Kind: target.Kind, Text: digest})
	}
	return thread, nil
}

func (s *Summarizer) createThread(ctx context.Context, target SummaryTarget, digest string) (domain.Thread, error) {
	log := s.log.WithField("question", target.Link.QuestionID)

	thread, err := s.chat.CreateThread(ctx, target.ResultChannelID, target.ThreadName)
	if err != nil {
		return domain.Thread{}, fmt.Errorf("create results thread: %w", err)
	}
	record := domain.ResultsThread{ThreadID: thread.ID}
	if err := s.questions.SaveResultsThread(ctx, target.Kind, target.Link.QuestionID, record); err != nil {
		return domain.Thread{}, fmt.Errorf("save results thread: %w", err)
	}

	if err := s.chat.AddThreadMember(ctx, thread.ID, target.Link.AuthorID); err != nil {
		log.WithError(err).Warn("add author to results thread")
	}

	buttons := domain.OutboundMessage{Buttons: []domain.Button{
		{Label: "Play " + target.Kind.Label(), CustomID: PlayButtonID},
		{Label: "Results", URL: thread.URL},
	}}
	if err := s.chat.Edit(ctx, target.Link.ChannelID, target.Link.ButtonMessageID, buttons); err != nil {
		log.WithError(err).Warn("link results thread on play button")
	}

	summary, err := s.chat.Send(ctx, thread.ID, domain.OutboundMessage{Content: digest})
	if err != nil {
		return domain.Thread{}, fmt.Errorf("post summary: %w", err)
	}
	record.SummaryMessageID = summary.ID
	if err := s.questions.SaveResultsThread(ctx, target.Kind, target.Link.QuestionID, record); err != nil {
		return domain.Thread{}, fmt.Errorf("save summary message: %w", err)
	}
	return thread, nil
}

func (s *Summarizer) editSummary(ctx context.Context, target SummaryTarget, existing domain.ResultsThread, digest string) error {
	summaryID := existing.SummaryMessageID
	if summaryID == "" {
		id, err := s.findSummary(ctx, existing.ThreadID)
		if err != nil {
			return err
		}
		summaryID = id
	}

	if summaryID != "" {
		err := s.chat.Edit(ctx, existing.ThreadID, summaryID, domain.OutboundMessage{Content: digest})
		if err == nil {
			if summaryID != existing.SummaryMessageID {
				existing.SummaryMessageID = summaryID
				return s.questions.SaveResultsThread(ctx, target.Kind, target.Link.QuestionID, existing)
			}
			return nil
		}
		if !errors.Is(err, domain.ErrNotFound) {
			return fmt.Errorf("edit summary: %w", err)
		}
		s.log.WithField("question", target.Link.QuestionID).Warn("summary message missing, reposting")
	}

	msg, err := s.chat.Send(ctx, existing.ThreadID, domain.OutboundMessage{Content: digest})
	if err != nil {
		return fmt.Errorf("post summary: %w", err)
	}
	existing.SummaryMessageID = msg.ID
	return s.questions.SaveResultsThread(ctx, target.Kind, target.Link.QuestionID, existing)
}

func (s *Summarizer) findSummary(ctx context.Context, threadID string) (string, error) {
	messages, err := s.chat.ChannelMessages(ctx, threadID)
	if err != nil {
		return "", fmt.Errorf("scan results thread: %w", err)
	}
	for _, m := range messages {
		if strings.Contains(m.Content, summaryHeading) {
			return m.ID, nil
		}
	}
	return "", nil
}

// Digest renders the current summary text for a question from all stored results.
func (s *Summarizer) Digest(ctx context.Context, target SummaryTarget) (string, error) {
	qid := target.Link.QuestionID
	switch target.Kind {
	case domain.KindTossup:
		buzzes, err := s.results.TossupBuzzes(ctx, qid)
		if err != nil {
			return "", fmt.Errorf("load buzzes: %w", err)
		}
		emojis, err := s.emojis.Emojis(ctx, target.Link.ServerID, tossupValueEmojis...)
		if err != nil {
			return "", fmt.Errorf("resolve emojis: %w", err)
		}
		return tossupDigest(target.Parts, target.Answer, target.Link.QuestionURL, buzzes, emojis), nil
	case domain.KindBonus:
		outcomes, err := s.results.BonusOutcomes(ctx, qid)
		if err != nil {
			return "", fmt.Errorf("load bonus results: %w", err)
		}
		emojis, err := s.emojis.Emojis(ctx, target.Link.ServerID, bonusTierEmojis...)
		if err != nil {
			return "", fmt.Errorf("resolve emojis: %w", err)
		}
		return bonusDigest(target.Link.QuestionURL, outcomes, emojis), nil
	default:
		return "", fmt.Errorf("digest for %s", target.Kind)
	}
}

func tossupDigest(parts []string, answer, questionURL string, buzzes []domain.Buzz, emojis []string) string {
	var b strings.Builder
	b.WriteString(summaryHeading + "\n")
	fmt.Fprintf(&b, "### ANSWER: ||%s||\n", question.ShortenAnswer(answer))

	sorted := make([]domain.Buzz, len(buzzes))
	copy(sorted, buzzes)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].ClueIndex < sorted[j].ClueIndex })

	total := float64(charactersThrough(parts, len(parts)-1))
	var gets, negs, getChars int

	for i := 0; i < len(sorted); {
		index := sorted[i].ClueIndex
		counts := make(map[int]int)
		for ; i < len(sorted) && sorted[i].ClueIndex == index; i++ {
			counts[sorted[i].Value]++
		}

		clue := ""
		if index >= 0 && index < len(parts) {
			clue = question.Prefix(parts[index], 30)
		}
		line := fmt.Sprintf("%s | (||%s||) | ", formatPercent(float64(charactersThrough(parts, index)), total), clue)

		breakdown := make([]string, 0, len(tossupValues))
		for vi, v := range tossupValues {
			if n := counts[v]; n > 0 {
				breakdown = append(breakdown, fmt.Sprintf("%d × %s", n, emojiOr(emojis, vi, strconv.Itoa(v))))
			}
		}
		b.WriteString(line + strings.Join(breakdown, " | ") + "\n")
	}

	for _, bz := range sorted {
		switch {
		case bz.Value > 0:
			gets++
			getChars += bz.CharactersRevealed
		case bz.Value < 0:
			negs++
		}
	}

	plays := float64(len(sorted))
	avg := ""
	if gets > 0 {
		avg = fmt.Sprintf("%s%% (%s)",
			formatDecimal(100*float64(getChars), float64(gets)*total, 0),
			formatDecimal(float64(getChars), float64(gets), 0))
	}
	fmt.Fprintf(&b, "\n**Plays:** %d\t**Conversion Rate**: %s\t**Neg Rate**: %s\t**Avg. Buzz**: %s\n",
		len(sorted), formatPercent(float64(gets), plays), formatPercent(float64(negs), plays), avg)
	fmt.Fprintf(&b, "### [Return to Question](%s)", questionURL)
	return b.String()
}

func bonusDigest(questionURL string, outcomes []domain.BonusOutcome, emojis []string) string {
	plays, points := 0, 0
	attempts := make(map[string]int)
	gets := make(map[string]int)
	for _, o := range outcomes {
		if o.Part == 1 {
			plays++
		}
		points += o.Value
		tier := strings.ToLower(o.Difficulty)
		attempts[tier]++
		if o.Value > 0 {
			gets[tier]++
		}
	}

	var b strings.Builder
	b.WriteString(summaryHeading + "\n")
	fmt.Fprintf(&b, "**Plays**: %d\t**PPB**: %s", plays, formatDecimal(float64(points), float64(plays), 2))
	for i, tier := range bonusTiers {
		fmt.Fprintf(&b, "\t**%s** %s", emojiOr(emojis, i, bonusTierLabels[i]), formatPercent(float64(gets[tier]), float64(attempts[tier])))
	}
	fmt.Fprintf(&b, "\n### [Return to Question](%s)", questionURL)
	return b.String()
}

func emojiOr(emojis []string, i int, fallback string) string {
	if i < len(emojis) && emojis[i] != "" {
		return emojis[i]
	}
	return fallback
}
