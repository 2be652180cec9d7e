// Package question extracts structured tossups and bonuses from posted question text.
//
// Questions are plain chat messages: a body whose reveal segments are wrapped in
// spoiler markers (||...||), one or three "ANSWER:" lines, and an optional trailing
// metadata tag such as "<LIT, British Literature>" optionally followed by a
// per-part difficulty override like "[mhe]".
package question

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"playtesting-bot/internal/domain"
)

const answerLabel = "ANSWER:"

// PowerMarker denotes the end of a tossup's power region.
const PowerMarker = "(*)"

var (
	segmentRe    = regexp.MustCompile(`\|\|([^|]+)\|\|`)
	metadataRe   = regexp.MustCompile(`<([^<>]*)>\s*(?:\[([emh])([emh])([emh])\])?\s*$`)
	difficultyRe = regexp.MustCompile(`\[10\]?\[?([emh])\]`)
	partStartRe  = regexp.MustCompile(`^\s*\|{0,2}\s*\[`)
)

var defaultDifficulties = []string{"e", "m", "h"}

// Tossup is a parsed tossup.
type Tossup struct {
	Number   string
	Body     string
	Parts    []string
	Answer   string
	Metadata string
	Category string
	Power    bool
}

// TotalCharacters is the length of the question as revealed segment by segment.
func (t Tossup) TotalCharacters() int {
	total := 0
	for _, p := range t.Parts {
		total += utf8.RuneCountInString(p)
	}
	return total
}

// Bonus is a parsed three-part bonus.
type Bonus struct {
	Number       string
	Leadin       string
	Parts        []string
	Answers      []string
	Difficulties []string
	Metadata     string
	Category     string
}

// Question is the parse result; exactly one of Tossup or Bonus is set.
type Question struct {
	Kind   domain.QuestionKind
	Tossup *Tossup
	Bonus  *Bonus
}

// IsQuestion reports whether text carries an answer line at all.
func IsQuestion(text string) bool {
	return strings.Contains(text, answerLabel)
}

// Parse extracts a tossup (one answer line) or a bonus (three answer lines).
// A tossup without spoiler-delimited segments is returned with empty Parts;
// callers decide how to report it.
func Parse(text string) (Question, error) {
	switch strings.Count(text, answerLabel) {
	case 1:
		t := parseTossup(text)
		return Question{Kind: domain.KindTossup, Tossup: &t}, nil
	case 3:
		b := parseBonus(text)
		return Question{Kind: domain.KindBonus, Bonus: &b}, nil
	default:
		return Question{}, domain.ErrNotAQuestion
	}
}

func parseTossup(text string) Tossup {
	i := strings.Index(text, answerLabel)
	body := strings.TrimSpace(text[:i])
	answer, metadata, _ := splitAnswer(text[i+len(answerLabel):])

	parts := make([]string, 0)
	for _, m := range segmentRe.FindAllStringSubmatch(body, -1) {
		parts = append(parts, m[1])
	}

	return Tossup{
		Number:   Number(body),
		Body:     body,
		Parts:    parts,
		Answer:   answer,
		Metadata: metadata,
		Category: CategoryName(metadata),
		Power:    strings.Contains(text, PowerMarker),
	}
}

func parseBonus(text string) Bonus {
	segments := strings.Split(text, answerLabel)

	leadin, part1 := splitLeadin(segments[0])
	answer1, part2 := splitFirstLine(segments[1])
	answer2, part3 := splitFirstLine(segments[2])
	answer3, metadata, overrides := splitAnswer(segments[3])

	parts := []string{part1, part2, part3}
	difficulties := make([]string, len(parts))
	for i, part := range parts {
		switch {
		case overrides != nil:
			difficulties[i] = overrides[i]
		default:
			if m := difficultyRe.FindStringSubmatch(RemoveSpoilers(part)); m != nil {
				difficulties[i] = m[1]
			} else {
				difficulties[i] = defaultDifficulties[i]
			}
		}
	}

	return Bonus{
		Number:       Number(leadin),
		Leadin:       leadin,
		Parts:        parts,
		Answers:      []string{answer1, answer2, answer3},
		Difficulties: difficulties,
		Metadata:     metadata,
		Category:     CategoryName(metadata),
	}
}

// splitAnswer separates the final answer line from trailing metadata and the
// optional difficulty override.
func splitAnswer(rest string) (answer, metadata string, difficulties []string) {
	end := len(rest)
	if loc := metadataRe.FindStringSubmatchIndex(rest); loc != nil {
		end = loc[0]
		metadata = strings.TrimSpace(rest[loc[2]:loc[3]])
		if loc[4] >= 0 {
			difficulties = []string{rest[loc[4]:loc[5]], rest[loc[6]:loc[7]], rest[loc[8]:loc[9]]}
		}
	}
	answer, _ = splitFirstLine(rest[:end])
	return answer, metadata, difficulties
}

func splitFirstLine(s string) (first, rest string) {
	s = strings.TrimLeft(s, " \t")
	if i := strings.Index(s, "\n"); i >= 0 {
		return strings.TrimSpace(s[:i]), strings.TrimSpace(s[i+1:])
	}
	return strings.TrimSpace(s), ""
}

// splitLeadin finds where the first part starts: the first line opening with a
// value marker, or the last line when no marker is present.
func splitLeadin(s string) (leadin, part string) {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	start := len(lines) - 1
	for i, line := range lines {
		if partStartRe.MatchString(line) {
			start = i
			break
		}
	}
	return strings.TrimSpace(strings.Join(lines[:start], "\n")), strings.TrimSpace(strings.Join(lines[start:], "\n"))
}
