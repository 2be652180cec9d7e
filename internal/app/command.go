package app

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Verb is the normalised form of a participant's reply, keyed on its first letter.
// Some letters mean different things depending on state ("n" is next while
// reading and "no" while grading); the state machines resolve that.
type Verb int

const (
	VerbUnknown Verb = iota
	VerbAbort
	VerbNext
	VerbBuzz
	VerbWithdraw
	VerbYes
	VerbEnd
	VerbDirect
	VerbPass
)

var verbByLetter = map[rune]Verb{
	'x': VerbAbort,
	'n': VerbNext,
	'b': VerbBuzz,
	'w': VerbWithdraw,
	'y': VerbYes,
	'e': VerbEnd,
	'd': VerbDirect,
	'p': VerbPass,
}

var noteRe = regexp.MustCompile(`\((.+)\)`)

// Command is a parsed participant reply.
type Command struct {
	Verb Verb
	// Note is the optional parenthesised annotation, spoiler markers removed.
	Note string
}

// ParseCommand normalises free text into a Command.
func ParseCommand(text string) Command {
	text = strings.TrimSpace(text)
	cmd := Command{Verb: VerbUnknown}
	if r, _ := utf8.DecodeRuneInString(text); r != utf8.RuneError {
		if v, ok := verbByLetter[unicode.ToLower(r)]; ok {
			cmd.Verb = v
		}
	}
	if m := noteRe.FindStringSubmatch(text); m != nil {
		cmd.Note = strings.ReplaceAll(m[1], "||", "")
	}
	return cmd
}

// judgement interprets the command as a correctness judgement.
func (c Command) judgement() (correct bool, ok bool) {
	switch c.Verb {
	case VerbYes:
		return true, true
	case VerbNext:
		return false, true
	default:
		return false, false
	}
}
