package app

import (
	"unicode/utf8"

	"playtesting-bot/internal/domain"
	"playtesting-bot/internal/question"
)

const (
	msgTossupIntro = "Here's your tossup! Please type `n`/`next` to see the next clue or `b`/`buzz` to buzz. " +
		"If you'd like to share your guess at this point in the question, you can put it in parenthesis at the end of your message, e.g. `n (thinking foo or bar)`. " +
		"Type `x` to exit reading without sharing results."
	msgTossupMalformed = "Oops, looks like the question wasn't properly spoiler tagged. Let the author know so they can fix!"
	msgTossupEnded     = "Ended tossup reading."
	msgEndOfQuestion   = "You've reached the end of the question. Please buzz by typing `b`/`buzz` or end by typing `e`/`end`"
	msgNoMoreClues     = "There are no more clues. Please buzz by typing `b`/`buzz` or end by typing `e`/`end`"
	msgRevealPrompt    = "Reveal answer? Type `y`/`yes` to see answer or `w`/`withdraw` to withdraw and continue playing"
	msgJudgePrompt     = "Were you correct? Type `y`/`yes` or `n`/`no`. If you'd like to indicate your answer, " +
		"you can put it in parenthesis at the end of your message, e.g. `y (foo)`"
	msgNotRecognized = "Command not recognized"
)

const (
	valueCorrect  = 10
	valueNoBuzz   = 0
	valueNegative = -5
)

type stepKind int

const (
	// stepStay leaves the stored session untouched.
	stepStay stepKind = iota
	stepUpdate
	stepAbort
	stepFinish
)

// tossupOutcome is what a terminal tossup transition records.
type tossupOutcome struct {
	ClueIndex          int
	CharactersRevealed int
	Value              int
	Ended              bool
	Note               string
}

type tossupStep struct {
	kind    stepKind
	next    domain.TossupProgress
	replies []domain.OutboundMessage
	outcome tossupOutcome
}

// stepTossup is the tossup transition table. It never mutates p.
func stepTossup(p domain.TossupProgress, cmd Command) tossupStep {
	if cmd.Verb == VerbAbort {
		return tossupStep{kind: stepAbort, next: p, replies: notices(msgTossupEnded)}
	}

	last := len(p.Parts) - 1
	next := p

	switch {
	case p.Grade:
		if correct, ok := cmd.judgement(); ok {
			return finishTossup(p, correct, false, cmd.Note)
		}

	case p.Buzzed:
		switch cmd.Verb {
		case VerbWithdraw:
			next.Buzzed = false
			return tossupStep{kind: stepUpdate, next: next}
		case VerbYes:
			next.Buzzed = false
			next.Grade = true
			return tossupStep{
				kind: stepUpdate,
				next: next,
				replies: []domain.OutboundMessage{
					domain.Plain("ANSWER: " + question.RemoveSpoilers(p.Answer)),
					domain.Notice(msgJudgePrompt),
				},
			}
		}

	default:
		switch cmd.Verb {
		case VerbNext:
			if p.Index >= last {
				return tossupStep{kind: stepStay, next: p, replies: notices(msgNoMoreClues)}
			}
			next.Index++
			replies := []domain.OutboundMessage{domain.Plain(p.Parts[next.Index])}
			if next.Index == last {
				replies = append(replies, domain.Notice(msgEndOfQuestion))
			}
			return tossupStep{kind: stepUpdate, next: next, replies: replies}
		case VerbBuzz:
			next.Buzzed = true
			return tossupStep{kind: stepUpdate, next: next, replies: notices(msgRevealPrompt)}
		case VerbEnd:
			return finishTossup(p, false, true, cmd.Note)
		}
	}

	return tossupStep{kind: stepStay, next: p, replies: notices(msgNotRecognized)}
}

func finishTossup(p domain.TossupProgress, correct, ended bool, note string) tossupStep {
	last := len(p.Parts) - 1
	buzzIndex := p.Index
	if buzzIndex > last {
		buzzIndex = last
	}

	value := valueNegative
	switch {
	case correct:
		value = valueCorrect
	case buzzIndex >= last:
		value = valueNoBuzz
	}

	return tossupStep{
		kind: stepFinish,
		next: p,
		outcome: tossupOutcome{
			ClueIndex:          buzzIndex,
			CharactersRevealed: charactersThrough(p.Parts, buzzIndex),
			Value:              value,
			Ended:              ended,
			Note:               note,
		},
	}
}

// charactersThrough sums segment lengths from 0 through index inclusive.
func charactersThrough(parts []string, index int) int {
	total := 0
	for i := 0; i <= index && i < len(parts); i++ {
		total += utf8.RuneCountInString(parts[i])
	}
	return total
}

func notices(texts ...string) []domain.OutboundMessage {
	out := make([]domain.OutboundMessage, 0, len(texts))
	for _, t := range texts {
		out = append(out, domain.Notice(t))
	}
	return out
}
