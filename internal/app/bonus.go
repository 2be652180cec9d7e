package app

import (
	"playtesting-bot/internal/domain"
	"playtesting-bot/internal/question"
)

const (
	msgBonusIntro = "Here's your bonus! Type `d`/`direct` to check your the answer to the current part, or `p`/`pass` if you don't have a guess. " +
		"Type `x` to exit reading without sharing results."
	msgBonusEnded = "Ended bonus reading."
)

type bonusStep struct {
	kind    stepKind
	next    domain.BonusProgress
	replies []domain.OutboundMessage
}

// stepBonus is the bonus transition table. It never mutates p. Input that
// matches no transition is ignored without a reply.
func stepBonus(p domain.BonusProgress, cmd Command) bonusStep {
	if cmd.Verb == VerbAbort {
		return bonusStep{kind: stepAbort, next: p, replies: notices(msgBonusEnded)}
	}

	next := p
	var replies []domain.OutboundMessage

	if !p.Grade && (cmd.Verb == VerbDirect || cmd.Verb == VerbPass) {
		replies = append(replies, domain.Plain("ANSWER: "+question.RemoveSpoilers(p.Answers[p.Index])))
	}

	if !p.Grade && cmd.Verb == VerbDirect {
		next.Grade = true
		replies = append(replies, domain.Notice(msgJudgePrompt))
		return bonusStep{kind: stepUpdate, next: next, replies: replies}
	}

	correct, judged := cmd.judgement()
	passed := !p.Grade && cmd.Verb == VerbPass
	if !(p.Grade && judged) && !passed {
		return bonusStep{kind: stepStay, next: p}
	}

	points := 0
	if correct && !passed {
		points = valueCorrect
	}
	results := make([]domain.PartResult, len(p.Results), len(p.Results)+1)
	copy(results, p.Results)
	next.Results = append(results, domain.PartResult{Points: points, Passed: passed, Note: cmd.Note})
	next.Index = p.Index + 1
	next.Grade = false

	if next.Index < len(p.Parts) {
		replies = append(replies, domain.Plain(question.RemoveBonusValue(question.RemoveSpoilers(p.Parts[next.Index]))))
		return bonusStep{kind: stepUpdate, next: next, replies: replies}
	}
	return bonusStep{kind: stepFinish, next: next, replies: replies}
}
