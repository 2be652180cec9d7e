package app

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"playtesting-bot/internal/domain"
)

func newBonusProgress() domain.BonusProgress {
	return domain.BonusProgress{
		Leadin:       "7. This author wrote many novels.",
		Parts:        []string{"[10e] ||Name this author.||", "[10m] ||Name her real name.||", "[10h] ||Name this novel.||"},
		Answers:      []string{"||George Eliot||", "||Mary Ann Evans||", "||Daniel Deronda||"},
		Difficulties: []string{"e", "m", "h"},
	}
}

func TestStepBonusDirectThenJudge(t *testing.T) {
	p := newBonusProgress()

	direct := stepBonus(p, Command{Verb: VerbDirect})
	require.Equal(t, stepUpdate, direct.kind)
	assert.True(t, direct.next.Grade)
	assert.Equal(t, []string{"ANSWER: George Eliot", msgJudgePrompt}, replyTexts(direct.replies))

	judged := stepBonus(direct.next, Command{Verb: VerbYes, Note: "Eliot"})
	require.Equal(t, stepUpdate, judged.kind)
	assert.Equal(t, 1, judged.next.Index)
	assert.False(t, judged.next.Grade)
	assert.Equal(t, []domain.PartResult{{Points: 10, Note: "Eliot"}}, judged.next.Results)
	assert.Equal(t, []string{"Name her real name."}, replyTexts(judged.replies))
	assert.Empty(t, direct.next.Results, "input progress must not change")
}

func TestStepBonusPassRecordsZero(t *testing.T) {
	p := newBonusProgress()

	passed := stepBonus(p, Command{Verb: VerbPass})
	require.Equal(t, stepUpdate, passed.kind)
	assert.Equal(t, []domain.PartResult{{Points: 0, Passed: true}}, passed.next.Results)
	assert.Equal(t, []string{"ANSWER: George Eliot", "Name her real name."}, replyTexts(passed.replies))
}

func TestStepBonusFinishesAfterThirdPart(t *testing.T) {
	p := newBonusProgress()
	p.Index = 2
	p.Grade = true
	p.Results = []domain.PartResult{{Points: 0}, {Points: 10}}

	step := stepBonus(p, Command{Verb: VerbNext})
	require.Equal(t, stepFinish, step.kind)
	assert.Equal(t, []domain.PartResult{{Points: 0}, {Points: 10}, {Points: 0}}, step.next.Results)
	assert.Empty(t, step.replies)
}

func TestStepBonusIgnoresUnknownInput(t *testing.T) {
	p := newBonusProgress()

	for _, cmd := range []Command{{Verb: VerbUnknown}, {Verb: VerbYes}, {Verb: VerbBuzz}} {
		step := stepBonus(p, cmd)
		assert.Equal(t, stepStay, step.kind)
		assert.Empty(t, step.replies)
	}

	p.Grade = true
	step := stepBonus(p, Command{Verb: VerbPass})
	assert.Equal(t, stepStay, step.kind)

	abort := stepBonus(p, Command{Verb: VerbAbort})
	assert.Equal(t, stepAbort, abort.kind)
	assert.Equal(t, []string{msgBonusEnded}, replyTexts(abort.replies))
}
