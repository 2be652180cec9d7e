package app

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseCommand(t *testing.T) {
	cases := []struct {
		in   string
		want Command
	}{
		{"n", Command{Verb: VerbNext}},
		{"  Next please", Command{Verb: VerbNext}},
		{"B", Command{Verb: VerbBuzz}},
		{"y (||Moby Dick||)", Command{Verb: VerbYes, Note: "Moby Dick"}},
		{"n (thinking foo or bar)", Command{Verb: VerbNext, Note: "thinking foo or bar"}},
		{"x", Command{Verb: VerbAbort}},
		{"", Command{Verb: VerbUnknown}},
		{"hello", Command{Verb: VerbUnknown}},
		{"pass", Command{Verb: VerbPass}},
		{"direct", Command{Verb: VerbDirect}},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, ParseCommand(c.in), c.in)
	}
}
