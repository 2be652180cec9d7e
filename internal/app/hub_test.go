package app

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"playtesting-bot/internal/domain"
)

func TestDigestHubDeliversToQuestionAndAll(t *testing.T) {
	hub := NewDigestHub()
	one, cancelOne := hub.Subscribe("q1")
	defer cancelOne()
	all, cancelAll := hub.Subscribe("")
	defer cancelAll()

	hub.Publish(domain.Digest{QuestionID: "q1", Text: "a"})
	hub.Publish(domain.Digest{QuestionID: "q2", Text: "b"})

	assert.Equal(t, "a", (<-one).Text)
	assert.Equal(t, "a", (<-all).Text)
	assert.Equal(t, "b", (<-all).Text)
	assert.Empty(t, one)
}

func TestDigestHubPrimesWithLatest(t *testing.T) {
	hub := NewDigestHub()
	hub.Publish(domain.Digest{QuestionID: "q1", Text: "first"})

	ch, cancel := hub.Subscribe("q1")
	defer cancel()
	assert.Equal(t, "first", (<-ch).Text)

	d, ok := hub.Latest("q1")
	require.True(t, ok)
	assert.Equal(t, "first", d.Text)
	_, ok = hub.Latest("q2")
	assert.False(t, ok)
}

func TestDigestHubDropsOldestWhenFull(t *testing.T) {
	hub := NewDigestHub()
	ch, cancel := hub.Subscribe("q1")
	defer cancel()

	for i := 0; i < 20; i++ {
		hub.Publish(domain.Digest{QuestionID: "q1", Text: fmt.Sprint(i)})
	}

	var last string
	for len(ch) > 0 {
		last = (<-ch).Text
	}
	assert.Equal(t, "19", last)
}

func TestDigestHubCancelClosesChannel(t *testing.T) {
	hub := NewDigestHub()
	ch, cancel := hub.Subscribe("q1")
	cancel()
	cancel()

	_, open := <-ch
	assert.False(t, open)
	hub.Publish(domain.Digest{QuestionID: "q1"})
}
