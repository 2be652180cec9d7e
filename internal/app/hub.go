package app

import (
	"sync"

	"playtesting-bot/internal/domain"
)

// DigestHub fans republished digests out to live subscribers. Subscribing to
// the empty question id receives every digest.
type DigestHub struct {
	mu          sync.Mutex
	latest      map[string]domain.Digest
	subscribers map[string]map[chan domain.Digest]struct{}
}

func NewDigestHub() *DigestHub {
	return &DigestHub{
		latest:      make(map[string]domain.Digest),
		subscribers: make(map[string]map[chan domain.Digest]struct{}),
	}
}

// Subscribe returns a channel of digests for questionID, primed with the most
// recent one if any. The caller must invoke cancel to release it.
func (h *DigestHub) Subscribe(questionID string) (<-chan domain.Digest, func()) {
	ch := make(chan domain.Digest, 8)

	h.mu.Lock()
	subs, ok := h.subscribers[questionID]
	if !ok {
		subs = make(map[chan domain.Digest]struct{})
		h.subscribers[questionID] = subs
	}
	subs[ch] = struct{}{}
	if d, ok := h.latest[questionID]; ok && questionID != "" {
		ch <- d
	}
	h.mu.Unlock()

	cancel := func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		subs := h.subscribers[questionID]
		if _, ok := subs[ch]; !ok {
			return
		}
		delete(subs, ch)
		close(ch)
		if len(subs) == 0 {
			delete(h.subscribers, questionID)
		}
	}
	return ch, cancel
}

// Publish implements DigestPublisher. It never blocks on slow subscribers.
func (h *DigestHub) Publish(d domain.Digest) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.latest[d.QuestionID] = d
	for _, key := range []string{d.QuestionID, ""} {
		for ch := range h.subscribers[key] {
			deliver(ch, d)
		}
	}
}

// Latest returns the last published digest for a question.
func (h *DigestHub) Latest(questionID string) (domain.Digest, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	d, ok := h.latest[questionID]
	return d, ok
}

func deliver(ch chan domain.Digest, d domain.Digest) {
	select {
	case ch <- d:
	default:
		// drop the oldest pending digest
		select {
		case <-ch:
		default:
		}
		ch <- d
	}
}
