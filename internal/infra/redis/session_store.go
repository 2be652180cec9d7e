package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"playtesting-bot/internal/domain"
)

// SessionStore keeps each participant's reading as a JSON value so readings
// survive restarts and can be shared between instances.
// Key layout: playtest:session:{participantID}
type SessionStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewSessionStore builds a store. A zero ttl keeps readings until they end.
func NewSessionStore(client *redis.Client, ttl time.Duration) *SessionStore {
	return &SessionStore{client: client, ttl: ttl}
}

func (s *SessionStore) Get(ctx context.Context, participantID string) (domain.Session, bool, error) {
	raw, err := s.client.Get(ctx, s.key(participantID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return domain.Session{}, false, nil
	}
	if err != nil {
		return domain.Session{}, false, err
	}
	var session domain.Session
	if err := json.Unmarshal(raw, &session); err != nil {
		return domain.Session{}, false, fmt.Errorf("decode session: %w", err)
	}
	return session, true, nil
}

func (s *SessionStore) Set(ctx context.Context, participantID string, session domain.Session) error {
	raw, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	return s.client.Set(ctx, s.key(participantID), raw, s.ttl).Err()
}

func (s *SessionStore) Delete(ctx context.Context, participantID string) error {
	return s.client.Del(ctx, s.key(participantID)).Err()
}

func (s *SessionStore) key(participantID string) string {
	return "playtest:session:" + participantID
}
