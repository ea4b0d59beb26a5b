package redisclient

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// SessionStore keeps encoded booking form sessions under form:{id} with a TTL
// refreshed on every write.
type SessionStore struct {
	client *redis.Client
}

func NewSessionStore(client *redis.Client) *SessionStore {
	return &SessionStore{client: client}
}

func sessionKey(id uuid.UUID) string {
	return "form:" + id.String()
}

func (s *SessionStore) Get(ctx context.Context, id uuid.UUID) ([]byte, error) {
	data, err := s.client.Get(ctx, sessionKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get form session: %w", err)
	}
	return data, nil
}

func (s *SessionStore) Set(ctx context.Context, id uuid.UUID, data []byte, ttl time.Duration) error {
	if err := s.client.Set(ctx, sessionKey(id), data, ttl).Err(); err != nil {
		return fmt.Errorf("set form session: %w", err)
	}
	return nil
}

func (s *SessionStore) Del(ctx context.Context, id uuid.UUID) error {
	if err := s.client.Del(ctx, sessionKey(id)).Err(); err != nil {
		return fmt.Errorf("delete form session: %w", err)
	}
	return nil
}
