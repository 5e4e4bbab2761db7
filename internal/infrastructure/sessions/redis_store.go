// Package sessions provides the SessionSink implementations: the single
// authoritative place an authenticated (user, token) pair is recorded.
// The auth core hands a session off exactly once and never mutates it
// afterwards.
package sessions

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/rkarugu/mediconnectpatient-sub001/domain"
)

// sessionRecord is the stored shape shared by all store backends.
type sessionRecord struct {
	User    *domain.User `json:"user"`
	Token   string       `json:"token"`
	SavedAt time.Time    `json:"saved_at"`
}

// RedisStore implements domain.SessionSink on Redis, for devices that
// sync their session through the shared cache.
type RedisStore struct {
	client *redis.Client
	key    string
	ttl    time.Duration
}

// NewRedisStore creates a session store writing under key with the
// given TTL. A zero TTL keeps the session until Clear.
func NewRedisStore(client *redis.Client, key string, ttl time.Duration) *RedisStore {
	if key == "" {
		key = "session:current"
	}
	return &RedisStore{client: client, key: key, ttl: ttl}
}

// SetAuth implements domain.SessionSink.
func (s *RedisStore) SetAuth(ctx context.Context, user *domain.User, token string) error {
	record := sessionRecord{User: user, Token: token, SavedAt: time.Now()}
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}
	return s.client.Set(ctx, s.key, data, s.ttl).Err()
}

// Current implements domain.SessionSink.
func (s *RedisStore) Current(ctx context.Context) (*domain.User, string, error) {
	data, err := s.client.Get(ctx, s.key).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, "", domain.ErrSessionMissing
		}
		return nil, "", err
	}

	var record sessionRecord
	if err := json.Unmarshal([]byte(data), &record); err != nil {
		return nil, "", fmt.Errorf("failed to unmarshal session: %w", err)
	}
	return record.User, record.Token, nil
}

// Clear implements domain.SessionSink.
func (s *RedisStore) Clear(ctx context.Context) error {
	return s.client.Del(ctx, s.key).Err()
}

var _ domain.SessionSink = (*RedisStore)(nil)
