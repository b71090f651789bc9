package auth

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

var (
	_ SessionStore = (*MemorySessionStore)(nil)
	_ SessionStore = (*RedisSessionStore)(nil)
)

// MemorySessionStore keeps sessions in process memory, for development and tests.
type MemorySessionStore struct {
	mu       sync.RWMutex
	sessions map[string]int64
}

func NewMemorySessionStore() *MemorySessionStore {
	return &MemorySessionStore{sessions: map[string]int64{}}
}

func (s *MemorySessionStore) Save(_ context.Context, token string, customerID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[token] = customerID
	return nil
}

func (s *MemorySessionStore) Lookup(_ context.Context, token string) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	customerID, ok := s.sessions[token]
	if !ok {
		return 0, ErrInvalidToken
	}
	return customerID, nil
}

func (s *MemorySessionStore) Delete(_ context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, token)
	return nil
}

// RedisSessionStore keeps sessions in Redis with a sliding TTL.
type RedisSessionStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisSessionStore(client *redis.Client, ttl time.Duration) *RedisSessionStore {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &RedisSessionStore{client: client, ttl: ttl}
}

func (s *RedisSessionStore) Save(ctx context.Context, token string, customerID int64) error {
	if s == nil || s.client == nil {
		return errors.New("redis session store not configured")
	}
	return s.client.Set(ctx, sessionKey(token), customerID, s.ttl).Err()
}

func (s *RedisSessionStore) Lookup(ctx context.Context, token string) (int64, error) {
	if s == nil || s.client == nil {
		return 0, errors.New("redis session store not configured")
	}
	value, err := s.client.GetEx(ctx, sessionKey(token), s.ttl).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, ErrInvalidToken
		}
		return 0, err
	}
	customerID, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return 0, ErrInvalidToken
	}
	return customerID, nil
}

func (s *RedisSessionStore) Delete(ctx context.Context, token string) error {
	if s == nil || s.client == nil {
		return errors.New("redis session store not configured")
	}
	return s.client.Del(ctx, sessionKey(token)).Err()
}

func sessionKey(token string) string { return "session:" + token }
