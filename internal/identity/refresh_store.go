package identity

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

const refreshKeyPrefix = "auth:refresh:"

// ErrRefreshTokenUnknown indicates the refresh token is absent, expired
// or already rotated away.
var ErrRefreshTokenUnknown = errors.New("refresh token unknown")

// RefreshStore tracks issued refresh tokens and the account they belong to.
type RefreshStore interface {
	Put(ctx context.Context, token, accountID string, ttl time.Duration) error
	Lookup(ctx context.Context, token string) (string, error)
	Delete(ctx context.Context, token string) error
}

type redisRefreshStore struct {
	client *redis.Client
}

// NewRedisRefreshStore returns a Redis-backed refresh token store.
func NewRedisRefreshStore(client *redis.Client) RefreshStore {
	return &redisRefreshStore{client: client}
}

func (s *redisRefreshStore) Put(ctx context.Context, token, accountID string, ttl time.Duration) error {
	return s.client.Set(ctx, refreshKeyPrefix+token, accountID, ttl).Err()
}

func (s *redisRefreshStore) Lookup(ctx context.Context, token string) (string, error) {
	accountID, err := s.client.Get(ctx, refreshKeyPrefix+token).Result()
	if err == redis.Nil {
		return "", ErrRefreshTokenUnknown
	}
	if err != nil {
		return "", err
	}
	return accountID, nil
}

func (s *redisRefreshStore) Delete(ctx context.Context, token string) error {
	return s.client.Del(ctx, refreshKeyPrefix+token).Err()
}

// memoryRefreshStore is an in-process store for tests and for running
// without Redis.
type memoryRefreshStore struct {
	mu     sync.Mutex
	tokens map[string]memoryRefreshEntry
}

type memoryRefreshEntry struct {
	accountID string
	expiresAt time.Time
}

// NewMemoryRefreshStore returns an in-memory refresh token store.
func NewMemoryRefreshStore() RefreshStore {
	return &memoryRefreshStore{tokens: make(map[string]memoryRefreshEntry)}
}

func (s *memoryRefreshStore) Put(_ context.Context, token, accountID string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens[token] = memoryRefreshEntry{accountID: accountID, expiresAt: time.Now().Add(ttl)}
	return nil
}

func (s *memoryRefreshStore) Lookup(_ context.Context, token string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.tokens[token]
	if !ok || time.Now().After(entry.expiresAt) {
		delete(s.tokens, token)
		return "", ErrRefreshTokenUnknown
	}
	return entry.accountID, nil
}

func (s *memoryRefreshStore) Delete(_ context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.tokens, token)
	return nil
}
