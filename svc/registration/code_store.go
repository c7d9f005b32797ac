package registration

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

type codeKey struct {
	sessionID string
	channel   Channel
}

// MemoryCodeStore keeps verification codes in process memory. The
// in-memory counterpart to RedisCodeStore for development and tests.
type MemoryCodeStore struct {
	mu    sync.RWMutex
	codes map[codeKey]*Code
}

// NewMemoryCodeStore returns an empty in-memory code store.
func NewMemoryCodeStore() *MemoryCodeStore {
	return &MemoryCodeStore{codes: make(map[codeKey]*Code)}
}

func (s *MemoryCodeStore) Save(_ context.Context, code *Code) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *code
	s.codes[codeKey{code.SessionID, code.Channel}] = &cp
	return nil
}

func (s *MemoryCodeStore) Get(_ context.Context, sessionID string, channel Channel) (*Code, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	code, ok := s.codes[codeKey{sessionID, channel}]
	if !ok {
		return nil, ErrCodeNotFound
	}
	cp := *code
	return &cp, nil
}

func (s *MemoryCodeStore) Update(_ context.Context, code *Code) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := codeKey{code.SessionID, code.Channel}
	if _, ok := s.codes[key]; !ok {
		return ErrCodeNotFound
	}
	cp := *code
	s.codes[key] = &cp
	return nil
}

func (s *MemoryCodeStore) DeleteBySession(_ context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for key := range s.codes {
		if key.sessionID == sessionID {
			delete(s.codes, key)
		}
	}
	return nil
}

// DeleteExpired removes codes past their deadline. Redis relies on key
// TTLs instead, so only the memory store needs a sweep.
func (s *MemoryCodeStore) DeleteExpired(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	for key, code := range s.codes {
		if code.IsExpired(now) {
			delete(s.codes, key)
		}
	}
	return nil
}

const codeKeyPrefix = "regcode:"

// RedisCodeStore persists verification codes in Redis with TTLs matching
// the code deadline.
type RedisCodeStore struct {
	client redis.UniversalClient
}

// NewRedisCodeStore returns a store backed by the given client.
func NewRedisCodeStore(client redis.UniversalClient) *RedisCodeStore {
	return &RedisCodeStore{client: client}
}

func redisCodeKey(sessionID string, channel Channel) string {
	return fmt.Sprintf("%s%s:%s", codeKeyPrefix, sessionID, channel)
}

func (s *RedisCodeStore) Save(ctx context.Context, code *Code) error {
	data, err := json.Marshal(code)
	if err != nil {
		return errors.Join(errors.New("failed to marshal code"), err)
	}
	ttl := time.Until(code.ExpiresAt)
	if ttl <= 0 {
		return ErrCodeExpired
	}
	return s.client.Set(ctx, redisCodeKey(code.SessionID, code.Channel), data, ttl).Err()
}

func (s *RedisCodeStore) Get(ctx context.Context, sessionID string, channel Channel) (*Code, error) {
	data, err := s.client.Get(ctx, redisCodeKey(sessionID, channel)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrCodeNotFound
	}
	if err != nil {
		return nil, err
	}
	var code Code
	if err := json.Unmarshal(data, &code); err != nil {
		return nil, errors.Join(errors.New("failed to unmarshal code"), err)
	}
	return &code, nil
}

func (s *RedisCodeStore) Update(ctx context.Context, code *Code) error {
	data, err := json.Marshal(code)
	if err != nil {
		return errors.Join(errors.New("failed to marshal code"), err)
	}
	key := redisCodeKey(code.SessionID, code.Channel)
	// KEEPTTL preserves the original deadline across attempt updates.
	return s.client.Set(ctx, key, data, redis.KeepTTL).Err()
}

func (s *RedisCodeStore) DeleteBySession(ctx context.Context, sessionID string) error {
	keys := []string{
		redisCodeKey(sessionID, ChannelEmail),
		redisCodeKey(sessionID, ChannelPhone),
	}
	return s.client.Del(ctx, keys...).Err()
}
