package registration

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/dmitrymomot/enrollkit/pkg/stepflow"
)

const sessionKeyPrefix = "regsession:"

// RedisSessionStore persists sessions in Redis. Optimistic concurrency is
// implemented with WATCH: a concurrent write between read and commit aborts
// the transaction and surfaces as ErrVersionConflict. Keys carry a TTL
// matching the session deadline, so expired sessions age out on their own.
type RedisSessionStore struct {
	client redis.UniversalClient
}

// NewRedisSessionStore returns a store backed by the given client.
func NewRedisSessionStore(client redis.UniversalClient) *RedisSessionStore {
	return &RedisSessionStore{client: client}
}

func sessionKey(id string) string { return sessionKeyPrefix + id }

func (s *RedisSessionStore) Create(ctx context.Context, session *Session) error {
	data, err := json.Marshal(session)
	if err != nil {
		return errors.Join(errors.New("failed to marshal session"), err)
	}
	ttl := time.Until(session.ExpiresAt)
	if ttl <= 0 {
		return ErrSessionExpired
	}
	return s.client.Set(ctx, sessionKey(session.ID), data, ttl).Err()
}

func (s *RedisSessionStore) Get(ctx context.Context, id string) (*Session, error) {
	return s.load(ctx, s.client, id)
}

func (s *RedisSessionStore) load(ctx context.Context, c redis.Cmdable, id string) (*Session, error) {
	data, err := c.Get(ctx, sessionKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, err
	}
	var sess Session
	if err := json.Unmarshal(data, &sess); err != nil {
		return nil, errors.Join(errors.New("failed to unmarshal session"), err)
	}
	if sess.IsExpired(time.Now()) {
		return nil, ErrSessionExpired
	}
	return &sess, nil
}

// mutate runs fn against the current session inside a WATCH transaction and
// writes the result back with the remaining TTL.
func (s *RedisSessionStore) mutate(ctx context.Context, id string, fn func(*Session) error) (*Session, error) {
	var updated *Session
	err := s.client.Watch(ctx, func(tx *redis.Tx) error {
		sess, err := s.load(ctx, tx, id)
		if err != nil {
			return err
		}
		if err := fn(sess); err != nil {
			return err
		}
		data, err := json.Marshal(sess)
		if err != nil {
			return errors.Join(errors.New("failed to marshal session"), err)
		}
		ttl := time.Until(sess.ExpiresAt)
		if ttl <= 0 {
			return ErrSessionExpired
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, sessionKey(id), data, ttl)
			return nil
		})
		if err != nil {
			return err
		}
		updated = sess
		return nil
	}, sessionKey(id))
	if errors.Is(err, redis.TxFailedErr) {
		return nil, ErrVersionConflict
	}
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *RedisSessionStore) ApplyStep(ctx context.Context, id string, expectedVersion int64, expectedStep stepflow.Step, patch map[string]string, next stepflow.Step) (*Session, error) {
	return s.mutate(ctx, id, func(sess *Session) error {
		if sess.Version != expectedVersion {
			return ErrVersionConflict
		}
		if sess.CurrentStep != expectedStep {
			return ErrStepMismatch
		}
		sess.Data = mergeData(sess.Data, patch)
		sess.CurrentStep = next
		sess.Version++
		return nil
	})
}

func (s *RedisSessionStore) MarkVerified(ctx context.Context, id string, channel Channel) (*Session, error) {
	return s.mutate(ctx, id, func(sess *Session) error {
		if sess.Verified == nil {
			sess.Verified = make(map[Channel]bool, 2)
		}
		sess.Verified[channel] = true
		return nil
	})
}

func (s *RedisSessionStore) Complete(ctx context.Context, id string, expectedVersion int64, terminal stepflow.Step, result *FinalizeResult) (*Session, error) {
	return s.mutate(ctx, id, func(sess *Session) error {
		if sess.Version != expectedVersion {
			return ErrVersionConflict
		}
		sess.CurrentStep = terminal
		sess.Version++
		sess.Result = result
		return nil
	})
}

func (s *RedisSessionStore) Delete(ctx context.Context, id string) error {
	return s.client.Del(ctx, sessionKey(id)).Err()
}
