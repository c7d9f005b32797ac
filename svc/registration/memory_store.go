package registration

import (
	"context"
	"sync"
	"time"

	"github.com/dmitrymomot/enrollkit/pkg/stepflow"
)

// MemorySessionStore keeps sessions in process memory behind a mutex.
// Suited for development and tests; state is lost on restart, which the
// client experiences as a 404 and restarts the flow.
type MemorySessionStore struct {
	mu       sync.RWMutex
	sessions map[string]*Session

	cleanupOnce sync.Once
	stopCleanup chan struct{}
}

// NewMemorySessionStore returns an empty in-memory store.
func NewMemorySessionStore() *MemorySessionStore {
	return &MemorySessionStore{
		sessions:    make(map[string]*Session),
		stopCleanup: make(chan struct{}),
	}
}

// StartCleanup launches a background sweep removing expired sessions at
// the given interval. It stops when ctx is done or Close is called.
func (s *MemorySessionStore) StartCleanup(ctx context.Context, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-s.stopCleanup:
				return
			case <-ticker.C:
				s.deleteExpired(time.Now())
			}
		}
	}()
}

// Close stops the cleanup goroutine.
func (s *MemorySessionStore) Close() {
	s.cleanupOnce.Do(func() { close(s.stopCleanup) })
}

func (s *MemorySessionStore) deleteExpired(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, sess := range s.sessions {
		if sess.IsExpired(now) {
			delete(s.sessions, id)
		}
	}
}

func (s *MemorySessionStore) Create(_ context.Context, session *Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[session.ID] = session.Clone()
	return nil
}

func (s *MemorySessionStore) Get(_ context.Context, id string) (*Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	if sess.IsExpired(time.Now()) {
		return nil, ErrSessionExpired
	}
	return sess.Clone(), nil
}

func (s *MemorySessionStore) ApplyStep(_ context.Context, id string, expectedVersion int64, expectedStep stepflow.Step, patch map[string]string, next stepflow.Step) (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	if sess.IsExpired(time.Now()) {
		return nil, ErrSessionExpired
	}
	if sess.Version != expectedVersion {
		return nil, ErrVersionConflict
	}
	if sess.CurrentStep != expectedStep {
		return nil, ErrStepMismatch
	}

	updated := sess.Clone()
	updated.Data = mergeData(updated.Data, patch)
	updated.CurrentStep = next
	updated.Version++
	s.sessions[id] = updated
	return updated.Clone(), nil
}

func (s *MemorySessionStore) MarkVerified(_ context.Context, id string, channel Channel) (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	if sess.IsExpired(time.Now()) {
		return nil, ErrSessionExpired
	}

	updated := sess.Clone()
	if updated.Verified == nil {
		updated.Verified = make(map[Channel]bool, 2)
	}
	updated.Verified[channel] = true
	s.sessions[id] = updated
	return updated.Clone(), nil
}

func (s *MemorySessionStore) Complete(_ context.Context, id string, expectedVersion int64, terminal stepflow.Step, result *FinalizeResult) (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	if sess.IsExpired(time.Now()) {
		return nil, ErrSessionExpired
	}
	if sess.Version != expectedVersion {
		return nil, ErrVersionConflict
	}

	updated := sess.Clone()
	updated.CurrentStep = terminal
	updated.Version++
	updated.Result = result
	s.sessions[id] = updated
	return updated.Clone(), nil
}

func (s *MemorySessionStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
	return nil
}
