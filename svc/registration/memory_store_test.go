package registration_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/enrollkit/svc/registration"
)

func newTestSession(t *testing.T) *registration.Session {
	t.Helper()
	now := time.Now()
	return &registration.Session{
		ID:          uuid.NewString(),
		Flow:        registration.StudentFlow.Name(),
		CurrentStep: registration.StepInitiated,
		Version:     0,
		Data:        map[string]string{"name": "Alice"},
		CreatedAt:   now,
		ExpiresAt:   now.Add(30 * time.Minute),
	}
}

func TestMemorySessionStore_CreateGet(t *testing.T) {
	t.Parallel()

	store := registration.NewMemorySessionStore()
	t.Cleanup(store.Close)
	ctx := context.Background()

	sess := newTestSession(t)
	require.NoError(t, store.Create(ctx, sess))

	got, err := store.Get(ctx, sess.ID)
	require.NoError(t, err)
	assert.Equal(t, sess.ID, got.ID)
	assert.Equal(t, registration.StepInitiated, got.CurrentStep)

	// Returned copy must not alias store state.
	got.Data["name"] = "Mallory"
	again, err := store.Get(ctx, sess.ID)
	require.NoError(t, err)
	assert.Equal(t, "Alice", again.Data["name"])

	_, err = store.Get(ctx, "missing")
	assert.ErrorIs(t, err, registration.ErrSessionNotFound)
}

func TestMemorySessionStore_GetExpired(t *testing.T) {
	t.Parallel()

	store := registration.NewMemorySessionStore()
	t.Cleanup(store.Close)
	ctx := context.Background()

	sess := newTestSession(t)
	sess.ExpiresAt = time.Now().Add(-time.Second)
	require.NoError(t, store.Create(ctx, sess))

	_, err := store.Get(ctx, sess.ID)
	assert.ErrorIs(t, err, registration.ErrSessionExpired)
}

func TestMemorySessionStore_ApplyStep(t *testing.T) {
	t.Parallel()

	store := registration.NewMemorySessionStore()
	t.Cleanup(store.Close)
	ctx := context.Background()

	sess := newTestSession(t)
	require.NoError(t, store.Create(ctx, sess))

	updated, err := store.ApplyStep(ctx, sess.ID, 0, registration.StepInitiated,
		map[string]string{"college_name": "X College"}, registration.StepCollegeSelected)
	require.NoError(t, err)
	assert.Equal(t, int64(1), updated.Version)
	assert.Equal(t, registration.StepCollegeSelected, updated.CurrentStep)
	assert.Equal(t, "X College", updated.Data["college_name"])
	assert.Equal(t, "Alice", updated.Data["name"])

	// Stale version.
	_, err = store.ApplyStep(ctx, sess.ID, 0, registration.StepInitiated, nil, registration.StepCollegeSelected)
	assert.ErrorIs(t, err, registration.ErrVersionConflict)

	// Right version, wrong step.
	_, err = store.ApplyStep(ctx, sess.ID, 1, registration.StepInitiated, nil, registration.StepVerificationPending)
	assert.ErrorIs(t, err, registration.ErrStepMismatch)
}

func TestMemorySessionStore_ApplyStepFirstWriteWins(t *testing.T) {
	t.Parallel()

	store := registration.NewMemorySessionStore()
	t.Cleanup(store.Close)
	ctx := context.Background()

	sess := newTestSession(t)
	require.NoError(t, store.Create(ctx, sess))

	// A later patch must not overwrite a key an earlier step recorded.
	updated, err := store.ApplyStep(ctx, sess.ID, 0, registration.StepInitiated,
		map[string]string{"name": "Mallory", "college_name": "X College"}, registration.StepCollegeSelected)
	require.NoError(t, err)
	assert.Equal(t, "Alice", updated.Data["name"])
	assert.Equal(t, "X College", updated.Data["college_name"])
}

func TestMemorySessionStore_ApplyStepExactlyOneWinner(t *testing.T) {
	t.Parallel()

	store := registration.NewMemorySessionStore()
	t.Cleanup(store.Close)
	ctx := context.Background()

	sess := newTestSession(t)
	require.NoError(t, store.Create(ctx, sess))

	const workers = 16
	var wg sync.WaitGroup
	results := make([]error, workers)
	for i := range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, results[i] = store.ApplyStep(ctx, sess.ID, 0, registration.StepInitiated, nil, registration.StepCollegeSelected)
		}()
	}
	wg.Wait()

	wins := 0
	for _, err := range results {
		if err == nil {
			wins++
		} else {
			assert.ErrorIs(t, err, registration.ErrVersionConflict)
		}
	}
	assert.Equal(t, 1, wins)

	got, err := store.Get(ctx, sess.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), got.Version)
}

func TestMemorySessionStore_MarkVerified(t *testing.T) {
	t.Parallel()

	store := registration.NewMemorySessionStore()
	t.Cleanup(store.Close)
	ctx := context.Background()

	sess := newTestSession(t)
	require.NoError(t, store.Create(ctx, sess))

	updated, err := store.MarkVerified(ctx, sess.ID, registration.ChannelEmail)
	require.NoError(t, err)
	assert.True(t, updated.ChannelVerified(registration.ChannelEmail))
	assert.False(t, updated.ChannelVerified(registration.ChannelPhone))

	// Version untouched: the client's token stays valid.
	assert.Equal(t, int64(0), updated.Version)
}

func TestMemorySessionStore_Complete(t *testing.T) {
	t.Parallel()

	store := registration.NewMemorySessionStore()
	t.Cleanup(store.Close)
	ctx := context.Background()

	sess := newTestSession(t)
	require.NoError(t, store.Create(ctx, sess))

	result := &registration.FinalizeResult{AccessToken: "jwt"}
	updated, err := store.Complete(ctx, sess.ID, 0, registration.StepCompleted, result)
	require.NoError(t, err)
	assert.Equal(t, registration.StepCompleted, updated.CurrentStep)
	assert.Equal(t, int64(1), updated.Version)
	require.NotNil(t, updated.Result)
	assert.Equal(t, "jwt", updated.Result.AccessToken)

	_, err = store.Complete(ctx, sess.ID, 0, registration.StepCompleted, result)
	assert.ErrorIs(t, err, registration.ErrVersionConflict)
}

func TestMemorySessionStore_Cleanup(t *testing.T) {
	t.Parallel()

	store := registration.NewMemorySessionStore()
	t.Cleanup(store.Close)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sess := newTestSession(t)
	sess.ExpiresAt = time.Now().Add(20 * time.Millisecond)
	require.NoError(t, store.Create(ctx, sess))

	store.StartCleanup(ctx, 10*time.Millisecond)
	assert.Eventually(t, func() bool {
		_, err := store.Get(ctx, sess.ID)
		return err != nil
	}, time.Second, 10*time.Millisecond)
}
