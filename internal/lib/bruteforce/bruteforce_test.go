package bruteforce

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStore struct {
	counts map[string]int64
	ttls   map[string]time.Duration
	err    error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		counts: make(map[string]int64),
		ttls:   make(map[string]time.Duration),
	}
}

func (f *fakeStore) Count(_ context.Context, key string) (int64, error) {
	if f.err != nil {
		return 0, f.err
	}
	return f.counts[key], nil
}

func (f *fakeStore) Incr(_ context.Context, key string, window time.Duration) (int64, error) {
	if f.err != nil {
		return 0, f.err
	}
	f.counts[key]++
	f.ttls[key] = window
	return f.counts[key], nil
}

func (f *fakeStore) TTL(_ context.Context, key string) (time.Duration, error) {
	if f.err != nil {
		return 0, f.err
	}
	return f.ttls[key], nil
}

func (f *fakeStore) SetWithTTL(_ context.Context, key string, value int64, ttl time.Duration) error {
	if f.err != nil {
		return f.err
	}
	f.counts[key] = value
	f.ttls[key] = ttl
	return nil
}

func (f *fakeStore) Delete(_ context.Context, key string) error {
	if f.err != nil {
		return f.err
	}
	delete(f.counts, key)
	delete(f.ttls, key)
	return nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestGuard_AllowsBelowThreshold(t *testing.T) {
	store := newFakeStore()
	guard := New(discardLogger(), store, 5, 5*time.Minute, 15*time.Minute)

	ctx := context.Background()

	for i := 0; i < 4; i++ {
		require.NoError(t, guard.CheckAllowed(ctx, "1.2.3.4:a@b.com"))
		locked := guard.RecordFailure(ctx, "1.2.3.4:a@b.com")
		assert.False(t, locked, "attempt %d must not lock", i+1)
	}
}

func TestGuard_LocksAtThreshold(t *testing.T) {
	store := newFakeStore()
	guard := New(discardLogger(), store, 5, 5*time.Minute, 15*time.Minute)

	ctx := context.Background()

	var locked bool
	for i := 0; i < 5; i++ {
		locked = guard.RecordFailure(ctx, "1.2.3.4:a@b.com")
	}
	require.True(t, locked)

	// lockout duration replaces the attempt window
	assert.Equal(t, 15*time.Minute, store.ttls["brute_force:1.2.3.4:a@b.com"])

	err := guard.CheckAllowed(ctx, "1.2.3.4:a@b.com")
	var lockedErr *LockedError
	require.ErrorAs(t, err, &lockedErr)
	assert.Equal(t, 15*time.Minute, lockedErr.RetryAfter)
}

func TestGuard_SuccessClearsHistory(t *testing.T) {
	store := newFakeStore()
	guard := New(discardLogger(), store, 5, 5*time.Minute, 15*time.Minute)

	ctx := context.Background()

	for i := 0; i < 3; i++ {
		guard.RecordFailure(ctx, "1.2.3.4:a@b.com")
	}

	guard.RecordSuccess(ctx, "1.2.3.4:a@b.com")

	assert.Empty(t, store.counts)
	require.NoError(t, guard.CheckAllowed(ctx, "1.2.3.4:a@b.com"))
}

func TestGuard_IdentifiersAreIndependent(t *testing.T) {
	store := newFakeStore()
	guard := New(discardLogger(), store, 5, 5*time.Minute, 15*time.Minute)

	ctx := context.Background()

	for i := 0; i < 5; i++ {
		guard.RecordFailure(ctx, "1.2.3.4:a@b.com")
	}

	require.Error(t, guard.CheckAllowed(ctx, "1.2.3.4:a@b.com"))
	require.NoError(t, guard.CheckAllowed(ctx, "5.6.7.8:a@b.com"))
	require.NoError(t, guard.CheckAllowed(ctx, "1.2.3.4:other@b.com"))
}

func TestGuard_FailsOpenOnStoreErrors(t *testing.T) {
	store := newFakeStore()
	store.err = errors.New("connection refused")
	guard := New(discardLogger(), store, 5, 5*time.Minute, 15*time.Minute)

	ctx := context.Background()

	require.NoError(t, guard.CheckAllowed(ctx, "1.2.3.4:a@b.com"))
	assert.False(t, guard.RecordFailure(ctx, "1.2.3.4:a@b.com"))
	guard.RecordSuccess(ctx, "1.2.3.4:a@b.com")
}

func TestGuard_ExpiredLockoutAllows(t *testing.T) {
	store := newFakeStore()
	guard := New(discardLogger(), store, 5, 5*time.Minute, 15*time.Minute)

	ctx := context.Background()

	store.counts["brute_force:1.2.3.4:a@b.com"] = 5
	store.ttls["brute_force:1.2.3.4:a@b.com"] = 0

	require.NoError(t, guard.CheckAllowed(ctx, "1.2.3.4:a@b.com"))
}
