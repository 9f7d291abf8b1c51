package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "github.com/uni-iro/mou-registry-api/pkg/errors"
)

type fakeLockStore struct {
	values map[string]string
	failNX bool
}

func newFakeLockStore() *fakeLockStore {
	return &fakeLockStore{values: map[string]string{}}
}

func (f *fakeLockStore) SetNX(ctx context.Context, key, value string, ttl time.Duration) (bool, error) {
	if f.failNX {
		return false, errors.New("redis unavailable")
	}
	if _, exists := f.values[key]; exists {
		return false, nil
	}
	f.values[key] = value
	return true, nil
}

func (f *fakeLockStore) GetString(ctx context.Context, key string) (string, error) {
	value, exists := f.values[key]
	if !exists {
		return "", appErrors.ErrCacheMiss
	}
	return value, nil
}

func (f *fakeLockStore) Delete(ctx context.Context, key string) error {
	delete(f.values, key)
	return nil
}

type fakeScanner struct {
	created int
	err     error
	calls   int
}

func (f *fakeScanner) ScanExpiring(ctx context.Context, now time.Time) (int, error) {
	f.calls++
	return f.created, f.err
}

type fakeRecorder struct {
	total int
}

func (f *fakeRecorder) RecordExpiryReminders(count int) {
	f.total += count
}

type fakeCleaner struct {
	removed []string
	calls   int
}

func (f *fakeCleaner) Cleanup(ttl time.Duration) ([]string, error) {
	f.calls++
	return f.removed, nil
}

func TestRedisLockSingleOwner(t *testing.T) {
	store := newFakeLockStore()
	first, err := NewRedisLock(store, "scan:lock", time.Minute)
	require.NoError(t, err)
	second, err := NewRedisLock(store, "scan:lock", time.Minute)
	require.NoError(t, err)

	ok, err := first.Acquire(context.Background())
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = second.Acquire(context.Background())
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, first.Release(context.Background()))

	ok, err = second.Acquire(context.Background())
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestRedisLockReleaseIgnoresForeignOwner(t *testing.T) {
	store := newFakeLockStore()
	lock, err := NewRedisLock(store, "scan:lock", time.Minute)
	require.NoError(t, err)

	ok, err := lock.Acquire(context.Background())
	require.NoError(t, err)
	require.True(t, ok)

	// Simulates TTL expiry followed by another replica taking the lock.
	store.values["scan:lock"] = "someone-else"
	require.NoError(t, lock.Release(context.Background()))
	assert.Equal(t, "someone-else", store.values["scan:lock"])
}

func TestSchedulerRunOnce(t *testing.T) {
	scanner := &fakeScanner{created: 3}
	recorder := &fakeRecorder{}
	cleaner := &fakeCleaner{removed: []string{"old.csv"}}
	lock, err := NewRedisLock(newFakeLockStore(), "scan:lock", time.Minute)
	require.NoError(t, err)

	s := New(scanner, cleaner, recorder, lock, Config{Interval: time.Hour}, nil)
	s.RunOnce(context.Background())

	assert.Equal(t, 1, scanner.calls)
	assert.Equal(t, 3, recorder.total)
	assert.Equal(t, 1, cleaner.calls)
}

func TestSchedulerSkipsWhenLockHeld(t *testing.T) {
	store := newFakeLockStore()
	store.values["scan:lock"] = "other-replica"
	scanner := &fakeScanner{}
	lock, err := NewRedisLock(store, "scan:lock", time.Minute)
	require.NoError(t, err)

	s := New(scanner, nil, nil, lock, Config{Interval: time.Hour}, nil)
	s.RunOnce(context.Background())

	assert.Zero(t, scanner.calls)
}

func TestSchedulerScanErrorSkipsCleanup(t *testing.T) {
	scanner := &fakeScanner{err: errors.New("db down")}
	cleaner := &fakeCleaner{}

	s := New(scanner, cleaner, nil, nil, Config{Interval: time.Hour}, nil)
	s.RunOnce(context.Background())

	assert.Equal(t, 1, scanner.calls)
	assert.Zero(t, cleaner.calls)
}
