package service

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	appErrors "github.com/uni-iro/mou-registry-api/pkg/errors"
)

type mockAnalyticsRepo struct {
	total     int
	completed int
	active    int
	pending   int
	expiring  int
	calls     int
}

func (m *mockAnalyticsRepo) CountAll(ctx context.Context) (int, error) {
	m.calls++
	return m.total, nil
}

func (m *mockAnalyticsRepo) CountCompleted(ctx context.Context) (int, error) {
	return m.completed, nil
}

func (m *mockAnalyticsRepo) CountActive(ctx context.Context, now time.Time) (int, error) {
	return m.active, nil
}

func (m *mockAnalyticsRepo) CountPending(ctx context.Context) (int, error) {
	return m.pending, nil
}

func (m *mockAnalyticsRepo) CountExpiringBetween(ctx context.Context, after, before time.Time) (int, error) {
	return m.expiring, nil
}

type mapCacheRepo struct {
	values map[string][]byte
}

func (m *mapCacheRepo) Get(ctx context.Context, key string, dest interface{}) error {
	raw, ok := m.values[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(raw, dest)
}

func (m *mapCacheRepo) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	if m.values == nil {
		m.values = make(map[string][]byte)
	}
	m.values[key] = raw
	return nil
}

func (m *mapCacheRepo) DeleteByPattern(ctx context.Context, pattern string) error {
	m.values = make(map[string][]byte)
	return nil
}

func TestAnalyticsOverview(t *testing.T) {
	repo := &mockAnalyticsRepo{total: 10, completed: 4, active: 3, pending: 6, expiring: 2}
	svc := NewAnalyticsService(repo, nil, nil, zap.NewNop())

	overview, cached, err := svc.Overview(context.Background())
	require.NoError(t, err)
	assert.False(t, cached)
	assert.Equal(t, 10, overview.TotalSubmissions)
	assert.Equal(t, 3, overview.ActiveSubmissions)
	assert.Equal(t, 6, overview.PendingSubmissions)
	assert.Equal(t, 2, overview.ExpiringMOUs)
	assert.InDelta(t, 40.0, overview.ApprovalRate, 0.001)
}

func TestAnalyticsOverviewEmptyRegister(t *testing.T) {
	repo := &mockAnalyticsRepo{}
	svc := NewAnalyticsService(repo, nil, nil, zap.NewNop())

	overview, _, err := svc.Overview(context.Background())
	require.NoError(t, err)
	assert.Zero(t, overview.ApprovalRate)
}

func TestAnalyticsOverviewUsesCache(t *testing.T) {
	repo := &mockAnalyticsRepo{total: 10, completed: 4}
	cache := NewCacheService(&mapCacheRepo{}, nil, time.Minute, zap.NewNop(), true)
	svc := NewAnalyticsService(repo, cache, nil, zap.NewNop())

	_, cached, err := svc.Overview(context.Background())
	require.NoError(t, err)
	assert.False(t, cached)
	assert.Equal(t, 1, repo.calls)

	_, cached, err = svc.Overview(context.Background())
	require.NoError(t, err)
	assert.True(t, cached)
	assert.Equal(t, 1, repo.calls)
}
