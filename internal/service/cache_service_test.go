package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "github.com/reservalo/agenda-api/pkg/errors"
)

type cacheRepoStub struct {
	entries     map[string][]byte
	getErr      error
	setErr      error
	lastTTL     time.Duration
	deletedKeys []string
	patterns    []string
}

func newCacheRepoStub() *cacheRepoStub {
	return &cacheRepoStub{entries: map[string][]byte{}}
}

func (s *cacheRepoStub) Get(_ context.Context, key string, dest interface{}) error {
	if s.getErr != nil {
		return s.getErr
	}
	raw, ok := s.entries[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(raw, dest)
}

func (s *cacheRepoStub) Set(_ context.Context, key string, value interface{}, ttl time.Duration) error {
	if s.setErr != nil {
		return s.setErr
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	s.entries[key] = raw
	s.lastTTL = ttl
	return nil
}

func (s *cacheRepoStub) Delete(_ context.Context, keys ...string) error {
	s.deletedKeys = append(s.deletedKeys, keys...)
	for _, key := range keys {
		delete(s.entries, key)
	}
	return nil
}

func (s *cacheRepoStub) DeleteByPattern(_ context.Context, pattern string) error {
	s.patterns = append(s.patterns, pattern)
	return nil
}

func TestCacheServiceRoundTrip(t *testing.T) {
	repo := newCacheRepoStub()
	svc := NewCacheService(repo, nil, time.Minute, nil, true)

	require.NoError(t, svc.Set(context.Background(), "availability:2026-03-02", map[string]string{"date": "2026-03-02"}, 0))
	assert.Equal(t, time.Minute, repo.lastTTL)

	var out map[string]string
	hit, err := svc.Get(context.Background(), "availability:2026-03-02", &out)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, "2026-03-02", out["date"])
}

func TestCacheServiceMissIsNotAnError(t *testing.T) {
	svc := NewCacheService(newCacheRepoStub(), nil, time.Minute, nil, true)

	var out map[string]string
	hit, err := svc.Get(context.Background(), "availability:2026-03-09", &out)
	require.NoError(t, err)
	assert.False(t, hit)
}

func TestCacheServiceGetError(t *testing.T) {
	repo := newCacheRepoStub()
	repo.getErr = errors.New("connection refused")
	svc := NewCacheService(repo, nil, time.Minute, nil, true)

	var out map[string]string
	hit, err := svc.Get(context.Background(), "availability:2026-03-02", &out)
	require.Error(t, err)
	assert.False(t, hit)
}

func TestCacheServiceDisabled(t *testing.T) {
	repo := newCacheRepoStub()
	svc := NewCacheService(repo, nil, time.Minute, nil, false)

	require.NoError(t, svc.Set(context.Background(), "k", "v", time.Minute))
	assert.Empty(t, repo.entries)

	var out string
	hit, err := svc.Get(context.Background(), "k", &out)
	require.NoError(t, err)
	assert.False(t, hit)

	require.NoError(t, svc.Invalidate(context.Background(), "availability:*"))
	assert.Empty(t, repo.patterns)
}

func TestCacheServiceNilReceiver(t *testing.T) {
	var svc *CacheService

	assert.False(t, svc.Enabled())
	hit, err := svc.Get(context.Background(), "k", nil)
	require.NoError(t, err)
	assert.False(t, hit)
	require.NoError(t, svc.Set(context.Background(), "k", "v", time.Minute))
	require.NoError(t, svc.Delete(context.Background(), "k"))
	require.NoError(t, svc.Invalidate(context.Background(), "*"))
}

func TestCacheServiceInvalidate(t *testing.T) {
	repo := newCacheRepoStub()
	svc := NewCacheService(repo, nil, time.Minute, nil, true)

	require.NoError(t, svc.Invalidate(context.Background(), "availability:*"))
	require.Len(t, repo.patterns, 1)
	assert.Equal(t, "availability:*", repo.patterns[0])
}

func TestCacheServiceRecordsMetrics(t *testing.T) {
	repo := newCacheRepoStub()
	metrics := NewMetricsService()
	svc := NewCacheService(repo, metrics, time.Minute, nil, true)

	var out map[string]string
	_, err := svc.Get(context.Background(), "availability:2026-03-02", &out)
	require.NoError(t, err)

	require.NoError(t, svc.Set(context.Background(), "availability:2026-03-02", map[string]string{"date": "2026-03-02"}, 0))
	_, err = svc.Get(context.Background(), "availability:2026-03-02", &out)
	require.NoError(t, err)

	snapshot := metrics.Snapshot()
	assert.Equal(t, uint64(1), snapshot.CacheHits)
	assert.Equal(t, uint64(1), snapshot.CacheMisses)
	assert.InDelta(t, 0.5, snapshot.CacheHitRatio, 0.001)
}
