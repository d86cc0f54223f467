package service

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/teamtime/clockwork/internal/constants"
	"github.com/teamtime/clockwork/internal/dto"
	"github.com/teamtime/clockwork/pkg/cache"
	"github.com/teamtime/clockwork/pkg/circuit"
	"go.uber.org/zap"
)

type fakeRemote struct {
	mu       sync.Mutex
	data     map[string][]byte
	fail     error
	delFail  error
	calls    int
	patterns []string
}

func newFakeRemote() *fakeRemote {
	return &fakeRemote{data: map[string][]byte{}}
}

func (f *fakeRemote) IsEnabled() bool { return true }

func (f *fakeRemote) GetJSON(_ context.Context, key string, dest interface{}) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.fail != nil {
		return false, f.fail
	}
	raw, ok := f.data[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(raw, dest)
}

func (f *fakeRemote) SetJSON(_ context.Context, key string, value interface{}, _ time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.fail != nil {
		return f.fail
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	f.data[key] = raw
	return nil
}

func (f *fakeRemote) DeleteByPattern(_ context.Context, pattern string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.fail != nil {
		return f.fail
	}
	if f.delFail != nil {
		return f.delFail
	}
	f.patterns = append(f.patterns, pattern)
	f.data = map[string][]byte{}
	return nil
}

func TestStatsKeyIsStable(t *testing.T) {
	r, _ := ParseDateRange("2025-03-01", "2025-03-31")

	a := StatsKey(constants.CacheKeyUserStats, []uint{3, 1, 2}, r)
	b := StatsKey(constants.CacheKeyUserStats, []uint{1, 2, 3}, r)
	if a != b {
		t.Error("key depends on id order")
	}
	if StatsKey(constants.CacheKeyUserStats, nil, r) == StatsKey(constants.CacheKeyUserStats, []uint{}, r) {
		t.Error("unrestricted and empty scopes share a key")
	}
	other, _ := ParseDateRange("2025-03-01", "")
	if a == StatsKey(constants.CacheKeyUserStats, []uint{1, 2, 3}, other) {
		t.Error("different ranges share a key")
	}
}

func TestCacheServiceUsesRemote(t *testing.T) {
	remote := newFakeRemote()
	local := cache.NewCache()
	defer local.Close()
	svc := NewCacheService(remote, local, nil, time.Minute)
	ctx := context.Background()

	key := constants.CacheKeyUserStats + "k"
	svc.Set(ctx, key, dto.UserStatsResponse{Statistics: []dto.UserStatistics{{UserID: 5, TotalHours: 3}}})

	if local.Len() != 0 {
		t.Error("value written locally while remote healthy")
	}

	var got dto.UserStatsResponse
	if !svc.Get(ctx, key, &got) || got.Statistics[0].TotalHours != 3 {
		t.Fatalf("Get() = %+v", got)
	}

	svc.InvalidateStats(ctx)
	if len(remote.patterns) != 1 || remote.patterns[0] != constants.CacheKeyStatsMatch {
		t.Errorf("patterns = %v", remote.patterns)
	}
	if svc.Get(ctx, key, &got) {
		t.Error("value survived invalidation")
	}
}

func TestCacheServiceFallsBackWhenRemoteFails(t *testing.T) {
	remote := newFakeRemote()
	remote.fail = errors.New("connection refused")
	local := cache.NewCache()
	defer local.Close()
	breaker := circuit.NewBreaker("redis", circuit.Config{Threshold: 2, Cooldown: time.Hour}, zap.NewNop())
	svc := NewCacheService(remote, local, breaker, time.Minute)
	ctx := context.Background()

	key := constants.CacheKeyTeamStats + "k"
	svc.Set(ctx, key, dto.TeamAggregate{MemberCount: 2})

	var got dto.TeamAggregate
	if !svc.Get(ctx, key, &got) || got.MemberCount != 2 {
		t.Fatalf("local fallback Get() = %+v", got)
	}
	if breaker.State() != circuit.StateOpen {
		t.Errorf("breaker state = %s, want open", breaker.State())
	}

	calls := remote.calls
	svc.Get(ctx, key, &got)
	if remote.calls != calls {
		t.Error("remote called while breaker open")
	}

	svc.InvalidateStats(ctx)
	if local.Len() != 0 {
		t.Error("local entries survived invalidation")
	}
}

func TestCacheServiceDisabledByZeroTTL(t *testing.T) {
	local := cache.NewCache()
	defer local.Close()
	svc := NewCacheService(nil, local, nil, 0)

	svc.Set(context.Background(), "k", 1)
	var v int
	if svc.Get(context.Background(), "k", &v) {
		t.Error("Get() hit with caching disabled")
	}
}

func TestCacheServiceStaleWriteAfterInvalidation(t *testing.T) {
	local := cache.NewCache()
	defer local.Close()
	svc := NewCacheService(nil, local, nil, time.Minute)
	ctx := context.Background()
	r, _ := ParseDateRange("2025-03-01", "2025-03-31")

	// a read computes its key, a write invalidates, then the read stores its result
	staleKey := svc.KeyFor(constants.CacheKeyUserStats, []uint{5}, r)
	svc.InvalidateStats(ctx)
	svc.Set(ctx, staleKey, dto.UserStatsResponse{Statistics: []dto.UserStatistics{{UserID: 5, TotalHours: 8}}})

	var got dto.UserStatsResponse
	if svc.Get(ctx, svc.KeyFor(constants.CacheKeyUserStats, []uint{5}, r), &got) {
		t.Errorf("pre-invalidation result served: %+v", got)
	}
}

func TestCacheServiceFailedRemoteDeleteLeavesNoReachableEntry(t *testing.T) {
	remote := newFakeRemote()
	local := cache.NewCache()
	defer local.Close()
	breaker := circuit.NewBreaker("redis", circuit.Config{Threshold: 10, Cooldown: time.Hour}, zap.NewNop())
	svc := NewCacheService(remote, local, breaker, time.Minute)
	ctx := context.Background()
	r, _ := ParseDateRange("", "")

	key := svc.KeyFor(constants.CacheKeyTeamStats, []uint{1, 2}, r)
	svc.Set(ctx, key, dto.TeamAggregate{MemberCount: 2})

	remote.delFail = errors.New("connection reset")
	svc.InvalidateStats(ctx)
	if len(remote.data) == 0 {
		t.Fatal("fake should have kept the entry")
	}

	next := svc.KeyFor(constants.CacheKeyTeamStats, []uint{1, 2}, r)
	if next == key {
		t.Fatal("key unchanged after invalidation")
	}
	var got dto.TeamAggregate
	if svc.Get(ctx, next, &got) {
		t.Errorf("stale remote entry served: %+v", got)
	}
}
