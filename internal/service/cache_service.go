package service

import (
	"context"
	"crypto/md5"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync/atomic"
	"time"

	"github.com/teamtime/clockwork/internal/constants"
	"github.com/teamtime/clockwork/pkg/cache"
	"github.com/teamtime/clockwork/pkg/circuit"
	"github.com/teamtime/clockwork/pkg/logger"
)

// RemoteCache is the shared cache, normally Redis.
type RemoteCache interface {
	IsEnabled() bool
	GetJSON(ctx context.Context, key string, dest interface{}) (bool, error)
	SetJSON(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	DeleteByPattern(ctx context.Context, pattern string) error
}

// CacheService stores statistics responses. Reads try the remote cache first
// and fall back to the in-process one when Redis is off or its breaker is open.
//
// Keys carry a generation that InvalidateStats bumps, so a result computed
// before an invalidation is stored under a key no later read asks for, and
// remote entries that could not be deleted become unreachable.
type CacheService struct {
	remote     RemoteCache
	local      *cache.Cache
	breaker    *circuit.Breaker
	ttl        time.Duration
	generation atomic.Uint64
}

func NewCacheService(remote RemoteCache, local *cache.Cache, breaker *circuit.Breaker, ttl time.Duration) *CacheService {
	if breaker == nil {
		breaker = circuit.NewBreaker("redis", circuit.DefaultConfig(), logger.GetLogger())
	}
	s := &CacheService{
		remote:  remote,
		local:   local,
		breaker: breaker,
		ttl:     ttl,
	}
	// start past any generation a previous process left in Redis
	s.generation.Store(uint64(time.Now().UnixNano()))
	return s
}

// StatsKey builds a stable key from the resolved user set and date range.
func StatsKey(prefix string, userIDs []uint, r DateRange) string {
	ids := append([]uint(nil), userIDs...)
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	h := md5.New()
	if userIDs == nil {
		h.Write([]byte("users:*"))
	} else {
		h.Write([]byte(fmt.Sprintf("users:%v", ids)))
	}
	if r.From != nil {
		h.Write([]byte(":from:" + r.From.UTC().Format(time.RFC3339Nano)))
	}
	if r.To != nil {
		h.Write([]byte(":to:" + r.To.UTC().Format(time.RFC3339Nano)))
	}
	// the echoed period is part of the response body
	h.Write([]byte(fmt.Sprintf(":raw:%s:%s", r.start, r.end)))

	return fmt.Sprintf("%s%x", prefix, h.Sum(nil))
}

// KeyFor is StatsKey scoped to the current generation. Callers build the key
// before reading the data it caches.
func (s *CacheService) KeyFor(prefix string, userIDs []uint, r DateRange) string {
	return StatsKey(fmt.Sprintf("%sg%d:", prefix, s.generation.Load()), userIDs, r)
}

// Get decodes a cached value into dest and reports whether it was found.
func (s *CacheService) Get(ctx context.Context, key string, dest interface{}) bool {
	if s.ttl <= 0 {
		return false
	}

	if s.remoteEnabled() {
		var found bool
		err := s.breaker.Execute(func() error {
			var err error
			found, err = s.remote.GetJSON(ctx, key, dest)
			return err
		})
		if err == nil {
			return found
		}
		s.logFallback(ctx, "get", key, err)
	}

	if s.local == nil {
		return false
	}
	raw, ok := s.local.Get(key)
	if !ok {
		return false
	}
	data, ok := raw.([]byte)
	if !ok {
		return false
	}
	if err := json.Unmarshal(data, dest); err != nil {
		s.local.Delete(key)
		return false
	}
	return true
}

// Set stores value. Failures only cost a future cache miss.
func (s *CacheService) Set(ctx context.Context, key string, value interface{}) {
	if s.ttl <= 0 {
		return
	}

	if s.remoteEnabled() {
		err := s.breaker.Execute(func() error {
			return s.remote.SetJSON(ctx, key, value, s.ttl)
		})
		if err == nil {
			return
		}
		s.logFallback(ctx, "set", key, err)
	}

	if s.local == nil {
		return
	}
	data, err := json.Marshal(value)
	if err != nil {
		logger.WarnWithContext(ctx, "Failed to encode cache value").
			String("cache_key", key).
			Err(err).
			Log()
		return
	}
	s.local.Set(key, data, s.ttl)
}

// InvalidateStats drops every cached statistics response.
func (s *CacheService) InvalidateStats(ctx context.Context) {
	s.generation.Add(1)
	if s.local != nil {
		s.local.DeletePrefix(constants.CacheKeyStats)
	}
	if !s.remoteEnabled() {
		return
	}

	err := s.breaker.Execute(func() error {
		return s.remote.DeleteByPattern(ctx, constants.CacheKeyStatsMatch)
	})
	if err != nil {
		logger.WarnWithContext(ctx, "Statistics cache not invalidated remotely").
			String("pattern", constants.CacheKeyStatsMatch).
			Err(err).
			Log()
	}
}

func (s *CacheService) remoteEnabled() bool {
	return s.remote != nil && s.remote.IsEnabled()
}

func (s *CacheService) logFallback(ctx context.Context, op, key string, err error) {
	level := logger.WarnWithContext
	if errors.Is(err, circuit.ErrOpen) {
		level = logger.DebugWithContext
	}
	level(ctx, "Remote cache unavailable, using local cache").
		String("operation", op).
		String("cache_key", key).
		Err(err).
		Log()
}

// BreakerStats feeds the admin cache status endpoint.
func (s *CacheService) BreakerStats() map[string]interface{} {
	stats := s.breaker.Stats()
	stats["remote_enabled"] = s.remoteEnabled()
	return stats
}
