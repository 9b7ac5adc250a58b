package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/typeflow-app/typeflow-backend/pkg/circuitbreaker"
)

// ══════════════════════════════════════════════════════════════════════════════
// LEADERBOARD PAGE CACHE
// ══════════════════════════════════════════════════════════════════════════════

// versionKey is a global counter stamped into every page key. Invalidation
// bumps the counter instead of scanning and deleting page keys; stale pages
// simply age out via TTL.
const versionKey = PrefixLeaderboard + "version"

// ErrDegraded is returned when the circuit breaker is open and the cache
// is temporarily bypassed.
var ErrDegraded = errors.New("leaderboard cache: degraded, bypassing redis")

// LeaderboardCache caches rendered leaderboard pages. All operations go
// through a circuit breaker: when Redis misbehaves, reads report a miss
// and the caller falls through to PostgreSQL instead of stalling.
type LeaderboardCache struct {
	cache   *Cache
	breaker *circuitbreaker.Breaker
	ttl     time.Duration
}

// NewLeaderboardCache creates a leaderboard page cache.
func NewLeaderboardCache(cache *Cache) *LeaderboardCache {
	return &LeaderboardCache{
		cache:   cache,
		breaker: circuitbreaker.New(circuitbreaker.DefaultConfig()),
		ttl:     TTLLeaderboardPage,
	}
}

// PageKey identifies one cached leaderboard page.
type PageKey struct {
	Period     string
	PeriodDate string
	Category   string
	Offset     int
	Limit      int
}

func (k PageKey) redisKey(version string) string {
	return fmt.Sprintf("%spage:v%s:%s:%s:%s:%d:%d",
		PrefixLeaderboard, version, k.Period, k.PeriodDate, k.Category, k.Offset, k.Limit)
}

// GetPage loads a cached page into dest.
// Returns ErrCacheMiss when absent and ErrDegraded when Redis is down.
func (l *LeaderboardCache) GetPage(ctx context.Context, key PageKey, dest interface{}) error {
	return l.execute(func() error {
		version, err := l.version(ctx)
		if err != nil {
			return err
		}
		return l.cache.Get(ctx, key.redisKey(version), dest)
	})
}

// SetPage stores a rendered page under the current version.
func (l *LeaderboardCache) SetPage(ctx context.Context, key PageKey, page interface{}) error {
	return l.execute(func() error {
		version, err := l.version(ctx)
		if err != nil {
			return err
		}
		return l.cache.Set(ctx, key.redisKey(version), page, l.ttl)
	})
}

// Invalidate bumps the global version, orphaning every cached page at once.
func (l *LeaderboardCache) Invalidate(ctx context.Context) error {
	return l.execute(func() error {
		_, err := l.cache.Incr(ctx, versionKey)
		return err
	})
}

// version reads the current cache version. A missing counter means
// version "0": pages written before the first invalidation share it.
func (l *LeaderboardCache) version(ctx context.Context) (string, error) {
	v, err := l.cache.GetString(ctx, versionKey)
	if errors.Is(err, ErrCacheMiss) {
		return "0", nil
	}
	if err != nil {
		return "", err
	}
	return v, nil
}

// execute runs fn through the circuit breaker. A cache miss is a valid
// answer and must not count as a Redis failure, so it is carried around
// the breaker and re-surfaced to the caller.
func (l *LeaderboardCache) execute(fn func() error) error {
	var missed bool

	err := l.breaker.Execute(func() error {
		err := fn()
		if errors.Is(err, ErrCacheMiss) {
			missed = true
			return nil
		}
		return err
	})
	if errors.Is(err, circuitbreaker.ErrOpen) {
		return ErrDegraded
	}
	if err != nil {
		return err
	}
	if missed {
		return ErrCacheMiss
	}
	return nil
}
