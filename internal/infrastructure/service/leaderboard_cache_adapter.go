// Package service contains thin adapters that bridge application-layer
// interfaces to infrastructure implementations.
package service

import (
	"context"
	"errors"

	"github.com/typeflow-app/typeflow-backend/internal/application/query"
	"github.com/typeflow-app/typeflow-backend/internal/infrastructure/persistence/redis"
)

// LeaderboardCacheAdapter adapts redis.LeaderboardCache to the
// query.PageCache interface. A nil cache degrades to permanent misses,
// so the read side works without Redis.
type LeaderboardCacheAdapter struct {
	cache *redis.LeaderboardCache
}

func NewLeaderboardCacheAdapter(cache *redis.LeaderboardCache) *LeaderboardCacheAdapter {
	return &LeaderboardCacheAdapter{cache: cache}
}

func (a *LeaderboardCacheAdapter) GetPage(ctx context.Context, key query.PageCacheKey, dest interface{}) error {
	if a.cache == nil {
		return query.ErrPageCacheMiss
	}
	return translateCacheErr(a.cache.GetPage(ctx, toPageKey(key), dest))
}

// translateCacheErr maps infrastructure cache errors onto the single
// sentinel the query layer matches on. A key miss and a degraded cache
// (open circuit breaker) both read as a page miss; anything else is
// passed through.
func translateCacheErr(err error) error {
	if errors.Is(err, redis.ErrCacheMiss) || errors.Is(err, redis.ErrDegraded) {
		return query.ErrPageCacheMiss
	}
	return err
}

func (a *LeaderboardCacheAdapter) SetPage(ctx context.Context, key query.PageCacheKey, page interface{}) error {
	if a.cache == nil {
		return nil
	}
	return a.cache.SetPage(ctx, toPageKey(key), page)
}

// Invalidate drops all cached pages. Satisfies the cache invalidator
// interfaces of the event handlers and the rebuild job.
func (a *LeaderboardCacheAdapter) Invalidate(ctx context.Context) error {
	if a.cache == nil {
		return nil
	}
	return a.cache.Invalidate(ctx)
}

func toPageKey(key query.PageCacheKey) redis.PageKey {
	return redis.PageKey{
		Period:     key.Period,
		PeriodDate: key.PeriodDate,
		Category:   key.Category,
		Offset:     key.Offset,
		Limit:      key.Limit,
	}
}
