package utils

import (
	"context"

	"github.com/redis/go-redis/v9"
)

// Key prefixes shared with middlewares.ResponseCache.
const (
	CacheEventsList = "cache:events:list:"
	CacheEventItem  = "cache:events:item:"
	CacheBlogs      = "cache:blogs:"
)

type CacheInvalidator struct{ rdb *redis.Client }

func NewCacheInvalidator(rdb *redis.Client) *CacheInvalidator { return &CacheInvalidator{rdb} }

func (ci *CacheInvalidator) purge(ctx context.Context, pattern string) {
	if ci == nil || ci.rdb == nil {
		return
	}
	iter := ci.rdb.Scan(ctx, 0, pattern, 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if len(keys) > 0 {
		_ = ci.rdb.Del(ctx, keys...).Err()
	}
}

// PurgeEventsList drops every cached event listing.
func (ci *CacheInvalidator) PurgeEventsList(ctx context.Context) {
	ci.purge(ctx, CacheEventsList+"*")
}

// PurgeEventItem drops the cached detail views of one event, for every viewer.
func (ci *CacheInvalidator) PurgeEventItem(ctx context.Context, id string) {
	ci.purge(ctx, CacheEventItem+id+":*")
}

// PurgeEvent is what every event, booking or like mutation calls.
func (ci *CacheInvalidator) PurgeEvent(ctx context.Context, id string) {
	ci.PurgeEventsList(ctx)
	ci.PurgeEventItem(ctx, id)
}

func (ci *CacheInvalidator) PurgeBlogs(ctx context.Context) {
	ci.purge(ctx, CacheBlogs+"*")
}

// PurgeAllEvents drops every cached event view; used when a cascade removes
// events whose ids are not at hand.
func (ci *CacheInvalidator) PurgeAllEvents(ctx context.Context) {
	ci.PurgeEventsList(ctx)
	ci.purge(ctx, CacheEventItem+"*")
}
