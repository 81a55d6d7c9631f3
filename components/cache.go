package components

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"toolbox_back/logging"
)

const lookupCacheTimeout = 300 * time.Millisecond

// cachedComponent is what the serving path needs from a record.
type cachedComponent struct {
	ID       uint64 `json:"id"`
	Title    string `json:"title"`
	FileName string `json:"file_name"`
}

// componentCache is the lookup cache as the serving path sees it. Implementations must be
// safe to call on a nil receiver when caching is off.
type componentCache interface {
	get(ctx context.Context, pathName string) (*cachedComponent, bool)
	store(ctx context.Context, pathName string, entry cachedComponent)
	invalidate(ctx context.Context, pathName string)
}

// lookupCache maps path_name to a component record in Redis. Errors are only logged and the
// caller falls back to the database.
type lookupCache struct {
	client *redis.Client
	ttl    time.Duration
	log    *logging.Logger
}

func newLookupCache(client *redis.Client, ttl time.Duration, log *logging.Logger) *lookupCache {
	if client == nil {
		return nil
	}
	return &lookupCache{client: client, ttl: ttl, log: log}
}

func (l *lookupCache) cacheContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if deadline, ok := ctx.Deadline(); ok && time.Until(deadline) <= lookupCacheTimeout {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, lookupCacheTimeout)
}

func (l *lookupCache) key(pathName string) string {
	return "components:path:" + pathName
}

func (l *lookupCache) get(ctx context.Context, pathName string) (*cachedComponent, bool) {
	if l == nil {
		return nil, false
	}
	ctx, cancel := l.cacheContext(ctx)
	defer cancel()

	data, err := l.client.Get(ctx, l.key(pathName)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			l.log.Warn("component cache get failed", "path_name", pathName, "error", err)
		}
		return nil, false
	}

	var entry cachedComponent
	if err := json.Unmarshal(data, &entry); err != nil {
		l.log.Warn("component cache payload invalid", "path_name", pathName, "error", err)
		return nil, false
	}
	return &entry, true
}

func (l *lookupCache) store(ctx context.Context, pathName string, entry cachedComponent) {
	if l == nil {
		return
	}
	payload, err := json.Marshal(entry)
	if err != nil {
		l.log.Warn("component cache marshal failed", "path_name", pathName, "error", err)
		return
	}

	ctx, cancel := l.cacheContext(ctx)
	defer cancel()

	if err := l.client.Set(ctx, l.key(pathName), payload, l.ttl).Err(); err != nil {
		l.log.Warn("component cache store failed", "path_name", pathName, "error", err)
	}
}

func (l *lookupCache) invalidate(ctx context.Context, pathName string) {
	if l == nil {
		return
	}
	ctx, cancel := l.cacheContext(ctx)
	defer cancel()

	if err := l.client.Del(ctx, l.key(pathName)).Err(); err != nil {
		l.log.Warn("component cache invalidate failed", "path_name", pathName, "error", err)
	}
}
