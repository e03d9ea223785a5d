package warehouse

import (
	"context"
	"time"

	"github.com/patrickmn/go-cache"
)

// QueryCacheTTL bounds the per-query result cache. Entries are read-only
// once populated.
const QueryCacheTTL = time.Hour

// Cached memoizes successful query results by SQL text. Failures are never
// cached so a recovered source is picked up on the next request.
type Cached struct {
	inner Client
	c     *cache.Cache
}

func NewCached(inner Client) *Cached {
	return &Cached{inner: inner, c: cache.New(QueryCacheTTL, 2*QueryCacheTTL)}
}

func (w *Cached) Run(ctx context.Context, sql string) ([]Row, error) {
	if v, ok := w.c.Get(sql); ok {
		return v.([]Row), nil
	}
	rows, err := w.inner.Run(ctx, sql)
	if err != nil {
		return nil, err
	}
	w.c.Set(sql, rows, cache.DefaultExpiration)
	return rows, nil
}
