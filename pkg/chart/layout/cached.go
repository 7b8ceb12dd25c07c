package layout

import (
	"context"
	"encoding/json"
	"time"

	"github.com/orgtower/orgtower/pkg/chart"
	"github.com/orgtower/orgtower/pkg/store"
)

// CachedEngine decorates an engine with a position cache. Keys are content
// hashes of the full graph description, so structurally identical graphs
// laid out in the same direction hit the cache regardless of where they
// came from. Cache failures are treated as misses; a broken cache never
// breaks layout.
type CachedEngine struct {
	inner Engine
	cache store.Cache
	ttl   time.Duration
}

// Cached wraps an engine with the given cache. A ttl of 0 caches entries
// without expiration.
func Cached(inner Engine, cache store.Cache, ttl time.Duration) *CachedEngine {
	return &CachedEngine{inner: inner, cache: cache, ttl: ttl}
}

// Positions returns cached positions when the exact graph was laid out
// before, otherwise delegates to the inner engine and stores the result.
func (e *CachedEngine) Positions(ctx context.Context, g *Graph) (map[string]chart.Point, error) {
	key := cacheKey(g)

	if data, ok, err := e.cache.Get(ctx, key); err == nil && ok {
		var pos map[string]chart.Point
		if json.Unmarshal(data, &pos) == nil {
			return pos, nil
		}
	}

	pos, err := e.inner.Positions(ctx, g)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(pos); err == nil {
		_ = e.cache.Set(ctx, key, data, e.ttl)
	}
	return pos, nil
}

// cacheKey hashes the graph description. Node and edge order matter: the
// compiler emits both deterministically, so equal trees key equally.
func cacheKey(g *Graph) string {
	data, _ := json.Marshal(g)
	return "layout:" + store.Hash(data)
}

var _ Engine = (*CachedEngine)(nil)
