package vectorstore

import (
	"context"
	"sync"

	"collector/internal/datasource"
	"collector/internal/engineerr"
	"collector/internal/logging"
)

// Registry is the Collection Registry: lazy, memoized per-source
// collection handles, with an explicit drop (delete + evict) and forget
// (evict only, used after an external drop) operation. There is no
// per-collection lock — the underlying store serializes concurrent
// writes to the same item; the registry's own cache is read-mostly and
// uses a plain RWMutex to guard its map.
type Registry struct {
	store VectorStore
	log   logging.Logger

	mu    sync.RWMutex
	cache map[datasource.DataSource]Collection
}

// NewRegistry constructs a Registry over the given backing store.
func NewRegistry(store VectorStore, log logging.Logger) *Registry {
	if log == nil {
		log = logging.NewNop()
	}
	return &Registry{
		store: store,
		log:   log.WithComponent("vectorstore.registry"),
		cache: make(map[datasource.DataSource]Collection),
	}
}

// Open returns the cached Collection handle for source, opening
// (creating if absent) and caching it on first use. Failure is
// propagated to the caller.
func (r *Registry) Open(ctx context.Context, source datasource.DataSource) (Collection, error) {
	if !source.Valid() {
		return nil, engineerr.NewMalformedInput("invalid data source: " + string(source))
	}

	r.mu.RLock()
	if c, ok := r.cache[source]; ok {
		r.mu.RUnlock()
		return c, nil
	}
	r.mu.RUnlock()

	r.mu.Lock()
	defer r.mu.Unlock()

	// Re-check: another goroutine may have opened it while we waited for
	// the write lock.
	if c, ok := r.cache[source]; ok {
		return c, nil
	}

	c, err := r.store.OpenCollection(ctx, datasource.CollectionName(source))
	if err != nil {
		return nil, engineerr.NewStoreUnavailable(source, err)
	}
	r.cache[source] = c
	return c, nil
}

// Drop deletes the backing collection for source and evicts the cache
// entry. Any failure from the store, not-found included, is logged and
// swallowed, so Drop returns nil for every valid source.
func (r *Registry) Drop(ctx context.Context, source datasource.DataSource) error {
	if !source.Valid() {
		return engineerr.NewMalformedInput("invalid data source: " + string(source))
	}

	err := r.store.DropCollection(ctx, datasource.CollectionName(source))
	r.Forget(source)
	if err != nil {
		r.log.WarnContext(ctx, "drop collection failed, treating as already absent",
			"source", source, "error", err)
	}
	return nil
}

// Forget evicts the cache entry for source without touching the backing
// store, used after an external actor has already dropped the collection.
func (r *Registry) Forget(source datasource.DataSource) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.cache, source)
}
