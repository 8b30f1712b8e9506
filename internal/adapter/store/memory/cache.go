// Package memory provides an in-process grid cache.
package memory

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"

	"go.ngs.io/reanalysis-maps/internal/adapter/store"
	"go.ngs.io/reanalysis-maps/internal/domain"
)

type key struct {
	date    domain.Date
	variant string
}

func (k key) String() string {
	return fmt.Sprintf("%s/%s", k.variant, k.date)
}

type entry struct {
	grid *domain.Grid
	err  error // nil or domain.ErrNoData
}

// Stats reports cache counters.
type Stats struct {
	Entries int   `json:"entries"`
	Hits    int64 `json:"hits"`
	Misses  int64 `json:"misses"`
}

// GridCache memoizes fetches by (date, variant). Grids and no-data results
// are kept for the life of the process; failures are never stored.
// Cached grids are shared between callers and must not be modified.
type GridCache struct {
	next store.GridFetcher

	mu      sync.RWMutex
	entries map[key]entry
	hits    int64
	misses  int64

	group singleflight.Group
}

var _ store.GridFetcher = (*GridCache)(nil)

// NewGridCache wraps next with a cache.
func NewGridCache(next store.GridFetcher) *GridCache {
	return &GridCache{
		next:    next,
		entries: make(map[key]entry),
	}
}

// Fetch implements store.GridFetcher. Concurrent misses for the same key
// share one underlying fetch, which keeps running if a caller gives up.
func (c *GridCache) Fetch(ctx context.Context, date domain.Date, variant domain.Variant) (*domain.Grid, error) {
	k := key{date: date, variant: variant.Name}
	if e, ok := c.lookup(k, true); ok {
		return e.grid, e.err
	}

	detached := context.WithoutCancel(ctx)
	ch := c.group.DoChan(k.String(), func() (interface{}, error) {
		if e, ok := c.lookup(k, false); ok {
			return e, nil
		}
		grid, err := c.next.Fetch(detached, date, variant)
		if err != nil && !errors.Is(err, domain.ErrNoData) {
			return nil, err
		}
		e := entry{grid: grid, err: err}
		c.mu.Lock()
		c.entries[k] = e
		c.mu.Unlock()
		log.Debug().Str("key", k.String()).Bool("no_data", err != nil).Msg("Cached grid")
		return e, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case r := <-ch:
		if r.Err != nil {
			return nil, r.Err
		}
		e := r.Val.(entry)
		return e.grid, e.err
	}
}

func (c *GridCache) lookup(k key, count bool) (entry, bool) {
	if count {
		c.mu.Lock()
		defer c.mu.Unlock()
	} else {
		c.mu.RLock()
		defer c.mu.RUnlock()
	}
	e, ok := c.entries[k]
	if count {
		if ok {
			c.hits++
		} else {
			c.misses++
		}
	}
	return e, ok
}

// Contains reports whether a result for (date, variant) is cached.
func (c *GridCache) Contains(date domain.Date, variant domain.Variant) bool {
	_, ok := c.lookup(key{date: date, variant: variant.Name}, false)
	return ok
}

// Invalidate drops one entry.
func (c *GridCache) Invalidate(date domain.Date, variant domain.Variant) {
	c.mu.Lock()
	delete(c.entries, key{date: date, variant: variant.Name})
	c.mu.Unlock()
}

// Purge drops every entry.
func (c *GridCache) Purge() {
	c.mu.Lock()
	c.entries = make(map[key]entry)
	c.mu.Unlock()
}

// Stats returns the current counters.
func (c *GridCache) Stats() Stats {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return Stats{Entries: len(c.entries), Hits: c.hits, Misses: c.misses}
}
