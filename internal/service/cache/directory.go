package cache

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/sandevgo/reportgen/internal/core"
	"github.com/sandevgo/reportgen/pkg/log"
)

const DefaultTTL = 120 * time.Minute

type DirectorySource interface {
	GetIDNameMap(ctx context.Context) (map[string]string, error)
}

// DirectoryCache holds the whole id->name directory. A refresh always replaces the
// snapshot wholesale.
type DirectoryCache struct {
	source DirectorySource
	ttl    time.Duration
	now    func() time.Time

	mu        sync.RWMutex
	snapshot  core.Directory
	fetchedAt time.Time
	valid     bool
	gen       uint64
}

func NewDirectoryCache(source DirectorySource, ttl time.Duration) *DirectoryCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &DirectoryCache{
		source: source,
		ttl:    ttl,
		now:    time.Now,
	}
}

// Get returns the cached snapshot while it is younger than the TTL, otherwise
// refetches it. Concurrent misses may each refetch. A refetch that overlaps an
// Invalidate is returned to its caller but not cached.
func (c *DirectoryCache) Get(ctx context.Context) (core.Directory, error) {
	snapshot, gen, ok := c.cached()
	if ok {
		return snapshot, nil
	}

	entries, err := c.source.GetIDNameMap(ctx)
	if err != nil {
		return core.Directory{}, fmt.Errorf("refresh directory: %w", err)
	}
	snapshot = core.NewDirectory(entries)

	c.mu.Lock()
	// An Invalidate during the fetch means the read may predate a write.
	stale := c.gen != gen
	if !stale {
		c.snapshot = snapshot
		c.fetchedAt = c.now()
		c.valid = true
	}
	c.mu.Unlock()

	if stale {
		log.FromCtx(ctx).Debug().Msg("directory invalidated during refresh, not cached")
		return snapshot, nil
	}

	log.FromCtx(ctx).Debug().Int("companies", snapshot.Len()).Msg("directory refreshed")
	return snapshot, nil
}

// Invalidate forces the next Get to refetch.
func (c *DirectoryCache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.valid = false
	c.snapshot = core.Directory{}
	c.gen++
}

func (c *DirectoryCache) cached() (core.Directory, uint64, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if !c.valid || c.now().Sub(c.fetchedAt) >= c.ttl {
		return core.Directory{}, c.gen, false
	}
	return c.snapshot, c.gen, true
}
