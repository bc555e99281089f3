package cache

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/sandevgo/reportgen/internal/core"
	"github.com/sandevgo/reportgen/pkg/log"
)

type RecordSource interface {
	GetByID(ctx context.Context, id, partitionKey string) (*core.Company, error)
}

type recordEntry struct {
	company    *core.Company
	insertedAt time.Time
}

// RecordCache holds hydrated company records keyed by company id. Cached records are
// shared and must not be modified.
type RecordCache struct {
	source RecordSource
	ttl    time.Duration
	now    func() time.Time

	mu      sync.RWMutex
	entries map[string]recordEntry
}

func NewRecordCache(source RecordSource, ttl time.Duration) *RecordCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &RecordCache{
		source:  source,
		ttl:     ttl,
		now:     time.Now,
		entries: make(map[string]recordEntry),
	}
}

// Ensure returns the record for ref.ID, reading it from the store on a miss. A store
// miss is returned as ErrCompanyNotFound and is never cached.
func (c *RecordCache) Ensure(ctx context.Context, ref core.CompanyRef) (*core.Company, error) {
	if ref.ID == "" {
		return nil, fmt.Errorf("%w: company id is required", core.ErrInvalidInput)
	}

	if company, ok := c.Get(ref.ID); ok {
		return company, nil
	}

	company, err := c.source.GetByID(ctx, ref.ID, ref.Name)
	if err != nil {
		if errors.Is(err, core.ErrCompanyNotFound) {
			log.FromCtx(ctx).Warn().Str("company_id", ref.ID).Str("company", ref.Name).Msg("resolved company is missing from store")
		}
		return nil, fmt.Errorf("load company %s: %w", ref.ID, err)
	}

	c.mu.Lock()
	c.entries[ref.ID] = recordEntry{company: company, insertedAt: c.now()}
	c.mu.Unlock()

	log.FromCtx(ctx).Debug().Str("company_id", ref.ID).Msg("record cached")
	return company, nil
}

// Get returns a cached record that has not outlived the TTL.
func (c *RecordCache) Get(id string) (*core.Company, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, ok := c.entries[id]
	if !ok || c.now().Sub(entry.insertedAt) >= c.ttl {
		return nil, false
	}
	return entry.company, true
}

// Sweep drops entries that were already expired at now.
func (c *RecordCache) Sweep(now time.Time) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	removed := 0
	for id, entry := range c.entries {
		if now.Sub(entry.insertedAt) >= c.ttl {
			delete(c.entries, id)
			removed++
		}
	}
	return removed
}

func (c *RecordCache) Remove(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, id)
}

func (c *RecordCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
