package session

import (
	"sync"
	"testing"
	"time"

	"github.com/sandevgo/reportgen/internal/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func basePrompt() []core.Message {
	return []core.Message{core.SystemMessage("base")}
}

func TestStore_GetOrCreateSeedsOnce(t *testing.T) {
	store := NewStore("main", time.Hour, WithSeed(basePrompt))

	sess := store.GetOrCreate("s1")
	sess.Append(core.UserMessage("hello"))

	again := store.GetOrCreate("s1")
	assert.Same(t, sess, again)
	assert.Equal(t, []core.Message{core.SystemMessage("base"), core.UserMessage("hello")}, again.Messages())
}

func TestStore_ConcurrentGetOrCreateConverges(t *testing.T) {
	store := NewStore("main", time.Hour, WithSeed(basePrompt))

	const workers = 64
	results := make([]*Session, workers)
	var start, done sync.WaitGroup
	start.Add(1)
	for i := 0; i < workers; i++ {
		done.Add(1)
		go func(i int) {
			defer done.Done()
			start.Wait()
			results[i] = store.GetOrCreate("new-session")
		}(i)
	}
	start.Done()
	done.Wait()

	for _, sess := range results {
		assert.Same(t, results[0], sess)
	}
	assert.Equal(t, 1, store.Len())
	assert.Equal(t, 1, results[0].Len())
}

func TestStore_SweepExpiredReseeds(t *testing.T) {
	clock := &fakeClock{now: time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)}
	store := NewStore("main", time.Hour, WithSeed(basePrompt), WithClock(clock.Now))

	stale := store.GetOrCreate("stale")
	stale.Append(core.UserMessage("old turn"))

	clock.Advance(40 * time.Minute)
	store.GetOrCreate("fresh")

	clock.Advance(30 * time.Minute)
	removed := store.SweepExpired(clock.Now())

	assert.Equal(t, 1, removed)
	_, ok := store.Get("stale")
	assert.False(t, ok)
	_, ok = store.Get("fresh")
	assert.True(t, ok)

	recreated := store.GetOrCreate("stale")
	assert.NotSame(t, stale, recreated)
	assert.Equal(t, basePrompt(), recreated.Messages())
}

func TestStore_SweepKeepsRecentlyAccessed(t *testing.T) {
	clock := &fakeClock{now: time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)}
	store := NewStore("main", time.Hour, WithClock(clock.Now))

	store.GetOrCreate("s1")
	clock.Advance(59 * time.Minute)
	store.GetOrCreate("s1")
	clock.Advance(59 * time.Minute)

	assert.Zero(t, store.SweepExpired(clock.Now()))
	assert.Equal(t, 1, store.Len())
}

func TestStore_Clear(t *testing.T) {
	store := NewStore("resolution", 0)

	store.GetOrCreate("s1")
	assert.True(t, store.Clear("s1"))
	assert.False(t, store.Clear("s1"))
	assert.Zero(t, store.Len())
}

func TestSession_SeedSystemAtMostOnce(t *testing.T) {
	store := NewStore("resolution", time.Hour)
	sess := store.GetOrCreate("s1")

	sess.Append(core.UserMessage("Microsft"))
	require.True(t, sess.SeedSystem("directory"))
	require.False(t, sess.SeedSystem("directory v2"))

	assert.Equal(t, []core.Message{
		core.SystemMessage("directory"),
		core.UserMessage("Microsft"),
	}, sess.Messages())
}

func TestSession_MessagesIsACopy(t *testing.T) {
	sess := NewStore("main", time.Hour).GetOrCreate("s1")
	sess.Append(core.UserMessage("a"))

	msgs := sess.Messages()
	msgs[0].Content = "changed"

	assert.Equal(t, "a", sess.Messages()[0].Content)
}
