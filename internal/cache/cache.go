// Package cache implements a keyed, deduplicating fetch cache shared by every
// view of a workspace.
//
// Each key holds at most one entry that is pending, resolved or errored.
// Concurrent resolves of a pending key share one loader invocation. Resolved
// values are served until the key is invalidated. Errors are served to every
// waiter of the failed fetch and to later callers until the key is
// invalidated or the error revalidation window elapses.
package cache

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"contentnav/internal/notifier"

	"golang.org/x/sync/singleflight"
)

// Status is the lifecycle state of a cache entry.
type Status string

const (
	StatusPending  Status = "pending"
	StatusResolved Status = "resolved"
	StatusError    Status = "error"
)

// Entry is a point-in-time copy of a cache entry.
type Entry struct {
	Status    Status
	Value     any
	Err       error
	SettledAt time.Time
}

type entry struct {
	status    Status
	value     any
	err       error
	gen       uint64
	settledAt time.Time
}

// Config holds cache tuning parameters.
type Config struct {
	// ErrorTTL is how long an errored entry is served before the next
	// resolve retries the fetch. Zero keeps errors until invalidated.
	ErrorTTL time.Duration
}

// Cache is safe for concurrent use.
type Cache struct {
	mu       sync.Mutex
	entries  map[Key]*entry
	gen      uint64
	group    singleflight.Group
	errorTTL time.Duration
	now      func() time.Time
	changes  *notifier.Notifier
	logger   *slog.Logger
}

// New creates an empty cache.
func New(cfg Config, logger *slog.Logger) *Cache {
	return &Cache{
		entries:  make(map[Key]*entry),
		errorTTL: cfg.ErrorTTL,
		now:      time.Now,
		changes:  notifier.New(),
		logger:   logger,
	}
}

// Get resolves key, invoking load only when no usable entry exists and no
// fetch for the key is already in flight.
//
// The loader runs detached from ctx cancellation so one caller giving up
// never fails the fetch other callers are waiting on; the caller itself
// returns ctx.Err() as soon as ctx is done.
func Get[V any](ctx context.Context, c *Cache, key Key, load func(ctx context.Context) (V, error)) (V, error) {
	var zero V
	v, err := c.resolve(ctx, key, func(ctx context.Context) (any, error) {
		return load(ctx)
	})
	if err != nil {
		return zero, err
	}
	typed, ok := v.(V)
	if !ok {
		return zero, fmt.Errorf("cache: %s holds %T", key, v)
	}
	return typed, nil
}

func (c *Cache) resolve(ctx context.Context, key Key, load func(context.Context) (any, error)) (any, error) {
	c.mu.Lock()
	e, ok := c.entries[key]
	if ok {
		switch e.status {
		case StatusResolved:
			v := e.value
			c.mu.Unlock()
			return v, nil
		case StatusError:
			if !c.errorExpired(e) {
				err := e.err
				c.mu.Unlock()
				return nil, err
			}
			ok = false
		}
	}
	if !ok {
		c.gen++
		e = &entry{status: StatusPending, gen: c.gen}
		c.entries[key] = e
	}
	gen := e.gen
	c.mu.Unlock()

	ch := c.group.DoChan(flightKey(key, gen), func() (any, error) {
		// A flight for this generation may have settled between our lookup
		// and joining; reuse its outcome instead of fetching twice.
		if settled, v, err := c.settled(key, gen); settled {
			return v, err
		}

		c.logger.Debug("cache fetch", "key", key.String())
		v, err := load(context.WithoutCancel(ctx))
		c.settle(key, gen, v, err)
		return v, err
	})

	select {
	case res := <-ch:
		return res.Val, res.Err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func flightKey(key Key, gen uint64) string {
	return key.String() + "#" + strconv.FormatUint(gen, 10)
}

func (c *Cache) errorExpired(e *entry) bool {
	return c.errorTTL > 0 && c.now().Sub(e.settledAt) >= c.errorTTL
}

func (c *Cache) settled(key Key, gen uint64) (bool, any, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok || e.gen != gen || e.status == StatusPending {
		return false, nil, nil
	}
	return true, e.value, e.err
}

// settle records the outcome of a fetch unless the entry was invalidated
// while the fetch was in flight.
func (c *Cache) settle(key Key, gen uint64, v any, err error) {
	c.mu.Lock()
	e, ok := c.entries[key]
	if !ok || e.gen != gen {
		c.mu.Unlock()
		c.logger.Debug("cache discarded stale fetch", "key", key.String())
		return
	}
	if err != nil {
		e.status = StatusError
		e.err = err
		e.value = nil
	} else {
		e.status = StatusResolved
		e.value = v
		e.err = nil
	}
	e.settledAt = c.now()
	c.mu.Unlock()

	if err != nil {
		c.logger.Warn("cache fetch failed", "key", key.String(), "error", err)
	}
	c.changes.Broadcast()
}

// Peek returns a copy of the entry for key without triggering a fetch.
func (c *Cache) Peek(key Key) (Entry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok {
		return Entry{}, false
	}
	return Entry{Status: e.status, Value: e.value, Err: e.err, SettledAt: e.settledAt}, true
}

// Invalidate discards the entry for key. The next Get fetches again even if
// an older fetch is still in flight; that fetch's result is dropped.
func (c *Cache) Invalidate(keys ...Key) {
	c.mu.Lock()
	for _, key := range keys {
		delete(c.entries, key)
	}
	c.mu.Unlock()

	for _, key := range keys {
		c.logger.Debug("cache invalidated", "key", key.String())
	}
	c.changes.Broadcast()
}

// InvalidateFolder discards every per-folder entry for id.
func (c *Cache) InvalidateFolder(id string) {
	keys := make([]Key, 0, len(folderOps))
	for _, op := range folderOps {
		keys = append(keys, Key{Op: op, Param: id})
	}
	c.Invalidate(keys...)
}

// Reset discards every entry.
func (c *Cache) Reset() {
	c.mu.Lock()
	c.entries = make(map[Key]*entry)
	c.mu.Unlock()

	c.logger.Debug("cache reset")
	c.changes.Broadcast()
}

// Len returns the number of entries in any state.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Subscribe returns a channel pinged whenever an entry settles or is
// invalidated. Release it with Unsubscribe.
func (c *Cache) Subscribe() chan struct{} {
	return c.changes.Subscribe()
}

// Unsubscribe releases a channel returned by Subscribe.
func (c *Cache) Unsubscribe(ch chan struct{}) {
	c.changes.Unsubscribe(ch)
}
