// package cache implements the resolution cache mapping source tracks to
// destination video IDs.
//
// The cache is owned exclusively by a single reconciliation run: loaded once
// at run start, mutated in memory, saved once at run end. Concurrent runs
// against the same backing store would corrupt it; external scheduling must
// prevent overlap.
package cache

import (
	"fmt"
	"time"

	"github.com/desertthunder/mixsync/internal/models"
)

// DefaultTTL is the resolution entry lifetime when none is configured.
const DefaultTTL = 30 * 24 * time.Hour

// Result distinguishes the three lookup states. A cached "no match" is a
// hit, not a miss: it suppresses repeated searches until the entry expires.
type Result int

const (
	Miss Result = iota
	Hit
	HitNegative
)

// Entry is a single cached resolution. Negative entries record a search
// that completed and found nothing; VideoID is empty for those.
type Entry struct {
	Key        models.TrackKey
	VideoID    string
	Negative   bool
	ResolvedAt time.Time
}

// Store is the durable backing for a Cache. Implementations persist the
// whole entry set at once; there are no partial writes.
type Store interface {
	LoadAll() ([]Entry, error)
	SaveAll([]Entry) error
}

// Cache is the in-memory working copy of the resolution cache.
type Cache struct {
	ttl     time.Duration
	entries map[models.TrackKey]Entry
	dirty   bool
	now     func() time.Time
}

// New creates an empty cache with the given TTL (DefaultTTL if zero).
func New(ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Cache{
		ttl:     ttl,
		entries: make(map[models.TrackKey]Entry),
		now:     time.Now,
	}
}

// Load replaces the in-memory entries with the store's contents.
// Expired entries are dropped on load and mark the cache dirty.
func (c *Cache) Load(store Store) error {
	entries, err := store.LoadAll()
	if err != nil {
		return fmt.Errorf("failed to load resolution cache: %w", err)
	}

	c.entries = make(map[models.TrackKey]Entry, len(entries))
	c.dirty = false
	for _, e := range entries {
		if c.expired(e) {
			c.dirty = true
			continue
		}
		c.entries[e.Key] = e
	}
	return nil
}

// Save persists the current entries if anything changed since Load.
func (c *Cache) Save(store Store) error {
	if !c.dirty {
		return nil
	}

	entries := make([]Entry, 0, len(c.entries))
	for _, e := range c.entries {
		entries = append(entries, e)
	}

	if err := store.SaveAll(entries); err != nil {
		return fmt.Errorf("failed to save resolution cache: %w", err)
	}
	c.dirty = false
	return nil
}

// Get looks up a key. Expired entries are treated as absent regardless of
// their stored value.
func (c *Cache) Get(key models.TrackKey) (string, Result) {
	entry, ok := c.entries[key]
	if !ok || c.expired(entry) {
		return "", Miss
	}
	if entry.Negative {
		return "", HitNegative
	}
	return entry.VideoID, Hit
}

// Put stores or overwrites an entry. A negative result is stored with an
// empty video ID so repeated failed lookups are also cache hits.
func (c *Cache) Put(key models.TrackKey, videoID string, negative bool) {
	if negative {
		videoID = ""
	}
	current, ok := c.entries[key]
	if ok && current.VideoID == videoID && current.Negative == negative && !c.expired(current) {
		return
	}
	c.entries[key] = Entry{
		Key:        key,
		VideoID:    videoID,
		Negative:   negative,
		ResolvedAt: c.now(),
	}
	c.dirty = true
}

// Prune removes all expired entries and returns how many were dropped.
func (c *Cache) Prune() int {
	pruned := 0
	for key, entry := range c.entries {
		if c.expired(entry) {
			delete(c.entries, key)
			pruned++
		}
	}
	if pruned > 0 {
		c.dirty = true
	}
	return pruned
}

// Len returns the number of entries, including expired ones not yet pruned.
func (c *Cache) Len() int {
	return len(c.entries)
}

// Dirty reports whether the cache has unsaved changes.
func (c *Cache) Dirty() bool {
	return c.dirty
}

func (c *Cache) expired(e Entry) bool {
	return c.now().Sub(e.ResolvedAt) >= c.ttl
}
