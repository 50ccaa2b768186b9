// Package cache is a content-addressed, TTL-based store of prior inference
// results. Caching is a best-effort optimization: persistence failures
// degrade to misses, never to request failures.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sort"
	"strings"
	"sync/atomic"
	"time"
	"unicode"

	"github.com/tollgate-ai/tollgate/pkg/models"
	"github.com/tollgate-ai/tollgate/pkg/store"
)

// keyPrefix namespaces cache entries inside the shared KV store.
const keyPrefix = "cache/"

// Cache is a normalized-key result cache with lazy eviction on lookup.
type Cache struct {
	store  store.Store
	maxAge time.Duration
	hits   atomic.Int64
	misses atomic.Int64

	now func() time.Time
}

// New creates a Cache over the given store with the given max entry age.
func New(st store.Store, maxAge time.Duration) *Cache {
	return &Cache{store: st, maxAge: maxAge, now: time.Now}
}

// MakeKey hashes normalized task text plus the sorted label set into an
// opaque fixed-width key. Semantically identical input (same words, any
// casing or punctuation, labels in any order) produces the same key.
func MakeKey(text string, labels []string) string {
	sorted := make([]string, len(labels))
	for i, l := range labels {
		sorted[i] = strings.ToLower(l)
	}
	sort.Strings(sorted)

	h := sha256.New()
	h.Write([]byte(normalize(text)))
	h.Write([]byte{'|'})
	h.Write([]byte(strings.Join(sorted, ",")))
	return fmt.Sprintf("%x", h.Sum(nil))
}

// normalize lowercases, strips non-alphanumerics, and collapses whitespace.
func normalize(text string) string {
	var b strings.Builder
	b.Grow(len(text))
	pendingSpace := false
	for _, r := range strings.ToLower(text) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			if pendingSpace && b.Len() > 0 {
				b.WriteByte(' ')
			}
			pendingSpace = false
			b.WriteRune(r)
		} else {
			pendingSpace = true
		}
	}
	return b.String()
}

// Lookup returns the cached payload for a key. Entries older than maxAge are
// deleted on the spot and reported as misses; store errors are misses too.
func (c *Cache) Lookup(ctx context.Context, key string) ([]byte, bool) {
	raw, err := c.store.Get(ctx, keyPrefix+key)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			log.Printf("cache lookup %s: %v (treating as miss)", key, err)
		}
		c.misses.Add(1)
		return nil, false
	}

	var entry models.CacheEntry
	if err := json.Unmarshal(raw, &entry); err != nil {
		log.Printf("cache entry %s corrupt: %v (treating as miss)", key, err)
		c.misses.Add(1)
		return nil, false
	}

	if c.now().Sub(entry.CreatedAt) > c.maxAge {
		// Lazy eviction: expired entries are removed as a lookup side effect.
		if err := c.store.Delete(ctx, keyPrefix+key); err != nil {
			log.Printf("cache evict %s: %v", key, err)
		}
		c.misses.Add(1)
		return nil, false
	}

	c.hits.Add(1)
	return entry.Payload, true
}

// Store upserts a payload under key with the current timestamp. Failures are
// logged and swallowed; a cache write must never fail a request.
func (c *Cache) Store(ctx context.Context, key string, payload []byte) {
	entry := models.CacheEntry{
		Key:       key,
		Payload:   payload,
		CreatedAt: c.now().UTC(),
	}
	raw, err := json.Marshal(entry)
	if err != nil {
		log.Printf("cache store %s: marshal: %v", key, err)
		return
	}
	if err := c.store.Set(ctx, keyPrefix+key, raw); err != nil {
		log.Printf("cache store %s: %v", key, err)
	}
}

// Stats returns cache performance counters.
func (c *Cache) Stats(ctx context.Context) (models.CacheStats, error) {
	entries, err := c.store.CountPrefix(ctx, keyPrefix)
	if err != nil {
		return models.CacheStats{}, fmt.Errorf("cache stats: %w", err)
	}
	return models.CacheStats{
		Entries: entries,
		Hits:    c.hits.Load(),
		Misses:  c.misses.Load(),
	}, nil
}

// Clear removes all cache entries.
func (c *Cache) Clear(ctx context.Context) error {
	if err := c.store.DeletePrefix(ctx, keyPrefix); err != nil {
		return fmt.Errorf("cache clear: %w", err)
	}
	return nil
}
