package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/tollgate-ai/tollgate/pkg/models"
	"github.com/tollgate-ai/tollgate/pkg/store"
)

func TestMakeKeyNormalization(t *testing.T) {
	if MakeKey("Fix Typo!", []string{"bug"}) != MakeKey("fix typo", []string{"bug"}) {
		t.Error("casing/punctuation should not change the key")
	}
	if MakeKey("fix   typo", nil) != MakeKey("fix typo", nil) {
		t.Error("whitespace runs should collapse")
	}
	if MakeKey("task", []string{"a", "b"}) != MakeKey("task", []string{"b", "a"}) {
		t.Error("label order should not change the key")
	}
	if MakeKey("fix typo", nil) == MakeKey("fix bug", nil) {
		t.Error("different text should produce different keys")
	}
	if MakeKey("task", []string{"a"}) == MakeKey("task", []string{"b"}) {
		t.Error("different labels should produce different keys")
	}
}

func TestLookupAndStore(t *testing.T) {
	ctx := context.Background()
	c := New(store.NewMemory(), time.Hour)
	key := MakeKey("summarize the report", []string{"docs"})

	if _, ok := c.Lookup(ctx, key); ok {
		t.Fatal("expected miss on empty cache")
	}

	c.Store(ctx, key, []byte("the summary"))

	payload, ok := c.Lookup(ctx, key)
	if !ok {
		t.Fatal("expected hit after store")
	}
	if string(payload) != "the summary" {
		t.Errorf("unexpected payload %q", payload)
	}
}

func TestLookupExpiryEvicts(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemory()
	c := New(mem, time.Hour)

	base := time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return base }

	key := MakeKey("stale task", nil)
	c.Store(ctx, key, []byte("old"))

	// One millisecond past max age: miss, and the entry is deleted.
	c.now = func() time.Time { return base.Add(time.Hour + time.Millisecond) }
	if _, ok := c.Lookup(ctx, key); ok {
		t.Fatal("expected miss after expiry")
	}
	if _, err := mem.Get(ctx, keyPrefix+key); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("expected lazy eviction to delete entry, got %v", err)
	}
}

func TestStoreOverwrites(t *testing.T) {
	ctx := context.Background()
	c := New(store.NewMemory(), time.Hour)
	key := MakeKey("task", nil)

	c.Store(ctx, key, []byte("first"))
	c.Store(ctx, key, []byte("second"))

	payload, ok := c.Lookup(ctx, key)
	if !ok || string(payload) != "second" {
		t.Errorf("expected overwrite, got %q (hit=%v)", payload, ok)
	}
}

func TestStats(t *testing.T) {
	ctx := context.Background()
	c := New(store.NewMemory(), time.Hour)
	key := MakeKey("task", nil)

	c.Store(ctx, key, []byte("data"))
	c.Lookup(ctx, key)                    // hit
	c.Lookup(ctx, MakeKey("other", nil))  // miss

	stats, err := c.Stats(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if stats.Entries != 1 || stats.Hits != 1 || stats.Misses != 1 {
		t.Errorf("unexpected stats: %+v", stats)
	}
}

func TestClear(t *testing.T) {
	ctx := context.Background()
	c := New(store.NewMemory(), time.Hour)

	c.Store(ctx, MakeKey("one", nil), []byte("1"))
	c.Store(ctx, MakeKey("two", nil), []byte("2"))

	if err := c.Clear(ctx); err != nil {
		t.Fatal(err)
	}
	stats, _ := c.Stats(ctx)
	if stats.Entries != 0 {
		t.Errorf("expected empty cache, got %d entries", stats.Entries)
	}
}

// brokenStore fails every operation; the cache must degrade, not error.
type brokenStore struct{}

var errBroken = errors.New("disk on fire")

func (brokenStore) Get(context.Context, string) ([]byte, error)    { return nil, errBroken }
func (brokenStore) Set(context.Context, string, []byte) error      { return errBroken }
func (brokenStore) Delete(context.Context, string) error           { return errBroken }
func (brokenStore) CountPrefix(context.Context, string) (int64, error) {
	return 0, errBroken
}
func (brokenStore) DeletePrefix(context.Context, string) error { return errBroken }
func (brokenStore) AppendUsage(context.Context, models.UsageLogEntry) error {
	return errBroken
}
func (brokenStore) UsageSince(context.Context, time.Time) ([]models.UsageLogEntry, error) {
	return nil, errBroken
}
func (brokenStore) RecentUsage(context.Context, int) ([]models.UsageLogEntry, error) {
	return nil, errBroken
}
func (brokenStore) UsageSummary(context.Context) ([]models.UsageSummary, error) {
	return nil, errBroken
}
func (brokenStore) Close() error { return nil }

func TestPersistenceFailuresDegrade(t *testing.T) {
	ctx := context.Background()
	c := New(brokenStore{}, time.Hour)
	key := MakeKey("task", nil)

	// Store swallows the error; Lookup reports a miss.
	c.Store(ctx, key, []byte("data"))
	if _, ok := c.Lookup(ctx, key); ok {
		t.Error("lookup against a failing store must be a miss")
	}
}
