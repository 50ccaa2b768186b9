package store

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/tollgate-ai/tollgate/pkg/models"
)

// Memory implements Store with in-process maps. All data is lost when the
// process exits; it backs tests and ephemeral runs.
type Memory struct {
	mu    sync.RWMutex
	kv    map[string][]byte
	usage []models.UsageLogEntry
	seq   int64
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{kv: make(map[string][]byte)}
}

// Get returns the value for a key, or ErrNotFound.
func (m *Memory) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.kv[key]
	if !ok {
		return nil, ErrNotFound
	}
	out := make([]byte, len(v))
	copy(out, v)
	return out, nil
}

// Set upserts a value.
func (m *Memory) Set(_ context.Context, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	v := make([]byte, len(value))
	copy(v, value)
	m.kv[key] = v
	return nil
}

// Delete removes a key.
func (m *Memory) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.kv, key)
	return nil
}

// CountPrefix returns the number of keys with the given prefix.
func (m *Memory) CountPrefix(_ context.Context, prefix string) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var count int64
	for k := range m.kv {
		if strings.HasPrefix(k, prefix) {
			count++
		}
	}
	return count, nil
}

// DeletePrefix removes all keys with the given prefix.
func (m *Memory) DeletePrefix(_ context.Context, prefix string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for k := range m.kv {
		if strings.HasPrefix(k, prefix) {
			delete(m.kv, k)
		}
	}
	return nil
}

// AppendUsage appends one row to the usage log.
func (m *Memory) AppendUsage(_ context.Context, entry models.UsageLogEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	entry.ID = m.seq
	m.usage = append(m.usage, entry)
	return nil
}

// UsageSince returns usage entries recorded at or after since, oldest first.
func (m *Memory) UsageSince(_ context.Context, since time.Time) ([]models.UsageLogEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []models.UsageLogEntry
	for _, e := range m.usage {
		if !e.CreatedAt.Before(since) {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

// RecentUsage returns the newest usage entries, newest first.
func (m *Memory) RecentUsage(_ context.Context, limit int) ([]models.UsageLogEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if limit <= 0 {
		limit = 50
	}
	out := make([]models.UsageLogEntry, len(m.usage))
	copy(out, m.usage)
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// UsageSummary aggregates the usage log per model.
func (m *Memory) UsageSummary(_ context.Context) ([]models.UsageSummary, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	byModel := make(map[string]*models.UsageSummary)
	for _, e := range m.usage {
		s, ok := byModel[e.Model]
		if !ok {
			s = &models.UsageSummary{Model: e.Model}
			byModel[e.Model] = s
		}
		s.RequestCount++
		if e.CacheHit {
			s.CacheHits++
		}
		s.TotalUsd += e.CostUsd
	}
	names := make([]string, 0, len(byModel))
	for name := range byModel {
		names = append(names, name)
	}
	sort.Strings(names)
	out := make([]models.UsageSummary, 0, len(names))
	for _, name := range names {
		out = append(out, *byModel[name])
	}
	return out, nil
}

// Close is a no-op for the memory store.
func (m *Memory) Close() error {
	return nil
}
