// Package store is the persistence collaborator for the cache layer and the
// budget governor: a small key/value surface for snapshots and cache entries
// plus an append-only usage log for audit and restart recovery.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/tollgate-ai/tollgate/pkg/models"
)

// ErrNotFound is returned by Get when a key has never been set or was deleted.
var ErrNotFound = errors.New("store: key not found")

// Store is implemented by all persistence backends. Implementations must be
// safe for concurrent use.
type Store interface {
	// Get returns the value for a key, or ErrNotFound.
	Get(ctx context.Context, key string) ([]byte, error)
	// Set upserts a value.
	Set(ctx context.Context, key string, value []byte) error
	// Delete removes a key. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error
	// CountPrefix returns the number of keys with the given prefix.
	CountPrefix(ctx context.Context, prefix string) (int64, error)
	// DeletePrefix removes all keys with the given prefix.
	DeletePrefix(ctx context.Context, prefix string) error

	// AppendUsage appends one row to the usage log.
	AppendUsage(ctx context.Context, entry models.UsageLogEntry) error
	// UsageSince returns usage entries recorded at or after the given time,
	// oldest first.
	UsageSince(ctx context.Context, since time.Time) ([]models.UsageLogEntry, error)
	// RecentUsage returns the newest usage entries, newest first.
	RecentUsage(ctx context.Context, limit int) ([]models.UsageLogEntry, error)
	// UsageSummary aggregates the usage log per model.
	UsageSummary(ctx context.Context) ([]models.UsageSummary, error)

	// Close releases resources.
	Close() error
}
