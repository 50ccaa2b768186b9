// Package budget tracks spend over a rolling window and decides, per
// request, whether the weekly budget allows another paid call. The check is
// advisory and runs against the pre-call estimate; actuals recorded after
// the call may push the window slightly over budget, which is accepted
// slack rather than a violation.
package budget

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/tollgate-ai/tollgate/pkg/config"
	"github.com/tollgate-ai/tollgate/pkg/models"
	"github.com/tollgate-ai/tollgate/pkg/store"
)

// snapshotKey is where the governor persists its window state.
const snapshotKey = "budget/state"

// Governor owns the budget window counters. All mutation goes through its
// mutex; Check reads a consistent snapshot without reserving spend.
type Governor struct {
	mu    sync.Mutex
	state models.BudgetState
	store store.Store
	cron  *cron.Cron

	now func() time.Time
}

// New creates a Governor for the configured weekly budget. Window counters
// come from the persisted snapshot when one exists; otherwise they are
// recomputed from the usage log since the current week boundary.
func New(ctx context.Context, cfg config.BudgetConfig, st store.Store) (*Governor, error) {
	g := &Governor{
		store: st,
		now:   time.Now,
		state: models.BudgetState{
			BudgetUsd:     cfg.WeeklyUsd,
			WarnThreshold: cfg.WarnThreshold,
		},
	}

	raw, err := st.Get(ctx, snapshotKey)
	switch {
	case err == nil:
		var snap models.BudgetState
		if err := json.Unmarshal(raw, &snap); err != nil {
			return nil, fmt.Errorf("decode budget snapshot: %w", err)
		}
		boundary := weekStart(g.now().UTC())
		if snap.WindowStart.Before(boundary) {
			// The snapshot belongs to a previous window: the scheduled
			// reset could not fire while the process was down. Open the
			// current window at the boundary and rebuild from the log.
			g.state.WindowStart = boundary
			if err := g.recompute(ctx); err != nil {
				return nil, err
			}
			g.persist(ctx, g.state)
		} else {
			// Configuration always wins over the snapshot for limits.
			g.state.WindowStart = snap.WindowStart
			g.state.WindowUsd = snap.WindowUsd
			g.state.TotalQueries = snap.TotalQueries
		}
	case errors.Is(err, store.ErrNotFound):
		g.state.WindowStart = weekStart(g.now().UTC())
		if err := g.recompute(ctx); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("load budget snapshot: %w", err)
	}

	return g, nil
}

// recompute rebuilds window counters from the append-only usage log.
// Cache hits in the log are audit rows, not spend, and are skipped.
func (g *Governor) recompute(ctx context.Context) error {
	entries, err := g.store.UsageSince(ctx, g.state.WindowStart)
	if err != nil {
		return fmt.Errorf("recompute budget window: %w", err)
	}
	for _, e := range entries {
		if e.CacheHit {
			continue
		}
		g.state.WindowUsd += e.CostUsd
		g.state.TotalQueries++
	}
	return nil
}

// Check reports whether a call with the given estimated cost may proceed.
// It never mutates state. A missing or zero budget fails closed.
func (g *Governor) Check(estimatedUsd float64) models.BudgetDecision {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.state.BudgetUsd <= 0 {
		return models.BudgetDecision{Allowed: false}
	}

	projected := g.state.WindowUsd + estimatedUsd
	remaining := g.state.BudgetUsd - g.state.WindowUsd
	if remaining < 0 {
		remaining = 0
	}
	percent := g.state.WindowUsd / g.state.BudgetUsd * 100

	if projected > g.state.BudgetUsd {
		return models.BudgetDecision{
			Allowed:      false,
			RemainingUsd: remaining,
			PercentUsed:  percent,
		}
	}
	return models.BudgetDecision{
		Allowed:      true,
		Warning:      projected > g.state.BudgetUsd*g.state.WarnThreshold,
		RemainingUsd: remaining,
		PercentUsed:  percent,
	}
}

// RecordUsage adds the actual cost of a completed paid call to the window
// and appends the audit row. Persistence failures degrade to a warning log;
// the in-memory counters are always updated. The snapshot write happens
// under the mutex: a slower concurrent recording must not land its older,
// undercounting snapshot after a newer one.
func (g *Governor) RecordUsage(ctx context.Context, requestID, modelID string, actualUsd float64) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.state.WindowUsd += actualUsd
	g.state.TotalQueries++

	entry := models.UsageLogEntry{
		RequestID: requestID,
		Model:     modelID,
		CostUsd:   actualUsd,
		CacheHit:  false,
		CreatedAt: g.now().UTC(),
	}
	if err := g.store.AppendUsage(ctx, entry); err != nil {
		log.Printf("budget: append usage log: %v (audit degraded)", err)
	}
	g.persist(ctx, g.state)
}

// ResetWindow zeroes the window counters and starts a new window now.
// Budget configuration is preserved. Calling it twice is a harmless no-op
// reset; counters never go negative.
func (g *Governor) ResetWindow() {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.state.WindowUsd = 0
	g.state.TotalQueries = 0
	g.state.WindowStart = g.now().UTC()

	log.Printf("budget: window reset, %.2f USD available", g.state.BudgetUsd)
	g.persist(context.Background(), g.state)
}

// ScheduleReset arranges ResetWindow to run on the given cron schedule
// (typically weekly). Close stops the schedule.
func (g *Governor) ScheduleReset(spec string) error {
	c := cron.New()
	if _, err := c.AddFunc(spec, g.ResetWindow); err != nil {
		return fmt.Errorf("budget reset schedule %q: %w", spec, err)
	}
	c.Start()
	g.cron = c
	return nil
}

// State returns a copy of the current window state.
func (g *Governor) State() models.BudgetState {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state
}

// Close stops the scheduled reset, if any.
func (g *Governor) Close() {
	if g.cron != nil {
		ctx := g.cron.Stop()
		<-ctx.Done()
	}
}

func (g *Governor) persist(ctx context.Context, snap models.BudgetState) {
	raw, err := json.Marshal(snap)
	if err != nil {
		log.Printf("budget: encode snapshot: %v", err)
		return
	}
	if err := g.store.Set(ctx, snapshotKey, raw); err != nil {
		log.Printf("budget: persist snapshot: %v (will recompute from log on restart)", err)
	}
}

// weekStart returns the most recent Monday 00:00 UTC at or before t.
func weekStart(t time.Time) time.Time {
	t = t.UTC()
	days := (int(t.Weekday()) + 6) % 7 // Monday=0
	day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	return day.AddDate(0, 0, -days)
}
