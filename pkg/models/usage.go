package models

import "time"

// UsageLogEntry is one row of the append-only spend audit log. The log is
// the source of truth for recomputing BudgetState on restart when no
// snapshot exists.
type UsageLogEntry struct {
	ID        int64     `json:"id"`
	RequestID string    `json:"request_id"`
	Model     string    `json:"model"`
	CostUsd   float64   `json:"cost_usd"`
	CacheHit  bool      `json:"cache_hit"`
	CreatedAt time.Time `json:"created_at"`
}

// UsageSummary aggregates spend across requests for one model.
type UsageSummary struct {
	Model        string  `json:"model"`
	RequestCount int     `json:"request_count"`
	CacheHits    int     `json:"cache_hits"`
	TotalUsd     float64 `json:"total_usd"`
}
