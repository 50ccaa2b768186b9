package models

import "time"

// BudgetState is the spend counter for the current window. Only the
// budget.Governor mutates it; WindowUsd equals the sum of all recorded
// usage since WindowStart.
type BudgetState struct {
	WindowStart   time.Time `json:"window_start"`
	WindowUsd     float64   `json:"window_usd"`
	TotalQueries  int       `json:"total_queries"`
	BudgetUsd     float64   `json:"budget_usd"`
	WarnThreshold float64   `json:"warn_threshold"`
}

// BudgetDecision is the advisory outcome of a pre-call budget check.
// It is computed against the estimate, never the eventual actual cost.
type BudgetDecision struct {
	Allowed      bool    `json:"allowed"`
	Warning      bool    `json:"warning"`
	RemainingUsd float64 `json:"remaining_usd"`
	PercentUsed  float64 `json:"percent_used"`
}
