package models

// Task is one unit of work submitted to the dispatcher.
type Task struct {
	Text    string      `json:"text"`
	Labels  []string    `json:"labels,omitempty"`
	Options TaskOptions `json:"options,omitempty"`
}

// TaskOptions tune the paid call made for a task. Zero values mean defaults.
type TaskOptions struct {
	MaxOutputTokens int      `json:"max_output_tokens,omitempty"`
	SearchQueries   int      `json:"search_queries,omitempty"`
	Temperature     *float64 `json:"temperature,omitempty"`
}

// InvokeResult is what the inference-client collaborator returns on success,
// with the actual token counts billed by the provider.
type InvokeResult struct {
	Content      string `json:"content"`
	InputTokens  int    `json:"input_tokens"`
	OutputTokens int    `json:"output_tokens"`
}

// DispatchResult is the dispatcher's answer for a task. A budget rejection
// is a well-formed result with Allowed=false, never an error.
type DispatchResult struct {
	RequestID    string  `json:"request_id"`
	Allowed      bool    `json:"allowed"`
	Reason       string  `json:"reason,omitempty"`
	CacheHit     bool    `json:"cache_hit"`
	Content      string  `json:"content,omitempty"`
	Model        string  `json:"model,omitempty"`
	Tier         Tier    `json:"tier"`
	CostUsd      float64 `json:"cost_usd"`
	RemainingUsd float64 `json:"remaining_usd"`
	Warning      bool    `json:"warning,omitempty"`
}
