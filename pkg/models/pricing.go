package models

// ModelPricing defines per-1K token costs for a model. SearchCostPerQuery and
// InferenceCostPer1K are optional surcharges; zero means the model has none.
type ModelPricing struct {
	Model              string  `json:"model" yaml:"model"`
	InputCostPer1K     float64 `json:"input_cost_per_1k" yaml:"input_cost_per_1k"`
	OutputCostPer1K    float64 `json:"output_cost_per_1k" yaml:"output_cost_per_1k"`
	SearchCostPerQuery float64 `json:"search_cost_per_query,omitempty" yaml:"search_cost_per_query"`
	InferenceCostPer1K float64 `json:"inference_cost_per_1k,omitempty" yaml:"inference_cost_per_1k"`
}

// CostEstimate is the pre-call dollar estimate for a candidate request.
type CostEstimate struct {
	Model           string  `json:"model"`
	EstimatedUsd    float64 `json:"estimated_usd"`
	InputTokensEst  int     `json:"input_tokens_est"`
	OutputTokensEst int     `json:"output_tokens_est"`
}
