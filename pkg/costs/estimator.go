// Package costs converts token counts and model pricing into dollar
// estimates. Estimation is deliberately deterministic: a fixed
// 4-characters-per-token heuristic instead of an external tokenizer.
package costs

import (
	"fmt"

	"github.com/tollgate-ai/tollgate/pkg/models"
)

// charsPerToken is the fixed token estimation heuristic.
const charsPerToken = 4

// defaultOutputTokens is the conservative output estimate used when the
// caller does not cap output. Calibrating this per model is an open
// followup; 500 has held up as a safe ceiling in practice.
const defaultOutputTokens = 500

// UnknownModelError reports a model id missing from the pricing table.
// This is a configuration or programmer error and must be surfaced before
// any network call is made.
type UnknownModelError struct {
	Model string
}

func (e *UnknownModelError) Error() string {
	return fmt.Sprintf("unknown model %q: not in pricing table", e.Model)
}

// Options tune a single estimate. Zero values mean defaults.
type Options struct {
	MaxOutputTokens int
	SearchQueries   int
}

// Estimator prices candidate calls against a static pricing table.
// It is pure and safe for concurrent use.
type Estimator struct {
	pricing map[string]models.ModelPricing
}

// New builds an Estimator from the configured pricing table.
func New(table []models.ModelPricing) *Estimator {
	pricing := make(map[string]models.ModelPricing, len(table))
	for _, m := range table {
		pricing[m.Model] = m
	}
	return &Estimator{pricing: pricing}
}

// EstimateTokens applies the 4-chars-per-token heuristic, rounding up.
func EstimateTokens(text string) int {
	return (len(text) + charsPerToken - 1) / charsPerToken
}

// Estimate returns the dollar estimate for sending text to a model.
func (e *Estimator) Estimate(text, modelID string, opts Options) (models.CostEstimate, error) {
	inputTokens := EstimateTokens(text)
	outputTokens := opts.MaxOutputTokens
	if outputTokens <= 0 {
		outputTokens = defaultOutputTokens
	}

	usd, err := e.CostForTokens(modelID, inputTokens, outputTokens, opts.SearchQueries)
	if err != nil {
		return models.CostEstimate{}, err
	}

	return models.CostEstimate{
		Model:           modelID,
		EstimatedUsd:    usd,
		InputTokensEst:  inputTokens,
		OutputTokensEst: outputTokens,
	}, nil
}

// CostForTokens prices exact token counts. The dispatcher uses it to
// recompute actual cost from the token counts the provider billed.
func (e *Estimator) CostForTokens(modelID string, inputTokens, outputTokens, searchQueries int) (float64, error) {
	p, ok := e.pricing[modelID]
	if !ok {
		return 0, &UnknownModelError{Model: modelID}
	}

	cost := float64(inputTokens) / 1000 * p.InputCostPer1K / 1000
	cost += float64(outputTokens) / 1000 * p.OutputCostPer1K / 1000
	if p.InferenceCostPer1K > 0 {
		cost += float64(inputTokens) / 1000 * p.InferenceCostPer1K / 1000
	}
	if p.SearchCostPerQuery > 0 && searchQueries > 0 {
		cost += float64(max(1, searchQueries)) * p.SearchCostPerQuery / 1000
	}
	return cost, nil
}

// Pricing returns the pricing row for a model, if configured.
func (e *Estimator) Pricing(modelID string) (models.ModelPricing, bool) {
	p, ok := e.pricing[modelID]
	return p, ok
}

// Cheapest returns the model with the lowest combined per-1K cost.
func (e *Estimator) Cheapest() string {
	var best string
	var bestCost float64
	for id, p := range e.pricing {
		c := p.InputCostPer1K + p.OutputCostPer1K
		if best == "" || c < bestCost || (c == bestCost && id < best) {
			best = id
			bestCost = c
		}
	}
	return best
}
