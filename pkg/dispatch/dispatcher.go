// Package dispatch orchestrates the request pipeline: cache check, complexity
// classification, cost estimation, budget check, the paid call, and finally
// usage recording and cache write. Side effects are confined to cache writes
// and budget mutation; classification and estimation stay pure.
package dispatch

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/tollgate-ai/tollgate/pkg/budget"
	"github.com/tollgate-ai/tollgate/pkg/cache"
	"github.com/tollgate-ai/tollgate/pkg/classify"
	"github.com/tollgate-ai/tollgate/pkg/costs"
	"github.com/tollgate-ai/tollgate/pkg/metrics"
	"github.com/tollgate-ai/tollgate/pkg/models"
	"github.com/tollgate-ai/tollgate/pkg/store"
)

// InvokeOptions tune a single provider call.
type InvokeOptions struct {
	MaxTokens     int
	Temperature   *float64
	SearchQueries int
}

// InferenceClient is the collaborator that performs the paid call.
// Transport, auth, and retry policy are its responsibility.
type InferenceClient interface {
	Invoke(ctx context.Context, modelID string, messages []models.ChatMessage, opts InvokeOptions) (*models.InvokeResult, error)
}

// ProviderError reports an upstream failure. It is retryable by the caller;
// the dispatcher itself never retries and never charges for a failed call.
type ProviderError struct {
	Model    string
	CacheHit bool
	Err      error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("provider call failed (model=%s, cache_hit=%v): %v", e.Model, e.CacheHit, e.Err)
}

func (e *ProviderError) Unwrap() error { return e.Err }

// Dispatcher wires the governor pipeline together.
type Dispatcher struct {
	classifier *classify.Classifier
	estimator  *costs.Estimator
	cache      *cache.Cache // nil disables caching
	governor   *budget.Governor
	client     InferenceClient
	audit      store.Store      // nil disables cache-hit audit rows
	metrics    *metrics.Metrics // nil disables metrics
}

// New creates a Dispatcher wired with all collaborators.
func New(cl *classify.Classifier, est *costs.Estimator, c *cache.Cache, g *budget.Governor, client InferenceClient, audit store.Store, m *metrics.Metrics) *Dispatcher {
	return &Dispatcher{
		classifier: cl,
		estimator:  est,
		cache:      c,
		governor:   g,
		client:     client,
		audit:      audit,
		metrics:    m,
	}
}

// Dispatch runs one task through the pipeline. A budget rejection comes back
// as a structured decline, not an error; an unknown model or provider
// failure comes back as an error and costs nothing.
func (d *Dispatcher) Dispatch(ctx context.Context, task models.Task) (*models.DispatchResult, error) {
	requestID := uuid.NewString()

	key := cache.MakeKey(task.Text, task.Labels)
	if d.cache != nil {
		if payload, ok := d.cache.Lookup(ctx, key); ok {
			d.auditCacheHit(ctx, requestID)
			d.metrics.ObserveOutcome(metrics.OutcomeCacheHit)
			return &models.DispatchResult{
				RequestID: requestID,
				Allowed:   true,
				CacheHit:  true,
				Content:   string(payload),
				CostUsd:   0,
			}, nil
		}
	}

	assessment := d.classifier.Classify(task.Text, task.Labels)

	estimate, err := d.estimator.Estimate(task.Text, assessment.RecommendedModel, costs.Options{
		MaxOutputTokens: task.Options.MaxOutputTokens,
		SearchQueries:   task.Options.SearchQueries,
	})
	if err != nil {
		// Unknown model: config/programmer error, caught before any call.
		d.metrics.ObserveOutcome(metrics.OutcomeFailed)
		return nil, err
	}

	decision := d.governor.Check(estimate.EstimatedUsd)
	if !decision.Allowed {
		d.metrics.ObserveOutcome(metrics.OutcomeRejected)
		return &models.DispatchResult{
			RequestID:    requestID,
			Allowed:      false,
			Reason:       "budget_exceeded",
			Tier:         assessment.Tier,
			Model:        assessment.RecommendedModel,
			RemainingUsd: decision.RemainingUsd,
		}, nil
	}
	if decision.Warning {
		log.Printf("budget warning: %.1f%% of window used, %.4f USD remaining",
			decision.PercentUsed, decision.RemainingUsd)
	}

	messages := []models.ChatMessage{{Role: "user", Content: task.Text}}
	result, err := d.client.Invoke(ctx, assessment.RecommendedModel, messages, InvokeOptions{
		MaxTokens:     estimate.OutputTokensEst,
		Temperature:   task.Options.Temperature,
		SearchQueries: task.Options.SearchQueries,
	})
	if err != nil {
		// No charge for failed or cancelled calls, and nothing enters the cache.
		d.metrics.ObserveOutcome(metrics.OutcomeFailed)
		return nil, &ProviderError{Model: assessment.RecommendedModel, Err: err}
	}

	actualUsd, err := d.estimator.CostForTokens(
		assessment.RecommendedModel, result.InputTokens, result.OutputTokens, task.Options.SearchQueries)
	if err != nil {
		// The model was priced at estimate time; fall back to the estimate.
		actualUsd = estimate.EstimatedUsd
	}

	if d.cache != nil {
		d.cache.Store(ctx, key, []byte(result.Content))
	}
	d.governor.RecordUsage(ctx, requestID, assessment.RecommendedModel, actualUsd)
	d.metrics.ObserveOutcome(metrics.OutcomeCompleted)
	d.metrics.AddSpend(actualUsd)

	return &models.DispatchResult{
		RequestID:    requestID,
		Allowed:      true,
		CacheHit:     false,
		Content:      result.Content,
		Model:        assessment.RecommendedModel,
		Tier:         assessment.Tier,
		CostUsd:      actualUsd,
		RemainingUsd: d.governor.Check(0).RemainingUsd,
		Warning:      decision.Warning,
	}, nil
}

// auditCacheHit appends a zero-cost audit row for a cache hit. The budget
// window is never touched for hits.
func (d *Dispatcher) auditCacheHit(ctx context.Context, requestID string) {
	if d.audit == nil {
		return
	}
	entry := models.UsageLogEntry{
		RequestID: requestID,
		Model:     "(cached)",
		CostUsd:   0,
		CacheHit:  true,
		CreatedAt: time.Now().UTC(),
	}
	if err := d.audit.AppendUsage(ctx, entry); err != nil {
		log.Printf("dispatch: audit cache hit: %v", err)
	}
}
