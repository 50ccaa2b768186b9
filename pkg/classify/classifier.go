// Package classify scores task descriptions into complexity tiers and picks
// the model tier that should serve them. Classification is a pure function
// over the configured keyword/threshold tables: identical input always yields
// an identical assessment.
package classify

import (
	"fmt"
	"strings"

	"github.com/tollgate-ai/tollgate/pkg/config"
	"github.com/tollgate-ai/tollgate/pkg/models"
)

const (
	keywordPoints = 10
	criticalBonus = 20
	featureBonus  = 10
	bugBonus      = 5
	lengthBonus   = 5
)

// Classifier holds the per-tier keyword tables. It performs no I/O and is
// safe for concurrent use.
type Classifier struct {
	tiers config.TierTable
}

// New creates a Classifier from a validated tier table.
func New(tiers config.TierTable) *Classifier {
	return &Classifier{tiers: tiers}
}

// Classify scores the task against every tier and returns the winning
// assessment. Ties resolve to the simpler tier to bias toward cost savings;
// when no tier qualifies the task defaults to Simple.
func (c *Classifier) Classify(text string, labels []string) models.ComplexityAssessment {
	if strings.TrimSpace(text) == "" && len(labels) == 0 {
		return models.ComplexityAssessment{
			Tier:             models.TierSimple,
			Score:            0,
			RecommendedModel: c.tiers.Simple.Model,
			Reasons:          []string{"no signal, defaulting to simple"},
		}
	}

	haystack := strings.ToLower(text)
	lowered := make([]string, len(labels))
	for i, l := range labels {
		lowered[i] = strings.ToLower(l)
	}
	if len(lowered) > 0 {
		haystack += " " + strings.Join(lowered, " ")
	}

	var (
		found      bool
		bestTier   models.Tier
		bestScore  int
		bestReason []string
	)

	for _, tier := range models.Tiers {
		tc := c.tiers.For(tier)
		score, reasons := c.score(tc, haystack, lowered, len(text))
		if score < tc.MinScore/2 {
			continue
		}
		// Strict comparison: on a tie the earlier (simpler) tier stays.
		if !found || score > bestScore {
			found = true
			bestTier = tier
			bestScore = score
			bestReason = reasons
		}
	}

	if !found {
		return models.ComplexityAssessment{
			Tier:             models.TierSimple,
			Score:            0,
			RecommendedModel: c.tiers.Simple.Model,
			Reasons:          []string{"no tier qualified, defaulting to simple"},
		}
	}

	return models.ComplexityAssessment{
		Tier:             bestTier,
		Score:            bestScore,
		RecommendedModel: c.tiers.For(bestTier).Model,
		Reasons:          bestReason,
	}
}

func (c *Classifier) score(tc config.TierConfig, haystack string, labels []string, textLen int) (int, []string) {
	var score int
	var reasons []string

	var matched []string
	for _, kw := range tc.Keywords {
		if strings.Contains(haystack, kw) {
			matched = append(matched, kw)
		}
	}
	if len(matched) > 0 {
		score += keywordPoints * len(matched)
		reasons = append(reasons, fmt.Sprintf("matched %d keyword(s): %s", len(matched), strings.Join(matched, ", ")))
	}

	if hasLabel(labels, "critical") || hasLabel(labels, "urgent") {
		score += criticalBonus
		reasons = append(reasons, fmt.Sprintf("critical/urgent label (+%d)", criticalBonus))
	}
	if hasLabel(labels, "feature") {
		score += featureBonus
		reasons = append(reasons, fmt.Sprintf("feature label (+%d)", featureBonus))
	}
	if hasLabel(labels, "bug") {
		score += bugBonus
		reasons = append(reasons, fmt.Sprintf("bug label (+%d)", bugBonus))
	}
	if tc.MaxLength > 0 && textLen > tc.MaxLength/2 {
		score += lengthBonus
		reasons = append(reasons, fmt.Sprintf("text length %d exceeds half of %d (+%d)", textLen, tc.MaxLength, lengthBonus))
	}

	return score, reasons
}

func hasLabel(labels []string, want string) bool {
	for _, l := range labels {
		if l == want {
			return true
		}
	}
	return false
}
