package models

import "fmt"

// Tier is a discrete task-complexity classification driving model selection.
type Tier int

const (
	TierSimple Tier = iota
	TierModerate
	TierComplex
	TierExpert
)

// Tiers lists all tiers from simplest to most complex.
var Tiers = []Tier{TierSimple, TierModerate, TierComplex, TierExpert}

func (t Tier) String() string {
	switch t {
	case TierSimple:
		return "simple"
	case TierModerate:
		return "moderate"
	case TierComplex:
		return "complex"
	case TierExpert:
		return "expert"
	default:
		return fmt.Sprintf("tier(%d)", int(t))
	}
}

// ParseTier converts a config string into a Tier.
func ParseTier(s string) (Tier, error) {
	switch s {
	case "simple":
		return TierSimple, nil
	case "moderate":
		return TierModerate, nil
	case "complex":
		return TierComplex, nil
	case "expert":
		return TierExpert, nil
	}
	return 0, fmt.Errorf("unknown tier %q", s)
}

// MarshalText implements encoding.TextMarshaler so tiers serialize as names.
func (t Tier) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (t *Tier) UnmarshalText(b []byte) error {
	parsed, err := ParseTier(string(b))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// ComplexityAssessment is the classifier's verdict for a single task.
// It is produced per request and never persisted.
type ComplexityAssessment struct {
	Tier             Tier     `json:"tier"`
	Score            int      `json:"score"`
	RecommendedModel string   `json:"recommended_model"`
	Reasons          []string `json:"reasons"`
}
