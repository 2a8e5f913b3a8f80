package report

import (
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

// TierBand maps a contiguous score range to a risk tier label. Min and Max are
// inclusive.
type TierBand struct {
	Min   int    `yaml:"min" json:"min"`
	Max   int    `yaml:"max" json:"max"`
	Label string `yaml:"label" json:"label"`
}

// Policy is the configurable aggregation scheme: per-kind chunk weights, the
// score adjustment contributed by each answer, and the tier bands.
type Policy struct {
	ChunkWeights map[string]float64 `yaml:"chunk_weights" json:"chunkWeights"`
	// Round1NoWeight is added to the overall score for every "no" answer in
	// round one. First-round questions are phrased so "yes" reassures;
	// a "no" is a risk-increasing signal.
	Round1NoWeight float64 `yaml:"round1_no_weight" json:"round1NoWeight"`
	// Round2YesWeight is added for every "yes" answer in round two, where
	// follow-ups probe suspected problems and "yes" confirms them.
	Round2YesWeight float64    `yaml:"round2_yes_weight" json:"round2YesWeight"`
	Tiers           []TierBand `yaml:"tiers" json:"tiers"`
}

// DefaultPolicy returns the built-in aggregation policy.
func DefaultPolicy() Policy {
	return Policy{
		ChunkWeights: map[string]float64{
			"company":   1.0,
			"context":   1.0,
			"documents": 1.5,
			"enriched":  0.75,
		},
		Round1NoWeight:  1.5,
		Round2YesWeight: 2.5,
		Tiers: []TierBand{
			{Min: 0, Max: 24, Label: "Low Risk"},
			{Min: 25, Max: 49, Label: "Moderate Risk"},
			{Min: 50, Max: 74, Label: "High Risk"},
			{Min: 75, Max: 100, Label: "Fraudulent"},
		},
	}
}

// LoadPolicy reads a policy from a YAML file, falling back to defaults for
// omitted fields.
func LoadPolicy(path string) (Policy, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Policy{}, fmt.Errorf("read policy file: %w", err)
	}
	policy := DefaultPolicy()
	if err := yaml.Unmarshal(data, &policy); err != nil {
		return Policy{}, fmt.Errorf("parse policy file: %w", err)
	}
	if err := policy.Validate(); err != nil {
		return Policy{}, err
	}
	return policy, nil
}

// Validate checks that weights are usable and the tier bands cover [0,100]
// exactly once.
func (p Policy) Validate() error {
	if len(p.ChunkWeights) == 0 {
		return fmt.Errorf("policy: chunk_weights is empty")
	}
	for kind, w := range p.ChunkWeights {
		if w < 0 {
			return fmt.Errorf("policy: chunk weight for %q is negative", kind)
		}
	}
	if p.Round1NoWeight < 0 || p.Round2YesWeight < 0 {
		return fmt.Errorf("policy: answer weights must be non-negative")
	}
	if len(p.Tiers) == 0 {
		return fmt.Errorf("policy: tiers is empty")
	}
	bands := make([]TierBand, len(p.Tiers))
	copy(bands, p.Tiers)
	sort.Slice(bands, func(i, j int) bool { return bands[i].Min < bands[j].Min })
	next := 0
	for _, band := range bands {
		if band.Label == "" {
			return fmt.Errorf("policy: tier band [%d,%d] has no label", band.Min, band.Max)
		}
		if band.Min != next {
			return fmt.Errorf("policy: tier bands leave a gap or overlap at %d", next)
		}
		if band.Max < band.Min {
			return fmt.Errorf("policy: tier band [%d,%d] is inverted", band.Min, band.Max)
		}
		next = band.Max + 1
	}
	if next != 101 {
		return fmt.Errorf("policy: tier bands must cover scores 0 through 100")
	}
	return nil
}

// TierFor returns the label of the band containing score.
func (p Policy) TierFor(score int) string {
	for _, band := range p.Tiers {
		if score >= band.Min && score <= band.Max {
			return band.Label
		}
	}
	return ""
}
