package nexus

import "github.com/agenthands/nexus/internal/core/model"

// Significance is reported per intersection state.
type Significance struct {
	ExpectedFound    float64 `toml:"expected_found"`     // default: 0.3
	ExpectedNotFound float64 `toml:"expected_not_found"` // default: 0.7
	UnexpectedFound  float64 `toml:"unexpected_found"`   // default: 0.9
	Unknown          float64 `toml:"unknown"`            // default: 0.1
}

// Of returns the significance of state.
func (s Significance) Of(state model.IntersectionState) float64 {
	switch state {
	case model.ExpectedFound:
		return s.ExpectedFound
	case model.ExpectedNotFound:
		return s.ExpectedNotFound
	case model.UnexpectedFound:
		return s.UnexpectedFound
	}
	return s.Unknown
}

// Config holds all configuration for the evaluator.
type Config struct {
	Significance Significance `toml:"significance"`

	// An expectation counts as expected at or above this confidence.
	ExpectedThreshold float64 `toml:"expected_threshold"` // default: 0.5

	// Confidence of inferred expectations, by rung of the inference ladder.
	InferredRoleConfidence float64 `toml:"inferred_role_confidence"` // default: 0.6
	JurisdictionConfidence float64 `toml:"jurisdiction_confidence"`  // default: 0.4
	BaselineConfidence     float64 `toml:"baseline_confidence"`      // default: 0.2

	DisjointJurisdictionSignificance float64 `toml:"disjoint_jurisdiction_significance"` // default: 0.6

	// Expectations replaces the default expectation table when non-empty.
	Expectations []DefaultExpectation `toml:"expectations"`

	// Categories and SurprisingPairs replace the category tables when
	// non-empty.
	Categories      map[string][]string `toml:"categories"`
	SurprisingPairs []CategoryPair      `toml:"surprising_pairs"`
}

// DefaultConfig returns the default evaluator configuration.
func DefaultConfig() *Config {
	cfg := &Config{}
	cfg.ApplyDefaults()
	return cfg
}

// ApplyDefaults fills zero values.
func (c *Config) ApplyDefaults() {
	if c.Significance.ExpectedFound == 0 {
		c.Significance.ExpectedFound = 0.3
	}
	if c.Significance.ExpectedNotFound == 0 {
		c.Significance.ExpectedNotFound = 0.7
	}
	if c.Significance.UnexpectedFound == 0 {
		c.Significance.UnexpectedFound = 0.9
	}
	if c.Significance.Unknown == 0 {
		c.Significance.Unknown = 0.1
	}
	if c.ExpectedThreshold == 0 {
		c.ExpectedThreshold = 0.5
	}
	if c.InferredRoleConfidence == 0 {
		c.InferredRoleConfidence = 0.6
	}
	if c.JurisdictionConfidence == 0 {
		c.JurisdictionConfidence = 0.4
	}
	if c.BaselineConfidence == 0 {
		c.BaselineConfidence = 0.2
	}
	if c.DisjointJurisdictionSignificance == 0 {
		c.DisjointJurisdictionSignificance = 0.6
	}
	if len(c.Expectations) == 0 {
		c.Expectations = DefaultExpectations()
	}
	if len(c.Categories) == 0 {
		c.Categories = DefaultCategories()
	}
	if len(c.SurprisingPairs) == 0 {
		c.SurprisingPairs = DefaultSurprisingPairs()
	}
}
