package similarity

import (
	"runtime"

	"github.com/agenthands/nexus/internal/core/model"
)

// Weights holds the per-dimension weights. A zero weight disables the
// dimension.
type Weights struct {
	EntityType        float64 `toml:"entity_type"`        // default: 0.10
	Name              float64 `toml:"name"`               // default: 0.15
	Attributes        float64 `toml:"attributes"`         // default: 0.15
	Topics            float64 `toml:"topics"`             // default: 0.10
	Jurisdictions     float64 `toml:"jurisdictions"`      // default: 0.15
	Sources           float64 `toml:"sources"`            // default: 0.05
	TimeOverlap       float64 `toml:"time_overlap"`       // default: 0.10
	SharedConnections float64 `toml:"shared_connections"` // default: 0.20
}

// Of returns the weight of the named dimension.
func (w Weights) Of(dim string) float64 {
	switch dim {
	case model.DimEntityType:
		return w.EntityType
	case model.DimName:
		return w.Name
	case model.DimAttributes:
		return w.Attributes
	case model.DimTopics:
		return w.Topics
	case model.DimJurisdictions:
		return w.Jurisdictions
	case model.DimSources:
		return w.Sources
	case model.DimTimeOverlap:
		return w.TimeOverlap
	case model.DimSharedConnections:
		return w.SharedConnections
	}
	return 0
}

func (w Weights) isZero() bool {
	return w == Weights{}
}

// Config holds all configuration for the similarity engine.
type Config struct {
	Weights Weights `toml:"weights"`

	// Dimensions scoring above HighThreshold are reported as high, below
	// LowThreshold as low.
	HighThreshold float64 `toml:"high_threshold"` // default: 0.7
	LowThreshold  float64 `toml:"low_threshold"`  // default: 0.3

	// Workers bounds the goroutines used to score candidates.
	Workers int `toml:"workers"` // default: GOMAXPROCS
}

// DefaultWeights returns the documented dimension weights.
func DefaultWeights() Weights {
	return Weights{
		EntityType:        0.10,
		Name:              0.15,
		Attributes:        0.15,
		Topics:            0.10,
		Jurisdictions:     0.15,
		Sources:           0.05,
		TimeOverlap:       0.10,
		SharedConnections: 0.20,
	}
}

// DefaultConfig returns the default engine configuration.
func DefaultConfig() *Config {
	cfg := &Config{Weights: DefaultWeights()}
	cfg.ApplyDefaults()
	return cfg
}

// ApplyDefaults fills zero values. Weights are only defaulted when every
// weight is zero, so individual dimensions can be switched off.
func (c *Config) ApplyDefaults() {
	if c.Weights.isZero() {
		c.Weights = DefaultWeights()
	}
	if c.HighThreshold == 0 {
		c.HighThreshold = 0.7
	}
	if c.LowThreshold == 0 {
		c.LowThreshold = 0.3
	}
	if c.Workers <= 0 {
		c.Workers = runtime.GOMAXPROCS(0)
	}
}
