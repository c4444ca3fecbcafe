package compare

import "strings"

// Thresholds drive the verdict state machine.
type Thresholds struct {
	Fuse  float64 `toml:"fuse_threshold"`  // default: 0.85
	Repel float64 `toml:"repel_threshold"` // default: 0.30

	// A pair above Fuse is BINARY_STAR instead when shared connections
	// exceed BinaryStarConnections while the name scores below BinaryStarName.
	BinaryStarConnections float64 `toml:"binary_star_connections"` // default: 0.8
	BinaryStarName        float64 `toml:"binary_star_name"`        // default: 0.5

	// Wedges are proposed for INCONCLUSIVE pairs whose name scores above
	// WedgeName, or whose jurisdictions are disjoint.
	WedgeName float64 `toml:"wedge_name_threshold"` // default: 0.5
	MaxWedges int     `toml:"max_wedges"`           // default: 3
}

// Config holds all configuration for the compare operator.
type Config struct {
	Thresholds Thresholds `toml:"thresholds"`

	MinSimilarScore  float64 `toml:"min_similar_score"` // default: 0.2
	ClusterThreshold float64 `toml:"cluster_threshold"` // default: 0.6
	DefaultLimit     int     `toml:"default_limit"`     // default: 10

	// Jurisdictions overrides thresholds for pairs that share exactly one
	// listed jurisdiction. Zero fields inherit from Thresholds.
	Jurisdictions map[string]Thresholds `toml:"jurisdictions"`
}

// DefaultThresholds returns the documented verdict thresholds.
func DefaultThresholds() Thresholds {
	return Thresholds{
		Fuse:                  0.85,
		Repel:                 0.30,
		BinaryStarConnections: 0.8,
		BinaryStarName:        0.5,
		WedgeName:             0.5,
		MaxWedges:             3,
	}
}

// DefaultConfig returns the default operator configuration.
func DefaultConfig() *Config {
	cfg := &Config{}
	cfg.ApplyDefaults()
	return cfg
}

// ApplyDefaults fills zero values.
func (c *Config) ApplyDefaults() {
	c.Thresholds.inherit(DefaultThresholds())
	if c.MinSimilarScore == 0 {
		c.MinSimilarScore = 0.2
	}
	if c.ClusterThreshold == 0 {
		c.ClusterThreshold = 0.6
	}
	if c.DefaultLimit == 0 {
		c.DefaultLimit = 10
	}
	overrides := make(map[string]Thresholds, len(c.Jurisdictions))
	for code, t := range c.Jurisdictions {
		t.inherit(c.Thresholds)
		overrides[strings.ToUpper(strings.TrimSpace(code))] = t
	}
	if len(overrides) > 0 {
		c.Jurisdictions = overrides
	}
}

func (t *Thresholds) inherit(base Thresholds) {
	if t.Fuse == 0 {
		t.Fuse = base.Fuse
	}
	if t.Repel == 0 {
		t.Repel = base.Repel
	}
	if t.BinaryStarConnections == 0 {
		t.BinaryStarConnections = base.BinaryStarConnections
	}
	if t.BinaryStarName == 0 {
		t.BinaryStarName = base.BinaryStarName
	}
	if t.WedgeName == 0 {
		t.WedgeName = base.WedgeName
	}
	if t.MaxWedges == 0 {
		t.MaxWedges = base.MaxWedges
	}
}
