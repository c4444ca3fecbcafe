// Package similarity scores pairs of similarity vectors and builds top-K
// searches, clusters and bridge searches on top of the pairwise score.
package similarity

import (
	"strings"

	"github.com/agenthands/nexus/internal/core/model"
	"golang.org/x/sync/errgroup"
)

// Engine computes weighted multi-dimensional similarity. It holds no
// mutable state and is safe for concurrent use.
type Engine struct {
	cfg Config

	// score is Compute unless a test replaces it.
	score func(a, b *model.SimilarityVector) *model.SimilarityScore
}

// NewEngine creates an Engine. A nil config uses the defaults.
func NewEngine(cfg *Config) *Engine {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	c := *cfg
	c.ApplyDefaults()
	e := &Engine{cfg: c}
	e.score = e.Compute
	return e
}

// Config returns a copy of the engine configuration.
func (e *Engine) Config() Config {
	return e.cfg
}

// Compute scores a against b. The total is normalized by every positively
// weighted dimension. A dimension with no data on either side scores 0,
// except when a record is compared with itself, where it scores 1. Such
// dimensions never appear in the high or low lists. The result is
// symmetric in a and b.
func (e *Engine) Compute(a, b *model.SimilarityVector) *model.SimilarityScore {
	score := &model.SimilarityScore{Breakdown: make(map[string]float64, len(model.Dimensions))}
	if a == nil || b == nil {
		score.Explanation = "no strong signals"
		return score
	}
	self := a == b || (a.NodeID != "" && a.NodeID == b.NodeID)

	var weighted, total float64
	for _, dim := range model.Dimensions {
		w := e.cfg.Weights.Of(dim)
		if w <= 0 {
			continue
		}
		total += w
		s, ok := dimensionScore(dim, a, b)
		if !ok {
			s = boolScore(self)
			score.Breakdown[dim] = s
			weighted += w * s
			continue
		}
		s = clamp01(s)
		score.Breakdown[dim] = s
		weighted += w * s

		switch {
		case s > e.cfg.HighThreshold:
			score.HighDimensions = append(score.HighDimensions, dim)
		case s < e.cfg.LowThreshold:
			score.LowDimensions = append(score.LowDimensions, dim)
		}
	}
	if total > 0 {
		score.Total = clamp01(weighted / total)
	}
	score.Explanation = explain(score.HighDimensions, score.LowDimensions)
	return score
}

// Total is shorthand for Compute(a, b).Total.
func (e *Engine) Total(a, b *model.SimilarityVector) float64 {
	return e.score(a, b).Total
}

func explain(high, low []string) string {
	var parts []string
	if len(high) > 0 {
		parts = append(parts, "high: "+strings.Join(high, ", "))
	}
	if len(low) > 0 {
		parts = append(parts, "low: "+strings.Join(low, ", "))
	}
	if len(parts) == 0 {
		return "no strong signals"
	}
	return strings.Join(parts, "; ")
}

// parallel runs fn for every index in [0, n) on at most Workers goroutines.
func (e *Engine) parallel(n int, fn func(i int)) {
	var g errgroup.Group
	g.SetLimit(e.cfg.Workers)
	for i := 0; i < n; i++ {
		i := i
		g.Go(func() error {
			fn(i)
			return nil
		})
	}
	_ = g.Wait()
}
