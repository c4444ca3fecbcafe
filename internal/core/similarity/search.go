package similarity

import (
	"sort"

	"github.com/agenthands/nexus/internal/core/model"
)

// Options control a top-K search.
type Options struct {
	Limit         int     // 0 means unlimited
	MinScore      float64 // candidates scoring below are dropped
	ExcludeLinked bool    // drop candidates already connected to the target
}

// FindSimilar scores every candidate against target and returns the best
// matches, score-descending with ties broken by node id. The target itself
// is never returned.
func (e *Engine) FindSimilar(target *model.SimilarityVector, candidates []*model.SimilarityVector, opts Options) []model.SimilarMatch {
	if target == nil {
		return nil
	}
	pool := make([]*model.SimilarityVector, 0, len(candidates))
	for _, c := range candidates {
		if c == nil || c.NodeID == target.NodeID {
			continue
		}
		if opts.ExcludeLinked && target.IsLinkedTo(c) {
			continue
		}
		pool = append(pool, c)
	}

	scores := make([]*model.SimilarityScore, len(pool))
	e.parallel(len(pool), func(i int) {
		scores[i] = e.score(target, pool[i])
	})

	matches := make([]model.SimilarMatch, 0, len(pool))
	for i, c := range pool {
		if scores[i].Total < opts.MinScore {
			continue
		}
		matches = append(matches, model.SimilarMatch{NodeID: c.NodeID, Name: c.Name, Score: scores[i]})
	}
	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].Score.Total != matches[j].Score.Total {
			return matches[i].Score.Total > matches[j].Score.Total
		}
		return matches[i].NodeID < matches[j].NodeID
	})
	if opts.Limit > 0 && len(matches) > opts.Limit {
		matches = matches[:opts.Limit]
	}
	return matches
}

// FindBridges returns candidates whose similarity to every target is at
// least minSimilarity, ranked by their weakest link. Targets are never
// returned as bridges.
func (e *Engine) FindBridges(targets, candidates []*model.SimilarityVector, minSimilarity float64, limit int) []model.Bridge {
	if len(targets) == 0 {
		return nil
	}
	targetIDs := model.Set{}
	for _, t := range targets {
		if t != nil {
			targetIDs.Add(t.NodeID)
		}
	}
	pool := make([]*model.SimilarityVector, 0, len(candidates))
	for _, c := range candidates {
		if c != nil && !targetIDs.Has(c.NodeID) {
			pool = append(pool, c)
		}
	}

	perTarget := make([]map[string]float64, len(pool))
	e.parallel(len(pool), func(i int) {
		m := make(map[string]float64, len(targets))
		for _, t := range targets {
			if t == nil {
				continue
			}
			m[t.NodeID] = e.score(pool[i], t).Total
		}
		perTarget[i] = m
	})

	bridges := make([]model.Bridge, 0)
	for i, c := range pool {
		lowest, ok := minValue(perTarget[i])
		if !ok || lowest < minSimilarity {
			continue
		}
		bridges = append(bridges, model.Bridge{
			NodeID:        c.NodeID,
			Name:          c.Name,
			MinSimilarity: lowest,
			PerTarget:     perTarget[i],
		})
	}
	sort.SliceStable(bridges, func(i, j int) bool {
		if bridges[i].MinSimilarity != bridges[j].MinSimilarity {
			return bridges[i].MinSimilarity > bridges[j].MinSimilarity
		}
		return bridges[i].NodeID < bridges[j].NodeID
	})
	if limit > 0 && len(bridges) > limit {
		bridges = bridges[:limit]
	}
	return bridges
}

// Matrix returns the symmetric pairwise similarity matrix of vectors.
func (e *Engine) Matrix(vectors []*model.SimilarityVector) [][]float64 {
	n := len(vectors)
	m := make([][]float64, n)
	for i := range m {
		m[i] = make([]float64, n)
	}
	e.parallel(n, func(i int) {
		m[i][i] = e.score(vectors[i], vectors[i]).Total
		for j := i + 1; j < n; j++ {
			s := e.score(vectors[i], vectors[j]).Total
			m[i][j] = s
			m[j][i] = s
		}
	})
	return m
}

func minValue(m map[string]float64) (float64, bool) {
	first := true
	var lowest float64
	for _, v := range m {
		if first || v < lowest {
			lowest = v
			first = false
		}
	}
	return lowest, !first
}
