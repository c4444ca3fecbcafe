package similarity

import (
	"sort"

	"github.com/agenthands/nexus/internal/core/model"
)

// Cluster groups vectors by agglomerative average-linkage clustering. Every
// vector starts alone; the two clusters with the highest average pairwise
// similarity are merged while that average is at least threshold. Each
// merge scans all cluster pairs, so the cost is O(n²) per merge and the
// input should stay in the low hundreds.
func (e *Engine) Cluster(vectors []*model.SimilarityVector, threshold float64) []model.Cluster {
	n := len(vectors)
	if n == 0 {
		return nil
	}
	sim := e.Matrix(vectors)

	// sums[i][j] holds the summed pairwise similarity between clusters i
	// and j, so the average link is sums/(|i|*|j|).
	sums := make([][]float64, n)
	members := make([][]int, n)
	alive := make([]bool, n)
	for i := range sums {
		sums[i] = append([]float64(nil), sim[i]...)
		members[i] = []int{i}
		alive[i] = true
	}

	remaining := n
	for remaining > 1 {
		bestI, bestJ, best := -1, -1, 0.0
		for i := 0; i < n; i++ {
			if !alive[i] {
				continue
			}
			for j := i + 1; j < n; j++ {
				if !alive[j] {
					continue
				}
				avg := sums[i][j] / float64(len(members[i])*len(members[j]))
				if bestI < 0 || avg > best {
					bestI, bestJ, best = i, j, avg
				}
			}
		}
		if bestI < 0 || best < threshold {
			break
		}

		// Merge j into i.
		for k := 0; k < n; k++ {
			if !alive[k] || k == bestI || k == bestJ {
				continue
			}
			sums[bestI][k] += sums[bestJ][k]
			sums[k][bestI] = sums[bestI][k]
		}
		members[bestI] = append(members[bestI], members[bestJ]...)
		alive[bestJ] = false
		remaining--
	}

	var clusters []model.Cluster
	for i := 0; i < n; i++ {
		if !alive[i] {
			continue
		}
		ids := make([]string, len(members[i]))
		for k, idx := range members[i] {
			ids[k] = vectors[idx].NodeID
		}
		sort.Strings(ids)
		clusters = append(clusters, model.Cluster{Members: ids, Cohesion: cohesion(sim, members[i])})
	}
	sort.SliceStable(clusters, func(i, j int) bool {
		if len(clusters[i].Members) != len(clusters[j].Members) {
			return len(clusters[i].Members) > len(clusters[j].Members)
		}
		return clusters[i].Members[0] < clusters[j].Members[0]
	})
	return clusters
}

// cohesion is the average pairwise similarity inside a cluster. A singleton
// is perfectly cohesive.
func cohesion(sim [][]float64, idx []int) float64 {
	if len(idx) < 2 {
		return 1
	}
	var sum float64
	pairs := 0
	for a := 0; a < len(idx); a++ {
		for b := a + 1; b < len(idx); b++ {
			sum += sim[idx[a]][idx[b]]
			pairs++
		}
	}
	return sum / float64(pairs)
}
