package community

import (
	"sort"

	"github.com/agenthands/nexus/internal/core/model"
)

// LabelPropagationDetector splits a graph into densely linked groups.
// Every node starts with its own label and repeatedly adopts the label
// most common among its neighbours, weighted by edge multiplicity. Nodes
// are visited in id order and a node keeps its label when it is among the
// most common; otherwise the largest label wins. The result is therefore
// deterministic.
type LabelPropagationDetector struct {
	MaxIterations int
	// Groups smaller than MinSize are dropped.
	MinSize int
}

func NewLabelPropagationDetector(minSize int) *LabelPropagationDetector {
	return &LabelPropagationDetector{
		MaxIterations: 20,
		MinSize:       minSize,
	}
}

func (d *LabelPropagationDetector) Detect(ids []string, edges []model.Edge) [][]string {
	nodes := model.NewSet(ids...).Sorted()
	if len(nodes) == 0 {
		return nil
	}

	adj := make(map[string]map[string]int, len(nodes))
	labels := make(map[string]string, len(nodes))
	for _, id := range nodes {
		adj[id] = map[string]int{}
		labels[id] = id
	}
	for _, e := range edges {
		if adj[e.Source] == nil || adj[e.Target] == nil || e.Source == e.Target {
			continue
		}
		adj[e.Source][e.Target]++
		adj[e.Target][e.Source]++
	}

	for iter := 0; iter < d.MaxIterations; iter++ {
		changed := 0
		for _, u := range nodes {
			if len(adj[u]) == 0 {
				continue
			}
			weight := map[string]int{}
			best := 0
			for v, w := range adj[u] {
				weight[labels[v]] += w
				if weight[labels[v]] > best {
					best = weight[labels[v]]
				}
			}
			if weight[labels[u]] == best {
				continue
			}
			var top string
			for label, w := range weight {
				if w == best && label > top {
					top = label
				}
			}
			labels[u] = top
			changed++
		}
		if changed == 0 {
			break
		}
	}

	byLabel := map[string][]string{}
	for _, id := range nodes {
		byLabel[labels[id]] = append(byLabel[labels[id]], id)
	}
	groups := make([][]string, 0, len(byLabel))
	for _, g := range byLabel {
		if len(g) >= d.MinSize {
			groups = append(groups, g)
		}
	}
	sortGroups(groups)
	return groups
}

// sortGroups orders groups by size, then by first id. Members must already
// be sorted.
func sortGroups(groups [][]string) {
	sort.SliceStable(groups, func(i, j int) bool {
		if len(groups[i]) != len(groups[j]) {
			return len(groups[i]) > len(groups[j])
		}
		return groups[i][0] < groups[j][0]
	})
}
