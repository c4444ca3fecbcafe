// Package community groups nodes that verdicts tie together.
package community

import (
	"sort"

	"github.com/agenthands/nexus/internal/core/model"
)

// Detector partitions ids into groups over edges. Implementations return
// each group sorted and ignore edges touching unknown ids.
type Detector interface {
	Detect(ids []string, edges []model.Edge) [][]string
}

// ComponentDetector finds connected components of an undirected graph.
type ComponentDetector struct {
	// Components smaller than MinSize are dropped.
	MinSize int
}

func NewComponentDetector(minSize int) *ComponentDetector {
	return &ComponentDetector{MinSize: minSize}
}

// Detect returns each component's ids sorted, components ordered by size and
// then by first id. Edges touching unknown ids are ignored.
func (d *ComponentDetector) Detect(ids []string, edges []model.Edge) [][]string {
	known := make(map[string]bool, len(ids))
	for _, id := range ids {
		known[id] = true
	}

	adj := make(map[string][]string)
	for _, e := range edges {
		if !known[e.Source] || !known[e.Target] {
			continue
		}
		adj[e.Source] = append(adj[e.Source], e.Target)
		adj[e.Target] = append(adj[e.Target], e.Source)
	}

	visited := make(map[string]bool)
	var groups [][]string
	for _, id := range ids {
		if visited[id] {
			continue
		}
		var component []string
		d.dfs(id, adj, visited, &component)
		if len(component) < d.MinSize {
			continue
		}
		sort.Strings(component)
		groups = append(groups, component)
	}

	sortGroups(groups)
	return groups
}

func (d *ComponentDetector) dfs(u string, adj map[string][]string, visited map[string]bool, component *[]string) {
	visited[u] = true
	*component = append(*component, u)
	for _, v := range adj[u] {
		if !visited[v] {
			d.dfs(v, adj, visited, component)
		}
	}
}

// IdentityGroups returns the sets of ids that FUSE verdicts tie together.
// Every id appears in exactly one group; unfused ids are singletons.
func IdentityGroups(ids []string, pairs []model.PairComparison) [][]string {
	var edges []model.Edge
	for _, p := range pairs {
		if p.Verdict == model.VerdictFuse {
			edges = append(edges, model.Edge{Source: p.A, Target: p.B, Type: string(model.VerdictFuse)})
		}
	}
	return identity.Detect(ids, edges)
}

var identity Detector = NewComponentDetector(1)
