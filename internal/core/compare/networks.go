package compare

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/agenthands/nexus/internal/core/model"
	"go.uber.org/zap"
)

const OpNetworks = "detect_networks"

// DetectNetworks groups records of class that are tied together by direct
// edges or by shared infrastructure: addresses, officers, directors,
// shareholders and formation agents. Groups come from the network detector,
// label propagation by default, so a single bridging record does not merge
// two dense networks.
func (o *Operator) DetectNetworks(ctx context.Context, class string, filters []string) (*model.CompareResult, error) {
	defer o.observe(OpNetworks, time.Now())

	if class == "" {
		return nil, model.NewConfigurationError(OpNetworks, "a class is required", nil)
	}
	f := ParseFilters(filters)
	vectors, err := o.candidates(ctx, OpNetworks, class, f, nil)
	if err != nil {
		return nil, err
	}

	ids := make([]string, len(vectors))
	for i, v := range vectors {
		ids[i] = v.NodeID
	}
	groups := o.networks.Detect(ids, networkEdges(vectors))
	o.logger.Debug("networks detected", zap.String("class", class), zap.Int("vectors", len(vectors)), zap.Int("networks", len(groups)))

	return &model.CompareResult{
		Operation:      OpNetworks,
		Groups:         groups,
		AppliedFilters: f.Applied,
		IgnoredFilters: f.Ignored,
	}, nil
}

// networkEdges links every pair of vectors that share a key, once per
// shared key, plus every direct connection.
func networkEdges(vectors []*model.SimilarityVector) []model.Edge {
	var edges []model.Edge
	members := map[string][]string{}
	for _, v := range vectors {
		for other := range v.ConnectedEntities {
			edges = append(edges, model.Edge{Source: v.NodeID, Target: other, Type: "connected"})
		}
		keys := model.Set{}
		for kind, set := range map[string]model.Set{
			"address":     v.SharedAddresses,
			"officer":     v.SharedOfficers,
			"director":    v.SharedDirectors,
			"shareholder": v.SharedShareholders,
		} {
			for item := range set {
				keys.Add(kind + ":" + strings.ToLower(item))
			}
		}
		if agent := strings.ToLower(strings.TrimSpace(v.FormationAgent)); agent != "" {
			keys.Add("agent:" + agent)
		}
		for key := range keys {
			members[key] = append(members[key], v.NodeID)
		}
	}

	keys := make([]string, 0, len(members))
	for k := range members {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, key := range keys {
		ids := members[key]
		for i := range ids {
			for j := i + 1; j < len(ids); j++ {
				edges = append(edges, model.Edge{Source: ids[i], Target: ids[j], Type: key})
			}
		}
	}
	return edges
}
