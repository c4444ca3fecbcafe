package driver

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/agenthands/nexus/internal/core/common"
	"github.com/agenthands/nexus/internal/core/disambiguation"
	"github.com/agenthands/nexus/internal/core/model"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

var _ disambiguation.GraphStore = (*Store)(nil)

// Store writes resolutions to the graph. Every write is a MERGE, so
// replaying a call leaves the graph unchanged. It implements
// disambiguation.GraphStore.
type Store struct {
	driver GraphDriver
	now    func() time.Time
}

func NewStore(d GraphDriver) *Store {
	return &Store{driver: d, now: time.Now}
}

func (s *Store) ClaimResolution(ctx context.Context, key string, action model.Verdict, reason string) (bool, error) {
	res, err := s.driver.ExecuteQuery(ctx, ClaimResolutionQuery, map[string]any{
		"key":        key,
		"action":     string(action),
		"reason":     reason,
		"created_at": s.timestamp(),
	})
	if err != nil {
		return false, fmt.Errorf("failed to claim resolution %s: %w", key, err)
	}
	if len(res.Records) == 0 {
		return false, fmt.Errorf("failed to claim resolution %s: no ledger row returned", key)
	}
	v, _ := res.Records[0].Get("fresh")
	fresh, _ := v.(bool)
	return fresh, nil
}

func (s *Store) ReleaseClaim(ctx context.Context, key string) error {
	if _, err := s.driver.ExecuteQuery(ctx, ReleaseClaimQuery, map[string]any{"key": key}); err != nil {
		return fmt.Errorf("failed to release resolution %s: %w", key, err)
	}
	return nil
}

// MergeNodes writes the representative node and links both sources to it
// with MERGED_INTO.
func (s *Store) MergeNodes(ctx context.Context, merged disambiguation.MergedRecord, reason string) error {
	props := merged.Properties()

	attrs := map[string]any{}
	for field, p := range merged.Fields {
		if key, ok := strings.CutPrefix(field, "attributes."); ok {
			attrs[key] = p.Value
		}
	}
	encoded, err := common.EncodeAttributes(attrs)
	if err != nil {
		return err
	}
	props["attributes"] = encoded

	res, err := s.driver.ExecuteQuery(ctx, MergeNodesQuery, map[string]any{
		"node_id":     merged.NodeID,
		"props":       props,
		"merged_from": merged.MergedFrom,
		"reason":      reason,
		"created_at":  s.timestamp(),
	})
	if err != nil {
		return fmt.Errorf("failed to merge %s: %w", strings.Join(merged.MergedFrom, ", "), err)
	}
	if n := count(res, "merged"); n < int64(len(merged.MergedFrom)) {
		return fmt.Errorf("merged %d of %d source nodes into %s", n, len(merged.MergedFrom), merged.NodeID)
	}
	return nil
}

func (s *Store) CreateNegativeEdge(ctx context.Context, a, b, reason string) error {
	return s.pairEdge(ctx, CreateNotSameAsQuery, model.EdgeNotSameAs, a, b, reason)
}

func (s *Store) CreateRelatedEdge(ctx context.Context, a, b, reason string) error {
	return s.pairEdge(ctx, CreateRelatedButDistinctQuery, model.EdgeRelatedButDistinct, a, b, reason)
}

func (s *Store) pairEdge(ctx context.Context, query, edgeType, a, b, reason string) error {
	if b < a {
		a, b = b, a
	}
	res, err := s.driver.ExecuteQuery(ctx, query, map[string]any{
		"a":          a,
		"b":          b,
		"reason":     reason,
		"created_at": s.timestamp(),
	})
	if err != nil {
		return fmt.Errorf("failed to create %s edge %s-%s: %w", edgeType, a, b, err)
	}
	if count(res, "edges") == 0 {
		return fmt.Errorf("failed to create %s edge %s-%s: %w", edgeType, a, b, model.ErrNodeNotFound)
	}
	return nil
}

// SaveRecords upserts records as :Entity nodes, then their edges, so edges
// between records of the same batch resolve.
func (s *Store) SaveRecords(ctx context.Context, records ...model.Record) error {
	for _, r := range records {
		if r.NodeID == "" {
			return &model.DataError{Field: "node_id", Err: model.ErrMissingNodeID}
		}
		props, err := recordProps(r)
		if err != nil {
			return fmt.Errorf("failed to encode %s: %w", r.NodeID, err)
		}
		if _, err := s.driver.ExecuteQuery(ctx, SaveEntityQuery, map[string]any{"node_id": r.NodeID, "props": props}); err != nil {
			return fmt.Errorf("failed to save node %s: %w", r.NodeID, err)
		}
	}
	for _, r := range records {
		for _, e := range r.Edges {
			if e.Source == "" || e.Target == "" || e.Source == e.Target {
				continue
			}
			edgeType := e.Type
			if edgeType == "" {
				edgeType = "related"
			}
			params := map[string]any{"source": e.Source, "target": e.Target, "type": edgeType}
			if _, err := s.driver.ExecuteQuery(ctx, SaveRelationQuery, params); err != nil {
				return fmt.Errorf("failed to save edge %s-%s: %w", e.Source, e.Target, err)
			}
		}
	}
	return nil
}

func (s *Store) timestamp() string {
	return s.now().UTC().Format(time.RFC3339)
}

// count reads an integer column from the first row; no rows count as 0.
func count(res neo4j.EagerResult, key string) int64 {
	if len(res.Records) == 0 {
		return 0
	}
	v, _ := res.Records[0].Get(key)
	n, _ := v.(int64)
	return n
}
