package driver

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/agenthands/nexus/internal/core/common"
	"github.com/agenthands/nexus/internal/core/model"
	"github.com/agenthands/nexus/internal/core/state"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

var (
	_ state.Provider    = (*Provider)(nil)
	_ state.RepelReader = (*Provider)(nil)
)

// Provider reads records from :Entity nodes. It implements
// state.Provider.
type Provider struct {
	driver GraphDriver
}

func NewProvider(d GraphDriver) *Provider {
	return &Provider{driver: d}
}

func (p *Provider) GetNode(ctx context.Context, id string) (*model.Record, error) {
	res, err := p.driver.ExecuteQuery(ctx, GetNodeQuery, map[string]any{
		"node_id":  id,
		"excluded": nonConnectingEdges,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get node %s: %w", id, err)
	}
	if len(res.Records) == 0 {
		return nil, nil
	}
	rec, err := recordFromRow(res.Records[0])
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

func (p *Provider) GetNodesByClass(ctx context.Context, class string) ([]model.Record, error) {
	res, err := p.driver.ExecuteQuery(ctx, GetNodesByClassQuery, map[string]any{
		"class":    strings.ToLower(strings.TrimSpace(class)),
		"excluded": nonConnectingEdges,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get nodes of class %s: %w", class, err)
	}
	out := make([]model.Record, 0, len(res.Records))
	for _, row := range res.Records {
		rec, err := recordFromRow(row)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, nil
}

func (p *Provider) GetConnectedNodeIDs(ctx context.Context, id string) (model.Set, error) {
	res, err := p.driver.ExecuteQuery(ctx, GetConnectedNodeIDsQuery, map[string]any{
		"node_id":  id,
		"excluded": nonConnectingEdges,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get connections of %s: %w", id, err)
	}
	ids := model.Set{}
	for _, row := range res.Records {
		v, _ := row.Get("node_id")
		ids.Add(str(v))
	}
	return ids, nil
}

func (p *Provider) GetRepelledNodeIDs(ctx context.Context, id string) (model.Set, error) {
	res, err := p.driver.ExecuteQuery(ctx, GetRepelledNodeIDsQuery, map[string]any{"node_id": id})
	if err != nil {
		return nil, fmt.Errorf("failed to get repels of %s: %w", id, err)
	}
	ids := model.Set{}
	for _, row := range res.Records {
		v, _ := row.Get("node_id")
		ids.Add(str(v))
	}
	return ids, nil
}

func (p *Provider) HasEdge(ctx context.Context, a, b string) (bool, error) {
	res, err := p.driver.ExecuteQuery(ctx, HasEdgeQuery, map[string]any{
		"a":        a,
		"b":        b,
		"excluded": nonConnectingEdges,
	})
	if err != nil {
		return false, fmt.Errorf("failed to check edge %s-%s: %w", a, b, err)
	}
	if len(res.Records) == 0 {
		return false, nil
	}
	v, _ := res.Records[0].Get("found")
	found, _ := v.(bool)
	return found, nil
}

// recordFromRow decodes a row with "node" and "edges" columns. Malformed
// optional properties are defaulted.
func recordFromRow(row *neo4j.Record) (model.Record, error) {
	raw, _ := row.Get("node")
	node, ok := raw.(neo4j.Node)
	if !ok {
		return model.Record{}, fmt.Errorf("unexpected node value %T", raw)
	}
	props := node.Props

	r := model.Record{
		NodeID:                    str(props["node_id"]),
		Class:                     str(props["class"]),
		EntityType:                str(props["entity_type"]),
		Name:                      str(props["name"]),
		NameEmbedding:             floats(props["name_embedding"]),
		Topics:                    strs(props["topics"]),
		Industries:                strs(props["industries"]),
		Events:                    strs(props["events"]),
		Jurisdictions:             strs(props["jurisdictions"]),
		Jurisdiction:              str(props["jurisdiction"]),
		Sources:                   strs(props["sources"]),
		Source:                    str(props["source"]),
		FirstSeen:                 str(props["first_seen"]),
		LastSeen:                  str(props["last_seen"]),
		SharedAddresses:           strs(props["shared_addresses"]),
		Officers:                  strs(props["officers"]),
		Directors:                 strs(props["directors"]),
		Shareholders:              strs(props["shareholders"]),
		Companies:                 strs(props["companies"]),
		FormationAgent:            str(props["formation_agent"]),
		RegisteredAgent:           str(props["registered_agent"]),
		CorporateStructure:        str(props["corporate_structure"]),
		IncorporationDate:         str(props["incorporation_date"]),
		IncorporationJurisdiction: str(props["incorporation_jurisdiction"]),
		Roles:                     strs(props["roles"]),
	}
	if r.NodeID == "" {
		return model.Record{}, &model.DataError{Field: "node_id", Err: model.ErrMissingNodeID}
	}

	if attrs, err := common.DecodeAttributes(props["attributes"]); err == nil {
		r.Attributes = attrs
	}
	if s := str(props["presences"]); s != "" {
		var presences []model.Presence
		if err := json.Unmarshal([]byte(s), &presences); err == nil {
			r.Presences = presences
		}
	}

	edges, _ := row.Get("edges")
	list, _ := edges.([]any)
	for _, item := range list {
		m, ok := item.(map[string]any)
		if !ok {
			continue
		}
		target := str(m["target"])
		if target == "" {
			continue
		}
		r.Edges = append(r.Edges, model.Edge{Source: r.NodeID, Target: target, Type: str(m["type"])})
	}
	return r, nil
}

// recordProps is the inverse of recordFromRow for SaveRecords.
func recordProps(r model.Record) (map[string]any, error) {
	attrs, err := common.EncodeAttributes(r.Attributes)
	if err != nil {
		return nil, err
	}
	props := map[string]any{
		"node_id":                    r.NodeID,
		"class":                      r.Class,
		"entity_type":                r.EntityType,
		"name":                       r.Name,
		"attributes":                 attrs,
		"topics":                     nonNil(r.Topics),
		"industries":                 nonNil(r.Industries),
		"events":                     nonNil(r.Events),
		"jurisdictions":              nonNil(r.Jurisdictions),
		"jurisdiction":               r.Jurisdiction,
		"sources":                    nonNil(r.Sources),
		"source":                     r.Source,
		"first_seen":                 r.FirstSeen,
		"last_seen":                  r.LastSeen,
		"shared_addresses":           nonNil(r.SharedAddresses),
		"officers":                   nonNil(r.Officers),
		"directors":                  nonNil(r.Directors),
		"shareholders":               nonNil(r.Shareholders),
		"companies":                  nonNil(r.Companies),
		"formation_agent":            r.FormationAgent,
		"registered_agent":           r.RegisteredAgent,
		"corporate_structure":        r.CorporateStructure,
		"incorporation_date":         r.IncorporationDate,
		"incorporation_jurisdiction": r.IncorporationJurisdiction,
		"roles":                      nonNil(r.Roles),
	}
	if len(r.NameEmbedding) > 0 {
		emb := make([]float64, len(r.NameEmbedding))
		for i, f := range r.NameEmbedding {
			emb[i] = float64(f)
		}
		props["name_embedding"] = emb
	}
	if len(r.Presences) > 0 {
		b, err := json.Marshal(r.Presences)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal presences: %w", err)
		}
		props["presences"] = string(b)
	}
	return props, nil
}

func str(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	}
	return fmt.Sprint(v)
}

func strs(v any) []string {
	switch t := v.(type) {
	case []string:
		return t
	case []any:
		out := make([]string, 0, len(t))
		for _, item := range t {
			if s := str(item); s != "" {
				out = append(out, s)
			}
		}
		return out
	case string:
		if t != "" {
			return []string{t}
		}
	}
	return nil
}

func floats(v any) []float32 {
	list, ok := v.([]any)
	if !ok {
		return nil
	}
	out := make([]float32, 0, len(list))
	for _, item := range list {
		switch f := item.(type) {
		case float64:
			out = append(out, float32(f))
		case int64:
			out = append(out, float32(f))
		default:
			return nil
		}
	}
	return out
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
