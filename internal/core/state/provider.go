// Package state defines how the core reads records from the surrounding
// platform.
package state

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/agenthands/nexus/internal/core/model"
)

// Provider is the read side of the entity graph. Retry, timeout and
// latency policy belong to the implementation.
type Provider interface {
	// GetNode returns nil, nil when the node does not exist.
	GetNode(ctx context.Context, id string) (*model.Record, error)
	GetNodesByClass(ctx context.Context, class string) ([]model.Record, error)
	GetConnectedNodeIDs(ctx context.Context, id string) (model.Set, error)
	HasEdge(ctx context.Context, a, b string) (bool, error)
}

// RepelReader lists the ids a node was resolved as NOT_SAME_AS. Providers
// that implement it let searches skip pairs already repelled.
type RepelReader interface {
	GetRepelledNodeIDs(ctx context.Context, id string) (model.Set, error)
}

// Writer upserts records by node id, together with their edges.
type Writer interface {
	SaveRecords(ctx context.Context, records ...model.Record) error
}

// MemoryProvider serves a fixed snapshot of records. Edges are taken from
// each record's edge list and treated as undirected.
type MemoryProvider struct {
	mu      sync.RWMutex
	records  map[string]model.Record
	adj      map[string]model.Set
	repelled map[string]model.Set
}

// NewMemoryProvider indexes records by node id. Later duplicates win.
func NewMemoryProvider(records ...model.Record) *MemoryProvider {
	p := &MemoryProvider{
		records:  make(map[string]model.Record, len(records)),
		adj:      make(map[string]model.Set),
		repelled: make(map[string]model.Set),
	}
	for _, r := range records {
		p.Put(r)
	}
	return p
}

// Put adds or replaces a record.
func (p *MemoryProvider) Put(r model.Record) {
	if r.NodeID == "" {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.records[r.NodeID] = r
	for _, e := range r.Edges {
		p.link(e.Source, e.Target)
	}
}

// SaveRecords puts every record. A record without a node id rejects the
// whole batch.
func (p *MemoryProvider) SaveRecords(_ context.Context, records ...model.Record) error {
	for _, r := range records {
		if r.NodeID == "" {
			return &model.DataError{Field: "node_id", Err: model.ErrMissingNodeID}
		}
	}
	for _, r := range records {
		p.Put(r)
	}
	return nil
}

// AddEdge records an undirected edge between two ids.
func (p *MemoryProvider) AddEdge(a, b string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.link(a, b)
}

// AddRepel records that a and b were resolved as different entities. It is
// not a connection.
func (p *MemoryProvider) AddRepel(a, b string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	pair(p.repelled, a, b)
}

func (p *MemoryProvider) link(a, b string) {
	pair(p.adj, a, b)
}

func pair(m map[string]model.Set, a, b string) {
	if a == "" || b == "" || a == b {
		return
	}
	if m[a] == nil {
		m[a] = model.Set{}
	}
	if m[b] == nil {
		m[b] = model.Set{}
	}
	m[a].Add(b)
	m[b].Add(a)
}

func (p *MemoryProvider) GetNode(_ context.Context, id string) (*model.Record, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	r, ok := p.records[id]
	if !ok {
		return nil, nil
	}
	return &r, nil
}

// GetNodesByClass matches class against the record's class or entity type,
// case-insensitively. Results are ordered by node id.
func (p *MemoryProvider) GetNodesByClass(_ context.Context, class string) ([]model.Record, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	var out []model.Record
	for _, r := range p.records {
		if strings.EqualFold(r.Class, class) || strings.EqualFold(r.EntityType, class) {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].NodeID < out[j].NodeID })
	return out, nil
}

func (p *MemoryProvider) GetConnectedNodeIDs(_ context.Context, id string) (model.Set, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.adj[id].Union(nil), nil
}

func (p *MemoryProvider) HasEdge(_ context.Context, a, b string) (bool, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.adj[a].Has(b), nil
}

func (p *MemoryProvider) GetRepelledNodeIDs(_ context.Context, id string) (model.Set, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.repelled[id].Union(nil), nil
}
