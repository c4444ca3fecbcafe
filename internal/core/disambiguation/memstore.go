package disambiguation

import (
	"context"
	"sync"

	"github.com/agenthands/nexus/internal/core/model"
)

// MemoryStore is a GraphStore kept in process memory. It backs the server
// when no graph database is configured.
type MemoryStore struct {
	mu     sync.Mutex
	claims map[string]model.Verdict
	Merged map[string]MergedRecord
	Edges  []model.Edge
	repels RepelRecorder
}

// RepelRecorder is told about every NOT_SAME_AS edge a MemoryStore creates.
type RepelRecorder interface {
	AddRepel(a, b string)
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		claims: map[string]model.Verdict{},
		Merged: map[string]MergedRecord{},
	}
}

// MirrorRepels forwards NOT_SAME_AS edges to r, so an in-memory provider
// sees the repels resolved against it.
func (s *MemoryStore) MirrorRepels(r RepelRecorder) *MemoryStore {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.repels = r
	return s
}

func (s *MemoryStore) ClaimResolution(_ context.Context, key string, action model.Verdict, _ string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.claims[key]; ok {
		return false, nil
	}
	s.claims[key] = action
	return true, nil
}

func (s *MemoryStore) ReleaseClaim(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.claims, key)
	return nil
}

func (s *MemoryStore) MergeNodes(_ context.Context, merged MergedRecord, _ string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Merged[merged.NodeID] = merged
	for _, id := range merged.MergedFrom {
		s.addEdge(model.Edge{Source: id, Target: merged.NodeID, Type: model.EdgeMergedInto})
	}
	return nil
}

func (s *MemoryStore) CreateNegativeEdge(_ context.Context, a, b, _ string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.addEdge(model.Edge{Source: a, Target: b, Type: model.EdgeNotSameAs})
	if s.repels != nil {
		s.repels.AddRepel(a, b)
	}
	return nil
}

func (s *MemoryStore) CreateRelatedEdge(_ context.Context, a, b, _ string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.addEdge(model.Edge{Source: a, Target: b, Type: model.EdgeRelatedButDistinct})
	return nil
}

// EdgeCount returns how many stored edges have the given type.
func (s *MemoryStore) EdgeCount(edgeType string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, e := range s.Edges {
		if e.Type == edgeType {
			n++
		}
	}
	return n
}

// addEdge mirrors a MERGE: an identical edge is stored once.
func (s *MemoryStore) addEdge(e model.Edge) {
	for _, existing := range s.Edges {
		if existing.Type == e.Type && model.PairID(existing.Source, existing.Target) == model.PairID(e.Source, e.Target) {
			return
		}
	}
	s.Edges = append(s.Edges, e)
}
