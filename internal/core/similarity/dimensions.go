package similarity

import (
	"github.com/agenthands/nexus/internal/core/model"
)

// dimensionScore returns the score for one dimension and whether either
// side carries data for it.
func dimensionScore(dim string, a, b *model.SimilarityVector) (float64, bool) {
	switch dim {
	case model.DimEntityType:
		if a.EntityType() == b.EntityType() {
			return 1, true
		}
		return 0, true
	case model.DimName:
		if a.Name == "" && b.Name == "" && (len(a.NameEmbedding) == 0 || len(b.NameEmbedding) == 0) {
			return 0, false
		}
		return NameSimilarity(a.Name, b.Name, a.NameEmbedding, b.NameEmbedding), true
	case model.DimAttributes:
		return jaccard(a.AttributeKeys(), b.AttributeKeys())
	case model.DimTopics:
		return jaccard(a.TopicSet(), b.TopicSet())
	case model.DimJurisdictions:
		return jaccard(a.Jurisdictions, b.Jurisdictions)
	case model.DimSources:
		return jaccard(a.Sources, b.Sources)
	case model.DimTimeOverlap:
		return timeOverlap(a.TimeRange, b.TimeRange)
	case model.DimSharedConnections:
		return sharedConnections(a, b)
	}
	return 0, false
}

// jaccard reports no data when both sets are empty.
func jaccard(a, b model.Set) (float64, bool) {
	if a.Len() == 0 && b.Len() == 0 {
		return 0, false
	}
	inter := a.IntersectionSize(b)
	union := a.Len() + b.Len() - inter
	return float64(inter) / float64(union), true
}

// timeOverlap is the overlap divided by the shorter span. It reports no
// data when neither range is set and scores 0 when only one is.
func timeOverlap(a, b *model.TimeRange) (float64, bool) {
	startA, endA, okA := a.Bounds()
	startB, endB, okB := b.Bounds()
	if !okA && !okB {
		return 0, false
	}
	if !okA || !okB {
		return 0, true
	}

	spanA, spanB := endA.Sub(startA), endB.Sub(startB)
	shorter := min(spanA, spanB)
	if shorter == 0 {
		// An instant scores 1 when it falls inside the other range.
		if spanA == 0 {
			return boolScore(!startA.Before(startB) && !startA.After(endB)), true
		}
		return boolScore(!startB.Before(startA) && !startB.After(endA)), true
	}

	lo := startA
	if startB.After(lo) {
		lo = startB
	}
	hi := endA
	if endB.Before(hi) {
		hi = endB
	}
	overlap := hi.Sub(lo)
	if overlap <= 0 {
		return 0, true
	}
	return float64(overlap) / float64(shorter), true
}

// sharedConnections counts common structure between two vectors and
// normalizes by the larger relationship count.
func sharedConnections(a, b *model.SimilarityVector) (float64, bool) {
	relA, relB := a.AllRelationships(), b.AllRelationships()
	agentA, agentB := a.FormationAgent, b.FormationAgent
	if relA.Len() == 0 && relB.Len() == 0 && agentA == "" && agentB == "" {
		return 0, false
	}

	shared := float64(connectedIDs(a).IntersectionSize(connectedIDs(b)))
	if a.IsLinkedTo(b) {
		shared++
	}
	shared += 2 * float64(a.SharedAddresses.IntersectionSize(b.SharedAddresses))
	shared += float64(a.SharedOfficers.IntersectionSize(b.SharedOfficers))
	shared += float64(a.SharedDirectors.IntersectionSize(b.SharedDirectors))
	shared += float64(a.SharedShareholders.IntersectionSize(b.SharedShareholders))
	shared += float64(a.SharedCompanies.IntersectionSize(b.SharedCompanies))
	if agentA != "" && agentA == agentB {
		shared += 2
	}

	denom := float64(max(relA.Len(), relB.Len()))
	if denom == 0 {
		return boolScore(shared > 0), true
	}
	return min(shared/denom, 1), true
}

func connectedIDs(v *model.SimilarityVector) model.Set {
	ids := v.ConnectedEntities.Union(nil)
	for _, set := range v.Connections {
		for id := range set {
			ids.Add(id)
		}
	}
	return ids
}

func boolScore(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
