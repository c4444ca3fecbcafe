package model

// Similarity dimension names in reporting order.
const (
	DimEntityType        = "entity_type"
	DimName              = "name"
	DimAttributes        = "attributes"
	DimTopics            = "topics"
	DimJurisdictions     = "jurisdictions"
	DimSources           = "sources"
	DimTimeOverlap       = "time_overlap"
	DimSharedConnections = "shared_connections"
)

// Dimensions lists every similarity dimension in reporting order.
var Dimensions = []string{
	DimEntityType,
	DimName,
	DimAttributes,
	DimTopics,
	DimJurisdictions,
	DimSources,
	DimTimeOverlap,
	DimSharedConnections,
}

// SimilarityScore is the weighted result of comparing two vectors.
// Total is the weight-normalised sum of Breakdown over active dimensions.
type SimilarityScore struct {
	Total          float64            `json:"total"`
	Breakdown      map[string]float64 `json:"breakdown"`
	Explanation    string             `json:"explanation"`
	HighDimensions []string           `json:"high_dimensions,omitempty"`
	LowDimensions  []string           `json:"low_dimensions,omitempty"`
}

// Dimension returns the breakdown value for name, or 0.
func (s *SimilarityScore) Dimension(name string) float64 {
	if s == nil {
		return 0
	}
	return s.Breakdown[name]
}

// SimilarMatch is one candidate returned by a top-K search.
type SimilarMatch struct {
	NodeID string           `json:"node_id"`
	Name   string           `json:"name,omitempty"`
	Score  *SimilarityScore `json:"score"`
}

// Cluster is one group produced by agglomerative clustering.
type Cluster struct {
	Members  []string `json:"members"`
	Cohesion float64  `json:"cohesion"`
}

// Bridge is a candidate connected to every target of a bridge search.
type Bridge struct {
	NodeID        string             `json:"node_id"`
	Name          string             `json:"name,omitempty"`
	MinSimilarity float64            `json:"min_similarity"`
	PerTarget     map[string]float64 `json:"per_target"`
}
