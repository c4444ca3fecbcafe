package model

// Edge is a typed link between two records as seen by the state provider.
type Edge struct {
	Source string `json:"source"`
	Target string `json:"target"`
	Type   string `json:"type,omitempty"`
}

// Edge types written by the resolution engine.
const (
	EdgeMergedInto         = "MERGED_INTO"
	EdgeNotSameAs          = "NOT_SAME_AS"
	EdgeRelatedButDistinct = "RELATED_BUT_DISTINCT"
)

// PairID returns an order-independent identifier for a pair of node ids.
func PairID(a, b string) string {
	if b < a {
		a, b = b, a
	}
	return a + "|" + b
}
