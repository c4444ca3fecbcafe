package model

// Verdict is the identity decision for a pair (or group) of records.
type Verdict string

const (
	VerdictFuse         Verdict = "FUSE"
	VerdictRepel        Verdict = "REPEL"
	VerdictBinaryStar   Verdict = "BINARY_STAR"
	VerdictInconclusive Verdict = "INCONCLUSIVE"
)

// Actionable reports whether the resolution engine can apply the verdict.
func (v Verdict) Actionable() bool {
	return v == VerdictFuse || v == VerdictRepel || v == VerdictBinaryStar
}

// PassiveOutcome is the result of an automatic constraint check.
type PassiveOutcome string

const (
	AutoFuse         PassiveOutcome = "AUTO_FUSE"
	AutoRepel        PassiveOutcome = "AUTO_REPEL"
	PassiveUndecided PassiveOutcome = "INCONCLUSIVE"
)

// CheckResult is the outcome of a single passive check.
type CheckResult struct {
	Check   string         `json:"check"`
	Outcome PassiveOutcome `json:"outcome"`
	Reason  string         `json:"reason,omitempty"`
}

// PassiveResult combines every passive check for a pair.
type PassiveResult struct {
	Outcome PassiveOutcome `json:"outcome"`
	Reason  string         `json:"reason,omitempty"`
	Checks  []CheckResult  `json:"checks,omitempty"`
}

// Conclusive reports whether the passive checks decided the pair.
func (p *PassiveResult) Conclusive() bool {
	return p != nil && (p.Outcome == AutoFuse || p.Outcome == AutoRepel)
}

// WedgeType is the axis along which a wedge query splits a pair.
type WedgeType string

const (
	WedgeIdentifier       WedgeType = "identifier"
	WedgeTemporal         WedgeType = "temporal"
	WedgeNetwork          WedgeType = "network"
	WedgeGeographic       WedgeType = "geographic"
	WedgeProfessionalRole WedgeType = "professional_role"
)

// WedgeQuery is a follow-up query that should only return data for the
// candidate named in Discriminates.
type WedgeQuery struct {
	Type          WedgeType `json:"type"`
	Query         string    `json:"query"`
	Discriminates string    `json:"discriminates"`
	Rationale     string    `json:"rationale,omitempty"`
}

// PairComparison is the verdict for one pair.
type PairComparison struct {
	A       string           `json:"a"`
	B       string           `json:"b"`
	Verdict Verdict          `json:"verdict"`
	Score   *SimilarityScore `json:"score,omitempty"`
	Reasons []string         `json:"reasons,omitempty"`
	Wedges  []WedgeQuery     `json:"wedges,omitempty"`
	Passive *PassiveResult   `json:"passive,omitempty"`
}

// CompareResult is returned by every compare operator operation.
type CompareResult struct {
	Operation      string           `json:"operation"`
	Verdict        Verdict          `json:"verdict,omitempty"`
	Pairs          []PairComparison `json:"pairs,omitempty"`
	Groups         [][]string       `json:"groups,omitempty"`
	Matches        []SimilarMatch   `json:"matches,omitempty"`
	Clusters       []Cluster        `json:"clusters,omitempty"`
	Bridges        []Bridge         `json:"bridges,omitempty"`
	AppliedFilters []string         `json:"applied_filters,omitempty"`
	IgnoredFilters []string         `json:"ignored_filters,omitempty"`
}
