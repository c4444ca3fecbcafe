package model

// ExpectationBasis names why an intersection was expected.
type ExpectationBasis string

const (
	BasisRole         ExpectationBasis = "role"
	BasisJurisdiction ExpectationBasis = "jurisdiction"
	BasisTime         ExpectationBasis = "time"
	BasisRelationship ExpectationBasis = "relationship"
	BasisPattern      ExpectationBasis = "pattern"
	BasisAbsence      ExpectationBasis = "absence"
)

// Expectation is a prediction that two subjects should (or should not)
// intersect.
type Expectation struct {
	Basis       ExpectationBasis `json:"basis"`
	Confidence  float64          `json:"confidence"`
	Description string           `json:"description,omitempty"`
}

// IntersectionState is the outcome of comparing an expectation with what was
// found.
type IntersectionState string

const (
	ExpectedFound    IntersectionState = "EXPECTED_FOUND"
	ExpectedNotFound IntersectionState = "EXPECTED_NOT_FOUND"
	UnexpectedFound  IntersectionState = "UNEXPECTED_FOUND"
	StateUnknown     IntersectionState = "UNKNOWN"
)

// Subject is one side of an intersection.
type Subject struct {
	ID            string   `json:"id,omitempty"`
	Name          string   `json:"name"`
	EntityType    string   `json:"entity_type,omitempty"`
	Roles         []string `json:"roles,omitempty"`
	Jurisdictions []string `json:"jurisdictions,omitempty"`
	Keywords      []string `json:"keywords,omitempty"`
}

// FoundResult is evidence that two subjects co-occur.
type FoundResult struct {
	Source  string `json:"source,omitempty"`
	Snippet string `json:"snippet,omitempty"`
	URL     string `json:"url,omitempty"`
}

// SurprisingAnd is an unexpected co-occurrence worth flagging.
type SurprisingAnd struct {
	SubjectA     string   `json:"subject_a"`
	SubjectB     string   `json:"subject_b"`
	Connection   string   `json:"connection,omitempty"`
	Categories   []string `json:"categories,omitempty"`
	Significance float64  `json:"significance"`
	Explanation  string   `json:"explanation"`
}

// IntersectionResult is the outcome of an intersection evaluation.
type IntersectionResult struct {
	SubjectA     Subject           `json:"subject_a"`
	SubjectB     Subject           `json:"subject_b"`
	State        IntersectionState `json:"state"`
	Significance float64           `json:"significance"`
	Expectation  *Expectation      `json:"expectation,omitempty"`
	FoundCount   int               `json:"found_count"`
	Surprising   *SurprisingAnd    `json:"surprising,omitempty"`
	Reason       string            `json:"reason"`
}
