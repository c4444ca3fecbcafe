package nexus

import (
	"strings"

	"github.com/agenthands/nexus/internal/core/model"
)

// DefaultExpectation predicts that a subject holding Key (a role or an
// entity type) intersects a subject described by any of Keywords.
type DefaultExpectation struct {
	Key         string                 `toml:"key"`
	Target      string                 `toml:"target"`
	TargetClass string                 `toml:"target_class"`
	Keywords    []string               `toml:"keywords"`
	Confidence  float64                `toml:"confidence"`
	Basis       model.ExpectationBasis `toml:"basis"`
}

// DefaultExpectations is ordered from specific roles to generic entity
// types; the first applicable entry wins.
func DefaultExpectations() []DefaultExpectation {
	return []DefaultExpectation{
		{Key: "ceo", Target: "filings", TargetClass: "document", Keywords: []string{"filing", "filings", "annual report", "10-k", "accounts"}, Confidence: 0.8, Basis: model.BasisRole},
		{Key: "director", Target: "registry", TargetClass: "source", Keywords: []string{"registry", "register", "registrar", "companies house"}, Confidence: 0.8, Basis: model.BasisRole},
		{Key: "company", Target: "registered address", TargetClass: "location", Keywords: []string{"registered address", "registered office", "address"}, Confidence: 0.9, Basis: model.BasisPattern},
		{Key: "person", Target: "offshore", TargetClass: "company", Keywords: []string{"offshore"}, Confidence: 0.2, Basis: model.BasisPattern},
		{Key: "person", Target: "sanctions", TargetClass: "tag", Keywords: []string{"sanctions", "sanctioned", "ofac"}, Confidence: 0.1, Basis: model.BasisPattern},
	}
}

// Applies reports whether s holds the expectation's key.
func (d DefaultExpectation) Applies(s model.Subject) bool {
	key := strings.ToLower(d.Key)
	if strings.EqualFold(s.EntityType, key) {
		return true
	}
	for _, r := range s.Roles {
		if strings.EqualFold(strings.TrimSpace(r), key) {
			return true
		}
	}
	return false
}

// Matches reports whether s is the kind of subject the expectation
// predicts.
func (d DefaultExpectation) Matches(s model.Subject) bool {
	text := subjectText(s)
	for _, kw := range d.Keywords {
		if containsPhrase(text, kw) {
			return true
		}
	}
	return false
}

func (d DefaultExpectation) expectation() *model.Expectation {
	return &model.Expectation{
		Basis:       d.Basis,
		Confidence:  d.Confidence,
		Description: d.Key + " -> " + d.Target,
	}
}

// Keywords that mark a subject as holding an office, and a subject as a
// document or record.
var (
	roleKeywords = []string{
		"ceo", "cfo", "coo", "director", "officer", "chairman", "chair", "founder",
		"owner", "beneficial owner", "shareholder", "partner", "secretary", "treasurer", "president",
	}
	documentKeywords = []string{
		"filing", "filings", "report", "registry", "register", "annual", "minutes", "prospectus",
		"contract", "invoice", "court", "record", "statement", "accounts",
	}
)

func holdsRole(s model.Subject) bool {
	for _, r := range s.Roles {
		for _, kw := range roleKeywords {
			if containsPhrase(tokens(r), kw) {
				return true
			}
		}
	}
	return false
}

func isDocument(s model.Subject) bool {
	switch model.ParseEntityType(s.EntityType) {
	case model.EntityDocument, model.EntitySource:
		return true
	}
	text := tokens(strings.Join(append([]string{s.Name}, s.Keywords...), " "))
	for _, kw := range documentKeywords {
		if containsPhrase(text, kw) {
			return true
		}
	}
	return false
}

func sharedJurisdiction(a, b model.Subject) (string, bool) {
	for _, ja := range a.Jurisdictions {
		for _, jb := range b.Jurisdictions {
			if ja != "" && strings.EqualFold(ja, jb) {
				return strings.ToUpper(ja), true
			}
		}
	}
	return "", false
}

func typed(s model.Subject) bool {
	t := model.ParseEntityType(s.EntityType)
	return s.EntityType != "" && t != model.EntityUnknown
}
