package nexus

import (
	"strings"
	"unicode"

	"github.com/agenthands/nexus/internal/core/model"
	"golang.org/x/text/cases"
)

// Subject categories used by the surprising-pair table.
const (
	CategoryLegitimateInstitution = "legitimate_institution"
	CategorySanctionedEntity      = "sanctioned_entity"
	CategoryPoliticallyExposed    = "politically_exposed"
	CategoryShellCompany          = "shell_company"
	CategoryCriminal              = "criminal"
	CategoryCharity               = "charity"
	CategoryMedia                 = "media"
)

// CategoryPair is an a-priori surprising combination of categories.
type CategoryPair struct {
	A            string  `toml:"a"`
	B            string  `toml:"b"`
	Significance float64 `toml:"significance"`
}

func (p CategoryPair) matches(a, b model.Set) bool {
	return (a.Has(p.A) && b.Has(p.B)) || (a.Has(p.B) && b.Has(p.A))
}

// DefaultCategories maps each category to the keywords that place a
// subject in it.
func DefaultCategories() map[string][]string {
	return map[string][]string{
		CategoryLegitimateInstitution: {"bank", "ministry", "university", "hospital", "government", "regulator", "central bank", "police", "authority"},
		CategorySanctionedEntity:      {"sanctioned", "sanctions", "ofac", "sdn", "embargo", "designated"},
		CategoryPoliticallyExposed:    {"minister", "senator", "parliament", "mp", "president", "governor", "mayor", "politician", "pep", "ambassador"},
		CategoryShellCompany:          {"shell", "offshore", "nominee", "letterbox", "bvi"},
		CategoryCriminal:              {"fraud", "laundering", "money laundering", "cartel", "trafficking", "convicted", "criminal", "smuggling", "bribery"},
		CategoryCharity:               {"charity", "foundation", "ngo", "nonprofit", "non profit"},
		CategoryMedia:                 {"news", "media", "newspaper", "broadcaster", "journal", "press"},
	}
}

func DefaultSurprisingPairs() []CategoryPair {
	return []CategoryPair{
		{A: CategoryLegitimateInstitution, B: CategorySanctionedEntity, Significance: 0.95},
		{A: CategoryPoliticallyExposed, B: CategorySanctionedEntity, Significance: 0.9},
		{A: CategoryPoliticallyExposed, B: CategoryShellCompany, Significance: 0.85},
		{A: CategoryCharity, B: CategoryCriminal, Significance: 0.9},
		{A: CategoryCharity, B: CategoryShellCompany, Significance: 0.8},
		{A: CategoryLegitimateInstitution, B: CategoryCriminal, Significance: 0.8},
		{A: CategoryMedia, B: CategoryShellCompany, Significance: 0.7},
	}
}

// Categorize returns the categories whose keywords occur in the subject's
// name, type, roles or keywords.
func (e *Evaluator) Categorize(s model.Subject) model.Set {
	text := subjectText(s)
	out := model.Set{}
	for cat, keywords := range e.cfg.Categories {
		for _, kw := range keywords {
			if containsPhrase(text, kw) {
				out.Add(cat)
				break
			}
		}
	}
	return out
}

// subjectText is the padded token stream matched against keywords.
func subjectText(s model.Subject) string {
	parts := make([]string, 0, 2+len(s.Roles)+len(s.Keywords))
	parts = append(parts, s.Name, s.EntityType)
	parts = append(parts, s.Roles...)
	parts = append(parts, s.Keywords...)
	return tokens(strings.Join(parts, " "))
}

// tokens folds case and splits on anything that is not a letter or digit.
// The result is padded with spaces so phrases match on word boundaries.
func tokens(s string) string {
	fields := strings.FieldsFunc(cases.Fold().String(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	return " " + strings.Join(fields, " ") + " "
}

func containsPhrase(text, phrase string) bool {
	p := tokens(phrase)
	if p == "  " {
		return false
	}
	return strings.Contains(text, p)
}

func sortedCategories(s model.Set) string {
	return strings.Join(s.Sorted(), ", ")
}
