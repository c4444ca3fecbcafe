package compare

import (
	"strconv"
	"strings"

	"github.com/agenthands/nexus/internal/core/model"
)

const filterPrefix = "##"

// Filters narrow the candidate set of a search. Values of one kind are
// OR-ed, kinds are AND-ed.
type Filters struct {
	Jurisdictions model.Set
	Sources       model.Set
	Years         []int
	Unlinked      bool

	Applied []string
	Ignored []string
}

// ParseFilters reads ##jurisdiction:<ISO>, ##source:<id>, ##<year> and
// ##unlinked tokens. Anything else is recorded in Ignored and otherwise
// skipped.
func ParseFilters(raw []string) Filters {
	f := Filters{Jurisdictions: model.Set{}, Sources: model.Set{}}
	for _, chunk := range raw {
		for _, tok := range strings.Fields(chunk) {
			if f.parse(tok) {
				f.Applied = append(f.Applied, tok)
			} else {
				f.Ignored = append(f.Ignored, tok)
			}
		}
	}
	return f
}

func (f *Filters) parse(tok string) bool {
	body, ok := strings.CutPrefix(tok, filterPrefix)
	if !ok {
		return false
	}
	lower := strings.ToLower(body)
	switch {
	case lower == "unlinked":
		f.Unlinked = true
		return true
	case strings.HasPrefix(lower, "jurisdiction:"):
		code := strings.ToUpper(strings.TrimSpace(body[len("jurisdiction:"):]))
		if code == "" {
			return false
		}
		f.Jurisdictions.Add(code)
		return true
	case strings.HasPrefix(lower, "source:"):
		src := strings.TrimSpace(body[len("source:"):])
		if src == "" {
			return false
		}
		f.Sources.Add(src)
		return true
	case len(body) == 4:
		year, err := strconv.Atoi(body)
		if err != nil || year <= 0 {
			return false
		}
		f.Years = append(f.Years, year)
		return true
	}
	return false
}

// Match reports whether v passes the attribute filters. Unlinked needs a
// provider lookup and is applied by the operator.
func (f Filters) Match(v *model.SimilarityVector) bool {
	if f.Jurisdictions.Len() > 0 && v.Jurisdictions.IntersectionSize(f.Jurisdictions) == 0 {
		return false
	}
	if f.Sources.Len() > 0 && v.Sources.IntersectionSize(f.Sources) == 0 {
		return false
	}
	if len(f.Years) > 0 {
		covered := false
		for _, y := range f.Years {
			if v.TimeRange.CoversYear(y) {
				covered = true
				break
			}
		}
		if !covered {
			return false
		}
	}
	return true
}

// Apply keeps the vectors that pass Match.
func (f Filters) Apply(vectors []*model.SimilarityVector) []*model.SimilarityVector {
	out := make([]*model.SimilarityVector, 0, len(vectors))
	for _, v := range vectors {
		if f.Match(v) {
			out = append(out, v)
		}
	}
	return out
}
