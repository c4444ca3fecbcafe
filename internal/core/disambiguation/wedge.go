package disambiguation

import (
	"fmt"
	"sort"
	"strings"

	"github.com/agenthands/nexus/internal/core/model"
)

// DefaultMaxWedges is the number of wedges proposed when no limit is given.
const DefaultMaxWedges = 3

// WedgeGenerator proposes follow-up queries that should only return data for
// one side of an ambiguous pair.
type WedgeGenerator struct{}

func NewWedgeGenerator() *WedgeGenerator {
	return &WedgeGenerator{}
}

// Generate returns at most limit wedges in priority order: identifier,
// temporal, network, geographic, professional role.
func (g *WedgeGenerator) Generate(a, b *model.SimilarityVector, limit int) []model.WedgeQuery {
	if a == nil || b == nil {
		return nil
	}
	if limit <= 0 {
		limit = DefaultMaxWedges
	}

	var candidates []model.WedgeQuery
	for _, gen := range []func(x, y *model.SimilarityVector) []model.WedgeQuery{
		identifierWedges,
		temporalWedges,
		networkWedges,
		geographicWedges,
		roleWedges,
	} {
		candidates = append(candidates, gen(a, b)...)
		candidates = append(candidates, gen(b, a)...)
	}

	seen := map[string]bool{}
	out := make([]model.WedgeQuery, 0, limit)
	for _, w := range candidates {
		if seen[w.Query] {
			continue
		}
		seen[w.Query] = true
		out = append(out, w)
		if len(out) == limit {
			break
		}
	}
	return out
}

// InterpretWedge reads the result of running w. found reports whether the
// query returned anything; mentionsOther whether that data also names the
// other candidate. Identifier, temporal and network wedges are decisive
// either way. A geographic or role hit naming both candidates only shows
// they are related, and one naming a single candidate proves nothing, since
// people move and change jobs.
func InterpretWedge(w model.WedgeQuery, found, mentionsOther bool) (model.Verdict, string) {
	if !found {
		return model.VerdictInconclusive, fmt.Sprintf("%s wedge returned nothing", w.Type)
	}
	switch w.Type {
	case model.WedgeIdentifier, model.WedgeTemporal, model.WedgeNetwork:
		if mentionsOther {
			return model.VerdictFuse, fmt.Sprintf("%s wedge %s matched both candidates", w.Type, w.Query)
		}
		return model.VerdictRepel, fmt.Sprintf("%s wedge %s matched only %s", w.Type, w.Query, w.Discriminates)
	case model.WedgeGeographic, model.WedgeProfessionalRole:
		if mentionsOther {
			return model.VerdictBinaryStar, fmt.Sprintf("%s wedge %s ties both candidates together", w.Type, w.Query)
		}
		return model.VerdictInconclusive, fmt.Sprintf("%s wedge %s is not decisive on its own", w.Type, w.Query)
	}
	return model.VerdictInconclusive, fmt.Sprintf("unknown wedge type %q", w.Type)
}

func label(v *model.SimilarityVector) string {
	if v.Name != "" {
		return v.Name
	}
	return v.NodeID
}

// identifierWedges searches for identifiers only x carries.
func identifierWedges(x, y *model.SimilarityVector) []model.WedgeQuery {
	var out []model.WedgeQuery
	for _, key := range sortedKeys(x.CoreAttributes) {
		if _, ok := y.Attribute(key); ok {
			continue
		}
		out = append(out, model.WedgeQuery{
			Type:          model.WedgeIdentifier,
			Query:         fmt.Sprintf("%q %q", label(x), x.CoreAttributes[key]),
			Discriminates: x.NodeID,
			Rationale:     fmt.Sprintf("only %s carries %s", x.NodeID, key),
		})
		break
	}
	return out
}

// temporalWedges asks for x at one of its companies during x's active years.
func temporalWedges(x, y *model.SimilarityVector) []model.WedgeQuery {
	startX, endX, ok := x.TimeRange.Bounds()
	if !ok {
		return nil
	}
	if startY, endY, okY := y.TimeRange.Bounds(); okY && startY.Equal(startX) && endY.Equal(endX) {
		return nil
	}

	years := fmt.Sprintf("%d-%d", startX.Year(), endX.Year())
	if startX.Year() == endX.Year() {
		years = fmt.Sprintf("%d", startX.Year())
	}
	q := fmt.Sprintf("%q %s", label(x), years)
	if orgs := x.SharedCompanies.Sorted(); len(orgs) > 0 {
		q = fmt.Sprintf("%q %q %s", label(x), orgs[0], years)
	}
	return []model.WedgeQuery{{
		Type:          model.WedgeTemporal,
		Query:         q,
		Discriminates: x.NodeID,
		Rationale:     fmt.Sprintf("%s was active %s", x.NodeID, years),
	}}
}

// networkWedges names a relation only x has.
func networkWedges(x, y *model.SimilarityVector) []model.WedgeQuery {
	for _, rel := range []struct {
		kind   string
		xs, ys model.Set
	}{
		{"officer", x.SharedOfficers, y.SharedOfficers},
		{"director", x.SharedDirectors, y.SharedDirectors},
		{"shareholder", x.SharedShareholders, y.SharedShareholders},
		{"company", x.SharedCompanies, y.SharedCompanies},
	} {
		for _, name := range rel.xs.Sorted() {
			if rel.ys.Has(name) {
				continue
			}
			return []model.WedgeQuery{{
				Type:          model.WedgeNetwork,
				Query:         fmt.Sprintf("%q %q", label(x), name),
				Discriminates: x.NodeID,
				Rationale:     fmt.Sprintf("%s is linked to %s %s", x.NodeID, rel.kind, name),
			}}
		}
	}
	return nil
}

func geographicWedges(x, y *model.SimilarityVector) []model.WedgeQuery {
	for _, j := range x.Jurisdictions.Sorted() {
		if y.Jurisdictions.Has(j) {
			continue
		}
		return []model.WedgeQuery{{
			Type:          model.WedgeGeographic,
			Query:         fmt.Sprintf("%q %s", label(x), j),
			Discriminates: x.NodeID,
			Rationale:     fmt.Sprintf("only %s is tied to %s", x.NodeID, j),
		}}
	}
	return nil
}

func roleWedges(x, y *model.SimilarityVector) []model.WedgeQuery {
	for _, role := range x.Roles.Sorted() {
		if y.Roles.Has(role) {
			continue
		}
		return []model.WedgeQuery{{
			Type:          model.WedgeProfessionalRole,
			Query:         fmt.Sprintf("%q %s", label(x), strings.ReplaceAll(role, "_", " ")),
			Discriminates: x.NodeID,
			Rationale:     fmt.Sprintf("only %s holds the role %s", x.NodeID, role),
		}}
	}
	return nil
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
