package similarity

import (
	"testing"
	"time"

	"github.com/agenthands/nexus/internal/core/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func year(y int) *time.Time {
	t := time.Date(y, 1, 1, 0, 0, 0, 0, time.UTC)
	return &t
}

func span(from, to int) *model.TimeRange {
	return &model.TimeRange{Start: year(from), End: year(to)}
}

func johnSmith(id, jurisdiction, source, topic, attr, contact string, from, to int) *model.SimilarityVector {
	v := model.NewSimilarityVector(id, model.EntityPerson)
	v.Name = "John A. Smith"
	v.ShellAttributes[attr] = "x"
	v.Jurisdictions.Add(jurisdiction)
	v.Sources.Add(source)
	v.Topics.Add(topic)
	v.TimeRange = span(from, to)
	v.ConnectedEntities.Add(contact)
	return v
}

func richCompany() *model.SimilarityVector {
	v := model.NewSimilarityVector("c1", model.EntityCompany)
	v.Name = "Acme Holdings AB"
	v.NameEmbedding = []float32{0.1, 0.4, 0.2}
	v.CoreAttributes["registration_number"] = "SE556677-1122"
	v.ShellAttributes["phone"] = "1"
	v.Topics.Add("shipping")
	v.Jurisdictions.Add("SE")
	v.Sources.Add("registry")
	v.TimeRange = span(2010, 2020)
	v.ConnectedEntities.Add("p1")
	v.Connections["officer_of"] = model.NewSet("p1", "p2")
	v.SharedAddresses.Add("storgatan 1")
	v.FormationAgent = "Nordic Formations"
	return v
}

func TestCompute_Reflexive(t *testing.T) {
	e := NewEngine(nil)

	tests := []struct {
		name string
		v    *model.SimilarityVector
	}{
		{"empty", model.NewSimilarityVector("e", model.EntityUnknown)},
		{"name only", func() *model.SimilarityVector {
			v := model.NewSimilarityVector("n", model.EntityPerson)
			v.Name = "Jane Doe"
			return v
		}()},
		{"instant", func() *model.SimilarityVector {
			v := model.NewSimilarityVector("i", model.EntityDomain)
			v.TimeRange = &model.TimeRange{Start: year(2001)}
			return v
		}()},
		{"rich", richCompany()},
		{"agent only", func() *model.SimilarityVector {
			v := model.NewSimilarityVector("a", model.EntityCompany)
			v.FormationAgent = "agent"
			return v
		}()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := e.Compute(tt.v, tt.v)
			assert.InDelta(t, 1.0, s.Total, 1e-9)
		})
	}
}

func TestCompute_Symmetric(t *testing.T) {
	e := NewEngine(nil)
	a := richCompany()
	b := model.NewSimilarityVector("c2", model.EntityCompany)
	b.Name = "ACME Holding"
	b.ShellAttributes["email"] = "x"
	b.Jurisdictions.Add("SE")
	b.Jurisdictions.Add("NO")
	b.Sources.Add("news")
	b.TimeRange = span(2015, 2025)
	b.ConnectedEntities.Add("p1")
	b.SharedAddresses.Add("storgatan 1")

	ab := e.Compute(a, b)
	ba := e.Compute(b, a)
	assert.Equal(t, ab.Total, ba.Total)
	assert.Equal(t, ab.Breakdown, ba.Breakdown)
	assert.Greater(t, ab.Total, 0.0)
	assert.Less(t, ab.Total, 1.0)
}

func TestCompute_LowOverlapNameOnly(t *testing.T) {
	e := NewEngine(nil)
	a := johnSmith("js1", "US", "court", "fraud", "email", "x1", 2001, 2003)
	b := johnSmith("js2", "GB", "press", "sport", "phone", "x2", 2015, 2018)

	s := e.Compute(a, b)
	assert.InDelta(t, 1.0, s.Dimension(model.DimName), 1e-9)
	assert.GreaterOrEqual(t, s.Total, 0.15)
	assert.LessOrEqual(t, s.Total, 0.30)
	assert.Contains(t, s.HighDimensions, model.DimName)
	assert.Contains(t, s.LowDimensions, model.DimJurisdictions)
}

func TestCompute_TypeMismatchDimension(t *testing.T) {
	e := NewEngine(nil)
	a := model.NewSimilarityVector("a", model.EntityPerson)
	b := model.NewSimilarityVector("b", model.EntityCompany)
	s := e.Compute(a, b)
	assert.Equal(t, 0.0, s.Dimension(model.DimEntityType))
	assert.Equal(t, 0.0, s.Total)
	assert.Equal(t, "low: entity_type", s.Explanation)
}

func TestCompute_DisabledWeight(t *testing.T) {
	w := DefaultWeights()
	w.Name = 0
	e := NewEngine(&Config{Weights: w})

	a := model.NewSimilarityVector("a", model.EntityPerson)
	a.Name = "Alice"
	b := model.NewSimilarityVector("b", model.EntityPerson)
	b.Name = "Bob"

	s := e.Compute(a, b)
	assert.NotContains(t, s.Breakdown, model.DimName)
	// Only the entity type matches, over the remaining 0.85 of weight.
	assert.InDelta(t, 0.10/0.85, s.Total, 1e-9)
}

func TestCompute_SparseRecords(t *testing.T) {
	e := NewEngine(nil)
	sparse := func(id, jurisdiction string) *model.SimilarityVector {
		v := model.NewSimilarityVector(id, model.EntityPerson)
		v.Name = "John A. Smith"
		v.Jurisdictions.Add(jurisdiction)
		return v
	}

	t.Run("name only match", func(t *testing.T) {
		s := e.Compute(sparse("a", "US"), sparse("b", "GB"))
		assert.InDelta(t, 0.25, s.Total, 1e-9)
		assert.Equal(t, 0.0, s.Dimension(model.DimTopics))
		assert.Equal(t, []string{model.DimJurisdictions}, s.LowDimensions)
		assert.Equal(t, "high: entity_type, name; low: jurisdictions", s.Explanation)
	})

	t.Run("same node id", func(t *testing.T) {
		s := e.Compute(sparse("a", "US"), sparse("a", "US"))
		assert.InDelta(t, 1.0, s.Total, 1e-9)
	})
}

func TestTimeOverlap(t *testing.T) {
	tests := []struct {
		name       string
		a, b       *model.TimeRange
		want       float64
		wantActive bool
	}{
		{"both unset", nil, nil, 0, false},
		{"one unset", span(2000, 2010), nil, 0, true},
		{"disjoint", span(2000, 2002), span(2005, 2008), 0, true},
		{"contained", span(2000, 2010), span(2002, 2004), 1, true},
		{"instant inside", span(2000, 2010), &model.TimeRange{End: year(2005)}, 1, true},
		{"instant outside", span(2000, 2010), &model.TimeRange{Start: year(2012)}, 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, active := timeOverlap(tt.a, tt.b)
			assert.Equal(t, tt.wantActive, active)
			assert.InDelta(t, tt.want, got, 1e-9)
		})
	}

	half, _ := timeOverlap(span(2000, 2004), span(2002, 2010))
	assert.InDelta(t, 0.5, half, 0.01)
}

func TestSharedConnections(t *testing.T) {
	a := model.NewSimilarityVector("a", model.EntityCompany)
	b := model.NewSimilarityVector("b", model.EntityCompany)
	a.SharedAddresses.Add("addr")
	b.SharedAddresses.Add("addr")
	a.ConnectedEntities.Add("x")
	a.ConnectedEntities.Add("y")
	b.ConnectedEntities.Add("z")

	got, active := sharedConnections(a, b)
	require.True(t, active)
	// 2 for the shared address over max(3, 2) relationships.
	assert.InDelta(t, 2.0/3.0, got, 1e-9)

	a.FormationAgent = "agent"
	b.FormationAgent = "agent"
	got, _ = sharedConnections(a, b)
	assert.Equal(t, 1.0, got)
}

func TestExplain(t *testing.T) {
	assert.Equal(t, "no strong signals", explain(nil, nil))
	assert.Equal(t, "high: name, jurisdictions; low: topics", explain([]string{"name", "jurisdictions"}, []string{"topics"}))
}

func TestConfig_ApplyDefaults(t *testing.T) {
	cfg := &Config{}
	cfg.ApplyDefaults()
	assert.Equal(t, DefaultWeights(), cfg.Weights)
	assert.Equal(t, 0.7, cfg.HighThreshold)
	assert.Equal(t, 0.3, cfg.LowThreshold)
	assert.Positive(t, cfg.Workers)
}
