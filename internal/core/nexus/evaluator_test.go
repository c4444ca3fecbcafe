package nexus

import (
	"context"
	"testing"

	"github.com/agenthands/nexus/internal/core/model"
	"github.com/agenthands/nexus/internal/core/state"
	"github.com/agenthands/nexus/internal/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEvaluateIntersection_Absence(t *testing.T) {
	e := New(nil)
	ceo := model.Subject{Name: "Jane Doe", EntityType: "person", Roles: []string{"CEO"}}
	filings := model.Subject{Name: "Acme annual filings", EntityType: "document"}

	res := e.EvaluateIntersection(ceo, filings, nil, nil)

	require.NotNil(t, res.Expectation)
	assert.Equal(t, 0.8, res.Expectation.Confidence)
	assert.Equal(t, model.ExpectedNotFound, res.State)
	assert.InDelta(t, 0.7, res.Significance, 1e-9)
	assert.Nil(t, res.Surprising)
}

func TestEvaluateIntersection_Surprise(t *testing.T) {
	e := New(nil)
	person := model.Subject{Name: "John Smith", EntityType: "person"}
	offshore := model.Subject{Name: "Blue Harbour Offshore Ltd", EntityType: "company"}
	found := []model.FoundResult{{Source: "leak", Snippet: "John Smith, nominee director"}}

	res := e.EvaluateIntersection(person, offshore, nil, found)

	require.NotNil(t, res.Expectation)
	assert.LessOrEqual(t, res.Expectation.Confidence, 0.3)
	assert.Equal(t, model.UnexpectedFound, res.State)
	assert.InDelta(t, 0.9, res.Significance, 1e-9)
	require.NotNil(t, res.Surprising)
	assert.Equal(t, "John Smith, nominee director", res.Surprising.Connection)
	assert.Equal(t, 1, res.FoundCount)
}

func TestEvaluateIntersection_States(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	e := New(nil, WithMetrics(m))

	a := model.Subject{Name: "A"}
	b := model.Subject{Name: "B"}
	found := []model.FoundResult{{Source: "s"}}

	tests := []struct {
		name         string
		exp          *model.Expectation
		found        []model.FoundResult
		want         model.IntersectionState
		significance float64
	}{
		{"expected and found", &model.Expectation{Basis: model.BasisRelationship, Confidence: 0.9}, found, model.ExpectedFound, 0.3},
		{"expected not found", &model.Expectation{Basis: model.BasisRelationship, Confidence: 0.5}, nil, model.ExpectedNotFound, 0.7},
		{"unexpected found", &model.Expectation{Basis: model.BasisTime, Confidence: 0.3}, found, model.UnexpectedFound, 0.9},
		{"neither", &model.Expectation{Basis: model.BasisTime, Confidence: 0.1}, nil, model.StateUnknown, 0.1},
		{"no expectation", nil, nil, model.StateUnknown, 0.1},
		{"no expectation, found", nil, found, model.StateUnknown, 0.1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := e.EvaluateIntersection(a, b, tt.exp, tt.found)
			assert.Equal(t, tt.want, res.State)
			assert.InDelta(t, tt.significance, res.Significance, 1e-9)
			assert.NotEmpty(t, res.Reason)
		})
	}

	assert.Equal(t, 3.0, testutil.ToFloat64(m.Intersections.WithLabelValues(string(model.StateUnknown))))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Intersections.WithLabelValues(string(model.ExpectedFound))))
}

func TestEvaluateIntersection_CustomSignificance(t *testing.T) {
	e := New(nil, WithConfig(&Config{Significance: Significance{ExpectedNotFound: 0.75}}))
	res := e.EvaluateIntersection(model.Subject{Name: "A"}, model.Subject{Name: "B"},
		&model.Expectation{Basis: model.BasisRole, Confidence: 0.8}, nil)
	assert.Equal(t, model.ExpectedNotFound, res.State)
	assert.InDelta(t, 0.75, res.Significance, 1e-9)
}

func TestInferExpectation(t *testing.T) {
	e := New(nil)
	tests := []struct {
		name       string
		a, b       model.Subject
		basis      model.ExpectationBasis
		confidence float64
	}{
		{
			name:       "default table",
			a:          model.Subject{Name: "Acme Ltd", EntityType: "company"},
			b:          model.Subject{Name: "Registered office", EntityType: "location"},
			basis:      model.BasisPattern,
			confidence: 0.9,
		},
		{
			name:       "default table, swapped",
			a:          model.Subject{Name: "Companies House", EntityType: "source"},
			b:          model.Subject{Name: "Ann Lee", Roles: []string{"director"}},
			basis:      model.BasisRole,
			confidence: 0.8,
		},
		{
			name:       "office holder and document",
			a:          model.Subject{Name: "Ann Lee", EntityType: "person", Roles: []string{"Chairman"}},
			b:          model.Subject{Name: "Board minutes 2019", EntityType: "document"},
			basis:      model.BasisRole,
			confidence: 0.6,
		},
		{
			name:       "shared jurisdiction",
			a:          model.Subject{Name: "A", Jurisdictions: []string{"CY"}},
			b:          model.Subject{Name: "B", Jurisdictions: []string{"cy"}},
			basis:      model.BasisJurisdiction,
			confidence: 0.4,
		},
		{
			name:       "typed baseline",
			a:          model.Subject{Name: "Ann Lee", EntityType: "person"},
			b:          model.Subject{Name: "Acme", EntityType: "company"},
			basis:      model.BasisPattern,
			confidence: 0.2,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			exp := e.InferExpectation(tt.a, tt.b)
			require.NotNil(t, exp)
			assert.Equal(t, tt.basis, exp.Basis)
			assert.InDelta(t, tt.confidence, exp.Confidence, 1e-9)
		})
	}

	assert.Nil(t, e.InferExpectation(model.Subject{Name: "A"}, model.Subject{Name: "B"}))
}

func TestDetectSurprisingAnd(t *testing.T) {
	e := New(nil)

	t.Run("category pair", func(t *testing.T) {
		bank := model.Subject{Name: "Central Bank of Atlantis", EntityType: "company", Jurisdictions: []string{"US"}}
		trader := model.Subject{Name: "Gulf Star Trading", Keywords: []string{"OFAC sanctions"}, Jurisdictions: []string{"IR"}}

		s := e.DetectSurprisingAnd(bank, trader, "wire transfer")
		require.NotNil(t, s)
		assert.InDelta(t, 0.95, s.Significance, 1e-9)
		assert.Equal(t, []string{CategoryLegitimateInstitution, CategorySanctionedEntity}, s.Categories)
		assert.Equal(t, "wire transfer", s.Connection)
		assert.Contains(t, s.Explanation, "Central Bank of Atlantis")
	})

	t.Run("pair order does not matter", func(t *testing.T) {
		charity := model.Subject{Name: "Hope Foundation"}
		fraudster := model.Subject{Name: "R. Black", Keywords: []string{"convicted of fraud"}}

		ab := e.DetectSurprisingAnd(charity, fraudster, "")
		ba := e.DetectSurprisingAnd(fraudster, charity, "")
		require.NotNil(t, ab)
		require.NotNil(t, ba)
		assert.Equal(t, ab.Significance, ba.Significance)
	})

	t.Run("disjoint jurisdictions", func(t *testing.T) {
		a := model.Subject{Name: "Alpha", Jurisdictions: []string{"GB"}}
		b := model.Subject{Name: "Beta", Jurisdictions: []string{"PA"}}

		s := e.DetectSurprisingAnd(a, b, "")
		require.NotNil(t, s)
		assert.InDelta(t, 0.6, s.Significance, 1e-9)
		assert.Equal(t, []string{"disjoint_jurisdictions"}, s.Categories)
	})

	t.Run("nothing surprising", func(t *testing.T) {
		a := model.Subject{Name: "Alpha", Jurisdictions: []string{"GB"}}
		b := model.Subject{Name: "Beta", Jurisdictions: []string{"GB", "IE"}}
		assert.Nil(t, e.DetectSurprisingAnd(a, b, ""))
	})

	t.Run("keywords match whole words", func(t *testing.T) {
		a := model.Subject{Name: "Campground Company"}
		assert.Equal(t, 0, e.Categorize(a).Len())
	})
}

func absenceFixture() *state.MemoryProvider {
	return state.NewMemoryProvider(
		model.Record{NodeID: "p1", EntityType: "person", Name: "Jane Doe", Roles: []string{"ceo"}},
		model.Record{NodeID: "d1", EntityType: "document", Name: "Acme 2019 annual filings"},
		model.Record{NodeID: "d2", EntityType: "document", Name: "Press release"},
		model.Record{NodeID: "c1", EntityType: "company", Name: "Acme AB"},
	)
}

func TestFindSuspiciousAbsences(t *testing.T) {
	ctx := context.Background()

	t.Run("unconnected filings", func(t *testing.T) {
		e := New(absenceFixture())
		res, err := e.FindSuspiciousAbsences(ctx, "p1")
		require.NoError(t, err)
		require.Len(t, res, 1)
		assert.Equal(t, model.ExpectedNotFound, res[0].State)
		assert.InDelta(t, 0.7, res[0].Significance, 1e-9)
		assert.Equal(t, "p1", res[0].SubjectA.ID)
		assert.Equal(t, "filings", res[0].SubjectB.Name)
		assert.Contains(t, res[0].Reason, "none of 1 candidate")
	})

	t.Run("connected filings", func(t *testing.T) {
		p := absenceFixture()
		p.AddEdge("p1", "d1")
		res, err := New(p).FindSuspiciousAbsences(ctx, "p1")
		require.NoError(t, err)
		assert.Empty(t, res)
	})

	t.Run("no candidates at all", func(t *testing.T) {
		res, err := New(absenceFixture()).FindSuspiciousAbsences(ctx, "c1")
		require.NoError(t, err)
		require.Len(t, res, 1)
		assert.Equal(t, "registered address", res[0].SubjectB.Name)
		assert.InDelta(t, 0.9, res[0].Expectation.Confidence, 1e-9)
	})

	t.Run("errors", func(t *testing.T) {
		_, err := New(nil).FindSuspiciousAbsences(ctx, "p1")
		assert.ErrorIs(t, err, model.ErrNoProvider)

		_, err = New(absenceFixture()).FindSuspiciousAbsences(ctx, "ghost")
		assert.ErrorIs(t, err, model.ErrNodeNotFound)
		assert.True(t, model.IsConfigurationError(err))

		_, err = New(absenceFixture()).FindSuspiciousAbsences(ctx, "")
		assert.True(t, model.IsConfigurationError(err))
	})
}

func TestSubjectFromRecord(t *testing.T) {
	s := SubjectFromRecord(model.Record{
		NodeID:        "n1",
		Class:         "Company",
		Jurisdictions: []string{"cy", "GB"},
		Jurisdiction:  "CY",
		Topics:        []string{"shipping", " "},
		Events:        []string{"merger"},
	})

	assert.Equal(t, "n1", s.ID)
	assert.Equal(t, "n1", s.Name)
	assert.Equal(t, "company", s.EntityType)
	assert.Equal(t, []string{"CY", "GB"}, s.Jurisdictions)
	assert.Equal(t, []string{"shipping", "merger"}, s.Keywords)
}
