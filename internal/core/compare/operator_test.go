package compare

import (
	"context"
	"errors"
	"testing"

	"github.com/agenthands/nexus/internal/core/model"
	"github.com/agenthands/nexus/internal/core/state"
	"github.com/agenthands/nexus/internal/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func johnSmith(id, jurisdiction, source, topic, contact, first, last string, attrs map[string]any) model.Record {
	return model.Record{
		NodeID:        id,
		EntityType:    "person",
		Name:          "John A. Smith",
		Attributes:    attrs,
		Jurisdictions: []string{jurisdiction},
		Sources:       []string{source},
		Topics:        []string{topic},
		FirstSeen:     first,
		LastSeen:      last,
		Edges:         []model.Edge{{Source: id, Target: contact}},
	}
}

func fixture() *state.MemoryProvider {
	return state.NewMemoryProvider(
		model.Record{
			NodeID: "c1", EntityType: "company", Name: "Acme Holdings AB",
			Attributes:    map[string]any{"registration_number": "SE556677-1122", "phone": "+46 8 1"},
			Jurisdictions: []string{"SE"},
		},
		model.Record{
			NodeID: "c2", EntityType: "company", Name: "ACME Holding Aktiebolag",
			Attributes:    map[string]any{"Registration Number": "SE556677-1122"},
			Jurisdictions: []string{"SE"},
		},
		model.Record{
			NodeID: "c3", EntityType: "company", Name: "Acme Holdings AB",
			Attributes:    map[string]any{"registration_number": "SE999999-0000"},
			Jurisdictions: []string{"SE"},
		},
		model.Record{NodeID: "p1", EntityType: "person", Name: "Acme Holdings AB", Jurisdictions: []string{"SE"}},
		johnSmith("js1", "US", "court", "fraud", "x1", "2001", "2003", map[string]any{"email": "js@a.com"}),
		johnSmith("js2", "GB", "press", "sport", "x2", "2015", "2018", map[string]any{"phone": "+44 1"}),
	)
}

func TestCompareNodes_IdentifierFastPath(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	op := New(fixture(), WithMetrics(m))

	res, err := op.CompareNodes(context.Background(), []string{"c1", "c2"})
	require.NoError(t, err)

	assert.Equal(t, OpCompareNodes, res.Operation)
	assert.Equal(t, model.VerdictFuse, res.Verdict)
	require.Len(t, res.Pairs, 1)
	assert.Contains(t, res.Pairs[0].Reasons[0], "registration_number")
	assert.Contains(t, res.Pairs[0].Reasons[0], "SE556677-1122")
	assert.Equal(t, [][]string{{"c1", "c2"}}, res.Groups)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Verdicts.WithLabelValues("FUSE")))
}

func TestCompareNodes_DifferentIdentifiers(t *testing.T) {
	op := New(fixture())
	res, err := op.CompareNodes(context.Background(), []string{"c1", "c3"})
	require.NoError(t, err)
	assert.Equal(t, model.VerdictRepel, res.Verdict)
}

func TestCompareNodes_TypeMismatch(t *testing.T) {
	op := New(fixture())
	res, err := op.CompareNodes(context.Background(), []string{"p1", "c1"})
	require.NoError(t, err)
	assert.Equal(t, model.VerdictRepel, res.Verdict)
	assert.Contains(t, res.Pairs[0].Reasons[0], "entity type mismatch")
}

func TestCompareNodes_LowOverlapRepel(t *testing.T) {
	op := New(fixture())
	res, err := op.CompareNodes(context.Background(), []string{"js1", "js2"})
	require.NoError(t, err)

	require.Len(t, res.Pairs, 1)
	total := res.Pairs[0].Score.Total
	assert.GreaterOrEqual(t, total, 0.15)
	assert.LessOrEqual(t, total, 0.30)
	assert.Equal(t, model.VerdictRepel, res.Verdict)
}

func TestCompareNodes_SparseNameOnlyRepel(t *testing.T) {
	op := New(state.NewMemoryProvider(
		model.Record{NodeID: "a", EntityType: "person", Name: "John A. Smith", Jurisdictions: []string{"US"}},
		model.Record{NodeID: "b", EntityType: "person", Name: "John A. Smith", Jurisdictions: []string{"GB"}},
	))
	res, err := op.CompareNodes(context.Background(), []string{"a", "b"})
	require.NoError(t, err)

	require.Len(t, res.Pairs, 1)
	assert.InDelta(t, 0.25, res.Pairs[0].Score.Total, 1e-9)
	assert.Equal(t, model.VerdictRepel, res.Verdict)
	assert.Empty(t, res.Pairs[0].Wedges)
}

func TestCompareNodes_Aggregate(t *testing.T) {
	op := New(fixture())
	res, err := op.CompareNodes(context.Background(), []string{"c1", "c2", "c3"})
	require.NoError(t, err)

	assert.Len(t, res.Pairs, 3)
	assert.Equal(t, model.VerdictRepel, res.Verdict)
	assert.Equal(t, [][]string{{"c1", "c2"}, {"c3"}}, res.Groups)
}

func TestCompareNodes_Errors(t *testing.T) {
	ctx := context.Background()

	_, err := New(nil).CompareNodes(ctx, []string{"a", "b"})
	assert.ErrorIs(t, err, model.ErrNoProvider)
	assert.True(t, model.IsConfigurationError(err))

	_, err = New(fixture()).CompareNodes(ctx, []string{"c1", "c1"})
	assert.True(t, model.IsConfigurationError(err))

	_, err = New(fixture()).CompareNodes(ctx, []string{"c1", "ghost"})
	assert.ErrorIs(t, err, model.ErrNodeNotFound)
}

type brokenProvider struct{ state.Provider }

func (brokenProvider) GetNode(context.Context, string) (*model.Record, error) {
	return nil, errors.New("connection refused")
}

func TestCompareNodes_ProviderFailure(t *testing.T) {
	_, err := New(brokenProvider{}).CompareNodes(context.Background(), []string{"a", "b"})
	require.Error(t, err)
	assert.False(t, model.IsConfigurationError(err))
	assert.Contains(t, err.Error(), "connection refused")
}

func TestFindSimilar(t *testing.T) {
	ctx := context.Background()
	op := New(fixture())

	res, err := op.FindSimilar(ctx, "c1", "", []string{"##jurisdiction:se", "##bogus", "plain"}, 2)
	require.NoError(t, err)

	assert.Equal(t, OpFindSimilar, res.Operation)
	assert.Equal(t, []string{"##jurisdiction:se"}, res.AppliedFilters)
	assert.Equal(t, []string{"##bogus", "plain"}, res.IgnoredFilters)
	require.Len(t, res.Matches, 2)
	for _, m := range res.Matches {
		assert.NotEqual(t, "c1", m.NodeID)
		assert.NotEqual(t, "p1", m.NodeID)
	}
	assert.GreaterOrEqual(t, res.Matches[0].Score.Total, res.Matches[1].Score.Total)

	_, err = op.FindSimilar(ctx, "", "", nil, 0)
	assert.True(t, model.IsConfigurationError(err))
}

func TestFindSimilar_Unlinked(t *testing.T) {
	ctx := context.Background()
	p := fixture()
	p.AddEdge("c1", "c2")
	op := New(p)

	res, err := op.FindSimilar(ctx, "c1", "company", []string{"##unlinked"}, 0)
	require.NoError(t, err)
	require.Len(t, res.Matches, 1)
	assert.Equal(t, "c3", res.Matches[0].NodeID)
}

func TestFindSimilar_Repelled(t *testing.T) {
	tests := []struct {
		name     string
		provider state.Provider
		want     []string
	}{
		{"repelled candidate dropped", repelled(fixture()), []string{"c2"}},
		{"provider without repels", struct{ state.Provider }{repelled(fixture())}, []string{"c2", "c3"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := New(tt.provider).FindSimilar(context.Background(), "c1", "company", nil, 0)
			require.NoError(t, err)
			var ids []string
			for _, m := range res.Matches {
				ids = append(ids, m.NodeID)
			}
			assert.ElementsMatch(t, tt.want, ids)
		})
	}
}

func repelled(p *state.MemoryProvider) *state.MemoryProvider {
	p.AddRepel("c3", "c1")
	return p
}

func TestClusterBySimilarity(t *testing.T) {
	ctx := context.Background()
	op := New(fixture())

	res, err := op.ClusterBySimilarity(ctx, "company", nil, 1.1)
	require.NoError(t, err)
	assert.Len(t, res.Clusters, 3)

	res, err = op.ClusterBySimilarity(ctx, "company", nil, 0)
	require.NoError(t, err)
	require.Len(t, res.Clusters, 1)
	assert.Equal(t, []string{"c1", "c2", "c3"}, res.Clusters[0].Members)

	_, err = op.ClusterBySimilarity(ctx, "", nil, 0.5)
	assert.True(t, model.IsConfigurationError(err))
}

func TestFindBridges(t *testing.T) {
	ctx := context.Background()
	op := New(fixture())

	res, err := op.FindBridges(ctx, []string{"c1", "c3"}, "", 0.3, 5)
	require.NoError(t, err)
	require.Len(t, res.Bridges, 1)
	assert.Equal(t, "c2", res.Bridges[0].NodeID)
	assert.Len(t, res.Bridges[0].PerTarget, 2)

	_, err = op.FindBridges(ctx, []string{"c1"}, "", 0.3, 5)
	assert.True(t, model.IsConfigurationError(err))
}
