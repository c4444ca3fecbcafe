package driver

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/agenthands/nexus/internal/core/disambiguation"
	"github.com/agenthands/nexus/internal/core/model"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedStore(mock *MockDriver) *Store {
	s := NewStore(mock)
	s.now = func() time.Time { return time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC) }
	return s
}

func TestStore_ClaimResolution(t *testing.T) {
	ctx := context.Background()
	for _, fresh := range []bool{true, false} {
		mock := &MockDriver{Results: map[string]neo4j.EagerResult{
			ClaimResolutionQuery: result(row([]string{"fresh"}, fresh)),
		}}
		got, err := fixedStore(mock).ClaimResolution(ctx, "a|b:REPEL", model.VerdictRepel, "different registries")
		require.NoError(t, err)
		assert.Equal(t, fresh, got)

		params := mock.Executed[0].Params
		assert.Equal(t, "REPEL", params["action"])
		assert.Equal(t, "2024-03-01T12:00:00Z", params["created_at"])
	}

	_, err := fixedStore(&MockDriver{}).ClaimResolution(ctx, "k", model.VerdictFuse, "")
	assert.Error(t, err)
}

func TestStore_PairEdges(t *testing.T) {
	ctx := context.Background()
	edgeRow := func() neo4j.EagerResult { return result(row([]string{"edges"}, int64(1))) }
	mock := &MockDriver{Results: map[string]neo4j.EagerResult{
		CreateNotSameAsQuery:          edgeRow(),
		CreateRelatedButDistinctQuery: edgeRow(),
	}}
	s := fixedStore(mock)

	require.NoError(t, s.CreateNegativeEdge(ctx, "p2", "p1", "born in different decades"))
	require.NoError(t, s.CreateRelatedEdge(ctx, "c1", "c9", "shared formation agent"))

	assert.Equal(t, []string{CreateNotSameAsQuery, CreateRelatedButDistinctQuery}, mock.queries())
	assert.Equal(t, "p1", mock.Executed[0].Params["a"])
	assert.Equal(t, "p2", mock.Executed[0].Params["b"])
	assert.Equal(t, "c1", mock.Executed[1].Params["a"])
}

func TestStore_PairEdgeMissingNode(t *testing.T) {
	err := fixedStore(&MockDriver{}).CreateNegativeEdge(context.Background(), "p1", "ghost", "")
	assert.ErrorIs(t, err, model.ErrNodeNotFound)

	err = fixedStore(&MockDriver{Err: errors.New("timeout")}).CreateRelatedEdge(context.Background(), "a", "b", "")
	assert.ErrorContains(t, err, "timeout")
}

func TestStore_MergeNodes(t *testing.T) {
	ctx := context.Background()
	merged := disambiguation.MergeRecords("rep-1",
		model.Record{NodeID: "c1", Name: "Acme Ltd", EntityType: "company", Attributes: map[string]any{"vat": "GB1"}},
		model.Record{NodeID: "c2", Name: "ACME Limited", EntityType: "company"},
	)

	mock := &MockDriver{Results: map[string]neo4j.EagerResult{
		MergeNodesQuery: result(row([]string{"merged"}, int64(2))),
	}}
	require.NoError(t, fixedStore(mock).MergeNodes(ctx, merged, "same registration"))

	params := mock.Executed[0].Params
	assert.Equal(t, "rep-1", params["node_id"])
	assert.Equal(t, []string{"c1", "c2"}, params["merged_from"])
	props := params["props"].(map[string]any)
	assert.Equal(t, "Acme Ltd", props["name"])
	assert.JSONEq(t, `{"vat":"GB1"}`, props["attributes"].(string))

	mock.Results[MergeNodesQuery] = result(row([]string{"merged"}, int64(1)))
	err := fixedStore(mock).MergeNodes(ctx, merged, "same registration")
	assert.ErrorContains(t, err, "merged 1 of 2")
}

func TestStore_SaveRecords(t *testing.T) {
	ctx := context.Background()
	mock := &MockDriver{}
	s := fixedStore(mock)

	err := s.SaveRecords(ctx,
		model.Record{NodeID: "c1", Name: "Acme", Edges: []model.Edge{
			{Source: "c1", Target: "p1"},
			{Source: "c1", Target: "c1", Type: "self"},
		}},
		model.Record{NodeID: "p1", Name: "Jane Doe", Edges: []model.Edge{{Source: "p1", Target: "c1", Type: "director"}}},
	)
	require.NoError(t, err)

	assert.Equal(t, []string{SaveEntityQuery, SaveEntityQuery, SaveRelationQuery, SaveRelationQuery}, mock.queries())
	assert.Equal(t, "related", mock.Executed[2].Params["type"])
	assert.Equal(t, "director", mock.Executed[3].Params["type"])

	err = s.SaveRecords(ctx, model.Record{Name: "anonymous"})
	assert.ErrorIs(t, err, model.ErrMissingNodeID)
}

func TestStore_WithResolutionEngine(t *testing.T) {
	ctx := context.Background()
	mock := &MockDriver{Results: map[string]neo4j.EagerResult{
		ClaimResolutionQuery: result(row([]string{"fresh"}, true)),
		CreateNotSameAsQuery: result(row([]string{"edges"}, int64(1))),
	}}
	engine := disambiguation.NewResolutionEngine(fixedStore(mock))

	res := disambiguation.Resolution{
		A:      model.Record{NodeID: "p1"},
		B:      model.Record{NodeID: "p2"},
		Action: model.VerdictRepel,
		Reason: "different dates of birth",
	}
	out, err := engine.Apply(ctx, res)
	require.NoError(t, err)
	assert.True(t, out.Applied)

	again, err := engine.Apply(ctx, res)
	require.NoError(t, err)
	assert.True(t, again.Duplicate)
	assert.Equal(t, []string{ClaimResolutionQuery, CreateNotSameAsQuery}, mock.queries())
}

func TestStore_ReleaseOnFailedEdge(t *testing.T) {
	mock := &MockDriver{Results: map[string]neo4j.EagerResult{
		ClaimResolutionQuery: result(row([]string{"fresh"}, true)),
	}}
	engine := disambiguation.NewResolutionEngine(fixedStore(mock))

	_, err := engine.Apply(context.Background(), disambiguation.Resolution{
		A:      model.Record{NodeID: "p1"},
		B:      model.Record{NodeID: "ghost"},
		Action: model.VerdictBinaryStar,
	})
	assert.ErrorIs(t, err, model.ErrNodeNotFound)
	assert.Equal(t, []string{ClaimResolutionQuery, CreateRelatedButDistinctQuery, ReleaseClaimQuery}, mock.queries())
}
