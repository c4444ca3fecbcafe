package vector

import (
	"testing"
	"time"

	"github.com/agenthands/nexus/internal/core/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuild_ClassifiesAttributes(t *testing.T) {
	rec := model.Record{
		NodeID:     "c1",
		EntityType: "Company",
		Name:       "Acme Holdings AB",
		Attributes: map[string]any{
			"Registration Number": "SE556677-1122",
			"vat":                 "SE5566771122",
			"registered_address":  "Storgatan 1, Stockholm",
			"phone":               "+46 8 123 456",
			"status":              "active",
			"employees":           float64(120),
			"empty":               "   ",
		},
	}

	v, err := Build(rec)
	require.NoError(t, err)

	assert.Equal(t, model.EntityCompany, v.EntityType())
	assert.Equal(t, "SE556677-1122", v.CoreAttributes["registration_number"])
	assert.Equal(t, "SE5566771122", v.CoreAttributes["vat"])
	assert.Contains(t, v.ShellAttributes, "registered_address")
	assert.Contains(t, v.ShellAttributes, "phone")
	assert.Contains(t, v.ShellAttributes, "status")
	assert.Equal(t, "120", v.ShellAttributes["employees"])
	assert.NotContains(t, v.ShellAttributes, "empty")

	keys := v.AttributeKeys()
	assert.Equal(t, len(v.CoreAttributes)+len(v.ShellAttributes), keys.Len())
}

func TestBuild_MissingNodeID(t *testing.T) {
	_, err := Build(model.Record{Name: "nobody"})
	require.Error(t, err)

	var dataErr *model.DataError
	require.ErrorAs(t, err, &dataErr)
	assert.ErrorIs(t, err, model.ErrMissingNodeID)
}

func TestBuild_DefaultsEmptyContainers(t *testing.T) {
	v, err := Build(model.Record{NodeID: "x"})
	require.NoError(t, err)

	assert.Equal(t, model.EntityUnknown, v.EntityType())
	assert.NotNil(t, v.CoreAttributes)
	assert.NotNil(t, v.ShellAttributes)
	assert.Equal(t, 0, v.Topics.Len())
	assert.Equal(t, 0, v.AllRelationships().Len())
	assert.Nil(t, v.TimeRange)
}

func TestBuild_EntityTypeFallsBackToClass(t *testing.T) {
	v, err := Build(model.Record{NodeID: "p1", Class: "person"})
	require.NoError(t, err)
	assert.Equal(t, model.EntityPerson, v.EntityType())
}

func TestBuild_TimeRange(t *testing.T) {
	tests := []struct {
		name      string
		first     string
		last      string
		wantUnset bool
		wantStart int
		wantEnd   int
	}{
		{name: "both years", first: "2015", last: "2018", wantStart: 2015, wantEnd: 2018},
		{name: "full dates", first: "2015-03-01", last: "2018-11-30", wantStart: 2015, wantEnd: 2018},
		{name: "rfc3339", first: "2015-03-01T10:00:00Z", last: "", wantStart: 2015, wantEnd: 2015},
		{name: "swapped", first: "2020", last: "2010", wantStart: 2010, wantEnd: 2020},
		{name: "garbage start", first: "last spring", last: "2018", wantUnset: true},
		{name: "garbage end", first: "2015", last: "soon", wantUnset: true},
		{name: "none", wantUnset: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := Build(model.Record{NodeID: "n", FirstSeen: tt.first, LastSeen: tt.last})
			require.NoError(t, err)
			if tt.wantUnset {
				assert.Nil(t, v.TimeRange)
				return
			}
			start, end, ok := v.TimeRange.Bounds()
			require.True(t, ok)
			assert.Equal(t, tt.wantStart, start.Year())
			assert.Equal(t, tt.wantEnd, end.Year())
		})
	}
}

func TestBuild_ConnectedEntitiesExcludeSelf(t *testing.T) {
	rec := model.Record{
		NodeID: "a",
		Edges: []model.Edge{
			{Source: "a", Target: "b", Type: "officer_of"},
			{Source: "c", Target: "a"},
			{Source: "a", Target: "a", Type: "self"},
			{Source: "x", Target: "y"},
		},
	}

	v, err := Build(rec)
	require.NoError(t, err)

	assert.ElementsMatch(t, []string{"b", "c"}, v.ConnectedEntities.Sorted())
	assert.True(t, v.Connections["officer_of"].Has("b"))
	assert.True(t, v.Connections[defaultEdgeType].Has("c"))
	assert.NotContains(t, v.Connections, "self")
}

func TestBuild_SetsAndCorporateFields(t *testing.T) {
	rec := model.Record{
		NodeID:                    "c",
		Jurisdictions:             []string{"se", " gb "},
		Jurisdiction:              "SE",
		Sources:                   []string{"registry"},
		Source:                    "news",
		Topics:                    []string{"Shipping"},
		SharedAddresses:           []string{"  Storgatan  1 "},
		FormationAgent:            " Nordic Formations ",
		CorporateStructure:        "Subsidiary",
		IncorporationDate:         "2009-04-01",
		IncorporationJurisdiction: "se",
		Presences:                 []model.Presence{{Place: "Oslo", FirstSeen: "2019-05-01"}, {Place: ""}},
	}

	v, err := Build(rec)
	require.NoError(t, err)

	assert.Equal(t, []string{"GB", "SE"}, v.Jurisdictions.Sorted())
	assert.Equal(t, []string{"news", "registry"}, v.Sources.Sorted())
	assert.True(t, v.Topics.Has("shipping"))
	assert.True(t, v.SharedAddresses.Has("storgatan 1"))
	assert.Equal(t, "Nordic Formations", v.FormationAgent)
	assert.Equal(t, "subsidiary", v.CorporateStructure)
	assert.Equal(t, "SE", v.IncorporationJurisdiction)
	require.NotNil(t, v.IncorporationDate)
	assert.Equal(t, time.April, v.IncorporationDate.Month())
	require.Len(t, v.Presences, 1)
	assert.Equal(t, "Oslo", v.Presences[0].Place)
}

func TestBuildAll_SkipsBadRecords(t *testing.T) {
	vectors, err := BuildAll([]model.Record{{NodeID: "a"}, {}, {NodeID: "b"}})
	assert.Error(t, err)
	assert.Len(t, vectors, 2)
}
