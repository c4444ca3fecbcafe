package compare

import (
	"testing"
	"time"

	"github.com/agenthands/nexus/internal/core/model"
	"github.com/stretchr/testify/assert"
)

func TestParseFilters(t *testing.T) {
	tests := []struct {
		name          string
		raw           []string
		jurisdictions []string
		sources       []string
		years         []int
		unlinked      bool
		ignored       []string
	}{
		{
			name:          "jurisdiction is uppercased",
			raw:           []string{"##jurisdiction:cy"},
			jurisdictions: []string{"CY"},
		},
		{
			name:    "source keeps case",
			raw:     []string{"##source:OpenCorporates"},
			sources: []string{"OpenCorporates"},
		},
		{
			name:     "several tokens in one string",
			raw:      []string{"##2019 ##2020", "##unlinked"},
			years:    []int{2019, 2020},
			unlinked: true,
		},
		{
			name:    "malformed tokens are ignored",
			raw:     []string{"##19", "##jurisdiction:", "##abcd", "2019", "##UNKNOWN"},
			ignored: []string{"##19", "##jurisdiction:", "##abcd", "2019", "##UNKNOWN"},
		},
		{
			name: "empty",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := ParseFilters(tt.raw)
			assert.ElementsMatch(t, tt.jurisdictions, f.Jurisdictions.Sorted())
			assert.ElementsMatch(t, tt.sources, f.Sources.Sorted())
			assert.Equal(t, tt.years, f.Years)
			assert.Equal(t, tt.unlinked, f.Unlinked)
			assert.Equal(t, tt.ignored, f.Ignored)
		})
	}
}

func TestFilters_Match(t *testing.T) {
	start := time.Date(2018, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2020, 6, 1, 0, 0, 0, 0, time.UTC)

	v := model.NewSimilarityVector("a", model.EntityCompany)
	v.Jurisdictions.Add("CY")
	v.Sources.Add("registry")
	v.TimeRange = &model.TimeRange{Start: &start, End: &end}

	undated := model.NewSimilarityVector("b", model.EntityCompany)
	undated.Jurisdictions.Add("CY")

	tests := []struct {
		raw  string
		want bool
	}{
		{"", true},
		{"##jurisdiction:CY", true},
		{"##jurisdiction:GB", false},
		{"##jurisdiction:GB ##jurisdiction:CY", true},
		{"##source:registry", true},
		{"##source:press", false},
		{"##2019", true},
		{"##2021", false},
		{"##2021 ##2018", true},
		{"##jurisdiction:CY ##source:press", false},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseFilters([]string{tt.raw}).Match(v))
		})
	}

	assert.False(t, ParseFilters([]string{"##2019"}).Match(undated))
	assert.Len(t, ParseFilters([]string{"##jurisdiction:cy"}).Apply([]*model.SimilarityVector{v, undated}), 2)
}
