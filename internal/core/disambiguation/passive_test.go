package disambiguation

import (
	"testing"
	"time"

	"github.com/agenthands/nexus/internal/core/model"
	"github.com/stretchr/testify/assert"
)

func person(id string) *model.SimilarityVector {
	return model.NewSimilarityVector(id, model.EntityPerson)
}

func company(id string) *model.SimilarityVector {
	return model.NewSimilarityVector(id, model.EntityCompany)
}

func between(from, to int) *model.TimeRange {
	s := time.Date(from, 1, 1, 0, 0, 0, 0, time.UTC)
	e := time.Date(to, 12, 31, 0, 0, 0, 0, time.UTC)
	return &model.TimeRange{Start: &s, End: &e}
}

func findCheck(res model.PassiveResult, name string) model.CheckResult {
	for _, c := range res.Checks {
		if c.Check == name {
			return c
		}
	}
	return model.CheckResult{}
}

func TestPassiveChecker_Temporal(t *testing.T) {
	c := NewPassiveChecker()
	a, b := person("a"), person("b")
	a.Presences = []model.PresenceSpan{{Place: "Oslo", Range: between(2010, 2012)}}
	b.Presences = []model.PresenceSpan{{Place: "Lagos", Range: between(2011, 2013)}}

	res := c.Check(a, b)
	assert.Equal(t, model.AutoRepel, res.Outcome)
	assert.Equal(t, model.AutoRepel, findCheck(res, CheckTemporal).Outcome)

	b.Presences[0].Range = between(2014, 2015)
	res = c.Check(a, b)
	assert.Equal(t, model.PassiveUndecided, findCheck(res, CheckTemporal).Outcome)

	// companies can be in several places at once
	ca, cb := company("ca"), company("cb")
	ca.Presences, cb.Presences = a.Presences, []model.PresenceSpan{{Place: "Lagos", Range: between(2011, 2013)}}
	assert.Equal(t, model.PassiveUndecided, findCheck(c.Check(ca, cb), CheckTemporal).Outcome)
}

func TestPassiveChecker_Identifiers(t *testing.T) {
	tests := []struct {
		name string
		a, b map[string]string
		want model.PassiveOutcome
	}{
		{"same lei", map[string]string{"lei": "5493 00ABC"}, map[string]string{"lei": "549300abc"}, model.AutoFuse},
		{"different lei", map[string]string{"lei": "1"}, map[string]string{"lei": "2"}, model.AutoRepel},
		{"different passport", map[string]string{"passport": "X1"}, map[string]string{"passport": "X2"}, model.PassiveUndecided},
		{"one side only", map[string]string{"duns": "1"}, map[string]string{}, model.PassiveUndecided},
		{"match beats stable mismatch", map[string]string{"vat": "1", "passport": "P"}, map[string]string{"vat": "2", "passport": "P"}, model.AutoFuse},
	}
	c := NewPassiveChecker()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, b := person("a"), person("b")
			for k, v := range tt.a {
				a.CoreAttributes[k] = v
			}
			for k, v := range tt.b {
				b.CoreAttributes[k] = v
			}
			assert.Equal(t, tt.want, findCheck(c.Check(a, b), CheckIdentifier).Outcome)
		})
	}
}

func TestPassiveChecker_Geography(t *testing.T) {
	c := NewPassiveChecker()

	ca, cb := company("a"), company("b")
	ca.IncorporationJurisdiction, cb.IncorporationJurisdiction = "SE", "CY"
	assert.Equal(t, model.AutoRepel, findCheck(c.Check(ca, cb), CheckGeography).Outcome)

	pa, pb := person("a"), person("b")
	pa.ShellAttributes["nationality"] = "SE, US"
	pb.ShellAttributes["nationality"] = "US"
	assert.Equal(t, model.PassiveUndecided, findCheck(c.Check(pa, pb), CheckGeography).Outcome)

	pa.CoreAttributes["place_of_birth"] = "Malmo"
	pb.CoreAttributes["place_of_birth"] = "Leeds"
	assert.Equal(t, model.AutoRepel, findCheck(c.Check(pa, pb), CheckGeography).Outcome)
}

func TestPassiveChecker_Age(t *testing.T) {
	c := NewPassiveChecker()

	t.Run("different dob", func(t *testing.T) {
		a, b := person("a"), person("b")
		a.CoreAttributes["dob"] = "1970-05-01"
		b.CoreAttributes["date_of_birth"] = "1971-02-03"
		assert.Equal(t, model.AutoRepel, findCheck(c.Check(a, b), CheckAge).Outcome)
	})

	t.Run("year precision", func(t *testing.T) {
		a, b := person("a"), person("b")
		a.CoreAttributes["dob"] = "1970"
		b.CoreAttributes["dob"] = "1970-05-01"
		assert.Equal(t, model.PassiveUndecided, findCheck(c.Check(a, b), CheckAge).Outcome)
	})

	t.Run("claimed age", func(t *testing.T) {
		a, b := person("a"), person("b")
		a.CoreAttributes["dob"] = "1970-05-01"
		b.ShellAttributes["age"] = "30"
		b.TimeRange = between(2019, 2020)
		assert.Equal(t, model.AutoRepel, findCheck(c.Check(a, b), CheckAge).Outcome)

		b.ShellAttributes["age"] = "50"
		assert.Equal(t, model.PassiveUndecided, findCheck(c.Check(a, b), CheckAge).Outcome)
	})
}

func TestPassiveChecker_Conflicting(t *testing.T) {
	c := NewPassiveChecker()
	a, b := person("a"), person("b")
	a.CoreAttributes["national_id"] = "123"
	b.CoreAttributes["national_id"] = "123"
	a.CoreAttributes["dob"] = "1970-01-01"
	b.CoreAttributes["dob"] = "1980-01-01"

	res := c.Check(a, b)
	assert.Equal(t, model.PassiveUndecided, res.Outcome)
	assert.Equal(t, "conflicting passive evidence", res.Reason)
	assert.False(t, res.Conclusive())
}
