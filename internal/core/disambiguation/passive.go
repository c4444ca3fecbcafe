// Package disambiguation decides ambiguous pairs without scoring: passive
// constraint checks, wedge query proposals and applying final resolutions
// to the graph.
package disambiguation

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/agenthands/nexus/internal/core/model"
	"github.com/agenthands/nexus/internal/core/vector"
)

// Passive check names.
const (
	CheckTemporal   = "temporal_impossibility"
	CheckIdentifier = "identifier_collision"
	CheckGeography  = "exclusive_geography"
	CheckAge        = "age_consistency"
)

// Identifiers that can never be shared by two different subjects, and that a
// subject only ever holds one of.
var stableIdentifiers = []string{"national_id", "tax_id", "vat", "lei", "duns", "imo", "isin"}

// Identifiers a subject may legitimately hold several of over time.
var renewableIdentifiers = []string{"passport", "passport_number", "iban", "swift"}

var dobKeys = []string{"dob", "date_of_birth", "birth_date"}

// PassiveChecker runs automatic constraint checks on a pair.
type PassiveChecker struct {
	// AgeToleranceYears is how far a claimed age may drift from the date of
	// birth before the pair is repelled.
	AgeToleranceYears int
}

func NewPassiveChecker() *PassiveChecker {
	return &PassiveChecker{AgeToleranceYears: 1}
}

// Check runs every check and combines them. Conflicting conclusive checks
// leave the pair undecided.
func (c *PassiveChecker) Check(a, b *model.SimilarityVector) model.PassiveResult {
	checks := []model.CheckResult{
		c.temporal(a, b),
		c.identifiers(a, b),
		c.geography(a, b),
		c.age(a, b),
	}

	var fuse, repel []string
	for _, r := range checks {
		switch r.Outcome {
		case model.AutoFuse:
			fuse = append(fuse, r.Reason)
		case model.AutoRepel:
			repel = append(repel, r.Reason)
		}
	}

	res := model.PassiveResult{Outcome: model.PassiveUndecided, Checks: checks}
	switch {
	case len(fuse) > 0 && len(repel) > 0:
		res.Reason = "conflicting passive evidence"
	case len(repel) > 0:
		res.Outcome = model.AutoRepel
		res.Reason = strings.Join(repel, "; ")
	case len(fuse) > 0:
		res.Outcome = model.AutoFuse
		res.Reason = strings.Join(fuse, "; ")
	}
	return res
}

// temporal repels two people seen in different places at the same time.
func (c *PassiveChecker) temporal(a, b *model.SimilarityVector) model.CheckResult {
	r := model.CheckResult{Check: CheckTemporal, Outcome: model.PassiveUndecided}
	if a.EntityType() != model.EntityPerson || b.EntityType() != model.EntityPerson {
		return r
	}
	for _, pa := range a.Presences {
		for _, pb := range b.Presences {
			if strings.EqualFold(pa.Place, pb.Place) {
				continue
			}
			if !rangesOverlap(pa.Range, pb.Range) {
				continue
			}
			r.Outcome = model.AutoRepel
			r.Reason = fmt.Sprintf("%s in %s and %s in %s at the same time", a.NodeID, pa.Place, b.NodeID, pb.Place)
			return r
		}
	}
	return r
}

func (c *PassiveChecker) identifiers(a, b *model.SimilarityVector) model.CheckResult {
	r := model.CheckResult{Check: CheckIdentifier, Outcome: model.PassiveUndecided}

	var differing []string
	for _, key := range append(append([]string{}, stableIdentifiers...), renewableIdentifiers...) {
		va, okA := a.Attribute(key)
		vb, okB := b.Attribute(key)
		if !okA || !okB {
			continue
		}
		if normalizeIdentifier(va) == normalizeIdentifier(vb) {
			r.Outcome = model.AutoFuse
			r.Reason = fmt.Sprintf("shared %s %s", key, va)
			return r
		}
		if isStable(key) {
			differing = append(differing, key)
		}
	}
	if len(differing) > 0 {
		r.Outcome = model.AutoRepel
		r.Reason = "different " + strings.Join(differing, ", ")
	}
	return r
}

// geography repels claims that cannot both hold: a company is incorporated
// once, a person is born once.
func (c *PassiveChecker) geography(a, b *model.SimilarityVector) model.CheckResult {
	r := model.CheckResult{Check: CheckGeography, Outcome: model.PassiveUndecided}

	switch {
	case a.EntityType() == model.EntityCompany && b.EntityType() == model.EntityCompany:
		ja, jb := a.IncorporationJurisdiction, b.IncorporationJurisdiction
		if ja != "" && jb != "" && ja != jb {
			r.Outcome = model.AutoRepel
			r.Reason = fmt.Sprintf("incorporated in %s and %s", ja, jb)
		}
	case a.EntityType() == model.EntityPerson && b.EntityType() == model.EntityPerson:
		for _, key := range []string{"place_of_birth", "country_of_birth", "birth_place", "nationality"} {
			va, okA := a.Attribute(key)
			vb, okB := b.Attribute(key)
			if !okA || !okB || strings.EqualFold(va, vb) {
				continue
			}
			// dual nationality is not exclusive
			if key == "nationality" && (multiValued(va) || multiValued(vb)) {
				continue
			}
			r.Outcome = model.AutoRepel
			r.Reason = fmt.Sprintf("%s %s vs %s", key, va, vb)
			return r
		}
	}
	return r
}

// age repels differing dates of birth, or a claimed age that does not fit
// the other record's date of birth.
func (c *PassiveChecker) age(a, b *model.SimilarityVector) model.CheckResult {
	r := model.CheckResult{Check: CheckAge, Outcome: model.PassiveUndecided}
	if a.EntityType() != model.EntityPerson || b.EntityType() != model.EntityPerson {
		return r
	}

	dobA, rawA, okA := dateOfBirth(a)
	dobB, rawB, okB := dateOfBirth(b)
	if okA && okB {
		yearOnly := len(rawA) == 4 || len(rawB) == 4
		same := dobA.Equal(dobB)
		if yearOnly {
			same = dobA.Year() == dobB.Year()
		}
		if !same {
			r.Outcome = model.AutoRepel
			r.Reason = fmt.Sprintf("dates of birth %s and %s differ", rawA, rawB)
		}
		return r
	}

	if okA {
		if reason, bad := c.ageMismatch(dobA, b); bad {
			r.Outcome, r.Reason = model.AutoRepel, reason
		}
	} else if okB {
		if reason, bad := c.ageMismatch(dobB, a); bad {
			r.Outcome, r.Reason = model.AutoRepel, reason
		}
	}
	return r
}

// ageMismatch compares other's claimed age, as of its last sighting, with
// dob.
func (c *PassiveChecker) ageMismatch(dob time.Time, other *model.SimilarityVector) (string, bool) {
	raw, ok := other.Attribute("age")
	if !ok {
		return "", false
	}
	claimed, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return "", false
	}
	_, asOf, ok := other.TimeRange.Bounds()
	if !ok {
		return "", false
	}
	actual := yearsBetween(dob, asOf)
	diff := actual - claimed
	if diff < 0 {
		diff = -diff
	}
	if diff <= c.AgeToleranceYears {
		return "", false
	}
	return fmt.Sprintf("%s claims age %d but date of birth implies %d", other.NodeID, claimed, actual), true
}

func dateOfBirth(v *model.SimilarityVector) (time.Time, string, bool) {
	for _, key := range dobKeys {
		raw, ok := v.Attribute(key)
		if !ok {
			continue
		}
		if t, ok := vector.ParseDate(raw); ok {
			return t, strings.TrimSpace(raw), true
		}
	}
	return time.Time{}, "", false
}

func yearsBetween(from, to time.Time) int {
	years := to.Year() - from.Year()
	if to.YearDay() < from.YearDay() {
		years--
	}
	return years
}

func rangesOverlap(a, b *model.TimeRange) bool {
	startA, endA, okA := a.Bounds()
	startB, endB, okB := b.Bounds()
	if !okA || !okB {
		return false
	}
	return !startA.After(endB) && !startB.After(endA)
}

func normalizeIdentifier(s string) string {
	return strings.Map(func(r rune) rune {
		if r == ' ' || r == '-' || r == '.' || r == '/' {
			return -1
		}
		return r
	}, strings.ToUpper(strings.TrimSpace(s)))
}

func isStable(key string) bool {
	for _, k := range stableIdentifiers {
		if k == key {
			return true
		}
	}
	return false
}

func multiValued(s string) bool {
	return strings.ContainsAny(s, ",/;&")
}
