package compare

import (
	"fmt"
	"strings"

	"github.com/agenthands/nexus/internal/core/model"
)

// uniqueIdentifiers decide a pair outright when both sides carry them.
var uniqueIdentifiers = []string{"ssn", "ein", "company_number", "registration_number"}

// ComparePair derives the verdict for one pair. The first matching rule
// wins: entity type, unique identifiers, passive checks, fuse threshold,
// repel threshold, otherwise INCONCLUSIVE with wedge suggestions.
func (o *Operator) ComparePair(a, b *model.SimilarityVector) model.PairComparison {
	score := o.engine.Compute(a, b)
	pc := model.PairComparison{A: a.NodeID, B: b.NodeID, Score: score}
	th := o.thresholdsFor(a, b)

	if a.EntityType() != b.EntityType() {
		pc.Verdict = model.VerdictRepel
		pc.Reasons = []string{fmt.Sprintf("entity type mismatch: %s vs %s", a.EntityType(), b.EntityType())}
		return pc
	}

	if verdict, reason, ok := identifierVerdict(a, b); ok {
		pc.Verdict = verdict
		pc.Reasons = []string{reason}
		return pc
	}

	if o.passive != nil {
		res := o.passive.Check(a, b)
		pc.Passive = &res
		switch res.Outcome {
		case model.AutoFuse:
			pc.Verdict = model.VerdictFuse
			pc.Reasons = []string{"passive check: " + res.Reason}
			return pc
		case model.AutoRepel:
			pc.Verdict = model.VerdictRepel
			pc.Reasons = []string{"passive check: " + res.Reason}
			return pc
		}
	}

	switch {
	case score.Total > th.Fuse:
		if reason, ok := relatedButDistinct(a, b, score, th); ok {
			pc.Verdict = model.VerdictBinaryStar
			pc.Reasons = []string{reason}
			return pc
		}
		pc.Verdict = model.VerdictFuse
		pc.Reasons = []string{fmt.Sprintf("similarity %.2f above fuse threshold %.2f (%s)", score.Total, th.Fuse, score.Explanation)}
		return pc
	case score.Total < th.Repel:
		pc.Verdict = model.VerdictRepel
		pc.Reasons = []string{fmt.Sprintf("similarity %.2f below repel threshold %.2f (%s)", score.Total, th.Repel, score.Explanation)}
		return pc
	}

	pc.Verdict = model.VerdictInconclusive
	pc.Reasons = []string{fmt.Sprintf("similarity %.2f between thresholds (%s)", score.Total, score.Explanation)}
	// An unknown jurisdiction is not evidence of disjointness.
	disjoint := a.Jurisdictions.Len() > 0 && b.Jurisdictions.Len() > 0 && a.Jurisdictions.IntersectionSize(b.Jurisdictions) == 0
	if o.wedges != nil && (score.Dimension(model.DimName) > th.WedgeName || disjoint) {
		pc.Wedges = o.wedges.Generate(a, b, th.MaxWedges)
	}
	return pc
}

// Aggregate folds pair verdicts: any REPEL wins, then all-FUSE, then any
// BINARY_STAR. Everything else, including no pairs, is INCONCLUSIVE.
func Aggregate(pairs []model.PairComparison) model.Verdict {
	if len(pairs) == 0 {
		return model.VerdictInconclusive
	}
	allFuse, anyStar := true, false
	for _, p := range pairs {
		switch p.Verdict {
		case model.VerdictRepel:
			return model.VerdictRepel
		case model.VerdictBinaryStar:
			anyStar = true
		}
		if p.Verdict != model.VerdictFuse {
			allFuse = false
		}
	}
	switch {
	case allFuse:
		return model.VerdictFuse
	case anyStar:
		return model.VerdictBinaryStar
	}
	return model.VerdictInconclusive
}

func identifierVerdict(a, b *model.SimilarityVector) (model.Verdict, string, bool) {
	for _, key := range uniqueIdentifiers {
		va, vb := a.CoreAttributes[key], b.CoreAttributes[key]
		if va == "" || vb == "" {
			continue
		}
		if normalizeIdentifier(va) == normalizeIdentifier(vb) {
			return model.VerdictFuse, fmt.Sprintf("shared %s %s", key, va), true
		}
		return model.VerdictRepel, fmt.Sprintf("different %s: %s vs %s", key, va, vb), true
	}
	return "", "", false
}

func relatedButDistinct(a, b *model.SimilarityVector, score *model.SimilarityScore, th Thresholds) (string, bool) {
	conn, name := score.Dimension(model.DimSharedConnections), score.Dimension(model.DimName)
	if conn > th.BinaryStarConnections && name < th.BinaryStarName {
		return fmt.Sprintf("shared connections %.2f with distinct names %.2f", conn, name), true
	}
	ca, cb := a.CorporateStructure, b.CorporateStructure
	if a.SharedAddresses.IntersectionSize(b.SharedAddresses) > 0 && ca != "" && cb != "" && ca != cb {
		return fmt.Sprintf("shared address with different corporate structure (%s vs %s)", ca, cb), true
	}
	return "", false
}

func normalizeIdentifier(s string) string {
	return strings.ToUpper(strings.Join(strings.Fields(s), ""))
}
