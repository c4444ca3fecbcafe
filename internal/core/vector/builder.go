// Package vector turns attribute records into similarity vectors.
package vector

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/agenthands/nexus/internal/core/model"
)

// defaultEdgeType labels edges that arrive without a type.
const defaultEdgeType = "related"

var timeLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02",
	"2006-01",
	"2006",
}

// Build maps a record onto a SimilarityVector. It never fails on malformed
// optional fields; only a missing node id is reported, as a *model.DataError.
func Build(rec model.Record) (*model.SimilarityVector, error) {
	nodeID := strings.TrimSpace(rec.NodeID)
	if nodeID == "" {
		return nil, &model.DataError{Field: "node_id", Err: model.ErrMissingNodeID}
	}

	entityType := model.ParseEntityType(rec.EntityType)
	if entityType == model.EntityUnknown && rec.Class != "" {
		entityType = model.ParseEntityType(rec.Class)
	}

	v := model.NewSimilarityVector(nodeID, entityType)
	v.Name = strings.TrimSpace(rec.Name)
	if len(rec.NameEmbedding) > 0 {
		v.NameEmbedding = append([]float32(nil), rec.NameEmbedding...)
	}

	for key, raw := range rec.Attributes {
		k := NormalizeKey(key)
		val := stringify(raw)
		if k == "" || val == "" {
			continue
		}
		if IsCoreKey(k) {
			v.CoreAttributes[k] = val
		} else {
			v.ShellAttributes[k] = val
		}
	}

	addAll(v.Topics, rec.Topics, strings.ToLower)
	addAll(v.Industries, rec.Industries, strings.ToLower)
	addAll(v.Events, rec.Events, strings.ToLower)
	addAll(v.Jurisdictions, rec.Jurisdictions, strings.ToUpper)
	addAll(v.Jurisdictions, []string{rec.Jurisdiction}, strings.ToUpper)
	addAll(v.Sources, rec.Sources, nil)
	addAll(v.Sources, []string{rec.Source}, nil)
	addAll(v.Roles, rec.Roles, strings.ToLower)

	v.TimeRange = ParseTimeRange(rec.FirstSeen, rec.LastSeen)

	for _, e := range rec.Edges {
		other := ""
		switch {
		case e.Source == nodeID:
			other = strings.TrimSpace(e.Target)
		case e.Target == nodeID:
			other = strings.TrimSpace(e.Source)
		}
		if other == "" || other == nodeID {
			continue
		}
		v.ConnectedEntities.Add(other)
		edgeType := strings.TrimSpace(e.Type)
		if edgeType == "" {
			edgeType = defaultEdgeType
		}
		if v.Connections[edgeType] == nil {
			v.Connections[edgeType] = model.Set{}
		}
		v.Connections[edgeType].Add(other)
	}

	addAll(v.SharedAddresses, rec.SharedAddresses, normalizeAddress)
	addAll(v.SharedOfficers, rec.Officers, nil)
	addAll(v.SharedDirectors, rec.Directors, nil)
	addAll(v.SharedShareholders, rec.Shareholders, nil)
	addAll(v.SharedCompanies, rec.Companies, nil)

	v.FormationAgent = strings.TrimSpace(rec.FormationAgent)
	v.RegisteredAgent = strings.TrimSpace(rec.RegisteredAgent)
	v.CorporateStructure = strings.ToLower(strings.TrimSpace(rec.CorporateStructure))
	v.IncorporationJurisdiction = strings.ToUpper(strings.TrimSpace(rec.IncorporationJurisdiction))
	if t, ok := parseTime(rec.IncorporationDate); ok {
		v.IncorporationDate = &t
	}

	for _, p := range rec.Presences {
		place := strings.TrimSpace(p.Place)
		if place == "" {
			continue
		}
		v.Presences = append(v.Presences, model.PresenceSpan{
			Place:    place,
			Activity: strings.TrimSpace(p.Activity),
			Range:    ParseTimeRange(p.FirstSeen, p.LastSeen),
		})
	}

	return v, nil
}

// BuildAll builds vectors for every record it can. Records without a node id
// are skipped and their errors joined.
func BuildAll(records []model.Record) ([]*model.SimilarityVector, error) {
	vectors := make([]*model.SimilarityVector, 0, len(records))
	var errs []error
	for i, rec := range records {
		v, err := Build(rec)
		if err != nil {
			errs = append(errs, fmt.Errorf("record %d: %w", i, err))
			continue
		}
		vectors = append(vectors, v)
	}
	return vectors, errors.Join(errs...)
}

// ParseTimeRange parses first/last seen bounds. Any bound that is present but
// unparseable leaves the whole range unset.
func ParseTimeRange(firstSeen, lastSeen string) *model.TimeRange {
	firstSeen, lastSeen = strings.TrimSpace(firstSeen), strings.TrimSpace(lastSeen)
	if firstSeen == "" && lastSeen == "" {
		return nil
	}
	r := &model.TimeRange{}
	if firstSeen != "" {
		t, ok := parseTime(firstSeen)
		if !ok {
			return nil
		}
		r.Start = &t
	}
	if lastSeen != "" {
		t, ok := parseTime(lastSeen)
		if !ok {
			return nil
		}
		r.End = &t
	}
	if r.Start != nil && r.End != nil && r.End.Before(*r.Start) {
		r.Start, r.End = r.End, r.Start
	}
	return r
}

func parseTime(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

// ParseDate exposes the builder's date parsing to other components.
func ParseDate(s string) (time.Time, bool) {
	return parseTime(s)
}

func stringify(raw any) string {
	switch val := raw.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(val)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case fmt.Stringer:
		return strings.TrimSpace(val.String())
	default:
		return strings.TrimSpace(fmt.Sprint(val))
	}
}

func addAll(dst model.Set, values []string, transform func(string) string) {
	for _, v := range values {
		v = strings.TrimSpace(v)
		if transform != nil {
			v = transform(v)
		}
		dst.Add(v)
	}
}

func normalizeAddress(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}
