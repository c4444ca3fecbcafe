package disambiguation

import (
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/agenthands/nexus/internal/core/model"
)

// Alternative is a conflicting value dropped during a merge.
type Alternative struct {
	Value  any    `json:"value"`
	Source string `json:"source"`
}

// FieldProvenance records where a merged field came from.
type FieldProvenance struct {
	Value        any           `json:"value"`
	Sources      []string      `json:"sources"`
	Alternatives []Alternative `json:"alternatives,omitempty"`
}

// MergedRecord is the representative node produced by a FUSE.
type MergedRecord struct {
	NodeID     string                     `json:"node_id"`
	Name       string                     `json:"name"`
	EntityType string                     `json:"entity_type"`
	Fields     map[string]FieldProvenance `json:"fields"`
	MergedFrom []string                   `json:"merged_from"`
}

// MergeRecords combines two records into one representative. The record
// with the lower node id wins scalar conflicts, so the result does not
// depend on argument order. Losing values are kept as alternatives.
func MergeRecords(id string, a, b model.Record) MergedRecord {
	if b.NodeID < a.NodeID {
		a, b = b, a
	}
	m := MergedRecord{
		NodeID:     id,
		Fields:     map[string]FieldProvenance{},
		MergedFrom: []string{a.NodeID, b.NodeID},
	}

	scalar := func(field string, va, vb any) {
		if p, ok := mergeScalar(a.NodeID, b.NodeID, va, vb); ok {
			m.Fields[field] = p
		}
	}
	list := func(field string, va, vb []string) {
		if p, ok := mergeList(a.NodeID, b.NodeID, va, vb); ok {
			m.Fields[field] = p
		}
	}

	scalar("name", a.Name, b.Name)
	scalar("entity_type", a.EntityType, b.EntityType)
	scalar("class", a.Class, b.Class)
	bound := func(field, va, vb, v string) {
		if v == "" {
			return
		}
		p := FieldProvenance{Value: v}
		if strings.TrimSpace(va) == v {
			p.Sources = append(p.Sources, a.NodeID)
		}
		if strings.TrimSpace(vb) == v {
			p.Sources = append(p.Sources, b.NodeID)
		}
		m.Fields[field] = p
	}
	bound("first_seen", a.FirstSeen, b.FirstSeen, earliest(a.FirstSeen, b.FirstSeen))
	bound("last_seen", a.LastSeen, b.LastSeen, latest(a.LastSeen, b.LastSeen))
	scalar("formation_agent", a.FormationAgent, b.FormationAgent)
	scalar("registered_agent", a.RegisteredAgent, b.RegisteredAgent)
	scalar("corporate_structure", a.CorporateStructure, b.CorporateStructure)
	scalar("incorporation_date", a.IncorporationDate, b.IncorporationDate)
	scalar("incorporation_jurisdiction", a.IncorporationJurisdiction, b.IncorporationJurisdiction)

	keys := map[string]bool{}
	for k := range a.Attributes {
		keys[k] = true
	}
	for k := range b.Attributes {
		keys[k] = true
	}
	for k := range keys {
		scalar("attributes."+k, a.Attributes[k], b.Attributes[k])
	}

	list("topics", a.Topics, b.Topics)
	list("industries", a.Industries, b.Industries)
	list("events", a.Events, b.Events)
	list("jurisdictions", withOne(a.Jurisdictions, a.Jurisdiction), withOne(b.Jurisdictions, b.Jurisdiction))
	list("sources", withOne(a.Sources, a.Source), withOne(b.Sources, b.Source))
	list("roles", a.Roles, b.Roles)
	list("shared_addresses", a.SharedAddresses, b.SharedAddresses)
	list("officers", a.Officers, b.Officers)
	list("directors", a.Directors, b.Directors)
	list("shareholders", a.Shareholders, b.Shareholders)
	list("companies", a.Companies, b.Companies)

	if p, ok := m.Fields["name"]; ok {
		m.Name, _ = p.Value.(string)
	}
	if p, ok := m.Fields["entity_type"]; ok {
		m.EntityType, _ = p.Value.(string)
	}
	return m
}

// Properties flattens the merge into graph node properties. Provenance is
// stored as "<field>__sources".
func (m MergedRecord) Properties() map[string]any {
	props := map[string]any{
		"node_id":     m.NodeID,
		"merged_from": m.MergedFrom,
	}
	for field, p := range m.Fields {
		key := strings.ReplaceAll(field, ".", "_")
		props[key] = propertyValue(p.Value)
		props[key+"__sources"] = p.Sources
		if len(p.Alternatives) > 0 {
			alts := make([]string, len(p.Alternatives))
			for i, alt := range p.Alternatives {
				alts[i] = fmt.Sprintf("%v@%s", alt.Value, alt.Source)
			}
			props[key+"__alternatives"] = alts
		}
	}
	return props
}

// propertyValue keeps values the graph can store and stringifies the rest.
func propertyValue(v any) any {
	switch v.(type) {
	case string, bool, int, int64, float64, []string:
		return v
	}
	return fmt.Sprint(v)
}

func mergeScalar(idA, idB string, va, vb any) (FieldProvenance, bool) {
	emptyA, emptyB := isEmpty(va), isEmpty(vb)
	switch {
	case emptyA && emptyB:
		return FieldProvenance{}, false
	case emptyB:
		return FieldProvenance{Value: va, Sources: []string{idA}}, true
	case emptyA:
		return FieldProvenance{Value: vb, Sources: []string{idB}}, true
	case reflect.DeepEqual(va, vb):
		return FieldProvenance{Value: va, Sources: []string{idA, idB}}, true
	}
	return FieldProvenance{
		Value:        va,
		Sources:      []string{idA},
		Alternatives: []Alternative{{Value: vb, Source: idB}},
	}, true
}

func mergeList(idA, idB string, va, vb []string) (FieldProvenance, bool) {
	set := model.Set{}
	var sources []string
	for _, src := range []struct {
		id     string
		values []string
	}{{idA, va}, {idB, vb}} {
		added := false
		for _, v := range src.values {
			if v = strings.TrimSpace(v); v != "" {
				set.Add(v)
				added = true
			}
		}
		if added {
			sources = append(sources, src.id)
		}
	}
	if set.Len() == 0 {
		return FieldProvenance{}, false
	}
	return FieldProvenance{Value: set.Sorted(), Sources: sources}, true
}

func isEmpty(v any) bool {
	if v == nil {
		return true
	}
	if s, ok := v.(string); ok {
		return strings.TrimSpace(s) == ""
	}
	return strings.TrimSpace(fmt.Sprint(v)) == ""
}

func withOne(values []string, one string) []string {
	out := append([]string{}, values...)
	if one != "" {
		out = append(out, one)
	}
	return out
}

// earliest and latest compare the raw strings; ISO dates sort lexically.
func earliest(a, b string) string {
	vals := nonEmpty(a, b)
	if len(vals) == 0 {
		return ""
	}
	sort.Strings(vals)
	return vals[0]
}

func latest(a, b string) string {
	vals := nonEmpty(a, b)
	if len(vals) == 0 {
		return ""
	}
	sort.Strings(vals)
	return vals[len(vals)-1]
}

func nonEmpty(vals ...string) []string {
	var out []string
	for _, v := range vals {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
