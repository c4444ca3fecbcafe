package model

import (
	"strings"
	"time"
)

// EntityType classifies what kind of subject a vector describes.
type EntityType string

const (
	EntityPerson    EntityType = "person"
	EntityCompany   EntityType = "company"
	EntityAsset     EntityType = "asset"
	EntitySource    EntityType = "source"
	EntityDocument  EntityType = "document"
	EntityDomain    EntityType = "domain"
	EntityQuery     EntityType = "query"
	EntityNarrative EntityType = "narrative"
	EntityTag       EntityType = "tag"
	EntityLocation  EntityType = "location"
	EntityUnknown   EntityType = "unknown"
)

var entityTypes = map[EntityType]bool{
	EntityPerson:    true,
	EntityCompany:   true,
	EntityAsset:     true,
	EntitySource:    true,
	EntityDocument:  true,
	EntityDomain:    true,
	EntityQuery:     true,
	EntityNarrative: true,
	EntityTag:       true,
	EntityLocation:  true,
	EntityUnknown:   true,
}

// ParseEntityType maps free text onto the enum. Anything unrecognised is
// EntityUnknown.
func ParseEntityType(s string) EntityType {
	t := EntityType(strings.ToLower(strings.TrimSpace(s)))
	switch t {
	case "organization", "organisation", "corporation", "org":
		return EntityCompany
	case "individual", "people":
		return EntityPerson
	}
	if entityTypes[t] {
		return t
	}
	return EntityUnknown
}

// TimeRange is an optional activity window. Either bound may be nil.
type TimeRange struct {
	Start *time.Time `json:"start,omitempty"`
	End   *time.Time `json:"end,omitempty"`
}

// Bounds returns concrete start and end, mirroring a missing bound from the
// present one. ok is false when both bounds are missing.
func (r *TimeRange) Bounds() (start, end time.Time, ok bool) {
	if r == nil || (r.Start == nil && r.End == nil) {
		return time.Time{}, time.Time{}, false
	}
	switch {
	case r.Start == nil:
		return *r.End, *r.End, true
	case r.End == nil:
		return *r.Start, *r.Start, true
	}
	return *r.Start, *r.End, true
}

// CoversYear reports whether any part of the range falls in year.
func (r *TimeRange) CoversYear(year int) bool {
	start, end, ok := r.Bounds()
	if !ok {
		return false
	}
	return start.Year() <= year && end.Year() >= year
}

// PresenceSpan is a parsed Presence.
type PresenceSpan struct {
	Place    string
	Activity string
	Range    *TimeRange
}

// SimilarityVector is the structured comparison form of a Record.
type SimilarityVector struct {
	NodeID string

	entityType EntityType

	Name          string
	NameEmbedding []float32

	// CoreAttributes hold unique identifiers, ShellAttributes secondary
	// contact details.
	CoreAttributes  map[string]string
	ShellAttributes map[string]string

	Topics        Set
	Industries    Set
	Events        Set
	Jurisdictions Set
	Sources       Set

	TimeRange *TimeRange

	ConnectedEntities Set
	Connections       map[string]Set

	SharedAddresses    Set
	SharedOfficers     Set
	SharedDirectors    Set
	SharedShareholders Set
	SharedCompanies    Set

	FormationAgent            string
	RegisteredAgent           string
	CorporateStructure        string
	IncorporationDate         *time.Time
	IncorporationJurisdiction string

	Roles     Set
	Presences []PresenceSpan
}

// NewSimilarityVector returns an empty vector with every container
// initialised. The entity type cannot be changed afterwards.
func NewSimilarityVector(nodeID string, entityType EntityType) *SimilarityVector {
	if entityType == "" {
		entityType = EntityUnknown
	}
	return &SimilarityVector{
		NodeID:             nodeID,
		entityType:         entityType,
		CoreAttributes:     map[string]string{},
		ShellAttributes:    map[string]string{},
		Topics:             Set{},
		Industries:         Set{},
		Events:             Set{},
		Jurisdictions:      Set{},
		Sources:            Set{},
		ConnectedEntities:  Set{},
		Connections:        map[string]Set{},
		SharedAddresses:    Set{},
		SharedOfficers:     Set{},
		SharedDirectors:    Set{},
		SharedShareholders: Set{},
		SharedCompanies:    Set{},
		Roles:              Set{},
	}
}

// EntityType returns the immutable entity type.
func (v *SimilarityVector) EntityType() EntityType {
	return v.entityType
}

// AttributeKeys is the union of core and shell attribute keys.
func (v *SimilarityVector) AttributeKeys() Set {
	keys := make(Set, len(v.CoreAttributes)+len(v.ShellAttributes))
	for k := range v.CoreAttributes {
		keys.Add(k)
	}
	for k := range v.ShellAttributes {
		keys.Add(k)
	}
	return keys
}

// Attribute looks a key up in the core attributes, then the shell ones.
func (v *SimilarityVector) Attribute(key string) (string, bool) {
	if val, ok := v.CoreAttributes[key]; ok {
		return val, true
	}
	val, ok := v.ShellAttributes[key]
	return val, ok
}

// TopicSet is the union of topics, industries and events.
func (v *SimilarityVector) TopicSet() Set {
	return v.Topics.Union(v.Industries).Union(v.Events)
}

// AllRelationships is the union of every connection-typed set.
func (v *SimilarityVector) AllRelationships() Set {
	all := v.ConnectedEntities.Union(v.SharedAddresses).
		Union(v.SharedOfficers).
		Union(v.SharedDirectors).
		Union(v.SharedShareholders).
		Union(v.SharedCompanies)
	for _, ids := range v.Connections {
		for id := range ids {
			all.Add(id)
		}
	}
	return all
}

// IsLinkedTo reports a direct connection in either direction.
func (v *SimilarityVector) IsLinkedTo(other *SimilarityVector) bool {
	return v.ConnectedEntities.Has(other.NodeID) || other.ConnectedEntities.Has(v.NodeID)
}
