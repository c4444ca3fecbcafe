package model

// Record is the typed attribute record for one subject, as extracted by the
// surrounding platform. Only NodeID is required; every other field may be
// left at its zero value.
type Record struct {
	NodeID        string         `json:"node_id"`
	Class         string         `json:"class,omitempty"`
	EntityType    string         `json:"entity_type,omitempty"`
	Name          string         `json:"name,omitempty"`
	NameEmbedding []float32      `json:"name_embedding,omitempty"`
	Attributes    map[string]any `json:"attributes,omitempty"`

	Topics     []string `json:"topics,omitempty"`
	Industries []string `json:"industries,omitempty"`
	Events     []string `json:"events,omitempty"`

	Jurisdictions []string `json:"jurisdictions,omitempty"`
	Jurisdiction  string   `json:"jurisdiction,omitempty"`
	Sources       []string `json:"sources,omitempty"`
	Source        string   `json:"source,omitempty"`

	FirstSeen string `json:"first_seen,omitempty"`
	LastSeen  string `json:"last_seen,omitempty"`

	Edges []Edge `json:"edges,omitempty"`

	// Corporate structure
	SharedAddresses           []string `json:"shared_addresses,omitempty"`
	Officers                  []string `json:"officers,omitempty"`
	Directors                 []string `json:"directors,omitempty"`
	Shareholders              []string `json:"shareholders,omitempty"`
	Companies                 []string `json:"companies,omitempty"`
	FormationAgent            string   `json:"formation_agent,omitempty"`
	RegisteredAgent           string   `json:"registered_agent,omitempty"`
	CorporateStructure        string   `json:"corporate_structure,omitempty"`
	IncorporationDate         string   `json:"incorporation_date,omitempty"`
	IncorporationJurisdiction string   `json:"incorporation_jurisdiction,omitempty"`

	Roles     []string   `json:"roles,omitempty"`
	Presences []Presence `json:"presences,omitempty"`
}

// Presence places a subject somewhere, doing something, over a period.
type Presence struct {
	Place     string `json:"place"`
	Activity  string `json:"activity,omitempty"`
	FirstSeen string `json:"first_seen,omitempty"`
	LastSeen  string `json:"last_seen,omitempty"`
}
