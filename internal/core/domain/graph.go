package domain

import (
	"encoding/json"
	"slices"
)

// Entity is a named concept extracted from a document
type Entity struct {
	Name        string `json:"name"`
	Type        string `json:"type"`
	Description string `json:"description"`
}

// Relationship is a directed, labelled edge between two entity names
type Relationship struct {
	Source       string `json:"source"`
	Target       string `json:"target"`
	RelationType string `json:"relation_type"`
	Description  string `json:"description"`
}

// GraphData is the knowledge graph extracted from one document.
// Relationship endpoints are not required to exist as entities.
type GraphData struct {
	entities      []Entity
	relationships []Relationship
}

// NewGraphData copies the given slices into a new graph.
func NewGraphData(entities []Entity, relationships []Relationship) GraphData {
	return GraphData{
		entities:      slices.Clone(entities),
		relationships: slices.Clone(relationships),
	}
}

func (g GraphData) Entities() []Entity { return slices.Clone(g.entities) }
func (g GraphData) Relationships() []Relationship { return slices.Clone(g.relationships) }
func (g GraphData) EntityCount() int { return len(g.entities) }
func (g GraphData) RelationshipCount() int { return len(g.relationships) }

// IsEmpty reports whether the graph holds neither entities nor relationships.
func (g GraphData) IsEmpty() bool {
	return len(g.entities) == 0 && len(g.relationships) == 0
}

// FindEntity returns the first entity whose name equals name exactly.
// Matching is case-sensitive and does not trim whitespace.
func (g GraphData) FindEntity(name string) (Entity, bool) {
	for _, e := range g.entities {
		if e.Name == name {
			return e, true
		}
	}
	return Entity{}, false
}

// DanglingRelationships counts relationships with an endpoint that is not a known entity.
func (g GraphData) DanglingRelationships() int {
	names := make(map[string]struct{}, len(g.entities))
	for _, e := range g.entities {
		names[e.Name] = struct{}{}
	}
	n := 0
	for _, r := range g.relationships {
		_, okSrc := names[r.Source]
		_, okDst := names[r.Target]
		if !okSrc || !okDst {
			n++
		}
	}
	return n
}

type graphDataJSON struct {
	Entities      []Entity       `json:"entities"`
	Relationships []Relationship `json:"relationships"`
}

// MarshalJSON encodes the graph as {"entities": [...], "relationships": [...]}.
func (g GraphData) MarshalJSON() ([]byte, error) {
	out := graphDataJSON{Entities: g.entities, Relationships: g.relationships}
	if out.Entities == nil {
		out.Entities = []Entity{}
	}
	if out.Relationships == nil {
		out.Relationships = []Relationship{}
	}
	return json.Marshal(out)
}

// UnmarshalJSON decodes the form produced by MarshalJSON.
func (g *GraphData) UnmarshalJSON(data []byte) error {
	var in graphDataJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	*g = NewGraphData(in.Entities, in.Relationships)
	return nil
}
