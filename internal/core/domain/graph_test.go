package domain

import (
	"encoding/json"
	"testing"
)

func sampleGraph() GraphData {
	return NewGraphData(
		[]Entity{
			{Name: "Go", Type: "Language", Description: "A programming language"},
			{Name: "Google", Type: "Organization"},
		},
		[]Relationship{
			{Source: "Google", Target: "Go", RelationType: "CREATED"},
			{Source: "Go", Target: "Gopher", RelationType: "HAS_MASCOT"},
		},
	)
}

func TestGraphData_Counts(t *testing.T) {
	var empty GraphData
	if empty.EntityCount() != 0 || empty.RelationshipCount() != 0 || !empty.IsEmpty() {
		t.Error("expected zero-value graph to be empty")
	}

	g := sampleGraph()
	if g.EntityCount() != 2 {
		t.Errorf("expected 2 entities, got %d", g.EntityCount())
	}
	if g.RelationshipCount() != 2 {
		t.Errorf("expected 2 relationships, got %d", g.RelationshipCount())
	}
}

func TestGraphData_FindEntity(t *testing.T) {
	var empty GraphData
	if _, ok := empty.FindEntity("Go"); ok {
		t.Error("expected no entity in empty graph")
	}

	g := sampleGraph()
	e, ok := g.FindEntity("Go")
	if !ok {
		t.Fatal("expected to find Go")
	}
	if e.Type != "Language" {
		t.Errorf("expected type Language, got %s", e.Type)
	}

	// Exact, case-sensitive matching.
	for _, name := range []string{"go", "GO", " Go", "Gopher"} {
		if _, ok := g.FindEntity(name); ok {
			t.Errorf("did not expect a match for %q", name)
		}
	}
}

func TestGraphData_FindEntityReturnsFirst(t *testing.T) {
	g := NewGraphData([]Entity{
		{Name: "Tokyo", Type: "City"},
		{Name: "Tokyo", Type: "Prefecture"},
	}, nil)

	e, _ := g.FindEntity("Tokyo")
	if e.Type != "City" {
		t.Errorf("expected first match, got %s", e.Type)
	}
}

func TestGraphData_DanglingRelationships(t *testing.T) {
	if n := sampleGraph().DanglingRelationships(); n != 1 {
		t.Errorf("expected 1 dangling relationship, got %d", n)
	}
}

func TestGraphData_Immutable(t *testing.T) {
	entities := []Entity{{Name: "A"}}
	g := NewGraphData(entities, nil)
	entities[0].Name = "B"

	if _, ok := g.FindEntity("A"); !ok {
		t.Error("expected graph to be unaffected by caller mutation")
	}
	out := g.Entities()
	out[0].Name = "C"
	if _, ok := g.FindEntity("A"); !ok {
		t.Error("expected Entities to return a copy")
	}
}

func TestGraphData_JSON(t *testing.T) {
	data, err := json.Marshal(sampleGraph())
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	var decoded GraphData
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if decoded.EntityCount() != 2 || decoded.RelationshipCount() != 2 {
		t.Errorf("unexpected decoded graph: %s", data)
	}

	empty, _ := json.Marshal(GraphData{})
	if string(empty) != `{"entities":[],"relationships":[]}` {
		t.Errorf("unexpected empty graph JSON: %s", empty)
	}
}
