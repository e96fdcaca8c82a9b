package services

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/funayamateppei/local-rag-comparator/internal/core/domain"
)

// GraphParseReport describes what a best-effort graph parse dropped.
type GraphParseReport struct {
	SkippedEntities      int
	SkippedRelationships int
	// MergedEntities counts entities folded into an earlier one of the same name.
	MergedEntities int
	// Note is set when the output held no usable JSON object at all.
	Note string
}

type rawGraph struct {
	Entities      []json.RawMessage `json:"entities"`
	Relationships []json.RawMessage `json:"relationships"`
}

type rawRelationship struct {
	Source       string `json:"source"`
	Target       string `json:"target"`
	RelationType string `json:"relation_type"`
	Type         string `json:"type"`
	Description  string `json:"description"`
}

// ParseGraphData extracts a knowledge graph from free-form model output.
// Malformed entities and relationships are skipped and counted in the report
// instead of failing the whole document.
func ParseGraphData(output string) (domain.GraphData, GraphParseReport) {
	var report GraphParseReport

	raw, err := extractGraphObject(output)
	if err != nil {
		report.Note = err.Error()
		return domain.GraphData{}, report
	}

	entities := make([]domain.Entity, 0, len(raw.Entities))
	seen := make(map[string]int, len(raw.Entities))
	for _, msg := range raw.Entities {
		var e domain.Entity
		if err := json.Unmarshal(msg, &e); err != nil || strings.TrimSpace(e.Name) == "" {
			report.SkippedEntities++
			continue
		}
		e.Name = strings.TrimSpace(e.Name)
		// Entity names are unique within a document graph. A repeat only
		// fills in attributes the first occurrence left empty.
		if i, ok := seen[e.Name]; ok {
			if entities[i].Type == "" {
				entities[i].Type = e.Type
			}
			if entities[i].Description == "" {
				entities[i].Description = e.Description
			}
			report.MergedEntities++
			continue
		}
		seen[e.Name] = len(entities)
		entities = append(entities, e)
	}

	relationships := make([]domain.Relationship, 0, len(raw.Relationships))
	for _, msg := range raw.Relationships {
		var r rawRelationship
		if err := json.Unmarshal(msg, &r); err != nil {
			report.SkippedRelationships++
			continue
		}
		src, dst := strings.TrimSpace(r.Source), strings.TrimSpace(r.Target)
		if src == "" || dst == "" {
			report.SkippedRelationships++
			continue
		}
		relType := r.RelationType
		if relType == "" {
			relType = r.Type
		}
		relationships = append(relationships, domain.Relationship{
			Source:       src,
			Target:       dst,
			RelationType: relType,
			Description:  r.Description,
		})
	}

	return domain.NewGraphData(entities, relationships), report
}

// extractGraphObject scans every '{' in s and decodes the JSON value that
// starts there. The first object with an "entities" or "relationships" key
// wins, so braces in surrounding prose or code fences are skipped. When no
// such object exists, a well-formed object at the first brace yields an
// empty graph; otherwise the first decode error is reported.
func extractGraphObject(s string) (rawGraph, error) {
	first := strings.Index(s, "{")
	if first < 0 {
		return rawGraph{}, errNoJSONObject
	}

	var firstErr error
	firstDecoded := false
	for i := first; i >= 0; i = nextBrace(s, i) {
		var fields map[string]json.RawMessage
		err := json.NewDecoder(strings.NewReader(s[i:])).Decode(&fields)
		if err == nil {
			graph, ok, gerr := graphFromFields(fields)
			if ok && gerr == nil {
				return graph, nil
			}
			err = gerr
		}
		if i == first {
			firstDecoded = err == nil
			firstErr = err
		}
	}

	if firstDecoded {
		return rawGraph{}, nil
	}
	return rawGraph{}, fmt.Errorf("model output is not valid graph JSON: %v", firstErr)
}

var errNoJSONObject = errors.New("no JSON object found in model output")

// graphFromFields reports ok when fields carries a graph section.
func graphFromFields(fields map[string]json.RawMessage) (rawGraph, bool, error) {
	ents, hasEnts := fields["entities"]
	rels, hasRels := fields["relationships"]
	if !hasEnts && !hasRels {
		return rawGraph{}, false, nil
	}

	var g rawGraph
	if hasEnts && !isJSONNull(ents) {
		if err := json.Unmarshal(ents, &g.Entities); err != nil {
			return rawGraph{}, true, fmt.Errorf("entities: %w", err)
		}
	}
	if hasRels && !isJSONNull(rels) {
		if err := json.Unmarshal(rels, &g.Relationships); err != nil {
			return rawGraph{}, true, fmt.Errorf("relationships: %w", err)
		}
	}
	return g, true, nil
}

func isJSONNull(m json.RawMessage) bool {
	return strings.TrimSpace(string(m)) == "null"
}

func nextBrace(s string, i int) int {
	j := strings.Index(s[i+1:], "{")
	if j < 0 {
		return -1
	}
	return i + 1 + j
}
