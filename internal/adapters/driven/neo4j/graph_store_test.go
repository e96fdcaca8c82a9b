package neo4j

import (
	"testing"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/funayamateppei/local-rag-comparator/internal/core/domain"
)

func TestQueryTerms(t *testing.T) {
	tests := []struct {
		name  string
		query string
		want  []string
	}{
		{"lowercases and splits", "Who created Go?", []string{"who", "created", "go"}},
		{"drops duplicates", "go Go GO", []string{"go"}},
		{"keeps hyphenated words", "state-machine design", []string{"state-machine", "design"}},
		{"no separators", "東京タワー", []string{"東京タワー"}},
		{"japanese punctuation", "東京、大阪。", []string{"東京", "大阪"}},
		{"blank", "   ", []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, queryTerms(tt.query))
		})
	}
}

func TestMatchScore(t *testing.T) {
	assert.Equal(t, 0.0, matchScore(0, 0))
	assert.Equal(t, 0.5, matchScore(1, 2))
	assert.Equal(t, 1.0, matchScore(3, 3))
	assert.Equal(t, 1.0, matchScore(4, 3), "clamped")
}

func TestFormatAnswer(t *testing.T) {
	e := domain.Entity{Name: "Go", Type: "Language", Description: "A language"}
	got := formatAnswer(e, []string{"Google -[CREATED]-> Go"})
	assert.Equal(t, "Go (Language): A language\nGoogle -[CREATED]-> Go", got)

	assert.Equal(t, "Go", formatAnswer(domain.Entity{Name: "Go"}, nil))
}

func TestGraphParams(t *testing.T) {
	graph := domain.NewGraphData(
		[]domain.Entity{{Name: "Go", Type: "Language"}, {Name: "Google", Type: "Organization"}},
		[]domain.Relationship{{Source: "Google", Target: "Go", RelationType: "CREATED"}},
	)

	entities, relationships := graphParams(graph)
	require.Len(t, entities, 2)
	require.Len(t, relationships, 1)
	assert.Equal(t, "Go", entities[0]["name"])
	assert.Equal(t, int64(1), entities[1]["seq"])
	assert.Equal(t, "CREATED", relationships[0]["relation_type"])
	assert.Equal(t, "Google", relationships[0]["source"])
}

func TestGraphParams_Empty(t *testing.T) {
	entities, relationships := graphParams(domain.NewGraphData(nil, nil))
	assert.NotNil(t, entities)
	assert.NotNil(t, relationships)
	assert.Empty(t, entities)
	assert.Empty(t, relationships)
}

func TestRecordHelpers(t *testing.T) {
	rec := &neo4j.Record{
		Keys:   []string{"name", "facts", "missing"},
		Values: []any{"Go", []any{"a", int64(3), "b"}, nil},
	}

	assert.Equal(t, "Go", stringValue(rec, "name"))
	assert.Equal(t, "", stringValue(rec, "missing"))
	assert.Equal(t, "", stringValue(rec, "unknown"))
	assert.Equal(t, []string{"a", "b"}, stringList(rec, "facts"))
	assert.Nil(t, stringList(rec, "unknown"))
}
