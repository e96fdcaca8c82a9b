package neo4j

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/funayamateppei/local-rag-comparator/internal/core/domain"
	"github.com/funayamateppei/local-rag-comparator/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.GraphRepository = (*GraphStore)(nil)

// Config holds Neo4j connection settings
type Config struct {
	URI      string
	Username string
	Password string
	Database string

	// SearchLimit caps the entities returned by Search
	SearchLimit int
}

// GraphStore implements driven.GraphRepository on Neo4j.
//
// Entities are (:Entity {document_id, name}) nodes and relationships are
// [:RELATES {type}] edges. Entities sharing a name within a document collapse
// into one node; the graph parser merges such repeats before they get here.
// Endpoints that were not extracted as entities are stored as implicit nodes
// so no relationship is lost; they are left out of GetGraphData entities. A (:GraphDoc) marker records that a document's
// graph was stored, even when it is empty.
type GraphStore struct {
	driver      neo4j.DriverWithContext
	database    string
	searchLimit int
}

// NewGraphStore connects to Neo4j and verifies connectivity
func NewGraphStore(ctx context.Context, cfg Config) (*GraphStore, error) {
	driver, err := neo4j.NewDriverWithContext(cfg.URI, neo4j.BasicAuth(cfg.Username, cfg.Password, ""))
	if err != nil {
		return nil, fmt.Errorf("%w: create neo4j driver: %v", domain.ErrStorage, err)
	}
	if err := driver.VerifyConnectivity(ctx); err != nil {
		_ = driver.Close(ctx)
		return nil, fmt.Errorf("%w: connect to neo4j: %v", domain.ErrStorage, err)
	}

	limit := cfg.SearchLimit
	if limit <= 0 {
		limit = 20
	}

	s := &GraphStore{driver: driver, database: cfg.Database, searchLimit: limit}
	if err := s.ensureConstraints(ctx); err != nil {
		_ = driver.Close(ctx)
		return nil, err
	}
	return s, nil
}

func (s *GraphStore) ensureConstraints(ctx context.Context) error {
	stmts := []string{
		`CREATE INDEX entity_document IF NOT EXISTS FOR (e:Entity) ON (e.document_id)`,
		`CREATE INDEX graphdoc_document IF NOT EXISTS FOR (g:GraphDoc) ON (g.document_id)`,
	}
	for _, stmt := range stmts {
		if _, err := neo4j.ExecuteQuery(ctx, s.driver, stmt, nil,
			neo4j.EagerResultTransformer, neo4j.ExecuteQueryWithDatabase(s.database)); err != nil {
			return fmt.Errorf("%w: create neo4j index: %v", domain.ErrStorage, err)
		}
	}
	return nil
}

// StoreGraph replaces the document's graph in one write transaction
func (s *GraphStore) StoreGraph(ctx context.Context, documentID string, graph domain.GraphData) error {
	entities, relationships := graphParams(graph)

	session := s.driver.NewSession(ctx, neo4j.SessionConfig{
		DatabaseName: s.database,
		AccessMode:   neo4j.AccessModeWrite,
	})
	defer session.Close(ctx)

	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		params := map[string]any{
			"doc":           documentID,
			"entities":      entities,
			"relationships": relationships,
		}
		for _, stmt := range storeStatements {
			if _, err := tx.Run(ctx, stmt, params); err != nil {
				return nil, err
			}
		}
		return nil, nil
	})
	if err != nil {
		return fmt.Errorf("%w: store graph for %s: %v", domain.ErrStorage, documentID, err)
	}
	return nil
}

var storeStatements = []string{
	`MATCH (e:Entity {document_id: $doc}) DETACH DELETE e`,
	`MERGE (:GraphDoc {document_id: $doc})`,
	`UNWIND $entities AS ent
	 MERGE (e:Entity {document_id: $doc, name: ent.name})
	 SET e.type = ent.type, e.description = ent.description, e.seq = ent.seq, e.implicit = false`,
	`UNWIND $relationships AS rel
	 MERGE (s:Entity {document_id: $doc, name: rel.source})
	   ON CREATE SET s.implicit = true, s.type = '', s.description = ''
	 MERGE (t:Entity {document_id: $doc, name: rel.target})
	   ON CREATE SET t.implicit = true, t.type = '', t.description = ''
	 CREATE (s)-[r:RELATES {type: rel.relation_type, description: rel.description, seq: rel.seq}]->(t)`,
}

// graphParams converts a graph into driver-friendly parameter lists
func graphParams(graph domain.GraphData) ([]map[string]any, []map[string]any) {
	entities := make([]map[string]any, 0, graph.EntityCount())
	for i, e := range graph.Entities() {
		entities = append(entities, map[string]any{
			"name":        e.Name,
			"type":        e.Type,
			"description": e.Description,
			"seq":         int64(i),
		})
	}

	relationships := make([]map[string]any, 0, graph.RelationshipCount())
	for i, r := range graph.Relationships() {
		relationships = append(relationships, map[string]any{
			"source":        r.Source,
			"target":        r.Target,
			"relation_type": r.RelationType,
			"description":   r.Description,
			"seq":           int64(i),
		})
	}
	return entities, relationships
}

const searchQuery = `
MATCH (e:Entity)
WHERE NOT coalesce(e.implicit, false)
WITH e, [t IN $terms WHERE toLower(e.name) CONTAINS t OR toLower(coalesce(e.description, '')) CONTAINS t] AS hits
WHERE size(hits) > 0
OPTIONAL MATCH (e)-[r:RELATES]-(:Entity)
WITH e, size(hits) AS matched,
     collect(DISTINCT CASE WHEN r IS NULL THEN NULL
       ELSE startNode(r).name + ' -[' + r.type + ']-> ' + endNode(r).name END) AS facts
RETURN e.name AS name, e.type AS type, e.description AS description,
       e.document_id AS document_id, matched, facts
ORDER BY matched DESC, name
LIMIT $limit`

// Search matches query terms against entity names and descriptions.
// The score is the share of query terms an entity matched.
func (s *GraphStore) Search(ctx context.Context, query string) ([]domain.QueryResult, error) {
	terms := queryTerms(query)
	if len(terms) == 0 {
		return []domain.QueryResult{}, nil
	}

	res, err := neo4j.ExecuteQuery(ctx, s.driver, searchQuery,
		map[string]any{"terms": terms, "limit": int64(s.searchLimit)},
		neo4j.EagerResultTransformer,
		neo4j.ExecuteQueryWithDatabase(s.database),
		neo4j.ExecuteQueryWithReadersRouting())
	if err != nil {
		return nil, fmt.Errorf("%w: graph search: %v", domain.ErrStorage, err)
	}

	results := make([]domain.QueryResult, 0, len(res.Records))
	for _, rec := range res.Records {
		entity := domain.Entity{
			Name:        stringValue(rec, "name"),
			Type:        stringValue(rec, "type"),
			Description: stringValue(rec, "description"),
		}
		matched, _ := rec.Get("matched")
		hits, _ := matched.(int64)

		r, err := domain.NewQueryResult("",
			formatAnswer(entity, stringList(rec, "facts")),
			[]string{stringValue(rec, "document_id")},
			matchScore(int(hits), len(terms)),
			domain.RAGTypeGraph)
		if err != nil {
			return nil, err
		}
		results = append(results, r)
	}
	return results, nil
}

// GetGraphData returns the stored graph of a document in extraction order
func (s *GraphStore) GetGraphData(ctx context.Context, documentID string) (domain.GraphData, error) {
	session := s.driver.NewSession(ctx, neo4j.SessionConfig{
		DatabaseName: s.database,
		AccessMode:   neo4j.AccessModeRead,
	})
	defer session.Close(ctx)

	out, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		params := map[string]any{"doc": documentID}

		marker, err := tx.Run(ctx, `MATCH (g:GraphDoc {document_id: $doc}) RETURN count(g) AS n`, params)
		if err != nil {
			return nil, err
		}
		rec, err := marker.Single(ctx)
		if err != nil {
			return nil, err
		}
		if n, _ := rec.Get("n"); n == int64(0) {
			return nil, domain.ErrNotFound
		}

		entRes, err := tx.Run(ctx, `
			MATCH (e:Entity {document_id: $doc})
			WHERE NOT coalesce(e.implicit, false)
			RETURN e.name AS name, e.type AS type, e.description AS description
			ORDER BY e.seq`, params)
		if err != nil {
			return nil, err
		}
		entRecords, err := entRes.Collect(ctx)
		if err != nil {
			return nil, err
		}

		relRes, err := tx.Run(ctx, `
			MATCH (s:Entity {document_id: $doc})-[r:RELATES]->(t:Entity)
			RETURN s.name AS source, t.name AS target, r.type AS relation_type, r.description AS description
			ORDER BY r.seq`, params)
		if err != nil {
			return nil, err
		}
		relRecords, err := relRes.Collect(ctx)
		if err != nil {
			return nil, err
		}

		entities := make([]domain.Entity, 0, len(entRecords))
		for _, r := range entRecords {
			entities = append(entities, domain.Entity{
				Name:        stringValue(r, "name"),
				Type:        stringValue(r, "type"),
				Description: stringValue(r, "description"),
			})
		}
		relationships := make([]domain.Relationship, 0, len(relRecords))
		for _, r := range relRecords {
			relationships = append(relationships, domain.Relationship{
				Source:       stringValue(r, "source"),
				Target:       stringValue(r, "target"),
				RelationType: stringValue(r, "relation_type"),
				Description:  stringValue(r, "description"),
			})
		}
		return domain.NewGraphData(entities, relationships), nil
	})
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.GraphData{}, fmt.Errorf("%w: graph for document %s", domain.ErrNotFound, documentID)
		}
		return domain.GraphData{}, fmt.Errorf("%w: read graph for %s: %v", domain.ErrStorage, documentID, err)
	}
	return out.(domain.GraphData), nil
}

// HealthCheck verifies the server is reachable
func (s *GraphStore) HealthCheck(ctx context.Context) error {
	return s.driver.VerifyConnectivity(ctx)
}

// Close closes the driver
func (s *GraphStore) Close(ctx context.Context) error {
	return s.driver.Close(ctx)
}

// queryTerms lowercases the query and splits it on whitespace and punctuation.
// Duplicates are dropped. A query without separators is a single term.
func queryTerms(query string) []string {
	fields := strings.FieldsFunc(strings.ToLower(query), func(r rune) bool {
		return unicode.IsSpace(r) || (unicode.IsPunct(r) && r != '-' && r != '_')
	})
	seen := make(map[string]struct{}, len(fields))
	terms := make([]string, 0, len(fields))
	for _, f := range fields {
		if _, ok := seen[f]; ok {
			continue
		}
		seen[f] = struct{}{}
		terms = append(terms, f)
	}
	return terms
}

func matchScore(matched, total int) float64 {
	if total == 0 {
		return 0
	}
	return domain.ClampScore(float64(matched) / float64(total))
}

// formatAnswer renders an entity and its relationship facts as plain text
func formatAnswer(e domain.Entity, facts []string) string {
	var b strings.Builder
	b.WriteString(e.Name)
	if e.Type != "" {
		b.WriteString(" (" + e.Type + ")")
	}
	if e.Description != "" {
		b.WriteString(": " + e.Description)
	}
	for _, f := range facts {
		b.WriteString("\n" + f)
	}
	return b.String()
}

func stringValue(rec *neo4j.Record, key string) string {
	v, ok := rec.Get(key)
	if !ok || v == nil {
		return ""
	}
	s, _ := v.(string)
	return s
}

func stringList(rec *neo4j.Record, key string) []string {
	v, ok := rec.Get(key)
	if !ok {
		return nil
	}
	items, _ := v.([]any)
	out := make([]string, 0, len(items))
	for _, item := range items {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}
