package graph

import (
	"context"
	"fmt"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/yungbote/claimgraph-backend/internal/domain"
)

// Cypher cannot parameterize a relationship type, so each category gets its
// own statically known batch statement. The dispatch table below is the only
// place edge types appear; nothing builds them dynamically.
//
// MERGE keys on both endpoints plus the category-discriminating property so
// re-ingesting the same pass never duplicates edges, keeping relationships
// effectively append-only.
var relationshipStatements = map[domain.RelationshipCategory]string{
	domain.RelCausal: `
UNWIND $rels AS r
MATCH (a:KnowledgeNode {id: r.from_id})
MATCH (b:KnowledgeNode {id: r.to_id})
MERGE (a)-[e:CAUSAL {direction: r.direction}]->(b)
SET e.strength = r.strength,
    e.mechanism = r.mechanism,
    e.confidence = r.confidence,
    e.source = r.source,
    e.created_at = coalesce(e.created_at, $now)
`,
	domain.RelEpistemic: `
UNWIND $rels AS r
MATCH (a:KnowledgeNode {id: r.from_id})
MATCH (b:KnowledgeNode {id: r.to_id})
MERGE (a)-[e:EPISTEMIC {stance: r.stance}]->(b)
SET e.confidence = r.confidence,
    e.source = r.source,
    e.created_at = coalesce(e.created_at, $now)
`,
	domain.RelContextual: `
UNWIND $rels AS r
MATCH (a:KnowledgeNode {id: r.from_id})
MATCH (b:KnowledgeNode {id: r.to_id})
MERGE (a)-[e:CONTEXTUAL {scope: r.scope}]->(b)
SET e.conditions = r.conditions,
    e.created_at = coalesce(e.created_at, $now)
`,
	domain.RelStructural: `
UNWIND $rels AS r
MATCH (a:KnowledgeNode {id: r.from_id})
MATCH (b:KnowledgeNode {id: r.to_id})
MERGE (a)-[e:STRUCTURAL {hierarchy: r.hierarchy}]->(b)
SET e.created_at = coalesce(e.created_at, $now)
`,
}

// CreateRelationships writes resolved relationships grouped by category, one
// batch statement per category, inside a single transaction. Round trips are
// bounded by the number of categories, not the number of edges.
func (s *Store) CreateRelationships(ctx context.Context, rels []domain.Relationship) (int, error) {
	if len(rels) == 0 {
		return 0, nil
	}

	grouped := map[domain.RelationshipCategory][]map[string]any{}
	for _, r := range rels {
		if r.FromID == "" || r.ToID == "" || !domain.ValidRelationshipCategory(r.Category) {
			continue
		}
		grouped[r.Category] = append(grouped[r.Category], map[string]any{
			"from_id":    r.FromID,
			"to_id":      r.ToID,
			"direction":  r.Direction,
			"strength":   r.Strength,
			"mechanism":  r.Mechanism,
			"stance":     r.Stance,
			"scope":      r.Scope,
			"conditions": r.Conditions,
			"hierarchy":  r.Hierarchy,
			"confidence": r.Confidence,
			"source":     r.Source,
		})
	}
	if len(grouped) == 0 {
		return 0, nil
	}

	now := nowRFC3339()
	session := s.client.WriteSession(ctx)
	defer session.Close(ctx)

	written := 0
	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		for _, category := range domain.RelationshipCategories() {
			batch := grouped[category]
			if len(batch) == 0 {
				continue
			}
			res, err := tx.Run(ctx, relationshipStatements[category], map[string]any{
				"rels": batch,
				"now":  now,
			})
			if err != nil {
				return nil, fmt.Errorf("write %s batch: %w", category, err)
			}
			if _, err := res.Consume(ctx); err != nil {
				return nil, fmt.Errorf("write %s batch: %w", category, err)
			}
			written += len(batch)
		}
		return nil, nil
	})
	if err != nil {
		return 0, fmt.Errorf("graph: create relationships: %w", err)
	}
	return written, nil
}
