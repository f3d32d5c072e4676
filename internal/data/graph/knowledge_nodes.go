package graph

import (
	"context"
	"fmt"
	"strings"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/yungbote/claimgraph-backend/internal/domain"
)

// DomainExists reports whether a domain node is present. Domains are seeded
// externally; ingestion never creates them.
func (s *Store) DomainExists(ctx context.Context, name string) (bool, error) {
	session := s.client.ReadSession(ctx)
	defer session.Close(ctx)

	out, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, `MATCH (d:Domain {name: $name}) RETURN count(d) > 0 AS present`, map[string]any{"name": name})
		if err != nil {
			return nil, err
		}
		rec, err := res.Single(ctx)
		if err != nil {
			return nil, err
		}
		return recordBool(rec, "present"), nil
	})
	if err != nil {
		return false, fmt.Errorf("graph: domain exists %q: %w", name, err)
	}
	return out.(bool), nil
}

// UpsertNode merges a knowledge node by its deterministic identity. On first
// sight all properties are written; on later passes only the mutable fields
// (summary, definition, embedding, confidence, claim type, evidence, scope)
// are overwritten. Returns whether the node was created.
func (s *Store) UpsertNode(ctx context.Context, node *domain.KnowledgeNode) (bool, error) {
	if node == nil || node.ID == "" {
		return false, fmt.Errorf("graph: upsert node: missing id")
	}

	session := s.client.WriteSession(ctx)
	defer session.Close(ctx)

	args := map[string]any{
		"id":            node.ID,
		"title":         node.Title,
		"domain":        node.Domain,
		"summary":       node.Summary,
		"definition":    node.Definition,
		"embedding":     float32To64(node.Embedding),
		"confidence":    node.Confidence,
		"claim_type":    string(node.ClaimType),
		"evidence_json": toJSONString(node.Evidence),
		"scope_json":    toJSONString(node.Scope),
		"now":           nowRFC3339(),
	}

	out, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, `
MERGE (n:KnowledgeNode {id: $id})
ON CREATE SET
    n.title = $title,
    n.domain = $domain,
    n.potential_duplicate = false,
    n.created_at = $now,
    n._was_created = true
SET n.summary = $summary,
    n.definition = $definition,
    n.embedding = $embedding,
    n.confidence = $confidence,
    n.claim_type = $claim_type,
    n.evidence_json = $evidence_json,
    n.scope_json = $scope_json,
    n.updated_at = $now
WITH n, coalesce(n._was_created, false) AS created
REMOVE n._was_created
WITH n, created
MATCH (d:Domain {name: $domain})
MERGE (n)-[:IN_DOMAIN]->(d)
RETURN created
`, args)
		if err != nil {
			return nil, err
		}
		rec, err := res.Single(ctx)
		if err != nil {
			return nil, err
		}
		return recordBool(rec, "created"), nil
	})
	if err != nil {
		return false, fmt.Errorf("graph: upsert node %q: %w", node.ID, err)
	}
	return out.(bool), nil
}

// SimilarNodes queries the embedding vector index for up to k neighbors in
// the same domain, excluding the node itself. The index is asked for extra
// candidates because the domain filter applies after the index scan.
func (s *Store) SimilarNodes(ctx context.Context, domainName string, embedding []float32, k int, excludeID string) ([]domain.SimilarNode, error) {
	if k <= 0 {
		k = 10
	}

	session := s.client.ReadSession(ctx)
	defer session.Close(ctx)

	out, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, `
CALL db.index.vector.queryNodes('knowledge_node_embedding_idx', $fetch, $embedding)
YIELD node, score
WHERE node.domain = $domain AND node.id <> $exclude
RETURN node.id AS id, node.title AS title, score
ORDER BY score DESC
LIMIT $k
`, map[string]any{
			"fetch":     k * 4,
			"k":         k,
			"embedding": float32To64(embedding),
			"domain":    domainName,
			"exclude":   excludeID,
		})
		if err != nil {
			return nil, err
		}
		var neighbors []domain.SimilarNode
		for res.Next(ctx) {
			rec := res.Record()
			neighbors = append(neighbors, domain.SimilarNode{
				ID:    recordString(rec, "id"),
				Title: recordString(rec, "title"),
				Score: recordFloat(rec, "score"),
			})
		}
		return neighbors, res.Err()
	})
	if err != nil {
		return nil, fmt.Errorf("graph: similar nodes: %w", err)
	}
	return out.([]domain.SimilarNode), nil
}

// SetPotentialDuplicate flags or clears the near-duplicate marker.
func (s *Store) SetPotentialDuplicate(ctx context.Context, nodeID string, flag bool) error {
	session := s.client.WriteSession(ctx)
	defer session.Close(ctx)

	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, `
MATCH (n:KnowledgeNode {id: $id})
SET n.potential_duplicate = $flag, n.updated_at = $now
`, map[string]any{"id": nodeID, "flag": flag, "now": nowRFC3339()})
		if err != nil {
			return nil, err
		}
		_, err = res.Consume(ctx)
		return nil, err
	})
	if err != nil {
		return fmt.Errorf("graph: set potential_duplicate %q: %w", nodeID, err)
	}
	return nil
}

// FindByExactTitle resolves a node identity by exact title within a domain.
// Returns "" when nothing matches.
func (s *Store) FindByExactTitle(ctx context.Context, domainName, title string) (string, error) {
	session := s.client.ReadSession(ctx)
	defer session.Close(ctx)

	out, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, `
MATCH (n:KnowledgeNode {domain: $domain, title: $title})
RETURN n.id AS id
LIMIT 1
`, map[string]any{"domain": domainName, "title": title})
		if err != nil {
			return nil, err
		}
		if !res.Next(ctx) {
			return "", res.Err()
		}
		return recordString(res.Record(), "id"), nil
	})
	if err != nil {
		return "", fmt.Errorf("graph: find by title %q: %w", title, err)
	}
	return out.(string), nil
}

// FindByTitleSubstring resolves a node whose title contains the given text,
// case-insensitively. Used as the last resolution step for relationship
// targets. Returns "" when nothing matches.
func (s *Store) FindByTitleSubstring(ctx context.Context, domainName, fragment string) (string, error) {
	fragment = strings.ToLower(strings.TrimSpace(fragment))
	if fragment == "" {
		return "", nil
	}

	session := s.client.ReadSession(ctx)
	defer session.Close(ctx)

	out, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, `
MATCH (n:KnowledgeNode {domain: $domain})
WHERE toLower(n.title) CONTAINS $fragment
RETURN n.id AS id
ORDER BY n.title
LIMIT 1
`, map[string]any{"domain": domainName, "fragment": fragment})
		if err != nil {
			return nil, err
		}
		if !res.Next(ctx) {
			return "", res.Err()
		}
		return recordString(res.Record(), "id"), nil
	})
	if err != nil {
		return "", fmt.Errorf("graph: find by title substring %q: %w", fragment, err)
	}
	return out.(string), nil
}

// SearchByEmbedding runs the top-K similarity search behind the retrieval
// engine. An empty domainFilter searches every domain.
func (s *Store) SearchByEmbedding(ctx context.Context, embedding []float32, k int, domainFilter string) ([]domain.ScoredNode, error) {
	if k <= 0 {
		k = 5
	}
	fetch := k
	if domainFilter != "" {
		fetch = k * 4
	}

	session := s.client.ReadSession(ctx)
	defer session.Close(ctx)

	out, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, `
CALL db.index.vector.queryNodes('knowledge_node_embedding_idx', $fetch, $embedding)
YIELD node, score
WHERE $domain = '' OR node.domain = $domain
RETURN node.id AS id,
       node.title AS title,
       node.domain AS domain,
       node.summary AS summary,
       node.definition AS definition,
       node.confidence AS confidence,
       node.claim_type AS claim_type,
       node.evidence_json AS evidence_json,
       node.scope_json AS scope_json,
       node.potential_duplicate AS potential_duplicate,
       score
ORDER BY score DESC
LIMIT $k
`, map[string]any{
			"fetch":     fetch,
			"k":         k,
			"embedding": float32To64(embedding),
			"domain":    domainFilter,
		})
		if err != nil {
			return nil, err
		}
		var hits []domain.ScoredNode
		for res.Next(ctx) {
			rec := res.Record()
			hits = append(hits, domain.ScoredNode{
				Node:  nodeFromRecord(rec),
				Score: recordFloat(rec, "score"),
			})
		}
		return hits, res.Err()
	})
	if err != nil {
		return nil, fmt.Errorf("graph: search by embedding: %w", err)
	}
	return out.([]domain.ScoredNode), nil
}

// RelatedNodes walks exactly one hop from a node across all four
// relationship categories, in either direction, de-duplicated by identity.
func (s *Store) RelatedNodes(ctx context.Context, nodeID string) ([]domain.RelatedNode, error) {
	session := s.client.ReadSession(ctx)
	defer session.Close(ctx)

	out, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, `
MATCH (n:KnowledgeNode {id: $id})-[r:CAUSAL|EPISTEMIC|CONTEXTUAL|STRUCTURAL]-(m:KnowledgeNode)
WITH m, collect(type(r))[0] AS category
RETURN DISTINCT m.id AS id, m.title AS title, m.summary AS summary, category
`, map[string]any{"id": nodeID})
		if err != nil {
			return nil, err
		}
		var related []domain.RelatedNode
		for res.Next(ctx) {
			rec := res.Record()
			related = append(related, domain.RelatedNode{
				ID:       recordString(rec, "id"),
				Title:    recordString(rec, "title"),
				Summary:  recordString(rec, "summary"),
				Category: domain.RelationshipCategory(recordString(rec, "category")),
			})
		}
		return related, res.Err()
	})
	if err != nil {
		return nil, fmt.Errorf("graph: related nodes %q: %w", nodeID, err)
	}
	return out.([]domain.RelatedNode), nil
}

func nodeFromRecord(rec *neo4j.Record) domain.KnowledgeNode {
	node := domain.KnowledgeNode{
		ID:                 recordString(rec, "id"),
		Title:              recordString(rec, "title"),
		Domain:             recordString(rec, "domain"),
		Summary:            recordString(rec, "summary"),
		Definition:         recordString(rec, "definition"),
		Confidence:         recordFloat(rec, "confidence"),
		ClaimType:          domain.ClaimType(recordString(rec, "claim_type")),
		PotentialDuplicate: recordBool(rec, "potential_duplicate"),
	}
	fromJSONString(recordString(rec, "evidence_json"), &node.Evidence)
	fromJSONString(recordString(rec, "scope_json"), &node.Scope)
	return node
}
