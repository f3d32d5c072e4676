package synthesis

import (
	"context"
	"fmt"
	"strings"

	"github.com/yungbote/claimgraph-backend/internal/domain"
	"github.com/yungbote/claimgraph-backend/internal/platform/logger"
)

// RelationshipStore is the graph surface relationship ingestion depends on.
// The Find methods return "" when nothing matches.
type RelationshipStore interface {
	FindByExactTitle(ctx context.Context, domainName, title string) (string, error)
	FindByTitleSubstring(ctx context.Context, domainName, fragment string) (string, error)
	CreateRelationships(ctx context.Context, rels []domain.Relationship) (int, error)
}

// RelationshipIngestResult reports one ingestion pass.
type RelationshipIngestResult struct {
	Created  int
	Skipped  int
	Warnings []string
}

// RelationshipIngestor resolves the relationship intents attached to a batch
// of claims against node identifiers and writes the resolvable ones.
type RelationshipIngestor struct {
	log   *logger.Logger
	store RelationshipStore
}

func NewRelationshipIngestor(log *logger.Logger, store RelationshipStore) *RelationshipIngestor {
	return &RelationshipIngestor{
		log:   log.With("service", "RelationshipIngestor"),
		store: store,
	}
}

// Ingest wires claim relationships into the graph. nodeIDs is positionally
// aligned with claims; "" marks a claim whose node was not ingested.
//
// Target resolution tries, in order: a title match inside the current batch,
// an exact title lookup in the graph, then a substring lookup. An intent
// whose target stays unresolved is skipped with a warning, never failed.
func (r *RelationshipIngestor) Ingest(ctx context.Context, claims []domain.ExtractedClaim, nodeIDs []string, domainName, source string) (*RelationshipIngestResult, error) {
	if len(nodeIDs) != len(claims) {
		return nil, fmt.Errorf("ingest relationships: %d node ids for %d claims", len(nodeIDs), len(claims))
	}
	result := &RelationshipIngestResult{}

	batchByTitle := make(map[string]string, len(claims))
	for i, c := range claims {
		if nodeIDs[i] == "" {
			continue
		}
		batchByTitle[normalizeTitle(c.Title)] = nodeIDs[i]
	}

	var rels []domain.Relationship
	for i, claim := range claims {
		if nodeIDs[i] == "" {
			if len(claim.Relationships) > 0 {
				result.Skipped += len(claim.Relationships)
				result.Warnings = append(result.Warnings, fmt.Sprintf("claim %q: %d relationship(s) skipped, source node was not ingested", claim.Title, len(claim.Relationships)))
			}
			continue
		}
		for _, intent := range claim.Relationships {
			targetID, err := r.resolveTarget(ctx, batchByTitle, domainName, intent.TargetTitle)
			if err != nil {
				return nil, fmt.Errorf("ingest relationships: resolve %q: %w", intent.TargetTitle, err)
			}
			if targetID == "" {
				result.Skipped++
				result.Warnings = append(result.Warnings, fmt.Sprintf("claim %q: relationship to %q skipped, target not found", claim.Title, intent.TargetTitle))
				continue
			}
			rel, ok := relationshipFromIntent(nodeIDs[i], targetID, claim.Confidence, source, intent)
			if !ok {
				result.Skipped++
				result.Warnings = append(result.Warnings, fmt.Sprintf("claim %q: relationship to %q skipped, unknown category %q", claim.Title, intent.TargetTitle, intent.Category))
				continue
			}
			rels = append(rels, rel)
		}
	}

	if len(rels) > 0 {
		written, err := r.store.CreateRelationships(ctx, rels)
		if err != nil {
			return nil, fmt.Errorf("ingest relationships: write: %w", err)
		}
		result.Created = written
	}

	r.log.Info("relationship ingestion finished",
		"domain", domainName,
		"created", result.Created,
		"skipped", result.Skipped,
	)
	return result, nil
}

func (r *RelationshipIngestor) resolveTarget(ctx context.Context, batchByTitle map[string]string, domainName, title string) (string, error) {
	if id, ok := batchByTitle[normalizeTitle(title)]; ok {
		return id, nil
	}
	id, err := r.store.FindByExactTitle(ctx, domainName, title)
	if err != nil {
		return "", err
	}
	if id != "" {
		return id, nil
	}
	return r.store.FindByTitleSubstring(ctx, domainName, title)
}

func normalizeTitle(title string) string {
	return strings.ToLower(strings.Join(strings.Fields(title), " "))
}

// relationshipFromIntent maps the intent's free-form type onto the property
// that discriminates edges of its category.
func relationshipFromIntent(fromID, toID string, confidence float64, source string, intent domain.RelationshipIntent) (domain.Relationship, bool) {
	rel := domain.Relationship{
		FromID:     fromID,
		ToID:       toID,
		Category:   intent.Category,
		Confidence: confidence,
		Source:     source,
	}
	switch intent.Category {
	case domain.RelCausal:
		rel.Direction = intent.Type
		rel.Strength = intent.Strength
	case domain.RelEpistemic:
		rel.Stance = intent.Stance
		if rel.Stance == "" {
			rel.Stance = intent.Type
		}
	case domain.RelContextual:
		rel.Scope = intent.Type
	case domain.RelStructural:
		rel.Hierarchy = intent.Type
	default:
		return domain.Relationship{}, false
	}
	return rel, true
}
