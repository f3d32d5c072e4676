package synthesis

import (
	"context"
	"fmt"
	"strings"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/yungbote/claimgraph-backend/internal/domain"
	"github.com/yungbote/claimgraph-backend/internal/platform/logger"
	"github.com/yungbote/claimgraph-backend/internal/services"
)

// NodeStore is the graph surface node ingestion depends on.
type NodeStore interface {
	DomainExists(ctx context.Context, name string) (bool, error)
	UpsertNode(ctx context.Context, node *domain.KnowledgeNode) (bool, error)
	SimilarNodes(ctx context.Context, domainName string, embedding []float32, k int, excludeID string) ([]domain.SimilarNode, error)
	SetPotentialDuplicate(ctx context.Context, nodeID string, flag bool) error
}

// NodeIngestConfig carries the duplicate-detection knobs.
type NodeIngestConfig struct {
	DuplicateThreshold float64
	NeighborCount      int
}

func (c NodeIngestConfig) withDefaults() NodeIngestConfig {
	if c.DuplicateThreshold <= 0 {
		c.DuplicateThreshold = 0.88
	}
	if c.NeighborCount <= 0 {
		c.NeighborCount = 10
	}
	return c
}

// NodeIngestResult reports one ingestion pass. NodeIDs is positionally
// aligned with the input claims; a skipped claim holds "" so relationship
// ingestion can index by claim position.
type NodeIngestResult struct {
	Created         int
	Merged          int
	DuplicatesFound int
	NodeIDs         []string
	Warnings        []string
}

// NodeIngestor idempotently merges validated claims into knowledge nodes.
type NodeIngestor struct {
	log      *logger.Logger
	store    NodeStore
	embedder services.Embedder
	cfg      NodeIngestConfig

	// Domain existence rarely changes, so lookups are cached briefly.
	domains *gocache.Cache
}

func NewNodeIngestor(log *logger.Logger, store NodeStore, embedder services.Embedder, cfg NodeIngestConfig) *NodeIngestor {
	return &NodeIngestor{
		log:      log.With("service", "NodeIngestor"),
		store:    store,
		embedder: embedder,
		cfg:      cfg.withDefaults(),
		domains:  gocache.New(5*time.Minute, 10*time.Minute),
	}
}

func (n *NodeIngestor) domainExists(ctx context.Context, name string) (bool, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	if v, found := n.domains.Get(key); found {
		return v.(bool), nil
	}
	exists, err := n.store.DomainExists(ctx, name)
	if err != nil {
		return false, err
	}
	n.domains.Set(key, exists, gocache.DefaultExpiration)
	return exists, nil
}

// Ingest upserts one node per claim. A claim targeting an unknown domain is
// skipped with a warning; a storage failure on one claim is likewise
// isolated so the rest of the batch proceeds.
func (n *NodeIngestor) Ingest(ctx context.Context, claims []domain.ExtractedClaim, domainName string) (*NodeIngestResult, error) {
	result := &NodeIngestResult{NodeIDs: make([]string, len(claims))}
	if len(claims) == 0 {
		return result, nil
	}

	exists, err := n.domainExists(ctx, domainName)
	if err != nil {
		return nil, fmt.Errorf("ingest nodes: domain check: %w", err)
	}
	if !exists {
		for _, c := range claims {
			result.Warnings = append(result.Warnings, fmt.Sprintf("claim %q skipped: domain %q does not exist", c.Title, domainName))
		}
		return result, nil
	}

	// Batch the embeddings up front; one model call covers the whole pass.
	texts := make([]string, len(claims))
	for i, c := range claims {
		texts[i] = c.Title + "\n" + c.Definition
	}
	embeddings, err := n.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("ingest nodes: embed claims: %w", err)
	}

	for i, claim := range claims {
		id := NodeIdentity(claim.Title, domainName)
		node := &domain.KnowledgeNode{
			ID:         id,
			Title:      claim.Title,
			Domain:     domainName,
			Summary:    claim.Summary,
			Definition: claim.Definition,
			Embedding:  embeddings[i],
			Confidence: claim.Confidence,
			ClaimType:  claim.ClaimType,
			Evidence:   claim.Evidence,
			Scope:      claim.Scope,
		}

		created, err := n.store.UpsertNode(ctx, node)
		if err != nil {
			result.Warnings = append(result.Warnings, fmt.Sprintf("claim %q skipped: upsert failed: %v", claim.Title, err))
			continue
		}
		result.NodeIDs[i] = id
		if created {
			result.Created++
		} else {
			result.Merged++
		}

		flagged, err := n.flagNearDuplicates(ctx, domainName, id, embeddings[i])
		if err != nil {
			result.Warnings = append(result.Warnings, fmt.Sprintf("claim %q: duplicate check failed: %v", claim.Title, err))
			continue
		}
		if flagged {
			result.DuplicatesFound++
			result.Warnings = append(result.Warnings, fmt.Sprintf("claim %q flagged as potential duplicate", claim.Title))
		}
	}

	n.log.Info("node ingestion finished",
		"domain", domainName,
		"created", result.Created,
		"merged", result.Merged,
		"duplicates", result.DuplicatesFound,
	)
	return result, nil
}

// flagNearDuplicates marks the node when any same-domain neighbor (other
// than itself) exceeds the similarity threshold.
func (n *NodeIngestor) flagNearDuplicates(ctx context.Context, domainName, nodeID string, embedding []float32) (bool, error) {
	neighbors, err := n.store.SimilarNodes(ctx, domainName, embedding, n.cfg.NeighborCount, nodeID)
	if err != nil {
		return false, err
	}
	for _, nb := range neighbors {
		if nb.Score > n.cfg.DuplicateThreshold {
			if err := n.store.SetPotentialDuplicate(ctx, nodeID, true); err != nil {
				return false, err
			}
			return true, nil
		}
	}
	return false, nil
}
