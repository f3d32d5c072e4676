package retrieval

import (
	"context"
	"fmt"
	"time"

	"github.com/yungbote/claimgraph-backend/internal/domain"
	"github.com/yungbote/claimgraph-backend/internal/observability"
	"github.com/yungbote/claimgraph-backend/internal/platform/logger"
	"github.com/yungbote/claimgraph-backend/internal/services"
)

// SearchStore is the graph surface the retrieval engine depends on.
type SearchStore interface {
	SearchByEmbedding(ctx context.Context, embedding []float32, k int, domainFilter string) ([]domain.ScoredNode, error)
	RelatedNodes(ctx context.Context, nodeID string) ([]domain.RelatedNode, error)
}

// Config carries the retrieval policy knobs.
type Config struct {
	DefaultK               int
	LowConfidenceThreshold float64
	ContextCharBudget      int
}

func (c Config) withDefaults() Config {
	if c.DefaultK <= 0 {
		c.DefaultK = 5
	}
	if c.LowConfidenceThreshold <= 0 {
		c.LowConfidenceThreshold = 0.5
	}
	if c.ContextCharBudget <= 0 {
		c.ContextCharBudget = 32000
	}
	return c
}

// Hit is one retrieval result with its 1-hop neighborhood.
type Hit struct {
	Node    domain.KnowledgeNode `json:"node"`
	Score   float64              `json:"score"`
	Related []domain.RelatedNode `json:"related,omitempty"`
}

// Result is a full retrieval pass: structured hits plus the serialized
// context ready to hand to a model.
type Result struct {
	Hits     []Hit    `json:"hits"`
	Context  string   `json:"context"`
	Warnings []string `json:"warnings,omitempty"`
}

// Engine answers natural-language queries against the knowledge graph.
type Engine struct {
	log      *logger.Logger
	store    SearchStore
	embedder services.Embedder
	cfg      Config
}

func NewEngine(log *logger.Logger, store SearchStore, embedder services.Embedder, cfg Config) *Engine {
	return &Engine{
		log:      log.With("service", "RetrievalEngine"),
		store:    store,
		embedder: embedder,
		cfg:      cfg.withDefaults(),
	}
}

// Query embeds the query text, runs the top-K similarity search, walks one
// hop from every hit, and serializes the result under the context budget.
// When every hit scores below the confidence threshold, a low-confidence
// warning is attached; the graph likely has no coverage of the topic and the
// caller must be told rather than handed weak context silently.
func (e *Engine) Query(ctx context.Context, query string, k int, domainFilter string) (*Result, error) {
	if query == "" {
		return nil, fmt.Errorf("retrieval: empty query")
	}
	if k <= 0 {
		k = e.cfg.DefaultK
	}
	start := time.Now()

	embedding, err := e.embedder.EmbedOne(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("retrieval: embed query: %w", err)
	}

	scored, err := e.store.SearchByEmbedding(ctx, embedding, k, domainFilter)
	if err != nil {
		return nil, fmt.Errorf("retrieval: search: %w", err)
	}

	result := &Result{}
	lowConfidence := len(scored) > 0
	for _, s := range scored {
		hit := Hit{Node: s.Node, Score: s.Score}
		if s.Score >= e.cfg.LowConfidenceThreshold {
			lowConfidence = false
		}
		related, err := e.store.RelatedNodes(ctx, s.Node.ID)
		if err != nil {
			result.Warnings = append(result.Warnings, fmt.Sprintf("related nodes for %q unavailable: %v", s.Node.Title, err))
		} else {
			hit.Related = related
		}
		result.Hits = append(result.Hits, hit)
	}

	if lowConfidence {
		result.Warnings = append(result.Warnings, fmt.Sprintf("low confidence: no result scored at or above %.2f, the graph may not cover this query", e.cfg.LowConfidenceThreshold))
	}
	result.Context = SerializeContext(result.Hits, e.cfg.ContextCharBudget)

	observability.Current().ObserveRetrieval("query", time.Since(start), lowConfidence)
	e.log.Debug("retrieval query finished",
		"k", k,
		"domain", domainFilter,
		"hits", len(result.Hits),
		"low_confidence", lowConfidence,
	)
	return result, nil
}
