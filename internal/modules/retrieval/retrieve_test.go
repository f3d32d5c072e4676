package retrieval

import (
	"context"
	"strings"
	"testing"

	"github.com/yungbote/claimgraph-backend/internal/domain"
	"github.com/yungbote/claimgraph-backend/internal/platform/logger"
)

type fakeEmbedder struct{}

func (fakeEmbedder) EmbedOne(_ context.Context, text string) ([]float32, error) {
	return []float32{float32(len(text)), 1}, nil
}

func (f fakeEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i], _ = f.EmbedOne(ctx, t)
	}
	return out, nil
}

type fakeSearchStore struct {
	hits    []domain.ScoredNode
	related map[string][]domain.RelatedNode
}

func (f *fakeSearchStore) SearchByEmbedding(_ context.Context, _ []float32, k int, _ string) ([]domain.ScoredNode, error) {
	if k < len(f.hits) {
		return f.hits[:k], nil
	}
	return f.hits, nil
}

func (f *fakeSearchStore) RelatedNodes(_ context.Context, nodeID string) ([]domain.RelatedNode, error) {
	return f.related[nodeID], nil
}

func scoredNode(id, title string, score float64) domain.ScoredNode {
	return domain.ScoredNode{
		Node:  domain.KnowledgeNode{ID: id, Title: title, Definition: "def"},
		Score: score,
	}
}

func TestQueryAttachesNeighborhood(t *testing.T) {
	store := &fakeSearchStore{
		hits: []domain.ScoredNode{scoredNode("a", "Anchor", 0.9)},
		related: map[string][]domain.RelatedNode{
			"a": {{ID: "b", Title: "Neighbor", Category: domain.RelStructural}},
		},
	}
	eng := NewEngine(logger.NewNop(), store, fakeEmbedder{}, Config{})

	res, err := eng.Query(context.Background(), "what anchors learning", 5, "")
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(res.Hits) != 1 || len(res.Hits[0].Related) != 1 {
		t.Fatalf("hits = %+v", res.Hits)
	}
	if res.Hits[0].Related[0].Title != "Neighbor" {
		t.Fatalf("related = %+v", res.Hits[0].Related)
	}
	for _, w := range res.Warnings {
		if strings.Contains(w, "low confidence") {
			t.Fatalf("unexpected low-confidence warning: %v", res.Warnings)
		}
	}
}

func TestQueryLowConfidenceWarning(t *testing.T) {
	store := &fakeSearchStore{
		hits: []domain.ScoredNode{
			scoredNode("a", "Weak", 0.41),
			scoredNode("b", "Weaker", 0.22),
		},
	}
	eng := NewEngine(logger.NewNop(), store, fakeEmbedder{}, Config{LowConfidenceThreshold: 0.5})

	res, err := eng.Query(context.Background(), "uncovered topic", 5, "")
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	found := false
	for _, w := range res.Warnings {
		if strings.Contains(w, "low confidence") {
			found = true
		}
	}
	if !found {
		t.Fatalf("all hits below threshold but no warning: %v", res.Warnings)
	}
}

func TestQueryOneStrongHitSuppressesWarning(t *testing.T) {
	store := &fakeSearchStore{
		hits: []domain.ScoredNode{
			scoredNode("a", "Strong", 0.72),
			scoredNode("b", "Weak", 0.30),
		},
	}
	eng := NewEngine(logger.NewNop(), store, fakeEmbedder{}, Config{})

	res, err := eng.Query(context.Background(), "covered topic", 5, "")
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	for _, w := range res.Warnings {
		if strings.Contains(w, "low confidence") {
			t.Fatalf("one hit above threshold must suppress the warning: %v", res.Warnings)
		}
	}
}

func TestQueryEmptyGraph(t *testing.T) {
	eng := NewEngine(logger.NewNop(), &fakeSearchStore{}, fakeEmbedder{}, Config{})

	res, err := eng.Query(context.Background(), "anything", 5, "")
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(res.Hits) != 0 {
		t.Fatalf("hits = %+v, want none", res.Hits)
	}
	if res.Context != NoMatchesMessage {
		t.Fatalf("context = %q, want no-matches message", res.Context)
	}
}

func TestQueryRejectsEmptyText(t *testing.T) {
	eng := NewEngine(logger.NewNop(), &fakeSearchStore{}, fakeEmbedder{}, Config{})
	if _, err := eng.Query(context.Background(), "", 5, ""); err == nil {
		t.Fatal("empty query must error")
	}
}
