package synthesis

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/yungbote/claimgraph-backend/internal/domain"
	"github.com/yungbote/claimgraph-backend/internal/platform/logger"
)

type fakeEmbedder struct{}

func (fakeEmbedder) EmbedOne(_ context.Context, text string) ([]float32, error) {
	return []float32{float32(len(text)), 1, 0}, nil
}

func (f fakeEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		vec, err := f.EmbedOne(ctx, t)
		if err != nil {
			return nil, err
		}
		out[i] = vec
	}
	return out, nil
}

type fakeNodeStore struct {
	domains   map[string]bool
	nodes     map[string]*domain.KnowledgeNode
	neighbors map[string][]domain.SimilarNode
	flagged   map[string]bool
	upsertErr map[string]error
}

func newFakeNodeStore(domains ...string) *fakeNodeStore {
	f := &fakeNodeStore{
		domains:   map[string]bool{},
		nodes:     map[string]*domain.KnowledgeNode{},
		neighbors: map[string][]domain.SimilarNode{},
		flagged:   map[string]bool{},
		upsertErr: map[string]error{},
	}
	for _, d := range domains {
		f.domains[d] = true
	}
	return f
}

func (f *fakeNodeStore) DomainExists(_ context.Context, name string) (bool, error) {
	return f.domains[name], nil
}

func (f *fakeNodeStore) UpsertNode(_ context.Context, node *domain.KnowledgeNode) (bool, error) {
	if err := f.upsertErr[node.Title]; err != nil {
		return false, err
	}
	_, existed := f.nodes[node.ID]
	f.nodes[node.ID] = node
	return !existed, nil
}

func (f *fakeNodeStore) SimilarNodes(_ context.Context, _ string, _ []float32, _ int, excludeID string) ([]domain.SimilarNode, error) {
	var out []domain.SimilarNode
	for _, nb := range f.neighbors[excludeID] {
		if nb.ID != excludeID {
			out = append(out, nb)
		}
	}
	return out, nil
}

func (f *fakeNodeStore) SetPotentialDuplicate(_ context.Context, nodeID string, flag bool) error {
	f.flagged[nodeID] = flag
	return nil
}

func testClaims(titles ...string) []domain.ExtractedClaim {
	claims := make([]domain.ExtractedClaim, len(titles))
	for i, title := range titles {
		claims[i] = domain.ExtractedClaim{
			Title:      title,
			Definition: "definition of " + title,
			Summary:    "summary of " + title,
			ClaimType:  domain.ClaimDefinition,
			Confidence: 0.8,
		}
	}
	return claims
}

func TestNodeIngestIdempotent(t *testing.T) {
	store := newFakeNodeStore("learning_science")
	ing := NewNodeIngestor(logger.NewNop(), store, fakeEmbedder{}, NodeIngestConfig{})
	claims := testClaims("Spaced repetition", "Working memory")

	first, err := ing.Ingest(context.Background(), claims, "learning_science")
	if err != nil {
		t.Fatalf("first ingest: %v", err)
	}
	if first.Created != 2 || first.Merged != 0 {
		t.Fatalf("first pass created=%d merged=%d, want 2/0", first.Created, first.Merged)
	}

	second, err := ing.Ingest(context.Background(), claims, "learning_science")
	if err != nil {
		t.Fatalf("second ingest: %v", err)
	}
	if second.Created != 0 || second.Merged != 2 {
		t.Fatalf("second pass created=%d merged=%d, want 0/2", second.Created, second.Merged)
	}
	if second.NodeIDs[0] != first.NodeIDs[0] || second.NodeIDs[1] != first.NodeIDs[1] {
		t.Fatal("re-ingestion resolved different node identities")
	}
}

func TestNodeIngestUnknownDomainSkipsAll(t *testing.T) {
	store := newFakeNodeStore("learning_science")
	ing := NewNodeIngestor(logger.NewNop(), store, fakeEmbedder{}, NodeIngestConfig{})

	res, err := ing.Ingest(context.Background(), testClaims("A", "B"), "no_such_domain")
	if err != nil {
		t.Fatalf("ingest: %v", err)
	}
	if res.Created != 0 || res.Merged != 0 {
		t.Fatalf("created=%d merged=%d, want 0/0", res.Created, res.Merged)
	}
	if len(res.Warnings) != 2 {
		t.Fatalf("warnings = %d, want one per claim", len(res.Warnings))
	}
	for _, id := range res.NodeIDs {
		if id != "" {
			t.Fatalf("skipped claim got node id %q", id)
		}
	}
}

func TestNodeIngestDuplicateThreshold(t *testing.T) {
	store := newFakeNodeStore("learning_science")
	ing := NewNodeIngestor(logger.NewNop(), store, fakeEmbedder{}, NodeIngestConfig{DuplicateThreshold: 0.88})

	nearID := NodeIdentity("Near duplicate", "learning_science")
	farID := NodeIdentity("Clearly distinct", "learning_science")
	store.neighbors[nearID] = []domain.SimilarNode{{ID: "other", Title: "Existing", Score: 0.93}}
	store.neighbors[farID] = []domain.SimilarNode{{ID: "other", Title: "Existing", Score: 0.80}}

	res, err := ing.Ingest(context.Background(), testClaims("Near duplicate", "Clearly distinct"), "learning_science")
	if err != nil {
		t.Fatalf("ingest: %v", err)
	}
	if res.DuplicatesFound != 1 {
		t.Fatalf("duplicates found = %d, want 1", res.DuplicatesFound)
	}
	if !store.flagged[nearID] {
		t.Fatal("node above threshold was not flagged")
	}
	if store.flagged[farID] {
		t.Fatal("node at similarity 0.80 must not be flagged")
	}
}

func TestNodeIngestIsolatesUpsertFailure(t *testing.T) {
	store := newFakeNodeStore("learning_science")
	store.upsertErr["Broken"] = fmt.Errorf("write refused")
	ing := NewNodeIngestor(logger.NewNop(), store, fakeEmbedder{}, NodeIngestConfig{})

	res, err := ing.Ingest(context.Background(), testClaims("Broken", "Fine"), "learning_science")
	if err != nil {
		t.Fatalf("ingest: %v", err)
	}
	if res.Created != 1 {
		t.Fatalf("created = %d, want 1", res.Created)
	}
	if res.NodeIDs[0] != "" || res.NodeIDs[1] == "" {
		t.Fatalf("node ids = %v, want failed slot empty and healthy slot set", res.NodeIDs)
	}
	found := false
	for _, w := range res.Warnings {
		if strings.Contains(w, "Broken") {
			found = true
		}
	}
	if !found {
		t.Fatalf("no warning mentions the failed claim: %v", res.Warnings)
	}
}
