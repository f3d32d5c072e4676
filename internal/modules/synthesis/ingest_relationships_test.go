package synthesis

import (
	"context"
	"strings"
	"testing"

	"github.com/yungbote/claimgraph-backend/internal/domain"
	"github.com/yungbote/claimgraph-backend/internal/platform/logger"
)

type fakeRelStore struct {
	exact     map[string]string
	substring map[string]string
	written   []domain.Relationship
	createErr error
}

func (f *fakeRelStore) FindByExactTitle(_ context.Context, _ string, title string) (string, error) {
	return f.exact[title], nil
}

func (f *fakeRelStore) FindByTitleSubstring(_ context.Context, _ string, fragment string) (string, error) {
	for title, id := range f.substring {
		if strings.Contains(strings.ToLower(title), strings.ToLower(fragment)) {
			return id, nil
		}
	}
	return "", nil
}

func (f *fakeRelStore) CreateRelationships(_ context.Context, rels []domain.Relationship) (int, error) {
	if f.createErr != nil {
		return 0, f.createErr
	}
	f.written = append(f.written, rels...)
	return len(rels), nil
}

func TestRelationshipIngestResolvesWithinBatch(t *testing.T) {
	store := &fakeRelStore{}
	ing := NewRelationshipIngestor(logger.NewNop(), store)

	claims := testClaims("Cause", "Effect")
	claims[0].Relationships = []domain.RelationshipIntent{
		{TargetTitle: "Effect", Category: domain.RelCausal, Type: "enables", Strength: 0.9},
	}
	nodeIDs := []string{"id-cause", "id-effect"}

	res, err := ing.Ingest(context.Background(), claims, nodeIDs, "learning_science", "test")
	if err != nil {
		t.Fatalf("ingest: %v", err)
	}
	if res.Created != 1 || res.Skipped != 0 {
		t.Fatalf("created=%d skipped=%d, want 1/0", res.Created, res.Skipped)
	}
	rel := store.written[0]
	if rel.FromID != "id-cause" || rel.ToID != "id-effect" {
		t.Fatalf("edge endpoints = %s -> %s", rel.FromID, rel.ToID)
	}
	if rel.Direction != "enables" || rel.Strength != 0.9 {
		t.Fatalf("causal properties not mapped: %+v", rel)
	}
}

func TestRelationshipIngestFallsBackToGraphLookups(t *testing.T) {
	store := &fakeRelStore{
		exact:     map[string]string{"Known Exact": "id-exact"},
		substring: map[string]string{"Contains Fragment Inside": "id-fragment"},
	}
	ing := NewRelationshipIngestor(logger.NewNop(), store)

	claims := testClaims("Source")
	claims[0].Relationships = []domain.RelationshipIntent{
		{TargetTitle: "Known Exact", Category: domain.RelStructural, Type: "is_a"},
		{TargetTitle: "fragment inside", Category: domain.RelEpistemic, Stance: "supports"},
	}

	res, err := ing.Ingest(context.Background(), claims, []string{"id-src"}, "learning_science", "test")
	if err != nil {
		t.Fatalf("ingest: %v", err)
	}
	if res.Created != 2 {
		t.Fatalf("created = %d, want 2", res.Created)
	}
	if store.written[0].ToID != "id-exact" || store.written[0].Hierarchy != "is_a" {
		t.Fatalf("exact resolution wrong: %+v", store.written[0])
	}
	if store.written[1].ToID != "id-fragment" || store.written[1].Stance != "supports" {
		t.Fatalf("substring resolution wrong: %+v", store.written[1])
	}
}

func TestRelationshipIngestSkipsUnresolved(t *testing.T) {
	store := &fakeRelStore{}
	ing := NewRelationshipIngestor(logger.NewNop(), store)

	claims := testClaims("Source")
	claims[0].Relationships = []domain.RelationshipIntent{
		{TargetTitle: "Nowhere To Be Found", Category: domain.RelCausal, Type: "enables"},
	}

	res, err := ing.Ingest(context.Background(), claims, []string{"id-src"}, "learning_science", "test")
	if err != nil {
		t.Fatalf("ingest: %v", err)
	}
	if res.Created != 0 || res.Skipped != 1 {
		t.Fatalf("created=%d skipped=%d, want 0/1", res.Created, res.Skipped)
	}
	if len(res.Warnings) != 1 || !strings.Contains(res.Warnings[0], "Nowhere To Be Found") {
		t.Fatalf("warnings = %v", res.Warnings)
	}
}

func TestRelationshipIngestSkipsWhenSourceNodeMissing(t *testing.T) {
	store := &fakeRelStore{}
	ing := NewRelationshipIngestor(logger.NewNop(), store)

	claims := testClaims("Skipped", "Kept")
	claims[0].Relationships = []domain.RelationshipIntent{
		{TargetTitle: "Kept", Category: domain.RelCausal, Type: "enables"},
	}
	// First claim's node was never ingested.
	nodeIDs := []string{"", "id-kept"}

	res, err := ing.Ingest(context.Background(), claims, nodeIDs, "learning_science", "test")
	if err != nil {
		t.Fatalf("ingest: %v", err)
	}
	if res.Created != 0 || res.Skipped != 1 {
		t.Fatalf("created=%d skipped=%d, want 0/1", res.Created, res.Skipped)
	}
}
