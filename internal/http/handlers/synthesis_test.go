package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/claimgraph-backend/internal/domain"
	"github.com/yungbote/claimgraph-backend/internal/modules/synthesis"
	"github.com/yungbote/claimgraph-backend/internal/modules/synthesis/prompts"
	"github.com/yungbote/claimgraph-backend/internal/platform/logger"
)

// failLLM makes every extraction fail so the pipeline errors out up front.
type failLLM struct{}

func (failLLM) GenerateJSON(context.Context, string, string, string, map[string]any) (map[string]any, error) {
	return nil, errors.New("model unavailable")
}

type stubEmbedder struct{}

func (stubEmbedder) EmbedOne(context.Context, string) ([]float32, error) {
	return []float32{1, 0, 0}, nil
}

func (stubEmbedder) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i := range out {
		out[i] = []float32{1, 0, 0}
	}
	return out, nil
}

type stubNodeStore struct{}

func (stubNodeStore) DomainExists(context.Context, string) (bool, error) { return true, nil }
func (stubNodeStore) UpsertNode(context.Context, *domain.KnowledgeNode) (bool, error) {
	return true, nil
}
func (stubNodeStore) SimilarNodes(context.Context, string, []float32, int, string) ([]domain.SimilarNode, error) {
	return nil, nil
}
func (stubNodeStore) SetPotentialDuplicate(context.Context, string, bool) error { return nil }

type stubRelStore struct{}

func (stubRelStore) FindByExactTitle(context.Context, string, string) (string, error) {
	return "", nil
}
func (stubRelStore) FindByTitleSubstring(context.Context, string, string) (string, error) {
	return "", nil
}
func (stubRelStore) CreateRelationships(_ context.Context, rels []domain.Relationship) (int, error) {
	return len(rels), nil
}

type stubRunStore struct{}

func (stubRunStore) CreateRun(context.Context, *domain.SynthesisRun) error   { return nil }
func (stubRunStore) FinalizeRun(context.Context, *domain.SynthesisRun) error { return nil }

func newFailingSynthesisHandler() *SynthesisHandler {
	log := logger.NewNop()
	extractor := synthesis.NewExtractor(log, failLLM{}, prompts.NewLibrary())
	nodes := synthesis.NewNodeIngestor(log, stubNodeStore{}, stubEmbedder{}, synthesis.NodeIngestConfig{})
	rels := synthesis.NewRelationshipIngestor(log, stubRelStore{})
	orch := synthesis.NewOrchestrator(log, extractor, nodes, rels, stubRunStore{})
	return NewSynthesisHandler(log, extractor, nodes, rels, orch, nil)
}

func postJSON(t *testing.T, handler gin.HandlerFunc, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")
	handler(c)
	return w
}

func TestSynthesizeErrorUsesEnvelopeWithRunReference(t *testing.T) {
	h := newFailingSynthesisHandler()

	w := postJSON(t, h.Synthesize, "/api/synthesis/synthesize",
		`{"text":"some research text","domain":"learning_science"}`)
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", w.Code)
	}

	var body struct {
		Error struct {
			Message string `json:"message"`
			Code    string `json:"code"`
		} `json:"error"`
		RunID  string `json:"run_id"`
		Status string `json:"status"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v: %s", err, w.Body.String())
	}
	if body.Error.Code != "synthesis_failed" || body.Error.Message == "" {
		t.Fatalf("error envelope = %+v", body.Error)
	}
	if body.RunID == "" || body.RunID == "00000000-0000-0000-0000-000000000000" {
		t.Fatalf("run_id = %q, want the created run's id", body.RunID)
	}
	if body.Status != string(domain.RunFailed) {
		t.Fatalf("status = %q, want failed", body.Status)
	}
}

func TestSynthesizeRejectsMissingFields(t *testing.T) {
	h := newFailingSynthesisHandler()

	w := postJSON(t, h.Synthesize, "/api/synthesis/synthesize", `{"text":"only text"}`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
	var body struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body.Error.Code != "invalid_request" {
		t.Fatalf("error code = %q, want invalid_request", body.Error.Code)
	}
}
