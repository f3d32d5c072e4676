package openai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/yungbote/claimgraph-backend/internal/platform/logger"
)

func newTestClient(t *testing.T, srv *httptest.Server) Client {
	t.Helper()
	t.Setenv("OPENAI_API_KEY", "test-key")
	t.Setenv("OPENAI_BASE_URL", srv.URL)
	t.Setenv("OPENAI_MAX_RETRIES", "2")

	c, err := NewClient(logger.NewNop())
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	return c
}

func writeEmbeddings(w http.ResponseWriter, vecs ...[]float64) {
	type datum struct {
		Embedding []float64 `json:"embedding"`
		Index     int       `json:"index"`
	}
	var data []datum
	for i, v := range vecs {
		data = append(data, datum{Embedding: v, Index: i})
	}
	_ = json.NewEncoder(w).Encode(map[string]any{"data": data})
}

func TestEmbedRetriesOnRateLimit(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("authorization header = %q", got)
		}
		if calls == 1 {
			w.Header().Set("Retry-After", "1")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		writeEmbeddings(w, []float64{0.1, 0.2, 0.3})
	}))
	defer srv.Close()

	c := newTestClient(t, srv)
	vecs, err := c.Embed(context.Background(), []string{"spaced repetition"})
	if err != nil {
		t.Fatalf("embed: %v", err)
	}
	if calls != 2 {
		t.Fatalf("requests = %d, want 2 (one retry)", calls)
	}
	if len(vecs) != 1 || len(vecs[0]) != 3 {
		t.Fatalf("vectors = %v, want one 3-dim vector", vecs)
	}
}

func TestEmbedDoesNotRetryClientError(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls++
		http.Error(w, `{"error":{"message":"bad input"}}`, http.StatusBadRequest)
	}))
	defer srv.Close()

	c := newTestClient(t, srv)
	_, err := c.Embed(context.Background(), []string{"anything"})
	if err == nil {
		t.Fatal("expected an error for 400 response")
	}
	if calls != 1 {
		t.Fatalf("requests = %d, want 1 (no retry on client error)", calls)
	}
	var httpErr *openAIHTTPError
	if !errors.As(err, &httpErr) || httpErr.StatusCode != http.StatusBadRequest {
		t.Fatalf("error = %v, want openai http 400", err)
	}
}

func TestEmbedGivesUpAfterMaxRetries(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls++
		w.Header().Set("Retry-After", "1")
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	t.Setenv("OPENAI_API_KEY", "test-key")
	t.Setenv("OPENAI_BASE_URL", srv.URL)
	t.Setenv("OPENAI_MAX_RETRIES", "1")
	c, err := NewClient(logger.NewNop())
	if err != nil {
		t.Fatalf("new client: %v", err)
	}

	_, err = c.Embed(context.Background(), []string{"anything"})
	if err == nil {
		t.Fatal("expected an error after retries are exhausted")
	}
	if calls != 2 {
		t.Fatalf("requests = %d, want 2 (initial attempt plus one retry)", calls)
	}
	var httpErr *openAIHTTPError
	if !errors.As(err, &httpErr) || httpErr.StatusCode != http.StatusInternalServerError {
		t.Fatalf("error = %v, want openai http 500", err)
	}
}

func TestEmbedStopsOnCanceledContext(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls++
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := newTestClient(t, srv)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.Embed(ctx, []string{"anything"})
	if err == nil {
		t.Fatal("expected an error for canceled context")
	}
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("error = %v, want context.Canceled", err)
	}
	if calls != 0 {
		t.Fatalf("requests = %d, want 0 when context is already canceled", calls)
	}
}

func TestGenerateJSONParsesStructuredOutput(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req map[string]any
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		format, _ := req["text"].(map[string]any)["format"].(map[string]any)
		if format["type"] != "json_schema" || format["name"] != "claims" {
			t.Errorf("request format = %v", format)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"output": []any{
				map[string]any{
					"type": "message",
					"role": "assistant",
					"content": []any{
						map[string]any{"type": "output_text", "text": `{"claims":[]}`},
					},
				},
			},
		})
	}))
	defer srv.Close()

	c := newTestClient(t, srv)
	obj, err := c.GenerateJSON(context.Background(), "system", "user", "claims", map[string]any{"type": "object"})
	if err != nil {
		t.Fatalf("generate json: %v", err)
	}
	if _, ok := obj["claims"]; !ok {
		t.Fatalf("decoded object = %v, want a claims key", obj)
	}
}
