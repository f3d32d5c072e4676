package synthesis

import (
	"context"
	"strings"
	"testing"

	"github.com/yungbote/claimgraph-backend/internal/modules/synthesis/prompts"
	"github.com/yungbote/claimgraph-backend/internal/platform/logger"
)

// cannedLLM returns a fixed response regardless of the prompt.
type cannedLLM struct {
	response map[string]any
	err      error
	lastSys  string
}

func (c *cannedLLM) GenerateJSON(_ context.Context, system, _, _ string, _ map[string]any) (map[string]any, error) {
	c.lastSys = system
	return c.response, c.err
}

func TestExtractMixedValidation(t *testing.T) {
	ai := &cannedLLM{response: map[string]any{
		"claims": []any{
			fullRawClaim(),
			map[string]any{
				"title":      "Salvageable",
				"definition": "Lenient validation keeps this.",
			},
			map[string]any{"summary": "rejected, no core fields"},
		},
	}}
	ex := NewExtractor(logger.NewNop(), ai, prompts.NewLibrary())

	res, err := ex.Extract(context.Background(), ExtractionInput{Text: "some research", Domain: "learning_science"})
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if len(res.Claims) != 2 {
		t.Fatalf("claims kept = %d, want 2", len(res.Claims))
	}
	dropped := false
	for _, w := range res.Warnings {
		if strings.Contains(w, "dropped") {
			dropped = true
		}
	}
	if !dropped {
		t.Fatalf("no warning records the dropped claim: %v", res.Warnings)
	}
}

func TestExtractRejectsEmptyInput(t *testing.T) {
	ex := NewExtractor(logger.NewNop(), &cannedLLM{}, prompts.NewLibrary())

	if _, err := ex.Extract(context.Background(), ExtractionInput{Text: "  ", Domain: "d"}); err == nil {
		t.Fatal("blank text must error")
	}
	if _, err := ex.Extract(context.Background(), ExtractionInput{Text: "t", Domain: ""}); err == nil {
		t.Fatal("blank domain must error")
	}
}

func TestExtractTemplateOverride(t *testing.T) {
	ai := &cannedLLM{response: map[string]any{"claims": []any{}}}
	ex := NewExtractor(logger.NewNop(), ai, prompts.NewLibrary())

	_, err := ex.Extract(context.Background(), ExtractionInput{
		Text:           "text",
		Domain:         "learning_science",
		PromptTemplate: "custom system prompt",
	})
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if ai.lastSys != "custom system prompt" {
		t.Fatalf("system prompt = %q, want override", ai.lastSys)
	}
}

func TestExtractZeroClaims(t *testing.T) {
	ai := &cannedLLM{response: map[string]any{"claims": []any{}}}
	ex := NewExtractor(logger.NewNop(), ai, prompts.NewLibrary())

	res, err := ex.Extract(context.Background(), ExtractionInput{Text: "nothing here", Domain: "d"})
	if err != nil {
		t.Fatalf("zero claims must not error: %v", err)
	}
	if len(res.Claims) != 0 {
		t.Fatalf("claims = %d, want 0", len(res.Claims))
	}
}
