package synthesis

import (
	"context"
	"fmt"
	"strings"

	"github.com/yungbote/claimgraph-backend/internal/domain"
	"github.com/yungbote/claimgraph-backend/internal/modules/synthesis/prompts"
	"github.com/yungbote/claimgraph-backend/internal/platform/logger"
)

// LLM is the slice of the model client the extraction engine needs.
type LLM interface {
	GenerateJSON(ctx context.Context, system string, user string, schemaName string, schema map[string]any) (map[string]any, error)
}

// ExtractionInput is one extraction request.
type ExtractionInput struct {
	Text   string
	Domain string
	// Source attributes extracted evidence when the text itself does not.
	Source string
	// PromptTemplate overrides the library template when non-empty.
	PromptTemplate string
}

// ExtractionResult is the validated output of one extraction call. Zero
// claims with no error is a legitimate outcome.
type ExtractionResult struct {
	Claims   []domain.ExtractedClaim
	Warnings []string
}

// Extractor turns free research text into validated atomic claims.
type Extractor struct {
	log       *logger.Logger
	ai        LLM
	templates *prompts.Library
}

func NewExtractor(log *logger.Logger, ai LLM, templates *prompts.Library) *Extractor {
	return &Extractor{
		log:       log.With("service", "ClaimExtractor"),
		ai:        ai,
		templates: templates,
	}
}

// Extract asks the model for structured claims and validates each one
// through the strict-then-lenient layers. A malformed claim never aborts the
// call: it is dropped with a warning while its siblings proceed.
func (e *Extractor) Extract(ctx context.Context, input ExtractionInput) (*ExtractionResult, error) {
	text := strings.TrimSpace(input.Text)
	if text == "" {
		return nil, fmt.Errorf("extract: empty text")
	}
	if strings.TrimSpace(input.Domain) == "" {
		return nil, fmt.Errorf("extract: empty domain")
	}

	system := strings.TrimSpace(input.PromptTemplate)
	if system == "" {
		system = e.templates.ForDomain(input.Domain)
	}

	user := buildExtractionUserPrompt(text, input.Domain, input.Source)

	obj, err := e.ai.GenerateJSON(ctx, system, user, "claim_extraction", prompts.ClaimExtractionSchema())
	if err != nil {
		return nil, fmt.Errorf("extract: model call: %w", err)
	}

	rawClaims, ok := obj["claims"].([]any)
	if !ok {
		// Structured output should prevent this, but the channel is untrusted.
		return nil, fmt.Errorf("extract: response missing claims array")
	}

	result := &ExtractionResult{Claims: []domain.ExtractedClaim{}}
	for i, rc := range rawClaims {
		entry, ok := rc.(map[string]any)
		if !ok {
			result.Warnings = append(result.Warnings, fmt.Sprintf("claim %d: not an object, dropped", i))
			continue
		}
		v := ValidateClaim(entry)
		switch v.Outcome {
		case OutcomeAccepted:
			result.Claims = append(result.Claims, v.Claim)
		case OutcomeAcceptedWithDefaults:
			result.Claims = append(result.Claims, v.Claim)
			result.Warnings = append(result.Warnings, v.Warnings...)
		case OutcomeRejected:
			result.Warnings = append(result.Warnings, fmt.Sprintf("claim %d dropped: %s", i, v.Reason))
		}
	}

	e.log.Debug("extraction finished",
		"domain", input.Domain,
		"raw_claims", len(rawClaims),
		"kept", len(result.Claims),
		"warnings", len(result.Warnings),
	)
	return result, nil
}

func buildExtractionUserPrompt(text, domainName, source string) string {
	var b strings.Builder
	b.WriteString("Target domain: ")
	b.WriteString(domainName)
	b.WriteString("\n")
	if strings.TrimSpace(source) != "" {
		b.WriteString("Source attribution: ")
		b.WriteString(source)
		b.WriteString("\n")
	}
	b.WriteString("\nResearch text:\n")
	b.WriteString(text)
	return b.String()
}
