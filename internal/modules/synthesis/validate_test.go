package synthesis

import (
	"testing"

	"github.com/yungbote/claimgraph-backend/internal/domain"
)

func fullRawClaim() map[string]any {
	return map[string]any{
		"title":      "Spaced repetition improves retention",
		"definition": "Reviewing material at increasing intervals improves long-term retention.",
		"summary":    "Spacing reviews beats massed practice for retention.",
		"claim_type": "causal_claim",
		"confidence": 0.85,
		"evidence": []any{
			map[string]any{
				"source":   "Cepeda et al.",
				"year":     float64(2006),
				"type":     "meta_analysis",
				"strength": "strong",
			},
		},
		"relationships": []any{
			map[string]any{
				"target_title": "Massed practice",
				"category":     "CAUSAL",
				"type":         "inhibits",
				"strength":     0.7,
			},
		},
	}
}

func TestValidateClaimStrictAccept(t *testing.T) {
	v := ValidateClaim(fullRawClaim())
	if v.Outcome != OutcomeAccepted {
		t.Fatalf("outcome = %v, want OutcomeAccepted (reason %q)", v.Outcome, v.Reason)
	}
	if len(v.Warnings) != 0 {
		t.Fatalf("strict acceptance produced warnings: %v", v.Warnings)
	}
	if v.Claim.ClaimType != domain.ClaimCausal {
		t.Fatalf("claim_type = %q, want causal_claim", v.Claim.ClaimType)
	}
	if len(v.Claim.Evidence) != 1 || v.Claim.Evidence[0].Year != 2006 {
		t.Fatalf("evidence not carried through: %+v", v.Claim.Evidence)
	}
	if len(v.Claim.Relationships) != 1 || v.Claim.Relationships[0].Category != domain.RelCausal {
		t.Fatalf("relationships not carried through: %+v", v.Claim.Relationships)
	}
}

func TestValidateClaimLenientDefaults(t *testing.T) {
	raw := map[string]any{
		"title":      "Working memory is limited",
		"definition": "Humans hold roughly four chunks in working memory at once.",
	}
	v := ValidateClaim(raw)
	if v.Outcome != OutcomeAcceptedWithDefaults {
		t.Fatalf("outcome = %v, want OutcomeAcceptedWithDefaults", v.Outcome)
	}
	if v.Claim.Summary != v.Claim.Definition {
		t.Fatalf("summary not defaulted to definition: %q", v.Claim.Summary)
	}
	if v.Claim.ClaimType != domain.ClaimDefinition {
		t.Fatalf("claim_type = %q, want default definition", v.Claim.ClaimType)
	}
	if v.Claim.Confidence != 0.5 {
		t.Fatalf("confidence = %v, want default 0.5", v.Claim.Confidence)
	}
	if len(v.Warnings) == 0 {
		t.Fatal("lenient acceptance recorded no warnings")
	}
}

func TestValidateClaimLenientDropsMalformedEntries(t *testing.T) {
	raw := fullRawClaim()
	raw["confidence"] = "very high"
	raw["evidence"] = []any{"not an object", map[string]any{"source": "kept"}}
	raw["relationships"] = []any{
		map[string]any{"target_title": "x", "category": "NOT_A_CATEGORY"},
		map[string]any{"target_title": "Massed practice", "category": "CAUSAL"},
	}
	v := ValidateClaim(raw)
	if v.Outcome != OutcomeAcceptedWithDefaults {
		t.Fatalf("outcome = %v, want OutcomeAcceptedWithDefaults", v.Outcome)
	}
	if len(v.Claim.Evidence) != 1 || v.Claim.Evidence[0].Source != "kept" {
		t.Fatalf("evidence = %+v, want single kept entry", v.Claim.Evidence)
	}
	if len(v.Claim.Relationships) != 1 {
		t.Fatalf("relationships = %+v, want single valid entry", v.Claim.Relationships)
	}
}

func TestValidateClaimRejected(t *testing.T) {
	v := ValidateClaim(map[string]any{"summary": "no title or definition"})
	if v.Outcome != OutcomeRejected {
		t.Fatalf("outcome = %v, want OutcomeRejected", v.Outcome)
	}
	if v.Reason == "" {
		t.Fatal("rejection carried no reason")
	}
}

func TestValidateClaimOutOfRangeConfidence(t *testing.T) {
	raw := fullRawClaim()
	raw["confidence"] = 1.7
	v := ValidateClaim(raw)
	if v.Outcome != OutcomeAcceptedWithDefaults {
		t.Fatalf("outcome = %v, want OutcomeAcceptedWithDefaults", v.Outcome)
	}
	if v.Claim.Confidence != 0.5 {
		t.Fatalf("confidence = %v, want clamped default 0.5", v.Claim.Confidence)
	}
}
