package synthesis

import (
	"fmt"
	"strings"

	"github.com/yungbote/claimgraph-backend/internal/domain"
)

// ValidationOutcome is the closed result of validating one raw claim from
// the model: accepted as-is, salvaged with defaults, or dropped.
type ValidationOutcome int

const (
	OutcomeAccepted ValidationOutcome = iota
	OutcomeAcceptedWithDefaults
	OutcomeRejected
)

// ClaimValidation carries one raw claim's outcome. Claim is only meaningful
// for the two accepting outcomes; Reason only for rejection.
type ClaimValidation struct {
	Outcome  ValidationOutcome
	Claim    domain.ExtractedClaim
	Warnings []string
	Reason   string
}

const confidenceMidpoint = 0.5

// ValidateClaim applies the two-layer check: strict first, then lenient.
// Strict demands every field present and well-typed. Lenient keeps the claim
// when the non-defaultable core (title, definition) is intact, filling the
// rest with safe defaults and recording what was filled.
func ValidateClaim(raw map[string]any) ClaimValidation {
	if claim, ok := strictClaim(raw); ok {
		return ClaimValidation{Outcome: OutcomeAccepted, Claim: claim}
	}
	if claim, warnings, ok := lenientClaim(raw); ok {
		return ClaimValidation{Outcome: OutcomeAcceptedWithDefaults, Claim: claim, Warnings: warnings}
	}
	return ClaimValidation{Outcome: OutcomeRejected, Reason: rejectReason(raw)}
}

func strictClaim(raw map[string]any) (domain.ExtractedClaim, bool) {
	title, ok := stringField(raw, "title")
	if !ok {
		return domain.ExtractedClaim{}, false
	}
	definition, ok := stringField(raw, "definition")
	if !ok {
		return domain.ExtractedClaim{}, false
	}
	summary, ok := stringField(raw, "summary")
	if !ok {
		return domain.ExtractedClaim{}, false
	}
	claimType, ok := stringField(raw, "claim_type")
	if !ok || !domain.ValidClaimType(domain.ClaimType(claimType)) {
		return domain.ExtractedClaim{}, false
	}
	confidence, ok := floatField(raw, "confidence")
	if !ok || confidence < 0 || confidence > 1 {
		return domain.ExtractedClaim{}, false
	}

	evidence, ok := evidenceField(raw, true)
	if !ok {
		return domain.ExtractedClaim{}, false
	}
	rels, ok := relationshipField(raw, true)
	if !ok {
		return domain.ExtractedClaim{}, false
	}

	return domain.ExtractedClaim{
		Title:         title,
		Definition:    definition,
		Summary:       summary,
		ClaimType:     domain.ClaimType(claimType),
		Confidence:    confidence,
		Evidence:      evidence,
		Relationships: rels,
	}, true
}

func lenientClaim(raw map[string]any) (domain.ExtractedClaim, []string, bool) {
	title, ok := stringField(raw, "title")
	if !ok {
		return domain.ExtractedClaim{}, nil, false
	}
	definition, ok := stringField(raw, "definition")
	if !ok {
		return domain.ExtractedClaim{}, nil, false
	}

	var warnings []string
	claim := domain.ExtractedClaim{Title: title, Definition: definition}

	if summary, ok := stringField(raw, "summary"); ok {
		claim.Summary = summary
	} else {
		claim.Summary = definition
		warnings = append(warnings, fmt.Sprintf("claim %q: missing summary, using definition", title))
	}

	if ct, ok := stringField(raw, "claim_type"); ok && domain.ValidClaimType(domain.ClaimType(ct)) {
		claim.ClaimType = domain.ClaimType(ct)
	} else {
		claim.ClaimType = domain.ClaimDefinition
		warnings = append(warnings, fmt.Sprintf("claim %q: missing or invalid claim_type, defaulting to %s", title, domain.ClaimDefinition))
	}

	if confidence, ok := floatField(raw, "confidence"); ok && confidence >= 0 && confidence <= 1 {
		claim.Confidence = confidence
	} else {
		claim.Confidence = confidenceMidpoint
		warnings = append(warnings, fmt.Sprintf("claim %q: missing or out-of-range confidence, defaulting to %.1f", title, confidenceMidpoint))
	}

	evidence, ok := evidenceField(raw, false)
	if !ok {
		evidence = []domain.Evidence{}
		warnings = append(warnings, fmt.Sprintf("claim %q: malformed evidence dropped", title))
	}
	claim.Evidence = evidence

	rels, ok := relationshipField(raw, false)
	if !ok {
		rels = nil
		warnings = append(warnings, fmt.Sprintf("claim %q: malformed relationships dropped", title))
	}
	claim.Relationships = rels

	return claim, warnings, true
}

func rejectReason(raw map[string]any) string {
	var missing []string
	if _, ok := stringField(raw, "title"); !ok {
		missing = append(missing, "title")
	}
	if _, ok := stringField(raw, "definition"); !ok {
		missing = append(missing, "definition")
	}
	if len(missing) == 0 {
		return "claim failed validation"
	}
	return "missing required fields: " + strings.Join(missing, ", ")
}

// ---------- field helpers ----------

func stringField(m map[string]any, key string) (string, bool) {
	v, ok := m[key]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	s = strings.TrimSpace(s)
	if !ok || s == "" {
		return "", false
	}
	return s, true
}

func floatField(m map[string]any, key string) (float64, bool) {
	v, ok := m[key]
	if !ok {
		return 0, false
	}
	switch t := v.(type) {
	case float64:
		return t, true
	case int:
		return float64(t), true
	case int64:
		return float64(t), true
	default:
		return 0, false
	}
}

// evidenceField parses the evidence array. In strict mode any malformed
// entry fails the whole field; in lenient mode malformed entries are
// silently dropped and only a non-array fails.
func evidenceField(m map[string]any, strict bool) ([]domain.Evidence, bool) {
	v, ok := m["evidence"]
	if !ok || v == nil {
		if strict {
			return nil, false
		}
		return []domain.Evidence{}, true
	}
	items, ok := v.([]any)
	if !ok {
		return nil, false
	}
	out := make([]domain.Evidence, 0, len(items))
	for _, it := range items {
		entry, ok := it.(map[string]any)
		if !ok {
			if strict {
				return nil, false
			}
			continue
		}
		source, ok := stringField(entry, "source")
		if !ok {
			if strict {
				return nil, false
			}
			continue
		}
		ev := domain.Evidence{Source: source}
		if year, ok := floatField(entry, "year"); ok {
			ev.Year = int(year)
		}
		if t, ok := stringField(entry, "type"); ok {
			ev.Type = t
		}
		if st, ok := stringField(entry, "strength"); ok {
			ev.Strength = st
		}
		if c, ok := stringField(entry, "citation"); ok {
			ev.Citation = c
		}
		out = append(out, ev)
	}
	return out, true
}

func relationshipField(m map[string]any, strict bool) ([]domain.RelationshipIntent, bool) {
	v, ok := m["relationships"]
	if !ok || v == nil {
		if strict {
			return nil, false
		}
		return nil, true
	}
	items, ok := v.([]any)
	if !ok {
		return nil, false
	}
	out := make([]domain.RelationshipIntent, 0, len(items))
	for _, it := range items {
		entry, ok := it.(map[string]any)
		if !ok {
			if strict {
				return nil, false
			}
			continue
		}
		target, targetOK := stringField(entry, "target_title")
		category, categoryOK := stringField(entry, "category")
		if !targetOK || !categoryOK || !domain.ValidRelationshipCategory(domain.RelationshipCategory(category)) {
			if strict {
				return nil, false
			}
			continue
		}
		intent := domain.RelationshipIntent{
			TargetTitle: target,
			Category:    domain.RelationshipCategory(category),
		}
		if t, ok := stringField(entry, "type"); ok {
			intent.Type = t
		}
		if st, ok := stringField(entry, "stance"); ok {
			intent.Stance = st
		}
		if strength, ok := floatField(entry, "strength"); ok {
			intent.Strength = strength
		}
		out = append(out, intent)
	}
	return out, true
}
