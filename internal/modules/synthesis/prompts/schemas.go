package prompts

import "github.com/yungbote/claimgraph-backend/internal/domain"

// ---------- shared fragments ----------

func StringArraySchema() map[string]any {
	return map[string]any{
		"type":  "array",
		"items": map[string]any{"type": "string"},
	}
}

func NumberSchema() map[string]any {
	return map[string]any{"type": "number"}
}

func IntSchema() map[string]any {
	return map[string]any{"type": "integer"}
}

func EnumSchema(values ...string) map[string]any {
	arr := make([]any, 0, len(values))
	for _, v := range values {
		arr = append(arr, v)
	}
	return map[string]any{"type": "string", "enum": arr}
}

// ---------- claim extraction ----------

// ClaimExtractionSchema is the structured-output contract for one extraction
// call: an array of atomic claims, each with evidence and relationship
// intents. The model is forced through this schema, but the response is
// still re-validated on our side because it is untrusted input.
func ClaimExtractionSchema() map[string]any {
	evidence := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"source":   map[string]any{"type": "string"},
			"year":     IntSchema(),
			"type":     map[string]any{"type": "string"},
			"strength": map[string]any{"type": "string"},
			"citation": map[string]any{"type": "string"},
		},
		"required":             []string{"source", "year", "type", "strength", "citation"},
		"additionalProperties": false,
	}

	relationship := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"target_title": map[string]any{"type": "string"},
			"category": EnumSchema(
				string(domain.RelCausal),
				string(domain.RelEpistemic),
				string(domain.RelContextual),
				string(domain.RelStructural),
			),
			"type":     map[string]any{"type": "string"},
			"stance":   map[string]any{"type": "string"},
			"strength": NumberSchema(),
		},
		"required":             []string{"target_title", "category", "type", "stance", "strength"},
		"additionalProperties": false,
	}

	claim := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"title":         map[string]any{"type": "string"},
			"definition":    map[string]any{"type": "string"},
			"summary":       map[string]any{"type": "string"},
			"claim_type":    EnumSchema(domain.ClaimTypeValues()...),
			"confidence":    NumberSchema(),
			"evidence":      map[string]any{"type": "array", "items": evidence},
			"relationships": map[string]any{"type": "array", "items": relationship},
		},
		"required": []string{
			"title",
			"definition",
			"summary",
			"claim_type",
			"confidence",
			"evidence",
			"relationships",
		},
		"additionalProperties": false,
	}

	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"claims": map[string]any{"type": "array", "items": claim},
		},
		"required":             []string{"claims"},
		"additionalProperties": false,
	}
}
