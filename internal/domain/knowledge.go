package domain

import "time"

// ClaimType classifies what kind of atomic claim a KnowledgeNode carries.
type ClaimType string

const (
	ClaimDefinition     ClaimType = "definition"
	ClaimCausal         ClaimType = "causal_claim"
	ClaimTrend          ClaimType = "trend"
	ClaimComparison     ClaimType = "comparison"
	ClaimRecommendation ClaimType = "recommendation"
	ClaimPrediction     ClaimType = "prediction"
	ClaimFramework      ClaimType = "framework"
	ClaimMetric         ClaimType = "metric"
	ClaimCaseStudy      ClaimType = "case_study"
)

var claimTypes = map[ClaimType]bool{
	ClaimDefinition:     true,
	ClaimCausal:         true,
	ClaimTrend:          true,
	ClaimComparison:     true,
	ClaimRecommendation: true,
	ClaimPrediction:     true,
	ClaimFramework:      true,
	ClaimMetric:         true,
	ClaimCaseStudy:      true,
}

func ValidClaimType(t ClaimType) bool { return claimTypes[t] }

// ClaimTypeValues lists all claim types in a stable order, for schema
// construction and validation messages.
func ClaimTypeValues() []string {
	return []string{
		string(ClaimDefinition),
		string(ClaimCausal),
		string(ClaimTrend),
		string(ClaimComparison),
		string(ClaimRecommendation),
		string(ClaimPrediction),
		string(ClaimFramework),
		string(ClaimMetric),
		string(ClaimCaseStudy),
	}
}

// Evidence is one source backing a claim.
type Evidence struct {
	Source   string `json:"source"`
	Year     int    `json:"year,omitempty"`
	Type     string `json:"type,omitempty"`
	Strength string `json:"strength,omitempty"`
	Citation string `json:"citation,omitempty"`
}

// ScopeQualifiers narrow where a claim holds. All fields optional.
type ScopeQualifiers struct {
	Conditions    []string `json:"conditions,omitempty"`
	TemporalRange string   `json:"temporal_range,omitempty"`
	Geographic    string   `json:"geographic,omitempty"`
}

// KnowledgeNode is a single atomic, evidenced claim stored in the graph.
// Identity is derived from (title, domain) so repeated ingestion of the same
// claim always lands on the same node.
type KnowledgeNode struct {
	ID         string          `json:"id"`
	Title      string          `json:"title"`
	Domain     string          `json:"domain"`
	Summary    string          `json:"summary"`
	Definition string          `json:"definition"`
	Embedding  []float32       `json:"-"`
	Confidence float64         `json:"confidence"`
	ClaimType  ClaimType       `json:"claim_type"`
	Evidence   []Evidence      `json:"evidence,omitempty"`
	Scope      ScopeQualifiers `json:"scope,omitempty"`

	PotentialDuplicate bool `json:"potential_duplicate"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
