package domain

// RelationshipIntent is a claim's declared edge to another claim, named by
// target title. Resolution to a node identity happens at ingestion time.
type RelationshipIntent struct {
	TargetTitle string               `json:"target_title"`
	Category    RelationshipCategory `json:"category"`
	Type        string               `json:"type,omitempty"`
	Stance      string               `json:"stance,omitempty"`
	Strength    float64              `json:"strength,omitempty"`
}

// ExtractedClaim is the transient output of the extraction engine, consumed
// by node and relationship ingestion. Never persisted as-is.
type ExtractedClaim struct {
	Title         string               `json:"title"`
	Definition    string               `json:"definition"`
	Summary       string               `json:"summary"`
	ClaimType     ClaimType            `json:"claim_type"`
	Confidence    float64              `json:"confidence"`
	Evidence      []Evidence           `json:"evidence"`
	Relationships []RelationshipIntent `json:"relationships"`
	Scope         ScopeQualifiers      `json:"scope,omitempty"`
}
