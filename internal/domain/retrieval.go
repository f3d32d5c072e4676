package domain

// SimilarNode is a vector-index neighbor used for duplicate detection.
type SimilarNode struct {
	ID    string  `json:"id"`
	Title string  `json:"title"`
	Score float64 `json:"score"`
}

// ScoredNode is one retrieval hit with its similarity score.
type ScoredNode struct {
	Node  KnowledgeNode `json:"node"`
	Score float64       `json:"score"`
}

// RelatedNode is a 1-hop neighbor of a retrieval hit.
type RelatedNode struct {
	ID       string               `json:"id"`
	Title    string               `json:"title"`
	Summary  string               `json:"summary"`
	Category RelationshipCategory `json:"category"`
}
