package domain

// RelationshipCategory is a closed set: the store needs a literal edge type
// per write statement, so categories are never constructed dynamically.
type RelationshipCategory string

const (
	RelCausal     RelationshipCategory = "CAUSAL"
	RelEpistemic  RelationshipCategory = "EPISTEMIC"
	RelContextual RelationshipCategory = "CONTEXTUAL"
	RelStructural RelationshipCategory = "STRUCTURAL"
)

func ValidRelationshipCategory(c RelationshipCategory) bool {
	switch c {
	case RelCausal, RelEpistemic, RelContextual, RelStructural:
		return true
	default:
		return false
	}
}

// RelationshipCategories lists the four categories in a stable order.
func RelationshipCategories() []RelationshipCategory {
	return []RelationshipCategory{RelCausal, RelEpistemic, RelContextual, RelStructural}
}

// Epistemic stances.
const (
	StanceSupports    = "supports"
	StanceContradicts = "contradicts"
	StanceSupersedes  = "supersedes"
	StanceRefines     = "refines"
)

// Contextual scopes.
const (
	ScopeQualifies = "qualifies"
	ScopeAppliesTo = "applies_to"
	ScopeExcept    = "except_when"
	ScopeDependsOn = "depends_on"
)

// Structural hierarchies.
const (
	HierarchyIsA         = "is_a"
	HierarchyPartOf      = "part_of"
	HierarchyInstanceOf  = "instance_of"
	HierarchyEvolvedFrom = "evolved_from"
	HierarchyExampleOf   = "example_of"
	HierarchyContains    = "contains"
)

// Relationship is a directed, typed edge between two knowledge nodes.
// Relationships are append-only: created once, never updated. Which property
// fields are meaningful depends on Category.
type Relationship struct {
	FromID   string               `json:"from_id"`
	ToID     string               `json:"to_id"`
	Category RelationshipCategory `json:"category"`

	// CAUSAL
	Direction string  `json:"direction,omitempty"`
	Strength  float64 `json:"strength,omitempty"`
	Mechanism string  `json:"mechanism,omitempty"`

	// EPISTEMIC
	Stance string `json:"stance,omitempty"`

	// CONTEXTUAL
	Scope      string   `json:"scope,omitempty"`
	Conditions []string `json:"conditions,omitempty"`

	// STRUCTURAL
	Hierarchy string `json:"hierarchy,omitempty"`

	// Shared provenance.
	Confidence float64 `json:"confidence,omitempty"`
	Source     string  `json:"source,omitempty"`
}
