package domain

import (
	"time"

	"github.com/google/uuid"
)

// RunStatus is the lifecycle of one synthesis pass. A run starts partial and
// is finalized exactly once; a run that stays partial after an error records
// preserved partial progress, not lost work.
type RunStatus string

const (
	RunPartial   RunStatus = "partial"
	RunCompleted RunStatus = "completed"
	RunFailed    RunStatus = "failed"
)

// SynthesisRun is the audit record around one extract-and-ingest pass.
type SynthesisRun struct {
	ID        uuid.UUID `json:"id"`
	InputHash string    `json:"input_hash"`
	Domain    string    `json:"domain"`
	Status    RunStatus `json:"status"`

	NodesCreated         int `json:"nodes_created"`
	NodesMerged          int `json:"nodes_merged"`
	RelationshipsCreated int `json:"relationships_created"`
	DuplicatesFound      int `json:"duplicates_found"`

	Errors []string `json:"errors,omitempty"`

	CreatedAt   time.Time  `json:"created_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}
