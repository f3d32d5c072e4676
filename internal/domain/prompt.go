package domain

import (
	"time"

	"github.com/google/uuid"
)

// PromptStatus is the research-prompt lifecycle. Transitions run one way
// along the chain; the two review jumps (approve back to queued, reject) and
// the universal failure edge are the only exceptions.
type PromptStatus string

const (
	PromptQueued       PromptStatus = "queued"
	PromptNeedsReview  PromptStatus = "needs_review"
	PromptReady        PromptStatus = "ready_for_research"
	PromptResearched   PromptStatus = "researched"
	PromptSynthesizing PromptStatus = "synthesizing"
	PromptCompleted    PromptStatus = "completed"
	PromptFailed       PromptStatus = "failed"
	PromptRejected     PromptStatus = "rejected"
)

func ValidPromptStatus(s PromptStatus) bool {
	switch s {
	case PromptQueued, PromptNeedsReview, PromptReady, PromptResearched,
		PromptSynthesizing, PromptCompleted, PromptFailed, PromptRejected:
		return true
	default:
		return false
	}
}

// TerminalPromptStatus reports whether a prompt can move no further.
func TerminalPromptStatus(s PromptStatus) bool {
	switch s {
	case PromptCompleted, PromptFailed, PromptRejected:
		return true
	default:
		return false
	}
}

// PromptSource records what produced a research prompt.
type PromptSource string

const (
	SourceManual         PromptSource = "manual"
	SourceGapDetection   PromptSource = "gap_detection"
	SourceFreshnessDecay PromptSource = "freshness_decay"
	SourceCoverageMap    PromptSource = "coverage_map"
)

// ResearchPrompt is a queued "research this topic" task feeding the
// extraction pipeline. Prompts are never deleted, only terminally marked.
type ResearchPrompt struct {
	ID       uuid.UUID    `json:"id"`
	Title    string       `json:"title"`
	Prompt   string       `json:"prompt"`
	Domain   string       `json:"domain"`
	Priority float64      `json:"priority"`
	Source   PromptSource `json:"source"`
	Status   PromptStatus `json:"status"`

	ResearchOutput string `json:"research_output,omitempty"`
	WordCount      int    `json:"word_count,omitempty"`
	ErrorMessage   string `json:"error_message,omitempty"`

	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
	ResearchedDate *time.Time `json:"researched_date,omitempty"`
	CompletedDate  *time.Time `json:"completed_date,omitempty"`
}
