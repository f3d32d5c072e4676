package promptqueue

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/claimgraph-backend/internal/data/graph"
	"github.com/yungbote/claimgraph-backend/internal/domain"
	pkgerrors "github.com/yungbote/claimgraph-backend/internal/pkg/errors"
	"github.com/yungbote/claimgraph-backend/internal/platform/logger"
)

// skipPenalty is subtracted from priority on every skip, floored at zero.
const skipPenalty = 0.1

// PromptStore is the graph surface the queue service depends on.
type PromptStore interface {
	CreatePrompt(ctx context.Context, p *domain.ResearchPrompt) error
	GetPrompt(ctx context.Context, id uuid.UUID) (*domain.ResearchPrompt, error)
	UpdatePrompt(ctx context.Context, p *domain.ResearchPrompt) error
	ListPrompts(ctx context.Context, filter graph.PromptFilter) ([]*domain.ResearchPrompt, error)
	NextReadyPrompt(ctx context.Context) (*domain.ResearchPrompt, error)
}

// transitions is the legal edge set of the prompt lifecycle. The universal
// edge to failed is handled separately because it also demands an error
// message.
var transitions = map[domain.PromptStatus][]domain.PromptStatus{
	domain.PromptQueued:       {domain.PromptNeedsReview},
	domain.PromptNeedsReview:  {domain.PromptReady, domain.PromptQueued, domain.PromptRejected},
	domain.PromptReady:        {domain.PromptResearched},
	domain.PromptResearched:   {domain.PromptSynthesizing},
	domain.PromptSynthesizing: {domain.PromptCompleted},
}

// CanTransition reports whether from → to is a legal lifecycle edge.
func CanTransition(from, to domain.PromptStatus) bool {
	if to == domain.PromptFailed {
		return !domain.TerminalPromptStatus(from)
	}
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// CreateInput is the caller-supplied part of a new prompt.
type CreateInput struct {
	Title    string              `json:"title"`
	Prompt   string              `json:"prompt"`
	Domain   string              `json:"domain"`
	Priority float64             `json:"priority"`
	Source   domain.PromptSource `json:"source"`
}

// TransitionInput carries one requested status change.
type TransitionInput struct {
	Status         domain.PromptStatus `json:"status"`
	ResearchOutput string              `json:"research_output,omitempty"`
	WordCount      int                 `json:"word_count,omitempty"`
	ErrorMessage   string              `json:"error_message,omitempty"`
}

// Service manages the research-prompt queue. Every operation takes the
// prompt identifier explicitly; the service holds no notion of a current or
// last-served prompt.
type Service struct {
	log   *logger.Logger
	store PromptStore
}

func NewService(log *logger.Logger, store PromptStore) *Service {
	return &Service{
		log:   log.With("service", "PromptQueue"),
		store: store,
	}
}

// Create enqueues a new prompt with status queued.
func (s *Service) Create(ctx context.Context, in CreateInput) (*domain.ResearchPrompt, error) {
	if in.Title == "" || in.Prompt == "" || in.Domain == "" {
		return nil, fmt.Errorf("%w: title, prompt and domain are required", pkgerrors.ErrInvalidArgument)
	}
	if in.Priority < 0 {
		return nil, fmt.Errorf("%w: priority must be non-negative", pkgerrors.ErrInvalidArgument)
	}
	if in.Source == "" {
		in.Source = domain.SourceManual
	}

	p := &domain.ResearchPrompt{
		ID:       uuid.New(),
		Title:    in.Title,
		Prompt:   in.Prompt,
		Domain:   in.Domain,
		Priority: in.Priority,
		Source:   in.Source,
		Status:   domain.PromptQueued,
	}
	if err := s.store.CreatePrompt(ctx, p); err != nil {
		return nil, fmt.Errorf("promptqueue: create: %w", err)
	}
	s.log.Info("prompt created", "prompt_id", p.ID, "domain", p.Domain, "priority", p.Priority)
	return p, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*domain.ResearchPrompt, error) {
	return s.store.GetPrompt(ctx, id)
}

func (s *Service) List(ctx context.Context, filter graph.PromptFilter) ([]*domain.ResearchPrompt, error) {
	return s.store.ListPrompts(ctx, filter)
}

// Transition applies one status change after checking lifecycle legality.
// Entering researched or completed stamps the matching date; entering failed
// requires an error message.
func (s *Service) Transition(ctx context.Context, id uuid.UUID, in TransitionInput) (*domain.ResearchPrompt, error) {
	if !domain.ValidPromptStatus(in.Status) {
		return nil, fmt.Errorf("%w: unknown status %q", pkgerrors.ErrInvalidArgument, in.Status)
	}

	p, err := s.store.GetPrompt(ctx, id)
	if err != nil {
		return nil, err
	}
	if !CanTransition(p.Status, in.Status) {
		return nil, fmt.Errorf("%w: %s -> %s", pkgerrors.ErrInvalidTransition, p.Status, in.Status)
	}

	now := time.Now().UTC()
	switch in.Status {
	case domain.PromptResearched:
		p.ResearchOutput = in.ResearchOutput
		p.WordCount = in.WordCount
		p.ResearchedDate = &now
	case domain.PromptCompleted:
		p.CompletedDate = &now
	case domain.PromptFailed:
		if in.ErrorMessage == "" {
			return nil, fmt.Errorf("%w: transition to failed requires an error message", pkgerrors.ErrInvalidArgument)
		}
		p.ErrorMessage = in.ErrorMessage
	}
	p.Status = in.Status

	if err := s.store.UpdatePrompt(ctx, p); err != nil {
		return nil, fmt.Errorf("promptqueue: transition %s: %w", id, err)
	}
	s.log.Info("prompt transitioned", "prompt_id", id, "status", p.Status)
	return p, nil
}

// GetNext returns the highest-priority prompt in ready_for_research. Ties
// break on creation time, oldest first, so selection is deterministic.
func (s *Service) GetNext(ctx context.Context) (*domain.ResearchPrompt, error) {
	return s.store.NextReadyPrompt(ctx)
}

// Skip pushes a prompt down the queue without changing its status.
func (s *Service) Skip(ctx context.Context, id uuid.UUID) (*domain.ResearchPrompt, error) {
	p, err := s.store.GetPrompt(ctx, id)
	if err != nil {
		return nil, err
	}
	p.Priority -= skipPenalty
	if p.Priority < 0 {
		p.Priority = 0
	}
	if err := s.store.UpdatePrompt(ctx, p); err != nil {
		return nil, fmt.Errorf("promptqueue: skip %s: %w", id, err)
	}
	return p, nil
}

// approvePageSize bounds one listing round trip during bulk approval.
const approvePageSize = 200

// ApproveAll moves every prompt currently in needs_review back to queued,
// paging through the store until the review queue is drained. Prompts in any
// other state are untouched. Returns how many were approved.
func (s *Service) ApproveAll(ctx context.Context, domainFilter string) (int, error) {
	approved := 0
	for {
		pending, err := s.store.ListPrompts(ctx, graph.PromptFilter{
			Status: domain.PromptNeedsReview,
			Domain: domainFilter,
			Limit:  approvePageSize,
		})
		if err != nil {
			return approved, fmt.Errorf("promptqueue: approve all: %w", err)
		}
		if len(pending) == 0 {
			break
		}
		for _, p := range pending {
			p.Status = domain.PromptQueued
			if err := s.store.UpdatePrompt(ctx, p); err != nil {
				return approved, fmt.Errorf("promptqueue: approve %s: %w", p.ID, err)
			}
			approved++
		}
		// A short page means the queue is drained; approving the page above
		// already removed it from the needs_review listing.
		if len(pending) < approvePageSize {
			break
		}
	}
	s.log.Info("bulk approval finished", "approved", approved, "domain", domainFilter)
	return approved, nil
}
