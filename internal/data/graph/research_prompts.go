package graph

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/yungbote/claimgraph-backend/internal/domain"
	pkgerrors "github.com/yungbote/claimgraph-backend/internal/pkg/errors"
)

// PromptFilter narrows ListPrompts. Zero values mean "any".
type PromptFilter struct {
	Status domain.PromptStatus
	Domain string
	Limit  int
}

func (s *Store) CreatePrompt(ctx context.Context, p *domain.ResearchPrompt) error {
	if p == nil || p.ID == uuid.Nil {
		return fmt.Errorf("graph: create prompt: missing id")
	}

	session := s.client.WriteSession(ctx)
	defer session.Close(ctx)

	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, `
CREATE (p:ResearchPrompt {
    id: $id,
    title: $title,
    prompt: $prompt,
    domain: $domain,
    priority: $priority,
    source: $source,
    status: $status,
    research_output: '',
    word_count: 0,
    error_message: '',
    created_at: $now,
    updated_at: $now
})
`, map[string]any{
			"id":       p.ID.String(),
			"title":    p.Title,
			"prompt":   p.Prompt,
			"domain":   p.Domain,
			"priority": p.Priority,
			"source":   string(p.Source),
			"status":   string(p.Status),
			"now":      nowRFC3339(),
		})
		if err != nil {
			return nil, err
		}
		_, err = res.Consume(ctx)
		return nil, err
	})
	if err != nil {
		return fmt.Errorf("graph: create prompt %s: %w", p.ID, err)
	}
	return nil
}

const promptReturnClause = `
RETURN p.id AS id,
       p.title AS title,
       p.prompt AS prompt,
       p.domain AS domain,
       p.priority AS priority,
       p.source AS source,
       p.status AS status,
       p.research_output AS research_output,
       p.word_count AS word_count,
       p.error_message AS error_message,
       p.created_at AS created_at,
       p.updated_at AS updated_at,
       p.researched_date AS researched_date,
       p.completed_date AS completed_date
`

func (s *Store) GetPrompt(ctx context.Context, id uuid.UUID) (*domain.ResearchPrompt, error) {
	session := s.client.ReadSession(ctx)
	defer session.Close(ctx)

	out, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, `MATCH (p:ResearchPrompt {id: $id})`+promptReturnClause, map[string]any{"id": id.String()})
		if err != nil {
			return nil, err
		}
		if !res.Next(ctx) {
			if err := res.Err(); err != nil {
				return nil, err
			}
			return nil, pkgerrors.ErrNotFound
		}
		return promptFromRecord(res.Record()), nil
	})
	if err != nil {
		return nil, err
	}
	return out.(*domain.ResearchPrompt), nil
}

// UpdatePrompt persists the mutable fields of a prompt record. Lifecycle
// legality is the caller's concern; the store writes what it is handed.
func (s *Store) UpdatePrompt(ctx context.Context, p *domain.ResearchPrompt) error {
	if p == nil || p.ID == uuid.Nil {
		return fmt.Errorf("graph: update prompt: missing id")
	}

	args := map[string]any{
		"id":              p.ID.String(),
		"priority":        p.Priority,
		"status":          string(p.Status),
		"research_output": p.ResearchOutput,
		"word_count":      p.WordCount,
		"error_message":   p.ErrorMessage,
		"now":             nowRFC3339(),
	}
	if p.ResearchedDate != nil {
		args["researched_date"] = p.ResearchedDate.UTC().Format(time.RFC3339Nano)
	} else {
		args["researched_date"] = nil
	}
	if p.CompletedDate != nil {
		args["completed_date"] = p.CompletedDate.UTC().Format(time.RFC3339Nano)
	} else {
		args["completed_date"] = nil
	}

	session := s.client.WriteSession(ctx)
	defer session.Close(ctx)

	out, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, `
MATCH (p:ResearchPrompt {id: $id})
SET p.priority = $priority,
    p.status = $status,
    p.research_output = $research_output,
    p.word_count = $word_count,
    p.error_message = $error_message,
    p.researched_date = $researched_date,
    p.completed_date = $completed_date,
    p.updated_at = $now
RETURN count(p) AS updated
`, args)
		if err != nil {
			return nil, err
		}
		rec, err := res.Single(ctx)
		if err != nil {
			return nil, err
		}
		return recordInt(rec, "updated"), nil
	})
	if err != nil {
		return fmt.Errorf("graph: update prompt %s: %w", p.ID, err)
	}
	if out.(int) == 0 {
		return pkgerrors.ErrNotFound
	}
	return nil
}

func (s *Store) ListPrompts(ctx context.Context, filter PromptFilter) ([]*domain.ResearchPrompt, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}

	session := s.client.ReadSession(ctx)
	defer session.Close(ctx)

	out, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, `
MATCH (p:ResearchPrompt)
WHERE ($status = '' OR p.status = $status)
  AND ($domain = '' OR p.domain = $domain)
WITH p
ORDER BY p.priority DESC, p.created_at ASC
LIMIT $limit
`+promptReturnClause, map[string]any{
			"status": string(filter.Status),
			"domain": filter.Domain,
			"limit":  limit,
		})
		if err != nil {
			return nil, err
		}
		var prompts []*domain.ResearchPrompt
		for res.Next(ctx) {
			prompts = append(prompts, promptFromRecord(res.Record()))
		}
		return prompts, res.Err()
	})
	if err != nil {
		return nil, fmt.Errorf("graph: list prompts: %w", err)
	}
	return out.([]*domain.ResearchPrompt), nil
}

// NextReadyPrompt returns the highest-priority prompt in
// ready_for_research, ties broken by creation order so selection is
// deterministic. Returns ErrNotFound when the queue is empty.
func (s *Store) NextReadyPrompt(ctx context.Context) (*domain.ResearchPrompt, error) {
	prompts, err := s.ListPrompts(ctx, PromptFilter{Status: domain.PromptReady, Limit: 1})
	if err != nil {
		return nil, err
	}
	if len(prompts) == 0 {
		return nil, pkgerrors.ErrNotFound
	}
	return prompts[0], nil
}

func promptFromRecord(rec *neo4j.Record) *domain.ResearchPrompt {
	id, _ := uuid.Parse(recordString(rec, "id"))
	return &domain.ResearchPrompt{
		ID:             id,
		Title:          recordString(rec, "title"),
		Prompt:         recordString(rec, "prompt"),
		Domain:         recordString(rec, "domain"),
		Priority:       recordFloat(rec, "priority"),
		Source:         domain.PromptSource(recordString(rec, "source")),
		Status:         domain.PromptStatus(recordString(rec, "status")),
		ResearchOutput: recordString(rec, "research_output"),
		WordCount:      recordInt(rec, "word_count"),
		ErrorMessage:   recordString(rec, "error_message"),
		CreatedAt:      recordTime(rec, "created_at"),
		UpdatedAt:      recordTime(rec, "updated_at"),
		ResearchedDate: recordTimePtr(rec, "researched_date"),
		CompletedDate:  recordTimePtr(rec, "completed_date"),
	}
}
