package graph

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/yungbote/claimgraph-backend/internal/domain"
	pkgerrors "github.com/yungbote/claimgraph-backend/internal/pkg/errors"
)

// CreateRun records the start of a synthesis pass with status partial and
// zero counts. A run that is never finalized stays partial, which is an
// inspectable state rather than lost work.
func (s *Store) CreateRun(ctx context.Context, run *domain.SynthesisRun) error {
	if run == nil || run.ID == uuid.Nil {
		return fmt.Errorf("graph: create run: missing id")
	}

	session := s.client.WriteSession(ctx)
	defer session.Close(ctx)

	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, `
CREATE (r:SynthesisRun {
    id: $id,
    input_hash: $input_hash,
    domain: $domain,
    status: $status,
    nodes_created: 0,
    nodes_merged: 0,
    relationships_created: 0,
    duplicates_found: 0,
    errors: [],
    created_at: $now
})
`, map[string]any{
			"id":         run.ID.String(),
			"input_hash": run.InputHash,
			"domain":     run.Domain,
			"status":     string(domain.RunPartial),
			"now":        nowRFC3339(),
		})
		if err != nil {
			return nil, err
		}
		_, err = res.Consume(ctx)
		return nil, err
	})
	if err != nil {
		return fmt.Errorf("graph: create run %s: %w", run.ID, err)
	}
	return nil
}

// FinalizeRun writes the outcome of a synthesis pass. Called at most once
// per run; counts and errors replace the zero placeholders from CreateRun.
func (s *Store) FinalizeRun(ctx context.Context, run *domain.SynthesisRun) error {
	if run == nil || run.ID == uuid.Nil {
		return fmt.Errorf("graph: finalize run: missing id")
	}
	if run.Errors == nil {
		run.Errors = []string{}
	}

	session := s.client.WriteSession(ctx)
	defer session.Close(ctx)

	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, `
MATCH (r:SynthesisRun {id: $id})
SET r.status = $status,
    r.nodes_created = $nodes_created,
    r.nodes_merged = $nodes_merged,
    r.relationships_created = $relationships_created,
    r.duplicates_found = $duplicates_found,
    r.errors = $errors,
    r.completed_at = $now
`, map[string]any{
			"id":                    run.ID.String(),
			"status":                string(run.Status),
			"nodes_created":         run.NodesCreated,
			"nodes_merged":          run.NodesMerged,
			"relationships_created": run.RelationshipsCreated,
			"duplicates_found":      run.DuplicatesFound,
			"errors":                run.Errors,
			"now":                   nowRFC3339(),
		})
		if err != nil {
			return nil, err
		}
		_, err = res.Consume(ctx)
		return nil, err
	})
	if err != nil {
		return fmt.Errorf("graph: finalize run %s: %w", run.ID, err)
	}
	return nil
}

// GetRun loads a synthesis run for inspection.
func (s *Store) GetRun(ctx context.Context, id uuid.UUID) (*domain.SynthesisRun, error) {
	session := s.client.ReadSession(ctx)
	defer session.Close(ctx)

	out, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, `
MATCH (r:SynthesisRun {id: $id})
RETURN r.id AS id,
       r.input_hash AS input_hash,
       r.domain AS domain,
       r.status AS status,
       r.nodes_created AS nodes_created,
       r.nodes_merged AS nodes_merged,
       r.relationships_created AS relationships_created,
       r.duplicates_found AS duplicates_found,
       r.errors AS errors,
       r.created_at AS created_at,
       r.completed_at AS completed_at
`, map[string]any{"id": id.String()})
		if err != nil {
			return nil, err
		}
		if !res.Next(ctx) {
			if err := res.Err(); err != nil {
				return nil, err
			}
			return nil, pkgerrors.ErrNotFound
		}
		rec := res.Record()
		run := &domain.SynthesisRun{
			ID:                   id,
			InputHash:            recordString(rec, "input_hash"),
			Domain:               recordString(rec, "domain"),
			Status:               domain.RunStatus(recordString(rec, "status")),
			NodesCreated:         recordInt(rec, "nodes_created"),
			NodesMerged:          recordInt(rec, "nodes_merged"),
			RelationshipsCreated: recordInt(rec, "relationships_created"),
			DuplicatesFound:      recordInt(rec, "duplicates_found"),
			Errors:               recordStrings(rec, "errors"),
			CreatedAt:            recordTime(rec, "created_at"),
			CompletedAt:          recordTimePtr(rec, "completed_at"),
		}
		return run, nil
	})
	if err != nil {
		return nil, err
	}
	return out.(*domain.SynthesisRun), nil
}
