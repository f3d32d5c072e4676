package synthesis

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/google/uuid"

	"github.com/yungbote/claimgraph-backend/internal/domain"
	"github.com/yungbote/claimgraph-backend/internal/observability"
	"github.com/yungbote/claimgraph-backend/internal/platform/logger"
)

// RunStore is the graph surface the orchestrator needs for audit records.
type RunStore interface {
	CreateRun(ctx context.Context, run *domain.SynthesisRun) error
	FinalizeRun(ctx context.Context, run *domain.SynthesisRun) error
}

// SynthesisInput is one document to push through the full pipeline.
type SynthesisInput struct {
	Text           string `json:"text"`
	Domain         string `json:"domain"`
	Source         string `json:"source"`
	PromptTemplate string `json:"prompt_template,omitempty"`
}

// SynthesisResult is the outcome of one run, mirroring its audit record.
type SynthesisResult struct {
	RunID                uuid.UUID               `json:"run_id"`
	Status               domain.RunStatus        `json:"status"`
	Claims               []domain.ExtractedClaim `json:"claims"`
	NodesCreated         int                     `json:"nodes_created"`
	NodesMerged          int                     `json:"nodes_merged"`
	RelationshipsCreated int                     `json:"relationships_created"`
	RelationshipsSkipped int                     `json:"relationships_skipped"`
	DuplicatesFound      int                     `json:"duplicates_found"`
	Warnings             []string                `json:"warnings,omitempty"`
}

// BatchResult aggregates a batch pass. RunIDs and Errors are positionally
// aligned with the inputs; a failed item has uuid.Nil or a message in the
// matching slot.
type BatchResult struct {
	Succeeded int         `json:"succeeded"`
	Failed    int         `json:"failed"`
	RunIDs    []uuid.UUID `json:"run_ids"`
	Errors    []string    `json:"errors"`
}

// Orchestrator drives extract, node ingestion and relationship ingestion as
// one tracked run.
type Orchestrator struct {
	log       *logger.Logger
	extractor *Extractor
	nodes     *NodeIngestor
	rels      *RelationshipIngestor
	runs      RunStore
}

func NewOrchestrator(log *logger.Logger, extractor *Extractor, nodes *NodeIngestor, rels *RelationshipIngestor, runs RunStore) *Orchestrator {
	return &Orchestrator{
		log:       log.With("service", "SynthesisOrchestrator"),
		extractor: extractor,
		nodes:     nodes,
		rels:      rels,
		runs:      runs,
	}
}

// Synthesize runs the full pipeline for one document.
//
// The run record is created up front with status partial. It moves to
// completed when the pass finishes, failed when an unrecoverable error left
// nothing ingested, and stays partial when an error interrupts the pass
// after graph writes may already have happened. A pass that extracts zero
// claims, or whose claims are all skipped with warnings, still completes.
func (o *Orchestrator) Synthesize(ctx context.Context, input SynthesisInput) (*SynthesisResult, error) {
	run := &domain.SynthesisRun{
		ID:        uuid.New(),
		InputHash: inputHash(input.Text, input.Domain),
		Domain:    input.Domain,
		Status:    domain.RunPartial,
	}
	if err := o.runs.CreateRun(ctx, run); err != nil {
		return nil, fmt.Errorf("synthesize: create run: %w", err)
	}
	result := &SynthesisResult{RunID: run.ID, Status: domain.RunPartial}

	extraction, err := o.extractor.Extract(ctx, ExtractionInput{
		Text:           input.Text,
		Domain:         input.Domain,
		Source:         input.Source,
		PromptTemplate: input.PromptTemplate,
	})
	if err != nil {
		// Nothing was written yet, so the run can be finalized as failed.
		run.Status = domain.RunFailed
		run.Errors = append(run.Errors, err.Error())
		o.finalize(ctx, run, result, 0)
		return result, fmt.Errorf("synthesize: extract: %w", err)
	}
	result.Claims = extraction.Claims
	result.Warnings = append(result.Warnings, extraction.Warnings...)

	if len(extraction.Claims) == 0 {
		run.Status = domain.RunCompleted
		o.finalize(ctx, run, result, 0)
		return result, nil
	}

	nodeRes, err := o.nodes.Ingest(ctx, extraction.Claims, input.Domain)
	if err != nil {
		// Graph writes may be in flight; the run stays partial.
		o.log.Error("node ingestion failed, run left partial", "run_id", run.ID, "error", err)
		return result, fmt.Errorf("synthesize: ingest nodes: %w", err)
	}
	result.Warnings = append(result.Warnings, nodeRes.Warnings...)
	run.NodesCreated = nodeRes.Created
	run.NodesMerged = nodeRes.Merged
	run.DuplicatesFound = nodeRes.DuplicatesFound

	relRes, err := o.rels.Ingest(ctx, extraction.Claims, nodeRes.NodeIDs, input.Domain, input.Source)
	if err != nil {
		o.log.Error("relationship ingestion failed, run left partial", "run_id", run.ID, "error", err)
		return result, fmt.Errorf("synthesize: ingest relationships: %w", err)
	}
	result.Warnings = append(result.Warnings, relRes.Warnings...)
	run.RelationshipsCreated = relRes.Created
	result.RelationshipsSkipped = relRes.Skipped

	run.Status = domain.RunCompleted
	o.finalize(ctx, run, result, relRes.Skipped)

	o.log.Info("synthesis run finished",
		"run_id", run.ID,
		"domain", input.Domain,
		"status", run.Status,
		"nodes_created", run.NodesCreated,
		"nodes_merged", run.NodesMerged,
		"relationships_created", run.RelationshipsCreated,
		"duplicates_found", run.DuplicatesFound,
	)
	return result, nil
}

// SynthesizeBatch processes inputs sequentially. One failing item never stops
// the batch; its slot records the error and the pass moves on.
func (o *Orchestrator) SynthesizeBatch(ctx context.Context, inputs []SynthesisInput) (*BatchResult, error) {
	batch := &BatchResult{
		RunIDs: make([]uuid.UUID, len(inputs)),
		Errors: make([]string, len(inputs)),
	}
	for i, input := range inputs {
		if err := ctx.Err(); err != nil {
			return batch, err
		}
		res, err := o.Synthesize(ctx, input)
		if res != nil {
			batch.RunIDs[i] = res.RunID
		}
		if err != nil {
			batch.Failed++
			batch.Errors[i] = err.Error()
			continue
		}
		batch.Succeeded++
	}
	return batch, nil
}

func (o *Orchestrator) finalize(ctx context.Context, run *domain.SynthesisRun, result *SynthesisResult, relsSkipped int) {
	if err := o.runs.FinalizeRun(ctx, run); err != nil {
		o.log.Error("finalize run failed", "run_id", run.ID, "error", err)
		result.Warnings = append(result.Warnings, fmt.Sprintf("run record not finalized: %v", err))
	}
	result.Status = run.Status
	result.NodesCreated = run.NodesCreated
	result.NodesMerged = run.NodesMerged
	result.RelationshipsCreated = run.RelationshipsCreated
	result.DuplicatesFound = run.DuplicatesFound
	observability.Current().ObserveSynthesisRun(string(run.Status), run.NodesCreated, run.NodesMerged, run.DuplicatesFound, run.RelationshipsCreated, relsSkipped)
}

// inputHash ties a run record to the document it processed without storing
// the document itself.
func inputHash(text, domainName string) string {
	sum := sha256.Sum256([]byte(text + "|" + domainName))
	return hex.EncodeToString(sum[:])
}
