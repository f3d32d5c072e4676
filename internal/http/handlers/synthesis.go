package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yungbote/claimgraph-backend/internal/domain"
	"github.com/yungbote/claimgraph-backend/internal/http/response"
	"github.com/yungbote/claimgraph-backend/internal/modules/synthesis"
	pkgerrors "github.com/yungbote/claimgraph-backend/internal/pkg/errors"
	"github.com/yungbote/claimgraph-backend/internal/platform/logger"
)

// RunReader loads synthesis run records for inspection.
type RunReader interface {
	GetRun(ctx context.Context, id uuid.UUID) (*domain.SynthesisRun, error)
}

type SynthesisHandler struct {
	log       *logger.Logger
	extractor *synthesis.Extractor
	nodes     *synthesis.NodeIngestor
	rels      *synthesis.RelationshipIngestor
	orch      *synthesis.Orchestrator
	runs      RunReader
}

func NewSynthesisHandler(
	log *logger.Logger,
	extractor *synthesis.Extractor,
	nodes *synthesis.NodeIngestor,
	rels *synthesis.RelationshipIngestor,
	orch *synthesis.Orchestrator,
	runs RunReader,
) *SynthesisHandler {
	return &SynthesisHandler{
		log:       log.With("handler", "SynthesisHandler"),
		extractor: extractor,
		nodes:     nodes,
		rels:      rels,
		orch:      orch,
		runs:      runs,
	}
}

type extractRequest struct {
	Text           string `json:"text" binding:"required"`
	Domain         string `json:"domain" binding:"required"`
	Source         string `json:"source"`
	PromptTemplate string `json:"prompt_template"`
}

// POST /api/synthesis/extract
func (h *SynthesisHandler) Extract(c *gin.Context) {
	var req extractRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}

	res, err := h.extractor.Extract(c.Request.Context(), synthesis.ExtractionInput{
		Text:           req.Text,
		Domain:         req.Domain,
		Source:         req.Source,
		PromptTemplate: req.PromptTemplate,
	})
	if err != nil {
		h.log.Error("Extract failed", "error", err, "domain", req.Domain)
		response.RespondError(c, http.StatusInternalServerError, "extraction_failed", err)
		return
	}
	response.RespondOK(c, gin.H{
		"claims":   res.Claims,
		"warnings": res.Warnings,
	})
}

type ingestRequest struct {
	Claims []domain.ExtractedClaim `json:"claims" binding:"required"`
	Domain string                  `json:"domain" binding:"required"`
	Source string                  `json:"source"`
}

// POST /api/synthesis/ingest
func (h *SynthesisHandler) Ingest(c *gin.Context) {
	var req ingestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}

	ctx := c.Request.Context()
	nodeRes, err := h.nodes.Ingest(ctx, req.Claims, req.Domain)
	if err != nil {
		h.log.Error("Ingest failed (nodes)", "error", err, "domain", req.Domain)
		response.RespondError(c, http.StatusInternalServerError, "node_ingestion_failed", err)
		return
	}
	relRes, err := h.rels.Ingest(ctx, req.Claims, nodeRes.NodeIDs, req.Domain, req.Source)
	if err != nil {
		h.log.Error("Ingest failed (relationships)", "error", err, "domain", req.Domain)
		response.RespondError(c, http.StatusInternalServerError, "relationship_ingestion_failed", err)
		return
	}

	warnings := append(append([]string{}, nodeRes.Warnings...), relRes.Warnings...)
	response.RespondOK(c, gin.H{
		"created":               nodeRes.Created,
		"merged":                nodeRes.Merged,
		"duplicates_found":      nodeRes.DuplicatesFound,
		"node_ids":              nodeRes.NodeIDs,
		"relationships_created": relRes.Created,
		"relationships_skipped": relRes.Skipped,
		"warnings":              warnings,
	})
}

// POST /api/synthesis/synthesize
func (h *SynthesisHandler) Synthesize(c *gin.Context) {
	var req synthesis.SynthesisInput
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	if req.Text == "" || req.Domain == "" {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", pkgerrors.ErrInvalidArgument)
		return
	}

	res, err := h.orch.Synthesize(c.Request.Context(), req)
	if err != nil {
		h.log.Error("Synthesize failed", "error", err, "domain", req.Domain)
		payload := gin.H{
			"error": response.APIError{Message: err.Error(), Code: "synthesis_failed"},
		}
		// The run record survives the failure; point the caller at it.
		if res != nil {
			payload["run_id"] = res.RunID
			payload["status"] = res.Status
		}
		c.JSON(http.StatusInternalServerError, payload)
		return
	}
	response.RespondOK(c, res)
}

type batchRequest struct {
	Items []synthesis.SynthesisInput `json:"items" binding:"required"`
}

// POST /api/synthesis/synthesize/batch
func (h *SynthesisHandler) SynthesizeBatch(c *gin.Context) {
	var req batchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	if len(req.Items) == 0 {
		response.RespondError(c, http.StatusBadRequest, "empty_batch", pkgerrors.ErrInvalidArgument)
		return
	}

	res, err := h.orch.SynthesizeBatch(c.Request.Context(), req.Items)
	if err != nil {
		h.log.Error("SynthesizeBatch aborted", "error", err)
		response.RespondError(c, http.StatusInternalServerError, "batch_aborted", err)
		return
	}
	response.RespondOK(c, res)
}

// GET /api/synthesis/runs/:id
func (h *SynthesisHandler) GetRun(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil || id == uuid.Nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_run_id", err)
		return
	}

	run, err := h.runs.GetRun(c.Request.Context(), id)
	if err != nil {
		if pkgerrors.Is(err, pkgerrors.ErrNotFound) {
			response.RespondError(c, http.StatusNotFound, "run_not_found", nil)
			return
		}
		h.log.Error("GetRun failed", "error", err, "run_id", id)
		response.RespondError(c, http.StatusInternalServerError, "load_run_failed", err)
		return
	}
	response.RespondOK(c, run)
}
