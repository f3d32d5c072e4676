package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yungbote/claimgraph-backend/internal/data/graph"
	"github.com/yungbote/claimgraph-backend/internal/domain"
	"github.com/yungbote/claimgraph-backend/internal/http/response"
	"github.com/yungbote/claimgraph-backend/internal/modules/promptqueue"
	pkgerrors "github.com/yungbote/claimgraph-backend/internal/pkg/errors"
	"github.com/yungbote/claimgraph-backend/internal/platform/logger"
)

type PromptHandler struct {
	log   *logger.Logger
	queue *promptqueue.Service
}

func NewPromptHandler(log *logger.Logger, queue *promptqueue.Service) *PromptHandler {
	return &PromptHandler{
		log:   log.With("handler", "PromptHandler"),
		queue: queue,
	}
}

// POST /api/prompts
func (h *PromptHandler) Create(c *gin.Context) {
	var req promptqueue.CreateInput
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}

	p, err := h.queue.Create(c.Request.Context(), req)
	if err != nil {
		if pkgerrors.Is(err, pkgerrors.ErrInvalidArgument) {
			response.RespondError(c, http.StatusBadRequest, "invalid_prompt", err)
			return
		}
		h.log.Error("Create prompt failed", "error", err)
		response.RespondError(c, http.StatusInternalServerError, "create_prompt_failed", err)
		return
	}
	response.RespondCreated(c, p)
}

// GET /api/prompts/:id
func (h *PromptHandler) Get(c *gin.Context) {
	id, ok := h.promptID(c)
	if !ok {
		return
	}
	p, err := h.queue.Get(c.Request.Context(), id)
	if err != nil {
		if pkgerrors.Is(err, pkgerrors.ErrNotFound) {
			response.RespondError(c, http.StatusNotFound, "prompt_not_found", nil)
			return
		}
		h.log.Error("Get prompt failed", "error", err, "prompt_id", id)
		response.RespondError(c, http.StatusInternalServerError, "load_prompt_failed", err)
		return
	}
	response.RespondOK(c, p)
}

// GET /api/prompts
func (h *PromptHandler) List(c *gin.Context) {
	filter := graph.PromptFilter{
		Status: domain.PromptStatus(c.Query("status")),
		Domain: c.Query("domain"),
	}
	if filter.Status != "" && !domain.ValidPromptStatus(filter.Status) {
		response.RespondError(c, http.StatusBadRequest, "invalid_status", nil)
		return
	}

	prompts, err := h.queue.List(c.Request.Context(), filter)
	if err != nil {
		h.log.Error("List prompts failed", "error", err)
		response.RespondError(c, http.StatusInternalServerError, "list_prompts_failed", err)
		return
	}
	response.RespondOK(c, gin.H{"prompts": prompts})
}

// POST /api/prompts/:id/transition
func (h *PromptHandler) Transition(c *gin.Context) {
	id, ok := h.promptID(c)
	if !ok {
		return
	}
	var req promptqueue.TransitionInput
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}

	p, err := h.queue.Transition(c.Request.Context(), id, req)
	if err != nil {
		switch {
		case pkgerrors.Is(err, pkgerrors.ErrNotFound):
			response.RespondError(c, http.StatusNotFound, "prompt_not_found", nil)
		case pkgerrors.Is(err, pkgerrors.ErrInvalidTransition):
			response.RespondError(c, http.StatusConflict, "invalid_transition", err)
		case pkgerrors.Is(err, pkgerrors.ErrInvalidArgument):
			response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		default:
			h.log.Error("Transition prompt failed", "error", err, "prompt_id", id)
			response.RespondError(c, http.StatusInternalServerError, "transition_failed", err)
		}
		return
	}
	response.RespondOK(c, p)
}

// GET /api/prompts/next
func (h *PromptHandler) GetNext(c *gin.Context) {
	p, err := h.queue.GetNext(c.Request.Context())
	if err != nil {
		if pkgerrors.Is(err, pkgerrors.ErrNotFound) {
			response.RespondError(c, http.StatusNotFound, "no_prompt_ready", nil)
			return
		}
		h.log.Error("GetNext failed", "error", err)
		response.RespondError(c, http.StatusInternalServerError, "get_next_failed", err)
		return
	}
	response.RespondOK(c, p)
}

// POST /api/prompts/:id/skip
func (h *PromptHandler) Skip(c *gin.Context) {
	id, ok := h.promptID(c)
	if !ok {
		return
	}
	p, err := h.queue.Skip(c.Request.Context(), id)
	if err != nil {
		if pkgerrors.Is(err, pkgerrors.ErrNotFound) {
			response.RespondError(c, http.StatusNotFound, "prompt_not_found", nil)
			return
		}
		h.log.Error("Skip prompt failed", "error", err, "prompt_id", id)
		response.RespondError(c, http.StatusInternalServerError, "skip_failed", err)
		return
	}
	response.RespondOK(c, p)
}

// POST /api/prompts/approve-all
func (h *PromptHandler) ApproveAll(c *gin.Context) {
	n, err := h.queue.ApproveAll(c.Request.Context(), c.Query("domain"))
	if err != nil {
		h.log.Error("ApproveAll failed", "error", err)
		response.RespondError(c, http.StatusInternalServerError, "approve_all_failed", err)
		return
	}
	response.RespondOK(c, gin.H{"approved": n})
}

func (h *PromptHandler) promptID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil || id == uuid.Nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_prompt_id", err)
		return uuid.Nil, false
	}
	return id, true
}
