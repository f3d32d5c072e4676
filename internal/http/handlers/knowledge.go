package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/claimgraph-backend/internal/http/response"
	"github.com/yungbote/claimgraph-backend/internal/modules/retrieval"
	"github.com/yungbote/claimgraph-backend/internal/platform/logger"
)

type KnowledgeHandler struct {
	log    *logger.Logger
	engine *retrieval.Engine
}

func NewKnowledgeHandler(log *logger.Logger, engine *retrieval.Engine) *KnowledgeHandler {
	return &KnowledgeHandler{
		log:    log.With("handler", "KnowledgeHandler"),
		engine: engine,
	}
}

type queryRequest struct {
	Query  string `json:"query" binding:"required"`
	K      int    `json:"k"`
	Domain string `json:"domain"`
}

// POST /api/knowledge/query
func (h *KnowledgeHandler) Query(c *gin.Context) {
	var req queryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}

	res, err := h.engine.Query(c.Request.Context(), req.Query, req.K, req.Domain)
	if err != nil {
		h.log.Error("Query failed", "error", err, "domain", req.Domain)
		response.RespondError(c, http.StatusInternalServerError, "query_failed", err)
		return
	}
	response.RespondOK(c, res)
}
