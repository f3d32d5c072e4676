package server

import (
	"strconv"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/yungbote/claimgraph-backend/internal/http/handlers"
	"github.com/yungbote/claimgraph-backend/internal/observability"
)

type RouterConfig struct {
	Mode             string
	AllowOrigins     []string
	SynthesisHandler *handlers.SynthesisHandler
	KnowledgeHandler *handlers.KnowledgeHandler
	PromptHandler    *handlers.PromptHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	if cfg.Mode != "" {
		gin.SetMode(cfg.Mode)
	}
	router := gin.Default()

	origins := cfg.AllowOrigins
	if len(origins) == 0 {
		origins = []string{"http://localhost:3000"}
	}
	router.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type", "X-Requested-With"},
		AllowCredentials: true,
	}))

	router.Use(apiMetrics())

	router.GET("/healthcheck", handlers.HealthCheck)

	api := router.Group("/api")
	{
		syn := api.Group("/synthesis")
		syn.POST("/extract", cfg.SynthesisHandler.Extract)
		syn.POST("/ingest", cfg.SynthesisHandler.Ingest)
		syn.POST("/synthesize", cfg.SynthesisHandler.Synthesize)
		syn.POST("/synthesize/batch", cfg.SynthesisHandler.SynthesizeBatch)
		syn.GET("/runs/:id", cfg.SynthesisHandler.GetRun)

		api.POST("/knowledge/query", cfg.KnowledgeHandler.Query)

		prompts := api.Group("/prompts")
		prompts.POST("", cfg.PromptHandler.Create)
		prompts.GET("", cfg.PromptHandler.List)
		prompts.GET("/next", cfg.PromptHandler.GetNext)
		prompts.POST("/approve-all", cfg.PromptHandler.ApproveAll)
		prompts.GET("/:id", cfg.PromptHandler.Get)
		prompts.POST("/:id/transition", cfg.PromptHandler.Transition)
		prompts.POST("/:id/skip", cfg.PromptHandler.Skip)
	}

	return router
}

func apiMetrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		observability.Current().ObserveAPI(c.Request.Method, route, strconv.Itoa(c.Writer.Status()), time.Since(start))
	}
}
