package app

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/claimgraph-backend/internal/data/graph"
	"github.com/yungbote/claimgraph-backend/internal/http/handlers"
	"github.com/yungbote/claimgraph-backend/internal/modules/promptqueue"
	"github.com/yungbote/claimgraph-backend/internal/modules/retrieval"
	"github.com/yungbote/claimgraph-backend/internal/modules/synthesis"
	"github.com/yungbote/claimgraph-backend/internal/modules/synthesis/prompts"
	"github.com/yungbote/claimgraph-backend/internal/observability"
	"github.com/yungbote/claimgraph-backend/internal/platform/logger"
	"github.com/yungbote/claimgraph-backend/internal/platform/neo4jdb"
	"github.com/yungbote/claimgraph-backend/internal/platform/openai"
	"github.com/yungbote/claimgraph-backend/internal/platform/redisdb"
	"github.com/yungbote/claimgraph-backend/internal/server"
	"github.com/yungbote/claimgraph-backend/internal/services"
)

type App struct {
	Log    *logger.Logger
	Cfg    Config
	Router *gin.Engine

	neo4j        *neo4jdb.Client
	redis        *redisdb.Client
	otelShutdown func(context.Context) error
}

func New() (*App, error) {
	logMode := os.Getenv("LOG_MODE")
	if logMode == "" {
		logMode = "development"
	}
	log, err := logger.New(logMode)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	cfg := LoadConfig()
	metrics := observability.Init(log)
	otelShutdown := observability.InitOTel(context.Background(), log, observability.OtelConfig{
		ServiceName: "claimgraph-backend",
	})

	neo, err := neo4jdb.NewFromEnv(log)
	if err != nil {
		log.Sync()
		return nil, fmt.Errorf("init neo4j: %w", err)
	}
	store, err := graph.NewStore(neo, log)
	if err != nil {
		log.Sync()
		return nil, fmt.Errorf("init graph store: %w", err)
	}
	store.EnsureSchema(context.Background(), cfg.EmbeddingDim)

	ai, err := openai.NewClient(log)
	if err != nil {
		log.Sync()
		return nil, fmt.Errorf("init openai: %w", err)
	}

	// Redis is optional; the embedder runs uncached without it.
	redis, err := redisdb.NewFromEnv(log)
	if err != nil {
		log.Warn("redis init failed, embedding cache disabled", "error", err)
		redis = nil
	}

	embedder := services.NewEmbedder(log, ai, redis)

	templates := prompts.NewLibrary()
	if cfg.PromptTemplatesPath != "" {
		if err := templates.LoadFile(cfg.PromptTemplatesPath); err != nil {
			log.Warn("prompt template load failed, using defaults", "path", cfg.PromptTemplatesPath, "error", err)
		}
	}

	extractor := synthesis.NewExtractor(log, ai, templates)
	nodeIngestor := synthesis.NewNodeIngestor(log, store, embedder, synthesis.NodeIngestConfig{
		DuplicateThreshold: cfg.DuplicateThreshold,
		NeighborCount:      cfg.NeighborCount,
	})
	relIngestor := synthesis.NewRelationshipIngestor(log, store)
	orchestrator := synthesis.NewOrchestrator(log, extractor, nodeIngestor, relIngestor, store)

	engine := retrieval.NewEngine(log, store, embedder, retrieval.Config{
		DefaultK:               cfg.RetrievalK,
		LowConfidenceThreshold: cfg.LowConfidenceThreshold,
		ContextCharBudget:      cfg.ContextCharBudget,
	})

	queue := promptqueue.NewService(log, store)

	router := server.NewRouter(server.RouterConfig{
		Mode:             cfg.GinMode,
		AllowOrigins:     cfg.AllowOrigins,
		SynthesisHandler: handlers.NewSynthesisHandler(log, extractor, nodeIngestor, relIngestor, orchestrator, store),
		KnowledgeHandler: handlers.NewKnowledgeHandler(log, engine),
		PromptHandler:    handlers.NewPromptHandler(log, queue),
	})

	if cfg.MetricsAddr != "" {
		metrics.StartServer(context.Background(), log, cfg.MetricsAddr)
	}

	return &App{
		Log:          log,
		Cfg:          cfg,
		Router:       router,
		neo4j:        neo,
		redis:        redis,
		otelShutdown: otelShutdown,
	}, nil
}

// Run serves HTTP until ctx is cancelled, then shuts down gracefully.
func (a *App) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:    a.Cfg.HTTPAddr,
		Handler: a.Router,
	}

	errCh := make(chan error, 1)
	go func() {
		a.Log.Info("http server listening", "addr", a.Cfg.HTTPAddr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		a.Log.Error("http shutdown failed", "error", err)
	}
	a.Close(shutdownCtx)
	return nil
}

func (a *App) Close(ctx context.Context) {
	if a.neo4j != nil {
		a.neo4j.Close(ctx)
	}
	if a.redis != nil {
		a.redis.Close()
	}
	if a.otelShutdown != nil {
		if err := a.otelShutdown(ctx); err != nil {
			a.Log.Warn("otel shutdown failed", "error", err)
		}
	}
	a.Log.Sync()
}
