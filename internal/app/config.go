package app

import (
	"strings"

	"github.com/yungbote/claimgraph-backend/internal/platform/envutil"
)

type Config struct {
	HTTPAddr     string
	GinMode      string
	AllowOrigins []string

	MetricsAddr string

	EmbeddingDim int

	DuplicateThreshold     float64
	NeighborCount          int
	RetrievalK             int
	LowConfidenceThreshold float64
	ContextCharBudget      int

	PromptTemplatesPath string
}

func LoadConfig() Config {
	origins := strings.Split(envutil.Str("CORS_ALLOW_ORIGINS", "http://localhost:3000"), ",")
	for i := range origins {
		origins[i] = strings.TrimSpace(origins[i])
	}
	return Config{
		HTTPAddr:     envutil.Str("HTTP_ADDR", ":8080"),
		GinMode:      envutil.Str("GIN_MODE", ""),
		AllowOrigins: origins,

		MetricsAddr: envutil.Str("METRICS_ADDR", ""),

		EmbeddingDim: envutil.Int("EMBEDDING_DIM", 1536),

		DuplicateThreshold:     envutil.Float("DUPLICATE_SIMILARITY_THRESHOLD", 0.88),
		NeighborCount:          envutil.Int("DUPLICATE_NEIGHBOR_COUNT", 10),
		RetrievalK:             envutil.Int("RETRIEVAL_DEFAULT_K", 5),
		LowConfidenceThreshold: envutil.Float("RETRIEVAL_LOW_CONFIDENCE_THRESHOLD", 0.5),
		ContextCharBudget:      envutil.Int("RETRIEVAL_CONTEXT_CHAR_BUDGET", 32000),

		PromptTemplatesPath: envutil.Str("PROMPT_TEMPLATES_PATH", ""),
	}
}
