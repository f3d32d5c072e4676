package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"

	"github.com/yungbote/claimgraph-backend/internal/observability"
	"github.com/yungbote/claimgraph-backend/internal/platform/envutil"
	"github.com/yungbote/claimgraph-backend/internal/platform/logger"
	"github.com/yungbote/claimgraph-backend/internal/platform/openai"
	"github.com/yungbote/claimgraph-backend/internal/platform/redisdb"
)

// Embedder turns text into fixed-dimension vectors. The implementation adds
// rate limiting and content-hash caching in front of the model service;
// transient-failure retry lives in the underlying client.
type Embedder interface {
	EmbedOne(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}

type embedder struct {
	log     *logger.Logger
	ai      openai.Client
	cache   *redisdb.Client
	limiter *rate.Limiter
	ttl     time.Duration
}

// NewEmbedder builds the production embedder. cache may be nil (cache off).
func NewEmbedder(log *logger.Logger, ai openai.Client, cache *redisdb.Client) Embedder {
	rps := envutil.Float("EMBED_RATE_LIMIT_RPS", 5)
	burst := envutil.Int("EMBED_RATE_LIMIT_BURST", 5)
	return &embedder{
		log:     log.With("service", "Embedder"),
		ai:      ai,
		cache:   cache,
		limiter: rate.NewLimiter(rate.Limit(rps), burst),
		ttl:     envutil.Seconds("EMBED_CACHE_TTL_SECONDS", 7*24*time.Hour),
	}
}

func embedCacheKey(text string) string {
	sum := sha256.Sum256([]byte(text))
	return "emb:" + hex.EncodeToString(sum[:])
}

func (e *embedder) cachedVector(ctx context.Context, text string) []float32 {
	if e.cache == nil || e.cache.RDB == nil {
		return nil
	}
	raw, err := e.cache.RDB.Get(ctx, embedCacheKey(text)).Bytes()
	if err != nil {
		if err != goredis.Nil {
			e.log.Warn("embedding cache read failed", "error", err)
		}
		observability.Current().IncEmbedCache(false)
		return nil
	}
	var vec []float32
	if err := json.Unmarshal(raw, &vec); err != nil || len(vec) == 0 {
		return nil
	}
	observability.Current().IncEmbedCache(true)
	return vec
}

func (e *embedder) storeVector(ctx context.Context, text string, vec []float32) {
	if e.cache == nil || e.cache.RDB == nil || len(vec) == 0 {
		return
	}
	raw, err := json.Marshal(vec)
	if err != nil {
		return
	}
	if err := e.cache.RDB.Set(ctx, embedCacheKey(text), raw, e.ttl).Err(); err != nil {
		e.log.Warn("embedding cache write failed", "error", err)
	}
}

func (e *embedder) EmbedOne(ctx context.Context, text string) ([]float32, error) {
	vecs, err := e.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

func (e *embedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))

	var misses []string
	var missIdx []int
	for i, t := range texts {
		if vec := e.cachedVector(ctx, t); vec != nil {
			out[i] = vec
			continue
		}
		misses = append(misses, t)
		missIdx = append(missIdx, i)
	}
	if len(misses) == 0 {
		return out, nil
	}

	if err := e.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("embedder: rate limit wait: %w", err)
	}

	vecs, err := e.ai.Embed(ctx, misses)
	if err != nil {
		return nil, fmt.Errorf("embedder: embed %d texts: %w", len(misses), err)
	}
	if len(vecs) != len(misses) {
		return nil, fmt.Errorf("embedder: got %d vectors for %d texts", len(vecs), len(misses))
	}

	for j, vec := range vecs {
		out[missIdx[j]] = vec
		e.storeVector(ctx, misses[j], vec)
	}
	return out, nil
}
