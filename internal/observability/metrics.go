package observability

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/yungbote/claimgraph-backend/internal/platform/logger"
)

// Metrics is a process-wide, dependency-free metrics registry exposed in
// Prometheus text format. Nil receivers are safe everywhere so call sites
// never need to guard on metrics being disabled.
type Metrics struct {
	apiRequests *CounterVec
	apiLatency  *HistogramVec

	llmRequests *CounterVec
	llmLatency  *HistogramVec

	embedCacheHits   *Counter
	embedCacheMisses *Counter

	synthesisRuns    *CounterVec
	nodesCreated     *Counter
	nodesMerged      *Counter
	duplicateFlags   *Counter
	relationsCreated *Counter
	relationsSkipped *Counter

	retrievalQueries       *Counter
	retrievalLowConfidence *Counter
	retrievalLatency       *HistogramVec
}

var (
	initOnce sync.Once
	instance *Metrics
)

func Enabled() bool {
	v := strings.TrimSpace(os.Getenv("METRICS_ENABLED"))
	if v == "" {
		return false
	}
	return strings.EqualFold(v, "true") || v == "1" || strings.EqualFold(v, "yes")
}

// Current returns the live registry, or nil when metrics are disabled.
func Current() *Metrics {
	return instance
}

func Init(log *logger.Logger) *Metrics {
	if !Enabled() {
		return nil
	}
	initOnce.Do(func() {
		instance = &Metrics{
			apiRequests: NewCounterVec("cg_api_requests_total", "Total API requests by method/route/status.", []string{"method", "route", "status"}),
			apiLatency: NewHistogramVec(
				"cg_api_request_duration_seconds",
				"API request latency in seconds by method/route.",
				[]string{"method", "route"},
				[]float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
			),
			llmRequests: NewCounterVec("cg_llm_requests_total", "LLM requests by endpoint/status.", []string{"endpoint", "status"}),
			llmLatency: NewHistogramVec(
				"cg_llm_request_duration_seconds",
				"LLM request latency in seconds by endpoint.",
				[]string{"endpoint"},
				[]float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30, 60, 120},
			),
			embedCacheHits:   NewCounter("cg_embedding_cache_hits_total", "Embedding cache hits."),
			embedCacheMisses: NewCounter("cg_embedding_cache_misses_total", "Embedding cache misses."),
			synthesisRuns:    NewCounterVec("cg_synthesis_runs_total", "Synthesis runs by final status.", []string{"status"}),
			nodesCreated:     NewCounter("cg_knowledge_nodes_created_total", "Knowledge nodes created."),
			nodesMerged:      NewCounter("cg_knowledge_nodes_merged_total", "Knowledge nodes merged into existing identities."),
			duplicateFlags:   NewCounter("cg_duplicate_flags_total", "Potential-duplicate flags raised."),
			relationsCreated: NewCounter("cg_relationships_created_total", "Relationships created."),
			relationsSkipped: NewCounter("cg_relationships_skipped_total", "Relationships skipped with unresolved targets."),
			retrievalQueries: NewCounter("cg_retrieval_queries_total", "Knowledge retrieval queries."),
			retrievalLowConfidence: NewCounter(
				"cg_retrieval_low_confidence_total",
				"Retrieval queries where every hit scored under the confidence floor.",
			),
			retrievalLatency: NewHistogramVec(
				"cg_retrieval_duration_seconds",
				"Retrieval latency in seconds.",
				[]string{"stage"},
				[]float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
			),
		}
		if log != nil {
			log.Info("metrics registry initialized")
		}
	})
	return instance
}

func (m *Metrics) ObserveAPI(method, route, status string, dur time.Duration) {
	if m == nil {
		return
	}
	m.apiRequests.Inc(method, route, status)
	m.apiLatency.Observe(dur.Seconds(), method, route)
}

func (m *Metrics) ObserveLLMRequest(endpoint, status string, dur time.Duration) {
	if m == nil {
		return
	}
	m.llmRequests.Inc(endpoint, status)
	m.llmLatency.Observe(dur.Seconds(), endpoint)
}

func (m *Metrics) IncEmbedCache(hit bool) {
	if m == nil {
		return
	}
	if hit {
		m.embedCacheHits.Inc()
	} else {
		m.embedCacheMisses.Inc()
	}
}

func (m *Metrics) ObserveSynthesisRun(status string, created, merged, duplicates, relsCreated, relsSkipped int) {
	if m == nil {
		return
	}
	m.synthesisRuns.Inc(status)
	m.nodesCreated.Add(float64(created))
	m.nodesMerged.Add(float64(merged))
	m.duplicateFlags.Add(float64(duplicates))
	m.relationsCreated.Add(float64(relsCreated))
	m.relationsSkipped.Add(float64(relsSkipped))
}

func (m *Metrics) ObserveRetrieval(stage string, dur time.Duration, lowConfidence bool) {
	if m == nil {
		return
	}
	m.retrievalQueries.Inc()
	m.retrievalLatency.Observe(dur.Seconds(), stage)
	if lowConfidence {
		m.retrievalLowConfidence.Inc()
	}
}

func (m *Metrics) StartServer(ctx context.Context, log *logger.Logger, addr string) {
	if m == nil {
		return
	}
	addr = strings.TrimSpace(addr)
	if addr == "" {
		return
	}
	srv := &http.Server{
		Addr:              addr,
		Handler:           http.HandlerFunc(m.WriteHTTP),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		_ = srv.Shutdown(shutdownCtx)
		cancel()
	}()
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			if log != nil {
				log.Error("metrics server failed", "error", err, "addr", addr)
			}
		}
	}()
}

func (m *Metrics) WriteHTTP(w http.ResponseWriter, r *http.Request) {
	if m == nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "text/plain; version=0.0.4")
	_ = m.WritePrometheus(w)
}

func (m *Metrics) WritePrometheus(w io.Writer) error {
	if m == nil {
		return nil
	}
	writers := []interface{ WritePrometheus(io.Writer) error }{
		m.apiRequests, m.apiLatency,
		m.llmRequests, m.llmLatency,
		m.embedCacheHits, m.embedCacheMisses,
		m.synthesisRuns, m.nodesCreated, m.nodesMerged, m.duplicateFlags,
		m.relationsCreated, m.relationsSkipped,
		m.retrievalQueries, m.retrievalLowConfidence, m.retrievalLatency,
	}
	for _, wr := range writers {
		if err := wr.WritePrometheus(w); err != nil {
			return err
		}
	}
	return nil
}

// -------------------- primitives --------------------

type Counter struct {
	name string
	help string
	mu   sync.RWMutex
	val  float64
}

func NewCounter(name, help string) *Counter {
	return &Counter{name: name, help: help}
}

func (c *Counter) Inc() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.val++
	c.mu.Unlock()
}

func (c *Counter) Add(v float64) {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.val += v
	c.mu.Unlock()
}

func (c *Counter) Value() float64 {
	if c == nil {
		return 0
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.val
}

func (c *Counter) WritePrometheus(w io.Writer) error {
	if c == nil {
		return nil
	}
	if _, err := fmt.Fprintf(w, "# HELP %s %s\n", c.name, c.help); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "# TYPE %s counter\n", c.name); err != nil {
		return err
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, err := fmt.Fprintf(w, "%s %f\n", c.name, c.val)
	return err
}

type CounterVec struct {
	name       string
	help       string
	labelNames []string
	mu         sync.RWMutex
	values     map[string]float64
}

func NewCounterVec(name, help string, labels []string) *CounterVec {
	return &CounterVec{name: name, help: help, labelNames: labels, values: map[string]float64{}}
}

func (c *CounterVec) Inc(values ...string) {
	if c == nil {
		return
	}
	lbl := labelString(c.labelNames, values)
	c.mu.Lock()
	c.values[lbl]++
	c.mu.Unlock()
}

func (c *CounterVec) WritePrometheus(w io.Writer) error {
	if c == nil {
		return nil
	}
	if _, err := fmt.Fprintf(w, "# HELP %s %s\n", c.name, c.help); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "# TYPE %s counter\n", c.name); err != nil {
		return err
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	for k, v := range c.values {
		if _, err := fmt.Fprintf(w, "%s%s %f\n", c.name, k, v); err != nil {
			return err
		}
	}
	return nil
}

type HistogramVec struct {
	name       string
	help       string
	labelNames []string
	buckets    []float64
	mu         sync.RWMutex
	values     map[string]*histogram
}

type histogram struct {
	buckets []float64
	counts  []uint64
	sum     float64
	total   uint64
}

func NewHistogramVec(name, help string, labels []string, buckets []float64) *HistogramVec {
	if len(buckets) == 0 {
		buckets = []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2, 5}
	}
	return &HistogramVec{name: name, help: help, labelNames: labels, buckets: buckets, values: map[string]*histogram{}}
}

func (h *HistogramVec) Observe(v float64, values ...string) {
	if h == nil {
		return
	}
	lbl := labelString(h.labelNames, values)
	h.mu.Lock()
	defer h.mu.Unlock()
	hist, ok := h.values[lbl]
	if !ok {
		hist = &histogram{
			buckets: h.buckets,
			counts:  make([]uint64, len(h.buckets)+1),
		}
		h.values[lbl] = hist
	}
	hist.sum += v
	hist.total++
	for i, b := range hist.buckets {
		if v <= b {
			hist.counts[i]++
		}
	}
	hist.counts[len(hist.counts)-1]++
}

func (h *HistogramVec) WritePrometheus(w io.Writer) error {
	if h == nil {
		return nil
	}
	if _, err := fmt.Fprintf(w, "# HELP %s %s\n", h.name, h.help); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "# TYPE %s histogram\n", h.name); err != nil {
		return err
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	for k, v := range h.values {
		for i, b := range v.buckets {
			if _, err := fmt.Fprintf(w, "%s_bucket%s %d\n", h.name, withLe(k, fmt.Sprintf("%g", b)), v.counts[i]); err != nil {
				return err
			}
		}
		if _, err := fmt.Fprintf(w, "%s_bucket%s %d\n", h.name, withLe(k, "+Inf"), v.counts[len(v.counts)-1]); err != nil {
			return err
		}
		if _, err := fmt.Fprintf(w, "%s_sum%s %f\n", h.name, k, v.sum); err != nil {
			return err
		}
		if _, err := fmt.Fprintf(w, "%s_count%s %d\n", h.name, k, v.total); err != nil {
			return err
		}
	}
	return nil
}

func labelString(names []string, values []string) string {
	if len(names) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString("{")
	for i, name := range names {
		if i > 0 {
			b.WriteString(",")
		}
		val := "unknown"
		if i < len(values) {
			val = values[i]
		}
		b.WriteString(name)
		b.WriteString("=\"")
		b.WriteString(escapeLabel(val))
		b.WriteString("\"")
	}
	b.WriteString("}")
	return b.String()
}

func escapeLabel(v string) string {
	if v == "" {
		return ""
	}
	v = strings.ReplaceAll(v, "\\", "\\\\")
	v = strings.ReplaceAll(v, "\"", "\\\"")
	v = strings.ReplaceAll(v, "\n", "\\n")
	return v
}

func withLe(labels string, le string) string {
	le = escapeLabel(le)
	if labels == "" || labels == "{}" {
		return "{le=\"" + le + "\"}"
	}
	if strings.HasSuffix(labels, "}") {
		return strings.TrimSuffix(labels, "}") + ",le=\"" + le + "\"}"
	}
	return "{le=\"" + le + "\"}"
}
