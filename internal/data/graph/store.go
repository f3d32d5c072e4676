package graph

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/yungbote/claimgraph-backend/internal/platform/logger"
	"github.com/yungbote/claimgraph-backend/internal/platform/neo4jdb"
)

// Store is the Neo4j-backed persistence layer for the knowledge graph:
// nodes, relationships, synthesis runs, and research prompts all live in the
// same database, with node embeddings behind a native vector index.
type Store struct {
	client *neo4jdb.Client
	log    *logger.Logger
}

func NewStore(client *neo4jdb.Client, log *logger.Logger) (*Store, error) {
	if client == nil || client.Driver == nil {
		return nil, fmt.Errorf("graph: neo4j client required")
	}
	if log == nil {
		return nil, fmt.Errorf("graph: logger required")
	}
	return &Store{
		client: client,
		log:    log.With("store", "GraphStore"),
	}, nil
}

func nowRFC3339() string {
	return time.Now().UTC().Format(time.RFC3339Nano)
}

func toJSONString(v any) string {
	if v == nil {
		return ""
	}
	b, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return string(b)
}

func fromJSONString(raw string, out any) {
	if raw == "" {
		return
	}
	_ = json.Unmarshal([]byte(raw), out)
}

// float32To64 converts an embedding for the driver; Neo4j list properties
// are float64 on the wire.
func float32To64(v []float32) []float64 {
	out := make([]float64, len(v))
	for i, f := range v {
		out[i] = float64(f)
	}
	return out
}

func recordString(rec *neo4j.Record, key string) string {
	v, ok := rec.Get(key)
	if !ok || v == nil {
		return ""
	}
	s, _ := v.(string)
	return s
}

func recordFloat(rec *neo4j.Record, key string) float64 {
	v, ok := rec.Get(key)
	if !ok || v == nil {
		return 0
	}
	switch t := v.(type) {
	case float64:
		return t
	case int64:
		return float64(t)
	default:
		return 0
	}
}

func recordInt(rec *neo4j.Record, key string) int {
	v, ok := rec.Get(key)
	if !ok || v == nil {
		return 0
	}
	switch t := v.(type) {
	case int64:
		return int(t)
	case float64:
		return int(t)
	default:
		return 0
	}
}

func recordBool(rec *neo4j.Record, key string) bool {
	v, ok := rec.Get(key)
	if !ok || v == nil {
		return false
	}
	b, _ := v.(bool)
	return b
}

func recordTime(rec *neo4j.Record, key string) time.Time {
	s := recordString(rec, key)
	if s == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

func recordTimePtr(rec *neo4j.Record, key string) *time.Time {
	t := recordTime(rec, key)
	if t.IsZero() {
		return nil
	}
	return &t
}

func recordStrings(rec *neo4j.Record, key string) []string {
	v, ok := rec.Get(key)
	if !ok || v == nil {
		return nil
	}
	items, ok := v.([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(items))
	for _, it := range items {
		if s, ok := it.(string); ok {
			out = append(out, s)
		}
	}
	return out
}
