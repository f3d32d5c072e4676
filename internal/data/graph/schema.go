package graph

import (
	"context"
)

// EnsureSchema creates constraints and the embedding vector index if they do
// not exist. Best-effort: restricted users may be denied schema changes, so
// failures log and continue rather than blocking bootstrap.
func (s *Store) EnsureSchema(ctx context.Context, embeddingDim int) {
	if embeddingDim <= 0 {
		embeddingDim = 1536
	}

	session := s.client.WriteSession(ctx)
	defer session.Close(ctx)

	statements := []struct {
		name  string
		query string
		args  map[string]any
	}{
		{
			name:  "knowledge_node_id_unique",
			query: `CREATE CONSTRAINT knowledge_node_id_unique IF NOT EXISTS FOR (n:KnowledgeNode) REQUIRE n.id IS UNIQUE`,
		},
		{
			name:  "domain_name_unique",
			query: `CREATE CONSTRAINT domain_name_unique IF NOT EXISTS FOR (d:Domain) REQUIRE d.name IS UNIQUE`,
		},
		{
			name:  "synthesis_run_id_unique",
			query: `CREATE CONSTRAINT synthesis_run_id_unique IF NOT EXISTS FOR (r:SynthesisRun) REQUIRE r.id IS UNIQUE`,
		},
		{
			name:  "research_prompt_id_unique",
			query: `CREATE CONSTRAINT research_prompt_id_unique IF NOT EXISTS FOR (p:ResearchPrompt) REQUIRE p.id IS UNIQUE`,
		},
		{
			name:  "knowledge_node_domain_idx",
			query: `CREATE INDEX knowledge_node_domain_idx IF NOT EXISTS FOR (n:KnowledgeNode) ON (n.domain)`,
		},
		{
			name:  "research_prompt_status_idx",
			query: `CREATE INDEX research_prompt_status_idx IF NOT EXISTS FOR (p:ResearchPrompt) ON (p.status)`,
		},
		{
			name: "knowledge_node_embedding_idx",
			query: `CREATE VECTOR INDEX knowledge_node_embedding_idx IF NOT EXISTS
FOR (n:KnowledgeNode) ON (n.embedding)
OPTIONS {indexConfig: {` + "`vector.dimensions`" + `: $dim, ` + "`vector.similarity_function`" + `: 'cosine'}}`,
			args: map[string]any{"dim": embeddingDim},
		},
	}

	for _, st := range statements {
		res, err := session.Run(ctx, st.query, st.args)
		if err != nil {
			s.log.Warn("graph schema init failed (continuing)", "statement", st.name, "error", err)
			continue
		}
		_, _ = res.Consume(ctx)
	}
}
