package domain

import "context"

// DenseHit is a passage matched by vector similarity search.
type DenseHit struct {
	Passage Passage
	// Score is the similarity score, descending-better (cosine or
	// equivalent, backend-defined range).
	Score float64
}

// VectorSearcher bridges to whatever vector index is configured. The corpus
// may be empty; searchers return an empty slice in that case, not an error.
type VectorSearcher interface {
	// Search returns up to k passages ordered by descending similarity.
	// tagPrefix, when non-empty, restricts results to passages under that
	// tag path.
	Search(ctx context.Context, embedding []float32, k int, tagPrefix string) ([]DenseHit, error)
}

// LexicalHit is a passage matched by sparse term-frequency search.
type LexicalHit struct {
	Passage Passage
	// Score is the BM25-style relevance score.
	Score float64
	// Rank is the 1-indexed position in the lexical result list.
	Rank int
}

// LexicalSearcher performs BM25-style keyword search over the same corpus.
type LexicalSearcher interface {
	Search(ctx context.Context, query string, k int) ([]LexicalHit, error)
}

// Embedder generates query embeddings. Passage embeddings are computed at
// ingestion time and never recomputed during retrieval.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
	Version() string
}

// GenerateResponse carries the text-generation output and whether the
// generation ran to completion.
type GenerateResponse struct {
	Text string
	Done bool
}

// Generator is the text-generation capability used for query expansion,
// intent-classification fallback, and context compression. Every call site
// must wrap the context with its own hard timeout.
type Generator interface {
	Generate(ctx context.Context, prompt string, maxTokens int) (*GenerateResponse, error)
	Version() string
}

// RerankCandidate is one (query, passage) pair submitted to the
// cross-encoder.
type RerankCandidate struct {
	// ID is the passage identifier, used to map results back.
	ID string
	// Content is the passage text scored against the query.
	Content string
	// Score is the pre-rerank combined score, for logging.
	Score float64
}

// RerankResult is the cross-encoder relevance score for one candidate.
type RerankResult struct {
	ID    string
	Score float64
}

// Reranker scores (query, passage) pairs with a jointly-attending model.
// On error, callers fall back to combined-score ordering; a reranker
// failure never aborts retrieval.
type Reranker interface {
	Rerank(ctx context.Context, query string, candidates []RerankCandidate) ([]RerankResult, error)
	ModelName() string
}

// ConversationStore exposes prior-turn summaries, read-only from the
// retrieval core's perspective. A missing session yields an empty string.
type ConversationStore interface {
	GetSummary(ctx context.Context, sessionID string) (string, error)
}
