package retrieval

import (
	"retrieval-engine/internal/domain"
)

// StageContext carries data between pipeline stages for one retrieval call.
type StageContext struct {
	// Input
	RetrievalID string
	Query       domain.QueryContext
	// FilterDisabled turns the branch filter off for this call.
	FilterDisabled bool

	// Preprocess outputs
	IntentConfidence float64

	// Fan-out outputs
	QueryEmbedding []float32
	DenseHits      []domain.DenseHit
	ExpandedHits   []domain.DenseHit
	LexicalHits    []domain.LexicalHit
	DenseFailed    bool
	LexicalFailed  bool

	// Fusion output, mutated in place by later stages.
	Candidates []domain.Candidate

	// Config values (set once at pipeline construction)
	KDense   int
	KLexical int
	Weights  FusionWeights
}

// FusionWeights are the channel weights applied when combining scores.
type FusionWeights struct {
	Dense   float64
	Lexical float64
	Boost   float64
}
