package domain

// Origin identifies which retrieval channel surfaced a candidate first.
// Used as the deterministic tie-break during fusion: dense wins.
type Origin int

const (
	OriginDense Origin = iota
	OriginLexical
)

func (o Origin) String() string {
	if o == OriginDense {
		return "dense"
	}
	return "lexical"
}

// Candidate is a Passage annotated with the retrieval signals computed for
// one query. Score ranges are model-defined and not normalized to [0,1].
type Candidate struct {
	Passage Passage

	DenseScore   float64
	LexicalScore float64
	BoostScore   float64

	// CombinedScore is the weighted sum used for interim ranking.
	CombinedScore float64
	// RerankScore is populated only for candidates promoted to the
	// cross-encoder stage.
	RerankScore float64
	// Reranked reports whether RerankScore was populated.
	Reranked bool

	Origin Origin
}

// FinalScore returns the score the final ordering is based on: the blended
// rerank score when the reranker ran, the combined score otherwise.
func (c Candidate) FinalScore() float64 {
	if c.Reranked {
		return c.RerankScore
	}
	return c.CombinedScore
}
