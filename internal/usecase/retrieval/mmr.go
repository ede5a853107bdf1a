package retrieval

import (
	"log/slog"
	"math"

	"retrieval-engine/internal/domain"
)

// MMRConfig holds diversity-selection parameters.
type MMRConfig struct {
	// Lambda trades relevance (1.0) against diversity (0.0).
	Lambda float64
	// K is the final result size.
	K int
}

// SelectDiverse picks the final k candidates by maximal marginal relevance:
// each step selects the candidate maximizing
// lambda*relevance - (1-lambda)*maxSimilarityToSelected. This keeps
// near-duplicate passages (same source, adjacent chunks) from crowding out
// distinct lower-scored information. Stops at k or when candidates run out.
func SelectDiverse(sc *StageContext, cfg MMRConfig, logger *slog.Logger) {
	if len(sc.Candidates) == 0 || cfg.K <= 0 {
		sc.Candidates = nil
		return
	}

	remaining := make([]domain.Candidate, len(sc.Candidates))
	copy(remaining, sc.Candidates)

	selected := make([]domain.Candidate, 0, cfg.K)
	for len(selected) < cfg.K && len(remaining) > 0 {
		bestIdx := 0
		bestScore := math.Inf(-1)
		for i, cand := range remaining {
			maxSim := 0.0
			for _, sel := range selected {
				if sim := passageSimilarity(cand.Passage, sel.Passage); sim > maxSim {
					maxSim = sim
				}
			}
			score := cfg.Lambda*cand.FinalScore() - (1-cfg.Lambda)*maxSim
			// Strict comparison: equal marginal scores keep the earlier,
			// higher-ranked candidate, so lambda=1 reproduces the input
			// order exactly.
			if score > bestScore {
				bestScore = score
				bestIdx = i
			}
		}
		selected = append(selected, remaining[bestIdx])
		remaining = append(remaining[:bestIdx], remaining[bestIdx+1:]...)
	}

	sc.Candidates = selected

	logger.Info("diversity_selection_completed",
		slog.String("retrieval_id", sc.RetrievalID),
		slog.Float64("lambda", cfg.Lambda),
		slog.Int("selected", len(selected)))
}

// passageSimilarity compares two passages for redundancy. Cosine over the
// ingestion-time embeddings when both are present; lexical-only hits carry
// no embedding, so identical tag paths stand in for "same neighborhood".
func passageSimilarity(a, b domain.Passage) float64 {
	if len(a.Embedding) > 0 && len(a.Embedding) == len(b.Embedding) {
		return cosine(a.Embedding, b.Embedding)
	}
	if a.Tag() == b.Tag() {
		return 1.0
	}
	return 0.0
}

func cosine(a, b []float32) float64 {
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
