package retrieval

import (
	"log/slog"
	"sort"
	"time"

	"retrieval-engine/internal/domain"
)

// Fuse merges the dense and lexical result sets into one candidate list
// keyed by passage ID, applying the phrase boosts computed by BoostHits.
// A passage appearing in both channels keeps both scores, so it combines
// strictly higher than the same passage seen in only one. The output order
// is fully deterministic: combined score descending, dense-origin first on
// ties, passage ID as the final tie-break.
func Fuse(sc *StageContext, boosts map[string]float64, logger *slog.Logger) {
	fuseStart := time.Now()
	byID := make(map[string]*domain.Candidate)

	// Dense channel. Expanded-query hits feed the same channel; a passage
	// found by several phrasings keeps its best similarity.
	denseHit := func(hit domain.DenseHit) {
		id := hit.Passage.ID.String()
		if existing, ok := byID[id]; ok {
			if hit.Score > existing.DenseScore {
				existing.DenseScore = hit.Score
			}
			return
		}
		byID[id] = &domain.Candidate{
			Passage:    hit.Passage,
			DenseScore: hit.Score,
			Origin:     domain.OriginDense,
		}
	}
	for _, hit := range sc.DenseHits {
		denseHit(hit)
	}
	for _, hit := range sc.ExpandedHits {
		denseHit(hit)
	}

	// Lexical channel, additive with dense.
	for _, hit := range sc.LexicalHits {
		id := hit.Passage.ID.String()
		if existing, ok := byID[id]; ok {
			if hit.Score > existing.LexicalScore {
				existing.LexicalScore = hit.Score
			}
			continue
		}
		byID[id] = &domain.Candidate{
			Passage:      hit.Passage,
			LexicalScore: hit.Score,
			Origin:       domain.OriginLexical,
		}
	}

	candidates := make([]domain.Candidate, 0, len(byID))
	for id, cand := range byID {
		cand.BoostScore = boosts[id]
		cand.CombinedScore = sc.Weights.Dense*cand.DenseScore +
			sc.Weights.Lexical*cand.LexicalScore +
			sc.Weights.Boost*cand.BoostScore
		candidates = append(candidates, *cand)
	}

	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].CombinedScore != candidates[j].CombinedScore {
			return candidates[i].CombinedScore > candidates[j].CombinedScore
		}
		if candidates[i].Origin != candidates[j].Origin {
			return candidates[i].Origin == domain.OriginDense
		}
		return candidates[i].Passage.ID.String() < candidates[j].Passage.ID.String()
	})

	sc.Candidates = candidates

	logger.Info("fusion_completed",
		slog.String("retrieval_id", sc.RetrievalID),
		slog.Int("dense_count", len(sc.DenseHits)+len(sc.ExpandedHits)),
		slog.Int("lexical_count", len(sc.LexicalHits)),
		slog.Int("fused_count", len(candidates)),
		slog.Int64("duration_ms", time.Since(fuseStart).Milliseconds()))
}
