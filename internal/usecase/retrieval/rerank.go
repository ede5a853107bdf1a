package retrieval

import (
	"context"
	"log/slog"
	"sort"
	"time"

	"retrieval-engine/internal/domain"
)

// RerankConfig holds cross-encoder reranking parameters.
type RerankConfig struct {
	Enabled bool
	// MaxCandidates bounds how many candidates are sent to the
	// cross-encoder; inference cost is linear in this number.
	MaxCandidates int
	// Alpha blends the model score with the combined score:
	// rerank = alpha*model + (1-alpha)*combined. Weighted toward the model.
	Alpha float64
	// Timeout bounds the reranker call.
	Timeout time.Duration
}

// Rerank re-scores the top candidates with the cross-encoder and re-sorts
// them. Any reranker failure leaves the combined-score ordering untouched;
// degradation here is graceful by contract, not an error path.
func Rerank(
	ctx context.Context,
	sc *StageContext,
	reranker domain.Reranker,
	cfg RerankConfig,
	logger *slog.Logger,
) {
	if !cfg.Enabled || reranker == nil || len(sc.Candidates) == 0 {
		return
	}

	rerankStart := time.Now()

	limit := len(sc.Candidates)
	if cfg.MaxCandidates > 0 && limit > cfg.MaxCandidates {
		limit = cfg.MaxCandidates
	}

	// Candidates are already combined-score ordered after fusion.
	promoted := sc.Candidates[:limit]
	rerankCands := make([]domain.RerankCandidate, len(promoted))
	for i, cand := range promoted {
		rerankCands[i] = domain.RerankCandidate{
			ID:      cand.Passage.ID.String(),
			Content: cand.Passage.Text,
			Score:   cand.CombinedScore,
		}
	}

	rerankCtx, cancel := context.WithTimeout(ctx, cfg.Timeout)
	results, err := reranker.Rerank(rerankCtx, sc.Query.RawQuestion, rerankCands)
	cancel()

	if err != nil {
		logger.Warn("reranking_failed_using_combined_scores",
			slog.String("retrieval_id", sc.RetrievalID),
			slog.String("error", err.Error()),
			slog.Int64("duration_ms", time.Since(rerankStart).Milliseconds()))
		return
	}

	modelScores := make(map[string]float64, len(results))
	for _, r := range results {
		modelScores[r.ID] = r.Score
	}

	for i := range promoted {
		modelScore, ok := modelScores[promoted[i].Passage.ID.String()]
		if !ok {
			continue
		}
		promoted[i].RerankScore = cfg.Alpha*modelScore + (1-cfg.Alpha)*promoted[i].CombinedScore
		promoted[i].Reranked = true
	}

	// Re-sort only the promoted window; the tail keeps its combined order
	// below it.
	sort.SliceStable(promoted, func(i, j int) bool {
		return promoted[i].FinalScore() > promoted[j].FinalScore()
	})

	logger.Info("reranking_completed",
		slog.String("retrieval_id", sc.RetrievalID),
		slog.Int("candidate_count", len(promoted)),
		slog.Int("scored_count", len(results)),
		slog.String("model", reranker.ModelName()),
		slog.Int64("duration_ms", time.Since(rerankStart).Milliseconds()))
}
