package retrieval

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"retrieval-engine/internal/domain"
)

// FanOut runs the dense and lexical searches concurrently, with query
// expansion (and the dense searches for the expanded phrasings) in a third
// branch. Neither retriever depends on the other, so either one failing
// only degrades the result; both failing leaves an empty candidate pool for
// the caller to report. Only context cancellation aborts the stage.
func FanOut(
	ctx context.Context,
	sc *StageContext,
	embedder domain.Embedder,
	vectorSearcher domain.VectorSearcher,
	lexicalSearcher domain.LexicalSearcher,
	generator domain.Generator,
	expandCfg ExpandConfig,
	logger *slog.Logger,
) error {
	fanOutStart := time.Now()
	g, gctx := errgroup.WithContext(ctx)

	// Branch A: original query embedding + dense search.
	g.Go(func() error {
		embeddings, err := embedder.Embed(gctx, []string{sc.Query.EmbeddingText()})
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return err
			}
			sc.DenseFailed = true
			logger.Warn("dense_retrieval_unavailable",
				slog.String("retrieval_id", sc.RetrievalID),
				slog.String("stage", "embed"),
				slog.String("error", err.Error()))
			return nil
		}
		if len(embeddings) == 0 {
			sc.DenseFailed = true
			return nil
		}
		sc.QueryEmbedding = embeddings[0]

		hits, err := vectorSearcher.Search(gctx, sc.QueryEmbedding, sc.KDense, "")
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return err
			}
			sc.DenseFailed = true
			logger.Warn("dense_retrieval_unavailable",
				slog.String("retrieval_id", sc.RetrievalID),
				slog.String("stage", "search"),
				slog.String("error", err.Error()))
			return nil
		}
		sc.DenseHits = hits
		return nil
	})

	// Branch B: lexical search.
	g.Go(func() error {
		hits, err := lexicalSearcher.Search(gctx, sc.Query.RawQuestion, sc.KLexical)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return err
			}
			sc.LexicalFailed = true
			logger.Warn("lexical_retrieval_unavailable",
				slog.String("retrieval_id", sc.RetrievalID),
				slog.String("error", err.Error()))
			return nil
		}
		sc.LexicalHits = hits
		return nil
	})

	// Branch C: query expansion, then dense search per expansion.
	// Entirely optional: it only contributes additional dense hits.
	g.Go(func() error {
		ExpandQuery(gctx, sc, generator, expandCfg, logger)
		if len(sc.Query.ExpandedQueries) == 0 {
			return nil
		}

		embeddings, err := embedder.Embed(gctx, sc.Query.ExpandedQueries)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return err
			}
			logger.Warn("expansion_embed_failed",
				slog.String("retrieval_id", sc.RetrievalID),
				slog.String("error", err.Error()))
			return nil
		}

		for i, embedding := range embeddings {
			hits, err := vectorSearcher.Search(gctx, embedding, sc.KDense, "")
			if err != nil {
				if errors.Is(err, context.Canceled) {
					return err
				}
				logger.Warn("expansion_search_failed",
					slog.String("retrieval_id", sc.RetrievalID),
					slog.Int("expansion_index", i),
					slog.String("error", err.Error()))
				continue
			}
			sc.ExpandedHits = append(sc.ExpandedHits, hits...)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return fmt.Errorf("retrieval fan-out cancelled: %w", err)
	}

	logger.Info("fan_out_completed",
		slog.String("retrieval_id", sc.RetrievalID),
		slog.Int("dense_hits", len(sc.DenseHits)),
		slog.Int("expanded_hits", len(sc.ExpandedHits)),
		slog.Int("lexical_hits", len(sc.LexicalHits)),
		slog.Bool("dense_failed", sc.DenseFailed),
		slog.Bool("lexical_failed", sc.LexicalFailed),
		slog.Int64("duration_ms", time.Since(fanOutStart).Milliseconds()))

	return nil
}
