package retrieval

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"retrieval-engine/internal/domain"
)

// CompressConfig holds context-compression parameters.
type CompressConfig struct {
	// BudgetChars is the caller's context budget in characters.
	BudgetChars int
	// MaxSummarizerInput caps the text sent to the summarizer, bounding
	// cost and latency.
	MaxSummarizerInput int
	// Timeout bounds the summarization call.
	Timeout time.Duration
}

// Compress shrinks the assembled context text to the budget. Under-budget
// input passes through unmodified. Over-budget input is summarized into a
// compact note set; if summarization fails, plain truncation applies,
// since degraded context beats no context.
func Compress(
	ctx context.Context,
	sc *StageContext,
	contextText string,
	generator domain.Generator,
	cfg CompressConfig,
	logger *slog.Logger,
) (string, bool) {
	if cfg.BudgetChars <= 0 || len(contextText) <= cfg.BudgetChars {
		return contextText, false
	}

	compressStart := time.Now()

	input := contextText
	if cfg.MaxSummarizerInput > 0 && len(input) > cfg.MaxSummarizerInput {
		input = input[:cfg.MaxSummarizerInput]
	}

	summary, err := summarize(ctx, input, generator, cfg)
	if err != nil || summary == "" {
		if err != nil {
			logger.Warn("compression_failed_truncating",
				slog.String("retrieval_id", sc.RetrievalID),
				slog.String("error", err.Error()),
				slog.Int64("duration_ms", time.Since(compressStart).Milliseconds()))
		}
		return truncate(contextText, cfg.BudgetChars), true
	}

	// The summarizer is asked for the budget but not trusted to honor it.
	if len(summary) > cfg.BudgetChars {
		summary = truncate(summary, cfg.BudgetChars)
	}

	logger.Info("compression_completed",
		slog.String("retrieval_id", sc.RetrievalID),
		slog.Int("input_chars", len(contextText)),
		slog.Int("output_chars", len(summary)),
		slog.Int64("duration_ms", time.Since(compressStart).Milliseconds()))

	return summary, true
}

func summarize(ctx context.Context, input string, generator domain.Generator, cfg CompressConfig) (string, error) {
	if generator == nil {
		return "", fmt.Errorf("no generator configured")
	}

	genCtx, cancel := context.WithTimeout(ctx, cfg.Timeout)
	defer cancel()

	prompt := fmt.Sprintf(`Condense the following reference passages into a compact set of notes.
Preserve key facts, concrete steps, names, and distinctions between sources.
Stay under %d characters. Output only the notes.

%s`, cfg.BudgetChars, input)

	resp, err := generator.Generate(genCtx, prompt, cfg.BudgetChars/3)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(resp.Text), nil
}

// truncate cuts at the budget without splitting a multi-byte rune.
func truncate(s string, budget int) string {
	if len(s) <= budget {
		return s
	}
	cut := s[:budget]
	for len(cut) > 0 && !utf8.ValidString(cut) {
		cut = cut[:len(cut)-1]
	}
	return cut
}
