package retrieval

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"retrieval-engine/internal/domain"
)

// ExpandConfig holds query-expansion parameters.
type ExpandConfig struct {
	// MaxExpansions caps the number of alternate phrasings kept.
	MaxExpansions int
	// MaxLength caps each expansion's length in runes; longer ones are
	// discarded as malformed output.
	MaxLength int
	// Timeout is the hard per-call bound on the generation request,
	// independent of the caller's deadline.
	Timeout time.Duration
}

// followUpMarkers are continuation phrasings that signal the question leans
// on prior turns.
var followUpMarkers = []string{
	"what about", "and then", "also", "how about", "what else",
	"in that case", "same for", "the same",
}

// pronouns that, at the start of a short question, usually refer to
// something from the previous turn.
var referencePronouns = []string{
	"it", "its", "that", "this", "these", "those", "they", "them", "he", "she",
}

// NeedsConversationFusion is the deterministic decision of whether the prior
// summary should be prefixed to the question before embedding. No model
// call: pronoun presence or explicit continuation phrasing, and a non-empty
// summary.
func NeedsConversationFusion(question, summary string) bool {
	if summary == "" {
		return false
	}
	lower := strings.ToLower(question)

	for _, marker := range followUpMarkers {
		if strings.Contains(lower, marker) {
			return true
		}
	}

	for _, word := range strings.FieldsFunc(lower, func(r rune) bool {
		return r == ' ' || r == ',' || r == '?' || r == '.' || r == '\''
	}) {
		for _, pron := range referencePronouns {
			if word == pron {
				return true
			}
		}
	}
	return false
}

// FuseConversation applies the fusion decision to the query context:
// the summary is kept only when the question exhibits follow-up
// characteristics, so EmbeddingText stays the raw question otherwise.
func FuseConversation(sc *StageContext, summary string, logger *slog.Logger) {
	if !NeedsConversationFusion(sc.Query.RawQuestion, summary) {
		sc.Query.ConversationSummary = ""
		return
	}
	sc.Query.ConversationSummary = summary
	logger.Info("conversation_fused",
		slog.String("retrieval_id", sc.RetrievalID),
		slog.Int("summary_length", len(summary)))
}

// ExpandQuery asks the generator for alternate phrasings of the question.
// Failures of any kind (timeout, malformed output, empty output) are
// non-fatal: the pipeline proceeds with only the original question.
func ExpandQuery(
	ctx context.Context,
	sc *StageContext,
	generator domain.Generator,
	cfg ExpandConfig,
	logger *slog.Logger,
) {
	if generator == nil || cfg.MaxExpansions <= 0 {
		return
	}

	expandStart := time.Now()
	expandCtx, cancel := context.WithTimeout(ctx, cfg.Timeout)
	defer cancel()

	prompt := fmt.Sprintf(`You are an expert search query generator.

Generate up to %d alternate phrasings of the user's question for document retrieval.
Use synonyms and related technical terms. Keep each phrasing short.
Output ONLY the phrasings, one per line. No numbering, bullets, or explanations.

Question: %s`, cfg.MaxExpansions, sc.Query.RawQuestion)

	resp, err := generator.Generate(expandCtx, prompt, 200)
	if err != nil {
		logger.Warn("query_expansion_failed",
			slog.String("retrieval_id", sc.RetrievalID),
			slog.String("error", err.Error()),
			slog.Int64("duration_ms", time.Since(expandStart).Milliseconds()))
		return
	}

	for _, line := range strings.Split(resp.Text, "\n") {
		if len(sc.Query.ExpandedQueries) >= cfg.MaxExpansions {
			break
		}
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || len([]rune(trimmed)) > cfg.MaxLength {
			continue
		}
		sc.Query.AddExpandedQuery(trimmed)
	}

	logger.Info("query_expanded",
		slog.String("retrieval_id", sc.RetrievalID),
		slog.Int("expansion_count", len(sc.Query.ExpandedQueries)),
		slog.Int64("duration_ms", time.Since(expandStart).Milliseconds()))
}
