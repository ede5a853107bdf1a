package retrieval

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"retrieval-engine/internal/domain"
)

// ClassifyConfig holds intent-classification parameters.
type ClassifyConfig struct {
	// ConfidenceThreshold is the heuristic-classifier confidence below
	// which the model-based fallback runs.
	ConfidenceThreshold float64
	// ModelTimeout bounds the fallback generation call.
	ModelTimeout time.Duration
}

// intentKeywords drives the heuristic classifier. Multi-word entries weigh
// more than single words because they are less ambiguous.
var intentKeywords = map[domain.Intent][]string{
	domain.IntentMigration: {
		"migrate", "migration", "move to", "switch from", "transfer",
		"import from", "export to",
	},
	domain.IntentPricing: {
		"price", "pricing", "cost", "how much", "subscription", "license",
		"billing", "plan",
	},
	domain.IntentSupport: {
		"error", "not working", "broken", "fails", "failed", "help with",
		"troubleshoot", "fix",
	},
}

// ClassifyIntent assigns an intent using the fast keyword heuristic,
// escalating to the model-based classifier only when the heuristic is not
// confident. The model path failing leaves the heuristic result in place.
func ClassifyIntent(
	ctx context.Context,
	sc *StageContext,
	generator domain.Generator,
	cfg ClassifyConfig,
	logger *slog.Logger,
) {
	intent, confidence := classifyHeuristic(sc.Query.RawQuestion)
	sc.Query.Intent = intent
	sc.IntentConfidence = confidence

	if confidence >= cfg.ConfidenceThreshold || generator == nil {
		logger.Info("intent_classified",
			slog.String("retrieval_id", sc.RetrievalID),
			slog.String("intent", intent.String()),
			slog.Float64("confidence", confidence),
			slog.String("method", "heuristic"))
		return
	}

	modelCtx, cancel := context.WithTimeout(ctx, cfg.ModelTimeout)
	defer cancel()

	modelIntent, err := classifyWithModel(modelCtx, sc.Query.RawQuestion, generator)
	if err != nil {
		logger.Warn("intent_model_fallback_failed",
			slog.String("retrieval_id", sc.RetrievalID),
			slog.String("error", err.Error()))
		return
	}

	sc.Query.Intent = modelIntent
	logger.Info("intent_classified",
		slog.String("retrieval_id", sc.RetrievalID),
		slog.String("intent", modelIntent.String()),
		slog.Float64("heuristic_confidence", confidence),
		slog.String("method", "model"))
}

// HeuristicIntent exposes the keyword classifier for callers outside the
// pipeline (diagnostics tooling).
func HeuristicIntent(question string) (domain.Intent, float64) {
	return classifyHeuristic(question)
}

// classifyHeuristic scores each intent by keyword hits and returns the best
// one with a confidence in [0,1]. No hits at all means (other, 1.0): a
// question matching no category is confidently uncategorized.
func classifyHeuristic(question string) (domain.Intent, float64) {
	lower := strings.ToLower(question)

	best := domain.IntentOther
	bestScore := 0.0
	totalScore := 0.0

	for _, intent := range domain.Intents() {
		keywords, ok := intentKeywords[intent]
		if !ok {
			continue
		}
		score := 0.0
		for _, kw := range keywords {
			if strings.Contains(lower, kw) {
				if strings.Contains(kw, " ") {
					score += 2
				} else {
					score += 1
				}
			}
		}
		totalScore += score
		if score > bestScore {
			bestScore = score
			best = intent
		}
	}

	if totalScore == 0 {
		return domain.IntentOther, 1.0
	}
	return best, bestScore / totalScore
}

func classifyWithModel(ctx context.Context, question string, generator domain.Generator) (domain.Intent, error) {
	labels := make([]string, 0, len(domain.Intents()))
	for _, intent := range domain.Intents() {
		labels = append(labels, intent.String())
	}

	prompt := fmt.Sprintf(`Classify the user question into exactly one of these categories: %s.
Output ONLY the category name, nothing else.

Question: %s`, strings.Join(labels, ", "), question)

	resp, err := generator.Generate(ctx, prompt, 8)
	if err != nil {
		return domain.IntentOther, err
	}

	label := strings.ToLower(strings.TrimSpace(resp.Text))
	for _, intent := range domain.Intents() {
		if label == intent.String() {
			return intent, nil
		}
	}
	return domain.IntentOther, fmt.Errorf("unrecognized intent label %q", label)
}
