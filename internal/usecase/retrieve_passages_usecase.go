package usecase

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"retrieval-engine/internal/domain"
	"retrieval-engine/internal/usecase/retrieval"
)

// RetrievePassagesInput defines one retrieval request.
type RetrievePassagesInput struct {
	Question  string
	SessionID string
	// K overrides the configured result size when positive (never above
	// the configured maximum).
	K int
	// DisableFilter turns the branch filter off for this call.
	DisableFilter bool
}

// RetrievedPassage is one entry of the ranked result.
type RetrievedPassage struct {
	PassageID   string
	Text        string
	Source      string
	TagPath     string
	ResourceURL string
	Certificate bool
	ChunkIndex  int
	ChunkTotal  int
	Score       float64
	Origin      string
	Reranked    bool
}

// RetrievePassagesOutput is the ranked, deduplicated, budget-constrained
// result. Context is the assembled (possibly compressed) passage text
// obeying the character budget.
type RetrievePassagesOutput struct {
	RetrievalID string
	Intent      string
	Passages    []RetrievedPassage
	Context     string
	Compressed  bool
}

// RetrievePassagesUsecase is the pipeline entry point.
type RetrievePassagesUsecase interface {
	Execute(ctx context.Context, input RetrievePassagesInput) (*RetrievePassagesOutput, error)
}

type retrievePassagesUsecase struct {
	embedder  domain.Embedder
	vector    domain.VectorSearcher
	lexical   domain.LexicalSearcher
	generator domain.Generator
	reranker  domain.Reranker
	convStore domain.ConversationStore

	vocabulary retrieval.PhraseVocabulary
	cfg        PipelineConfig
	logger     *slog.Logger
	tracer     trace.Tracer
}

// RetrievePassagesOption configures optional collaborators.
type RetrievePassagesOption func(*retrievePassagesUsecase)

// WithReranker attaches the cross-encoder reranker.
func WithReranker(r domain.Reranker) RetrievePassagesOption {
	return func(u *retrievePassagesUsecase) { u.reranker = r }
}

// WithConversationStore attaches the prior-turn summary provider.
func WithConversationStore(s domain.ConversationStore) RetrievePassagesOption {
	return func(u *retrievePassagesUsecase) { u.convStore = s }
}

// WithPhraseVocabulary replaces the default technical-phrase vocabulary.
func WithPhraseVocabulary(v retrieval.PhraseVocabulary) RetrievePassagesOption {
	return func(u *retrievePassagesUsecase) { u.vocabulary = v }
}

// NewRetrievePassagesUsecase wires the pipeline. Shared model handles
// (embedder, generator, reranker) are constructed once at process start and
// passed in here; the usecase itself holds no per-request state.
func NewRetrievePassagesUsecase(
	embedder domain.Embedder,
	vector domain.VectorSearcher,
	lexical domain.LexicalSearcher,
	generator domain.Generator,
	cfg PipelineConfig,
	logger *slog.Logger,
	opts ...RetrievePassagesOption,
) RetrievePassagesUsecase {
	u := &retrievePassagesUsecase{
		embedder:   embedder,
		vector:     vector,
		lexical:    lexical,
		generator:  generator,
		vocabulary: retrieval.DefaultPhraseVocabulary(),
		cfg:        cfg,
		logger:     logger,
		tracer:     otel.Tracer("retrieval-engine/pipeline"),
	}
	for _, opt := range opts {
		opt(u)
	}
	return u
}

func (u *retrievePassagesUsecase) Execute(ctx context.Context, input RetrievePassagesInput) (*RetrievePassagesOutput, error) {
	question := strings.TrimSpace(input.Question)
	if question == "" {
		return nil, domain.ErrEmptyQuestion
	}

	retrievalID := uuid.NewString()
	ctx, span := u.tracer.Start(ctx, "retrieve_passages",
		trace.WithAttributes(attribute.String("retrieval.id", retrievalID)))
	defer span.End()

	pipelineStart := time.Now()

	sc := &retrieval.StageContext{
		RetrievalID:    retrievalID,
		Query:          domain.QueryContext{RawQuestion: question},
		FilterDisabled: input.DisableFilter,
		KDense:         u.cfg.KDense,
		KLexical:       u.cfg.KLexical,
		Weights:        u.cfg.Weights,
	}

	// Intent + conversation fusion are cheap and synchronous; everything
	// that crosses a process boundary happens inside the fan-out.
	retrieval.ClassifyIntent(ctx, sc, u.generator, u.cfg.Classify, u.logger)
	retrieval.FuseConversation(sc, u.fetchSummary(ctx, input.SessionID), u.logger)

	if err := retrieval.FanOut(ctx, sc, u.embedder, u.vector, u.lexical, u.generator, u.cfg.Expand, u.logger); err != nil {
		// Only cancellation reaches here; partial results are discarded.
		return nil, err
	}

	if sc.DenseFailed && sc.LexicalFailed {
		u.logger.Error("all_retrieval_channels_unavailable",
			slog.String("retrieval_id", retrievalID))
		return u.emptyOutput(retrievalID, sc), nil
	}

	boosts := retrieval.BoostHits(sc, u.vocabulary, u.logger)
	retrieval.Fuse(sc, boosts, u.logger)

	if len(sc.Candidates) == 0 {
		u.logger.Info("no_candidates_after_fusion",
			slog.String("retrieval_id", retrievalID))
		return u.emptyOutput(retrievalID, sc), nil
	}

	retrieval.ApplyBranchFilter(sc, u.cfg.Filter, u.logger)
	retrieval.Rerank(ctx, sc, u.reranker, u.cfg.Rerank, u.logger)

	mmrCfg := u.cfg.MMR
	if input.K > 0 && input.K < mmrCfg.K {
		mmrCfg.K = input.K
	}
	retrieval.SelectDiverse(sc, mmrCfg, u.logger)

	contextText, compressed := retrieval.Compress(
		ctx, sc, joinPassages(sc.Candidates), u.generator, u.cfg.Compress, u.logger)

	output := &RetrievePassagesOutput{
		RetrievalID: retrievalID,
		Intent:      sc.Query.Intent.String(),
		Passages:    toRetrievedPassages(sc.Candidates),
		Context:     contextText,
		Compressed:  compressed,
	}

	u.logger.Info("retrieval_completed",
		slog.String("retrieval_id", retrievalID),
		slog.String("intent", output.Intent),
		slog.Int("passage_count", len(output.Passages)),
		slog.Bool("compressed", compressed),
		slog.Int64("duration_ms", time.Since(pipelineStart).Milliseconds()))

	return output, nil
}

// fetchSummary reads the prior-turn summary with its own short timeout.
// A missing session or an unavailable store both mean "no summary".
func (u *retrievePassagesUsecase) fetchSummary(ctx context.Context, sessionID string) string {
	if u.convStore == nil || sessionID == "" {
		return ""
	}

	summaryCtx, cancel := context.WithTimeout(ctx, u.cfg.SummaryTimeout)
	defer cancel()

	summary, err := u.convStore.GetSummary(summaryCtx, sessionID)
	if err != nil {
		u.logger.Warn("conversation_summary_unavailable",
			slog.String("session_id", sessionID),
			slog.String("error", err.Error()))
		return ""
	}
	return summary
}

func (u *retrievePassagesUsecase) emptyOutput(retrievalID string, sc *retrieval.StageContext) *RetrievePassagesOutput {
	return &RetrievePassagesOutput{
		RetrievalID: retrievalID,
		Intent:      sc.Query.Intent.String(),
		Passages:    []RetrievedPassage{},
	}
}

func joinPassages(candidates []domain.Candidate) string {
	parts := make([]string, len(candidates))
	for i, cand := range candidates {
		parts[i] = cand.Passage.Text
	}
	return strings.Join(parts, "\n\n---\n\n")
}

func toRetrievedPassages(candidates []domain.Candidate) []RetrievedPassage {
	passages := make([]RetrievedPassage, len(candidates))
	for i, cand := range candidates {
		passages[i] = RetrievedPassage{
			PassageID:   cand.Passage.ID.String(),
			Text:        cand.Passage.Text,
			Source:      cand.Passage.Metadata.Source,
			TagPath:     cand.Passage.Tag(),
			ResourceURL: cand.Passage.Metadata.ResourceURL,
			Certificate: cand.Passage.Metadata.Certificate,
			ChunkIndex:  cand.Passage.Metadata.ChunkIndex,
			ChunkTotal:  cand.Passage.Metadata.ChunkTotal,
			Score:       cand.FinalScore(),
			Origin:      cand.Origin.String(),
			Reranked:    cand.Reranked,
		}
	}
	return passages
}
