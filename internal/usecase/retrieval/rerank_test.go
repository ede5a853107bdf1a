package retrieval_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"retrieval-engine/internal/domain"
	"retrieval-engine/internal/usecase/retrieval"
)

func rerankConfig() retrieval.RerankConfig {
	return retrieval.RerankConfig{
		Enabled:       true,
		MaxCandidates: 50,
		Alpha:         0.7,
		Timeout:       time.Second,
	}
}

func TestRerank_BlendsModelAndCombinedScores(t *testing.T) {
	firstID := uuid.New()
	secondID := uuid.New()

	sc := &retrieval.StageContext{
		RetrievalID: "test-rerank-1",
		Query:       domain.QueryContext{RawQuestion: "how does versioning work"},
		Candidates: []domain.Candidate{
			{Passage: testPassage(firstID, "generic overview", "web/docs"), CombinedScore: 0.9},
			{Passage: testPassage(secondID, "exact versioning answer", "document/versioning"), CombinedScore: 0.5},
		},
	}

	reranker := new(MockReranker)
	reranker.On("Rerank", mock.Anything, "how does versioning work", mock.Anything).
		Return([]domain.RerankResult{
			{ID: firstID.String(), Score: 0.2},
			{ID: secondID.String(), Score: 0.95},
		}, nil)

	retrieval.Rerank(context.Background(), sc, reranker, rerankConfig(), testLogger())

	require.Len(t, sc.Candidates, 2)
	// second: 0.7*0.95 + 0.3*0.5 = 0.815 beats first: 0.7*0.2 + 0.3*0.9 = 0.41
	assert.Equal(t, secondID, sc.Candidates[0].Passage.ID)
	assert.InDelta(t, 0.815, sc.Candidates[0].RerankScore, 1e-9)
	assert.True(t, sc.Candidates[0].Reranked)
	assert.InDelta(t, 0.41, sc.Candidates[1].RerankScore, 1e-9)
}

func TestRerank_FailureKeepsCombinedOrder(t *testing.T) {
	firstID := uuid.New()
	secondID := uuid.New()

	sc := &retrieval.StageContext{
		RetrievalID: "test-rerank-2",
		Query:       domain.QueryContext{RawQuestion: "anything"},
		Candidates: []domain.Candidate{
			{Passage: testPassage(firstID, "top candidate", "web/docs"), CombinedScore: 0.9},
			{Passage: testPassage(secondID, "runner up", "web/docs"), CombinedScore: 0.5},
		},
	}

	reranker := new(MockReranker)
	reranker.On("Rerank", mock.Anything, mock.Anything, mock.Anything).
		Return(nil, errors.New("model gateway unreachable"))

	retrieval.Rerank(context.Background(), sc, reranker, rerankConfig(), testLogger())

	require.Len(t, sc.Candidates, 2)
	assert.Equal(t, firstID, sc.Candidates[0].Passage.ID)
	assert.False(t, sc.Candidates[0].Reranked)
	assert.Equal(t, 0.9, sc.Candidates[0].FinalScore())
}

func TestRerank_RespectsMaxCandidates(t *testing.T) {
	sc := &retrieval.StageContext{
		RetrievalID: "test-rerank-3",
		Query:       domain.QueryContext{RawQuestion: "anything"},
	}
	for i := 0; i < 5; i++ {
		sc.Candidates = append(sc.Candidates, domain.Candidate{
			Passage:       testPassage(uuid.New(), "passage", "web/docs"),
			CombinedScore: 1.0 - float64(i)*0.1,
		})
	}

	cfg := rerankConfig()
	cfg.MaxCandidates = 3

	reranker := new(MockReranker)
	reranker.On("Rerank", mock.Anything, mock.Anything, mock.MatchedBy(func(cands []domain.RerankCandidate) bool {
		return len(cands) == 3
	})).Return([]domain.RerankResult{}, nil)

	retrieval.Rerank(context.Background(), sc, reranker, cfg, testLogger())

	reranker.AssertExpectations(t)
	// Unranked tail keeps its position below the window.
	assert.False(t, sc.Candidates[3].Reranked)
	assert.False(t, sc.Candidates[4].Reranked)
}

func TestRerank_DisabledIsNoOp(t *testing.T) {
	id := uuid.New()
	sc := &retrieval.StageContext{
		RetrievalID: "test-rerank-4",
		Candidates: []domain.Candidate{
			{Passage: testPassage(id, "passage", "web/docs"), CombinedScore: 0.4},
		},
	}

	cfg := rerankConfig()
	cfg.Enabled = false

	retrieval.Rerank(context.Background(), sc, new(MockReranker), cfg, testLogger())

	assert.False(t, sc.Candidates[0].Reranked)
}
