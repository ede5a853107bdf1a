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

func fanOutContext(question string) *retrieval.StageContext {
	return &retrieval.StageContext{
		RetrievalID: "test-fanout",
		Query:       domain.QueryContext{RawQuestion: question},
		KDense:      10,
		KLexical:    10,
	}
}

// noExpansion keeps branch C quiet so tests can focus on A and B.
func noExpansion() retrieval.ExpandConfig {
	return retrieval.ExpandConfig{MaxExpansions: 0}
}

func TestFanOut_BothChannelsSucceed(t *testing.T) {
	embedding := []float32{0.1, 0.2}
	denseHit := domain.DenseHit{Passage: testPassage(uuid.New(), "dense passage", "document/a"), Score: 0.9}
	lexicalHit := domain.LexicalHit{Passage: testPassage(uuid.New(), "lexical passage", "web/b"), Score: 3.2, Rank: 1}

	embedder := new(MockEmbedder)
	embedder.On("Embed", mock.Anything, []string{"test question"}).
		Return([][]float32{embedding}, nil)

	vectors := new(MockVectorSearcher)
	vectors.On("Search", mock.Anything, embedding, 10, "").
		Return([]domain.DenseHit{denseHit}, nil)

	lexical := new(MockLexicalSearcher)
	lexical.On("Search", mock.Anything, "test question", 10).
		Return([]domain.LexicalHit{lexicalHit}, nil)

	sc := fanOutContext("test question")
	err := retrieval.FanOut(context.Background(), sc, embedder, vectors, lexical, nil, noExpansion(), testLogger())

	require.NoError(t, err)
	assert.Equal(t, embedding, sc.QueryEmbedding)
	assert.Len(t, sc.DenseHits, 1)
	assert.Len(t, sc.LexicalHits, 1)
	assert.False(t, sc.DenseFailed)
	assert.False(t, sc.LexicalFailed)
}

func TestFanOut_DenseFailureDegrades(t *testing.T) {
	embedder := new(MockEmbedder)
	embedder.On("Embed", mock.Anything, mock.Anything).
		Return(nil, errors.New("embedding service down"))

	lexical := new(MockLexicalSearcher)
	lexical.On("Search", mock.Anything, mock.Anything, mock.Anything).
		Return([]domain.LexicalHit{
			{Passage: testPassage(uuid.New(), "lexical passage", "web/b"), Score: 2.0, Rank: 1},
		}, nil)

	sc := fanOutContext("test question")
	err := retrieval.FanOut(context.Background(), sc, embedder, new(MockVectorSearcher), lexical, nil, noExpansion(), testLogger())

	require.NoError(t, err)
	assert.True(t, sc.DenseFailed)
	assert.Empty(t, sc.DenseHits)
	assert.Len(t, sc.LexicalHits, 1)
}

func TestFanOut_VectorSearchFailureDegrades(t *testing.T) {
	embedder := new(MockEmbedder)
	embedder.On("Embed", mock.Anything, mock.Anything).
		Return([][]float32{{0.1, 0.2}}, nil)

	vectors := new(MockVectorSearcher)
	vectors.On("Search", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(nil, domain.ErrIndexUnavailable)

	lexical := new(MockLexicalSearcher)
	lexical.On("Search", mock.Anything, mock.Anything, mock.Anything).
		Return([]domain.LexicalHit{}, nil)

	sc := fanOutContext("test question")
	err := retrieval.FanOut(context.Background(), sc, embedder, vectors, lexical, nil, noExpansion(), testLogger())

	require.NoError(t, err)
	assert.True(t, sc.DenseFailed)
}

func TestFanOut_BothChannelsFail(t *testing.T) {
	embedder := new(MockEmbedder)
	embedder.On("Embed", mock.Anything, mock.Anything).
		Return(nil, errors.New("embedding service down"))

	lexical := new(MockLexicalSearcher)
	lexical.On("Search", mock.Anything, mock.Anything, mock.Anything).
		Return(nil, domain.ErrIndexUnavailable)

	sc := fanOutContext("test question")
	err := retrieval.FanOut(context.Background(), sc, embedder, new(MockVectorSearcher), lexical, nil, noExpansion(), testLogger())

	require.NoError(t, err)
	assert.True(t, sc.DenseFailed)
	assert.True(t, sc.LexicalFailed)
	assert.Empty(t, sc.DenseHits)
	assert.Empty(t, sc.LexicalHits)
}

func TestFanOut_ExpansionContributesExtraHits(t *testing.T) {
	queryEmbedding := []float32{0.1, 0.2}
	expEmbedding := []float32{0.3, 0.4}
	expandedHit := domain.DenseHit{Passage: testPassage(uuid.New(), "expanded passage", "document/c"), Score: 0.7}

	gen := new(MockGenerator)
	gen.On("Generate", mock.Anything, mock.Anything, mock.Anything).
		Return(&domain.GenerateResponse{Text: "alternate phrasing", Done: true}, nil)

	embedder := new(MockEmbedder)
	embedder.On("Embed", mock.Anything, []string{"test question"}).
		Return([][]float32{queryEmbedding}, nil)
	embedder.On("Embed", mock.Anything, []string{"alternate phrasing"}).
		Return([][]float32{expEmbedding}, nil)

	vectors := new(MockVectorSearcher)
	vectors.On("Search", mock.Anything, queryEmbedding, 10, "").
		Return([]domain.DenseHit{}, nil)
	vectors.On("Search", mock.Anything, expEmbedding, 10, "").
		Return([]domain.DenseHit{expandedHit}, nil)

	lexical := new(MockLexicalSearcher)
	lexical.On("Search", mock.Anything, mock.Anything, mock.Anything).
		Return([]domain.LexicalHit{}, nil)

	cfg := retrieval.ExpandConfig{MaxExpansions: 3, MaxLength: 200, Timeout: time.Second}
	sc := fanOutContext("test question")
	err := retrieval.FanOut(context.Background(), sc, embedder, vectors, lexical, gen, cfg, testLogger())

	require.NoError(t, err)
	require.Len(t, sc.ExpandedHits, 1)
	assert.Equal(t, expandedHit.Passage.ID, sc.ExpandedHits[0].Passage.ID)
}

func TestFanOut_CancellationAborts(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	embedder := new(MockEmbedder)
	embedder.On("Embed", mock.Anything, mock.Anything).
		Return(nil, context.Canceled)

	lexical := new(MockLexicalSearcher)
	lexical.On("Search", mock.Anything, mock.Anything, mock.Anything).
		Return(nil, context.Canceled)

	sc := fanOutContext("test question")
	err := retrieval.FanOut(ctx, sc, embedder, new(MockVectorSearcher), lexical, nil, noExpansion(), testLogger())

	assert.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}
