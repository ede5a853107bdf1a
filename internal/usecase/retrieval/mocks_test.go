package retrieval_test

import (
	"context"

	"github.com/stretchr/testify/mock"

	"retrieval-engine/internal/domain"
)

// MockEmbedder is a test double for domain.Embedder.
type MockEmbedder struct {
	mock.Mock
}

func (m *MockEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	args := m.Called(ctx, texts)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([][]float32), args.Error(1)
}

func (m *MockEmbedder) Version() string {
	return "mock-embedder"
}

// MockVectorSearcher is a test double for domain.VectorSearcher.
type MockVectorSearcher struct {
	mock.Mock
}

func (m *MockVectorSearcher) Search(ctx context.Context, embedding []float32, k int, tagPrefix string) ([]domain.DenseHit, error) {
	args := m.Called(ctx, embedding, k, tagPrefix)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.DenseHit), args.Error(1)
}

// MockLexicalSearcher is a test double for domain.LexicalSearcher.
type MockLexicalSearcher struct {
	mock.Mock
}

func (m *MockLexicalSearcher) Search(ctx context.Context, query string, k int) ([]domain.LexicalHit, error) {
	args := m.Called(ctx, query, k)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.LexicalHit), args.Error(1)
}

// MockGenerator is a test double for domain.Generator.
type MockGenerator struct {
	mock.Mock
}

func (m *MockGenerator) Generate(ctx context.Context, prompt string, maxTokens int) (*domain.GenerateResponse, error) {
	args := m.Called(ctx, prompt, maxTokens)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.GenerateResponse), args.Error(1)
}

func (m *MockGenerator) Version() string {
	return "mock-generator"
}

// MockReranker is a test double for domain.Reranker.
type MockReranker struct {
	mock.Mock
}

func (m *MockReranker) Rerank(ctx context.Context, query string, candidates []domain.RerankCandidate) ([]domain.RerankResult, error) {
	args := m.Called(ctx, query, candidates)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.RerankResult), args.Error(1)
}

func (m *MockReranker) ModelName() string {
	return "mock-reranker"
}
