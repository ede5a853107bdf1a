package retrieval_test

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"retrieval-engine/internal/domain"
	"retrieval-engine/internal/usecase/retrieval"
)

func embeddedCandidate(score float64, embedding []float32, tag string) domain.Candidate {
	p := testPassage(uuid.New(), "passage", tag)
	p.Embedding = embedding
	return domain.Candidate{Passage: p, CombinedScore: score, Origin: domain.OriginDense}
}

func TestSelectDiverse_LambdaOnePreservesOrder(t *testing.T) {
	sc := &retrieval.StageContext{
		RetrievalID: "test-mmr-1",
		Candidates: []domain.Candidate{
			embeddedCandidate(0.9, []float32{1, 0}, "a"),
			embeddedCandidate(0.8, []float32{1, 0}, "a"),
			embeddedCandidate(0.7, []float32{0, 1}, "b"),
		},
	}

	want := make([]uuid.UUID, len(sc.Candidates))
	for i, c := range sc.Candidates {
		want[i] = c.Passage.ID
	}

	retrieval.SelectDiverse(sc, retrieval.MMRConfig{Lambda: 1.0, K: 3}, testLogger())

	require.Len(t, sc.Candidates, 3)
	for i, c := range sc.Candidates {
		assert.Equal(t, want[i], c.Passage.ID)
	}
}

func TestSelectDiverse_LambdaZeroMaximizesDiversity(t *testing.T) {
	// Two near-duplicates lead; with lambda=0 the second pick must be the
	// orthogonal passage, not the duplicate.
	dupA := embeddedCandidate(0.9, []float32{1, 0}, "document/a")
	dupB := embeddedCandidate(0.85, []float32{1, 0}, "document/a")
	distinct := embeddedCandidate(0.3, []float32{0, 1}, "web/b")

	sc := &retrieval.StageContext{
		RetrievalID: "test-mmr-2",
		Candidates:  []domain.Candidate{dupA, dupB, distinct},
	}

	retrieval.SelectDiverse(sc, retrieval.MMRConfig{Lambda: 0.0, K: 2}, testLogger())

	require.Len(t, sc.Candidates, 2)
	assert.Equal(t, dupA.Passage.ID, sc.Candidates[0].Passage.ID)
	assert.Equal(t, distinct.Passage.ID, sc.Candidates[1].Passage.ID)
}

func TestSelectDiverse_CapsAtK(t *testing.T) {
	sc := &retrieval.StageContext{RetrievalID: "test-mmr-3"}
	for i := 0; i < 20; i++ {
		sc.Candidates = append(sc.Candidates,
			embeddedCandidate(1.0-float64(i)*0.01, []float32{float32(i), 1}, "web/docs"))
	}

	retrieval.SelectDiverse(sc, retrieval.MMRConfig{Lambda: 0.7, K: 10}, testLogger())

	assert.Len(t, sc.Candidates, 10)
}

func TestSelectDiverse_FewerCandidatesThanK(t *testing.T) {
	sc := &retrieval.StageContext{
		RetrievalID: "test-mmr-4",
		Candidates: []domain.Candidate{
			embeddedCandidate(0.9, []float32{1, 0}, "a"),
			embeddedCandidate(0.8, []float32{0, 1}, "b"),
		},
	}

	retrieval.SelectDiverse(sc, retrieval.MMRConfig{Lambda: 0.7, K: 10}, testLogger())

	assert.Len(t, sc.Candidates, 2)
}

func TestSelectDiverse_LexicalOnlyFallsBackToTags(t *testing.T) {
	// Lexical hits carry no embedding; identical tag paths count as
	// duplicates for the diversity term.
	sameTagA := domain.Candidate{Passage: testPassage(uuid.New(), "a", "document/kb"), CombinedScore: 0.9, Origin: domain.OriginLexical}
	sameTagB := domain.Candidate{Passage: testPassage(uuid.New(), "b", "document/kb"), CombinedScore: 0.85, Origin: domain.OriginLexical}
	otherTag := domain.Candidate{Passage: testPassage(uuid.New(), "c", "web/blog"), CombinedScore: 0.3, Origin: domain.OriginLexical}

	sc := &retrieval.StageContext{
		RetrievalID: "test-mmr-5",
		Candidates:  []domain.Candidate{sameTagA, sameTagB, otherTag},
	}

	retrieval.SelectDiverse(sc, retrieval.MMRConfig{Lambda: 0.0, K: 2}, testLogger())

	require.Len(t, sc.Candidates, 2)
	assert.Equal(t, sameTagA.Passage.ID, sc.Candidates[0].Passage.ID)
	assert.Equal(t, otherTag.Passage.ID, sc.Candidates[1].Passage.ID)
}
