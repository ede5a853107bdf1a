package retrieval

import (
	"log/slog"
	"strings"

	"retrieval-engine/internal/domain"
)

// Phrase is one weighted entry in the technical-phrase vocabulary.
type Phrase struct {
	Text   string
	Weight float64
}

// PhraseVocabulary is the maintained set of multi-word domain terms.
// Matching is case-insensitive and substring-based, so entries should be
// specific enough not to fire on ordinary prose.
type PhraseVocabulary []Phrase

// DefaultPhraseVocabulary covers the compound terminology that dense and
// lexical signals tend to under-rank.
func DefaultPhraseVocabulary() PhraseVocabulary {
	return PhraseVocabulary{
		{Text: "box to sharepoint", Weight: 2.0},
		{Text: "sharepoint migration", Weight: 1.5},
		{Text: "tenant to tenant", Weight: 1.5},
		{Text: "single sign-on", Weight: 1.0},
		{Text: "service principal", Weight: 1.0},
		{Text: "retention policy", Weight: 1.0},
		{Text: "content type hub", Weight: 1.5},
		{Text: "search schema", Weight: 1.0},
	}
}

// MatchQuery returns the vocabulary phrases present in the query together
// with their total weight.
func (v PhraseVocabulary) MatchQuery(query string) ([]Phrase, float64) {
	lower := strings.ToLower(query)
	var matched []Phrase
	total := 0.0
	for _, phrase := range v {
		if strings.Contains(lower, strings.ToLower(phrase.Text)) {
			matched = append(matched, phrase)
			total += phrase.Weight
		}
	}
	return matched, total
}

// BoostHits assigns a boost score per passage for the phrases shared
// between the query and the passage text. Pure function of the query and
// the hit texts; trace logging is its only side effect. The returned map
// is keyed by passage ID string.
func BoostHits(
	sc *StageContext,
	vocabulary PhraseVocabulary,
	logger *slog.Logger,
) map[string]float64 {
	matched, queryWeight := vocabulary.MatchQuery(sc.Query.RawQuestion)
	if len(matched) == 0 {
		return nil
	}

	boosts := make(map[string]float64)
	score := func(p domain.Passage) {
		id := p.ID.String()
		if _, done := boosts[id]; done {
			return
		}
		lower := strings.ToLower(p.Text)
		total := 0.0
		for _, phrase := range matched {
			if strings.Contains(lower, strings.ToLower(phrase.Text)) {
				total += phrase.Weight
			}
		}
		if total > 0 {
			boosts[id] = total
		}
	}

	for _, hit := range sc.DenseHits {
		score(hit.Passage)
	}
	for _, hit := range sc.ExpandedHits {
		score(hit.Passage)
	}
	for _, hit := range sc.LexicalHits {
		score(hit.Passage)
	}

	logger.Info("phrase_boost_applied",
		slog.String("retrieval_id", sc.RetrievalID),
		slog.Int("query_phrases", len(matched)),
		slog.Float64("query_weight", queryWeight),
		slog.Int("boosted_passages", len(boosts)))

	return boosts
}
