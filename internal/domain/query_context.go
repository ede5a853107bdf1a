package domain

import "strings"

// QueryContext is the per-request input assembled by the preprocessor.
// It is constructed at the start of a retrieval call and never persisted.
type QueryContext struct {
	// RawQuestion is the original user text.
	RawQuestion string
	// ConversationSummary is the prior-turn context, empty when none exists
	// or the question is not a follow-up.
	ConversationSummary string
	// Intent is the category assigned by the classifier.
	Intent Intent
	// ExpandedQueries holds alternate phrasings. Never contains an entry
	// equal (case-insensitive) to RawQuestion.
	ExpandedQueries []string
}

// EmbeddingText returns the text the query embedding is computed from:
// the summary-prefixed question when conversation fusion applied, the raw
// question otherwise.
func (q QueryContext) EmbeddingText() string {
	if q.ConversationSummary == "" {
		return q.RawQuestion
	}
	return q.ConversationSummary + "\n\n" + q.RawQuestion
}

// AddExpandedQuery appends an alternate phrasing, dropping empties,
// duplicates, and anything identical to the raw question ignoring case.
func (q *QueryContext) AddExpandedQuery(expansion string) {
	expansion = strings.TrimSpace(expansion)
	if expansion == "" {
		return
	}
	if strings.EqualFold(expansion, q.RawQuestion) {
		return
	}
	for _, existing := range q.ExpandedQueries {
		if strings.EqualFold(existing, expansion) {
			return
		}
	}
	q.ExpandedQueries = append(q.ExpandedQueries, expansion)
}
