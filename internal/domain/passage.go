package domain

import (
	"strings"

	"github.com/google/uuid"
)

// Source categories a passage can originate from. The first segment of a
// passage's tag path identifies its source.
const (
	SourceWeb      = "web"
	SourceDocument = "document"
	SourceEmail    = "email"
)

// PassageMetadata carries the corpus metadata attached to a passage at
// ingestion time.
type PassageMetadata struct {
	// Source is the source category ("web", "document", "email").
	Source string
	// TagPath is the slash-delimited hierarchical tag,
	// e.g. "document/migration-guides/box-to-sharepoint".
	TagPath string
	// ResourceURL is an optional downloadable-resource URL.
	ResourceURL string
	// Certificate marks the passage as coming from an authoritative source.
	Certificate bool
	// ChunkIndex is the position of this passage within its parent document.
	ChunkIndex int
	// ChunkTotal is the number of chunks the parent document was split into.
	ChunkTotal int
}

// Passage is one indexed, retrievable chunk of source text. Passages are
// created during ingestion and are read-only during retrieval.
type Passage struct {
	ID        uuid.UUID
	Text      string
	Embedding []float32
	Metadata  PassageMetadata
}

// Tag returns the passage's tag path, falling back to the source category
// when no explicit tag was set.
func (p Passage) Tag() string {
	if p.Metadata.TagPath != "" {
		return p.Metadata.TagPath
	}
	return p.Metadata.Source
}

// HasTagPrefix reports whether the passage's tag path starts with the given
// slash-delimited prefix. Prefixes match on whole segments: "web/docs" does
// not match "web/docstore".
func (p Passage) HasTagPrefix(prefix string) bool {
	if prefix == "" {
		return true
	}
	tag := p.Tag()
	if tag == prefix {
		return true
	}
	return strings.HasPrefix(tag, prefix+"/")
}
