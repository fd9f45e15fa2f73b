// Package corpus defines the data model shared across the docent pipeline:
// documents supplied by a fetcher, the fragments they are chunked into, and
// the embedded form of those fragments stored in an index.
package corpus

import (
	"time"

	"github.com/google/uuid"
)

// Document is a single normalized text source. Documents are immutable once
// created and are identified by their source URI.
type Document struct {
	// ID is a unique identifier for the document.
	ID string `json:"id"`

	// SourceURI is the origin of the document (file path or URL).
	SourceURI string `json:"source_uri"`

	// RawText is the normalized document text. Markup is assumed to be
	// already stripped by the fetcher.
	RawText string `json:"raw_text"`

	// FetchedAt records when the document was acquired.
	FetchedAt time.Time `json:"fetched_at"`
}

// NewDocument creates a Document with a fresh ID and the current timestamp.
func NewDocument(sourceURI, rawText string) Document {
	return Document{
		ID:        uuid.NewString(),
		SourceURI: sourceURI,
		RawText:   rawText,
		FetchedAt: time.Now().UTC(),
	}
}

// Span is a half-open rune range [Start, End) into a document's text.
type Span struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// Len returns the number of runes covered by the span.
func (s Span) Len() int { return s.End - s.Start }

// Overlap returns the number of runes shared between two spans.
func (s Span) Overlap(o Span) int {
	lo := max(s.Start, o.Start)
	hi := min(s.End, o.End)
	if hi <= lo {
		return 0
	}
	return hi - lo
}

// Fragment is a bounded slice of one document's text, the unit of retrieval.
// Fragments are immutable once produced by the chunker.
type Fragment struct {
	// ID is a unique identifier for the fragment.
	ID string `json:"id"`

	// DocumentID references the document this fragment was cut from.
	DocumentID string `json:"document_id"`

	// SourceURI is carried from the parent document for citation rendering.
	SourceURI string `json:"source_uri"`

	// Text is the fragment's text content.
	Text string `json:"text"`

	// Span is the rune range of Text within the parent document.
	Span Span `json:"span"`

	// TokenCount is the tokenizer's count for Text.
	TokenCount int `json:"token_count"`
}

// EmbeddedFragment pairs a fragment with its vector representation.
// One EmbeddedFragment exists per Fragment.
type EmbeddedFragment struct {
	Fragment Fragment `json:"fragment"`

	// Vector is the embedding of the fragment text.
	Vector []float32 `json:"vector"`

	// Norm is the precomputed L2 norm of Vector.
	Norm float32 `json:"norm"`
}

// Citation points back at the document span backing a piece of context.
type Citation struct {
	DocumentID string `json:"document_id"`
	SourceURI  string `json:"source_uri"`
	Span       Span   `json:"span"`
}
