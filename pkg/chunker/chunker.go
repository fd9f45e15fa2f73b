// Package chunker splits normalized document text into overlapping fragments
// suitable for embedding and retrieval.
package chunker

import (
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/docentlabs/docent/pkg/corpus"
	"github.com/docentlabs/docent/pkg/tokens"
)

// ErrInvalidConfig is returned for chunking parameters that can never
// produce a valid fragmentation.
var ErrInvalidConfig = errors.New("invalid chunker config")

// Default chunking parameters, in runes.
const (
	DefaultMaxSize = 1200
	DefaultOverlap = 200
)

// Chunker cuts documents into fragments of at most MaxSize runes where
// adjacent fragments share exactly Overlap runes (except possibly the last
// pair). Output is deterministic: the same document and parameters always
// yield byte-identical fragment boundaries.
type Chunker struct {
	maxSize int
	overlap int
	counter tokens.Counter
}

// New validates the parameters and returns a Chunker. The counter supplies
// per-fragment token counts; a nil counter falls back to the heuristic one.
func New(maxSize, overlap int, counter tokens.Counter) (*Chunker, error) {
	if maxSize <= 0 {
		return nil, fmt.Errorf("%w: max size %d must be positive", ErrInvalidConfig, maxSize)
	}
	if overlap < 0 || overlap >= maxSize {
		return nil, fmt.Errorf("%w: overlap %d must satisfy 0 <= overlap < max size %d", ErrInvalidConfig, overlap, maxSize)
	}
	if counter == nil {
		counter = tokens.HeuristicCounter{}
	}
	return &Chunker{maxSize: maxSize, overlap: overlap, counter: counter}, nil
}

// Chunk splits the document into fragments. Every rune of the document text
// belongs to at least one fragment; adjacent fragments overlap by exactly the
// configured overlap except possibly at the tail. An empty document yields no
// fragments.
func (c *Chunker) Chunk(doc corpus.Document) []corpus.Fragment {
	text := []rune(doc.RawText)
	if len(text) == 0 {
		return nil
	}

	step := c.maxSize - c.overlap
	var frags []corpus.Fragment
	for start := 0; ; start += step {
		end := start + c.maxSize
		if end > len(text) {
			end = len(text)
		}
		frag := string(text[start:end])
		frags = append(frags, corpus.Fragment{
			ID:         uuid.NewString(),
			DocumentID: doc.ID,
			SourceURI:  doc.SourceURI,
			Text:       frag,
			Span:       corpus.Span{Start: start, End: end},
			TokenCount: c.counter.Count(frag),
		})
		if end == len(text) {
			break
		}
	}
	return frags
}
