// Package assembler folds retrieved fragments into a bounded grounding
// context plus citations. Fragments are taken in descending score order,
// never truncated mid-text, and near-duplicate chunks of the same document
// region are suppressed so one passage cannot dominate the context.
package assembler

import (
	"strings"

	"github.com/docentlabs/docent/pkg/corpus"
	"github.com/docentlabs/docent/pkg/index"
	"github.com/docentlabs/docent/pkg/tokens"
)

// Defaults for context assembly.
const (
	DefaultMaxContextTokens = 2048

	// DefaultDedupeThreshold is the span-overlap fraction above which two
	// fragments of the same document are considered near-duplicates.
	DefaultDedupeThreshold = 0.6
)

// Context is an assembled grounding context. Empty distinguishes "no
// evidence retrieved" from a context that merely rendered to little text.
type Context struct {
	// Text is the concatenated fragment text handed to the generator.
	Text string

	// Citations lists the included fragments' sources, in context order.
	Citations []corpus.Citation

	// Tokens is the token count of Text under the assembler's counter.
	Tokens int

	// Empty marks the explicit no-context outcome.
	Empty bool
}

// Assembler builds contexts under a token budget.
type Assembler struct {
	maxTokens int
	threshold float64
	counter   tokens.Counter
}

// Config holds assembler construction parameters.
type Config struct {
	// MaxContextTokens bounds the assembled context size. Defaults to
	// DefaultMaxContextTokens.
	MaxContextTokens int

	// DedupeThreshold is the overlap fraction for near-duplicate
	// suppression. Defaults to DefaultDedupeThreshold when zero.
	DedupeThreshold float64

	// Counter measures fragment token counts. A nil counter falls back to
	// the heuristic one.
	Counter tokens.Counter
}

// New creates an Assembler with defaults applied.
func New(cfg Config) *Assembler {
	maxTokens := cfg.MaxContextTokens
	if maxTokens <= 0 {
		maxTokens = DefaultMaxContextTokens
	}
	threshold := cfg.DedupeThreshold
	if threshold <= 0 {
		threshold = DefaultDedupeThreshold
	}
	counter := cfg.Counter
	if counter == nil {
		counter = tokens.HeuristicCounter{}
	}
	return &Assembler{maxTokens: maxTokens, threshold: threshold, counter: counter}
}

// Assemble builds a grounding context from retrieval results. Results are
// expected (and re-usable) in descending score order; fragments are appended
// whole until the next one would exceed the token budget. Near-duplicates of
// an already-included fragment are skipped. An empty result list yields the
// explicit no-context marker.
func (a *Assembler) Assemble(results []index.Result) Context {
	if len(results) == 0 {
		return Context{Empty: true}
	}

	var (
		parts     []string
		citations []corpus.Citation
		included  []corpus.Fragment
		used      int
	)
	for _, res := range results {
		frag := res.Fragment
		if a.isDuplicate(frag, included) {
			continue
		}

		cost := frag.TokenCount
		if cost == 0 {
			cost = a.counter.Count(frag.Text)
		}
		// All-or-nothing per fragment; a fragment that does not fit whole
		// is skipped, as are all later (lower-scored) ones.
		if used+cost > a.maxTokens {
			break
		}

		parts = append(parts, frag.Text)
		citations = append(citations, corpus.Citation{
			DocumentID: frag.DocumentID,
			SourceURI:  frag.SourceURI,
			Span:       frag.Span,
		})
		included = append(included, frag)
		used += cost
	}

	if len(parts) == 0 {
		return Context{Empty: true}
	}

	return Context{
		Text:      strings.Join(parts, "\n\n---\n\n"),
		Citations: citations,
		Tokens:    used,
	}
}

// isDuplicate reports whether frag overlaps an already-included fragment of
// the same document beyond the configured threshold, measured against the
// shorter of the two spans.
func (a *Assembler) isDuplicate(frag corpus.Fragment, included []corpus.Fragment) bool {
	for _, other := range included {
		if other.DocumentID != frag.DocumentID {
			continue
		}
		overlap := frag.Span.Overlap(other.Span)
		if overlap == 0 {
			continue
		}
		shorter := min(frag.Span.Len(), other.Span.Len())
		if shorter > 0 && float64(overlap)/float64(shorter) >= a.threshold {
			return true
		}
	}
	return false
}
