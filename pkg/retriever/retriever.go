// Package retriever turns a natural-language query into ranked fragment
// retrieval: it embeds the query and delegates to a Searcher. The retriever
// owns the single authoritative relevance floor that decides whether a
// question is answerable from the corpus.
package retriever

import (
	"context"

	"go.uber.org/zap"

	"github.com/docentlabs/docent/pkg/embeddings"
	"github.com/docentlabs/docent/pkg/index"
)

// Retrieval defaults. The floor is deliberately explicit and tunable rather
// than a hidden backend default: it is the groundedness guarantee.
const (
	DefaultTopK  = 4
	DefaultFloor = 0.75
)

// Retriever is a stateless query-to-fragments pipeline. It holds no
// ownership over the searcher or session lifetimes.
type Retriever struct {
	embedder embeddings.Embedder
	searcher index.Searcher
	topK     int
	floor    float32
	logger   *zap.Logger
}

// Config holds retriever construction parameters.
type Config struct {
	// Embedder embeds query text. Required.
	Embedder embeddings.Embedder

	// Searcher serves nearest-neighbor lookups. Required.
	Searcher index.Searcher

	// TopK is the result cap. Defaults to DefaultTopK.
	TopK int

	// Floor is the minimum similarity for a fragment to count as evidence.
	// Nil means DefaultFloor; an explicit floor of zero (or below, since
	// cosine scores span [-1, 1]) is honored as given.
	Floor *float32

	// Logger is the zap logger. Required.
	Logger *zap.Logger
}

// New creates a Retriever with defaults applied.
func New(cfg Config) *Retriever {
	topK := cfg.TopK
	if topK <= 0 {
		topK = DefaultTopK
	}
	floor := float32(DefaultFloor)
	if cfg.Floor != nil {
		floor = *cfg.Floor
	}
	return &Retriever{
		embedder: cfg.Embedder,
		searcher: cfg.Searcher,
		topK:     topK,
		floor:    floor,
		logger:   cfg.Logger,
	}
}

// TopK returns the configured result cap.
func (r *Retriever) TopK() int { return r.topK }

// Floor returns the configured relevance floor.
func (r *Retriever) Floor() float32 { return r.floor }

// Retrieve embeds the query and returns the top-K fragments at or above the
// floor, in descending score order. An empty result means no evidence, not
// failure. Errors are the embedder's or searcher's own; retrieval adds no
// error kinds of its own.
func (r *Retriever) Retrieve(ctx context.Context, query string) ([]index.Result, error) {
	vec, err := r.embedder.Embed(ctx, query)
	if err != nil {
		return nil, err
	}

	results, err := r.searcher.Search(ctx, vec, r.topK, r.floor)
	if err != nil {
		return nil, err
	}

	r.logger.Debug("retrieval complete",
		zap.String("query", query),
		zap.Int("top_k", r.topK),
		zap.Float32("floor", r.floor),
		zap.Int("results", len(results)),
	)
	return results, nil
}
