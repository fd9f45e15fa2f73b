// Package ingest builds a servable index out of a document set: documents
// are chunked, the fragments embedded by a bounded worker pool, and the
// result assembled into an index. A rebuild never disturbs a serving index;
// the finished replacement is published through an index.Handle swap.
package ingest

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/docentlabs/docent/pkg/chunker"
	"github.com/docentlabs/docent/pkg/corpus"
	"github.com/docentlabs/docent/pkg/embeddings"
	"github.com/docentlabs/docent/pkg/index"
)

// Pool defaults.
const (
	DefaultNumWorkers = 3
	DefaultBatchSize  = 16
)

// Pipeline builds indexes from documents.
type Pipeline struct {
	chunker    *chunker.Chunker
	embedder   embeddings.Embedder
	metric     index.Metric
	numWorkers int
	batchSize  int
	logger     *zap.Logger
}

// Config holds pipeline construction parameters.
type Config struct {
	// Chunker cuts documents into fragments. Required.
	Chunker *chunker.Chunker

	// Embedder embeds fragment batches. Required.
	Embedder embeddings.Embedder

	// Metric is the similarity metric for the built index. Defaults to
	// cosine.
	Metric index.Metric

	// NumWorkers is the number of concurrent embedding workers. Defaults
	// to DefaultNumWorkers.
	NumWorkers int

	// BatchSize is the number of fragments per embedding call. Defaults
	// to DefaultBatchSize.
	BatchSize int

	// Logger is the zap logger. Required.
	Logger *zap.Logger
}

// NewPipeline creates a Pipeline with defaults applied.
func NewPipeline(cfg Config) *Pipeline {
	numWorkers := cfg.NumWorkers
	if numWorkers <= 0 {
		numWorkers = DefaultNumWorkers
	}
	batchSize := cfg.BatchSize
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	metric := cfg.Metric
	if metric == "" {
		metric = index.MetricCosine
	}
	return &Pipeline{
		chunker:    cfg.Chunker,
		embedder:   cfg.Embedder,
		metric:     metric,
		numWorkers: numWorkers,
		batchSize:  batchSize,
		logger:     cfg.Logger,
	}
}

// batch is a unit of embedding work: a contiguous fragment range.
type batch struct {
	start int
	frags []corpus.Fragment
}

// Build chunks the documents, embeds all fragments, and constructs an
// index. Fragment order follows document order, so repeated builds over the
// same corpus index fragments in the same sequence. Build fails with
// index.ErrEmptyCorpus when the documents yield no fragments.
func (p *Pipeline) Build(ctx context.Context, docs []corpus.Document) (*index.Index, error) {
	var fragments []corpus.Fragment
	for _, doc := range docs {
		fragments = append(fragments, p.chunker.Chunk(doc)...)
	}
	if len(fragments) == 0 {
		return nil, index.ErrEmptyCorpus
	}

	p.logger.Info("embedding corpus",
		zap.Int("documents", len(docs)),
		zap.Int("fragments", len(fragments)),
		zap.Int("workers", p.numWorkers),
	)

	embedded, err := p.embedAll(ctx, fragments)
	if err != nil {
		return nil, err
	}

	idx, err := index.Build(embedded, p.metric)
	if err != nil {
		return nil, err
	}

	p.logger.Info("index built",
		zap.Int("fragments", idx.Len()),
		zap.Int("dimensions", idx.Dimensions()),
		zap.String("metric", string(idx.Metric())),
	)
	return idx, nil
}

// embedAll embeds fragments in batches across the worker pool, preserving
// fragment order in the output.
func (p *Pipeline) embedAll(ctx context.Context, fragments []corpus.Fragment) ([]corpus.EmbeddedFragment, error) {
	embedded := make([]corpus.EmbeddedFragment, len(fragments))

	jobs := make(chan batch)
	errs := make(chan error, p.numWorkers)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var wg sync.WaitGroup
	wg.Add(p.numWorkers)
	for i := 0; i < p.numWorkers; i++ {
		go func() {
			defer wg.Done()
			for b := range jobs {
				texts := make([]string, len(b.frags))
				for j, f := range b.frags {
					texts[j] = f.Text
				}
				vecs, err := p.embedder.EmbedBatch(ctx, texts)
				if err != nil {
					select {
					case errs <- fmt.Errorf("embedding batch at %d: %w", b.start, err):
					default:
					}
					cancel()
					return
				}
				for j, f := range b.frags {
					embedded[b.start+j] = corpus.EmbeddedFragment{
						Fragment: f,
						Vector:   vecs[j],
					}
				}
			}
		}()
	}

dispatch:
	for start := 0; start < len(fragments); start += p.batchSize {
		end := start + p.batchSize
		if end > len(fragments) {
			end = len(fragments)
		}
		select {
		case jobs <- batch{start: start, frags: fragments[start:end]}:
		case <-ctx.Done():
			break dispatch
		}
	}
	close(jobs)
	wg.Wait()

	select {
	case err := <-errs:
		return nil, err
	default:
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return embedded, nil
}
