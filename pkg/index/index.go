// Package index stores embedded fragments and serves exact nearest-neighbor
// retrieval over them. An index is built once from a fragment set, after
// which it is immutable and safe for concurrent reads; rebuilds are made
// visible atomically through a Handle.
package index

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/docentlabs/docent/pkg/corpus"
)

// Metric identifies the similarity measure used by an index.
type Metric string

const (
	// MetricCosine scores by cosine similarity in [-1, 1]. Default.
	MetricCosine Metric = "cosine"

	// MetricDot scores by raw dot product.
	MetricDot Metric = "dot"
)

// Result is a retrieved fragment with its similarity score. Results are
// ephemeral and never persisted.
type Result struct {
	Fragment corpus.Fragment
	Score    float32
}

// Searcher is the retrieval contract shared by the local index and remote
// backends. Implementations must return results in non-increasing score
// order with deterministic tie-breaking, and an empty slice (not an error)
// when nothing clears minScore.
type Searcher interface {
	Search(ctx context.Context, vector []float32, k int, minScore float32) ([]Result, error)
}

// Index is an immutable, exact brute-force vector index. All vectors share
// one dimensionality; scores are computed with the configured metric.
type Index struct {
	metric    Metric
	dim       int
	fragments []corpus.Fragment
	vectors   [][]float32
	norms     []float32
}

// Build constructs an index from embedded fragments. Fragment insertion
// order is preserved and serves as the search tie-break. Build fails with
// ErrEmptyCorpus for zero fragments and ErrDimensionMismatch when any two
// vectors differ in dimensionality.
func Build(embedded []corpus.EmbeddedFragment, metric Metric) (*Index, error) {
	if len(embedded) == 0 {
		return nil, ErrEmptyCorpus
	}
	if metric == "" {
		metric = MetricCosine
	}

	dim := len(embedded[0].Vector)
	idx := &Index{
		metric:    metric,
		dim:       dim,
		fragments: make([]corpus.Fragment, len(embedded)),
		vectors:   make([][]float32, len(embedded)),
		norms:     make([]float32, len(embedded)),
	}
	for i, ef := range embedded {
		if len(ef.Vector) != dim {
			return nil, fmt.Errorf("%w: fragment %s has dimension %d, index has %d",
				ErrDimensionMismatch, ef.Fragment.ID, len(ef.Vector), dim)
		}
		idx.fragments[i] = ef.Fragment
		idx.vectors[i] = ef.Vector
		norm := ef.Norm
		if norm == 0 {
			norm = l2norm(ef.Vector)
		}
		idx.norms[i] = norm
	}
	return idx, nil
}

// Dimensions returns the vector dimensionality shared by all entries.
func (idx *Index) Dimensions() int { return idx.dim }

// Metric returns the similarity metric the index scores with.
func (idx *Index) Metric() Metric { return idx.metric }

// Len returns the number of indexed fragments.
func (idx *Index) Len() int { return len(idx.fragments) }

// Export returns the index contents as embedded fragments, in insertion
// order. Used to upload a locally-built index to a remote backend.
func (idx *Index) Export() []corpus.EmbeddedFragment {
	out := make([]corpus.EmbeddedFragment, len(idx.fragments))
	for i := range idx.fragments {
		out[i] = corpus.EmbeddedFragment{
			Fragment: idx.fragments[i],
			Vector:   idx.vectors[i],
			Norm:     idx.norms[i],
		}
	}
	return out
}

// Search returns up to k fragments scoring at or above minScore, ordered by
// descending score with ties broken by fragment insertion order. It returns
// an empty slice when nothing qualifies; no evidence is a normal outcome,
// not an error. Search is read-only and safe for concurrent use.
func (idx *Index) Search(_ context.Context, vector []float32, k int, minScore float32) ([]Result, error) {
	if len(vector) != idx.dim {
		return nil, fmt.Errorf("%w: query has dimension %d, index has %d",
			ErrDimensionMismatch, len(vector), idx.dim)
	}
	if k <= 0 {
		return []Result{}, nil
	}

	queryNorm := l2norm(vector)

	type scored struct {
		pos   int
		score float32
	}
	candidates := make([]scored, 0, len(idx.vectors))
	for i, v := range idx.vectors {
		s := idx.score(v, idx.norms[i], vector, queryNorm)
		if s >= minScore {
			candidates = append(candidates, scored{pos: i, score: s})
		}
	}

	sort.Slice(candidates, func(a, b int) bool {
		if candidates[a].score != candidates[b].score {
			return candidates[a].score > candidates[b].score
		}
		return candidates[a].pos < candidates[b].pos
	})

	if len(candidates) > k {
		candidates = candidates[:k]
	}

	results := make([]Result, len(candidates))
	for i, c := range candidates {
		results[i] = Result{Fragment: idx.fragments[c.pos], Score: c.score}
	}
	return results, nil
}

func (idx *Index) score(v []float32, vnorm float32, q []float32, qnorm float32) float32 {
	d := dot(v, q)
	if idx.metric == MetricDot {
		return d
	}
	if vnorm == 0 || qnorm == 0 {
		return 0
	}
	return d / (vnorm * qnorm)
}

func dot(a, b []float32) float32 {
	var sum float32
	for i := range a {
		sum += a[i] * b[i]
	}
	return sum
}

func l2norm(v []float32) float32 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	return float32(math.Sqrt(sum))
}

var _ Searcher = (*Index)(nil)
