package index

import (
	"context"
	"errors"
	"sync/atomic"
)

// ErrNoIndex is returned by a Handle that has not been given an index yet.
var ErrNoIndex = errors.New("no index loaded")

// Handle is a swappable reference to the currently served index. Searches
// always hit a fully-built index: a rebuild constructs the replacement off
// to the side and publishes it with a single atomic pointer swap, so readers
// never observe a partial index.
type Handle struct {
	current atomic.Pointer[Index]
}

// NewHandle creates a handle serving idx. A nil idx is allowed; searches
// fail with ErrNoIndex until Swap installs one.
func NewHandle(idx *Index) *Handle {
	h := &Handle{}
	if idx != nil {
		h.current.Store(idx)
	}
	return h
}

// Swap atomically replaces the served index and returns the previous one.
func (h *Handle) Swap(idx *Index) *Index {
	return h.current.Swap(idx)
}

// Current returns the currently served index, or nil.
func (h *Handle) Current() *Index {
	return h.current.Load()
}

// Search delegates to the currently served index.
func (h *Handle) Search(ctx context.Context, vector []float32, k int, minScore float32) ([]Result, error) {
	idx := h.current.Load()
	if idx == nil {
		return nil, ErrNoIndex
	}
	return idx.Search(ctx, vector, k, minScore)
}

var _ Searcher = (*Handle)(nil)
