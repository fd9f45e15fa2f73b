package testutils

import (
	"context"

	"github.com/docentlabs/docent/pkg/index"
)

// MockSearcher is a test searcher serving canned results.
type MockSearcher struct {
	// Results are returned from Search, already score-ordered.
	Results []index.Result

	// Err, when set, fails every Search call.
	Err error
}

func NewMockSearcher() *MockSearcher {
	return &MockSearcher{}
}

func (m *MockSearcher) Search(_ context.Context, _ []float32, k int, minScore float32) ([]index.Result, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	out := make([]index.Result, 0, k)
	for _, r := range m.Results {
		if r.Score >= minScore && len(out) < k {
			out = append(out, r)
		}
	}
	return out, nil
}

var _ index.Searcher = (*MockSearcher)(nil)
