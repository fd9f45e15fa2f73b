package testutils

import (
	"context"
	"fmt"

	"github.com/docentlabs/docent/pkg/embeddings"
)

// MockEmbedder is a test embedder that returns predictable embeddings.
type MockEmbedder struct {
	// Embeddings maps input text to the vector to return.
	Embeddings map[string][]float32

	// Default is returned for any text without an entry. Defaults to a
	// three-dimensional vector when nil.
	Default []float32

	// FailOn causes Embed to fail with embeddings.ErrUnavailable when the
	// input text matches.
	FailOn string

	// FailuresLeft, when positive, fails every call while counting down.
	// Used to exercise retry paths.
	FailuresLeft int

	// Calls counts individual texts embedded.
	Calls int
}

func NewMockEmbedder() *MockEmbedder {
	return &MockEmbedder{
		Embeddings: make(map[string][]float32),
		Default:    []float32{0.1, 0.2, 0.3},
	}
}

func (m *MockEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	m.Calls++
	if m.FailuresLeft > 0 {
		m.FailuresLeft--
		return nil, fmt.Errorf("%w: mock outage", embeddings.ErrUnavailable)
	}
	if m.FailOn != "" && text == m.FailOn {
		return nil, fmt.Errorf("%w: mock failure for %q", embeddings.ErrUnavailable, text)
	}
	if emb, ok := m.Embeddings[text]; ok {
		return emb, nil
	}
	return m.Default, nil
}

func (m *MockEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	vecs := make([][]float32, len(texts))
	for i, t := range texts {
		v, err := m.Embed(ctx, t)
		if err != nil {
			return nil, err
		}
		vecs[i] = v
	}
	return vecs, nil
}

func (m *MockEmbedder) Close() error {
	return nil
}

var _ embeddings.Embedder = (*MockEmbedder)(nil)
