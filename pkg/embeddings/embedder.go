// Package embeddings provides text embedding capabilities for the docent
// pipeline. Backends are pluggable; all vectors produced by one embedder
// share a fixed dimensionality.
package embeddings

import (
	"context"
	"errors"
)

// ErrUnavailable is returned when the embedding backend cannot be reached or
// loaded. It is transient: callers retry with bounded backoff rather than
// treating it as fatal.
var ErrUnavailable = errors.New("embedding backend unavailable")

// Embedder maps text to fixed-dimension vectors.
type Embedder interface {
	// Embed converts text into a vector embedding.
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch converts texts into vectors, same order as the input.
	// Batching is purely a performance concern: results are identical to
	// calling Embed element-wise.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// Close releases any resources held by the embedder.
	Close() error
}
