package index

import "errors"

var (
	// ErrEmptyCorpus is returned when building an index from zero fragments.
	ErrEmptyCorpus = errors.New("empty corpus")

	// ErrDimensionMismatch is returned when vectors of differing
	// dimensionality are mixed in one index.
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")

	// ErrCorruptIndex is returned when a persisted index cannot be loaded
	// because its manifest, records, or vector data are missing or
	// inconsistent.
	ErrCorruptIndex = errors.New("corrupt index")
)
