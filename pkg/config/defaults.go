package config

import (
	"github.com/docentlabs/docent/pkg/assembler"
	"github.com/docentlabs/docent/pkg/chunker"
	"github.com/docentlabs/docent/pkg/retriever"
	"github.com/docentlabs/docent/pkg/session"
)

// NewDefaultConfig returns the configuration used when no file, environment
// variable, or flag overrides a value.
func NewDefaultConfig() *Config {
	return &Config{
		Version: 1,
		Corpus: CorpusConfig{
			Dir: "corpus",
		},
		Chunking: ChunkingConfig{
			MaxSize: chunker.DefaultMaxSize,
			Overlap: chunker.DefaultOverlap,
		},
		Tokens: TokensConfig{
			Encoding: "heuristic",
		},
		Embedding: EmbeddingConfig{
			Provider: "ollama",
			Target:   "http://localhost:11434",
			Model:    "nomic-embed-text",
		},
		Generator: GeneratorConfig{
			Provider: "ollama",
			Target:   "http://localhost:11434",
			Model:    "llama3.2",
		},
		Index: IndexConfig{
			Dir:              ".docent/index",
			Metric:           "cosine",
			Provider:         "local",
			QdrantCollection: "docent",
		},
		Retrieval: RetrievalConfig{
			TopK:  retriever.DefaultTopK,
			Floor: retriever.DefaultFloor,
		},
		Session: SessionConfig{
			HistoryWindow:    session.DefaultHistoryWindow,
			MaxContextTokens: assembler.DefaultMaxContextTokens,
			DedupeThreshold:  assembler.DefaultDedupeThreshold,
			RetryAttempts:    session.DefaultRetryAttempts,
		},
		API: APIConfig{
			Listen: ":8377",
		},
		Transcript: TranscriptConfig{
			Path: "",
		},
	}
}
