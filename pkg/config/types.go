// Package config carries the persistent docent configuration, stored as
// config.toml in the config directory and layered with DOCENT_* environment
// variables and CLI flags via viper.
package config

// Config is the full docent configuration. Every knob the engine exposes,
// including the relevance floor that decides answerable vs. declining, lives
// here explicitly rather than hiding behind a backend default.
type Config struct {
	Version    int              `mapstructure:"version" toml:"version"`
	Corpus     CorpusConfig     `mapstructure:"corpus" toml:"corpus"`
	Chunking   ChunkingConfig   `mapstructure:"chunking" toml:"chunking"`
	Tokens     TokensConfig     `mapstructure:"tokens" toml:"tokens"`
	Embedding  EmbeddingConfig  `mapstructure:"embedding" toml:"embedding"`
	Generator  GeneratorConfig  `mapstructure:"generator" toml:"generator"`
	Index      IndexConfig      `mapstructure:"index" toml:"index"`
	Retrieval  RetrievalConfig  `mapstructure:"retrieval" toml:"retrieval"`
	Session    SessionConfig    `mapstructure:"session" toml:"session"`
	API        APIConfig        `mapstructure:"api" toml:"api"`
	Transcript TranscriptConfig `mapstructure:"transcript" toml:"transcript"`
}

// CorpusConfig locates the normalized document corpus.
type CorpusConfig struct {
	// Dir is the directory of normalized markdown/text files.
	Dir string `mapstructure:"dir" toml:"dir,omitempty"`

	// Watch enables rebuild-on-change for serve mode.
	Watch bool `mapstructure:"watch" toml:"watch,omitempty"`
}

// ChunkingConfig holds fragmentation parameters, in runes.
type ChunkingConfig struct {
	MaxSize int `mapstructure:"max_size" toml:"max_size,omitempty"`
	Overlap int `mapstructure:"overlap" toml:"overlap,omitempty"`
}

// TokensConfig selects the token counter.
type TokensConfig struct {
	// Encoding is a tiktoken encoding name, or "heuristic" for the
	// offline approximation.
	Encoding string `mapstructure:"encoding" toml:"encoding,omitempty"`
}

// EmbeddingConfig holds embedding backend settings.
type EmbeddingConfig struct {
	// Provider is "ollama" or "openai".
	Provider string `mapstructure:"provider" toml:"provider,omitempty"`

	// Target is the backend base URL.
	Target string `mapstructure:"target" toml:"target,omitempty"`

	// Model is the embedding model name.
	Model string `mapstructure:"model" toml:"model,omitempty"`

	// APIKey authenticates against hosted backends. Prefer setting it via
	// the DOCENT_EMBEDDING_API_KEY environment variable over the file.
	APIKey string `mapstructure:"api_key" toml:"api_key,omitempty"`
}

// GeneratorConfig holds completion backend settings.
type GeneratorConfig struct {
	// Provider is "ollama" or "openai".
	Provider string `mapstructure:"provider" toml:"provider,omitempty"`

	// Target is the backend base URL.
	Target string `mapstructure:"target" toml:"target,omitempty"`

	// Model is the chat model name.
	Model string `mapstructure:"model" toml:"model,omitempty"`

	// APIKey authenticates against hosted backends. Prefer setting it via
	// the DOCENT_GENERATOR_API_KEY environment variable over the file.
	APIKey string `mapstructure:"api_key" toml:"api_key,omitempty"`
}

// IndexConfig holds index storage settings.
type IndexConfig struct {
	// Dir is where the local index is persisted.
	Dir string `mapstructure:"dir" toml:"dir,omitempty"`

	// Metric is "cosine" or "dot".
	Metric string `mapstructure:"metric" toml:"metric,omitempty"`

	// Provider is "local" or "qdrant".
	Provider string `mapstructure:"provider" toml:"provider,omitempty"`

	// QdrantURL is the Qdrant server URL for the qdrant provider.
	QdrantURL string `mapstructure:"qdrant_url" toml:"qdrant_url,omitempty"`

	// QdrantCollection is the Qdrant collection name.
	QdrantCollection string `mapstructure:"qdrant_collection" toml:"qdrant_collection,omitempty"`

	// QdrantAPIKey authenticates against hosted Qdrant.
	QdrantAPIKey string `mapstructure:"qdrant_api_key" toml:"qdrant_api_key,omitempty"`
}

// RetrievalConfig holds the groundedness knobs.
type RetrievalConfig struct {
	// TopK caps the fragments retrieved per query.
	TopK int `mapstructure:"top_k" toml:"top_k,omitempty"`

	// Floor is the minimum similarity for a fragment to count as
	// evidence.
	Floor float64 `mapstructure:"floor" toml:"floor,omitempty"`
}

// SessionConfig holds per-conversation engine settings.
type SessionConfig struct {
	// HistoryWindow bounds the recent messages included in prompts.
	HistoryWindow int `mapstructure:"history_window" toml:"history_window,omitempty"`

	// MaxContextTokens bounds the assembled grounding context.
	MaxContextTokens int `mapstructure:"max_context_tokens" toml:"max_context_tokens,omitempty"`

	// DedupeThreshold is the span-overlap fraction for near-duplicate
	// suppression.
	DedupeThreshold float64 `mapstructure:"dedupe_threshold" toml:"dedupe_threshold,omitempty"`

	// RetryAttempts bounds retries of transient backend failures.
	RetryAttempts int `mapstructure:"retry_attempts" toml:"retry_attempts,omitempty"`
}

// APIConfig holds API server settings.
type APIConfig struct {
	Listen string `mapstructure:"listen" toml:"listen,omitempty"`
}

// TranscriptConfig holds conversation log settings.
type TranscriptConfig struct {
	// Path is the SQLite database path; empty disables the transcript.
	Path string `mapstructure:"path" toml:"path,omitempty"`
}
