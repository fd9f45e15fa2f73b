package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Load builds the effective configuration for configDir.
//
// Precedence (highest to lowest):
//  1. Environment variables (DOCENT_RETRIEVAL_FLOOR, DOCENT_API_LISTEN, ...)
//  2. config.toml values from configDir
//  3. Defaults from NewDefaultConfig()
//
// An empty configDir reads config.toml from the working directory if
// present; a missing config file is not an error.
func Load(configDir string) (*Config, error) {
	v, err := InitViper(configDir)
	if err != nil {
		return nil, err
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}
	return cfg, nil
}

// InitViper creates and returns a configured *viper.Viper with defaults,
// config file discovery, and DOCENT_* environment binding applied.
func InitViper(configDir string) (*viper.Viper, error) {
	v := viper.New()

	setViperDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("toml")
	if configDir != "" {
		v.AddConfigPath(configDir)
	} else {
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		// Config file not found errors are fine, defaults will apply.
		if !errors.As(err, &viper.ConfigFileNotFoundError{}) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	v.SetEnvPrefix("DOCENT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return v, nil
}

// setViperDefaults registers defaults from NewDefaultConfig() into viper
// using dotted-key notation, keeping defaults.go the single source of truth.
func setViperDefaults(v *viper.Viper) {
	def := NewDefaultConfig()

	v.SetDefault("version", def.Version)
	v.SetDefault("corpus.dir", def.Corpus.Dir)
	v.SetDefault("corpus.watch", def.Corpus.Watch)
	v.SetDefault("chunking.max_size", def.Chunking.MaxSize)
	v.SetDefault("chunking.overlap", def.Chunking.Overlap)
	v.SetDefault("tokens.encoding", def.Tokens.Encoding)
	v.SetDefault("embedding.provider", def.Embedding.Provider)
	v.SetDefault("embedding.target", def.Embedding.Target)
	v.SetDefault("embedding.model", def.Embedding.Model)
	v.SetDefault("embedding.api_key", def.Embedding.APIKey)
	v.SetDefault("generator.provider", def.Generator.Provider)
	v.SetDefault("generator.target", def.Generator.Target)
	v.SetDefault("generator.model", def.Generator.Model)
	v.SetDefault("generator.api_key", def.Generator.APIKey)
	v.SetDefault("index.dir", def.Index.Dir)
	v.SetDefault("index.metric", def.Index.Metric)
	v.SetDefault("index.provider", def.Index.Provider)
	v.SetDefault("index.qdrant_url", def.Index.QdrantURL)
	v.SetDefault("index.qdrant_collection", def.Index.QdrantCollection)
	v.SetDefault("index.qdrant_api_key", def.Index.QdrantAPIKey)
	v.SetDefault("retrieval.top_k", def.Retrieval.TopK)
	v.SetDefault("retrieval.floor", def.Retrieval.Floor)
	v.SetDefault("session.history_window", def.Session.HistoryWindow)
	v.SetDefault("session.max_context_tokens", def.Session.MaxContextTokens)
	v.SetDefault("session.dedupe_threshold", def.Session.DedupeThreshold)
	v.SetDefault("session.retry_attempts", def.Session.RetryAttempts)
	v.SetDefault("api.listen", def.API.Listen)
	v.SetDefault("transcript.path", def.Transcript.Path)
}
