// Package setup constructs pipeline components from configuration. It is
// the single place provider names are mapped to implementations, shared by
// the CLI commands and the API server.
package setup

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/docentlabs/docent/pkg/assembler"
	"github.com/docentlabs/docent/pkg/chunker"
	"github.com/docentlabs/docent/pkg/config"
	"github.com/docentlabs/docent/pkg/embeddings"
	embollama "github.com/docentlabs/docent/pkg/embeddings/ollama"
	embopenai "github.com/docentlabs/docent/pkg/embeddings/openai"
	"github.com/docentlabs/docent/pkg/index"
	"github.com/docentlabs/docent/pkg/index/qdrant"
	"github.com/docentlabs/docent/pkg/llm"
	genollama "github.com/docentlabs/docent/pkg/llm/ollama"
	genopenai "github.com/docentlabs/docent/pkg/llm/openai"
	"github.com/docentlabs/docent/pkg/retriever"
	"github.com/docentlabs/docent/pkg/session"
	"github.com/docentlabs/docent/pkg/tokens"
)

// Counter builds the configured token counter.
func Counter(cfg *config.Config) (tokens.Counter, error) {
	if cfg.Tokens.Encoding == "" || cfg.Tokens.Encoding == "heuristic" {
		return tokens.HeuristicCounter{}, nil
	}
	counter, err := tokens.NewTiktokenCounter(cfg.Tokens.Encoding)
	if err != nil {
		return nil, fmt.Errorf("loading tiktoken encoding %q: %w", cfg.Tokens.Encoding, err)
	}
	return counter, nil
}

// Chunker builds the configured chunker.
func Chunker(cfg *config.Config, counter tokens.Counter) (*chunker.Chunker, error) {
	return chunker.New(cfg.Chunking.MaxSize, cfg.Chunking.Overlap, counter)
}

// Embedder builds the configured embedding backend.
func Embedder(cfg *config.Config) (embeddings.Embedder, error) {
	switch cfg.Embedding.Provider {
	case "ollama", "":
		return embollama.NewEmbedder(embollama.Config{
			BaseURL: cfg.Embedding.Target,
			Model:   cfg.Embedding.Model,
		}), nil
	case "openai":
		return embopenai.NewEmbedder(embopenai.Config{
			APIKey:  cfg.Embedding.APIKey,
			BaseURL: cfg.Embedding.Target,
			Model:   cfg.Embedding.Model,
		})
	default:
		return nil, fmt.Errorf("unknown embedding provider %q", cfg.Embedding.Provider)
	}
}

// Generator builds the configured completion backend.
func Generator(cfg *config.Config) (llm.Generator, error) {
	switch cfg.Generator.Provider {
	case "ollama", "":
		return genollama.NewGenerator(genollama.Config{
			BaseURL: cfg.Generator.Target,
			Model:   cfg.Generator.Model,
		}), nil
	case "openai":
		return genopenai.NewGenerator(genopenai.Config{
			APIKey:  cfg.Generator.APIKey,
			BaseURL: cfg.Generator.Target,
			Model:   cfg.Generator.Model,
		})
	default:
		return nil, fmt.Errorf("unknown generator provider %q", cfg.Generator.Provider)
	}
}

// Searcher builds the configured retrieval backend. The local provider
// loads the persisted index into a swappable handle; the qdrant provider
// talks to a remote collection.
func Searcher(cfg *config.Config, logger *zap.Logger) (index.Searcher, *index.Handle, error) {
	switch cfg.Index.Provider {
	case "local", "":
		idx, err := index.Load(cfg.Index.Dir)
		if err != nil {
			return nil, nil, fmt.Errorf("loading index from %s: %w", cfg.Index.Dir, err)
		}
		handle := index.NewHandle(idx)
		logger.Info("index loaded",
			zap.String("dir", cfg.Index.Dir),
			zap.Int("fragments", idx.Len()),
			zap.Int("dimensions", idx.Dimensions()),
		)
		return handle, handle, nil
	case "qdrant":
		store, err := qdrant.NewStore(qdrant.Config{
			URL:        cfg.Index.QdrantURL,
			APIKey:     cfg.Index.QdrantAPIKey,
			Collection: cfg.Index.QdrantCollection,
		}, logger)
		if err != nil {
			return nil, nil, err
		}
		return store, nil, nil
	default:
		return nil, nil, fmt.Errorf("unknown index provider %q", cfg.Index.Provider)
	}
}

// Retriever builds a retriever over the given embedder and searcher.
func Retriever(cfg *config.Config, embedder embeddings.Embedder, searcher index.Searcher, logger *zap.Logger) *retriever.Retriever {
	floor := float32(cfg.Retrieval.Floor)
	return retriever.New(retriever.Config{
		Embedder: embedder,
		Searcher: searcher,
		TopK:     cfg.Retrieval.TopK,
		Floor:    &floor,
		Logger:   logger,
	})
}

// Assembler builds a context assembler with the configured budget.
func Assembler(cfg *config.Config, counter tokens.Counter) *assembler.Assembler {
	return assembler.New(assembler.Config{
		MaxContextTokens: cfg.Session.MaxContextTokens,
		DedupeThreshold:  cfg.Session.DedupeThreshold,
		Counter:          counter,
	})
}

// Engine builds a session engine over fully-constructed collaborators.
func Engine(cfg *config.Config, rtr *retriever.Retriever, asm *assembler.Assembler, gen llm.Generator, logger *zap.Logger) *session.Engine {
	return session.NewEngine(session.Config{
		Retriever:     rtr,
		Assembler:     asm,
		Generator:     gen,
		HistoryWindow: cfg.Session.HistoryWindow,
		Retry: session.RetryConfig{
			Attempts:  cfg.Session.RetryAttempts,
			BaseDelay: 200 * time.Millisecond,
		},
		Logger: logger,
	})
}
