// Package ingestcmder provides the ingest command: chunk, embed, and index
// the corpus, then persist the result.
package ingestcmder

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/docentlabs/docent/pkg/cliui"
	"github.com/docentlabs/docent/pkg/config"
	"github.com/docentlabs/docent/pkg/corpus"
	"github.com/docentlabs/docent/pkg/fetcher"
	"github.com/docentlabs/docent/pkg/index"
	"github.com/docentlabs/docent/pkg/index/qdrant"
	"github.com/docentlabs/docent/pkg/ingest"
	"github.com/docentlabs/docent/pkg/logger"
	"github.com/docentlabs/docent/pkg/setup"
)

const ingestLongDesc string = `Build the retrieval index from the corpus directory.

Every markdown/text file under the corpus directory becomes a document;
documents are chunked into overlapping fragments, embedded, and indexed.
The finished index replaces any previous one atomically.

Examples:
  docent ingest
  docent ingest --corpus-dir docs/ --index-dir .docent/index`

const ingestShortDesc string = "Build the retrieval index from the corpus"

type ingestCommander struct {
	corpusDir string
	indexDir  string
	debug     bool

	logger *zap.Logger
}

func NewIngestCmd() *cobra.Command {
	cmder := &ingestCommander{}

	cmd := &cobra.Command{
		Use:   "ingest",
		Short: ingestShortDesc,
		Long:  ingestLongDesc,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var err error
			cmder.debug, err = cmd.Flags().GetBool("debug")
			if err != nil {
				return fmt.Errorf("could not get debug flag: %w", err)
			}
			cmder.logger = logger.New(cmder.debug)
			defer cmder.logger.Sync()

			configDir, _ := cmd.Flags().GetString("config-dir")
			cfg, err := config.Load(configDir)
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}

			if cmder.corpusDir != "" {
				cfg.Corpus.Dir = cmder.corpusDir
			}
			if cmder.indexDir != "" {
				cfg.Index.Dir = cmder.indexDir
			}

			return cmder.run(cmd, cfg)
		},
	}

	cmd.Flags().StringVar(&cmder.corpusDir, "corpus-dir", "", "Corpus directory (overrides config)")
	cmd.Flags().StringVar(&cmder.indexDir, "index-dir", "", "Index output directory (overrides config)")

	return cmd
}

func (c *ingestCommander) run(cmd *cobra.Command, cfg *config.Config) error {
	counter, err := setup.Counter(cfg)
	if err != nil {
		return err
	}
	chk, err := setup.Chunker(cfg, counter)
	if err != nil {
		return err
	}
	embedder, err := setup.Embedder(cfg)
	if err != nil {
		return err
	}
	defer embedder.Close()

	var docs []corpus.Document
	if err := cliui.Step(os.Stdout, fmt.Sprintf("Reading corpus from %s", cfg.Corpus.Dir), func() error {
		var ferr error
		docs, ferr = fetcher.FromDir(cfg.Corpus.Dir)
		return ferr
	}); err != nil {
		return err
	}

	pipeline := ingest.NewPipeline(ingest.Config{
		Chunker:  chk,
		Embedder: embedder,
		Metric:   index.Metric(cfg.Index.Metric),
		Logger:   c.logger,
	})

	var idx *index.Index
	if err := cliui.Step(os.Stdout, "Chunking and embedding", func() error {
		var berr error
		idx, berr = pipeline.Build(cmd.Context(), docs)
		return berr
	}); err != nil {
		return err
	}

	switch cfg.Index.Provider {
	case "qdrant":
		store, err := qdrant.NewStore(qdrant.Config{
			URL:        cfg.Index.QdrantURL,
			APIKey:     cfg.Index.QdrantAPIKey,
			Collection: cfg.Index.QdrantCollection,
		}, c.logger)
		if err != nil {
			return err
		}
		if err := cliui.Step(os.Stdout, "Uploading to Qdrant", func() error {
			ctx := cmd.Context()
			if err := store.Clear(ctx, idx.Dimensions()); err != nil {
				return err
			}
			return store.Upsert(ctx, idx.Export())
		}); err != nil {
			return err
		}
	default:
		if err := cliui.Step(os.Stdout, fmt.Sprintf("Persisting index to %s", cfg.Index.Dir), func() error {
			return idx.Persist(cfg.Index.Dir)
		}); err != nil {
			return err
		}
	}

	fmt.Printf("\nIndexed %d fragments from %d documents (%d dimensions, %s)\n",
		idx.Len(), len(docs), idx.Dimensions(), idx.Metric())
	return nil
}
