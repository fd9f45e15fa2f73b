// Package servecmder provides the serve command for running the docent API
// server over an indexed corpus.
package servecmder

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/docentlabs/docent/api"
	"github.com/docentlabs/docent/pkg/config"
	"github.com/docentlabs/docent/pkg/index"
	"github.com/docentlabs/docent/pkg/ingest"
	"github.com/docentlabs/docent/pkg/logger"
	"github.com/docentlabs/docent/pkg/session"
	"github.com/docentlabs/docent/pkg/setup"
	"github.com/docentlabs/docent/pkg/transcript"
)

const serveLongDesc string = `Run the docent HTTP API server.

Serves search and chat endpoints over the indexed corpus. With corpus
watching enabled, edits to the corpus directory trigger a background index
rebuild; the running index keeps serving until the replacement is ready.

Examples:
  docent serve
  docent serve --listen :9000
  docent serve --watch`

const serveShortDesc string = "Run the docent API server"

type serveCommander struct {
	listenAddr string
	watch      bool
	debug      bool

	logger *zap.Logger
}

func NewServeCmd() *cobra.Command {
	cmder := &serveCommander{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: serveShortDesc,
		Long:  serveLongDesc,
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
			if cmd.Flags().Changed("listen") {
				cfg.API.Listen = cmder.listenAddr
			}
			if cmd.Flags().Changed("watch") {
				cfg.Corpus.Watch = cmder.watch
			}

			return cmder.run(cmd.Context(), cfg)
		},
	}

	cmd.Flags().StringVarP(&cmder.listenAddr, "listen", "l", "", "Listen address (overrides config)")
	cmd.Flags().BoolVarP(&cmder.watch, "watch", "w", false, "Rebuild the index when the corpus directory changes")

	return cmd
}

func (c *serveCommander) run(ctx context.Context, cfg *config.Config) error {
	embedder, err := setup.Embedder(cfg)
	if err != nil {
		return err
	}
	defer embedder.Close()

	generator, err := setup.Generator(cfg)
	if err != nil {
		return err
	}
	defer generator.Close()

	counter, err := setup.Counter(cfg)
	if err != nil {
		return err
	}

	searcher, handle, err := setup.Searcher(cfg, c.logger)
	if err != nil {
		return err
	}

	rtr := setup.Retriever(cfg, embedder, searcher, c.logger)
	asm := setup.Assembler(cfg, counter)

	var store *transcript.Store
	if cfg.Transcript.Path != "" {
		store, err = transcript.NewStore(cfg.Transcript.Path, c.logger)
		if err != nil {
			return fmt.Errorf("opening transcript store: %w", err)
		}
		defer store.Close()
	}

	apiServer := api.NewServer(api.Config{
		ListenAddr:    cfg.API.Listen,
		Retriever:     rtr,
		Assembler:     asm,
		Generator:     generator,
		HistoryWindow: cfg.Session.HistoryWindow,
		Retry:         session.RetryConfig{Attempts: cfg.Session.RetryAttempts},
		Transcript:    store,
	}, c.logger)
	defer func() { _ = apiServer.Shutdown() }()

	watchCtx, cancelWatch := context.WithCancel(ctx)
	defer cancelWatch()

	errChan := make(chan error, 2)

	if cfg.Corpus.Watch {
		if handle == nil {
			return errors.New("corpus watching requires the local index provider")
		}

		chk, err := setup.Chunker(cfg, counter)
		if err != nil {
			return err
		}
		pipeline := ingest.NewPipeline(ingest.Config{
			Chunker:  chk,
			Embedder: embedder,
			Metric:   index.Metric(cfg.Index.Metric),
			Logger:   c.logger,
		})

		watcher, err := ingest.NewWatcher(ingest.WatcherConfig{
			Dir:        cfg.Corpus.Dir,
			Pipeline:   pipeline,
			Handle:     handle,
			PersistDir: cfg.Index.Dir,
			Logger:     c.logger,
		})
		if err != nil {
			return fmt.Errorf("watching corpus dir %s: %w", cfg.Corpus.Dir, err)
		}
		defer watcher.Close()

		go func() {
			if err := watcher.Run(watchCtx); err != nil && !errors.Is(err, context.Canceled) {
				errChan <- fmt.Errorf("corpus watcher: %w", err)
			}
		}()
		c.logger.Info("watching corpus", zap.String("dir", cfg.Corpus.Dir))
	}

	go func() {
		if err := apiServer.Run(); err != nil {
			errChan <- fmt.Errorf("api error: %w", err)
		}
	}()
	c.logger.Info("docent serving", zap.String("listen", cfg.API.Listen))

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errChan:
		return err
	case <-sigChan:
		c.logger.Info("shutting down")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
