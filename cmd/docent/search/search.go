// Package searchcmder provides the search command for inspecting raw
// retrieval against the index: which fragments clear the floor for a query,
// and with what scores.
package searchcmder

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/docentlabs/docent/pkg/config"
	"github.com/docentlabs/docent/pkg/logger"
	"github.com/docentlabs/docent/pkg/setup"
)

var (
	scoreStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("82")).Bold(true)
	sourceStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
)

const searchLongDesc string = `Run a retrieval query against the index and print the qualifying fragments.

An empty result list means no fragment cleared the relevance floor: the same
condition that makes chat decline.

Examples:
  docent search "What is Snowpark?"
  docent search --top-k 8 --floor 0.6 "data pipelines"`

const searchShortDesc string = "Inspect raw retrieval for a query"

type searchCommander struct {
	topK  int
	floor float64
	debug bool

	logger *zap.Logger
}

func NewSearchCmd() *cobra.Command {
	cmder := &searchCommander{}

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: searchShortDesc,
		Long:  searchLongDesc,
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
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
			if cmd.Flags().Changed("top-k") {
				cfg.Retrieval.TopK = cmder.topK
			}
			if cmd.Flags().Changed("floor") {
				cfg.Retrieval.Floor = cmder.floor
			}

			return cmder.run(cmd, cfg, strings.Join(args, " "))
		},
	}

	cmd.Flags().IntVar(&cmder.topK, "top-k", 0, "Maximum fragments to return (overrides config)")
	cmd.Flags().Float64Var(&cmder.floor, "floor", 0, "Relevance floor (overrides config)")

	return cmd
}

func (c *searchCommander) run(cmd *cobra.Command, cfg *config.Config, query string) error {
	embedder, err := setup.Embedder(cfg)
	if err != nil {
		return err
	}
	defer embedder.Close()

	searcher, _, err := setup.Searcher(cfg, c.logger)
	if err != nil {
		return err
	}

	rtr := setup.Retriever(cfg, embedder, searcher, c.logger)

	results, err := rtr.Retrieve(cmd.Context(), query)
	if err != nil {
		return err
	}

	if len(results) == 0 {
		fmt.Printf("No fragments at or above floor %.2f\n", rtr.Floor())
		return nil
	}

	for i, res := range results {
		fmt.Printf("%d. %s %s\n", i+1,
			scoreStyle.Render(fmt.Sprintf("%.4f", res.Score)),
			sourceStyle.Render(fmt.Sprintf("%s [%d:%d]", res.Fragment.SourceURI, res.Fragment.Span.Start, res.Fragment.Span.End)),
		)
		fmt.Printf("   %s\n\n", preview(res.Fragment.Text, 200))
	}
	return nil
}

func preview(text string, limit int) string {
	text = strings.Join(strings.Fields(text), " ")
	runes := []rune(text)
	if len(runes) <= limit {
		return text
	}
	return string(runes[:limit]) + "…"
}
