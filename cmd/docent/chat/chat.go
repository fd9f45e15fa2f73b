// Package chatcmder provides the chat command for interactive grounded
// question answering over the indexed corpus.
package chatcmder

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/docentlabs/docent/pkg/cliui"
	"github.com/docentlabs/docent/pkg/config"
	"github.com/docentlabs/docent/pkg/corpus"
	"github.com/docentlabs/docent/pkg/llm"
	"github.com/docentlabs/docent/pkg/logger"
	"github.com/docentlabs/docent/pkg/session"
	"github.com/docentlabs/docent/pkg/setup"
	"github.com/docentlabs/docent/pkg/transcript"
)

var (
	userPrompt      = lipgloss.NewStyle().Foreground(lipgloss.Color("82")).Bold(true).Render("you> ")
	assistantPrompt = lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Render("docent> ")
	declineStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("178"))
	citationStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("241")).Italic(true)
)

const chatLongDesc string = `Start an interactive question-answering session over the indexed corpus.

Every answer is grounded in retrieved document fragments and carries
citations. When no fragment clears the relevance floor, docent declines
rather than guessing.

Examples:
  docent chat
  docent chat --citations=false`

const chatShortDesc string = "Interactive grounded Q&A over the corpus"

type chatCommander struct {
	citations bool
	debug     bool

	logger *zap.Logger
}

func NewChatCmd() *cobra.Command {
	cmder := &chatCommander{}

	cmd := &cobra.Command{
		Use:   "chat",
		Short: chatShortDesc,
		Long:  chatLongDesc,
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

			return cmder.run(cmd, cfg)
		},
	}

	cmd.Flags().BoolVar(&cmder.citations, "citations", true, "Print source citations with each answer")

	return cmd
}

func (c *chatCommander) run(cmd *cobra.Command, cfg *config.Config) error {
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

	searcher, _, err := setup.Searcher(cfg, c.logger)
	if err != nil {
		return err
	}

	rtr := setup.Retriever(cfg, embedder, searcher, c.logger)
	asm := setup.Assembler(cfg, counter)
	engine := setup.Engine(cfg, rtr, asm, generator, c.logger)
	defer engine.Close()

	var store *transcript.Store
	if cfg.Transcript.Path != "" {
		store, err = transcript.NewStore(cfg.Transcript.Path, c.logger)
		if err != nil {
			return fmt.Errorf("opening transcript store: %w", err)
		}
		defer store.Close()
	}

	fmt.Println()
	fmt.Printf("  %s %s\n",
		cliui.KeyStyle.Render("Session:"),
		cliui.NameStyle.Render(engine.ID()),
	)
	fmt.Printf("  %s %s\n\n",
		cliui.KeyStyle.Render("Model:"),
		cliui.NameStyle.Render(cfg.Generator.Model),
	)
	fmt.Printf("  %s\n\n", cliui.DimStyle.Render("Ask a question and press Enter. /exit or Ctrl+D to quit."))

	scanner := bufio.NewScanner(os.Stdin)

	for {
		fmt.Print(userPrompt)
		if !scanner.Scan() {
			break
		}

		input := strings.TrimSpace(scanner.Text())
		if input == "" {
			continue
		}
		if input == "/exit" {
			break
		}

		reply, err := engine.HandleTurn(cmd.Context(), input)
		if err != nil {
			if errors.Is(err, session.ErrRetrievalFailed) {
				fmt.Fprintf(os.Stderr, "  %s retrieval failed: %v\n\n", cliui.FailMark, err)
				continue
			}
			fmt.Fprintf(os.Stderr, "  %s %v\n\n", cliui.FailMark, err)
			continue
		}

		if reply.Declined {
			fmt.Printf("%s%s\n\n", assistantPrompt, declineStyle.Render(reply.Text))
			continue
		}

		fmt.Printf("%s%s\n", assistantPrompt, reply.Text)
		if c.citations && len(reply.Citations) > 0 {
			fmt.Println(citationStyle.Render(formatCitations(reply.Citations)))
		}
		fmt.Println()

		if store != nil {
			if err := store.Append(cmd.Context(), engine.ID(),
				llm.Message{Role: llm.RoleUser, Text: input},
				llm.Message{Role: llm.RoleAssistant, Text: reply.Text, Citations: reply.Citations},
			); err != nil {
				c.logger.Warn("transcript append failed", zap.Error(err))
			}
		}
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("reading input: %w", err)
	}

	fmt.Println()
	return nil
}

func formatCitations(citations []corpus.Citation) string {
	var b strings.Builder
	b.WriteString("  sources:")
	seen := make(map[string]bool, len(citations))
	for _, cit := range citations {
		key := fmt.Sprintf("%s[%d:%d]", cit.SourceURI, cit.Span.Start, cit.Span.End)
		if seen[key] {
			continue
		}
		seen[key] = true
		b.WriteString(" ")
		b.WriteString(key)
	}
	return b.String()
}
