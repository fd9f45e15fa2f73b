// Package docentcmder assembles the docent CLI.
package docentcmder

import (
	"github.com/spf13/cobra"

	chatcmder "github.com/docentlabs/docent/cmd/docent/chat"
	ingestcmder "github.com/docentlabs/docent/cmd/docent/ingest"
	searchcmder "github.com/docentlabs/docent/cmd/docent/search"
	servecmder "github.com/docentlabs/docent/cmd/docent/serve"
	versioncmder "github.com/docentlabs/docent/cmd/version"
)

const docentLongDesc string = `Docent answers questions strictly from a document corpus you ingest.

Build an index, then ask:
  docent ingest            Chunk, embed, and index the corpus
  docent search <query>    Inspect raw retrieval for a query
  docent chat              Interactive grounded Q&A
  docent serve             Run the HTTP API server`

const docentShortDesc string = "Docent - grounded document Q&A"

func NewDocentCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "docent",
		Short: docentShortDesc,
		Long:  docentLongDesc,
	}

	// Global flags
	cmd.PersistentFlags().BoolP("debug", "d", false, "Enable debug logging")
	cmd.PersistentFlags().String("config-dir", "", "Directory containing config.toml")

	// Add subcommands
	cmd.AddCommand(ingestcmder.NewIngestCmd())
	cmd.AddCommand(searchcmder.NewSearchCmd())
	cmd.AddCommand(chatcmder.NewChatCmd())
	cmd.AddCommand(servecmder.NewServeCmd())
	cmd.AddCommand(versioncmder.NewVersionCmd())

	return cmd
}
