// Package versioncmder prints the docent build identity.
package versioncmder

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/docentlabs/docent/pkg/utils"
)

type VersionCommander struct{}

func NewVersionCmd() *cobra.Command {
	cmder := &VersionCommander{}

	cmd := &cobra.Command{
		Use:   "version",
		Short: "displays the docent version",
		Long:  "displays the docent version, commit, and build metadata",
		RunE: func(_ *cobra.Command, _ []string) error {
			return cmder.run()
		},
	}

	return cmd
}

func (c *VersionCommander) run() error {
	fmt.Printf("docent %s\nSha: %s\nBuilt at: %s with %s\n", utils.Version, utils.Sha, utils.Buildtime, runtime.Version())
	return nil
}
