package main

import (
	"os"

	docentcmder "github.com/docentlabs/docent/cmd/docent"
)

func main() {
	cmd := docentcmder.NewDocentCmd()
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
