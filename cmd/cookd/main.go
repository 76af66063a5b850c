// Command cookd is the build/cooking daemon's CLI entry point: a thin
// Cobra shell (mirroring the teacher's cmd/mutagen command tree) around
// the filesystem indexing engine in internal/engine.
package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/cookdaemon/cookd/internal/cmdsupport"
)

func rootMain(command *cobra.Command, _ []string) error {
	return command.Help()
}

var rootCommand = &cobra.Command{
	Use:          "cookd",
	Short:        "cookd watches repos and keeps their cooking commands up to date",
	RunE:         rootMain,
	SilenceUsage: true,
}

func init() {
	cobra.EnableCommandSorting = false

	rootCommand.AddCommand(
		runCommand,
		statusCommand,
		addRepoCommand,
		versionCommand,
	)
}

func main() {
	if err := rootCommand.Execute(); err != nil {
		cmdsupport.Fatal(err)
	}
	os.Exit(0)
}
