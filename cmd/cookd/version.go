package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cookdaemon/cookd/internal/cmdsupport"
	"github.com/cookdaemon/cookd/internal/cookd"
)

func versionMain(_ *cobra.Command, _ []string) error {
	fmt.Println(cookd.Version)
	return nil
}

var versionCommand = &cobra.Command{
	Use:          "version",
	Short:        "Show version information",
	Args:         cmdsupport.DisallowArguments,
	RunE:         versionMain,
	SilenceUsage: true,
}
