package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/cookdaemon/cookd/internal/daemon"
	"github.com/cookdaemon/cookd/internal/ipc"
)

var addRepoConfiguration struct {
	drive string
}

func addRepoMain(_ *cobra.Command, arguments []string) error {
	if len(arguments) != 2 {
		return fmt.Errorf("add-repo requires exactly two arguments: <name> <path>")
	}
	name, path := arguments[0], arguments[1]

	conn, err := daemon.DialTimeout(5 * time.Second)
	if err != nil {
		return fmt.Errorf("unable to connect to daemon (is it running?): %w", err)
	}
	defer conn.Close()

	resp, err := ipc.Call(conn, ipc.Request{
		Command: "add-repo",
		Args: map[string]string{
			"drive": addRepoConfiguration.drive,
			"name":  name,
			"path":  path,
		},
	})
	if err != nil {
		return fmt.Errorf("unable to add repo: %w", err)
	}
	if !resp.OK {
		return fmt.Errorf("daemon reported an error: %s", resp.Error)
	}

	fmt.Printf("Added repo %q at %q\n", name, path)
	return nil
}

var addRepoCommand = &cobra.Command{
	Use:          "add-repo <name> <path>",
	Short:        "Register a repo with the running daemon",
	RunE:         addRepoMain,
	SilenceUsage: true,
}

func init() {
	flags := addRepoCommand.Flags()
	flags.StringVar(&addRepoConfiguration.drive, "drive", "local", "drive to register the repo on")
}
