package main

import (
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/cookdaemon/cookd/internal/cmdsupport"
	"github.com/cookdaemon/cookd/internal/daemon"
	"github.com/cookdaemon/cookd/internal/ipc"
)

func statusMain(_ *cobra.Command, _ []string) error {
	conn, err := daemon.DialTimeout(5 * time.Second)
	if err != nil {
		return fmt.Errorf("unable to connect to daemon (is it running?): %w", err)
	}
	defer conn.Close()

	resp, err := ipc.Call(conn, ipc.Request{Command: "status"})
	if err != nil {
		return fmt.Errorf("unable to query status: %w", err)
	}
	if !resp.OK {
		return fmt.Errorf("daemon reported an error: %s", resp.Error)
	}

	fmt.Println("State:", resp.Fields["state"])
	if startedAt, err := time.Parse(time.RFC3339, resp.Fields["started_at"]); err == nil {
		fmt.Println("Running since:", humanize.Time(startedAt))
	}
	fmt.Println("Files awaiting rescan:", resp.Fields["rescan_depth"])
	return nil
}

var statusCommand = &cobra.Command{
	Use:          "status",
	Short:        "Show the daemon's current state",
	Args:         cmdsupport.DisallowArguments,
	RunE:         statusMain,
	SilenceUsage: true,
}
