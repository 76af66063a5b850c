// Package cmdsupport holds small Cobra helpers shared across cookd's
// subcommands, adapted from the teacher's cmd package (cmd/error.go,
// cmd/arguments.go, cmd/cobra.go).
package cmdsupport

import (
	"errors"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

// DisallowArguments is a Cobra arguments validator that rejects positional
// arguments with a clearer message than cobra.NoArgs.
func DisallowArguments(_ *cobra.Command, arguments []string) error {
	if len(arguments) > 0 {
		return errors.New("command does not accept arguments")
	}
	return nil
}

// Mainify wraps an error-returning entry point in a standard Cobra Run
// function, letting the entry point rely on defer-based cleanup instead of
// calling os.Exit directly.
func Mainify(entry func(*cobra.Command, []string) error) func(*cobra.Command, []string) {
	return func(command *cobra.Command, arguments []string) {
		if err := entry(command, arguments); err != nil {
			Fatal(err)
		}
	}
}

// Warning prints a warning message to standard error.
func Warning(message string) {
	fmt.Fprintln(os.Stderr, color.YellowString("Warning:"), message)
}

// Error prints an error message to standard error.
func Error(err error) {
	fmt.Fprintln(os.Stderr, color.RedString("Error:"), err)
}

// Fatal prints an error message to standard error and terminates the
// process with a non-zero exit code.
func Fatal(err error) {
	Error(err)
	os.Exit(1)
}
