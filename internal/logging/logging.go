// Package logging provides the daemon-wide logger. It mirrors the
// prefix/sublogger shape the daemon this engine is grounded on uses for its
// own logging (see DESIGN.md), with colorized warning/error output via
// github.com/fatih/color, adjusted for this engine's level-gated verbosity
// instead of a single debug toggle.
package logging

import (
	"log"
	"os"
)

func init() {
	log.SetOutput(os.Stdout)
	log.SetFlags(log.Ldate | log.Ltime)
}
