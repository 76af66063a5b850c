// Package cookd holds version metadata shared between the CLI and daemon.
package cookd

import "fmt"

const (
	// VersionMajor is the current major version of cookd.
	VersionMajor = 0
	// VersionMinor is the current minor version of cookd.
	VersionMinor = 1
	// VersionPatch is the current patch version of cookd.
	VersionPatch = 0
)

// Version is the formatted, three-component version string.
var Version = fmt.Sprintf("%d.%d.%d", VersionMajor, VersionMinor, VersionPatch)
