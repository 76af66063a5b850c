// Package identifier generates prefixed identifiers for daemon runs and
// repo registrations. No other package in this module calls it. The
// teacher encodes its own identifiers with a custom Base62 scheme over a
// large random buffer (pkg/identifier/identifier.go); this engine instead
// uses github.com/google/uuid directly, since nothing here needs the
// teacher's specific collision-resistance-per-byte tuning or its
// lowercase-prefix convention -- see DESIGN.md.
package identifier

import "github.com/google/uuid"

// Prefix categorizes what an identifier names.
type Prefix string

const (
	// PrefixRun identifies a single daemon process lifetime.
	PrefixRun Prefix = "run"
	// PrefixRepo identifies a repo registration, independent of its
	// in-memory FileID (which is only stable for the lifetime of one
	// daemon run).
	PrefixRepo Prefix = "repo"
)

// New generates a new identifier with the given prefix.
func New(prefix Prefix) string {
	return string(prefix) + "_" + uuid.NewString()
}
