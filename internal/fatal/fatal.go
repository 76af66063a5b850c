// Package fatal reports invariant violations that spec §7 classifies as
// fatal: conditions severe enough that continuing to operate on the
// affected drive would produce incorrect results, so the engine aborts
// outright rather than degrading silently or issuing a rescan.
package fatal

import (
	"fmt"

	"github.com/cookdaemon/cookd/internal/logging"
)

// Error wraps a fatal condition. It is the value Errorf panics with, so a
// recover can tell it apart from ordinary panics by its type.
type Error struct {
	Message string
}

func (e *Error) Error() string { return e.Message }

// Errorf logs the given message at error level, then panics with a *Error
// carrying it. Callers should treat this as non-returning.
func Errorf(logger *logging.Logger, format string, args ...interface{}) {
	message := fmt.Sprintf(format, args...)
	logger.Error(fmt.Errorf("%s", message))
	panic(&Error{Message: message})
}
