// Package locking provides advisory file locking, used to ensure only one
// cookd daemon runs against a given workspace at a time. Adapted from the
// teacher's own platform-split locker (pkg/filesystem/locking).
package locking

import (
	"os"

	"github.com/pkg/errors"
)

// Locker guards a lock file with an exclusive, advisory OS-level lock.
type Locker struct {
	file *os.File
}

// NewLocker opens (creating if necessary) the file at path and wraps it in
// a Locker. The lock itself is not acquired until Lock is called.
func NewLocker(path string, permissions os.FileMode) (*Locker, error) {
	file, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_APPEND, permissions)
	if err != nil {
		return nil, errors.Wrap(err, "unable to open lock file")
	}
	return &Locker{file: file}, nil
}

// Close releases the underlying file handle. It does not unlock; call
// Unlock first.
func (l *Locker) Close() error {
	return l.file.Close()
}
