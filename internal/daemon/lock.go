// Package daemon manages the single-instance lock and IPC listener for
// the cookd background process, adapted from the teacher's own daemon
// package (pkg/daemon).
package daemon

import (
	"fmt"

	"github.com/cookdaemon/cookd/internal/locking"
	"github.com/cookdaemon/cookd/internal/logging"
)

// Lock is the daemon's global, single-instance advisory lock.
type Lock struct {
	locker *locking.Locker
	logger *logging.Logger
}

// AcquireLock attempts to acquire the daemon lock, failing immediately
// (rather than blocking) if another daemon already holds it.
func AcquireLock(logger *logging.Logger) (*Lock, error) {
	path, err := LockPath()
	if err != nil {
		return nil, fmt.Errorf("unable to compute daemon lock path: %w", err)
	}

	locker, err := locking.NewLocker(path, 0600)
	if err != nil {
		return nil, fmt.Errorf("unable to create daemon locker: %w", err)
	}
	if err := locker.Lock(false); err != nil {
		locker.Close()
		return nil, fmt.Errorf("daemon is already running: %w", err)
	}

	return &Lock{locker: locker, logger: logger}, nil
}

// Release releases the daemon lock.
func (l *Lock) Release() error {
	if err := l.locker.Unlock(); err != nil {
		l.locker.Close()
		return fmt.Errorf("unable to unlock: %w", err)
	}
	if err := l.locker.Close(); err != nil {
		return fmt.Errorf("unable to close locker: %w", err)
	}
	return nil
}
