//go:build !windows && !plan9

package locking

import (
	"os"
	"syscall"
)

// Lock attempts to acquire the exclusive lock, blocking if block is true
// and another process already holds it.
func (l *Locker) Lock(block bool) error {
	spec := syscall.Flock_t{
		Type:   syscall.F_WRLCK,
		Whence: int16(os.SEEK_SET),
		Start:  0,
		Len:    0,
	}
	operation := syscall.F_SETLK
	if block {
		operation = syscall.F_SETLKW
	}
	return syscall.FcntlFlock(l.file.Fd(), operation, &spec)
}

// Unlock releases the lock.
func (l *Locker) Unlock() error {
	spec := syscall.Flock_t{
		Type:   syscall.F_UNLCK,
		Whence: int16(os.SEEK_SET),
		Start:  0,
		Len:    0,
	}
	return syscall.FcntlFlock(l.file.Fd(), syscall.F_SETLK, &spec)
}
