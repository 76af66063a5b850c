//go:build windows

package locking

import (
	"syscall"
	"unsafe"

	"golang.org/x/sys/windows"
)

var (
	modkernel32      = windows.NewLazySystemDLL("kernel32.dll")
	procLockFileEx   = modkernel32.NewProc("LockFileEx")
	procUnlockFileEx = modkernel32.NewProc("UnlockFileEx")
)

const (
	lockfileExclusiveLock   = 2
	lockfileFailImmediately = 1
)

// Lock attempts to acquire the exclusive lock, blocking if block is true
// and another process already holds it.
func (l *Locker) Lock(block bool) error {
	var overlapped syscall.Overlapped
	flags := uint32(lockfileExclusiveLock)
	if !block {
		flags |= lockfileFailImmediately
	}
	r1, _, err := procLockFileEx.Call(
		l.file.Fd(), uintptr(flags), 0, 1, 0, uintptr(unsafe.Pointer(&overlapped)),
	)
	if r1 == 0 {
		return err
	}
	return nil
}

// Unlock releases the lock.
func (l *Locker) Unlock() error {
	var overlapped syscall.Overlapped
	r1, _, err := procUnlockFileEx.Call(
		l.file.Fd(), 0, 1, 0, uintptr(unsafe.Pointer(&overlapped)),
	)
	if r1 == 0 {
		return err
	}
	return nil
}
