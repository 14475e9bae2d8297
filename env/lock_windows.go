//go:build windows

package env

import (
	"os"

	"golang.org/x/sys/windows"
)

// lockFileHandle takes an immediate exclusive byte-range lock covering the
// first byte of f, failing rather than waiting if the lock is held.
func lockFileHandle(f *os.File) error {
	return windows.LockFileEx(windows.Handle(f.Fd()),
		windows.LOCKFILE_EXCLUSIVE_LOCK|windows.LOCKFILE_FAIL_IMMEDIATELY,
		0, 1, 0, new(windows.Overlapped))
}

func unlockFileHandle(f *os.File) error {
	return windows.UnlockFileEx(windows.Handle(f.Fd()), 0, 1, 0, new(windows.Overlapped))
}
