//go:build !windows

package env

import (
	"os"

	"golang.org/x/sys/unix"
)

// lockFileHandle takes a non-blocking exclusive flock on f. If another
// process holds the lock this fails immediately with EWOULDBLOCK rather
// than waiting.
func lockFileHandle(f *os.File) error {
	return unix.Flock(int(f.Fd()), unix.LOCK_EX|unix.LOCK_NB)
}

func unlockFileHandle(f *os.File) error {
	return unix.Flock(int(f.Fd()), unix.LOCK_UN)
}
