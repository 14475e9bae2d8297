package env

import (
	"os"
	"sync"
	"sync/atomic"
)

// Compile-time interface check.
var _ FileLock = (*fileLock)(nil)

// fileLock is the OS-backed FileLock: an open descriptor holding an
// exclusive OS lock on the file at name.
type fileLock struct {
	name     string
	f        *os.File
	released atomic.Bool
}

func (l *fileLock) Path() string { return l.name }

// lockTable records lock-file paths held by this process. The OS lock is
// granted per descriptor, so a second open+lock of the same path from the
// same process would succeed on most platforms; the table makes the
// double acquire fail regardless of OS semantics.
var lockTable = struct {
	mu    sync.Mutex
	paths map[string]struct{}
}{paths: make(map[string]struct{})}

// reserveLockPath claims name in the process-wide table, reporting
// whether it was free.
func reserveLockPath(name string) bool {
	lockTable.mu.Lock()
	defer lockTable.mu.Unlock()
	if _, held := lockTable.paths[name]; held {
		return false
	}
	lockTable.paths[name] = struct{}{}
	return true
}

func releaseLockPath(name string) {
	lockTable.mu.Lock()
	delete(lockTable.paths, name)
	lockTable.mu.Unlock()
}
