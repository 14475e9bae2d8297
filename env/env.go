// Package env provides the platform abstraction consumed by the storage
// engine: file access in three modes, directory manipulation, an exclusive
// database lock, a serialized background worker, wall-clock time, and
// line-oriented diagnostic logging. The engine never sees OS error codes or
// handle types; every operation returns engine-neutral values and wrapped
// errors.
//
// The primary interface is [Env], satisfied by [OSEnv] (production) and
// [MemEnv] (testing). Obtain the process-wide instance with [Default], or
// create isolated instances with [Open] / [NewMemEnv] and inject them into
// consumers via constructor arguments or functional options.
package env

import (
	"errors"
	"io"
)

// Sentinel errors returned by Env implementations.
var (
	ErrClosed   = errors.New("env: file is closed")
	ErrLockHeld = errors.New("env: lock file already held by this process")
	ErrNotFound = errors.New("env: file does not exist")
)

// Env defines the contract for all operating-system facilities used by the
// storage engine. All methods are safe for concurrent use by multiple
// goroutines.
type Env interface {
	// NewSequentialFile opens name for sequential reading from the start.
	// The returned handle is not safe for concurrent use.
	NewSequentialFile(name string) (SequentialFile, error)

	// NewRandomAccessFile opens name for positional reads. The returned
	// handle is safe for concurrent use.
	NewRandomAccessFile(name string) (RandomAccessFile, error)

	// NewWritableFile creates a new file at name for appending, truncating
	// any existing file. The returned handle is not safe for concurrent
	// use.
	NewWritableFile(name string) (WritableFile, error)

	// FileExists reports whether name exists.
	FileExists(name string) bool

	// GetChildren returns the names of the entries in dir, relative to dir.
	GetChildren(dir string) ([]string, error)

	// RemoveFile deletes the named file.
	RemoveFile(name string) error

	// CreateDir creates the named directory and any missing parents.
	// An already existing directory is not an error.
	CreateDir(name string) error

	// RemoveDir deletes the named directory and everything under it.
	// A missing directory is an error.
	RemoveDir(name string) error

	// GetFileSize returns the size of name in bytes.
	GetFileSize(name string) (uint64, error)

	// RenameFile renames src to target, replacing target if it exists.
	RenameFile(src, target string) error

	// LockFile creates (or truncates) a lock file at name and acquires an
	// exclusive hold on it. It fails immediately if the lock is held by
	// this or another process; it never waits. The hold lasts until
	// UnlockFile or process exit.
	LockFile(name string) (FileLock, error)

	// UnlockFile releases a lock returned by LockFile. Passing nil or an
	// already released lock is a no-op.
	UnlockFile(lock FileLock) error

	// Schedule enqueues task on the single background worker. Tasks run
	// one at a time in submission order; Schedule itself never blocks on
	// task completion and there is no way to cancel a submitted task.
	Schedule(task func())

	// StartThread runs task on its own goroutine, independent of the
	// background worker. The goroutine is not tracked or joined.
	StartThread(task func())

	// GetTestDirectory returns a per-process scratch directory, creating
	// it if necessary.
	GetTestDirectory() (string, error)

	// NewLogger opens a diagnostic log file at name, truncating any
	// existing file.
	NewLogger(name string) (Logger, error)

	// NowMicros returns the wall-clock time in microseconds since local
	// midnight.
	NowMicros() uint64

	// SleepMicros pauses the calling goroutine for the given number of
	// microseconds.
	SleepMicros(micros int)
}

// SequentialFile reads a file front to back through an advancing cursor.
// Callers must provide their own synchronization.
type SequentialFile interface {
	// Read reads up to n bytes from the current cursor, advancing it by
	// the number of bytes actually read. scratch may be used as the
	// destination buffer when it is large enough. A short (or empty)
	// result at end of file is success, not an error.
	Read(n int, scratch []byte) ([]byte, error)

	// Skip advances the cursor by n bytes without returning data.
	Skip(n int64) error

	io.Closer
}

// RandomAccessFile reads a file at arbitrary offsets. Safe for concurrent
// use by multiple goroutines.
type RandomAccessFile interface {
	// Read reads up to n bytes starting at offset. scratch may be used as
	// the destination buffer when it is large enough. A short result past
	// end of file is success, not an error.
	Read(offset int64, n int, scratch []byte) ([]byte, error)

	io.Closer
}

// WritableFile is an append-only file. The implementation buffers writes,
// so small appends are cheap. Callers must provide their own
// synchronization.
type WritableFile interface {
	// Append writes data at the end of the file.
	Append(data []byte) error

	// Flush pushes buffered bytes to the operating system without
	// guaranteeing on-disk durability.
	Flush() error

	// Sync makes previously appended bytes visible to the operating
	// system. It does not issue an fsync, so durability across power loss
	// is not guaranteed; callers that need it must layer it themselves.
	Sync() error

	// Close syncs and closes the file. Calling Close again is a no-op.
	io.Closer
}

// FileLock represents an exclusive hold on a lock file, from a successful
// Env.LockFile to the matching Env.UnlockFile.
type FileLock interface {
	// Path returns the lock file's path.
	Path() string
}

// Logger writes line-oriented diagnostic output for the engine. Each call
// produces exactly one line, flushed immediately, prefixed with the local
// time and the calling goroutine's id:
//
//	2026/08/24-13:37:42.123 4f message
type Logger interface {
	// Logf formats one diagnostic line. A trailing newline is appended
	// unless the message already ends with one.
	Logf(format string, args ...any)

	io.Closer
}
