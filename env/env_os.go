package env

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/beyondbrewing/brewery-platform/pkg/logger"
)

// Compile-time interface check.
var _ Env = (*OSEnv)(nil)

// OSEnv is the production [Env], backed directly by the operating system.
// It carries no mutable state of its own beyond the background queue, so
// an instance is safe to share freely once constructed.
type OSEnv struct {
	queue   *taskQueue
	tempDir string
	logger  logger.Logger
}

// Open creates an isolated Env instance with the given options. Most
// callers want [Default] instead; isolated instances exist for tests and
// for embedders running several engines in one process.
func Open(opts ...Option) *OSEnv {
	cfg := DefaultConfig()
	for _, o := range opts {
		o(cfg)
	}
	cfg.validate()

	log := cfg.Logger.With("component", "env")
	return &OSEnv{
		queue:   newTaskQueue(log),
		tempDir: cfg.TempDir,
		logger:  log,
	}
}

var (
	defaultOnce sync.Once
	defaultEnv  *OSEnv
)

// Default returns the process-wide Env. It is created on first call, once,
// no matter how many goroutines race here, and lives for the life of the
// process: there is deliberately no way to tear it down, which is how the
// immortal-singleton contract is expressed in the API.
func Default() Env {
	defaultOnce.Do(func() {
		defaultEnv = Open()
	})
	return defaultEnv
}

// ---------------------------------------------------------------------------
// File construction
// ---------------------------------------------------------------------------

func (e *OSEnv) NewSequentialFile(name string) (SequentialFile, error) {
	f, err := os.Open(name)
	if err != nil {
		return nil, fmt.Errorf("env: open %s: %w", name, err)
	}
	return &sequentialFile{name: name, f: f, r: bufio.NewReader(f)}, nil
}

func (e *OSEnv) NewRandomAccessFile(name string) (RandomAccessFile, error) {
	f, err := os.Open(name)
	if err != nil {
		return nil, fmt.Errorf("env: open %s: %w", name, err)
	}
	return &randomAccessFile{name: name, f: f}, nil
}

func (e *OSEnv) NewWritableFile(name string) (WritableFile, error) {
	f, err := os.OpenFile(name, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return nil, fmt.Errorf("env: create %s: %w", name, err)
	}
	return &writableFile{name: name, f: f, w: bufio.NewWriter(f)}, nil
}

// ---------------------------------------------------------------------------
// Directory and path operations
// ---------------------------------------------------------------------------

func (e *OSEnv) FileExists(name string) bool {
	_, err := os.Stat(name)
	return err == nil
}

func (e *OSEnv) GetChildren(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("env: list %s: %w", dir, err)
	}
	names := make([]string, 0, len(entries))
	for _, ent := range entries {
		names = append(names, ent.Name())
	}
	return names, nil
}

func (e *OSEnv) RemoveFile(name string) error {
	if err := os.Remove(name); err != nil {
		return fmt.Errorf("env: remove %s: %w", name, err)
	}
	return nil
}

func (e *OSEnv) CreateDir(name string) error {
	if err := os.MkdirAll(name, 0o755); err != nil {
		return fmt.Errorf("env: mkdir %s: %w", name, err)
	}
	return nil
}

func (e *OSEnv) RemoveDir(name string) error {
	if _, err := os.Stat(name); err != nil {
		return fmt.Errorf("env: rmdir %s: %w", name, err)
	}
	if err := os.RemoveAll(name); err != nil {
		return fmt.Errorf("env: rmdir %s: %w", name, err)
	}
	return nil
}

func (e *OSEnv) GetFileSize(name string) (uint64, error) {
	info, err := os.Stat(name)
	if err != nil {
		return 0, fmt.Errorf("env: stat %s: %w", name, err)
	}
	return uint64(info.Size()), nil
}

func (e *OSEnv) RenameFile(src, target string) error {
	if err := os.Rename(src, target); err != nil {
		return fmt.Errorf("env: rename %s: %w", src, err)
	}
	return nil
}

// ---------------------------------------------------------------------------
// Locking
// ---------------------------------------------------------------------------

func (e *OSEnv) LockFile(name string) (FileLock, error) {
	if !reserveLockPath(name) {
		return nil, fmt.Errorf("%w: %s", ErrLockHeld, name)
	}

	f, err := os.OpenFile(name, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		releaseLockPath(name)
		return nil, fmt.Errorf("env: lock %s: %w", name, err)
	}
	if err := lockFileHandle(f); err != nil {
		_ = f.Close()
		releaseLockPath(name)
		return nil, fmt.Errorf("env: lock %s: %w", name, err)
	}

	e.logger.Debug("lock acquired", "path", name)
	return &fileLock{name: name, f: f}, nil
}

func (e *OSEnv) UnlockFile(lock FileLock) error {
	if lock == nil {
		return nil
	}
	l, ok := lock.(*fileLock)
	if !ok {
		return fmt.Errorf("env: unlock %s: lock was not issued by this env", lock.Path())
	}
	if l.released.Swap(true) {
		// Double unlock is a no-op.
		return nil
	}

	releaseLockPath(l.name)
	unlockErr := unlockFileHandle(l.f)
	closeErr := l.f.Close()
	if unlockErr != nil {
		return fmt.Errorf("env: unlock %s: %w", l.name, unlockErr)
	}
	if closeErr != nil {
		return fmt.Errorf("env: unlock %s: %w", l.name, closeErr)
	}

	e.logger.Debug("lock released", "path", l.name)
	return nil
}

// ---------------------------------------------------------------------------
// Background work
// ---------------------------------------------------------------------------

func (e *OSEnv) Schedule(task func()) {
	e.queue.Schedule(task)
}

func (e *OSEnv) StartThread(task func()) {
	go task()
}

// ---------------------------------------------------------------------------
// Miscellaneous
// ---------------------------------------------------------------------------

func (e *OSEnv) GetTestDirectory() (string, error) {
	dir := filepath.Join(e.tempDir, "brewery-platform-test", strconv.Itoa(os.Getpid()))
	if err := e.CreateDir(dir); err != nil {
		return "", err
	}
	return dir, nil
}

func (e *OSEnv) NewLogger(name string) (Logger, error) {
	f, err := os.Create(name)
	if err != nil {
		return nil, fmt.Errorf("env: open log %s: %w", name, err)
	}
	return newFileLogger(f), nil
}

// NowMicros returns microseconds elapsed since local midnight, not since
// the Unix epoch. Engines use it for relative timing within a day.
func (e *OSEnv) NowMicros() uint64 {
	now := time.Now()
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	return uint64(now.Sub(midnight) / time.Microsecond)
}

func (e *OSEnv) SleepMicros(micros int) {
	time.Sleep(time.Duration(micros) * time.Microsecond)
}
