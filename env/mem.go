package env

import (
	"fmt"
	"os"
	"path"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/beyondbrewing/brewery-platform/pkg/logger"
)

// Compile-time interface check.
var _ Env = (*MemEnv)(nil)

// MemEnv is a fully functional, thread-safe, in-memory implementation of
// [Env]. It touches no real filesystem, which makes it suitable for unit
// tests of engines that consume the Env interface.
//
//	e := env.NewMemEnv()
//	wf, _ := e.NewWritableFile("/db/MANIFEST")
//
// Paths are treated as slash-separated names with no symlinks or
// permissions. Unlike the OS, removing a file invalidates open handles to
// it, which is acceptable for the test scenarios this type exists for.
type MemEnv struct {
	mu    sync.RWMutex
	files map[string][]byte
	dirs  map[string]struct{}
	locks map[string]struct{}

	queue  *taskQueue
	logger logger.Logger
}

// NewMemEnv creates an empty in-memory Env containing only the root
// directory.
func NewMemEnv(opts ...Option) *MemEnv {
	cfg := DefaultConfig()
	for _, o := range opts {
		o(cfg)
	}
	cfg.validate()

	log := cfg.Logger.With("component", "memenv")
	return &MemEnv{
		files:  make(map[string][]byte),
		dirs:   map[string]struct{}{"/": {}},
		locks:  make(map[string]struct{}),
		queue:  newTaskQueue(log),
		logger: log,
	}
}

func normPath(name string) string {
	if !strings.HasPrefix(name, "/") {
		name = "/" + name
	}
	return path.Clean(name)
}

// ---------------------------------------------------------------------------
// File construction
// ---------------------------------------------------------------------------

func (m *MemEnv) NewSequentialFile(name string) (SequentialFile, error) {
	name = normPath(name)
	m.mu.RLock()
	defer m.mu.RUnlock()
	if _, ok := m.files[name]; !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	return &memSequentialFile{env: m, name: name}, nil
}

func (m *MemEnv) NewRandomAccessFile(name string) (RandomAccessFile, error) {
	name = normPath(name)
	m.mu.RLock()
	defer m.mu.RUnlock()
	if _, ok := m.files[name]; !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	return &memRandomAccessFile{env: m, name: name}, nil
}

func (m *MemEnv) NewWritableFile(name string) (WritableFile, error) {
	name = normPath(name)
	m.mu.Lock()
	defer m.mu.Unlock()
	m.files[name] = nil
	return &memWritableFile{env: m, name: name}, nil
}

// ---------------------------------------------------------------------------
// Directory and path operations
// ---------------------------------------------------------------------------

func (m *MemEnv) FileExists(name string) bool {
	name = normPath(name)
	m.mu.RLock()
	defer m.mu.RUnlock()
	if _, ok := m.files[name]; ok {
		return true
	}
	_, ok := m.dirs[name]
	return ok
}

func (m *MemEnv) GetChildren(dir string) ([]string, error) {
	dir = normPath(dir)
	m.mu.RLock()
	defer m.mu.RUnlock()

	if _, ok := m.dirs[dir]; !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, dir)
	}

	prefix := dir
	if prefix != "/" {
		prefix += "/"
	}
	seen := make(map[string]struct{})
	collect := func(p string) {
		if !strings.HasPrefix(p, prefix) || p == dir {
			return
		}
		rest := strings.TrimPrefix(p, prefix)
		if i := strings.IndexByte(rest, '/'); i >= 0 {
			rest = rest[:i]
		}
		if rest != "" {
			seen[rest] = struct{}{}
		}
	}
	for p := range m.files {
		collect(p)
	}
	for p := range m.dirs {
		collect(p)
	}

	names := make([]string, 0, len(seen))
	for n := range seen {
		names = append(names, n)
	}
	return names, nil
}

func (m *MemEnv) RemoveFile(name string) error {
	name = normPath(name)
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.files[name]; !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	delete(m.files, name)
	return nil
}

func (m *MemEnv) CreateDir(name string) error {
	name = normPath(name)
	m.mu.Lock()
	defer m.mu.Unlock()
	for p := name; ; p = path.Dir(p) {
		m.dirs[p] = struct{}{}
		if p == "/" {
			break
		}
	}
	return nil
}

func (m *MemEnv) RemoveDir(name string) error {
	name = normPath(name)
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.dirs[name]; !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	prefix := name + "/"
	for p := range m.files {
		if strings.HasPrefix(p, prefix) {
			delete(m.files, p)
		}
	}
	for p := range m.dirs {
		if strings.HasPrefix(p, prefix) {
			delete(m.dirs, p)
		}
	}
	delete(m.dirs, name)
	return nil
}

func (m *MemEnv) GetFileSize(name string) (uint64, error) {
	name = normPath(name)
	m.mu.RLock()
	defer m.mu.RUnlock()
	data, ok := m.files[name]
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	return uint64(len(data)), nil
}

func (m *MemEnv) RenameFile(src, target string) error {
	src, target = normPath(src), normPath(target)
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.files[src]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, src)
	}
	delete(m.files, src)
	m.files[target] = data
	return nil
}

// ---------------------------------------------------------------------------
// Locking
// ---------------------------------------------------------------------------

func (m *MemEnv) LockFile(name string) (FileLock, error) {
	name = normPath(name)
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, held := m.locks[name]; held {
		return nil, fmt.Errorf("%w: %s", ErrLockHeld, name)
	}
	m.locks[name] = struct{}{}
	m.files[name] = nil
	m.logger.Debug("lock acquired", "path", name)
	return &memFileLock{name: name}, nil
}

func (m *MemEnv) UnlockFile(lock FileLock) error {
	if lock == nil {
		return nil
	}
	l, ok := lock.(*memFileLock)
	if !ok {
		return fmt.Errorf("env: unlock %s: lock was not issued by this env", lock.Path())
	}
	if l.released.Swap(true) {
		// Double unlock is a no-op. A stale handle must not free the
		// lock out from under a later holder of the same path.
		return nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.locks, l.name)
	m.logger.Debug("lock released", "path", l.name)
	return nil
}

type memFileLock struct {
	name     string
	released atomic.Bool
}

func (l *memFileLock) Path() string { return l.name }

// ---------------------------------------------------------------------------
// Background work and miscellaneous
// ---------------------------------------------------------------------------

func (m *MemEnv) Schedule(task func()) {
	m.queue.Schedule(task)
}

func (m *MemEnv) StartThread(task func()) {
	go task()
}

func (m *MemEnv) GetTestDirectory() (string, error) {
	dir := "/test/" + strconv.Itoa(os.Getpid())
	if err := m.CreateDir(dir); err != nil {
		return "", err
	}
	return dir, nil
}

func (m *MemEnv) NewLogger(name string) (Logger, error) {
	wf, err := m.NewWritableFile(name)
	if err != nil {
		return nil, err
	}
	return &lineLogger{
		dst:   appendWriter{wf},
		flush: wf.Flush,
		close: wf.Close,
	}, nil
}

// appendWriter adapts a WritableFile to io.Writer for the line logger.
type appendWriter struct {
	wf WritableFile
}

func (a appendWriter) Write(p []byte) (int, error) {
	if err := a.wf.Append(p); err != nil {
		return 0, err
	}
	return len(p), nil
}

func (m *MemEnv) NowMicros() uint64 {
	now := time.Now()
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	return uint64(now.Sub(midnight) / time.Microsecond)
}

func (m *MemEnv) SleepMicros(micros int) {
	time.Sleep(time.Duration(micros) * time.Microsecond)
}

// ---------------------------------------------------------------------------
// In-memory file handles
// ---------------------------------------------------------------------------

type memSequentialFile struct {
	env    *MemEnv
	name   string
	pos    int64
	closed bool
}

func (s *memSequentialFile) Read(n int, scratch []byte) ([]byte, error) {
	if s.closed {
		return nil, fmt.Errorf("%w: %s", ErrClosed, s.name)
	}
	s.env.mu.RLock()
	defer s.env.mu.RUnlock()

	data, ok := s.env.files[s.name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, s.name)
	}
	if s.pos >= int64(len(data)) {
		return scratch[:0], nil
	}

	avail := data[s.pos:]
	if n > len(avail) {
		n = len(avail)
	}
	buf := scratch
	if len(buf) < n {
		buf = make([]byte, n)
	}
	copy(buf[:n], avail)
	s.pos += int64(n)
	return buf[:n], nil
}

func (s *memSequentialFile) Skip(n int64) error {
	if s.closed {
		return fmt.Errorf("%w: %s", ErrClosed, s.name)
	}
	// Seeking before the start of the file fails, as it does on the OS.
	if s.pos+n < 0 {
		return fmt.Errorf("env: skip %s: negative position", s.name)
	}
	s.pos += n
	return nil
}

func (s *memSequentialFile) Close() error {
	s.closed = true
	return nil
}

type memRandomAccessFile struct {
	env    *MemEnv
	name   string
	mu     sync.Mutex
	closed bool
}

func (r *memRandomAccessFile) Read(offset int64, n int, scratch []byte) ([]byte, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return nil, fmt.Errorf("%w: %s", ErrClosed, r.name)
	}

	r.env.mu.RLock()
	defer r.env.mu.RUnlock()

	data, ok := r.env.files[r.name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, r.name)
	}
	if offset >= int64(len(data)) {
		return scratch[:0], nil
	}

	avail := data[offset:]
	if n > len(avail) {
		n = len(avail)
	}
	buf := scratch
	if len(buf) < n {
		buf = make([]byte, n)
	}
	copy(buf[:n], avail)
	return buf[:n], nil
}

func (r *memRandomAccessFile) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed = true
	return nil
}

type memWritableFile struct {
	env     *MemEnv
	name    string
	mu      sync.Mutex
	written uint64
	closed  bool
}

func (w *memWritableFile) Append(data []byte) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return fmt.Errorf("%w: %s", ErrClosed, w.name)
	}

	w.env.mu.Lock()
	defer w.env.mu.Unlock()
	cur, ok := w.env.files[w.name]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, w.name)
	}
	w.env.files[w.name] = append(cur, data...)
	w.written += uint64(len(data))
	return nil
}

func (w *memWritableFile) Flush() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return fmt.Errorf("%w: %s", ErrClosed, w.name)
	}
	return nil
}

func (w *memWritableFile) Sync() error {
	return w.Flush()
}

func (w *memWritableFile) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.closed = true
	return nil
}
