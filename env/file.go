package env

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"sync/atomic"
)

// Compile-time interface checks.
var (
	_ SequentialFile   = (*sequentialFile)(nil)
	_ RandomAccessFile = (*randomAccessFile)(nil)
	_ WritableFile     = (*writableFile)(nil)
)

// ---------------------------------------------------------------------------
// SequentialFile
// ---------------------------------------------------------------------------

// sequentialFile reads through a buffered reader whose position is the
// file cursor. Not safe for concurrent use, matching the interface
// contract.
type sequentialFile struct {
	name   string
	f      *os.File
	r      *bufio.Reader
	closed atomic.Bool
}

func (s *sequentialFile) Read(n int, scratch []byte) ([]byte, error) {
	if s.closed.Load() {
		return nil, fmt.Errorf("%w: %s", ErrClosed, s.name)
	}

	buf := scratch
	if len(buf) < n {
		buf = make([]byte, n)
	}
	buf = buf[:n]

	read, err := io.ReadFull(s.r, buf)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
		return nil, fmt.Errorf("env: read %s: %w", s.name, err)
	}

	// A short read at end of file is success.
	return buf[:read], nil
}

func (s *sequentialFile) Skip(n int64) error {
	if s.closed.Load() {
		return fmt.Errorf("%w: %s", ErrClosed, s.name)
	}

	// The buffered reader is ahead of the descriptor by however much it
	// has prefetched; rewind by that amount before the relative seek.
	if _, err := s.f.Seek(n-int64(s.r.Buffered()), io.SeekCurrent); err != nil {
		return fmt.Errorf("env: skip %s: %w", s.name, err)
	}
	s.r.Reset(s.f)
	return nil
}

func (s *sequentialFile) Close() error {
	if s.closed.Swap(true) {
		return nil
	}
	if err := s.f.Close(); err != nil {
		return fmt.Errorf("env: close %s: %w", s.name, err)
	}
	return nil
}

// ---------------------------------------------------------------------------
// RandomAccessFile
// ---------------------------------------------------------------------------

// randomAccessFile reads at arbitrary offsets via pread, which carries no
// shared cursor, so concurrent reads cannot corrupt each other. The mutex
// guards the descriptor against a Close racing an in-flight read.
type randomAccessFile struct {
	name string

	mu     sync.Mutex
	f      *os.File
	closed bool
}

func (r *randomAccessFile) Read(offset int64, n int, scratch []byte) ([]byte, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return nil, fmt.Errorf("%w: %s", ErrClosed, r.name)
	}

	buf := scratch
	if len(buf) < n {
		buf = make([]byte, n)
	}
	buf = buf[:n]

	read, err := r.f.ReadAt(buf, offset)
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("env: read %s at %d: %w", r.name, offset, err)
	}

	return buf[:read], nil
}

func (r *randomAccessFile) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return nil
	}
	r.closed = true
	if err := r.f.Close(); err != nil {
		return fmt.Errorf("env: close %s: %w", r.name, err)
	}
	return nil
}

// ---------------------------------------------------------------------------
// WritableFile
// ---------------------------------------------------------------------------

// writableFile appends through a buffered writer and tracks the total
// bytes accepted. The file was opened truncate-create, so the counter is
// also the logical file size once flushed.
type writableFile struct {
	name string

	mu      sync.Mutex
	f       *os.File
	w       *bufio.Writer
	written uint64
	closed  bool
}

func (w *writableFile) Append(data []byte) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return fmt.Errorf("%w: %s", ErrClosed, w.name)
	}
	n, err := w.w.Write(data)
	w.written += uint64(n)
	if err != nil {
		return fmt.Errorf("env: append %s: %w", w.name, err)
	}
	return nil
}

func (w *writableFile) Flush() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return fmt.Errorf("%w: %s", ErrClosed, w.name)
	}
	if err := w.w.Flush(); err != nil {
		return fmt.Errorf("env: flush %s: %w", w.name, err)
	}
	return nil
}

// Sync pushes buffered bytes to the operating system. It deliberately does
// not fsync; see the interface documentation.
func (w *writableFile) Sync() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return fmt.Errorf("%w: %s", ErrClosed, w.name)
	}
	if err := w.w.Flush(); err != nil {
		return fmt.Errorf("env: sync %s: %w", w.name, err)
	}
	return nil
}

// Close flushes and closes the file. Repeat calls are no-ops, so callers
// may defer Close and also close explicitly on the success path.
func (w *writableFile) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return nil
	}
	w.closed = true

	flushErr := w.w.Flush()
	closeErr := w.f.Close()
	if flushErr != nil {
		return fmt.Errorf("env: close %s: %w", w.name, flushErr)
	}
	if closeErr != nil {
		return fmt.Errorf("env: close %s: %w", w.name, closeErr)
	}
	return nil
}
