package env

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"runtime"
	"strconv"
	"sync"
	"time"
)

// logMaxLine caps a single diagnostic line. Messages that would exceed it
// are truncated with the final byte replaced by the newline, so the log
// stays strictly line-oriented.
const logMaxLine = 30000

// Compile-time interface check.
var _ Logger = (*lineLogger)(nil)

// lineLogger implements [Logger] over any buffered destination. One call
// to Logf is one line and one flush.
type lineLogger struct {
	mu     sync.Mutex
	dst    io.Writer
	flush  func() error
	close  func() error
	closed bool
}

// newFileLogger builds a lineLogger writing through a buffered writer to f.
func newFileLogger(f io.WriteCloser) *lineLogger {
	w := bufio.NewWriter(f)
	return &lineLogger{
		dst:   w,
		flush: w.Flush,
		close: f.Close,
	}
}

func (l *lineLogger) Logf(format string, args ...any) {
	line := formatLogLine(time.Now(), goroutineID(), fmt.Sprintf(format, args...))

	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return
	}
	_, _ = l.dst.Write(line)
	_ = l.flush()
}

func (l *lineLogger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return nil
	}
	l.closed = true
	if err := l.flush(); err != nil {
		_ = l.close()
		return fmt.Errorf("env: close log: %w", err)
	}
	if err := l.close(); err != nil {
		return fmt.Errorf("env: close log: %w", err)
	}
	return nil
}

// formatLogLine renders one diagnostic line:
//
//	YYYY/MM/DD-HH:MM:SS.mmm <gid-hex> <message>\n
//
// in local time. A newline is appended only if the message does not
// already end with one; a line longer than logMaxLine is cut there with
// its last byte replaced by the newline.
func formatLogLine(now time.Time, gid uint64, msg string) []byte {
	buf := make([]byte, 0, 512)
	buf = fmt.Appendf(buf, "%04d/%02d/%02d-%02d:%02d:%02d.%03d %x ",
		now.Year(), int(now.Month()), now.Day(),
		now.Hour(), now.Minute(), now.Second(),
		now.Nanosecond()/int(time.Millisecond), gid)
	buf = append(buf, msg...)

	if len(buf) >= logMaxLine {
		buf = buf[:logMaxLine]
		buf[len(buf)-1] = '\n'
		return buf
	}
	if len(buf) == 0 || buf[len(buf)-1] != '\n' {
		buf = append(buf, '\n')
	}
	return buf
}

// goroutineID parses the numeric id out of the runtime.Stack header
// ("goroutine 12 [running]:"). Goroutines are this layer's unit of
// concurrency, so the id stands in for the thread id in the line prefix.
func goroutineID() uint64 {
	var buf [64]byte
	n := runtime.Stack(buf[:], false)
	fields := bytes.Fields(buf[:n])
	if len(fields) < 2 {
		return 0
	}
	id, err := strconv.ParseUint(string(fields[1]), 10, 64)
	if err != nil {
		return 0
	}
	return id
}
