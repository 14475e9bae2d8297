package env

import (
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var logPrefixRE = regexp.MustCompile(`^\d{4}/\d{2}/\d{2}-\d{2}:\d{2}:\d{2}\.\d{3} [0-9a-f]+ `)

func TestLoggerLineFormat(t *testing.T) {
	e := newTestEnv(t)
	name := filepath.Join(t.TempDir(), "LOG")

	lg, err := e.NewLogger(name)
	require.NoError(t, err)
	lg.Logf("compaction finished: %d tables, %s", 3, "level-0")
	require.NoError(t, lg.Close())

	data, err := os.ReadFile(name)
	require.NoError(t, err)

	line := string(data)
	assert.Regexp(t, logPrefixRE, line)
	assert.True(t, strings.HasSuffix(line, "compaction finished: 3 tables, level-0\n"))
	assert.Equal(t, 1, strings.Count(line, "\n"), "one Logf call writes exactly one line")
}

func TestLoggerOneLinePerCall(t *testing.T) {
	e := newTestEnv(t)
	name := filepath.Join(t.TempDir(), "LOG")

	lg, err := e.NewLogger(name)
	require.NoError(t, err)
	lg.Logf("first")
	lg.Logf("second already terminated\n")
	lg.Logf("")
	require.NoError(t, lg.Close())

	data, err := os.ReadFile(name)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSuffix(string(data), "\n"), "\n")
	require.Len(t, lines, 3)
	assert.True(t, strings.HasSuffix(lines[0], " first"))
	assert.True(t, strings.HasSuffix(lines[1], " second already terminated"))
	assert.Regexp(t, logPrefixRE, lines[2], "empty message still gets the time/id prefix")
}

func TestLoggerTruncatesOverlongLine(t *testing.T) {
	e := newTestEnv(t)
	name := filepath.Join(t.TempDir(), "LOG")

	lg, err := e.NewLogger(name)
	require.NoError(t, err)
	lg.Logf("%s", strings.Repeat("x", logMaxLine*2))
	require.NoError(t, lg.Close())

	data, err := os.ReadFile(name)
	require.NoError(t, err)
	assert.Len(t, data, logMaxLine)
	assert.Equal(t, byte('\n'), data[len(data)-1], "truncated line still ends in a newline")
}

func TestLoggerAfterCloseIsNoOp(t *testing.T) {
	e := newTestEnv(t)
	name := filepath.Join(t.TempDir(), "LOG")

	lg, err := e.NewLogger(name)
	require.NoError(t, err)
	lg.Logf("kept")
	require.NoError(t, lg.Close())
	lg.Logf("dropped")
	require.NoError(t, lg.Close(), "double close is a no-op")

	data, err := os.ReadFile(name)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "dropped")
}

func TestFormatLogLine(t *testing.T) {
	now := time.Date(2026, time.August, 24, 13, 37, 42, 123*int(time.Millisecond), time.Local)

	tests := []struct {
		name string
		gid  uint64
		msg  string
		want string
	}{
		{"plain", 0x4f, "message", "2026/08/24-13:37:42.123 4f message\n"},
		{"already newline", 1, "done\n", "2026/08/24-13:37:42.123 1 done\n"},
		{"empty", 1, "", "2026/08/24-13:37:42.123 1 \n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, string(formatLogLine(now, tt.gid, tt.msg)))
		})
	}
}

func TestGoroutineID(t *testing.T) {
	id := goroutineID()
	assert.NotZero(t, id)
	assert.Equal(t, id, goroutineID(), "id is stable within a goroutine")

	other := make(chan uint64, 1)
	go func() { other <- goroutineID() }()
	assert.NotEqual(t, id, <-other, "ids differ across goroutines")
}
