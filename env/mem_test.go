package env

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/beyondbrewing/brewery-platform/pkg/logger"
)

func newMemEnv(t *testing.T) *MemEnv {
	t.Helper()
	return NewMemEnv(WithLogger(logger.NewNop()))
}

func TestMemEnvRoundTrip(t *testing.T) {
	e := newMemEnv(t)

	wf, err := e.NewWritableFile("/db/MANIFEST")
	require.NoError(t, err)
	require.NoError(t, wf.Append([]byte("hello ")))
	require.NoError(t, wf.Append([]byte("world")))
	require.NoError(t, wf.Sync())
	require.NoError(t, wf.Close())
	require.NoError(t, wf.Close(), "second Close must be a no-op")

	size, err := e.GetFileSize("/db/MANIFEST")
	require.NoError(t, err)
	assert.EqualValues(t, 11, size)

	sf, err := e.NewSequentialFile("/db/MANIFEST")
	require.NoError(t, err)
	defer sf.Close()

	data, err := sf.Read(11, nil)
	require.NoError(t, err)
	assert.Equal(t, "hello world", string(data))

	data, err = sf.Read(11, nil)
	require.NoError(t, err)
	assert.Empty(t, data, "read at end of file is empty, not an error")
}

func TestMemEnvRandomAccess(t *testing.T) {
	e := newMemEnv(t)

	wf, err := e.NewWritableFile("/blob")
	require.NoError(t, err)
	require.NoError(t, wf.Append([]byte("hello world")))
	require.NoError(t, wf.Close())

	rf, err := e.NewRandomAccessFile("/blob")
	require.NoError(t, err)
	defer rf.Close()

	data, err := rf.Read(6, 5, nil)
	require.NoError(t, err)
	assert.Equal(t, "world", string(data))

	data, err = rf.Read(100, 5, nil)
	require.NoError(t, err)
	assert.Empty(t, data)
}

func TestMemEnvMissingFiles(t *testing.T) {
	e := newMemEnv(t)

	_, err := e.NewSequentialFile("/nope")
	require.ErrorIs(t, err, ErrNotFound)
	_, err = e.NewRandomAccessFile("/nope")
	require.ErrorIs(t, err, ErrNotFound)
	_, err = e.GetFileSize("/nope")
	require.ErrorIs(t, err, ErrNotFound)
	require.ErrorIs(t, e.RemoveFile("/nope"), ErrNotFound)
	require.ErrorIs(t, e.RenameFile("/nope", "/dst"), ErrNotFound)
	assert.False(t, e.FileExists("/nope"))
}

func TestMemEnvDirectories(t *testing.T) {
	e := newMemEnv(t)

	require.NoError(t, e.CreateDir("/db/sst"))
	assert.True(t, e.FileExists("/db"), "parents are created implicitly")

	wf, err := e.NewWritableFile("/db/sst/000001.sst")
	require.NoError(t, err)
	require.NoError(t, wf.Close())
	wf, err = e.NewWritableFile("/db/LOG")
	require.NoError(t, err)
	require.NoError(t, wf.Close())

	children, err := e.GetChildren("/db")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"sst", "LOG"}, children)

	_, err = e.GetChildren("/missing")
	require.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, e.RemoveDir("/db"))
	assert.False(t, e.FileExists("/db/LOG"), "removing a directory removes its contents")
	require.ErrorIs(t, e.RemoveDir("/db"), ErrNotFound)
}

func TestMemEnvRename(t *testing.T) {
	e := newMemEnv(t)

	wf, err := e.NewWritableFile("/a")
	require.NoError(t, err)
	require.NoError(t, wf.Append([]byte("payload")))
	require.NoError(t, wf.Close())

	require.NoError(t, e.RenameFile("/a", "/b"))
	assert.False(t, e.FileExists("/a"))

	size, err := e.GetFileSize("/b")
	require.NoError(t, err)
	assert.EqualValues(t, 7, size)
}

func TestMemEnvLocking(t *testing.T) {
	e := newMemEnv(t)

	lock, err := e.LockFile("/db/LOCK")
	require.NoError(t, err)
	assert.True(t, e.FileExists("/db/LOCK"))

	_, err = e.LockFile("/db/LOCK")
	require.ErrorIs(t, err, ErrLockHeld)

	require.NoError(t, e.UnlockFile(lock))
	require.NoError(t, e.UnlockFile(lock), "double unlock is a no-op")
	require.NoError(t, e.UnlockFile(nil))

	relock, err := e.LockFile("/db/LOCK")
	require.NoError(t, err)
	require.NoError(t, e.UnlockFile(relock))
}

func TestMemEnvStaleUnlockKeepsCurrentHolder(t *testing.T) {
	e := newMemEnv(t)

	first, err := e.LockFile("/db/LOCK")
	require.NoError(t, err)
	require.NoError(t, e.UnlockFile(first))

	second, err := e.LockFile("/db/LOCK")
	require.NoError(t, err)

	// Unlocking the already released handle again must not free the
	// lock out from under the current holder.
	require.NoError(t, e.UnlockFile(first))
	_, err = e.LockFile("/db/LOCK")
	require.ErrorIs(t, err, ErrLockHeld)

	require.NoError(t, e.UnlockFile(second))
}

func TestMemEnvSkipBounds(t *testing.T) {
	e := newMemEnv(t)

	wf, err := e.NewWritableFile("/digits")
	require.NoError(t, err)
	require.NoError(t, wf.Append([]byte("0123456789")))
	require.NoError(t, wf.Close())

	sf, err := e.NewSequentialFile("/digits")
	require.NoError(t, err)
	defer sf.Close()

	data, err := sf.Read(5, nil)
	require.NoError(t, err)
	require.Equal(t, "01234", string(data))

	// Backward skips within the file are fine.
	require.NoError(t, sf.Skip(-2))
	data, err = sf.Read(2, nil)
	require.NoError(t, err)
	assert.Equal(t, "34", string(data))

	// Seeking before the start fails and leaves the cursor in place.
	require.Error(t, sf.Skip(-100))
	data, err = sf.Read(2, nil)
	require.NoError(t, err)
	assert.Equal(t, "56", string(data))
}

func TestMemEnvScheduleFIFO(t *testing.T) {
	e := newMemEnv(t)

	const n = 100
	var (
		mu  sync.Mutex
		got []int
		wg  sync.WaitGroup
	)
	wg.Add(n)
	for i := 0; i < n; i++ {
		i := i
		e.Schedule(func() {
			defer wg.Done()
			mu.Lock()
			got = append(got, i)
			mu.Unlock()
		})
	}
	wg.Wait()

	require.Len(t, got, n)
	for i, v := range got {
		require.Equal(t, i, v)
	}
}

func TestMemEnvLogger(t *testing.T) {
	e := newMemEnv(t)

	lg, err := e.NewLogger("/db/LOG")
	require.NoError(t, err)
	lg.Logf("opened at %s", "startup")
	require.NoError(t, lg.Close())

	sf, err := e.NewSequentialFile("/db/LOG")
	require.NoError(t, err)
	defer sf.Close()

	data, err := sf.Read(4096, nil)
	require.NoError(t, err)
	line := string(data)
	assert.Regexp(t, logPrefixRE, line)
	assert.Contains(t, line, "opened at startup\n")
}

func TestMemEnvTestDirectory(t *testing.T) {
	e := newMemEnv(t)

	dir, err := e.GetTestDirectory()
	require.NoError(t, err)
	assert.True(t, e.FileExists(dir))
}
