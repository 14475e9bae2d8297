package env

import (
	"os"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultReturnsOneInstance(t *testing.T) {
	const callers = 16

	instances := make([]Env, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			instances[i] = Default()
		}()
	}
	wg.Wait()

	for i := 1; i < callers; i++ {
		assert.Same(t, instances[0], instances[i])
	}
}

func TestNowMicrosWithinDay(t *testing.T) {
	e := newTestEnv(t)

	v := e.NowMicros()
	assert.Less(t, v, uint64(24*time.Hour/time.Microsecond),
		"NowMicros is relative to local midnight")
}

func TestSleepMicros(t *testing.T) {
	e := newTestEnv(t)

	start := time.Now()
	e.SleepMicros(2000)
	assert.GreaterOrEqual(t, time.Since(start), 2*time.Millisecond)
}

func TestGetTestDirectory(t *testing.T) {
	root := t.TempDir()
	e := newTestEnvAt(t, root)

	dir, err := e.GetTestDirectory()
	require.NoError(t, err)
	assert.DirExists(t, dir)
	assert.Contains(t, dir, strconv.Itoa(os.Getpid()), "scratch directory is named by pid")
	assert.True(t, strings.HasPrefix(dir, root), "scratch directory lives under the configured root")

	again, err := e.GetTestDirectory()
	require.NoError(t, err)
	assert.Equal(t, dir, again, "repeat calls return the same directory")
}
