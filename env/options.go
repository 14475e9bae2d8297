package env

import (
	"os"

	"github.com/beyondbrewing/brewery-platform/pkg/logger"
)

// Config holds the tunable parameters for an Env instance. Use functional
// [Option] values with [Open] or [NewMemEnv] rather than constructing a
// Config directly.
type Config struct {
	// TempDir is the root under which GetTestDirectory creates its
	// per-process scratch directory. Defaults to the OS temp directory.
	TempDir string

	// Logger receives structured operational log messages from the layer
	// itself (worker startup, lock acquisition). This is separate from the
	// engine-facing [Logger] handles returned by NewLogger.
	// If not set, the global logger.Default() is used.
	Logger logger.Logger
}

// DefaultConfig returns a Config with production defaults.
func DefaultConfig() *Config {
	return &Config{
		TempDir: os.TempDir(),
	}
}

func (c *Config) validate() {
	if c.TempDir == "" {
		c.TempDir = os.TempDir()
	}
	if c.Logger == nil {
		c.Logger = logger.Default()
	}
}

// Option is a functional option applied to [Config].
type Option func(*Config)

// WithTempDir overrides the root directory used by GetTestDirectory.
func WithTempDir(dir string) Option {
	return func(c *Config) { c.TempDir = dir }
}

// WithLogger sets the structured logger for the layer's own diagnostics.
// If not set, the global logger.Default() is used.
func WithLogger(l logger.Logger) Option {
	return func(c *Config) { c.Logger = l }
}
