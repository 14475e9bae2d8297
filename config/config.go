// Package config imports optional process-level settings for the platform
// layer from the environment or an .env file. Library packages never read
// these directly; binaries call [Import] once at startup and pass the
// values on.
package config

import (
	"fmt"
	"log"

	"github.com/spf13/viper"
)

// injected configurations
var (
	APP_NAME    string = "brewery-platform"
	APP_VERSION string = "0.0.1"
)

// values changed by parameters from config
var (
	PLATFORM_LOG_LEVEL string = "info"
	PLATFORM_TMPDIR    string = ""
)

// Import loads settings from an optional .env file and the process
// environment. A missing .env file is tolerated; any other read error is
// fatal.
func Import() {
	viper.SetConfigName(".env")
	viper.SetConfigType("env")
	viper.AddConfigPath(".")
	viper.AutomaticEnv()

	viper.SetDefault("PLATFORM_LOG_LEVEL", PLATFORM_LOG_LEVEL)
	viper.SetDefault("PLATFORM_TMPDIR", PLATFORM_TMPDIR)

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			log.Panicln(fmt.Errorf("fatal error config file: %s", err))
		}
	}

	PLATFORM_LOG_LEVEL = viper.GetString("PLATFORM_LOG_LEVEL")
	PLATFORM_TMPDIR = viper.GetString("PLATFORM_TMPDIR")
}
