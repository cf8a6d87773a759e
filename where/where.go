// Package where implements a cross-platform resolver for application-specific filesystem paths.
package where

import (
	"os"
	"path/filepath"

	"github.com/airfeed/airfeed/constant"
	"github.com/airfeed/airfeed/filesystem"
	"github.com/samber/lo"
)

// EnvConfigPath is the environment variable identifier used to override the default configuration directory.
const EnvConfigPath = "AIRFEED_CONFIG_PATH"

// ensureDir guarantees the existence of a directory at the specified path, creating it if necessary.
func ensureDir(path string) string {
	lo.Must0(filesystem.API().MkdirAll(path, os.ModePerm))
	return path
}

// Config resolves the absolute path to the primary application configuration directory.
// Direct override: The path resolution can be explicitly specified via the AIRFEED_CONFIG_PATH environment variable.
func Config() string {
	if custom, ok := os.LookupEnv(EnvConfigPath); ok {
		return ensureDir(custom)
	}

	base := lo.Must(os.UserConfigDir())
	return ensureDir(filepath.Join(base, constant.Airfeed))
}

// Cache resolves the absolute path to the application's persistent cache directory.
func Cache() string {
	base, err := os.UserCacheDir()
	if err != nil {
		// Fallback: Revert to a localized cache directory if the system-provided path is inaccessible.
		base = filepath.Join(".", "cache")
	}
	return ensureDir(filepath.Join(base, constant.Airfeed))
}

// Logs resolves the absolute path to the directory used for application diagnostic logs.
func Logs() string {
	return ensureDir(filepath.Join(Config(), "logs"))
}

// DurationHints resolves the absolute path to the persisted media duration estimate registry.
func DurationHints() string {
	return filepath.Join(Cache(), "duration_hints.json")
}

// History resolves the absolute path to the persisted record of played playlist URIs.
func History() string {
	return filepath.Join(Cache(), "history.json")
}

// Temp resolves a unique, volatile filesystem path for transient application artifacts,
// such as media downloaded during request resolution.
func Temp() string {
	return ensureDir(filepath.Join(os.TempDir(), constant.Airfeed))
}
