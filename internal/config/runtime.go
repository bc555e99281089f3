package config

import (
	"os"
	"path/filepath"
)

const (
	RuntimePathEnv     = "REPORTGEN_RUNTIME_PATH"
	DebugEnv           = "REPORTGEN_DEBUG"
	defaultRuntimePath = ".reportgen"
)

// GetRuntimePath is where the .env file, the database and the chat log live.
// Relative paths are resolved against the home directory.
func GetRuntimePath() string {
	path := os.Getenv(RuntimePathEnv)
	if path == "" {
		path = defaultRuntimePath
	}

	if !filepath.IsAbs(path) {
		home, _ := os.UserHomeDir()
		path = filepath.Join(home, path)
	}
	return path
}

func IsDebug() bool {
	switch os.Getenv(DebugEnv) {
	case "1", "true":
		return true
	}
	return false
}
