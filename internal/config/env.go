package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"video-enhancer/internal/domain"
)

// Environment variable names
const (
	EnvProjectRoot    = "VIDEO_ENHANCER_ROOT"
	EnvPythonPath     = "VIDEO_ENHANCER_PYTHON"
	EnvScriptPath     = "VIDEO_ENHANCER_SCRIPT"
	EnvOutputDir      = "VIDEO_ENHANCER_OUTPUT_DIR"
	EnvLogLevel       = "VIDEO_ENHANCER_LOG_LEVEL"
	EnvPersistHistory = "VIDEO_ENHANCER_PERSIST_HISTORY"
)

// LoadDotEnv loads variables from the given .env files when present.
// Missing files are not an error.
func LoadDotEnv(paths ...string) {
	for _, path := range paths {
		if _, err := os.Stat(path); err != nil {
			continue
		}
		_ = godotenv.Load(path)
	}
}

// ApplyEnv overrides configuration fields from environment variables.
// Changing the project root re-derives any path still at its old default.
func ApplyEnv(cfg domain.AppConfig, getenv func(string) string) (domain.AppConfig, error) {
	if getenv == nil {
		getenv = os.Getenv
	}

	if root := strings.TrimSpace(getenv(EnvProjectRoot)); root != "" {
		old := LayoutFor(cfg.ProjectRoot)
		next := LayoutFor(root)
		cfg.ProjectRoot = root
		if cfg.PythonPath == "" || cfg.PythonPath == old.PythonPath {
			cfg.PythonPath = next.PythonPath
		}
		if cfg.ScriptPath == "" || cfg.ScriptPath == old.ScriptPath {
			cfg.ScriptPath = next.ScriptPath
		}
		if cfg.OutputDir == "" || cfg.OutputDir == old.OutputDir {
			cfg.OutputDir = next.OutputDir
		}
	}
	if v := strings.TrimSpace(getenv(EnvPythonPath)); v != "" {
		cfg.PythonPath = v
	}
	if v := strings.TrimSpace(getenv(EnvScriptPath)); v != "" {
		cfg.ScriptPath = v
	}
	if v := strings.TrimSpace(getenv(EnvOutputDir)); v != "" {
		cfg.OutputDir = v
	}
	if v := strings.TrimSpace(getenv(EnvLogLevel)); v != "" {
		cfg.LogLevel = v
	}
	if v := strings.TrimSpace(getenv(EnvPersistHistory)); v != "" {
		persist, err := strconv.ParseBool(v)
		if err != nil {
			return cfg, fmt.Errorf("invalid %s: %w", EnvPersistHistory, err)
		}
		cfg.PersistHistory = persist
	}
	return cfg, nil
}
