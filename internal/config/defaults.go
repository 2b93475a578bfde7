package config

import (
	"os"
	"path/filepath"
	goruntime "runtime"

	"video-enhancer/internal/domain"
)

const (
	// AppDirName is the per-user directory holding settings and history.
	AppDirName = ".video-enhancer"

	projectDirName   = "Real-ESRGAN"
	scriptFileName   = "inference_realesrgan_video.py"
	resultsDirName   = "results"
	weightsDirName   = "weights"
	defaultLogLevel  = "info"
	settingsFileName = "settings.json"
	historyFileName  = "history.db"
)

// DefaultConfig returns the layout assumed next to the installed binary.
func DefaultConfig() domain.AppConfig {
	return LayoutFor(defaultProjectRoot())
}

// LayoutFor derives interpreter, script and results paths from a project root.
func LayoutFor(root string) domain.AppConfig {
	return domain.AppConfig{
		ProjectRoot: root,
		PythonPath:  VenvPython(root),
		ScriptPath:  filepath.Join(root, scriptFileName),
		OutputDir:   filepath.Join(root, resultsDirName),
		LogLevel:    defaultLogLevel,
		Settings:    domain.DefaultEnhancementSettings(),
	}
}

// VenvPython returns the interpreter inside the project's virtualenv.
func VenvPython(root string) string {
	if goruntime.GOOS == "windows" {
		return filepath.Join(root, "venv", "Scripts", "python.exe")
	}
	return filepath.Join(root, "venv", "bin", "python")
}

// WeightsDir returns the directory Real-ESRGAN loads model weights from.
func WeightsDir(root string) string {
	return filepath.Join(root, weightsDirName)
}

// UserDir returns ~/.video-enhancer, falling back to the working directory.
func UserDir() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		homeDir = "."
	}
	return filepath.Join(homeDir, AppDirName)
}

// SettingsPath returns the JSON settings file location.
func SettingsPath() string {
	return filepath.Join(UserDir(), settingsFileName)
}

// HistoryDBPath returns the SQLite history database location.
func HistoryDBPath() string {
	return filepath.Join(UserDir(), historyFileName)
}

func defaultProjectRoot() string {
	exe, err := os.Executable()
	if err != nil {
		return projectDirName
	}
	return filepath.Join(filepath.Dir(exe), projectDirName)
}
