package diagnostics

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"video-enhancer/internal/config"
	"video-enhancer/internal/domain"
)

// Check IDs reported by Run.
const (
	CheckPython       = "python"
	CheckScript       = "script"
	CheckProjectRoot  = "project_root"
	CheckOutputDir    = "output_dir"
	CheckModelWeights = "model_weights"
)

// Checker validates the Real-ESRGAN layout the enhancer depends on.
type Checker struct {
	lookPath   func(string) (string, error)
	stat       func(string) (os.FileInfo, error)
	readDir    func(string) ([]os.DirEntry, error)
	mkdirAll   func(string, os.FileMode) error
	createTemp func(string, string) (*os.File, error)
	remove     func(string) error
}

// NewChecker builds a checker using real OS dependencies.
func NewChecker() *Checker {
	return &Checker{
		lookPath:   exec.LookPath,
		stat:       os.Stat,
		readDir:    os.ReadDir,
		mkdirAll:   os.MkdirAll,
		createTemp: os.CreateTemp,
		remove:     os.Remove,
	}
}

// Run executes all startup checks and returns a combined report.
// Missing weights are reported but never block enhancement, since the
// script downloads them on first use.
func (c *Checker) Run(cfg domain.AppConfig) domain.DiagnosticReport {
	items := []domain.DiagnosticItem{
		c.checkPython(cfg.PythonPath),
		c.checkScript(cfg.ScriptPath),
		c.checkProjectRoot(cfg.ProjectRoot),
		c.checkOutputDir(cfg.OutputDir),
		c.checkWeights(cfg.ProjectRoot),
	}

	hasFailures := false
	for _, item := range items {
		if item.Status == domain.DiagnosticStatusFail && item.ID != CheckModelWeights {
			hasFailures = true
			break
		}
	}

	return domain.DiagnosticReport{
		GeneratedAt: time.Now().UTC(),
		HasFailures: hasFailures,
		Items:       items,
	}
}

// checkPython requires the configured interpreter to exist on disk.
func (c *Checker) checkPython(pythonPath string) domain.DiagnosticItem {
	item := domain.DiagnosticItem{
		ID:      CheckPython,
		Name:    "Python interpreter",
		Fixable: true,
	}

	if strings.TrimSpace(pythonPath) == "" {
		item.Status = domain.DiagnosticStatusFail
		item.Message = "Python interpreter path is empty."
		item.Hint = "Create the Real-ESRGAN virtualenv or auto-detect a system interpreter."
		return item
	}

	// The runner executes the configured path as is, so a bare name only
	// passes once the fix has saved the resolved location.
	if !filepath.IsAbs(pythonPath) && !strings.ContainsRune(pythonPath, filepath.Separator) {
		item.Status = domain.DiagnosticStatusFail
		item.Message = fmt.Sprintf("Interpreter is not a file path: %s", pythonPath)
		if resolved, err := c.lookPath(pythonPath); err == nil {
			item.Hint = fmt.Sprintf("Fix saves the interpreter found at %s.", resolved)
		} else {
			item.Hint = "Install Python 3 or point the interpreter setting at the virtualenv."
		}
		return item
	}

	if _, err := c.stat(pythonPath); err != nil {
		item.Status = domain.DiagnosticStatusFail
		item.Message = fmt.Sprintf("Interpreter not found: %s", pythonPath)
		item.Hint = "Run `python3 -m venv venv` inside the Real-ESRGAN folder and install its requirements."
		return item
	}

	item.Status = domain.DiagnosticStatusPass
	item.Message = fmt.Sprintf("Found at %s", pythonPath)
	return item
}

func (c *Checker) checkScript(scriptPath string) domain.DiagnosticItem {
	item := domain.DiagnosticItem{
		ID:   CheckScript,
		Name: "Enhancement script",
	}

	info, err := c.stat(scriptPath)
	if err != nil || info.IsDir() {
		item.Status = domain.DiagnosticStatusFail
		item.Message = fmt.Sprintf("Script not found: %s", scriptPath)
		item.Hint = "Clone Real-ESRGAN next to the application or set VIDEO_ENHANCER_SCRIPT."
		return item
	}

	item.Status = domain.DiagnosticStatusPass
	item.Message = fmt.Sprintf("Found at %s", scriptPath)
	return item
}

func (c *Checker) checkProjectRoot(root string) domain.DiagnosticItem {
	item := domain.DiagnosticItem{
		ID:   CheckProjectRoot,
		Name: "Project root",
	}

	info, err := c.stat(root)
	if err != nil || !info.IsDir() {
		item.Status = domain.DiagnosticStatusFail
		if errors.Is(err, os.ErrNotExist) {
			item.Message = fmt.Sprintf("Project root does not exist: %s", root)
		} else {
			item.Message = fmt.Sprintf("Project root is not a directory: %s", root)
		}
		item.Hint = "Set VIDEO_ENHANCER_ROOT to the Real-ESRGAN checkout."
		return item
	}

	item.Status = domain.DiagnosticStatusPass
	item.Message = fmt.Sprintf("Using %s", root)
	return item
}

// checkOutputDir validates output directory existence and write access.
func (c *Checker) checkOutputDir(outputDir string) domain.DiagnosticItem {
	item := domain.DiagnosticItem{
		ID:      CheckOutputDir,
		Name:    "Output directory",
		Fixable: true,
	}

	if strings.TrimSpace(outputDir) == "" {
		item.Status = domain.DiagnosticStatusFail
		item.Message = "Output directory is empty."
		item.Hint = "Reset it to the default results folder."
		return item
	}

	if err := c.mkdirAll(outputDir, 0o755); err != nil {
		item.Status = domain.DiagnosticStatusFail
		item.Message = fmt.Sprintf("Cannot create output directory: %s", outputDir)
		item.Hint = "Choose a writable location or adjust filesystem permissions."
		return item
	}

	tmpFile, err := c.createTemp(outputDir, ".write-check-*")
	if err != nil {
		item.Status = domain.DiagnosticStatusFail
		item.Message = fmt.Sprintf("Output directory is not writable: %s", outputDir)
		item.Hint = "Choose a writable directory for enhanced videos."
		return item
	}

	tmpPath := tmpFile.Name()
	_ = tmpFile.Close()
	_ = c.remove(tmpPath)

	item.Status = domain.DiagnosticStatusPass
	item.Message = fmt.Sprintf("Writable directory: %s", outputDir)
	return item
}

// checkWeights looks for any .pth file in the project's weights directory.
func (c *Checker) checkWeights(root string) domain.DiagnosticItem {
	item := domain.DiagnosticItem{
		ID:      CheckModelWeights,
		Name:    "Model weights",
		Fixable: true,
	}

	dir := config.WeightsDir(root)
	entries, err := c.readDir(dir)
	if err == nil {
		for _, entry := range entries {
			if !entry.IsDir() && strings.EqualFold(filepath.Ext(entry.Name()), ".pth") {
				item.Status = domain.DiagnosticStatusPass
				item.Message = fmt.Sprintf("Weights found in %s", dir)
				return item
			}
		}
	}

	item.Status = domain.DiagnosticStatusFail
	item.Message = fmt.Sprintf("No .pth weights in %s", dir)
	item.Hint = "The script downloads weights on first run; download them now to work offline."
	return item
}

// NewCheckerForTests creates checker with injectable dependencies.
func NewCheckerForTests(
	lookPath func(string) (string, error),
	stat func(string) (os.FileInfo, error),
	readDir func(string) ([]os.DirEntry, error),
	mkdirAll func(string, os.FileMode) error,
	createTemp func(string, string) (*os.File, error),
	remove func(string) error,
) *Checker {
	return &Checker{
		lookPath:   lookPath,
		stat:       stat,
		readDir:    readDir,
		mkdirAll:   mkdirAll,
		createTemp: createTemp,
		remove:     remove,
	}
}
