package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"video-enhancer/internal/config"
	"video-enhancer/internal/diagnostics"
	"video-enhancer/internal/domain"
)

const (
	probeCommandTimeout  = 30 * time.Second
	modelDownloadTimeout = 45 * time.Minute
)

var pythonCandidates = []string{"python3", "python"}

// InstallOrFixDiagnostic applies the remediation for one failed diagnostic item.
func (a *App) InstallOrFixDiagnostic(itemID string) (domain.DiagnosticReport, error) {
	id := strings.TrimSpace(itemID)
	if id == "" {
		return a.GetDiagnostics(), fmt.Errorf("diagnostic item id is required")
	}

	a.mu.Lock()
	cfg := a.Config
	a.mu.Unlock()

	changed := false
	var fixErr error

	switch id {
	case diagnostics.CheckPython:
		cfg, changed, fixErr = fixPythonPath(cfg, exec.LookPath)
	case diagnostics.CheckOutputDir:
		cfg, changed, fixErr = fixOutputDir(cfg)
	case diagnostics.CheckModelWeights:
		_, fixErr = downloadWeights(cfg.ProjectRoot, domain.ModelRealESRGANx2Plus)
	default:
		return a.GetDiagnostics(), fmt.Errorf("unsupported diagnostic item id: %s", id)
	}

	if changed {
		if saveErr := a.saveConfig(cfg); saveErr != nil {
			report := a.refreshDiagnostics(cfg)
			return report, fmt.Errorf("save settings after fix: %w", saveErr)
		}
	}

	report := a.refreshDiagnostics(cfg)
	if fixErr != nil {
		return report, fixErr
	}
	a.log().Info("diagnostic fixed", "id", id)
	return report, nil
}

func (a *App) refreshDiagnostics(cfg domain.AppConfig) domain.DiagnosticReport {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.Config = cfg
	if a.checker != nil {
		a.Diagnostics = a.checker.Run(cfg)
	}
	return a.Diagnostics
}

// saveConfig persists the layout fields of cfg over the stored preferences.
func (a *App) saveConfig(cfg domain.AppConfig) error {
	if a.Store == nil {
		return fmt.Errorf("settings store is not configured")
	}
	stored, err := a.Store.Load()
	if err != nil {
		return fmt.Errorf("load settings: %w", err)
	}
	stored.PythonPath = cfg.PythonPath
	stored.OutputDir = cfg.OutputDir
	return a.Store.Save(stored)
}

// fixPythonPath replaces a missing interpreter with the first working one on PATH.
func fixPythonPath(cfg domain.AppConfig, lookPath func(string) (string, error)) (domain.AppConfig, bool, error) {
	if _, err := os.Stat(cfg.PythonPath); err == nil {
		return cfg, false, nil
	}

	attempts := make([]string, 0, len(pythonCandidates))
	for _, candidate := range pythonCandidates {
		path, err := lookPath(candidate)
		if err != nil {
			attempts = append(attempts, fmt.Sprintf("%s: not on PATH", candidate))
			continue
		}
		if err := runCommand(path, "--version"); err != nil {
			attempts = append(attempts, err.Error())
			continue
		}
		cfg.PythonPath = path
		return cfg, true, nil
	}
	return cfg, false, fmt.Errorf("no usable python interpreter found (%s)", strings.Join(attempts, " | "))
}

// fixOutputDir resets the output directory to the project default and creates it.
func fixOutputDir(cfg domain.AppConfig) (domain.AppConfig, bool, error) {
	target := strings.TrimSpace(cfg.OutputDir)
	changed := false
	if target == "" || os.MkdirAll(target, 0o755) != nil {
		target = config.LayoutFor(cfg.ProjectRoot).OutputDir
		changed = target != cfg.OutputDir
	}

	if err := os.MkdirAll(target, 0o755); err != nil {
		return cfg, false, fmt.Errorf("create output directory: %w", err)
	}
	cfg.OutputDir = target
	return cfg, changed, nil
}

func runCommand(name string, args ...string) error {
	ctx, cancel := context.WithTimeout(context.Background(), probeCommandTimeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, name, args...)
	output, err := cmd.CombinedOutput()
	if err == nil {
		return nil
	}

	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("%s timed out after %s", formatCommand(name, args), probeCommandTimeout)
	}

	trimmed := strings.TrimSpace(string(output))
	if len(trimmed) > 500 {
		trimmed = trimmed[:500] + "..."
	}
	if trimmed == "" {
		return fmt.Errorf("%s failed: %w", formatCommand(name, args), err)
	}
	return fmt.Errorf("%s failed: %w (%s)", formatCommand(name, args), err, trimmed)
}

func formatCommand(name string, args []string) string {
	parts := append([]string{name}, args...)
	return strings.Join(parts, " ")
}

func downloadURLToFile(destinationPath string, sourceURL string, timeout time.Duration) error {
	if err := os.MkdirAll(filepath.Dir(destinationPath), 0o755); err != nil {
		return fmt.Errorf("prepare destination directory: %w", err)
	}

	tmpPath := destinationPath + ".download"
	if err := os.Remove(tmpPath); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove stale temp file: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, sourceURL, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", "video-enhancer")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("request download: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected HTTP status: %s", resp.Status)
	}

	file, err := os.OpenFile(tmpPath, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("create temporary file: %w", err)
	}

	_, copyErr := io.Copy(file, resp.Body)
	closeErr := file.Close()
	if copyErr != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("write destination file: %w", copyErr)
	}
	if closeErr != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("close destination file: %w", closeErr)
	}

	if err := os.Remove(destinationPath); err != nil && !errors.Is(err, os.ErrNotExist) {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("remove old destination file: %w", err)
	}
	if err := os.Rename(tmpPath, destinationPath); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("move downloaded file into place: %w", err)
	}
	return nil
}
