package bootstrap

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"video-enhancer/internal/config"
	"video-enhancer/internal/diagnostics"
	"video-enhancer/internal/domain"
)

// TestFixOutputDirResetsEmptyPath ensures an empty output dir falls back to the project results folder.
func TestFixOutputDirResetsEmptyPath(t *testing.T) {
	root := t.TempDir()
	cfg := config.LayoutFor(root)
	cfg.OutputDir = ""

	fixed, changed, err := fixOutputDir(cfg)
	if err != nil {
		t.Fatalf("fix output dir: %v", err)
	}
	want := filepath.Join(root, "results")
	if !changed || fixed.OutputDir != want {
		t.Fatalf("changed=%v OutputDir=%s, want %s", changed, fixed.OutputDir, want)
	}
	if _, err := os.Stat(want); err != nil {
		t.Fatalf("stat output dir: %v", err)
	}
}

// TestFixOutputDirCreatesConfiguredDirectory ensures a valid custom path is kept and created.
func TestFixOutputDirCreatesConfiguredDirectory(t *testing.T) {
	cfg := config.LayoutFor(t.TempDir())
	cfg.OutputDir = filepath.Join(t.TempDir(), "nested", "videos")

	fixed, changed, err := fixOutputDir(cfg)
	if err != nil {
		t.Fatalf("fix output dir: %v", err)
	}
	if changed || fixed.OutputDir != cfg.OutputDir {
		t.Fatalf("expected settings to remain unchanged, got %s", fixed.OutputDir)
	}
	if _, err := os.Stat(cfg.OutputDir); err != nil {
		t.Fatalf("stat output dir: %v", err)
	}
}

// TestFixPythonPathKeepsExistingInterpreter ensures a present interpreter is left alone.
func TestFixPythonPathKeepsExistingInterpreter(t *testing.T) {
	cfg := config.LayoutFor(t.TempDir())
	mustWriteFile(t, cfg.PythonPath)

	fixed, changed, err := fixPythonPath(cfg, func(string) (string, error) {
		t.Fatal("lookPath must not be called")
		return "", nil
	})
	if err != nil || changed || fixed.PythonPath != cfg.PythonPath {
		t.Fatalf("changed=%v path=%s err=%v", changed, fixed.PythonPath, err)
	}
}

// TestFixPythonPathReportsMissingInterpreters ensures every candidate is tried.
func TestFixPythonPathReportsMissingInterpreters(t *testing.T) {
	cfg := config.LayoutFor(t.TempDir())

	var tried []string
	_, changed, err := fixPythonPath(cfg, func(name string) (string, error) {
		tried = append(tried, name)
		return "", errors.New("not found")
	})
	if err == nil || changed {
		t.Fatalf("expected failure, changed=%v err=%v", changed, err)
	}
	if strings.Join(tried, ",") != "python3,python" {
		t.Fatalf("tried %v", tried)
	}
	if !strings.Contains(err.Error(), "no usable python interpreter") {
		t.Fatalf("unexpected error: %v", err)
	}
}

// TestInstallOrFixDiagnosticOutputDirSavesSettings checks the fix is persisted and re-checked.
func TestInstallOrFixDiagnosticOutputDirSavesSettings(t *testing.T) {
	app, cfg := newTestApp(t, producingRunner())
	app.checker = diagnostics.NewChecker()
	app.Config.OutputDir = ""
	store := app.Store.(*fakeStore)

	report, err := app.InstallOrFixDiagnostic(diagnostics.CheckOutputDir)
	if err != nil {
		t.Fatalf("fix: %v", err)
	}
	if store.saves != 1 || store.cfg.OutputDir != cfg.OutputDir {
		t.Fatalf("saves=%d outputDir=%s", store.saves, store.cfg.OutputDir)
	}
	item, ok := report.Item(diagnostics.CheckOutputDir)
	if !ok || item.Status != domain.DiagnosticStatusPass {
		t.Fatalf("unexpected output_dir item: %+v", item)
	}
}

// TestBareInterpreterFailsDiagnosticsAndRun checks the python check and a run
// agree on an interpreter configured by name only.
func TestBareInterpreterFailsDiagnosticsAndRun(t *testing.T) {
	app, _ := newTestApp(t, producingRunner())
	app.checker = diagnostics.NewChecker()
	app.Config.PythonPath = "sh"

	report := app.RefreshDiagnostics()
	item, ok := report.Item(diagnostics.CheckPython)
	if !ok || item.Status != domain.DiagnosticStatusFail {
		t.Fatalf("python check = %+v, want fail", item)
	}
	if !report.HasFailures {
		t.Fatal("expected report to have failures")
	}

	source := filepath.Join(t.TempDir(), "clip.mp4")
	mustWriteFile(t, source)
	app.SelectInputFile(source)
	result, err := app.Enhance()
	if err != nil {
		t.Fatalf("enhance: %v", err)
	}
	if result.Success || result.ErrorKind != domain.ErrorKindMissingDependency {
		t.Fatalf("unexpected result: %+v", result)
	}
}

// TestInstallOrFixDiagnosticRejectsUnknownID checks unsupported items.
func TestInstallOrFixDiagnosticRejectsUnknownID(t *testing.T) {
	app, _ := newTestApp(t, producingRunner())
	if _, err := app.InstallOrFixDiagnostic(diagnostics.CheckScript); err == nil {
		t.Fatal("expected script check to be unfixable")
	}
	if _, err := app.InstallOrFixDiagnostic(" "); err == nil {
		t.Fatal("expected empty id to be rejected")
	}
}

// TestDownloadURLToFile checks the download lands at the destination atomically.
func TestDownloadURLToFile(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/RealESRGAN_x2plus.pth" {
			http.NotFound(w, r)
			return
		}
		w.Write([]byte("weights"))
	}))
	defer srv.Close()

	dest := filepath.Join(t.TempDir(), "weights", "RealESRGAN_x2plus.pth")
	if err := downloadURLToFile(dest, srv.URL+"/RealESRGAN_x2plus.pth", time.Minute); err != nil {
		t.Fatalf("download: %v", err)
	}
	data, err := os.ReadFile(dest)
	if err != nil || string(data) != "weights" {
		t.Fatalf("read %s: %q %v", dest, data, err)
	}
	if _, err := os.Stat(dest + ".download"); !os.IsNotExist(err) {
		t.Fatal("expected temporary file to be gone")
	}

	missing := filepath.Join(t.TempDir(), "missing.pth")
	if err := downloadURLToFile(missing, srv.URL+"/nope", time.Minute); err == nil {
		t.Fatal("expected HTTP error")
	}
	if _, err := os.Stat(missing); !os.IsNotExist(err) {
		t.Fatal("failed download must not create the destination")
	}
}
