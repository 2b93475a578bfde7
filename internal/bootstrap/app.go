package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	goruntime "runtime"
	"strings"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/wailsapp/wails/v2"
	"github.com/wailsapp/wails/v2/pkg/options"
	"github.com/wailsapp/wails/v2/pkg/options/assetserver"

	"video-enhancer/internal/config"
	"video-enhancer/internal/diagnostics"
	"video-enhancer/internal/dialogs"
	"video-enhancer/internal/domain"
	"video-enhancer/internal/enhance"
	"video-enhancer/internal/history"
	"video-enhancer/internal/jobs"
	"video-enhancer/internal/logging"
	"video-enhancer/internal/preview"
	"video-enhancer/internal/session"

	wailsruntime "github.com/wailsapp/wails/v2/pkg/runtime"
)

// ErrNoInputFile is returned when enhancement is requested before a video is selected.
var ErrNoInputFile = errors.New("no input video selected")

// enhancer runs one enhancement job to completion.
type enhancer interface {
	Submit(ctx context.Context, job domain.EnhancementJob, hooks enhance.Hooks) domain.JobResult
}

// fileDialogs is the native dialog surface used by the bound methods.
type fileDialogs interface {
	PickInputVideo(ctx context.Context) (string, bool, error)
	PickSaveLocation(ctx context.Context, suggestedName string, format domain.OutputFormat) (string, bool, error)
	ResolveFullPath(ctx context.Context, name string) (string, bool, error)
}

// App is the one set of methods bound to the window. It wires settings,
// the job lifecycle, history, previews and diagnostics.
type App struct {
	Config      domain.AppConfig
	Store       config.Store
	Jobs        *jobs.Manager
	State       *session.State
	Ledger      *history.Ledger
	Preview     *preview.Controller
	Dialogs     fileDialogs
	Diagnostics domain.DiagnosticReport

	newEnhancer  func(domain.AppConfig) enhancer
	checker      *diagnostics.Checker
	historyStore *history.SQLiteStore
	assets       fs.FS
	logger       *slog.Logger

	mu          sync.Mutex
	activeJobID string
	cancel      context.CancelFunc
	events      *jobs.EventBus
	runtimeCtx  context.Context
}

// New builds the application with persisted settings and startup diagnostics.
func New() (*App, error) {
	return NewWithAssets(nil)
}

// NewWithAssets builds the application and optionally configures embedded frontend assets.
func NewWithAssets(assets fs.FS) (*App, error) {
	config.LoadDotEnv(".env", filepath.Join(config.UserDir(), ".env"))

	store := config.NewJSONStore(config.SettingsPath())
	cfg, err := store.Load()
	if err != nil {
		return nil, fmt.Errorf("load settings: %w", err)
	}
	cfg, err = config.ApplyEnv(cfg, os.Getenv)
	if err != nil {
		return nil, fmt.Errorf("apply environment: %w", err)
	}

	logger := logging.NewLogger(cfg.LogLevel)

	var historyStore *history.SQLiteStore
	var ledgerStore history.Store
	if cfg.PersistHistory {
		historyStore, err = history.OpenSQLite(config.HistoryDBPath(), logger)
		if err != nil {
			return nil, fmt.Errorf("open history database: %w", err)
		}
		ledgerStore = historyStore
	}
	ledger := history.NewLedger(ledgerStore, logger)
	if err := ledger.Load(context.Background()); err != nil {
		logger.Warn("history unavailable", "error", err)
	}

	checker := diagnostics.NewChecker()
	app := &App{
		Config:       cfg,
		Store:        store,
		Jobs:         jobs.NewManager(),
		State:        session.New(cfg.Settings),
		Ledger:       ledger,
		Preview:      preview.NewController(logger),
		Dialogs:      dialogs.New(logger),
		Diagnostics:  checker.Run(cfg),
		checker:      checker,
		historyStore: historyStore,
		assets:       assets,
		logger:       logging.WithComponent(logger, "app"),
		events:       jobs.NewEventBus(1000),
	}
	app.newEnhancer = func(cfg domain.AppConfig) enhancer {
		return enhance.NewOrchestrator(enhance.Config{
			PythonPath:  cfg.PythonPath,
			ScriptPath:  cfg.ScriptPath,
			ProjectRoot: cfg.ProjectRoot,
			Logger:      logger,
		})
	}

	app.logger.Info("application configured",
		"project_root", logging.SanitizePath(cfg.ProjectRoot),
		"persist_history", cfg.PersistHistory,
		"diagnostics_failed", app.Diagnostics.HasFailures,
	)
	return app, nil
}

// Run starts the Wails desktop application and binds backend methods.
func (a *App) Run() error {
	return wails.Run(&options.App{
		Title:       "Video Enhancer",
		Width:       1180,
		Height:      820,
		AssetServer: a.assetOptions(),
		DragAndDrop: &options.DragAndDrop{
			EnableFileDrop: true,
		},
		OnStartup:  a.Startup,
		OnShutdown: a.Shutdown,
		Bind:       []interface{}{a},
	})
}

// assetOptions serves the frontend and mounts preview media routes on the asset handler.
func (a *App) assetOptions() *assetserver.Options {
	r := chi.NewRouter()
	a.Preview.Routes(r)

	opts := &assetserver.Options{Handler: r}
	if a.assets != nil {
		opts.Assets = a.assets
	} else {
		r.Handle("/*", http.FileServer(http.Dir("./frontend")))
	}
	return opts
}

// Startup stores Wails runtime context for dialogs and push events.
func (a *App) Startup(ctx context.Context) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.runtimeCtx = ctx
}

// Shutdown cancels any running job and releases previews and the history database.
func (a *App) Shutdown(ctx context.Context) {
	a.mu.Lock()
	cancel := a.cancel
	a.runtimeCtx = nil
	a.mu.Unlock()

	if a.Jobs != nil && a.Jobs.IsRunning() {
		a.log().Info("cancelling running job on shutdown", "job_id", a.Jobs.Current().ID)
	}
	if cancel != nil {
		cancel()
	}
	if a.Preview != nil {
		a.Preview.Close()
	}
	if a.historyStore != nil {
		if err := a.historyStore.Close(); err != nil {
			a.log().Warn("close history database", "error", err)
		}
	}
}

// GetState returns the selected file, save location, settings and preview URLs.
func (a *App) GetState() session.Snapshot {
	snap := a.State.Snapshot()
	if a.Preview != nil {
		snap.SourceURL, _ = a.Preview.URL(preview.SlotSource)
		snap.ResultURL, _ = a.Preview.URL(preview.SlotResult)
	}
	return snap
}

// UpdateSettings normalizes and persists the enhancement settings.
// Out-of-range values are logged and replaced, never rejected.
func (a *App) UpdateSettings(settings domain.EnhancementSettings) (domain.EnhancementSettings, error) {
	if err := settings.Validate(); err != nil {
		a.log().Warn("settings adjusted", "error", err)
	}
	normalized := a.State.SetSettings(settings)

	if a.Store != nil {
		stored, err := a.Store.Load()
		if err != nil {
			return normalized, fmt.Errorf("load settings: %w", err)
		}
		stored.Settings = normalized
		if err := a.Store.Save(stored); err != nil {
			return normalized, fmt.Errorf("save settings: %w", err)
		}
	}

	a.mu.Lock()
	a.Config.Settings = normalized
	a.mu.Unlock()
	return normalized, nil
}

// SelectInputFile makes path the current video and shows it in the source
// preview. The previous result preview is released.
func (a *App) SelectInputFile(path string) (session.Snapshot, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return a.GetState(), ErrNoInputFile
	}

	a.State.SetCurrentFile(path)
	if a.Preview != nil {
		a.Preview.ClearSlot(preview.SlotResult)
		if _, err := a.Preview.ShowSource(path); err != nil {
			return a.GetState(), fmt.Errorf("show source preview: %w", err)
		}
	}
	a.log().Info("input selected", "path", logging.SanitizePath(path))
	return a.GetState(), nil
}

// PickInputVideo opens the native open dialog. Cancelling leaves the state untouched.
func (a *App) PickInputVideo() (session.Snapshot, error) {
	path, ok, err := a.Dialogs.PickInputVideo(a.dialogContext())
	if err != nil {
		return a.GetState(), err
	}
	if !ok {
		return a.GetState(), nil
	}
	return a.SelectInputFile(path)
}

// ResolveInputFile turns a dropped file name into a full path and selects it.
func (a *App) ResolveInputFile(name string) (session.Snapshot, error) {
	path, ok, err := a.Dialogs.ResolveFullPath(a.dialogContext(), name)
	if err != nil {
		return a.GetState(), err
	}
	if !ok {
		return a.GetState(), nil
	}
	return a.SelectInputFile(path)
}

// PickSaveLocation opens the native save dialog. Cancelling leaves the state untouched.
func (a *App) PickSaveLocation() (session.Snapshot, error) {
	settings := a.State.Settings()
	suggested := dialogs.SuggestedSaveName(a.State.CurrentFile(), settings.OutputFormat)

	path, ok, err := a.Dialogs.PickSaveLocation(a.dialogContext(), suggested, settings.OutputFormat)
	if err != nil {
		return a.GetState(), err
	}
	if ok {
		a.State.SetOutputPath(path)
	}
	return a.GetState(), nil
}

// GetDiagnostics returns the latest cached diagnostics report.
func (a *App) GetDiagnostics() domain.DiagnosticReport {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.Diagnostics
}

// RefreshDiagnostics reruns the layout checks against the current configuration.
func (a *App) RefreshDiagnostics() domain.DiagnosticReport {
	a.mu.Lock()
	cfg := a.Config
	a.mu.Unlock()
	return a.refreshDiagnostics(cfg)
}

// StartEnhancement launches the current file's job in the background.
func (a *App) StartEnhancement() (domain.Job, error) {
	if !a.State.TryDisableTrigger() {
		return a.Jobs.Current(), jobs.ErrJobAlreadyRunning
	}

	job, savePath, ctx, err := a.beginJob()
	if err != nil {
		a.State.EnableTrigger()
		return a.Jobs.Current(), err
	}

	go func() {
		defer a.releaseTrigger(job.ID)
		a.runJob(ctx, job, savePath)
	}()
	return a.Jobs.Current(), nil
}

// Enhance runs the current file's job and waits for its result. The trigger
// is re-enabled on every exit path.
func (a *App) Enhance() (domain.JobResult, error) {
	if !a.State.TryDisableTrigger() {
		return domain.JobResult{}, jobs.ErrJobAlreadyRunning
	}
	var jobID string
	defer func() { a.releaseTrigger(jobID) }()

	job, savePath, ctx, err := a.beginJob()
	if err != nil {
		return domain.JobResult{}, err
	}
	jobID = job.ID
	return a.runJob(ctx, job, savePath), nil
}

// releaseTrigger re-enables the trigger, then publishes a state event so the
// frontend never reads a settled job with the trigger still disabled.
func (a *App) releaseTrigger(jobID string) {
	a.State.EnableTrigger()
	if jobID == "" {
		return
	}
	a.publishEvent(jobs.Event{
		JobID:   jobID,
		Type:    jobs.EventTypeState,
		Status:  a.Jobs.Current().Status,
		Message: "Ready",
	})
}

// CancelEnhancement cancels the currently running job, if any.
func (a *App) CancelEnhancement() error {
	a.mu.Lock()
	cancel := a.cancel
	activeJobID := a.activeJobID
	a.mu.Unlock()

	if cancel == nil {
		return jobs.ErrNoRunningJob
	}

	cancel()
	if err := a.Jobs.Cancel(); err != nil {
		return err
	}

	if activeJobID != "" {
		a.publishStatus(activeJobID, domain.JobStatusCancelled, "Cancellation requested")
	}
	return nil
}

// CurrentJob returns current job metadata and status.
func (a *App) CurrentJob() domain.Job {
	return a.Jobs.Current()
}

// JobEvents returns all events with sequence greater than sinceSeq.
func (a *App) JobEvents(sinceSeq int64) []jobs.Event {
	return a.events.Since(sinceSeq)
}

// beginJob snapshots the state into an immutable job and claims the job slot.
// It also returns the save location chosen at submission time.
func (a *App) beginJob() (domain.EnhancementJob, string, context.Context, error) {
	source := a.State.CurrentFile()
	if source == "" {
		return domain.EnhancementJob{}, "", nil, ErrNoInputFile
	}

	a.mu.Lock()
	outputDir := a.Config.OutputDir
	a.mu.Unlock()
	savePath := a.State.OutputPath()
	if savePath != "" {
		outputDir = filepath.Dir(savePath)
	}

	job := enhance.NewJob(source, outputDir, a.State.Settings())
	if err := a.Jobs.Start(job.ID); err != nil {
		return domain.EnhancementJob{}, "", nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())
	a.mu.Lock()
	a.activeJobID = job.ID
	a.cancel = cancel
	a.mu.Unlock()

	a.publishStatus(job.ID, domain.JobStatusValidating, "Job started")
	return job, savePath, ctx, nil
}

// runJob submits job and maps its result onto previews, history and events.
// savePath is recorded on the history entry as chosen at submission.
func (a *App) runJob(ctx context.Context, job domain.EnhancementJob, savePath string) domain.JobResult {
	defer a.clearActiveJob(job.ID)

	a.mu.Lock()
	cfg := a.Config
	a.mu.Unlock()

	hooks := enhance.Hooks{
		OnProgress: func(cp enhance.Checkpoint) {
			a.Jobs.SetProgress(cp.Percent)
			if status, ok := checkpointStatus(cp); ok {
				if err := a.Jobs.Transition(status); err == nil {
					a.publishStatus(job.ID, status, "Reached "+cp.Name)
				}
			}
			a.publishEvent(jobs.Event{
				JobID:      job.ID,
				Type:       jobs.EventTypeProgress,
				Checkpoint: cp.Name,
				Percent:    cp.Percent,
			})
		},
		OnLog: func(log enhance.CommandLog) {
			a.publishEvent(jobs.Event{
				JobID:    job.ID,
				Type:     jobs.EventTypeLog,
				Message:  "Command completed",
				Command:  log.Command,
				Args:     log.Args,
				ExitCode: log.ExitCode,
				Stdout:   log.Stdout,
				Stderr:   log.Stderr,
			})
		},
	}

	result := a.newEnhancer(cfg).Submit(ctx, job, hooks)
	if !result.Success {
		a.failJob(job, result)
		return result
	}

	// A cancel that lands after the output was verified still wins.
	if err := a.Jobs.Transition(domain.JobStatusSucceeded); err != nil {
		if a.Jobs.Current().Status == domain.JobStatusCancelled {
			a.log().Info("job cancelled after output was produced",
				"job_id", job.ID,
				"output", logging.SanitizePath(result.OutputFile),
			)
			result = domain.JobResult{
				JobID:        job.ID,
				ErrorKind:    domain.ErrorKindEnhancementProcessFailed,
				ErrorMessage: "enhancement cancelled",
				RawOutput:    result.RawOutput,
				Cancelled:    true,
				Duration:     result.Duration,
			}
			a.failJob(job, result)
			return result
		}
		a.log().Warn("job transition", "job_id", job.ID, "error", err)
	}

	event := jobs.Event{
		JobID:      job.ID,
		Type:       jobs.EventTypeResult,
		Status:     domain.JobStatusSucceeded,
		Message:    "Enhancement complete",
		OutputFile: result.OutputFile,
	}
	if a.Preview != nil {
		if url, err := a.Preview.ShowResult(result.OutputFile); err == nil {
			event.PreviewURL = url
		}
	}

	entry := a.Ledger.NewEntry(job.SourcePath, savePath, result.OutputFile, job.Settings)
	if err := a.Ledger.Record(context.Background(), entry); err != nil {
		a.log().Error("record history", "job_id", job.ID, "error", err)
	}

	a.publishStatus(job.ID, domain.JobStatusSucceeded, "Job completed")
	a.publishEvent(event)
	return result
}

// failJob publishes the combined message and transcript for a failed job.
func (a *App) failJob(job domain.EnhancementJob, result domain.JobResult) {
	status := domain.JobStatusFailed
	if result.Cancelled || a.Jobs.Current().Status == domain.JobStatusCancelled {
		status = domain.JobStatusCancelled
	}
	if err := a.Jobs.Transition(status); err != nil && a.Jobs.Current().Status != status {
		a.log().Warn("job transition", "job_id", job.ID, "error", err)
	}

	a.publishStatus(job.ID, status, "Job "+string(status))
	a.publishEvent(jobs.Event{
		JobID:   job.ID,
		Type:    jobs.EventTypeError,
		Status:  status,
		Message: string(result.ErrorKind) + ": " + result.ErrorMessage,
	})
}

// checkpointStatus maps orchestrator checkpoints onto lifecycle states.
func checkpointStatus(cp enhance.Checkpoint) (domain.JobStatus, bool) {
	switch cp.Name {
	case enhance.CheckpointProcessLaunched.Name:
		return domain.JobStatusRunning, true
	case enhance.CheckpointOutputVerified.Name:
		return domain.JobStatusVerifying, true
	default:
		return "", false
	}
}

// publishStatus sends a normalized status event.
func (a *App) publishStatus(jobID string, status domain.JobStatus, message string) {
	a.publishEvent(jobs.Event{
		JobID:   jobID,
		Type:    jobs.EventTypeStatus,
		Status:  status,
		Message: message,
	})
}

// publishEvent stores event history and emits runtime push notifications.
func (a *App) publishEvent(event jobs.Event) {
	published := a.events.Publish(event)

	a.mu.Lock()
	ctx := a.runtimeCtx
	a.mu.Unlock()
	if ctx != nil {
		wailsruntime.EventsEmit(ctx, "job:event", published)
	}
}

// clearActiveJob clears cancellation handles for completed job IDs.
func (a *App) clearActiveJob(jobID string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.activeJobID == jobID {
		if a.cancel != nil {
			a.cancel()
		}
		a.activeJobID = ""
		a.cancel = nil
	}
}

// dialogContext returns the runtime context, nil before startup.
func (a *App) dialogContext() context.Context {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.runtimeCtx
}

func (a *App) log() *slog.Logger {
	if a.logger == nil {
		return logging.Discard()
	}
	return a.logger
}

// OpenOutputFolder opens the given path (or configured output dir) in the file manager.
func (a *App) OpenOutputFolder(path string) error {
	target := strings.TrimSpace(path)
	if target == "" {
		a.mu.Lock()
		target = a.Config.OutputDir
		a.mu.Unlock()
	}
	if target == "" {
		return fmt.Errorf("output path is empty")
	}

	info, err := os.Stat(target)
	if err != nil {
		return fmt.Errorf("resolve output path: %w", err)
	}

	openPath := target
	if !info.IsDir() {
		openPath = filepath.Dir(target)
	}

	return openInFileManager(openPath)
}

// openInFileManager launches the platform file explorer for the provided path.
func openInFileManager(path string) error {
	var cmd *exec.Cmd
	switch goruntime.GOOS {
	case "darwin":
		cmd = exec.Command("open", path)
	case "windows":
		cmd = exec.Command("explorer", filepath.Clean(path))
	default:
		cmd = exec.Command("xdg-open", path)
	}

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("launch file manager: %w", err)
	}
	return nil
}
