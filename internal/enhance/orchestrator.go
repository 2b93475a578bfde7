// Package enhance runs one Real-ESRGAN enhancement job as an external process
// and reports its outcome as data.
package enhance

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"video-enhancer/internal/domain"
	"video-enhancer/internal/logging"
)

// OutputPrefix is prepended to the source basename by the external script.
const OutputPrefix = "enhanced_"

// Checkpoint is a coarse progress marker reported by Submit.
type Checkpoint struct {
	Name    string `json:"name"`
	Percent int    `json:"percent"`
}

var (
	CheckpointStart              = Checkpoint{Name: "start", Percent: 0}
	CheckpointDependencyResolved = Checkpoint{Name: "dependency-resolved", Percent: 20}
	CheckpointProcessLaunched    = Checkpoint{Name: "process-launched", Percent: 40}
	CheckpointOutputVerified     = Checkpoint{Name: "output-verified", Percent: 90}
	CheckpointDone               = Checkpoint{Name: "done", Percent: 100}
)

// Hooks receives progress and command logs while a job runs. Nil funcs are skipped.
type Hooks struct {
	OnProgress func(Checkpoint)
	OnLog      func(CommandLog)
}

// Config locates the external interpreter, script and project root.
type Config struct {
	PythonPath     string
	ScriptPath     string
	ProjectRoot    string
	MaxOutputBytes int64
	Logger         *slog.Logger
}

// Orchestrator validates inputs, invokes the enhancer and verifies its artifact.
type Orchestrator struct {
	pythonPath  string
	scriptPath  string
	projectRoot string
	runner      CommandRunner
	stat        func(name string) (os.FileInfo, error)
	mkdirAll    func(path string, perm os.FileMode) error
	now         func() time.Time
	logger      *slog.Logger
}

// NewOrchestrator constructs the production orchestrator with OS dependencies.
func NewOrchestrator(cfg Config) *Orchestrator {
	maxOutput := cfg.MaxOutputBytes
	if maxOutput <= 0 {
		maxOutput = DefaultMaxOutputBytes
	}
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Discard()
	}

	return &Orchestrator{
		pythonPath:  cfg.PythonPath,
		scriptPath:  cfg.ScriptPath,
		projectRoot: cfg.ProjectRoot,
		runner:      &execRunner{maxOutput: maxOutput},
		stat:        os.Stat,
		mkdirAll:    os.MkdirAll,
		now:         time.Now,
		logger:      logging.WithComponent(logger, "enhance"),
	}
}

// NewJob snapshots settings into an immutable job with a derived model.
func NewJob(sourcePath, outputDir string, settings domain.EnhancementSettings) domain.EnhancementJob {
	settings = settings.Normalize()
	return domain.EnhancementJob{
		ID:              uuid.NewString(),
		SourcePath:      sourcePath,
		OutputDirectory: outputDir,
		Settings:        settings,
		Model:           domain.DeriveModel(settings.UpscalingFactor),
	}
}

// ExpectedOutputPath returns where the external script writes its result.
func ExpectedOutputPath(sourcePath, outputDir string) string {
	return filepath.Join(outputDir, OutputPrefix+filepath.Base(sourcePath))
}

// Submit runs one job to completion. Every failure is returned inside the
// result; Submit never returns an error or panics past this boundary.
func (o *Orchestrator) Submit(ctx context.Context, job domain.EnhancementJob, hooks Hooks) (result domain.JobResult) {
	started := o.now()
	logger := logging.WithJobID(o.logger, job.ID)

	defer func() {
		if r := recover(); r != nil {
			logger.Error("enhancement job panicked", "panic", r)
			result = domain.JobResult{
				JobID:        job.ID,
				ErrorKind:    domain.ErrorKindEnhancementProcessFailed,
				ErrorMessage: fmt.Sprintf("internal error: %v", r),
			}
		}
		result.Duration = o.now().Sub(started)
	}()

	outputFile, cmdLog, err := o.run(ctx, job, hooks)
	if err != nil {
		var jobErr *JobError
		if !errors.As(err, &jobErr) {
			jobErr = &JobError{Kind: domain.ErrorKindEnhancementProcessFailed, Message: err.Error(), Err: err}
		}
		logger.Warn("enhancement job failed",
			"kind", jobErr.Kind,
			"error", jobErr.Message,
			"exit_code", jobErr.CommandLog.ExitCode,
		)
		return domain.JobResult{
			JobID:        job.ID,
			ErrorKind:    jobErr.Kind,
			ErrorMessage: jobErr.UserMessage(),
			RawOutput:    jobErr.CommandLog.Transcript(),
			Cancelled:    errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded),
		}
	}

	logger.Info("enhancement job succeeded", "output", logging.SanitizePath(outputFile))
	return domain.JobResult{
		JobID:      job.ID,
		Success:    true,
		OutputFile: outputFile,
		RawOutput:  cmdLog.Transcript(),
	}
}

// run performs steps 1-6 and returns the verified output path.
func (o *Orchestrator) run(ctx context.Context, job domain.EnhancementJob, hooks Hooks) (string, CommandLog, error) {
	emitProgress(hooks.OnProgress, CheckpointStart)

	if err := o.resolveDependencies(); err != nil {
		return "", CommandLog{}, err
	}
	emitProgress(hooks.OnProgress, CheckpointDependencyResolved)

	if strings.TrimSpace(job.SourcePath) == "" {
		return "", CommandLog{}, &JobError{
			Kind:    domain.ErrorKindInputNotFound,
			Message: "input video path is required",
		}
	}
	if info, err := o.stat(job.SourcePath); err != nil || info.IsDir() {
		if err == nil {
			err = fmt.Errorf("%s is a directory", job.SourcePath)
		}
		return "", CommandLog{}, &JobError{
			Kind:    domain.ErrorKindInputNotFound,
			Message: fmt.Sprintf("input video not found: %s", job.SourcePath),
			Err:     err,
		}
	}

	if strings.TrimSpace(job.OutputDirectory) == "" {
		return "", CommandLog{}, &JobError{
			Kind:    domain.ErrorKindOutputDirectoryError,
			Message: "output directory is required",
		}
	}
	if err := o.mkdirAll(job.OutputDirectory, 0o755); err != nil {
		return "", CommandLog{}, &JobError{
			Kind:    domain.ErrorKindOutputDirectoryError,
			Message: fmt.Sprintf("cannot create output directory: %s", job.OutputDirectory),
			Err:     err,
		}
	}

	model := domain.DeriveModel(job.Settings.UpscalingFactor)
	args := BuildArgs(o.scriptPath, job.SourcePath, job.OutputDirectory, model)

	emitProgress(hooks.OnProgress, CheckpointProcessLaunched)
	o.logger.Info("launching enhancer",
		"job_id", job.ID,
		"model", model,
		"input", logging.SanitizePath(job.SourcePath),
	)
	cmdResult, runErr := o.runner.Run(ctx, o.projectRoot, o.pythonPath, args...)
	cmdLog := CommandLog{
		Command:  o.pythonPath,
		Args:     args,
		Dir:      o.projectRoot,
		ExitCode: cmdResult.ExitCode,
		Stdout:   cmdResult.Stdout,
		Stderr:   cmdResult.Stderr,
	}
	emitLog(hooks.OnLog, cmdLog)

	if runErr != nil {
		message := "enhancement process failed"
		switch {
		case errors.Is(runErr, ErrOutputLimitExceeded):
			message = fmt.Sprintf("enhancement output exceeded %d MB capture limit", DefaultMaxOutputBytes/(1024*1024))
		case ctx.Err() != nil:
			message = "enhancement cancelled"
			runErr = ctx.Err()
		}
		return "", cmdLog, &JobError{
			Kind:       domain.ErrorKindEnhancementProcessFailed,
			Message:    message,
			CommandLog: cmdLog,
			Err:        runErr,
		}
	}

	outputFile := ExpectedOutputPath(job.SourcePath, job.OutputDirectory)
	if _, err := o.stat(outputFile); err != nil {
		return "", cmdLog, &JobError{
			Kind:       domain.ErrorKindOutputNotProduced,
			Message:    fmt.Sprintf("enhancer exited successfully but output file was not found: %s", outputFile),
			CommandLog: cmdLog,
			Err:        err,
		}
	}
	emitProgress(hooks.OnProgress, CheckpointOutputVerified)
	emitProgress(hooks.OnProgress, CheckpointDone)

	return outputFile, cmdLog, nil
}

// resolveDependencies checks the interpreter and script exist on disk.
func (o *Orchestrator) resolveDependencies() error {
	if strings.TrimSpace(o.pythonPath) == "" {
		return &JobError{
			Kind:    domain.ErrorKindMissingDependency,
			Message: "python interpreter path is not configured",
		}
	}
	if _, err := o.stat(o.pythonPath); err != nil {
		return &JobError{
			Kind:    domain.ErrorKindMissingDependency,
			Message: fmt.Sprintf("python interpreter not found: %s", o.pythonPath),
			Err:     err,
		}
	}
	if strings.TrimSpace(o.scriptPath) == "" {
		return &JobError{
			Kind:    domain.ErrorKindMissingDependency,
			Message: "enhancement script path is not configured",
		}
	}
	if _, err := o.stat(o.scriptPath); err != nil {
		return &JobError{
			Kind:    domain.ErrorKindMissingDependency,
			Message: fmt.Sprintf("enhancement script not found: %s", o.scriptPath),
			Err:     err,
		}
	}
	return nil
}

// BuildArgs builds the script invocation: <script> -i <input> -o <outdir> -n <model>.
func BuildArgs(scriptPath, inputPath, outputDir string, model domain.UpscaleModel) []string {
	return []string{
		scriptPath,
		"-i", inputPath,
		"-o", outputDir,
		"-n", string(model),
	}
}

// emitProgress forwards checkpoints when callback is configured.
func emitProgress(cb func(Checkpoint), cp Checkpoint) {
	if cb != nil {
		cb(cp)
	}
}

// emitLog forwards command logs when callback is configured.
func emitLog(cb func(CommandLog), log CommandLog) {
	if cb != nil {
		cb(log)
	}
}

// NewOrchestratorForTests constructs an orchestrator with injectable dependencies.
func NewOrchestratorForTests(
	pythonPath string,
	scriptPath string,
	projectRoot string,
	runner CommandRunner,
	stat func(name string) (os.FileInfo, error),
	mkdirAll func(path string, perm os.FileMode) error,
) *Orchestrator {
	return &Orchestrator{
		pythonPath:  pythonPath,
		scriptPath:  scriptPath,
		projectRoot: projectRoot,
		runner:      runner,
		stat:        stat,
		mkdirAll:    mkdirAll,
		now:         time.Now,
		logger:      logging.Discard(),
	}
}
