package domain

import "time"

// JobStatus tracks each stage of a single enhancement job.
type JobStatus string

const (
	JobStatusIdle       JobStatus = "idle"
	JobStatusValidating JobStatus = "validating"
	JobStatusRunning    JobStatus = "running"
	JobStatusVerifying  JobStatus = "verifying"
	JobStatusSucceeded  JobStatus = "succeeded"
	JobStatusFailed     JobStatus = "failed"
	JobStatusCancelled  JobStatus = "cancelled"
)

// Job stores the current job identity and lifecycle status.
type Job struct {
	ID       string    `json:"id"`
	Status   JobStatus `json:"status"`
	Progress int       `json:"progress"`
}

// ErrorKind classifies orchestration failures.
type ErrorKind string

const (
	ErrorKindMissingDependency        ErrorKind = "MissingDependency"
	ErrorKindInputNotFound            ErrorKind = "InputNotFound"
	ErrorKindOutputDirectoryError     ErrorKind = "OutputDirectoryError"
	ErrorKindEnhancementProcessFailed ErrorKind = "EnhancementProcessFailed"
	ErrorKindOutputNotProduced        ErrorKind = "OutputNotProduced"
)

// EnhancementJob is one request to upscale a single video file.
type EnhancementJob struct {
	ID              string              `json:"id"`
	SourcePath      string              `json:"sourcePath"`
	OutputDirectory string              `json:"outputDirectory"`
	Settings        EnhancementSettings `json:"settings"`
	Model           UpscaleModel        `json:"model"`
}

// JobResult is produced exactly once per submitted job.
// OutputFile is set only on success; ErrorKind and ErrorMessage only on failure.
type JobResult struct {
	JobID        string        `json:"jobId"`
	Success      bool          `json:"success"`
	OutputFile   string        `json:"outputFile,omitempty"`
	ErrorKind    ErrorKind     `json:"errorKind,omitempty"`
	ErrorMessage string        `json:"errorMessage,omitempty"`
	RawOutput    string        `json:"rawOutput,omitempty"`
	Cancelled    bool          `json:"cancelled,omitempty"`
	Duration     time.Duration `json:"duration"`
}

// AppConfig holds persisted preferences and the external tool layout.
type AppConfig struct {
	ProjectRoot    string              `json:"projectRoot"`
	PythonPath     string              `json:"pythonPath"`
	ScriptPath     string              `json:"scriptPath"`
	OutputDir      string              `json:"outputDir"`
	PersistHistory bool                `json:"persistHistory"`
	LogLevel       string              `json:"logLevel,omitempty"`
	Settings       EnhancementSettings `json:"settings"`
}
