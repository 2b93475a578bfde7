package enhance

import (
	"fmt"

	"video-enhancer/internal/domain"
)

// CommandLog captures one external command invocation result.
type CommandLog struct {
	Command  string   `json:"command"`
	Args     []string `json:"args"`
	Dir      string   `json:"dir"`
	ExitCode int      `json:"exitCode"`
	Stdout   string   `json:"stdout"`
	Stderr   string   `json:"stderr"`
}

// Transcript joins captured stdout and stderr for diagnostics.
func (l CommandLog) Transcript() string {
	switch {
	case l.Stdout == "" && l.Stderr == "":
		return ""
	case l.Stderr == "":
		return l.Stdout
	case l.Stdout == "":
		return l.Stderr
	default:
		return l.Stdout + "\n--- stderr ---\n" + l.Stderr
	}
}

// JobError is a classified orchestration failure with optional command context.
type JobError struct {
	Kind       domain.ErrorKind `json:"kind"`
	Message    string           `json:"message"`
	CommandLog CommandLog       `json:"commandLog"`
	Err        error            `json:"-"`
}

// Error formats orchestration failures for logs and UI.
func (e *JobError) Error() string {
	if e == nil {
		return ""
	}
	if e.CommandLog.Command == "" {
		return fmt.Sprintf("%s: %s", e.Kind, e.Message)
	}

	return fmt.Sprintf(
		"%s: %s (cmd=%s exit=%d)",
		e.Kind,
		e.Message,
		e.CommandLog.Command,
		e.CommandLog.ExitCode,
	)
}

// Unwrap exposes underlying error for errors.Is / errors.As.
func (e *JobError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// UserMessage combines the failure with the captured transcript, if any.
func (e *JobError) UserMessage() string {
	if e == nil {
		return ""
	}
	transcript := e.CommandLog.Transcript()
	if transcript == "" {
		return e.Message
	}
	return e.Message + "\n\n" + transcript
}
