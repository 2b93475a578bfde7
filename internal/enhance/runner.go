package enhance

import (
	"bytes"
	"context"
	"errors"
	"os/exec"
	"sync"
	"time"
)

// DefaultMaxOutputBytes bounds the captured stdout+stderr of one run.
const DefaultMaxOutputBytes int64 = 50 * 1024 * 1024

// DefaultWaitDelay bounds how long Run waits for output pipes after the
// process is killed. Children of the script can hold them open.
const DefaultWaitDelay = 5 * time.Second

// ErrOutputLimitExceeded is returned when a subprocess writes more than the capture budget.
var ErrOutputLimitExceeded = errors.New("subprocess output exceeded capture limit")

// CommandResult is the captured outcome of one process execution.
type CommandResult struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// CommandRunner abstracts process execution for testability.
type CommandRunner interface {
	Run(ctx context.Context, dir, name string, args ...string) (CommandResult, error)
}

// RunnerFunc adapts a function to CommandRunner.
type RunnerFunc func(ctx context.Context, dir, name string, args ...string) (CommandResult, error)

// Run calls f.
func (f RunnerFunc) Run(ctx context.Context, dir, name string, args ...string) (CommandResult, error) {
	return f(ctx, dir, name, args...)
}

// execRunner executes commands via os/exec with a shared output budget.
type execRunner struct {
	maxOutput int64
	waitDelay time.Duration
}

// Run executes one command in dir and captures stdout/stderr and exit code.
// The process is killed once combined output passes maxOutput bytes.
func (r *execRunner) Run(ctx context.Context, dir, name string, args ...string) (CommandResult, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	budget := &outputBudget{limit: r.maxOutput, onExceed: cancel}
	stdout := &boundedWriter{budget: budget}
	stderr := &boundedWriter{budget: budget}

	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir
	cmd.Stdout = stdout
	cmd.Stderr = stderr
	cmd.WaitDelay = r.waitDelay
	if cmd.WaitDelay <= 0 {
		cmd.WaitDelay = DefaultWaitDelay
	}

	err := cmd.Run()
	result := CommandResult{
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		ExitCode: 0,
	}
	if budget.Exceeded() {
		result.ExitCode = -1
		return result, ErrOutputLimitExceeded
	}
	if err != nil {
		result.ExitCode = -1
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			result.ExitCode = exitErr.ExitCode()
		}
		return result, err
	}

	return result, nil
}

// outputBudget is the byte allowance shared by stdout and stderr.
type outputBudget struct {
	mu       sync.Mutex
	limit    int64
	used     int64
	exceeded bool
	onExceed func()
}

// take reserves up to n bytes and returns how many may be kept.
func (b *outputBudget) take(n int) int {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.limit <= 0 {
		return n
	}
	remaining := b.limit - b.used
	if int64(n) <= remaining {
		b.used += int64(n)
		return n
	}

	keep := int(remaining)
	if keep < 0 {
		keep = 0
	}
	b.used = b.limit
	if !b.exceeded {
		b.exceeded = true
		if b.onExceed != nil {
			b.onExceed()
		}
	}
	return keep
}

// Exceeded reports whether the limit was crossed.
func (b *outputBudget) Exceeded() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.exceeded
}

// boundedWriter keeps bytes while the shared budget allows and discards the rest.
// It never fails a write, so the child process is not blocked on a full pipe.
type boundedWriter struct {
	mu     sync.Mutex
	buf    bytes.Buffer
	budget *outputBudget
}

func (w *boundedWriter) Write(p []byte) (int, error) {
	keep := w.budget.take(len(p))
	if keep > 0 {
		w.mu.Lock()
		w.buf.Write(p[:keep])
		w.mu.Unlock()
	}
	return len(p), nil
}

func (w *boundedWriter) String() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.buf.String()
}
