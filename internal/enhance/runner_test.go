package enhance

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"testing"
	"time"
)

// TestHelperProcess is re-executed by runner tests as a stand-in subprocess.
func TestHelperProcess(t *testing.T) {
	if os.Getenv("GO_WANT_HELPER_PROCESS") != "1" {
		return
	}
	defer os.Exit(0)

	switch os.Getenv("HELPER_MODE") {
	case "ok":
		wd, _ := os.Getwd()
		fmt.Fprintf(os.Stdout, "cwd=%s", wd)
		fmt.Fprint(os.Stderr, "warning: slow")
	case "fail":
		fmt.Fprint(os.Stderr, "fatal: bad model")
		os.Exit(3)
	case "sleep":
		time.Sleep(10 * time.Second)
	case "spawn":
		child := exec.Command(os.Args[0], "-test.run=TestHelperProcess", "--")
		child.Env = append(os.Environ(), "HELPER_MODE=sleep")
		child.Stdout = os.Stdout
		child.Stderr = os.Stderr
		if err := child.Start(); err != nil {
			os.Exit(4)
		}
		time.Sleep(10 * time.Second)
	case "flood":
		chunk := strings.Repeat("x", 4096)
		for i := 0; i < 1024; i++ {
			fmt.Fprint(os.Stdout, chunk)
		}
	}
}

func helperRunner(t *testing.T, mode string, maxOutput int64) (*execRunner, []string) {
	t.Helper()
	t.Setenv("GO_WANT_HELPER_PROCESS", "1")
	t.Setenv("HELPER_MODE", mode)
	return &execRunner{maxOutput: maxOutput}, []string{"-test.run=TestHelperProcess", "--"}
}

// TestExecRunnerCapturesOutputAndDir checks stdout, stderr and working directory.
func TestExecRunnerCapturesOutputAndDir(t *testing.T) {
	dir := t.TempDir()
	runner, args := helperRunner(t, "ok", DefaultMaxOutputBytes)

	result, err := runner.Run(context.Background(), dir, os.Args[0], args...)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if result.ExitCode != 0 {
		t.Fatalf("exit code = %d, want 0", result.ExitCode)
	}
	if !strings.Contains(result.Stdout, "cwd=") {
		t.Fatalf("stdout = %q", result.Stdout)
	}
	if result.Stderr != "warning: slow" {
		t.Fatalf("stderr = %q", result.Stderr)
	}
}

// TestExecRunnerReportsExitCode checks non-zero exits surface as errors.
func TestExecRunnerReportsExitCode(t *testing.T) {
	runner, args := helperRunner(t, "fail", DefaultMaxOutputBytes)

	result, err := runner.Run(context.Background(), "", os.Args[0], args...)
	if err == nil {
		t.Fatal("expected error")
	}
	if result.ExitCode != 3 {
		t.Fatalf("exit code = %d, want 3", result.ExitCode)
	}
	if !strings.Contains(result.Stderr, "bad model") {
		t.Fatalf("stderr = %q", result.Stderr)
	}
}

// TestExecRunnerEnforcesOutputLimit checks the capture bound kills the process.
func TestExecRunnerEnforcesOutputLimit(t *testing.T) {
	runner, args := helperRunner(t, "flood", 64*1024)

	result, err := runner.Run(context.Background(), "", os.Args[0], args...)
	if !errors.Is(err, ErrOutputLimitExceeded) {
		t.Fatalf("error = %v, want %v", err, ErrOutputLimitExceeded)
	}
	if got := len(result.Stdout) + len(result.Stderr); got > 64*1024 {
		t.Fatalf("captured %d bytes, want at most %d", got, 64*1024)
	}
}

// TestExecRunnerReturnsWhenChildHoldsPipes checks a cancelled run returns even
// while a grandchild keeps the output pipes open.
func TestExecRunnerReturnsWhenChildHoldsPipes(t *testing.T) {
	runner, args := helperRunner(t, "spawn", DefaultMaxOutputBytes)
	runner.waitDelay = 200 * time.Millisecond

	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()

	started := time.Now()
	_, err := runner.Run(ctx, "", os.Args[0], args...)
	if err == nil {
		t.Fatal("expected error from killed process")
	}
	if elapsed := time.Since(started); elapsed > 5*time.Second {
		t.Fatalf("Run returned after %s, want it bounded by the wait delay", elapsed)
	}
}

// TestOutputBudgetSharedAcrossWriters checks stdout and stderr draw from one budget.
func TestOutputBudgetSharedAcrossWriters(t *testing.T) {
	exceeded := 0
	budget := &outputBudget{limit: 10, onExceed: func() { exceeded++ }}
	stdout := &boundedWriter{budget: budget}
	stderr := &boundedWriter{budget: budget}

	if n, err := stdout.Write([]byte("123456")); n != 6 || err != nil {
		t.Fatalf("write = %d, %v", n, err)
	}
	if n, err := stderr.Write([]byte("abcdef")); n != 6 || err != nil {
		t.Fatalf("write = %d, %v", n, err)
	}
	_, _ = stderr.Write([]byte("more"))

	if stdout.String() != "123456" || stderr.String() != "abcd" {
		t.Fatalf("stdout=%q stderr=%q", stdout.String(), stderr.String())
	}
	if !budget.Exceeded() || exceeded != 1 {
		t.Fatalf("exceeded = %v, callbacks = %d", budget.Exceeded(), exceeded)
	}
}
