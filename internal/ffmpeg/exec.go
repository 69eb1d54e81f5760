package ffmpeg

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os/exec"
	"strings"
	"time"
)

// waitDelay bounds how long Run waits for output pipes to close after the
// process is killed on context cancellation.
const waitDelay = 2 * time.Second

// Result holds the captured output of an external process.
type Result struct {
	Stdout   string
	Stderr   string
	ExitCode int // -1 when the process never started or was killed
}

// runFn is the function type for running a command and capturing its output.
type runFn func(ctx context.Context, name string, args []string) (Result, error)

// Executor runs external commands (ffprobe, ffmpeg) with injectable dependencies.
// Arguments are passed straight to the process, never through a shell.
type Executor struct {
	run runFn
}

// ExecutorOption configures an Executor.
type ExecutorOption func(*Executor)

// WithRunFunc sets a custom run function (for testing).
func WithRunFunc(fn runFn) ExecutorOption {
	return func(e *Executor) { e.run = fn }
}

// NewExecutor creates an Executor with the given options.
func NewExecutor(opts ...ExecutorOption) *Executor {
	e := &Executor{
		run: defaultRun,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Run executes name with args and captures stdout and stderr.
//
// Errors:
//   - wraps ErrNotFound when the binary cannot be found
//   - wraps ErrExitStatus when the process exits non-zero (Result is populated)
//   - wraps ctx.Err() when the context is canceled; the process is killed
func (e *Executor) Run(ctx context.Context, name string, args []string) (Result, error) {
	return e.run(ctx, name, args)
}

// defaultRun is the production implementation.
func defaultRun(ctx context.Context, name string, args []string) (Result, error) {
	// #nosec G204 -- name comes from resolved configuration, args are built internally
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.WaitDelay = waitDelay

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	res := Result{Stdout: stdout.String(), Stderr: stderr.String()}
	if err == nil {
		return res, nil
	}

	res.ExitCode = -1
	return res, classifyRunError(ctx, name, err, &res)
}

// classifyRunError maps os/exec failures to package sentinels.
// Context errors take precedence: a killed process also reports an ExitError.
func classifyRunError(ctx context.Context, name string, err error, res *Result) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return fmt.Errorf("%s: %w", name, ctxErr)
	}

	if errors.Is(err, exec.ErrNotFound) || errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%w: %s: %v", ErrNotFound, name, err)
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		res.ExitCode = exitErr.ExitCode()
		return fmt.Errorf("%w: %s exited with code %d: %s",
			ErrExitStatus, name, res.ExitCode, lastLine(res.Stderr))
	}

	return fmt.Errorf("run %s: %w", name, err)
}

// lastLine returns the last non-empty line of s.
// FFmpeg tools print the actual failure reason last.
func lastLine(s string) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	return strings.TrimSpace(lines[len(lines)-1])
}
