// Package process runs external programs and captures their output.
package process

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"os/exec"
	"strings"
	"time"
)

// MaxOutputSize bounds captured stdout/stderr per stream.
const MaxOutputSize = 1024 * 1024

// Result is the outcome of one command.
type Result struct {
	Stdout   string
	Stderr   string
	ExitCode int
	Duration time.Duration
}

// Output returns the combined, trimmed output for logging.
func (r Result) Output() string {
	return strings.TrimSpace(strings.TrimSpace(r.Stdout) + "\n" + strings.TrimSpace(r.Stderr))
}

// Runner executes commands.
type Runner interface {
	Run(ctx context.Context, command string, args ...string) (Result, error)
}

// ExecRunner runs commands with os/exec. No shell is involved.
type ExecRunner struct{}

// NewExecRunner creates a new exec runner.
func NewExecRunner() *ExecRunner {
	return &ExecRunner{}
}

// Run executes command and waits for it to exit. A non-zero exit status is
// returned as an error alongside the captured output.
func (r *ExecRunner) Run(ctx context.Context, command string, args ...string) (Result, error) {
	//nolint:gosec // G204: commands come from operator configuration
	cmd := exec.CommandContext(ctx, command, args...)

	stdout := NewBoundedBuffer(MaxOutputSize)
	stderr := NewBoundedBuffer(MaxOutputSize)
	cmd.Stdout = stdout
	cmd.Stderr = stderr

	slog.DebugContext(ctx, "running command", "command", command, "args", args)

	start := time.Now()
	err := cmd.Run()
	result := Result{
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		Duration: time.Since(start),
	}

	if stdout.Truncated || stderr.Truncated {
		slog.WarnContext(ctx, "command output truncated",
			"command", command,
			"stdout_truncated", stdout.Truncated,
			"stderr_truncated", stderr.Truncated)
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		result.ExitCode = exitErr.ExitCode()
	}
	return result, err
}

// BoundedBuffer is a bytes.Buffer wrapper that limits the size of written data.
type BoundedBuffer struct {
	buffer    bytes.Buffer
	limit     int
	Truncated bool
}

// NewBoundedBuffer creates a new BoundedBuffer with the specified limit.
func NewBoundedBuffer(limit int) *BoundedBuffer {
	return &BoundedBuffer{
		limit: limit,
	}
}

// Write implements io.Writer.
func (b *BoundedBuffer) Write(p []byte) (n int, err error) {
	if b.buffer.Len() >= b.limit {
		b.Truncated = true
		return len(p), nil // Pretend we wrote it all to satisfy io.Writer contract
	}

	remaining := b.limit - b.buffer.Len()
	if len(p) > remaining {
		b.Truncated = true
		n, err = b.buffer.Write(p[:remaining])
		if err != nil {
			return n, err
		}
		return len(p), nil
	}

	return b.buffer.Write(p)
}

// String returns the buffer contents as a string.
func (b *BoundedBuffer) String() string {
	return b.buffer.String()
}
