package ocr

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"
	"time"
)

// stderrLimit caps how much of a failing command's stderr is kept.
const stderrLimit = 8 << 10

// Runner executes an external command and returns its stdout. A failing command
// yields a *CommandError.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}

// CommandError reports a failed external command together with what it printed on stderr.
type CommandError struct {
	Name     string
	Stderr   string
	Duration time.Duration
	Err      error
}

func (e *CommandError) Error() string {
	if e.Stderr != "" {
		return fmt.Sprintf("%s: %s", e.Name, e.Stderr)
	}
	return fmt.Sprintf("%s: %v", e.Name, e.Err)
}

func (e *CommandError) Unwrap() error { return e.Err }

// ExecRunner runs commands with os/exec.
type ExecRunner struct {
	Logger *slog.Logger
}

func (r ExecRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	logger := r.Logger
	if logger == nil {
		logger = slog.Default()
	}

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	err := cmd.Run()
	took := time.Since(start)
	if err != nil {
		cerr := &CommandError{
			Name:     name,
			Stderr:   truncate(strings.TrimSpace(stderr.String()), stderrLimit),
			Duration: took,
			Err:      err,
		}
		logger.Debug("command failed", "cmd", name, "duration_ms", took.Milliseconds(), "error", cerr)
		return nil, cerr
	}
	logger.Debug("command finished",
		"cmd", name,
		"args", strings.Join(args, " "),
		"duration_ms", took.Milliseconds(),
		"stdout_bytes", stdout.Len(),
	)
	return stdout.Bytes(), nil
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "...(truncated)"
}
