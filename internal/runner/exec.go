// Package runner executes the external programs the pipeline depends on
// (office suite, ImageMagick, unrar) through one code path.
package runner

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"

	"AutoPublisher/internal/domain"
	"AutoPublisher/internal/ports"
)

// Exec runs programs with os/exec, capturing stdout and stderr.
type Exec struct {
	logger *slog.Logger
}

var _ ports.ToolRunner = (*Exec)(nil)

// NewExec builds a runner; a nil logger discards output.
func NewExec(logger *slog.Logger) *Exec {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Exec{logger: logger}
}

// Run executes name with args in dir. A non-zero exit is an error, but the
// captured output is returned either way.
func (e *Exec) Run(ctx context.Context, dir, name string, args ...string) (domain.ToolOutput, error) {
	var stdout, stderr bytes.Buffer
	command := exec.CommandContext(ctx, name, args...)
	command.Dir = dir
	command.Stdout = &stdout
	command.Stderr = &stderr

	line := strings.TrimSpace(name + " " + strings.Join(args, " "))
	e.logger.Info("run tool", "cmd", line, "dir", dir)

	err := command.Run()
	out := domain.ToolOutput{
		Stdout: stdout.String(),
		Stderr: stderr.String(),
	}
	if command.ProcessState != nil {
		out.ExitCode = command.ProcessState.ExitCode()
	}
	if err != nil {
		var exitErr *exec.ExitError
		if !errors.As(err, &exitErr) {
			out.ExitCode = -1
		}
		e.logger.Warn("tool failed", "cmd", line, "exit_code", out.ExitCode, "error", err)
		return out, fmt.Errorf("%s: %w (stderr: %s)", line, err, strings.TrimSpace(out.Stderr))
	}
	return out, nil
}
