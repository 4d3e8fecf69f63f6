// Package gitstore keeps long-lived branches of one git checkout: it resolves and checks
// out branches, reports working-tree changes, commits, tags and pushes. Every operation
// shells out to the git binary.
package gitstore

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"strings"

	"github.com/conn-castle/wpsync/internal/logger"
	"github.com/conn-castle/wpsync/internal/messages"
)

// lookPath is a seam for tests.
var lookPath = exec.LookPath

// Runner runs git commands in one directory.
type Runner struct {
	gitPath string
	// Dir is the directory the commands run in.
	Dir string
	// Env is appended to the process environment.
	Env    []string
	Logger *slog.Logger
}

// RunResult captures the output of a git command.
type RunResult struct {
	Stdout string
	Stderr string
}

// NewRunner returns a Runner for dir using the git binary found on PATH.
func NewRunner(dir string, log *slog.Logger) (*Runner, error) {
	p, err := lookPath("git")
	if err != nil {
		return nil, fmt.Errorf(messages.GitNotFoundFmt, err)
	}
	return &Runner{gitPath: p, Dir: dir, Logger: logger.OrDiscard(log)}, nil
}

// Run runs git with args; omit the leading "git".
func (r *Runner) Run(ctx context.Context, args ...string) (RunResult, error) {
	done := logger.Timed(r.Logger, "git", "args", strings.Join(args, " "), "dir", r.Dir)
	defer done()

	cmd := exec.CommandContext(ctx, r.gitPath, args...)
	cmd.Dir = r.Dir
	cmd.Env = append(os.Environ(), r.Env...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return RunResult{Stdout: stdout.String(), Stderr: stderr.String()}, &GitExecError{
			Args:   args,
			Err:    err,
			Stdout: stdout.String(),
			Stderr: stderr.String(),
		}
	}
	return RunResult{Stdout: stdout.String(), Stderr: stderr.String()}, nil
}

// GitExecError is a failed git invocation.
type GitExecError struct {
	Args   []string
	Err    error
	Stdout string
	Stderr string
}

func (e *GitExecError) Error() string {
	stderr := strings.TrimSpace(e.Stderr)
	if stderr == "" {
		return fmt.Sprintf(messages.GitExecErrorFmt, strings.Join(e.Args, " "), e.Err)
	}
	return fmt.Sprintf(messages.GitExecErrorStderrFmt, strings.Join(e.Args, " "), e.Err, stderr)
}

func (e *GitExecError) Unwrap() error {
	return e.Err
}

// stderrContains reports whether err is a GitExecError whose stderr contains any needle.
func stderrContains(err error, needles ...string) bool {
	var execErr *GitExecError
	if !errors.As(err, &execErr) {
		return false
	}
	lower := strings.ToLower(execErr.Stderr)
	for _, needle := range needles {
		if strings.Contains(lower, strings.ToLower(needle)) {
			return true
		}
	}
	return false
}
