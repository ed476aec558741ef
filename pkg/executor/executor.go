// Package executor runs external programs with a mandatory timeout and
// captures their exit code, stdout and stderr.
//
// A missing binary is reported as *NotFoundError and an expired timeout as
// *TimeoutError, both distinct from a program that ran and exited non-zero.
// There are no retries here; retry policy belongs to callers.
package executor

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/arc-language/manafest/pkg/core"
)

// DefaultTimeout applies when a Command carries no timeout of its own
const DefaultTimeout = 20 * time.Second

// StdinPolicy decides what the child process reads from
type StdinPolicy int

const (
	// StdinNone connects the child's stdin to the null device
	StdinNone StdinPolicy = iota
	// StdinInherit passes the caller's stdin through (sudo password prompts)
	StdinInherit
)

// Command describes a single external invocation
type Command struct {
	Argv    []string
	Timeout time.Duration
	Stdin   StdinPolicy
	Dir     string
	Env     []string // appended to the current environment
}

// Result is what a finished process left behind
type Result struct {
	ExitCode int
	Stdout   []byte
	Stderr   []byte
}

// Success reports a zero exit code
func (r *Result) Success() bool {
	return r.ExitCode == 0
}

// Runner executes commands
type Runner interface {
	Run(ctx context.Context, cmd Command) (*Result, error)
}

// RunnerFunc adapts a function to Runner
type RunnerFunc func(ctx context.Context, cmd Command) (*Result, error)

// Run calls f
func (f RunnerFunc) Run(ctx context.Context, cmd Command) (*Result, error) {
	return f(ctx, cmd)
}

// NotFoundError means argv[0] could not be resolved on the host
type NotFoundError struct {
	Name string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s: executable not found", e.Name)
}

// Is matches core.ErrToolUnavailable
func (e *NotFoundError) Is(target error) bool {
	return target == core.ErrToolUnavailable
}

// TimeoutError means the process was killed after its timeout expired
type TimeoutError struct {
	Argv    []string
	Timeout time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("%s: timed out after %s", strings.Join(e.Argv, " "), e.Timeout)
}

// Is matches core.ErrExternalCall and context.DeadlineExceeded
func (e *TimeoutError) Is(target error) bool {
	return target == core.ErrExternalCall || target == context.DeadlineExceeded
}

// ExitError is returned by Check for a non-zero exit
type ExitError struct {
	Argv     []string
	ExitCode int
	Stderr   string
}

func (e *ExitError) Error() string {
	msg := fmt.Sprintf("%s: exit status %d", strings.Join(e.Argv, " "), e.ExitCode)
	if e.Stderr != "" {
		msg += ": " + e.Stderr
	}
	return msg
}

// Is matches core.ErrExternalCall
func (e *ExitError) Is(target error) bool {
	return target == core.ErrExternalCall
}

// Exec runs commands as real child processes
type Exec struct {
	logger logrus.FieldLogger
	// Passthrough mirrors output of StdinInherit commands to the terminal
	// while still capturing it.
	Passthrough bool
}

// New creates an Exec runner
func New(logger logrus.FieldLogger) *Exec {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Exec{logger: logger}
}

// Run executes cmd, bounded by cmd.Timeout (or DefaultTimeout)
func (e *Exec) Run(ctx context.Context, cmd Command) (*Result, error) {
	if len(cmd.Argv) == 0 || cmd.Argv[0] == "" {
		return nil, fmt.Errorf("%w: empty argv", core.ErrInvalidTarget)
	}

	path, err := exec.LookPath(cmd.Argv[0])
	if err != nil {
		return nil, &NotFoundError{Name: cmd.Argv[0]}
	}

	timeout := cmd.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	cmdCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	c := exec.CommandContext(cmdCtx, path, cmd.Argv[1:]...)
	c.Dir = cmd.Dir
	if len(cmd.Env) > 0 {
		c.Env = append(os.Environ(), cmd.Env...)
	}
	configureProcessGroup(c)

	var stdout, stderr bytes.Buffer
	c.Stdout = &stdout
	c.Stderr = &stderr
	if cmd.Stdin == StdinInherit {
		c.Stdin = os.Stdin
		if e.Passthrough {
			c.Stdout = io.MultiWriter(&stdout, os.Stdout)
			c.Stderr = io.MultiWriter(&stderr, os.Stderr)
		}
	}

	e.logger.WithField("argv", cmd.Argv).Debug("running command")

	runErr := c.Run()

	if cmdCtx.Err() == context.DeadlineExceeded && ctx.Err() == nil {
		e.logger.WithField("argv", cmd.Argv).Debugf("command timed out after %s", timeout)
		return nil, &TimeoutError{Argv: cmd.Argv, Timeout: timeout}
	}
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	res := &Result{Stdout: stdout.Bytes(), Stderr: stderr.Bytes()}
	if runErr != nil {
		var exitErr *exec.ExitError
		if !errors.As(runErr, &exitErr) {
			return nil, fmt.Errorf("running %s: %w", cmd.Argv[0], runErr)
		}
		res.ExitCode = exitErr.ExitCode()
	}

	e.logger.WithFields(logrus.Fields{
		"argv":      cmd.Argv,
		"exit_code": res.ExitCode,
	}).Debug("command finished")

	return res, nil
}

// Check runs cmd and turns a non-zero exit into *ExitError
func Check(ctx context.Context, r Runner, cmd Command) (*Result, error) {
	res, err := r.Run(ctx, cmd)
	if err != nil {
		return nil, err
	}
	if !res.Success() {
		return res, &ExitError{
			Argv:     cmd.Argv,
			ExitCode: res.ExitCode,
			Stderr:   lastLine(res.Stderr),
		}
	}
	return res, nil
}

func lastLine(b []byte) string {
	lines := strings.Split(strings.TrimSpace(string(b)), "\n")
	return strings.TrimSpace(lines[len(lines)-1])
}
