// Package executor runs external commands behind a narrow interface so the
// orchestration logic above it can be exercised with a recording fake.
//
// Two failure shapes exist on purpose: prerequisite probes report a missing
// tool by name (NotAvailableError), while a failing step of an operation
// already underway collapses into a single CommandError carrying whatever
// output was captured.
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
)

// Command describes one external process invocation.
type Command struct {
	Name string
	Args []string
	Dir  string            // working directory; empty means inherit
	Env  map[string]string // overrides appended to the process environment
	// Stream sends child output live to the parent's stdout/stderr instead
	// of capturing it. Captured output is surfaced only inside the error
	// when the command fails.
	Stream bool
}

// Runner executes external commands.
type Runner interface {
	// Run executes the command and waits for it to finish.
	Run(ctx context.Context, cmd Command) error

	// Output executes the command and returns its captured stdout.
	Output(ctx context.Context, cmd Command) (string, error)

	// Available reports whether invoking name with the given arguments
	// (typically a version flag) succeeds.
	Available(ctx context.Context, name string, args ...string) bool
}

// NotAvailableError reports that a required tool could not be run.
type NotAvailableError struct {
	Tool string
}

func (e *NotAvailableError) Error() string {
	return e.Tool + " is required for the build process"
}

// CommandError reports a failed command, including any captured output.
type CommandError struct {
	Name     string
	Args     []string
	ExitCode int // -1 when the process could not be started
	Output   string
}

func (e *CommandError) Error() string {
	msg := fmt.Sprintf("command %s %s failed with exit code %d",
		e.Name, strings.Join(e.Args, " "), e.ExitCode)
	if e.Output != "" {
		msg += "\n" + e.Output
	}
	return msg
}

// Require probes for a tool and returns a NotAvailableError naming it when
// the probe fails. Probes run before any destructive action.
func Require(ctx context.Context, r Runner, tool string, args ...string) error {
	if len(args) == 0 {
		args = []string{"--version"}
	}
	if !r.Available(ctx, tool, args...) {
		return &NotAvailableError{Tool: tool}
	}
	return nil
}

// Exec is the Runner backed by os/exec.
type Exec struct {
	Stdout io.Writer
	Stderr io.Writer
}

// New returns a Runner writing streamed output to the process stdout/stderr.
func New() *Exec {
	return &Exec{Stdout: os.Stdout, Stderr: os.Stderr}
}

func (e *Exec) Run(ctx context.Context, cmd Command) error {
	c := exec.CommandContext(ctx, cmd.Name, cmd.Args...)
	c.Dir = cmd.Dir
	c.Env = mergedEnv(cmd.Env)

	var captured bytes.Buffer
	if cmd.Stream {
		c.Stdout = e.Stdout
		c.Stderr = e.Stderr
	} else {
		c.Stdout = &captured
		c.Stderr = &captured
	}

	if err := c.Run(); err != nil {
		return &CommandError{
			Name:     cmd.Name,
			Args:     cmd.Args,
			ExitCode: exitCode(err),
			Output:   strings.TrimSpace(captured.String()),
		}
	}
	return nil
}

func (e *Exec) Output(ctx context.Context, cmd Command) (string, error) {
	c := exec.CommandContext(ctx, cmd.Name, cmd.Args...)
	c.Dir = cmd.Dir
	c.Env = mergedEnv(cmd.Env)

	var stdout, stderr bytes.Buffer
	c.Stdout = &stdout
	c.Stderr = &stderr
	if err := c.Run(); err != nil {
		return "", &CommandError{
			Name:     cmd.Name,
			Args:     cmd.Args,
			ExitCode: exitCode(err),
			Output:   strings.TrimSpace(stdout.String() + stderr.String()),
		}
	}
	return stdout.String(), nil
}

func (e *Exec) Available(ctx context.Context, name string, args ...string) bool {
	c := exec.CommandContext(ctx, name, args...)
	c.Stdout = io.Discard
	c.Stderr = io.Discard
	return c.Run() == nil
}

func mergedEnv(overrides map[string]string) []string {
	if len(overrides) == 0 {
		return nil // inherit as-is
	}
	env := os.Environ()
	for k, v := range overrides {
		env = append(env, k+"="+v)
	}
	return env
}

func exitCode(err error) int {
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode()
	}
	return -1
}
