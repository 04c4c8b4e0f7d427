// Package build runs the build command whose diagnostics are to be fixed.
//
// The command is run through a shell so that anything a user would type at a prompt
// (pipelines, make targets, environment assignments) works as is. Only its stderr
// is of interest, stdout is discarded.
package build

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strings"
	"time"
)

// DefaultShell is the shell used to run the build command when none is configured.
const DefaultShell = "sh"

// ErrNoCommand is returned when asked to run an empty command.
var ErrNoCommand = errors.New("no build command given")

// Option is a functional option for configuring a build.
type Option func(*config)

// config holds the build configuration built up from options.
type config struct {
	shell string // Shell to run the command with, invoked as `shell -c command`
	dir   string // Working directory, empty means the current one
}

// Shell sets the shell the command is run with, the default is [DefaultShell].
func Shell(shell string) Option {
	return func(c *config) {
		if shell != "" {
			c.shell = shell
		}
	}
}

// Dir sets the working directory the command is run in.
func Dir(dir string) Option {
	return func(c *config) {
		c.dir = dir
	}
}

// Result is the outcome of a build.
type Result struct {
	// ExitCode is the exit status of the command, -1 if it was
	// terminated by a signal.
	ExitCode int

	// Duration is how long the command took to run.
	Duration time.Duration
}

// Run runs command and passes its stderr to handle, which should read it to EOF.
//
// A build that exits non-zero is not an error, failing builds are the whole point,
// the exit status is reported in the [Result]. Errors are only returned if the
// command could not be run at all, if handle fails, or if ctx is cancelled.
func Run(ctx context.Context, command string, handle func(stderr io.Reader) error, options ...Option) (Result, error) {
	if strings.TrimSpace(command) == "" {
		return Result{}, ErrNoCommand
	}

	cfg := &config{shell: DefaultShell}
	for _, option := range options {
		option(cfg)
	}

	cmd := exec.CommandContext(ctx, cfg.shell, "-c", command)
	cmd.Dir = cfg.dir

	stderr, err := cmd.StderrPipe()
	if err != nil {
		return Result{}, fmt.Errorf("could not connect to stderr of %q: %w", command, err)
	}

	start := time.Now()

	if err := cmd.Start(); err != nil {
		return Result{}, fmt.Errorf("could not start %q: %w", command, err)
	}

	handleErr := handle(stderr)

	// Whatever handle left unread, otherwise the command could block writing
	// to a full pipe and never exit
	_, drainErr := io.Copy(io.Discard, stderr)

	waitErr := cmd.Wait()

	result := Result{
		ExitCode: cmd.ProcessState.ExitCode(),
		Duration: time.Since(start),
	}

	if handleErr != nil {
		return result, fmt.Errorf("could not handle output of %q: %w", command, handleErr)
	}

	if err := ctx.Err(); err != nil {
		return result, fmt.Errorf("build %q interrupted: %w", command, err)
	}

	var exitErr *exec.ExitError
	if waitErr != nil && !errors.As(waitErr, &exitErr) {
		return result, fmt.Errorf("could not wait for %q: %w", command, waitErr)
	}

	if drainErr != nil {
		return result, fmt.Errorf("could not read output of %q: %w", command, drainErr)
	}

	return result, nil
}
