// Package system provides abstractions for OS operations to enable testing.
package system

import (
	"context"
	"io"
	"time"
)

// Process describes a single child process invocation.
// The process receives no stdin and never runs through a shell.
type Process struct {
	Name string
	Args []string

	// Dir is the working directory; the sandbox root for agent commands.
	Dir string

	// Timeout bounds the wall-clock runtime. Zero means no limit beyond ctx.
	Timeout time.Duration

	// MaxOutput caps the captured bytes per stream. Zero means unlimited.
	MaxOutput int

	// Echo, if set, receives stdout as it is produced.
	Echo io.Writer
}

// Result is the captured outcome of a finished process.
type Result struct {
	Stdout    string
	Stderr    string
	ExitCode  int
	TimedOut  bool
	Truncated bool
}

// Runner abstracts process execution for testability.
type Runner interface {
	// Run executes the process to completion.
	// A non-zero exit or a timeout is reported in Result, not as an error;
	// the error is reserved for processes that could not be started.
	Run(ctx context.Context, p Process) (*Result, error)
}

var defaultRunner Runner = &osRunner{}

// DefaultRunner returns the default Runner implementation.
func DefaultRunner() Runner {
	return defaultRunner
}

// SetDefaultRunner sets the default Runner (useful for testing).
func SetDefaultRunner(r Runner) {
	defaultRunner = r
}

// ResetDefaults restores the default OS implementations.
func ResetDefaults() {
	defaultRunner = &osRunner{}
}
