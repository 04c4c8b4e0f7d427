// Package bless implements the functionality of the program, the CLI in package cmd is simply the
// entrypoint to exported functions and methods in this package.
package bless

import (
	"io"

	"go.followtheprocess.codes/log"
)

// Bless represents the bless program.
type Bless struct {
	stdin   io.Reader   // Answers to prompts and the UI's key presses are read from here
	stdout  io.Writer   // Normal program output is written here
	stderr  io.Writer   // Logs and errors are written here
	logger  *log.Logger // The logger for the application
	version string      // The version of bless, for debug logs
}

// New returns a new [Bless].
func New(debug bool, version string, stdin io.Reader, stdout, stderr io.Writer) Bless {
	return Bless{
		stdin:   stdin,
		stdout:  stdout,
		stderr:  stderr,
		logger:  newLogger(debug, stderr),
		version: version,
	}
}
