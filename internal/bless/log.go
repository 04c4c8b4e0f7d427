package bless

import (
	"io"

	"go.followtheprocess.codes/log"
)

// newLogger returns the application logger writing to w, debug enables the
// debug level.
func newLogger(debug bool, w io.Writer) *log.Logger {
	level := log.LevelInfo
	if debug {
		level = log.LevelDebug
	}

	return log.New(w, log.WithLevel(level), log.Prefix("bless"))
}
