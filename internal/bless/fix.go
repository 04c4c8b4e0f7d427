package bless

import (
	"context"
	"log/slog"

	"go.followtheprocess.codes/bless/internal/session"
	"go.followtheprocess.codes/bless/internal/tui"
)

// FixOptions are the options passed to the fix subcommand.
type FixOptions struct {
	// Command is the build command to run, if empty the command from the
	// config file is used.
	Command string

	// Config is the path to the config file, if empty bless.toml in the
	// current directory is used if it exists.
	Config string

	// Debug enables debug logging.
	Debug bool
}

// Fix implements the fix subcommand.
//
// It runs the build and opens the interactive editor over the errors it reports,
// running the build again each time the user asks for a relaunch.
func (b Bless) Fix(ctx context.Context, options FixOptions) error {
	logger := b.logger.Prefixed("fix")

	for launch := 1; ; launch++ {
		run, err := b.collect(ctx, logger, options.Command, options.Config)
		if err != nil {
			return err
		}

		if run.store.Len() == 0 {
			b.noErrors(run.command)
			return nil
		}

		logger.Debug("Starting editor", slog.Int("launch", launch), slog.Int("records", run.store.Len()))

		relaunch, err := tui.Run(ctx, session.New(run.store), run.writer, b.stdin, b.stdout)
		if err != nil {
			return err
		}

		if !relaunch {
			return nil
		}

		logger.Debug("Relaunching build")
	}
}
