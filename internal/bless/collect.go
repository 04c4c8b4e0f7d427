package bless

import (
	"cmp"
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"go.followtheprocess.codes/bless/internal/build"
	"go.followtheprocess.codes/bless/internal/config"
	"go.followtheprocess.codes/bless/internal/diagnostic"
	"go.followtheprocess.codes/bless/internal/diagnostic/parser"
	"go.followtheprocess.codes/bless/internal/patch"
	"go.followtheprocess.codes/log"
	"go.followtheprocess.codes/msg"
)

// collected is everything gathered from one run of the build command.
type collected struct {
	store   *diagnostic.Store // Records parsed from the command's diagnostics
	writer  patch.Writer      // Writer configured for saving edits to the records
	command string            // The command that was run
}

// collect loads the config, runs the build command and parses what it reports
// into a store, filling in any source lines the compiler didn't echo.
//
// command and configPath come from the command line, an empty command falls
// back to the config file.
func (b Bless) collect(ctx context.Context, logger *log.Logger, command, configPath string) (collected, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return collected{}, err
	}

	command = cmp.Or(command, cfg.Build.Command)
	if command == "" {
		return collected{}, fmt.Errorf(
			"%w: pass one as an argument or set build.command in %s",
			build.ErrNoCommand,
			config.FileName,
		)
	}

	logger = logger.With(slog.String("command", command))
	logger.Debug(
		"Running build",
		slog.String("version", b.version),
		slog.String("shell", cfg.Build.Shell),
		slog.String("dir", cfg.Build.Dir),
		slog.Any("extensions", cfg.Parser.Extensions),
	)

	p, err := parser.New(
		parser.Extensions(cfg.Parser.Extensions...),
		parser.Dir(cfg.Build.Dir),
	)
	if err != nil {
		return collected{}, err
	}

	start := time.Now()

	var store *diagnostic.Store

	result, err := build.Run(
		ctx,
		command,
		func(stderr io.Reader) error {
			var parseErr error
			store, parseErr = p.Parse(stderr)

			return parseErr
		},
		build.Shell(cfg.Build.Shell),
		build.Dir(cfg.Build.Dir),
	)
	if err != nil {
		return collected{}, fmt.Errorf("could not run %q: %w", command, err)
	}

	logger.Debug(
		"Build finished",
		slog.Int("exit", result.ExitCode),
		slog.Duration("build", result.Duration),
		slog.Duration("took", time.Since(start)),
		slog.Int("records", store.Len()),
	)

	if err := patch.Fill(store); err != nil {
		logger.Warn("Some source lines could not be read", slog.String("err", err.Error()))
		msg.Fwarn(b.stderr, "Some source lines could not be read, they will show as empty: %v", err)
	}

	writer := patch.New(
		patch.Suffix(cfg.Patch.Suffix),
		patch.Logger(logger.Prefixed("patch")),
	)

	return collected{
		store:   store,
		writer:  writer,
		command: command,
	}, nil
}

// noErrors reports the success of a build that showed no errors.
func (b Bless) noErrors(command string) {
	msg.Fsuccess(b.stdout, "%s shows no errors", command)
}
