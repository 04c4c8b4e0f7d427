package bless

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"go.followtheprocess.codes/bless/internal/format"
)

// ReportOptions are the options passed to the report subcommand.
type ReportOptions struct {
	// Command is the build command to run, if empty the command from the
	// config file is used.
	Command string

	// Config is the path to the config file.
	Config string

	// Format is the output format, one of [format.Formats].
	Format string

	// Debug enables debug logging.
	Debug bool
}

// Validate reports whether the ReportOptions is valid, returning a non-nil
// error if it's not.
func (r ReportOptions) Validate() error {
	if !slices.Contains(format.Formats, r.Format) {
		return fmt.Errorf(
			"invalid option for --format %q, allowed values are %s",
			r.Format,
			strings.Join(format.Formats, ", "),
		)
	}

	return nil
}

// Report implements the report subcommand.
func (b Bless) Report(ctx context.Context, options ReportOptions) error {
	logger := b.logger.Prefixed("report")

	if err := options.Validate(); err != nil {
		return err
	}

	exporter, err := format.ExporterFor(options.Format)
	if err != nil {
		return err
	}

	run, err := b.collect(ctx, logger, options.Command, options.Config)
	if err != nil {
		return err
	}

	if run.store.Len() == 0 {
		b.noErrors(run.command)
		return nil
	}

	logger.Debug("Exporting report", slog.String("format", options.Format), slog.Int("records", run.store.Len()))

	if err := exporter.Export(b.stdout, format.NewReport(run.command, run.store)); err != nil {
		return fmt.Errorf("could not export report: %w", err)
	}

	return nil
}
