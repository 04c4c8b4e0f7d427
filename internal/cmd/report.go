package cmd

import (
	"context"
	"strings"

	"go.followtheprocess.codes/bless/internal/bless"
	"go.followtheprocess.codes/bless/internal/format"
	"go.followtheprocess.codes/cli"
)

const reportLong = `
The report command runs the build and prints the errors it reports
without opening the editor, for use in scripts or by other tools.

The 'text' format is meant for people, the 'json', 'yaml' and 'toml'
formats hold every detail of each record including the source line
the compiler complained about.
`

// report returns the report subcommand.
func report() (*cli.Command, error) {
	var options bless.ReportOptions

	return cli.New(
		"report",
		cli.Short("Run a build and report its errors"),
		cli.Long(reportLong),
		cli.Arg(&options.Command, "command", "The build command to run", cli.ArgDefault("")),
		cli.Flag(
			&options.Format,
			"format",
			'f',
			"Output format, one of ("+strings.Join(format.Formats, "|")+")",
			cli.FlagDefault("text"),
		),
		cli.Flag(&options.Config, "config", 'c', "Path to the config file"),
		cli.Flag(&options.Debug, "debug", 'd', "Enable debug logging"),
		cli.Run(func(ctx context.Context, cmd *cli.Command) error {
			app := bless.New(options.Debug, version, cmd.Stdin(), cmd.Stdout(), cmd.Stderr())
			return app.Report(ctx, options)
		}),
	)
}
