// Package cmd implements bless's CLI.
package cmd

import (
	"context"

	"go.followtheprocess.codes/bless/internal/bless"
	"go.followtheprocess.codes/cli"
)

var (
	version = "dev"
	commit  = ""
	date    = ""
)

const rootLong = `
bless runs a build command, collects the errors the compiler reports
and lets you fix each offending line in place, right from the terminal.

Only the lines the compiler complained about are editable. Saving writes
the edited lines back to their files, leaving every other line untouched.

The build command is passed as a single argument and run with 'sh -c', if
it is omitted the command from bless.toml is used.
`

// Build builds and returns the bless CLI.
func Build() (*cli.Command, error) {
	var options bless.FixOptions

	return cli.New(
		"bless",
		cli.Short("Fix compiler errors in place, straight from the build output"),
		cli.Long(rootLong),
		cli.Version(version),
		cli.Commit(commit),
		cli.BuildDate(date),
		cli.Example("Fix the errors from a build", "bless 'gcc -c main.c'"),
		cli.Example("Use the build command from bless.toml", "bless"),
		cli.Example("Dump the errors as JSON", "bless report make --format json"),
		cli.Example("Apply edits from a file, without asking", "bless apply edits.yaml make --yes"),
		cli.Arg(&options.Command, "command", "The build command to run", cli.ArgDefault("")),
		cli.Flag(&options.Config, "config", 'c', "Path to the config file"),
		cli.Flag(&options.Debug, "debug", 'd', "Enable debug logging"),
		cli.SubCommands(fix, report, apply),
		cli.Run(func(ctx context.Context, cmd *cli.Command) error {
			app := bless.New(options.Debug, version, cmd.Stdin(), cmd.Stdout(), cmd.Stderr())
			return app.Fix(ctx, options)
		}),
	)
}

// fix returns the fix subcommand.
func fix() (*cli.Command, error) {
	var options bless.FixOptions

	return cli.New(
		"fix",
		cli.Short("Run a build and fix its errors interactively"),
		cli.Long(rootLong),
		cli.Arg(&options.Command, "command", "The build command to run", cli.ArgDefault("")),
		cli.Flag(&options.Config, "config", 'c', "Path to the config file"),
		cli.Flag(&options.Debug, "debug", 'd', "Enable debug logging"),
		cli.Run(func(ctx context.Context, cmd *cli.Command) error {
			app := bless.New(options.Debug, version, cmd.Stdin(), cmd.Stdout(), cmd.Stderr())
			return app.Fix(ctx, options)
		}),
	)
}
