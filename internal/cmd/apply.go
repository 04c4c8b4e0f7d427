package cmd

import (
	"context"

	"go.followtheprocess.codes/bless/internal/bless"
	"go.followtheprocess.codes/cli"
	"go.followtheprocess.codes/cli/flag"
)

const applyLong = `
The apply command runs the build and applies a prepared set of edits to
the lines it reports errors on, without opening the editor.

The edits file may be JSON, YAML or TOML, chosen by its extension, and
holds a list of edits each naming a file, a line and the new text of
that line:

    edits:
      - file: main.c
        line: 3
        text: '    printf("%d\n", x);'

Every edit must name a line the compiler reported an error on. The changes
are shown and confirmed before anything is written, pass '--yes' to skip
the confirmation or '--dry-run' to only show them.
`

// apply returns the apply subcommand.
func apply() (*cli.Command, error) {
	var options bless.ApplyOptions

	return cli.New(
		"apply",
		cli.Short("Apply a file of edits to the lines a build reports errors on"),
		cli.Long(applyLong),
		cli.Arg(&options.Edits, "edits", "Path to the edits file"),
		cli.Arg(&options.Command, "command", "The build command to run", cli.ArgDefault("")),
		cli.Flag(&options.DryRun, "dry-run", flag.NoShortHand, "Show the changes without writing them"),
		cli.Flag(&options.Yes, "yes", 'y', "Write the changes without asking"),
		cli.Flag(&options.Config, "config", 'c', "Path to the config file"),
		cli.Flag(&options.Debug, "debug", 'd', "Enable debug logging"),
		cli.Run(func(ctx context.Context, cmd *cli.Command) error {
			app := bless.New(options.Debug, version, cmd.Stdin(), cmd.Stdout(), cmd.Stderr())
			return app.Apply(ctx, options)
		}),
	)
}
