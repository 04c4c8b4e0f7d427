package bless

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/x/term"
	"go.followtheprocess.codes/bless/internal/format"
	"go.followtheprocess.codes/bless/internal/patch"
	"go.followtheprocess.codes/msg"
)

// ApplyOptions are the options passed to the apply subcommand.
type ApplyOptions struct {
	// Edits is the path to the file of edits to apply, its format is chosen
	// by its extension.
	Edits string

	// Command is the build command to run, if empty the command from the
	// config file is used.
	Command string

	// Config is the path to the config file.
	Config string

	// DryRun shows the changes that would be made without making them.
	DryRun bool

	// Yes skips the confirmation prompt.
	Yes bool

	// Debug enables debug logging.
	Debug bool
}

// Validate reports whether the ApplyOptions is valid, returning a non-nil
// error if it's not.
func (a ApplyOptions) Validate() error {
	switch {
	case a.Edits == "":
		return errors.New("an edits file is required")
	case a.DryRun && a.Yes:
		return errors.New("--dry-run and --yes cannot be used together")
	default:
		return nil
	}
}

// Apply implements the apply subcommand.
//
// The edits are staged onto the records the build reports, they must each
// name a file and line the compiler reported an error on.
func (b Bless) Apply(ctx context.Context, options ApplyOptions) error {
	logger := b.logger.Prefixed("apply").With(slog.String("edits", options.Edits))

	if err := options.Validate(); err != nil {
		return err
	}

	edits, err := readEdits(options.Edits)
	if err != nil {
		return err
	}

	logger.Debug("Read edits", slog.Int("count", len(edits.Edits)))

	run, err := b.collect(ctx, logger, options.Command, options.Config)
	if err != nil {
		return err
	}

	if run.store.Len() == 0 {
		b.noErrors(run.command)
		return nil
	}

	if err := patch.Stage(run.store, edits.Edits); err != nil {
		return fmt.Errorf("could not stage edits from %s: %w", options.Edits, err)
	}

	changes := patch.Preview(b.stdout, run.store)
	if changes == 0 {
		msg.Fwarn(b.stdout, "The edits in %s change nothing", options.Edits)
		return nil
	}

	if options.DryRun {
		logger.Debug("Dry run, nothing written", slog.Int("changes", changes))
		return nil
	}

	if !options.Yes {
		ok, err := b.confirm(ctx, changes)
		if err != nil {
			return err
		}

		if !ok {
			msg.Fwarn(b.stdout, "Nothing written")
			return nil
		}
	}

	result, err := run.writer.Apply(ctx, run.store)
	if err != nil {
		return err
	}

	for _, file := range result.Written {
		msg.Fsuccess(b.stdout, "Patched %s", file)
	}

	return nil
}

// readEdits reads the edits file at path.
func readEdits(path string) (format.Edits, error) {
	importer, err := format.ImporterFor(path)
	if err != nil {
		return format.Edits{}, err
	}

	file, err := os.Open(path)
	if err != nil {
		return format.Edits{}, fmt.Errorf("could not open edits file: %w", err)
	}
	defer file.Close()

	edits, err := importer.Import(file)
	if err != nil {
		return format.Edits{}, fmt.Errorf("could not read edits from %s: %w", path, err)
	}

	return edits, nil
}

// confirm asks the user whether to go ahead and write changes.
//
// When stdin is not a terminal, the question is asked as a plain prompt
// answered by a line of input.
func (b Bless) confirm(ctx context.Context, changes int) (bool, error) {
	var yes bool

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title(fmt.Sprintf("Apply %d change(s)?", changes)).
				Affirmative("Yes").
				Negative("No").
				Value(&yes),
		),
	).
		WithInput(b.stdin).
		WithOutput(b.stdout).
		WithAccessible(!isTerminal(b.stdin))

	if err := form.RunWithContext(ctx); err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			return false, nil
		}

		return false, fmt.Errorf("could not confirm changes: %w", err)
	}

	return yes, nil
}

// isTerminal reports whether r is an interactive terminal.
func isTerminal(r io.Reader) bool {
	file, ok := r.(*os.File)
	return ok && term.IsTerminal(file.Fd())
}
