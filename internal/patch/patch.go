// Package patch implements writing edited diagnostic lines back into their source files.
//
// Each file with at least one edited record is rewritten through a temporary file
// alongside the original which is then renamed over it, so a file is only ever
// replaced once it has been written out in full. Every byte outside the edited
// lines, including each line's own terminator, is copied verbatim.
//
// Files are independent: if rewriting one fails, the files already replaced
// stay replaced and no further files are touched.
package patch

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"
	"strings"
	"time"

	"go.followtheprocess.codes/bless/internal/diagnostic"
	"go.followtheprocess.codes/log"
	"golang.org/x/sync/errgroup"
)

// DefaultSuffix is the suffix appended to a file's path to name its temporary copy.
const DefaultSuffix = ".bless.tmp"

// ErrLineOutOfRange is returned when an edit targets a line past the end of its file.
var ErrLineOutOfRange = errors.New("line out of range")

// Option is a functional option for configuring a [Writer].
type Option func(*Writer)

// Suffix sets the suffix used to name temporary files, the default is [DefaultSuffix].
//
// An empty suffix is ignored, the temporary file must never be the file itself.
func Suffix(suffix string) Option {
	return func(w *Writer) {
		if suffix != "" {
			w.suffix = suffix
		}
	}
}

// Logger sets the logger the [Writer] reports its progress to, by default
// nothing is logged.
func Logger(logger *log.Logger) Option {
	return func(w *Writer) {
		if logger != nil {
			w.logger = logger
		}
	}
}

// Writer writes the edited records of a store back to their files.
type Writer struct {
	logger *log.Logger // Debug logs go here
	suffix string      // Temporary file suffix
}

// New returns a new [Writer] configured with options.
func New(options ...Option) Writer {
	w := Writer{
		logger: log.New(io.Discard),
		suffix: DefaultSuffix,
	}

	for _, option := range options {
		option(&w)
	}

	return w
}

// Result is the outcome of a call to [Writer.Apply].
type Result struct {
	// Written are the files that were replaced, in the order they were written.
	Written []string
}

// replacement is a single line to be replaced in a file.
type replacement struct {
	text string // Replacement text, without terminator
	line int    // Line number (1 indexed)
}

// target is a file and every line to be replaced in it, in line order.
type target struct {
	path         string
	replacements []replacement
}

// last returns the highest line number targeted in the file.
func (t target) last() int {
	if len(t.replacements) == 0 {
		return 0
	}

	return t.replacements[len(t.replacements)-1].line
}

// Apply writes every edited record in store back to its file.
//
// Records that have not been edited are never written, so applying a store a
// second time without further edits changes nothing. Before anything is written,
// every file is checked to exist and to be long enough for its highest edited
// line, if any check fails no file is touched.
func (w Writer) Apply(ctx context.Context, store *diagnostic.Store) (Result, error) {
	start := time.Now()

	targets := plan(store)
	if len(targets) == 0 {
		w.logger.Debug("No edited records, nothing to write")
		return Result{}, nil
	}

	w.logger.Debug("Planned edits", slog.Int("files", len(targets)))

	if err := w.preflight(ctx, targets); err != nil {
		return Result{}, err
	}

	var result Result

	for _, t := range targets {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		if err := w.rewrite(t); err != nil {
			return result, fmt.Errorf("could not write %s: %w", t.path, err)
		}

		w.logger.Debug(
			"Wrote file",
			slog.String("file", t.path),
			slog.Int("lines", len(t.replacements)),
		)

		result.Written = append(result.Written, t.path)
	}

	w.logger.Debug("Applied edits", slog.Int("files", len(result.Written)), slog.Duration("took", time.Since(start)))

	return result, nil
}

// plan groups the edited records in store by file, in the order the files first
// appear, with each file's replacements sorted by line.
//
// Should two edited records target the same line, the later one wins.
func plan(store *diagnostic.Store) []target {
	var targets []target

	files := make(map[string]int)         // path -> index in targets
	lines := make(map[string]map[int]int) // path -> line -> index in replacements

	for _, record := range store.Edited() {
		i, ok := files[record.File]
		if !ok {
			i = len(targets)
			files[record.File] = i
			lines[record.File] = make(map[int]int)

			targets = append(targets, target{path: record.File})
		}

		rep := replacement{line: record.Line, text: record.Text()}

		if j, seen := lines[record.File][record.Line]; seen {
			targets[i].replacements[j] = rep
			continue
		}

		lines[record.File][record.Line] = len(targets[i].replacements)
		targets[i].replacements = append(targets[i].replacements, rep)
	}

	for i := range targets {
		slices.SortStableFunc(targets[i].replacements, func(a, b replacement) int {
			return a.line - b.line
		})
	}

	return targets
}

// preflight concurrently checks every target file exists and has enough lines
// for its highest replacement.
func (w Writer) preflight(ctx context.Context, targets []target) error {
	group, ctx := errgroup.WithContext(ctx)

	for _, t := range targets {
		group.Go(func() error {
			count, err := countLines(ctx, t.path)
			if err != nil {
				return fmt.Errorf("could not check %s: %w", t.path, err)
			}

			if last := t.last(); last > count {
				return fmt.Errorf("%w: %s:%d, file has %d lines", ErrLineOutOfRange, t.path, last, count)
			}

			return nil
		})
	}

	return group.Wait()
}

// countLines returns the number of lines in the file at path, an unterminated
// final line counts as a line.
func countLines(ctx context.Context, path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	const chunk = 32 * 1024

	buf := make([]byte, chunk)
	count := 0
	terminated := true // An empty file has no unterminated line

	for {
		if err := ctx.Err(); err != nil {
			return 0, err
		}

		n, err := f.Read(buf)
		if n > 0 {
			for _, b := range buf[:n] {
				if b == '\n' {
					count++
				}
			}

			terminated = buf[n-1] == '\n'
		}

		if errors.Is(err, io.EOF) {
			break
		}

		if err != nil {
			return 0, err
		}
	}

	if !terminated {
		count++
	}

	return count, nil
}

// rewrite copies t's file into a temporary file, substituting each replacement,
// then renames it over the original.
func (w Writer) rewrite(t target) (err error) {
	info, err := os.Stat(t.path)
	if err != nil {
		return err
	}

	src, err := os.Open(t.path)
	if err != nil {
		return err
	}
	defer src.Close()

	tmp := t.path + w.suffix

	dst, err := os.OpenFile(tmp, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, info.Mode().Perm())
	if err != nil {
		return fmt.Errorf("could not create temporary file: %w", err)
	}

	defer func() {
		if err != nil {
			dst.Close()
			os.Remove(tmp)
		}
	}()

	// The umask may have masked off bits of the original mode
	if err = dst.Chmod(info.Mode().Perm()); err != nil {
		return fmt.Errorf("could not set permissions of temporary file: %w", err)
	}

	if err = copyWithReplacements(dst, src, t.replacements); err != nil {
		return err
	}

	src.Close()

	if err = dst.Close(); err != nil {
		return fmt.Errorf("could not close temporary file: %w", err)
	}

	if err = os.Rename(tmp, t.path); err != nil {
		return fmt.Errorf("could not replace file: %w", err)
	}

	return nil
}

// copyWithReplacements copies src to dst line by line, writing the text of each
// replacement in place of the line it targets, followed by that line's original
// terminator.
//
// replacements must be sorted by line.
func copyWithReplacements(dst io.Writer, src io.Reader, replacements []replacement) error {
	reader := bufio.NewReader(src)
	writer := bufio.NewWriter(dst)

	lineNo := 0
	next := 0

	for {
		line, err := reader.ReadString('\n')
		if line != "" {
			lineNo++

			if next < len(replacements) && replacements[next].line == lineNo {
				line = replacements[next].text + terminator(line)
				next++
			}

			if _, werr := writer.WriteString(line); werr != nil {
				return werr
			}
		}

		if errors.Is(err, io.EOF) {
			break
		}

		if err != nil {
			return err
		}
	}

	if next < len(replacements) {
		// The file shrank after it was checked
		return fmt.Errorf("%w: line %d, file has %d lines", ErrLineOutOfRange, replacements[next].line, lineNo)
	}

	return writer.Flush()
}

// terminator returns the line ending of line, which is empty for an
// unterminated final line.
func terminator(line string) string {
	switch {
	case strings.HasSuffix(line, "\r\n"):
		return "\r\n"
	case strings.HasSuffix(line, "\n"):
		return "\n"
	default:
		return ""
	}
}
