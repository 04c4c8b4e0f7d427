// Package diagnostictest provides diagnostic level test utilities.
package diagnostictest

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// Diagnostic describes a single compiler diagnostic to be rendered in
// the gcc format by [Stream].
type Diagnostic struct {
	File     string // File the diagnostic is in
	Function string // Enclosing function header, no header is emitted if empty
	Message  string // e.g. "error: 'x' undeclared"
	Source   string // The echoed source line, omitted if empty
	Line     int    // Line number (1 indexed)
	Column   int    // Column number (1 indexed)
}

// Stream renders diagnostics as a gcc would print them to stderr, including
// the function headers, quoted source lines and a caret line pointing at the
// column.
//
// A header is only emitted when the file or function changes from the
// previous diagnostic, just like the real thing.
func Stream(diagnostics ...Diagnostic) string {
	s := &strings.Builder{}

	var lastFile, lastFunction string

	for _, diag := range diagnostics {
		if diag.Function != "" && (diag.File != lastFile || diag.Function != lastFunction) {
			fmt.Fprintf(s, "%s: %s\n", diag.File, diag.Function)
		}

		lastFile = diag.File
		lastFunction = diag.Function

		fmt.Fprintf(s, "%s:%d:%d: %s\n", diag.File, diag.Line, diag.Column, diag.Message)

		if diag.Source != "" {
			gutter := fmt.Sprintf("%5d", diag.Line)
			fmt.Fprintf(s, "%s | %s\n", gutter, diag.Source)
			fmt.Fprintf(s, "%s | %s^\n", strings.Repeat(" ", len(gutter)), strings.Repeat(" ", max(diag.Column-1, 0)))
		}
	}

	return s.String()
}

// Lines returns n numbered source lines of the form "line 1", "line 2" etc.
// joined with newlines, including a trailing newline.
func Lines(n int) string {
	s := &strings.Builder{}
	for i := 1; i <= n; i++ {
		fmt.Fprintf(s, "line %d\n", i)
	}

	return s.String()
}

// WriteFile writes contents to a file called name under dir, failing the test
// if it cannot. It returns the full path to the file.
func WriteFile(tb testing.TB, dir, name, contents string) string {
	tb.Helper()

	path := filepath.Join(dir, name)

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		tb.Fatalf("could not create %s: %v", filepath.Dir(path), err)
	}

	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		tb.Fatalf("could not write %s: %v", path, err)
	}

	return path
}

// ReadFile returns the contents of the file at path, failing the test if
// it cannot be read.
func ReadFile(tb testing.TB, path string) string {
	tb.Helper()

	contents, err := os.ReadFile(path)
	if err != nil {
		tb.Fatalf("could not read %s: %v", path, err)
	}

	return string(contents)
}
