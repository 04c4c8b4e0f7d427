// Package diagnostic provides the Record and Store types, the structured representation
// of the diagnostics emitted by a build command.
//
// A [Record] describes one distinct (file, line) location the compiler complained about,
// along with every message reported against that line, the source line as echoed by
// the compiler and an editable copy of it.
//
// Records are collected into a [Store] by the parser, which the UI then navigates
// and the patch writer reconciles with the files on disk.
package diagnostic

import (
	"fmt"

	"go.followtheprocess.codes/bless/internal/buffer"
)

// Position is a source position as reported by a compiler diagnostic.
type Position struct {
	File   string `json:"file"   toml:"file"   yaml:"file"`   // Path to the file, as reported
	Line   int    `json:"line"   toml:"line"   yaml:"line"`   // Line number (1 indexed)
	Column int    `json:"column" toml:"column" yaml:"column"` // Column number (1 indexed), 0 if unknown
}

// IsValid reports whether the [Position] describes a usable source position.
//
// A valid position must have a file and a line number of at least 1, the column
// is optional.
func (p Position) IsValid() bool {
	return p.File != "" && p.Line >= 1 && p.Column >= 0
}

// String returns a string representation of a [Position].
//
// It is formatted such that most text editors/terminals will be able to support clicking on it
// and navigating to the position:
//
//   - "file:line:col": valid position with a column
//   - "file:line": valid position without a column
//
// Invalid positions return an error string.
func (p Position) String() string {
	if !p.IsValid() {
		return fmt.Sprintf("BadPosition: {File: %q, Line: %d, Column: %d}", p.File, p.Line, p.Column)
	}

	if p.Column == 0 {
		return fmt.Sprintf("%s:%d", p.File, p.Line)
	}

	return fmt.Sprintf("%s:%d:%d", p.File, p.Line, p.Column)
}

// Record is a single compile diagnostic location and everything reported against it.
type Record struct {
	buf *buffer.Line // The user editable copy of Original

	// File is the path to the file containing the diagnostic.
	File string `json:"file" toml:"file" yaml:"file"`

	// Function is the enclosing function or context, as announced by the
	// compiler header line e.g. "In function 'main':".
	Function string `json:"function,omitempty" toml:"function,omitempty" yaml:"function,omitempty"`

	// Original is the source line verbatim as echoed by the compiler.
	Original string `json:"original" toml:"original" yaml:"original"`

	// Messages are the diagnostic messages reported on this line, in the
	// order the compiler reported them.
	Messages []string `json:"messages" toml:"messages" yaml:"messages"`

	// Help are the annotation lines (carets, fix-it hints, further quoted
	// source) shown underneath the source line.
	Help []string `json:"help,omitempty" toml:"help,omitempty" yaml:"help,omitempty"`

	// Seq is the 1 indexed sequence number of the record.
	Seq int `json:"seq" toml:"seq" yaml:"seq"`

	// Line is the line number of the diagnostic (1 indexed).
	Line int `json:"line" toml:"line" yaml:"line"`

	// Column is the column of the first diagnostic on the line (1 indexed).
	Column int `json:"column" toml:"column" yaml:"column"`

	// HasSource reports whether Original was captured, either from the
	// compiler's echo or read back from the file.
	HasSource bool `json:"hasSource" toml:"hasSource" yaml:"hasSource"`
}

// New returns a new [Record] for the given position and first message.
func New(seq int, function string, pos Position, message string) *Record {
	return &Record{
		buf:      &buffer.Line{},
		Seq:      seq,
		File:     pos.File,
		Function: function,
		Line:     pos.Line,
		Column:   pos.Column,
		Messages: []string{message},
	}
}

// Position returns the [Position] of the record.
func (r *Record) Position() Position {
	return Position{File: r.File, Line: r.Line, Column: r.Column}
}

// SetSource captures text as the original source line and resets the editable
// buffer to it.
//
// It is a no-op if the record already has its source, the original text of a
// record never changes once captured.
func (r *Record) SetSource(text string) {
	if r.HasSource {
		return
	}

	r.Original = text
	r.HasSource = true
	r.buf = buffer.FromText(text)
}

// ReplaceSource swaps the captured source for text, the same line as it is
// actually written in the file, resetting the buffer to it.
//
// It does nothing to a record without a source or one that has been edited.
func (r *Record) ReplaceSource(text string) {
	if !r.HasSource || r.Edited() {
		return
	}

	r.Original = text
	r.Reset()
}

// Buffer returns the editable line buffer of the record.
func (r *Record) Buffer() *buffer.Line {
	if r.buf == nil {
		r.buf = buffer.FromText(r.Original)
	}

	return r.buf
}

// Text returns the current content of the editable buffer.
func (r *Record) Text() string {
	return r.Buffer().String()
}

// Edited reports whether the editable buffer differs from the original source.
func (r *Record) Edited() bool {
	return r.Text() != r.Original
}

// Reset discards any edits, restoring the buffer to the original source.
func (r *Record) Reset() {
	r.buf = buffer.FromText(r.Original)
}

// String implements [fmt.Stringer] for a [Record].
func (r *Record) String() string {
	return fmt.Sprintf("#%d %s", r.Seq, r.Position())
}
