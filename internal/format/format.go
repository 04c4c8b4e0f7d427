// Package format provides mechanisms for converting diagnostic records to and from
// external formats.
//
// Notably, the package provides the [Exporter] and [Importer] interfaces for doing
// this in a format-agnostic way. Exporters write out a [Report] of the records a
// build produced, Importers read in a set of [patch.Edit]s to be applied
// non-interactively.
//
// It also provides the built in importers and exporters for plain text, JSON, YAML
// and TOML.
package format

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"slices"
	"strings"

	"go.followtheprocess.codes/bless/internal/diagnostic"
	"go.followtheprocess.codes/bless/internal/patch"
)

// Exporter is the interface defining a mechanism for exporting a [Report]
// into an external format.
type Exporter interface {
	// Export exports the [Report] into an external format, written to w.
	Export(w io.Writer, report Report) error
}

// Importer is the interface defining a mechanism for importing edits
// from external formats.
type Importer interface {
	// Import imports the data from the external format into an [Edits].
	Import(r io.Reader) (Edits, error)
}

// Report is the exportable view of every record a build produced.
type Report struct {
	// Command is the build command that was run.
	Command string `json:"command" toml:"command" yaml:"command"`

	// Records are the records the command's diagnostics were parsed into.
	Records []Record `json:"records" toml:"records" yaml:"records"`
}

// Record is the exportable view of a single [diagnostic.Record], including the
// current text of its buffer.
type Record struct {
	File      string   `json:"file"               toml:"file"               yaml:"file"`
	Function  string   `json:"function,omitempty" toml:"function,omitempty" yaml:"function,omitempty"`
	Original  string   `json:"original"           toml:"original"           yaml:"original"`
	Text      string   `json:"text"               toml:"text"               yaml:"text"`
	Messages  []string `json:"messages"           toml:"messages"           yaml:"messages"`
	Help      []string `json:"help,omitempty"     toml:"help,omitempty"     yaml:"help,omitempty"`
	Seq       int      `json:"seq"                toml:"seq"                yaml:"seq"`
	Line      int      `json:"line"               toml:"line"               yaml:"line"`
	Column    int      `json:"column"             toml:"column"             yaml:"column"`
	HasSource bool     `json:"hasSource"          toml:"hasSource"          yaml:"hasSource"`
	Edited    bool     `json:"edited"             toml:"edited"             yaml:"edited"`
}

// NewReport builds a [Report] of the records in store.
func NewReport(command string, store *diagnostic.Store) Report {
	report := Report{
		Command: command,
		Records: make([]Record, 0, store.Len()),
	}

	for _, record := range store.All() {
		report.Records = append(report.Records, Record{
			File:      record.File,
			Function:  record.Function,
			Original:  record.Original,
			Text:      record.Text(),
			Messages:  slices.Clone(record.Messages),
			Help:      slices.Clone(record.Help),
			Seq:       record.Seq,
			Line:      record.Line,
			Column:    record.Column,
			HasSource: record.HasSource,
			Edited:    record.Edited(),
		})
	}

	return report
}

// Position returns the position of the record for display.
func (r Record) Position() diagnostic.Position {
	return diagnostic.Position{File: r.File, Line: r.Line, Column: r.Column}
}

// Edits is a set of out of band edits, as read from an edit file.
type Edits struct {
	Edits []patch.Edit `json:"edits" toml:"edits" yaml:"edits"`
}

// Validate reports whether every edit is usable, returning a non-nil
// error if not.
func (e Edits) Validate() error {
	if len(e.Edits) == 0 {
		return errors.New("no edits")
	}

	for i, edit := range e.Edits {
		switch {
		case edit.File == "":
			return fmt.Errorf("edit %d: missing file", i+1)
		case edit.Line < 1:
			return fmt.Errorf("edit %d (%s): line must be at least 1", i+1, edit)
		case strings.ContainsAny(edit.Text, "\r\n"):
			return fmt.Errorf("edit %d (%s): text must be a single line", i+1, edit)
		}
	}

	return nil
}

// Formats are the names of the formats understood by [ExporterFor].
//
//nolint:gochecknoglobals // Effectively a constant
var Formats = []string{"text", "json", "yaml", "toml"}

// ExporterFor returns the [Exporter] for the named format.
func ExporterFor(format string) (Exporter, error) {
	switch format {
	case "text":
		return TextExporter{}, nil
	case "json":
		return JSONExporter{}, nil
	case "yaml":
		return YAMLExporter{}, nil
	case "toml":
		return TOMLExporter{}, nil
	default:
		return nil, fmt.Errorf("unknown format %q, allowed values are %s", format, strings.Join(Formats, ", "))
	}
}

// ImporterFor returns the [Importer] for the file at path, chosen by its extension.
func ImporterFor(path string) (Importer, error) {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".json":
		return JSONImporter{}, nil
	case ".yaml", ".yml":
		return YAMLImporter{}, nil
	case ".toml":
		return TOMLImporter{}, nil
	default:
		return nil, fmt.Errorf("cannot import edits from %s: unsupported file extension %q, use .json, .yaml, .yml or .toml", path, ext)
	}
}
