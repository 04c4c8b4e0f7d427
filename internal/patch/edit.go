package patch

import (
	"errors"
	"fmt"

	"go.followtheprocess.codes/bless/internal/diagnostic"
)

// ErrNoRecord is returned when an edit does not match any record.
var ErrNoRecord = errors.New("no diagnostic record")

// Edit is a replacement for a single source line, given out of band rather
// than typed in interactively.
type Edit struct {
	File string `json:"file" toml:"file" yaml:"file"` // File the line is in
	Text string `json:"text" toml:"text" yaml:"text"` // The new text of the line, without terminator
	Line int    `json:"line" toml:"line" yaml:"line"` // Line number (1 indexed)
}

// String implements [fmt.Stringer] for an [Edit].
func (e Edit) String() string {
	return fmt.Sprintf("%s:%d", e.File, e.Line)
}

// Stage sets the buffer of each record in store targeted by an edit to the
// edit's text.
//
// Every edit must match a record by file and line exactly as the compiler
// reported them, otherwise an error wrapping [ErrNoRecord] is returned and
// no buffer is changed. When two edits target the same record, the later one wins.
func Stage(store *diagnostic.Store, edits []Edit) error {
	records := make([]*diagnostic.Record, 0, len(edits))

	for _, edit := range edits {
		record, ok := store.Lookup(edit.File, edit.Line)
		if !ok {
			return fmt.Errorf("%w for edit at %s", ErrNoRecord, edit)
		}

		records = append(records, record)
	}

	for i, record := range records {
		record.Buffer().Set(edits[i].Text)
	}

	return nil
}
