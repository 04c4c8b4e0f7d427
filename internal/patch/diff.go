package patch

import (
	"fmt"
	"io"
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"
	"go.followtheprocess.codes/bless/internal/diagnostic"
)

// Op is the kind of a [Span] of a line diff.
type Op int

const (
	Equal  Op = iota // Text is in both lines
	Insert           // Text was added
	Delete           // Text was removed
)

// Span is a run of text in a line diff.
type Span struct {
	Text string // The text of the run
	Op   Op     // What happened to it
}

// Diff returns the character level difference between an original line and
// its edited version, cleaned up to fall on natural boundaries.
func Diff(original, edited string) []Span {
	dmp := diffmatchpatch.New()
	diffs := dmp.DiffMain(original, edited, false)
	diffs = dmp.DiffCleanupSemantic(diffs)

	spans := make([]Span, 0, len(diffs))

	for _, diff := range diffs {
		var op Op

		switch diff.Type {
		case diffmatchpatch.DiffInsert:
			op = Insert
		case diffmatchpatch.DiffDelete:
			op = Delete
		default:
			op = Equal
		}

		spans = append(spans, Span{Op: op, Text: diff.Text})
	}

	return spans
}

// WordDiff renders a line diff in the style of wdiff, removed text is shown
// as [-text-] and added text as {+text+}.
func WordDiff(original, edited string) string {
	s := &strings.Builder{}

	for _, span := range Diff(original, edited) {
		switch span.Op {
		case Insert:
			s.WriteString("{+" + span.Text + "+}")
		case Delete:
			s.WriteString("[-" + span.Text + "-]")
		default:
			s.WriteString(span.Text)
		}
	}

	return s.String()
}

// Preview writes a description of every change [Writer.Apply] would make for
// store to w, without touching any file, and returns the number of changes.
func Preview(w io.Writer, store *diagnostic.Store) int {
	count := 0

	for _, record := range store.Edited() {
		fmt.Fprintf(w, "%s:%d\n", record.File, record.Line)
		fmt.Fprintf(w, "    %s\n", WordDiff(record.Original, record.Text()))

		count++
	}

	return count
}
