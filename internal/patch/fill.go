package patch

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"

	"github.com/mattn/go-runewidth"
	"go.followtheprocess.codes/bless/internal/diagnostic"
)

// tabStop is the tab width compilers expand tabs to when quoting a source line.
const tabStop = 8

// Fill reads the source line of every record in store that has none from
// the record's file on disk.
//
// Compilers only echo source lines when caret display is enabled, so without
// this such records would start out with an empty buffer. Records whose file
// cannot be read, or whose line is past the end of the file, are left as they
// are and reported in the returned error. Every other record is still filled.
//
// Compilers also expand tabs in the lines they do echo, so a record whose echoed
// line matches its line on disk once the tabs are expanded takes the line from
// disk instead, otherwise saving an edit would replace its tabs with spaces.
func Fill(store *diagnostic.Store) error {
	records := make(map[string][]*diagnostic.Record)
	for _, record := range store.All() {
		records[record.File] = append(records[record.File], record)
	}

	var errs []error

	for _, file := range store.Files() {
		if err := fillFile(file, records[file]); err != nil {
			errs = append(errs, fmt.Errorf("could not read source from %s: %w", file, err))
		}
	}

	return errors.Join(errs...)
}

// fillFile sets the source of each of records from the file at path.
//
// Only records without a source can fail, those that already have one are
// left as they are if their line cannot be read.
func fillFile(path string, records []*diagnostic.Record) error {
	needed := slices.ContainsFunc(records, func(record *diagnostic.Record) bool {
		return !record.HasSource
	})

	last := 0
	for _, record := range records {
		last = max(last, record.Line)
	}

	f, err := os.Open(path)
	if err != nil {
		if !needed {
			return nil
		}

		return err
	}
	defer f.Close()

	lines := make(map[int]string, len(records))
	for _, record := range records {
		lines[record.Line] = ""
	}

	reader := bufio.NewReader(f)

	lineNo := 0

	for lineNo < last {
		line, err := reader.ReadString('\n')
		if line != "" {
			lineNo++

			if _, ok := lines[lineNo]; ok {
				lines[lineNo] = strings.TrimRight(line, "\r\n")
			}
		}

		if errors.Is(err, io.EOF) {
			break
		}

		if err != nil {
			if !needed {
				return nil
			}

			return err
		}
	}

	var missing []error

	for _, record := range records {
		if record.Line > lineNo || record.Line < 1 {
			if !record.HasSource {
				missing = append(missing, fmt.Errorf("%w: line %d, file has %d lines", ErrLineOutOfRange, record.Line, lineNo))
			}

			continue
		}

		line := lines[record.Line]

		switch {
		case !record.HasSource:
			record.SetSource(line)
		case line != record.Original && expandTabs(line) == record.Original:
			record.ReplaceSource(line)
		}
	}

	return errors.Join(missing...)
}

// expandTabs replaces each tab in line with the spaces that take it to the next
// tab stop, counting columns by display width.
func expandTabs(line string) string {
	if !strings.ContainsRune(line, '\t') {
		return line
	}

	s := &strings.Builder{}
	col := 0

	for _, r := range line {
		if r == '\t' {
			n := tabStop - col%tabStop
			s.WriteString(strings.Repeat(" ", n))
			col += n

			continue
		}

		s.WriteRune(r)
		col += runewidth.RuneWidth(r)
	}

	return s.String()
}
