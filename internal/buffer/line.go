// Package buffer implements the editable line buffer backing a single source
// line under edit.
//
// A [Line] is an index addressable sequence of characters. It deliberately knows nothing
// about a cursor, callers (typically an edit session) track the cursor themselves
// and pass positions in.
//
// A character is a single UTF-8 encoded rune or, where the text is not valid UTF-8
// (e.g. a Latin-1 source file), a single byte that could not be decoded. Undecodable
// bytes are kept as they are, so the text of a line always comes back byte for byte.
//
// Positions are gaps between characters, so for a line of length n the valid positions
// are 0 through n inclusive: 0 is before the first character, n is after the last.
package buffer

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"unicode/utf8"
)

// ErrOutOfRange is returned when an operation is given a position outside
// the bounds of the line.
var ErrOutOfRange = errors.New("position out of range")

// Line is an editable sequence of characters.
//
// The zero value is an empty line ready to use.
type Line struct {
	chars []string // Encoded characters, each a valid rune or one undecodable byte
}

// FromText returns a new [Line] whose content is the characters of text, in order.
func FromText(text string) *Line {
	return &Line{chars: split(text)}
}

// split breaks text into its characters.
func split(text string) []string {
	chars := make([]string, 0, utf8.RuneCountInString(text))

	for len(text) > 0 {
		// On invalid input size is 1, so the byte is kept as its own character
		_, size := utf8.DecodeRuneInString(text)
		chars = append(chars, text[:size])
		text = text[size:]
	}

	return chars
}

// Len returns the number of characters currently held in the line.
func (l *Line) Len() int {
	if l == nil {
		return 0
	}

	return len(l.chars)
}

// String returns the full content of the line as a string, it
// never includes a line terminator.
func (l *Line) String() string {
	if l == nil {
		return ""
	}

	return strings.Join(l.chars, "")
}

// Set replaces the entire content of the line with text.
func (l *Line) Set(text string) {
	l.chars = split(text)
}

// InsertAt inserts r before the character currently at pos. If pos
// is equal to [Line.Len], r is appended.
//
// It returns an error wrapping [ErrOutOfRange] if pos is negative or
// greater than the length of the line, in which case the line is unchanged.
func (l *Line) InsertAt(pos int, r rune) error {
	if pos < 0 || pos > len(l.chars) {
		return fmt.Errorf("cannot insert at %d in line of length %d: %w", pos, len(l.chars), ErrOutOfRange)
	}

	l.chars = slices.Insert(l.chars, pos, string(r))

	return nil
}

// DeleteBefore removes the character immediately before pos, i.e. the one
// a backspace key would remove.
//
// It reports whether a character was deleted, there being nothing before pos
// (including pos being out of range) is not an error.
func (l *Line) DeleteBefore(pos int) bool {
	if pos <= 0 || pos > len(l.chars) {
		return false
	}

	l.chars = slices.Delete(l.chars, pos-1, pos)

	return true
}

// DeleteAfter removes the character immediately after pos, i.e. the one
// a delete key would remove.
//
// Like [Line.DeleteBefore] it reports whether a character was deleted.
func (l *Line) DeleteAfter(pos int) bool {
	if pos < 0 || pos >= len(l.chars) {
		return false
	}

	l.chars = slices.Delete(l.chars, pos, pos+1)

	return true
}
